// Command genctl runs genvault maintenance tasks against the database
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("genctl failed")
		os.Exit(1)
	}
}
