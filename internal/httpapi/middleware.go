package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CorrelationHeader carries the id tying client and server logs together
const CorrelationHeader = "X-Correlation-ID"

// maxCorrelationLen bounds client-supplied ids before they reach the logs
const maxCorrelationLen = 64

type correlationKey struct{}

// Correlation assigns every request a correlation id
// A well-formed client id is reused, anything else is replaced with a fresh uuid.
// The id is echoed in the response and attached to the request logger.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if !validCorrelationID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationHeader, id)

		ctx := context.WithValue(r.Context(), correlationKey{}, id)
		logger := log.With().Str("correlation_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
	})
}

// CorrelationID returns the id assigned by Correlation, or ""
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
