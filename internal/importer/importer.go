// Package importer walks Civitai's generation cursor chain into the store
// and reconciles the stored chain afterwards.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/cursorid"
	"github.com/erauner12/genvault/internal/store"
	"github.com/rs/zerolog/log"
)

// ConsecutiveExistingThreshold stops a walk after this many already-imported pages in a row
const ConsecutiveExistingThreshold = 5

// ErrNoData is returned when upstream has nothing for a requested cursor
var ErrNoData = errors.New("no data found for cursor")

// Store is the persistence the importer needs
// *store.Store satisfies it
type Store interface {
	GetCursor(ctx context.Context, id string) (*store.Cursor, error)
	CursorExists(ctx context.Context, id string) (bool, error)
	CreateCursor(ctx context.Context, id string, next *string) (*store.Cursor, error)
	LatestCursor(ctx context.Context) (*store.Cursor, error)
	AllCursors(ctx context.Context) ([]store.Cursor, error)
	SetNextCursor(ctx context.Context, id string, next *string) error
	UpdateCursorFields(ctx context.Context, id string, f store.CursorFields) error
	GeneratedImageExists(ctx context.Context, id string) (bool, error)
	CreateGeneratedImage(ctx context.Context, g store.GeneratedImage) (*store.GeneratedImage, error)
}

// Source fetches pages of generation history
// *civitai.Client satisfies it
type Source interface {
	FetchPage(ctx context.Context, cursor string) (*civitai.Page, error)
}

// StopReason explains why a chain walk ended
type StopReason string

const (
	StopChainEnd            StopReason = "chain_end"
	StopSourceEmpty         StopReason = "source_empty"
	StopConsecutiveExisting StopReason = "consecutive_existing"
	StopCycle               StopReason = "cycle"
)

// Result summarizes a chain import
type Result struct {
	StartCursor     string     `json:"start_cursor"`
	CursorsImported int        `json:"cursors_imported"`
	ImagesImported  int        `json:"images_imported"`
	CursorsSkipped  int        `json:"cursors_skipped"`
	TipRelinked     bool       `json:"tip_relinked"`
	StopReason      StopReason `json:"stop_reason"`
}

// PageResult summarizes a single-page import
type PageResult struct {
	Cursor         *store.Cursor `json:"cursor"`
	ImagesImported int           `json:"images_imported"`
	ImagesSkipped  int           `json:"images_skipped"`
}

// Importer imports and repairs the cursor chain
type Importer struct {
	Store  Store
	Source Source
}

// New creates an Importer
func New(st Store, src Source) *Importer {
	return &Importer{Store: st, Source: src}
}

// ImportChain walks the chain from startID, or from upstream's current cursor when startID is ""
// Pages already present are followed through their stored link without refetching.
// Rows committed before an error stay in place; re-running is idempotent.
func (im *Importer) ImportChain(ctx context.Context, startID string) (Result, error) {
	logger := log.Ctx(ctx).With().Str("op", "import_chain").Logger()
	res := Result{StartCursor: startID}

	current := startID
	if current == "" {
		latest, err := im.Source.FetchPage(ctx, "")
		if err != nil {
			return res, fmt.Errorf("fetch latest page: %w", err)
		}
		if latest == nil || latest.NextCursor == "" {
			logger.Info().Msg("upstream has no generation history")
			res.StopReason = StopSourceEmpty
			return res, nil
		}
		current = latest.NextCursor
		res.StartCursor = current

		relinked, err := im.relinkTip(ctx, current)
		if err != nil {
			return res, err
		}
		res.TipRelinked = relinked
	}

	visited := make(map[string]struct{})
	consecutive := 0

	for current != "" {
		if _, seen := visited[current]; seen {
			logger.Warn().Str("cursor", current).Msg("cursor revisited, stopping to avoid a loop")
			res.StopReason = StopCycle
			return res, nil
		}
		visited[current] = struct{}{}

		existing, err := im.Store.GetCursor(ctx, current)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return res, err
		}

		if existing != nil {
			consecutive++
			res.CursorsSkipped++
			if consecutive >= ConsecutiveExistingThreshold {
				logger.Info().
					Str("cursor", current).
					Int("consecutive", consecutive).
					Msg("reached already-imported history, stopping")
				res.StopReason = StopConsecutiveExisting
				return res, nil
			}
			logger.Info().Str("cursor", current).Msg("cursor already exists, continuing to next cursor")
			current = existing.Next()
			continue
		}

		page, err := im.Source.FetchPage(ctx, current)
		if err != nil {
			return res, fmt.Errorf("fetch cursor %s: %w", current, err)
		}
		if page == nil {
			logger.Warn().Str("cursor", current).Msg("no data found for cursor")
			res.StopReason = StopSourceEmpty
			return res, nil
		}

		c, err := im.Store.CreateCursor(ctx, current, optional(page.NextCursor))
		if err != nil {
			return res, err
		}
		res.CursorsImported++
		consecutive = 0

		imported, _, err := im.importImages(ctx, c, page.Images)
		res.ImagesImported += imported
		if err != nil {
			return res, err
		}

		logger.Info().
			Str("cursor", c.ID).
			Int("images", imported).
			Msg("imported cursor")

		current = page.NextCursor
	}

	logger.Info().
		Int("cursors", res.CursorsImported).
		Int("images", res.ImagesImported).
		Msg("no more cursors to import")
	res.StopReason = StopChainEnd
	return res, nil
}

// ImportPage imports exactly one page without following the chain
func (im *Importer) ImportPage(ctx context.Context, cursorID string) (PageResult, error) {
	var res PageResult
	if _, err := cursorid.Parse(cursorID); err != nil {
		return res, err
	}

	exists, err := im.Store.CursorExists(ctx, cursorID)
	if err != nil {
		return res, err
	}
	if exists {
		return res, fmt.Errorf("import cursor %s: %w", cursorID, store.ErrAlreadyExists)
	}

	page, err := im.Source.FetchPage(ctx, cursorID)
	if err != nil {
		return res, fmt.Errorf("fetch cursor %s: %w", cursorID, err)
	}
	if page == nil {
		return res, fmt.Errorf("%w: %s", ErrNoData, cursorID)
	}

	c, err := im.Store.CreateCursor(ctx, cursorID, optional(page.NextCursor))
	if err != nil {
		return res, err
	}
	res.Cursor = c

	res.ImagesImported, res.ImagesSkipped, err = im.importImages(ctx, c, page.Images)
	return res, err
}

// importImages stores the images of one page, skipping ids already present
func (im *Importer) importImages(ctx context.Context, c *store.Cursor, images []civitai.Image) (int, int, error) {
	imported, skipped := 0, 0
	for _, img := range images {
		exists, err := im.Store.GeneratedImageExists(ctx, img.ID)
		if err != nil {
			return imported, skipped, err
		}
		if exists {
			log.Ctx(ctx).Debug().Str("image", img.ID).Msg("image already exists, skipping")
			skipped++
			continue
		}

		created := img.Completed
		if created.IsZero() {
			created = c.CreatedAt
		}
		if _, err := im.Store.CreateGeneratedImage(ctx, store.GeneratedImage{
			ID:        img.ID,
			CursorID:  c.ID,
			URL:       img.URL,
			Width:     img.Width,
			Height:    img.Height,
			CreatedAt: created,
		}); err != nil {
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}

// relinkTip points the newest local cursor at upstream's current cursor
// Only a strictly newer tip is relinked, keeping every link pointing backwards in time
func (im *Importer) relinkTip(ctx context.Context, currentID string) (bool, error) {
	tip, err := im.Store.LatestCursor(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if tip.ID == currentID || tip.Next() == currentID {
		return false, nil
	}
	if !cursorid.Newer(tip.ID, currentID) {
		return false, nil
	}

	if err := im.Store.SetNextCursor(ctx, tip.ID, &currentID); err != nil {
		return false, err
	}
	log.Ctx(ctx).Info().
		Str("tip", tip.ID).
		Str("next", currentID).
		Msg("relinked chain tip")
	return true, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
