package importer

import (
	"context"
	"time"

	"github.com/erauner12/genvault/internal/cursorid"
	"github.com/erauner12/genvault/internal/store"
	"github.com/rs/zerolog/log"
)

// RepairResult lists the cursors a repair pass rewrote
type RepairResult struct {
	Total      int      `json:"total"`
	Updated    int      `json:"updated"`
	UpdatedIDs []string `json:"updated_ids"`
}

// RepairChain reconciles every cursor against its position in the newest-first order
// Page numbers become 1..N, created_at is re-derived from the id, each cursor links
// to the next older one and the oldest links to nothing. Running it twice is a no-op.
func (im *Importer) RepairChain(ctx context.Context) (RepairResult, error) {
	all, err := im.Store.AllCursors(ctx)
	if err != nil {
		return RepairResult{}, err
	}

	res := RepairResult{Total: len(all), UpdatedIDs: []string{}}
	for i := range all {
		c := all[i]

		want := store.CursorFields{
			PageNumber: i + 1,
			CreatedAt:  c.CreatedAt,
		}
		if ts, err := cursorid.Timestamp(c.ID); err == nil {
			want.CreatedAt = ts
		}
		if i+1 < len(all) {
			next := all[i+1].ID
			want.NextCursorID = &next
		}

		if !needsRepair(c, want) {
			continue
		}
		if err := im.Store.UpdateCursorFields(ctx, c.ID, want); err != nil {
			return res, err
		}
		res.Updated++
		res.UpdatedIDs = append(res.UpdatedIDs, c.ID)
	}

	log.Ctx(ctx).Info().
		Int("total", res.Total).
		Int("updated", res.Updated).
		Msg("cursor chain repaired")
	return res, nil
}

func needsRepair(c store.Cursor, want store.CursorFields) bool {
	if c.PageNumber == nil || *c.PageNumber != want.PageNumber {
		return true
	}
	if !sameInstant(c.CreatedAt, want.CreatedAt) {
		return true
	}
	return c.Next() != derefOr(want.NextCursorID) || (c.NextCursorID == nil) != (want.NextCursorID == nil)
}

func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Millisecond).Equal(b.Truncate(time.Millisecond))
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
