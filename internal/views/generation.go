package views

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type cursorsData struct {
	baseData
	Cursors    []store.Cursor
	Count      int
	Page       int
	TotalPages int
}

type cursorData struct {
	baseData
	Cursor     *store.Cursor
	Images     []store.GeneratedImage
	ImageCount int
}

// listCursors handles GET /generation?page=
func (h *Handler) listCursors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := pageParam(r)

	count, err := h.Store.CountCursors(ctx)
	if err != nil {
		redirect(w, r, "/", Danger, "Failed to count cursors")
		return
	}
	page, total := clampPage(page, count)
	cursors, err := h.Store.ListCursors(ctx, (page-1)*PageSize, PageSize)
	if err != nil {
		redirect(w, r, "/", Danger, "Failed to list cursors")
		return
	}
	h.render(w, r, "generation.html", cursorsData{
		baseData:   h.base(w, r, "Generation"),
		Cursors:    cursors,
		Count:      count,
		Page:       page,
		TotalPages: total,
	})
}

// cursorPage handles GET /generation/{cursor_id}
func (h *Handler) cursorPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "cursor_id")

	c, err := h.Store.GetCursor(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		redirect(w, r, "/generation", Danger, "Cursor not found")
		return
	}
	if err != nil {
		redirect(w, r, "/generation", Danger, "Failed to load cursor")
		return
	}
	imgs, err := h.Store.ListGeneratedImagesByCursor(ctx, id, 0, 1000)
	if err != nil {
		redirect(w, r, "/generation", Danger, "Failed to load images")
		return
	}
	count, err := h.Store.CountGeneratedImages(ctx, id)
	if err != nil {
		redirect(w, r, "/generation", Danger, "Failed to count images")
		return
	}

	h.render(w, r, "cursor.html", cursorData{
		baseData:   h.base(w, r, id),
		Cursor:     c,
		Images:     imgs,
		ImageCount: count,
	})
}

// importChain handles POST /generation/import
// An empty cursor_id starts from upstream's latest page
func (h *Handler) importChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/generation", Danger, "Invalid form")
		return
	}
	start := strings.TrimSpace(r.PostForm.Get("cursor_id"))

	res, err := h.Importer.ImportChain(ctx, start)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("start", start).Msg("chain import failed")
		msg := "Import failed: " + err.Error()
		if errors.Is(err, civitai.ErrCookieNotConfigured) {
			msg = "Set a Civitai cookie in settings before importing"
		}
		if res.CursorsImported > 0 {
			msg += fmt.Sprintf(" (%d cursors imported before the error)", res.CursorsImported)
		}
		redirect(w, r, "/generation", Danger, msg)
		return
	}

	redirect(w, r, "/generation", Success, fmt.Sprintf(
		"Imported %d cursors and %d images, skipped %d existing (%s)",
		res.CursorsImported, res.ImagesImported, res.CursorsSkipped, res.StopReason))
}

// repairChain handles POST /generation/repair (superuser only)
func (h *Handler) repairChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !auth.IsSuperuser(auth.CurrentUser(ctx)) {
		redirect(w, r, "/generation", Danger, "The user doesn't have enough privileges")
		return
	}

	res, err := h.Importer.RepairChain(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("chain repair failed")
		redirect(w, r, "/generation", Danger, "Repair failed: "+err.Error())
		return
	}
	redirect(w, r, "/generation", Success, fmt.Sprintf("Repaired %d of %d cursors", res.Updated, res.Total))
}
