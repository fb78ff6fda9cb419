package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/erauner12/genvault/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// CursorPageSize is the number of cursors per page of history
const CursorPageSize = 10

type importChainReq struct {
	CursorID string `json:"cursor_id"`
}

type cursorsPage struct {
	Data       []store.Cursor `json:"data"`
	Count      int            `json:"count"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

type cursorDetail struct {
	Cursor     *store.Cursor          `json:"cursor"`
	Images     []store.GeneratedImage `json:"images"`
	ImageCount int                    `json:"image_count"`
}

// parsePage parses a 1-based page query param
func parsePage(q string) int {
	n, err := strconv.Atoi(q)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// totalPages returns the page count for n items, at least 1
func totalPages(n, size int) int {
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// pageWindow clamps a 1-based page to the last available page and returns it with its offset
func pageWindow(page, count, size int) (int, int) {
	if last := totalPages(count, size); page > last {
		page = last
	}
	return page, (page - 1) * size
}

// ImportPage handles POST /v1/generation/import?cursor_id=
// Imports exactly one page without following the chain
func (s *Server) ImportPage(w http.ResponseWriter, r *http.Request) {
	cursorID := r.URL.Query().Get("cursor_id")
	if cursorID == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "cursor_id is required")
		return
	}

	res, err := s.Importer.ImportPage(r.Context(), cursorID)
	if err != nil {
		writeDomainError(w, r, err, "failed to import cursor")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ImportChain handles POST /v1/generation/import-chain
// An empty body or cursor_id starts from upstream's latest page
func (s *Server) ImportChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req importChainReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.Importer.ImportChain(ctx, req.CursorID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int("cursorsImported", res.CursorsImported).Msg("chain import stopped on error")
		writeDomainError(w, r, err, "failed to import cursor chain")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RepairChain handles POST /v1/generation/repair (superuser only)
func (s *Server) RepairChain(w http.ResponseWriter, r *http.Request) {
	res, err := s.Importer.RepairChain(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "failed to repair cursor chain")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListCursors handles GET /v1/generation/cursors?page=
func (s *Server) ListCursors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := parsePage(r.URL.Query().Get("page"))

	count, err := s.Store.CountCursors(ctx)
	if err != nil {
		writeDomainError(w, r, err, "failed to count cursors")
		return
	}
	page, skip := pageWindow(page, count, CursorPageSize)
	cursors, err := s.Store.ListCursors(ctx, skip, CursorPageSize)
	if err != nil {
		writeDomainError(w, r, err, "failed to list cursors")
		return
	}
	if cursors == nil {
		cursors = []store.Cursor{}
	}

	writeJSON(w, http.StatusOK, cursorsPage{
		Data:       cursors,
		Count:      count,
		Page:       page,
		TotalPages: totalPages(count, CursorPageSize),
	})
}

// GetCursor handles GET /v1/generation/cursors/{id}
func (s *Server) GetCursor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	c, err := s.Store.GetCursor(ctx, id)
	if err != nil {
		writeDomainError(w, r, err, "failed to get cursor")
		return
	}
	imgs, err := s.Store.ListGeneratedImagesByCursor(ctx, id, 0, 1000)
	if err != nil {
		writeDomainError(w, r, err, "failed to list generated images")
		return
	}
	count, err := s.Store.CountGeneratedImages(ctx, id)
	if err != nil {
		writeDomainError(w, r, err, "failed to count generated images")
		return
	}
	if imgs == nil {
		imgs = []store.GeneratedImage{}
	}
	writeJSON(w, http.StatusOK, cursorDetail{Cursor: c, Images: imgs, ImageCount: count})
}
