package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/service/gallery"
	"github.com/erauner12/genvault/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type imageReq struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// ListImages handles GET /v1/images
// Superusers see every image, everyone else their own
func (s *Server) ListImages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	imgs, err := s.Gallery.List(r.Context(), auth.CurrentUser(r.Context()),
		parseSkip(q.Get("skip")), parseLimit(q.Get("limit"), 100, 1000))
	if err != nil {
		writeDomainError(w, r, err, "failed to list images")
		return
	}
	if imgs == nil {
		imgs = []store.Image{}
	}
	writeJSON(w, http.StatusOK, imgs)
}

// CreateImage handles POST /v1/images
func (s *Server) CreateImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req imageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	img, err := s.Gallery.Create(ctx, auth.CurrentUser(ctx), store.Image{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
	})
	if errors.Is(err, gallery.ErrDuplicate) {
		log.Ctx(ctx).Info().Str("url", req.URL).Msg("image already exists")
		writeJSON(w, http.StatusOK, errorResp{Detail: "Images already exists"})
		return
	}
	if err != nil {
		writeDomainError(w, r, err, "failed to create image")
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

// GetImage handles GET /v1/images/{id}
func (s *Server) GetImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.Gallery.Get(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "failed to get image")
		return
	}
	writeJSON(w, http.StatusOK, img)
}

// UpdateImage handles PATCH /v1/images/{id}
func (s *Server) UpdateImage(w http.ResponseWriter, r *http.Request) {
	var upd store.ImageUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	img, err := s.Gallery.Update(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeDomainError(w, r, err, "failed to update image")
		return
	}
	writeJSON(w, http.StatusOK, img)
}

// DeleteImage handles DELETE /v1/images/{id}
func (s *Server) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Gallery.Delete(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err, "failed to delete image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
