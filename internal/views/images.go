package views

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/service/gallery"
	"github.com/erauner12/genvault/internal/store"
	"github.com/go-chi/chi/v5"
)

type imagesData struct {
	baseData
	Images []store.Image
	All    bool
}

type imageData struct {
	baseData
	Image *store.Image
}

// imageError turns a gallery error into a danger alert and redirect
func imageError(w http.ResponseWriter, r *http.Request, err error, to string) {
	switch {
	case errors.Is(err, gallery.ErrForbidden):
		redirect(w, r, to, Danger, "Not enough permissions")
	case errors.Is(err, gallery.ErrNotFound):
		redirect(w, r, to, Danger, "Images not found")
	case errors.Is(err, gallery.ErrDuplicate):
		redirect(w, r, to, Warning, "Images already exists")
	case errors.Is(err, gallery.ErrInvalidInput):
		redirect(w, r, to, Danger, "Title and URL are required")
	default:
		redirect(w, r, to, Danger, "Something went wrong: "+err.Error())
	}
}

// listOwnImages handles GET /imagess
func (h *Handler) listOwnImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	imgs, err := h.Gallery.ListOwn(ctx, auth.CurrentUser(ctx), 0, 1000)
	if err != nil {
		imageError(w, r, err, "/")
		return
	}
	h.render(w, r, "images.html", imagesData{baseData: h.base(w, r, "My images"), Images: imgs})
}

// listAllImages handles GET /imagess/all (superuser only)
func (h *Handler) listAllImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := auth.CurrentUser(ctx)
	if !auth.IsSuperuser(u) {
		redirect(w, r, "/imagess", Danger, "The user doesn't have enough privileges")
		return
	}
	imgs, err := h.Gallery.List(ctx, u, 0, 1000)
	if err != nil {
		imageError(w, r, err, "/")
		return
	}
	h.render(w, r, "images.html", imagesData{baseData: h.base(w, r, "All images"), Images: imgs, All: true})
}

// imagePage handles GET /images/{id}
func (h *Handler) imagePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	img, err := h.Gallery.Get(ctx, auth.CurrentUser(ctx), chi.URLParam(r, "id"))
	if err != nil {
		imageError(w, r, err, "/imagess")
		return
	}
	h.render(w, r, "image.html", imageData{baseData: h.base(w, r, img.Title), Image: img})
}

// createImagePage handles GET /imagess/create
func (h *Handler) createImagePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "image_form.html", imageData{baseData: h.base(w, r, "New image")})
}

// createImage handles POST /imagess/create
func (h *Handler) createImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/imagess/create", Danger, "Invalid form")
		return
	}

	img, err := h.Gallery.Create(ctx, auth.CurrentUser(ctx), store.Image{
		Title:       r.PostForm.Get("title"),
		Description: strings.TrimSpace(r.PostForm.Get("description")),
		URL:         r.PostForm.Get("url"),
	})
	if err != nil {
		imageError(w, r, err, "/imagess/create")
		return
	}
	redirect(w, r, "/images/"+img.ID, Success, "Image created")
}

// editImagePage handles GET /images/{id}/edit
func (h *Handler) editImagePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	img, err := h.Gallery.Get(ctx, auth.CurrentUser(ctx), chi.URLParam(r, "id"))
	if err != nil {
		imageError(w, r, err, "/imagess")
		return
	}
	h.render(w, r, "image_form.html", imageData{baseData: h.base(w, r, "Edit "+img.Title), Image: img})
}

// editImage handles POST /images/{id}/edit
func (h *Handler) editImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/images/"+id+"/edit", Danger, "Invalid form")
		return
	}

	title := strings.TrimSpace(r.PostForm.Get("title"))
	desc := strings.TrimSpace(r.PostForm.Get("description"))
	u := strings.TrimSpace(r.PostForm.Get("url"))
	_, err := h.Gallery.Update(ctx, auth.CurrentUser(ctx), id, store.ImageUpdate{
		Title:       &title,
		Description: &desc,
		URL:         &u,
	})
	if err != nil {
		imageError(w, r, err, "/images/"+id+"/edit")
		return
	}
	redirect(w, r, "/images/"+id, Success, "Image updated")
}

// deleteImage handles GET /images/{id}/delete
func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	img, err := h.Gallery.Delete(ctx, auth.CurrentUser(ctx), chi.URLParam(r, "id"))
	if err != nil {
		imageError(w, r, err, "/imagess")
		return
	}
	redirect(w, r, "/imagess", Success, "Deleted "+img.Title)
}
