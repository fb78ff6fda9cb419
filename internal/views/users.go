package views

import (
	"errors"
	"net/http"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/service/accounts"
	"github.com/erauner12/genvault/internal/store"
	"github.com/go-chi/chi/v5"
)

type usersData struct {
	baseData
	Users []store.User
	Count int
}

type userData struct {
	baseData
	Account *store.User
	Images  []store.Image
}

// listUsers handles GET /user (superuser only)
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !auth.IsSuperuser(auth.CurrentUser(ctx)) {
		redirect(w, r, "/", Danger, "The user doesn't have enough privileges")
		return
	}

	users, err := h.Store.ListUsers(ctx, 0, 1000)
	if err != nil {
		redirect(w, r, "/", Danger, "Failed to list users")
		return
	}
	d := usersData{baseData: h.base(w, r, "Users"), Users: users, Count: len(users)}
	h.render(w, r, "users.html", d)
}

// userPage handles GET /user/{id}
func (h *Handler) userPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := auth.CurrentUser(ctx)

	u, err := h.Accounts.Get(ctx, actor, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, accounts.ErrForbidden):
		redirect(w, r, "/", Danger, "The user doesn't have enough privileges")
		return
	case errors.Is(err, store.ErrNotFound):
		redirect(w, r, "/user", Danger, "User not found")
		return
	case err != nil:
		redirect(w, r, "/", Danger, "Failed to load user")
		return
	}

	imgs, err := h.Gallery.ListOwn(ctx, u, 0, 1000)
	if err != nil {
		redirect(w, r, "/", Danger, "Failed to load images")
		return
	}
	h.render(w, r, "user.html", userData{baseData: h.base(w, r, u.Username), Account: u, Images: imgs})
}
