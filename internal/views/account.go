package views

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/service/accounts"
	"github.com/erauner12/genvault/internal/store"
	"github.com/rs/zerolog/log"
)

type homeData struct {
	baseData
	ImageCount  int
	CursorCount int
	Latest      *store.Cursor
}

type accountData struct {
	baseData
	Account *store.User
}

// loginPage handles GET /login
// Signed-in users go straight to the home page
func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if auth.CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", h.base(w, r, "Login"))
}

// login handles POST /login
// Issues a token and stores it in the access_token cookie
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/login", Danger, "Invalid form")
		return
	}

	u, err := h.Accounts.Authenticate(ctx, r.PostForm.Get("username"), r.PostForm.Get("password"))
	switch {
	case errors.Is(err, auth.ErrBadCredentials):
		redirect(w, r, "/login", Danger, "Incorrect username or password")
		return
	case errors.Is(err, auth.ErrInactiveUser):
		redirect(w, r, "/login", Danger, "Inactive user")
		return
	case err != nil:
		log.Ctx(ctx).Error().Err(err).Msg("login failed")
		redirect(w, r, "/login", Danger, "Login failed")
		return
	}

	tok, exp, err := auth.IssueToken(h.JWT, u.ID, time.Now())
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to issue token")
		redirect(w, r, "/login", Danger, "Login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "Bearer " + tok,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, "/", Success, "Welcome back, "+u.Username)
}

// logout handles GET /logout
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	redirect(w, r, "/login", Info, "You have been logged out")
}

// home handles GET /
func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d := homeData{baseData: h.base(w, r, "Home")}

	imgs, err := h.Gallery.ListOwn(ctx, d.User, 0, 1000)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to count images")
	}
	d.ImageCount = len(imgs)

	if d.CursorCount, err = h.Store.CountCursors(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to count cursors")
	}
	if d.Latest, err = h.Store.LatestCursor(ctx); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to load latest cursor")
	}

	h.render(w, r, "home.html", d)
}

// accountPage handles GET /account
func (h *Handler) accountPage(w http.ResponseWriter, r *http.Request) {
	d := accountData{baseData: h.base(w, r, "Account")}
	d.Account = d.User
	h.render(w, r, "account.html", d)
}

// updateAccount handles POST /account
func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/account", Danger, "Invalid form")
		return
	}
	u := auth.CurrentUser(ctx)

	var p accounts.Patch
	if v := strings.TrimSpace(r.PostForm.Get("email")); v != "" {
		p.Email = &v
	}
	if v, ok := r.PostForm["full_name"]; ok {
		name := strings.TrimSpace(v[0])
		p.FullName = &name
	}
	if pw := r.PostForm.Get("password"); pw != "" {
		if pw != r.PostForm.Get("password_confirm") {
			redirect(w, r, "/account", Danger, "Passwords do not match")
			return
		}
		p.Password = &pw
	}

	if _, err := h.Accounts.Update(ctx, u, u.ID, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			redirect(w, r, "/account", Danger, "Email already in use")
			return
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to update account")
		redirect(w, r, "/account", Danger, "Failed to update account")
		return
	}
	redirect(w, r, "/account", Success, "Account updated")
}
