// Package views serves the server-rendered HTML pages
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/importer"
	"github.com/erauner12/genvault/internal/service/accounts"
	"github.com/erauner12/genvault/internal/service/gallery"
	"github.com/erauner12/genvault/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PageSize is the number of cursors listed per generation page
const PageSize = 10

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"deref": func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	},
	"derefInt": func(p *int) string {
		if p == nil {
			return "-"
		}
		return strconv.Itoa(*p)
	},
	"when": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02 15:04:05.000")
	},
}

// baseData is embedded in every page's data
type baseData struct {
	Title  string
	User   *store.User
	Alerts []Alert
}

// Handler renders the HTML pages
type Handler struct {
	Store    *store.Store
	Accounts *accounts.Service
	Gallery  *gallery.Service
	Importer *importer.Importer
	JWT      auth.JWTCfg

	// Users resolves session tokens, defaults to Store
	Users auth.UserLookup

	// SecureCookies marks the session cookie Secure (HTTPS deployments)
	SecureCookies bool

	pages map[string]*template.Template
}

// New parses every page template against the base layout
func New(st *store.Store, acc *accounts.Service, gal *gallery.Service, im *importer.Importer, jwt auth.JWTCfg) (*Handler, error) {
	pages, err := parsePages(templatesFS)
	if err != nil {
		return nil, err
	}
	return &Handler{
		Store:    st,
		Accounts: acc,
		Gallery:  gal,
		Importer: im,
		JWT:      jwt,
		Users:    st,
		pages:    pages,
	}, nil
}

func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == "templates/base.html" {
			continue
		}
		tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, "templates/base.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name[len("templates/"):]] = tmpl
	}
	return pages, nil
}

// Register mounts the HTML routes on r
func (h *Handler) Register(r chi.Router) {
	r.With(auth.Optional(h.Users, h.JWT)).Get("/login", h.loginPage)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(auth.ViewMiddleware(h.Users, h.JWT))

		r.Get("/", h.home)
		r.Get("/account", h.accountPage)
		r.Post("/account", h.updateAccount)

		r.Get("/user", h.listUsers)
		r.Get("/user/{id}", h.userPage)

		r.Get("/imagess", h.listOwnImages)
		r.Get("/imagess/all", h.listAllImages)
		r.Get("/imagess/create", h.createImagePage)
		r.Post("/imagess/create", h.createImage)
		r.Get("/images/{id}", h.imagePage)
		r.Get("/images/{id}/edit", h.editImagePage)
		r.Post("/images/{id}/edit", h.editImage)
		r.Get("/images/{id}/delete", h.deleteImage)

		r.Get("/generation", h.listCursors)
		r.Get("/generation/{cursor_id}", h.cursorPage)
		r.Post("/generation/import", h.importChain)
		r.Post("/generation/repair", h.repairChain)

		r.Get("/settings", h.settingsPage)
		r.Post("/settings", h.updateSettings)
	})
}

// base builds the shared page data, consuming pending alerts
func (h *Handler) base(w http.ResponseWriter, r *http.Request, title string) baseData {
	return baseData{
		Title:  title,
		User:   auth.CurrentUser(r.Context()),
		Alerts: readAlerts(w, r).All(),
	}
}

// render executes page inside the base layout
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	tmpl, ok := h.pages[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("template execute")
	}
}

// pageParam parses a 1-based ?page= value
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// clampPage caps a 1-based page at the last page of count items and returns both
func clampPage(page, count int) (int, int) {
	total := (count + PageSize - 1) / PageSize
	if total < 1 {
		total = 1
	}
	if page > total {
		page = total
	}
	return page, total
}
