package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/importer"
	"github.com/erauner12/genvault/internal/service/accounts"
	"github.com/erauner12/genvault/internal/service/gallery"
	"github.com/erauner12/genvault/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Server holds dependencies for HTTP handlers
type Server struct {
	Store           *store.Store
	Accounts        *accounts.Service
	Gallery         *gallery.Service
	Importer        *importer.Importer
	RateLimitConfig RateLimitInfo

	limiter *RateLimiter
}

// Close stops background work started by Routes
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// errorResp is the body of every non-2xx API response
// CorrelationID is only set on server errors so they can be traced in the logs
type errorResp struct {
	Detail        string `json:"detail"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}

// writeError writes a {"detail": ...} error body
func writeError(w http.ResponseWriter, r *http.Request, code int, detail string) {
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, code, errorResp{Detail: detail})
}

// parseLimit parses a limit query param with default and max
func parseLimit(q string, def, max int) int {
	if q == "" {
		return def
	}
	n, err := strconv.Atoi(q)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// parseSkip parses a non-negative offset query param
func parseSkip(q string) int {
	n, err := strconv.Atoi(q)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Routes creates the HTTP router with all API endpoints
// mounts registers additional route groups (the HTML views) on the same router.
func (s *Server) Routes(jwt auth.JWTCfg, mounts ...func(chi.Router)) http.Handler {
	if s.limiter == nil {
		s.limiter = NewRateLimiter(s.RateLimitConfig)
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Correlation)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check (unauthenticated)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", s.Info)
		r.Post("/login/access-token", s.LoginAccessToken(jwt))

		// Everything else requires authentication
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.Store, jwt))
			r.Use(s.limiter.Middleware)

			r.Post("/login/test-token", s.TestToken)

			// Users
			r.Get("/users/me", s.GetMe)
			r.Patch("/users/me", s.UpdateMe)
			r.Get("/users/{id}", s.GetUser)
			r.Patch("/users/{id}", s.UpdateUser)
			r.Delete("/users/{id}", s.DeleteUser)
			r.With(auth.RequireSuperuser).Get("/users", s.ListUsers)
			r.With(auth.RequireSuperuser).Post("/users", s.CreateUser)

			// Images
			r.Get("/images", s.ListImages)
			r.Post("/images", s.CreateImage)
			r.Get("/images/{id}", s.GetImage)
			r.Patch("/images/{id}", s.UpdateImage)
			r.Delete("/images/{id}", s.DeleteImage)

			// Generation history
			r.Post("/generation/import", s.ImportPage)
			r.Post("/generation/import-chain", s.ImportChain)
			r.With(auth.RequireSuperuser).Post("/generation/repair", s.RepairChain)
			r.Get("/generation/cursors", s.ListCursors)
			r.Get("/generation/cursors/{id}", s.GetCursor)

			// Settings
			r.Get("/settings", s.GetSettings)
			r.Put("/settings", s.UpdateSettings)
		})
	})

	for _, mount := range mounts {
		mount(r)
	}

	log.Info().Msg("HTTP routes registered")
	return r
}
