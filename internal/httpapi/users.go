package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/service/accounts"
	"github.com/erauner12/genvault/internal/store"
	"github.com/go-chi/chi/v5"
)

// usersPage is the response body for GET /v1/users
type usersPage struct {
	Data  []store.User `json:"data"`
	Count int          `json:"count"`
}

// GetMe handles GET /v1/users/me
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.CurrentUser(r.Context()))
}

// UpdateMe handles PATCH /v1/users/me
func (s *Server) UpdateMe(w http.ResponseWriter, r *http.Request) {
	s.patchUser(w, r, auth.UserID(r.Context()))
}

// ListUsers handles GET /v1/users (superuser only)
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	users, err := s.Store.ListUsers(ctx, parseSkip(q.Get("skip")), parseLimit(q.Get("limit"), 100, 1000))
	if err != nil {
		writeDomainError(w, r, err, "failed to list users")
		return
	}
	count, err := s.Store.CountUsers(ctx)
	if err != nil {
		writeDomainError(w, r, err, "failed to count users")
		return
	}
	if users == nil {
		users = []store.User{}
	}
	writeJSON(w, http.StatusOK, usersPage{Data: users, Count: count})
}

// CreateUser handles POST /v1/users (superuser only)
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in accounts.NewUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	u, err := s.Accounts.Register(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetUser handles GET /v1/users/{id}
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.Accounts.Get(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateUser handles PATCH /v1/users/{id}
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	s.patchUser(w, r, chi.URLParam(r, "id"))
}

func (s *Server) patchUser(w http.ResponseWriter, r *http.Request, id string) {
	var p accounts.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	u, err := s.Accounts.Update(r.Context(), auth.CurrentUser(r.Context()), id, p)
	if err != nil {
		writeDomainError(w, r, err, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /v1/users/{id}
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.Accounts.Delete(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
