package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/genvault/internal/civitai"
)

type settingsReq struct {
	CookieString string `json:"cookie_string"`
}

// GetSettings handles GET /v1/settings
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.Store.CurrentSettings(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UpdateSettings handles PUT /v1/settings
// The cookie string must carry the Civitai session token
func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := civitai.ValidateCookie(req.CookieString); err != nil {
		writeDomainError(w, r, err, "invalid cookie")
		return
	}

	st, err := s.Store.UpdateCookie(r.Context(), req.CookieString)
	if err != nil {
		writeDomainError(w, r, err, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
