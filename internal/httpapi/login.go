package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/rs/zerolog/log"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResp follows the OAuth2 password flow response shape
type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

// readLogin accepts either an OAuth2 form body or JSON
func readLogin(r *http.Request) (loginReq, error) {
	var req loginReq
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}

// LoginAccessToken handles POST /v1/login/access-token
// Exchanges a username and password for a bearer token
func (s *Server) LoginAccessToken(jwt auth.JWTCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, err := readLogin(r)
		if err != nil || req.Username == "" || req.Password == "" {
			writeError(w, r, http.StatusUnprocessableEntity, "username and password are required")
			return
		}

		u, err := s.Accounts.Authenticate(ctx, req.Username, req.Password)
		if err != nil {
			log.Ctx(ctx).Info().Str("username", req.Username).Err(err).Msg("login rejected")
			writeDomainError(w, r, err, "failed to authenticate")
			return
		}

		tok, exp, err := auth.IssueToken(jwt, u.ID, time.Now())
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to issue token")
			writeError(w, r, http.StatusInternalServerError, "failed to issue token")
			return
		}

		writeJSON(w, http.StatusOK, tokenResp{
			AccessToken: tok,
			TokenType:   "bearer",
			ExpiresAt:   exp.UTC().Format(time.RFC3339),
		})
	}
}

// TestToken handles POST /v1/login/test-token
// Returns the user the presented token belongs to
func (s *Server) TestToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.CurrentUser(r.Context()))
}
