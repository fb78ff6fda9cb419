package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/erauner12/genvault/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const ctxUser ctxKey = "user"

// CookieName carries the access token for browser sessions
const CookieName = "access_token"

var (
	// ErrInvalidToken is returned for tokens that fail validation
	ErrInvalidToken = errors.New("could not validate credentials")

	// ErrInactiveUser is returned when a disabled account authenticates
	ErrInactiveUser = errors.New("inactive user")
)

// JWTCfg holds JWT authentication configuration
type JWTCfg struct {
	HS256Secret string        // HMAC secret for HS256 tokens
	TokenTTL    time.Duration // Lifetime of issued access tokens
	DevMode     bool          // Allow X-Debug-Sub header (DANGEROUS: only for local dev)
}

// UserLookup resolves token subjects into accounts
// *store.Store satisfies it
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
}

// IssueToken signs an access token for a user id
func IssueToken(cfg JWTCfg, userID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.HS256Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, exp, nil
}

// ParseToken validates a token and returns its subject
func ParseToken(cfg JWTCfg, tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		// Verify signing method
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.HS256Secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !t.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// tokenFromRequest reads the bearer header, falling back to the session cookie
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return h[7:]
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return strings.TrimPrefix(c.Value, "Bearer ")
	}
	return ""
}

// resolve authenticates a request
// Returns the user or the status code and detail to reject it with
func resolve(r *http.Request, users UserLookup, cfg JWTCfg) (*store.User, int, string) {
	ctx := r.Context()
	tok := tokenFromRequest(r)

	var (
		u   *store.User
		err error
	)
	switch {
	case tok != "":
		sub, perr := ParseToken(cfg, tok)
		if perr != nil {
			log.Ctx(ctx).Warn().Err(perr).Msg("jwt validation failed")
			return nil, http.StatusUnauthorized, "Could not validate credentials"
		}
		u, err = users.GetUser(ctx, sub)

	// Development mode: accept X-Debug-Sub ONLY if DevMode is enabled and no token present
	case cfg.DevMode && r.Header.Get("X-Debug-Sub") != "":
		sub := r.Header.Get("X-Debug-Sub")
		log.Ctx(ctx).Debug().Str("sub", sub).Msg("using X-Debug-Sub header (dev mode)")
		u, err = users.GetUserByUsername(ctx, sub)

	default:
		return nil, http.StatusUnauthorized, "Not authenticated"
	}

	if errors.Is(err, store.ErrNotFound) {
		return nil, http.StatusNotFound, "User not found"
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to load user")
		return nil, http.StatusInternalServerError, "server error"
	}
	if !u.IsActive {
		return nil, http.StatusBadRequest, "Inactive user"
	}
	return u, 0, ""
}

// Middleware creates HTTP middleware for JWT authentication of API routes
// Supports two modes:
// 1. Production: Bearer token (or access_token cookie) with JWT validation
// 2. Development: X-Debug-Sub header naming a username (ONLY when DevMode=true)
func Middleware(users UserLookup, cfg JWTCfg) func(http.Handler) http.Handler {
	if cfg.DevMode {
		log.Warn().Msg("SECURITY WARNING: DevMode enabled - X-Debug-Sub header will bypass JWT authentication")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, status, detail := resolve(r, users, cfg)
			if u == nil {
				if status == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", "Bearer")
				}
				writeDetail(w, status, detail)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUserLogger(WithUser(r.Context(), u), u)))
		})
	}
}

// ViewMiddleware authenticates HTML routes, redirecting to the login page on failure
func ViewMiddleware(users UserLookup, cfg JWTCfg) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _, _ := resolve(r, users, cfg)
			if u == nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUserLogger(WithUser(r.Context(), u), u)))
		})
	}
}

// Optional attaches the user when the request is authenticated and passes through otherwise
func Optional(users UserLookup, cfg JWTCfg) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, _, _ := resolve(r, users, cfg); u != nil {
				r = r.WithContext(withUserLogger(WithUser(r.Context(), u), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperuser rejects requests from non-superusers with 403
// Must run after Middleware
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsSuperuser(CurrentUser(r.Context())) {
			writeDetail(w, http.StatusForbidden, "The user doesn't have enough privileges")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// CurrentUser returns the authenticated user, or nil
func CurrentUser(ctx context.Context) *store.User {
	u, _ := ctx.Value(ctxUser).(*store.User)
	return u
}

// UserID extracts the authenticated user ID from request context
// Returns empty string if not authenticated
func UserID(ctx context.Context) string {
	if u := CurrentUser(ctx); u != nil {
		return u.ID
	}
	return ""
}

func withUserLogger(ctx context.Context, u *store.User) context.Context {
	logger := log.Ctx(ctx).With().Str("userId", u.ID).Logger()
	return logger.WithContext(ctx)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": detail}); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}
