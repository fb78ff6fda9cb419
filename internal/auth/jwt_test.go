package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erauner12/genvault/internal/store"
	"github.com/golang-jwt/jwt/v5"
)

type fakeUsers struct {
	byID map[string]*store.User
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*store.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*store.User{
		"u1": {ID: "u1", Username: "alice", IsActive: true},
		"u2": {ID: "u2", Username: "bob", IsActive: false},
		"u3": {ID: "u3", Username: "root", IsActive: true, IsSuperuser: true},
	}}
}

var testCfg = JWTCfg{HS256Secret: "test-secret", TokenTTL: time.Hour}

func TestIssueAndParseToken(t *testing.T) {
	now := time.Now()
	tok, exp, err := IssueToken(testCfg, "u1", now)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v", now.Add(time.Hour), exp)
	}

	sub, err := ParseToken(testCfg, tok)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if sub != "u1" {
		t.Errorf("expected sub u1, got %q", sub)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	expired, _, err := IssueToken(testCfg, "u1", time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	wrongKey, _, err := IssueToken(JWTCfg{HS256Secret: "other", TokenTTL: time.Hour}, "u1", time.Now())
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte(testCfg.HS256Secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testCfg.HS256Secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	tests := []struct {
		name string
		tok  string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"missing exp", noExp},
		{"missing sub", noSub},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(testCfg, tt.tok); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func okHandler(t *testing.T, wantID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := UserID(r.Context()); got != wantID {
			t.Errorf("expected user %q in context, got %q", wantID, got)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	users := newFakeUsers()
	valid, _, _ := IssueToken(testCfg, "u1", time.Now())
	inactive, _, _ := IssueToken(testCfg, "u2", time.Now())
	unknown, _, _ := IssueToken(testCfg, "nobody", time.Now())

	tests := []struct {
		name   string
		cfg    JWTCfg
		setup  func(r *http.Request)
		status int
		detail string
	}{
		{
			name:   "bearer header",
			cfg:    testCfg,
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			status: http.StatusOK,
		},
		{
			name:   "cookie with bearer prefix",
			cfg:    testCfg,
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "Bearer " + valid}) },
			status: http.StatusOK,
		},
		{
			name:   "bare cookie",
			cfg:    testCfg,
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: valid}) },
			status: http.StatusOK,
		},
		{
			name:   "missing credentials",
			cfg:    testCfg,
			setup:  func(r *http.Request) {},
			status: http.StatusUnauthorized,
			detail: "Not authenticated",
		},
		{
			name:   "bad token",
			cfg:    testCfg,
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") },
			status: http.StatusUnauthorized,
			detail: "Could not validate credentials",
		},
		{
			name:   "inactive user",
			cfg:    testCfg,
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+inactive) },
			status: http.StatusBadRequest,
			detail: "Inactive user",
		},
		{
			name:   "unknown user",
			cfg:    testCfg,
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+unknown) },
			status: http.StatusNotFound,
			detail: "User not found",
		},
		{
			name:   "debug header ignored outside dev mode",
			cfg:    testCfg,
			setup:  func(r *http.Request) { r.Header.Set("X-Debug-Sub", "alice") },
			status: http.StatusUnauthorized,
		},
		{
			name:   "debug header in dev mode",
			cfg:    JWTCfg{HS256Secret: testCfg.HS256Secret, TokenTTL: time.Hour, DevMode: true},
			setup:  func(r *http.Request) { r.Header.Set("X-Debug-Sub", "alice") },
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Middleware(users, tt.cfg)(okHandler(t, "u1"))
			req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.detail != "" && !strings.Contains(rec.Body.String(), tt.detail) {
				t.Errorf("expected detail %q in body %s", tt.detail, rec.Body.String())
			}
		})
	}
}

func TestViewMiddleware_RedirectsToLogin(t *testing.T) {
	h := ViewMiddleware(newFakeUsers(), testCfg)(okHandler(t, ""))
	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireSuperuser(t *testing.T) {
	users := newFakeUsers()
	tests := []struct {
		name   string
		userID string
		status int
	}{
		{"superuser", "u3", http.StatusOK},
		{"regular user", "u1", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireSuperuser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, "/v1/generation/repair", nil)
			req = req.WithContext(WithUser(req.Context(), users.byID[tt.userID]))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestCanAccess(t *testing.T) {
	owner := &store.User{ID: "a"}
	other := &store.User{ID: "b"}
	admin := &store.User{ID: "c", IsSuperuser: true}

	if !CanAccess(owner, "a") {
		t.Error("owner should access own record")
	}
	if CanAccess(other, "a") {
		t.Error("non-owner should be denied")
	}
	if !CanAccess(admin, "a") {
		t.Error("superuser should access any record")
	}
	if CanAccess(nil, "a") {
		t.Error("anonymous should be denied")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal plaintext")
	}
	if err := CheckPassword(hash, "s3cret"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err != ErrBadCredentials {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
}
