package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/db"
	"github.com/erauner12/genvault/internal/importer"
	"github.com/erauner12/genvault/internal/service/accounts"
	"github.com/erauner12/genvault/internal/service/gallery"
	"github.com/erauner12/genvault/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testJWT = auth.JWTCfg{HS256Secret: "test-secret", TokenTTL: time.Hour, DevMode: true}

// getTestDB connects to TEST_DATABASE_URL, applies the schema and empties every table
func getTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, dbURL, db.PoolCfg{MaxConns: 4})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE generated_image, cursor, image, app_user, settings`)
	if err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	return pool
}

// fakeSource serves canned Civitai pages keyed by cursor ("" = latest)
type fakeSource struct {
	mu    sync.Mutex
	pages map[string]*civitai.Page
}

func (f *fakeSource) FetchPage(_ context.Context, cursor string) (*civitai.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages[cursor], nil
}

// newTestServer wires a Server against pool with src as the Civitai source
func newTestServer(t *testing.T, pool *pgxpool.Pool, src importer.Source, rl RateLimitInfo) *Server {
	t.Helper()
	st := store.New(pool)
	srv := &Server{
		Store:           st,
		Accounts:        accounts.NewService(st),
		Gallery:         gallery.NewService(st),
		Importer:        importer.New(st, src),
		RateLimitConfig: rl,
	}
	t.Cleanup(srv.Close)
	return srv
}

// seedUser creates an active account through the accounts service
func seedUser(t *testing.T, srv *Server, username string, superuser bool) *store.User {
	t.Helper()

	u, err := srv.Accounts.Register(context.Background(), accounts.NewUser{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "password",
		IsSuperuser: superuser,
	})
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	return u
}

// makeRequest performs a JSON request authenticated through the dev-mode X-Debug-Sub header
func makeRequest(t *testing.T, router http.Handler, method, path string, body any, username string) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if username != "" {
		req.Header.Set("X-Debug-Sub", username)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

// decode unmarshals a recorder body or fails the test
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}
