package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/importer"
	"github.com/erauner12/genvault/internal/store"
)

const (
	cursorA = "77-20240303120000000"
	cursorB = "77-20240302120000000"
	cursorC = "77-20240301120000000"
)

// threePageSource serves a latest page pointing at A, then A -> B -> C -> end
func threePageSource() *fakeSource {
	img := func(id string) civitai.Image {
		return civitai.Image{ID: id, URL: "https://img/" + id, Width: 512, Height: 768,
			Completed: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	}
	return &fakeSource{pages: map[string]*civitai.Page{
		"":      {NextCursor: cursorA},
		cursorA: {Cursor: cursorA, NextCursor: cursorB, Images: []civitai.Image{img("a1"), img("a2")}},
		cursorB: {Cursor: cursorB, NextCursor: cursorC, Images: []civitai.Image{img("b1")}},
		cursorC: {Cursor: cursorC, Images: []civitai.Image{img("c1")}},
	}}
}

func TestGeneration_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	pool := getTestDB(t)
	defer pool.Close()

	srv := newTestServer(t, pool, threePageSource(), DefaultRateLimitConfig)
	router := srv.Routes(testJWT)
	seedUser(t, srv, "alice", false)
	seedUser(t, srv, "root", true)

	t.Run("import chain from latest", func(t *testing.T) {
		w := makeRequest(t, router, "POST", "/v1/generation/import-chain", nil, "alice")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		res := decode[importer.Result](t, w)
		if res.CursorsImported != 3 || res.ImagesImported != 4 {
			t.Errorf("Expected 3 cursors / 4 images, got %+v", res)
		}
	})

	t.Run("list cursors newest first", func(t *testing.T) {
		w := makeRequest(t, router, "GET", "/v1/generation/cursors?page=1", nil, "alice")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		page := decode[cursorsPage](t, w)
		if page.Count != 3 || page.TotalPages != 1 || len(page.Data) != 3 {
			t.Fatalf("Unexpected page: %+v", page)
		}
		want := []string{cursorA, cursorB, cursorC}
		for i, c := range page.Data {
			if c.ID != want[i] {
				t.Errorf("Position %d: expected %s, got %s", i, want[i], c.ID)
			}
			if c.PageNumber == nil || *c.PageNumber != i+1 {
				t.Errorf("Position %d: expected page number %d, got %v", i, i+1, c.PageNumber)
			}
		}
	})

	t.Run("cursor detail", func(t *testing.T) {
		w := makeRequest(t, router, "GET", "/v1/generation/cursors/"+cursorA, nil, "alice")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		d := decode[cursorDetail](t, w)
		if d.ImageCount != 2 || len(d.Images) != 2 || d.Cursor.Next() != cursorB {
			t.Errorf("Unexpected detail: %+v", d)
		}

		if w := makeRequest(t, router, "GET", "/v1/generation/cursors/77-20200101000000000", nil, "alice"); w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for unknown cursor, got %d", w.Code)
		}
	})

	t.Run("repair requires superuser and fixes links", func(t *testing.T) {
		// Break the chain behind the importer's back
		if err := srv.Store.SetNextCursor(context.Background(), cursorA, nil); err != nil {
			t.Fatalf("SetNextCursor: %v", err)
		}

		if w := makeRequest(t, router, "POST", "/v1/generation/repair", nil, "alice"); w.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", w.Code)
		}
		w := makeRequest(t, router, "POST", "/v1/generation/repair", nil, "root")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		res := decode[importer.RepairResult](t, w)
		if res.Total != 3 || res.Updated != 1 {
			t.Errorf("Expected 1 of 3 repaired, got %+v", res)
		}

		c, err := srv.Store.GetCursor(context.Background(), cursorA)
		if err != nil {
			t.Fatalf("GetCursor: %v", err)
		}
		if c.Next() != cursorB {
			t.Errorf("Expected %s relinked to %s, got %q", cursorA, cursorB, c.Next())
		}
	})

	t.Run("single page import", func(t *testing.T) {
		if w := makeRequest(t, router, "POST", "/v1/generation/import", nil, "alice"); w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Expected 422 without cursor_id, got %d", w.Code)
		}
		if w := makeRequest(t, router, "POST", "/v1/generation/import?cursor_id=garbage", nil, "alice"); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for malformed id, got %d", w.Code)
		}
		if w := makeRequest(t, router, "POST", "/v1/generation/import?cursor_id=77-20190101000000000", nil, "alice"); w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 when source yields nothing, got %d", w.Code)
		}
	})
}

func TestSettings_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	pool := getTestDB(t)
	defer pool.Close()

	srv := newTestServer(t, pool, &fakeSource{}, DefaultRateLimitConfig)
	router := srv.Routes(testJWT)
	seedUser(t, srv, "alice", false)

	w := makeRequest(t, router, "GET", "/v1/settings", nil, "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if st := decode[store.Settings](t, w); st.ID != store.CurrentSettingsID || st.CookieString != "" {
		t.Errorf("Expected empty current settings, got %+v", st)
	}

	w = makeRequest(t, router, "PUT", "/v1/settings", map[string]string{"cookie_string": "foo=bar"}, "alice")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for cookie without token, got %d", w.Code)
	}

	cookie := civitai.TokenCookie + "=abc; other=1"
	w = makeRequest(t, router, "PUT", "/v1/settings", map[string]string{"cookie_string": cookie}, "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got, err := srv.Store.CivitaiCookie(context.Background())
	if err != nil || got != cookie {
		t.Errorf("Expected stored cookie %q, got %q (%v)", cookie, got, err)
	}
}
