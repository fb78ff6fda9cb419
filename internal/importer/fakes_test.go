package importer

import (
	"context"
	"fmt"
	"sync"

	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/cursorid"
	"github.com/erauner12/genvault/internal/store"
)

// memStore is an in-memory Store mirroring the page-number bookkeeping of store.Store
type memStore struct {
	mu      sync.Mutex
	cursors map[string]*store.Cursor
	images  map[string]store.GeneratedImage
}

func newMemStore() *memStore {
	return &memStore{
		cursors: make(map[string]*store.Cursor),
		images:  make(map[string]store.GeneratedImage),
	}
}

func (m *memStore) GetCursor(_ context.Context, id string) (*store.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[id]
	if !ok {
		return nil, fmt.Errorf("get cursor: %w", store.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) CursorExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cursors[id]
	return ok, nil
}

func (m *memStore) CreateCursor(_ context.Context, id string, next *string) (*store.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts, err := cursorid.Timestamp(id)
	if err != nil {
		return nil, err
	}
	if _, ok := m.cursors[id]; ok {
		return nil, fmt.Errorf("create cursor: %w", store.ErrAlreadyExists)
	}

	page := 1
	for existingID, c := range m.cursors {
		if cursorid.Newer(existingID, id) {
			page++
		} else if c.PageNumber != nil {
			n := *c.PageNumber + 1
			c.PageNumber = &n
		}
	}

	c := &store.Cursor{ID: id, PageNumber: &page, CreatedAt: ts}
	if next != nil {
		n := *next
		c.NextCursorID = &n
	}
	m.cursors[id] = c
	cp := *c
	return &cp, nil
}

func (m *memStore) LatestCursor(ctx context.Context) (*store.Cursor, error) {
	all, _ := m.AllCursors(ctx)
	if len(all) == 0 {
		return nil, fmt.Errorf("latest cursor: %w", store.ErrNotFound)
	}
	return &all[0], nil
}

func (m *memStore) AllCursors(_ context.Context) ([]store.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Cursor, 0, len(m.cursors))
	for _, c := range m.cursors {
		out = append(out, *c)
	}
	ids := make([]string, 0, len(out))
	for _, c := range out {
		ids = append(ids, c.ID)
	}
	cursorid.Sort(ids)
	for i, id := range ids {
		out[i] = *m.cursors[id]
	}
	return out, nil
}

func (m *memStore) SetNextCursor(_ context.Context, id string, next *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[id]
	if !ok {
		return store.ErrNotFound
	}
	c.NextCursorID = next
	return nil
}

func (m *memStore) UpdateCursorFields(_ context.Context, id string, f store.CursorFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[id]
	if !ok {
		return store.ErrNotFound
	}
	page := f.PageNumber
	c.PageNumber = &page
	c.CreatedAt = f.CreatedAt
	c.NextCursorID = f.NextCursorID
	return nil
}

func (m *memStore) GeneratedImageExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.images[id]
	return ok, nil
}

func (m *memStore) CreateGeneratedImage(_ context.Context, g store.GeneratedImage) (*store.GeneratedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[g.ID]; ok {
		return nil, store.ErrAlreadyExists
	}
	m.images[g.ID] = g
	return &g, nil
}

// put seeds a cursor row directly, bypassing page bookkeeping
func (m *memStore) put(id string, next string, page int) {
	ts, _ := cursorid.Timestamp(id)
	c := &store.Cursor{ID: id, CreatedAt: ts}
	if next != "" {
		c.NextCursorID = &next
	}
	if page > 0 {
		c.PageNumber = &page
	}
	m.cursors[id] = c
}

// fakeSource serves pages from a map and counts fetches
type fakeSource struct {
	pages   map[string]*civitai.Page
	fetched []string
	err     map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{pages: make(map[string]*civitai.Page), err: make(map[string]error)}
}

func (f *fakeSource) FetchPage(_ context.Context, cursor string) (*civitai.Page, error) {
	f.fetched = append(f.fetched, cursor)
	if err, ok := f.err[cursor]; ok {
		return nil, err
	}
	p, ok := f.pages[cursor]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Cursor = cursor
	return &cp, nil
}

// add registers a page with n images named after the cursor
func (f *fakeSource) add(cursor, next string, n int) {
	p := &civitai.Page{NextCursor: next, Items: n}
	for i := 0; i < n; i++ {
		p.Images = append(p.Images, civitai.Image{
			ID:     fmt.Sprintf("%s/img-%d", cursor, i),
			URL:    fmt.Sprintf("https://img/%s/%d.png", cursor, i),
			Width:  512,
			Height: 512,
		})
	}
	f.pages[cursor] = p
}

// chainIDs returns n cursor ids, newest first, one day apart
func chainIDs(n int) []string {
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("77-202403%02d120000000", 28-i)
	}
	return ids
}
