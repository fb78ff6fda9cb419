package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedChain registers ids as a linked chain upstream, newest first
func seedChain(src *fakeSource, ids []string, imagesPer int) {
	for i, id := range ids {
		next := ""
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		src.add(id, next, imagesPer)
	}
}

func TestImportChain_ThreePageExample(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(3) // A, B, C
	src.add(ids[0], ids[1], 2)
	src.add(ids[1], ids[2], 3)
	src.add(ids[2], "", 1)

	res, err := New(st, src).ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 3, res.CursorsImported)
	assert.Equal(t, 6, res.ImagesImported)
	assert.Equal(t, StopChainEnd, res.StopReason)

	a, _ := st.GetCursor(ctx, ids[0])
	b, _ := st.GetCursor(ctx, ids[1])
	c, _ := st.GetCursor(ctx, ids[2])
	assert.Equal(t, ids[1], a.Next())
	assert.Equal(t, ids[2], b.Next())
	assert.Nil(t, c.NextCursorID)
	assert.Equal(t, 1, *a.PageNumber)
	assert.Equal(t, 2, *b.PageNumber)
	assert.Equal(t, 3, *c.PageNumber)

	rep, err := New(st, src).RepairChain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Updated)
	assert.Empty(t, rep.UpdatedIDs)
}

func TestImportChain_Idempotent(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(4)
	seedChain(src, ids, 2)
	im := New(st, src)

	first, err := im.ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 4, first.CursorsImported)
	assert.Equal(t, 8, first.ImagesImported)

	src.fetched = nil
	second, err := im.ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 0, second.CursorsImported)
	assert.Equal(t, 0, second.ImagesImported)
	assert.Equal(t, 4, second.CursorsSkipped)
	assert.Empty(t, src.fetched, "existing cursors must be followed without refetching")
}

func TestImportChain_StopsAfterConsecutiveExisting(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(10)
	seedChain(src, ids, 1)

	// Everything but the two newest pages was imported before
	for i := 2; i < len(ids); i++ {
		next := ""
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		st.put(ids[i], next, i+1)
	}

	res, err := New(st, src).ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 2, res.CursorsImported)
	assert.Equal(t, ConsecutiveExistingThreshold, res.CursorsSkipped)
	assert.Equal(t, StopConsecutiveExisting, res.StopReason)
	assert.Equal(t, []string{ids[0], ids[1]}, src.fetched)
}

func TestImportChain_IsolatedExistingDoesNotStop(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(4)
	seedChain(src, ids, 1)

	// A single page in the middle is already known
	st.put(ids[1], ids[2], 0)

	res, err := New(st, src).ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 3, res.CursorsImported)
	assert.Equal(t, 1, res.CursorsSkipped)
	assert.Equal(t, StopChainEnd, res.StopReason)
}

func TestImportChain_CycleTerminates(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(3)
	src.add(ids[0], ids[1], 1)
	src.add(ids[1], ids[2], 1)
	src.add(ids[2], ids[0], 1) // upstream loops back

	res, err := New(st, src).ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 3, res.CursorsImported)
	assert.Equal(t, StopCycle, res.StopReason)
}

func TestImportChain_SourceYieldsNothing(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(3)
	src.add(ids[0], ids[1], 1) // ids[1] is unknown upstream

	res, err := New(st, src).ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 1, res.CursorsImported)
	assert.Equal(t, StopSourceEmpty, res.StopReason)
}

func TestImportChain_SkipsExistingImages(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(1)
	src.add(ids[0], "", 3)
	st.images[ids[0]+"/img-1"] = store.GeneratedImage{ID: ids[0] + "/img-1"}

	res, err := New(st, src).ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 1, res.CursorsImported)
	assert.Equal(t, 2, res.ImagesImported)
}

func TestImportChain_ImageTimestamps(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(1)
	src.add(ids[0], "", 1)

	_, err := New(st, src).ImportChain(ctx, ids[0])
	require.NoError(t, err)

	c, _ := st.GetCursor(ctx, ids[0])
	img := st.images[ids[0]+"/img-0"]
	assert.Equal(t, c.CreatedAt, img.CreatedAt, "images without completion time fall back to the page time")
	assert.Equal(t, ids[0], img.CursorID)
}

func TestImportChain_FetchErrorKeepsCommittedRows(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(3)
	seedChain(src, ids, 1)
	boom := errors.New("boom")
	src.err[ids[1]] = boom

	res, err := New(st, src).ImportChain(ctx, ids[0])
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.CursorsImported)

	_, getErr := st.GetCursor(ctx, ids[0])
	assert.NoError(t, getErr)

	// A later run resumes where the failed one stopped
	delete(src.err, ids[1])
	res, err = New(st, src).ImportChain(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 2, res.CursorsImported)
	assert.Equal(t, 1, res.CursorsSkipped)
}

func TestImportChain_FromLatest(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(3)
	seedChain(src, ids, 1)
	src.pages[""] = &civitai.Page{NextCursor: ids[0], Items: 1}

	res, err := New(st, src).ImportChain(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, ids[0], res.StartCursor)
	assert.Equal(t, 3, res.CursorsImported)
	assert.False(t, res.TipRelinked)
}

func TestImportChain_FromLatestEmptyUpstream(t *testing.T) {
	st, src := newMemStore(), newFakeSource()

	res, err := New(st, src).ImportChain(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StopSourceEmpty, res.StopReason)
	assert.Equal(t, 0, res.CursorsImported)
}

func TestImportChain_RelinksStaleTip(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(3)

	// Local tip is newer than upstream's current cursor but lost its link
	st.put(ids[0], "", 1)
	seedChain(src, ids[1:], 1)
	src.pages[""] = &civitai.Page{NextCursor: ids[1], Items: 1}

	res, err := New(st, src).ImportChain(ctx, "")
	require.NoError(t, err)
	assert.True(t, res.TipRelinked)
	assert.Equal(t, 2, res.CursorsImported)

	tip, _ := st.GetCursor(ctx, ids[0])
	assert.Equal(t, ids[1], tip.Next())
}

func TestImportChain_DoesNotRelinkOlderTip(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(3)

	// New history appeared upstream since the last run
	st.put(ids[2], "", 1)
	seedChain(src, ids, 1)
	src.pages[""] = &civitai.Page{NextCursor: ids[0], Items: 1}

	res, err := New(st, src).ImportChain(ctx, "")
	require.NoError(t, err)
	assert.False(t, res.TipRelinked)
	assert.Equal(t, 2, res.CursorsImported)
	assert.Equal(t, 1, res.CursorsSkipped)

	old, _ := st.GetCursor(ctx, ids[2])
	assert.Nil(t, old.NextCursorID)
}

func TestImportPage(t *testing.T) {
	ctx := context.Background()
	st, src := newMemStore(), newFakeSource()
	ids := chainIDs(2)
	seedChain(src, ids, 4)
	im := New(st, src)

	res, err := im.ImportPage(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], res.Cursor.ID)
	assert.Equal(t, ids[1], res.Cursor.Next())
	assert.Equal(t, 4, res.ImagesImported)
	assert.Equal(t, []string{ids[0]}, src.fetched)

	_, err = im.ImportPage(ctx, ids[0])
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.Equal(t, []string{ids[0]}, src.fetched, "an imported page is not fetched again")
}

func TestImportPage_Errors(t *testing.T) {
	im := New(newMemStore(), newFakeSource())

	_, err := im.ImportPage(context.Background(), "not-a-cursor")
	assert.Error(t, err)

	_, err = im.ImportPage(context.Background(), chainIDs(1)[0])
	assert.ErrorIs(t, err, ErrNoData)
}
