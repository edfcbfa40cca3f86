// ABOUTME: Behavioural contract suite run against every storage engine.
// ABOUTME: Keeps the structured and blob engines interchangeable.

// Package storetest holds the behavioural contract every store.Backend must
// satisfy. Engine packages run it against their own constructor so the
// structured and blob engines stay interchangeable.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/harper/diary/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory opens a fresh, empty backend. The suite closes it.
type Factory func(t *testing.T) store.Backend

func rec(key, value string) store.Record {
	return store.Record{Key: key, Value: []byte(value)}
}

func keys(recs []store.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Key
	}
	return out
}

// Run executes the contract suite.
func Run(t *testing.T, open Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, b store.Backend)
	}{
		{"PutThenGet", testPutThenGet},
		{"GetMissing", testGetMissing},
		{"PutUpsertsInPlace", testPutUpsertsInPlace},
		{"GetAllInsertionOrder", testGetAllInsertionOrder},
		{"DeleteIdempotent", testDeleteIdempotent},
		{"Clear", testClear},
		{"CountExact", testCountExact},
		{"CollectionsIsolated", testCollectionsIsolated},
		{"UnknownCollection", testUnknownCollection},
		{"ApplyClearsThenPuts", testApplyClearsThenPuts},
		{"ApplyRejectsInvalidBatch", testApplyRejectsInvalidBatch},
		{"ApplyEmptyBatch", testApplyEmptyBatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := open(t)
			t.Cleanup(func() { _ = b.Close() })
			tc.fn(t, b)
		})
	}
}

func testPutThenGet(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, store.Entries, rec("1", `{"id":"1","title":"<b>Hello</b> & bye"}`)))

	got, err := b.Get(ctx, store.Entries, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Key)
	assert.JSONEq(t, `{"id":"1","title":"<b>Hello</b> & bye"}`, string(got.Value))
}

func testGetMissing(t *testing.T, b store.Backend) {
	_, err := b.Get(context.Background(), store.Entries, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testPutUpsertsInPlace(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, store.Entries, rec("a", `{"v":1}`)))
	require.NoError(t, b.Put(ctx, store.Entries, rec("b", `{"v":2}`)))
	require.NoError(t, b.Put(ctx, store.Entries, rec("a", `{"v":3}`)))

	all, err := b.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"a", "b"}, keys(all))
	assert.JSONEq(t, `{"v":3}`, string(all[0].Value))
}

func testGetAllInsertionOrder(t *testing.T, b store.Backend) {
	ctx := context.Background()
	want := []string{"m", "c", "x", "a", "k"}
	for i, k := range want {
		require.NoError(t, b.Put(ctx, store.Entries, rec(k, fmt.Sprintf(`{"n":%d}`, i))))
	}

	all, err := b.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, want, keys(all))
}

func testDeleteIdempotent(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, store.Entries, rec("keep", `{}`)))
	require.NoError(t, b.Put(ctx, store.Entries, rec("drop", `{}`)))

	require.NoError(t, b.Delete(ctx, store.Entries, "drop"))
	require.NoError(t, b.Delete(ctx, store.Entries, "drop"))
	require.NoError(t, b.Delete(ctx, store.Entries, "never-existed"))

	all, err := b.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, keys(all))
}

func testClear(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, store.Settings, rec("theme", `{"key":"theme","value":"rain"}`)))
	require.NoError(t, b.Clear(ctx, store.Settings))
	require.NoError(t, b.Clear(ctx, store.Settings))

	all, err := b.GetAll(ctx, store.Settings)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testCountExact(t *testing.T, b store.Backend) {
	ctx := context.Background()
	n, err := b.Count(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 0; i < 7; i++ {
		require.NoError(t, b.Put(ctx, store.Entries, rec(fmt.Sprint(i), `{}`)))
	}
	require.NoError(t, b.Put(ctx, store.Entries, rec("3", `{"again":true}`)))
	require.NoError(t, b.Delete(ctx, store.Entries, "5"))

	n, err = b.Count(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func testCollectionsIsolated(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, store.Entries, rec("same", `{"c":"entries"}`)))
	require.NoError(t, b.Put(ctx, store.Files, rec("same", `{"c":"files"}`)))

	got, err := b.Get(ctx, store.Files, "same")
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"files"}`, string(got.Value))

	require.NoError(t, b.Clear(ctx, store.Files))
	_, err = b.Get(ctx, store.Entries, "same")
	assert.NoError(t, err)
}

func testUnknownCollection(t *testing.T, b store.Backend) {
	ctx := context.Background()
	assert.ErrorIs(t, b.Put(ctx, "notes", rec("1", `{}`)), store.ErrUnknownCollection)
	_, err := b.GetAll(ctx, "notes")
	assert.ErrorIs(t, err, store.ErrUnknownCollection)
}

func testApplyClearsThenPuts(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, store.Entries, rec("2", `{"id":"2"}`)))
	require.NoError(t, b.Put(ctx, store.Settings, rec("theme", `{"key":"theme","value":"snow"}`)))
	require.NoError(t, b.Put(ctx, store.Files, rec("f", `{"id":"f"}`)))

	batch := store.NewBatch().
		Clear(store.Entries).
		Clear(store.Settings).
		Put(store.Entries, rec("1", `{"id":"1"}`)).
		Put(store.Settings, rec("lang", `{"key":"lang","value":"ru"}`))
	require.NoError(t, b.Apply(ctx, batch))

	entries, err := b.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, keys(entries))

	settings, err := b.GetAll(ctx, store.Settings)
	require.NoError(t, err)
	assert.Equal(t, []string{"lang"}, keys(settings))

	files, err := b.GetAll(ctx, store.Files)
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, keys(files), "collections outside the batch are untouched")
}

func testApplyRejectsInvalidBatch(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, store.Entries, rec("2", `{"id":"2"}`)))

	batch := store.NewBatch().
		Clear(store.Entries).
		Put(store.Entries, rec("1", `{"id":"1"}`)).
		Put("bogus", rec("x", `{}`))
	assert.ErrorIs(t, b.Apply(ctx, batch), store.ErrUnknownCollection)

	entries, err := b.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, keys(entries))
}

func testApplyEmptyBatch(t *testing.T, b store.Backend) {
	assert.NoError(t, b.Apply(context.Background(), store.NewBatch()))
}

// RunStorageFull checks that a rejected oversized write leaves prior data
// intact. b must be configured with a quota smaller than big.
func RunStorageFull(t *testing.T, b store.Backend, big []byte) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, store.Entries, rec("small", `{"id":"small"}`)))

	payload := fmt.Sprintf(`{"id":"big","content":%q}`, string(big))
	err := b.Put(ctx, store.Entries, store.Record{Key: "big", Value: []byte(payload)})
	require.ErrorIs(t, err, store.ErrStorageFull)

	batch := store.NewBatch().Clear(store.Entries).Put(store.Entries, store.Record{Key: "big", Value: []byte(payload)})
	require.ErrorIs(t, b.Apply(ctx, batch), store.ErrStorageFull)

	all, err := b.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, []string{"small"}, keys(all))
}
