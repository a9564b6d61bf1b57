package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetMergeUnionsFields(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := s.Batch()
	b.Set("inventory", "A", map[string]any{"name": "A", "price": 100, "note": "keep"}, true)
	require.NoError(t, b.Commit(ctx))

	b = s.Batch()
	b.Set("inventory", "A", map[string]any{"price": 120, "stock": 3}, true)
	require.NoError(t, b.Commit(ctx))

	doc, err := s.Get(ctx, "inventory", "A")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "A", "price": 120.0, "note": "keep", "stock": 3.0}, doc.Data)
}

func TestSetWithoutMergeReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := s.Batch()
	b.Set("inventory", "A", map[string]any{"name": "A", "note": "gone"}, false)
	b.Set("inventory", "A", map[string]any{"name": "A2"}, false)
	require.NoError(t, b.Commit(ctx))

	doc, err := s.Get(ctx, "inventory", "A")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "A2"}, doc.Data)
}

func TestIncrementMissingDocumentRollsBackBatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := s.Batch()
	b.Set("inventory", "A", map[string]any{"stock": 1}, true)
	require.NoError(t, b.Commit(ctx))

	b = s.Batch()
	b.Increment("inventory", "A", "stock", 5)
	b.Increment("inventory", "missing", "stock", 5)
	err := b.Commit(ctx)
	require.ErrorIs(t, err, docstore.ErrNotFound)

	doc, err := s.Get(ctx, "inventory", "A")
	require.NoError(t, err)
	assert.Equal(t, 1.0, doc.Data["stock"])
}

func TestIncrementTreatsAbsentFieldAsZero(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := s.Batch()
	b.Set("inventory", "A", map[string]any{"name": "A"}, true)
	b.Increment("inventory", "A", "stock", 4)
	require.NoError(t, b.Commit(ctx))

	doc, err := s.Get(ctx, "inventory", "A")
	require.NoError(t, err)
	assert.Equal(t, 4.0, doc.Data["stock"])
}

func TestIncrementStartsFromFallbackField(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := s.Batch()
	b.Set("inventory", "legacy", map[string]any{"currentStock": 7}, true)
	b.Set("inventory", "both", map[string]any{"stock": 2, "currentStock": 7}, true)
	b.Set("inventory", "none", map[string]any{"name": "n"}, true)
	require.NoError(t, b.Commit(ctx))

	b = s.Batch()
	for _, id := range []string{"legacy", "both", "none"} {
		b.Increment("inventory", id, "stock", 10, "currentStock")
	}
	require.NoError(t, b.Commit(ctx))

	want := map[string]float64{"legacy": 17, "both": 12, "none": 10}
	for id, stock := range want {
		doc, err := s.Get(ctx, "inventory", id)
		require.NoError(t, err)
		assert.Equal(t, stock, doc.Data["stock"], id)
	}
}

func TestBatchLimits(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := s.Batch()
	for i := 0; i <= docstore.MaxBatchOps; i++ {
		b.Set("c", string(rune('a'+i%26)), map[string]any{}, true)
	}
	assert.ErrorIs(t, b.Commit(ctx), docstore.ErrBatchTooLarge)

	b = s.Batch()
	b.Set("c", "x", map[string]any{}, true)
	require.NoError(t, b.Commit(ctx))
	assert.ErrorIs(t, b.Commit(ctx), docstore.ErrBatchCommitted)
}

func TestQueryFilterOrderLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := s.Batch()
	b.Set("orders", "1", map[string]any{"status": "open", "createdAt": "2026-01-01"}, false)
	b.Set("orders", "2", map[string]any{"status": "open", "createdAt": "2026-03-01"}, false)
	b.Set("orders", "3", map[string]any{"status": "done", "createdAt": "2026-02-01"}, false)
	b.Set("orders", "4", map[string]any{"status": "open", "createdAt": "2026-02-01"}, false)
	require.NoError(t, b.Commit(ctx))

	docs, err := s.Query(ctx, docstore.Query{
		Collection: "orders",
		Where:      []docstore.Filter{{Field: "status", Value: "open"}},
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "2", docs[0].ID)
	assert.Equal(t, "4", docs[1].ID)
}

func TestGetMissing(t *testing.T) {
	_, err := New().Get(context.Background(), "inventory", "nope")
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
}

func TestWatchDeliversSnapshotsUntilCancelled(t *testing.T) {
	s := New()
	ctx := context.Background()

	var mu sync.Mutex
	var sizes []int
	got := make(chan struct{}, 10)

	cancel, err := docstore.Watch(ctx, s, s.Notifier(), docstore.Query{Collection: "inventory"}, func(docs []docstore.Document, err error) {
		assert.NoError(t, err)
		mu.Lock()
		sizes = append(sizes, len(docs))
		mu.Unlock()
		got <- struct{}{}
	})
	require.NoError(t, err)

	waitFor(t, got)

	b := s.Batch()
	b.Set("inventory", "A", map[string]any{"stock": 1}, true)
	require.NoError(t, b.Commit(ctx))
	waitFor(t, got)

	cancel()

	b = s.Batch()
	b.Set("inventory", "B", map[string]any{"stock": 1}, true)
	require.NoError(t, b.Commit(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1}, sizes)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch callback")
	}
}
