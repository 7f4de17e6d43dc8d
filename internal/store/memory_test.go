package store

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAddAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Collection("things").Add(ctx, map[string]any{"name": "first"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := m.Collection("things").Doc(id).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "first", Str(doc.Fields, "name"))
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()

	_, err := m.Collection("things").Doc("nope").Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySetUpserts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// Set on a fresh id creates the document.
	err := m.Collection("admins").Doc("abc").Set(ctx, map[string]any{"role": "admin"})
	require.NoError(t, err)

	doc, err := m.Collection("admins").Doc("abc").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", Str(doc.Fields, "role"))

	// Set again fully replaces the payload.
	err = m.Collection("admins").Doc("abc").Set(ctx, map[string]any{"role": "viewer"})
	require.NoError(t, err)

	doc, err = m.Collection("admins").Doc("abc").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "viewer", Str(doc.Fields, "role"))
	assert.Empty(t, Str(doc.Fields, "missing"))
}

func TestMemoryUpdateMergesFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Collection("things").Add(ctx, map[string]any{"name": "first", "category": "math"})
	require.NoError(t, err)

	err = m.Collection("things").Doc(id).Update(ctx, map[string]any{"name": "renamed"})
	require.NoError(t, err)

	doc, err := m.Collection("things").Doc(id).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "renamed", Str(doc.Fields, "name"))
	assert.Equal(t, "math", Str(doc.Fields, "category"), "untouched fields survive a partial update")
	assert.True(t, doc.UpdatedAt.After(doc.CreatedAt))
}

func TestMemoryUpdateMissing(t *testing.T) {
	m := NewMemory()

	err := m.Collection("things").Doc("nope").Update(context.Background(), map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Collection("things").Add(ctx, map[string]any{"name": "doomed"})
	require.NoError(t, err)

	require.NoError(t, m.Collection("things").Doc(id).Delete(ctx))

	_, err = m.Collection("things").Doc(id).Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.Collection("things").Doc(id).Delete(ctx), ErrNotFound)
}

func TestMemoryQueryWhereAndLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, category := range []string{"math", "science", "math", "math"} {
		_, err := m.Collection("questions").Add(ctx, map[string]any{"category": category})
		require.NoError(t, err)
	}

	docs, err := m.Collection("questions").Where("category", OpEq, "math").Get(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	docs, err = m.Collection("questions").Where("category", OpEq, "math").Limit(2).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	n, err := m.Collection("questions").Where("category", OpEq, "science").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryQueryOrderByCreatedAtDesc(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		id, err := m.Collection("things").Add(ctx, map[string]any{"name": name})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	docs, err := m.Collection("things").OrderBy(FieldCreatedAt, Desc).Get(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// Newest first: insertion order reversed.
	assert.Equal(t, ids[2], docs[0].ID)
	assert.Equal(t, ids[1], docs[1].ID)
	assert.Equal(t, ids[0], docs[2].ID)
}

func TestMemoryQueryDefaultOrderIsCreationAsc(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := m.Collection("things").Add(ctx, map[string]any{"n": 1})
	require.NoError(t, err)
	second, err := m.Collection("things").Add(ctx, map[string]any{"n": 2})
	require.NoError(t, err)

	docs, err := m.Collection("things").Get(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first, docs[0].ID)
	assert.Equal(t, second, docs[1].ID)
}

func TestMemoryQueryCreatedAtFilter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Collection("activity").Add(ctx, map[string]any{"action": "old"})
	require.NoError(t, err)

	cutoff := time.Now().Add(time.Hour)
	n, err := m.Collection("activity").Where(FieldCreatedAt, OpGte, cutoff).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = m.Collection("activity").Where(FieldCreatedAt, OpLt, cutoff).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryQueryRejectsUnknownOperator(t *testing.T) {
	m := NewMemory()

	_, err := m.Collection("things").Where("name", "~=", "x").Get(context.Background())
	assert.Error(t, err)
}

func TestMemorySubscribeReplaysFullSnapshot(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sub, err := m.Collection("questions").Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Stop()

	// Initial snapshot is empty.
	docs := waitSnapshot(t, sub.C)
	assert.Empty(t, docs)

	id, err := m.Collection("questions").Add(ctx, map[string]any{"text": "Q1"})
	require.NoError(t, err)

	docs = waitSnapshot(t, sub.C)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)

	// A delete replays the remaining set, not a diff.
	require.NoError(t, m.Collection("questions").Doc(id).Delete(ctx))
	docs = waitSnapshot(t, sub.C)
	assert.Empty(t, docs)
}

func TestMemorySubscribeHonorsFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sub, err := m.Collection("questions").Where("category", OpEq, "math").Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Stop()

	waitSnapshot(t, sub.C)

	_, err = m.Collection("questions").Add(ctx, map[string]any{"category": "science"})
	require.NoError(t, err)
	docs := waitSnapshot(t, sub.C)
	assert.Empty(t, docs, "snapshot excludes non-matching documents")

	id, err := m.Collection("questions").Add(ctx, map[string]any{"category": "math"})
	require.NoError(t, err)
	docs = waitSnapshot(t, sub.C)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
}

func TestMemorySubscribeStopClosesChannel(t *testing.T) {
	m := NewMemory()

	sub, err := m.Collection("things").Subscribe(context.Background())
	require.NoError(t, err)

	waitSnapshot(t, sub.C)
	sub.Stop()
	sub.Stop() // Idempotent.

	_, open := <-sub.C
	assert.False(t, open)
}

func TestMemorySubscribeStopReleasesContextWatcher(t *testing.T) {
	m := NewMemory()
	base := runtime.NumGoroutine()

	// A long-lived context must not keep the per-subscription watcher parked
	// after an explicit Stop.
	for i := 0; i < 20; i++ {
		sub, err := m.Collection("things").Subscribe(context.Background())
		require.NoError(t, err)
		waitSnapshot(t, sub.C)
		sub.Stop()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= base+2
	}, time.Second, 10*time.Millisecond, "watcher goroutines should exit on Stop")
}

func waitSnapshot(t *testing.T, ch <-chan []Document) []Document {
	t.Helper()
	select {
	case docs := <-ch:
		return docs
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}
