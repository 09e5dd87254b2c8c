package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T, ttl time.Duration) *TranscriptCache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "cache.db")

	cache, err := New(dbPath, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestTranscriptCache_Miss(t *testing.T) {
	cache := setupTestCache(t, 0)

	text, ok, err := cache.Get(context.Background(), "nothing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestTranscriptCache_PutGet(t *testing.T) {
	cache := setupTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "abc", "hello world"))

	text, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello world", text)
}

func TestTranscriptCache_Overwrite(t *testing.T) {
	cache := setupTestCache(t, 0)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "abc", "first"))
	require.NoError(t, cache.Put(ctx, "abc", "second"))

	text, _, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "second", text)

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTranscriptCache_Expiry(t *testing.T) {
	cache := setupTestCache(t, time.Hour)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	cache.now = func() time.Time { return start }
	require.NoError(t, cache.Put(ctx, "old", "stale"))
	cache.now = func() time.Time { return start.Add(90 * time.Minute) }
	require.NoError(t, cache.Put(ctx, "new", "fresh"))

	_, ok, err := cache.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok, "entry older than ttl should miss")

	text, ok, err := cache.Get(ctx, "new")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", text)

	purged, err := cache.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTranscriptCache_NoTTLNeverExpires(t *testing.T) {
	cache := setupTestCache(t, 0)
	ctx := context.Background()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	cache.now = func() time.Time { return start }
	require.NoError(t, cache.Put(ctx, "abc", "kept"))
	cache.now = func() time.Time { return start.AddDate(5, 0, 0) }

	_, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	purged, err := cache.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestTranscriptCache_ConcurrentWrites(t *testing.T) {
	cache := setupTestCache(t, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Put(ctx, fmt.Sprintf("vid%d", i), "text"))
		}()
	}
	wg.Wait()

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}
