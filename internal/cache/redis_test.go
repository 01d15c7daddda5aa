package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	cache, err := NewRedisCache(redisURL, time.Minute)
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestRedisCache(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key := "test:chunks:abc123"
	value := `[]`

	require.NoError(t, cache.Set(ctx, key, value, time.Minute))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	require.NoError(t, cache.Delete(ctx, key))

	got, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisCacheRecords(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	repo := "test-repo-records"
	key := ChunkCacheKey(repo, "a.py", []byte("x = 1\n"), chunk.Options{MaxChunkSize: 100, Language: "python"}, false, 0)
	t.Cleanup(func() { _ = cache.InvalidateRepo(ctx, repo) })

	_, hit, err := cache.GetRecords(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	records := []chunk.Record{{ID: "r1", Repo: repo, FilePath: "a.py", Content: "x = 1", Size: 3}}
	require.NoError(t, cache.SetRecords(ctx, key, records))

	got, hit, err := cache.GetRecords(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "x = 1", got[0].Content)

	require.NoError(t, cache.InvalidateRepo(ctx, repo))
	_, hit, err = cache.GetRecords(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheIndexVersion(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	repo := "test-repo-version"

	_ = cache.Delete(ctx, versionKey(repo))
	t.Cleanup(func() { _ = cache.Delete(ctx, versionKey(repo)) })

	version, err := cache.GetIndexVersion(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	newVersion, err := cache.IncrIndexVersion(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), newVersion)

	version, err = cache.GetIndexVersion(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestRedisCacheDeletePattern(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, "test:pattern:a", "1", time.Minute)
	_ = cache.Set(ctx, "test:pattern:b", "2", time.Minute)
	_ = cache.Set(ctx, "test:other:c", "3", time.Minute)
	t.Cleanup(func() { _ = cache.Delete(ctx, "test:other:c") })

	require.NoError(t, cache.DeletePattern(ctx, "test:pattern:*"))

	got, _ := cache.Get(ctx, "test:pattern:a")
	assert.Empty(t, got)
	got, _ = cache.Get(ctx, "test:pattern:b")
	assert.Empty(t, got)

	got, _ = cache.Get(ctx, "test:other:c")
	assert.Equal(t, "3", got)
}

func TestChunkCacheKey(t *testing.T) {
	src := []byte("def f():\n    pass\n")
	opts := chunk.Options{MaxChunkSize: 100, Language: "python"}

	key := ChunkCacheKey("repo", "f.py", src, opts, false, 3)
	assert.Contains(t, key, "chunks:repo:f.py:")
	assert.Contains(t, key, ":3")
	assert.Equal(t, key, ChunkCacheKey("repo", "f.py", src, opts, false, 3))

	changed := opts
	changed.MaxChunkSize = 50
	assert.NotEqual(t, key, ChunkCacheKey("repo", "f.py", src, changed, false, 3))

	changed = opts
	changed.Expand = true
	assert.NotEqual(t, key, ChunkCacheKey("repo", "f.py", src, changed, false, 3))

	changed = opts
	changed.RepoMetadata = map[string]string{"repo": "other"}
	assert.NotEqual(t, key, ChunkCacheKey("repo", "f.py", src, changed, false, 3))

	assert.NotEqual(t, key, ChunkCacheKey("repo", "f.py", []byte("x = 1\n"), opts, false, 3))
	assert.NotEqual(t, key, ChunkCacheKey("repo", "f.py", src, opts, false, 4))
	assert.NotEqual(t, key, ChunkCacheKey("repo", "f.py", src, opts, true, 3), "redaction setting")
}
