// Package cache stores chunk results in Redis so unchanged files are not re-chunked.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// RedisCache provides caching via Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get retrieves a value from cache. Returns empty string if key not found.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Set stores a value in cache with TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value from cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DeletePattern removes all keys matching pattern.
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// GetRecords returns the cached records for key. The bool is false on a miss.
func (c *RedisCache) GetRecords(ctx context.Context, key string) ([]chunk.Record, bool, error) {
	val, err := c.Get(ctx, key)
	if err != nil || val == "" {
		return nil, false, err
	}

	var records []chunk.Record
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		return nil, false, nil
	}
	return records, true, nil
}

// SetRecords stores records under key using the cache TTL.
func (c *RedisCache) SetRecords(ctx context.Context, key string, records []chunk.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return c.Set(ctx, key, string(data), c.ttl)
}

// InvalidateRepo drops every cached chunk result for repo.
func (c *RedisCache) InvalidateRepo(ctx context.Context, repo string) error {
	return c.DeletePattern(ctx, "chunks:"+repo+":*")
}

// GetIndexVersion retrieves the current index version for a repo.
func (c *RedisCache) GetIndexVersion(ctx context.Context, repo string) (int64, error) {
	val, err := c.client.Get(ctx, versionKey(repo)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// IncrIndexVersion increments the index version.
func (c *RedisCache) IncrIndexVersion(ctx context.Context, repo string) (int64, error) {
	return c.client.Incr(ctx, versionKey(repo)).Result()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func versionKey(repo string) string {
	return "index:version:" + repo
}

// ChunkCacheKey identifies the chunk output of one file. Any change to the
// content, to an option that affects the output, or to whether credentials
// are redacted yields a new key.
func ChunkCacheKey(repo, filePath string, content []byte, opts chunk.Options, redacted bool, version int64) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(opts.Language))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(opts.MaxChunkSize)))
	h.Write([]byte{0})
	h.Write([]byte(opts.Template))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(opts.Expand)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(redacted)))
	for _, k := range slices.Sorted(maps.Keys(opts.RepoMetadata)) {
		fmt.Fprintf(h, "\x00%s=%s", k, opts.RepoMetadata[k])
	}
	sum := h.Sum(nil)
	return fmt.Sprintf("chunks:%s:%s:%x:%d", repo, filePath, sum[:12], version)
}
