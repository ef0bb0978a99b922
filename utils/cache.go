package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = time.Hour
	cacheOpTimeout  = 2 * time.Second
	scanBatch       = 1000
	maxScanRounds   = 10
)

// CachedResponse is a rendered page kept in the page cache.
type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// withRedis runs fn against the shared client under a short deadline.
// It reports false when no client is configured.
func withRedis(timeout time.Duration, fn func(ctx context.Context, rc *redis.Client)) bool {
	rc := GetRedis()
	if rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	fn(ctx, rc)
	return true
}

// CacheGetBytes returns the value stored under key, or false on a miss.
func CacheGetBytes(key string) (b []byte, hit bool) {
	withRedis(cacheOpTimeout, func(ctx context.Context, rc *redis.Client) {
		v, err := rc.Get(ctx, key).Bytes()
		if err != nil {
			if err != redis.Nil {
				Sugar.Debugw("cache get failed", "key", key, "err", err)
			}
			return
		}
		b, hit = v, true
	})
	return b, hit
}

// CacheSetBytes stores b under key. A non-positive ttl means one hour.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	withRedis(cacheOpTimeout, func(ctx context.Context, rc *redis.Client) {
		if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
			Sugar.Warnw("cache set failed", "key", key, "err", err)
		}
	})
}

// CacheSetJSON stores the JSON encoding of v; values that fail to encode are skipped.
func CacheSetJSON(key string, v any, ttl time.Duration) {
	if b, err := json.Marshal(v); err == nil {
		CacheSetBytes(key, b, ttl)
	}
}

// CacheGetResponse loads a page stored with CacheSetJSON.
func CacheGetResponse(key string) (resp CachedResponse, ok bool) {
	b, hit := CacheGetBytes(key)
	if !hit {
		return resp, false
	}
	return resp, json.Unmarshal(b, &resp) == nil
}

// InvalidateByPrefix deletes every key starting with prefix and returns how many were removed.
func InvalidateByPrefix(prefix string) (removed int) {
	withRedis(3*time.Second, func(ctx context.Context, rc *redis.Client) {
		var cursor uint64
		for round := 0; round < maxScanRounds; round++ {
			keys, next, err := rc.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
			if err != nil {
				Sugar.Warnw("cache scan failed", "prefix", prefix, "err", err)
				return
			}
			if len(keys) > 0 {
				if n, err := rc.Del(ctx, keys...).Result(); err == nil {
					removed += int(n)
				}
			}
			if cursor = next; cursor == 0 {
				return
			}
		}
	})
	return removed
}
