package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix namespaces listing page entries in Redis.
	pageKeyPrefix = "appusers::"

	// DefaultPageTTL bounds the staleness of a cached listing page.
	// Entries are never invalidated, only expired.
	DefaultPageTTL = 10 * time.Minute
)

// ErrCacheMiss indicates the requested key is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Signature returns the canonical cache signature for a request: the
// path followed by every query parameter sorted by key, then by value
// for repeated keys. Two requests that differ only in parameter order
// produce the same signature.
func Signature(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(path)
	b.WriteByte('?')

	first := true
	for _, k := range keys {
		values := append([]string(nil), query[k]...)
		sort.Strings(values)
		for _, v := range values {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}

	return b.String()
}

// PageKey derives the Redis key for a request signature.
func PageKey(signature string) string {
	return pageKeyPrefix + signature
}

// GetPage retrieves a cached page payload.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetPage(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// SetPage stores a serialized page payload with the given TTL. A later
// write to the same key overwrites the whole entry; entries are never
// patched in place.
func (c *Cache) SetPage(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}
