// Package cache defines the key-value capability used to memoise read paths.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores JSON-encodable values under string keys with a TTL.
//
// Get decodes the cached value into dest and reports whether the key was
// present.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Key joins a prefix and parts into prefix:part1:part2.
func Key(prefix string, parts ...string) string {
	return prefix + ":" + strings.Join(parts, ":")
}
