// Package redis implements cache.Cache on top of a Redis server.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/cache"
)

// redisCache is the Redis-backed cache.Cache.
type redisCache struct {
	client *goredis.Client
}

// Get fetches key and decodes it into dest. A missing key is not an error.
func (rc *redisCache) Get(ctx context.Context, key string, dest interface{}) (
	bool, error) {
	raw, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get for key %s failed with error [%w]",
			key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		zap.S().Debugf("cached value for %s: %s", key, string(raw))
		return false, fmt.Errorf("could not decode cached value for key %s "+
			"with error [%w]", key, err)
	}
	return true, nil
}

// Set encodes value as JSON and stores it with the given TTL.
func (rc *redisCache) Set(ctx context.Context, key string, value interface{},
	ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode value for key %s with error [%w]",
			key, err)
	}
	if err := rc.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set for key %s failed with error [%w]",
			key, err)
	}
	return nil
}

// Delete removes the given keys.
func (rc *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete of %v failed with error [%w]", keys, err)
	}
	return nil
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string, db int) (
	cache.Cache, error) {
	zap.S().Infof("Connecting to redis at %s (db %d)", addr, db)
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not ping redis with error [%w]", err)
	}
	return &redisCache{client: client}, nil
}
