// Package cached decorates a store.UserStore with a read-through cache for
// ranked listings.
package cached

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/cache"
	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/store"
)

const kCachePrefix = "tracker"

// cachedStore caches ListAll results. Every successful write drops the
// listings this process has cached; other processes see them go stale for
// at most ttl.
type cachedStore struct {
	store.UserStore

	cache cache.Cache
	ttl   time.Duration

	mu   sync.Mutex
	keys map[string]struct{}
}

func listKey(order store.Sort) string {
	return cache.Key(kCachePrefix, "users", string(order.Field),
		fmt.Sprint(int(order.Direction)))
}

// ListAll serves the listing from cache when possible. Cache failures are
// logged and the underlying store is queried instead.
func (cs *cachedStore) ListAll(ctx context.Context, order store.Sort) (
	[]models.UserRecord, error) {
	key := listKey(order)

	var users []models.UserRecord
	hit, err := cs.cache.Get(ctx, key, &users)
	if err != nil {
		zap.S().Errorf("cache get for %s failed with error %v", key, err)
	} else if hit {
		return users, nil
	}

	users, err = cs.UserStore.ListAll(ctx, order)
	if err != nil {
		return nil, err
	}

	if err := cs.cache.Set(ctx, key, users, cs.ttl); err != nil {
		zap.S().Errorf("cache set for %s failed with error %v", key, err)
	} else {
		cs.mu.Lock()
		cs.keys[key] = struct{}{}
		cs.mu.Unlock()
	}
	return users, nil
}

// Insert writes through and invalidates cached listings.
func (cs *cachedStore) Insert(ctx context.Context, user models.UserRecord) (
	models.UserRecord, error) {
	created, err := cs.UserStore.Insert(ctx, user)
	if err != nil {
		return models.UserRecord{}, err
	}
	cs.invalidate(ctx)
	return created, nil
}

// UpdateByID writes through and invalidates cached listings.
func (cs *cachedStore) UpdateByID(ctx context.Context, id string,
	update store.UserUpdate) error {
	if err := cs.UserStore.UpdateByID(ctx, id, update); err != nil {
		return err
	}
	cs.invalidate(ctx)
	return nil
}

// DeleteByUsername writes through and invalidates cached listings.
func (cs *cachedStore) DeleteByUsername(ctx context.Context, username string) error {
	if err := cs.UserStore.DeleteByUsername(ctx, username); err != nil {
		return err
	}
	cs.invalidate(ctx)
	return nil
}

func (cs *cachedStore) invalidate(ctx context.Context) {
	cs.mu.Lock()
	// The ranking listing is dropped even if this process never cached it.
	stale := map[string]struct{}{listKey(store.ByTotalDesc): {}}
	for key := range cs.keys {
		stale[key] = struct{}{}
	}
	cs.keys = make(map[string]struct{})
	cs.mu.Unlock()

	keys := make([]string, 0, len(stale))
	for key := range stale {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if err := cs.cache.Delete(ctx, keys...); err != nil {
		zap.S().Errorf("cache invalidation failed with error %v", err)
	}
}

// NewCachedStore wraps base so that ListAll results are cached for ttl.
func NewCachedStore(base store.UserStore, c cache.Cache,
	ttl time.Duration) store.UserStore {
	return &cachedStore{
		UserStore: base,
		cache:     c,
		ttl:       ttl,
		keys:      make(map[string]struct{}),
	}
}
