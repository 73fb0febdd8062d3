// Package cachetest provides an in-memory cache.Cache for tests.
package cachetest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/variety-jones/cptracker/pkg/cache"
)

// ErrCacheDown is returned by every call while the cache is broken.
var ErrCacheDown = errors.New("cache down")

// Map is a cache.Cache over a map. Values round-trip through JSON like they
// do in Redis. TTLs are recorded but never expire entries.
type Map struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	broken  bool
}

var _ cache.Cache = (*Map)(nil)

// NewMap returns an empty cache.
func NewMap() *Map {
	return &Map{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *Map) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return false, ErrCacheDown
	}
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *Map) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return ErrCacheDown
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *Map) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// Break makes every later call fail with ErrCacheDown.
func (m *Map) Break() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broken = true
}

// Len is the number of stored keys.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// TTL returns the ttl key was last set with.
func (m *Map) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl, ok := m.ttls[key]
	return ttl, ok
}
