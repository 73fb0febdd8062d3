// Package scrapertest provides an in-memory scraper.Scraper for tests.
package scrapertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/scraper"
)

// Fake serves canned snapshots. Unknown usernames fail with
// scraper.ErrProfileNotFound.
type Fake struct {
	mu        sync.Mutex
	snapshots map[string]models.Snapshot
	failures  map[string]error
	hangs     map[string]bool
	calls     []string
}

// NewFake returns an empty fake.
func NewFake() *Fake {
	return &Fake{
		snapshots: make(map[string]models.Snapshot),
		failures:  make(map[string]error),
		hangs:     make(map[string]bool),
	}
}

// Set makes username return snap.
func (f *Fake) Set(username string, snap models.Snapshot) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[username] = snap
	delete(f.failures, username)
	return f
}

// Fail makes username fail with err.
func (f *Fake) Fail(username string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[username] = err
	return f
}

// Hang makes scrapes of username block until their context is done.
func (f *Fake) Hang(username string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hangs[username] = true
	return f
}

// Calls returns the usernames scraped so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) Platform() string {
	return "fake"
}

func (f *Fake) Scrape(ctx context.Context, username string) (models.Snapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, username)
	hang := f.hangs[username]
	err, failing := f.failures[username]
	snap, ok := f.snapshots[username]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return models.Snapshot{}, fmt.Errorf("scrape of %s: %w", username, ctx.Err())
	}
	if failing {
		return models.Snapshot{}, err
	}
	if !ok {
		return models.Snapshot{}, fmt.Errorf("scrape of %s: %w", username,
			scraper.ErrProfileNotFound)
	}
	snap.Questions = append([]string(nil), snap.Questions...)
	return snap, nil
}

var _ scraper.Scraper = (*Fake)(nil)
