// Package tracker keeps per-user solved-problem statistics up to date.
//
// A Tracker pulls snapshots from a scraper.Scraper, merges them into the
// records of a store.UserStore with Reconcile and reports batch outcomes as
// models.BatchResult values.
package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/scraper"
	"github.com/variety-jones/cptracker/pkg/store"
)

const (
	DefaultScrapeTimeout = 30 * time.Second
	DefaultUpdateDelay   = time.Second
)

// Mode selects the semantics of a batch run.
type Mode string

const (
	ModeAdd        Mode = "add"
	ModeUpdate     Mode = "update"
	ModeBulkImport Mode = "bulk_import"
)

// Tracker orchestrates scraping and persistence of tracked users.
type Tracker struct {
	scraper       scraper.Scraper
	store         store.UserStore
	observer      Observer
	scrapeTimeout time.Duration
	updateDelay   time.Duration

	// batchMu serialises batch runs within this process.
	batchMu sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithScrapeTimeout bounds every scrape call. Zero disables the bound.
func WithScrapeTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		t.scrapeTimeout = d
	}
}

// WithUpdateDelay sets the pause between users during UpdateAll. Zero
// disables it.
func WithUpdateDelay(d time.Duration) Option {
	return func(t *Tracker) {
		t.updateDelay = d
	}
}

// WithObserver installs an instrumentation hook.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		if o != nil {
			t.observer = o
		}
	}
}

// New creates a tracker over the given scraper and store.
func New(s scraper.Scraper, st store.UserStore, opts ...Option) *Tracker {
	t := &Tracker{
		scraper:       s,
		store:         st,
		observer:      nopObserver{},
		scrapeTimeout: DefaultScrapeTimeout,
		updateDelay:   DefaultUpdateDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Platform names the platform the tracker scrapes.
func (t *Tracker) Platform() string {
	return t.scraper.Platform()
}

// Add starts tracking username. It fails with ErrDuplicateUser if the user
// is already tracked; scrape and store errors are returned as they are.
func (t *Tracker) Add(ctx context.Context, username string) (models.UserRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.UserRecord{}, ErrInvalidUsername
	}

	_, err := t.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return models.UserRecord{}, errors.Wrapf(ErrDuplicateUser, "username %q", username)
	case !errors.Is(err, store.ErrNotFound):
		return models.UserRecord{}, err
	}

	snap, err := t.scrape(ctx, username)
	if err != nil {
		t.observer.ObserveOutcome(ModeAdd, OutcomeFailed)
		return models.UserRecord{}, err
	}

	record := Reconcile(nil, snap)
	record.Username = username
	created, err := t.store.Insert(ctx, record)
	if err != nil {
		t.observer.ObserveOutcome(ModeAdd, OutcomeFailed)
		if errors.Is(err, store.ErrDuplicate) {
			return models.UserRecord{}, errors.Wrapf(ErrDuplicateUser, "username %q", username)
		}
		return models.UserRecord{}, err
	}

	t.observer.ObserveOutcome(ModeAdd, OutcomeAdded)
	zap.S().Infof("Started tracking %s with %d solved", username, created.Total)
	return created, nil
}

func (t *Tracker) scrape(ctx context.Context, username string) (models.Snapshot, error) {
	if t.scrapeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.scrapeTimeout)
		defer cancel()
	}

	start := time.Now()
	snap, err := t.scraper.Scrape(ctx, username)
	t.observer.ObserveScrape(t.scraper.Platform(), time.Since(start), err)
	return snap, err
}
