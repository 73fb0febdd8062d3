package tracker

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/store"
)

var byUsername = store.Sort{Field: store.FieldUsername, Direction: store.Ascending}

// outcome is the result of processing a single username in a batch.
type outcome struct {
	username string
	kind     Outcome
	err      error
}

func added(username string) outcome   { return outcome{username: username, kind: OutcomeAdded} }
func updated(username string) outcome { return outcome{username: username, kind: OutcomeUpdated} }

func failed(username string, err error) outcome {
	return outcome{username: username, kind: OutcomeFailed, err: err}
}

// tally folds one outcome into the running result.
func tally(result models.BatchResult, o outcome) models.BatchResult {
	switch o.kind {
	case OutcomeAdded:
		result.Added++
	case OutcomeUpdated:
		result.Updated++
	default:
		result.Failed = append(result.Failed, models.FailedItem{
			Username: o.username,
			Error:    o.err.Error(),
		})
	}
	return result
}

// foldItems processes items one after another. The context is checked
// before every item; once it is done the partial result is returned with
// the context error. wait, when set, runs before every item.
func foldItems[T any](ctx context.Context, mode Mode, observer Observer,
	items []T, wait func(context.Context) error,
	process func(context.Context, T) outcome) (models.BatchResult, error) {
	result := models.NewBatchResult()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if wait != nil {
			if err := wait(ctx); err != nil {
				return result, err
			}
		}

		o := process(ctx, item)
		if o.kind == OutcomeFailed {
			zap.S().Errorf("%s of %s failed with error %v", mode, o.username, o.err)
		}
		observer.ObserveOutcome(mode, o.kind)
		result = tally(result, o)
	}
	return result, nil
}

// UpdateAll refreshes every tracked user. Users are processed in username
// order with the configured delay between them; individual failures are
// recorded in the result. The error is non-nil only when the users could
// not be listed or ctx ended the run early.
func (t *Tracker) UpdateAll(ctx context.Context) (models.BatchResult, error) {
	t.batchMu.Lock()
	defer t.batchMu.Unlock()

	users, err := t.store.ListAll(ctx, byUsername)
	if err != nil {
		return models.NewBatchResult(), errors.Wrap(err, "could not list tracked users")
	}
	t.observer.ObserveTrackedUsers(len(users))
	zap.S().Infof("Refreshing %d tracked users", len(users))

	var wait func(context.Context) error
	if t.updateDelay > 0 {
		wait = rate.NewLimiter(rate.Every(t.updateDelay), 1).Wait
	}

	result, err := foldItems(ctx, ModeUpdate, t.observer, users, wait, t.refresh)
	result.Listed = len(users)
	zap.S().Infof("Refresh complete: %d updated, %d failed", result.Updated,
		len(result.Failed))
	return result, err
}

// refresh scrapes a listed user and writes the merged record back.
func (t *Tracker) refresh(ctx context.Context, user models.UserRecord) outcome {
	snap, err := t.scrape(ctx, user.Username)
	if err != nil {
		return failed(user.Username, err)
	}
	merged := Reconcile(&user, snap)
	if err := t.store.UpdateByID(ctx, user.ID, store.UpdateFromRecord(merged)); err != nil {
		return failed(user.Username, err)
	}
	zap.S().Debugf("Updated %s: %d total", user.Username, merged.Total)
	return updated(user.Username)
}

// BulkImport adds new users and refreshes known ones from an external list.
// Every username is processed even if earlier ones fail.
func (t *Tracker) BulkImport(ctx context.Context, usernames []string) (
	models.BatchResult, error) {
	if len(usernames) == 0 {
		return models.NewBatchResult(), ErrNoUsernames
	}

	t.batchMu.Lock()
	defer t.batchMu.Unlock()

	zap.S().Infof("Importing %d users", len(usernames))
	return foldItems(ctx, ModeBulkImport, t.observer, usernames, nil, t.importOne)
}

// importOne inserts username if it is new and updates it otherwise.
func (t *Tracker) importOne(ctx context.Context, username string) outcome {
	username = strings.TrimSpace(username)
	if username == "" {
		return failed(username, ErrInvalidUsername)
	}

	var existing *models.UserRecord
	found, err := t.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		existing = &found
	case !errors.Is(err, store.ErrNotFound):
		return failed(username, err)
	}

	snap, err := t.scrape(ctx, username)
	if err != nil {
		return failed(username, err)
	}

	merged := Reconcile(existing, snap)
	if existing == nil {
		merged.Username = username
		if _, err := t.store.Insert(ctx, merged); err != nil {
			return failed(username, err)
		}
		return added(username)
	}

	if err := t.store.UpdateByID(ctx, existing.ID, store.UpdateFromRecord(merged)); err != nil {
		return failed(username, err)
	}
	return updated(username)
}

// RunBatch dispatches to Add, UpdateAll or BulkImport.
//
// ModeAdd takes exactly one username and returns its error directly.
// ModeUpdate ignores usernames: the tracked users are the input.
func (t *Tracker) RunBatch(ctx context.Context, mode Mode, usernames []string) (
	models.BatchResult, error) {
	switch mode {
	case ModeAdd:
		if len(usernames) != 1 {
			return models.NewBatchResult(), errors.Wrapf(ErrInvalidMode,
				"add takes exactly one username, got %d", len(usernames))
		}
		if _, err := t.Add(ctx, usernames[0]); err != nil {
			return models.NewBatchResult(), err
		}
		result := models.NewBatchResult()
		result.Added = 1
		return result, nil
	case ModeUpdate:
		return t.UpdateAll(ctx)
	case ModeBulkImport:
		return t.BulkImport(ctx, usernames)
	default:
		return models.NewBatchResult(), errors.Wrapf(ErrInvalidMode, "mode %q", mode)
	}
}
