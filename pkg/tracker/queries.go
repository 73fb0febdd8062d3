package tracker

import (
	"context"
	"strings"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/store"
)

// ListRanked returns every tracked user by total solved, highest first.
// Equal totals are ordered by username.
func (t *Tracker) ListRanked(ctx context.Context) ([]models.UserSummary, error) {
	users, err := t.store.ListAll(ctx, store.ByTotalDesc)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, user.Summary())
	}
	return summaries, nil
}

// CheckSolved reports, per tracked user in username order, whether title is
// among their solved questions. Titles must match exactly.
func (t *Tracker) CheckSolved(ctx context.Context, title string) (
	[]models.SolvedStatus, error) {
	users, err := t.store.ListAll(ctx, byUsername)
	if err != nil {
		return nil, err
	}
	statuses := make([]models.SolvedStatus, 0, len(users))
	for _, user := range users {
		statuses = append(statuses, models.SolvedStatus{
			Username:  user.Username,
			HasSolved: user.Questions.Contains(title),
		})
	}
	return statuses, nil
}

// Get returns the record of username, or an error wrapping
// store.ErrNotFound.
func (t *Tracker) Get(ctx context.Context, username string) (models.UserRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.UserRecord{}, ErrInvalidUsername
	}
	return t.store.FindByUsername(ctx, username)
}

// Delete stops tracking username. Deleting an untracked user succeeds.
func (t *Tracker) Delete(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidUsername
	}
	return t.store.DeleteByUsername(ctx, username)
}
