// Package memory is an in-process UserStore used for local runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/store"
)

// memoryStore keeps users keyed by id, with a username index.
type memoryStore struct {
	mu         sync.RWMutex
	users      map[string]models.UserRecord
	byUsername map[string]string
}

// FindByUsername returns the stored user or store.ErrNotFound.
func (m *memoryStore) FindByUsername(_ context.Context, username string) (
	models.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUsername[username]
	if !ok {
		return models.UserRecord{}, errors.Wrapf(store.ErrNotFound,
			"username %q", username)
	}
	return clone(m.users[id]), nil
}

// Insert stores a new user under a fresh id.
func (m *memoryStore) Insert(_ context.Context, user models.UserRecord) (
	models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byUsername[user.Username]; ok {
		return models.UserRecord{}, errors.Wrapf(store.ErrDuplicate,
			"username %q", user.Username)
	}
	user = clone(user)
	user.ID = uuid.NewString()
	m.users[user.ID] = user
	m.byUsername[user.Username] = user.ID
	return clone(user), nil
}

// UpdateByID overwrites counts and unions the question set.
func (m *memoryStore) UpdateByID(_ context.Context, id string,
	update store.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return errors.Wrapf(store.ErrNotFound, "id %q", id)
	}
	user.Total = update.Total
	user.Easy = update.Easy
	user.Medium = update.Medium
	user.Hard = update.Hard
	user.Questions = user.Questions.Union(update.Questions)
	m.users[id] = user
	return nil
}

// DeleteByUsername removes the user if present.
func (m *memoryStore) DeleteByUsername(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byUsername[username]; ok {
		delete(m.users, id)
		delete(m.byUsername, username)
	}
	return nil
}

// ListAll returns a copy of every user in the requested order.
func (m *memoryStore) ListAll(_ context.Context, order store.Sort) (
	[]models.UserRecord, error) {
	m.mu.RLock()
	users := make([]models.UserRecord, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, clone(user))
	}
	m.mu.RUnlock()

	store.SortUsers(users, order)
	return users, nil
}

func clone(u models.UserRecord) models.UserRecord {
	u.Questions = models.NewQuestionSet().Union(u.Questions)
	return u
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() store.UserStore {
	return &memoryStore{
		users:      make(map[string]models.UserRecord),
		byUsername: make(map[string]string),
	}
}
