package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/variety-jones/cptracker/pkg/models"
)

// Sentinel errors shared by every UserStore implementation.
var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Field names a sortable column of the user table.
type Field string

const (
	FieldTotal    Field = "total"
	FieldUsername Field = "username"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Sort describes the order of ListAll. Ties are always broken by username
// ascending.
type Sort struct {
	Field     Field
	Direction Direction
}

// ByTotalDesc is the ranking order.
var ByTotalDesc = Sort{Field: FieldTotal, Direction: Descending}

// UserUpdate carries the fields written by a refresh.
type UserUpdate struct {
	Total     int
	Easy      int
	Medium    int
	Hard      int
	Questions models.QuestionSet
}

// UpdateFromRecord extracts the refreshable fields of a record.
func UpdateFromRecord(u models.UserRecord) UserUpdate {
	return UserUpdate{
		Total:     u.Total,
		Easy:      u.Easy,
		Medium:    u.Medium,
		Hard:      u.Hard,
		Questions: u.Questions,
	}
}

// UserStore is the interface needed to persist tracked users.
//
// UpdateByID overwrites the counts and merges Questions into the stored set;
// implementations never drop a stored title. DeleteByUsername succeeds when
// the user is already absent.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.UserRecord, error)
	Insert(ctx context.Context, user models.UserRecord) (models.UserRecord, error)
	UpdateByID(ctx context.Context, id string, update UserUpdate) error
	DeleteByUsername(ctx context.Context, username string) error
	ListAll(ctx context.Context, order Sort) ([]models.UserRecord, error)
}
