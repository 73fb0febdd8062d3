package tracker

import "github.com/pkg/errors"

var (
	// ErrInvalidUsername is returned for blank usernames.
	ErrInvalidUsername = errors.New("username is required")
	// ErrDuplicateUser is returned by Add when the user is already tracked.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrNoUsernames is returned by BulkImport for an empty list.
	ErrNoUsernames = errors.New("usernames array is required")
	// ErrInvalidMode is returned by RunBatch for unknown modes or bad input.
	ErrInvalidMode = errors.New("invalid batch mode")
)
