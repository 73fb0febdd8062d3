// Package scraper defines the source of profile snapshots for the tracker.
package scraper

import (
	"context"

	"github.com/pkg/errors"

	"github.com/variety-jones/cptracker/pkg/models"
)

// ErrProfileNotFound is returned when the platform has no such profile.
var ErrProfileNotFound = errors.New("profile not found")

// Scraper fetches the current statistics of a platform profile.
type Scraper interface {
	Platform() string
	Scrape(ctx context.Context, username string) (models.Snapshot, error)
}
