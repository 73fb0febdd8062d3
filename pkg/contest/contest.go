// Package contest serves platform contest listings behind a TTL cache.
package contest

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/cache"
	"github.com/variety-jones/cptracker/pkg/models"
)

const (
	DefaultTTL = time.Hour

	kCachePrefix = "contests"
)

// Lister fetches the full contest list of a platform.
type Lister interface {
	Platform() string
	Contests(ctx context.Context) ([]models.Contest, error)
}

// Service caches the contest list of one platform.
type Service struct {
	lister Lister
	cache  cache.Cache
	ttl    time.Duration
}

// NewService returns a contest service. A nil cache disables caching and a
// non-positive ttl selects DefaultTTL.
func NewService(lister Lister, c cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{lister: lister, cache: c, ttl: ttl}
}

func (s *Service) key() string {
	return cache.Key(kCachePrefix, s.lister.Platform(), "all")
}

// All returns every contest, from cache while it is fresh. Cache failures
// are logged and the platform is asked instead.
func (s *Service) All(ctx context.Context) ([]models.Contest, error) {
	key := s.key()
	if s.cache != nil {
		var contests []models.Contest
		hit, err := s.cache.Get(ctx, key, &contests)
		if err != nil {
			zap.S().Errorf("cache get for %s failed with error %v", key, err)
		} else if hit {
			return contests, nil
		}
	}

	contests, err := s.lister.Contests(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %s contests",
			s.lister.Platform())
	}
	if contests == nil {
		contests = []models.Contest{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, contests, s.ttl); err != nil {
			zap.S().Errorf("cache set for %s failed with error %v", key, err)
		}
	}
	return contests, nil
}

// Upcoming returns the contests that have not started, soonest first.
func (s *Service) Upcoming(ctx context.Context) ([]models.Contest, error) {
	contests, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	upcoming := []models.Contest{}
	for _, c := range contests {
		if c.Upcoming() {
			upcoming = append(upcoming, c)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartTimeSeconds < upcoming[j].StartTimeSeconds
	})
	return upcoming, nil
}
