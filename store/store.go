// Package store provides database access to all persisted objects.
package store

import (
	"time"

	"github.com/vidyalab/vidya/internal/profile"
	"github.com/vidyalab/vidya/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	quizCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        500,
	}

	return &Store{
		driver:    driver,
		profile:   profile,
		quizCache: cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.quizCache.Close()
	return s.driver.Close()
}
