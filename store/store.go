package store

import (
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/store/cache"
)

var (
	// ErrRecordNotFound is returned when no record matches a UID.
	ErrRecordNotFound = errors.New("record not found")
	// ErrEphemeralRecord is returned when an ephemeral record reaches storage.
	ErrEphemeralRecord = errors.New("ephemeral records cannot be persisted")
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	systemSettingCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        100,
	}

	return &Store{
		driver:             driver,
		profile:            profile,
		cacheConfig:        cacheConfig,
		systemSettingCache: cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.systemSettingCache.Close()
	return s.driver.Close()
}
