package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/store"
	"github.com/hrygo/poplog/store/db/postgres"
	"github.com/hrygo/poplog/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
// SQLite is the default for single-user installs; PostgreSQL serves shared deployments.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
