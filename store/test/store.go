package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/store"
	"github.com/hrygo/poplog/store/db"
)

// NewTestingStore opens a migrated store for a single test.
// DRIVER=postgres together with POSTGRES_TEST_DSN runs against PostgreSQL,
// anything else uses a SQLite file in the test's temp dir.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	return newTestingStore(ctx, t, "dev")
}

// NewTestingStoreWithMode is NewTestingStore with an explicit profile mode,
// used to exercise the prod migration path and the demo seed.
func NewTestingStoreWithMode(ctx context.Context, t *testing.T, mode string) *store.Store {
	return newTestingStore(ctx, t, mode)
}

func newTestingStore(ctx context.Context, t *testing.T, mode string) *store.Store {
	t.Helper()

	profile := getTestingProfile(t, mode)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	st := store.New(dbDriver, profile)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if mode != "demo" && profile.Driver == "postgres" {
			// Shared databases are wiped between tests.
			_ = st.DeleteRecord(context.Background(), &store.DeleteRecord{All: true})
		}
		st.Close()
	})
	return st
}

func getTestingProfile(t *testing.T, mode string) *profile.Profile {
	t.Helper()

	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:     mode,
		Driver:   driver,
		Version:  "test",
		Timezone: "UTC",
	}
	switch driver {
	case "postgres":
		p.DSN = os.Getenv("POSTGRES_TEST_DSN")
		if p.DSN == "" {
			t.Skip("POSTGRES_TEST_DSN is not set")
		}
	default:
		dir := t.TempDir()
		p.Data = dir
		p.DSN = filepath.Join(dir, "poplog_test.db")
	}
	return p
}

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver == "postgres" {
		return driver
	}
	return "sqlite"
}
