package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Record model related methods.
	CreateRecord(ctx context.Context, create *Record) (*Record, error)
	// CreateRecords inserts every record in one transaction, or none of them.
	CreateRecords(ctx context.Context, creates []*Record) ([]*Record, error)
	ListRecords(ctx context.Context, find *FindRecord) ([]*Record, error)
	// UpdateRecord returns ErrRecordNotFound when no row matches the UID.
	UpdateRecord(ctx context.Context, update *UpdateRecord) error
	// DeleteRecord returns ErrRecordNotFound when a UID delete matches no row.
	DeleteRecord(ctx context.Context, delete *DeleteRecord) error

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error)
}
