package record

import (
	"context"
	"time"

	"github.com/hrygo/poplog/plugin/sample"
	"github.com/hrygo/poplog/server/stats"
	"github.com/hrygo/poplog/store"
)

// Service is the record use-case layer shared by the HTTP API and the CLI.
type Service interface {
	// Import parses a notebook and stores one uncategorized record per
	// recognized line.
	Import(ctx context.Context, req *ImportRequest) (*ImportResult, error)

	// AddQuick stores a record at the current minute.
	AddQuick(ctx context.Context, req *QuickRequest) (*store.Record, error)

	// AddManual stores the first instant found in a free-text line.
	// It returns ErrNoTimeFound when the line has no time token.
	AddManual(ctx context.Context, req *ManualRequest) (*store.Record, error)

	// Edit replaces the time of day and, optionally, the category of a record.
	// The calendar date is kept.
	Edit(ctx context.Context, uid string, req *EditRequest) (*store.Record, error)

	Delete(ctx context.Context, uid string) error
	Clear(ctx context.Context) error

	// List returns the stored records matching scope, origin and filter.
	List(ctx context.Context, req *ListRequest) ([]*store.Record, error)

	// Sample draws a synthetic history. Its records are never stored.
	Sample(kind string) (*sample.Sample, error)

	// Report aggregates stored records, or a synthetic sample when asked.
	Report(ctx context.Context, req *ReportRequest) (*stats.Report, error)
}

// ImportRequest carries a pasted notebook.
type ImportRequest struct {
	Text string `json:"text" validate:"required,max=200000"`
	// Now anchors the reference date. Zero means the service clock.
	Now time.Time `json:"-"`
}

// ImportResult describes one import batch.
type ImportResult struct {
	BatchID string          `json:"batchId"`
	Lines   int             `json:"lines"`
	Skipped int             `json:"skipped"`
	Records []*store.Record `json:"records"`
}

// QuickRequest records "now" with an optional category.
type QuickRequest struct {
	Category int       `json:"category" validate:"min=0,max=5"`
	Now      time.Time `json:"-"`
}

// ManualRequest records the time written in Line.
type ManualRequest struct {
	Line     string    `json:"line" validate:"required,max=200"`
	Category int       `json:"category" validate:"min=0,max=5"`
	Now      time.Time `json:"-"`
}

// EditRequest changes a stored record. At least one field must be set.
type EditRequest struct {
	// Time is the new wall-clock time as HH:MM.
	Time     string `json:"time" validate:"omitempty,datetime=15:04"`
	Category *int   `json:"category" validate:"omitempty,min=0,max=5"`
}

// ListRequest selects stored records.
type ListRequest struct {
	Scope  string    `json:"scope" validate:"omitempty,oneof=all year month"`
	Origin string    `json:"origin" validate:"omitempty,oneof=quick manual import"`
	Filter string    `json:"filter" validate:"max=1000"`
	// From and To bound the event dates, both inclusive, as YYYY-MM-DD.
	From string    `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string    `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Now  time.Time `json:"-"`
}

// ReportRequest selects the records a report covers.
type ReportRequest struct {
	Scope  string `json:"scope" validate:"omitempty,oneof=all year month"`
	Filter string `json:"filter" validate:"max=1000"`
	// Sample reports over a synthetic history of this kind instead of the store.
	Sample string    `json:"sample" validate:"omitempty,oneof=normal abnormal over"`
	AsOf   time.Time `json:"-"`
}
