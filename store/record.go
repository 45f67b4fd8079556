package store

import (
	"context"
	"time"
)

// Category is the stool type of a record on a 1-5 scale.
// CategoryNone means the record carries no category.
type Category int32

const (
	CategoryNone Category = iota
	CategoryHard
	CategoryIdeal
	CategorySoft
	CategoryMushy
	CategoryWatery
)

var categoryLabels = map[Category]string{
	CategoryHard:   "偏硬",
	CategoryIdeal:  "理想",
	CategorySoft:   "稍軟",
	CategoryMushy:  "糊狀",
	CategoryWatery: "水樣",
}

// Label returns the display label of the category, or "" for none.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Valid reports whether c is none or one of the five known categories.
func (c Category) Valid() bool {
	return c >= CategoryNone && c <= CategoryWatery
}

// Origin records how a record was created.
type Origin string

const (
	OriginQuick  Origin = "quick"
	OriginManual Origin = "manual"
	// OriginImport marks notebook imports. The stored value is "import",
	// not "imported".
	OriginImport Origin = "import"
	OriginSample Origin = "sample"
)

// Record is the object representing one bowel movement event.
type Record struct {
	ID        int32
	UID       string
	CreatedTs int64
	UpdatedTs int64

	// Ts is the event instant in unix seconds.
	Ts        int64
	Category  Category
	Origin    Origin
	Ephemeral bool
}

// Time returns the event instant in loc.
func (r *Record) Time(loc *time.Location) time.Time {
	return time.Unix(r.Ts, 0).In(loc)
}

// FindRecord is the find condition for record.
type FindRecord struct {
	ID     *int32
	UID    *string
	Origin *Origin

	// Time range filters, StartTs inclusive and EndTs exclusive.
	StartTs *int64
	EndTs   *int64

	// Pagination
	Limit  *int
	Offset *int
}

// UpdateRecord is the update request for record.
type UpdateRecord struct {
	UID       string
	UpdatedTs *int64
	Ts        *int64
	Category  *Category
}

// DeleteRecord is the delete request for record.
// An empty UID together with All deletes every record.
type DeleteRecord struct {
	UID string
	All bool
}

// CreateRecord creates a new record. Ephemeral records are never persisted.
func (s *Store) CreateRecord(ctx context.Context, create *Record) (*Record, error) {
	if create.Ephemeral {
		return nil, ErrEphemeralRecord
	}
	return s.driver.CreateRecord(ctx, create)
}

// CreateRecords creates all records atomically. The batch is rejected before
// any insert when one of them is ephemeral.
func (s *Store) CreateRecords(ctx context.Context, creates []*Record) ([]*Record, error) {
	for _, create := range creates {
		if create.Ephemeral {
			return nil, ErrEphemeralRecord
		}
	}
	if len(creates) == 0 {
		return creates, nil
	}
	return s.driver.CreateRecords(ctx, creates)
}

// ListRecords lists records ordered by Ts ascending.
func (s *Store) ListRecords(ctx context.Context, find *FindRecord) ([]*Record, error) {
	return s.driver.ListRecords(ctx, find)
}

// GetRecord gets a record by UID.
func (s *Store) GetRecord(ctx context.Context, uid string) (*Record, error) {
	list, err := s.ListRecords(ctx, &FindRecord{UID: &uid})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrRecordNotFound
	}
	return list[0], nil
}

// UpdateRecord updates an existing record.
func (s *Store) UpdateRecord(ctx context.Context, update *UpdateRecord) error {
	return s.driver.UpdateRecord(ctx, update)
}

// DeleteRecord deletes one record, or all of them.
func (s *Store) DeleteRecord(ctx context.Context, delete *DeleteRecord) error {
	return s.driver.DeleteRecord(ctx, delete)
}
