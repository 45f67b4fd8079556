package record

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/poplog/plugin/sample"
	"github.com/hrygo/poplog/store"
	"github.com/hrygo/poplog/store/test"
)

var taipei = time.FixedZone("UTC+8", 8*3600)

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2025, month, day, hour, minute, 0, 0, taipei)
}

func newTestService(t *testing.T) (*service, *store.Store) {
	t.Helper()
	st := test.NewTestingStore(context.Background(), t)
	now := time.Date(2025, 10, 31, 12, 34, 56, 0, taipei)
	svc := newService(st, taipei, rand.New(rand.NewPCG(1, 2)), func() time.Time { return now })
	return svc, st
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	result, err := svc.Import(ctx, &ImportRequest{Text: "10/30\n08:06\n垃圾\n晚上七點半"})
	require.NoError(t, err)

	_, err = uuid.Parse(result.BatchID)
	assert.NoError(t, err)
	assert.Equal(t, 4, result.Lines)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Records, 2)
	for _, r := range result.Records {
		assert.True(t, strings.HasPrefix(r.UID, "imp-"), r.UID)
		assert.Equal(t, store.OriginImport, r.Origin)
		assert.Equal(t, store.CategoryNone, r.Category)
	}
	assert.Equal(t, at(10, 30, 8, 6).Unix(), result.Records[0].Ts)
	assert.Equal(t, at(10, 30, 19, 30).Unix(), result.Records[1].Ts)

	// Lines before any date use today.
	result, err = svc.Import(ctx, &ImportRequest{Text: "7:10"})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, at(10, 31, 7, 10).Unix(), result.Records[0].Ts)

	_, err = svc.Import(ctx, &ImportRequest{Text: ""})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

// failingBatchStore reuses the UID of the first record for the failAt-th one,
// so the database rejects that insert inside the batch transaction.
type failingBatchStore struct {
	*store.Store
	failAt int
}

func (f *failingBatchStore) CreateRecords(ctx context.Context, creates []*store.Record) ([]*store.Record, error) {
	if len(creates) >= f.failAt {
		creates[f.failAt-1].UID = creates[0].UID
	}
	return f.Store.CreateRecords(ctx, creates)
}

func TestService_ImportIsAtomic(t *testing.T) {
	ctx := context.Background()
	st := test.NewTestingStore(ctx, t)
	now := time.Date(2025, 10, 31, 12, 34, 56, 0, taipei)
	svc := newService(&failingBatchStore{Store: st, failAt: 3}, taipei, rand.New(rand.NewPCG(1, 2)), func() time.Time { return now })

	result, err := svc.Import(ctx, &ImportRequest{Text: "7:00\n8:00\n9:00"})
	require.Error(t, err)
	assert.Nil(t, result)

	list, err := st.ListRecords(ctx, &store.FindRecord{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Shorter batches never reach the failing row.
	result, err = svc.Import(ctx, &ImportRequest{Text: "7:00\n8:00"})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	list, err = st.ListRecords(ctx, &store.FindRecord{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestService_AddQuick(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	record, err := svc.AddQuick(ctx, &QuickRequest{Category: 3})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(record.UID, "q-"))
	assert.Equal(t, at(10, 31, 12, 34).Unix(), record.Ts)
	assert.Equal(t, store.CategorySoft, record.Category)
	assert.Equal(t, store.OriginQuick, record.Origin)

	_, err = svc.AddQuick(ctx, &QuickRequest{Category: 6})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_AddManual(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	record, err := svc.AddManual(ctx, &ManualRequest{Line: "下午3:20", Category: 2})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(record.UID, "m-"))
	assert.Equal(t, at(10, 31, 15, 20).Unix(), record.Ts)
	assert.Equal(t, store.CategoryIdeal, record.Category)
	assert.Equal(t, store.OriginManual, record.Origin)

	record, err = svc.AddManual(ctx, &ManualRequest{Line: "10/30 9pm"})
	require.NoError(t, err)
	assert.Equal(t, at(10, 30, 21, 0).Unix(), record.Ts)

	_, err = svc.AddManual(ctx, &ManualRequest{Line: "hello"})
	assert.ErrorIs(t, err, ErrNoTimeFound)

	_, err = svc.AddManual(ctx, &ManualRequest{Line: ""})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_Edit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.AddManual(ctx, &ManualRequest{Line: "10/30 08:06", Category: 1})
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, created.UID, &EditRequest{Time: "21:05"})
	require.NoError(t, err)
	assert.Equal(t, at(10, 30, 21, 5).Unix(), edited.Ts)
	assert.Equal(t, store.CategoryHard, edited.Category)

	category := 4
	edited, err = svc.Edit(ctx, created.UID, &EditRequest{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, at(10, 30, 21, 5).Unix(), edited.Ts)
	assert.Equal(t, store.CategoryMushy, edited.Category)

	none := 0
	edited, err = svc.Edit(ctx, created.UID, &EditRequest{Category: &none})
	require.NoError(t, err)
	assert.Equal(t, store.CategoryNone, edited.Category)

	tests := []struct {
		name string
		uid  string
		req  *EditRequest
		want error
	}{
		{"nothing to change", created.UID, &EditRequest{}, ErrEmptyEdit},
		{"bad time", created.UID, &EditRequest{Time: "25:00"}, ErrInvalidRequest},
		{"bad category", created.UID, &EditRequest{Category: ptr(9)}, ErrInvalidRequest},
		{"missing record", "nope", &EditRequest{Time: "08:00"}, store.ErrRecordNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Edit(ctx, tt.uid, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	a, err := svc.AddQuick(ctx, &QuickRequest{})
	require.NoError(t, err)
	_, err = svc.AddQuick(ctx, &QuickRequest{Category: 2})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.UID))
	assert.ErrorIs(t, svc.Delete(ctx, a.UID), store.ErrRecordNotFound)

	list, err := svc.List(ctx, &ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Clear(ctx))
	list, err = svc.List(ctx, &ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Import(ctx, &ImportRequest{Text: "9/30\n08:00\n10/30\n20:00"})
	require.NoError(t, err)
	_, err = svc.AddQuick(ctx, &QuickRequest{Category: 5})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *ListRequest
		want int
	}{
		{"all", &ListRequest{}, 3},
		{"month", &ListRequest{Scope: "month"}, 2},
		{"year", &ListRequest{Scope: "year"}, 3},
		{"origin", &ListRequest{Origin: "quick"}, 1},
		{"filter", &ListRequest{Filter: "hour >= 18"}, 1},
		{"filter and scope", &ListRequest{Scope: "month", Filter: "category == 5"}, 1},
		{"date range", &ListRequest{From: "2025-10-01", To: "2025-10-30"}, 1},
		{"open range", &ListRequest{From: "2025-10-30"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(ctx, tt.req)
			require.NoError(t, err)
			assert.Len(t, list, tt.want)
		})
	}

	_, err = svc.List(ctx, &ListRequest{Filter: "hour >="})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.List(ctx, &ListRequest{Scope: "week"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.List(ctx, &ListRequest{From: "2025-10-31", To: "2025-10-01"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_Sample(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	s, err := svc.Sample("normal")
	require.NoError(t, err)
	require.NotEmpty(t, s.Records)
	for _, r := range s.Records {
		assert.True(t, r.Ephemeral)
		assert.Equal(t, store.OriginSample, r.Origin)
	}

	stored, err := st.ListRecords(ctx, &store.FindRecord{})
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, err = svc.Sample("weird")
	assert.ErrorIs(t, err, sample.ErrUnknownKind)
}

func TestService_Report(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Import(ctx, &ImportRequest{Text: "10/28\n07:10\n10/29\n08:00\n10/31\n08:30"})
	require.NoError(t, err)

	report, err := svc.Report(ctx, &ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	require.Len(t, report.Days, 3)
	assert.Equal(t, "2025-10-31", report.Days[2].Date)
	assert.Equal(t, 1, report.LongestGap)
	assert.Equal(t, 3, report.Signals.RecentDays)

	report, err = svc.Report(ctx, &ReportRequest{Filter: "hour == 7"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)

	report, err = svc.Report(ctx, &ReportRequest{Sample: "over", Scope: "all"})
	require.NoError(t, err)
	assert.Greater(t, report.Total, 100)

	_, err = svc.Report(ctx, &ReportRequest{Sample: "weird"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func ptr[T any](v T) *T {
	return &v
}
