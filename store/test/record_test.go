package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/poplog/store"
)

func TestRecordStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateRecord(ctx, &store.Record{
		UID:      "r-1",
		Ts:       1761782760,
		Category: store.CategoryIdeal,
		Origin:   store.OriginImport,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotZero(t, created.CreatedTs)

	_, err = ts.CreateRecord(ctx, &store.Record{
		UID:    "r-2",
		Ts:     1761700500,
		Origin: store.OriginQuick,
	})
	require.NoError(t, err)

	list, err := ts.ListRecords(ctx, &store.FindRecord{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Ordered by event time, not insertion.
	assert.Equal(t, "r-2", list[0].UID)
	assert.Equal(t, store.CategoryNone, list[0].Category)
	assert.Equal(t, store.OriginQuick, list[0].Origin)
	assert.Equal(t, "r-1", list[1].UID)
	assert.Equal(t, store.CategoryIdeal, list[1].Category)

	record, err := ts.GetRecord(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1761782760), record.Ts)

	newTs := int64(1761784560)
	category := store.CategoryWatery
	require.NoError(t, ts.UpdateRecord(ctx, &store.UpdateRecord{UID: "r-1", Ts: &newTs, Category: &category}))
	record, err = ts.GetRecord(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, newTs, record.Ts)
	assert.Equal(t, store.CategoryWatery, record.Category)

	none := store.CategoryNone
	require.NoError(t, ts.UpdateRecord(ctx, &store.UpdateRecord{UID: "r-1", Category: &none}))
	record, err = ts.GetRecord(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, store.CategoryNone, record.Category)

	require.NoError(t, ts.DeleteRecord(ctx, &store.DeleteRecord{UID: "r-1"}))
	_, err = ts.GetRecord(ctx, "r-1")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	require.NoError(t, ts.DeleteRecord(ctx, &store.DeleteRecord{All: true}))
	list, err = ts.ListRecords(ctx, &store.FindRecord{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordStore_Find(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	for i, origin := range []store.Origin{store.OriginImport, store.OriginImport, store.OriginManual, store.OriginQuick} {
		_, err := ts.CreateRecord(ctx, &store.Record{
			UID:    "find-" + string(rune('a'+i)),
			Ts:     int64(1000 + i*100),
			Origin: origin,
		})
		require.NoError(t, err)
	}

	origin := store.OriginImport
	list, err := ts.ListRecords(ctx, &store.FindRecord{Origin: &origin})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	start, end := int64(1100), int64(1300)
	list, err = ts.ListRecords(ctx, &store.FindRecord{StartTs: &start, EndTs: &end})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "find-b", list[0].UID)
	assert.Equal(t, "find-c", list[1].UID)

	limit, offset := 2, 1
	list, err = ts.ListRecords(ctx, &store.FindRecord{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "find-b", list[0].UID)
}

func TestRecordStore_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.CreateRecord(ctx, &store.Record{UID: "eph", Ts: 1, Origin: store.OriginSample, Ephemeral: true})
	assert.ErrorIs(t, err, store.ErrEphemeralRecord)

	newTs := int64(10)
	err = ts.UpdateRecord(ctx, &store.UpdateRecord{UID: "missing", Ts: &newTs})
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	err = ts.DeleteRecord(ctx, &store.DeleteRecord{UID: "missing"})
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	_, err = ts.CreateRecord(ctx, &store.Record{UID: "dup", Ts: 1, Origin: store.OriginManual})
	require.NoError(t, err)
	_, err = ts.CreateRecord(ctx, &store.Record{UID: "dup", Ts: 2, Origin: store.OriginManual})
	assert.Error(t, err)

	// Sample records are never valid storage origins.
	_, err = ts.CreateRecord(ctx, &store.Record{UID: "sample", Ts: 1, Origin: store.OriginSample})
	assert.Error(t, err)
}

func TestRecordStore_CreateRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateRecords(ctx, []*store.Record{
		{UID: "batch-1", Ts: 100, Origin: store.OriginImport},
		{UID: "batch-2", Ts: 200, Origin: store.OriginImport},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotZero(t, created[0].ID)
	assert.NotZero(t, created[1].ID)

	// A failing row rolls back the rows inserted before it.
	_, err = ts.CreateRecords(ctx, []*store.Record{
		{UID: "batch-3", Ts: 300, Origin: store.OriginImport},
		{UID: "batch-4", Ts: 400, Origin: store.OriginImport},
		{UID: "batch-1", Ts: 500, Origin: store.OriginImport},
	})
	require.Error(t, err)

	list, err := ts.ListRecords(ctx, &store.FindRecord{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "batch-1", list[0].UID)
	assert.Equal(t, "batch-2", list[1].UID)

	_, err = ts.CreateRecords(ctx, []*store.Record{
		{UID: "batch-5", Ts: 600, Origin: store.OriginImport},
		{UID: "eph", Ts: 700, Origin: store.OriginSample, Ephemeral: true},
	})
	assert.ErrorIs(t, err, store.ErrEphemeralRecord)

	created, err = ts.CreateRecords(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}
