package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

func mustTrip(t *testing.T, id string, dims [][]float64, opts ...domain.TripOption) *domain.Trip {
	t.Helper()
	trip, err := domain.NewTrip(id, dims, opts...)
	require.NoError(t, err)
	return trip
}

func TestTripStore_InsertAndGetByID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTripStore(conn)
	ctx := context.Background()

	trip := mustTrip(t, "trip-1",
		[][]float64{{0.1, 0.2, 0.3}, {-1, 0, 1}},
		domain.WithTimestamps([]int64{1000, 1100, 1200}),
		domain.WithLabels([]string{"normal", "aggressive", "normal"}),
	)
	require.NoError(t, store.InsertBulk(ctx, []*domain.Trip{trip}))

	got, err := store.GetByID(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, trip, got)
}

func TestTripStore_WithoutLabels(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTripStore(conn)
	ctx := context.Background()

	trip := mustTrip(t, "plain", [][]float64{{1, 2}})
	require.NoError(t, store.InsertBulk(ctx, []*domain.Trip{trip}))

	got, err := store.GetByID(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, trip.Dimensions, got.Dimensions)
	assert.Equal(t, trip.Timestamps, got.Timestamps)
	assert.Empty(t, got.Labels)
}

func TestTripStore_InsertDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTripStore(conn)
	ctx := context.Background()

	trip := mustTrip(t, "dup", [][]float64{{1, 2, 3}})
	require.NoError(t, store.InsertBulk(ctx, []*domain.Trip{trip}))

	err := store.InsertBulk(ctx, []*domain.Trip{trip})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	other := mustTrip(t, "other", [][]float64{{1}})
	err = store.InsertBulk(ctx, []*domain.Trip{other, other})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTripStore_GetByIDNotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewTripStore(conn).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTripStore_ListIDsAndGetAll(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTripStore(conn)
	ctx := context.Background()

	b := mustTrip(t, "b", [][]float64{{3, 4, 5}})
	a := mustTrip(t, "a", [][]float64{{1, 2}})
	require.NoError(t, store.InsertBulk(ctx, []*domain.Trip{b, a}))

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, []float64{3, 4, 5}, all[1].Dimensions[0])
}
