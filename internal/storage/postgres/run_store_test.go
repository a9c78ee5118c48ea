package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

func TestRunStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := &domain.Run{
		RunID:      "run-001",
		Status:     domain.RunStatusRunning,
		ConfigJSON: []byte(`{"letter_length": 4, "word_length": 2}`),
		StartedAt:  1700000000000,
	}
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, domain.RunStatusRunning, got.Status)
	assert.JSONEq(t, string(run.ConfigJSON), string(got.ConfigJSON))
	assert.Equal(t, run.StartedAt, got.StartedAt)
	assert.Zero(t, got.FinishedAt)
}

func TestRunStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := &domain.Run{RunID: "run-dup", Status: domain.RunStatusRunning, StartedAt: 1}
	require.NoError(t, store.Insert(ctx, run))

	err := store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_Finish(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := &domain.Run{RunID: "run-fin", Status: domain.RunStatusRunning, StartedAt: 100}
	require.NoError(t, store.Insert(ctx, run))

	run.Status = domain.RunStatusComplete
	run.Radius = 0.42
	run.Counts = domain.RunCounts{Trips: 3, Rounds: 4, Motifs: 5, Pruned: 2, Clusters: 1}
	run.FinishedAt = 200
	require.NoError(t, store.Finish(ctx, run))

	got, err := store.GetByID(ctx, "run-fin")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusComplete, got.Status)
	assert.InDelta(t, 0.42, got.Radius, 1e-12)
	assert.Equal(t, run.Counts, got.Counts)
	assert.Equal(t, int64(200), got.FinishedAt)

	err = store.Finish(ctx, &domain.Run{RunID: "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewRunStore(pool).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	insertRun(t, pool, "run-a", 100)
	insertRun(t, pool, "run-b", 300)
	insertRun(t, pool, "run-c", 200)

	runs, err := NewRunStore(pool).List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-b", runs[0].RunID)
	assert.Equal(t, "run-c", runs[1].RunID)
	assert.Equal(t, "run-a", runs[2].RunID)
}
