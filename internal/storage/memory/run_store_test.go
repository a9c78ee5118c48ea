package memory

import (
	"context"
	"errors"
	"testing"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

func TestRunStore_Lifecycle(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.Run{
		RunID:      "run-1",
		Status:     domain.RunStatusRunning,
		ConfigJSON: []byte(`{"min_pattern_length":3}`),
		StartedAt:  1000,
	}
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	finished := *run
	finished.Status = domain.RunStatusComplete
	finished.Radius = 1.25
	finished.Counts = domain.RunCounts{Trips: 2, Rounds: 3, Motifs: 4, Pruned: 2, Clusters: 4}
	finished.FinishedAt = 2000
	if err := store.Finish(ctx, &finished); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.RunStatusComplete || got.Counts.Motifs != 4 || got.Radius != 1.25 || got.FinishedAt != 2000 {
		t.Errorf("Finish not applied: %+v", got)
	}
	if string(got.ConfigJSON) != `{"min_pattern_length":3}` {
		t.Errorf("ConfigJSON mismatch: %s", got.ConfigJSON)
	}

	if err := store.Finish(ctx, &domain.Run{RunID: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunStore_List(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	for _, r := range []*domain.Run{
		{RunID: "a", StartedAt: 1000},
		{RunID: "b", StartedAt: 3000},
		{RunID: "c", StartedAt: 2000},
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	runs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"b", "c", "a"}
	for i, r := range runs {
		if r.RunID != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, r.RunID, want[i])
		}
	}
}
