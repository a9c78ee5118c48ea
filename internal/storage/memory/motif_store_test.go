package memory

import (
	"context"
	"errors"
	"testing"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

func testMotif(id string, cost float64) domain.Motif {
	center := domain.Word{TripIndex: 0, Start: 1, End: 5, Pattern: domain.Pattern{"aebdc"}, RunLengths: []int{1, 1, 1, 1, 1}}
	other := domain.Word{TripIndex: 1, Start: 1, End: 5, Pattern: domain.Pattern{"aebdc"}, RunLengths: []int{1, 1, 1, 1, 1}}
	return domain.Motif{
		ID:         id,
		Pattern:    domain.Pattern{"aebdc"},
		WordLength: 5,
		Radius:     1,
		Center:     center,
		Members:    []domain.Word{center, other},
		MDL:        &cost,
	}
}

func TestMotifStore_Sets(t *testing.T) {
	store := NewMotifStore()
	ctx := context.Background()

	all := []domain.Motif{testMotif("m2", 20), testMotif("m1", 10), testMotif("m3", 30)}
	if err := store.InsertBulk(ctx, "run-1", all, false); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "run-1", []domain.Motif{all[1]}, true); err != nil {
		t.Fatalf("InsertBulk pruned failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run-1", false)
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 3 || got[0].ID != "m2" || got[2].ID != "m3" {
		t.Errorf("GetByRun did not keep insertion order: %v", got)
	}

	pruned, err := store.GetByRun(ctx, "run-1", true)
	if err != nil {
		t.Fatalf("GetByRun pruned failed: %v", err)
	}
	if len(pruned) != 1 || pruned[0].ID != "m1" {
		t.Errorf("pruned set mismatch: %v", pruned)
	}

	m, err := store.GetByID(ctx, "run-1", "m3")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if *m.MDL != 30 || len(m.Members) != 2 {
		t.Errorf("GetByID mismatch: %+v", m)
	}

	// Returned motifs are copies
	*m.MDL = 0
	again, _ := store.GetByID(ctx, "run-1", "m3")
	if *again.MDL != 30 {
		t.Errorf("store was mutated through returned motif")
	}
}

func TestMotifStore_Errors(t *testing.T) {
	store := NewMotifStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "run-1", []domain.Motif{testMotif("m1", 1)}, false); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	err := store.InsertBulk(ctx, "run-1", []domain.Motif{testMotif("m1", 1)}, false)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if _, err := store.GetByID(ctx, "run-1", "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.InsertBulk(ctx, "", nil, false); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
