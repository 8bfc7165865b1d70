package memory

import (
	"context"
	"errors"
	"testing"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

func TestTrainingRowStore_InsertBulkAndGetByRunID(t *testing.T) {
	store := NewTrainingRowStore()
	ctx := context.Background()

	rows := []*domain.TrainingRow{
		{RunID: "run1", Mint: "mint1", Pair: "pair1", BlockTime: 3000},
		{RunID: "run1", Mint: "mint1", Pair: "pair1", BlockTime: 1000},
		{RunID: "run1", Mint: "mint1", Pair: "pair1", BlockTime: 2000},
	}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(result))
	}
	if result[0].BlockTime != 1000 || result[2].BlockTime != 3000 {
		t.Errorf("Expected block time ascending, got %d, %d, %d",
			result[0].BlockTime, result[1].BlockTime, result[2].BlockTime)
	}
}

func TestTrainingRowStore_GetByPair(t *testing.T) {
	store := NewTrainingRowStore()
	ctx := context.Background()

	rows := []*domain.TrainingRow{
		{RunID: "run1", Pair: "pair1", BlockTime: 1000},
		{RunID: "run1", Pair: "pair1", BlockTime: 3000},
		{RunID: "run2", Pair: "pair1", BlockTime: 2000},
		{RunID: "run2", Pair: "pair2", BlockTime: 4000},
	}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByPair(ctx, "pair1", 0)
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 rows for pair1, got %d", len(result))
	}
	if result[0].BlockTime != 3000 {
		t.Errorf("Expected newest-first ordering, got first block time %d", result[0].BlockTime)
	}

	limited, err := store.GetByPair(ctx, "pair1", 1)
	if err != nil {
		t.Fatalf("GetByPair with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 row with limit, got %d", len(limited))
	}
}

func TestTrainingRowStore_ListRuns(t *testing.T) {
	store := NewTrainingRowStore()
	ctx := context.Background()

	rows := []*domain.TrainingRow{
		{RunID: "run1", Mint: "mint1", Pair: "pair1", Symbol: "AAA", CreatedAt: 1000},
		{RunID: "run1", Mint: "mint1", Pair: "pair1", Symbol: "AAA", CreatedAt: 1000},
		{RunID: "run2", Mint: "mint2", Pair: "pair2", Symbol: "BBB", CreatedAt: 2000},
	}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run2" {
		t.Errorf("Expected run2 first (newest), got %s", runs[0].RunID)
	}
	if runs[1].RunID != "run1" || runs[1].Rows != 2 {
		t.Errorf("Expected run1 with 2 rows, got %s with %d", runs[1].RunID, runs[1].Rows)
	}
	if runs[1].Symbol != "AAA" || runs[1].Pair != "pair1" {
		t.Errorf("Run info mismatch: %+v", runs[1])
	}
}

func TestTrainingRowStore_InvalidInput(t *testing.T) {
	store := NewTrainingRowStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.TrainingRow{nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil row, got %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.TrainingRow{{RunID: ""}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty run ID, got %v", err)
	}

	// Nothing should have been stored
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected no runs after rejected inserts, got %d", len(runs))
	}
}

func TestTrainingRowStore_ReturnsCopy(t *testing.T) {
	store := NewTrainingRowStore()
	ctx := context.Background()

	row := &domain.TrainingRow{RunID: "run1", Pair: "pair1", Symbol: "AAA", BlockTime: 1000}
	if err := store.InsertBulk(ctx, []*domain.TrainingRow{row}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	row.Symbol = "XXX"

	result, _ := store.GetByRunID(ctx, "run1")
	if result[0].Symbol != "AAA" {
		t.Error("Store should return copy, not reference")
	}
}
