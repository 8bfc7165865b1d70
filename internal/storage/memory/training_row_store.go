package memory

import (
	"context"
	"sort"
	"sync"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

// TrainingRowStore is an in-memory implementation of storage.TrainingRowStore.
type TrainingRowStore struct {
	mu   sync.RWMutex
	data []*domain.TrainingRow
}

// NewTrainingRowStore creates a new in-memory training row store.
func NewTrainingRowStore() *TrainingRowStore {
	return &TrainingRowStore{}
}

// InsertBulk adds the rows of one build run.
func (s *TrainingRowStore) InsertBulk(_ context.Context, rows []*domain.TrainingRow) error {
	for _, r := range rows {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		rowCopy := *r
		s.data = append(s.data, &rowCopy)
	}
	return nil
}

// GetByRunID retrieves all rows of one build run, ordered by block_time ASC.
func (s *TrainingRowStore) GetByRunID(_ context.Context, runID string) ([]*domain.TrainingRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrainingRow
	for _, r := range s.data {
		if r.RunID == runID {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BlockTime < result[j].BlockTime
	})
	return result, nil
}

// GetByPair retrieves rows for a pair, newest first, up to limit.
func (s *TrainingRowStore) GetByPair(_ context.Context, pair string, limit int) ([]*domain.TrainingRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrainingRow
	for _, r := range s.data {
		if r.Pair == pair {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BlockTime > result[j].BlockTime
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListRuns retrieves distinct run identifiers, newest first.
func (s *TrainingRowStore) ListRuns(_ context.Context) ([]*storage.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byRun := make(map[string]*storage.RunInfo)
	var order []string
	for _, r := range s.data {
		info, exists := byRun[r.RunID]
		if !exists {
			info = &storage.RunInfo{
				RunID:     r.RunID,
				Mint:      r.Mint,
				Pair:      r.Pair,
				Symbol:    r.Symbol,
				CreatedAt: r.CreatedAt,
			}
			byRun[r.RunID] = info
			order = append(order, r.RunID)
		}
		info.Rows++
		if r.CreatedAt > info.CreatedAt {
			info.CreatedAt = r.CreatedAt
		}
	}

	result := make([]*storage.RunInfo, 0, len(order))
	for _, runID := range order {
		result = append(result, byRun[runID])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.TrainingRowStore = (*TrainingRowStore)(nil)
