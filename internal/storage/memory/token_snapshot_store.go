package memory

import (
	"context"
	"sort"
	"sync"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

// TokenSnapshotStore is an in-memory implementation of storage.TokenSnapshotStore.
type TokenSnapshotStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []*domain.TokenSnapshot
}

// NewTokenSnapshotStore creates a new in-memory snapshot store.
func NewTokenSnapshotStore() *TokenSnapshotStore {
	return &TokenSnapshotStore{nextID: 1}
}

// Insert adds a new snapshot and assigns its ID.
func (s *TokenSnapshotStore) Insert(_ context.Context, snap *domain.TokenSnapshot) error {
	if snap == nil || snap.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapCopy := *snap
	snapCopy.ID = s.nextID
	s.nextID++
	s.data = append(s.data, &snapCopy)
	snap.ID = snapCopy.ID
	return nil
}

// GetLatestByMint retrieves the most recent snapshot for a mint.
func (s *TokenSnapshotStore) GetLatestByMint(_ context.Context, mint string) (*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.TokenSnapshot
	for _, snap := range s.data {
		if snap.Mint != mint {
			continue
		}
		if latest == nil || snap.CapturedAt > latest.CapturedAt {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	snapCopy := *latest
	return &snapCopy, nil
}

// GetByMint retrieves snapshots for a mint, newest first, up to limit.
func (s *TokenSnapshotStore) GetByMint(_ context.Context, mint string, limit int) ([]*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenSnapshot
	for _, snap := range s.data {
		if snap.Mint == mint {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CapturedAt > result[j].CapturedAt
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByTimeRange retrieves snapshots captured within [start, end] inclusive.
func (s *TokenSnapshotStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenSnapshot
	for _, snap := range s.data {
		if snap.CapturedAt >= start && snap.CapturedAt <= end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CapturedAt < result[j].CapturedAt
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.TokenSnapshotStore = (*TokenSnapshotStore)(nil)
