package memory

import (
	"context"
	"sort"
	"sync"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

// LatestTokenStore is an in-memory implementation of storage.LatestTokenStore.
type LatestTokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LatestToken // keyed by mint
}

// NewLatestTokenStore creates a new in-memory latest token store.
func NewLatestTokenStore() *LatestTokenStore {
	return &LatestTokenStore{
		data: make(map[string]*domain.LatestToken),
	}
}

// Upsert inserts a discovered token or refreshes an existing mint.
func (s *LatestTokenStore) Upsert(_ context.Context, t *domain.LatestToken) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokenCopy := *t
	s.data[t.Mint] = &tokenCopy
	return nil
}

// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
func (s *LatestTokenStore) GetByMint(_ context.Context, mint string) (*domain.LatestToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// GetRecent retrieves tokens ordered by discovery time descending, up to limit.
func (s *LatestTokenStore) GetRecent(_ context.Context, limit int) ([]*domain.LatestToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.LatestToken, 0, len(s.data))
	for _, t := range s.data {
		tokenCopy := *t
		result = append(result, &tokenCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DiscoveredAt > result[j].DiscoveredAt
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.LatestTokenStore = (*LatestTokenStore)(nil)
