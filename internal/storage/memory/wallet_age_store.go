package memory

import (
	"context"
	"sync"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

// WalletAgeStore is an in-memory implementation of storage.WalletAgeStore.
type WalletAgeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletAge // keyed by address
}

// NewWalletAgeStore creates a new in-memory wallet age store.
func NewWalletAgeStore() *WalletAgeStore {
	return &WalletAgeStore{
		data: make(map[string]*domain.WalletAge),
	}
}

// Upsert inserts or refreshes a wallet age estimate.
func (s *WalletAgeStore) Upsert(_ context.Context, a *domain.WalletAge) error {
	if a == nil || a.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ageCopy := *a
	s.data[a.Address] = &ageCopy
	return nil
}

// GetByAddress retrieves one estimate. Returns ErrNotFound if not exists.
func (s *WalletAgeStore) GetByAddress(_ context.Context, address string) (*domain.WalletAge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	ageCopy := *a
	return &ageCopy, nil
}

// GetByAddresses retrieves estimates for the given addresses.
func (s *WalletAgeStore) GetByAddresses(_ context.Context, addresses []string) (map[string]*domain.WalletAge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.WalletAge)
	for _, addr := range addresses {
		if a, exists := s.data[addr]; exists {
			ageCopy := *a
			result[addr] = &ageCopy
		}
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.WalletAgeStore = (*WalletAgeStore)(nil)
