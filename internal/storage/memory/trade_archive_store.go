package memory

import (
	"context"
	"sort"
	"sync"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

type archivedTrade struct {
	mint  string
	trade domain.PairTrade
}

// TradeArchiveStore is an in-memory implementation of storage.TradeArchiveStore.
type TradeArchiveStore struct {
	mu     sync.RWMutex
	byPair map[string][]archivedTrade
}

// NewTradeArchiveStore creates a new in-memory trade archive store.
func NewTradeArchiveStore() *TradeArchiveStore {
	return &TradeArchiveStore{
		byPair: make(map[string][]archivedTrade),
	}
}

// InsertBulk archives trades for a pair. Trades already present, matched by
// signature, are skipped.
func (s *TradeArchiveStore) InsertBulk(_ context.Context, mint, pair string, trades []domain.PairTrade) error {
	if mint == "" || pair == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.byPair[pair]))
	for _, at := range s.byPair[pair] {
		seen[at.trade.Signature] = struct{}{}
	}
	for _, tr := range trades {
		if _, dup := seen[tr.Signature]; dup {
			continue
		}
		seen[tr.Signature] = struct{}{}
		s.byPair[pair] = append(s.byPair[pair], archivedTrade{mint: mint, trade: tr})
	}
	return nil
}

// GetByPair retrieves archived trades for a pair, newest first, up to limit.
func (s *TradeArchiveStore) GetByPair(_ context.Context, pair string, limit int) ([]domain.PairTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byPair[pair]
	result := make([]domain.PairTrade, 0, len(stored))
	for _, at := range stored {
		result = append(result, at.trade)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BlockTime > result[j].BlockTime
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.TradeArchiveStore = (*TradeArchiveStore)(nil)
