package storage

import (
	"context"
	"time"

	"memecoin-lab/internal/domain"
)

// TokenSnapshotStore provides access to token_snapshots storage.
type TokenSnapshotStore interface {
	// Insert adds a new snapshot and assigns its ID.
	Insert(ctx context.Context, s *domain.TokenSnapshot) error

	// GetLatestByMint retrieves the most recent snapshot for a mint.
	// Returns ErrNotFound if none exists.
	GetLatestByMint(ctx context.Context, mint string) (*domain.TokenSnapshot, error)

	// GetByMint retrieves snapshots for a mint, newest first, up to limit.
	GetByMint(ctx context.Context, mint string, limit int) ([]*domain.TokenSnapshot, error)

	// GetByTimeRange retrieves snapshots captured within [start, end]
	// (inclusive, Unix ms), ordered by captured_at ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenSnapshot, error)
}

// LatestTokenStore provides access to latest_tokens storage.
type LatestTokenStore interface {
	// Upsert inserts a discovered token or refreshes an existing mint.
	Upsert(ctx context.Context, t *domain.LatestToken) error

	// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.LatestToken, error)

	// GetRecent retrieves tokens ordered by discovery time descending,
	// up to limit.
	GetRecent(ctx context.Context, limit int) ([]*domain.LatestToken, error)
}

// WalletAgeStore provides access to wallet_ages storage.
type WalletAgeStore interface {
	// Upsert inserts or refreshes a wallet age estimate.
	Upsert(ctx context.Context, a *domain.WalletAge) error

	// GetByAddress retrieves one estimate. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.WalletAge, error)

	// GetByAddresses retrieves estimates for the given addresses. Missing
	// addresses are absent from the result.
	GetByAddresses(ctx context.Context, addresses []string) (map[string]*domain.WalletAge, error)
}

// TrainingRowStore provides access to training_rows storage.
type TrainingRowStore interface {
	// InsertBulk adds the rows of one build run.
	InsertBulk(ctx context.Context, rows []*domain.TrainingRow) error

	// GetByRunID retrieves all rows of one build run, ordered by block_time ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.TrainingRow, error)

	// GetByPair retrieves rows for a pair, newest first, up to limit.
	GetByPair(ctx context.Context, pair string, limit int) ([]*domain.TrainingRow, error)

	// ListRuns retrieves distinct run identifiers with their pair and row
	// count, newest first.
	ListRuns(ctx context.Context) ([]*RunInfo, error)
}

// RunInfo describes one stored training data build run.
type RunInfo struct {
	RunID     string
	Mint      string
	Pair      string
	Symbol    string
	Rows      int
	CreatedAt int64 // Unix ms
}

// TradeArchiveStore provides access to pair_trades storage.
type TradeArchiveStore interface {
	// InsertBulk archives trades observed for one pair.
	InsertBulk(ctx context.Context, mint, pair string, trades []domain.PairTrade) error

	// GetByPair retrieves archived trades for a pair, newest first, up to limit.
	GetByPair(ctx context.Context, pair string, limit int) ([]domain.PairTrade, error)
}

// SessionStateStore holds transient per-session values with an expiry.
type SessionStateStore interface {
	// Set stores a value under key. A zero ttl keeps the value until the
	// store is cleared.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves the value for key. Returns ErrNotFound when the key
	// is absent or its ttl has elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the value for key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
