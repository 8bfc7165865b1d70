package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

// TokenSnapshotStore implements storage.TokenSnapshotStore using PostgreSQL.
type TokenSnapshotStore struct {
	pool *Pool
}

// NewTokenSnapshotStore creates a new TokenSnapshotStore.
func NewTokenSnapshotStore(pool *Pool) *TokenSnapshotStore {
	return &TokenSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenSnapshotStore = (*TokenSnapshotStore)(nil)

// Insert adds a new snapshot and assigns its ID.
func (s *TokenSnapshotStore) Insert(ctx context.Context, snap *domain.TokenSnapshot) error {
	if snap == nil || snap.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_snapshots (
			run_id, mint, pair, symbol,
			price_usd, liquidity_usd, market_cap_usd, fdv, volume_24h_usd,
			no_mint, freeze_authority, mutable_metadata, non_transferable, transfer_fee,
			burnt_percent, top1_holder_percent, top5_holder_percent, top10_holder_percent,
			captured_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18,
			$19
		)
		RETURNING id, created_at
	`

	err := s.pool.QueryRow(ctx, query,
		snap.RunID, snap.Mint, snap.Pair, snap.Symbol,
		snap.PriceUSD, snap.LiquidityUSD, snap.MarketCapUSD, snap.FDV, snap.Volume24hUSD,
		snap.NoMint, snap.FreezeAuthority, snap.MutableMetadata, snap.NonTransferable, snap.TransferFee,
		snap.BurntPercent, snap.Top1HolderPercent, snap.Top5HolderPercent, snap.Top10HolderPercent,
		snap.CapturedAt,
	).Scan(&snap.ID, &snap.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token snapshot: %w", err)
	}
	return nil
}

// GetLatestByMint retrieves the most recent snapshot for a mint.
// Returns ErrNotFound if none exists.
func (s *TokenSnapshotStore) GetLatestByMint(ctx context.Context, mint string) (*domain.TokenSnapshot, error) {
	query := selectSnapshot + `
		WHERE mint = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, mint)
	snap, err := scanTokenSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest token snapshot: %w", err)
	}
	return snap, nil
}

// GetByMint retrieves snapshots for a mint, newest first, up to limit.
func (s *TokenSnapshotStore) GetByMint(ctx context.Context, mint string, limit int) ([]*domain.TokenSnapshot, error) {
	query := selectSnapshot + `
		WHERE mint = $1
		ORDER BY captured_at DESC, id DESC
	`
	args := []any{mint}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get token snapshots by mint: %w", err)
	}
	defer rows.Close()

	return scanTokenSnapshots(rows)
}

// GetByTimeRange retrieves snapshots captured within [start, end] inclusive,
// ordered by captured_at ASC.
func (s *TokenSnapshotStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenSnapshot, error) {
	query := selectSnapshot + `
		WHERE captured_at >= $1 AND captured_at <= $2
		ORDER BY captured_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get token snapshots by time range: %w", err)
	}
	defer rows.Close()

	return scanTokenSnapshots(rows)
}

const selectSnapshot = `
	SELECT
		id, run_id, mint, pair, symbol,
		price_usd, liquidity_usd, market_cap_usd, fdv, volume_24h_usd,
		no_mint, freeze_authority, mutable_metadata, non_transferable, transfer_fee,
		burnt_percent, top1_holder_percent, top5_holder_percent, top10_holder_percent,
		captured_at, created_at
	FROM token_snapshots
`

// scanTokenSnapshot scans a single row into TokenSnapshot.
func scanTokenSnapshot(row pgx.Row) (*domain.TokenSnapshot, error) {
	var snap domain.TokenSnapshot

	err := row.Scan(
		&snap.ID, &snap.RunID, &snap.Mint, &snap.Pair, &snap.Symbol,
		&snap.PriceUSD, &snap.LiquidityUSD, &snap.MarketCapUSD, &snap.FDV, &snap.Volume24hUSD,
		&snap.NoMint, &snap.FreezeAuthority, &snap.MutableMetadata, &snap.NonTransferable, &snap.TransferFee,
		&snap.BurntPercent, &snap.Top1HolderPercent, &snap.Top5HolderPercent, &snap.Top10HolderPercent,
		&snap.CapturedAt, &snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// scanTokenSnapshots scans all rows into a slice.
func scanTokenSnapshots(rows pgx.Rows) ([]*domain.TokenSnapshot, error) {
	var snaps []*domain.TokenSnapshot
	for rows.Next() {
		snap, err := scanTokenSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token snapshots: %w", err)
	}
	return snaps, nil
}
