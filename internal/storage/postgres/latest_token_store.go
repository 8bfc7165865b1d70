package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

// LatestTokenStore implements storage.LatestTokenStore using PostgreSQL.
type LatestTokenStore struct {
	pool *Pool
}

// NewLatestTokenStore creates a new LatestTokenStore.
func NewLatestTokenStore(pool *Pool) *LatestTokenStore {
	return &LatestTokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LatestTokenStore = (*LatestTokenStore)(nil)

// Upsert inserts a discovered token or refreshes an existing mint.
func (s *LatestTokenStore) Upsert(ctx context.Context, t *domain.LatestToken) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO latest_tokens (name, symbol, mint, pair, post_amount, discovered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (mint) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			pair = EXCLUDED.pair,
			post_amount = EXCLUDED.post_amount,
			discovered_at = EXCLUDED.discovered_at
	`

	_, err := s.pool.Exec(ctx, query,
		t.Name, t.Symbol, t.Mint, t.Pair, t.PostAmount, t.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("upsert latest token: %w", err)
	}
	return nil
}

// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
func (s *LatestTokenStore) GetByMint(ctx context.Context, mint string) (*domain.LatestToken, error) {
	query := `
		SELECT name, symbol, mint, pair, post_amount, discovered_at
		FROM latest_tokens
		WHERE mint = $1
	`

	row := s.pool.QueryRow(ctx, query, mint)
	t, err := scanLatestToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest token by mint: %w", err)
	}
	return t, nil
}

// GetRecent retrieves tokens ordered by discovery time descending, up to limit.
func (s *LatestTokenStore) GetRecent(ctx context.Context, limit int) ([]*domain.LatestToken, error) {
	query := `
		SELECT name, symbol, mint, pair, post_amount, discovered_at
		FROM latest_tokens
		ORDER BY discovered_at DESC, mint ASC
	`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get recent latest tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.LatestToken
	for rows.Next() {
		t, err := scanLatestToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan latest token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latest tokens: %w", err)
	}
	return tokens, nil
}

// scanLatestToken scans a single row into LatestToken.
func scanLatestToken(row pgx.Row) (*domain.LatestToken, error) {
	var t domain.LatestToken

	err := row.Scan(&t.Name, &t.Symbol, &t.Mint, &t.Pair, &t.PostAmount, &t.DiscoveredAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
