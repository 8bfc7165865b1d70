package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

// WalletAgeStore implements storage.WalletAgeStore using PostgreSQL.
type WalletAgeStore struct {
	pool *Pool
}

// NewWalletAgeStore creates a new WalletAgeStore.
func NewWalletAgeStore(pool *Pool) *WalletAgeStore {
	return &WalletAgeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletAgeStore = (*WalletAgeStore)(nil)

// Upsert inserts or refreshes a wallet age estimate.
func (s *WalletAgeStore) Upsert(ctx context.Context, a *domain.WalletAge) error {
	if a == nil || a.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallet_ages (address, age_days, first_seen, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE SET
			age_days = EXCLUDED.age_days,
			first_seen = EXCLUDED.first_seen,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := s.pool.Exec(ctx, query, a.Address, a.AgeDays, a.FirstSeen, a.FetchedAt)
	if err != nil {
		return fmt.Errorf("upsert wallet age: %w", err)
	}
	return nil
}

// GetByAddress retrieves one estimate. Returns ErrNotFound if not exists.
func (s *WalletAgeStore) GetByAddress(ctx context.Context, address string) (*domain.WalletAge, error) {
	query := `
		SELECT address, age_days, first_seen, fetched_at
		FROM wallet_ages
		WHERE address = $1
	`

	row := s.pool.QueryRow(ctx, query, address)
	a, err := scanWalletAge(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet age by address: %w", err)
	}
	return a, nil
}

// GetByAddresses retrieves estimates for the given addresses. Missing
// addresses are absent from the result.
func (s *WalletAgeStore) GetByAddresses(ctx context.Context, addresses []string) (map[string]*domain.WalletAge, error) {
	result := make(map[string]*domain.WalletAge)
	if len(addresses) == 0 {
		return result, nil
	}

	query := `
		SELECT address, age_days, first_seen, fetched_at
		FROM wallet_ages
		WHERE address = ANY($1)
	`

	rows, err := s.pool.Query(ctx, query, addresses)
	if err != nil {
		return nil, fmt.Errorf("get wallet ages by addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanWalletAge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet age: %w", err)
		}
		result[a.Address] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet ages: %w", err)
	}
	return result, nil
}

// scanWalletAge scans a single row into WalletAge.
func scanWalletAge(row pgx.Row) (*domain.WalletAge, error) {
	var a domain.WalletAge

	err := row.Scan(&a.Address, &a.AgeDays, &a.FirstSeen, &a.FetchedAt)
	if err != nil {
		return nil, err
	}

	return &a, nil
}
