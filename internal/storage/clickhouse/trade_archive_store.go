package clickhouse

import (
	"context"
	"fmt"
	"time"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/observability"
	"memecoin-lab/internal/storage"
)

// TradeArchiveStore implements storage.TradeArchiveStore using ClickHouse.
// The pair_trades table uses ReplacingMergeTree keyed by (pair, signature),
// so re-archiving an overlapping batch is safe.
type TradeArchiveStore struct {
	conn *Conn
}

// NewTradeArchiveStore creates a new TradeArchiveStore.
func NewTradeArchiveStore(conn *Conn) *TradeArchiveStore {
	return &TradeArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeArchiveStore = (*TradeArchiveStore)(nil)

const pairTradeColumns = `
	mint, pair, block_time,
	currency_name, currency_symbol,
	amount, price_against_side, price_usd,
	side_symbol, side_amount, side_type,
	maker, signature
`

// InsertBulk archives trades observed for one pair.
func (s *TradeArchiveStore) InsertBulk(ctx context.Context, mint, pair string, trades []domain.PairTrade) error {
	if mint == "" || pair == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO pair_trades (`+pairTradeColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, tr := range trades {
		err = batch.Append(
			mint, pair, tr.BlockTime,
			tr.CurrencyName, tr.CurrencySymbol,
			tr.Amount, tr.PriceAgainstSide, tr.PriceUSD,
			tr.SideSymbol, tr.SideAmount, tr.SideType,
			tr.Maker, tr.Signature,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	start := time.Now()
	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "insert", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByPair retrieves archived trades for a pair, newest first, up to limit.
func (s *TradeArchiveStore) GetByPair(ctx context.Context, pair string, limit int) ([]domain.PairTrade, error) {
	query := `
		SELECT
			block_time,
			currency_name, currency_symbol,
			amount, price_against_side, price_usd,
			side_symbol, side_amount, side_type,
			maker, signature
		FROM pair_trades FINAL
		WHERE pair = ?
		ORDER BY block_time DESC, signature ASC
	`
	args := []any{pair}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by pair: %w", err)
	}
	defer rows.Close()

	var trades []domain.PairTrade
	for rows.Next() {
		var tr domain.PairTrade
		err := rows.Scan(
			&tr.BlockTime,
			&tr.CurrencyName, &tr.CurrencySymbol,
			&tr.Amount, &tr.PriceAgainstSide, &tr.PriceUSD,
			&tr.SideSymbol, &tr.SideAmount, &tr.SideType,
			&tr.Maker, &tr.Signature,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pair trade: %w", err)
		}
		trades = append(trades, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair trades: %w", err)
	}
	return trades, nil
}
