package clickhouse

import (
	"context"
	"fmt"
	"time"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/observability"
	"memecoin-lab/internal/storage"
)

// TrainingRowStore implements storage.TrainingRowStore using ClickHouse.
type TrainingRowStore struct {
	conn *Conn
}

// NewTrainingRowStore creates a new TrainingRowStore.
func NewTrainingRowStore(conn *Conn) *TrainingRowStore {
	return &TrainingRowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TrainingRowStore = (*TrainingRowStore)(nil)

const trainingRowColumns = `
	run_id, mint, pair, symbol,
	ctx_no_mint, ctx_freeze_authority, ctx_mutable_metadata, ctx_non_transferable,
	ctx_transfer_fee, ctx_fake_token,
	ctx_burnt_percent, ctx_top_holders_pct, ctx_top10_holder_pct, ctx_top1_holder_pct, ctx_top5_holder_pct,
	ctx_creator_address, ctx_token_creation_time, ctx_pool_creation_time, ctx_total_supply,
	ctx_liquidity_usd, ctx_liq_fdv_ratio_pct, ctx_market_cap_usd, ctx_socials, ctx_websites,
	block_time, trade_amount_token, trade_price_usd, trade_side_amount, trade_side_symbol, trade_side_type,
	tx_signature, maker, maker_age_days, mc_usd,
	created_at
`

// InsertBulk adds the rows of one build run.
func (s *TrainingRowStore) InsertBulk(ctx context.Context, rows []*domain.TrainingRow) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO training_rows (`+trainingRowColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			r.RunID, r.Mint, r.Pair, r.Symbol,
			r.CtxNoMint, r.CtxFreezeAuthority, r.CtxMutableMetadata, r.CtxNonTransferable,
			r.CtxTransferFee, r.CtxFakeToken,
			r.CtxBurntPercent, r.CtxTopHoldersPct, r.CtxTop10HolderPct, r.CtxTop1HolderPct, r.CtxTop5HolderPct,
			r.CtxCreatorAddress, r.CtxTokenCreationTime, r.CtxPoolCreationTime, r.CtxTotalSupply,
			r.CtxLiquidityUSD, r.CtxLiqFDVRatioPct, r.CtxMarketCapUSD, r.CtxSocials, r.CtxWebsites,
			r.BlockTime, r.TradeAmountToken, r.TradePriceUSD, r.TradeSideAmount, r.TradeSideSymbol, r.TradeSideType,
			r.TxSignature, r.Maker, r.MakerAgeDays, r.MarketCapUSD,
			r.CreatedAt,
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

// GetByRunID retrieves all rows of one build run, ordered by block_time ASC.
func (s *TrainingRowStore) GetByRunID(ctx context.Context, runID string) ([]*domain.TrainingRow, error) {
	query := `
		SELECT ` + trainingRowColumns + `
		FROM training_rows
		WHERE run_id = ?
		ORDER BY block_time ASC, tx_signature ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanTrainingRows(rows)
}

// GetByPair retrieves rows for a pair, newest first, up to limit.
func (s *TrainingRowStore) GetByPair(ctx context.Context, pair string, limit int) ([]*domain.TrainingRow, error) {
	query := `
		SELECT ` + trainingRowColumns + `
		FROM training_rows
		WHERE pair = ?
		ORDER BY block_time DESC, tx_signature ASC
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

	return scanTrainingRows(rows)
}

// ListRuns retrieves distinct run identifiers with their pair and row count,
// newest first.
func (s *TrainingRowStore) ListRuns(ctx context.Context) ([]*storage.RunInfo, error) {
	query := `
		SELECT
			run_id,
			any(mint),
			any(pair),
			any(symbol),
			count() AS row_count,
			max(created_at) AS last_created
		FROM training_rows
		GROUP BY run_id
		ORDER BY last_created DESC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.RunInfo
	for rows.Next() {
		var (
			info     storage.RunInfo
			rowCount uint64
		)
		err := rows.Scan(&info.RunID, &info.Mint, &info.Pair, &info.Symbol, &rowCount, &info.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan run info: %w", err)
		}
		info.Rows = int(rowCount)
		runs = append(runs, &info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// scanTrainingRows scans multiple rows into a slice.
func scanTrainingRows(rows chRows) ([]*domain.TrainingRow, error) {
	var result []*domain.TrainingRow

	for rows.Next() {
		var r domain.TrainingRow
		err := rows.Scan(
			&r.RunID, &r.Mint, &r.Pair, &r.Symbol,
			&r.CtxNoMint, &r.CtxFreezeAuthority, &r.CtxMutableMetadata, &r.CtxNonTransferable,
			&r.CtxTransferFee, &r.CtxFakeToken,
			&r.CtxBurntPercent, &r.CtxTopHoldersPct, &r.CtxTop10HolderPct, &r.CtxTop1HolderPct, &r.CtxTop5HolderPct,
			&r.CtxCreatorAddress, &r.CtxTokenCreationTime, &r.CtxPoolCreationTime, &r.CtxTotalSupply,
			&r.CtxLiquidityUSD, &r.CtxLiqFDVRatioPct, &r.CtxMarketCapUSD, &r.CtxSocials, &r.CtxWebsites,
			&r.BlockTime, &r.TradeAmountToken, &r.TradePriceUSD, &r.TradeSideAmount, &r.TradeSideSymbol, &r.TradeSideType,
			&r.TxSignature, &r.Maker, &r.MakerAgeDays, &r.MarketCapUSD,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan training row: %w", err)
		}
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training rows: %w", err)
	}

	return result, nil
}
