package trainingdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"memecoin-lab/internal/domain"
)

// FileName returns the export file name for one build:
// ctd_<symbol>_<pair>_<UTC timestamp>.csv
func FileName(symbol, pair string, at time.Time) string {
	return fmt.Sprintf("ctd_%s_%s_%s.csv", symbol, pair, at.UTC().Format("20060102_150405"))
}

var csvHeader = []string{
	"run_id",
	"mint",
	"pair",
	"symbol",
	"ctx_no_mint",
	"ctx_freeze_authority",
	"ctx_mutable_metadata",
	"ctx_non_transferable",
	"ctx_transfer_fee",
	"ctx_fake_token",
	"ctx_burnt_percent",
	"ctx_top_holders_pct",
	"ctx_top10_holder_pct",
	"ctx_top1_holder_pct",
	"ctx_top5_holder_pct",
	"ctx_creator_address",
	"ctx_token_creation_time",
	"ctx_pool_creation_time",
	"ctx_total_supply",
	"ctx_liquidity_usd",
	"ctx_liq_fdv_ratio_pct",
	"ctx_market_cap_usd",
	"ctx_socials",
	"ctx_websites",
	"block_time",
	"trade_amount_token",
	"trade_price_usd",
	"trade_side_amount",
	"trade_side_symbol",
	"trade_side_type",
	"tx_signature",
	"maker",
	"maker_age_days",
	"mc_usd",
	"created_at",
}

// WriteCSV writes rows in export format. Nullable fields render empty.
func WriteCSV(w io.Writer, rows []domain.TrainingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.RunID,
			r.Mint,
			r.Pair,
			r.Symbol,
			strconv.FormatBool(r.CtxNoMint),
			strconv.FormatBool(r.CtxFreezeAuthority),
			strconv.FormatBool(r.CtxMutableMetadata),
			strconv.FormatBool(r.CtxNonTransferable),
			strconv.FormatBool(r.CtxTransferFee),
			strconv.FormatBool(r.CtxFakeToken),
			formatFloat(r.CtxBurntPercent),
			formatFloat(r.CtxTopHoldersPct),
			formatFloat(r.CtxTop10HolderPct),
			formatFloat(r.CtxTop1HolderPct),
			formatFloat(r.CtxTop5HolderPct),
			r.CtxCreatorAddress,
			formatIntPtr(r.CtxTokenCreationTime),
			formatIntPtr(r.CtxPoolCreationTime),
			formatFloat(r.CtxTotalSupply),
			formatFloatPtr(r.CtxLiquidityUSD),
			formatFloatPtr(r.CtxLiqFDVRatioPct),
			formatFloatPtr(r.CtxMarketCapUSD),
			r.CtxSocials,
			r.CtxWebsites,
			strconv.FormatInt(r.BlockTime, 10),
			formatFloat(r.TradeAmountToken),
			formatFloat(r.TradePriceUSD),
			formatFloat(r.TradeSideAmount),
			r.TradeSideSymbol,
			r.TradeSideType,
			r.TxSignature,
			r.Maker,
			strconv.FormatInt(r.MakerAgeDays, 10),
			formatFloat(r.MarketCapUSD),
			strconv.FormatInt(r.CreatedAt, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func formatIntPtr(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}
