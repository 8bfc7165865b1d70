// Package trainingdata builds flattened training observations for a token
// pair: the token's context at build time crossed with each of its recent
// trades, enriched with maker wallet ages and per-trade market cap.
package trainingdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
)

// DefaultTradeLimit caps how many recent trades one build covers.
const DefaultTradeLimit = 100

// Summarizer builds the token context.
type Summarizer interface {
	Summarize(ctx context.Context, mint, pair string) (*domain.TokenSummary, error)
}

// TradeSource reads recent pair trades and maker wallet ages.
type TradeSource interface {
	RecentPairTrades(ctx context.Context, mint, pair, sideToken string, limit int) ([]domain.PairTrade, error)
	WalletAges(ctx context.Context, addresses []string) (map[string]int, error)
}

// Builder assembles training rows.
type Builder struct {
	summarizer Summarizer
	trades     TradeSource
	logger     zerolog.Logger
}

// NewBuilder creates a training data builder.
func NewBuilder(summarizer Summarizer, trades TradeSource) *Builder {
	return &Builder{
		summarizer: summarizer,
		trades:     trades,
		logger:     log.With("trainingdata"),
	}
}

// Result is one completed build.
type Result struct {
	RunID   string
	Summary *domain.TokenSummary
	Rows    []domain.TrainingRow
}

// Build fetches the token context and its recent trades and crosses them
// into one row per trade. limit defaults to DefaultTradeLimit.
func (b *Builder) Build(ctx context.Context, mint, pair string, limit int) (*Result, error) {
	if limit <= 0 {
		limit = DefaultTradeLimit
	}

	sum, err := b.summarizer.Summarize(ctx, mint, pair)
	if err != nil {
		return nil, fmt.Errorf("token summary: %w", err)
	}

	trades, err := b.trades.RecentPairTrades(ctx, mint, sum.Pair, "", limit)
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}

	makers := uniqueMakers(trades)
	ages := map[string]int{}
	if len(makers) > 0 {
		ages, err = b.trades.WalletAges(ctx, makers)
		if err != nil {
			return nil, fmt.Errorf("wallet ages: %w", err)
		}
	}

	runID := uuid.NewString()
	now := time.Now().UnixMilli()

	rows := make([]domain.TrainingRow, 0, len(trades))
	for _, tr := range trades {
		rows = append(rows, buildRow(runID, sum, tr, ages, now))
	}

	b.logger.Info().
		Str("run_id", runID).
		Str("mint", mint).
		Int("rows", len(rows)).
		Msg("training data built")

	return &Result{RunID: runID, Summary: sum, Rows: rows}, nil
}

func buildRow(runID string, sum *domain.TokenSummary, tr domain.PairTrade, ages map[string]int, now int64) domain.TrainingRow {
	row := domain.TrainingRow{
		RunID:  runID,
		Mint:   sum.Mint,
		Pair:   sum.Pair,
		Symbol: tr.CurrencySymbol,

		CtxNoMint:          sum.NoMint,
		CtxFreezeAuthority: sum.FreezeAuthority,
		CtxMutableMetadata: boolOf(sum.MutableMetadata),
		CtxNonTransferable: boolOf(sum.NonTransferable),
		CtxTransferFee:     boolOf(sum.TransferFeeEnable),
		CtxFakeToken:       boolOf(sum.FakeToken),
		CtxBurntPercent:    sum.BurntPercent,
		CtxTopHoldersPct:   sum.TopHoldersPercent,
		CtxTop10HolderPct:  sum.Top10HolderPercent,
		CtxTop1HolderPct:   sum.Top1HolderPercent,
		CtxTop5HolderPct:   sum.Top5HolderPercent,

		CtxCreatorAddress:    stringOf(sum.CreatorAddress),
		CtxTokenCreationTime: sum.CreationTime,
		CtxPoolCreationTime:  sum.PairCreatedAt,
		CtxTotalSupply:       sum.TotalSupply,

		CtxLiquidityUSD:   sum.LiquidityUSD,
		CtxLiqFDVRatioPct: sum.LiqFDVRatioPct,
		CtxMarketCapUSD:   sum.MarketCapUSD,
		CtxSocials:        flattenLinks(sum.Socials),
		CtxWebsites:       flattenLinks(sum.Websites),

		BlockTime:        tr.BlockTime,
		TradeAmountToken: tr.Amount,
		TradePriceUSD:    tr.PriceUSD,
		TradeSideAmount:  tr.SideAmount,
		TradeSideSymbol:  tr.SideSymbol,
		TradeSideType:    tr.SideType,
		TxSignature:      tr.Signature,
		Maker:            tr.Maker,
		MakerAgeDays:     makerAge(ages, tr.Maker),
		MarketCapUSD:     tr.PriceUSD * sum.TotalSupply,

		CreatedAt: now,
	}
	return row
}

// makerAge normalizes unknown ages, reported as -1, to zero.
func makerAge(ages map[string]int, maker string) int64 {
	age, ok := ages[maker]
	if !ok || age < 0 {
		return 0
	}
	return int64(age)
}

func uniqueMakers(trades []domain.PairTrade) []string {
	seen := make(map[string]bool)
	var makers []string
	for _, tr := range trades {
		if tr.Maker == "" || seen[tr.Maker] {
			continue
		}
		seen[tr.Maker] = true
		makers = append(makers, tr.Maker)
	}
	return makers
}

// flattenLinks renders links as "type: url" pairs joined by commas.
func flattenLinks(links []domain.LinkRef) string {
	if len(links) == 0 {
		return ""
	}
	parts := make([]string, 0, len(links))
	for _, l := range links {
		if l.Type == "" {
			parts = append(parts, l.URL)
			continue
		}
		parts = append(parts, l.Type+": "+l.URL)
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool {
	return p != nil && *p
}

func stringOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
