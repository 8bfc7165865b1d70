package reporting

import (
	"context"
	"errors"
	"time"

	"memecoin-lab/internal/dataset"
	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

const (
	defaultHistoryLimit = 20
	defaultRecentLimit  = 15
)

// Generator produces reports from live aggregates and stored data.
type Generator struct {
	snapshotStore storage.TokenSnapshotStore
	latestStore   storage.LatestTokenStore
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. Either store may be nil, in
// which case the corresponding report section stays empty.
func NewGenerator(snapshotStore storage.TokenSnapshotStore, latestStore storage.LatestTokenStore) *Generator {
	return &Generator{
		snapshotStore: snapshotStore,
		latestStore:   latestStore,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a token report from a summary and its safety status.
func (g *Generator) Generate(ctx context.Context, sum *domain.TokenSummary, status *domain.SafetyStatus, symbol string) (*TokenReport, error) {
	if sum == nil {
		return nil, storage.ErrInvalidInput
	}

	report := &TokenReport{
		GeneratedAt: g.now(),
		Mint:        sum.Mint,
		Pair:        sum.Pair,
		Symbol:      symbol,
		Security:    securitySection(sum),
		Market:      marketSection(sum),
	}
	if status != nil {
		report.Status = statusSection(status)
	}

	history, err := g.snapshotHistory(ctx, sum.Mint)
	if err != nil {
		return nil, err
	}
	report.SnapshotHistory = history

	recent, err := g.recentTokens(ctx)
	if err != nil {
		return nil, err
	}
	report.RecentTokens = recent

	return report, nil
}

// Compare builds a comparison report from labeled dataset metrics, keeping
// the given order.
func (g *Generator) Compare(sections []DatasetSection) *ComparisonReport {
	return &ComparisonReport{
		GeneratedAt: g.now(),
		Datasets:    sections,
	}
}

// CompareRows computes metrics per labeled row set and builds the report.
func (g *Generator) CompareRows(labels []string, rowSets [][]domain.TrainingRow) *ComparisonReport {
	now := g.now()
	sections := make([]DatasetSection, 0, len(rowSets))
	for i, rows := range rowSets {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		sections = append(sections, DatasetSection{
			Label:   label,
			Metrics: dataset.Compute(rows, now),
		})
	}
	return &ComparisonReport{GeneratedAt: now, Datasets: sections}
}

func (g *Generator) snapshotHistory(ctx context.Context, mint string) ([]SnapshotRow, error) {
	if g.snapshotStore == nil {
		return nil, nil
	}

	snaps, err := g.snapshotStore.GetByMint(ctx, mint, defaultHistoryLimit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rows := make([]SnapshotRow, len(snaps))
	for i, snap := range snaps {
		rows[i] = SnapshotRow{
			CapturedAt:         snap.CapturedAt,
			PriceUSD:           snap.PriceUSD,
			LiquidityUSD:       snap.LiquidityUSD,
			MarketCapUSD:       snap.MarketCapUSD,
			Volume24hUSD:       snap.Volume24hUSD,
			BurntPercent:       snap.BurntPercent,
			Top10HolderPercent: snap.Top10HolderPercent,
		}
	}
	return rows, nil
}

func (g *Generator) recentTokens(ctx context.Context) ([]RecentTokenRow, error) {
	if g.latestStore == nil {
		return nil, nil
	}

	tokens, err := g.latestStore.GetRecent(ctx, defaultRecentLimit)
	if err != nil {
		return nil, err
	}

	rows := make([]RecentTokenRow, len(tokens))
	for i, t := range tokens {
		rows[i] = RecentTokenRow{
			Mint:         t.Mint,
			Symbol:       t.Symbol,
			Pair:         t.Pair,
			PostAmount:   t.PostAmount,
			DiscoveredAt: t.DiscoveredAt,
		}
	}
	return rows, nil
}

func securitySection(sum *domain.TokenSummary) SecuritySection {
	return SecuritySection{
		NoMint:             sum.NoMint,
		FreezeAuthority:    sum.FreezeAuthority,
		MutableMetadata:    sum.MutableMetadata,
		NonTransferable:    sum.NonTransferable,
		TransferFeeEnable:  sum.TransferFeeEnable,
		FakeToken:          sum.FakeToken,
		BurntPercent:       sum.BurntPercent,
		Top1HolderPercent:  sum.Top1HolderPercent,
		Top5HolderPercent:  sum.Top5HolderPercent,
		Top10HolderPercent: sum.Top10HolderPercent,
		TopHoldersPercent:  sum.TopHoldersPercent,
		CreatorAddress:     sum.CreatorAddress,
		CreatorPercentage:  sum.CreatorPercentage,
		CreationTime:       sum.CreationTime,
		PreMarketHolders:   sum.PreMarketHolders,
	}
}

func marketSection(sum *domain.TokenSummary) MarketSection {
	// Prefer the Dexscreener price; the Birdeye overview is a fallback.
	price := sum.DexPriceUSD
	if price == nil {
		price = sum.PriceUSD
	}
	liquidity := sum.LiquidityUSD
	if liquidity == nil && sum.DexLiquidityUSD > 0 {
		liq := sum.DexLiquidityUSD
		liquidity = &liq
	}
	volume := sum.VolumeH24
	if volume == nil {
		volume = sum.Volume24hUSD
	}

	return MarketSection{
		PriceUSD:       price,
		LiquidityUSD:   liquidity,
		Volume24hUSD:   volume,
		FDV:            sum.FDV,
		MarketCapUSD:   sum.MarketCapUSD,
		LiqFDVRatioPct: sum.LiqFDVRatioPct,
		PairCreatedAt:  sum.PairCreatedAt,
		Socials:        sum.Socials,
		Websites:       sum.Websites,
	}
}

func statusSection(status *domain.SafetyStatus) StatusSection {
	return StatusSection{
		NoMint:            status.NoMint,
		FreezeAuthority:   status.FreezeAuthority,
		DEXPaid:           status.DEXPaid,
		BurntPercent:      status.BurntPercent,
		LiquidityUSD:      status.LiquidityUSD,
		PriceUSD:          status.PriceUSD,
		Volume24hUSD:      status.Volume24hUSD,
		Top1HolderPercent: status.Top1HolderPercent,
		Top5HolderPercent: status.Top5HolderPercent,
	}
}
