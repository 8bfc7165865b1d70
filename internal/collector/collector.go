// Package collector runs the continuous collection loop: it refreshes the
// list of newly launched tokens, captures a market snapshot per tracked
// token and archives its recent trades.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/observability"
	"memecoin-lab/internal/storage"
	"memecoin-lab/internal/summary"
)

// Defaults applied when the corresponding option is zero.
const (
	DefaultInterval   = 5 * time.Minute
	DefaultTrackLimit = 10
	DefaultTradeLimit = 100
	DefaultFlushEvery = 50
)

// Discovery lists newly launched tokens on a platform.
type Discovery interface {
	LatestTokens(ctx context.Context, platform string, limit int) ([]domain.LatestToken, error)
}

// Summarizer builds the combined token view.
type Summarizer interface {
	Summarize(ctx context.Context, mint, pair string) (*domain.TokenSummary, error)
}

// TradeSource reads recent pair trades and maker wallet ages.
type TradeSource interface {
	RecentPairTrades(ctx context.Context, mint, pair, sideToken string, limit int) ([]domain.PairTrade, error)
	WalletAges(ctx context.Context, addresses []string) (map[string]int, error)
}

// Options configures a Collector.
type Options struct {
	Discovery  Discovery
	Summarizer Summarizer
	Trades     TradeSource

	LatestTokens storage.LatestTokenStore
	Snapshots    storage.TokenSnapshotStore
	TradeArchive storage.TradeArchiveStore
	WalletAges   storage.WalletAgeStore

	Metrics *observability.Metrics

	// Interval between collection passes. Default: 5 minutes.
	Interval time.Duration
	// TrackLimit caps how many recently discovered tokens one pass covers.
	TrackLimit int
	// TradeLimit caps how many trades are archived per token per pass.
	TradeLimit int
	// SideToken is the quote mint used for trade queries. Default: wrapped SOL.
	SideToken string
}

// Collector periodically discovers tokens and persists their state.
type Collector struct {
	discovery  Discovery
	summarizer Summarizer
	trades     TradeSource

	latestTokens storage.LatestTokenStore
	snapshots    storage.TokenSnapshotStore
	tradeArchive storage.TradeArchiveStore
	walletAges   storage.WalletAgeStore

	metrics *observability.Metrics

	interval   time.Duration
	trackLimit int
	tradeLimit int
	sideToken  string
	logger     zerolog.Logger
}

// New creates a collector. Discovery, Summarizer and the latest-token and
// snapshot stores are required; the trade source and remaining stores are
// optional and disable their part of the pass when nil.
func New(opts Options) (*Collector, error) {
	if opts.Discovery == nil || opts.Summarizer == nil {
		return nil, errors.New("collector: discovery and summarizer are required")
	}
	if opts.LatestTokens == nil || opts.Snapshots == nil {
		return nil, errors.New("collector: latest-token and snapshot stores are required")
	}

	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	trackLimit := opts.TrackLimit
	if trackLimit == 0 {
		trackLimit = DefaultTrackLimit
	}
	tradeLimit := opts.TradeLimit
	if tradeLimit == 0 {
		tradeLimit = DefaultTradeLimit
	}
	sideToken := opts.SideToken
	if sideToken == "" {
		sideToken = domain.WrappedSOLMint
	}

	return &Collector{
		discovery:    opts.Discovery,
		summarizer:   opts.Summarizer,
		trades:       opts.Trades,
		latestTokens: opts.LatestTokens,
		snapshots:    opts.Snapshots,
		tradeArchive: opts.TradeArchive,
		walletAges:   opts.WalletAges,
		metrics:      opts.Metrics,
		interval:     interval,
		trackLimit:   trackLimit,
		tradeLimit:   tradeLimit,
		sideToken:    sideToken,
		logger:       log.With("collector"),
	}, nil
}

// Run executes a pass immediately and then on every interval tick until the
// context is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info().
		Dur("interval", c.interval).
		Int("track_limit", c.trackLimit).
		Msg("collector started")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			c.logger.Error().Err(err).Msg("collection pass failed")
		}

		select {
		case <-ctx.Done():
			c.logger.Info().Msg("collector stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single collection pass: refresh the latest-token list,
// then snapshot and archive each tracked token. Per-token failures are
// logged and do not abort the pass.
func (c *Collector) RunOnce(ctx context.Context) error {
	started := time.Now()
	runID := uuid.NewString()
	logger := c.logger.With().Str("run_id", runID).Logger()

	if err := c.refreshLatest(ctx); err != nil {
		c.recordRun("error", started)
		return fmt.Errorf("refresh latest tokens: %w", err)
	}

	tracked, err := c.latestTokens.GetRecent(ctx, c.trackLimit)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.recordRun("error", started)
		return fmt.Errorf("load tracked tokens: %w", err)
	}
	if c.metrics != nil {
		c.metrics.TokensTracked.Set(float64(len(tracked)))
	}

	var failed int
	for _, token := range tracked {
		if ctx.Err() != nil {
			c.recordRun("cancelled", started)
			return ctx.Err()
		}
		if err := c.collectToken(ctx, runID, token); err != nil {
			failed++
			logger.Warn().Err(err).
				Str("mint", token.Mint).
				Str("pair", token.Pair).
				Msg("token collection failed")
		}
	}

	status := "ok"
	if failed == len(tracked) && len(tracked) > 0 {
		status = "error"
	}
	c.recordRun(status, started)
	if status == "ok" && c.metrics != nil {
		c.metrics.LastSuccessfulCollection.SetToCurrentTime()
	}

	logger.Info().
		Int("tracked", len(tracked)).
		Int("failed", failed).
		Dur("elapsed", time.Since(started)).
		Msg("collection pass finished")
	return nil
}

func (c *Collector) refreshLatest(ctx context.Context) error {
	tokens, err := c.discovery.LatestTokens(ctx, domain.PlatformPumpFun, c.trackLimit)
	if err != nil {
		return err
	}
	for i := range tokens {
		if err := c.latestTokens.Upsert(ctx, &tokens[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", tokens[i].Mint, err)
		}
	}
	return nil
}

func (c *Collector) collectToken(ctx context.Context, runID string, token *domain.LatestToken) error {
	sum, err := c.summarizer.Summarize(ctx, token.Mint, token.Pair)
	if err != nil {
		if errors.Is(err, summary.ErrMintNotFound) {
			// The token may have been launched and abandoned before the
			// pass reached it.
			c.logger.Debug().Str("mint", token.Mint).Msg("mint no longer exists")
			return nil
		}
		return fmt.Errorf("summarize: %w", err)
	}

	snap := snapshotFromSummary(runID, token.Symbol, sum)
	if err := c.snapshots.Insert(ctx, snap); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	if c.metrics != nil {
		c.metrics.SnapshotsStored.Inc()
	}

	if c.trades == nil || c.tradeArchive == nil || sum.Pair == "" {
		return nil
	}

	trades, err := c.trades.RecentPairTrades(ctx, token.Mint, sum.Pair, c.sideToken, c.tradeLimit)
	if err != nil {
		return fmt.Errorf("recent trades: %w", err)
	}
	if len(trades) == 0 {
		return nil
	}
	if err := c.tradeArchive.InsertBulk(ctx, token.Mint, sum.Pair, trades); err != nil {
		return fmt.Errorf("archive trades: %w", err)
	}
	if c.metrics != nil {
		c.metrics.TradesStored.Add(float64(len(trades)))
	}

	return c.refreshWalletAges(ctx, trades)
}

// refreshWalletAges resolves and stores ages for makers not seen before.
func (c *Collector) refreshWalletAges(ctx context.Context, trades []domain.PairTrade) error {
	if c.walletAges == nil {
		return nil
	}

	seen := make(map[string]bool)
	var addresses []string
	for _, tr := range trades {
		if tr.Maker == "" || seen[tr.Maker] {
			continue
		}
		seen[tr.Maker] = true
		addresses = append(addresses, tr.Maker)
	}
	if len(addresses) == 0 {
		return nil
	}

	known, err := c.walletAges.GetByAddresses(ctx, addresses)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("known wallet ages: %w", err)
	}
	var missing []string
	for _, addr := range addresses {
		if _, ok := known[addr]; !ok {
			missing = append(missing, addr)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	ages, err := c.trades.WalletAges(ctx, missing)
	if err != nil {
		return fmt.Errorf("wallet ages: %w", err)
	}
	now := time.Now().UnixMilli()
	for addr, days := range ages {
		age := &domain.WalletAge{
			Address:   addr,
			AgeDays:   int64(days),
			FetchedAt: now,
		}
		if err := c.walletAges.Upsert(ctx, age); err != nil {
			return fmt.Errorf("store wallet age %s: %w", addr, err)
		}
	}
	return nil
}

func (c *Collector) recordRun(status string, started time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.CollectorRuns.WithLabelValues(status).Inc()
	c.metrics.CollectorDuration.Observe(time.Since(started).Seconds())
}

// snapshotFromSummary flattens a token summary into a stored snapshot row.
// The Dexscreener price and volume take precedence over the Birdeye
// overview, matching how the summary itself presents them.
func snapshotFromSummary(runID, symbol string, sum *domain.TokenSummary) *domain.TokenSnapshot {
	price := sum.PriceUSD
	if sum.DexPriceUSD != nil {
		price = sum.DexPriceUSD
	}
	liquidity := sum.LiquidityUSD
	if liquidity == nil && sum.DexLiquidityUSD > 0 {
		v := sum.DexLiquidityUSD
		liquidity = &v
	}
	volume := sum.Volume24hUSD
	if sum.VolumeH24 != nil {
		volume = sum.VolumeH24
	}

	return &domain.TokenSnapshot{
		RunID:              runID,
		Mint:               sum.Mint,
		Pair:               sum.Pair,
		Symbol:             symbol,
		PriceUSD:           price,
		LiquidityUSD:       liquidity,
		MarketCapUSD:       sum.MarketCapUSD,
		FDV:                sum.FDV,
		Volume24hUSD:       volume,
		NoMint:             sum.NoMint,
		FreezeAuthority:    sum.FreezeAuthority,
		MutableMetadata:    boolOf(sum.MutableMetadata),
		NonTransferable:    boolOf(sum.NonTransferable),
		TransferFee:        boolOf(sum.TransferFeeEnable),
		BurntPercent:       sum.BurntPercent,
		Top1HolderPercent:  sum.Top1HolderPercent,
		Top5HolderPercent:  sum.Top5HolderPercent,
		Top10HolderPercent: sum.Top10HolderPercent,
		CapturedAt:         sum.FetchedAt,
	}
}

func boolOf(p *bool) bool {
	return p != nil && *p
}
