// Package wallet analyzes the trading history of a Solana wallet: per-token
// profit and loss, the social footprint of the tokens traded and the track
// record of their developers.
package wallet

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"memecoin-lab/internal/birdeye"
	"memecoin-lab/internal/dexscreener"
	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
)

// DefaultMaxTrades caps how many recent trades one analysis covers.
const DefaultMaxTrades = 400

// metaWorkers bounds concurrent per-token security lookups.
const metaWorkers = 4

// PortfolioClient reads wallet holdings, trades and token security from
// Birdeye.
type PortfolioClient interface {
	WalletOverview(ctx context.Context, address string) (*domain.WalletOverview, error)
	WalletTrades(ctx context.Context, address string, max int) ([]domain.WalletTrade, error)
	Security(ctx context.Context, mint string) (*birdeye.TokenSecurity, error)
}

// MarketClient reads token pair listings from Dexscreener. Listings for a
// whole portfolio are fetched as one rate-limited batch.
type MarketClient interface {
	TokenPairsBatch(ctx context.Context, mints []string) (map[string][]dexscreener.Pair, error)
}

// AgeClient estimates wallet ages from on-chain transfer history.
type AgeClient interface {
	WalletAges(ctx context.Context, addresses []string) (map[string]int, error)
}

// PoolCounter reports how many liquidity pools each creator address has
// initialized. Optional: when absent, developer proficiency analysis is
// skipped and every token counts as having an unknown developer.
type PoolCounter interface {
	CreatedPoolCounts(ctx context.Context, creators []string) (map[string]int, error)
}

// TokenPnL is the realized profit and loss of one token traded by a wallet,
// together with the token's social footprint and developer.
type TokenPnL struct {
	Mint   string
	Symbol string
	Trades int

	TotalBoughtAmount float64
	TotalSoldAmount   float64
	BuyCostUSD        float64
	SellProceedsUSD   float64
	AvgBuyPriceUSD    float64
	AvgSellPriceUSD   float64

	NetProfitUSD         float64
	NetProfitPercent     float64
	AvgProfitPerTradeUSD float64

	FirstTradeAt int64 // Unix ms
	LastTradeAt  int64 // Unix ms

	HasWebsite bool
	HasTwitter bool
	Socials    []string // social types present on the listing

	DeveloperAddress string
	DevTokensCreated int
	DevTokensUnknown bool
}

// HasSocial reports whether the token listing carried any social link.
func (t *TokenPnL) HasSocial() bool {
	return len(t.Socials) > 0
}

// SocialStats aggregates token social presence and its relation to PnL.
type SocialStats struct {
	WithSocials  int
	WithWebsites int
	ByType       map[string]int

	AvgPnLNoSocialsUSD         float64
	AvgPnLWithAnySocialUSD     float64
	AvgPnLWebsiteOnlyUSD       float64
	AvgPnLWebsiteAndTwitterUSD float64
	AvgPnLTwitterOnlyUSD       float64
}

// DevStats aggregates developer proficiency and its relation to PnL. The
// 1-5 bucket includes single-token developers.
type DevStats struct {
	UniqueDevelopers int
	TokensWithoutDev int
	AvgTokensPerDev  float64

	DevsWith1Token int
	DevsWith1To5   int
	DevsWith5To10  int
	DevsAbove10    int

	AvgPnL1TokenUSD  float64
	AvgPnL1To5USD    float64
	AvgPnL5To10USD   float64
	AvgPnLAbove10USD float64
}

// Report is a full wallet analysis.
type Report struct {
	Overview       domain.WalletOverview
	TradesAnalyzed int
	Tokens         []TokenPnL

	TotalPnLUSD      float64
	AvgPnLPerCoinUSD float64
	BestToken        string
	BestPnLUSD       float64
	WorstToken       string
	WorstPnLUSD      float64

	Socials SocialStats
	Devs    DevStats
}

// Service builds wallet analysis reports.
type Service struct {
	portfolio PortfolioClient
	market    MarketClient
	ages      AgeClient
	pools     PoolCounter
	logger    zerolog.Logger
}

// NewService creates a wallet analytics service. pools may be nil.
func NewService(portfolio PortfolioClient, market MarketClient, ages AgeClient, pools PoolCounter) *Service {
	return &Service{
		portfolio: portfolio,
		market:    market,
		ages:      ages,
		pools:     pools,
		logger:    log.With("wallet"),
	}
}

// Analyze fetches the wallet's recent trades and derives the full report.
// maxTrades defaults to DefaultMaxTrades.
func (s *Service) Analyze(ctx context.Context, address string, maxTrades int) (*Report, error) {
	if maxTrades <= 0 {
		maxTrades = DefaultMaxTrades
	}

	overview, err := s.portfolio.WalletOverview(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("wallet overview: %w", err)
	}

	trades, err := s.portfolio.WalletTrades(ctx, address, maxTrades)
	if err != nil {
		return nil, fmt.Errorf("wallet trades: %w", err)
	}

	tokens := tokenPnLs(trades)
	if err := s.attachTokenMeta(ctx, tokens); err != nil {
		return nil, err
	}
	if err := s.attachDevCounts(ctx, tokens); err != nil {
		return nil, err
	}

	report := &Report{
		Overview:       *overview,
		TradesAnalyzed: len(trades),
		Tokens:         tokens,
	}
	fillAggregates(report)
	return report, nil
}

// Ages estimates ages for a set of wallet addresses.
func (s *Service) Ages(ctx context.Context, addresses []string) ([]domain.WalletAge, error) {
	raw, err := s.ages.WalletAges(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("wallet ages: %w", err)
	}

	now := time.Now().UnixMilli()
	ages := make([]domain.WalletAge, 0, len(addresses))
	for _, addr := range addresses {
		age := domain.WalletAge{Address: addr, AgeDays: -1, FetchedAt: now}
		if days, ok := raw[addr]; ok && days >= 0 {
			age.AgeDays = int64(days)
			first := now - int64(days)*24*int64(time.Hour/time.Millisecond)
			age.FirstSeen = &first
		}
		ages = append(ages, age)
	}
	return ages, nil
}

// tokenPnLs groups trades by mint and computes realized PnL per token.
func tokenPnLs(trades []domain.WalletTrade) []TokenPnL {
	byMint := make(map[string]*TokenPnL)
	var order []string

	for _, tr := range trades {
		t, ok := byMint[tr.Mint]
		if !ok {
			t = &TokenPnL{Mint: tr.Mint, Symbol: tr.Symbol, FirstTradeAt: tr.BlockTime}
			byMint[tr.Mint] = t
			order = append(order, tr.Mint)
		}
		t.Trades++
		if tr.BlockTime < t.FirstTradeAt {
			t.FirstTradeAt = tr.BlockTime
		}
		if tr.BlockTime > t.LastTradeAt {
			t.LastTradeAt = tr.BlockTime
		}
		switch tr.Side {
		case domain.SideBuy:
			t.TotalBoughtAmount += tr.Amount
			t.BuyCostUSD += tr.AmountUSD
		case domain.SideSell:
			t.TotalSoldAmount += tr.Amount
			t.SellProceedsUSD += tr.AmountUSD
		}
	}

	tokens := make([]TokenPnL, 0, len(order))
	for _, mint := range order {
		t := byMint[mint]
		t.NetProfitUSD = t.SellProceedsUSD - t.BuyCostUSD
		if t.BuyCostUSD > 0 {
			t.NetProfitPercent = t.NetProfitUSD / t.BuyCostUSD * 100
		}
		if t.Trades > 0 {
			t.AvgProfitPerTradeUSD = t.NetProfitUSD / float64(t.Trades)
		}
		if t.TotalBoughtAmount > 0 {
			t.AvgBuyPriceUSD = t.BuyCostUSD / t.TotalBoughtAmount
		}
		if t.TotalSoldAmount > 0 {
			t.AvgSellPriceUSD = t.SellProceedsUSD / t.TotalSoldAmount
		}
		tokens = append(tokens, *t)
	}
	return tokens
}

// attachTokenMeta fills social links and developer addresses from the pair
// listing and token security data. Lookup failures leave the fields empty.
func (s *Service) attachTokenMeta(ctx context.Context, tokens []TokenPnL) error {
	mints := make([]string, 0, len(tokens))
	for _, t := range tokens {
		mints = append(mints, t.Mint)
	}
	pairsByMint, err := s.market.TokenPairsBatch(ctx, mints)
	if err != nil {
		s.logger.Debug().Err(err).Msg("token pairs unavailable")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metaWorkers)
	var mu sync.Mutex

	for i := range tokens {
		i := i
		g.Go(func() error {
			mint := tokens[i].Mint

			pairs := pairsByMint[mint]
			sec, err := s.portfolio.Security(gctx, mint)
			if err != nil {
				s.logger.Debug().Err(err).Str("mint", mint).Msg("token security unavailable")
			}

			mu.Lock()
			defer mu.Unlock()
			if len(pairs) > 0 && pairs[0].Info != nil {
				for _, l := range pairs[0].Info.Websites {
					if strings.TrimSpace(l.URL) != "" {
						tokens[i].HasWebsite = true
						break
					}
				}
				for _, l := range pairs[0].Info.Socials {
					kind := strings.ToLower(l.ToDomain().Type)
					if kind == "" || strings.TrimSpace(l.URL) == "" {
						continue
					}
					tokens[i].Socials = append(tokens[i].Socials, kind)
					if kind == "twitter" {
						tokens[i].HasTwitter = true
					}
				}
			}
			if sec != nil && sec.CreatorAddress != nil {
				tokens[i].DeveloperAddress = *sec.CreatorAddress
			}
			return nil
		})
	}
	return g.Wait()
}

// attachDevCounts fills developer pool creation counts. Tokens whose
// developer is unknown, or all tokens when no counter is configured, are
// marked unknown and excluded from the proficiency aggregates.
func (s *Service) attachDevCounts(ctx context.Context, tokens []TokenPnL) error {
	var creators []string
	seen := make(map[string]bool)
	for _, t := range tokens {
		if t.DeveloperAddress != "" && !seen[t.DeveloperAddress] {
			seen[t.DeveloperAddress] = true
			creators = append(creators, t.DeveloperAddress)
		}
	}

	if s.pools == nil || len(creators) == 0 {
		for i := range tokens {
			tokens[i].DevTokensUnknown = true
		}
		return nil
	}

	counts, err := s.pools.CreatedPoolCounts(ctx, creators)
	if err != nil {
		return fmt.Errorf("created pool counts: %w", err)
	}
	for i := range tokens {
		n, ok := counts[tokens[i].DeveloperAddress]
		if tokens[i].DeveloperAddress == "" || !ok {
			tokens[i].DevTokensUnknown = true
			continue
		}
		tokens[i].DevTokensCreated = n
	}
	return nil
}

func fillAggregates(r *Report) {
	if len(r.Tokens) == 0 {
		return
	}

	best := 0
	worst := 0
	for i, t := range r.Tokens {
		r.TotalPnLUSD += t.NetProfitUSD
		if t.NetProfitUSD > r.Tokens[best].NetProfitUSD {
			best = i
		}
		if t.NetProfitUSD < r.Tokens[worst].NetProfitUSD {
			worst = i
		}
	}
	r.AvgPnLPerCoinUSD = r.TotalPnLUSD / float64(len(r.Tokens))
	r.BestToken = r.Tokens[best].Symbol
	r.BestPnLUSD = r.Tokens[best].NetProfitUSD
	r.WorstToken = r.Tokens[worst].Symbol
	r.WorstPnLUSD = r.Tokens[worst].NetProfitUSD

	r.Socials = socialStats(r.Tokens)
	r.Devs = devStats(r.Tokens)
}

func socialStats(tokens []TokenPnL) SocialStats {
	stats := SocialStats{ByType: make(map[string]int)}

	var (
		noSocials         []float64
		withAny           []float64
		websiteOnly       []float64
		websiteAndTwitter []float64
		twitterOnly       []float64
	)

	for _, t := range tokens {
		if t.HasSocial() {
			stats.WithSocials++
		}
		if t.HasWebsite {
			stats.WithWebsites++
		}
		counted := make(map[string]bool)
		for _, kind := range t.Socials {
			if !counted[kind] {
				counted[kind] = true
				stats.ByType[kind]++
			}
		}

		switch {
		case !t.HasWebsite && !t.HasSocial():
			noSocials = append(noSocials, t.NetProfitUSD)
		default:
			withAny = append(withAny, t.NetProfitUSD)
		}
		if t.HasWebsite && !t.HasSocial() {
			websiteOnly = append(websiteOnly, t.NetProfitUSD)
		}
		if t.HasWebsite && t.HasTwitter {
			websiteAndTwitter = append(websiteAndTwitter, t.NetProfitUSD)
		}
		if !t.HasWebsite && t.HasTwitter && len(t.Socials) == 1 {
			twitterOnly = append(twitterOnly, t.NetProfitUSD)
		}
	}

	stats.AvgPnLNoSocialsUSD = mean(noSocials)
	stats.AvgPnLWithAnySocialUSD = mean(withAny)
	stats.AvgPnLWebsiteOnlyUSD = mean(websiteOnly)
	stats.AvgPnLWebsiteAndTwitterUSD = mean(websiteAndTwitter)
	stats.AvgPnLTwitterOnlyUSD = mean(twitterOnly)
	return stats
}

func devStats(tokens []TokenPnL) DevStats {
	var stats DevStats

	devs := make(map[string]int)
	var known []TokenPnL
	for _, t := range tokens {
		if t.DevTokensUnknown {
			stats.TokensWithoutDev++
			continue
		}
		known = append(known, t)
		devs[t.DeveloperAddress] = t.DevTokensCreated
	}
	stats.UniqueDevelopers = len(devs)
	if len(devs) > 0 {
		total := 0
		for _, n := range devs {
			total += n
		}
		stats.AvgTokensPerDev = float64(total) / float64(len(devs))
	}

	var pnl1, pnl1to5, pnl5to10, pnlAbove10 []float64
	for _, t := range known {
		// The 1-5 bucket includes single-token developers.
		if t.DevTokensCreated == 1 {
			stats.DevsWith1Token++
			pnl1 = append(pnl1, t.NetProfitUSD)
		}
		switch {
		case t.DevTokensCreated <= 5:
			stats.DevsWith1To5++
			pnl1to5 = append(pnl1to5, t.NetProfitUSD)
		case t.DevTokensCreated <= 10:
			stats.DevsWith5To10++
			pnl5to10 = append(pnl5to10, t.NetProfitUSD)
		default:
			stats.DevsAbove10++
			pnlAbove10 = append(pnlAbove10, t.NetProfitUSD)
		}
	}

	stats.AvgPnL1TokenUSD = mean(pnl1)
	stats.AvgPnL1To5USD = mean(pnl1to5)
	stats.AvgPnL5To10USD = mean(pnl5to10)
	stats.AvgPnLAbove10USD = mean(pnlAbove10)
	return stats
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SortByPnL orders tokens by net profit descending.
func SortByPnL(tokens []TokenPnL) {
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].NetProfitUSD > tokens[j].NetProfitUSD
	})
}
