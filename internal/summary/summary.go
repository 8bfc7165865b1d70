// Package summary aggregates on-chain, Birdeye and Dexscreener views of a
// token pair into a single record and a condensed safety status.
package summary

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"memecoin-lab/internal/birdeye"
	"memecoin-lab/internal/dexscreener"
	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/solana"
)

// ErrMintNotFound is returned when the mint account does not exist on chain.
var ErrMintNotFound = fmt.Errorf("mint not found")

// ChainClient reads token state from Solana RPC.
type ChainClient interface {
	GetMintInfo(ctx context.Context, mint string) (*solana.MintInfo, error)
	GetTokenSupply(ctx context.Context, mint string) (*solana.TokenAmount, error)
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]solana.TokenHolder, error)
}

// SecurityClient reads token security and pair overview data from Birdeye.
type SecurityClient interface {
	Security(ctx context.Context, mint string) (*birdeye.TokenSecurity, error)
	PairOverview(ctx context.Context, pair string) (*birdeye.PairOverview, error)
}

// MarketClient reads pair listings from Dexscreener.
type MarketClient interface {
	MainPair(ctx context.Context, mint, pairAddress string) (*dexscreener.Pair, error)
}

// Service builds token summaries and safety statuses.
type Service struct {
	chain    ChainClient
	security SecurityClient
	market   MarketClient
	logger   zerolog.Logger
}

// NewService creates a summary service.
func NewService(chain ChainClient, security SecurityClient, market MarketClient) *Service {
	return &Service{
		chain:    chain,
		security: security,
		market:   market,
		logger:   log.With("summary"),
	}
}

// Summarize fetches all sources for one token and combines them. When pair
// is empty the main Dexscreener pair for the mint is used. A missing
// Dexscreener listing leaves the Dexscreener fields zero; a Birdeye pair
// overview failure leaves its fields nil.
func (s *Service) Summarize(ctx context.Context, mint, pair string) (*domain.TokenSummary, error) {
	dexPair, err := s.market.MainPair(ctx, mint, pair)
	if err != nil {
		if !errors.Is(err, dexscreener.ErrPairNotFound) {
			return nil, fmt.Errorf("dexscreener pair: %w", err)
		}
		s.logger.Debug().Str("mint", mint).Msg("no dexscreener pair")
		dexPair = nil
	}
	if pair == "" && dexPair != nil {
		pair = dexPair.PairAddress
	}

	var (
		mintInfo *solana.MintInfo
		supply   *solana.TokenAmount
		holders  []solana.TokenHolder
		security *birdeye.TokenSecurity
		overview *birdeye.PairOverview
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mintInfo, err = s.chain.GetMintInfo(gctx, mint)
		if err != nil {
			return fmt.Errorf("mint info: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		supply, err = s.chain.GetTokenSupply(gctx, mint)
		if err != nil {
			return fmt.Errorf("token supply: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		holders, err = s.chain.GetTokenLargestAccounts(gctx, mint)
		if err != nil {
			return fmt.Errorf("largest accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		security, err = s.security.Security(gctx, mint)
		if err != nil {
			return fmt.Errorf("token security: %w", err)
		}
		return nil
	})
	if pair != "" {
		g.Go(func() error {
			var err error
			overview, err = s.security.PairOverview(gctx, pair)
			if err != nil {
				s.logger.Warn().Err(err).Str("pair", pair).Msg("pair overview unavailable")
				overview = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if mintInfo == nil {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}

	supplyUI := uiAmount(supply)
	burntPct, top1, top5 := holderMetrics(supplyUI, holders)

	sum := &domain.TokenSummary{
		Mint: mint,
		Pair: pair,

		NoMint:            !mintInfo.Mintable(),
		FreezeAuthority:   mintInfo.Freezable(),
		Supply:            supplyUI,
		BurntPercent:      burntPct,
		Top1HolderPercent: top1,
		Top5HolderPercent: top5,

		FetchedAt: time.Now().UnixMilli(),
	}

	if security != nil {
		sum.TopHoldersPercent = round2(security.TopHoldersPercent())
		sum.CreatorAddress = security.CreatorAddress
		sum.CreationTx = security.CreationTx
		sum.CreationTime = secondsToMs(security.CreationTime)
		sum.MintTx = security.MintTx
		sum.MintTime = secondsToMs(security.MintTime)
		sum.TotalSupply = security.TotalSupply
		sum.MutableMetadata = security.MutableMetadata
		// Birdeye reports holder shares as fractions. The creator share
		// stays as reported.
		sum.Top10HolderPercent = round2(security.Top10HolderPercent * 100)
		sum.CreatorPercentage = security.CreatorPercentage
		sum.NonTransferable = security.NonTransferable
		sum.FakeToken = security.FakeToken
		sum.IsTrueToken = security.IsTrueToken
		sum.PreMarketHolders = len(security.PreMarketHolder)
		sum.TransferFeeEnable = security.TransferFeeEnable
	}

	if overview != nil {
		sum.LiquidityUSD = overview.Liquidity
		sum.PriceUSD = overview.Price
		sum.Volume24hUSD = overview.Volume24h
		sum.UniqueWallets24h = overview.UniqueWallet24h
	}

	if dexPair != nil {
		applyDexPair(sum, dexPair)
	}

	return sum, nil
}

// Status fetches the minimal go/no-go view of a token: on-chain mint state,
// holder concentration and the main Dexscreener pair.
func (s *Service) Status(ctx context.Context, mint, pair string) (*domain.SafetyStatus, error) {
	var (
		mintInfo *solana.MintInfo
		supply   *solana.TokenAmount
		holders  []solana.TokenHolder
		dexPair  *dexscreener.Pair
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mintInfo, err = s.chain.GetMintInfo(gctx, mint)
		if err != nil {
			return fmt.Errorf("mint info: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		supply, err = s.chain.GetTokenSupply(gctx, mint)
		if err != nil {
			return fmt.Errorf("token supply: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		holders, err = s.chain.GetTokenLargestAccounts(gctx, mint)
		if err != nil {
			return fmt.Errorf("largest accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dexPair, err = s.market.MainPair(gctx, mint, pair)
		if errors.Is(err, dexscreener.ErrPairNotFound) {
			dexPair = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("dexscreener pair: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if mintInfo == nil {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}

	supplyUI := uiAmount(supply)
	burntPct, top1, top5 := holderMetrics(supplyUI, holders)

	status := &domain.SafetyStatus{
		NoMint:            !mintInfo.Mintable(),
		BurntPercent:      burntPct,
		FreezeAuthority:   mintInfo.Freezable(),
		Top1HolderPercent: top1,
		Top5HolderPercent: top5,
	}

	if dexPair != nil && dexPair.Liquidity != nil {
		status.DEXPaid = true
		liq := dexPair.Liquidity.USD
		status.LiquidityUSD = &liq
		price := float64(dexPair.PriceUSD)
		status.PriceUSD = &price
		status.Volume24hUSD = dexPair.Volume.H24
	}

	return status, nil
}

func applyDexPair(sum *domain.TokenSummary, p *dexscreener.Pair) {
	price := float64(p.PriceUSD)
	sum.DexPriceUSD = &price
	if p.Liquidity != nil {
		sum.DexLiquidityUSD = p.Liquidity.USD
		sum.DexLiquidityBase = p.Liquidity.Base
		sum.DexLiquidityQuote = p.Liquidity.Quote
	}
	sum.FDV = p.FDV
	sum.MarketCapUSD = p.MarketCap
	if p.FDV > 0 && p.Liquidity != nil {
		ratio := round2(p.Liquidity.USD / p.FDV * 100)
		sum.LiqFDVRatioPct = &ratio
	}
	sum.PairCreatedAt = p.PairCreatedAt
	sum.VolumeM5 = p.Volume.M5
	sum.VolumeH1 = p.Volume.H1
	sum.VolumeH6 = p.Volume.H6
	sum.VolumeH24 = p.Volume.H24
	sum.TxnsM5 = p.Txns.M5.ToDomain()
	sum.TxnsH1 = p.Txns.H1.ToDomain()
	sum.TxnsH6 = p.Txns.H6.ToDomain()
	sum.TxnsH24 = p.Txns.H24.ToDomain()
	sum.PriceChangeH6 = p.PriceChange.H6
	sum.PriceChangeH24 = p.PriceChange.H24
	if p.Info != nil {
		for _, l := range p.Info.Socials {
			sum.Socials = append(sum.Socials, l.ToDomain())
		}
		for _, l := range p.Info.Websites {
			sum.Websites = append(sum.Websites, l.ToDomain())
		}
	}
}

// holderMetrics derives burnt supply and holder concentration from the
// largest token accounts. Burn wallet balances are excluded from the
// concentration figures. Holders arrive sorted by balance descending.
func holderMetrics(supplyUI float64, holders []solana.TokenHolder) (burntPct, top1, top5 float64) {
	if supplyUI <= 0 {
		return 0, 0, 0
	}

	var burnt float64
	var ranked []float64
	for _, h := range holders {
		amount := uiAmount(&h.Amount)
		if domain.BurnWallets[h.Address] {
			burnt += amount
			continue
		}
		ranked = append(ranked, amount)
	}

	var top1Sum, top5Sum float64
	for i, amount := range ranked {
		if i == 0 {
			top1Sum = amount
		}
		if i < 5 {
			top5Sum += amount
		}
	}

	burntPct = round2(burnt / supplyUI * 100)
	top1 = round2(top1Sum / supplyUI * 100)
	top5 = round2(top5Sum / supplyUI * 100)
	return burntPct, top1, top5
}

func uiAmount(a *solana.TokenAmount) float64 {
	if a == nil || a.UIAmount == nil {
		return 0
	}
	return *a.UIAmount
}

func secondsToMs(p *int64) *int64 {
	if p == nil {
		return nil
	}
	ms := *p * 1000
	return &ms
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
