package summary

import (
	"context"
	"errors"
	"testing"

	"memecoin-lab/internal/birdeye"
	"memecoin-lab/internal/dexscreener"
	"memecoin-lab/internal/solana"
)

type fakeChain struct {
	mint    *solana.MintInfo
	supply  *solana.TokenAmount
	holders []solana.TokenHolder
	err     error
}

func (f *fakeChain) GetMintInfo(ctx context.Context, mint string) (*solana.MintInfo, error) {
	return f.mint, f.err
}

func (f *fakeChain) GetTokenSupply(ctx context.Context, mint string) (*solana.TokenAmount, error) {
	return f.supply, f.err
}

func (f *fakeChain) GetTokenLargestAccounts(ctx context.Context, mint string) ([]solana.TokenHolder, error) {
	return f.holders, f.err
}

type fakeSecurity struct {
	security *birdeye.TokenSecurity
	overview *birdeye.PairOverview
	err      error
}

func (f *fakeSecurity) Security(ctx context.Context, mint string) (*birdeye.TokenSecurity, error) {
	return f.security, f.err
}

func (f *fakeSecurity) PairOverview(ctx context.Context, pair string) (*birdeye.PairOverview, error) {
	if f.overview == nil {
		return nil, errors.New("no overview")
	}
	return f.overview, nil
}

type fakeMarket struct {
	pair *dexscreener.Pair
}

func (f *fakeMarket) MainPair(ctx context.Context, mint, pairAddress string) (*dexscreener.Pair, error) {
	if f.pair == nil {
		return nil, dexscreener.ErrPairNotFound
	}
	return f.pair, nil
}

func fptr(v float64) *float64 { return &v }

func iptr(v int64) *int64 { return &v }

func sptr(v string) *string { return &v }

func holder(address string, amount float64) solana.TokenHolder {
	return solana.TokenHolder{
		Address: address,
		Amount:  solana.TokenAmount{Decimals: 6, UIAmount: fptr(amount)},
	}
}

func testChain() *fakeChain {
	freeze := "FrzAuth1111111111111111111111111111111111111"
	return &fakeChain{
		mint:   &solana.MintInfo{FreezeAuthority: &freeze, Decimals: 6, Supply: "1000000000"},
		supply: &solana.TokenAmount{Decimals: 6, UIAmount: fptr(1000)},
		holders: []solana.TokenHolder{
			holder("holderA11111111111111111111111111111111111", 300),
			holder("holderB11111111111111111111111111111111111", 200),
			holder("1nc1nerator11111111111111111111111111111111", 100),
			holder("holderC11111111111111111111111111111111111", 50),
			holder("holderD11111111111111111111111111111111111", 40),
			holder("holderE11111111111111111111111111111111111", 30),
			holder("holderF11111111111111111111111111111111111", 20),
		},
	}
}

func testMarket() *fakeMarket {
	return &fakeMarket{
		pair: &dexscreener.Pair{
			PairAddress: "pairAAAA",
			PriceUSD:    0.0015,
			Liquidity:   &dexscreener.Liquidity{USD: 50000, Base: fptr(1000000)},
			FDV:         200000,
			MarketCap:   fptr(180000),
			Volume: dexscreener.Windows{
				H24: fptr(75000),
			},
			Txns: dexscreener.TxnWindows{
				H24: &dexscreener.TxnCounts{Buys: 120, Sells: 80},
			},
			Info: &dexscreener.PairInfo{
				Socials: []dexscreener.Link{{Type: "twitter", URL: "https://x.com/token"}},
			},
		},
	}
}

func TestService_Summarize(t *testing.T) {
	mintTime := int64(1755000000)
	sec := &fakeSecurity{
		security: &birdeye.TokenSecurity{
			CreatorAddress:     sptr("creator111"),
			CreatorBalance:     50,
			CreatorPercentage:  0.05,
			CreationTime:       iptr(mintTime),
			TotalSupply:        1000,
			Top10HolderBalance: 700,
			Top10HolderPercent: 0.7,
			PreMarketHolder:    []string{"a", "b"},
		},
		overview: &birdeye.PairOverview{
			Address:   "pairAAAA",
			Liquidity: fptr(48000),
			Price:     fptr(0.0014),
			Volume24h: fptr(70000),
		},
	}

	svc := NewService(testChain(), sec, testMarket())

	sum, err := svc.Summarize(context.Background(), "mintAAAA", "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if sum.Pair != "pairAAAA" {
		t.Errorf("pair = %q, want resolved from dexscreener", sum.Pair)
	}
	if !sum.NoMint {
		t.Error("expected NoMint with revoked mint authority")
	}
	if !sum.FreezeAuthority {
		t.Error("expected freeze authority present")
	}
	if sum.BurntPercent != 10 {
		t.Errorf("BurntPercent = %v, want 10", sum.BurntPercent)
	}
	if sum.Top1HolderPercent != 30 {
		t.Errorf("Top1HolderPercent = %v, want 30", sum.Top1HolderPercent)
	}
	// Top five holders excluding the burn wallet: 300+200+50+40+30.
	if sum.Top5HolderPercent != 62 {
		t.Errorf("Top5HolderPercent = %v, want 62", sum.Top5HolderPercent)
	}
	// (1000 - 700 - 50) / 1000 * 100.
	if sum.TopHoldersPercent != 25 {
		t.Errorf("TopHoldersPercent = %v, want 25", sum.TopHoldersPercent)
	}
	if sum.Top10HolderPercent != 70 {
		t.Errorf("Top10HolderPercent = %v, want 70", sum.Top10HolderPercent)
	}
	if sum.CreatorPercentage != 0.05 {
		t.Errorf("CreatorPercentage = %v, want 0.05", sum.CreatorPercentage)
	}
	if sum.CreationTime == nil || *sum.CreationTime != mintTime*1000 {
		t.Errorf("CreationTime = %v, want %d", sum.CreationTime, mintTime*1000)
	}
	if sum.PreMarketHolders != 2 {
		t.Errorf("PreMarketHolders = %d, want 2", sum.PreMarketHolders)
	}
	if sum.LiquidityUSD == nil || *sum.LiquidityUSD != 48000 {
		t.Errorf("LiquidityUSD = %v", sum.LiquidityUSD)
	}
	if sum.DexPriceUSD == nil || *sum.DexPriceUSD != 0.0015 {
		t.Errorf("DexPriceUSD = %v", sum.DexPriceUSD)
	}
	if sum.DexLiquidityUSD != 50000 {
		t.Errorf("DexLiquidityUSD = %v", sum.DexLiquidityUSD)
	}
	// 50000 / 200000 * 100.
	if sum.LiqFDVRatioPct == nil || *sum.LiqFDVRatioPct != 25 {
		t.Errorf("LiqFDVRatioPct = %v, want 25", sum.LiqFDVRatioPct)
	}
	if sum.TxnsH24 == nil || sum.TxnsH24.Buys != 120 || sum.TxnsH24.Sells != 80 {
		t.Errorf("TxnsH24 = %+v", sum.TxnsH24)
	}
	if len(sum.Socials) != 1 || sum.Socials[0].Type != "twitter" {
		t.Errorf("Socials = %+v", sum.Socials)
	}
	if sum.FetchedAt == 0 {
		t.Error("FetchedAt not set")
	}
}

func TestService_Summarize_NoDexPair(t *testing.T) {
	sec := &fakeSecurity{security: &birdeye.TokenSecurity{TotalSupply: 1000}}
	svc := NewService(testChain(), sec, &fakeMarket{})

	sum, err := svc.Summarize(context.Background(), "mintAAAA", "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if sum.Pair != "" {
		t.Errorf("pair = %q, want empty", sum.Pair)
	}
	if sum.LiqFDVRatioPct != nil {
		t.Errorf("LiqFDVRatioPct = %v, want nil", sum.LiqFDVRatioPct)
	}
	if sum.DexPriceUSD != nil {
		t.Errorf("DexPriceUSD = %v, want nil", sum.DexPriceUSD)
	}
}

func TestService_Summarize_MintNotFound(t *testing.T) {
	chain := testChain()
	chain.mint = nil
	svc := NewService(chain, &fakeSecurity{security: &birdeye.TokenSecurity{}}, &fakeMarket{})

	_, err := svc.Summarize(context.Background(), "missing", "")
	if !errors.Is(err, ErrMintNotFound) {
		t.Errorf("expected ErrMintNotFound, got %v", err)
	}
}

func TestService_Status(t *testing.T) {
	svc := NewService(testChain(), &fakeSecurity{}, testMarket())

	status, err := svc.Status(context.Background(), "mintAAAA", "")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if !status.NoMint {
		t.Error("expected NoMint")
	}
	if !status.FreezeAuthority {
		t.Error("expected FreezeAuthority")
	}
	if !status.DEXPaid {
		t.Error("expected DEXPaid with reported liquidity")
	}
	if status.BurntPercent != 10 {
		t.Errorf("BurntPercent = %v", status.BurntPercent)
	}
	if status.LiquidityUSD == nil || *status.LiquidityUSD != 50000 {
		t.Errorf("LiquidityUSD = %v", status.LiquidityUSD)
	}
	if status.PriceUSD == nil || *status.PriceUSD != 0.0015 {
		t.Errorf("PriceUSD = %v", status.PriceUSD)
	}
	if status.Volume24hUSD == nil || *status.Volume24hUSD != 75000 {
		t.Errorf("Volume24hUSD = %v", status.Volume24hUSD)
	}
}

func TestService_Status_NoPair(t *testing.T) {
	svc := NewService(testChain(), &fakeSecurity{}, &fakeMarket{})

	status, err := svc.Status(context.Background(), "mintAAAA", "")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if status.DEXPaid {
		t.Error("expected DEXPaid false without a pair")
	}
	if status.LiquidityUSD != nil {
		t.Errorf("LiquidityUSD = %v, want nil", status.LiquidityUSD)
	}
}

func TestHolderMetrics_ZeroSupply(t *testing.T) {
	burnt, top1, top5 := holderMetrics(0, []solana.TokenHolder{holder("a", 10)})
	if burnt != 0 || top1 != 0 || top5 != 0 {
		t.Errorf("got %v %v %v, want zeros", burnt, top1, top5)
	}
}
