package wallet

import (
	"context"
	"testing"

	"memecoin-lab/internal/birdeye"
	"memecoin-lab/internal/dexscreener"
	"memecoin-lab/internal/domain"
)

type fakePortfolio struct {
	overview *domain.WalletOverview
	trades   []domain.WalletTrade
	security map[string]*birdeye.TokenSecurity
}

func (f *fakePortfolio) WalletOverview(ctx context.Context, address string) (*domain.WalletOverview, error) {
	return f.overview, nil
}

func (f *fakePortfolio) WalletTrades(ctx context.Context, address string, max int) ([]domain.WalletTrade, error) {
	if max < len(f.trades) {
		return f.trades[:max], nil
	}
	return f.trades, nil
}

func (f *fakePortfolio) Security(ctx context.Context, mint string) (*birdeye.TokenSecurity, error) {
	if sec, ok := f.security[mint]; ok {
		return sec, nil
	}
	return &birdeye.TokenSecurity{}, nil
}

type fakeMarket struct {
	pairs   map[string][]dexscreener.Pair
	batches [][]string
}

func (f *fakeMarket) TokenPairsBatch(ctx context.Context, mints []string) (map[string][]dexscreener.Pair, error) {
	f.batches = append(f.batches, mints)
	out := make(map[string][]dexscreener.Pair)
	for _, mint := range mints {
		if pairs, ok := f.pairs[mint]; ok {
			out[mint] = pairs
		}
	}
	return out, nil
}

type fakeAges struct {
	ages map[string]int
}

func (f *fakeAges) WalletAges(ctx context.Context, addresses []string) (map[string]int, error) {
	return f.ages, nil
}

type fakePools struct {
	counts map[string]int
}

func (f *fakePools) CreatedPoolCounts(ctx context.Context, creators []string) (map[string]int, error) {
	return f.counts, nil
}

func sptr(v string) *string { return &v }

func pairWithInfo(websites, socials []dexscreener.Link) []dexscreener.Pair {
	return []dexscreener.Pair{{
		PairAddress: "pair",
		Info:        &dexscreener.PairInfo{Websites: websites, Socials: socials},
	}}
}

func testPortfolio() *fakePortfolio {
	return &fakePortfolio{
		overview: &domain.WalletOverview{Address: "wallet1", NetWorthUSD: 12500},
		trades: []domain.WalletTrade{
			{Mint: "mintA", Symbol: "AAA", Side: domain.SideBuy, Amount: 1000, AmountUSD: 100, BlockTime: 1000},
			{Mint: "mintA", Symbol: "AAA", Side: domain.SideSell, Amount: 1000, AmountUSD: 250, BlockTime: 2000},
			{Mint: "mintB", Symbol: "BBB", Side: domain.SideBuy, Amount: 500, AmountUSD: 200, BlockTime: 1500},
			{Mint: "mintB", Symbol: "BBB", Side: domain.SideSell, Amount: 500, AmountUSD: 50, BlockTime: 2500},
			{Mint: "mintC", Symbol: "CCC", Side: domain.SideBuy, Amount: 100, AmountUSD: 80, BlockTime: 3000},
		},
		security: map[string]*birdeye.TokenSecurity{
			"mintA": {CreatorAddress: sptr("dev1")},
			"mintB": {CreatorAddress: sptr("dev2")},
			"mintC": {CreatorAddress: sptr("dev1")},
		},
	}
}

func testMarket() *fakeMarket {
	return &fakeMarket{
		pairs: map[string][]dexscreener.Pair{
			"mintA": pairWithInfo(
				[]dexscreener.Link{{Label: "Website", URL: "https://aaa.example"}},
				[]dexscreener.Link{{Type: "twitter", URL: "https://x.com/aaa"}},
			),
			"mintB": pairWithInfo(nil, []dexscreener.Link{
				{Type: "telegram", URL: "https://t.me/bbb"},
			}),
		},
	}
}

func TestService_Analyze_PnL(t *testing.T) {
	svc := NewService(testPortfolio(), testMarket(), &fakeAges{}, nil)

	report, err := svc.Analyze(context.Background(), "wallet1", 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.TradesAnalyzed != 5 {
		t.Errorf("TradesAnalyzed = %d, want 5", report.TradesAnalyzed)
	}
	if len(report.Tokens) != 3 {
		t.Fatalf("tokens = %d, want 3", len(report.Tokens))
	}

	byMint := make(map[string]TokenPnL)
	for _, tok := range report.Tokens {
		byMint[tok.Mint] = tok
	}

	a := byMint["mintA"]
	if a.NetProfitUSD != 150 {
		t.Errorf("mintA PnL = %v, want 150", a.NetProfitUSD)
	}
	if a.NetProfitPercent != 150 {
		t.Errorf("mintA PnL%% = %v, want 150", a.NetProfitPercent)
	}
	if a.AvgProfitPerTradeUSD != 75 {
		t.Errorf("mintA avg/trade = %v, want 75", a.AvgProfitPerTradeUSD)
	}
	if a.AvgBuyPriceUSD != 0.1 {
		t.Errorf("mintA avg buy = %v, want 0.1", a.AvgBuyPriceUSD)
	}
	if a.FirstTradeAt != 1000 || a.LastTradeAt != 2000 {
		t.Errorf("mintA window = %d..%d", a.FirstTradeAt, a.LastTradeAt)
	}

	b := byMint["mintB"]
	if b.NetProfitUSD != -150 {
		t.Errorf("mintB PnL = %v, want -150", b.NetProfitUSD)
	}

	// Total: 150 - 150 - 80.
	if report.TotalPnLUSD != -80 {
		t.Errorf("TotalPnLUSD = %v, want -80", report.TotalPnLUSD)
	}
	if report.BestToken != "AAA" || report.BestPnLUSD != 150 {
		t.Errorf("best = %s %v", report.BestToken, report.BestPnLUSD)
	}
	if report.WorstToken != "BBB" || report.WorstPnLUSD != -150 {
		t.Errorf("worst = %s %v", report.WorstToken, report.WorstPnLUSD)
	}
}

func TestService_Analyze_Socials(t *testing.T) {
	svc := NewService(testPortfolio(), testMarket(), &fakeAges{}, nil)

	report, err := svc.Analyze(context.Background(), "wallet1", 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	stats := report.Socials
	if stats.WithSocials != 2 {
		t.Errorf("WithSocials = %d, want 2", stats.WithSocials)
	}
	if stats.WithWebsites != 1 {
		t.Errorf("WithWebsites = %d, want 1", stats.WithWebsites)
	}
	if stats.ByType["twitter"] != 1 || stats.ByType["telegram"] != 1 {
		t.Errorf("ByType = %v", stats.ByType)
	}

	// mintC has no listing: PnL -80. mintA and mintB have socials.
	if stats.AvgPnLNoSocialsUSD != -80 {
		t.Errorf("AvgPnLNoSocialsUSD = %v, want -80", stats.AvgPnLNoSocialsUSD)
	}
	// (150 - 150) / 2.
	if stats.AvgPnLWithAnySocialUSD != 0 {
		t.Errorf("AvgPnLWithAnySocialUSD = %v, want 0", stats.AvgPnLWithAnySocialUSD)
	}
	if stats.AvgPnLWebsiteAndTwitterUSD != 150 {
		t.Errorf("AvgPnLWebsiteAndTwitterUSD = %v, want 150", stats.AvgPnLWebsiteAndTwitterUSD)
	}
}

func TestService_Analyze_SinglePairBatch(t *testing.T) {
	market := testMarket()
	svc := NewService(testPortfolio(), market, &fakeAges{}, nil)

	if _, err := svc.Analyze(context.Background(), "wallet1", 0); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(market.batches) != 1 {
		t.Fatalf("pair lookups ran in %d batches, want 1", len(market.batches))
	}
	got := make(map[string]bool)
	for _, mint := range market.batches[0] {
		got[mint] = true
	}
	for _, want := range []string{"mintA", "mintB", "mintC"} {
		if !got[want] {
			t.Errorf("batch missing %s: %v", want, market.batches[0])
		}
	}
}

func TestService_Analyze_DevProficiency(t *testing.T) {
	pools := &fakePools{counts: map[string]int{"dev1": 1, "dev2": 12}}
	svc := NewService(testPortfolio(), testMarket(), &fakeAges{}, pools)

	report, err := svc.Analyze(context.Background(), "wallet1", 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	devs := report.Devs
	if devs.UniqueDevelopers != 2 {
		t.Errorf("UniqueDevelopers = %d, want 2", devs.UniqueDevelopers)
	}
	if devs.TokensWithoutDev != 0 {
		t.Errorf("TokensWithoutDev = %d, want 0", devs.TokensWithoutDev)
	}
	// mintA and mintC share dev1 with a single pool.
	if devs.DevsWith1Token != 2 {
		t.Errorf("DevsWith1Token = %d, want 2", devs.DevsWith1Token)
	}
	if devs.DevsWith1To5 != 2 {
		t.Errorf("DevsWith1To5 = %d, want 2", devs.DevsWith1To5)
	}
	if devs.DevsAbove10 != 1 {
		t.Errorf("DevsAbove10 = %d, want 1", devs.DevsAbove10)
	}
	// mintA 150, mintC -80.
	if devs.AvgPnL1TokenUSD != 35 {
		t.Errorf("AvgPnL1TokenUSD = %v, want 35", devs.AvgPnL1TokenUSD)
	}
	if devs.AvgPnLAbove10USD != -150 {
		t.Errorf("AvgPnLAbove10USD = %v, want -150", devs.AvgPnLAbove10USD)
	}
}

func TestService_Analyze_NoPoolCounter(t *testing.T) {
	svc := NewService(testPortfolio(), testMarket(), &fakeAges{}, nil)

	report, err := svc.Analyze(context.Background(), "wallet1", 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Devs.UniqueDevelopers != 0 {
		t.Errorf("UniqueDevelopers = %d, want 0", report.Devs.UniqueDevelopers)
	}
	if report.Devs.TokensWithoutDev != 3 {
		t.Errorf("TokensWithoutDev = %d, want 3", report.Devs.TokensWithoutDev)
	}
}

func TestService_Ages(t *testing.T) {
	ages := &fakeAges{ages: map[string]int{"walletA": 10, "walletB": -1}}
	svc := NewService(testPortfolio(), testMarket(), ages, nil)

	got, err := svc.Ages(context.Background(), []string{"walletA", "walletB"})
	if err != nil {
		t.Fatalf("Ages: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d ages", len(got))
	}
	if got[0].AgeDays != 10 || got[0].FirstSeen == nil {
		t.Errorf("walletA = %+v", got[0])
	}
	if got[1].AgeDays != -1 || got[1].FirstSeen != nil {
		t.Errorf("walletB = %+v", got[1])
	}
}

func TestSortByPnL(t *testing.T) {
	tokens := []TokenPnL{
		{Symbol: "A", NetProfitUSD: -10},
		{Symbol: "B", NetProfitUSD: 40},
		{Symbol: "C", NetProfitUSD: 5},
	}
	SortByPnL(tokens)
	if tokens[0].Symbol != "B" || tokens[2].Symbol != "A" {
		t.Errorf("order = %v %v %v", tokens[0].Symbol, tokens[1].Symbol, tokens[2].Symbol)
	}
}
