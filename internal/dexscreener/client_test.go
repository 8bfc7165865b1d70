package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"memecoin-lab/internal/cache"
)

const pairsFixture = `{"schemaVersion":"1.0.0","pairs":[
	{
		"chainId":"solana",
		"dexId":"raydium",
		"pairAddress":"pairA",
		"baseToken":{"address":"mint1","name":"Billy","symbol":"BILLY"},
		"quoteToken":{"address":"So11111111111111111111111111111111111111112","name":"Wrapped SOL","symbol":"SOL"},
		"priceNative":"0.0000125",
		"priceUsd":"0.0021",
		"liquidity":{"usd":54321.5,"base":12000000,"quote":300},
		"fdv":2100000,
		"marketCap":1900000,
		"pairCreatedAt":1723640000000,
		"volume":{"m5":500,"h1":9000,"h6":45000,"h24":120000},
		"priceChange":{"h6":-3.2,"h24":11.5},
		"txns":{"m5":{"buys":4,"sells":2},"h24":{"buys":900,"sells":850}},
		"info":{
			"websites":[{"label":"Website","url":"https://example.com"}],
			"socials":[{"type":"twitter","url":"https://x.com/billy"}]
		}
	},
	{
		"chainId":"solana",
		"dexId":"orca",
		"pairAddress":"pairB",
		"baseToken":{"address":"mint1","name":"Billy","symbol":"BILLY"},
		"quoteToken":{"address":"usdc","name":"USD Coin","symbol":"USDC"},
		"priceNative":"0.002",
		"priceUsd":"0.002",
		"fdv":0
	}
]}`

func newTestServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.URL.Path != "/latest/dex/tokens/mint1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, pairsFixture)
	}))
}

func TestClient_TokenPairs(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	pairs, err := client.TokenPairs(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("TokenPairs: %v", err)
	}

	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}

	p := pairs[0]
	if p.PairAddress != "pairA" {
		t.Errorf("pair address = %q", p.PairAddress)
	}
	if float64(p.PriceUSD) != 0.0021 {
		t.Errorf("priceUsd = %v", p.PriceUSD)
	}
	if p.Liquidity == nil || p.Liquidity.USD != 54321.5 {
		t.Errorf("liquidity = %+v", p.Liquidity)
	}
	if p.Txns.M5 == nil || p.Txns.M5.Buys != 4 {
		t.Errorf("txns m5 = %+v", p.Txns.M5)
	}
	if p.PriceChange.H24 == nil || *p.PriceChange.H24 != 11.5 {
		t.Errorf("price change h24 = %v", p.PriceChange.H24)
	}
	if p.Info == nil || len(p.Info.Socials) != 1 || p.Info.Socials[0].URL != "https://x.com/billy" {
		t.Errorf("socials = %+v", p.Info)
	}

	// The second pair has no liquidity or info sections
	if pairs[1].Liquidity != nil {
		t.Errorf("expected nil liquidity, got %+v", pairs[1].Liquidity)
	}
}

func TestClient_PairByAddress(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	ctx := context.Background()

	pair, err := client.PairByAddress(ctx, "mint1", "pairB")
	if err != nil {
		t.Fatalf("PairByAddress: %v", err)
	}
	if pair.DexID != "orca" {
		t.Errorf("dex = %q", pair.DexID)
	}

	_, err = client.PairByAddress(ctx, "mint1", "missing")
	if !errors.Is(err, ErrPairNotFound) {
		t.Errorf("expected ErrPairNotFound, got %v", err)
	}
}

func TestClient_MainPair_FallsBackToFirst(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	pair, err := client.MainPair(context.Background(), "mint1", "")
	if err != nil {
		t.Fatalf("MainPair: %v", err)
	}
	if pair.PairAddress != "pairA" {
		t.Errorf("pair address = %q", pair.PairAddress)
	}
}

func TestClient_CachesResponses(t *testing.T) {
	var calls atomic.Int64
	server := newTestServer(t, &calls)
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL),
		WithCache(cache.NewMemoryCache(), time.Minute),
	)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.TokenPairs(ctx, "mint1"); err != nil {
			t.Fatalf("TokenPairs: %v", err)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls.Load())
	}
}

func TestLink_ToDomain(t *testing.T) {
	website := Link{Label: "Website", URL: "https://example.com"}
	if got := website.ToDomain(); got.Type != "Website" {
		t.Errorf("website type = %q", got.Type)
	}

	social := Link{Type: "twitter", URL: "https://x.com/billy"}
	if got := social.ToDomain(); got.Type != "twitter" {
		t.Errorf("social type = %q", got.Type)
	}
}
