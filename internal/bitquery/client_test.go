package bitquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newOAuthServer serves client-credentials tokens and counts issued tokens.
func newOAuthServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.Form.Get("scope"); got != "api" {
			t.Errorf("scope = %q", got)
		}

		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600}`, n)
	}))
}

func newTestClient(t *testing.T, gql http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()

	var tokenCalls atomic.Int64
	oauth := newOAuthServer(t, &tokenCalls)
	t.Cleanup(oauth.Close)

	api := httptest.NewServer(gql)
	t.Cleanup(api.Close)

	client := NewClient("id", "secret",
		WithOAuthURL(oauth.URL),
		WithEndpoint(api.URL),
		WithRetryDelay(10*time.Millisecond),
	)
	return client, &tokenCalls
}

func gqlData(t *testing.T, w http.ResponseWriter, data string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"data":%s}`, data)
}

func TestClient_AccessToken_Cached(t *testing.T) {
	var tokenCalls atomic.Int64
	oauth := newOAuthServer(t, &tokenCalls)
	defer oauth.Close()

	client := NewClient("id", "secret", WithOAuthURL(oauth.URL))
	ctx := context.Background()

	first, err := client.AccessToken(ctx)
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}

	second, err := client.AccessToken(ctx)
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}

	if first != second {
		t.Errorf("expected cached token, got %q and %q", first, second)
	}

	if tokenCalls.Load() != 1 {
		t.Errorf("expected 1 token request, got %d", tokenCalls.Load())
	}
}

func TestClient_AccessToken_MissingCredentials(t *testing.T) {
	client := NewClient("", "")

	_, err := client.AccessToken(context.Background())
	if err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestClient_RefreshesTokenOn401(t *testing.T) {
	var apiCalls atomic.Int64

	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if apiCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-2" {
			t.Errorf("Authorization = %q, want refreshed token", got)
		}
		gqlData(t, w, `{"Solana":{"DEXTrades":[{"Trade":{"Buy":{"Currency":{"MintAddress":"mint123"}}}}]}}`)
	})

	mint, err := client.MintAddressByName(context.Background(), "Some Coin")
	if err != nil {
		t.Fatalf("MintAddressByName: %v", err)
	}

	if mint != "mint123" {
		t.Errorf("mint = %q", mint)
	}

	if tokenCalls.Load() != 2 {
		t.Errorf("expected token refresh after 401, got %d token requests", tokenCalls.Load())
	}
}

func TestClient_MintAddressByName_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gqlData(t, w, `{"Solana":{"DEXTrades":[]}}`)
	})

	_, err := client.MintAddressByName(context.Background(), "Unknown Coin")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestClient_GraphQLErrorNotRetried(t *testing.T) {
	var apiCalls atomic.Int64

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"errors":[{"message":"field does not exist"}]}`)
	})

	_, err := client.MintAddressByName(context.Background(), "Some Coin")
	if err == nil {
		t.Fatal("expected GraphQL error")
	}

	if apiCalls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", apiCalls.Load())
	}
}

func TestClient_PairStats(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Variables["token"] != "mint1" {
			t.Errorf("token variable = %v", req.Variables["token"])
		}
		if req.Variables["side_token"] != "So11111111111111111111111111111111111111112" {
			t.Errorf("side_token variable = %v", req.Variables["side_token"])
		}

		// Counts and sums come back as strings
		gqlData(t, w, `{"Solana":{"DEXTradeByTokens":[{
			"Trade":{
				"Currency":{"Name":"Billy","MintAddress":"mint1","Symbol":"BILLY","UpdateAuthority":"auth1","IsMutable":true},
				"start":0.001,"min5":"0.0015","end":0.002,
				"Dex":{"ProtocolName":"pump","ProtocolFamily":"pump.fun"},
				"Market":{"MarketAddress":"pair1"}
			},
			"makers":"42","makers_5min":"7",
			"buyers":"30","buyers_5min":"5",
			"sellers":"12","sellers_5min":"2",
			"trades":"100","trades_5min":"9",
			"traded_volume":"12345.67","traded_volume_5min":"234.5",
			"buy_volume":"8000","buy_volume_5min":"150",
			"sell_volume":"4345.67","sell_volume_5min":"84.5",
			"buys":"70","buys_5min":"6","sells":"30","sells_5min":"3"
		}]}}`)
	})

	stats, err := client.PairStats(context.Background(), "mint1", "pair1", "", time.Time{})
	if err != nil {
		t.Fatalf("PairStats: %v", err)
	}

	if stats.Symbol != "BILLY" {
		t.Errorf("symbol = %q", stats.Symbol)
	}
	if stats.Makers != 42 {
		t.Errorf("makers = %d", stats.Makers)
	}
	if stats.Trades5Min != 9 {
		t.Errorf("trades_5min = %d", stats.Trades5Min)
	}
	if stats.Price5MinUSD != 0.0015 {
		t.Errorf("min5 price = %v", stats.Price5MinUSD)
	}
	if stats.TradedVolumeUSD != 12345.67 {
		t.Errorf("traded volume = %v", stats.TradedVolumeUSD)
	}
	if stats.DexProtocolFamily != "pump.fun" {
		t.Errorf("dex family = %q", stats.DexProtocolFamily)
	}
}

func TestClient_PairStats_NoTrades(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gqlData(t, w, `{"Solana":{"DEXTradeByTokens":[]}}`)
	})

	_, err := client.PairStats(context.Background(), "mint1", "pair1", "", time.Time{})
	if !errors.Is(err, ErrNoTrades) {
		t.Errorf("expected ErrNoTrades, got %v", err)
	}
}

func TestClient_RecentPairTrades(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gqlData(t, w, `{"Solana":{"DEXTradeByTokens":[
			{
				"Block":{"Time":"2025-08-14T15:30:39Z"},
				"Trade":{
					"Currency":{"Name":"Billy","Symbol":"BILLY"},
					"Amount":"1000.5","PriceAgainstSideCurrency":"0.000012","PriceInUSD":"0.0021",
					"Side":{"Currency":{"Name":"Wrapped Solana","Symbol":"WSOL"},"Amount":"0.012","Type":"buy"}
				},
				"Transaction":{"Maker":"makerA","Signature":"sig1"}
			}
		]}}`)
	})

	trades, err := client.RecentPairTrades(context.Background(), "mint1", "pair1", "", 10)
	if err != nil {
		t.Fatalf("RecentPairTrades: %v", err)
	}

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	if tr.SideType != "buy" {
		t.Errorf("side type = %q", tr.SideType)
	}
	if tr.Maker != "makerA" {
		t.Errorf("maker = %q", tr.Maker)
	}
	if tr.Amount != 1000.5 {
		t.Errorf("amount = %v", tr.Amount)
	}

	wantTime := time.Date(2025, 8, 14, 15, 30, 39, 0, time.UTC).UnixMilli()
	if tr.BlockTime != wantTime {
		t.Errorf("block time = %d, want %d", tr.BlockTime, wantTime)
	}
}

func TestClient_RecentTransfers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gqlData(t, w, `{"Solana":{"Transfers":[
			{
				"Transfer":{
					"Amount":"2500.75","AmountInUSD":"5.25",
					"Currency":{"MintAddress":"mint1","Name":"Billy","Symbol":"BILLY"},
					"Sender":{"Address":"senderA"},
					"Receiver":{"Address":"receiverB"}
				},
				"Block":{"Time":"2025-08-14T15:30:39Z"},
				"Transaction":{"Signature":"sig9"}
			}
		]}}`)
	})

	transfers, err := client.RecentTransfers(context.Background(), "mint1", 10)
	if err != nil {
		t.Fatalf("RecentTransfers: %v", err)
	}

	if len(transfers) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(transfers))
	}

	tr := transfers[0]
	if tr.Mint != "mint1" || tr.Symbol != "BILLY" {
		t.Errorf("currency = %q %q", tr.Mint, tr.Symbol)
	}
	if tr.Amount != 2500.75 || tr.AmountUSD != 5.25 {
		t.Errorf("amounts = %v %v", tr.Amount, tr.AmountUSD)
	}
	if tr.Sender != "senderA" || tr.Receiver != "receiverB" {
		t.Errorf("parties = %q %q", tr.Sender, tr.Receiver)
	}
	if tr.Signature != "sig9" {
		t.Errorf("signature = %q", tr.Signature)
	}

	wantTime := time.Date(2025, 8, 14, 15, 30, 39, 0, time.UTC).UnixMilli()
	if tr.BlockTime != wantTime {
		t.Errorf("block time = %d, want %d", tr.BlockTime, wantTime)
	}
}

func TestClient_LatestTokens_DedupesByMint(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gqlData(t, w, `{"Solana":{"DEXPools":[
			{"Block":{"Time":"2025-08-14T15:30:00Z"},"Pool":{"Market":{"MarketAddress":"pairA1","BaseCurrency":{"Name":"Alpha","Symbol":"A","MintAddress":"mintA"}},"Base":{"PostAmount":"100"}}},
			{"Block":{"Time":"2025-08-14T15:29:00Z"},"Pool":{"Market":{"MarketAddress":"pairA2","BaseCurrency":{"Name":"Alpha","Symbol":"A","MintAddress":"mintA"}},"Base":{"PostAmount":"500"}}},
			{"Block":{"Time":"2025-08-14T15:28:00Z"},"Pool":{"Market":{"MarketAddress":"pairB","BaseCurrency":{"Name":"Beta","Symbol":"B","MintAddress":"mintB"}},"Base":{"PostAmount":"50"}}}
		]}}`)
	})

	tokens, err := client.LatestTokens(context.Background(), "", 20)
	if err != nil {
		t.Fatalf("LatestTokens: %v", err)
	}

	if len(tokens) != 2 {
		t.Fatalf("expected 2 deduplicated tokens, got %d", len(tokens))
	}

	var alpha *struct {
		pair       string
		postAmount float64
	}
	for _, tok := range tokens {
		if tok.Mint == "mintA" {
			alpha = &struct {
				pair       string
				postAmount float64
			}{tok.Pair, tok.PostAmount}
		}
	}

	if alpha == nil {
		t.Fatal("mintA missing from results")
	}
	// The pool with the higher post amount wins
	if alpha.pair != "pairA2" || alpha.postAmount != 500 {
		t.Errorf("kept pool %q with amount %v, want pairA2 with 500", alpha.pair, alpha.postAmount)
	}
}

func TestClient_WalletAges(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		firstSeen := time.Now().UTC().Add(-10 * 24 * time.Hour).Format(time.RFC3339)
		gqlData(t, w, fmt.Sprintf(`{"Solana":{"Transfers":[
			{"Transfer":{"Receiver":{"Address":"walletA"}},"Block":{"Time":"%s"}}
		]}}`, firstSeen))
	})

	ages, err := client.WalletAges(context.Background(), []string{"walletA", "walletB"})
	if err != nil {
		t.Fatalf("WalletAges: %v", err)
	}

	if ages["walletA"] < 9 || ages["walletA"] > 10 {
		t.Errorf("walletA age = %d, want ~10", ages["walletA"])
	}

	// Wallets without history keep the unknown sentinel
	if ages["walletB"] != -1 {
		t.Errorf("walletB age = %d, want -1", ages["walletB"])
	}
}

func TestNumberDecoding(t *testing.T) {
	var payload struct {
		A number  `json:"a"`
		B number  `json:"b"`
		C number  `json:"c"`
		D integer `json:"d"`
		E integer `json:"e"`
	}

	data := `{"a":"12.5","b":7,"c":null,"d":"42","e":9}`
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if payload.A != 12.5 || payload.B != 7 || payload.C != 0 {
		t.Errorf("numbers = %v %v %v", payload.A, payload.B, payload.C)
	}
	if payload.D != 42 || payload.E != 9 {
		t.Errorf("integers = %v %v", payload.D, payload.E)
	}
}
