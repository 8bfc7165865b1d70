// Package dexscreener provides a REST client for the Dexscreener public API.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"memecoin-lab/internal/cache"
	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/fetch"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL  = "https://api.dexscreener.com"
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 60 * time.Second

	// Public API allows 300 requests per minute.
	DefaultRateLimit = rate.Limit(5)
	DefaultRateBurst = 5
)

// ErrPairNotFound is returned when a token has no pair with the requested
// address.
var ErrPairNotFound = fmt.Errorf("pair not found")

// Client is a Dexscreener API client. No API key is required.
type Client struct {
	baseURL  string
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *rate.Limiter
	batch    *fetch.Batcher
	logger   zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithCache enables response caching.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithRateLimit overrides the request rate limit.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewClient creates a Dexscreener client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		client:   &http.Client{Timeout: DefaultTimeout},
		cacheTTL: DefaultCacheTTL,
		limiter:  rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		logger:   log.With("dexscreener"),
	}
	for _, opt := range opts {
		opt(c)
	}

	host := c.baseURL
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	c.batch = fetch.NewBatcher(
		fetch.WithHTTPClient(c.client),
		fetch.WithHostLimit(host, c.limiter.Limit(), c.limiter.Burst()),
	)
	return c
}

// TokenPairs returns all known pairs trading a mint.
func (c *Client) TokenPairs(ctx context.Context, mint string) ([]Pair, error) {
	key := cache.Key("dexscreener:token_pairs", mint)

	var resp tokensResponse
	if c.cache == nil || !cache.GetJSON(ctx, c.cache, key, &resp) {
		if err := c.fetch(ctx, "token_pairs", "/latest/dex/tokens/"+mint, &resp); err != nil {
			return nil, err
		}
		if c.cache != nil {
			cache.SetJSON(ctx, c.cache, key, &resp, c.cacheTTL)
		}
	}

	return resp.Pairs, nil
}

// PairByAddress returns the pair of a mint with the given pair address.
func (c *Client) PairByAddress(ctx context.Context, mint, pairAddress string) (*Pair, error) {
	pairs, err := c.TokenPairs(ctx, mint)
	if err != nil {
		return nil, err
	}
	for i := range pairs {
		if pairs[i].PairAddress == pairAddress {
			return &pairs[i], nil
		}
	}
	return nil, ErrPairNotFound
}

// MainPair returns the pair with the given address, falling back to the
// first listed pair when pairAddress is empty.
func (c *Client) MainPair(ctx context.Context, mint, pairAddress string) (*Pair, error) {
	if pairAddress != "" {
		return c.PairByAddress(ctx, mint, pairAddress)
	}
	pairs, err := c.TokenPairs(ctx, mint)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, ErrPairNotFound
	}
	return &pairs[0], nil
}

func (c *Client) fetch(ctx context.Context, operation, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	observability.RecordProviderRequest("dexscreener", operation, time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

type tokensResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Pair is one Dexscreener trading pair.
type Pair struct {
	ChainID       string      `json:"chainId"`
	DexID         string      `json:"dexId"`
	PairAddress   string      `json:"pairAddress"`
	BaseToken     TokenRef    `json:"baseToken"`
	QuoteToken    TokenRef    `json:"quoteToken"`
	PriceNative   string      `json:"priceNative"`
	PriceUSD      floatString `json:"priceUsd"`
	Liquidity     *Liquidity  `json:"liquidity"`
	FDV           float64     `json:"fdv"`
	MarketCap     *float64    `json:"marketCap"`
	PairCreatedAt *int64      `json:"pairCreatedAt"` // Unix ms
	Volume        Windows     `json:"volume"`
	PriceChange   Windows     `json:"priceChange"`
	Txns          TxnWindows  `json:"txns"`
	Info          *PairInfo   `json:"info"`
}

// TokenRef identifies one side of a pair.
type TokenRef struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity is pooled liquidity of a pair.
type Liquidity struct {
	USD   float64  `json:"usd"`
	Base  *float64 `json:"base"`
	Quote *float64 `json:"quote"`
}

// Windows holds a value per reporting window.
type Windows struct {
	M5  *float64 `json:"m5"`
	H1  *float64 `json:"h1"`
	H6  *float64 `json:"h6"`
	H24 *float64 `json:"h24"`
}

// TxnWindows holds buy/sell counts per reporting window.
type TxnWindows struct {
	M5  *TxnCounts `json:"m5"`
	H1  *TxnCounts `json:"h1"`
	H6  *TxnCounts `json:"h6"`
	H24 *TxnCounts `json:"h24"`
}

// TxnCounts is a buy/sell transaction count.
type TxnCounts struct {
	Buys  int64 `json:"buys"`
	Sells int64 `json:"sells"`
}

// ToDomain converts counts to the domain representation.
func (t *TxnCounts) ToDomain() *domain.PairTxns {
	if t == nil {
		return nil
	}
	return &domain.PairTxns{Buys: t.Buys, Sells: t.Sells}
}

// PairInfo carries listing metadata.
type PairInfo struct {
	Websites []Link `json:"websites"`
	Socials  []Link `json:"socials"`
}

// Link is a labeled URL. Dexscreener uses "label" for websites and "type"
// for socials.
type Link struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ToDomain converts a link to the domain representation.
func (l Link) ToDomain() domain.LinkRef {
	kind := l.Type
	if kind == "" {
		kind = l.Label
	}
	return domain.LinkRef{Type: kind, URL: l.URL}
}

// floatString decodes numbers that Dexscreener reports as strings.
type floatString float64

func (f *floatString) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*f = 0
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("parse priceUsd %q: %w", str, err)
		}
		*f = floatString(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = floatString(v)
	return nil
}
