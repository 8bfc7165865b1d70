// Package coingecko provides a REST client for the CoinGecko API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"memecoin-lab/internal/cache"
	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL  = "https://api.coingecko.com/api/v3"
	DefaultTimeout  = 15 * time.Second
	DefaultCacheTTL = 24 * time.Hour

	// Free tier allows 5-15 calls per minute.
	DefaultRateLimit = rate.Limit(0.2)
	DefaultRateBurst = 3
)

// ErrCategoryNotFound is returned when a named category does not exist.
var ErrCategoryNotFound = fmt.Errorf("category not found")

// Client is a CoinGecko API client.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *rate.Limiter
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

// WithAPIKey sets a demo API key sent via the x-cg-demo-api-key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
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

// NewClient creates a CoinGecko client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		client:   &http.Client{Timeout: DefaultTimeout},
		cacheTTL: DefaultCacheTTL,
		limiter:  rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		logger:   log.With("coingecko"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CoinMarkets returns coin market rows, optionally filtered by category.
func (c *Client) CoinMarkets(ctx context.Context, vsCurrency, category string, perPage, page int) ([]domain.Coin, error) {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	if perPage <= 0 {
		perPage = 250
	}
	if page <= 0 {
		page = 1
	}

	query := map[string]string{
		"vs_currency": vsCurrency,
		"per_page":    strconv.Itoa(perPage),
		"page":        strconv.Itoa(page),
	}
	if category != "" {
		query["category"] = category
	}

	var coins []domain.Coin
	if err := c.get(ctx, "coin_markets", "/coins/markets", query, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// CategoriesList returns all coin categories.
func (c *Client) CategoriesList(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.get(ctx, "categories_list", "/coins/categories/list", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// SolanaMemeCoins returns market data for the Solana meme coin category.
// The category id is resolved by name; a missing category is an error.
func (c *Client) SolanaMemeCoins(ctx context.Context, vsCurrency string, perPage, page int) ([]domain.Coin, error) {
	categories, err := c.CategoriesList(ctx)
	if err != nil {
		return nil, err
	}

	categoryID := ""
	for _, cat := range categories {
		if strings.TrimSpace(strings.ToLower(cat.Name)) == domain.SolanaMemeCategory {
			categoryID = cat.CategoryID
			break
		}
	}
	if categoryID == "" {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, domain.SolanaMemeCategory)
	}

	return c.CoinMarkets(ctx, vsCurrency, categoryID, perPage, page)
}

// CoinDetails returns the detail document of one coin.
func (c *Client) CoinDetails(ctx context.Context, id string) (*CoinDetails, error) {
	query := map[string]string{
		"localization": "false",
		"sparkline":    "false",
	}

	var details CoinDetails
	if err := c.get(ctx, "coin_details", "/coins/"+url.PathEscape(id), query, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// CoinDetails is the subset of the coin detail document this system uses.
type CoinDetails struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description struct {
		EN string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage      []string `json:"homepage"`
		TwitterHandle string   `json:"twitter_screen_name"`
		TelegramURL   string   `json:"telegram_channel_identifier"`
	} `json:"links"`
	Platforms  map[string]string `json:"platforms"`
	MarketData struct {
		CurrentPriceUSD map[string]float64 `json:"current_price"`
		MarketCapUSD    map[string]float64 `json:"market_cap"`
		TotalVolumeUSD  map[string]float64 `json:"total_volume"`
	} `json:"market_data"`
}

// SolanaMint returns the coin's mint address on Solana, if listed.
func (d *CoinDetails) SolanaMint() (string, bool) {
	mint, ok := d.Platforms["solana"]
	return mint, ok && mint != ""
}

func (c *Client) get(ctx context.Context, operation, path string, query map[string]string, out interface{}) error {
	key := cache.Key("coingecko:"+path, query)
	if c.cache != nil {
		if cache.GetJSON(ctx, c.cache, key, out) {
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	observability.RecordProviderRequest("coingecko", operation, time.Since(start).Seconds(), err)
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

	if c.cache != nil {
		cache.SetJSON(ctx, c.cache, key, out, c.cacheTTL)
	}
	return nil
}
