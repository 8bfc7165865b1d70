// Package fetch executes batches of HTTP requests with bounded parallelism
// and per-host rate limiting.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"memecoin-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultMaxWorkers     = 5
	DefaultRequestTimeout = 10 * time.Second
)

// Request describes one HTTP request in a batch.
type Request struct {
	ID      string // optional caller-supplied identifier
	Method  string // defaults to GET
	URL     string
	Query   map[string]string
	Body    []byte
	Headers map[string]string
}

// Result holds the outcome for one request. Index matches the position of
// the request in the input slice.
type Result struct {
	ID         string
	Index      int
	StatusCode int
	Body       []byte
	Err        error
}

// Batcher runs request batches. A single Batcher is safe for concurrent use.
type Batcher struct {
	client     *http.Client
	maxWorkers int

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
	hostLimits map[string]rate.Limit
	hostBursts map[string]int
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithMaxWorkers sets the maximum number of concurrent requests.
func WithMaxWorkers(n int) BatcherOption {
	return func(b *Batcher) {
		if n > 0 {
			b.maxWorkers = n
		}
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) BatcherOption {
	return func(b *Batcher) {
		b.client = client
	}
}

// WithHostLimit sets a request rate limit for a specific host.
func WithHostLimit(host string, limit rate.Limit, burst int) BatcherOption {
	return func(b *Batcher) {
		b.hostLimits[host] = limit
		b.hostBursts[host] = burst
	}
}

// NewBatcher creates a Batcher.
func NewBatcher(opts ...BatcherOption) *Batcher {
	b := &Batcher{
		client:     &http.Client{Timeout: DefaultRequestTimeout},
		maxWorkers: DefaultMaxWorkers,
		limiters:   make(map[string]*rate.Limiter),
		hostLimits: make(map[string]rate.Limit),
		hostBursts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes all requests and returns results in input order. Individual
// request failures are reported in Result.Err; Run itself only fails when
// the context is cancelled.
func (b *Batcher) Run(ctx context.Context, requests []Request) ([]Result, error) {
	results := make([]Result, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.maxWorkers)

	for i, req := range requests {
		g.Go(func() error {
			results[i] = b.do(gctx, i, req)
			// Request errors stay in the result; only cancellation
			// aborts the batch
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (b *Batcher) do(ctx context.Context, index int, req Request) Result {
	id := req.ID
	if id == "" {
		id = strconv.Itoa(index)
	}
	result := Result{ID: id, Index: index}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		result.Err = fmt.Errorf("parse url: %w", err)
		return result
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	if err := b.waitForHost(ctx, u.Host); err != nil {
		result.Err = err
		return result
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		result.Err = fmt.Errorf("create request: %w", err)
		return result
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		result.Err = fmt.Errorf("http request: %w", err)
		return result
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Err = fmt.Errorf("read response: %w", err)
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Body = respBody

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Err = fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return result
}

// waitForHost blocks until the host's rate limiter admits a request.
// Hosts without a configured limit are not throttled.
func (b *Batcher) waitForHost(ctx context.Context, host string) error {
	b.limitersMu.Lock()
	limiter, ok := b.limiters[host]
	if !ok {
		limit, configured := b.hostLimits[host]
		if !configured {
			b.limitersMu.Unlock()
			return nil
		}
		limiter = rate.NewLimiter(limit, b.hostBursts[host])
		b.limiters[host] = limiter
	}
	b.limitersMu.Unlock()

	if !limiter.Allow() {
		observability.DefaultMetrics.ProviderRateWaits.WithLabelValues(host).Inc()
		return limiter.Wait(ctx)
	}
	return nil
}
