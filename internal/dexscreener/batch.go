package dexscreener

import (
	"context"
	"encoding/json"
	"time"

	"memecoin-lab/internal/cache"
	"memecoin-lab/internal/fetch"
	"memecoin-lab/internal/observability"
)

// TokenPairsBatch fetches pair listings for several mints in one pass.
// Cached mints are served without a request; the rest run through a shared
// batch with bounded parallelism and the API host rate limit. Mints that
// fail to resolve are logged and omitted from the result, so a partial map
// is a normal outcome. Duplicate and empty mints are ignored.
func (c *Client) TokenPairsBatch(ctx context.Context, mints []string) (map[string][]Pair, error) {
	out := make(map[string][]Pair, len(mints))

	var missing []string
	seen := make(map[string]bool, len(mints))
	for _, mint := range mints {
		if mint == "" || seen[mint] {
			continue
		}
		seen[mint] = true

		var resp tokensResponse
		if c.cache != nil && cache.GetJSON(ctx, c.cache, cache.Key("dexscreener:token_pairs", mint), &resp) {
			out[mint] = resp.Pairs
			continue
		}
		missing = append(missing, mint)
	}
	if len(missing) == 0 {
		return out, nil
	}

	requests := make([]fetch.Request, len(missing))
	for i, mint := range missing {
		requests[i] = fetch.Request{
			ID:      mint,
			URL:     c.baseURL + "/latest/dex/tokens/" + mint,
			Headers: map[string]string{"accept": "application/json"},
		}
	}

	start := time.Now()
	results, err := c.batch.Run(ctx, requests)
	observability.RecordProviderRequest("dexscreener", "token_pairs_batch", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if res.Err != nil {
			c.logger.Debug().Err(res.Err).Str("mint", res.ID).Msg("token pairs unavailable")
			continue
		}
		var resp tokensResponse
		if err := json.Unmarshal(res.Body, &resp); err != nil {
			c.logger.Debug().Err(err).Str("mint", res.ID).Msg("malformed pairs response")
			continue
		}
		out[res.ID] = resp.Pairs
		if c.cache != nil {
			cache.SetJSON(ctx, c.cache, cache.Key("dexscreener:token_pairs", res.ID), &resp, c.cacheTTL)
		}
	}
	return out, nil
}
