// Package cache provides TTL caching for upstream API responses.
//
// Keys are derived from the operation name and its arguments, so repeated
// calls with identical inputs are served locally until the entry expires.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores opaque byte values with a per-entry TTL.
type Cache interface {
	// Get returns the cached value for key, or false when absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Key derives a deterministic cache key from an operation name and its
// arguments. Arguments are JSON-encoded, so any marshalable value works.
func Key(op string, args ...any) string {
	payload, err := json.Marshal(args)
	if err != nil {
		// Unmarshalable arguments still need a stable key
		payload = []byte(fmt.Sprintf("%v", args))
	}
	sum := sha256.Sum256(append([]byte(op+"|"), payload...))
	return hex.EncodeToString(sum[:])
}

// GetJSON reads a cached value into out. Returns false if absent, expired,
// or not decodable.
func GetJSON(ctx context.Context, c Cache, key string, out any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// SetJSON stores v under key for ttl. Marshal failures are dropped: caching
// is best-effort and never fails the caller.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(ctx, key, data, ttl)
}
