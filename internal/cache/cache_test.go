package cache

import (
	"context"
	"testing"
	"time"
)

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("pair_stats", "mint1", "pair1", 10)
	k2 := Key("pair_stats", "mint1", "pair1", 10)
	if k1 != k2 {
		t.Errorf("same inputs produced different keys: %s vs %s", k1, k2)
	}

	k3 := Key("pair_stats", "mint1", "pair2", 10)
	if k1 == k3 {
		t.Error("different inputs produced the same key")
	}

	k4 := Key("recent_trades", "mint1", "pair1", 10)
	if k1 == k4 {
		t.Error("different operations produced the same key")
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("value"), time.Minute)

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := NewMemoryCache().WithClock(func() time.Time { return now })
	ctx := context.Background()

	c.Set(ctx, "k", []byte("value"), 10*time.Second)

	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(11 * time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len=%d", c.Len())
	}
}

func TestMemoryCache_ZeroTTLIgnored(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("value"), 0)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("zero TTL entry should not be stored")
	}
}

func TestMemoryCache_CopyOnReadAndWrite(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	src := []byte("abc")
	c.Set(ctx, "k", src, time.Minute)
	src[0] = 'x'

	got, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value mutated externally: %q", got)
	}

	got[0] = 'y'
	again, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("returned value aliases storage: %q", again)
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	type payload struct {
		Mint  string
		Price float64
	}

	SetJSON(ctx, c, "p", payload{Mint: "m1", Price: 1.5}, time.Minute)

	var got payload
	if !GetJSON(ctx, c, "p", &got) {
		t.Fatal("expected hit")
	}
	if got.Mint != "m1" || got.Price != 1.5 {
		t.Errorf("unexpected payload: %+v", got)
	}

	if GetJSON(ctx, c, "missing", &got) {
		t.Error("expected miss for unknown key")
	}
}
