package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

func TestTokenSnapshotStore_InsertAndGetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenSnapshotStore(pool)

	snap := &domain.TokenSnapshot{
		RunID:              "run1",
		Mint:               "SnapMint1",
		Pair:               "SnapPair1",
		Symbol:             "TT",
		PriceUSD:           ptr(0.0015),
		LiquidityUSD:       ptr(48000.0),
		MarketCapUSD:       ptr(150000.0),
		FDV:                200000,
		Volume24hUSD:       ptr(75000.0),
		NoMint:             true,
		FreezeAuthority:    false,
		BurntPercent:       10,
		Top1HolderPercent:  30,
		Top5HolderPercent:  62,
		Top10HolderPercent: 70,
		CapturedAt:         1700000000000,
	}

	err := store.Insert(ctx, snap)
	require.NoError(t, err)
	assert.NotZero(t, snap.ID, "Insert should assign ID")
	assert.NotZero(t, snap.CreatedAt)

	retrieved, err := store.GetLatestByMint(ctx, "SnapMint1")
	require.NoError(t, err)

	assert.Equal(t, snap.ID, retrieved.ID)
	assert.Equal(t, "run1", retrieved.RunID)
	assert.Equal(t, "SnapPair1", retrieved.Pair)
	require.NotNil(t, retrieved.PriceUSD)
	assert.InDelta(t, 0.0015, *retrieved.PriceUSD, 0.000001)
	require.NotNil(t, retrieved.LiquidityUSD)
	assert.InDelta(t, 48000.0, *retrieved.LiquidityUSD, 0.0001)
	assert.True(t, retrieved.NoMint)
	assert.False(t, retrieved.FreezeAuthority)
	assert.Equal(t, 10.0, retrieved.BurntPercent)
	assert.Equal(t, 70.0, retrieved.Top10HolderPercent)
	assert.Equal(t, int64(1700000000000), retrieved.CapturedAt)
}

func TestTokenSnapshotStore_GetLatestPicksNewest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenSnapshotStore(pool)

	older := &domain.TokenSnapshot{Mint: "mint1", Symbol: "OLD", CapturedAt: 1000}
	newer := &domain.TokenSnapshot{Mint: "mint1", Symbol: "NEW", CapturedAt: 2000}
	require.NoError(t, store.Insert(ctx, older))
	require.NoError(t, store.Insert(ctx, newer))

	retrieved, err := store.GetLatestByMint(ctx, "mint1")
	require.NoError(t, err)
	assert.Equal(t, "NEW", retrieved.Symbol)
}

func TestTokenSnapshotStore_GetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenSnapshotStore(pool)

	for _, capturedAt := range []int64{1000, 3000, 2000} {
		snap := &domain.TokenSnapshot{Mint: "mint1", CapturedAt: capturedAt}
		require.NoError(t, store.Insert(ctx, snap))
	}
	require.NoError(t, store.Insert(ctx, &domain.TokenSnapshot{Mint: "mint2", CapturedAt: 5000}))

	result, err := store.GetByMint(ctx, "mint1", 0)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, int64(3000), result[0].CapturedAt, "newest first")
	assert.Equal(t, int64(1000), result[2].CapturedAt)

	limited, err := store.GetByMint(ctx, "mint1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestTokenSnapshotStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenSnapshotStore(pool)

	for _, capturedAt := range []int64{1000, 2000, 3000, 4000} {
		snap := &domain.TokenSnapshot{Mint: "mint1", CapturedAt: capturedAt}
		require.NoError(t, store.Insert(ctx, snap))
	}

	result, err := store.GetByTimeRange(ctx, 2000, 3000)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, int64(2000), result[0].CapturedAt, "ascending order")
	assert.Equal(t, int64(3000), result[1].CapturedAt)
}

func TestTokenSnapshotStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenSnapshotStore(pool)

	_, err := store.GetLatestByMint(ctx, "nonexistent")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestTokenSnapshotStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenSnapshotStore(pool)

	err := store.Insert(ctx, nil)
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))

	err = store.Insert(ctx, &domain.TokenSnapshot{Mint: ""})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}
