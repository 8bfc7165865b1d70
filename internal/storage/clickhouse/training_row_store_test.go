package clickhouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/storage"
)

func sampleTrainingRow(runID, pair, signature string, blockTime int64) *domain.TrainingRow {
	return &domain.TrainingRow{
		RunID:  runID,
		Mint:   "mint1",
		Pair:   pair,
		Symbol: "TT",

		CtxNoMint:            true,
		CtxBurntPercent:      12.5,
		CtxTopHoldersPct:     35.0,
		CtxTop10HolderPct:    42.0,
		CtxTop1HolderPct:     15.0,
		CtxTop5HolderPct:     30.0,
		CtxCreatorAddress:    "creator1",
		CtxTokenCreationTime: ptr(int64(1704067000000)),
		CtxTotalSupply:       1000000,
		CtxLiquidityUSD:      ptr(50000.0),
		CtxLiqFDVRatioPct:    ptr(25.0),
		CtxSocials:           "twitter: https://x.com/token",
		CtxWebsites:          "website: https://token.example",

		BlockTime:        blockTime,
		TradeAmountToken: 1500,
		TradePriceUSD:    0.002,
		TradeSideAmount:  0.5,
		TradeSideSymbol:  "WSOL",
		TradeSideType:    domain.SideBuy,
		TxSignature:      signature,
		Maker:            "maker1",
		MakerAgeDays:     120,
		MarketCapUSD:     2000,

		CreatedAt: 1704067200000,
	}
}

func TestTrainingRowStore_InsertBulkAndGetByRunID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrainingRowStore(conn)
	ctx := context.Background()

	rows := []*domain.TrainingRow{
		sampleTrainingRow("run1", "pair1", "sig2", 2000),
		sampleTrainingRow("run1", "pair1", "sig1", 1000),
		sampleTrainingRow("run1", "pair1", "sig3", 3000),
	}
	err := store.InsertBulk(ctx, rows)
	require.NoError(t, err)

	got, err := store.GetByRunID(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by block time ascending
	assert.Equal(t, int64(1000), got[0].BlockTime)
	assert.Equal(t, int64(3000), got[2].BlockTime)

	first := got[0]
	assert.Equal(t, "mint1", first.Mint)
	assert.True(t, first.CtxNoMint)
	assert.Equal(t, 12.5, first.CtxBurntPercent)
	assert.Equal(t, "creator1", first.CtxCreatorAddress)
	require.NotNil(t, first.CtxTokenCreationTime)
	assert.Equal(t, int64(1704067000000), *first.CtxTokenCreationTime)
	assert.Nil(t, first.CtxPoolCreationTime)
	require.NotNil(t, first.CtxLiquidityUSD)
	assert.Equal(t, 50000.0, *first.CtxLiquidityUSD)
	assert.Nil(t, first.CtxMarketCapUSD)
	assert.Equal(t, "twitter: https://x.com/token", first.CtxSocials)
	assert.Equal(t, domain.SideBuy, first.TradeSideType)
	assert.Equal(t, int64(120), first.MakerAgeDays)
	assert.Equal(t, 2000.0, first.MarketCapUSD)
}

func TestTrainingRowStore_GetByPair(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrainingRowStore(conn)
	ctx := context.Background()

	rows := []*domain.TrainingRow{
		sampleTrainingRow("run1", "pair1", "sig1", 1000),
		sampleTrainingRow("run1", "pair1", "sig2", 3000),
		sampleTrainingRow("run2", "pair2", "sig3", 2000),
	}
	require.NoError(t, store.InsertBulk(ctx, rows))

	got, err := store.GetByPair(ctx, "pair1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sig2", got[0].TxSignature, "newest first")

	limited, err := store.GetByPair(ctx, "pair1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTrainingRowStore_ListRuns(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrainingRowStore(conn)
	ctx := context.Background()

	run1 := []*domain.TrainingRow{
		sampleTrainingRow("run1", "pair1", "sig1", 1000),
		sampleTrainingRow("run1", "pair1", "sig2", 2000),
	}
	run2 := []*domain.TrainingRow{
		sampleTrainingRow("run2", "pair2", "sig3", 3000),
	}
	for i := range run2 {
		run2[i].CreatedAt = 1704067300000
	}
	require.NoError(t, store.InsertBulk(ctx, run1))
	require.NoError(t, store.InsertBulk(ctx, run2))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run2", runs[0].RunID, "newest run first")
	assert.Equal(t, 1, runs[0].Rows)
	assert.Equal(t, "run1", runs[1].RunID)
	assert.Equal(t, 2, runs[1].Rows)
	assert.Equal(t, "pair1", runs[1].Pair)
	assert.Equal(t, "TT", runs[1].Symbol)
}

func TestTrainingRowStore_InsertBulk_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrainingRowStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.TrainingRow{{RunID: ""}})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))

	// Empty batch is a no-op
	assert.NoError(t, store.InsertBulk(ctx, nil))
}
