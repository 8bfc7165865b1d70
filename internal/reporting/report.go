package reporting

import (
	"time"

	"memecoin-lab/internal/dataset"
	"memecoin-lab/internal/domain"
)

// TokenReport is the rendered view of one token: security posture, market
// state, condensed safety status and stored history.
type TokenReport struct {
	GeneratedAt time.Time

	Mint   string
	Pair   string
	Symbol string

	Security SecuritySection
	Market   MarketSection
	Status   StatusSection

	// Snapshot history, newest first
	SnapshotHistory []SnapshotRow

	// Recently discovered tokens, newest first
	RecentTokens []RecentTokenRow
}

// SecuritySection contains authority and holder concentration facts.
type SecuritySection struct {
	NoMint             bool
	FreezeAuthority    bool
	MutableMetadata    *bool
	NonTransferable    *bool
	TransferFeeEnable  *bool
	FakeToken          *bool
	BurntPercent       float64
	Top1HolderPercent  float64
	Top5HolderPercent  float64
	Top10HolderPercent float64
	TopHoldersPercent  float64
	CreatorAddress     *string
	CreatorPercentage  float64
	CreationTime       *int64 // Unix ms
	PreMarketHolders   int
}

// MarketSection contains price, liquidity and listing facts.
type MarketSection struct {
	PriceUSD       *float64
	LiquidityUSD   *float64
	Volume24hUSD   *float64
	FDV            float64
	MarketCapUSD   *float64
	LiqFDVRatioPct *float64
	PairCreatedAt  *int64 // Unix ms
	Socials        []domain.LinkRef
	Websites       []domain.LinkRef
}

// StatusSection is the condensed go/no-go view.
type StatusSection struct {
	NoMint            bool
	FreezeAuthority   bool
	DEXPaid           bool
	BurntPercent      float64
	LiquidityUSD      *float64
	PriceUSD          *float64
	Volume24hUSD      *float64
	Top1HolderPercent float64
	Top5HolderPercent float64
}

// SnapshotRow is one stored snapshot in the history table.
type SnapshotRow struct {
	CapturedAt         int64 // Unix ms
	PriceUSD           *float64
	LiquidityUSD       *float64
	MarketCapUSD       *float64
	Volume24hUSD       *float64
	BurntPercent       float64
	Top10HolderPercent float64
}

// RecentTokenRow is one recently discovered token.
type RecentTokenRow struct {
	Mint         string
	Symbol       string
	Pair         string
	PostAmount   float64
	DiscoveredAt int64 // Unix ms
}

// ComparisonReport presents dataset metrics side by side.
type ComparisonReport struct {
	GeneratedAt time.Time
	Datasets    []DatasetSection
}

// DatasetSection is one labeled dataset in a comparison.
type DatasetSection struct {
	Label   string
	Metrics dataset.Metrics
}
