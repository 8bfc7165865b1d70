package domain

// TrainingRow is one flattened observation for model training: the token
// context at build time crossed with a single recent trade.
// Corresponds to the training_rows table in ClickHouse.
type TrainingRow struct {
	RunID  string // training data build run identifier
	Mint   string
	Pair   string
	Symbol string

	// Context: security
	CtxNoMint          bool
	CtxFreezeAuthority bool
	CtxMutableMetadata bool
	CtxNonTransferable bool
	CtxTransferFee     bool
	CtxFakeToken       bool
	CtxBurntPercent    float64
	CtxTopHoldersPct   float64
	CtxTop10HolderPct  float64
	CtxTop1HolderPct   float64
	CtxTop5HolderPct   float64

	// Context: creator and lifecycle
	CtxCreatorAddress    string
	CtxTokenCreationTime *int64 // Unix ms
	CtxPoolCreationTime  *int64 // Unix ms
	CtxTotalSupply       float64

	// Context: market
	CtxLiquidityUSD   *float64
	CtxLiqFDVRatioPct *float64
	CtxMarketCapUSD   *float64
	CtxSocials        string // flattened "type: url" pairs
	CtxWebsites       string

	// Trade
	BlockTime        int64 // Unix ms
	TradeAmountToken float64
	TradePriceUSD    float64
	TradeSideAmount  float64
	TradeSideSymbol  string
	TradeSideType    string // "buy" | "sell"
	TxSignature      string
	Maker            string
	MakerAgeDays     int64   // negative ages are normalized to 0
	MarketCapUSD     float64 // trade price * total supply

	CreatedAt int64 // Unix ms
}

// TokenSnapshot is a point-in-time capture of a token's market state,
// persisted on every collector pass. Corresponds to token_snapshots in
// PostgreSQL.
type TokenSnapshot struct {
	ID                 int64
	RunID              string
	Mint               string
	Pair               string
	Symbol             string
	PriceUSD           *float64
	LiquidityUSD       *float64
	MarketCapUSD       *float64
	FDV                float64
	Volume24hUSD       *float64
	NoMint             bool
	FreezeAuthority    bool
	MutableMetadata    bool
	NonTransferable    bool
	TransferFee        bool
	BurntPercent       float64
	Top1HolderPercent  float64
	Top5HolderPercent  float64
	Top10HolderPercent float64
	CapturedAt         int64 // Unix ms
	CreatedAt          int64 // Unix ms
}
