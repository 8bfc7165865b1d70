package domain

// LinkRef is a social or website link attached to a token listing.
type LinkRef struct {
	Type string
	URL  string
}

// PairTxns holds buy/sell transaction counts for one Dexscreener window.
type PairTxns struct {
	Buys  int64
	Sells int64
}

// TokenSummary aggregates on-chain, Birdeye and Dexscreener views of a
// token pair into one record. Nullable fields use pointers: a nil value
// means the upstream source did not report it.
type TokenSummary struct {
	Mint string
	Pair string

	// On-chain (Solana RPC)
	NoMint            bool    // mint authority revoked
	FreezeAuthority   bool    // freeze authority still present
	Supply            float64 // UI amount from getTokenSupply
	BurntPercent      float64 // share of supply held by burn wallets
	Top1HolderPercent float64
	Top5HolderPercent float64

	// Birdeye token security
	TopHoldersPercent  float64 // supply outside top10+creator+owner, percent
	CreatorAddress     *string
	CreationTx         *string
	CreationTime       *int64 // Unix ms
	MintTx             *string
	MintTime           *int64 // Unix ms
	TotalSupply        float64
	MutableMetadata    *bool
	Top10HolderPercent float64
	CreatorPercentage  float64
	NonTransferable    *bool
	FakeToken          *bool
	IsTrueToken        *bool
	PreMarketHolders   int
	TransferFeeEnable  *bool

	// Birdeye pair overview
	LiquidityUSD     *float64
	PriceUSD         *float64
	Volume24hUSD     *float64
	UniqueWallets24h *int64

	// Dexscreener pair
	DexPriceUSD       *float64
	DexLiquidityUSD   float64
	DexLiquidityBase  *float64
	DexLiquidityQuote *float64
	FDV               float64
	MarketCapUSD      *float64
	LiqFDVRatioPct    *float64 // liquidity/FDV*100, nil when FDV is zero
	PairCreatedAt     *int64   // Unix ms
	VolumeH24         *float64
	VolumeH6          *float64
	VolumeH1          *float64
	VolumeM5          *float64
	TxnsM5            *PairTxns
	TxnsH1            *PairTxns
	TxnsH6            *PairTxns
	TxnsH24           *PairTxns
	PriceChangeH6     *float64
	PriceChangeH24    *float64
	Socials           []LinkRef
	Websites          []LinkRef

	FetchedAt int64 // Unix ms
}

// SafetyStatus is the condensed go/no-go view of a token.
type SafetyStatus struct {
	NoMint            bool
	BurntPercent      float64
	FreezeAuthority   bool
	DEXPaid           bool // a DEX pair with reported liquidity exists
	LiquidityUSD      *float64
	PriceUSD          *float64
	Volume24hUSD      *float64
	Top1HolderPercent float64
	Top5HolderPercent float64
}
