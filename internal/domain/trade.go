package domain

// PairTrade is a single DEX trade for a token pair as reported by BitQuery.
type PairTrade struct {
	BlockTime        int64 // Unix ms
	CurrencyName     string
	CurrencySymbol   string
	Amount           float64 // base token amount
	PriceAgainstSide float64 // price in quote token
	PriceUSD         float64
	SideSymbol       string
	SideAmount       float64 // quote token amount
	SideType         string  // "buy" | "sell"
	Maker            string  // transaction signer
	Signature        string
}

// Transfer is a token transfer as reported by BitQuery.
type Transfer struct {
	Mint      string
	Name      string
	Symbol    string
	Amount    float64
	AmountUSD float64
	Sender    string
	Receiver  string
	BlockTime int64 // Unix ms
	Signature string
}

// PairStats holds windowed trade aggregates for a pair: counts and volumes
// over the last hour with a trailing five-minute sub-window.
type PairStats struct {
	Mint      string
	Pair      string
	SideToken string

	Name              string
	Symbol            string
	UpdateAuthority   string
	IsMutable         bool
	DexProtocolName   string
	DexProtocolFamily string

	StartPriceUSD float64 // earliest price in window
	Price5MinUSD  float64 // earliest price within last 5 minutes
	EndPriceUSD   float64 // latest price in window

	Makers      int64
	Makers5Min  int64
	Buyers      int64
	Buyers5Min  int64
	Sellers     int64
	Sellers5Min int64
	Trades      int64
	Trades5Min  int64
	Buys        int64
	Buys5Min    int64
	Sells       int64
	Sells5Min   int64

	TradedVolumeUSD     float64
	TradedVolume5MinUSD float64
	BuyVolumeUSD        float64
	BuyVolume5MinUSD    float64
	SellVolumeUSD       float64
	SellVolume5MinUSD   float64
}

// LatestToken is a recently launched token discovered from pool creations,
// deduplicated by mint keeping the pool with the highest post amount.
type LatestToken struct {
	Name         string
	Symbol       string
	Mint         string
	Pair         string
	PostAmount   float64 // base token amount in the pool after creation
	DiscoveredAt int64   // Unix ms
}
