package domain

// WalletOverview is the Birdeye portfolio view of a wallet.
type WalletOverview struct {
	Address     string
	NetWorthUSD float64
	RequestedAt int64 // Unix ms
}

// WalletTrade is a single trade made by a wallet.
type WalletTrade struct {
	BlockTime int64 // Unix ms
	Mint      string
	Symbol    string
	Side      string // "buy" | "sell"
	Amount    float64
	AmountUSD float64
	PriceUSD  float64
	Signature string
}

// WalletAge records the estimated age of a wallet, derived from its
// earliest observed activity. AgeDays is -1 when no activity was found.
type WalletAge struct {
	Address   string
	AgeDays   int64
	FirstSeen *int64 // Unix ms, nil when unknown
	FetchedAt int64  // Unix ms
}

// WalletKind classifies a Solana address by its ed25519 curve membership.
type WalletKind string

const (
	// WalletKindUser is an on-curve address controlled by a keypair.
	WalletKindUser WalletKind = "user"
	// WalletKindProgram is an off-curve program derived address.
	WalletKindProgram WalletKind = "program"
	// WalletKindInvalid is a string that does not decode to a 32-byte key.
	WalletKindInvalid WalletKind = "invalid"
)
