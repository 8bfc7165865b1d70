package solana

// MintInfo is the parsed state of an SPL mint account.
type MintInfo struct {
	MintAuthority   *string // nil when authority is revoked
	FreezeAuthority *string // nil when authority is revoked
	Decimals        int
	Supply          string // raw amount as decimal string
	IsInitialized   bool
}

// Mintable reports whether new tokens can still be minted.
func (m *MintInfo) Mintable() bool {
	return m.MintAuthority != nil && *m.MintAuthority != ""
}

// Freezable reports whether token accounts can be frozen.
func (m *MintInfo) Freezable() bool {
	return m.FreezeAuthority != nil && *m.FreezeAuthority != ""
}

// TokenAmount from getTokenSupply and token account balances.
type TokenAmount struct {
	Amount         string // raw amount as decimal string
	Decimals       int
	UIAmount       *float64 // nil when the amount overflows a float
	UIAmountString string
}

// TokenHolder is one entry from getTokenLargestAccounts. Address is the
// token account, not the owning wallet.
type TokenHolder struct {
	Address string
	Amount  TokenAmount
}

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}
