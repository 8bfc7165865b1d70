package birdeye

// TokenSecurity is the defi/token_security response. Optional fields are
// pointers: Birdeye omits them for tokens it has not fully indexed.
type TokenSecurity struct {
	CreatorAddress     *string  `json:"creatorAddress"`
	CreatorBalance     float64  `json:"creatorBalance"`
	CreatorPercentage  float64  `json:"creatorPercentage"`
	CreationTx         *string  `json:"creationTx"`
	CreationTime       *int64   `json:"creationTime"`
	MintTx             *string  `json:"mintTx"`
	MintTime           *int64   `json:"mintTime"`
	OwnerBalance       *float64 `json:"ownerBalance"`
	TotalSupply        float64  `json:"totalSupply"`
	Top10HolderBalance float64  `json:"top10HolderBalance"`
	Top10HolderPercent float64  `json:"top10HolderPercent"` // fraction, not percent
	MutableMetadata    *bool    `json:"mutableMetadata"`
	FreezeAuthority    *string  `json:"freezeAuthority"`
	NonTransferable    *bool    `json:"nonTransferable"`
	FakeToken          *bool    `json:"fakeToken"`
	IsTrueToken        *bool    `json:"isTrueToken"`
	PreMarketHolder    []string `json:"preMarketHolder"`
	TransferFeeEnable  *bool    `json:"transferFeeEnable"`
}

// TopHoldersPercent is the share of supply held outside the ten largest
// holders, the creator and the owner, clamped at zero.
func (s *TokenSecurity) TopHoldersPercent() float64 {
	if s.TotalSupply <= 0 {
		return 0
	}
	owner := 0.0
	if s.OwnerBalance != nil {
		owner = *s.OwnerBalance
	}
	held := s.Top10HolderBalance + s.CreatorBalance + owner
	pct := (s.TotalSupply - held) / s.TotalSupply * 100
	if pct < 0 {
		pct = 0
	}
	return pct
}

// PairOverview is the defi/v3/pair/overview/single response.
type PairOverview struct {
	Address         string   `json:"address"`
	Name            string   `json:"name"`
	Liquidity       *float64 `json:"liquidity"`
	Price           *float64 `json:"price"`
	Volume24h       *float64 `json:"volume_24h"`
	UniqueWallet24h *int64   `json:"unique_wallet_24h"`
	Trade24h        *int64   `json:"trade_24h"`
}

// walletPortfolio is the v1/wallet/token_list response.
type walletPortfolio struct {
	Wallet   string  `json:"wallet"`
	TotalUSD float64 `json:"totalUsd"`
	Items    []struct {
		Address  string  `json:"address"`
		Symbol   string  `json:"symbol"`
		Balance  float64 `json:"uiAmount"`
		ValueUSD float64 `json:"valueUsd"`
	} `json:"items"`
}

// walletTxList is the v1/wallet/tx_list response.
type walletTxList struct {
	Solana []walletTx `json:"solana"`
}

type walletTx struct {
	TxHash        string `json:"txHash"`
	BlockTime     string `json:"blockTime"`
	Status        bool   `json:"status"`
	BalanceChange []struct {
		Address  string  `json:"address"`
		Symbol   string  `json:"symbol"`
		Amount   float64 `json:"amount"`
		Decimals int     `json:"decimals"`
	} `json:"balanceChange"`
}
