package domain

// Coin is one row of CoinGecko market data.
type Coin struct {
	ID                string   `json:"id"`
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Image             string   `json:"image"`
	CurrentPrice      float64  `json:"current_price"`
	MarketCap         float64  `json:"market_cap"`
	MarketCapRank     *int     `json:"market_cap_rank"`
	FullyDilutedValue *float64 `json:"fully_diluted_valuation"`
	TotalVolume       float64  `json:"total_volume"`
	High24h           *float64 `json:"high_24h"`
	Low24h            *float64 `json:"low_24h"`
	PriceChange24h    *float64 `json:"price_change_24h"`
	PriceChange24hPct *float64 `json:"price_change_percentage_24h"`
	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	ATH               *float64 `json:"ath"`
	ATL               *float64 `json:"atl"`
	LastUpdated       string   `json:"last_updated"`
}

// Category is a CoinGecko coin category.
type Category struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}
