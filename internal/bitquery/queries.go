package bitquery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"memecoin-lab/internal/domain"
)

const recentTransfersQuery = `
query ($mintAddress: String!, $limit: Int!) {
  Solana(network: solana) {
    Transfers(
      where: { Transfer: { Currency: { MintAddress: { is: $mintAddress }}}},
      limit: { count: $limit }
    ) {
      Transfer {
        Amount
        AmountInUSD
        Currency {
          MintAddress
          Name
          Symbol
        }
        Sender {
          Address
        }
        Receiver {
          Address
        }
      }
      Block {
        Time
      }
      Transaction {
        Signature
      }
    }
  }
}`

// RecentTransfers returns the most recent transfers of a token.
func (c *Client) RecentTransfers(ctx context.Context, mint string, limit int) ([]domain.Transfer, error) {
	var result struct {
		Solana struct {
			Transfers []struct {
				Transfer struct {
					Amount      number `json:"Amount"`
					AmountInUSD number `json:"AmountInUSD"`
					Currency    struct {
						MintAddress string `json:"MintAddress"`
						Name        string `json:"Name"`
						Symbol      string `json:"Symbol"`
					} `json:"Currency"`
					Sender struct {
						Address string `json:"Address"`
					} `json:"Sender"`
					Receiver struct {
						Address string `json:"Address"`
					} `json:"Receiver"`
				} `json:"Transfer"`
				Block struct {
					Time string `json:"Time"`
				} `json:"Block"`
				Transaction struct {
					Signature string `json:"Signature"`
				} `json:"Transaction"`
			} `json:"Transfers"`
		} `json:"Solana"`
	}

	variables := map[string]interface{}{
		"mintAddress": mint,
		"limit":       limit,
	}

	if err := c.query(ctx, "recent_transfers", recentTransfersQuery, variables, &result); err != nil {
		return nil, err
	}

	transfers := make([]domain.Transfer, len(result.Solana.Transfers))
	for i, t := range result.Solana.Transfers {
		transfers[i] = domain.Transfer{
			Mint:      t.Transfer.Currency.MintAddress,
			Name:      t.Transfer.Currency.Name,
			Symbol:    t.Transfer.Currency.Symbol,
			Amount:    float64(t.Transfer.Amount),
			AmountUSD: float64(t.Transfer.AmountInUSD),
			Sender:    t.Transfer.Sender.Address,
			Receiver:  t.Transfer.Receiver.Address,
			BlockTime: parseBlockTime(t.Block.Time),
			Signature: t.Transaction.Signature,
		}
	}
	return transfers, nil
}

const mintAddressByNameQuery = `
query ($coinName: String!) {
  Solana {
    DEXTrades(
      orderBy: { descending: Block_Time }
      limit: { count: 1 }
      limitBy: { by: Trade_Buy_Currency_MintAddress, count: 1 }
      where: { Trade: { Buy: { Currency: { Name: { is: $coinName } } } } }
    ) {
      Trade {
        Buy {
          Currency {
            Name
            Symbol
            MintAddress
          }
        }
      }
    }
  }
}`

// ErrTokenNotFound is returned when no token matches the requested name.
var ErrTokenNotFound = fmt.Errorf("token not found")

// MintAddressByName resolves a token name to its mint address using the
// most recently traded token carrying that name.
func (c *Client) MintAddressByName(ctx context.Context, name string) (string, error) {
	var result struct {
		Solana struct {
			DEXTrades []struct {
				Trade struct {
					Buy struct {
						Currency struct {
							MintAddress string `json:"MintAddress"`
						} `json:"Currency"`
					} `json:"Buy"`
				} `json:"Trade"`
			} `json:"DEXTrades"`
		} `json:"Solana"`
	}

	variables := map[string]interface{}{"coinName": name}

	if err := c.query(ctx, "mint_by_name", mintAddressByNameQuery, variables, &result); err != nil {
		return "", err
	}

	if len(result.Solana.DEXTrades) == 0 {
		return "", ErrTokenNotFound
	}
	return result.Solana.DEXTrades[0].Trade.Buy.Currency.MintAddress, nil
}

const pairStatsQuery = `
query Q($token: String!, $side_token: String!, $pair_address: String!, $time_5min_ago: DateTime!, $time_1h_ago: DateTime!) {
  Solana(dataset: realtime) {
    DEXTradeByTokens(
      where: { Transaction: { Result: { Success: true } }, Trade: { Currency: { MintAddress: { is: $token }}, Side: { Currency: { MintAddress: { is: $side_token }}}, Market: { MarketAddress: { is: $pair_address }}}, Block: { Time: { since: $time_1h_ago }}}
    ) {
      Trade {
        Currency {
          Name
          MintAddress
          Symbol
          UpdateAuthority
          IsMutable
        }
        start: PriceInUSD(minimum: Block_Time)
        min5: PriceInUSD(
          minimum: Block_Time
          if: { Block: { Time: { after: $time_5min_ago }}}
        )
        end: PriceInUSD(maximum: Block_Time)
        Dex {
          ProtocolName
          ProtocolFamily
        }
        Market {
          MarketAddress
        }
      }
      makers: count(distinct: Transaction_Signer)
      makers_5min: count(
        distinct: Transaction_Signer
        if: { Block: { Time: { after: $time_5min_ago }}}
      )
      buyers: count(
        distinct: Transaction_Signer
        if: { Trade: { Side: { Type: { is: buy }}}}
      )
      buyers_5min: count(
        distinct: Transaction_Signer
        if: { Trade: { Side: { Type: { is: buy }}}, Block: { Time: { after: $time_5min_ago }}}
      )
      sellers: count(
        distinct: Transaction_Signer
        if: { Trade: { Side: { Type: { is: sell }}}}
      )
      sellers_5min: count(
        distinct: Transaction_Signer
        if: { Trade: { Side: { Type: { is: sell }}}, Block: { Time: { after: $time_5min_ago }}}
      )
      trades: count
      trades_5min: count(if: { Block: { Time: { after: $time_5min_ago }}})
      traded_volume: sum(of: Trade_Side_AmountInUSD)
      traded_volume_5min: sum(
        of: Trade_Side_AmountInUSD
        if: { Block: { Time: { after: $time_5min_ago }}}
      )
      buy_volume: sum(
        of: Trade_Side_AmountInUSD
        if: { Trade: { Side: { Type: { is: buy }}}}
      )
      buy_volume_5min: sum(
        of: Trade_Side_AmountInUSD
        if: { Trade: { Side: { Type: { is: buy }}}, Block: { Time: { after: $time_5min_ago }}}
      )
      sell_volume: sum(
        of: Trade_Side_AmountInUSD
        if: { Trade: { Side: { Type: { is: sell }}}}
      )
      sell_volume_5min: sum(
        of: Trade_Side_AmountInUSD
        if: { Trade: { Side: { Type: { is: sell }}}, Block: { Time: { after: $time_5min_ago }}}
      )
      buys: count(if: { Trade: { Side: { Type: { is: buy }}}})
      buys_5min: count(
        if: { Trade: { Side: { Type: { is: buy }}}, Block: { Time: { after: $time_5min_ago }}}
      )
      sells: count(if: { Trade: { Side: { Type: { is: sell }}}})
      sells_5min: count(
        if: { Trade: { Side: { Type: { is: sell }}}, Block: { Time: { after: $time_5min_ago }}}
      )
    }
  }
}`

type pairStatsEntry struct {
	Trade struct {
		Currency struct {
			Name            string `json:"Name"`
			MintAddress     string `json:"MintAddress"`
			Symbol          string `json:"Symbol"`
			UpdateAuthority string `json:"UpdateAuthority"`
			IsMutable       bool   `json:"IsMutable"`
		} `json:"Currency"`
		Start number `json:"start"`
		Min5  number `json:"min5"`
		End   number `json:"end"`
		Dex   struct {
			ProtocolName   string `json:"ProtocolName"`
			ProtocolFamily string `json:"ProtocolFamily"`
		} `json:"Dex"`
		Market struct {
			MarketAddress string `json:"MarketAddress"`
		} `json:"Market"`
	} `json:"Trade"`
	Makers           integer `json:"makers"`
	Makers5Min       integer `json:"makers_5min"`
	Buyers           integer `json:"buyers"`
	Buyers5Min       integer `json:"buyers_5min"`
	Sellers          integer `json:"sellers"`
	Sellers5Min      integer `json:"sellers_5min"`
	Trades           integer `json:"trades"`
	Trades5Min       integer `json:"trades_5min"`
	TradedVolume     number  `json:"traded_volume"`
	TradedVolume5Min number  `json:"traded_volume_5min"`
	BuyVolume        number  `json:"buy_volume"`
	BuyVolume5Min    number  `json:"buy_volume_5min"`
	SellVolume       number  `json:"sell_volume"`
	SellVolume5Min   number  `json:"sell_volume_5min"`
	Buys             integer `json:"buys"`
	Buys5Min         integer `json:"buys_5min"`
	Sells            integer `json:"sells"`
	Sells5Min        integer `json:"sells_5min"`
}

// ErrNoTrades is returned when a pair has no trades in the query window.
var ErrNoTrades = fmt.Errorf("no trades in window")

// PairStats returns trade aggregates for a pair over the hour ending at
// the given time, with a trailing five-minute sub-window. A zero time
// means now.
func (c *Client) PairStats(ctx context.Context, mint, pair, sideToken string, at time.Time) (*domain.PairStats, error) {
	if sideToken == "" {
		sideToken = domain.WrappedSOLMint
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	variables := map[string]interface{}{
		"token":         mint,
		"pair_address":  pair,
		"side_token":    sideToken,
		"time_5min_ago": at.Add(-5 * time.Minute).UTC().Format(time.RFC3339),
		"time_1h_ago":   at.Add(-1 * time.Hour).UTC().Format(time.RFC3339),
	}

	var result struct {
		Solana struct {
			DEXTradeByTokens []pairStatsEntry `json:"DEXTradeByTokens"`
		} `json:"Solana"`
	}

	if err := c.query(ctx, "pair_stats", pairStatsQuery, variables, &result); err != nil {
		return nil, err
	}

	if len(result.Solana.DEXTradeByTokens) == 0 {
		return nil, ErrNoTrades
	}

	e := result.Solana.DEXTradeByTokens[0]
	return &domain.PairStats{
		Mint:      e.Trade.Currency.MintAddress,
		Pair:      e.Trade.Market.MarketAddress,
		SideToken: sideToken,

		Name:              e.Trade.Currency.Name,
		Symbol:            e.Trade.Currency.Symbol,
		UpdateAuthority:   e.Trade.Currency.UpdateAuthority,
		IsMutable:         e.Trade.Currency.IsMutable,
		DexProtocolName:   e.Trade.Dex.ProtocolName,
		DexProtocolFamily: e.Trade.Dex.ProtocolFamily,

		StartPriceUSD: float64(e.Trade.Start),
		Price5MinUSD:  float64(e.Trade.Min5),
		EndPriceUSD:   float64(e.Trade.End),

		Makers:      int64(e.Makers),
		Makers5Min:  int64(e.Makers5Min),
		Buyers:      int64(e.Buyers),
		Buyers5Min:  int64(e.Buyers5Min),
		Sellers:     int64(e.Sellers),
		Sellers5Min: int64(e.Sellers5Min),
		Trades:      int64(e.Trades),
		Trades5Min:  int64(e.Trades5Min),
		Buys:        int64(e.Buys),
		Buys5Min:    int64(e.Buys5Min),
		Sells:       int64(e.Sells),
		Sells5Min:   int64(e.Sells5Min),

		TradedVolumeUSD:     float64(e.TradedVolume),
		TradedVolume5MinUSD: float64(e.TradedVolume5Min),
		BuyVolumeUSD:        float64(e.BuyVolume),
		BuyVolume5MinUSD:    float64(e.BuyVolume5Min),
		SellVolumeUSD:       float64(e.SellVolume),
		SellVolume5MinUSD:   float64(e.SellVolume5Min),
	}, nil
}

const recentPairTradesQuery = `
query Q($token: String!, $side_token: String!, $pair_address: String!, $limit: Int!) {
  Solana {
    DEXTradeByTokens(
      orderBy: { descending: Block_Time }
      limit: { count: $limit }
      where: { Trade: { Currency: { MintAddress: { is: $token }}, Side: { Currency: { MintAddress: { is: $side_token }}}, Market: { MarketAddress: { is: $pair_address }}}, Transaction: { Result: { Success: true }}}
    ) {
      Block {
        Time
      }
      Trade {
        Currency {
          Name
          Symbol
        }
        Amount
        PriceAgainstSideCurrency: Price
        PriceInUSD
        Side {
          Currency {
            Name
            Symbol
          }
          Amount
          Type
        }
      }
      Transaction {
        Maker: Signer
        Signature
      }
    }
  }
}`

// RecentPairTrades returns the most recent successful trades for a pair,
// newest first.
func (c *Client) RecentPairTrades(ctx context.Context, mint, pair, sideToken string, limit int) ([]domain.PairTrade, error) {
	if sideToken == "" {
		sideToken = domain.WrappedSOLMint
	}
	if limit <= 0 {
		limit = 100
	}

	variables := map[string]interface{}{
		"token":        mint,
		"pair_address": pair,
		"side_token":   sideToken,
		"limit":        limit,
	}

	var result struct {
		Solana struct {
			DEXTradeByTokens []struct {
				Block struct {
					Time string `json:"Time"`
				} `json:"Block"`
				Trade struct {
					Currency struct {
						Name   string `json:"Name"`
						Symbol string `json:"Symbol"`
					} `json:"Currency"`
					Amount                   number `json:"Amount"`
					PriceAgainstSideCurrency number `json:"PriceAgainstSideCurrency"`
					PriceInUSD               number `json:"PriceInUSD"`
					Side                     struct {
						Currency struct {
							Name   string `json:"Name"`
							Symbol string `json:"Symbol"`
						} `json:"Currency"`
						Amount number `json:"Amount"`
						Type   string `json:"Type"`
					} `json:"Side"`
				} `json:"Trade"`
				Transaction struct {
					Maker     string `json:"Maker"`
					Signature string `json:"Signature"`
				} `json:"Transaction"`
			} `json:"DEXTradeByTokens"`
		} `json:"Solana"`
	}

	if err := c.query(ctx, "recent_pair_trades", recentPairTradesQuery, variables, &result); err != nil {
		return nil, err
	}

	trades := make([]domain.PairTrade, len(result.Solana.DEXTradeByTokens))
	for i, t := range result.Solana.DEXTradeByTokens {
		trades[i] = domain.PairTrade{
			BlockTime:        parseBlockTime(t.Block.Time),
			CurrencyName:     t.Trade.Currency.Name,
			CurrencySymbol:   t.Trade.Currency.Symbol,
			Amount:           float64(t.Trade.Amount),
			PriceAgainstSide: float64(t.Trade.PriceAgainstSideCurrency),
			PriceUSD:         float64(t.Trade.PriceInUSD),
			SideSymbol:       t.Trade.Side.Currency.Symbol,
			SideAmount:       float64(t.Trade.Side.Amount),
			SideType:         t.Trade.Side.Type,
			Maker:            t.Transaction.Maker,
			Signature:        t.Transaction.Signature,
		}
	}
	return trades, nil
}

const latestTokensQuery = `
query ($protocol: String!, $limit: Int!) {
  Solana {
    DEXPools(
      orderBy: { descending: Block_Time }
      limit: { count: $limit }
      where: { Pool: { Dex: { ProtocolName: { is: $protocol }}, Base: { PostAmount: { gt: "0" }}}, Transaction: { Result: { Success: true }}}
    ) {
      Block {
        Time
      }
      Pool {
        Market {
          MarketAddress
          BaseCurrency {
            Name
            Symbol
            MintAddress
          }
        }
        Base {
          PostAmount
        }
      }
    }
  }
}`

// LatestTokens returns recently created pools on a launch platform,
// deduplicated by mint keeping the pool with the highest post amount.
func (c *Client) LatestTokens(ctx context.Context, platform string, limit int) ([]domain.LatestToken, error) {
	if platform == "" {
		platform = domain.PlatformPumpFun
	}
	if limit <= 0 {
		limit = 20
	}

	variables := map[string]interface{}{
		"protocol": platform,
		// Over-fetch so deduplication by mint still fills the limit
		"limit": limit * 3,
	}

	var result struct {
		Solana struct {
			DEXPools []struct {
				Block struct {
					Time string `json:"Time"`
				} `json:"Block"`
				Pool struct {
					Market struct {
						MarketAddress string `json:"MarketAddress"`
						BaseCurrency  struct {
							Name        string `json:"Name"`
							Symbol      string `json:"Symbol"`
							MintAddress string `json:"MintAddress"`
						} `json:"BaseCurrency"`
					} `json:"Market"`
					Base struct {
						PostAmount number `json:"PostAmount"`
					} `json:"Base"`
				} `json:"Pool"`
			} `json:"DEXPools"`
		} `json:"Solana"`
	}

	if err := c.query(ctx, "latest_tokens", latestTokensQuery, variables, &result); err != nil {
		return nil, err
	}

	byMint := make(map[string]domain.LatestToken)
	for _, p := range result.Solana.DEXPools {
		token := domain.LatestToken{
			Name:         p.Pool.Market.BaseCurrency.Name,
			Symbol:       p.Pool.Market.BaseCurrency.Symbol,
			Mint:         p.Pool.Market.BaseCurrency.MintAddress,
			Pair:         p.Pool.Market.MarketAddress,
			PostAmount:   float64(p.Pool.Base.PostAmount),
			DiscoveredAt: parseBlockTime(p.Block.Time),
		}
		if token.Mint == "" {
			continue
		}
		if existing, ok := byMint[token.Mint]; !ok || token.PostAmount > existing.PostAmount {
			byMint[token.Mint] = token
		}
	}

	tokens := make([]domain.LatestToken, 0, len(byMint))
	for _, t := range byMint {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].DiscoveredAt > tokens[j].DiscoveredAt
	})
	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens, nil
}

const walletAgesQuery = `
query ($addresses: [String!]) {
  Solana(dataset: combined) {
    Transfers(
      where: { Transfer: { Receiver: { Address: { in: $addresses }}}}
      orderBy: { ascending: Block_Time }
      limitBy: { by: Transfer_Receiver_Address, count: 1 }
    ) {
      Transfer {
        Receiver {
          Address
        }
      }
      Block {
        Time
      }
    }
  }
}`

// WalletAges estimates wallet ages in days from the earliest inbound
// transfer of each address. Addresses without history map to -1.
func (c *Client) WalletAges(ctx context.Context, addresses []string) (map[string]int, error) {
	ages := make(map[string]int, len(addresses))
	for _, addr := range addresses {
		ages[addr] = -1
	}
	if len(addresses) == 0 {
		return ages, nil
	}

	variables := map[string]interface{}{"addresses": addresses}

	var result struct {
		Solana struct {
			Transfers []struct {
				Transfer struct {
					Receiver struct {
						Address string `json:"Address"`
					} `json:"Receiver"`
				} `json:"Transfer"`
				Block struct {
					Time string `json:"Time"`
				} `json:"Block"`
			} `json:"Transfers"`
		} `json:"Solana"`
	}

	if err := c.query(ctx, "wallet_ages", walletAgesQuery, variables, &result); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, t := range result.Solana.Transfers {
		firstSeen := parseBlockTime(t.Block.Time)
		if firstSeen <= 0 {
			continue
		}
		age := int(now.Sub(time.UnixMilli(firstSeen)).Hours() / 24)
		if age < 0 {
			age = 0
		}
		ages[t.Transfer.Receiver.Address] = age
	}
	return ages, nil
}
