package birdeye

import (
	"context"
	"strconv"
	"time"

	"memecoin-lab/internal/domain"
)

// Security returns the token security report for a mint.
func (c *Client) Security(ctx context.Context, mint string) (*TokenSecurity, error) {
	var sec TokenSecurity
	err := c.get(ctx, "token_security", "/defi/token_security", map[string]string{
		"address": mint,
	}, &sec)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

// PairOverview returns market data for a liquidity pair.
func (c *Client) PairOverview(ctx context.Context, pair string) (*PairOverview, error) {
	var ov PairOverview
	err := c.get(ctx, "pair_overview", "/defi/v3/pair/overview/single", map[string]string{
		"address":        pair,
		"ui_amount_mode": "scaled",
	}, &ov)
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

// TokenSupply returns the total supply as reported by the security
// endpoint.
func (c *Client) TokenSupply(ctx context.Context, mint string) (float64, error) {
	sec, err := c.Security(ctx, mint)
	if err != nil {
		return 0, err
	}
	return sec.TotalSupply, nil
}

// WalletOverview returns the net worth of a wallet from its token
// portfolio.
func (c *Client) WalletOverview(ctx context.Context, address string) (*domain.WalletOverview, error) {
	var portfolio walletPortfolio
	err := c.get(ctx, "wallet_overview", "/v1/wallet/token_list", map[string]string{
		"wallet": address,
	}, &portfolio)
	if err != nil {
		return nil, err
	}

	return &domain.WalletOverview{
		Address:     address,
		NetWorthUSD: portfolio.TotalUSD,
		RequestedAt: time.Now().UnixMilli(),
	}, nil
}

// WalletTrades returns recent trades of a wallet, newest first, up to max
// entries. Failed transactions and transfers without a counter-leg are
// skipped.
func (c *Client) WalletTrades(ctx context.Context, address string, max int) ([]domain.WalletTrade, error) {
	if max <= 0 {
		max = 100
	}

	var txList walletTxList
	err := c.get(ctx, "wallet_trades", "/v1/wallet/tx_list", map[string]string{
		"wallet": address,
		"limit":  strconv.Itoa(max),
	}, &txList)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.WalletTrade, 0, len(txList.Solana))
	for _, tx := range txList.Solana {
		if !tx.Status {
			continue
		}
		trade, ok := parseWalletTrade(tx)
		if !ok {
			continue
		}
		trades = append(trades, trade)
		if len(trades) >= max {
			break
		}
	}
	return trades, nil
}

// parseWalletTrade interprets a two-sided balance change as a swap. The
// non-SOL leg determines the traded token; its sign determines the side.
func parseWalletTrade(tx walletTx) (domain.WalletTrade, bool) {
	var trade domain.WalletTrade

	if len(tx.BalanceChange) < 2 {
		return trade, false
	}

	tokenIdx, sideIdx := -1, -1
	for i, leg := range tx.BalanceChange {
		if leg.Address == domain.WrappedSOLMint || leg.Symbol == "SOL" {
			sideIdx = i
		} else if tokenIdx == -1 {
			tokenIdx = i
		}
	}
	if tokenIdx == -1 || sideIdx == -1 {
		return trade, false
	}
	tokenLeg := tx.BalanceChange[tokenIdx]

	amount := tokenLeg.Amount
	side := domain.SideBuy
	if amount < 0 {
		amount = -amount
		side = domain.SideSell
	}
	if tokenLeg.Decimals > 0 {
		scale := 1.0
		for i := 0; i < tokenLeg.Decimals; i++ {
			scale *= 10
		}
		amount /= scale
	}

	blockTime, err := time.Parse(time.RFC3339, tx.BlockTime)
	if err != nil {
		return trade, false
	}

	trade = domain.WalletTrade{
		BlockTime: blockTime.UnixMilli(),
		Mint:      tokenLeg.Address,
		Symbol:    tokenLeg.Symbol,
		Side:      side,
		Amount:    amount,
		Signature: tx.TxHash,
	}
	return trade, true
}
