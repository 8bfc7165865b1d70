package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a token report as Markdown string.
func RenderMarkdown(r *TokenReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Token Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Mint: `%s`", r.Mint))
	if r.Symbol != "" {
		sb.WriteString(fmt.Sprintf(" | Symbol: %s", r.Symbol))
	}
	if r.Pair != "" {
		sb.WriteString(fmt.Sprintf(" | Pair: `%s`", r.Pair))
	}
	sb.WriteString("\n\n")

	// Security
	sb.WriteString("## Security\n\n")
	sb.WriteString("| Check | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Mint Authority Revoked | %s |\n", yesNo(r.Security.NoMint)))
	sb.WriteString(fmt.Sprintf("| Freeze Authority Present | %s |\n", yesNo(r.Security.FreezeAuthority)))
	sb.WriteString(fmt.Sprintf("| Mutable Metadata | %s |\n", boolPtr(r.Security.MutableMetadata)))
	sb.WriteString(fmt.Sprintf("| Non-Transferable | %s |\n", boolPtr(r.Security.NonTransferable)))
	sb.WriteString(fmt.Sprintf("| Transfer Fee | %s |\n", boolPtr(r.Security.TransferFeeEnable)))
	sb.WriteString(fmt.Sprintf("| Fake Token | %s |\n", boolPtr(r.Security.FakeToken)))
	sb.WriteString(fmt.Sprintf("| Burnt %% | %.2f |\n", r.Security.BurntPercent))
	sb.WriteString(fmt.Sprintf("| Top 1 Holder %% | %.2f |\n", r.Security.Top1HolderPercent))
	sb.WriteString(fmt.Sprintf("| Top 5 Holders %% | %.2f |\n", r.Security.Top5HolderPercent))
	sb.WriteString(fmt.Sprintf("| Top 10 Holders %% | %.2f |\n", r.Security.Top10HolderPercent))
	sb.WriteString(fmt.Sprintf("| Creator Share | %.4f |\n", r.Security.CreatorPercentage))
	if r.Security.CreatorAddress != nil {
		sb.WriteString(fmt.Sprintf("| Creator | `%s` |\n", *r.Security.CreatorAddress))
	}
	if r.Security.CreationTime != nil {
		sb.WriteString(fmt.Sprintf("| Created | %s |\n", msTime(*r.Security.CreationTime)))
	}
	sb.WriteString(fmt.Sprintf("| Pre-Market Holders | %d |\n", r.Security.PreMarketHolders))
	sb.WriteString("\n")

	// Market
	sb.WriteString("## Market\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Price USD | %s |\n", floatPtr(r.Market.PriceUSD, 8)))
	sb.WriteString(fmt.Sprintf("| Liquidity USD | %s |\n", floatPtr(r.Market.LiquidityUSD, 2)))
	sb.WriteString(fmt.Sprintf("| Volume 24h USD | %s |\n", floatPtr(r.Market.Volume24hUSD, 2)))
	sb.WriteString(fmt.Sprintf("| FDV USD | %.2f |\n", r.Market.FDV))
	sb.WriteString(fmt.Sprintf("| Market Cap USD | %s |\n", floatPtr(r.Market.MarketCapUSD, 2)))
	sb.WriteString(fmt.Sprintf("| Liquidity/FDV %% | %s |\n", floatPtr(r.Market.LiqFDVRatioPct, 2)))
	if r.Market.PairCreatedAt != nil {
		sb.WriteString(fmt.Sprintf("| Pair Created | %s |\n", msTime(*r.Market.PairCreatedAt)))
	}
	sb.WriteString("\n")

	if len(r.Market.Socials) > 0 || len(r.Market.Websites) > 0 {
		sb.WriteString("### Links\n\n")
		for _, link := range r.Market.Websites {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", link.Type, link.URL))
		}
		for _, link := range r.Market.Socials {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", link.Type, link.URL))
		}
		sb.WriteString("\n")
	}

	// Status
	sb.WriteString("## Safety Status\n\n")
	sb.WriteString("| Check | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| No Mint | %s |\n", yesNo(r.Status.NoMint)))
	sb.WriteString(fmt.Sprintf("| Freeze Authority | %s |\n", yesNo(r.Status.FreezeAuthority)))
	sb.WriteString(fmt.Sprintf("| DEX Paid | %s |\n", yesNo(r.Status.DEXPaid)))
	sb.WriteString(fmt.Sprintf("| Burnt %% | %.2f |\n", r.Status.BurntPercent))
	sb.WriteString(fmt.Sprintf("| Liquidity USD | %s |\n", floatPtr(r.Status.LiquidityUSD, 2)))
	sb.WriteString(fmt.Sprintf("| Price USD | %s |\n", floatPtr(r.Status.PriceUSD, 8)))
	sb.WriteString(fmt.Sprintf("| Volume 24h USD | %s |\n", floatPtr(r.Status.Volume24hUSD, 2)))
	sb.WriteString("\n")

	// Snapshot History
	sb.WriteString("## Snapshot History\n\n")
	if len(r.SnapshotHistory) > 0 {
		sb.WriteString("| Captured | Price | Liquidity | Market Cap | Volume 24h | Burnt% | Top10% |\n")
		sb.WriteString("|----------|-------|-----------|------------|------------|--------|--------|\n")
		for _, s := range r.SnapshotHistory {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %.2f | %.2f |\n",
				msTime(s.CapturedAt),
				floatPtr(s.PriceUSD, 8), floatPtr(s.LiquidityUSD, 2),
				floatPtr(s.MarketCapUSD, 2), floatPtr(s.Volume24hUSD, 2),
				s.BurntPercent, s.Top10HolderPercent))
		}
	} else {
		sb.WriteString("No snapshots stored.\n")
	}
	sb.WriteString("\n")

	// Recent Tokens
	sb.WriteString("## Recently Discovered Tokens\n\n")
	if len(r.RecentTokens) > 0 {
		sb.WriteString("| Symbol | Mint | Pair | Post Amount | Discovered |\n")
		sb.WriteString("|--------|------|------|-------------|------------|\n")
		for _, t := range r.RecentTokens {
			sb.WriteString(fmt.Sprintf("| %s | `%s` | `%s` | %.2f | %s |\n",
				t.Symbol, t.Mint, t.Pair, t.PostAmount, msTime(t.DiscoveredAt)))
		}
	} else {
		sb.WriteString("No recent tokens available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderComparisonMarkdown renders a dataset comparison report, one metric
// per row and one dataset per column.
func RenderComparisonMarkdown(r *ComparisonReport) string {
	var sb strings.Builder

	sb.WriteString("# Dataset Comparison\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	if len(r.Datasets) == 0 {
		sb.WriteString("No datasets to compare.\n")
		return sb.String()
	}

	sb.WriteString("| Metric |")
	for _, d := range r.Datasets {
		sb.WriteString(fmt.Sprintf(" %s |", d.Label))
	}
	sb.WriteString("\n|--------|")
	for range r.Datasets {
		sb.WriteString("--------|")
	}
	sb.WriteString("\n")

	row := func(name string, value func(d DatasetSection) string) {
		sb.WriteString(fmt.Sprintf("| %s |", name))
		for _, d := range r.Datasets {
			sb.WriteString(fmt.Sprintf(" %s |", value(d)))
		}
		sb.WriteString("\n")
	}

	row("Pairs", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.Pairs) })
	row("Rows", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.Rows) })
	row("Unique Dev Wallets", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.UniqueDevWallets) })
	row("Dev Bought (side)", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.DevBoughtSideAmount) })
	row("Dev Sold (side)", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.DevSoldSideAmount) })
	row("Dev Avg Wallet Age (days)", func(d DatasetSection) string { return floatPtr(d.Metrics.DevAvgWalletAgeDays, 1) })
	row("Dev Avg Net Worth USD", func(d DatasetSection) string { return floatPtr(d.Metrics.DevAvgNetWorthUSD, 2) })
	row("Dev Pools Created", func(d DatasetSection) string { return intPtr(d.Metrics.DevPoolsCreated) })
	row("Total Buys", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.TotalBuys) })
	row("Total Sells", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.TotalSells) })
	row("Unique Wallets", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.UniqueWallets) })
	row("Avg Side Amount", func(d DatasetSection) string { return fmt.Sprintf("%.4f", d.Metrics.AvgSideAmount) })
	row("Fastest Tx Delay (s)", func(d DatasetSection) string { return floatPtr(d.Metrics.FastestTxDelaySec, 2) })
	row("Avg Tx Delay (s)", func(d DatasetSection) string { return floatPtr(d.Metrics.AvgTxDelaySec, 2) })
	row("Avg Maker Age (days)", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.AvgMakerAgeDays) })
	row("Pool Avg Age (mins)", func(d DatasetSection) string { return floatPtr(d.Metrics.PoolAvgAgeMins, 2) })
	row("LP Total USD", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.LPTotalUSD) })
	row("LP Avg USD", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.LPAvgUSD) })
	row("MC Total USD", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.MCTotalUSD) })
	row("MC Avg USD", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.MCAvgUSD) })
	row("Freezable Tokens", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.FreezableTokens) })
	row("No Mint Tokens", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.NoMint) })
	row("Mutable Metadata", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.MutableMetadata) })
	row("Transfer Tax", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.TransferTax) })
	row("Fake Tokens", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.FakeTokens) })
	row("With Social Media", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.WithSocialMedia) })
	row("With Website", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.WithWebsite) })
	sb.WriteString("\n")

	return sb.String()
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

func boolPtr(v *bool) string {
	if v == nil {
		return "n/a"
	}
	return yesNo(*v)
}

func floatPtr(v *float64, decimals int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

func intPtr(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *v)
}

func msTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
