package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders snapshot history rows as CSV string.
func RenderCSV(rows []SnapshotRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("captured_at,price_usd,liquidity_usd,market_cap_usd,volume_24h_usd,")
	sb.WriteString("burnt_percent,top10_holder_percent\n")

	// Rows
	for _, s := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%.6f,%.6f\n",
			s.CapturedAt,
			csvFloat(s.PriceUSD),
			csvFloat(s.LiquidityUSD),
			csvFloat(s.MarketCapUSD),
			csvFloat(s.Volume24hUSD),
			s.BurntPercent,
			s.Top10HolderPercent,
		))
	}

	return sb.String()
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}

func csvFloatN(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

func csvInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

// RenderComparisonCSV renders a dataset comparison as CSV: one row per
// metric, one column per dataset.
func RenderComparisonCSV(r *ComparisonReport) string {
	var sb strings.Builder

	sb.WriteString("metric")
	for _, d := range r.Datasets {
		sb.WriteString("," + d.Label)
	}
	sb.WriteString("\n")

	row := func(name string, value func(d DatasetSection) string) {
		sb.WriteString(name)
		for _, d := range r.Datasets {
			sb.WriteString("," + value(d))
		}
		sb.WriteString("\n")
	}

	row("pairs", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.Pairs) })
	row("rows", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.Rows) })
	row("unique_dev_wallets", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.UniqueDevWallets) })
	row("dev_bought_side_amount", func(d DatasetSection) string { return fmt.Sprintf("%.6f", d.Metrics.DevBoughtSideAmount) })
	row("dev_sold_side_amount", func(d DatasetSection) string { return fmt.Sprintf("%.6f", d.Metrics.DevSoldSideAmount) })
	row("dev_avg_wallet_age_days", func(d DatasetSection) string { return csvFloatN(d.Metrics.DevAvgWalletAgeDays, 1) })
	row("dev_min_wallet_age_days", func(d DatasetSection) string { return csvInt(d.Metrics.DevMinWalletAgeDays) })
	row("dev_max_wallet_age_days", func(d DatasetSection) string { return csvInt(d.Metrics.DevMaxWalletAgeDays) })
	row("dev_avg_net_worth_usd", func(d DatasetSection) string { return csvFloatN(d.Metrics.DevAvgNetWorthUSD, 2) })
	row("dev_min_net_worth_usd", func(d DatasetSection) string { return csvFloatN(d.Metrics.DevMinNetWorthUSD, 2) })
	row("dev_max_net_worth_usd", func(d DatasetSection) string { return csvFloatN(d.Metrics.DevMaxNetWorthUSD, 2) })
	row("dev_pools_created", func(d DatasetSection) string { return csvInt(d.Metrics.DevPoolsCreated) })
	row("total_buys", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.TotalBuys) })
	row("total_sells", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.TotalSells) })
	row("unique_wallets", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.UniqueWallets) })
	row("avg_side_amount", func(d DatasetSection) string { return fmt.Sprintf("%.6f", d.Metrics.AvgSideAmount) })
	row("fastest_tx_delay_sec", func(d DatasetSection) string { return csvFloat(d.Metrics.FastestTxDelaySec) })
	row("avg_tx_delay_sec", func(d DatasetSection) string { return csvFloat(d.Metrics.AvgTxDelaySec) })
	row("avg_maker_age_days", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.AvgMakerAgeDays) })
	row("min_maker_age_days", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.MinMakerAgeDays) })
	row("max_maker_age_days", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.MaxMakerAgeDays) })
	row("pool_avg_age_mins", func(d DatasetSection) string { return csvFloat(d.Metrics.PoolAvgAgeMins) })
	row("pool_min_age_mins", func(d DatasetSection) string { return csvFloat(d.Metrics.PoolMinAgeMins) })
	row("pool_max_age_mins", func(d DatasetSection) string { return csvFloat(d.Metrics.PoolMaxAgeMins) })
	row("lp_total_usd", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.LPTotalUSD) })
	row("lp_avg_usd", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.LPAvgUSD) })
	row("lp_min_usd", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.LPMinUSD) })
	row("lp_max_usd", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.LPMaxUSD) })
	row("mc_total_usd", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.MCTotalUSD) })
	row("mc_avg_usd", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.MCAvgUSD) })
	row("mc_min_usd", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.MCMinUSD) })
	row("mc_max_usd", func(d DatasetSection) string { return fmt.Sprintf("%.2f", d.Metrics.MCMaxUSD) })
	row("freezable_tokens", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.FreezableTokens) })
	row("no_mint", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.NoMint) })
	row("mutable_metadata", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.MutableMetadata) })
	row("non_transferable", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.NonTransferable) })
	row("transfer_tax", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.TransferTax) })
	row("fake_tokens", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.FakeTokens) })
	row("with_social_media", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.WithSocialMedia) })
	row("with_website", func(d DatasetSection) string { return fmt.Sprintf("%d", d.Metrics.WithWebsite) })

	return sb.String()
}
