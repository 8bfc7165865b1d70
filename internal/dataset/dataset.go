// Package dataset combines training data builds from multiple token pairs
// and computes comparison metrics across them: developer behavior,
// transaction patterns, pool economics and security posture.
package dataset

import (
	"math"
	"strings"
	"time"

	"memecoin-lab/internal/domain"
)

// socialPlatforms are the link types counted as social media presence.
var socialPlatforms = []string{"twitter", "telegram", "discord"}

// Metrics is the result of comparing a combined set of training rows.
type Metrics struct {
	Pairs int
	Rows  int

	// Developer
	UniqueDevWallets    int
	DevBoughtSideAmount float64
	DevSoldSideAmount   float64

	// Developer wallets, filled by DevEnricher when its sources are
	// configured. Nil means not resolved.
	DevAvgWalletAgeDays *float64
	DevMinWalletAgeDays *int
	DevMaxWalletAgeDays *int
	DevAvgNetWorthUSD   *float64
	DevMinNetWorthUSD   *float64
	DevMaxNetWorthUSD   *float64
	DevPoolsCreated     *int

	// Transactions
	TotalBuys         int
	TotalSells        int
	UniqueWallets     int
	AvgSideAmount     float64
	FastestTxDelaySec *float64
	AvgTxDelaySec     *float64
	AvgMakerAgeDays   float64
	MinMakerAgeDays   int64
	MaxMakerAgeDays   int64

	// Pools
	PoolAvgAgeMins *float64
	PoolMinAgeMins *float64
	PoolMaxAgeMins *float64
	LPTotalUSD     float64
	LPAvgUSD       float64
	LPMinUSD       float64
	LPMaxUSD       float64
	MCTotalUSD     float64
	MCAvgUSD       float64
	MCMinUSD       float64
	MCMaxUSD       float64

	// Security, counted per pair
	FreezableTokens int
	NoMint          int
	MutableMetadata int
	NonTransferable int
	TransferTax     int
	FakeTokens      int
	WithSocialMedia int
	WithWebsite     int
}

// Combine merges row sets from multiple builds, dropping duplicate trades.
// A trade is identified by its pair and transaction signature.
func Combine(rowSets ...[]domain.TrainingRow) []domain.TrainingRow {
	seen := make(map[string]bool)
	var combined []domain.TrainingRow
	for _, rows := range rowSets {
		for _, r := range rows {
			key := r.Pair + "|" + r.TxSignature
			if seen[key] {
				continue
			}
			seen[key] = true
			combined = append(combined, r)
		}
	}
	return combined
}

// FilterByMarketCap keeps rows whose per-trade market cap falls inside the
// inclusive range. A zero max means no upper bound.
func FilterByMarketCap(rows []domain.TrainingRow, min, max float64) []domain.TrainingRow {
	var filtered []domain.TrainingRow
	for _, r := range rows {
		if r.MarketCapUSD < min {
			continue
		}
		if max > 0 && r.MarketCapUSD > max {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Compute derives comparison metrics from combined rows. Pool ages are
// measured against now.
func Compute(rows []domain.TrainingRow, now time.Time) Metrics {
	m := Metrics{Rows: len(rows)}
	if len(rows) == 0 {
		return m
	}

	devs := make(map[string]bool)
	makers := make(map[string]bool)
	firstByPair := make(map[string]domain.TrainingRow)
	var pairOrder []string

	var sideSum float64
	var ageSum float64
	m.MinMakerAgeDays = math.MaxInt64

	var delaySum float64
	var delayCount int
	var fastest float64
	haveFastest := false

	lpByPair := make(map[string]float64)
	mcByPair := make(map[string]float64)
	poolCreatedByPair := make(map[string]int64)

	for _, r := range rows {
		if r.CtxCreatorAddress != "" {
			devs[r.CtxCreatorAddress] = true
		}
		makers[r.Maker] = true

		if _, ok := firstByPair[r.Pair]; !ok {
			firstByPair[r.Pair] = r
			pairOrder = append(pairOrder, r.Pair)
		}

		switch r.TradeSideType {
		case domain.SideBuy:
			m.TotalBuys++
		case domain.SideSell:
			m.TotalSells++
		}
		if r.CtxCreatorAddress != "" && r.Maker == r.CtxCreatorAddress {
			switch r.TradeSideType {
			case domain.SideBuy:
				m.DevBoughtSideAmount += r.TradeSideAmount
			case domain.SideSell:
				m.DevSoldSideAmount += r.TradeSideAmount
			}
		}

		sideSum += r.TradeSideAmount
		ageSum += float64(r.MakerAgeDays)
		if r.MakerAgeDays < m.MinMakerAgeDays {
			m.MinMakerAgeDays = r.MakerAgeDays
		}
		if r.MakerAgeDays > m.MaxMakerAgeDays {
			m.MaxMakerAgeDays = r.MakerAgeDays
		}

		if r.CtxTokenCreationTime != nil {
			delay := float64(r.BlockTime-*r.CtxTokenCreationTime) / 1000
			delaySum += delay
			delayCount++
			if !haveFastest || delay < fastest {
				fastest = delay
				haveFastest = true
			}
		}

		if r.CtxLiquidityUSD != nil && *r.CtxLiquidityUSD > lpByPair[r.Pair] {
			lpByPair[r.Pair] = *r.CtxLiquidityUSD
		}
		if r.MarketCapUSD > mcByPair[r.Pair] {
			mcByPair[r.Pair] = r.MarketCapUSD
		}
		if r.CtxPoolCreationTime != nil {
			created, ok := poolCreatedByPair[r.Pair]
			if !ok || *r.CtxPoolCreationTime < created {
				poolCreatedByPair[r.Pair] = *r.CtxPoolCreationTime
			}
		}
	}

	m.Pairs = len(pairOrder)
	m.UniqueDevWallets = len(devs)
	m.UniqueWallets = len(makers)
	m.AvgSideAmount = sideSum / float64(len(rows))
	m.AvgMakerAgeDays = ageSum / float64(len(rows))

	if haveFastest {
		m.FastestTxDelaySec = &fastest
		avg := delaySum / float64(delayCount)
		m.AvgTxDelaySec = &avg
	}

	fillPoolAges(&m, poolCreatedByPair, now)
	m.LPTotalUSD, m.LPAvgUSD, m.LPMinUSD, m.LPMaxUSD = sumStats(lpByPair, pairOrder)
	m.MCTotalUSD, m.MCAvgUSD, m.MCMinUSD, m.MCMaxUSD = sumStats(mcByPair, pairOrder)

	for _, pair := range pairOrder {
		r := firstByPair[pair]
		if r.CtxFreezeAuthority {
			m.FreezableTokens++
		}
		if r.CtxNoMint {
			m.NoMint++
		}
		if r.CtxMutableMetadata {
			m.MutableMetadata++
		}
		if r.CtxNonTransferable {
			m.NonTransferable++
		}
		if r.CtxTransferFee {
			m.TransferTax++
		}
		if r.CtxFakeToken {
			m.FakeTokens++
		}
		if hasSocialMedia(r.CtxSocials) {
			m.WithSocialMedia++
		}
		if strings.TrimSpace(r.CtxWebsites) != "" {
			m.WithWebsite++
		}
	}

	return m
}

func fillPoolAges(m *Metrics, createdByPair map[string]int64, now time.Time) {
	if len(createdByPair) == 0 {
		return
	}
	nowMs := now.UnixMilli()
	var sum, min, max float64
	first := true
	for _, created := range createdByPair {
		mins := float64(nowMs-created) / 1000 / 60
		sum += mins
		if first || mins < min {
			min = mins
		}
		if first || mins > max {
			max = mins
		}
		first = false
	}
	avg := sum / float64(len(createdByPair))
	m.PoolAvgAgeMins = &avg
	m.PoolMinAgeMins = &min
	m.PoolMaxAgeMins = &max
}

func sumStats(byPair map[string]float64, pairs []string) (total, avg, min, max float64) {
	if len(pairs) == 0 {
		return 0, 0, 0, 0
	}
	first := true
	for _, pair := range pairs {
		v := byPair[pair]
		total += v
		if first || v < min {
			min = v
		}
		if first || v > max {
			max = v
		}
		first = false
	}
	return total, total / float64(len(pairs)), min, max
}

func hasSocialMedia(socials string) bool {
	lowered := strings.ToLower(socials)
	for _, platform := range socialPlatforms {
		if strings.Contains(lowered, platform) {
			return true
		}
	}
	return false
}
