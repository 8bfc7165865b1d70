package dataset

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
)

// AgeSource estimates wallet ages in days from on-chain transfer history.
type AgeSource interface {
	WalletAges(ctx context.Context, addresses []string) (map[string]int, error)
}

// WealthSource reads wallet net worth.
type WealthSource interface {
	WalletOverview(ctx context.Context, address string) (*domain.WalletOverview, error)
}

// PoolSource counts liquidity pools initialized per creator address.
type PoolSource interface {
	CreatedPoolCounts(ctx context.Context, creators []string) (map[string]int, error)
}

// DevEnricher resolves developer wallet age, net worth and pool creation
// counts for combined row sets. Any source may be nil; its metrics then
// stay unresolved.
type DevEnricher struct {
	ages   AgeSource
	wealth WealthSource
	pools  PoolSource
	logger zerolog.Logger
}

// NewDevEnricher creates an enricher over the given sources.
func NewDevEnricher(ages AgeSource, wealth WealthSource, pools PoolSource) *DevEnricher {
	return &DevEnricher{
		ages:   ages,
		wealth: wealth,
		pools:  pools,
		logger: log.With("dataset"),
	}
}

// Enrich fills the developer wallet metrics of m from the creator addresses
// found in rows. Individual wallet lookup failures are logged and skipped;
// an error is returned only when a whole source fails.
func (e *DevEnricher) Enrich(ctx context.Context, rows []domain.TrainingRow, m *Metrics) error {
	devs := creatorAddresses(rows)
	if len(devs) == 0 {
		return nil
	}

	if e.ages != nil {
		ages, err := e.ages.WalletAges(ctx, devs)
		if err != nil {
			return fmt.Errorf("dev wallet ages: %w", err)
		}
		fillDevAges(m, devs, ages)
	}

	if e.wealth != nil {
		e.fillDevNetWorth(ctx, m, devs)
	}

	if e.pools != nil {
		counts, err := e.pools.CreatedPoolCounts(ctx, devs)
		if err != nil {
			return fmt.Errorf("dev pool counts: %w", err)
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		m.DevPoolsCreated = &total
	}
	return nil
}

// creatorAddresses returns the unique creator wallets of rows, first-seen
// order.
func creatorAddresses(rows []domain.TrainingRow) []string {
	seen := make(map[string]bool)
	var devs []string
	for _, r := range rows {
		if r.CtxCreatorAddress == "" || seen[r.CtxCreatorAddress] {
			continue
		}
		seen[r.CtxCreatorAddress] = true
		devs = append(devs, r.CtxCreatorAddress)
	}
	return devs
}

func fillDevAges(m *Metrics, devs []string, ages map[string]int) {
	var sum, count int
	var min, max int
	for _, dev := range devs {
		age, ok := ages[dev]
		if !ok {
			continue
		}
		if count == 0 || age < min {
			min = age
		}
		if count == 0 || age > max {
			max = age
		}
		sum += age
		count++
	}
	if count == 0 {
		return
	}
	avg := float64(sum) / float64(count)
	m.DevAvgWalletAgeDays = &avg
	m.DevMinWalletAgeDays = &min
	m.DevMaxWalletAgeDays = &max
}

func (e *DevEnricher) fillDevNetWorth(ctx context.Context, m *Metrics, devs []string) {
	var sum float64
	var min, max float64
	count := 0
	for _, dev := range devs {
		overview, err := e.wealth.WalletOverview(ctx, dev)
		if err != nil {
			e.logger.Debug().Err(err).Str("wallet", dev).Msg("dev net worth unavailable")
			continue
		}
		worth := overview.NetWorthUSD
		if count == 0 || worth < min {
			min = worth
		}
		if count == 0 || worth > max {
			max = worth
		}
		sum += worth
		count++
	}
	if count == 0 {
		return
	}
	avg := sum / float64(count)
	m.DevAvgNetWorthUSD = &avg
	m.DevMinNetWorthUSD = &min
	m.DevMaxNetWorthUSD = &max
}
