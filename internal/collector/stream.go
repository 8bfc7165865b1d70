package collector

import (
	"context"
	"fmt"
	"time"

	"memecoin-lab/internal/domain"
)

// DefaultStreamFlush is how often buffered stream trades are archived.
const DefaultStreamFlush = 10 * time.Second

// ArchiveStream consumes live trades for one pair and archives them in
// batches. A batch is written when it reaches flushSize or when the flush
// interval elapses, whichever comes first. It returns when the context is
// cancelled or the channel closes; buffered trades are flushed on exit.
func (c *Collector) ArchiveStream(ctx context.Context, mint, pair string, trades <-chan domain.PairTrade) error {
	if c.tradeArchive == nil {
		return fmt.Errorf("archive stream: no trade archive configured")
	}

	logger := c.logger.With().Str("pair", pair).Logger()
	logger.Info().Msg("stream archiving started")

	ticker := time.NewTicker(DefaultStreamFlush)
	defer ticker.Stop()

	batch := make([]domain.PairTrade, 0, DefaultFlushEvery)
	flush := func(ctx context.Context) error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.tradeArchive.InsertBulk(ctx, mint, pair, batch); err != nil {
			return fmt.Errorf("archive stream batch: %w", err)
		}
		if c.metrics != nil {
			c.metrics.TradesStored.Add(float64(len(batch)))
		}
		logger.Debug().Int("trades", len(batch)).Msg("stream batch archived")
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			// Flush with a fresh context since ours is done.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := flush(flushCtx); err != nil {
				logger.Warn().Err(err).Msg("final stream flush failed")
			}
			cancel()
			logger.Info().Msg("stream archiving stopped")
			return ctx.Err()

		case trade, ok := <-trades:
			if !ok {
				if err := flush(ctx); err != nil {
					return err
				}
				logger.Info().Msg("trade stream closed")
				return nil
			}
			batch = append(batch, trade)
			if len(batch) >= DefaultFlushEvery {
				if err := flush(ctx); err != nil {
					return err
				}
			}

		case <-ticker.C:
			if err := flush(ctx); err != nil {
				return err
			}
		}
	}
}
