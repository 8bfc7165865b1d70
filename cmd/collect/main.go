// Command collect runs the collection loop on its own: it discovers newly
// launched tokens and persists their snapshots and trades. With --once it
// performs a single pass and exits; with --stream-mint it additionally
// archives the live trade feed for one pair.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"memecoin-lab/internal/birdeye"
	"memecoin-lab/internal/bitquery"
	"memecoin-lab/internal/cache"
	"memecoin-lab/internal/collector"
	"memecoin-lab/internal/config"
	"memecoin-lab/internal/dexscreener"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/observability"
	"memecoin-lab/internal/solana"
	"memecoin-lab/internal/storage"
	chstore "memecoin-lab/internal/storage/clickhouse"
	"memecoin-lab/internal/storage/memory"
	"memecoin-lab/internal/storage/migrations"
	"memecoin-lab/internal/storage/postgres"
	"memecoin-lab/internal/summary"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to JSON config file")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of Postgres and ClickHouse")
	once := flag.Bool("once", false, "Run a single collection pass and exit")
	interval := flag.Duration("interval", collector.DefaultInterval, "Collection pass interval")
	trackLimit := flag.Int("track-limit", collector.DefaultTrackLimit, "How many recent tokens to track")
	tradeLimit := flag.Int("trade-limit", collector.DefaultTradeLimit, "How many trades to archive per token per pass")
	streamMint := flag.String("stream-mint", "", "Also archive the live trade stream for this mint")
	streamPair := flag.String("stream-pair", "", "Pair address for --stream-mint")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log.Configure(log.Config{Level: cfg.LogLevel(), Service: "memecoin-lab"})
	logger := log.With("collect")

	if *rpcEndpoint == "" {
		*rpcEndpoint = cfg.Get("solana_rpc_endpoint")
	}
	if *rpcEndpoint == "" {
		logger.Fatal().Msg("--rpc-endpoint or SOLANA_RPC_ENDPOINT is required")
	}
	if *streamMint != "" && *streamPair == "" {
		logger.Fatal().Msg("--stream-pair is required with --stream-mint")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store cache.Cache = cache.NewMemoryCache()
	if addr := cfg.RedisAddr(); addr != "" {
		if redisCache, err := cache.NewRedisCache(cache.RedisConfig{Addr: addr}, log.With("cache")); err == nil {
			store = redisCache
		} else {
			logger.Warn().Err(err).Msg("redis unavailable, using in-process cache")
		}
	}

	chain := solana.NewHTTPClient(*rpcEndpoint)
	birdeyeClient := birdeye.NewClient(cfg.APIKey("birdeye"), birdeye.WithCache(store, 30*time.Second))
	dexClient := dexscreener.NewClient(dexscreener.WithCache(store, 30*time.Second))
	bqClient := bitquery.NewClient(cfg.APIKey("bitquery_client_id"), cfg.APIKey("bitquery_client_secret"))

	stores, cleanup, err := openStores(ctx, cfg, *useMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage setup failed")
	}
	defer cleanup()

	coll, err := collector.New(collector.Options{
		Discovery:    bqClient,
		Summarizer:   summary.NewService(chain, birdeyeClient, dexClient),
		Trades:       bqClient,
		LatestTokens: stores.latestTokens,
		Snapshots:    stores.snapshots,
		TradeArchive: stores.tradeArchive,
		WalletAges:   stores.walletAges,
		Metrics:      observability.DefaultMetrics,
		Interval:     *interval,
		TrackLimit:   *trackLimit,
		TradeLimit:   *tradeLimit,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("collector setup failed")
	}

	if *once {
		if err := coll.RunOnce(ctx); err != nil {
			logger.Fatal().Err(err).Msg("collection pass failed")
		}
		logger.Info().Msg("collection pass complete")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := coll.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("collector: %w", err)
		}
		return nil
	})

	if *streamMint != "" {
		g.Go(func() error {
			stream, err := bitquery.NewTradeStream(gctx, bqClient, *streamMint, *streamPair, "", nil)
			if err != nil {
				return fmt.Errorf("trade stream: %w", err)
			}
			defer stream.Close()
			err = coll.ArchiveStream(gctx, *streamMint, *streamPair, stream.Trades())
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("archive stream: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("collect exited with error")
	}
	logger.Info().Msg("collect stopped")
}

type appStores struct {
	latestTokens storage.LatestTokenStore
	snapshots    storage.TokenSnapshotStore
	walletAges   storage.WalletAgeStore
	tradeArchive storage.TradeArchiveStore
}

func openStores(ctx context.Context, cfg *config.Config, useMemory bool) (*appStores, func(), error) {
	if useMemory {
		return &appStores{
			latestTokens: memory.NewLatestTokenStore(),
			snapshots:    memory.NewTokenSnapshotStore(),
			walletAges:   memory.NewWalletAgeStore(),
			tradeArchive: memory.NewTradeArchiveStore(),
		}, func() {}, nil
	}

	pgDSN := cfg.PostgresDSN()
	chDSN := cfg.ClickhouseDSN()
	if pgDSN == "" || chDSN == "" {
		return nil, nil, errors.New("postgres_dsn and clickhouse_dsn are required without --use-memory")
	}

	pool, err := postgres.NewPool(ctx, pgDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, chDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		pool.Close()
		_ = conn.Close()
	}
	return &appStores{
		latestTokens: postgres.NewLatestTokenStore(pool),
		snapshots:    postgres.NewTokenSnapshotStore(pool),
		walletAges:   postgres.NewWalletAgeStore(pool),
		tradeArchive: chstore.NewTradeArchiveStore(conn),
	}, cleanup, nil
}
