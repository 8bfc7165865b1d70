// Command server runs the HTTP API together with the background collector.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"memecoin-lab/internal/api"
	"memecoin-lab/internal/birdeye"
	"memecoin-lab/internal/bitquery"
	"memecoin-lab/internal/cache"
	"memecoin-lab/internal/coingecko"
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
	"memecoin-lab/internal/trainingdata"
	"memecoin-lab/internal/wallet"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to JSON config file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of Postgres and ClickHouse")
	interval := flag.Duration("collect-interval", collector.DefaultInterval, "Collection pass interval")
	trackLimit := flag.Int("track-limit", collector.DefaultTrackLimit, "How many recent tokens to track")
	noCollect := flag.Bool("no-collect", false, "Serve the API without the background collector")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log.Configure(log.Config{Level: cfg.LogLevel(), Service: "memecoin-lab"})
	logger := log.With("server")

	if *rpcEndpoint == "" {
		*rpcEndpoint = cfg.Get("solana_rpc_endpoint")
	}
	if *rpcEndpoint == "" {
		logger.Fatal().Msg("--rpc-endpoint or SOLANA_RPC_ENDPOINT is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newCacheStore(cfg)

	chain := solana.NewHTTPClient(*rpcEndpoint)
	birdeyeClient := birdeye.NewClient(cfg.APIKey("birdeye"),
		birdeye.WithCache(store, 30*time.Second))
	dexClient := dexscreener.NewClient(dexscreener.WithCache(store, 30*time.Second))
	geckoClient := coingecko.NewClient(
		coingecko.WithAPIKey(cfg.APIKey("coingecko")),
		coingecko.WithCache(store, 5*time.Minute))
	bqClient := bitquery.NewClient(cfg.APIKey("bitquery_client_id"), cfg.APIKey("bitquery_client_secret"))

	stores, cleanup, err := openStores(ctx, cfg, *useMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage setup failed")
	}
	defer cleanup()

	summarySvc := summary.NewService(chain, birdeyeClient, dexClient)
	walletSvc := wallet.NewService(birdeyeClient, dexClient, bqClient, nil)
	builder := trainingdata.NewBuilder(summarySvc, bqClient)

	srv := api.NewServer(api.Options{
		Summarizer:   summarySvc,
		Wallets:      walletSvc,
		Markets:      geckoClient,
		Training:     builder,
		Transfers:    bqClient,
		LatestTokens: stores.latestTokens,
		Snapshots:    stores.snapshots,
		TradeArchive: stores.tradeArchive,
		TrainingRows: stores.trainingRows,
		Sessions:     memory.NewSessionStateStore(),
	})

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", *addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	})

	if !*noCollect {
		coll, err := collector.New(collector.Options{
			Discovery:    bqClient,
			Summarizer:   summarySvc,
			Trades:       bqClient,
			LatestTokens: stores.latestTokens,
			Snapshots:    stores.snapshots,
			TradeArchive: stores.tradeArchive,
			WalletAges:   stores.walletAges,
			Metrics:      observability.DefaultMetrics,
			Interval:     *interval,
			TrackLimit:   *trackLimit,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("collector setup failed")
		}
		g.Go(func() error {
			if err := coll.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("collector: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}

func newCacheStore(cfg *config.Config) cache.Cache {
	if addr := cfg.RedisAddr(); addr != "" {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{Addr: addr}, log.With("cache"))
		if err == nil {
			return redisCache
		}
		cacheLogger := log.With("cache")
		cacheLogger.Warn().Err(err).Msg("redis unavailable, using in-process cache")
	}
	return cache.NewMemoryCache()
}

// appStores groups the store implementations behind their interfaces so the
// memory and database backends wire identically.
type appStores struct {
	latestTokens storage.LatestTokenStore
	snapshots    storage.TokenSnapshotStore
	walletAges   storage.WalletAgeStore
	tradeArchive storage.TradeArchiveStore
	trainingRows storage.TrainingRowStore
}

func openStores(ctx context.Context, cfg *config.Config, useMemory bool) (*appStores, func(), error) {
	if useMemory {
		return &appStores{
			latestTokens: memory.NewLatestTokenStore(),
			snapshots:    memory.NewTokenSnapshotStore(),
			walletAges:   memory.NewWalletAgeStore(),
			tradeArchive: memory.NewTradeArchiveStore(),
			trainingRows: memory.NewTrainingRowStore(),
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
		trainingRows: chstore.NewTrainingRowStore(conn),
	}, cleanup, nil
}
