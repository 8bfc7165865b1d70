// Command traindata builds a training dataset for one token pair: the
// token's current context crossed with each of its recent trades. Rows go
// to the warehouse and, optionally, to a timestamped CSV file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"memecoin-lab/internal/birdeye"
	"memecoin-lab/internal/bitquery"
	"memecoin-lab/internal/cache"
	"memecoin-lab/internal/config"
	"memecoin-lab/internal/dexscreener"
	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/solana"
	chstore "memecoin-lab/internal/storage/clickhouse"
	"memecoin-lab/internal/storage/migrations"
	"memecoin-lab/internal/summary"
	"memecoin-lab/internal/trainingdata"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to JSON config file")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	mint := flag.String("mint", "", "Token mint address (required)")
	pair := flag.String("pair", "", "Pair address (defaults to the main Dexscreener pair)")
	limit := flag.Int("limit", trainingdata.DefaultTradeLimit, "How many recent trades to include")
	noStore := flag.Bool("no-store", false, "Skip the warehouse, only write the CSV")
	noCSV := flag.Bool("no-csv", false, "Skip the CSV export")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log.Configure(log.Config{Level: cfg.LogLevel(), Service: "memecoin-lab"})
	logger := log.With("traindata")

	if *mint == "" || !solana.IsValidPubkey(*mint) {
		logger.Fatal().Msg("--mint must be a valid base58 address")
	}
	if *rpcEndpoint == "" {
		*rpcEndpoint = cfg.Get("solana_rpc_endpoint")
	}
	if *rpcEndpoint == "" {
		logger.Fatal().Msg("--rpc-endpoint or SOLANA_RPC_ENDPOINT is required")
	}
	if *noStore && *noCSV {
		logger.Fatal().Msg("--no-store and --no-csv leave nothing to do")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cache.NewMemoryCache()
	chain := solana.NewHTTPClient(*rpcEndpoint)
	birdeyeClient := birdeye.NewClient(cfg.APIKey("birdeye"), birdeye.WithCache(store, 30*time.Second))
	dexClient := dexscreener.NewClient(dexscreener.WithCache(store, 30*time.Second))
	bqClient := bitquery.NewClient(cfg.APIKey("bitquery_client_id"), cfg.APIKey("bitquery_client_secret"))

	builder := trainingdata.NewBuilder(summary.NewService(chain, birdeyeClient, dexClient), bqClient)
	result, err := builder.Build(ctx, *mint, *pair, *limit)
	if err != nil {
		logger.Fatal().Err(err).Msg("build failed")
	}
	logger.Info().
		Str("run_id", result.RunID).
		Int("rows", len(result.Rows)).
		Msg("dataset built")

	if !*noStore {
		chDSN := cfg.ClickhouseDSN()
		if chDSN == "" {
			logger.Fatal().Msg("clickhouse_dsn is required without --no-store")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, chDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("clickhouse setup failed")
		}
		defer conn.Close()

		rows := make([]*domain.TrainingRow, len(result.Rows))
		for i := range result.Rows {
			rows[i] = &result.Rows[i]
		}
		if err := chstore.NewTrainingRowStore(conn).InsertBulk(ctx, rows); err != nil {
			logger.Fatal().Err(err).Msg("warehouse insert failed")
		}
		logger.Info().Str("run_id", result.RunID).Msg("rows stored")
	}

	if !*noCSV {
		symbol := "token"
		if len(result.Rows) > 0 && result.Rows[0].Symbol != "" {
			symbol = result.Rows[0].Symbol
		}
		dir := cfg.StorageDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Msg("create output directory")
		}
		path := filepath.Join(dir, trainingdata.FileName(symbol, result.Summary.Pair, time.Now()))
		f, err := os.Create(path)
		if err != nil {
			logger.Fatal().Err(err).Msg("create csv file")
		}
		if err := trainingdata.WriteCSV(f, result.Rows); err != nil {
			f.Close()
			logger.Fatal().Err(err).Msg("write csv")
		}
		if err := f.Close(); err != nil {
			logger.Fatal().Err(err).Msg("close csv")
		}
		logger.Info().Str("path", path).Msg("csv written")
	}
}
