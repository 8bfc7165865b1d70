// Command compare computes aggregate metrics over stored training data
// runs and renders them side by side as Markdown and CSV reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"memecoin-lab/internal/birdeye"
	"memecoin-lab/internal/bitquery"
	"memecoin-lab/internal/config"
	"memecoin-lab/internal/dataset"
	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/reporting"
	chstore "memecoin-lab/internal/storage/clickhouse"
	"memecoin-lab/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to JSON config file")
	runsFlag := flag.String("runs", "", "Comma-separated run ids to compare")
	labelsFlag := flag.String("labels", "", "Comma-separated dataset labels (defaults to run ids)")
	list := flag.Bool("list", false, "List stored runs and exit")
	mcMin := flag.Float64("mc-min", 0, "Keep only trades with market cap >= this value")
	mcMax := flag.Float64("mc-max", 0, "Keep only trades with market cap <= this value (0 disables)")
	noCombined := flag.Bool("no-combined", false, "Skip the deduplicated union column when comparing multiple runs")
	devStats := flag.Bool("dev-stats", false, "Resolve developer wallet age and net worth via BitQuery and Birdeye")
	outPrefix := flag.String("out", "comparison", "Output file name prefix")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log.Configure(log.Config{Level: cfg.LogLevel(), Service: "memecoin-lab"})
	logger := log.With("compare")

	chDSN := cfg.ClickhouseDSN()
	if chDSN == "" {
		logger.Fatal().Msg("clickhouse_dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := migrations.RunClickhouseMigrations(ctx, chDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("clickhouse setup failed")
	}
	defer conn.Close()
	store := chstore.NewTrainingRowStore(conn)

	if *list {
		runs, err := store.ListRuns(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("list runs failed")
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %s  rows=%d  created=%s\n",
				r.RunID, r.Symbol, r.Pair, r.Rows,
				time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339))
		}
		return
	}

	runIDs := splitList(*runsFlag)
	if len(runIDs) == 0 {
		logger.Fatal().Msg("--runs is required (use --list to see stored runs)")
	}
	labels := splitList(*labelsFlag)
	if len(labels) == 0 {
		labels = runIDs
	}
	if len(labels) != len(runIDs) {
		logger.Fatal().Msg("--labels must match --runs in length")
	}

	rowSets := make([][]domain.TrainingRow, 0, len(runIDs))
	for _, runID := range runIDs {
		ptrs, err := store.GetByRunID(ctx, runID)
		if err != nil {
			logger.Fatal().Err(err).Str("run_id", runID).Msg("load run failed")
		}
		rows := make([]domain.TrainingRow, len(ptrs))
		for i, p := range ptrs {
			rows[i] = *p
		}
		if *mcMin > 0 || *mcMax > 0 {
			rows = dataset.FilterByMarketCap(rows, *mcMin, *mcMax)
		}
		if len(rows) == 0 {
			logger.Warn().Str("run_id", runID).Msg("run has no rows after filtering")
		}
		rowSets = append(rowSets, rows)
	}

	if len(rowSets) > 1 && !*noCombined {
		combined := dataset.Combine(rowSets...)
		labels = append(labels, "combined")
		rowSets = append(rowSets, combined)
	}

	report := reporting.NewGenerator(nil, nil).CompareRows(labels, rowSets)

	if *devStats {
		bqClient := bitquery.NewClient(cfg.APIKey("bitquery_client_id"), cfg.APIKey("bitquery_client_secret"))
		birdeyeClient := birdeye.NewClient(cfg.APIKey("birdeye"))
		enricher := dataset.NewDevEnricher(bqClient, birdeyeClient, nil)
		for i := range report.Datasets {
			if err := enricher.Enrich(ctx, rowSets[i], &report.Datasets[i].Metrics); err != nil {
				logger.Warn().Err(err).Str("label", report.Datasets[i].Label).Msg("dev stats unavailable")
			}
		}
	}

	dir := cfg.StorageDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create output directory")
	}

	mdPath := filepath.Join(dir, *outPrefix+".md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderComparisonMarkdown(report)), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write markdown report")
	}
	csvPath := filepath.Join(dir, *outPrefix+".csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderComparisonCSV(report)), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write csv report")
	}

	logger.Info().Str("markdown", mdPath).Str("csv", csvPath).Msg("comparison written")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
