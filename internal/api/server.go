// Package api exposes the collected token data and the analysis services
// over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/observability"
	"memecoin-lab/internal/storage"
	"memecoin-lab/internal/trainingdata"
	"memecoin-lab/internal/wallet"
)

// Default listing caps applied when a request sends no limit.
const (
	defaultLatestLimit = 20
	defaultTradeLimit  = 100
	maxListLimit       = 500
)

// Summarizer builds token summaries and safety statuses.
type Summarizer interface {
	Summarize(ctx context.Context, mint, pair string) (*domain.TokenSummary, error)
	Status(ctx context.Context, mint, pair string) (*domain.SafetyStatus, error)
}

// WalletAnalyzer builds wallet trading reports.
type WalletAnalyzer interface {
	Analyze(ctx context.Context, address string, maxTrades int) (*wallet.Report, error)
}

// MarketsClient lists Solana meme coins by market cap.
type MarketsClient interface {
	SolanaMemeCoins(ctx context.Context, vsCurrency string, perPage, page int) ([]domain.Coin, error)
}

// TrainingBuilder assembles training rows for one token pair.
type TrainingBuilder interface {
	Build(ctx context.Context, mint, pair string, limit int) (*trainingdata.Result, error)
}

// TransferSource lists recent on-chain transfers of a token.
type TransferSource interface {
	RecentTransfers(ctx context.Context, mint string, limit int) ([]domain.Transfer, error)
}

// Options configures a Server. Summarizer and LatestTokens are required;
// every other field disables its endpoints when nil.
type Options struct {
	Summarizer Summarizer
	Wallets    WalletAnalyzer
	Markets    MarketsClient
	Training   TrainingBuilder
	Transfers  TransferSource

	LatestTokens storage.LatestTokenStore
	Snapshots    storage.TokenSnapshotStore
	TradeArchive storage.TradeArchiveStore
	TrainingRows storage.TrainingRowStore
	Sessions     storage.SessionStateStore
}

// Server is the HTTP API.
type Server struct {
	summarizer Summarizer
	wallets    WalletAnalyzer
	markets    MarketsClient
	training   TrainingBuilder
	transfers  TransferSource

	latestTokens storage.LatestTokenStore
	snapshots    storage.TokenSnapshotStore
	tradeArchive storage.TradeArchiveStore
	trainingRows storage.TrainingRowStore
	sessions     storage.SessionStateStore

	started time.Time
	logger  zerolog.Logger
}

// NewServer creates the API server.
func NewServer(opts Options) *Server {
	return &Server{
		summarizer:   opts.Summarizer,
		wallets:      opts.Wallets,
		markets:      opts.Markets,
		training:     opts.Training,
		transfers:    opts.Transfers,
		latestTokens: opts.LatestTokens,
		snapshots:    opts.Snapshots,
		tradeArchive: opts.TradeArchive,
		trainingRows: opts.TrainingRows,
		sessions:     opts.Sessions,
		started:      time.Now(),
		logger:       log.With("api"),
	}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tokens/latest", s.handleLatestTokens)
		r.Get("/tokens/{mint}/summary", s.handleTokenSummary)
		r.Get("/tokens/{mint}/status", s.handleTokenStatus)
		r.Get("/tokens/{mint}/trades", s.handleTokenTrades)
		r.Get("/tokens/{mint}/snapshots", s.handleTokenSnapshots)
		r.Get("/tokens/{mint}/transfers", s.handleTokenTransfers)
		r.Get("/tokens/{mint}/report", s.handleTokenReport)
		r.Get("/wallets/{address}", s.handleWallet)
		r.Get("/markets", s.handleMarkets)
		r.Post("/training-data", s.handleBuildTrainingData)
		r.Get("/training-data/runs", s.handleTrainingRuns)
		r.Get("/training-data/last", s.handleLastTrainingRun)
	})

	return r
}
