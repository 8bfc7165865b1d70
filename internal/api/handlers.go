package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"memecoin-lab/internal/dexscreener"
	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/observability"
	"memecoin-lab/internal/reporting"
	"memecoin-lab/internal/solana"
	"memecoin-lab/internal/storage"
	"memecoin-lab/internal/summary"
)

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// limitParam parses ?limit= with a default and an upper bound.
func limitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleLatestTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.latestTokens.GetRecent(r.Context(), limitParam(r, defaultLatestLimit))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error().Err(err).Msg("latest tokens query failed")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": tokens})
}

func (s *Server) handleTokenSummary(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")
	if !solana.IsValidPubkey(mint) {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}

	sum, err := s.summarizer.Summarize(r.Context(), mint, r.URL.Query().Get("pair"))
	if err != nil {
		s.writeSummaryError(w, mint, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleTokenStatus(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")
	if !solana.IsValidPubkey(mint) {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}

	status, err := s.summarizer.Status(r.Context(), mint, r.URL.Query().Get("pair"))
	if err != nil {
		s.writeSummaryError(w, mint, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) writeSummaryError(w http.ResponseWriter, mint string, err error) {
	switch {
	case errors.Is(err, summary.ErrMintNotFound), errors.Is(err, dexscreener.ErrPairNotFound):
		writeError(w, http.StatusNotFound, "token not found")
	default:
		s.logger.Error().Err(err).Str("mint", mint).Msg("summary failed")
		writeError(w, http.StatusBadGateway, "upstream error")
	}
}

func (s *Server) handleTokenTrades(w http.ResponseWriter, r *http.Request) {
	if s.tradeArchive == nil {
		writeError(w, http.StatusNotImplemented, "trade archive not configured")
		return
	}
	mint := chi.URLParam(r, "mint")
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		// Fall back to the pair recorded at discovery time.
		token, err := s.latestTokens.GetByMint(r.Context(), mint)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "pair is required for untracked tokens")
				return
			}
			s.logger.Error().Err(err).Str("mint", mint).Msg("token lookup failed")
			writeError(w, http.StatusInternalServerError, "storage error")
			return
		}
		pair = token.Pair
	}

	trades, err := s.tradeArchive.GetByPair(r.Context(), pair, limitParam(r, defaultTradeLimit))
	if err != nil {
		s.logger.Error().Err(err).Str("pair", pair).Msg("trade query failed")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mint":   mint,
		"pair":   pair,
		"trades": trades,
	})
}

func (s *Server) handleTokenSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusNotImplemented, "snapshot store not configured")
		return
	}
	mint := chi.URLParam(r, "mint")
	snaps, err := s.snapshots.GetByMint(r.Context(), mint, limitParam(r, defaultLatestLimit))
	if err != nil {
		s.logger.Error().Err(err).Str("mint", mint).Msg("snapshot query failed")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mint": mint, "snapshots": snaps})
}

func (s *Server) handleTokenTransfers(w http.ResponseWriter, r *http.Request) {
	if s.transfers == nil {
		writeError(w, http.StatusNotImplemented, "transfer source not configured")
		return
	}
	mint := chi.URLParam(r, "mint")
	if !solana.IsValidPubkey(mint) {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}
	transfers, err := s.transfers.RecentTransfers(r.Context(), mint, limitParam(r, defaultTradeLimit))
	if err != nil {
		s.logger.Error().Err(err).Str("mint", mint).Msg("transfer lookup failed")
		writeError(w, http.StatusBadGateway, "upstream error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mint": mint, "transfers": transfers})
}

// handleTokenReport renders the full token report as Markdown, combining
// the live summary with the stored snapshot history.
func (s *Server) handleTokenReport(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")
	if !solana.IsValidPubkey(mint) {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}
	pair := r.URL.Query().Get("pair")

	sum, err := s.summarizer.Summarize(r.Context(), mint, pair)
	if err != nil {
		s.writeSummaryError(w, mint, err)
		return
	}
	status, err := s.summarizer.Status(r.Context(), mint, pair)
	if err != nil {
		s.writeSummaryError(w, mint, err)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" && s.latestTokens != nil {
		if token, err := s.latestTokens.GetByMint(r.Context(), mint); err == nil {
			symbol = token.Symbol
		}
	}

	report, err := reporting.NewGenerator(s.snapshots, s.latestTokens).Generate(r.Context(), sum, status, symbol)
	if err != nil {
		s.logger.Error().Err(err).Str("mint", mint).Msg("report generation failed")
		writeError(w, http.StatusInternalServerError, "report error")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(reporting.RenderMarkdown(report)))
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	if s.wallets == nil {
		writeError(w, http.StatusNotImplemented, "wallet analysis not configured")
		return
	}
	address := chi.URLParam(r, "address")
	if !solana.IsValidPubkey(address) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	report, err := s.wallets.Analyze(r.Context(), address, limitParam(r, 0))
	if err != nil {
		s.logger.Error().Err(err).Str("address", address).Msg("wallet analysis failed")
		writeError(w, http.StatusBadGateway, "upstream error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": address,
		"kind":    solana.ClassifyAddress(address),
		"report":  report,
	})
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	if s.markets == nil {
		writeError(w, http.StatusNotImplemented, "markets client not configured")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	coins, err := s.markets.SolanaMemeCoins(r.Context(), "usd", limitParam(r, defaultTradeLimit), page)
	if err != nil {
		s.logger.Error().Err(err).Msg("markets query failed")
		writeError(w, http.StatusBadGateway, "upstream error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"coins": coins})
}

// buildTrainingRequest is the POST /training-data body.
type buildTrainingRequest struct {
	Mint  string `json:"mint"`
	Pair  string `json:"pair"`
	Limit int    `json:"limit"`
}

// lastTrainingRunKey stores the most recent build selection so a follow-up
// request can resume it without re-entering the token.
const (
	lastTrainingRunKey = "training:last_run"
	lastTrainingRunTTL = 24 * time.Hour
)

// lastTrainingRun is the persisted record of the most recent build.
type lastTrainingRun struct {
	RunID   string    `json:"run_id"`
	Mint    string    `json:"mint"`
	Pair    string    `json:"pair"`
	Limit   int       `json:"limit"`
	Rows    int       `json:"rows"`
	BuiltAt time.Time `json:"built_at"`
}

func (s *Server) handleBuildTrainingData(w http.ResponseWriter, r *http.Request) {
	if s.training == nil || s.trainingRows == nil {
		writeError(w, http.StatusNotImplemented, "training data builder not configured")
		return
	}

	var req buildTrainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !solana.IsValidPubkey(req.Mint) {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}

	result, err := s.training.Build(r.Context(), req.Mint, req.Pair, req.Limit)
	if err != nil {
		s.logger.Error().Err(err).Str("mint", req.Mint).Msg("training build failed")
		writeError(w, http.StatusBadGateway, "upstream error")
		return
	}

	rows := make([]*domain.TrainingRow, len(result.Rows))
	for i := range result.Rows {
		rows[i] = &result.Rows[i]
	}
	if err := s.trainingRows.InsertBulk(r.Context(), rows); err != nil {
		s.logger.Error().Err(err).Str("run_id", result.RunID).Msg("training rows insert failed")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	observability.DefaultMetrics.TrainingRowsStored.Add(float64(len(rows)))

	s.saveLastTrainingRun(r.Context(), lastTrainingRun{
		RunID:   result.RunID,
		Mint:    req.Mint,
		Pair:    result.Summary.Pair,
		Limit:   req.Limit,
		Rows:    len(result.Rows),
		BuiltAt: time.Now().UTC(),
	})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"run_id": result.RunID,
		"mint":   req.Mint,
		"pair":   result.Summary.Pair,
		"rows":   len(result.Rows),
	})
}

func (s *Server) handleTrainingRuns(w http.ResponseWriter, r *http.Request) {
	if s.trainingRows == nil {
		writeError(w, http.StatusNotImplemented, "training row store not configured")
		return
	}
	runs, err := s.trainingRows.ListRuns(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("run listing failed")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// saveLastTrainingRun records the selection. Failures are logged only: the
// build already succeeded and the response must not change.
func (s *Server) saveLastTrainingRun(ctx context.Context, run lastTrainingRun) {
	if s.sessions == nil {
		return
	}
	payload, err := json.Marshal(run)
	if err != nil {
		s.logger.Error().Err(err).Msg("last run encode failed")
		return
	}
	if err := s.sessions.Set(ctx, lastTrainingRunKey, payload, lastTrainingRunTTL); err != nil {
		s.logger.Error().Err(err).Msg("last run save failed")
	}
}

func (s *Server) handleLastTrainingRun(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotImplemented, "session store not configured")
		return
	}
	payload, err := s.sessions.Get(r.Context(), lastTrainingRunKey)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no training runs recorded")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("last run load failed")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	var run lastTrainingRun
	if err := json.Unmarshal(payload, &run); err != nil {
		s.logger.Error().Err(err).Msg("last run decode failed")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
