// Package api provides the HTTP and WebSocket transport surface:
// strategy catalog, synchronous run/backtest, a progressive SSE
// stream, an AI-insight forwarding stub, and live-price WebSocket
// fan-out. Grounded on the teacher's api.Server (gorilla/mux router,
// rs/cors handler, zap logging, graceful Stop), narrowed from the
// teacher's order/backtest-state bookkeeping server to a stateless
// router over the orchestrator — the quant engine persists nothing
// itself (spec.md §6: "Persisted state. None owned by the engine").
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/atlas-desktop/quant-engine/internal/config"
	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/orchestrator"
	"github.com/atlas-desktop/quant-engine/internal/quant/strategy"
)

const insightDisclaimer = "Informational only. Not financial advice."

// Server is the quant engine's HTTP/WebSocket transport.
type Server struct {
	logger       *zap.Logger
	cfg          config.Config
	router       *mux.Router
	httpServer   *http.Server
	registry     *strategy.Registry
	provider     engine.MarketDataProvider
	orchestrator *orchestrator.Orchestrator
}

// NewServer wires the router against a registry, provider, and
// orchestrator already constructed by the caller.
func NewServer(logger *zap.Logger, cfg config.Config, registry *strategy.Registry, provider engine.MarketDataProvider, orch *orchestrator.Orchestrator) *Server {
	s := &Server{
		logger:       logger,
		cfg:          cfg,
		router:       mux.NewRouter(),
		registry:     registry,
		provider:     provider,
		orchestrator: orch,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)

	s.router.HandleFunc("/quant/strategies", instrument("strategies", s.handleStrategies)).Methods(http.MethodGet)
	s.router.HandleFunc("/quant/run", instrument("run", s.handleRun)).Methods(http.MethodPost)
	s.router.HandleFunc("/quant/backtest", instrument("backtest", s.handleBacktest)).Methods(http.MethodPost)
	s.router.HandleFunc("/quant/ai-insight", instrument("ai-insight", s.handleAIInsight)).Methods(http.MethodPost)
	s.router.HandleFunc("/quant/stream/run", instrument("stream", s.handleStreamRun)).Methods(http.MethodGet)
	s.router.HandleFunc("/quant/ws/live/{ticker}", s.handleLiveWS)
}

// Start begins serving. It blocks until the server stops or fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE/WS responses are long-lived; no fixed write deadline.
	}

	s.logger.Info("starting quant engine API server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// runRequestBody mirrors the body shared by /quant/run and
// /quant/backtest per spec.md §6.
type runRequestBody struct {
	Ticker         string             `json:"ticker"`
	Strategy       string             `json:"strategy"`
	Period         engine.Period      `json:"period"`
	Interval       engine.Interval    `json:"interval"`
	Params         map[string]float64 `json:"params"`
	InitialCapital *float64           `json:"initial_capital,omitempty"`
	SizeFraction   *float64           `json:"size_fraction,omitempty"`
}

func (b runRequestBody) toRequest() orchestrator.Request {
	return orchestrator.Request{
		Ticker:   b.Ticker,
		Strategy: b.Strategy,
		Period:   b.Period,
		Interval: b.Interval,
		Params:   b.Params,
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var body runRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.InvalidParamsf("malformed request body: %v", err))
		return
	}

	result, err := s.orchestrator.Run(r.Context(), body.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var body runRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.InvalidParamsf("malformed request body: %v", err))
		return
	}

	initialCapital := 100000.0
	if body.InitialCapital != nil {
		initialCapital = *body.InitialCapital
	}
	sizeFraction := 1.0
	if body.SizeFraction != nil {
		sizeFraction = *body.SizeFraction
	}

	result, err := s.orchestrator.Backtest(r.Context(), body.toRequest(), initialCapital, sizeFraction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// aiInsightRequest/aiInsightResponse: the engine only forwards to an
// LLMProvider (spec.md §6: "this delegates to LLMProvider; engine only
// forwards"). No LLMProvider is wired in this module, so the handler
// returns a templated stand-in with the same disclaimer contract the
// Metric Engine stamps on performance-bearing records.
type aiInsightRequest struct {
	Ticker         string         `json:"ticker"`
	Strategy       string         `json:"strategy"`
	Metrics        engine.Metrics `json:"metrics"`
	SignalsSummary string         `json:"signals_summary,omitempty"`
}

type aiInsightResponse struct {
	Insight    string `json:"insight"`
	Disclaimer string `json:"disclaimer"`
}

func (s *Server) handleAIInsight(w http.ResponseWriter, r *http.Request) {
	var req aiInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidParamsf("malformed request body: %v", err))
		return
	}
	if req.Ticker == "" || req.Strategy == "" {
		writeError(w, apperr.InvalidParamsf("ticker and strategy are required"))
		return
	}

	insight := fmt.Sprintf(
		"%s on %s: verdict %q, confidence %.2f.",
		req.Strategy, req.Ticker, req.Metrics.Verdict, req.Metrics.Confidence,
	)
	writeJSON(w, http.StatusOK, aiInsightResponse{Insight: insight, Disclaimer: insightDisclaimer})
}

func (s *Server) handleStreamRun(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := orchestrator.Request{
		Ticker:   q.Get("ticker"),
		Strategy: q.Get("strategy"),
		Period:   engine.Period(q.Get("period")),
		Interval: engine.Interval(q.Get("interval")),
	}
	if raw := q.Get("params"); raw != "" {
		var params map[string]float64
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			writeError(w, apperr.InvalidParamsf("malformed params query parameter: %v", err))
			return
		}
		req.Params = params
	}

	events := s.orchestrator.Stream(r.Context(), req)
	s.writeSSE(w, r, events)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the four-kind error taxonomy to HTTP status codes
// per spec.md §6.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.InvalidParams, apperr.UnknownStrategy:
		status = http.StatusBadRequest
	case apperr.DataUnavailable:
		status = http.StatusBadGateway
	case apperr.InternalComputation:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{
		"error_kind": string(kind),
		"message":    err.Error(),
	})
}
