// Package server implements the HTTP server that exposes the deskai
// support-chat API: question answering, agent status, reindexing, ticket
// uploads, health/readiness probes, and Prometheus metrics.
// The server is started by the `deskai serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/r1shah/deskai-go/internal/agents"
	"github.com/r1shah/deskai-go/internal/chat"
	"github.com/r1shah/deskai-go/internal/logging"
	"github.com/r1shah/deskai-go/internal/store"
)

// Deps bundles the collaborators the server exposes over HTTP.
type Deps struct {
	// Orchestrator answers questions. Required.
	Orchestrator answerer
	// Indexer manages per-agent collections. Required.
	Indexer agentIndexer
	// Transcripts records answered exchanges. Optional; nil disables history.
	Transcripts transcripts
}

// New constructs a Server from the provided dependencies and config.
func New(deps *Deps, cfg *Config) (*Server, error) {
	if deps == nil || deps.Orchestrator == nil {
		return nil, fmt.Errorf("server: orchestrator must not be nil")
	}
	if deps.Indexer == nil {
		return nil, fmt.Errorf("server: indexer must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover a full embed + retrieve + generate cycle.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ChatTimeout == 0 {
		cfg.ChatTimeout = 90 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	registry := cfg.MetricsRegistry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	gatherer := cfg.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		answerer:    deps.Orchestrator,
		indexer:     deps.Indexer,
		transcripts: deps.Transcripts,
		cfg:         cfg,
		log:         log,
		pingers:     cfg.Pingers,
		metrics:     newServerMetrics(registry),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("server: DESKAI_API_KEY not set — API authentication is disabled")
	}

	// Protected routes: auth then per-IP rate limiting.
	protect := func(name string, h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(s.observe(name, h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", protect("chat", s.handleChat))
	mux.Handle("GET /api/agents", protect("agents", s.handleAgents))
	mux.Handle("GET /api/agents/{id}", protect("agent_status", s.handleAgentStatus))
	mux.Handle("GET /api/agents/{id}/history", protect("agent_history", s.handleHistory))
	mux.Handle("POST /api/agents/{id}/reindex", protect("reindex", s.handleReindex))
	mux.Handle("POST /api/agents/reindex-all", protect("reindex_all", s.handleReindexAll))
	mux.Handle("POST /api/agents/{id}/upload", protect("upload", s.handleUpload))
	mux.Handle("DELETE /api/agents/{id}/data", protect("clear_data", s.handleClearData))
	mux.Handle("GET /api/stats", protect("stats", s.handleStats))

	// Probes and metrics stay open: load balancers and Prometheus do not
	// carry bearer tokens.
	mux.Handle("GET /api/health", s.observe("health", s.handleHealth))
	mux.Handle("GET /api/ready", s.observe("ready", s.handleReady))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleChat handles POST /api/chat. It answers the question through the
// orchestrator and records the exchange in the transcript store.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ChatTimeout)
	defer cancel()

	resp, err := s.answerer.Answer(ctx, req.Question, req.AgentID)
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, agents.ErrNotFound):
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown agent %q", req.AgentID))
		case errors.Is(err, chat.ErrAgentNotReady):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("agent %q has no indexed tickets", req.AgentID))
		default:
			logging.FromContext(r.Context()).Error("chat request failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to answer question")
		}
		s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.chatDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		return
	}

	outcome := "ok"
	if resp.RequiresHuman {
		outcome = "redirect"
	}
	s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	s.recordExchange(r.Context(), &req, resp)

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:        resp.Answer,
		RequiresHuman: resp.RequiresHuman,
		Sources:       resp.Sources,
		Confidence:    resp.Confidence,
		ActionLinks:   resp.ActionLinks,
	})
}

// recordExchange persists the answered exchange when a transcript store is
// configured. Failures are logged, never surfaced to the client.
func (s *Server) recordExchange(ctx context.Context, req *chatRequest, resp *chat.Response) {
	if s.transcripts == nil {
		return
	}
	ex := &store.Exchange{
		AgentID:       req.AgentID,
		Question:      req.Question,
		Answer:        resp.Answer,
		RequiresHuman: resp.RequiresHuman,
		Confidence:    resp.Confidence,
	}
	if err := s.transcripts.Record(ctx, ex); err != nil {
		logging.FromContext(ctx).Warn("transcript record failed", slog.Any("error", err))
	}
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// observe wraps a handler with the shared HTTP request metrics. The logical
// handler name partitions the metrics instead of the raw URL path.
func (s *Server) observe(name string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rw, r)
		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, name, fmt.Sprintf("%d", rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
	})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("server: response encode error", slog.Any("error", err))
	}
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
