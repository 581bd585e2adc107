package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/r1shah/deskai-go/internal/logging"
)

// probeTimeout bounds each dependency probe during a readiness check so
// /api/ready answers promptly when a dependency is slow rather than down.
const probeTimeout = 5 * time.Second

// Pinger reports the reachability of one backing dependency (the vector
// store, the chat model). Implementations must be safe for concurrent use.
type Pinger interface {
	// Ping returns nil when the dependency is reachable, a descriptive
	// error otherwise.
	Ping(ctx context.Context) error

	// Name is the short label used in readiness responses, e.g. "qdrant".
	Name() string
}

// MultiPinger combines several Pingers into one probe that fails on the
// first unreachable dependency.
type MultiPinger struct {
	pingers []Pinger
}

func NewMultiPinger(pingers ...Pinger) *MultiPinger {
	return &MultiPinger{pingers: pingers}
}

// Ping probes each dependency in order and returns the first failure,
// wrapped with the dependency's name.
func (m *MultiPinger) Ping(ctx context.Context) error {
	for _, p := range m.pingers {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}

func (m *MultiPinger) Name() string { return "multi" }

// readyCheck is one dependency's result in the /api/ready response.
type readyCheck struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// readyResponse is the body of GET /api/ready. Ready is true only when
// every check passed.
type readyResponse struct {
	Ready  bool         `json:"ready"`
	Checks []readyCheck `json:"checks"`
}

// runProbes pings every registered dependency with an individual timeout
// and reports whether all of them answered.
func (s *Server) runProbes(ctx context.Context, log *slog.Logger) ([]readyCheck, bool) {
	checks := make([]readyCheck, 0, len(s.pingers))
	ready := true

	for _, p := range s.pingers {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := p.Ping(probeCtx)
		cancel()

		check := readyCheck{Name: p.Name(), OK: err == nil}
		if err != nil {
			check.Error = err.Error()
			ready = false
			log.Warn("readiness probe failed",
				slog.String("dependency", p.Name()),
				slog.Any("error", err),
			)
		}
		checks = append(checks, check)
	}

	return checks, ready
}

// handleReady handles GET /api/ready. It answers 200 when the vector store
// and model are both reachable and 503 otherwise, with per-dependency
// detail in the body. /api/health stays a pure liveness check and never
// touches dependencies.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks, ready := s.runProbes(r.Context(), logging.FromContext(r.Context()))

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, readyResponse{Ready: ready, Checks: checks})
}
