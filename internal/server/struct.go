package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/r1shah/deskai-go/internal/chat"
	"github.com/r1shah/deskai-go/internal/indexer"
	"github.com/r1shah/deskai-go/internal/rag"
	"github.com/r1shah/deskai-go/internal/store"
	"github.com/r1shah/deskai-go/internal/ticket"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// ChatTimeout bounds a single /api/chat request end to end.
	ChatTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives the server's Prometheus metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs the GET /metrics endpoint. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// answerer is the interface handleChat calls to answer a question.
// *chat.Orchestrator satisfies it; tests inject a fake.
type answerer interface {
	Answer(ctx context.Context, question, agentID string) (*chat.Response, error)
}

// agentIndexer is the interface the agent management handlers call.
// *indexer.Indexer satisfies it; tests inject a fake.
type agentIndexer interface {
	IndexAll(ctx context.Context, force bool) map[string]int
	Status(ctx context.Context, agentID string) (indexer.Status, error)
	AllStatuses(ctx context.Context) []indexer.Status
	Reindex(ctx context.Context, agentID string, force bool) (int, error)
	ReplaceAgentTickets(ctx context.Context, agentID string, tickets []ticket.Ticket) (int, error)
	ClearAgent(ctx context.Context, agentID string) (bool, error)
}

// transcripts is the subset of store.TranscriptStore the server uses.
// Nil disables transcript recording.
type transcripts interface {
	Record(ctx context.Context, ex *store.Exchange) error
	Recent(ctx context.Context, agentID string, n int) ([]store.Exchange, error)
	Stats(ctx context.Context) ([]store.RedirectStats, error)
}

// Server is the HTTP server that exposes the support-chat API.
type Server struct {
	// answerer resolves questions to grounded answers.
	answerer answerer
	// indexer manages per-agent collections.
	indexer agentIndexer
	// transcripts records answered exchanges; nil disables history.
	transcripts transcripts
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds all Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Question is the user's support question.
	Question string `json:"question"`
	// AgentID selects which agent answers the question.
	AgentID string `json:"agent_id"`
}

// chatResponse is the JSON response for POST /api/chat.
type chatResponse struct {
	// Answer is the display text, directives already stripped.
	Answer string `json:"answer"`
	// RequiresHuman is true when the question was redirected.
	RequiresHuman bool `json:"requires_human"`
	// Sources lists the retrieved tickets the answer was grounded on.
	Sources []rag.RetrievedContext `json:"sources"`
	// Confidence is the best retrieval similarity for this answer.
	Confidence float64 `json:"confidence"`
	// ActionLinks are the actionable directives attached to the answer.
	ActionLinks []chat.ActionLink `json:"action_links"`
}

// reindexResponse is the JSON response for the reindex endpoints.
type reindexResponse struct {
	// Indexed maps agent ID to the number of tickets now in its collection.
	Indexed map[string]int `json:"indexed"`
}

// uploadResponse is the JSON response for POST /api/agents/{id}/upload.
type uploadResponse struct {
	// AgentID identifies the agent whose collection was replaced.
	AgentID string `json:"agent_id"`
	// TicketsIndexed is the number of tickets in the replacement batch.
	TicketsIndexed int `json:"tickets_indexed"`
}

// clearResponse is the JSON response for DELETE /api/agents/{id}/data.
type clearResponse struct {
	// AgentID identifies the agent whose collection was cleared.
	AgentID string `json:"agent_id"`
	// Cleared is true when the collection was removed.
	Cleared bool `json:"cleared"`
}

// historyEntry is one exchange in the GET /api/agents/{id}/history response.
type historyEntry struct {
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	RequiresHuman bool      `json:"requires_human"`
	Confidence    float64   `json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
}

// errorResponse is the JSON body for all non-2xx API responses.
type errorResponse struct {
	// Error is a human-readable description of what went wrong.
	Error string `json:"error"`
}
