// Package indexer populates each agent's vector collection from its ticket
// data source. It is invoked at startup (index everything that is missing),
// by the reindex API endpoints (force refresh), and by the upload endpoint
// (replace a collection with an uploaded batch).
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/r1shah/deskai-go/internal/agents"
	"github.com/r1shah/deskai-go/internal/logging"
	"github.com/r1shah/deskai-go/internal/rag"
	"github.com/r1shah/deskai-go/internal/ticket"
)

// Config holds the configuration for the Indexer.
type Config struct {
	// DataDir is the directory that relative agent data_source paths are
	// resolved against. Defaults to the current working directory.
	DataDir string
}

// Status describes one agent's readiness for the status API.
type Status struct {
	// ID is the agent identifier.
	ID string `json:"id"`
	// Name is the agent display name.
	Name string `json:"name"`
	// Description summarises the agent's expertise.
	Description string `json:"description"`
	// Icon is the frontend icon name.
	Icon string `json:"icon"`
	// TicketsCount is the number of indexed tickets in the agent's collection.
	TicketsCount int `json:"tickets_count"`
	// IsReady is true when the agent has at least one indexed ticket.
	IsReady bool `json:"is_ready"`
}

// Indexer orchestrates the load → validate → embed → upsert flow per agent.
type Indexer struct {
	// registry is the agent roster.
	registry *agents.Registry

	// embedder converts ticket queries into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded tickets, one collection per agent.
	store rag.VectorStore

	// cfg holds the resolved indexer configuration.
	cfg *Config
}

// New constructs an Indexer from the provided dependencies and config.
func New(registry *agents.Registry, embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Indexer, error) {
	if registry == nil {
		return nil, fmt.Errorf("indexer: registry must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("indexer: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("indexer: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	return &Indexer{
		registry: registry,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}, nil
}

// Index populates one agent's collection from its data source and returns the
// number of tickets indexed. When the collection already has data and force
// is false, indexing is skipped and the current count returned — this keeps
// restarts cheap by avoiding re-embedding. With force, the collection is
// cleared first; if the data source then turns out to be empty or corrupt,
// the agent is deliberately left empty (observable via count=0) rather than
// fabricating data.
//
// Any failure (load, embed, upsert) yields 0 for this agent without raising,
// so one broken agent never blocks the others during IndexAll.
func (x *Indexer) Index(ctx context.Context, agent agents.Agent, force bool) int {
	log := logging.FromContext(ctx).With(slog.String("agent", agent.ID))

	current := x.store.Count(ctx, agent.CollectionName)
	if current > 0 && !force {
		log.Info("indexer: agent already indexed, skipping",
			slog.Int("tickets", current),
		)
		return current
	}

	if force && current > 0 {
		x.store.Clear(ctx, agent.CollectionName)
		log.Info("indexer: cleared existing collection for reindex",
			slog.String("collection", agent.CollectionName),
		)
	}

	tickets, err := ticket.LoadFile(x.resolveSource(agent.DataSource))
	if err != nil {
		log.Warn("indexer: failed to load tickets", slog.Any("error", err))
		return 0
	}
	if len(tickets) == 0 {
		log.Warn("indexer: no valid tickets in data source",
			slog.String("source", agent.DataSource),
		)
		return 0
	}

	count, err := x.embedAndUpsert(ctx, agent, tickets)
	if err != nil {
		log.Error("indexer: indexing failed", slog.Any("error", err))
		return 0
	}

	log.Info("indexer: agent indexed", slog.Int("tickets", count))
	return count
}

// IndexAll indexes every configured agent independently and returns the
// per-agent counts. The roster is reloaded first to pick up changes.
func (x *Indexer) IndexAll(ctx context.Context, force bool) map[string]int {
	if err := x.registry.Reload(); err != nil {
		logging.FromContext(ctx).Warn("indexer: roster reload failed, using previous roster",
			slog.Any("error", err),
		)
	}

	results := make(map[string]int)
	for _, agent := range x.registry.All() {
		results[agent.ID] = x.Index(ctx, agent, force)
	}
	return results
}

// ReplaceTickets replaces an agent's collection with the given pre-parsed
// batch (the upload path). Invalid records are filtered; an all-invalid batch
// is rejected before the existing collection is touched.
func (x *Indexer) ReplaceTickets(ctx context.Context, agent agents.Agent, tickets []ticket.Ticket) (int, error) {
	valid := make([]ticket.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Valid() {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return 0, fmt.Errorf("indexer: no valid tickets in uploaded batch")
	}

	x.store.Clear(ctx, agent.CollectionName)

	count, err := x.embedAndUpsert(ctx, agent, valid)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Reindex resolves the agent by ID and runs Index. Returns
// agents.ErrNotFound for an unknown agent.
func (x *Indexer) Reindex(ctx context.Context, agentID string, force bool) (int, error) {
	agent, err := x.registry.Get(agentID)
	if err != nil {
		return 0, err
	}
	return x.Index(ctx, agent, force), nil
}

// ReplaceAgentTickets resolves the agent by ID and runs ReplaceTickets.
// Returns agents.ErrNotFound for an unknown agent.
func (x *Indexer) ReplaceAgentTickets(ctx context.Context, agentID string, tickets []ticket.Ticket) (int, error) {
	agent, err := x.registry.Get(agentID)
	if err != nil {
		return 0, err
	}
	return x.ReplaceTickets(ctx, agent, tickets)
}

// ClearAgent resolves the agent by ID and destroys its collection. Returns
// agents.ErrNotFound for an unknown agent; the bool reports whether the
// collection was removed.
func (x *Indexer) ClearAgent(ctx context.Context, agentID string) (bool, error) {
	agent, err := x.registry.Get(agentID)
	if err != nil {
		return false, err
	}
	return x.store.Clear(ctx, agent.CollectionName), nil
}

// Status returns the readiness status of one agent.
func (x *Indexer) Status(ctx context.Context, agentID string) (Status, error) {
	agent, err := x.registry.Get(agentID)
	if err != nil {
		return Status{}, err
	}

	count := x.store.Count(ctx, agent.CollectionName)
	return Status{
		ID:           agent.ID,
		Name:         agent.Name,
		Description:  agent.Description,
		Icon:         agent.Icon,
		TicketsCount: count,
		IsReady:      count > 0,
	}, nil
}

// AllStatuses returns the status of every configured agent in roster order.
func (x *Indexer) AllStatuses(ctx context.Context) []Status {
	roster := x.registry.All()
	statuses := make([]Status, 0, len(roster))
	for _, agent := range roster {
		s, err := x.Status(ctx, agent.ID)
		if err != nil {
			continue
		}
		statuses = append(statuses, s)
	}
	return statuses
}

// ClearCollection destroys the named collection, reporting success as a bool.
func (x *Indexer) ClearCollection(ctx context.Context, collection string) bool {
	return x.store.Clear(ctx, collection)
}

// embedAndUpsert embeds every ticket query in order and stores the whole
// batch in the agent's collection. All-or-nothing: a failure at either step
// leaves nothing partially inserted from this batch.
func (x *Indexer) embedAndUpsert(ctx context.Context, agent agents.Agent, tickets []ticket.Ticket) (int, error) {
	queries := make([]string, len(tickets))
	for i, t := range tickets {
		queries[i] = t.Query
	}

	vectors, err := x.embedder.Embed(ctx, queries)
	if err != nil {
		return 0, fmt.Errorf("indexer: embedding failed for agent %q: %w", agent.ID, err)
	}
	if len(vectors) != len(tickets) {
		return 0, fmt.Errorf("indexer: embedder returned %d vectors for %d tickets", len(vectors), len(tickets))
	}

	points := make([]rag.TicketPoint, len(tickets))
	for i, t := range tickets {
		points[i] = rag.TicketPoint{
			TicketID:   t.ID,
			Query:      t.Query,
			Resolution: t.Resolution,
			Category:   t.Category,
			Vector:     vectors[i],
		}
	}

	count, err := x.store.Upsert(ctx, agent.CollectionName, points)
	if err != nil {
		return 0, fmt.Errorf("indexer: upsert failed for agent %q: %w", agent.ID, err)
	}
	return count, nil
}

// resolveSource resolves a data source path against the configured data dir.
func (x *Indexer) resolveSource(source string) string {
	if filepath.IsAbs(source) || x.cfg.DataDir == "" {
		return source
	}
	return filepath.Join(x.cfg.DataDir, source)
}
