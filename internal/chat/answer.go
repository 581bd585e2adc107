// Package chat implements the retrieval-and-answer orchestrator: it embeds a
// question, retrieves the nearest past tickets from the agent's collection,
// grounds an LLM completion on them, and applies the deterministic
// human-redirect policy to the result.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/r1shah/deskai-go/internal/agents"
	"github.com/r1shah/deskai-go/internal/budget"
	"github.com/r1shah/deskai-go/internal/logging"
	"github.com/r1shah/deskai-go/internal/rag"
)

// ErrAgentNotReady is returned when the target agent has zero indexed
// tickets. Distinct from an empty retrieval on a populated collection, which
// is a normal outcome handled by the redirect policy.
var ErrAgentNotReady = errors.New("chat: agent knowledge base is empty")

// Generator is the single-turn completion capability the orchestrator needs
// from an LLM backend. Models built by the provider factory satisfy it;
// tests inject a fake.
type Generator interface {
	// Generate produces one completion for the given message sequence.
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Response is the structured outcome of one answered question.
type Response struct {
	// Answer is the display text, with directives already stripped.
	Answer string `json:"answer"`

	// RequiresHuman is true when the redirect policy fired.
	RequiresHuman bool `json:"requires_human"`

	// Sources are the retrieved contexts the answer was grounded on,
	// ordered by descending similarity.
	Sources []rag.RetrievedContext `json:"sources"`

	// Confidence is the best similarity score among the sources, or 0
	// when nothing was retrieved.
	Confidence float64 `json:"confidence"`

	// ActionLinks are the directives extracted from the answer, or the
	// standing create-ticket link on redirect outcomes.
	ActionLinks []ActionLink `json:"action_links"`
}

// Config holds the dependencies and tuning for the Orchestrator.
type Config struct {
	// Registry is the agent roster.
	Registry *agents.Registry

	// Store is the vector index holding each agent's tickets.
	Store rag.VectorStore

	// Embedder embeds incoming questions.
	Embedder rag.Embedder

	// Model is the LLM completion backend.
	Model Generator

	// SimilarityThreshold is the minimum best-match score below which the
	// redirect policy fires regardless of model output. Defaults to 0.75.
	SimilarityThreshold float64

	// TopK is the number of tickets retrieved per question. Defaults to 3.
	TopK int

	// TicketURL is the ticketing-system URL used for the fallback
	// create-ticket action link. Defaults to defaultTicketURL.
	TicketURL string
}

// Orchestrator answers questions for any configured agent.
type Orchestrator struct {
	registry  *agents.Registry
	store     rag.VectorStore
	embedder  rag.Embedder
	model     Generator
	threshold float64
	topK      int
	ticketURL string
}

// New constructs an Orchestrator from the provided Config.
func New(cfg *Config) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("chat: registry must not be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("chat: store must not be nil")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("chat: embedder must not be nil")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat: model must not be nil")
	}

	threshold := cfg.SimilarityThreshold
	if threshold == 0 {
		threshold = 0.75
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	ticketURL := cfg.TicketURL
	if ticketURL == "" {
		ticketURL = defaultTicketURL
	}

	return &Orchestrator{
		registry:  cfg.Registry,
		store:     cfg.Store,
		embedder:  cfg.Embedder,
		model:     cfg.Model,
		threshold: threshold,
		topK:      topK,
		ticketURL: ticketURL,
	}, nil
}

// Answer resolves the agent, retrieves grounding context for the question,
// and produces a Response. Returns agents.ErrNotFound for an unknown agent,
// ErrAgentNotReady for an agent with no indexed tickets, and propagates
// embedding/completion failures — there is no safe fallback text without a
// completion result.
func (o *Orchestrator) Answer(ctx context.Context, question, agentID string) (*Response, error) {
	agent, err := o.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	if o.store.Count(ctx, agent.CollectionName) == 0 {
		return nil, fmt.Errorf("%w: agent %q", ErrAgentNotReady, agentID)
	}

	vectors, err := o.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("chat: embedding question failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("chat: embedder returned no vector for question")
	}

	retrieved := o.store.Search(ctx, agent.CollectionName, vectors[0], o.topK)
	if len(retrieved) == 0 {
		// Nothing to ground on at all — redirect without burning a
		// completion call.
		return o.redirectResponse(question, nil, 0), nil
	}

	systemPrompt := agent.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf(userPromptTemplate, formatContext(retrieved), question)),
	}

	completion, err := o.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chat: completion failed: %w", err)
	}
	answer := strings.TrimSpace(completion.Content)

	best := bestScore(retrieved)
	if needsHuman(answer, best, o.threshold) {
		logging.FromContext(ctx).Info("chat: redirecting to human",
			slog.String("agent", agentID),
			slog.Float64("best_score", best),
			slog.Float64("threshold", o.threshold),
			slog.Bool("sentinel", containsSentinel(answer)),
		)
		return o.redirectResponse(question, retrieved, best), nil
	}

	cleaned, links := ParseDirectives(answer)
	return &Response{
		Answer:        cleaned,
		RequiresHuman: false,
		Sources:       retrieved,
		Confidence:    best,
		ActionLinks:   links,
	}, nil
}

// needsHuman is the deterministic redirect policy: the sentinel token in the
// model output (case-insensitive) or a best similarity below the threshold
// forces a redirect. Both rules apply regardless of the other — a confident
// retrieval cannot override an explicit sentinel, and a low-confidence
// retrieval redirects even when the model attempted an answer.
func needsHuman(answer string, best, threshold float64) bool {
	return containsSentinel(answer) || best < threshold
}

// containsSentinel reports whether the redirect sentinel appears anywhere in
// the model output.
func containsSentinel(answer string) bool {
	return strings.Contains(strings.ToUpper(answer), redirectSentinel)
}

// bestScore returns the highest similarity among the retrieved contexts.
// Seeded from the first element so an all-negative score set (possible under
// cosine similarity) reports the true maximum rather than zero. Callers
// guarantee retrieved is non-empty.
func bestScore(retrieved []rag.RetrievedContext) float64 {
	best := retrieved[0].SimilarityScore
	for _, rc := range retrieved[1:] {
		if rc.SimilarityScore > best {
			best = rc.SimilarityScore
		}
	}
	return best
}

// redirectResponse builds the standing human-redirect response: fixed
// apology text plus a create-ticket action link carrying the question.
// Sources and confidence reflect what almost matched, so callers can see
// how close the retrieval came.
func (o *Orchestrator) redirectResponse(question string, sources []rag.RetrievedContext, confidence float64) *Response {
	return &Response{
		Answer:        fallbackAnswer,
		RequiresHuman: true,
		Sources:       sources,
		Confidence:    confidence,
		ActionLinks: []ActionLink{{
			Label:        "Create Support Ticket",
			URL:          o.ticketURL + "&description=" + url.QueryEscape(question),
			ToolCall:     createTicketTool,
			IsToolAction: true,
		}},
	}
}

// formatContext renders the retrieved tickets into the numbered block the
// completion prompt embeds: rank, similarity percentage, category, original
// question, and resolution. Tickets beyond the token budget are dropped
// least-relevant-first.
func formatContext(retrieved []rag.RetrievedContext) string {
	blocks := make([]string, len(retrieved))
	for i, rc := range retrieved {
		category := rc.Category
		if category == "" {
			category = "General"
		}
		blocks[i] = fmt.Sprintf("\n--- Ticket #%d (Relevance: %.0f%%) ---\nCategory: %s\nOriginal Question: %s\nResolution: %s\n",
			i+1, rc.SimilarityScore*100, category, rc.OriginalQuery, rc.Resolution)
	}
	return strings.Join(budget.TrimBlocks(blocks, budget.DefaultMaxContextTokens), "\n")
}
