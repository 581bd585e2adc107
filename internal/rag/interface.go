// Package rag defines the interfaces for the retrieval side of the support
// agent: vector storage and embedding. Concrete implementations (Qdrant,
// OpenAI, Ollama) satisfy these interfaces so the indexing and answering
// layers never depend on a specific backend.
package rag

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned by Upsert when a point's vector length
// differs from the dimensionality the store was configured with. Mismatched
// vectors would otherwise be accepted silently and only surface later as
// nonsensical similarity scores.
var ErrDimensionMismatch = errors.New("rag: embedding dimension mismatch")

// TicketPoint is one indexed knowledge-base entry: the embedding of a ticket's
// query plus the payload returned at retrieval time. Only the query is ever
// embedded; the resolution rides along as payload.
type TicketPoint struct {
	// TicketID is the opaque unique ticket identifier.
	TicketID string

	// Query is the customer question that was embedded.
	Query string

	// Resolution is how the ticket was resolved. Returned as grounding
	// evidence, never embedded.
	Resolution string

	// Category is the ticket category label (defaults to "general").
	Category string

	// Vector is the pre-computed embedding of Query.
	Vector []float32
}

// RetrievedContext is one nearest-neighbour match for a chat question.
// Derived per request, never persisted.
type RetrievedContext struct {
	// TicketID identifies the source ticket.
	TicketID string `json:"ticket_id"`

	// OriginalQuery is the indexed customer question that matched.
	OriginalQuery string `json:"original_query"`

	// Resolution is the grounding evidence for the answer.
	Resolution string `json:"resolution"`

	// Category is the ticket category label.
	Category string `json:"category"`

	// SimilarityScore is the cosine similarity to the question, rounded to
	// 4 decimal places at retrieval time. Thresholds compare against this
	// rounded value.
	SimilarityScore float64 `json:"similarity_score"`
}

// VectorStore is the interface for persisting and searching ticket embeddings.
// Each agent's knowledge base lives in its own named collection; collections
// are created lazily on first write. Implementations must be safe to call
// from multiple goroutines.
type VectorStore interface {
	// Upsert stores a batch of ticket points in the named collection and
	// returns the number stored. Empty input is a no-op returning 0.
	// Returns ErrDimensionMismatch if any vector's length differs from the
	// store's configured dimensionality.
	Upsert(ctx context.Context, collection string, points []TicketPoint) (int, error)

	// Search returns up to topK matches ordered by descending similarity.
	// An empty, absent, or unreachable collection yields an empty slice,
	// never an error — a collection with nothing to retrieve is a normal
	// outcome handled by the redirect policy, not a fault.
	Search(ctx context.Context, collection string, queryVector []float32, topK int) []RetrievedContext

	// Count returns the number of points in the collection, or 0 if the
	// collection is absent or unreachable. Used as the "is this agent
	// ready" probe.
	Count(ctx context.Context, collection string) int

	// Clear idempotently destroys the named collection. Failures are
	// reported as false rather than raised so reindex flows stay simple
	// and retryable.
	Clear(ctx context.Context, collection string) bool

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice. Empty input must
	// return an empty result without invoking the remote call.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
