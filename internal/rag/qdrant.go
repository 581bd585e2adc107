package rag

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/r1shah/deskai-go/internal/logging"
)

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// VectorSize is the dimensionality of the embeddings stored in every
	// collection managed by this store. Fixed per embedding model.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance. It manages
// one named collection per agent knowledge base, creating each lazily on
// first write with a cosine similarity space.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig

	// mu guards known during concurrent lazy collection creation.
	mu sync.Mutex

	// known caches collection names already confirmed to exist so the
	// existence RPC runs once per collection per process.
	known map[string]bool
}

// NewQdrantStore creates a new QdrantStore. Collections are not created here;
// each is ensured lazily the first time points are upserted into it.
func NewQdrantStore(cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.VectorSize == 0 {
		return nil, fmt.Errorf("qdrant: vector size must be set")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantStore{
		client: client,
		cfg:    cfg,
		known:  make(map[string]bool),
	}, nil
}

// Client exposes the underlying Qdrant client for readiness probes.
func (s *QdrantStore) Client() *qdrant.Client {
	return s.client
}

// ensureCollection creates the named collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.known[collection] {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.cfg.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("qdrant: failed to create collection %q: %w", collection, err)
		}
	}

	s.known[collection] = true
	return nil
}

// Upsert stores a batch of ticket points in the named collection. The vector
// of every point must match the store's configured dimensionality — a
// mismatched vector aborts the whole batch before anything is written.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []TicketPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	qpoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		if uint64(len(p.Vector)) != s.cfg.VectorSize {
			return 0, fmt.Errorf("%w: ticket %q has %d dimensions, collection %q expects %d",
				ErrDimensionMismatch, p.TicketID, len(p.Vector), collection, s.cfg.VectorSize)
		}

		category := p.Category
		if category == "" {
			category = "general"
		}

		qpoints = append(qpoints, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(p.TicketID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"ticket_id":  p.TicketID,
				"query":      p.Query,
				"resolution": p.Resolution,
				"category":   category,
			}),
		})
	}

	if err := s.ensureCollection(ctx, collection); err != nil {
		return 0, err
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qpoints,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: upsert into %q failed: %w", collection, err)
	}

	return len(points), nil
}

// Search performs a cosine similarity search in the named collection and
// returns the top-k matches with scores rounded to 4 decimal places.
// An absent or unreachable collection yields an empty result, never an error.
func (s *QdrantStore) Search(ctx context.Context, collection string, queryVector []float32, topK int) []RetrievedContext {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil || !exists {
		if err != nil {
			logging.FromContext(ctx).Warn("qdrant: existence check failed, treating collection as empty",
				slog.String("collection", collection),
				slog.Any("error", err),
			)
		}
		return nil
	}

	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("qdrant: query failed, returning empty retrieval",
			slog.String("collection", collection),
			slog.Any("error", err),
		)
		return nil
	}

	retrieved := make([]RetrievedContext, 0, len(results))
	for _, r := range results {
		rc := RetrievedContext{
			SimilarityScore: roundScore(r.Score),
		}
		if p := r.Payload; p != nil {
			if v, ok := p["ticket_id"]; ok {
				rc.TicketID = v.GetStringValue()
			}
			if v, ok := p["query"]; ok {
				rc.OriginalQuery = v.GetStringValue()
			}
			if v, ok := p["resolution"]; ok {
				rc.Resolution = v.GetStringValue()
			}
			if v, ok := p["category"]; ok {
				rc.Category = v.GetStringValue()
			}
		}
		retrieved = append(retrieved, rc)
	}

	return retrieved
}

// Count returns the number of points in the named collection, or 0 if the
// collection does not exist or cannot be reached.
func (s *QdrantStore) Count(ctx context.Context, collection string) int {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil || !exists {
		return 0
	}

	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
	})
	if err != nil {
		return 0
	}
	return int(n)
}

// Clear destroys the named collection. A subsequent upsert recreates it
// empty. Returns false on failure rather than an error.
func (s *QdrantStore) Clear(ctx context.Context, collection string) bool {
	s.mu.Lock()
	delete(s.known, collection)
	s.mu.Unlock()

	if err := s.client.DeleteCollection(ctx, collection); err != nil {
		logging.FromContext(ctx).Warn("qdrant: failed to clear collection",
			slog.String("collection", collection),
			slog.Any("error", err),
		)
		return false
	}
	return true
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointID derives a stable UUID-shaped identifier from a ticket id so that
// re-adding the same ticket overwrites its point rather than duplicating it.
func pointID(ticketID string) string {
	h := sha256.Sum256([]byte("ticket_" + ticketID))
	return fmt.Sprintf("%x-%x-%x-%x-%x", h[0:4], h[4:6], h[6:8], h[8:10], h[10:16])
}

// roundScore rounds a similarity score to 4 decimal places. All threshold
// comparisons downstream operate on the rounded value.
func roundScore(score float32) float64 {
	return math.Round(float64(score)*10000) / 10000
}
