package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/r1shah/deskai-go/internal/agents"
	"github.com/r1shah/deskai-go/internal/chat"
	"github.com/r1shah/deskai-go/internal/embedder"
	"github.com/r1shah/deskai-go/internal/indexer"
	"github.com/r1shah/deskai-go/internal/rag"
)

// defaultAgentsFile is the agent roster path used when DESKAI_AGENTS_FILE is
// unset.
const defaultAgentsFile = "configs/agents.yaml"

// stack bundles the retrieval components shared by the serve, index, and ask
// commands.
type stack struct {
	registry *agents.Registry
	store    *rag.QdrantStore
	embedder rag.Embedder
	indexer  *indexer.Indexer
}

// buildStack wires up the embedder, Qdrant store, agent registry, and
// indexer from the environment. The returned close func releases the Qdrant
// connection.
func buildStack(log *slog.Logger) (*stack, func(), error) {
	if err := embedder.Validate(log); err != nil {
		return nil, nil, err
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	backend := embedder.Backend()
	log.Info("embedder initialised", slog.String("provider", backend))

	qdrantHost := getEnvOrDefault("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)
	vectorSize := uint64(embedder.DefaultDimensions(backend)) //nolint:gosec // dimensions are bounded

	store, err := rag.NewQdrantStore(&rag.QdrantConfig{
		Host:       qdrantHost,
		Port:       qdrantPort,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", qdrantHost, qdrantPort, err)
	}
	log.Info("qdrant store ready", slog.String("host", qdrantHost), slog.Int("port", qdrantPort))

	agentsFile := getEnvOrDefault("DESKAI_AGENTS_FILE", defaultAgentsFile)
	registry, err := agents.Load(agentsFile)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load agent roster from %s: %w", agentsFile, err)
	}
	log.Info("agent roster loaded", slog.String("file", agentsFile), slog.Int("agents", len(registry.All())))

	idx, err := indexer.New(registry, emb, store, &indexer.Config{
		DataDir: os.Getenv("DESKAI_DATA_DIR"),
	})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	s := &stack{
		registry: registry,
		store:    store,
		embedder: emb,
		indexer:  idx,
	}
	return s, func() { _ = store.Close() }, nil
}

// orchestratorConfig builds the chat orchestrator config from the stack and
// the retrieval tuning environment variables.
func (s *stack) orchestratorConfig(model chat.Generator) *chat.Config {
	return &chat.Config{
		Registry:            s.registry,
		Store:               s.store,
		Embedder:            s.embedder,
		Model:               model,
		SimilarityThreshold: getEnvFloat("RETRIEVAL_THRESHOLD", 0),
		TopK:                getEnvInt("RETRIEVAL_TOP_K", 0),
		TicketURL:           os.Getenv("SUPPORT_TICKET_URL"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
