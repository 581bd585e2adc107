package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/qdrant/go-client/qdrant"
)

// LLMPinger checks that the chat model answering support questions is
// reachable, by running a one-message generate round trip.
type LLMPinger struct {
	model model.ToolCallingChatModel
	name  string
}

// NewLLMPinger wraps the given model as a readiness probe. name is the
// backend label shown in /api/ready, e.g. "ollama" or "openai".
func NewLLMPinger(m model.ToolCallingChatModel, name string) *LLMPinger {
	return &LLMPinger{model: m, name: name}
}

func (p *LLMPinger) Name() string { return p.name }

// Ping sends a single "ping" user message. Any completed response counts as
// healthy; content is not inspected.
func (p *LLMPinger) Ping(ctx context.Context) error {
	resp, err := p.model.Generate(ctx, []*schema.Message{schema.UserMessage("ping")})
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}
	if resp == nil {
		return errors.New("generate returned nil response")
	}
	return nil
}

// QdrantPinger checks the vector store holding the ticket indexes, via
// Qdrant's native HealthCheck RPC.
type QdrantPinger struct {
	client *qdrant.Client
}

func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

func (p *QdrantPinger) Name() string { return "qdrant" }

func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
