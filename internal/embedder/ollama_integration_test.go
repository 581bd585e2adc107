//go:build integration

package embedder

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"
)

// TestOllamaEmbedder_Integration embeds two ticket-like texts against a real
// Ollama instance and sanity-checks the returned vectors.
//
// Prerequisites:
//
//	ollama pull nomic-embed-text
//	ollama serve   (or it must already be running)
//
// Run with:
//
//	go test -tags=integration -run TestOllamaEmbedder_Integration ./internal/embedder/
//
// Set OLLAMA_HOST when Ollama is not on localhost:11434.
func TestOllamaEmbedder_Integration(t *testing.T) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = "nomic-embed-text"
	}

	emb := NewOllamaEmbedder(&OllamaConfig{Host: host, Model: model})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	texts := []string{
		"My VPN client disconnects every few minutes when working from home.",
		"I cannot reset my password because the self-service portal rejects my security answers.",
	}

	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		t.Fatalf("Embed() failed: %v\n\nEnsure Ollama is running and %q is pulled:\n  ollama pull %s", err, model, model)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(vecs))
	}

	dim := len(vecs[0])
	for i, vec := range vecs {
		if len(vec) == 0 {
			t.Fatalf("embedding[%d] is empty", i)
		}
		if len(vec) != dim {
			t.Errorf("embedding[%d]: dim=%d, expected %d (all vectors must share one dimension)", i, len(vec), dim)
		}
	}

	// Different tickets must not embed to the same vector.
	if slices.Equal(vecs[0], vecs[1]) {
		t.Error("distinct texts produced identical embeddings; model may be misbehaving")
	}

	// Log the dimension so the operator can confirm it matches the Qdrant
	// collection's vector size.
	t.Logf("model=%s dim=%d", model, dim)
}
