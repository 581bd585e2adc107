// Package budget provides token budget estimation for the retrieved-ticket
// context assembled into chat prompts. Because DeskAI supports multiple LLM
// backends with different tokenizers, this package uses a conservative
// character-based heuristic: 1 token ≈ 4 characters (English prose). This
// deliberately under-estimates token counts to leave headroom for
// model-specific overhead.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English; using 3 would be
	// more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default budget for the retrieved-ticket
	// context block in tokens. Conservative enough to fit within 8k-context
	// models (Llama 3 8B, GPT-3.5) while leaving room for the system prompt,
	// the question, and the output.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimBlocks drops trailing blocks until the total estimated token count
// fits within maxTokens. Blocks are ordered most-relevant-first, so the
// least relevant material is dropped. The first block is always retained:
// a prompt with one over-budget ticket still beats a prompt with none.
func TrimBlocks(blocks []string, maxTokens int) []string {
	if len(blocks) == 0 {
		return blocks
	}

	total := 0
	for i, b := range blocks {
		total += Estimate(b)
		if total > maxTokens && i > 0 {
			return blocks[:i]
		}
	}
	return blocks
}
