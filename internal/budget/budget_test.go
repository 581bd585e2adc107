package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcde", 1},    // 5 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.UserMessage("hello world"), // 4 overhead + 1 (role) + 2 (content) = 7
		schema.UserMessage("hello world"),
	}
	got := EstimateMessages(msgs)
	// Each message: 4 overhead + Estimate("user")=1 + Estimate("hello world")=2 = 7
	// Two messages: 14
	if got != 14 {
		t.Errorf("EstimateMessages = %d, want 14", got)
	}
}

func Test_TrimBlocks_NoTrimNeeded(t *testing.T) {
	t.Parallel()
	blocks := []string{"ticket one", "ticket two", "ticket three"}
	got := TrimBlocks(blocks, DefaultMaxContextTokens)
	if len(got) != 3 {
		t.Errorf("want 3 blocks, got %d", len(got))
	}
}

func Test_TrimBlocks_DropsLeastRelevant(t *testing.T) {
	t.Parallel()
	// Each block is 40 chars = 10 tokens. A 25-token budget fits two blocks
	// (20 ≤ 25) but not three (30 > 25). The trailing block should go.
	blocks := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	got := TrimBlocks(blocks, 25)
	if len(got) != 2 {
		t.Fatalf("want 2 blocks after trim, got %d", len(got))
	}
	if got[1] != strings.Repeat("b", 40) {
		t.Errorf("wrong block retained: %q", got[1][:1])
	}
}

func Test_TrimBlocks_FirstBlockAlwaysKept(t *testing.T) {
	t.Parallel()
	blocks := []string{strings.Repeat("x", 4*7000)} // ~7000 tokens
	got := TrimBlocks(blocks, 6000)
	if len(got) != 1 {
		t.Errorf("want the over-budget first block retained, got %d blocks", len(got))
	}
}

func Test_TrimBlocks_Empty(t *testing.T) {
	t.Parallel()
	if got := TrimBlocks(nil, DefaultMaxContextTokens); len(got) != 0 {
		t.Errorf("want empty, got %d", len(got))
	}
}
