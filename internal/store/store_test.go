package store

import (
	"context"
	"fmt"
	"testing"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_RecordAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, &Exchange{AgentID: "it-support", Question: "vpn down", Answer: "reinstall the client", Confidence: 0.91}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, &Exchange{AgentID: "it-support", Question: "weird printer noise", Answer: "redirected", RequiresHuman: true, Confidence: 0.41}); err != nil {
		t.Fatalf("record: %v", err)
	}

	exchanges, err := s.Recent(ctx, "it-support", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(exchanges) != 2 {
		t.Fatalf("want 2 exchanges, got %d", len(exchanges))
	}
	if exchanges[0].Question != "vpn down" || exchanges[0].RequiresHuman {
		t.Errorf("exchange[0]: got %+v", exchanges[0])
	}
	if !exchanges[1].RequiresHuman || exchanges[1].Confidence != 0.41 {
		t.Errorf("exchange[1]: got %+v", exchanges[1])
	}
}

func Test_Store_RecentLimitRespected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 6 {
		ex := &Exchange{AgentID: "hr", Question: fmt.Sprintf("q%d", i), Answer: "a"}
		if err := s.Record(ctx, ex); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	exchanges, err := s.Recent(ctx, "hr", 4)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(exchanges) != 4 {
		t.Errorf("want 4 exchanges, got %d", len(exchanges))
	}
}

func Test_Store_AgentIsolation(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, &Exchange{AgentID: "it-support", Question: "from it", Answer: "a"}); err != nil {
		t.Fatalf("record it: %v", err)
	}
	if err := s.Record(ctx, &Exchange{AgentID: "hr", Question: "from hr", Answer: "a"}); err != nil {
		t.Fatalf("record hr: %v", err)
	}

	itExchanges, err := s.Recent(ctx, "it-support", 10)
	if err != nil {
		t.Fatalf("recent it: %v", err)
	}
	hrExchanges, err := s.Recent(ctx, "hr", 10)
	if err != nil {
		t.Fatalf("recent hr: %v", err)
	}

	if len(itExchanges) != 1 || itExchanges[0].Question != "from it" {
		t.Errorf("it-support isolation failed: got %v", itExchanges)
	}
	if len(hrExchanges) != 1 || hrExchanges[0].Question != "from hr" {
		t.Errorf("hr isolation failed: got %v", hrExchanges)
	}
}

func Test_Store_EmptyAgentReturnsNil(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	exchanges, err := s.Recent(ctx, "no-such-agent", 10)
	if err != nil {
		t.Fatalf("recent empty: %v", err)
	}
	if len(exchanges) != 0 {
		t.Errorf("want 0 exchanges, got %d", len(exchanges))
	}
}

func Test_Store_OldestFirstOrdering(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	questions := []string{"first", "second", "third"}
	for _, q := range questions {
		if err := s.Record(ctx, &Exchange{AgentID: "facilities", Question: q, Answer: "a"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	exchanges, err := s.Recent(ctx, "facilities", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	for i, want := range questions {
		if exchanges[i].Question != want {
			t.Errorf("exchange[%d]: want %q, got %q", i, want, exchanges[i].Question)
		}
	}
}

func Test_Store_Stats(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	records := []*Exchange{
		{AgentID: "hr", Question: "q", Answer: "a"},
		{AgentID: "hr", Question: "q", Answer: "a", RequiresHuman: true},
		{AgentID: "it-support", Question: "q", Answer: "a"},
	}
	for _, ex := range records {
		if err := s.Record(ctx, ex); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("want 2 agents, got %d", len(stats))
	}
	// Ordered by agent_id: hr before it-support.
	if stats[0].AgentID != "hr" || stats[0].Total != 2 || stats[0].Redirected != 1 {
		t.Errorf("hr stats: %+v", stats[0])
	}
	if stats[1].AgentID != "it-support" || stats[1].Total != 1 || stats[1].Redirected != 0 {
		t.Errorf("it-support stats: %+v", stats[1])
	}
}
