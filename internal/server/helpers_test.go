package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/r1shah/deskai-go/internal/agents"
	"github.com/r1shah/deskai-go/internal/chat"
	"github.com/r1shah/deskai-go/internal/indexer"
	"github.com/r1shah/deskai-go/internal/store"
	"github.com/r1shah/deskai-go/internal/ticket"
)

// fakeAnswerer is a test double for the answerer interface.
type fakeAnswerer struct {
	// resp is returned on success.
	resp *chat.Response
	// err is returned when non-nil.
	err error
	// lastQuestion records the question from the most recent Answer call.
	lastQuestion string
}

func (f *fakeAnswerer) Answer(_ context.Context, question, _ string) (*chat.Response, error) {
	f.lastQuestion = question
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// fakeIndexer is a test double for the agentIndexer interface.
type fakeIndexer struct {
	// statuses maps agent ID to its status; Status returns err for missing IDs.
	statuses map[string]indexer.Status
	// err is returned by Status/Reindex/ReplaceAgentTickets/ClearAgent when non-nil.
	err error
	// reindexCount is returned by Reindex and ReplaceAgentTickets.
	reindexCount int
	// lastForce records the force flag from the most recent Reindex/IndexAll.
	lastForce bool
	// lastTickets records the batch from the most recent ReplaceAgentTickets.
	lastTickets []ticket.Ticket
}

func (f *fakeIndexer) IndexAll(_ context.Context, force bool) map[string]int {
	f.lastForce = force
	out := make(map[string]int, len(f.statuses))
	for id, st := range f.statuses {
		out[id] = st.TicketsCount
	}
	return out
}

func (f *fakeIndexer) Status(_ context.Context, agentID string) (indexer.Status, error) {
	if f.err != nil {
		return indexer.Status{}, f.err
	}
	st, ok := f.statuses[agentID]
	if !ok {
		return indexer.Status{}, agents.ErrNotFound
	}
	return st, nil
}

func (f *fakeIndexer) AllStatuses(_ context.Context) []indexer.Status {
	out := make([]indexer.Status, 0, len(f.statuses))
	for _, st := range f.statuses {
		out = append(out, st)
	}
	return out
}

func (f *fakeIndexer) Reindex(_ context.Context, _ string, force bool) (int, error) {
	f.lastForce = force
	if f.err != nil {
		return 0, f.err
	}
	return f.reindexCount, nil
}

func (f *fakeIndexer) ReplaceAgentTickets(_ context.Context, _ string, tickets []ticket.Ticket) (int, error) {
	f.lastTickets = tickets
	if f.err != nil {
		return 0, f.err
	}
	return len(tickets), nil
}

func (f *fakeIndexer) ClearAgent(_ context.Context, _ string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

// memTranscripts is an in-memory transcripts double.
type memTranscripts struct {
	recorded []store.Exchange
}

func (m *memTranscripts) Record(_ context.Context, ex *store.Exchange) error {
	m.recorded = append(m.recorded, *ex)
	return nil
}

func (m *memTranscripts) Recent(_ context.Context, agentID string, n int) ([]store.Exchange, error) {
	var out []store.Exchange
	for _, ex := range m.recorded {
		if ex.AgentID == agentID {
			out = append(out, ex)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

func (m *memTranscripts) Stats(_ context.Context) ([]store.RedirectStats, error) {
	byAgent := map[string]*store.RedirectStats{}
	var order []string
	for _, ex := range m.recorded {
		st, ok := byAgent[ex.AgentID]
		if !ok {
			st = &store.RedirectStats{AgentID: ex.AgentID}
			byAgent[ex.AgentID] = st
			order = append(order, ex.AgentID)
		}
		st.Total++
		if ex.RequiresHuman {
			st.Redirected++
		}
	}
	out := make([]store.RedirectStats, 0, len(order))
	for _, id := range order {
		out = append(out, *byAgent[id])
	}
	return out, nil
}

// newTestServer builds a minimal *Server for handler tests, metrics registered
// against a throwaway registry.
func newTestServer() *Server {
	return &Server{
		answerer: &fakeAnswerer{resp: &chat.Response{Answer: "ok"}},
		indexer:  &fakeIndexer{statuses: map[string]indexer.Status{}},
		cfg:      &Config{Port: 8080, ChatTimeout: 30 * time.Second},
		log:      slog.Default(),
		metrics:  newServerMetrics(prometheus.NewRegistry()),
	}
}
