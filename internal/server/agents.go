package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/r1shah/deskai-go/internal/agents"
	"github.com/r1shah/deskai-go/internal/logging"
	"github.com/r1shah/deskai-go/internal/ticket"
)

// maxUploadBytes caps the size of an uploaded ticket batch.
const maxUploadBytes = 32 << 20 // 32 MiB

// defaultHistoryLimit is the number of exchanges returned by the history
// endpoint.
const defaultHistoryLimit = 50

// handleAgents handles GET /api/agents: the status of every configured agent.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.indexer.AllStatuses(r.Context()))
}

// handleAgentStatus handles GET /api/agents/{id}.
func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, err := s.indexer.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown agent %q", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read agent status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleReindex handles POST /api/agents/{id}/reindex. The force query
// parameter clears the collection before repopulating it.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	force := r.URL.Query().Get("force") == "true"

	count, err := s.indexer.Reindex(r.Context(), id, force)
	if err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown agent %q", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "reindex failed")
		return
	}
	writeJSON(w, http.StatusOK, reindexResponse{Indexed: map[string]int{id: count}})
}

// handleReindexAll handles POST /api/agents/reindex-all.
func (s *Server) handleReindexAll(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	writeJSON(w, http.StatusOK, reindexResponse{Indexed: s.indexer.IndexAll(r.Context(), force)})
}

// handleUpload handles POST /api/agents/{id}/upload. The multipart "file"
// field carries a JSON or CSV ticket batch that replaces the agent's
// collection. A batch with no valid tickets is rejected without touching the
// existing collection.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	var tickets []ticket.Ticket
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".json":
		tickets, err = ticket.ParseJSON(data)
	case ".csv":
		tickets, err = ticket.ParseCSV(data)
	default:
		writeError(w, http.StatusBadRequest, "unsupported file type: expected .json or .csv")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse tickets: %v", err))
		return
	}

	count, err := s.indexer.ReplaceAgentTickets(r.Context(), id, tickets)
	if err != nil {
		switch {
		case errors.Is(err, agents.ErrNotFound):
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown agent %q", id))
		default:
			logging.FromContext(r.Context()).Error("upload failed",
				slog.String("agent", id),
				slog.Any("error", err),
			)
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("upload rejected: %v", err))
		}
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{AgentID: id, TicketsIndexed: count})
}

// handleClearData handles DELETE /api/agents/{id}/data.
func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	cleared, err := s.indexer.ClearAgent(r.Context(), id)
	if err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown agent %q", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "clear failed")
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{AgentID: id, Cleared: cleared})
}

// handleStats handles GET /api/stats: per-agent totals and human-redirect
// counts from the transcript store.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		writeError(w, http.StatusNotFound, "transcript history is disabled")
		return
	}

	stats, err := s.transcripts.Stats(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("stats lookup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHistory handles GET /api/agents/{id}/history: the most recent
// answered exchanges for the agent, oldest-first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		writeError(w, http.StatusNotFound, "transcript history is disabled")
		return
	}
	id := r.PathValue("id")

	exchanges, err := s.transcripts.Recent(r.Context(), id, defaultHistoryLimit)
	if err != nil {
		logging.FromContext(r.Context()).Error("history lookup failed",
			slog.String("agent", id),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}

	entries := make([]historyEntry, len(exchanges))
	for i, ex := range exchanges {
		entries[i] = historyEntry{
			Question:      ex.Question,
			Answer:        ex.Answer,
			RequiresHuman: ex.RequiresHuman,
			Confidence:    ex.Confidence,
			CreatedAt:     ex.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, entries)
}
