// Package store provides a SQLite-backed chat transcript store. Every
// answered question is persisted as one exchange so operators can audit what
// the assistant said, which agent handled it, and how often questions were
// redirected to humans.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Exchange is one answered question: what was asked, what came back, and the
// redirect decision that was made.
type Exchange struct {
	// AgentID identifies the agent that handled the question.
	AgentID string
	// Question is the user's question text.
	Question string
	// Answer is the display text returned to the user.
	Answer string
	// RequiresHuman records whether the redirect policy fired.
	RequiresHuman bool
	// Confidence is the best similarity score for the exchange.
	Confidence float64
	// CreatedAt is when the exchange was persisted.
	CreatedAt time.Time
}

// RedirectStats summarises the redirect rate for one agent.
type RedirectStats struct {
	// AgentID identifies the agent.
	AgentID string `json:"agent_id"`
	// Total is the number of recorded exchanges.
	Total int `json:"total"`
	// Redirected is the number of exchanges that went to a human.
	Redirected int `json:"redirected"`
}

// TranscriptStore persists and retrieves answered exchanges keyed by agent.
// Implementations must be safe for concurrent use.
type TranscriptStore interface {
	// Record persists a single exchange.
	Record(ctx context.Context, ex *Exchange) error
	// Recent returns the most recent n exchanges for the agent, ordered
	// oldest-first. If fewer than n exist, all are returned.
	Recent(ctx context.Context, agentID string, n int) ([]Exchange, error)
	// Stats returns per-agent redirect counts across all recorded exchanges.
	Stats(ctx context.Context) ([]RedirectStats, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a TranscriptStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the transcript database.
// It resolves to ~/.deskai/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".deskai")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS exchanges (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    agent_id        TEXT    NOT NULL,
    question        TEXT    NOT NULL,
    answer          TEXT    NOT NULL,
    requires_human  INTEGER NOT NULL DEFAULT 0,
    confidence      REAL    NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_exchanges_agent_created
    ON exchanges (agent_id, created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Record persists a single exchange.
func (s *SQLiteStore) Record(ctx context.Context, ex *Exchange) error {
	const q = `INSERT INTO exchanges (agent_id, question, answer, requires_human, confidence, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	redirected := 0
	if ex.RequiresHuman {
		redirected = 1
	}
	if _, err := s.db.ExecContext(ctx, q, ex.AgentID, ex.Question, ex.Answer, redirected, ex.Confidence, time.Now().Unix()); err != nil {
		return fmt.Errorf("store: record: %w", err)
	}
	return nil
}

// Recent returns the most recent n exchanges for the agent, ordered
// oldest-first. Uses a subquery to select the tail then re-order.
func (s *SQLiteStore) Recent(ctx context.Context, agentID string, n int) ([]Exchange, error) {
	const q = `
SELECT agent_id, question, answer, requires_human, confidence, created_at FROM (
    SELECT id, agent_id, question, answer, requires_human, confidence, created_at
    FROM   exchanges
    WHERE  agent_id = ?
    ORDER  BY created_at DESC, id DESC
    LIMIT  ?
) ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, agentID, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var ex Exchange
		var redirected int
		var ts int64
		if err := rows.Scan(&ex.AgentID, &ex.Question, &ex.Answer, &redirected, &ex.Confidence, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		ex.RequiresHuman = redirected != 0
		ex.CreatedAt = time.Unix(ts, 0)
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return exchanges, nil
}

// Stats returns per-agent totals and redirect counts.
func (s *SQLiteStore) Stats(ctx context.Context) ([]RedirectStats, error) {
	const q = `
SELECT agent_id, COUNT(*), SUM(requires_human)
FROM   exchanges
GROUP  BY agent_id
ORDER  BY agent_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	defer rows.Close()

	var stats []RedirectStats
	for rows.Next() {
		var st RedirectStats
		if err := rows.Scan(&st.AgentID, &st.Total, &st.Redirected); err != nil {
			return nil, fmt.Errorf("store: stats scan: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: stats rows: %w", err)
	}
	return stats, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
