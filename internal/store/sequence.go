package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

const sequenceTable = "event_sequence"

// eventSequence numbers rows across every event table, so LLM requests and
// interactions interleave in one order. The row holds the last value handed
// out; zero means none yet.
type eventSequence struct {
	mu sync.Mutex
	db *sql.DB
}

func openEventSequence(ctx context.Context, db *sql.DB) (*eventSequence, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + sequenceTable + ` (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_value INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO ` + sequenceTable + ` (id, last_value) VALUES (1, 0)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", sequenceTable, err)
		}
	}
	return &eventSequence{db: db}, nil
}

// Next advances the sequence and returns the new value, starting at 1.
func (s *eventSequence) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	row := s.db.QueryRowContext(ctx,
		`UPDATE `+sequenceTable+` SET last_value = last_value + 1 WHERE id = 1 RETURNING last_value`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("advance %s: %w", sequenceTable, err)
	}
	return n, nil
}
