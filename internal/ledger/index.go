package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// Index is a local sqlite cache mapping correlation ids to ledger task
// ids. It is an optimization over the full-collection scan: entries are
// rebuildable from the store, so losing the file only costs lookup speed.
type Index struct {
	db *sql.DB
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS correlation_index (
    correlation_id TEXT PRIMARY KEY,
    task_id        TEXT NOT NULL,
    created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// OpenIndex opens (or creates) the correlation index at the given path.
// Use ":memory:" for an ephemeral index in tests.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to open index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: failed to create index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Put records a correlation id → task id mapping, overwriting any prior
// mapping for the same correlation id.
func (ix *Index) Put(correlationID, taskID string) error {
	_, err := ix.db.Exec(`
		INSERT INTO correlation_index (correlation_id, task_id)
		VALUES (?, ?)
		ON CONFLICT(correlation_id) DO UPDATE SET task_id = excluded.task_id
	`, correlationID, taskID)
	if err != nil {
		return fmt.Errorf("ledger: failed to write index entry: %w", err)
	}
	return nil
}

// Get returns the task id for a correlation id, or "" when unknown.
func (ix *Index) Get(correlationID string) (string, error) {
	var taskID string
	err := ix.db.QueryRow(
		"SELECT task_id FROM correlation_index WHERE correlation_id = ?",
		correlationID,
	).Scan(&taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ledger: failed to read index entry: %w", err)
	}
	return taskID, nil
}
