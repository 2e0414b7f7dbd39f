package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/srxprov/srxprov/pkg/provision"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id          TEXT PRIMARY KEY,
	device      TEXT NOT NULL,
	final_state TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	payload     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_started_at ON outcomes(started_at);
`

// SQLiteStore persists outcomes in a SQLite database. The full outcome is
// stored as a JSON payload with a few indexed columns for querying.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at dsn and applies
// the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, outcome *provision.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encoding outcome: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outcomes (id, device, final_state, started_at, payload) VALUES (?, ?, ?, ?, ?)`,
		outcome.ID, outcome.Device, string(outcome.FinalState), outcome.StartedAt, string(payload))
	return err
}

func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]*provision.Outcome, error) {
	if n <= 0 {
		return nil, nil
	}
	var payloads []string
	err := s.db.SelectContext(ctx, &payloads,
		`SELECT payload FROM outcomes ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	out := make([]*provision.Outcome, 0, len(payloads))
	for _, p := range payloads {
		var o provision.Outcome
		if err := json.Unmarshal([]byte(p), &o); err != nil {
			continue
		}
		out = append(out, &o)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
