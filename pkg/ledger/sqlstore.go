package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ea-systems/ledger/pkg/envelope"
)

// SQLStorage persists envelopes as encoding/json blobs in a SQL table,
// working against any database/sql driver — Postgres via github.com/lib/pq
// or embedded SQLite via modernc.org/sqlite (driver-only, no cgo) — mirroring
// the corpus's sql_ledger.go/postgres_ledger.go split while storing envelope
// columns (sequence, channel, prev_hash, body_hash, timestamp,
// envelope_json) instead of obligations.
type SQLStorage struct {
	db  *sql.DB
	ctx context.Context
}

// NewSQLStorage wraps an already-open *sql.DB. Callers choose the driver
// ("postgres" for lib/pq, "sqlite" for modernc.org/sqlite) at sql.Open time;
// this type is driver-agnostic beyond standard SQL.
func NewSQLStorage(ctx context.Context, db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db, ctx: ctx}
}

const sqlStorageSchema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	sequence     INTEGER PRIMARY KEY,
	channel      TEXT NOT NULL,
	prev_hash    TEXT,
	body_hash    TEXT NOT NULL,
	timestamp    INTEGER NOT NULL,
	envelope_json TEXT NOT NULL
);
`

// Init creates the backing table if it does not already exist. Safe to call
// on every daemon startup.
func (s *SQLStorage) Init() error {
	_, err := s.db.ExecContext(s.ctx, sqlStorageSchema)
	if err != nil {
		return fmt.Errorf("ledger: sql init: %w", err)
	}
	return nil
}

func (s *SQLStorage) Append(env *envelope.Envelope) error {
	blob, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ledger: marshal envelope: %w", err)
	}
	_, err = s.db.ExecContext(s.ctx,
		`INSERT INTO ledger_entries (sequence, channel, prev_hash, body_hash, timestamp, envelope_json)
		 VALUES ((SELECT COALESCE(MAX(sequence), -1) + 1 FROM ledger_entries), $1, $2, $3, $4, $5)`,
		env.Header.Channel, string(env.Header.Prev), string(env.Header.BodyHash), env.Header.Timestamp, string(blob),
	)
	if err != nil {
		return fmt.Errorf("ledger: sql append: %w", err)
	}
	return nil
}

func (s *SQLStorage) Len() int {
	var n int
	row := s.db.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM ledger_entries`)
	if err := row.Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *SQLStorage) ReadRange(offset, limit int) ([]*envelope.Envelope, error) {
	if limit <= 0 {
		return []*envelope.Envelope{}, nil
	}
	rows, err := s.db.QueryContext(s.ctx,
		`SELECT envelope_json FROM ledger_entries ORDER BY sequence ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: sql read range: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEnvelopes(rows)
}

func (s *SQLStorage) All() ([]*envelope.Envelope, error) {
	rows, err := s.db.QueryContext(s.ctx, `SELECT envelope_json FROM ledger_entries ORDER BY sequence ASC`)
	if err != nil {
		return nil, fmt.Errorf("ledger: sql read all: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEnvelopes(rows)
}

func scanEnvelopes(rows *sql.Rows) ([]*envelope.Envelope, error) {
	out := make([]*envelope.Envelope, 0)
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("ledger: scan row: %w", err)
		}
		var env envelope.Envelope
		if err := json.Unmarshal([]byte(blob), &env); err != nil {
			return nil, fmt.Errorf("ledger: unmarshal row: %w", err)
		}
		out = append(out, &env)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
