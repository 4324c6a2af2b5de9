// Package audit persists a rolling log of accepted PUT/MOVE commands to
// a SQLite file, grounded on internal/db/sqlite.go's database/sql +
// modernc.org/sqlite pattern (schema-in-a-string migration, query via
// Context). The registry itself stays in-memory per spec.md §3; this is
// purely an optional, supplementary command history.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Log wraps a sqlite connection holding the command_history table.
type Log struct {
	db *sql.DB
}

// Open creates or attaches to a sqlite file at path and ensures the
// schema exists. Callers that don't configure an audit path should
// simply not call Open, mirroring the teacher's Storage.Enabled toggle.
func Open(path string) (*Log, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	l := &Log{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) Close() error { return l.db.Close() }

func (l *Log) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS command_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    verb TEXT NOT NULL,
    target TEXT NOT NULL,
    value REAL NOT NULL,
    timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_command_history_session ON command_history(session_id);
CREATE INDEX IF NOT EXISTS idx_command_history_timestamp ON command_history(timestamp);
`
	_, err := l.db.Exec(schema)
	return err
}

// Record inserts one accepted PUT or MOVE into the history table.
// sessionID identifies the client connection (internal/simserver assigns
// one google/uuid per accepted session).
func (l *Log) Record(ctx context.Context, sessionID uuid.UUID, verb, target string, value float64) error {
	const q = `INSERT INTO command_history (session_id, verb, target, value) VALUES (?, ?, ?, ?)`
	_, err := l.db.ExecContext(ctx, q, sessionID.String(), verb, target, value)
	return err
}

// Entry is one row of recorded history, returned by Recent for
// post-mortem inspection.
type Entry struct {
	SessionID string
	Verb      string
	Target    string
	Value     float64
	Timestamp time.Time
}

// Recent returns the most recent n command_history rows, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Entry, error) {
	const q = `SELECT session_id, verb, target, value, timestamp FROM command_history ORDER BY timestamp DESC, id DESC LIMIT ?`
	rows, err := l.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SessionID, &e.Verb, &e.Target, &e.Value, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
