// Package audit persists a per-update provenance trail for persona
// changes. The learning_history counters inside the document say how
// much feedback was incorporated; this log says what each event was.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS persona_audit (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_key     TEXT NOT NULL,
	kind         TEXT NOT NULL,
	payload_json TEXT,
	changes_json TEXT,
	explanation  TEXT,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_persona_audit_user ON persona_audit(user_key, created_at);
`

// #endregion schema

// #region types

// Entry is one recorded persona update.
type Entry struct {
	ID          int64
	UserKey     string
	Kind        string
	PayloadJSON string
	Changes     []string
	Explanation string
	CreatedAt   time.Time
}

// Log writes and reads the persona_audit table.
type Log struct {
	db *sql.DB
}

// #endregion types

// #region constructor

// NewLog creates the audit table if needed and returns a Log.
func NewLog(db *sql.DB) (*Log, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return &Log{db: db}, nil
}

// #endregion constructor

// #region record

// Record appends one entry. CreatedAt defaults to now when zero.
func (l *Log) Record(entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	changesJSON, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	_, err = l.db.Exec(
		`INSERT INTO persona_audit (user_key, kind, payload_json, changes_json, explanation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UserKey,
		entry.Kind,
		nullIfEmpty(entry.PayloadJSON),
		string(changesJSON),
		nullIfEmpty(entry.Explanation),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// #endregion record

// #region recent

// Recent returns the newest entries for a user, most recent first.
func (l *Log) Recent(userKey string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, user_key, kind, payload_json, changes_json, explanation, created_at
		 FROM persona_audit WHERE user_key = ?
		 ORDER BY id DESC LIMIT ?`, userKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload, changes, explanation sql.NullString
		var createdStr string
		if err := rows.Scan(&e.ID, &e.UserKey, &e.Kind, &payload, &changes, &explanation, &createdStr); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.PayloadJSON = payload.String
		e.Explanation = explanation.String
		if changes.Valid && changes.String != "" {
			if err := json.Unmarshal([]byte(changes.String), &e.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal changes: %w", err)
			}
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion recent

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
