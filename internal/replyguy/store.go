// Package replyguy watches monitored lists for fresh posts, drafts
// persona-filtered reply suggestions, and tracks which opportunities
// the user acted on.
package replyguy

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"xgrowth/internal/ai"
	"xgrowth/internal/xapi"
)

// #region schema

const replySchema = `
CREATE TABLE IF NOT EXISTS tracked_posts (
	user_key   TEXT NOT NULL,
	post_id    TEXT NOT NULL,
	list_id    TEXT NOT NULL,
	tracked_at TEXT NOT NULL,
	PRIMARY KEY (user_key, post_id)
);

CREATE TABLE IF NOT EXISTS pending_replies (
	user_key         TEXT NOT NULL,
	post_id          TEXT NOT NULL,
	list_id          TEXT NOT NULL,
	post_json        TEXT NOT NULL,
	suggestions_json TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	PRIMARY KEY (user_key, post_id)
);
`

// #endregion schema

// #region types

// Opportunity is one fresh post with its filtered reply suggestions.
type Opportunity struct {
	PostID      string               `json:"post_id"`
	Post        xapi.Post            `json:"original_post"`
	Suggestions []ai.ReplySuggestion `json:"suggestions"`
	ListID      string               `json:"list_id"`
	CreatedAt   time.Time            `json:"created_at"`
}

// #endregion types

// #region store

// Store persists tracked posts and the pending reply queue.
type Store struct {
	db *sql.DB
}

// NewStore runs migrations and returns a Store over db.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(replySchema); err != nil {
		return nil, fmt.Errorf("migrate reply tracking: %w", err)
	}
	return &Store{db: db}, nil
}

// IsTracked reports whether the post was already surfaced to the user.
func (s *Store) IsTracked(user, postID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tracked_posts WHERE user_key = ? AND post_id = ?`,
		user, postID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check tracked post: %w", err)
	}
	return n > 0, nil
}

// MarkTracked records that the post has been surfaced.
func (s *Store) MarkTracked(user, postID, listID string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO tracked_posts (user_key, post_id, list_id, tracked_at)
		 VALUES (?, ?, ?, ?)`,
		user, postID, listID, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("mark tracked: %w", err)
	}
	return nil
}

// AddPending queues an opportunity for the user to act on.
func (s *Store) AddPending(user string, op Opportunity) error {
	postJSON, err := json.Marshal(op.Post)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}
	sugJSON, err := json.Marshal(op.Suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO pending_replies
		 (user_key, post_id, list_id, post_json, suggestions_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user, op.PostID, op.ListID, string(postJSON), string(sugJSON),
		op.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("add pending reply: %w", err)
	}
	return nil
}

// Pending returns the user's queued opportunities, oldest first.
func (s *Store) Pending(user string) ([]Opportunity, error) {
	rows, err := s.db.Query(
		`SELECT post_id, list_id, post_json, suggestions_json, created_at
		 FROM pending_replies WHERE user_key = ? ORDER BY created_at`, user)
	if err != nil {
		return nil, fmt.Errorf("list pending replies: %w", err)
	}
	defer rows.Close()

	var ops []Opportunity
	for rows.Next() {
		var op Opportunity
		var postJSON, sugJSON, created string
		if err := rows.Scan(&op.PostID, &op.ListID, &postJSON, &sugJSON, &created); err != nil {
			return nil, fmt.Errorf("scan pending reply: %w", err)
		}
		if err := json.Unmarshal([]byte(postJSON), &op.Post); err != nil {
			return nil, fmt.Errorf("unmarshal pending post: %w", err)
		}
		if err := json.Unmarshal([]byte(sugJSON), &op.Suggestions); err != nil {
			return nil, fmt.Errorf("unmarshal pending suggestions: %w", err)
		}
		op.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// RemovePending drops an opportunity from the queue.
func (s *Store) RemovePending(user, postID string) error {
	_, err := s.db.Exec(
		`DELETE FROM pending_replies WHERE user_key = ? AND post_id = ?`, user, postID)
	if err != nil {
		return fmt.Errorf("remove pending reply: %w", err)
	}
	return nil
}

// #endregion store
