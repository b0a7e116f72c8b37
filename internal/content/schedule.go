// Package content generates persona-aligned posts and manages the
// posting schedule around them. Approvals, edits, and deletions feed
// the learning loop.
package content

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema

const scheduleSchema = `
CREATE TABLE IF NOT EXISTS content_posts (
	id              TEXT PRIMARY KEY,
	user_key        TEXT NOT NULL,
	content         TEXT NOT NULL,
	rationale       TEXT,
	topic_tags_json TEXT,
	tone_match      TEXT,
	scheduled_date  TEXT NOT NULL,
	scheduled_time  TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'draft',
	posted          INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_posts_user
	ON content_posts(user_key, scheduled_date, scheduled_time);
`

// #endregion schema

// ErrPostNotFound is returned when a post id does not exist for the
// user.
var ErrPostNotFound = errors.New("post not found")

// #region types

// ScheduledPost is one generated post with its slot in the calendar.
type ScheduledPost struct {
	ID            string    `json:"id"`
	UserKey       string    `json:"-"`
	Content       string    `json:"content"`
	Rationale     string    `json:"rationale"`
	TopicTags     []string  `json:"topic_tags"`
	ToneMatch     string    `json:"tone_match"`
	ScheduledDate string    `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string    `json:"scheduled_time"` // HH:MM
	Status        string    `json:"status"`         // draft | approved
	Posted        bool      `json:"posted"`
	CreatedAt     time.Time `json:"created_at"`
}

// #endregion types

// #region store

// ScheduleStore persists scheduled posts in SQLite.
type ScheduleStore struct {
	db *sql.DB
}

// NewScheduleStore runs migrations and returns a store over db.
func NewScheduleStore(db *sql.DB) (*ScheduleStore, error) {
	if _, err := db.Exec(scheduleSchema); err != nil {
		return nil, fmt.Errorf("migrate content schedule: %w", err)
	}
	return &ScheduleStore{db: db}, nil
}

// Add inserts the given posts.
func (s *ScheduleStore) Add(posts []ScheduledPost) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range posts {
		tags, err := json.Marshal(p.TopicTags)
		if err != nil {
			return fmt.Errorf("marshal topic tags: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO content_posts
			 (id, user_key, content, rationale, topic_tags_json, tone_match,
			  scheduled_date, scheduled_time, status, posted, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserKey, p.Content, p.Rationale, string(tags), p.ToneMatch,
			p.ScheduledDate, p.ScheduledTime, p.Status, boolToInt(p.Posted),
			p.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// Get returns one post by id.
func (s *ScheduleStore) Get(user, id string) (*ScheduledPost, error) {
	row := s.db.QueryRow(
		`SELECT id, user_key, content, rationale, topic_tags_json, tone_match,
		        scheduled_date, scheduled_time, status, posted, created_at
		 FROM content_posts WHERE user_key = ? AND id = ?`, user, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	return p, err
}

// List returns the user's posts within the optional date range,
// ordered by date then time. Empty bounds are open.
func (s *ScheduleStore) List(user, startDate, endDate string) ([]ScheduledPost, error) {
	query := `SELECT id, user_key, content, rationale, topic_tags_json, tone_match,
	                 scheduled_date, scheduled_time, status, posted, created_at
	          FROM content_posts WHERE user_key = ?`
	args := []any{user}
	if startDate != "" {
		query += " AND scheduled_date >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND scheduled_date <= ?"
		args = append(args, endDate)
	}
	query += " ORDER BY scheduled_date, scheduled_time"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []ScheduledPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// UpdateContent replaces a post's text and returns the previous text.
func (s *ScheduleStore) UpdateContent(user, id, content string) (string, error) {
	p, err := s.Get(user, id)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		`UPDATE content_posts SET content = ? WHERE user_key = ? AND id = ?`,
		content, user, id)
	if err != nil {
		return "", fmt.Errorf("update post %s: %w", id, err)
	}
	return p.Content, nil
}

// SetStatus updates a post's workflow status.
func (s *ScheduleStore) SetStatus(user, id, status string) error {
	return s.exec(user, id, `UPDATE content_posts SET status = ? WHERE user_key = ? AND id = ?`, status)
}

// SetRationale stores a regenerated rationale.
func (s *ScheduleStore) SetRationale(user, id, rationale string) error {
	return s.exec(user, id, `UPDATE content_posts SET rationale = ? WHERE user_key = ? AND id = ?`, rationale)
}

// MarkPosted flags a post as published.
func (s *ScheduleStore) MarkPosted(user, id string) error {
	res, err := s.db.Exec(`UPDATE content_posts SET posted = 1 WHERE user_key = ? AND id = ?`, user, id)
	if err != nil {
		return fmt.Errorf("mark posted %s: %w", id, err)
	}
	return checkAffected(res)
}

// Delete removes a post and returns it.
func (s *ScheduleStore) Delete(user, id string) (*ScheduledPost, error) {
	p, err := s.Get(user, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`DELETE FROM content_posts WHERE user_key = ? AND id = ?`, user, id); err != nil {
		return nil, fmt.Errorf("delete post %s: %w", id, err)
	}
	return p, nil
}

// ReadyToPost returns approved, unposted posts whose slot has passed.
func (s *ScheduleStore) ReadyToPost(user string, now time.Time) ([]ScheduledPost, error) {
	posts, err := s.List(user, "", "")
	if err != nil {
		return nil, err
	}
	var ready []ScheduledPost
	for _, p := range posts {
		if p.Status != "approved" || p.Posted {
			continue
		}
		slot, err := time.Parse("2006-01-02 15:04", p.ScheduledDate+" "+p.ScheduledTime)
		if err != nil {
			continue
		}
		if !slot.After(now) {
			ready = append(ready, p)
		}
	}
	return ready, nil
}

func (s *ScheduleStore) exec(user, id, query string, value string) error {
	res, err := s.db.Exec(query, value, user, id)
	if err != nil {
		return fmt.Errorf("update post %s: %w", id, err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*ScheduledPost, error) {
	var p ScheduledPost
	var tags sql.NullString
	var rationale, toneMatch sql.NullString
	var posted int
	var created string

	err := row.Scan(&p.ID, &p.UserKey, &p.Content, &rationale, &tags, &toneMatch,
		&p.ScheduledDate, &p.ScheduledTime, &p.Status, &posted, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	p.Rationale = rationale.String
	p.ToneMatch = toneMatch.String
	p.Posted = posted != 0
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &p.TopicTags); err != nil {
			return nil, fmt.Errorf("unmarshal topic tags: %w", err)
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion store
