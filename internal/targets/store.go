// Package targets computes the daily action dashboard: how many posts,
// replies, and likes to aim for today, what to do first, and how far
// along the user is. Completed actions feed the learning loop.
package targets

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema

const activitySchema = `
CREATE TABLE IF NOT EXISTS daily_activity (
	user_key TEXT NOT NULL,
	day      TEXT NOT NULL,
	posts    INTEGER NOT NULL DEFAULT 0,
	replies  INTEGER NOT NULL DEFAULT 0,
	likes    INTEGER NOT NULL DEFAULT 0,
	follows  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_key, day)
);

CREATE TABLE IF NOT EXISTS activity_actions (
	user_key    TEXT NOT NULL,
	day         TEXT NOT NULL,
	action_type TEXT NOT NULL,
	detail      TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_actions_user
	ON activity_actions(user_key, day);
`

// #endregion schema

// #region types

// Activity holds one day's action counts.
type Activity struct {
	Posts   int `json:"posts"`
	Replies int `json:"replies"`
	Likes   int `json:"likes"`
	Follows int `json:"follows"`
}

// Total sums the counters.
func (a Activity) Total() int {
	return a.Posts + a.Replies + a.Likes + a.Follows
}

// #endregion types

// #region store

// ActivityStore persists per-day action counts in SQLite.
type ActivityStore struct {
	db *sql.DB
}

// NewActivityStore runs migrations and returns a store over db.
func NewActivityStore(db *sql.DB) (*ActivityStore, error) {
	if _, err := db.Exec(activitySchema); err != nil {
		return nil, fmt.Errorf("migrate activity log: %w", err)
	}
	return &ActivityStore{db: db}, nil
}

// column maps an action type to its counter. Unknown types still get
// an action row but move no counter.
func column(actionType string) string {
	switch actionType {
	case "post":
		return "posts"
	case "reply":
		return "replies"
	case "like":
		return "likes"
	case "follow":
		return "follows"
	}
	return ""
}

// Record bumps the day's counter for actionType and appends the detail
// row. day is YYYY-MM-DD.
func (s *ActivityStore) Record(user, day, actionType, detail string, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if col := column(actionType); col != "" {
		_, err = tx.Exec(fmt.Sprintf(
			`INSERT INTO daily_activity (user_key, day, %s) VALUES (?, ?, 1)
			 ON CONFLICT(user_key, day) DO UPDATE SET %s = %s + 1`, col, col, col),
			user, day)
		if err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO activity_actions (user_key, day, action_type, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user, day, actionType, detail, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record action detail: %w", err)
	}
	return tx.Commit()
}

// Day returns the counts for one day. Missing days are all zeros.
func (s *ActivityStore) Day(user, day string) (Activity, error) {
	var a Activity
	err := s.db.QueryRow(
		`SELECT posts, replies, likes, follows FROM daily_activity
		 WHERE user_key = ? AND day = ?`, user, day).
		Scan(&a.Posts, &a.Replies, &a.Likes, &a.Follows)
	if err == sql.ErrNoRows {
		return Activity{}, nil
	}
	if err != nil {
		return Activity{}, fmt.Errorf("load activity for %s: %w", day, err)
	}
	return a, nil
}

// #endregion store
