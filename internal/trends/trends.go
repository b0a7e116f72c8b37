// Package trends assembles an external-signals block for post
// generation from recent activity on the user's lists. The block is
// injected into the generation prompt so drafts can reference what the
// user's corner of X is currently talking about.
package trends

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"xgrowth/internal/xapi"
)

// #region types

// Source fetches list timelines.
type Source interface {
	ListTimeline(ctx context.Context, listID string, daysBack, maxResults int) ([]xapi.Post, error)
}

// Config holds signal collection parameters.
type Config struct {
	MaxPosts int
	DaysBack int
	Enabled  bool
}

// #endregion types

// #region config

// DefaultConfig returns default trend collection configuration.
// Reads from env vars: TRENDS_ENABLED, TRENDS_MAX_POSTS,
// TRENDS_DAYS_BACK.
func DefaultConfig() Config {
	cfg := Config{
		MaxPosts: 5,
		DaysBack: 2,
		Enabled:  true,
	}
	if v := os.Getenv("TRENDS_ENABLED"); v != "" {
		cfg.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TRENDS_MAX_POSTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxPosts = n
		}
	}
	if v := os.Getenv("TRENDS_DAYS_BACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DaysBack = n
		}
	}
	return cfg
}

// #endregion config

// #region collector

// Collector pulls recent list posts and ranks them by engagement.
type Collector struct {
	x   Source
	cfg Config
}

// NewCollector constructs a Collector.
func NewCollector(x Source, cfg Config) *Collector {
	return &Collector{x: x, cfg: cfg}
}

// Collect fetches the given lists' recent posts and returns the
// formatted signals block. A failing list is logged and skipped.
// Returns "" when disabled or nothing was fetched.
func (c *Collector) Collect(ctx context.Context, listIDs []string) (string, error) {
	if !c.cfg.Enabled || len(listIDs) == 0 {
		return "", nil
	}

	var posts []xapi.Post
	for _, id := range listIDs {
		fetched, err := c.x.ListTimeline(ctx, id, c.cfg.DaysBack, 50)
		if err != nil {
			log.Printf("[TRENDS] list %s fetch failed: %v", id, err)
			continue
		}
		posts = append(posts, fetched...)
	}
	if len(posts) == 0 {
		return "", nil
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return engagement(posts[i]) > engagement(posts[j])
	})
	if len(posts) > c.cfg.MaxPosts {
		posts = posts[:c.cfg.MaxPosts]
	}
	return FormatAsSignals(posts), nil
}

func engagement(p xapi.Post) int {
	return p.Metrics.Likes + p.Metrics.Replies + p.Metrics.Retweets
}

// #endregion collector

// #region format

// FormatAsSignals converts ranked posts to a string suitable for
// injection into the generation prompt.
func FormatAsSignals(posts []xapi.Post) string {
	if len(posts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[Recent list activity]\n")
	for i, p := range posts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(p.Text))
		fmt.Fprintf(&b, "   engagement: %d likes, %d replies, %d reposts\n",
			p.Metrics.Likes, p.Metrics.Replies, p.Metrics.Retweets)
	}
	return b.String()
}

// #endregion format
