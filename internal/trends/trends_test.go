package trends

import (
	"context"
	"errors"
	"strings"
	"testing"

	"xgrowth/internal/xapi"
)

// #region mock

type mockSource struct {
	timelines map[string][]xapi.Post
	err       error
}

func (m *mockSource) ListTimeline(ctx context.Context, listID string, daysBack, maxResults int) ([]xapi.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.timelines[listID], nil
}

func post(id, text string, likes int) xapi.Post {
	return xapi.Post{ID: id, Text: text, Metrics: xapi.PublicMetrics{Likes: likes}}
}

// #endregion mock

// #region collector-tests

func TestCollectRanksByEngagement(t *testing.T) {
	src := &mockSource{timelines: map[string][]xapi.Post{
		"l1": {post("a", "quiet take", 1), post("b", "hot take", 90)},
		"l2": {post("c", "medium take", 40)},
	}}
	c := NewCollector(src, Config{MaxPosts: 2, DaysBack: 2, Enabled: true})

	out, err := c.Collect(context.Background(), []string{"l1", "l2"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !strings.Contains(out, "1. hot take") {
		t.Errorf("top post not first:\n%s", out)
	}
	if !strings.Contains(out, "2. medium take") {
		t.Errorf("second post missing:\n%s", out)
	}
	if strings.Contains(out, "quiet take") {
		t.Errorf("MaxPosts cap not applied:\n%s", out)
	}
}

func TestCollectDisabled(t *testing.T) {
	c := NewCollector(&mockSource{}, Config{Enabled: false})
	out, err := c.Collect(context.Background(), []string{"l1"})
	if err != nil || out != "" {
		t.Fatalf("expected empty output when disabled, got %q err %v", out, err)
	}
}

func TestCollectFetchFailure(t *testing.T) {
	c := NewCollector(&mockSource{err: errors.New("rate limited")}, Config{MaxPosts: 3, Enabled: true})
	out, err := c.Collect(context.Background(), []string{"l1"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty output when every list fails, got %q", out)
	}
}

// #endregion collector-tests

// #region format-tests

func TestFormatAsSignals(t *testing.T) {
	posts := []xapi.Post{
		{Text: "first", Metrics: xapi.PublicMetrics{Likes: 3, Replies: 1}},
		{Text: "second"},
	}
	out := FormatAsSignals(posts)
	if !strings.Contains(out, "[Recent list activity]") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "1. first") || !strings.Contains(out, "2. second") {
		t.Errorf("missing numbered posts:\n%s", out)
	}
	if !strings.Contains(out, "3 likes, 1 replies") {
		t.Errorf("missing engagement line:\n%s", out)
	}
}

func TestFormatAsSignalsEmpty(t *testing.T) {
	if out := FormatAsSignals(nil); out != "" {
		t.Errorf("expected empty string for nil posts, got %q", out)
	}
}

// #endregion format-tests

// #region config-tests

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxPosts != 5 {
		t.Errorf("expected MaxPosts=5, got %d", cfg.MaxPosts)
	}
	if cfg.DaysBack != 2 {
		t.Errorf("expected DaysBack=2, got %d", cfg.DaysBack)
	}
	if !cfg.Enabled {
		t.Error("expected Enabled=true by default")
	}
}

func TestDefaultConfigEnv(t *testing.T) {
	t.Setenv("TRENDS_ENABLED", "0")
	t.Setenv("TRENDS_MAX_POSTS", "9")
	cfg := DefaultConfig()
	if cfg.Enabled {
		t.Error("expected Enabled=false")
	}
	if cfg.MaxPosts != 9 {
		t.Errorf("expected MaxPosts=9, got %d", cfg.MaxPosts)
	}
}

// #endregion config-tests
