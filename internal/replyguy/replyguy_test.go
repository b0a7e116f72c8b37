package replyguy

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"xgrowth/internal/ai"
	"xgrowth/internal/feedback"
	"xgrowth/internal/persona"
	"xgrowth/internal/store"
	"xgrowth/internal/xapi"
)

type fakeLists struct {
	posts map[string][]xapi.Post
	err   error
}

func (f *fakeLists) ListTimeline(ctx context.Context, listID string, daysBack, maxResults int) ([]xapi.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.posts[listID], nil
}

type fakeReplyWriter struct {
	suggestions []ai.ReplySuggestion
	calls       int
	err         error
}

func (f *fakeReplyWriter) GenerateReplySuggestions(ctx context.Context, state *persona.State, target ai.ReplyTarget, count int) ([]ai.ReplySuggestion, error) {
	f.calls++
	return f.suggestions, f.err
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) ReplyOpportunity(user string, op Opportunity) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, op.PostID)
	return nil
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "replyguy.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func tempEngine(t *testing.T, x ListSource, writer ReplyWriter, notify Notifier) (*Engine, *persona.Manager) {
	t.Helper()
	docs, err := store.NewDocStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDocStore: %v", err)
	}
	personas := persona.NewManager(docs, nil)
	e := NewEngine(x, writer, personas, tempStore(t), notify, feedback.NewProcessor(personas))
	e.now = func() time.Time { return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC) }
	return e, personas
}

func suggestions() []ai.ReplySuggestion {
	return []ai.ReplySuggestion{
		{ID: "reply_1", Content: "building on this", Angle: "extend"},
		{ID: "reply_2", Content: "how did you measure that?", Angle: "question"},
		{ID: "reply_3", Content: "I see it differently", Angle: "challenge"},
	}
}

func recentPost(id string) xapi.Post {
	return xapi.Post{
		ID:        id,
		Text:      "interesting take on saas pricing",
		AuthorID:  "author1",
		CreatedAt: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	}
}

func TestFilterByPersonaDropsChallengeWhenCautious(t *testing.T) {
	state := persona.DefaultState()
	state.RiskSensitivity.ChallengeOthersTendency = 0.2

	kept := FilterByPersona(suggestions(), state)
	if len(kept) != 2 {
		t.Fatalf("expected challenge dropped, got %+v", kept)
	}
	for _, s := range kept {
		if s.Angle == "challenge" {
			t.Fatalf("challenge angle survived: %+v", s)
		}
	}
}

func TestFilterByPersonaKeepsChallengeByDefault(t *testing.T) {
	// The default challenge tendency sits above the filter threshold.
	kept := FilterByPersona(suggestions(), persona.DefaultState())
	if len(kept) != 3 {
		t.Fatalf("expected all suggestions kept, got %d", len(kept))
	}
}

func TestMonitorListQueuesFreshPosts(t *testing.T) {
	x := &fakeLists{posts: map[string][]xapi.Post{"99": {recentPost("p1")}}}
	writer := &fakeReplyWriter{suggestions: suggestions()}
	e, _ := tempEngine(t, x, writer, nil)

	ops, err := e.MonitorList(context.Background(), "alice", "99", 24)
	if err != nil {
		t.Fatalf("MonitorList: %v", err)
	}
	if len(ops) != 1 || ops[0].PostID != "p1" || ops[0].ListID != "99" {
		t.Fatalf("unexpected opportunities: %+v", ops)
	}
	if len(ops[0].Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(ops[0].Suggestions))
	}

	pending, err := e.Pending("alice")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0].PostID != "p1" {
		t.Fatalf("unexpected pending queue: %+v", pending)
	}
	if pending[0].Post.Text != "interesting take on saas pricing" {
		t.Fatalf("post did not round-trip: %+v", pending[0].Post)
	}
}

func TestMonitorListSkipsTrackedAndStale(t *testing.T) {
	stale := recentPost("old")
	stale.CreatedAt = time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)
	x := &fakeLists{posts: map[string][]xapi.Post{"99": {recentPost("p1"), stale}}}
	writer := &fakeReplyWriter{suggestions: suggestions()}
	e, _ := tempEngine(t, x, writer, nil)

	if _, err := e.MonitorList(context.Background(), "alice", "99", 24); err != nil {
		t.Fatalf("MonitorList: %v", err)
	}
	// Second pass finds nothing new.
	ops, err := e.MonitorList(context.Background(), "alice", "99", 24)
	if err != nil {
		t.Fatalf("MonitorList: %v", err)
	}
	if len(ops) != 0 {
		t.Fatalf("expected no new opportunities, got %+v", ops)
	}
	if writer.calls != 1 {
		t.Fatalf("expected 1 generation call, got %d", writer.calls)
	}
}

func TestMonitorListSkipsPostOnWriterFailure(t *testing.T) {
	x := &fakeLists{posts: map[string][]xapi.Post{"99": {recentPost("p1")}}}
	e, _ := tempEngine(t, x, &fakeReplyWriter{err: errors.New("ai down")}, nil)

	ops, err := e.MonitorList(context.Background(), "alice", "99", 24)
	if err != nil {
		t.Fatalf("MonitorList: %v", err)
	}
	if len(ops) != 0 {
		t.Fatalf("expected no opportunities, got %+v", ops)
	}
	// The post stays untracked so a later pass can retry it.
	tracked, err := e.store.IsTracked("alice", "p1")
	if err != nil {
		t.Fatalf("IsTracked: %v", err)
	}
	if tracked {
		t.Fatal("failed post must not be tracked")
	}
}

func TestProcessOpportunitiesNotifies(t *testing.T) {
	x := &fakeLists{posts: map[string][]xapi.Post{
		"a": {recentPost("p1")},
		"b": {recentPost("p2")},
	}}
	notify := &fakeNotifier{}
	e, _ := tempEngine(t, x, &fakeReplyWriter{suggestions: suggestions()}, notify)

	res, err := e.ProcessOpportunities(context.Background(), "alice", []string{"a", "b"}, 24)
	if err != nil {
		t.Fatalf("ProcessOpportunities: %v", err)
	}
	if res.ListsProcessed != 2 || res.OpportunitiesFound != 2 || res.NotificationsSent != 2 {
		t.Fatalf("unexpected results: %+v", res)
	}
	if len(notify.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %v", notify.sent)
	}
}

func TestProcessOpportunitiesSkipsFailingList(t *testing.T) {
	e, _ := tempEngine(t, &fakeLists{err: errors.New("x down")}, &fakeReplyWriter{}, nil)

	res, err := e.ProcessOpportunities(context.Background(), "alice", []string{"a"}, 24)
	if err != nil {
		t.Fatalf("ProcessOpportunities: %v", err)
	}
	if res.ListsProcessed != 0 || res.OpportunitiesFound != 0 {
		t.Fatalf("unexpected results: %+v", res)
	}
}

func TestMarkUsedClearsQueueAndLearns(t *testing.T) {
	x := &fakeLists{posts: map[string][]xapi.Post{"99": {recentPost("p1")}}}
	e, personas := tempEngine(t, x, &fakeReplyWriter{suggestions: suggestions()}, nil)

	if _, err := e.MonitorList(context.Background(), "alice", "99", 24); err != nil {
		t.Fatalf("MonitorList: %v", err)
	}
	if err := e.MarkUsed("alice", "p1", "building on this"); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}

	pending, err := e.Pending("alice")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %+v", pending)
	}
	s, _ := personas.Load("alice")
	if s.LearningHistory.TotalApprovals != 1 {
		t.Fatalf("expected 1 approval, got %d", s.LearningHistory.TotalApprovals)
	}
}
