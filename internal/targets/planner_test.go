package targets

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"xgrowth/internal/content"
	"xgrowth/internal/feedback"
	"xgrowth/internal/persona"
	"xgrowth/internal/replyguy"
	"xgrowth/internal/store"
	"xgrowth/internal/xapi"
)

type fakeSchedule struct {
	posts []content.ScheduledPost
}

func (f *fakeSchedule) List(user, startDate, endDate string) ([]content.ScheduledPost, error) {
	return f.posts, nil
}

type fakePending struct {
	ops []replyguy.Opportunity
}

func (f *fakePending) Pending(user string) ([]replyguy.Opportunity, error) {
	return f.ops, nil
}

type fakeActivity struct {
	timeline []xapi.Post
	likes    []xapi.Post
	replies  []xapi.Post
}

func (f *fakeActivity) UserTimeline(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error) {
	return f.timeline, nil
}

func (f *fakeActivity) LikedPosts(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error) {
	return f.likes, nil
}

func (f *fakeActivity) UserReplies(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error) {
	return f.replies, nil
}

func tempActivityStore(t *testing.T) *ActivityStore {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "activity.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := NewActivityStore(db)
	if err != nil {
		t.Fatalf("NewActivityStore: %v", err)
	}
	return s
}

func tempPlanner(t *testing.T, schedule ScheduleSource, pending PendingSource, x ActivitySource) (*Planner, *persona.Manager) {
	t.Helper()
	docs, err := store.NewDocStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDocStore: %v", err)
	}
	personas := persona.NewManager(docs, nil)
	p := NewPlanner(personas, tempActivityStore(t), schedule, pending, x, feedback.NewProcessor(personas))
	return p, personas
}

func TestDailyTargetsBaseline(t *testing.T) {
	p, _ := tempPlanner(t, nil, nil, nil)

	// Yesterday hit half the baseline, so no reduction applies.
	if err := p.activity.Record("alice", "2026-08-23", "post", "", time.Now()); err != nil {
		t.Fatalf("Record: %v", err)
	}

	targets, err := p.DailyTargets("alice", "2026-08-24")
	if err != nil {
		t.Fatalf("DailyTargets: %v", err)
	}
	// Defaults: 2 posts/day tolerance, 5 replies, 20 likes.
	if targets.Targets.Posts != 2 || targets.Targets.Replies != 5 || targets.Targets.Likes != 20 {
		t.Fatalf("unexpected targets: %+v", targets.Targets)
	}
	if targets.Rationale != "Targets based on your persona baseline" {
		t.Fatalf("unexpected rationale: %q", targets.Rationale)
	}
}

func TestDailyTargetsReducesAfterInactiveDay(t *testing.T) {
	p, _ := tempPlanner(t, nil, nil, nil)

	targets, err := p.DailyTargets("alice", "2026-08-24")
	if err != nil {
		t.Fatalf("DailyTargets: %v", err)
	}
	if targets.Targets.Posts != 1 {
		t.Fatalf("expected reduced posts target, got %d", targets.Targets.Posts)
	}
	if targets.Rationale == "Targets based on your persona baseline" {
		t.Fatalf("expected reduction rationale, got %q", targets.Rationale)
	}
}

func TestDailyTargetsFatigueReduction(t *testing.T) {
	p, personas := tempPlanner(t, nil, nil, nil)
	learn := feedback.NewProcessor(personas)

	for i := 0; i < 3; i++ {
		if _, err := learn.Temporal("alice", "post", 0, true); err != nil {
			t.Fatalf("Temporal: %v", err)
		}
	}
	// Keep yesterday active so only the fatigue reduction applies.
	today := time.Now().UTC()
	yesterday := today.AddDate(0, 0, -1).Format("2006-01-02")
	p.activity.Record("alice", yesterday, "post", "", today)

	targets, err := p.DailyTargets("alice", "")
	if err != nil {
		t.Fatalf("DailyTargets: %v", err)
	}
	if targets.FatigueSignals != 3 {
		t.Fatalf("expected 3 fatigue signals, got %d", targets.FatigueSignals)
	}
	if targets.Targets.Posts != 1 {
		t.Fatalf("expected fatigue-reduced posts, got %d", targets.Targets.Posts)
	}
	if targets.Targets.Replies != 4 {
		t.Fatalf("expected replies scaled to 4, got %d", targets.Targets.Replies)
	}
}

func TestDailyTargetsAvailableContent(t *testing.T) {
	schedule := &fakeSchedule{posts: []content.ScheduledPost{
		{ID: "a", Status: "draft"},
		{ID: "b", Status: "approved"},
		{ID: "c", Status: "posted"},
	}}
	pending := &fakePending{ops: []replyguy.Opportunity{{PostID: "p1"}, {PostID: "p2"}}}
	p, _ := tempPlanner(t, schedule, pending, nil)

	targets, err := p.DailyTargets("alice", "2026-08-24")
	if err != nil {
		t.Fatalf("DailyTargets: %v", err)
	}
	if targets.AvailablePosts != 2 || targets.AvailableReplies != 2 {
		t.Fatalf("unexpected availability: %+v", targets)
	}
}

func TestPrioritizedActionsOrdering(t *testing.T) {
	schedule := &fakeSchedule{posts: []content.ScheduledPost{
		{ID: "a", Status: "draft", Content: "first post", Rationale: "fits ai affinity"},
		{ID: "b", Status: "approved", Content: "second post"},
	}}
	pending := &fakePending{ops: []replyguy.Opportunity{
		{PostID: "p1", Post: xapi.Post{AuthorID: "bob", Text: "a long post about saas pricing strategy that keeps going and going"}},
	}}
	p, _ := tempPlanner(t, schedule, pending, nil)

	actions, err := p.PrioritizedActions("alice", "2026-08-24")
	if err != nil {
		t.Fatalf("PrioritizedActions: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	if actions[0].Type != "post" || actions[0].Priority != 1 {
		t.Fatalf("posts should come first: %+v", actions[0])
	}
	if actions[0].Rationale != "fits ai affinity" {
		t.Fatalf("unexpected rationale: %q", actions[0].Rationale)
	}
	if actions[1].Rationale != "Scheduled post" {
		t.Fatalf("expected default rationale, got %q", actions[1].Rationale)
	}
	if actions[2].Type != "reply" || actions[2].Priority != 2 {
		t.Fatalf("replies should come last: %+v", actions[2])
	}
	if len(actions[2].Action) > len("Reply to @bob: ")+53 {
		t.Fatalf("reply action not truncated: %q", actions[2].Action)
	}
}

func TestTrackActionCountsAndLearns(t *testing.T) {
	p, personas := tempPlanner(t, nil, nil, nil)

	if err := p.TrackAction("alice", "reply", nil, "r1", "2026-08-24"); err != nil {
		t.Fatalf("TrackAction: %v", err)
	}
	if err := p.TrackAction("alice", "like", []string{"ai"}, "t1", "2026-08-24"); err != nil {
		t.Fatalf("TrackAction: %v", err)
	}

	day, err := p.activity.Day("alice", "2026-08-24")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if day.Replies != 1 || day.Likes != 1 {
		t.Fatalf("unexpected counts: %+v", day)
	}

	s, _ := personas.Load("alice")
	if s.TopicAffinity["ai"] != 0.52 {
		t.Fatalf("like should nudge topic, got %f", s.TopicAffinity["ai"])
	}
}

func TestTodayProgress(t *testing.T) {
	p, _ := tempPlanner(t, nil, nil, nil)
	// Keep yesterday active so targets stay at baseline.
	p.activity.Record("alice", "2026-08-23", "post", "", time.Now())

	p.TrackAction("alice", "post", nil, "", "2026-08-24")
	p.TrackAction("alice", "reply", nil, "", "2026-08-24")

	prog, err := p.TodayProgress("alice", "2026-08-24")
	if err != nil {
		t.Fatalf("TodayProgress: %v", err)
	}
	if prog.Completed.Posts != 1 || prog.Completed.Replies != 1 {
		t.Fatalf("unexpected completed: %+v", prog.Completed)
	}
	if prog.Remaining.Posts != 1 || prog.Remaining.Replies != 4 || prog.Remaining.Likes != 20 {
		t.Fatalf("unexpected remaining: %+v", prog.Remaining)
	}
	if prog.Completion <= 0 || prog.Completion >= 100 {
		t.Fatalf("unexpected completion: %f", prog.Completion)
	}
}

func TestSyncFromX(t *testing.T) {
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -2)
	x := &fakeActivity{
		timeline: []xapi.Post{{ID: "t1", CreatedAt: now}, {ID: "t2", CreatedAt: old}},
		likes:    []xapi.Post{{ID: "l1", CreatedAt: now}},
		replies:  []xapi.Post{{ID: "r1", CreatedAt: now}, {ID: "r2", CreatedAt: now}},
	}
	p, _ := tempPlanner(t, nil, nil, x)

	res, err := p.SyncFromX(context.Background(), "alice", "123")
	if err != nil {
		t.Fatalf("SyncFromX: %v", err)
	}
	if res.Posts != 1 || res.Likes != 1 || res.Replies != 2 {
		t.Fatalf("unexpected sync result: %+v", res)
	}

	day, err := p.activity.Day("alice", res.Date)
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if day.Posts != 1 || day.Likes != 1 || day.Replies != 2 {
		t.Fatalf("unexpected counts: %+v", day)
	}
}

func TestActivityStoreUnknownActionType(t *testing.T) {
	s := tempActivityStore(t)
	if err := s.Record("alice", "2026-08-24", "bookmark", "", time.Now()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	day, err := s.Day("alice", "2026-08-24")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if day.Total() != 0 {
		t.Fatalf("unknown type must not move counters: %+v", day)
	}
}
