package targets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xgrowth/internal/content"
	"xgrowth/internal/feedback"
	"xgrowth/internal/persona"
	"xgrowth/internal/replyguy"
	"xgrowth/internal/xapi"
)

const fatigueLookbackDays = 3

// #region contracts

// ScheduleSource exposes the content calendar to the planner.
type ScheduleSource interface {
	List(user, startDate, endDate string) ([]content.ScheduledPost, error)
}

// PendingSource exposes the reply opportunity queue.
type PendingSource interface {
	Pending(user string) ([]replyguy.Opportunity, error)
}

// ActivitySource is the slice of the X client the daily sync needs.
type ActivitySource interface {
	UserTimeline(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error)
	LikedPosts(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error)
	UserReplies(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error)
}

// #endregion contracts

// #region types

// Targets is the computed plan for one day.
type Targets struct {
	Date             string   `json:"date"`
	Targets          Activity `json:"targets"`
	AvailablePosts   int      `json:"available_posts"`
	AvailableReplies int      `json:"available_replies"`
	Yesterday        Activity `json:"yesterday_activity"`
	FatigueSignals   int      `json:"fatigue_signals"`
	Rationale        string   `json:"rationale"`
}

// Action is one prioritized item on the daily dashboard.
type Action struct {
	Type      string `json:"type"` // post | reply
	Priority  int    `json:"priority"`
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
	Data      any    `json:"data"`
}

// Progress reports completion against the day's targets.
type Progress struct {
	Date       string   `json:"date"`
	Targets    Activity `json:"targets"`
	Completed  Activity `json:"completed"`
	Remaining  Activity `json:"remaining"`
	Completion float64  `json:"completion_percentage"`
}

// #endregion types

// #region planner

// Planner computes daily targets from the persona baseline, recent
// activity, and fatigue signals.
type Planner struct {
	personas *persona.Manager
	activity *ActivityStore
	schedule ScheduleSource
	pending  PendingSource
	x        ActivitySource
	learn    *feedback.Processor
	now      func() time.Time
}

// NewPlanner constructs a Planner. schedule, pending, and x may be nil
// when the corresponding feature is not configured.
func NewPlanner(personas *persona.Manager, activity *ActivityStore, schedule ScheduleSource, pending PendingSource, x ActivitySource, learn *feedback.Processor) *Planner {
	return &Planner{
		personas: personas,
		activity: activity,
		schedule: schedule,
		pending:  pending,
		x:        x,
		learn:    learn,
		now:      time.Now,
	}
}

// #endregion planner

// #region targets

// DailyTargets computes the plan for day (YYYY-MM-DD, empty for
// today). The persona baseline is scaled down after low-activity days
// and when fatigue signals cluster.
func (p *Planner) DailyTargets(user, day string) (*Targets, error) {
	state, err := p.personas.Load(user)
	if err != nil {
		return nil, err
	}

	target, err := parseDay(day, p.now)
	if err != nil {
		return nil, err
	}
	dayKey := target.Format("2006-01-02")

	yesterday, err := p.activity.Day(user, target.AddDate(0, 0, -1).Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	base := Activity{
		Posts:   state.EnergyCadence.PostsPerDayTolerance,
		Replies: state.EngagementBehavior.RepliesPerDayBaseline,
		Likes:   state.EngagementBehavior.LikesPerDayBaseline,
	}
	targets := base

	if float64(yesterday.Posts) < float64(base.Posts)*0.5 {
		targets.Posts = maxInt(1, base.Posts-1)
	}

	fatigue := state.RecentFatigueCount(target.AddDate(0, 0, -fatigueLookbackDays))
	if fatigue > 2 {
		targets.Posts = maxInt(1, targets.Posts-1)
		targets.Replies = maxInt(1, int(float64(targets.Replies)*0.8))
	}

	out := &Targets{
		Date:           dayKey,
		Targets:        targets,
		Yesterday:      yesterday,
		FatigueSignals: fatigue,
		Rationale:      targetRationale(targets, base, fatigue),
	}

	if p.schedule != nil {
		posts, err := p.schedule.List(user, dayKey, dayKey)
		if err != nil {
			return nil, err
		}
		for _, sp := range posts {
			if sp.Status == "draft" || sp.Status == "approved" {
				out.AvailablePosts++
			}
		}
	}
	if p.pending != nil {
		replies, err := p.pending.Pending(user)
		if err != nil {
			return nil, err
		}
		out.AvailableReplies = len(replies)
	}
	return out, nil
}

func targetRationale(targets, base Activity, fatigue int) string {
	var reasons []string
	if targets.Posts < base.Posts {
		reasons = append(reasons, fmt.Sprintf("Reduced posts (%d) due to recent activity patterns", targets.Posts))
	}
	if fatigue > 0 {
		reasons = append(reasons, fmt.Sprintf("Adjusted for %d recent fatigue signals", fatigue))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Targets based on your persona baseline")
	}
	return strings.Join(reasons, "; ")
}

// #endregion targets

// #region actions

// PrioritizedActions lists what to do today: scheduled posts first,
// then reply opportunities.
func (p *Planner) PrioritizedActions(user, day string) ([]Action, error) {
	target, err := parseDay(day, p.now)
	if err != nil {
		return nil, err
	}
	dayKey := target.Format("2006-01-02")

	var actions []Action
	if p.schedule != nil {
		posts, err := p.schedule.List(user, dayKey, dayKey)
		if err != nil {
			return nil, err
		}
		for _, sp := range posts {
			if sp.Status != "draft" && sp.Status != "approved" {
				continue
			}
			rationale := sp.Rationale
			if rationale == "" {
				rationale = "Scheduled post"
			}
			actions = append(actions, Action{
				Type:      "post",
				Priority:  1,
				Action:    "Post: " + snippet(sp.Content),
				Rationale: rationale,
				Data:      sp,
			})
			if len(actions) == 3 {
				break
			}
		}
	}

	if p.pending != nil {
		replies, err := p.pending.Pending(user)
		if err != nil {
			return nil, err
		}
		if len(replies) > 5 {
			replies = replies[:5]
		}
		for _, op := range replies {
			actions = append(actions, Action{
				Type:      "reply",
				Priority:  2,
				Action:    fmt.Sprintf("Reply to @%s: %s", op.Post.AuthorID, snippet(op.Post.Text)),
				Rationale: "Engagement opportunity",
				Data:      op,
			})
		}
	}
	return actions, nil
}

func snippet(s string) string {
	if len(s) > 50 {
		return s[:50] + "..."
	}
	return s
}

// #endregion actions

// #region tracking

// TrackAction records a completed action and routes it into the
// learning loop. topics, when known, sharpen the like signal.
func (p *Planner) TrackAction(user, actionType string, topics []string, detail, day string) error {
	target, err := parseDay(day, p.now)
	if err != nil {
		return err
	}
	if err := p.activity.Record(user, target.Format("2006-01-02"), actionType, detail, p.now()); err != nil {
		return err
	}
	_, err = p.learn.Behavioral(user, actionType, topics)
	return err
}

// TodayProgress reports completion against today's targets.
func (p *Planner) TodayProgress(user, day string) (*Progress, error) {
	targets, err := p.DailyTargets(user, day)
	if err != nil {
		return nil, err
	}
	completed, err := p.activity.Day(user, targets.Date)
	if err != nil {
		return nil, err
	}

	prog := &Progress{
		Date:      targets.Date,
		Targets:   targets.Targets,
		Completed: completed,
		Remaining: Activity{
			Posts:   maxInt(0, targets.Targets.Posts-completed.Posts),
			Replies: maxInt(0, targets.Targets.Replies-completed.Replies),
			Likes:   maxInt(0, targets.Targets.Likes-completed.Likes),
			Follows: maxInt(0, targets.Targets.Follows-completed.Follows),
		},
	}
	if total := targets.Targets.Total(); total > 0 {
		prog.Completion = float64(completed.Total()) / float64(total) * 100
	}
	return prog, nil
}

// #endregion tracking

// #region sync

// SyncResult summarizes one pull of today's activity from the X API.
type SyncResult struct {
	Synced  bool   `json:"synced"`
	Posts   int    `json:"posts"`
	Likes   int    `json:"likes"`
	Replies int    `json:"replies"`
	Date    string `json:"date"`
}

// SyncFromX pulls today's posts, likes, and replies from the X API and
// tracks each one so the dashboard reflects activity done outside the
// app.
func (p *Planner) SyncFromX(ctx context.Context, user, xUserID string) (*SyncResult, error) {
	today := p.now().UTC().Truncate(24 * time.Hour)
	res := &SyncResult{Synced: true, Date: today.Format("2006-01-02")}

	posts, err := p.x.UserTimeline(ctx, xUserID, 1, 50)
	if err != nil {
		return nil, fmt.Errorf("sync timeline: %w", err)
	}
	for _, post := range posts {
		if !sameDay(post.CreatedAt, today) {
			continue
		}
		if err := p.TrackAction(user, "post", nil, post.ID, res.Date); err != nil {
			return nil, err
		}
		res.Posts++
	}

	likes, err := p.x.LikedPosts(ctx, xUserID, 1, 100)
	if err != nil {
		return nil, fmt.Errorf("sync likes: %w", err)
	}
	for _, post := range likes {
		if !sameDay(post.CreatedAt, today) {
			continue
		}
		if err := p.TrackAction(user, "like", nil, post.ID, res.Date); err != nil {
			return nil, err
		}
		res.Likes++
	}

	replies, err := p.x.UserReplies(ctx, xUserID, 1, 50)
	if err != nil {
		return nil, fmt.Errorf("sync replies: %w", err)
	}
	for _, post := range replies {
		if !sameDay(post.CreatedAt, today) {
			continue
		}
		if err := p.TrackAction(user, "reply", nil, post.ID, res.Date); err != nil {
			return nil, err
		}
		res.Replies++
	}
	return res, nil
}

func sameDay(t, day time.Time) bool {
	return t.UTC().Truncate(24 * time.Hour).Equal(day)
}

// #endregion sync

func parseDay(day string, now func() time.Time) (time.Time, error) {
	if day == "" {
		return now().UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", day, err)
	}
	return t, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
