// Package sched runs the recurring jobs: daily activity sync, list
// monitoring for reply opportunities, and posting reminders. Each job
// iterates every account with a connected X handle and logs per-user
// failures without stopping the sweep.
package sched

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"xgrowth/internal/auth"
	"xgrowth/internal/config"
	"xgrowth/internal/content"
	"xgrowth/internal/replyguy"
	"xgrowth/internal/targets"
	"xgrowth/internal/xapi"
)

const (
	jobTimeout       = 5 * time.Minute
	monitorHoursBack = 24
)

// #region contracts

// Users enumerates accounts the jobs act on.
type Users interface {
	ListConnected() ([]*auth.User, error)
}

// XSource resolves handles and lists.
type XSource interface {
	GetUserByUsername(ctx context.Context, username string) (*xapi.User, error)
	OwnedLists(ctx context.Context, userID string) ([]xapi.List, error)
}

// Syncer pulls daily activity and reports progress.
type Syncer interface {
	SyncFromX(ctx context.Context, user, xUserID string) (*targets.SyncResult, error)
	TodayProgress(user, day string) (*targets.Progress, error)
}

// Monitor scans lists for reply opportunities.
type Monitor interface {
	ProcessOpportunities(ctx context.Context, user string, listIDs []string, hoursBack int) (*replyguy.Results, error)
}

// ReadySource lists approved posts whose slot has passed.
type ReadySource interface {
	ReadyToPost(user string, now time.Time) ([]content.ScheduledPost, error)
}

// Notifier pushes summaries and reminders.
type Notifier interface {
	DailySummary(user string, prog *targets.Progress) error
	PostingReminder(user string, due int) error
}

// #endregion contracts

// #region jobs

// Jobs owns the cron runner and the three recurring sweeps.
type Jobs struct {
	cron     *cron.Cron
	users    Users
	x        XSource
	syncer   Syncer
	monitor  Monitor
	schedule ReadySource
	notify   Notifier
	now      func() time.Time
}

// New constructs Jobs. notify may be nil.
func New(users Users, x XSource, syncer Syncer, monitor Monitor, schedule ReadySource, notify Notifier) *Jobs {
	return &Jobs{
		cron:     cron.New(),
		users:    users,
		x:        x,
		syncer:   syncer,
		monitor:  monitor,
		schedule: schedule,
		notify:   notify,
		now:      time.Now,
	}
}

// Register adds the configured jobs. Empty specs disable a job.
func (j *Jobs) Register(cfg config.JobsConfig) error {
	entries := []struct {
		spec string
		name string
		run  func()
	}{
		{cfg.DailySync, "daily sync", func() { j.RunDailySync(context.Background()) }},
		{cfg.ListMonitoring, "list monitoring", func() { j.RunListMonitoring(context.Background()) }},
		{cfg.PostingReminder, "posting reminder", func() { j.RunPostingReminder() }},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		if _, err := j.cron.AddFunc(e.spec, e.run); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", e.name, e.spec, err)
		}
	}
	return nil
}

// Start begins cron execution.
func (j *Jobs) Start() {
	j.cron.Start()
}

// Stop halts the runner and waits for in-flight jobs.
func (j *Jobs) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Jobs) connected() []*auth.User {
	users, err := j.users.ListConnected()
	if err != nil {
		log.Printf("[SCHED] user listing failed: %v", err)
		return nil
	}
	return users
}

// #endregion jobs

// #region sweeps

// RunDailySync pulls each user's activity from the X API and sends the
// daily summary.
func (j *Jobs) RunDailySync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	for _, u := range j.connected() {
		xUser, err := j.x.GetUserByUsername(ctx, u.XUsername)
		if err != nil {
			log.Printf("[SCHED] daily sync resolve failed user=%s: %v", u.ID, err)
			continue
		}
		res, err := j.syncer.SyncFromX(ctx, u.ID, xUser.ID)
		if err != nil {
			log.Printf("[SCHED] daily sync failed user=%s: %v", u.ID, err)
			continue
		}
		log.Printf("[SCHED] daily sync user=%s posts=%d likes=%d replies=%d", u.ID, res.Posts, res.Likes, res.Replies)

		if j.notify == nil {
			continue
		}
		prog, err := j.syncer.TodayProgress(u.ID, "")
		if err != nil {
			log.Printf("[SCHED] progress failed user=%s: %v", u.ID, err)
			continue
		}
		if err := j.notify.DailySummary(u.ID, prog); err != nil {
			log.Printf("[SCHED] summary notification failed user=%s: %v", u.ID, err)
		}
	}
}

// RunListMonitoring scans every user's owned lists for reply
// opportunities.
func (j *Jobs) RunListMonitoring(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	for _, u := range j.connected() {
		xUser, err := j.x.GetUserByUsername(ctx, u.XUsername)
		if err != nil {
			log.Printf("[SCHED] monitoring resolve failed user=%s: %v", u.ID, err)
			continue
		}
		lists, err := j.x.OwnedLists(ctx, xUser.ID)
		if err != nil {
			log.Printf("[SCHED] list lookup failed user=%s: %v", u.ID, err)
			continue
		}
		if len(lists) == 0 {
			continue
		}
		ids := make([]string, 0, len(lists))
		for _, l := range lists {
			ids = append(ids, l.ID)
		}
		res, err := j.monitor.ProcessOpportunities(ctx, u.ID, ids, monitorHoursBack)
		if err != nil {
			log.Printf("[SCHED] monitoring failed user=%s: %v", u.ID, err)
			continue
		}
		log.Printf("[SCHED] monitoring user=%s lists=%d opportunities=%d", u.ID, res.ListsProcessed, res.OpportunitiesFound)
	}
}

// RunPostingReminder nags users about approved posts that are due.
func (j *Jobs) RunPostingReminder() {
	if j.notify == nil {
		return
	}
	now := j.now().UTC()
	for _, u := range j.connected() {
		ready, err := j.schedule.ReadyToPost(u.ID, now)
		if err != nil {
			log.Printf("[SCHED] ready lookup failed user=%s: %v", u.ID, err)
			continue
		}
		if err := j.notify.PostingReminder(u.ID, len(ready)); err != nil {
			log.Printf("[SCHED] reminder failed user=%s: %v", u.ID, err)
		}
	}
}

// #endregion sweeps
