package replyguy

import (
	"context"
	"fmt"
	"log"
	"time"

	"xgrowth/internal/ai"
	"xgrowth/internal/feedback"
	"xgrowth/internal/persona"
	"xgrowth/internal/xapi"
)

const (
	suggestionsPerPost = 3
	challengeThreshold = 0.3
)

// #region contracts

// ListSource is the slice of the X client the engine needs.
type ListSource interface {
	ListTimeline(ctx context.Context, listID string, daysBack, maxResults int) ([]xapi.Post, error)
}

// ReplyWriter drafts reply suggestions for a target post.
type ReplyWriter interface {
	GenerateReplySuggestions(ctx context.Context, state *persona.State, target ai.ReplyTarget, count int) ([]ai.ReplySuggestion, error)
}

// Notifier pushes a fresh opportunity to the user. Implementations
// must tolerate being called from cron context.
type Notifier interface {
	ReplyOpportunity(user string, op Opportunity) error
}

// #endregion contracts

// #region engine

// Engine finds reply opportunities on monitored lists and keeps the
// pending queue in sync with what the user actually sends.
type Engine struct {
	x        ListSource
	writer   ReplyWriter
	personas *persona.Manager
	store    *Store
	notify   Notifier
	learn    *feedback.Processor
	now      func() time.Time
}

// NewEngine constructs an Engine. notify may be nil.
func NewEngine(x ListSource, writer ReplyWriter, personas *persona.Manager, store *Store, notify Notifier, learn *feedback.Processor) *Engine {
	return &Engine{
		x:        x,
		writer:   writer,
		personas: personas,
		store:    store,
		notify:   notify,
		learn:    learn,
		now:      time.Now,
	}
}

// #endregion engine

// #region monitor

// MonitorList scans one list for posts newer than hoursBack that have
// not been surfaced yet, drafts suggestions for each, and queues them.
func (e *Engine) MonitorList(ctx context.Context, user, listID string, hoursBack int) ([]Opportunity, error) {
	state, err := e.personas.Load(user)
	if err != nil {
		return nil, err
	}

	daysBack := hoursBack/24 + 1
	posts, err := e.x.ListTimeline(ctx, listID, daysBack, 50)
	if err != nil {
		return nil, fmt.Errorf("monitor list %s: %w", listID, err)
	}

	now := e.now().UTC()
	cutoff := now.Add(-time.Duration(hoursBack) * time.Hour)

	var ops []Opportunity
	for _, post := range posts {
		if post.CreatedAt.Before(cutoff) {
			continue
		}
		tracked, err := e.store.IsTracked(user, post.ID)
		if err != nil {
			return nil, err
		}
		if tracked {
			continue
		}

		suggestions, err := e.writer.GenerateReplySuggestions(ctx, state, ai.ReplyTarget{
			Author: post.AuthorID,
			Text:   post.Text,
		}, suggestionsPerPost)
		if err != nil {
			log.Printf("[REPLYGUY] suggestion generation failed user=%s post=%s: %v", user, post.ID, err)
			continue
		}
		suggestions = FilterByPersona(suggestions, state)
		if len(suggestions) == 0 {
			continue
		}

		op := Opportunity{
			PostID:      post.ID,
			Post:        post,
			Suggestions: suggestions,
			ListID:      listID,
			CreatedAt:   now,
		}
		if err := e.store.MarkTracked(user, post.ID, listID, now); err != nil {
			return nil, err
		}
		if err := e.store.AddPending(user, op); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// FilterByPersona drops suggestions the persona would not send.
// Confrontational angles go first when the user's challenge tendency
// is low.
func FilterByPersona(suggestions []ai.ReplySuggestion, state *persona.State) []ai.ReplySuggestion {
	kept := make([]ai.ReplySuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Angle == "challenge" && state.RiskSensitivity.ChallengeOthersTendency < challengeThreshold {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// #endregion monitor

// #region process

// Results summarizes one monitoring pass over the user's lists.
type Results struct {
	ListsProcessed     int `json:"lists_processed"`
	OpportunitiesFound int `json:"opportunities_found"`
	NotificationsSent  int `json:"notifications_sent"`
}

// ProcessOpportunities monitors every list and notifies the user about
// each new opportunity. A failing list is logged and skipped.
func (e *Engine) ProcessOpportunities(ctx context.Context, user string, listIDs []string, hoursBack int) (*Results, error) {
	res := &Results{}
	for _, listID := range listIDs {
		ops, err := e.MonitorList(ctx, user, listID, hoursBack)
		if err != nil {
			log.Printf("[REPLYGUY] list monitoring failed user=%s list=%s: %v", user, listID, err)
			continue
		}
		res.ListsProcessed++
		res.OpportunitiesFound += len(ops)

		if e.notify == nil {
			continue
		}
		for _, op := range ops {
			if err := e.notify.ReplyOpportunity(user, op); err != nil {
				log.Printf("[REPLYGUY] notification failed user=%s post=%s: %v", user, op.PostID, err)
				continue
			}
			res.NotificationsSent++
		}
	}
	return res, nil
}

// Pending returns the user's queued opportunities.
func (e *Engine) Pending(user string) ([]Opportunity, error) {
	return e.store.Pending(user)
}

// MarkUsed records that the user sent a reply to the post. The
// opportunity leaves the queue and the sent text counts as approved
// content.
func (e *Engine) MarkUsed(user, postID, replyContent string) error {
	if err := e.store.RemovePending(user, postID); err != nil {
		return err
	}
	if _, err := e.learn.Explicit(user, "approval", replyContent, ""); err != nil {
		return err
	}
	return nil
}

// #endregion process
