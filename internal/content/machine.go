package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"xgrowth/internal/ai"
	"xgrowth/internal/feedback"
	"xgrowth/internal/persona"
)

// #region contracts

// PostWriter is the slice of the AI client the machine needs.
type PostWriter interface {
	GeneratePosts(ctx context.Context, state *persona.State, count int, externalSignals string) ([]ai.GeneratedPost, error)
	ExplainAlignment(ctx context.Context, state *persona.State, content, contentType string) (string, error)
}

// #endregion contracts

// #region machine

// Machine generates post batches and routes user verdicts on them into
// the learning loop.
type Machine struct {
	writer   PostWriter
	personas *persona.Manager
	schedule *ScheduleStore
	learn    *feedback.Processor
}

// NewMachine constructs a Machine.
func NewMachine(writer PostWriter, personas *persona.Manager, schedule *ScheduleStore, learn *feedback.Processor) *Machine {
	return &Machine{writer: writer, personas: personas, schedule: schedule, learn: learn}
}

// #endregion machine

// #region generate

// GenerateBatch generates count posts and spreads them across the
// calendar from startDate, honoring the persona's daily tolerance and
// preferred posting times. The batch is persisted as drafts.
func (m *Machine) GenerateBatch(ctx context.Context, user string, count int, externalSignals string, startDate time.Time) ([]ScheduledPost, error) {
	state, err := m.personas.Load(user)
	if err != nil {
		return nil, err
	}

	ideas, err := m.writer.GeneratePosts(ctx, state, count, externalSignals)
	if err != nil {
		return nil, err
	}

	perDay := state.EnergyCadence.PostsPerDayTolerance
	if perDay < 1 {
		perDay = 1
	}
	times := state.EnergyCadence.PreferredPostingTimes

	scheduled := make([]ScheduledPost, 0, len(ideas))
	day := startDate
	now := time.Now().UTC()
	for i, idea := range ideas {
		slot := i % perDay
		scheduled = append(scheduled, ScheduledPost{
			ID:            uuid.New().String(),
			UserKey:       user,
			Content:       idea.Content,
			Rationale:     idea.Rationale,
			TopicTags:     idea.TopicTags,
			ToneMatch:     idea.ToneMatch,
			ScheduledDate: day.Format("2006-01-02"),
			ScheduledTime: slotTime(times, slot),
			Status:        "draft",
			CreatedAt:     now,
		})
		if slot == perDay-1 {
			day = day.AddDate(0, 0, 1)
		}
	}

	if err := m.schedule.Add(scheduled); err != nil {
		return nil, err
	}
	return scheduled, nil
}

// slotTime picks the time for the nth post of a day: preferred times
// first, then three-hour steps from 09:00.
func slotTime(preferred []string, slot int) string {
	if slot < len(preferred) {
		return preferred[slot]
	}
	return fmt.Sprintf("%02d:00", (9+slot*3)%24)
}

// #endregion generate

// #region verdicts

// Approve marks a post ready to publish and records the approval.
func (m *Machine) Approve(user, id string) (*ScheduledPost, error) {
	if err := m.schedule.SetStatus(user, id, "approved"); err != nil {
		return nil, err
	}
	p, err := m.schedule.Get(user, id)
	if err != nil {
		return nil, err
	}
	if _, err := m.learn.Explicit(user, "approval", p.Content, ""); err != nil {
		return nil, err
	}
	return p, nil
}

// Edit replaces a post's text and learns from the diff against the
// original.
func (m *Machine) Edit(user, id, newContent string) (*ScheduledPost, error) {
	original, err := m.schedule.UpdateContent(user, id, newContent)
	if err != nil {
		return nil, err
	}
	if newContent != original {
		if _, err := m.learn.Explicit(user, "edit", newContent, original); err != nil {
			return nil, err
		}
	}
	return m.schedule.Get(user, id)
}

// Reject removes a post from the schedule and records the rejection.
func (m *Machine) Reject(user, id string) (*ScheduledPost, error) {
	p, err := m.schedule.Delete(user, id)
	if err != nil {
		return nil, err
	}
	if _, err := m.learn.Explicit(user, "rejection", p.Content, ""); err != nil {
		return nil, err
	}
	return p, nil
}

// #endregion verdicts

// #region rationale

// Rationale returns why a post fits the persona, generating and
// persisting a specific explanation when the stored one is just the
// generation default.
func (m *Machine) Rationale(ctx context.Context, user, id string) (string, error) {
	p, err := m.schedule.Get(user, id)
	if err != nil {
		return "", err
	}
	if p.Rationale != "" && p.Rationale != "Generated based on persona profile" {
		return p.Rationale, nil
	}

	state, err := m.personas.Load(user)
	if err != nil {
		return "", err
	}
	rationale, err := m.writer.ExplainAlignment(ctx, state, p.Content, "post")
	if err != nil {
		return "", err
	}
	if err := m.schedule.SetRationale(user, id, rationale); err != nil {
		return "", err
	}
	return rationale, nil
}

// #endregion rationale
