// Package onboarding bootstraps a fresh persona: connect the X
// account, ingest recent activity into an initial profile, then refine
// it through guided questions.
package onboarding

import (
	"context"
	"fmt"
	"strings"

	"xgrowth/internal/ai"
	"xgrowth/internal/auth"
	"xgrowth/internal/feedback"
	"xgrowth/internal/persona"
	"xgrowth/internal/xapi"
)

const (
	ingestDaysBack = 60
	maxTopicPosts  = 50
	maxTonePosts   = 30
)

// #region contracts

// Accounts is the slice of the auth service the flow needs.
type Accounts interface {
	GetUser(id string) (*auth.User, error)
	ConnectX(id, xUsername string) error
	SetOnboardingStep(id string, step int) error
	CompleteOnboarding(id string) error
}

// XSource fetches the user's own X activity.
type XSource interface {
	GetUserByUsername(ctx context.Context, username string) (*xapi.User, error)
	UserTimeline(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error)
	LikedPosts(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error)
	UserReplies(ctx context.Context, userID string, daysBack, maxResults int) ([]xapi.Post, error)
}

// ProfileAnalyzer extracts topics and tone from activity text.
type ProfileAnalyzer interface {
	ExtractTopics(ctx context.Context, text string) (map[string]float64, error)
	AnalyzeTone(ctx context.Context, text string) (*ai.ToneAnalysis, error)
}

// #endregion contracts

// #region flow

// Flow drives a user through onboarding.
type Flow struct {
	accounts Accounts
	x        XSource
	analyzer ProfileAnalyzer
	personas *persona.Manager
	guided   *feedback.OnboardingProcessor
}

// NewFlow constructs a Flow.
func NewFlow(accounts Accounts, x XSource, analyzer ProfileAnalyzer, personas *persona.Manager, guided *feedback.OnboardingProcessor) *Flow {
	return &Flow{accounts: accounts, x: x, analyzer: analyzer, personas: personas, guided: guided}
}

// StepInfo describes where a user is in the flow.
type StepInfo struct {
	Step       int    `json:"step"`
	Complete   bool   `json:"complete"`
	XConnected bool   `json:"x_connected"`
	XUsername  string `json:"x_username,omitempty"`
	Message    string `json:"message"`
}

var stepMessages = map[int]string{
	1: "Welcome! Let's connect your X account to get started.",
	2: "Great! Now we'll analyze your X activity to understand your persona.",
	3: "Perfect! Your persona is being created. This will take a few moments...",
	4: "Onboarding complete! Your AI brain is ready.",
}

// Step reports the user's current onboarding step.
func (f *Flow) Step(userID string) (*StepInfo, error) {
	u, err := f.accounts.GetUser(userID)
	if err != nil {
		return nil, err
	}
	info := &StepInfo{
		Step:       u.OnboardingStep,
		Complete:   u.OnboardingComplete,
		XConnected: u.XConnected,
		XUsername:  u.XUsername,
	}
	if u.OnboardingComplete {
		info.Message = "Onboarding complete"
		return info, nil
	}
	msg, ok := stepMessages[u.OnboardingStep]
	if !ok {
		msg = "Continue setup"
	}
	info.Message = msg
	return info, nil
}

// ConnectX links an X handle after verifying it resolves. Step moves
// to 2.
func (f *Flow) ConnectX(ctx context.Context, userID, xUsername string) error {
	xUsername = strings.TrimPrefix(strings.TrimSpace(xUsername), "@")
	if xUsername == "" {
		return fmt.Errorf("empty X username")
	}
	if _, err := f.x.GetUserByUsername(ctx, xUsername); err != nil {
		return fmt.Errorf("could not connect X account %q: %w", xUsername, err)
	}
	return f.accounts.ConnectX(userID, xUsername)
}

// #endregion flow

// #region ingestion

// IngestResult summarizes what passive ingestion pulled in.
type IngestResult struct {
	Posts   int `json:"posts"`
	Likes   int `json:"likes"`
	Replies int `json:"replies"`
}

// RunAnalysis pulls the last two months of activity and seeds the
// persona from it, then marks onboarding complete.
func (f *Flow) RunAnalysis(ctx context.Context, userID string) (*IngestResult, error) {
	u, err := f.accounts.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if u.XUsername == "" {
		return nil, fmt.Errorf("X account not connected")
	}

	res, err := f.PassiveIngestion(ctx, userID, u.XUsername)
	if err != nil {
		return nil, err
	}
	if err := f.accounts.SetOnboardingStep(userID, 3); err != nil {
		return nil, err
	}
	if err := f.accounts.CompleteOnboarding(userID); err != nil {
		return nil, err
	}
	return res, nil
}

// PassiveIngestion seeds topic affinity from likes, tone from the
// user's own posts, and engagement baselines from activity volume.
// Seeding sets fields directly: there is no prior signal to respect,
// so the bounded-delta path does not apply here.
func (f *Flow) PassiveIngestion(ctx context.Context, userID, xUsername string) (*IngestResult, error) {
	xUser, err := f.x.GetUserByUsername(ctx, xUsername)
	if err != nil {
		return nil, fmt.Errorf("resolve X account: %w", err)
	}

	timeline, err := f.x.UserTimeline(ctx, xUser.ID, ingestDaysBack, 100)
	if err != nil {
		return nil, fmt.Errorf("ingest timeline: %w", err)
	}
	likes, err := f.x.LikedPosts(ctx, xUser.ID, ingestDaysBack, 200)
	if err != nil {
		return nil, fmt.Errorf("ingest likes: %w", err)
	}
	replies, err := f.x.UserReplies(ctx, xUser.ID, ingestDaysBack, 100)
	if err != nil {
		return nil, fmt.Errorf("ingest replies: %w", err)
	}

	state, err := f.personas.Load(userID)
	if err != nil {
		return nil, err
	}

	if len(likes) > 0 && f.analyzer != nil {
		liked := likes
		if len(liked) > maxTopicPosts {
			liked = liked[:maxTopicPosts]
		}
		topics, err := f.analyzer.ExtractTopics(ctx, joinTexts(liked))
		if err == nil {
			for topic, weight := range topics {
				if _, ok := state.TopicAffinity[topic]; ok {
					state.TopicAffinity[topic] = minFloat(1.0, weight)
				}
			}
		}
	}

	if len(timeline) > 0 && f.analyzer != nil {
		own := timeline
		if len(own) > maxTonePosts {
			own = own[:maxTonePosts]
		}
		tone, err := f.analyzer.AnalyzeTone(ctx, joinTexts(own))
		if err == nil {
			if tone.SentenceLength != "" {
				state.ToneStyle.SentenceLength = tone.SentenceLength
			}
			if tone.QuestionFrequency > 0 {
				state.ToneStyle.QuestionFrequency = tone.QuestionFrequency
			}
			if tone.Formality != "" {
				state.ToneStyle.Formality = tone.Formality
			}
		}
	}

	if len(replies) > 0 {
		state.EngagementBehavior.RepliesPerDayBaseline = clampInt(len(replies)/30, 1, 20)
	}
	if len(likes) > 0 {
		state.EngagementBehavior.LikesPerDayBaseline = clampInt(len(likes)/30, 5, 100)
	}
	if len(timeline) > 0 {
		state.EnergyCadence.PostsPerDayTolerance = clampInt(len(timeline)/ingestDaysBack, 1, 5)
	}

	if err := f.personas.Save(userID, state); err != nil {
		return nil, err
	}
	return &IngestResult{Posts: len(timeline), Likes: len(likes), Replies: len(replies)}, nil
}

// #endregion ingestion

// #region guided

// GuidedResponse routes a guided-phase answer into the learning loop.
func (f *Flow) GuidedResponse(ctx context.Context, userID string, phase int, response, shownText string) (*feedback.Result, error) {
	return f.guided.GuidedResponse(ctx, userID, phase, response, shownText)
}

// Complete marks onboarding finished without running analysis.
func (f *Flow) Complete(userID string) error {
	return f.accounts.CompleteOnboarding(userID)
}

// #endregion guided

func joinTexts(posts []xapi.Post) string {
	texts := make([]string, 0, len(posts))
	for _, p := range posts {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n\n")
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
