package feedback

import (
	"context"
	"strings"

	"xgrowth/internal/persona"
)

// #region contracts

// TopicExtractor turns free text into topic weights. Implemented by the
// ai package; faked in tests.
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, text string) (map[string]float64, error)
}

// #endregion contracts

// #region onboarding

// OnboardingProcessor maps guided first-run responses onto persona
// nudges. Magnitudes differ per phase: early phases carry less signal
// confidence than later ones, so they move the profile less.
type OnboardingProcessor struct {
	state   Updater
	extract TopicExtractor
}

// NewOnboardingProcessor creates an OnboardingProcessor. extract may be
// nil, in which case topic-driven nudges are skipped.
func NewOnboardingProcessor(state Updater, extract TopicExtractor) *OnboardingProcessor {
	return &OnboardingProcessor{state: state, extract: extract}
}

// GuidedResponse processes one answer from the guided onboarding phases.
// shownText is the post or account description the user was reacting to.
func (p *OnboardingProcessor) GuidedResponse(ctx context.Context, user string, phase int, response, shownText string) (*Result, error) {
	res := &Result{Processed: true}

	switch phase {
	case 1:
		// Content like: yes/no verdict on a sample post.
		switch response {
		case "yes":
			if err := p.nudgeTopics(ctx, user, shownText, 0.02, res, "Reinforced topics from liked sample"); err != nil {
				return nil, err
			}
		case "no":
			if err := p.nudgeTopics(ctx, user, shownText, -0.01, res, "Softened topics from disliked sample"); err != nil {
				return nil, err
			}
		}

	case 2:
		// Would-engage: yes/no on whether the user would reply.
		switch response {
		case "yes":
			_, err := p.state.UpdateFromFeedback(user, persona.KindEngagementBehavior,
				persona.Payload{Attribute: "early_engagement_tendency", Adjustment: adj(0.1)})
			if err != nil {
				return nil, err
			}
			res.Updates = append(res.Updates, "Learned engagement willingness")
			if strings.Contains(shownText, "?") {
				_, err := p.state.UpdateFromFeedback(user, persona.KindToneStyle,
					persona.Payload{Attribute: "question_frequency", Adjustment: adj(0.05)})
				if err != nil {
					return nil, err
				}
				res.Updates = append(res.Updates, "Learned: engages with questions")
			}
		case "no":
			_, err := p.state.UpdateFromFeedback(user, persona.KindEngagementBehavior,
				persona.Payload{Attribute: "early_engagement_tendency", Adjustment: adj(-0.05)})
			if err != nil {
				return nil, err
			}
			res.Updates = append(res.Updates, "Learned engagement reluctance")
		}

	case 3:
		// Like/skip over a content feed. Same shape as phase 1 at half
		// magnitude.
		switch response {
		case "like":
			if err := p.nudgeTopics(ctx, user, shownText, 0.015, res, "Reinforced topics from feed like"); err != nil {
				return nil, err
			}
		case "skip":
			if err := p.nudgeTopics(ctx, user, shownText, -0.01, res, "Softened topics from feed skip"); err != nil {
				return nil, err
			}
		}

	case 4:
		// Subscribe to a suggested account. shownText is the account
		// description.
		if response == "subscribe" {
			if err := p.nudgeTopics(ctx, user, shownText, 0.02, res, "Reinforced topics from subscription"); err != nil {
				return nil, err
			}
			_, err := p.state.UpdateFromFeedback(user, persona.KindEngagementBehavior,
				persona.Payload{Attribute: "follow_after_reply_tendency", Adjustment: adj(0.05)})
			if err != nil {
				return nil, err
			}
			res.Updates = append(res.Updates, "Learned follow tendency from subscription")
		}
	}

	return res, nil
}

// nudgeTopics extracts topics from text and applies the same adjustment
// to each. Extraction failures skip the nudge rather than failing the
// whole response; the guided flow must not stall on a flaky AI call.
func (p *OnboardingProcessor) nudgeTopics(ctx context.Context, user, text string, adjustment float64, res *Result, note string) error {
	if p.extract == nil || text == "" {
		return nil
	}
	topics, err := p.extract.ExtractTopics(ctx, text)
	if err != nil || len(topics) == 0 {
		return nil
	}
	for topic := range topics {
		_, err := p.state.UpdateFromFeedback(user, persona.KindTopicAffinity,
			persona.Payload{Topic: topic, Adjustment: adj(adjustment)})
		if err != nil {
			return err
		}
	}
	res.Updates = append(res.Updates, note)
	return nil
}

// #endregion onboarding
