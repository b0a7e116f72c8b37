package persona

import (
	"fmt"
	"time"
)

// MaxAdjustment is the ceiling on a single feedback delta for bounded
// fields. Feedback sources fire often and are individually noisy, so a
// single event may move a score by at most this much; convergence
// requires repeated consistent signals.
const MaxAdjustment = 0.1

// maxFatigueSignals caps the fatigue log, oldest dropped first.
const maxFatigueSignals = 30

// #region apply

// Apply mutates exactly one section of s according to kind and payload,
// plus the learning-history counter when payload.Action is set. It is a
// pure in-memory operation; clamping to [0,1] and the ±0.1 delta ceiling
// happen here, load/save around it happen in the Manager. The returned
// strings describe each change for observability.
func Apply(s *State, kind Kind, p Payload, now time.Time) []string {
	var changes []string

	switch kind {
	case KindTopicAffinity:
		if p.Topic != "" && p.Adjustment != nil {
			if old, ok := s.TopicAffinity[p.Topic]; ok {
				next := clamp01(old + clampAdjustment(*p.Adjustment))
				s.TopicAffinity[p.Topic] = next
				changes = append(changes, fmt.Sprintf("Topic '%s': %.2f → %.2f", p.Topic, old, next))
			}
		}

	case KindToneStyle:
		if p.Attribute != "" && p.Adjustment != nil {
			// Enum attributes (sentence_length etc.) have no numeric slot
			// and are skipped silently.
			if field := s.ToneStyle.numericField(p.Attribute); field != nil {
				old := *field
				*field = clamp01(old + clampAdjustment(*p.Adjustment))
				changes = append(changes, fmt.Sprintf("Tone '%s': %.2f → %.2f", p.Attribute, old, *field))
			}
		}

	case KindRiskSensitivity:
		if p.Attribute != "" && p.Adjustment != nil {
			if field := s.RiskSensitivity.field(p.Attribute); field != nil {
				old := *field
				*field = clamp01(old + clampAdjustment(*p.Adjustment))
				changes = append(changes, fmt.Sprintf("Risk '%s': %.2f → %.2f", p.Attribute, old, *field))
			}
		}

	case KindEngagementBehavior:
		if p.Attribute != "" && p.Adjustment != nil {
			if counter := s.EngagementBehavior.baselineField(p.Attribute); counter != nil {
				// Baselines are raw daily counts: integer delta, floor at
				// zero, exempt from the ±0.1 ceiling.
				old := *counter
				next := old + int(*p.Adjustment)
				if next < 0 {
					next = 0
				}
				*counter = next
				changes = append(changes, fmt.Sprintf("Engagement '%s': %d → %d", p.Attribute, old, next))
			} else if field := s.EngagementBehavior.tendencyField(p.Attribute); field != nil {
				old := *field
				*field = clamp01(old + clampAdjustment(*p.Adjustment))
				changes = append(changes, fmt.Sprintf("Engagement '%s': %.2f → %.2f", p.Attribute, old, *field))
			}
		}

	case KindEnergyCadence:
		switch p.Attribute {
		case "posts_per_day_tolerance":
			if p.Value != nil {
				next := *p.Value
				if next < 0 {
					next = 0
				}
				s.EnergyCadence.PostsPerDayTolerance = next
				changes = append(changes, fmt.Sprintf("Energy 'posts_per_day_tolerance': → %d", next))
			}
		case "fatigue_signal":
			if p.Signal != "" {
				s.AppendFatigueSignal(FatigueSignal{Timestamp: now, Signal: p.Signal})
			}
		}
	}

	switch p.Action {
	case "approval":
		s.LearningHistory.TotalApprovals++
	case "rejection":
		s.LearningHistory.TotalRejections++
	case "edit":
		s.LearningHistory.TotalEdits++
	}

	return changes
}

// #endregion apply

// #region fatigue

// AppendFatigueSignal records a disengagement observation, truncating
// the log to the most recent maxFatigueSignals entries.
func (s *State) AppendFatigueSignal(sig FatigueSignal) {
	signals := append(s.EnergyCadence.EngagementFatigueSignals, sig)
	if len(signals) > maxFatigueSignals {
		signals = signals[len(signals)-maxFatigueSignals:]
	}
	s.EnergyCadence.EngagementFatigueSignals = signals
}

// RecentFatigueCount returns how many fatigue signals are newer than
// the cutoff. Used by the daily-targets consumer.
func (s *State) RecentFatigueCount(cutoff time.Time) int {
	n := 0
	for _, sig := range s.EnergyCadence.EngagementFatigueSignals {
		if !sig.Timestamp.Before(cutoff) {
			n++
		}
	}
	return n
}

// #endregion fatigue

// #region field-addressing

func (t *ToneStyle) numericField(attr string) *float64 {
	switch attr {
	case "question_frequency":
		return &t.QuestionFrequency
	case "humor_frequency":
		return &t.HumorFrequency
	case "contrarian_tolerance":
		return &t.ContrarianTolerance
	}
	return nil
}

func (r *RiskSensitivity) field(attr string) *float64 {
	switch attr {
	case "hot_takes_comfort":
		return &r.HotTakesComfort
	case "safe_vs_experimental":
		return &r.SafeVsExperimental
	case "challenge_others_tendency":
		return &r.ChallengeOthersTendency
	}
	return nil
}

func (e *EngagementBehavior) baselineField(attr string) *int {
	switch attr {
	case "likes_per_day_baseline":
		return &e.LikesPerDayBaseline
	case "replies_per_day_baseline":
		return &e.RepliesPerDayBaseline
	}
	return nil
}

func (e *EngagementBehavior) tendencyField(attr string) *float64 {
	switch attr {
	case "follow_after_reply_tendency":
		return &e.FollowAfterReplyTendency
	case "early_engagement_tendency":
		return &e.EarlyEngagementTendency
	}
	return nil
}

// #endregion field-addressing

// #region clamps

func clampAdjustment(adj float64) float64 {
	if adj > MaxAdjustment {
		return MaxAdjustment
	}
	if adj < -MaxAdjustment {
		return -MaxAdjustment
	}
	return adj
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion clamps
