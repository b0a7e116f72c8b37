package persona

// #region validate

// Validate normalizes a state document in place before it is saved.
// Out-of-range numerics are clamped rather than rejected so the system
// self-heals hand-edited documents; only a structurally unusable
// document (missing required section) produces a ValidationError.
func Validate(s *State) error {
	if s == nil {
		return &ValidationError{Section: "state", Reason: "nil document"}
	}
	if s.TopicAffinity == nil || len(s.TopicAffinity) == 0 {
		return &ValidationError{Section: "topic_affinity", Reason: "missing topic map"}
	}

	for topic, v := range s.TopicAffinity {
		s.TopicAffinity[topic] = clamp01(v)
	}

	s.ToneStyle.QuestionFrequency = clamp01(s.ToneStyle.QuestionFrequency)
	s.ToneStyle.HumorFrequency = clamp01(s.ToneStyle.HumorFrequency)
	s.ToneStyle.ContrarianTolerance = clamp01(s.ToneStyle.ContrarianTolerance)

	// Baselines are counts, floored at zero but never squeezed into [0,1].
	if s.EngagementBehavior.LikesPerDayBaseline < 0 {
		s.EngagementBehavior.LikesPerDayBaseline = 0
	}
	if s.EngagementBehavior.RepliesPerDayBaseline < 0 {
		s.EngagementBehavior.RepliesPerDayBaseline = 0
	}
	s.EngagementBehavior.FollowAfterReplyTendency = clamp01(s.EngagementBehavior.FollowAfterReplyTendency)
	s.EngagementBehavior.EarlyEngagementTendency = clamp01(s.EngagementBehavior.EarlyEngagementTendency)

	s.RiskSensitivity.HotTakesComfort = clamp01(s.RiskSensitivity.HotTakesComfort)
	s.RiskSensitivity.SafeVsExperimental = clamp01(s.RiskSensitivity.SafeVsExperimental)
	s.RiskSensitivity.ChallengeOthersTendency = clamp01(s.RiskSensitivity.ChallengeOthersTendency)

	if s.EnergyCadence.PostsPerDayTolerance < 0 {
		s.EnergyCadence.PostsPerDayTolerance = 0
	}
	if n := len(s.EnergyCadence.EngagementFatigueSignals); n > maxFatigueSignals {
		s.EnergyCadence.EngagementFatigueSignals =
			s.EnergyCadence.EngagementFatigueSignals[n-maxFatigueSignals:]
	}

	// History counters are monotonic; a negative value can only come
	// from a corrupted or hand-edited document.
	if s.LearningHistory.TotalApprovals < 0 {
		s.LearningHistory.TotalApprovals = 0
	}
	if s.LearningHistory.TotalRejections < 0 {
		s.LearningHistory.TotalRejections = 0
	}
	if s.LearningHistory.TotalEdits < 0 {
		s.LearningHistory.TotalEdits = 0
	}

	return nil
}

// #endregion validate
