package persona

// #region default-topics

// DefaultTopics is the fixed topic key set. Loaded documents may carry
// extra topics (preserved as-is) but these ten always exist.
var DefaultTopics = []string{
	"saas",
	"ai",
	"startups",
	"product",
	"distribution",
	"operations",
	"online_business",
	"money",
	"personal_reflections",
	"humor",
}

// #endregion default-topics

// #region default-state

// DefaultState returns a fresh default profile. Every call returns an
// independent copy; shared maps or slices between users would let one
// user's updates bleed into another's.
func DefaultState() *State {
	affinity := make(map[string]float64, len(DefaultTopics))
	for _, topic := range DefaultTopics {
		affinity[topic] = 0.5
	}
	return &State{
		TopicAffinity: affinity,
		ToneStyle: ToneStyle{
			SentenceLength:      "medium",
			QuestionFrequency:   0.4,
			HumorFrequency:      0.2,
			EmotionalIntensity:  "moderate",
			Formality:           "casual",
			ContrarianTolerance: 0.5,
			CertaintyLevel:      "balanced",
		},
		EngagementBehavior: EngagementBehavior{
			LikesPerDayBaseline:      20,
			RepliesPerDayBaseline:    5,
			FollowAfterReplyTendency: 0.3,
			EarlyEngagementTendency:  0.7,
			ReplyDepthPreference:     "medium",
		},
		RiskSensitivity: RiskSensitivity{
			HotTakesComfort:         0.4,
			SafeVsExperimental:      0.6,
			ChallengeOthersTendency: 0.5,
		},
		EnergyCadence: EnergyCadence{
			PostsPerDayTolerance:     2,
			EngagementFatigueSignals: []FatigueSignal{},
			PreferredPostingTimes:    []string{"09:00", "17:00"},
			ConsistencyPreference:    "moderate",
		},
		LearningHistory: LearningHistory{},
	}
}

// #endregion default-state
