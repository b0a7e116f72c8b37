package persona

import "time"

// #region state

// State is the per-user preference and behavior profile. The JSON field
// names are the persisted schema and must not change: existing documents
// on disk and every downstream consumer read these exact keys.
type State struct {
	TopicAffinity      map[string]float64 `json:"topic_affinity"`
	ToneStyle          ToneStyle          `json:"tone_style"`
	EngagementBehavior EngagementBehavior `json:"engagement_behavior"`
	RiskSensitivity    RiskSensitivity    `json:"risk_sensitivity"`
	EnergyCadence      EnergyCadence      `json:"energy_cadence"`
	LearningHistory    LearningHistory    `json:"learning_history"`
}

// #endregion state

// #region sections

// ToneStyle holds stylistic targets for generated content.
// Numeric fields are [0,1]; the rest are enums adjusted only by
// onboarding ingestion, never by incremental feedback.
type ToneStyle struct {
	SentenceLength      string  `json:"sentence_length"` // "short" | "medium" | "long"
	QuestionFrequency   float64 `json:"question_frequency"`
	HumorFrequency      float64 `json:"humor_frequency"`
	EmotionalIntensity  string  `json:"emotional_intensity"` // "low" | "moderate" | "high"
	Formality           string  `json:"formality"`           // "casual" | "formal"
	ContrarianTolerance float64 `json:"contrarian_tolerance"`
	CertaintyLevel      string  `json:"certainty_level"`
}

// EngagementBehavior holds behavioral cadence baselines. Baselines are
// raw daily counts (integers, floor 0); tendencies are [0,1].
type EngagementBehavior struct {
	LikesPerDayBaseline      int     `json:"likes_per_day_baseline"`
	RepliesPerDayBaseline    int     `json:"replies_per_day_baseline"`
	FollowAfterReplyTendency float64 `json:"follow_after_reply_tendency"`
	EarlyEngagementTendency  float64 `json:"early_engagement_tendency"`
	ReplyDepthPreference     string  `json:"reply_depth_preference"`
}

// RiskSensitivity controls how aggressive or contrarian generated
// content may be. All fields are [0,1].
type RiskSensitivity struct {
	HotTakesComfort         float64 `json:"hot_takes_comfort"`
	SafeVsExperimental      float64 `json:"safe_vs_experimental"`
	ChallengeOthersTendency float64 `json:"challenge_others_tendency"`
}

// FatigueSignal is one timestamped disengagement observation.
type FatigueSignal struct {
	Timestamp time.Time `json:"timestamp"`
	Signal    string    `json:"signal"`
}

// EnergyCadence holds pacing preferences and the fatigue log.
type EnergyCadence struct {
	PostsPerDayTolerance     int             `json:"posts_per_day_tolerance"`
	EngagementFatigueSignals []FatigueSignal `json:"engagement_fatigue_signals"`
	PreferredPostingTimes    []string        `json:"preferred_posting_times"`
	ConsistencyPreference    string          `json:"consistency_preference"`
}

// LearningHistory is the audit trail of incorporated feedback.
// Counters are monotonic; LastUpdated is set by Save, never by callers.
type LearningHistory struct {
	TotalApprovals  int        `json:"total_approvals"`
	TotalRejections int        `json:"total_rejections"`
	TotalEdits      int        `json:"total_edits"`
	LastUpdated     *time.Time `json:"last_updated"`
}

// #endregion sections

// #region feedback-kinds

// Kind selects which section UpdateFromFeedback mutates.
type Kind string

const (
	KindTopicAffinity      Kind = "topic_affinity"
	KindToneStyle          Kind = "tone_style"
	KindEngagementBehavior Kind = "engagement_behavior"
	KindRiskSensitivity    Kind = "risk_sensitivity"
	KindEnergyCadence      Kind = "energy_cadence"
)

// KnownKind reports whether k is one of the five feedback kinds.
func KnownKind(k Kind) bool {
	switch k {
	case KindTopicAffinity, KindToneStyle, KindEngagementBehavior,
		KindRiskSensitivity, KindEnergyCadence:
		return true
	}
	return false
}

// Payload carries the kind-specific fields of one feedback event.
// Unused fields are left at their zero values; unknown topics and
// attributes are ignored rather than rejected so that older clients
// can keep sending fields the schema no longer recognizes.
type Payload struct {
	Topic      string   `json:"topic,omitempty"`
	Attribute  string   `json:"attribute,omitempty"`
	Adjustment *float64 `json:"adjustment,omitempty"`
	Value      *int     `json:"value,omitempty"`
	Signal     string   `json:"signal,omitempty"`
	Action     string   `json:"action,omitempty"` // "approval" | "rejection" | "edit"
}

// UpdateResult bundles everything returned by UpdateFromFeedback.
// Changes is advisory observability output, not consumed downstream.
type UpdateResult struct {
	State       *State   `json:"state"`
	Changes     []string `json:"changes"`
	Explanation string   `json:"explanation"`
}

// #endregion feedback-kinds

// #region validation-error

// ValidationError reports a state document that cannot be saved,
// as opposed to out-of-range values which are clamped silently.
type ValidationError struct {
	Section string
	Reason  string
}

func (e *ValidationError) Error() string {
	return "invalid persona state: " + e.Section + ": " + e.Reason
}

// #endregion validation-error
