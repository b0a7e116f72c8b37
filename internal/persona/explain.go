package persona

import (
	"fmt"
	"sort"
	"strings"
)

// #region explain

// Explain renders a human-readable summary of the profile for the
// dashboard and the inspect tool.
func Explain(s *State) string {
	var b strings.Builder
	b.WriteString("=== PERSONA STATE SUMMARY ===\n\n")

	b.WriteString("TOPIC AFFINITY:\n")
	for _, t := range TopTopics(s, 5) {
		fmt.Fprintf(&b, "  • %s: %.1f%%\n", t.Name, t.Score*100)
	}

	b.WriteString("\nTONE & STYLE:\n")
	fmt.Fprintf(&b, "  • Sentence length: %s\n", s.ToneStyle.SentenceLength)
	fmt.Fprintf(&b, "  • Question frequency: %.1f%%\n", s.ToneStyle.QuestionFrequency*100)
	fmt.Fprintf(&b, "  • Humor frequency: %.1f%%\n", s.ToneStyle.HumorFrequency*100)
	fmt.Fprintf(&b, "  • Formality: %s\n", s.ToneStyle.Formality)
	fmt.Fprintf(&b, "  • Contrarian tolerance: %.1f%%\n", s.ToneStyle.ContrarianTolerance*100)

	b.WriteString("\nENGAGEMENT BEHAVIOR:\n")
	fmt.Fprintf(&b, "  • Likes per day: %d\n", s.EngagementBehavior.LikesPerDayBaseline)
	fmt.Fprintf(&b, "  • Replies per day: %d\n", s.EngagementBehavior.RepliesPerDayBaseline)
	fmt.Fprintf(&b, "  • Early engagement tendency: %.1f%%\n", s.EngagementBehavior.EarlyEngagementTendency*100)

	b.WriteString("\nRISK SENSITIVITY:\n")
	fmt.Fprintf(&b, "  • Hot takes comfort: %.1f%%\n", s.RiskSensitivity.HotTakesComfort*100)
	fmt.Fprintf(&b, "  • Safe vs experimental: %.1f%%\n", s.RiskSensitivity.SafeVsExperimental*100)

	b.WriteString("\nENERGY & CADENCE:\n")
	fmt.Fprintf(&b, "  • Posts per day tolerance: %d\n", s.EnergyCadence.PostsPerDayTolerance)
	fmt.Fprintf(&b, "  • Preferred posting times: %s\n", strings.Join(s.EnergyCadence.PreferredPostingTimes, ", "))

	b.WriteString("\nLEARNING HISTORY:\n")
	fmt.Fprintf(&b, "  • Total approvals: %d\n", s.LearningHistory.TotalApprovals)
	fmt.Fprintf(&b, "  • Total rejections: %d\n", s.LearningHistory.TotalRejections)
	fmt.Fprintf(&b, "  • Total edits: %d\n", s.LearningHistory.TotalEdits)
	if s.LearningHistory.LastUpdated != nil {
		fmt.Fprintf(&b, "  • Last updated: %s\n", s.LearningHistory.LastUpdated.Format("2006-01-02 15:04:05"))
	}

	return b.String()
}

// #endregion explain

// #region top-topics

// TopicScore pairs a topic name with its affinity.
type TopicScore struct {
	Name  string
	Score float64
}

// TopTopics returns the n highest-affinity topics, ties broken by name
// for deterministic output.
func TopTopics(s *State, n int) []TopicScore {
	scores := make([]TopicScore, 0, len(s.TopicAffinity))
	for name, score := range s.TopicAffinity {
		scores = append(scores, TopicScore{Name: name, Score: score})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Name < scores[j].Name
	})
	if n < len(scores) {
		scores = scores[:n]
	}
	return scores
}

// #endregion top-topics
