// Package intel analyzes content from monitored X Lists and scores it
// against the user's persona. The output feeds content generation as
// external signals.
package intel

import (
	"context"
	"fmt"
	"strings"

	"xgrowth/internal/ai"
	"xgrowth/internal/persona"
	"xgrowth/internal/xapi"
)

// #region contracts

// ListSource is the slice of the X client the analyzer needs.
type ListSource interface {
	ListTimeline(ctx context.Context, listID string, daysBack, maxResults int) ([]xapi.Post, error)
	ListMembers(ctx context.Context, listID string, maxResults int) ([]xapi.User, error)
}

// PatternAnalyzer produces the AI-written pattern report.
type PatternAnalyzer interface {
	AnalyzeContentPatterns(ctx context.Context, state *persona.State, posts []ai.SourcePost) (string, error)
}

// #endregion contracts

// #region report

// Engagement holds per-post engagement averages.
type Engagement struct {
	Likes    float64 `json:"likes"`
	Replies  float64 `json:"replies"`
	Retweets float64 `json:"retweets"`
}

// Summary is the statistical half of a list analysis.
type Summary struct {
	TotalPostsAnalyzed int        `json:"total_posts_analyzed"`
	TotalAccounts      int        `json:"total_accounts"`
	TimeRangeDays      int        `json:"time_range_days"`
	AveragePostLength  float64    `json:"average_post_length"`
	AverageEngagement  Engagement `json:"average_engagement"`
}

// PersonaAlignment relates the analyzed content back to the profile.
type PersonaAlignment struct {
	TopTopics []string `json:"top_topics"`
	ToneMatch string   `json:"tone_match"`
}

// Report is the full analysis of one list.
type Report struct {
	ListID           string           `json:"list_id"`
	Summary          Summary          `json:"summary"`
	Keywords         []KeywordCount   `json:"keywords"`
	AIAnalysis       string           `json:"ai_analysis"`
	PersonaAlignment PersonaAlignment `json:"persona_alignment"`
}

// CombinedReport aggregates analyses over several lists.
type CombinedReport struct {
	ListsAnalyzed      int      `json:"lists_analyzed"`
	TotalPostsAnalyzed int      `json:"total_posts_analyzed"`
	TotalAccounts      int      `json:"total_accounts"`
	TimeRangeDays      int      `json:"time_range_days"`
	CombinedAIAnalysis string   `json:"combined_ai_analysis"`
	Individual         []Report `json:"individual_analyses"`
}

// #endregion report

// #region analyzer

// Analyzer runs persona-aware list analysis.
type Analyzer struct {
	x        ListSource
	patterns PatternAnalyzer
	personas *persona.Manager
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(x ListSource, patterns PatternAnalyzer, personas *persona.Manager) *Analyzer {
	return &Analyzer{x: x, patterns: patterns, personas: personas}
}

// AnalyzeList fetches a list's recent posts and produces stats, top
// keywords, and an AI pattern report filtered through the persona.
func (a *Analyzer) AnalyzeList(ctx context.Context, user, listID string, daysBack, maxPosts int) (*Report, error) {
	state, err := a.personas.Load(user)
	if err != nil {
		return nil, err
	}

	posts, err := a.x.ListTimeline(ctx, listID, daysBack, maxPosts)
	if err != nil {
		return nil, fmt.Errorf("fetch list %s timeline: %w", listID, err)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("no posts found in list %s", listID)
	}

	members, err := a.x.ListMembers(ctx, listID, 100)
	if err != nil {
		return nil, fmt.Errorf("fetch list %s members: %w", listID, err)
	}

	texts := make([]string, len(posts))
	source := make([]ai.SourcePost, len(posts))
	var words, likes, replies, retweets int
	for i, p := range posts {
		texts[i] = p.Text
		source[i] = ai.SourcePost{Author: p.AuthorID, Text: p.Text}
		words += len(strings.Fields(p.Text))
		likes += p.Metrics.Likes
		replies += p.Metrics.Replies
		retweets += p.Metrics.Retweets
	}
	n := float64(len(posts))

	analysis, err := a.patterns.AnalyzeContentPatterns(ctx, state, source)
	if err != nil {
		return nil, fmt.Errorf("analyze list %s patterns: %w", listID, err)
	}

	return &Report{
		ListID: listID,
		Summary: Summary{
			TotalPostsAnalyzed: len(posts),
			TotalAccounts:      len(members),
			TimeRangeDays:      daysBack,
			AveragePostLength:  float64(words) / n,
			AverageEngagement: Engagement{
				Likes:    float64(likes) / n,
				Replies:  float64(replies) / n,
				Retweets: float64(retweets) / n,
			},
		},
		Keywords:   TopKeywords(texts, 20),
		AIAnalysis: analysis,
		PersonaAlignment: PersonaAlignment{
			TopTopics: topPersonaTopics(state, 5),
			ToneMatch: assessToneMatch(analysis, state),
		},
	}, nil
}

// AnalyzeLists runs AnalyzeList per list and merges the results.
// Lists that fail are skipped; an error is returned only when none
// succeed.
func (a *Analyzer) AnalyzeLists(ctx context.Context, user string, listIDs []string, daysBack int) (*CombinedReport, error) {
	combined := &CombinedReport{TimeRangeDays: daysBack}
	var analyses []string

	for _, id := range listIDs {
		report, err := a.AnalyzeList(ctx, user, id, daysBack, 200)
		if err != nil {
			continue
		}
		combined.Individual = append(combined.Individual, *report)
		combined.TotalPostsAnalyzed += report.Summary.TotalPostsAnalyzed
		combined.TotalAccounts += report.Summary.TotalAccounts
		analyses = append(analyses, report.AIAnalysis)
	}

	if len(combined.Individual) == 0 {
		return nil, fmt.Errorf("no valid analyses generated for %d lists", len(listIDs))
	}
	combined.ListsAnalyzed = len(combined.Individual)
	combined.CombinedAIAnalysis = strings.Join(analyses, "\n\n---\n\n")
	return combined, nil
}

// #endregion analyzer

// #region alignment

func topPersonaTopics(s *persona.State, n int) []string {
	scores := persona.TopTopics(s, n)
	names := make([]string, len(scores))
	for i, t := range scores {
		names[i] = t.Name
	}
	return names
}

// assessToneMatch is a coarse check for whether the analysis mentions
// the user's formality register.
func assessToneMatch(analysis string, s *persona.State) string {
	if strings.Contains(strings.ToLower(analysis), s.ToneStyle.Formality) {
		return "High match"
	}
	return "Moderate match"
}

// #endregion alignment
