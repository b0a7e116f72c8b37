package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"xgrowth/internal/persona"
)

// #region persona-context

// PersonaContext renders the profile as prompt context. Every
// generation call prepends this block so output stays aligned with the
// user's learned preferences.
func PersonaContext(s *persona.State) string {
	var b strings.Builder
	b.WriteString("User's Persona Profile:\n\nTOPIC AFFINITY (0-1 scale):\n")
	for _, t := range persona.TopTopics(s, len(s.TopicAffinity)) {
		fmt.Fprintf(&b, "- %s: %.1f%%\n", t.Name, t.Score*100)
	}

	fmt.Fprintf(&b, `
TONE & STYLE:
- Sentence length preference: %s
- Question frequency: %.1f%%
- Humor frequency: %.1f%%
- Emotional intensity: %s
- Formality: %s
- Contrarian tolerance: %.1f%%
- Certainty level: %s

ENGAGEMENT BEHAVIOR:
- Likes per day baseline: %d
- Replies per day baseline: %d
- Early engagement tendency: %.1f%%

RISK SENSITIVITY:
- Hot takes comfort: %.1f%%
- Safe vs experimental: %.1f%%
- Challenge others tendency: %.1f%%
`,
		s.ToneStyle.SentenceLength,
		s.ToneStyle.QuestionFrequency*100,
		s.ToneStyle.HumorFrequency*100,
		s.ToneStyle.EmotionalIntensity,
		s.ToneStyle.Formality,
		s.ToneStyle.ContrarianTolerance*100,
		s.ToneStyle.CertaintyLevel,
		s.EngagementBehavior.LikesPerDayBaseline,
		s.EngagementBehavior.RepliesPerDayBaseline,
		s.EngagementBehavior.EarlyEngagementTendency*100,
		s.RiskSensitivity.HotTakesComfort*100,
		s.RiskSensitivity.SafeVsExperimental*100,
		s.RiskSensitivity.ChallengeOthersTendency*100,
	)
	return b.String()
}

// #endregion persona-context

// #region generate-posts

// GeneratePosts returns persona-aligned post ideas. externalSignals is
// the optional intel analysis report injected as extra context.
func (c *Client) GeneratePosts(ctx context.Context, state *persona.State, count int, externalSignals string) ([]GeneratedPost, error) {
	signalsContext := ""
	if externalSignals != "" {
		signalsContext = "\n\nExternal Content Analysis:\n" + externalSignals + "\n\nUse these insights to inform post generation."
	}

	prompt := fmt.Sprintf(`%s%s

Generate %d post ideas that match the user's persona profile. Each post should:

1. Be 1-3 sentences maximum
2. Match the user's tone and style preferences
3. Align with topics the user cares about (prioritize high-affinity topics)
4. Respect the user's risk sensitivity level
5. Include a brief rationale explaining why it fits the persona

Format as a JSON object with a "posts" array, each element shaped as:
{"content": "...", "rationale": "...", "topic_tags": ["..."], "tone_match": "..."}

Generate diverse post types: insights, opinions, relatable content, questions, commentary.`,
		PersonaContext(state), signalsContext, count)

	out, err := c.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert content creator who understands user personas and creates authentic, engaging social media content. Always return valid JSON."},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.8,
		MaxTokens:      3000,
		ResponseFormat: jsonFormat(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate posts: %w", err)
	}

	posts, err := parsePosts(out)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].ID = fmt.Sprintf("post_%d", i+1)
		if posts[i].Rationale == "" {
			posts[i].Rationale = "Generated based on persona profile"
		}
		if posts[i].ToneMatch == "" {
			posts[i].ToneMatch = "Matches persona tone"
		}
	}
	if len(posts) > count {
		posts = posts[:count]
	}
	return posts, nil
}

// parsePosts tolerates the shapes models actually return: a bare
// array, a {"posts": [...]} wrapper, or a single object.
func parsePosts(out string) ([]GeneratedPost, error) {
	raw := stripCodeFences(out)

	var posts []GeneratedPost
	if err := json.Unmarshal([]byte(raw), &posts); err == nil {
		return posts, nil
	}
	var wrapper struct {
		Posts []GeneratedPost `json:"posts"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err == nil && len(wrapper.Posts) > 0 {
		return wrapper.Posts, nil
	}
	var single GeneratedPost
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Content != "" {
		return []GeneratedPost{single}, nil
	}
	return nil, fmt.Errorf("parse generated posts: unrecognized shape: %s", truncate(raw, 120))
}

// #endregion generate-posts

// #region generate-replies

// GenerateReplySuggestions returns reply drafts for the target post,
// one per angle up to count.
func (c *Client) GenerateReplySuggestions(ctx context.Context, state *persona.State, target ReplyTarget, count int) ([]ReplySuggestion, error) {
	prompt := fmt.Sprintf(`%s

Original post to reply to:
Author: %s
Content: %s

Generate %d reply suggestions with different angles:
1. Extend (add insight or perspective)
2. Question (clarify or discuss)
3. Challenge (respectful disagreement or alternative view)
4. Personal reflection (relate to own experience)

Each reply should:
- Match the user's tone and style
- Respect the user's risk sensitivity (don't be too aggressive if risk tolerance is low)
- Be thoughtful and add value (not generic "nice post" responses)
- Be 1-2 sentences maximum

Format as a JSON object with a "replies" array, each element shaped as:
{"content": "...", "angle": "extend|question|challenge|reflection", "rationale": "..."}`,
		PersonaContext(state), target.Author, target.Text, count)

	out, err := c.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert at crafting thoughtful, persona-aligned social media replies that add value to conversations. Always return valid JSON."},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.7,
		MaxTokens:      1500,
		ResponseFormat: jsonFormat(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate replies: %w", err)
	}

	replies, err := parseReplies(out)
	if err != nil {
		return nil, err
	}
	for i := range replies {
		replies[i].ID = fmt.Sprintf("reply_%d", i+1)
		if replies[i].Angle == "" {
			replies[i].Angle = "extend"
		}
		if replies[i].Rationale == "" {
			replies[i].Rationale = "Matches persona engagement style"
		}
	}
	if len(replies) > count {
		replies = replies[:count]
	}
	return replies, nil
}

func parseReplies(out string) ([]ReplySuggestion, error) {
	raw := stripCodeFences(out)

	var replies []ReplySuggestion
	if err := json.Unmarshal([]byte(raw), &replies); err == nil {
		return replies, nil
	}
	var wrapper struct {
		Replies []ReplySuggestion `json:"replies"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err == nil && len(wrapper.Replies) > 0 {
		return wrapper.Replies, nil
	}
	var single ReplySuggestion
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Content != "" {
		return []ReplySuggestion{single}, nil
	}
	return nil, fmt.Errorf("parse reply suggestions: unrecognized shape: %s", truncate(raw, 120))
}

// #endregion generate-replies

// #region explain-alignment

// ExplainAlignment asks the model why content fits the persona.
// contentType is "post" or "reply".
func (c *Client) ExplainAlignment(ctx context.Context, state *persona.State, content, contentType string) (string, error) {
	prompt := fmt.Sprintf(`%s

%s content:
%s

Explain in 2-3 sentences why this content aligns with the user's persona profile. Be specific about which persona traits it activates (topics, tone, style, etc.).`,
		PersonaContext(state), capitalize(contentType), content)

	out, err := c.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You explain content alignment with user personas clearly and concisely."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.5,
		MaxTokens:   200,
	})
	if err != nil {
		return "", fmt.Errorf("explain alignment: %w", err)
	}
	return out, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// #endregion explain-alignment

// #region analyze-patterns

// SourcePost is one post from a monitored account, fed into pattern
// analysis.
type SourcePost struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// AnalyzeContentPatterns produces a markdown analysis of posts from
// accounts the user follows, filtered through the persona profile.
func (c *Client) AnalyzeContentPatterns(ctx context.Context, state *persona.State, posts []SourcePost) (string, error) {
	if len(posts) > 50 {
		posts = posts[:50]
	}
	var sb strings.Builder
	for i, p := range posts {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&sb, "Author: %s\nPost: %s", p.Author, p.Text)
	}

	prompt := fmt.Sprintf(`%s

Analyze the following posts from accounts the user follows. Extract patterns that align with the user's persona profile above.

Posts to analyze:
%s

Provide a comprehensive analysis in markdown format covering:
1. Top topics (prioritize those matching user's topic affinity)
2. Common hooks (first-line patterns that grab attention)
3. Post length distribution
4. Tone patterns (how do these posts match or differ from user's tone?)
5. Engagement patterns (what types of posts get engagement?)

Focus on insights that would help generate content that matches the user's persona.`,
		PersonaContext(state), sb.String())

	out, err := c.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert social media analyst who understands content patterns and user personas."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("analyze content patterns: %w", err)
	}
	return out, nil
}

// #endregion analyze-patterns
