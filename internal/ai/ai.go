// Package ai wraps an OpenAI-compatible chat-completions endpoint for
// the text analysis and generation the assistant needs: topic
// extraction, tone analysis, and persona-aligned content generation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// #region types

// ToneAnalysis is the structured result of analyzing a body of text.
type ToneAnalysis struct {
	SentenceLength     string  `json:"sentence_length"`
	QuestionFrequency  float64 `json:"question_frequency"`
	HumorPresent       bool    `json:"humor_present"`
	EmotionalIntensity string  `json:"emotional_intensity"`
	Formality          string  `json:"formality"`
}

// GeneratedPost is one post idea with its persona rationale.
type GeneratedPost struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Rationale string   `json:"rationale"`
	TopicTags []string `json:"topic_tags"`
	ToneMatch string   `json:"tone_match"`
}

// ReplySuggestion is one suggested reply to someone else's post.
// Angle is one of extend, question, challenge, reflection.
type ReplySuggestion struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Angle     string `json:"angle"`
	Rationale string `json:"rationale"`
}

// ReplyTarget is the post a reply suggestion responds to.
type ReplyTarget struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// #endregion types

// #region client

// Client calls the chat-completions API. BaseURL is overridable for
// tests and compatible providers.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewClient constructs a Client. httpClient may be nil.
func NewClient(apiKey, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{BaseURL: defaultBaseURL, APIKey: apiKey, Model: model, HTTPClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func jsonFormat() *struct {
	Type string `json:"type"`
} {
	return &struct {
		Type string `json:"type"`
	}{Type: "json_object"}
}

// complete sends one chat request and returns the assistant text. A
// single retry covers transient 429/5xx responses.
func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("ai api key not configured")
	}
	req.Model = c.Model

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("build chat request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

		resp, err := c.HTTPClient.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("request chat completion: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("chat completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return "", fmt.Errorf("chat completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}

		var parsed chatResponse
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("decode chat response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return "", errors.New("chat response missing choices")
		}
		return parsed.Choices[0].Message.Content, nil
	}
	return "", lastErr
}

// #endregion client

// #region extract-topics

// ExtractTopics returns topic relevance weights for the given text.
// On API failure it falls back to keyword matching so callers in the
// feedback path keep working offline.
func (c *Client) ExtractTopics(ctx context.Context, text string) (map[string]float64, error) {
	if text == "" {
		return map[string]float64{}, nil
	}

	out, err := c.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a topic extraction assistant. Extract main topics from the given text and return them as a JSON object with topic names as keys and relevance scores (0-1) as values."},
			{Role: "user", Content: "Extract topics from this text:\n\n" + truncate(text, 500)},
		},
		Temperature:    0.3,
		ResponseFormat: jsonFormat(),
	})
	if err != nil {
		log.Printf("[AI] topic extraction failed, using keyword fallback: %v", err)
		return keywordTopics(text), nil
	}

	var topics map[string]float64
	if err := json.Unmarshal([]byte(stripCodeFences(out)), &topics); err != nil {
		log.Printf("[AI] topic extraction returned malformed JSON, using keyword fallback: %v", err)
		return keywordTopics(text), nil
	}
	return topics, nil
}

// keywordTopics is the offline fallback: coarse keyword matching over
// the default topic vocabulary.
var topicKeywords = map[string][]string{
	"ai":              {"ai", "artificial intelligence", "machine learning", "llm"},
	"startups":        {"startup", "entrepreneur", "founder"},
	"saas":            {"saas", "software", "platform"},
	"product":         {"product", "feature", "roadmap"},
	"distribution":    {"distribution", "marketing", "growth", "audience"},
	"operations":      {"operations", "process", "hiring"},
	"online_business": {"online business", "creator", "monetize"},
	"money":           {"revenue", "pricing", "money", "mrr"},
	"humor":           {"lol", "joke", "funny"},
}

func keywordTopics(text string) map[string]float64 {
	topics := make(map[string]float64)
	lower := strings.ToLower(text)
	for topic, keywords := range topicKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				topics[topic] = 0.5
				break
			}
		}
	}
	return topics
}

// #endregion extract-topics

// #region analyze-tone

// AnalyzeTone returns tone characteristics for the given text, falling
// back to local heuristics when the API is unavailable.
func (c *Client) AnalyzeTone(ctx context.Context, text string) (*ToneAnalysis, error) {
	if text == "" {
		return &ToneAnalysis{}, nil
	}

	out, err := c.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a tone analysis assistant. Analyze the tone and style of the given text and return a JSON object with: sentence_length (short/medium/long), question_frequency (0-1), humor_present (true/false), emotional_intensity (low/moderate/high), formality (casual/formal)."},
			{Role: "user", Content: "Analyze the tone of this text:\n\n" + truncate(text, 500)},
		},
		Temperature:    0.3,
		ResponseFormat: jsonFormat(),
	})
	if err != nil {
		log.Printf("[AI] tone analysis failed, using heuristic fallback: %v", err)
		return heuristicTone(text), nil
	}

	var tone ToneAnalysis
	if err := json.Unmarshal([]byte(stripCodeFences(out)), &tone); err != nil {
		log.Printf("[AI] tone analysis returned malformed JSON, using heuristic fallback: %v", err)
		return heuristicTone(text), nil
	}
	return &tone, nil
}

func heuristicTone(text string) *ToneAnalysis {
	tone := &ToneAnalysis{
		SentenceLength:     "medium",
		EmotionalIntensity: "moderate",
		Formality:          "casual",
	}
	sentences := strings.Count(text, ".") + strings.Count(text, "!")
	if sentences < 1 {
		sentences = 1
	}
	tone.QuestionFrequency = float64(strings.Count(text, "?")) / float64(sentences)
	if tone.QuestionFrequency > 1 {
		tone.QuestionFrequency = 1
	}

	avgWords := float64(len(strings.Fields(text))) / float64(sentences)
	if avgWords < 10 {
		tone.SentenceLength = "short"
	} else if avgWords > 25 {
		tone.SentenceLength = "long"
	}
	return tone
}

// #endregion analyze-tone

// #region helpers

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func stripCodeFences(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimSpace(trimmed)
		if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
	}
	return trimmed
}

// #endregion helpers
