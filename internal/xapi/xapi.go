// Package xapi is a read-only client for the X API v2 surface the
// assistant consumes: user lookup, timelines, likes, and list data.
// Responses that drive periodic jobs are cached briefly to stay inside
// rate limits.
package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultBaseURL = "https://api.twitter.com/2"
	cacheTTL       = 5 * time.Minute
	cacheSize      = 64
)

// #region types

// PublicMetrics are the engagement counts X reports per post.
type PublicMetrics struct {
	Likes    int `json:"like_count"`
	Replies  int `json:"reply_count"`
	Retweets int `json:"retweet_count"`
	Quotes   int `json:"quote_count"`
}

// Post is one tweet as the rest of the system sees it.
type Post struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	AuthorID  string        `json:"author_id"`
	CreatedAt time.Time     `json:"created_at"`
	Metrics   PublicMetrics `json:"public_metrics"`
}

// User is an X account.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// #endregion types

// #region client

// Client talks to the X API v2 with an app bearer token.
type Client struct {
	BaseURL    string
	Bearer     string
	HTTPClient *http.Client

	posts *expirable.LRU[string, []Post]
}

// NewClient constructs a Client. httpClient may be nil.
func NewClient(bearer string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		BaseURL:    defaultBaseURL,
		Bearer:     bearer,
		HTTPClient: httpClient,
		posts:      expirable.NewLRU[string, []Post](cacheSize, nil, cacheTTL),
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.BaseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Bearer)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("x api %s status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// #endregion client

// #region wire

type wirePost struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	AuthorID      string        `json:"author_id"`
	CreatedAt     string        `json:"created_at"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
}

type postListResponse struct {
	Data []wirePost `json:"data"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

func (w wirePost) toPost() Post {
	created, _ := time.Parse(time.RFC3339, w.CreatedAt)
	return Post{
		ID:        w.ID,
		Text:      w.Text,
		AuthorID:  w.AuthorID,
		CreatedAt: created,
		Metrics:   w.PublicMetrics,
	}
}

func toPosts(wire []wirePost) []Post {
	posts := make([]Post, 0, len(wire))
	for _, w := range wire {
		posts = append(posts, w.toPost())
	}
	return posts
}

// #endregion wire

// #region users

// GetUserByUsername resolves a handle to a full user record.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var resp struct {
		Data User `json:"data"`
	}
	params := url.Values{"user.fields": {"description,public_metrics"}}
	if err := c.get(ctx, "/users/by/username/"+url.PathEscape(username), params, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return &resp.Data, nil
}

// #endregion users

// #region timelines

func timelineParams(daysBack, maxResults int) url.Values {
	if maxResults > 100 {
		maxResults = 100
	}
	params := url.Values{
		"max_results":  {strconv.Itoa(maxResults)},
		"tweet.fields": {"created_at,public_metrics,author_id"},
	}
	if daysBack > 0 {
		start := time.Now().UTC().AddDate(0, 0, -daysBack)
		params.Set("start_time", start.Format(time.RFC3339))
	}
	return params
}

// fetchPosts runs one cached GET for a post-list endpoint.
func (c *Client) fetchPosts(ctx context.Context, endpoint string, params url.Values) ([]Post, error) {
	key := endpoint + "?" + params.Encode()
	if cached, ok := c.posts.Get(key); ok {
		return cached, nil
	}

	var resp postListResponse
	if err := c.get(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	posts := toPosts(resp.Data)
	c.posts.Add(key, posts)
	return posts, nil
}

// UserTimeline returns the user's own recent posts.
func (c *Client) UserTimeline(ctx context.Context, userID string, daysBack, maxResults int) ([]Post, error) {
	return c.fetchPosts(ctx, "/users/"+url.PathEscape(userID)+"/tweets", timelineParams(daysBack, maxResults))
}

// LikedPosts returns posts the user has liked. The liked-tweets
// endpoint has no start_time filter, so daysBack is applied locally.
func (c *Client) LikedPosts(ctx context.Context, userID string, daysBack, maxResults int) ([]Post, error) {
	posts, err := c.fetchPosts(ctx, "/users/"+url.PathEscape(userID)+"/liked_tweets", timelineParams(0, maxResults))
	if err != nil {
		return nil, err
	}
	if daysBack <= 0 {
		return posts, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack)
	recent := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.CreatedAt.IsZero() || !p.CreatedAt.Before(cutoff) {
			recent = append(recent, p)
		}
	}
	return recent, nil
}

// UserReplies returns the reply subset of the user's timeline.
func (c *Client) UserReplies(ctx context.Context, userID string, daysBack, maxResults int) ([]Post, error) {
	timeline, err := c.UserTimeline(ctx, userID, daysBack, maxResults*2)
	if err != nil {
		return nil, err
	}
	var replies []Post
	for _, p := range timeline {
		if strings.HasPrefix(p.Text, "@") {
			replies = append(replies, p)
			if len(replies) == maxResults {
				break
			}
		}
	}
	return replies, nil
}

// #endregion timelines

// #region lists

// ListTimeline returns recent posts from an X List.
func (c *Client) ListTimeline(ctx context.Context, listID string, daysBack, maxResults int) ([]Post, error) {
	return c.fetchPosts(ctx, "/lists/"+url.PathEscape(listID)+"/tweets", timelineParams(daysBack, maxResults))
}

// List is one X List the user owns.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OwnedLists returns the lists the user owns.
func (c *Client) OwnedLists(ctx context.Context, userID string) ([]List, error) {
	var resp struct {
		Data []List `json:"data"`
	}
	if err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/owned_lists", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListMembers returns the accounts on an X List.
func (c *Client) ListMembers(ctx context.Context, listID string, maxResults int) ([]User, error) {
	if maxResults > 100 {
		maxResults = 100
	}
	var resp struct {
		Data []User `json:"data"`
	}
	params := url.Values{
		"max_results": {strconv.Itoa(maxResults)},
		"user.fields": {"description"},
	}
	if err := c.get(ctx, "/lists/"+url.PathEscape(listID)+"/members", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// #endregion lists

// #region posts

// GetPost fetches a single post with its current engagement metrics.
// Used by the outcome feedback job; never cached, the metrics are the
// point.
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	var resp struct {
		Data wirePost `json:"data"`
	}
	params := url.Values{"tweet.fields": {"created_at,public_metrics,author_id"}}
	if err := c.get(ctx, "/tweets/"+url.PathEscape(postID), params, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("post %q not found", postID)
	}
	p := resp.Data.toPost()
	return &p, nil
}

// #endregion posts
