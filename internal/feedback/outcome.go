package feedback

import (
	"log"
)

// highPerformerThreshold is the weighted engagement score above which a
// post is flagged as high performing.
const highPerformerThreshold = 50

// #region outcome

// EngagementMetrics are the raw counts pulled for a published post.
type EngagementMetrics struct {
	Likes    int `json:"likes"`
	Replies  int `json:"replies"`
	Retweets int `json:"retweets"`
}

// Score weights deeper interactions higher than passive likes.
func (m EngagementMetrics) Score() int {
	return m.Likes + m.Replies*2 + m.Retweets*3
}

// Outcome processes post-performance metrics. High performers are
// logged as a hook point for topic reinforcement; the persona itself is
// not touched yet.
// TODO: feed high-performer topics back through topic extraction once
// published posts carry their generation rationale.
func (p *Processor) Outcome(user, postID string, metrics EngagementMetrics) (*Result, error) {
	res := &Result{Processed: true, Engagement: metrics.Score()}

	if res.Engagement > highPerformerThreshold {
		log.Printf("[FEEDBACK] high performer user=%s post=%s score=%d", user, postID, res.Engagement)
		res.Updates = append(res.Updates, "Post performed well - learning from topics")
	}

	return res, nil
}

// #endregion outcome
