package feedback

import (
	"xgrowth/internal/persona"
)

// #region behavioral

// Behavioral processes an observed engagement action on someone else's
// content: like, reply, follow, or retweet. Topics, when known, come
// from the caller (the tracked-post record or topic extraction).
func (p *Processor) Behavioral(user, actionType string, topics []string) (*Result, error) {
	res := &Result{Processed: true, Action: actionType}

	switch actionType {
	case "like":
		for _, topic := range topics {
			_, err := p.state.UpdateFromFeedback(user, persona.KindTopicAffinity,
				persona.Payload{Topic: topic, Adjustment: adj(0.02)})
			if err != nil {
				return nil, err
			}
		}
		if len(topics) > 0 {
			res.Updates = append(res.Updates, "Learned topic affinity from like")
		}

	case "reply":
		_, err := p.state.UpdateFromFeedback(user, persona.KindEngagementBehavior,
			persona.Payload{Attribute: "replies_per_day_baseline", Adjustment: adj(0.1)})
		if err != nil {
			return nil, err
		}
		res.Updates = append(res.Updates, "Learned engagement behavior from reply")

	case "follow":
		_, err := p.state.UpdateFromFeedback(user, persona.KindEngagementBehavior,
			persona.Payload{Attribute: "follow_after_reply_tendency", Adjustment: adj(0.05)})
		if err != nil {
			return nil, err
		}
		res.Updates = append(res.Updates, "Learned follow tendency")
	}

	// "retweet" is accepted but carries no mapping yet.
	return res, nil
}

// #endregion behavioral
