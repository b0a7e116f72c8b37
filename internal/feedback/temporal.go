package feedback

import (
	"time"

	"xgrowth/internal/persona"
)

// longActionThreshold marks an action as slow enough to suggest
// hesitation or decision fatigue.
const longActionThreshold = 5 * time.Minute

// #region temporal

// Temporal processes timing observations around a user action. Both
// causes append to the fatigue log with a distinct signal string; no
// numeric field moves.
func (p *Processor) Temporal(user, action string, timeTaken time.Duration, hesitated bool) (*Result, error) {
	res := &Result{Processed: true, Action: action}

	if hesitated {
		_, err := p.state.UpdateFromFeedback(user, persona.KindEnergyCadence,
			persona.Payload{Attribute: "fatigue_signal", Signal: action + "_hesitation"})
		if err != nil {
			return nil, err
		}
		res.Updates = append(res.Updates, "Detected engagement fatigue")
	}

	if timeTaken > longActionThreshold {
		_, err := p.state.UpdateFromFeedback(user, persona.KindEnergyCadence,
			persona.Payload{Attribute: "fatigue_signal", Signal: action + "_long_time"})
		if err != nil {
			return nil, err
		}
		res.Updates = append(res.Updates, "Detected long processing time")
	}

	return res, nil
}

// #endregion temporal
