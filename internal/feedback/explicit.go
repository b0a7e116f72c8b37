package feedback

import (
	"strings"

	"xgrowth/internal/persona"
)

// #region explicit

// Explicit processes a direct user verdict on generated content:
// approval, rejection, or edit. Edits additionally compare the edited
// text against the original. Word count and question-mark count are
// cheap proxies for what the user actually changed.
func (p *Processor) Explicit(user, action, content, original string) (*Result, error) {
	res := &Result{Processed: true, Action: action}

	switch action {
	case "approval":
		_, err := p.state.UpdateFromFeedback(user, persona.KindEngagementBehavior,
			persona.Payload{Action: "approval"})
		if err != nil {
			return nil, err
		}
		res.Updates = append(res.Updates, "Learned from approved content")

	case "rejection":
		_, err := p.state.UpdateFromFeedback(user, persona.KindEngagementBehavior,
			persona.Payload{Action: "rejection"})
		if err != nil {
			return nil, err
		}
		res.Updates = append(res.Updates, "Learned from rejected content")

	case "edit":
		if content == "" || original == "" {
			return res, nil
		}
		originalWords := len(strings.Fields(original))
		editedWords := len(strings.Fields(content))

		if float64(editedWords) < float64(originalWords)*0.8 {
			_, err := p.state.UpdateFromFeedback(user, persona.KindToneStyle,
				persona.Payload{Attribute: "sentence_length", Adjustment: adj(-0.05)})
			if err != nil {
				return nil, err
			}
			res.Updates = append(res.Updates, "Learned: prefer shorter content")
		} else if float64(editedWords) > float64(originalWords)*1.2 {
			_, err := p.state.UpdateFromFeedback(user, persona.KindToneStyle,
				persona.Payload{Attribute: "sentence_length", Adjustment: adj(0.05)})
			if err != nil {
				return nil, err
			}
			res.Updates = append(res.Updates, "Learned: prefer longer content")
		}

		originalQuestions := strings.Count(original, "?")
		editedQuestions := strings.Count(content, "?")
		if editedQuestions > originalQuestions {
			_, err := p.state.UpdateFromFeedback(user, persona.KindToneStyle,
				persona.Payload{Attribute: "question_frequency", Adjustment: adj(0.05)})
			if err != nil {
				return nil, err
			}
			res.Updates = append(res.Updates, "Learned: prefer questions")
		} else if editedQuestions < originalQuestions {
			_, err := p.state.UpdateFromFeedback(user, persona.KindToneStyle,
				persona.Payload{Attribute: "question_frequency", Adjustment: adj(-0.05)})
			if err != nil {
				return nil, err
			}
			res.Updates = append(res.Updates, "Learned: prefer fewer questions")
		}

		_, err := p.state.UpdateFromFeedback(user, persona.KindEngagementBehavior,
			persona.Payload{Action: "edit"})
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// #endregion explicit
