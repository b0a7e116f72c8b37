// Package feedback translates raw user signals into bounded persona
// updates. Each processor owns the mapping policy (which signal moves
// which attribute, and by how much); the generic apply/clamp/save
// machinery lives in the persona package.
package feedback

import (
	"xgrowth/internal/persona"
)

// #region contracts

// Updater is the slice of the persona manager the processors need.
type Updater interface {
	UpdateFromFeedback(user string, kind persona.Kind, p persona.Payload) (*persona.UpdateResult, error)
}

// Result summarizes what one feedback event taught the system.
type Result struct {
	Processed  bool     `json:"processed"`
	Updates    []string `json:"updates"`
	Action     string   `json:"action,omitempty"`
	Engagement int      `json:"engagement,omitempty"`
}

// #endregion contracts

// #region processor

// Processor handles the four runtime feedback categories. Onboarding
// responses have their own processor because they need the text
// analysis service.
type Processor struct {
	state Updater
}

// NewProcessor creates a Processor over the given persona updater.
func NewProcessor(state Updater) *Processor {
	return &Processor{state: state}
}

// #endregion processor

func adj(v float64) *float64 { return &v }
