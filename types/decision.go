package types

import "time"

// FinalDecision is the adjudicated outcome of a debate session.
// Given an identical transcript and identical weights, the scoring
// engine always produces the same FinalDecision.
type FinalDecision struct {
	SessionID  string `json:"session_id"`
	ProposalID string `json:"proposal_id"`

	Approved bool `json:"approved"`
	Vote     Vote `json:"vote"`

	// WeightedScore is the weight-normalized score in [0,100]. Zero when
	// a hard rule fired.
	WeightedScore float64 `json:"weighted_score"`

	// Confidence is the consensus level at decision time in [0,1].
	// Hard-rule overrides are certain by construction (1.0).
	Confidence float64 `json:"confidence"`

	// OverriddenBy is the ID of the hard rule that forced rejection,
	// or empty.
	OverriddenBy string `json:"overridden_by,omitempty"`

	// Attribution maps reviewer ID to its share of the weighted score.
	Attribution map[string]float64 `json:"attribution,omitempty"`

	// RejectedAlternatives lists votes that were considered and lost.
	RejectedAlternatives []Vote `json:"rejected_alternatives,omitempty"`

	DecidedAt time.Time `json:"decided_at"`
}

// Overridden reports whether a hard rule short-circuited scoring.
func (d *FinalDecision) Overridden() bool {
	return d.OverriddenBy != ""
}
