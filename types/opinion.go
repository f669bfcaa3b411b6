package types

import (
	"time"
)

// Opinion flags recorded when a malformed provider response had to be
// repaired. Flagged opinions reduce decision confidence downstream.
const (
	FlagScoreClamped = "score_clamped"
	FlagVoteCoerced  = "vote_coerced"
)

// Opinion is one reviewer's vote, score and reasoning for one round.
// Opinions are append-only: once recorded they are never edited, only
// superseded by a later Opinion from the same reviewer in a later round.
type Opinion struct {
	ID         string `json:"id"`
	ReviewerID string `json:"reviewer_id"`

	// Round is 0 for the initial-reactions phase, then the 1-based
	// open-floor turn index.
	Round int `json:"round"`

	Vote Vote `json:"vote"`

	// Score is in [0,100]. Nil when the reviewer abstained.
	Score *float64 `json:"score,omitempty"`

	Reasoning string   `json:"reasoning,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`

	// Dimensions carries named sub-scores (e.g. "risk": 80) that hard
	// rules can match against.
	Dimensions map[string]float64 `json:"dimensions,omitempty"`

	// Flags records structural repairs applied to this opinion.
	Flags []string `json:"flags,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Abstained reports whether this opinion carries no usable position.
func (o *Opinion) Abstained() bool {
	return o.Vote == VoteAbstain || o.Score == nil
}

// ScoreValue returns the score, or 0 for an abstain.
func (o *Opinion) ScoreValue() float64 {
	if o.Score == nil {
		return 0
	}
	return *o.Score
}

// Sanitize repairs structural problems in place: out-of-range scores are
// clamped to [0,100] and unknown votes are coerced to conditional. Each
// repair appends a flag and the applied flags are returned. A nil-score
// opinion with a countable vote is coerced to abstain.
func (o *Opinion) Sanitize() []string {
	var applied []string

	if !o.Vote.Valid() {
		o.Vote = VoteConditional
		applied = append(applied, FlagVoteCoerced)
	}

	if o.Score != nil {
		switch {
		case *o.Score < 0:
			v := 0.0
			o.Score = &v
			applied = append(applied, FlagScoreClamped)
		case *o.Score > 100:
			v := 100.0
			o.Score = &v
			applied = append(applied, FlagScoreClamped)
		}
	} else if o.Vote.Countable() {
		o.Vote = VoteAbstain
		applied = append(applied, FlagVoteCoerced)
	}

	o.Flags = append(o.Flags, applied...)
	return applied
}

// Float64Ptr is a convenience for building score values.
func Float64Ptr(v float64) *float64 { return &v }
