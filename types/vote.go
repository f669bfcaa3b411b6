package types

// Vote is a reviewer's position on a proposal.
type Vote string

const (
	VoteReject      Vote = "reject"
	VoteConditional Vote = "conditional"
	VoteApprove     Vote = "approve"

	// VoteAbstain marks a reviewer that failed to respond in time. It sits
	// outside the ordinal scale and contributes zero weight to scoring.
	VoteAbstain Vote = "abstain"
)

// ordinals order votes from most negative to most positive. Abstain has
// no position on the scale.
var ordinals = map[Vote]int{
	VoteReject:      0,
	VoteConditional: 1,
	VoteApprove:     2,
}

// Ordinal returns the vote's position on the reject(0) / conditional(1) /
// approve(2) scale, or -1 for abstain and unknown values.
func (v Vote) Ordinal() int {
	if o, ok := ordinals[v]; ok {
		return o
	}
	return -1
}

// Valid reports whether v is one of the four recognized votes.
func (v Vote) Valid() bool {
	return v == VoteAbstain || v.Ordinal() >= 0
}

// Countable reports whether v participates in plurality and scoring.
func (v Vote) Countable() bool {
	return v.Ordinal() >= 0
}
