package debate

import (
	"github.com/councilflow/councilflow/types"
)

// ConvergenceResult is one evaluation of how much the room agrees.
type ConvergenceResult struct {
	// ConsensusLevel = plurality count / responding reviewers, in [0,1].
	ConsensusLevel float64 `json:"consensus_level"`

	// PluralityVote is the most common latest vote; count ties break to
	// the lowest ordinal (reject < conditional < approve).
	PluralityVote types.Vote `json:"plurality_vote"`

	// Responding is the number of reviewers with a countable latest vote.
	Responding int `json:"responding"`

	VoteCounts map[types.Vote]int `json:"vote_counts"`

	// Turn is the open-floor turn at which this evaluation ran.
	Turn int `json:"turn"`

	Converged bool `json:"converged"`
}

// ConvergenceDetector decides when open debate stops early due to
// sufficient agreement. It is pure: the same votes and turn always
// produce the same result.
type ConvergenceDetector struct {
	threshold     float64
	checkInterval int
}

// minConvergenceTurn is the floor below which the detector never
// reports convergence, whatever the interval is configured to.
const minConvergenceTurn = 3

// NewConvergenceDetector creates a detector with the given consensus
// threshold and check interval (turns between evaluations).
func NewConvergenceDetector(threshold float64, checkInterval int) *ConvergenceDetector {
	if checkInterval <= 0 {
		checkInterval = 3
	}
	return &ConvergenceDetector{threshold: threshold, checkInterval: checkInterval}
}

// ShouldCheck reports whether the detector runs after the given 1-based
// open-floor turn.
func (d *ConvergenceDetector) ShouldCheck(turn int) bool {
	return turn >= minConvergenceTurn && turn%d.checkInterval == 0
}

// Evaluate computes the consensus level from each reviewer's latest
// countable vote. Converged requires the threshold to be met at a turn
// where a check is allowed — never turn 0, never before turn 3.
func (d *ConvergenceDetector) Evaluate(latestVotes map[string]types.Vote, turn int) ConvergenceResult {
	counts := make(map[types.Vote]int)
	responding := 0
	for _, v := range latestVotes {
		if !v.Countable() {
			continue
		}
		counts[v]++
		responding++
	}

	res := ConvergenceResult{
		PluralityVote: pluralityVote(counts),
		Responding:    responding,
		VoteCounts:    counts,
		Turn:          turn,
	}
	if responding > 0 {
		res.ConsensusLevel = float64(counts[res.PluralityVote]) / float64(responding)
	}
	res.Converged = turn >= minConvergenceTurn && res.ConsensusLevel >= d.threshold
	return res
}

// pluralityVote returns the most common vote, breaking count ties by
// the lowest ordinal for determinism.
func pluralityVote(counts map[types.Vote]int) types.Vote {
	best := types.VoteReject
	bestCount := -1
	for _, v := range []types.Vote{types.VoteReject, types.VoteConditional, types.VoteApprove} {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// LatestVotes folds a transcript into each reviewer's most recent vote,
// including abstains (callers filter with Countable as needed).
func LatestVotes(transcript []types.Opinion) map[string]types.Vote {
	latest := make(map[string]types.Vote)
	for _, op := range transcript {
		latest[op.ReviewerID] = op.Vote
	}
	return latest
}

// PositionShift classifies how a reviewer moved between two votes on
// the reject(0)/conditional(1)/approve(2) ordinal scale.
type PositionShift string

const (
	ShiftSamePosition     PositionShift = "same_position"
	ShiftMovingToMiddle   PositionShift = "moving_to_middle"
	ShiftStrongerAgree    PositionShift = "stronger_agree"
	ShiftStrongerDisagree PositionShift = "stronger_disagree"

	// ShiftIndeterminate covers transitions involving an abstain, which
	// has no position on the ordinal scale.
	ShiftIndeterminate PositionShift = "indeterminate"
)

// ClassifyShift maps a previous->current vote pair to a position shift.
func ClassifyShift(prev, cur types.Vote) PositionShift {
	po, co := prev.Ordinal(), cur.Ordinal()
	if po < 0 || co < 0 {
		return ShiftIndeterminate
	}
	delta := co - po
	switch {
	case delta == 0:
		return ShiftSamePosition
	case co == 1:
		return ShiftMovingToMiddle
	case delta > 0 && co == 2:
		return ShiftStrongerAgree
	case delta < 0 && co == 0:
		return ShiftStrongerDisagree
	default:
		return ShiftSamePosition
	}
}
