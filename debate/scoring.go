package debate

import (
	"math"
	"sort"

	"github.com/councilflow/councilflow/types"
)

// ScoreInput is everything arbitration looks at. ScoringEngine reads it
// and nothing else, so identical inputs always produce identical
// decisions.
type ScoreInput struct {
	SessionID string
	Proposal  types.Proposal

	// Transcript is the full opinion history, oldest first.
	Transcript []types.Opinion

	// Weights are the per-session dynamic weights (base + matched
	// adjustment deltas, clamped at zero).
	Weights map[string]float64

	// Consensus is the last convergence evaluation, or nil when the
	// floor ended on max turns or the deadline; the engine then computes
	// consensus fresh from the transcript.
	Consensus *ConvergenceResult

	// FlaggedOpinions counts opinions that needed structural repair;
	// each one shaves confidence.
	FlaggedOpinions int
}

// ScoringEngine combines weighted scores and hard override rules into a
// FinalDecision. It is a pure function of its input: no clock, no
// hidden state. The session stamps DecidedAt afterwards.
type ScoringEngine struct {
	approveThreshold float64
	rejectThreshold  float64
	rules            []HardRule
	detector         *ConvergenceDetector
}

// NewScoringEngine creates an engine with the given decision thresholds
// and hard rules. Rules are sorted by priority once, here.
func NewScoringEngine(cfg Config) *ScoringEngine {
	return &ScoringEngine{
		approveThreshold: cfg.ApproveThreshold,
		rejectThreshold:  cfg.RejectThreshold,
		rules:            sortRules(cfg.HardRules),
		detector:         NewConvergenceDetector(cfg.ConvergenceThreshold, cfg.CheckInterval),
	}
}

// Decide arbitrates the transcript into a final decision.
func (e *ScoringEngine) Decide(in ScoreInput) *types.FinalDecision {
	decision := &types.FinalDecision{
		SessionID:  in.SessionID,
		ProposalID: in.Proposal.ID,
	}

	// Hard rules are certain by construction.
	if rule := firstMatch(e.rules, in.Transcript, in.Proposal); rule != nil {
		decision.Approved = false
		decision.Vote = types.VoteReject
		decision.OverriddenBy = rule.ID
		decision.Confidence = 1.0
		decision.RejectedAlternatives = alternatives(types.VoteReject)
		return decision
	}

	weighted, attribution := e.weightedScore(in)
	decision.WeightedScore = weighted
	decision.Attribution = attribution

	switch {
	case weighted >= e.approveThreshold:
		decision.Vote = types.VoteApprove
		decision.Approved = true
	case weighted >= e.rejectThreshold:
		decision.Vote = types.VoteConditional
	default:
		decision.Vote = types.VoteReject
	}
	decision.RejectedAlternatives = alternatives(decision.Vote)

	consensus := in.Consensus
	if consensus == nil {
		// Floor ended without a recent check; compute fresh.
		fresh := e.detector.Evaluate(LatestVotes(in.Transcript), minConvergenceTurn)
		consensus = &fresh
	}
	decision.Confidence = consensus.ConsensusLevel * math.Pow(0.9, float64(in.FlaggedOpinions))

	return decision
}

// weightedScore computes sum(w_i * s_i) / sum(w_i) over reviewers whose
// latest opinion is non-abstain, plus each reviewer's attribution share
// w_i*s_i / sum(w_j*s_j). Accumulation runs in sorted reviewer-ID order:
// float addition is not associative, and map-range order would make the
// last ulps of the score vary between runs on the same transcript.
func (e *ScoringEngine) weightedScore(in ScoreInput) (float64, map[string]float64) {
	latest := latestOpinions(in.Transcript)
	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var weightSum, weightedSum float64
	contributions := make(map[string]float64, len(latest))
	for _, id := range ids {
		op := latest[id]
		if op.Abstained() {
			continue
		}
		w := in.Weights[id]
		if w <= 0 {
			continue
		}
		weightSum += w
		contribution := w * op.ScoreValue()
		weightedSum += contribution
		contributions[id] = contribution
	}

	if weightSum == 0 {
		return 0, nil
	}

	attribution := make(map[string]float64, len(contributions))
	if weightedSum > 0 {
		for id, c := range contributions {
			attribution[id] = c / weightedSum
		}
	}
	return weightedSum / weightSum, attribution
}

// latestOpinions folds the transcript into each reviewer's most recent
// opinion.
func latestOpinions(transcript []types.Opinion) map[string]*types.Opinion {
	latest := make(map[string]*types.Opinion)
	for i := range transcript {
		latest[transcript[i].ReviewerID] = &transcript[i]
	}
	return latest
}

// alternatives lists the countable votes that lost, in ordinal order.
func alternatives(chosen types.Vote) []types.Vote {
	out := make([]types.Vote, 0, 2)
	for _, v := range []types.Vote{types.VoteReject, types.VoteConditional, types.VoteApprove} {
		if v != chosen {
			out = append(out, v)
		}
	}
	return out
}
