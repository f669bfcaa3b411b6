package debate

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilflow/councilflow/types"
)

func scoringInput(ops []types.Opinion, weights map[string]float64) ScoreInput {
	return ScoreInput{
		SessionID:  "sess",
		Proposal:   types.Proposal{ID: "prop", Content: "x"},
		Transcript: ops,
		Weights:    weights,
	}
}

func opinion(reviewer string, round int, vote types.Vote, score float64) types.Opinion {
	return types.Opinion{
		ReviewerID: reviewer,
		Round:      round,
		Vote:       vote,
		Score:      types.Float64Ptr(score),
	}
}

func TestScoringThresholdBands(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	tests := []struct {
		name     string
		score    float64
		want     types.Vote
		approved bool
	}{
		{"high approves", 80, types.VoteApprove, true},
		{"exactly at approve threshold", 75, types.VoteApprove, true},
		{"middle is conditional", 60, types.VoteConditional, false},
		{"exactly at reject threshold", 40, types.VoteConditional, false},
		{"low rejects", 39, types.VoteReject, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := scoringInput(
				[]types.Opinion{opinion("a", 0, types.VoteConditional, tt.score)},
				map[string]float64{"a": 1},
			)
			d := engine.Decide(in)
			assert.InDelta(t, tt.score, d.WeightedScore, 1e-9)
			assert.Equal(t, tt.want, d.Vote)
			assert.Equal(t, tt.approved, d.Approved)
		})
	}
}

func TestScoringWeightsMatter(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	ops := []types.Opinion{
		opinion("heavy", 0, types.VoteApprove, 90),
		opinion("light", 0, types.VoteReject, 10),
	}

	d := engine.Decide(scoringInput(ops, map[string]float64{"heavy": 0.9, "light": 0.1}))
	assert.InDelta(t, 82, d.WeightedScore, 1e-9) // 0.9*90 + 0.1*10
	assert.Equal(t, types.VoteApprove, d.Vote)

	flipped := engine.Decide(scoringInput(ops, map[string]float64{"heavy": 0.1, "light": 0.9}))
	assert.InDelta(t, 18, flipped.WeightedScore, 1e-9)
	assert.Equal(t, types.VoteReject, flipped.Vote)
}

func TestScoringUsesLatestOpinionOnly(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	ops := []types.Opinion{
		opinion("a", 0, types.VoteReject, 20),
		opinion("a", 3, types.VoteApprove, 90),
	}
	d := engine.Decide(scoringInput(ops, map[string]float64{"a": 1}))
	assert.InDelta(t, 90, d.WeightedScore, 1e-9)
}

func TestScoringExcludesAbstainsAndZeroWeights(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	ops := []types.Opinion{
		opinion("a", 0, types.VoteApprove, 80),
		{ReviewerID: "b", Round: 0, Vote: types.VoteAbstain},
		opinion("c", 0, types.VoteReject, 10),
	}
	// c carries zero weight, b abstained: only a counts.
	d := engine.Decide(scoringInput(ops, map[string]float64{"a": 0.5, "b": 0.5, "c": 0}))
	assert.InDelta(t, 80, d.WeightedScore, 1e-9)
	assert.Equal(t, map[string]float64{"a": 1}, d.Attribution)
}

func TestScoringAllAbstainedRejects(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	ops := []types.Opinion{
		{ReviewerID: "a", Round: 0, Vote: types.VoteAbstain},
		{ReviewerID: "b", Round: 0, Vote: types.VoteAbstain},
	}
	d := engine.Decide(scoringInput(ops, map[string]float64{"a": 0.5, "b": 0.5}))
	assert.Zero(t, d.WeightedScore)
	assert.Equal(t, types.VoteReject, d.Vote)
	assert.False(t, d.Approved)
}

func TestScoringHardRuleWinsOverScore(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HardRules = []HardRule{
		NewDimensionThresholdRule("risk-cap", "risk", 75, 10),
		NewMetadataFlagRule("legal-hold", "legal_hold", 5),
	}
	engine := NewScoringEngine(cfg)

	op := opinion("a", 0, types.VoteApprove, 95)
	op.Dimensions = map[string]float64{"risk": 80}
	in := scoringInput([]types.Opinion{op}, map[string]float64{"a": 1})
	in.Proposal.Metadata = map[string]any{"legal_hold": true}

	d := engine.Decide(in)
	assert.False(t, d.Approved)
	assert.Equal(t, types.VoteReject, d.Vote)
	// Both rules match; the lower priority value wins.
	assert.Equal(t, "legal-hold", d.OverriddenBy)
	assert.InDelta(t, 1.0, d.Confidence, 1e-9)
}

func TestScoringConfidenceFromConsensus(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	in := scoringInput(
		[]types.Opinion{opinion("a", 0, types.VoteApprove, 80), opinion("b", 0, types.VoteApprove, 85)},
		map[string]float64{"a": 0.5, "b": 0.5},
	)
	in.Consensus = &ConvergenceResult{ConsensusLevel: 0.8, Turn: 6, Converged: true}

	d := engine.Decide(in)
	assert.InDelta(t, 0.8, d.Confidence, 1e-9)

	// Two flagged opinions shave 10% each.
	in.FlaggedOpinions = 2
	d = engine.Decide(in)
	assert.InDelta(t, 0.8*0.9*0.9, d.Confidence, 1e-9)
}

func TestScoringComputesConsensusWhenMissing(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	in := scoringInput(
		[]types.Opinion{opinion("a", 0, types.VoteApprove, 80), opinion("b", 0, types.VoteApprove, 85)},
		map[string]float64{"a": 0.5, "b": 0.5},
	)
	// No prior convergence check: unanimous approve gives level 1.0.
	d := engine.Decide(in)
	assert.InDelta(t, 1.0, d.Confidence, 1e-9)
}

func TestScoringAttributionSharesSumToOne(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	ops := []types.Opinion{
		opinion("a", 0, types.VoteApprove, 90),
		opinion("b", 0, types.VoteConditional, 60),
		opinion("c", 0, types.VoteReject, 30),
	}
	d := engine.Decide(scoringInput(ops, map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2}))

	sum := 0.0
	for _, share := range d.Attribution {
		sum += share
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, d.Attribution["a"], d.Attribution["b"])
	assert.Greater(t, d.Attribution["b"], d.Attribution["c"])
}

func TestScoringDeterministic(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	ops := []types.Opinion{
		opinion("a", 0, types.VoteApprove, 90),
		opinion("b", 1, types.VoteReject, 30),
	}
	in := scoringInput(ops, map[string]float64{"a": 0.6, "b": 0.4})

	first := engine.Decide(in)
	for i := 0; i < 10; i++ {
		next := engine.Decide(in)
		require.Equal(t, first, next)
	}
}

// With three or more contributors the accumulation order changes the
// last ulps of the sum, so a map-order fold would produce several
// distinct bit patterns for the same transcript. Replay enough times to
// catch any ordering leak.
func TestScoringBitIdenticalAcrossReplays(t *testing.T) {
	t.Parallel()

	engine := NewScoringEngine(DefaultConfig())
	ops := make([]types.Opinion, 0, 9)
	weights := make(map[string]float64, 9)
	for i := 0; i < 9; i++ {
		id := fmt.Sprintf("rev-%d", i)
		ops = append(ops, opinion(id, i, types.VoteConditional, 10.1*float64(i+1)))
		weights[id] = 0.1 + 0.013*float64(i)
	}
	in := scoringInput(ops, weights)

	first := engine.Decide(in)
	for i := 0; i < 500; i++ {
		next := engine.Decide(in)
		require.Equal(t, math.Float64bits(first.WeightedScore), math.Float64bits(next.WeightedScore),
			"weighted score must be bit-identical on replay %d", i)
		require.Equal(t, first.Attribution, next.Attribution)
		require.Equal(t, math.Float64bits(first.Confidence), math.Float64bits(next.Confidence))
	}
}
