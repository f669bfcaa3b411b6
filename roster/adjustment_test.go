package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/councilflow/councilflow/types"
)

func testRoster() []types.Reviewer {
	return []types.Reviewer{
		{ID: "risk", BaseWeight: 0.25},
		{ID: "brand", BaseWeight: 0.25},
		{ID: "trend", BaseWeight: 0.25},
	}
}

func TestDynamicWeights_NoActiveTriggers(t *testing.T) {
	t.Parallel()

	rules := []WeightAdjustmentRule{
		{Trigger: "crisis_mode", Deltas: map[string]float64{"risk": 0.3}},
	}

	weights := DynamicWeights(testRoster(), rules, nil)
	assert.Equal(t, 0.25, weights["risk"])
	assert.Equal(t, 0.25, weights["brand"])
}

func TestDynamicWeights_ActiveTriggerApplied(t *testing.T) {
	t.Parallel()

	rules := []WeightAdjustmentRule{
		{Trigger: "crisis_mode", Deltas: map[string]float64{"risk": 0.3, "trend": -0.1}},
		{Trigger: "negative_sentiment", Deltas: map[string]float64{"brand": 0.1}},
	}

	weights := DynamicWeights(testRoster(), rules, []string{"crisis_mode"})
	assert.InDelta(t, 0.55, weights["risk"], 1e-9)
	assert.InDelta(t, 0.15, weights["trend"], 1e-9)
	assert.Equal(t, 0.25, weights["brand"], "inactive trigger must not apply")
}

func TestDynamicWeights_ClampedAtZero(t *testing.T) {
	t.Parallel()

	rules := []WeightAdjustmentRule{
		{Trigger: "crisis_mode", Deltas: map[string]float64{"trend": -0.9}},
	}

	weights := DynamicWeights(testRoster(), rules, []string{"crisis_mode"})
	assert.Equal(t, 0.0, weights["trend"])
}

func TestApplyDynamicWeights(t *testing.T) {
	t.Parallel()

	reviewers := testRoster()
	applied := ApplyDynamicWeights(reviewers, map[string]float64{"risk": 0.5})

	assert.Equal(t, 0.5, applied[0].DynamicWeight)
	assert.Equal(t, 0.25, applied[1].DynamicWeight, "missing entries fall back to base weight")
	assert.Equal(t, 0.0, reviewers[0].DynamicWeight, "input roster must not be mutated")
}
