package roster

import "github.com/councilflow/councilflow/types"

// WeightAdjustmentRule shifts reviewer weights when a named context
// condition is active (e.g. "crisis_mode", "negative_sentiment").
// Deltas are applied additively to the base weight and clamped at zero;
// no renormalization happens here — the scoring engine normalizes at
// evaluation time.
type WeightAdjustmentRule struct {
	Trigger string             `json:"trigger" yaml:"trigger"`
	Deltas  map[string]float64 `json:"deltas" yaml:"deltas"`
}

// DynamicWeights computes the per-session weight for each reviewer:
// max(0, base_weight + sum of deltas from rules whose trigger is in
// activeTriggers). The input slice is not modified.
func DynamicWeights(reviewers []types.Reviewer, rules []WeightAdjustmentRule, activeTriggers []string) map[string]float64 {
	active := make(map[string]bool, len(activeTriggers))
	for _, t := range activeTriggers {
		active[t] = true
	}

	weights := make(map[string]float64, len(reviewers))
	for _, r := range reviewers {
		w := r.BaseWeight
		for _, rule := range rules {
			if !active[rule.Trigger] {
				continue
			}
			if d, ok := rule.Deltas[r.ID]; ok {
				w += d
			}
		}
		if w < 0 {
			w = 0
		}
		weights[r.ID] = w
	}
	return weights
}

// ApplyDynamicWeights returns a copy of the roster with DynamicWeight
// populated from the given weight map.
func ApplyDynamicWeights(reviewers []types.Reviewer, weights map[string]float64) []types.Reviewer {
	out := make([]types.Reviewer, len(reviewers))
	copy(out, reviewers)
	for i := range out {
		if w, ok := weights[out[i].ID]; ok {
			out[i].DynamicWeight = w
		} else {
			out[i].DynamicWeight = out[i].BaseWeight
		}
	}
	return out
}
