package debate

import (
	"fmt"
	"sort"

	"github.com/councilflow/councilflow/types"
)

// HardRule is a non-negotiable predicate over the opinion set and
// proposal metadata. Rules are evaluated in ascending priority order at
// arbitration; the first match forces rejection regardless of the
// weighted score.
type HardRule struct {
	ID          string
	Priority    int
	Description string

	// Predicate inspects the full transcript and the proposal. It must
	// be pure: no side effects, same inputs same answer.
	Predicate func(transcript []types.Opinion, proposal types.Proposal) bool
}

// sortRules orders rules by ascending priority, then ID for a stable
// order among equal priorities.
func sortRules(rules []HardRule) []HardRule {
	out := make([]HardRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// firstMatch returns the first matching rule in priority order, or nil.
func firstMatch(rules []HardRule, transcript []types.Opinion, proposal types.Proposal) *HardRule {
	for i := range rules {
		if rules[i].Predicate != nil && rules[i].Predicate(transcript, proposal) {
			return &rules[i]
		}
	}
	return nil
}

// NewDimensionThresholdRule builds a rule that fires when any opinion
// reports the named dimension strictly above the threshold (e.g. a
// "risk" dimension above 75).
func NewDimensionThresholdRule(id, dimension string, threshold float64, priority int) HardRule {
	return HardRule{
		ID:          id,
		Priority:    priority,
		Description: fmt.Sprintf("any %s dimension > %v forces rejection", dimension, threshold),
		Predicate: func(transcript []types.Opinion, _ types.Proposal) bool {
			for _, op := range transcript {
				if v, ok := op.Dimensions[dimension]; ok && v > threshold {
					return true
				}
			}
			return false
		},
	}
}

// NewMetadataFlagRule builds a rule that fires when the proposal's
// metadata has the given key set to true (e.g. "legal_hold").
func NewMetadataFlagRule(id, key string, priority int) HardRule {
	return HardRule{
		ID:          id,
		Priority:    priority,
		Description: fmt.Sprintf("proposal metadata %q forces rejection", key),
		Predicate: func(_ []types.Opinion, proposal types.Proposal) bool {
			v, ok := proposal.Metadata[key]
			if !ok {
				return false
			}
			b, ok := v.(bool)
			return ok && b
		},
	}
}

// NewUnanimousRejectRule builds a rule that fires when every countable
// latest vote is reject.
func NewUnanimousRejectRule(id string, priority int) HardRule {
	return HardRule{
		ID:          id,
		Priority:    priority,
		Description: "unanimous reject forces rejection",
		Predicate: func(transcript []types.Opinion, _ types.Proposal) bool {
			latest := LatestVotes(transcript)
			seen := false
			for _, v := range latest {
				if !v.Countable() {
					continue
				}
				if v != types.VoteReject {
					return false
				}
				seen = true
			}
			return seen
		},
	}
}
