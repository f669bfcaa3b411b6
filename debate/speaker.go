package debate

import (
	"math/rand"

	"github.com/councilflow/councilflow/types"
)

// SpeakerContext is the input to one speaker-selection decision.
type SpeakerContext struct {
	// Roster is the ordered reviewer list.
	Roster []types.Reviewer

	// LastSpeaker is excluded from selection unless that would leave
	// nobody eligible.
	LastSpeaker string

	// Votes maps reviewer ID to its latest vote.
	Votes map[string]types.Vote

	// TurnCounts maps reviewer ID to how many open-floor turns it has
	// taken so far.
	TurnCounts map[string]int
}

// SpeakerSelector chooses the next reviewer to speak in the open floor.
// Priority: dissenters from the plurality vote, then under-participants
// (turn count below roster average), then anyone eligible at random.
// The random fallback uses a seeded source so runs are reproducible.
type SpeakerSelector struct {
	rng *rand.Rand
}

// NewSpeakerSelector creates a selector seeded with the given value.
func NewSpeakerSelector(seed int64) *SpeakerSelector {
	return &SpeakerSelector{rng: rand.New(rand.NewSource(seed))}
}

// Next returns the ID of the next speaker. The last speaker is never
// returned while at least two reviewers are eligible; with a roster of
// two the constraint is relaxed rather than deadlocking.
func (s *SpeakerSelector) Next(sc SpeakerContext) string {
	eligible := make([]string, 0, len(sc.Roster))
	for _, r := range sc.Roster {
		if r.ID != sc.LastSpeaker {
			eligible = append(eligible, r.ID)
		}
	}
	if len(eligible) == 0 {
		// Roster of one, or last speaker is the whole roster.
		if len(sc.Roster) == 0 {
			return ""
		}
		return sc.Roster[0].ID
	}

	if dissenters := s.dissenters(eligible, sc.Votes); len(dissenters) > 0 {
		return s.pick(dissenters)
	}
	if under := s.underParticipants(eligible, sc.Roster, sc.TurnCounts); len(under) > 0 {
		return s.pick(under)
	}
	return s.pick(eligible)
}

// dissenters returns eligible reviewers whose latest countable vote
// differs from the plurality vote. Abstainers carry no position and are
// not dissenters.
func (s *SpeakerSelector) dissenters(eligible []string, votes map[string]types.Vote) []string {
	counts := make(map[types.Vote]int)
	for _, v := range votes {
		if v.Countable() {
			counts[v]++
		}
	}
	plurality := pluralityVote(counts)

	var out []string
	for _, id := range eligible {
		v, ok := votes[id]
		if ok && v.Countable() && v != plurality {
			out = append(out, id)
		}
	}
	return out
}

// underParticipants returns eligible reviewers whose turn count is
// strictly below the roster average.
func (s *SpeakerSelector) underParticipants(eligible []string, roster []types.Reviewer, turnCounts map[string]int) []string {
	if len(roster) == 0 {
		return nil
	}
	total := 0
	for _, r := range roster {
		total += turnCounts[r.ID]
	}
	avg := float64(total) / float64(len(roster))

	var out []string
	for _, id := range eligible {
		if float64(turnCounts[id]) < avg {
			out = append(out, id)
		}
	}
	return out
}

func (s *SpeakerSelector) pick(candidates []string) string {
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[s.rng.Intn(len(candidates))]
}
