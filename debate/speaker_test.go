package debate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilflow/councilflow/types"
)

func speakerRoster(ids ...string) []types.Reviewer {
	out := make([]types.Reviewer, len(ids))
	for i, id := range ids {
		out[i] = types.Reviewer{ID: id, BaseWeight: 0.25}
	}
	return out
}

func TestSpeakerSelectorNeverRepeatsLastSpeaker(t *testing.T) {
	t.Parallel()

	sel := NewSpeakerSelector(1)
	sc := SpeakerContext{
		Roster:     speakerRoster("a", "b", "c", "d"),
		Votes:      map[string]types.Vote{},
		TurnCounts: map[string]int{},
	}

	for i := 0; i < 200; i++ {
		next := sel.Next(sc)
		require.NotEmpty(t, next)
		assert.NotEqual(t, sc.LastSpeaker, next)
		sc.TurnCounts[next]++
		sc.LastSpeaker = next
	}
}

func TestSpeakerSelectorRosterOfTwoAlternates(t *testing.T) {
	t.Parallel()

	sel := NewSpeakerSelector(1)
	sc := SpeakerContext{
		Roster:     speakerRoster("a", "b"),
		Votes:      map[string]types.Vote{},
		TurnCounts: map[string]int{},
	}

	prev := ""
	for i := 0; i < 20; i++ {
		next := sel.Next(sc)
		if prev != "" {
			assert.NotEqual(t, prev, next)
		}
		sc.TurnCounts[next]++
		sc.LastSpeaker = next
		prev = next
	}
}

func TestSpeakerSelectorRosterOfOneRelaxes(t *testing.T) {
	t.Parallel()

	sel := NewSpeakerSelector(1)
	sc := SpeakerContext{
		Roster:      speakerRoster("solo"),
		LastSpeaker: "solo",
		Votes:       map[string]types.Vote{},
		TurnCounts:  map[string]int{},
	}
	// With nobody else eligible the constraint relaxes instead of
	// deadlocking.
	assert.Equal(t, "solo", sel.Next(sc))
}

func TestSpeakerSelectorPrefersDissenters(t *testing.T) {
	t.Parallel()

	sel := NewSpeakerSelector(1)
	sc := SpeakerContext{
		Roster: speakerRoster("a", "b", "c", "d"),
		Votes: map[string]types.Vote{
			"a": types.VoteApprove,
			"b": types.VoteApprove,
			"c": types.VoteApprove,
			"d": types.VoteReject,
		},
		TurnCounts: map[string]int{},
	}

	// d is the lone dissenter and must always be chosen.
	for i := 0; i < 20; i++ {
		assert.Equal(t, "d", sel.Next(sc))
	}
}

func TestSpeakerSelectorAbstainersAreNotDissenters(t *testing.T) {
	t.Parallel()

	sel := NewSpeakerSelector(1)
	sc := SpeakerContext{
		Roster: speakerRoster("a", "b", "c"),
		Votes: map[string]types.Vote{
			"a": types.VoteApprove,
			"b": types.VoteApprove,
			"c": types.VoteAbstain,
		},
		// a and b already spoke; c has no countable position so it
		// surfaces through under-participation, not dissent.
		TurnCounts: map[string]int{"a": 2, "b": 2},
	}

	assert.Equal(t, "c", sel.Next(sc))
}

func TestSpeakerSelectorPrefersUnderParticipants(t *testing.T) {
	t.Parallel()

	sel := NewSpeakerSelector(1)
	sc := SpeakerContext{
		Roster: speakerRoster("a", "b", "c"),
		Votes: map[string]types.Vote{
			"a": types.VoteApprove,
			"b": types.VoteApprove,
			"c": types.VoteApprove,
		},
		TurnCounts:  map[string]int{"a": 3, "b": 3, "c": 0},
		LastSpeaker: "a",
	}

	// No dissent; c's turn count sits below the average of 2.
	assert.Equal(t, "c", sel.Next(sc))
}

func TestSpeakerSelectorSeededReproducible(t *testing.T) {
	t.Parallel()

	pickSequence := func(seed int64) []string {
		sel := NewSpeakerSelector(seed)
		sc := SpeakerContext{
			Roster:     speakerRoster("a", "b", "c", "d", "e"),
			Votes:      map[string]types.Vote{},
			TurnCounts: map[string]int{},
		}
		var seq []string
		for i := 0; i < 30; i++ {
			next := sel.Next(sc)
			seq = append(seq, next)
			sc.TurnCounts[next]++
			sc.LastSpeaker = next
		}
		return seq
	}

	assert.Equal(t, pickSequence(99), pickSequence(99))
}
