package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVote_Ordinal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		vote Vote
		want int
	}{
		{VoteReject, 0},
		{VoteConditional, 1},
		{VoteApprove, 2},
		{VoteAbstain, -1},
		{Vote("garbage"), -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.vote.Ordinal(), "vote %q", tt.vote)
	}
}

func TestVote_Countable(t *testing.T) {
	t.Parallel()

	assert.True(t, VoteReject.Countable())
	assert.True(t, VoteApprove.Countable())
	assert.False(t, VoteAbstain.Countable())
	assert.False(t, Vote("").Countable())
}

func TestOpinion_Sanitize(t *testing.T) {
	t.Parallel()

	t.Run("valid opinion untouched", func(t *testing.T) {
		t.Parallel()

		op := &Opinion{Vote: VoteApprove, Score: Float64Ptr(90)}
		flags := op.Sanitize()
		assert.Empty(t, flags)
		assert.Equal(t, 90.0, op.ScoreValue())
	})

	t.Run("score above range clamped", func(t *testing.T) {
		t.Parallel()

		op := &Opinion{Vote: VoteApprove, Score: Float64Ptr(140)}
		flags := op.Sanitize()
		assert.Contains(t, flags, FlagScoreClamped)
		assert.Equal(t, 100.0, op.ScoreValue())
	})

	t.Run("negative score clamped", func(t *testing.T) {
		t.Parallel()

		op := &Opinion{Vote: VoteReject, Score: Float64Ptr(-5)}
		op.Sanitize()
		assert.Equal(t, 0.0, op.ScoreValue())
	})

	t.Run("unknown vote coerced to conditional", func(t *testing.T) {
		t.Parallel()

		op := &Opinion{Vote: Vote("maybe"), Score: Float64Ptr(50)}
		flags := op.Sanitize()
		assert.Contains(t, flags, FlagVoteCoerced)
		assert.Equal(t, VoteConditional, op.Vote)
	})

	t.Run("countable vote without score becomes abstain", func(t *testing.T) {
		t.Parallel()

		op := &Opinion{Vote: VoteApprove}
		op.Sanitize()
		assert.Equal(t, VoteAbstain, op.Vote)
		assert.True(t, op.Abstained())
	})
}
