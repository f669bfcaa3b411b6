package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilflow/councilflow/types"
)

func newTestOpinion(reviewerID string, round int, vote types.Vote, score float64) *types.Opinion {
	return &types.Opinion{
		ID:         reviewerID + "-r" + string(rune('0'+round)),
		ReviewerID: reviewerID,
		Round:      round,
		Vote:       vote,
		Score:      types.Float64Ptr(score),
		Reasoning:  "test reasoning",
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newTestDecision(sessionID string) *types.FinalDecision {
	return &types.FinalDecision{
		SessionID:     sessionID,
		ProposalID:    "prop-1",
		Approved:      true,
		Vote:          types.VoteApprove,
		WeightedScore: 81.5,
		Confidence:    0.72,
		Attribution:   map[string]float64{"risk": 0.4, "brand": 0.6},
		DecidedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

// sessionStoreConformance runs the shared contract every SessionStore
// backend must satisfy.
func sessionStoreConformance(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("session round trip", func(t *testing.T) {
		rec := &SessionRecord{
			ID:         "sess-1",
			ProposalID: "prop-1",
			Phase:      "intake",
			StartedAt:  time.Now().UTC().Truncate(time.Millisecond),
		}
		require.NoError(t, store.SaveSession(ctx, rec))

		got, err := store.Session(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.ProposalID, got.ProposalID)
		assert.Equal(t, rec.Phase, got.Phase)
		assert.False(t, got.UpdatedAt.IsZero())

		// Updating the phase keeps the same record.
		rec.Phase = "open_floor"
		require.NoError(t, store.SaveSession(ctx, rec))
		got, err = store.Session(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "open_floor", got.Phase)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := store.Session(ctx, "no-such-session")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("opinions append in order", func(t *testing.T) {
		first := newTestOpinion("risk", 1, types.VoteReject, 40)
		second := newTestOpinion("brand", 1, types.VoteApprove, 85)
		third := newTestOpinion("risk", 2, types.VoteConditional, 55)
		require.NoError(t, store.AppendOpinion(ctx, "sess-1", first))
		require.NoError(t, store.AppendOpinion(ctx, "sess-1", second))
		require.NoError(t, store.AppendOpinion(ctx, "sess-1", third))

		ops, err := store.Opinions(ctx, "sess-1")
		require.NoError(t, err)
		require.Len(t, ops, 3)
		assert.Equal(t, "risk", ops[0].ReviewerID)
		assert.Equal(t, "brand", ops[1].ReviewerID)
		assert.Equal(t, 2, ops[2].Round)
		assert.Equal(t, types.VoteConditional, ops[2].Vote)
		require.NotNil(t, ops[0].Score)
		assert.InDelta(t, 40, *ops[0].Score, 1e-9)
	})

	t.Run("empty transcript", func(t *testing.T) {
		ops, err := store.Opinions(ctx, "sess-without-opinions")
		require.NoError(t, err)
		assert.Empty(t, ops)
	})

	t.Run("decision round trip", func(t *testing.T) {
		_, err := store.Decision(ctx, "sess-1")
		assert.ErrorIs(t, err, ErrNotFound)

		want := newTestDecision("sess-1")
		require.NoError(t, store.SaveDecision(ctx, "sess-1", want))

		got, err := store.Decision(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, want.Vote, got.Vote)
		assert.InDelta(t, want.WeightedScore, got.WeightedScore, 1e-9)
		assert.Equal(t, want.Attribution, got.Attribution)
	})

	t.Run("invalid input", func(t *testing.T) {
		assert.ErrorIs(t, store.SaveSession(ctx, nil), ErrInvalidInput)
		assert.ErrorIs(t, store.SaveSession(ctx, &SessionRecord{}), ErrInvalidInput)
		assert.ErrorIs(t, store.AppendOpinion(ctx, "", newTestOpinion("x", 1, types.VoteApprove, 90)), ErrInvalidInput)
		assert.ErrorIs(t, store.AppendOpinion(ctx, "sess-1", nil), ErrInvalidInput)
		assert.ErrorIs(t, store.SaveDecision(ctx, "sess-1", nil), ErrInvalidInput)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestMemorySessionStore(t *testing.T) {
	t.Parallel()

	store := NewMemorySessionStore()
	sessionStoreConformance(t, store)

	t.Run("closed store rejects operations", func(t *testing.T) {
		require.NoError(t, store.Close())
		err := store.SaveSession(context.Background(), &SessionRecord{ID: "after-close"})
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.ErrorIs(t, store.Ping(context.Background()), ErrStoreClosed)
	})
}

func TestMemorySessionStoreCopiesValues(t *testing.T) {
	t.Parallel()

	store := NewMemorySessionStore()
	ctx := context.Background()

	op := newTestOpinion("risk", 1, types.VoteReject, 40)
	require.NoError(t, store.AppendOpinion(ctx, "sess", op))

	// Mutating the caller's copy must not affect the stored transcript.
	op.Vote = types.VoteApprove
	ops, err := store.Opinions(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, types.VoteReject, ops[0].Vote)
}

func TestRedisSessionStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store, err := NewRedisSessionStore(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	sessionStoreConformance(t, store)
}

func TestRedisSessionStoreKeyPrefix(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store, err := NewRedisSessionStore(RedisConfig{Addr: mr.Addr(), KeyPrefix: "debate:"})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, &SessionRecord{ID: "sess-prefixed"}))
	assert.True(t, mr.Exists("debate:session:sess-prefixed"))
}

func TestRedisSessionStoreConnectFailure(t *testing.T) {
	t.Parallel()

	_, err := NewRedisSessionStore(RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNewSessionStoreFactory(t *testing.T) {
	t.Parallel()

	t.Run("memory by default", func(t *testing.T) {
		store, err := NewSessionStore(StoreConfig{})
		require.NoError(t, err)
		assert.IsType(t, &MemorySessionStore{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, err := NewSessionStore(StoreConfig{
			Type:  StoreTypeRedis,
			Redis: RedisConfig{Addr: mr.Addr()},
		})
		require.NoError(t, err)
		assert.IsType(t, &RedisSessionStore{}, store)
		require.NoError(t, store.Close())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewSessionStore(StoreConfig{Type: "etcd"})
		assert.Error(t, err)
	})
}
