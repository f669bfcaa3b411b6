package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/councilflow/councilflow/provider"
	"github.com/councilflow/councilflow/types"
)

// MockProvider is a ReasoningProvider with builder-style injection of
// fixed opinions, errors, and delays. Safe for concurrent use.
type MockProvider struct {
	mu      sync.Mutex
	vote    types.Vote
	score   float64
	err     error
	delay   time.Duration
	calls   int
	onEval  func(req *provider.Request) (*types.Opinion, error)
	history []provider.Request
}

// NewMockProvider returns a provider that always approves with score 80.
func NewMockProvider() *MockProvider {
	return &MockProvider{vote: types.VoteApprove, score: 80}
}

// WithOpinion fixes the vote and score returned on every call.
func (m *MockProvider) WithOpinion(vote types.Vote, score float64) *MockProvider {
	m.vote, m.score = vote, score
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.err = err
	return m
}

// WithDelay makes every call sleep first (or return ctx.Err() when the
// context ends sooner), for timeout tests.
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.delay = d
	return m
}

// WithEvaluateFunc overrides the response entirely.
func (m *MockProvider) WithEvaluateFunc(fn func(req *provider.Request) (*types.Opinion, error)) *MockProvider {
	m.onEval = fn
	return m
}

// Calls returns how many times Evaluate ran.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request seen so far.
func (m *MockProvider) Requests() []provider.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]provider.Request(nil), m.history...)
}

// Evaluate implements provider.ReasoningProvider.
func (m *MockProvider) Evaluate(ctx context.Context, req *provider.Request) (*types.Opinion, error) {
	m.mu.Lock()
	m.calls++
	m.history = append(m.history, *req)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.onEval != nil {
		return m.onEval(req)
	}

	return &types.Opinion{
		ReviewerID: req.Reviewer.ID,
		Round:      req.Round,
		Vote:       m.vote,
		Score:      types.Float64Ptr(m.score),
		Reasoning:  "mock opinion",
		Timestamp:  time.Now().UTC(),
	}, nil
}
