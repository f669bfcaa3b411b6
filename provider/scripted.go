package provider

import (
	"context"
	"sync"
	"time"

	"github.com/councilflow/councilflow/types"
)

// ScriptedStep is one pre-planned response for a ScriptedProvider.
type ScriptedStep struct {
	Vote       types.Vote
	Score      float64
	Reasoning  string
	Concerns   []string
	Dimensions map[string]float64

	// Err, when set, is returned instead of an opinion.
	Err error

	// Delay is slept (respecting ctx) before responding, for timeout
	// scenarios.
	Delay time.Duration
}

// ScriptedProvider replays a fixed sequence of responses, one per call.
// After the script is exhausted the last step repeats, so a reviewer
// that has settled keeps restating its position. Safe for concurrent
// use; calls are serialized.
type ScriptedProvider struct {
	mu    sync.Mutex
	steps []ScriptedStep
	calls int
}

// NewScriptedProvider creates a provider that replays the given steps.
func NewScriptedProvider(steps ...ScriptedStep) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// Calls returns how many times Evaluate has been invoked.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Evaluate implements ReasoningProvider.
func (p *ScriptedProvider) Evaluate(ctx context.Context, req *Request) (*types.Opinion, error) {
	p.mu.Lock()
	if len(p.steps) == 0 {
		p.mu.Unlock()
		return nil, types.NewError(types.ErrProviderFailure, "scripted provider has no steps")
	}
	idx := p.calls
	if idx >= len(p.steps) {
		idx = len(p.steps) - 1
	}
	step := p.steps[idx]
	p.calls++
	p.mu.Unlock()

	if step.Delay > 0 {
		select {
		case <-time.After(step.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if step.Err != nil {
		return nil, step.Err
	}

	return &types.Opinion{
		ReviewerID: req.Reviewer.ID,
		Round:      req.Round,
		Vote:       step.Vote,
		Score:      types.Float64Ptr(step.Score),
		Reasoning:  step.Reasoning,
		Concerns:   step.Concerns,
		Dimensions: step.Dimensions,
		Timestamp:  time.Now(),
	}, nil
}
