package provider

import (
	"context"

	"github.com/councilflow/councilflow/types"
)

// Request carries everything a reasoning provider may look at when
// forming an opinion: the proposal, the reviewer's own role metadata,
// and the visible portion of the transcript. The engine shows the full
// transcript to every call — everyone hears everyone.
type Request struct {
	Proposal types.Proposal `json:"proposal"`
	Reviewer types.Reviewer `json:"reviewer"`

	// Round is the round the resulting opinion will be recorded under:
	// 0 for initial reactions, the 1-based turn index in the open floor.
	Round int `json:"round"`

	// VisibleHistory is the transcript so far, oldest first.
	VisibleHistory []types.Opinion `json:"visible_history,omitempty"`
}

// ReasoningProvider computes one reviewer's opinion on a proposal.
// Implementations must honor ctx cancellation; a call that outlives the
// phase timeout is treated as failed and recorded as an abstain.
type ReasoningProvider interface {
	Evaluate(ctx context.Context, req *Request) (*types.Opinion, error)
}

// Func adapts a plain function to the ReasoningProvider interface.
type Func func(ctx context.Context, req *Request) (*types.Opinion, error)

// Evaluate implements ReasoningProvider.
func (f Func) Evaluate(ctx context.Context, req *Request) (*types.Opinion, error) {
	return f(ctx, req)
}
