package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/councilflow/councilflow/types"
)

// RateLimited wraps a provider with a token-bucket limiter so a chatty
// debate cannot exceed the backing service's request quota. Wait blocks
// until a token is available or the call's deadline expires.
type RateLimited struct {
	inner   ReasoningProvider
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with the given requests-per-second limit
// and burst size.
func NewRateLimited(inner ReasoningProvider, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Evaluate implements ReasoningProvider.
func (p *RateLimited) Evaluate(ctx context.Context, req *Request) (*types.Opinion, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.inner.Evaluate(ctx, req)
}
