package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/councilflow/councilflow/types"
)

// RetryConfig defines retry behavior for store operations.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// InitialBackoff is the initial backoff duration (default: 100ms)
	InitialBackoff time.Duration `json:"initial_backoff" yaml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration (default: 5s)
	MaxBackoff time.Duration `json:"max_backoff" yaml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff (default: 2.0)
	BackoffMultiplier float64 `json:"backoff_multiplier" yaml:"backoff_multiplier"`
}

// DefaultRetryConfig returns the default retry configuration.
// Conservative strategy: max 3 retries with exponential backoff
// 100ms/200ms/400ms, capped at 5s. Persistence runs inside a live
// debate, so the backoff stays short relative to the session deadline.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// CalculateBackoff calculates the backoff duration for a given retry attempt.
func (c RetryConfig) CalculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.InitialBackoff
	}

	backoff := c.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * c.BackoffMultiplier)
		if backoff > c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return backoff
}

// RetrySessionStore wraps a SessionStore with bounded retries on write
// operations. Reads pass through untouched: callers that miss a read
// can recompute from the in-memory transcript, but a lost write is a
// hole in the audit trail.
type RetrySessionStore struct {
	inner  SessionStore
	config RetryConfig
	logger *zap.Logger
}

// NewRetrySessionStore wraps inner with retry behavior. A nil logger
// defaults to a no-op logger.
func NewRetrySessionStore(inner SessionStore, config RetryConfig, logger *zap.Logger) *RetrySessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrySessionStore{
		inner:  inner,
		config: config,
		logger: logger.With(zap.String("component", "retry_session_store")),
	}
}

// withRetry runs op, retrying with exponential backoff until it
// succeeds, retries are exhausted, or the context ends.
func (s *RetrySessionStore) withRetry(ctx context.Context, name string, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.config.CalculateBackoff(attempt - 1)
			s.logger.Warn("retrying store operation",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		// Input problems won't be fixed by waiting.
		if lastErr == ErrInvalidInput || lastErr == ErrStoreClosed {
			return lastErr
		}
	}
	return types.NewError(types.ErrPersistenceFailure, name+" failed after retries").WithCause(lastErr)
}

func (s *RetrySessionStore) SaveSession(ctx context.Context, rec *SessionRecord) error {
	return s.withRetry(ctx, "save_session", func() error {
		return s.inner.SaveSession(ctx, rec)
	})
}

func (s *RetrySessionStore) Session(ctx context.Context, id string) (*SessionRecord, error) {
	return s.inner.Session(ctx, id)
}

func (s *RetrySessionStore) AppendOpinion(ctx context.Context, sessionID string, op *types.Opinion) error {
	return s.withRetry(ctx, "append_opinion", func() error {
		return s.inner.AppendOpinion(ctx, sessionID, op)
	})
}

func (s *RetrySessionStore) Opinions(ctx context.Context, sessionID string) ([]types.Opinion, error) {
	return s.inner.Opinions(ctx, sessionID)
}

func (s *RetrySessionStore) SaveDecision(ctx context.Context, sessionID string, d *types.FinalDecision) error {
	return s.withRetry(ctx, "save_decision", func() error {
		return s.inner.SaveDecision(ctx, sessionID, d)
	})
}

func (s *RetrySessionStore) Decision(ctx context.Context, sessionID string) (*types.FinalDecision, error) {
	return s.inner.Decision(ctx, sessionID)
}

func (s *RetrySessionStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *RetrySessionStore) Close() error {
	return s.inner.Close()
}
