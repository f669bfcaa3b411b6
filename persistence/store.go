package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/councilflow/councilflow/types"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// StoreType represents the type of storage backend.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// StoreConfig configures a session store backend.
type StoreConfig struct {
	Type  StoreType   `json:"type" yaml:"type"`
	Redis RedisConfig `json:"redis" yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// SessionRecord is the stored shape of a debate session's header; the
// transcript and decision are stored separately so opinions can be
// appended as they happen.
type SessionRecord struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	Phase      string    `json:"phase"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SessionStore persists sessions, opinions, and decisions.
type SessionStore interface {
	// SaveSession creates or updates a session header.
	SaveSession(ctx context.Context, rec *SessionRecord) error

	// Session returns a stored session header, or ErrNotFound.
	Session(ctx context.Context, id string) (*SessionRecord, error)

	// AppendOpinion appends one opinion to a session's transcript.
	AppendOpinion(ctx context.Context, sessionID string, op *types.Opinion) error

	// Opinions returns a session's transcript in append order.
	Opinions(ctx context.Context, sessionID string) ([]types.Opinion, error)

	// SaveDecision stores the final decision for a session.
	SaveDecision(ctx context.Context, sessionID string, d *types.FinalDecision) error

	// Decision returns the stored decision, or ErrNotFound.
	Decision(ctx context.Context, sessionID string) (*types.FinalDecision, error)

	// Ping checks if the store is healthy.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// WeightRepo persists reviewer base weights and performance history
// across sessions.
type WeightRepo interface {
	// LoadWeights returns the stored reviewer, or ErrNotFound.
	LoadWeights(ctx context.Context, reviewerID string) (*types.Reviewer, error)

	// SaveWeights upserts a reviewer's stored state.
	SaveWeights(ctx context.Context, r *types.Reviewer) error

	// LoadAll returns every stored reviewer.
	LoadAll(ctx context.Context) ([]types.Reviewer, error)
}

// NewSessionStore creates a SessionStore for the configured backend.
func NewSessionStore(config StoreConfig) (SessionStore, error) {
	switch config.Type {
	case StoreTypeMemory, "":
		return NewMemorySessionStore(), nil
	case StoreTypeRedis:
		return NewRedisSessionStore(config.Redis)
	default:
		return nil, errors.New("unsupported session store type: " + string(config.Type))
	}
}
