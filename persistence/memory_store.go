package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/councilflow/councilflow/types"
)

// MemorySessionStore is an in-memory SessionStore. Suitable for
// development and testing; data is lost on restart.
type MemorySessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*SessionRecord
	opinions  map[string][]types.Opinion
	decisions map[string]*types.FinalDecision
	closed    bool
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions:  make(map[string]*SessionRecord),
		opinions:  make(map[string][]types.Opinion),
		decisions: make(map[string]*types.FinalDecision),
	}
}

// SaveSession creates or updates a session header.
func (s *MemorySessionStore) SaveSession(ctx context.Context, rec *SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	cp := *rec
	cp.UpdatedAt = time.Now()
	s.sessions[rec.ID] = &cp
	return nil
}

// Session returns a stored session header.
func (s *MemorySessionStore) Session(ctx context.Context, id string) (*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// AppendOpinion appends one opinion to a session's transcript.
func (s *MemorySessionStore) AppendOpinion(ctx context.Context, sessionID string, op *types.Opinion) error {
	if sessionID == "" || op == nil {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	s.opinions[sessionID] = append(s.opinions[sessionID], *op)
	return nil
}

// Opinions returns a session's transcript in append order.
func (s *MemorySessionStore) Opinions(ctx context.Context, sessionID string) ([]types.Opinion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	ops := s.opinions[sessionID]
	out := make([]types.Opinion, len(ops))
	copy(out, ops)
	return out, nil
}

// SaveDecision stores the final decision for a session.
func (s *MemorySessionStore) SaveDecision(ctx context.Context, sessionID string, d *types.FinalDecision) error {
	if sessionID == "" || d == nil {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	cp := *d
	s.decisions[sessionID] = &cp
	return nil
}

// Decision returns the stored decision, or ErrNotFound.
func (s *MemorySessionStore) Decision(ctx context.Context, sessionID string) (*types.FinalDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	d, ok := s.decisions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// Ping checks if the store is healthy.
func (s *MemorySessionStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed.
func (s *MemorySessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
