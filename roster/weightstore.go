package roster

import (
	"sync"

	"go.uber.org/zap"

	"github.com/councilflow/councilflow/types"
)

// LearningConfig tunes the outcome-driven weight drift.
type LearningConfig struct {
	// Step is the bounded weight nudge per outcome.
	Step float64 `json:"step" yaml:"step"`

	// HighConfidence is the confidence above which an incorrect
	// prediction is penalized.
	HighConfidence float64 `json:"high_confidence" yaml:"high_confidence"`

	// WindowSize is the number of recent outcomes kept per reviewer for
	// the rolling success rate.
	WindowSize int `json:"window_size" yaml:"window_size"`
}

// DefaultLearningConfig returns the default drift configuration.
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		Step:           0.02,
		HighConfidence: 0.7,
		WindowSize:     20,
	}
}

// Outcome is real-world feedback on one reviewer's prediction for one
// past decision (e.g. did backlash actually occur).
type Outcome struct {
	ReviewerID string     `json:"reviewer_id"`
	Predicted  types.Vote `json:"predicted"`
	Confidence float64    `json:"confidence"`

	// Correct reports whether the real-world result vindicated the
	// reviewer's prediction.
	Correct bool `json:"correct"`
}

type weightEntry struct {
	reviewer types.Reviewer
	outcomes []bool // rolling window, newest last
}

// WeightStore holds each reviewer's base weight and performance history.
// Sessions read a snapshot once at start; RecordOutcome is the only
// mutation path and runs outside any live session.
type WeightStore struct {
	mu      sync.RWMutex
	entries map[string]*weightEntry
	config  LearningConfig
	logger  *zap.Logger
}

// NewWeightStore creates a weight store seeded with the given roster.
func NewWeightStore(reviewers []types.Reviewer, config LearningConfig, logger *zap.Logger) *WeightStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &WeightStore{
		entries: make(map[string]*weightEntry, len(reviewers)),
		config:  config,
		logger:  logger.With(zap.String("component", "weight_store")),
	}
	for _, r := range reviewers {
		s.entries[r.ID] = &weightEntry{reviewer: r}
	}
	return s
}

// Upsert adds or replaces a reviewer's stored state. The performance
// window is preserved when the reviewer already exists.
func (s *WeightStore) Upsert(r types.Reviewer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[r.ID]; ok {
		e.reviewer = r
		return
	}
	s.entries[r.ID] = &weightEntry{reviewer: r}
}

// Get returns the stored reviewer by ID.
func (s *WeightStore) Get(id string) (types.Reviewer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return types.Reviewer{}, false
	}
	return e.reviewer, true
}

// Snapshot returns copies of the requested reviewers with current base
// weights and success rates. Unknown IDs are skipped. The result is the
// session's fixed view of the weights; later drift is invisible to it.
func (s *WeightStore) Snapshot(ids []string) []types.Reviewer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Reviewer, 0, len(ids))
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		r := e.reviewer
		r.PerformanceHistory = successRate(e.outcomes)
		out = append(out, r)
	}
	return out
}

// RecordOutcome applies one outcome to the reviewer's weight and rolling
// history. A correct prediction nudges the base weight up by Step; an
// incorrect high-confidence prediction nudges it down by the same step.
// The weight is clamped to [0,1].
func (s *WeightStore) RecordOutcome(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[o.ReviewerID]
	if !ok {
		s.logger.Warn("outcome for unknown reviewer", zap.String("reviewer_id", o.ReviewerID))
		return
	}

	before := e.reviewer.BaseWeight
	switch {
	case o.Correct:
		e.reviewer.BaseWeight += s.config.Step
	case o.Confidence >= s.config.HighConfidence:
		e.reviewer.BaseWeight -= s.config.Step
	}
	if e.reviewer.BaseWeight < 0 {
		e.reviewer.BaseWeight = 0
	}
	if e.reviewer.BaseWeight > 1 {
		e.reviewer.BaseWeight = 1
	}

	e.outcomes = append(e.outcomes, o.Correct)
	if len(e.outcomes) > s.config.WindowSize {
		e.outcomes = e.outcomes[len(e.outcomes)-s.config.WindowSize:]
	}
	e.reviewer.PerformanceHistory = successRate(e.outcomes)

	s.logger.Debug("outcome recorded",
		zap.String("reviewer_id", o.ReviewerID),
		zap.Bool("correct", o.Correct),
		zap.Float64("weight_before", before),
		zap.Float64("weight_after", e.reviewer.BaseWeight),
	)
}

// SuccessRate returns the rolling success rate for a reviewer, or 0 when
// the reviewer is unknown or has no recorded outcomes.
func (s *WeightStore) SuccessRate(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return 0
	}
	return successRate(e.outcomes)
}

// AdjustmentFactor reports the coarse performance band for a reviewer:
// 1.2 for strong performers (success rate >= 0.7), 0.8 for weak ones
// (< 0.5), 1.0 otherwise or with no history. Exposed for reporting; the
// scoring engine itself uses the additive drift, not this factor.
func (s *WeightStore) AdjustmentFactor(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || len(e.outcomes) == 0 {
		return 1.0
	}
	switch rate := successRate(e.outcomes); {
	case rate >= 0.7:
		return 1.2
	case rate >= 0.5:
		return 1.0
	default:
		return 0.8
	}
}

func successRate(outcomes []bool) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	correct := 0
	for _, ok := range outcomes {
		if ok {
			correct++
		}
	}
	return float64(correct) / float64(len(outcomes))
}
