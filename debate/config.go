package debate

import (
	"fmt"
	"time"

	"github.com/councilflow/councilflow/roster"
	"github.com/councilflow/councilflow/types"
)

// Config tunes one debate session. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// QuorumFraction is the minimum fraction of reviewers that must
	// respond in the initial phase for the session to proceed.
	QuorumFraction float64 `json:"quorum_fraction" yaml:"quorum_fraction"`

	// MaxTurns bounds the open floor.
	MaxTurns int `json:"max_turns" yaml:"max_turns"`

	// CheckInterval is how often (in turns) convergence is evaluated,
	// starting from the first interval boundary. Never before turn 3.
	CheckInterval int `json:"check_interval" yaml:"check_interval"`

	// ConvergenceThreshold is the consensus level that stops the floor.
	ConvergenceThreshold float64 `json:"convergence_threshold" yaml:"convergence_threshold"`

	// SessionDeadline bounds the whole session; checked before each
	// open-floor turn.
	SessionDeadline time.Duration `json:"session_deadline" yaml:"session_deadline"`

	// CallTimeout bounds a single reasoning-provider call.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// ApproveThreshold / RejectThreshold split the weighted score into
	// approve / conditional / reject bands.
	ApproveThreshold float64 `json:"approve_threshold" yaml:"approve_threshold"`
	RejectThreshold  float64 `json:"reject_threshold" yaml:"reject_threshold"`

	// HardRules are evaluated in priority order at arbitration; the
	// first match forces rejection.
	HardRules []HardRule `json:"-" yaml:"-"`

	// WeightAdjustmentRules shift reviewer weights when their trigger is
	// in ActiveTriggers.
	WeightAdjustmentRules []roster.WeightAdjustmentRule `json:"weight_adjustment_rules,omitempty" yaml:"weight_adjustment_rules,omitempty"`
	ActiveTriggers        []string                      `json:"active_triggers,omitempty" yaml:"active_triggers,omitempty"`

	// Seed seeds the speaker selector's random fallback. Zero means
	// seeded from the clock; set explicitly for reproducible runs.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		QuorumFraction:       0.6,
		MaxTurns:             12,
		CheckInterval:        3,
		ConvergenceThreshold: 0.75,
		SessionDeadline:      3 * time.Minute,
		CallTimeout:          20 * time.Second,
		ApproveThreshold:     75,
		RejectThreshold:      40,
	}
}

// Validate checks option ranges. Violations are configuration errors,
// fatal at session start.
func (c Config) Validate() error {
	if c.QuorumFraction < 0 || c.QuorumFraction > 1 {
		return types.NewError(types.ErrConfiguration,
			fmt.Sprintf("quorum_fraction %v outside [0,1]", c.QuorumFraction))
	}
	if c.MaxTurns <= 0 {
		return types.NewError(types.ErrConfiguration, "max_turns must be positive")
	}
	if c.CheckInterval <= 0 {
		return types.NewError(types.ErrConfiguration, "check_interval must be positive")
	}
	if c.ConvergenceThreshold <= 0 || c.ConvergenceThreshold > 1 {
		return types.NewError(types.ErrConfiguration,
			fmt.Sprintf("convergence_threshold %v outside (0,1]", c.ConvergenceThreshold))
	}
	if c.SessionDeadline <= 0 {
		return types.NewError(types.ErrConfiguration, "session_deadline must be positive")
	}
	if c.CallTimeout <= 0 {
		return types.NewError(types.ErrConfiguration, "call_timeout must be positive")
	}
	if c.RejectThreshold < 0 || c.ApproveThreshold > 100 || c.RejectThreshold >= c.ApproveThreshold {
		return types.NewError(types.ErrConfiguration,
			fmt.Sprintf("thresholds reject=%v approve=%v out of order", c.RejectThreshold, c.ApproveThreshold))
	}
	return nil
}
