package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/councilflow/councilflow/debate"
	"github.com/councilflow/councilflow/persistence"
	"github.com/councilflow/councilflow/roster"
	"github.com/councilflow/councilflow/types"
)

// Config is the complete councilflow configuration.
type Config struct {
	// Debate tunes the session state machine.
	Debate DebateSettings `yaml:"debate" env:"DEBATE"`

	// Reviewers is the council roster.
	Reviewers []ReviewerSettings `yaml:"reviewers" env:"-"`

	// HardRules are declarative override rules compiled at build time.
	HardRules []HardRuleSettings `yaml:"hard_rules" env:"-"`

	// AdjustmentRules shift reviewer weights under named triggers.
	AdjustmentRules []AdjustmentRuleSettings `yaml:"adjustment_rules" env:"-"`

	// ActiveTriggers names the conditions currently in effect.
	ActiveTriggers []string `yaml:"active_triggers" env:"ACTIVE_TRIGGERS"`

	// Learning tunes the out-of-band weight drift.
	Learning LearningSettings `yaml:"learning" env:"LEARNING"`

	// Store selects the persistence backend.
	Store StoreSettings `yaml:"store" env:"STORE"`

	// Log configures structured logging.
	Log LogSettings `yaml:"log" env:"LOG"`
}

// DebateSettings mirrors debate.Config in declarative form.
type DebateSettings struct {
	QuorumFraction       float64       `yaml:"quorum_fraction" env:"QUORUM_FRACTION"`
	MaxTurns             int           `yaml:"max_turns" env:"MAX_TURNS"`
	CheckInterval        int           `yaml:"check_interval" env:"CHECK_INTERVAL"`
	ConvergenceThreshold float64       `yaml:"convergence_threshold" env:"CONVERGENCE_THRESHOLD"`
	SessionDeadline      time.Duration `yaml:"session_deadline" env:"SESSION_DEADLINE"`
	CallTimeout          time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT"`
	ApproveThreshold     float64       `yaml:"approve_threshold" env:"APPROVE_THRESHOLD"`
	RejectThreshold      float64       `yaml:"reject_threshold" env:"REJECT_THRESHOLD"`
	Seed                 int64         `yaml:"seed" env:"SEED"`
}

// ReviewerSettings declares one council member.
type ReviewerSettings struct {
	ID          string  `yaml:"id"`
	DisplayName string  `yaml:"display_name"`
	Role        string  `yaml:"role"`
	BaseWeight  float64 `yaml:"base_weight"`
}

// Hard rule kinds understood by the declarative config.
const (
	RuleDimensionThreshold = "dimension_threshold"
	RuleMetadataFlag       = "metadata_flag"
	RuleUnanimousReject    = "unanimous_reject"
)

// HardRuleSettings declares one hard override rule.
type HardRuleSettings struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Priority int    `yaml:"priority"`

	// Dimension/Threshold apply to dimension_threshold rules.
	Dimension string  `yaml:"dimension,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`

	// Key applies to metadata_flag rules.
	Key string `yaml:"key,omitempty"`
}

// AdjustmentRuleSettings declares one weight-adjustment rule.
type AdjustmentRuleSettings struct {
	Trigger string             `yaml:"trigger"`
	Deltas  map[string]float64 `yaml:"deltas"`
}

// LearningSettings mirrors roster.LearningConfig.
type LearningSettings struct {
	Step           float64 `yaml:"step" env:"STEP"`
	HighConfidence float64 `yaml:"high_confidence" env:"HIGH_CONFIDENCE"`
	WindowSize     int     `yaml:"window_size" env:"WINDOW_SIZE"`
}

// StoreSettings selects and configures the persistence backend.
type StoreSettings struct {
	// Type is "memory" or "redis".
	Type string `yaml:"type" env:"TYPE"`

	Redis RedisSettings `yaml:"redis" env:"REDIS"`

	// WeightsPath is the SQLite file for the weight repository; empty
	// disables durable weights.
	WeightsPath string `yaml:"weights_path" env:"WEIGHTS_PATH"`
}

// RedisSettings holds Redis connection settings.
type RedisSettings struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	Password  string `yaml:"password" env:"PASSWORD"`
	DB        int    `yaml:"db" env:"DB"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// LogSettings configures zap.
type LogSettings struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" env:"LEVEL"`

	// Format is console or json.
	Format string `yaml:"format" env:"FORMAT"`
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	d := debate.DefaultConfig()
	l := roster.DefaultLearningConfig()
	return &Config{
		Debate: DebateSettings{
			QuorumFraction:       d.QuorumFraction,
			MaxTurns:             d.MaxTurns,
			CheckInterval:        d.CheckInterval,
			ConvergenceThreshold: d.ConvergenceThreshold,
			SessionDeadline:      d.SessionDeadline,
			CallTimeout:          d.CallTimeout,
			ApproveThreshold:     d.ApproveThreshold,
			RejectThreshold:      d.RejectThreshold,
		},
		Learning: LearningSettings{
			Step:           l.Step,
			HighConfidence: l.HighConfidence,
			WindowSize:     l.WindowSize,
		},
		Store: StoreSettings{Type: string(persistence.StoreTypeMemory)},
		Log:   LogSettings{Level: "info", Format: "console"},
	}
}

// BuildDebateConfig compiles the declarative settings into an engine
// config, including hard rules and adjustment rules.
func (c *Config) BuildDebateConfig() (debate.Config, error) {
	cfg := debate.Config{
		QuorumFraction:       c.Debate.QuorumFraction,
		MaxTurns:             c.Debate.MaxTurns,
		CheckInterval:        c.Debate.CheckInterval,
		ConvergenceThreshold: c.Debate.ConvergenceThreshold,
		SessionDeadline:      c.Debate.SessionDeadline,
		CallTimeout:          c.Debate.CallTimeout,
		ApproveThreshold:     c.Debate.ApproveThreshold,
		RejectThreshold:      c.Debate.RejectThreshold,
		ActiveTriggers:       c.ActiveTriggers,
		Seed:                 c.Debate.Seed,
	}

	for _, hr := range c.HardRules {
		rule, err := hr.Build()
		if err != nil {
			return debate.Config{}, err
		}
		cfg.HardRules = append(cfg.HardRules, rule)
	}
	for _, ar := range c.AdjustmentRules {
		cfg.WeightAdjustmentRules = append(cfg.WeightAdjustmentRules, roster.WeightAdjustmentRule{
			Trigger: ar.Trigger,
			Deltas:  ar.Deltas,
		})
	}

	if err := cfg.Validate(); err != nil {
		return debate.Config{}, err
	}
	return cfg, nil
}

// Build compiles one declarative rule into an engine HardRule.
func (r HardRuleSettings) Build() (debate.HardRule, error) {
	switch r.Type {
	case RuleDimensionThreshold:
		if r.Dimension == "" {
			return debate.HardRule{}, types.NewError(types.ErrConfiguration,
				fmt.Sprintf("hard rule %q: dimension_threshold needs a dimension", r.ID))
		}
		return debate.NewDimensionThresholdRule(r.ID, r.Dimension, r.Threshold, r.Priority), nil
	case RuleMetadataFlag:
		if r.Key == "" {
			return debate.HardRule{}, types.NewError(types.ErrConfiguration,
				fmt.Sprintf("hard rule %q: metadata_flag needs a key", r.ID))
		}
		return debate.NewMetadataFlagRule(r.ID, r.Key, r.Priority), nil
	case RuleUnanimousReject:
		return debate.NewUnanimousRejectRule(r.ID, r.Priority), nil
	default:
		return debate.HardRule{}, types.NewError(types.ErrConfiguration,
			fmt.Sprintf("hard rule %q: unknown type %q", r.ID, r.Type))
	}
}

// BuildRoster converts the reviewer settings into engine reviewers.
func (c *Config) BuildRoster() []types.Reviewer {
	out := make([]types.Reviewer, 0, len(c.Reviewers))
	for _, r := range c.Reviewers {
		out = append(out, types.Reviewer{
			ID:          r.ID,
			DisplayName: r.DisplayName,
			Role:        r.Role,
			BaseWeight:  r.BaseWeight,
		})
	}
	return out
}

// BuildStoreConfig converts the store settings for the persistence
// factory.
func (c *Config) BuildStoreConfig() persistence.StoreConfig {
	return persistence.StoreConfig{
		Type: persistence.StoreType(c.Store.Type),
		Redis: persistence.RedisConfig{
			Addr:      c.Store.Redis.Addr,
			Password:  c.Store.Redis.Password,
			DB:        c.Store.Redis.DB,
			KeyPrefix: c.Store.Redis.KeyPrefix,
		},
	}
}

// BuildLearningConfig converts the learning settings.
func (c *Config) BuildLearningConfig() roster.LearningConfig {
	return roster.LearningConfig{
		Step:           c.Learning.Step,
		HighConfidence: c.Learning.HighConfidence,
		WindowSize:     c.Learning.WindowSize,
	}
}

// BuildLogger constructs a zap logger from the log settings.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, types.NewError(types.ErrConfiguration,
			fmt.Sprintf("unknown log level %q", c.Log.Level)).WithCause(err)
	}

	var zcfg zap.Config
	switch c.Log.Format {
	case "json":
		zcfg = zap.NewProductionConfig()
	case "console", "":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return nil, types.NewError(types.ErrConfiguration,
			fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// Validate checks the whole configuration, including reviewer weights
// and declarative rules.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Reviewers))
	for _, r := range c.Reviewers {
		if r.ID == "" {
			return types.NewError(types.ErrConfiguration, "reviewer with empty ID")
		}
		if seen[r.ID] {
			return types.NewError(types.ErrConfiguration,
				fmt.Sprintf("duplicate reviewer ID %q", r.ID))
		}
		seen[r.ID] = true
		if r.BaseWeight < 0 {
			return types.NewError(types.ErrConfiguration,
				fmt.Sprintf("reviewer %q has negative base weight", r.ID))
		}
	}

	if _, err := c.BuildDebateConfig(); err != nil {
		return err
	}

	switch persistence.StoreType(c.Store.Type) {
	case persistence.StoreTypeMemory, persistence.StoreTypeRedis, "":
	default:
		return types.NewError(types.ErrConfiguration,
			fmt.Sprintf("unknown store type %q", c.Store.Type))
	}
	return nil
}
