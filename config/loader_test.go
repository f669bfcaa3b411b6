package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilflow/councilflow/types"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "councilflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoaderDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.6, cfg.Debate.QuorumFraction, 1e-9)
	assert.Equal(t, 12, cfg.Debate.MaxTurns)
	assert.Equal(t, 3*time.Minute, cfg.Debate.SessionDeadline)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoaderMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader().WithConfigPath("/nonexistent/councilflow.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Debate.MaxTurns)
}

func TestLoaderYAMLFile(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
debate:
  quorum_fraction: 0.8
  max_turns: 6
  session_deadline: 90s
reviewers:
  - id: risk
    display_name: Risk Officer
    role: risk
    base_weight: 0.3
  - id: brand
    display_name: Brand Guardian
    role: brand
    base_weight: 0.25
hard_rules:
  - id: risk-cap
    type: dimension_threshold
    dimension: risk
    threshold: 75
    priority: 0
adjustment_rules:
  - trigger: crisis_mode
    deltas:
      risk: 0.1
      brand: -0.05
active_triggers: [crisis_mode]
store:
  type: memory
`)

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.8, cfg.Debate.QuorumFraction, 1e-9)
	assert.Equal(t, 6, cfg.Debate.MaxTurns)
	assert.Equal(t, 90*time.Second, cfg.Debate.SessionDeadline)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3, cfg.Debate.CheckInterval)

	require.Len(t, cfg.Reviewers, 2)
	assert.Equal(t, "risk", cfg.Reviewers[0].ID)
	assert.InDelta(t, 0.3, cfg.Reviewers[0].BaseWeight, 1e-9)

	dbCfg, err := cfg.BuildDebateConfig()
	require.NoError(t, err)
	require.Len(t, dbCfg.HardRules, 1)
	assert.Equal(t, "risk-cap", dbCfg.HardRules[0].ID)
	require.Len(t, dbCfg.WeightAdjustmentRules, 1)
	assert.Equal(t, []string{"crisis_mode"}, dbCfg.ActiveTriggers)
}

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("COUNCILFLOW_DEBATE_MAX_TURNS", "4")
	t.Setenv("COUNCILFLOW_DEBATE_SESSION_DEADLINE", "45s")
	t.Setenv("COUNCILFLOW_STORE_REDIS_ADDR", "redis:6379")
	t.Setenv("COUNCILFLOW_ACTIVE_TRIGGERS", "crisis_mode, negative_sentiment")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Debate.MaxTurns)
	assert.Equal(t, 45*time.Second, cfg.Debate.SessionDeadline)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, []string{"crisis_mode", "negative_sentiment"}, cfg.ActiveTriggers)
}

func TestLoaderRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
debate:
  quorum_fraction: 1.5
`)
	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrConfiguration))
}

func TestLoaderCustomValidator(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			return types.NewError(types.ErrConfiguration, "roster required")
		}).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roster required")
}

func TestHardRuleSettingsBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rule    HardRuleSettings
		wantErr bool
	}{
		{"dimension rule", HardRuleSettings{ID: "r", Type: RuleDimensionThreshold, Dimension: "risk", Threshold: 75}, false},
		{"dimension rule without dimension", HardRuleSettings{ID: "r", Type: RuleDimensionThreshold}, true},
		{"metadata rule", HardRuleSettings{ID: "r", Type: RuleMetadataFlag, Key: "legal_hold"}, false},
		{"metadata rule without key", HardRuleSettings{ID: "r", Type: RuleMetadataFlag}, true},
		{"unanimous reject", HardRuleSettings{ID: "r", Type: RuleUnanimousReject}, false},
		{"unknown type", HardRuleSettings{ID: "r", Type: "oracle"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rule, err := tt.rule.Build()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "r", rule.ID)
			assert.NotNil(t, rule.Predicate)
		})
	}
}

func TestConfigValidateRoster(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Reviewers = []ReviewerSettings{
		{ID: "risk", BaseWeight: 0.3},
		{ID: "risk", BaseWeight: 0.2},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestBuildLogger(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	logger.Info("config logger works")

	cfg.Log.Level = "nope"
	_, err = cfg.BuildLogger()
	assert.Error(t, err)
}
