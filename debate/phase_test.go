package debate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/councilflow/councilflow/types"
)

func TestPhaseTransitions(t *testing.T) {
	t.Parallel()

	legal := [][2]Phase{
		{PhaseIntake, PhaseInitialReactions},
		{PhaseInitialReactions, PhaseOpenFloor},
		{PhaseOpenFloor, PhaseArbitration},
		{PhaseArbitration, PhaseDone},
	}
	for _, edge := range legal {
		assert.NoError(t, nextPhase(edge[0], edge[1]), "%s -> %s", edge[0], edge[1])
	}

	illegal := [][2]Phase{
		{PhaseIntake, PhaseOpenFloor},        // skipping ahead
		{PhaseOpenFloor, PhaseIntake},        // going back
		{PhaseDone, PhaseIntake},             // re-entry after terminal
		{PhaseArbitration, PhaseArbitration}, // self loop
	}
	for _, edge := range illegal {
		err := nextPhase(edge[0], edge[1])
		assert.Error(t, err, "%s -> %s", edge[0], edge[1])
		assert.True(t, types.HasCode(err, types.ErrInvalidTransition))
	}
}

func TestPhaseTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, PhaseDone.Terminal())
	for _, p := range []Phase{PhaseIntake, PhaseInitialReactions, PhaseOpenFloor, PhaseArbitration} {
		assert.False(t, p.Terminal(), string(p))
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"quorum above one", func(c *Config) { c.QuorumFraction = 1.5 }},
		{"negative quorum", func(c *Config) { c.QuorumFraction = -0.1 }},
		{"zero max turns", func(c *Config) { c.MaxTurns = 0 }},
		{"zero check interval", func(c *Config) { c.CheckInterval = 0 }},
		{"threshold above one", func(c *Config) { c.ConvergenceThreshold = 1.01 }},
		{"zero deadline", func(c *Config) { c.SessionDeadline = 0 }},
		{"zero call timeout", func(c *Config) { c.CallTimeout = 0 }},
		{"thresholds out of order", func(c *Config) { c.RejectThreshold = 80 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.True(t, types.HasCode(err, types.ErrConfiguration))
		})
	}
}
