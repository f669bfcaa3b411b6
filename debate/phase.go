package debate

import (
	"fmt"

	"github.com/councilflow/councilflow/types"
)

// Phase is a debate session's position in its lifecycle. Phases only
// ever move forward; a completed phase is never re-entered.
type Phase string

const (
	PhaseIntake           Phase = "INTAKE"
	PhaseInitialReactions Phase = "INITIAL_REACTIONS"
	PhaseOpenFloor        Phase = "OPEN_FLOOR"
	PhaseArbitration      Phase = "ARBITRATION"
	PhaseDone             Phase = "DONE"
)

// phaseEdges lists the single legal successor of each phase.
var phaseEdges = map[Phase]Phase{
	PhaseIntake:           PhaseInitialReactions,
	PhaseInitialReactions: PhaseOpenFloor,
	PhaseOpenFloor:        PhaseArbitration,
	PhaseArbitration:      PhaseDone,
}

// Terminal reports whether the phase has no successor.
func (p Phase) Terminal() bool {
	_, ok := phaseEdges[p]
	return !ok
}

// next validates the transition from -> to.
func nextPhase(from, to Phase) error {
	if phaseEdges[from] != to {
		return types.NewError(types.ErrInvalidTransition,
			fmt.Sprintf("cannot transition %s -> %s", from, to))
	}
	return nil
}
