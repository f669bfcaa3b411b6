package debate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/councilflow/councilflow/types"
)

// TraceEventKind names one kind of audit event.
type TraceEventKind string

const (
	TracePhaseChange      TraceEventKind = "phase_change"
	TraceOpinion          TraceEventKind = "opinion"
	TraceConvergenceCheck TraceEventKind = "convergence_check"
	TraceHardRule         TraceEventKind = "hard_rule"
	TraceDecision         TraceEventKind = "decision"
	TraceNote             TraceEventKind = "note"
)

// TraceEvent is one entry in the audit trace. Events carry no wall
// clock: ordering is by sequence number, so the same transcript always
// renders the same trace.
type TraceEvent struct {
	Seq  int            `json:"seq"`
	Kind TraceEventKind `json:"kind"`

	Phase Phase `json:"phase,omitempty"`
	Turn  int   `json:"turn,omitempty"`

	// Opinion fields.
	ReviewerID string        `json:"reviewer_id,omitempty"`
	Vote       types.Vote    `json:"vote,omitempty"`
	Score      *float64      `json:"score,omitempty"`
	Shift      PositionShift `json:"shift,omitempty"`
	Flags      []string      `json:"flags,omitempty"`

	Consensus *ConvergenceResult   `json:"consensus,omitempty"`
	RuleID    string               `json:"rule_id,omitempty"`
	Decision  *types.FinalDecision `json:"decision,omitempty"`
	Note      string               `json:"note,omitempty"`
}

// Trace is the ordered audit record of one debate session.
type Trace struct {
	SessionID  string       `json:"session_id"`
	ProposalID string       `json:"proposal_id"`
	Events     []TraceEvent `json:"events"`
}

// traceBuilder accumulates events; the session is its only writer.
type traceBuilder struct {
	trace Trace
}

func newTraceBuilder(sessionID, proposalID string) *traceBuilder {
	return &traceBuilder{trace: Trace{SessionID: sessionID, ProposalID: proposalID}}
}

func (b *traceBuilder) append(ev TraceEvent) {
	ev.Seq = len(b.trace.Events)
	b.trace.Events = append(b.trace.Events, ev)
}

func (b *traceBuilder) phaseChange(to Phase) {
	b.append(TraceEvent{Kind: TracePhaseChange, Phase: to})
}

func (b *traceBuilder) opinion(phase Phase, turn int, op *types.Opinion, shift PositionShift) {
	b.append(TraceEvent{
		Kind:       TraceOpinion,
		Phase:      phase,
		Turn:       turn,
		ReviewerID: op.ReviewerID,
		Vote:       op.Vote,
		Score:      op.Score,
		Shift:      shift,
		Flags:      op.Flags,
	})
}

func (b *traceBuilder) convergence(res ConvergenceResult) {
	cp := res
	b.append(TraceEvent{Kind: TraceConvergenceCheck, Phase: PhaseOpenFloor, Turn: res.Turn, Consensus: &cp})
}

func (b *traceBuilder) hardRule(ruleID string) {
	b.append(TraceEvent{Kind: TraceHardRule, Phase: PhaseArbitration, RuleID: ruleID})
}

func (b *traceBuilder) decision(d *types.FinalDecision) {
	cp := *d
	b.append(TraceEvent{Kind: TraceDecision, Phase: PhaseArbitration, Decision: &cp})
}

func (b *traceBuilder) note(phase Phase, note string) {
	b.append(TraceEvent{Kind: TraceNote, Phase: phase, Note: note})
}

func (b *traceBuilder) build() *Trace {
	cp := b.trace
	cp.Events = append([]TraceEvent(nil), b.trace.Events...)
	return &cp
}

// JSON renders the trace as indented JSON.
func (t *Trace) JSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Text renders the trace as a human-readable transcript, one event per
// line.
func (t *Trace) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "session %s proposal %s\n", t.SessionID, t.ProposalID)
	for _, ev := range t.Events {
		switch ev.Kind {
		case TracePhaseChange:
			fmt.Fprintf(&sb, "[%03d] phase -> %s\n", ev.Seq, ev.Phase)
		case TraceOpinion:
			score := "-"
			if ev.Score != nil {
				score = fmt.Sprintf("%.0f", *ev.Score)
			}
			fmt.Fprintf(&sb, "[%03d] turn %d: %s voted %s (score %s)", ev.Seq, ev.Turn, ev.ReviewerID, ev.Vote, score)
			if ev.Shift != "" && ev.Shift != ShiftIndeterminate {
				fmt.Fprintf(&sb, " [%s]", ev.Shift)
			}
			if len(ev.Flags) > 0 {
				fmt.Fprintf(&sb, " flags=%s", strings.Join(ev.Flags, ","))
			}
			sb.WriteByte('\n')
		case TraceConvergenceCheck:
			c := ev.Consensus
			fmt.Fprintf(&sb, "[%03d] convergence check at turn %d: level %.2f plurality %s converged=%t\n",
				ev.Seq, c.Turn, c.ConsensusLevel, c.PluralityVote, c.Converged)
		case TraceHardRule:
			fmt.Fprintf(&sb, "[%03d] hard rule fired: %s\n", ev.Seq, ev.RuleID)
		case TraceDecision:
			d := ev.Decision
			fmt.Fprintf(&sb, "[%03d] decision: %s (approved=%t score %.1f confidence %.2f)\n",
				ev.Seq, d.Vote, d.Approved, d.WeightedScore, d.Confidence)
		case TraceNote:
			fmt.Fprintf(&sb, "[%03d] %s: %s\n", ev.Seq, ev.Phase, ev.Note)
		}
	}
	return sb.String()
}
