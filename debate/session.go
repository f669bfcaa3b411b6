package debate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/councilflow/councilflow/internal/metrics"
	"github.com/councilflow/councilflow/persistence"
	"github.com/councilflow/councilflow/provider"
	"github.com/councilflow/councilflow/roster"
	"github.com/councilflow/councilflow/types"
)

// Session runs one proposal through the full debate lifecycle. A
// Session is single-use: construct with NewSession, call Run once.
//
// The transcript has exactly one writer (the session goroutine running
// Run); initial-reaction workers hand their opinions back through a
// join barrier and never touch shared state.
type Session struct {
	id        string
	proposal  types.Proposal
	reviewers []types.Reviewer
	providers map[string]provider.ReasoningProvider
	config    Config

	logger    *zap.Logger
	store     persistence.SessionStore
	collector *metrics.Collector
	tracer    trace.Tracer

	phase       Phase
	weights     map[string]float64
	transcript  []types.Opinion
	turnCounts  map[string]int
	lastSpeaker string
	flagged     int

	// lastConsensus is the most recent convergence evaluation, nil when
	// the floor ended without one.
	lastConsensus *ConvergenceResult

	selector *SpeakerSelector
	scorer   *ScoringEngine
	detector *ConvergenceDetector
	audit    *traceBuilder
	decision *types.FinalDecision

	startedAt time.Time
	ran       bool
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the session logger. Nil is replaced with a no-op
// logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithStore attaches a persistence backend. Store failures are logged
// and retried by the store layer but never fail the debate; the
// in-memory transcript stays authoritative.
func WithStore(store persistence.SessionStore) Option {
	return func(s *Session) { s.store = store }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Session) { s.collector = collector }
}

// WithTracer attaches an OTel tracer; each phase runs under its own
// span.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Session) { s.tracer = tracer }
}

// NewSession validates the intake and builds a session ready to run.
// Every reviewer needs an entry in providers; the weight snapshot
// (base weight plus matching adjustment deltas) is taken here, once,
// and never changes mid-debate.
func NewSession(proposal types.Proposal, reviewers []types.Reviewer, providers map[string]provider.ReasoningProvider, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(reviewers) == 0 {
		return nil, types.NewError(types.ErrConfiguration, "roster is empty")
	}
	if proposal.ID == "" || proposal.Content == "" {
		return nil, types.NewError(types.ErrConfiguration, "proposal must have an ID and content")
	}

	seen := make(map[string]bool, len(reviewers))
	for _, r := range reviewers {
		if r.ID == "" {
			return nil, types.NewError(types.ErrConfiguration, "reviewer with empty ID")
		}
		if seen[r.ID] {
			return nil, types.NewError(types.ErrConfiguration,
				fmt.Sprintf("duplicate reviewer ID %q", r.ID))
		}
		seen[r.ID] = true
		if r.BaseWeight < 0 {
			return nil, types.NewError(types.ErrConfiguration,
				fmt.Sprintf("reviewer %q has negative base weight %v", r.ID, r.BaseWeight))
		}
		if providers[r.ID] == nil {
			return nil, types.NewError(types.ErrConfiguration,
				fmt.Sprintf("reviewer %q has no reasoning provider", r.ID))
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		id:         uuid.NewString(),
		proposal:   proposal,
		reviewers:  append([]types.Reviewer(nil), reviewers...),
		providers:  providers,
		config:     cfg,
		logger:     zap.NewNop(),
		phase:      PhaseIntake,
		turnCounts: make(map[string]int, len(reviewers)),
		selector:   NewSpeakerSelector(seed),
		scorer:     NewScoringEngine(cfg),
		detector:   NewConvergenceDetector(cfg.ConvergenceThreshold, cfg.CheckInterval),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(
		zap.String("component", "debate_session"),
		zap.String("session_id", s.id),
	)
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("councilflow")
	}

	s.weights = roster.DynamicWeights(s.reviewers, cfg.WeightAdjustmentRules, cfg.ActiveTriggers)
	for i := range s.reviewers {
		s.reviewers[i].DynamicWeight = s.weights[s.reviewers[i].ID]
	}
	s.audit = newTraceBuilder(s.id, proposal.ID)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Phase returns the session's current phase.
func (s *Session) Phase() Phase { return s.phase }

// Transcript returns a copy of the opinion history, oldest first.
func (s *Session) Transcript() []types.Opinion {
	return append([]types.Opinion(nil), s.transcript...)
}

// Decision returns the final decision, nil before arbitration.
func (s *Session) Decision() *types.FinalDecision { return s.decision }

// Trace returns the audit trace accumulated so far.
func (s *Session) Trace() *Trace { return s.audit.build() }

// Run drives the session to completion. Only insufficient quorum and
// context failure surface as errors; provider timeouts and store
// failures degrade and are recorded in the trace.
func (s *Session) Run(ctx context.Context) (*types.FinalDecision, error) {
	if s.ran {
		return nil, types.NewError(types.ErrInvalidTransition, "session already ran")
	}
	s.ran = true
	s.startedAt = time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.config.SessionDeadline)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "debate.session",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.String("proposal.id", s.proposal.ID),
			attribute.Int("roster.size", len(s.reviewers)),
		))
	defer span.End()

	s.collector.RecordDebateStarted()
	s.logger.Info("debate session starting",
		zap.String("proposal_id", s.proposal.ID),
		zap.Int("reviewers", len(s.reviewers)))

	if err := s.advance(ctx, PhaseInitialReactions); err != nil {
		return nil, err
	}
	if err := s.runPhase(ctx, PhaseInitialReactions, s.runInitialReactions); err != nil {
		s.collector.RecordDebateFailed(string(types.GetErrorCode(err)))
		return nil, err
	}

	if err := s.advance(ctx, PhaseOpenFloor); err != nil {
		return nil, err
	}
	if err := s.runPhase(ctx, PhaseOpenFloor, s.runOpenFloor); err != nil {
		return nil, err
	}

	if err := s.advance(ctx, PhaseArbitration); err != nil {
		return nil, err
	}
	if err := s.runPhase(ctx, PhaseArbitration, s.arbitrate); err != nil {
		return nil, err
	}

	if err := s.advance(ctx, PhaseDone); err != nil {
		return nil, err
	}

	s.collector.RecordDebateCompleted(string(s.decision.Vote), s.decision.Overridden())
	s.logger.Info("debate session done",
		zap.String("vote", string(s.decision.Vote)),
		zap.Float64("weighted_score", s.decision.WeightedScore),
		zap.Float64("confidence", s.decision.Confidence),
		zap.String("overridden_by", s.decision.OverriddenBy))
	return s.decision, nil
}

// advance moves the session to the next phase, validating the edge.
func (s *Session) advance(ctx context.Context, to Phase) error {
	if err := nextPhase(s.phase, to); err != nil {
		return err
	}
	s.phase = to
	s.audit.phaseChange(to)
	s.logger.Debug("phase change", zap.String("phase", string(to)))
	s.persistHeader(ctx)
	return nil
}

// runPhase wraps a phase body with its span and duration metric.
func (s *Session) runPhase(ctx context.Context, phase Phase, body func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "debate.phase."+string(phase))
	defer span.End()

	start := time.Now()
	err := body(ctx)
	s.collector.RecordPhaseDuration(string(phase), time.Since(start))
	return err
}

// runInitialReactions fans out one provider call per reviewer, joins,
// records the results in roster order, and enforces quorum.
func (s *Session) runInitialReactions(ctx context.Context) error {
	results := make([]*types.Opinion, len(s.reviewers))
	g, gctx := errgroup.WithContext(ctx)
	for i, rev := range s.reviewers {
		g.Go(func() error {
			results[i] = s.callProvider(gctx, rev, 0)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures become abstains

	responding := 0
	for _, op := range results {
		s.record(ctx, op, 0)
		if !op.Abstained() {
			responding++
		}
	}

	fraction := float64(responding) / float64(len(s.reviewers))
	if fraction < s.config.QuorumFraction {
		msg := fmt.Sprintf("quorum not met: %d/%d responded (need %.0f%%)",
			responding, len(s.reviewers), s.config.QuorumFraction*100)
		s.audit.note(PhaseInitialReactions, msg)
		s.logger.Warn("insufficient quorum",
			zap.Int("responding", responding),
			zap.Int("roster", len(s.reviewers)))
		return types.NewError(types.ErrInsufficientQuorum, msg)
	}
	return nil
}

// runOpenFloor runs sequential debate turns until convergence, max
// turns, or the session deadline.
func (s *Session) runOpenFloor(ctx context.Context) error {
	for turn := 1; turn <= s.config.MaxTurns; turn++ {
		if ctx.Err() != nil || time.Since(s.startedAt) >= s.config.SessionDeadline {
			s.audit.note(PhaseOpenFloor, "session deadline reached, moving to arbitration")
			s.logger.Warn("session deadline reached", zap.Int("turn", turn))
			return nil
		}

		speakerID := s.selector.Next(SpeakerContext{
			Roster:      s.reviewers,
			LastSpeaker: s.lastSpeaker,
			Votes:       LatestVotes(s.transcript),
			TurnCounts:  s.turnCounts,
		})
		rev, ok := s.reviewerByID(speakerID)
		if !ok {
			// Selector only returns roster IDs; this is unreachable.
			return types.NewError(types.ErrConfiguration,
				fmt.Sprintf("selected speaker %q not on roster", speakerID))
		}

		op := s.callProvider(ctx, rev, turn)
		s.record(ctx, op, turn)
		s.turnCounts[speakerID]++
		s.lastSpeaker = speakerID

		if s.detector.ShouldCheck(turn) {
			res := s.detector.Evaluate(LatestVotes(s.transcript), turn)
			s.lastConsensus = &res
			s.audit.convergence(res)
			s.logger.Debug("convergence check",
				zap.Int("turn", turn),
				zap.Float64("level", res.ConsensusLevel),
				zap.Bool("converged", res.Converged))
			if res.Converged {
				s.collector.RecordConvergence(turn)
				return nil
			}
		}
	}
	return nil
}

// arbitrate scores the transcript into the final decision.
func (s *Session) arbitrate(ctx context.Context) error {
	decision := s.scorer.Decide(ScoreInput{
		SessionID:       s.id,
		Proposal:        s.proposal,
		Transcript:      s.transcript,
		Weights:         s.weights,
		Consensus:       s.lastConsensus,
		FlaggedOpinions: s.flagged,
	})
	decision.DecidedAt = time.Now().UTC()

	if decision.Overridden() {
		s.audit.hardRule(decision.OverriddenBy)
		s.collector.RecordHardRule(decision.OverriddenBy)
	}
	s.audit.decision(decision)
	s.decision = decision

	if s.store != nil {
		// Persistence must survive the session deadline expiring.
		if err := s.store.SaveDecision(context.WithoutCancel(ctx), s.id, decision); err != nil {
			s.logger.Warn("failed to persist decision", zap.Error(err))
		}
	}
	return nil
}

// callProvider runs one reviewer's provider under the per-call timeout.
// Any failure degrades to an abstain opinion; the debate goes on
// without that voice.
func (s *Session) callProvider(ctx context.Context, rev types.Reviewer, round int) *types.Opinion {
	cctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	op, err := s.providers[rev.ID].Evaluate(cctx, &provider.Request{
		Proposal:       s.proposal,
		Reviewer:       rev,
		Round:          round,
		VisibleHistory: s.Transcript(),
	})
	if err != nil || op == nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
			err = types.NewError(types.ErrReviewerTimeout, "reviewer "+rev.ID+" exceeded call timeout").WithCause(err)
		}
		s.collector.RecordAbstain(reason)
		s.logger.Warn("provider call failed, recording abstain",
			zap.String("reviewer", rev.ID),
			zap.Int("round", round),
			zap.String("reason", reason),
			zap.Error(err))
		return &types.Opinion{
			ID:         uuid.NewString(),
			ReviewerID: rev.ID,
			Round:      round,
			Vote:       types.VoteAbstain,
			Reasoning:  "no response (" + reason + ")",
			Timestamp:  time.Now().UTC(),
		}
	}

	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	op.ReviewerID = rev.ID
	op.Round = round
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now().UTC()
	}
	return op
}

// record sanitizes and appends one opinion to the transcript: the only
// write path.
func (s *Session) record(ctx context.Context, op *types.Opinion, turn int) {
	prev, hadPrev := LatestVotes(s.transcript)[op.ReviewerID]

	if flags := op.Sanitize(); len(flags) > 0 {
		s.flagged++
		s.collector.RecordFlagged()
		s.logger.Warn("malformed opinion repaired",
			zap.String("reviewer", op.ReviewerID),
			zap.Strings("flags", flags))
	}

	shift := PositionShift("")
	if hadPrev {
		shift = ClassifyShift(prev, op.Vote)
	}

	s.transcript = append(s.transcript, *op)
	s.audit.opinion(s.phase, turn, op, shift)
	if !op.Abstained() {
		s.collector.RecordOpinion(string(op.Vote))
	}

	if s.store != nil {
		if err := s.store.AppendOpinion(context.WithoutCancel(ctx), s.id, op); err != nil {
			s.logger.Warn("failed to persist opinion",
				zap.String("reviewer", op.ReviewerID), zap.Error(err))
		}
	}
}

func (s *Session) persistHeader(ctx context.Context) {
	if s.store == nil {
		return
	}
	rec := &persistence.SessionRecord{
		ID:         s.id,
		ProposalID: s.proposal.ID,
		Phase:      string(s.phase),
		StartedAt:  s.startedAt,
	}
	if err := s.store.SaveSession(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("failed to persist session header", zap.Error(err))
	}
}

func (s *Session) reviewerByID(id string) (types.Reviewer, bool) {
	for _, r := range s.reviewers {
		if r.ID == id {
			return r, true
		}
	}
	return types.Reviewer{}, false
}

// StartDebate is the one-shot entry point: it builds a session, runs it
// to completion, and returns the decision plus the full transcript.
// The transcript is returned even when the session fails on quorum so
// callers can inspect who went silent.
func StartDebate(ctx context.Context, proposal types.Proposal, reviewers []types.Reviewer, providers map[string]provider.ReasoningProvider, cfg Config, opts ...Option) (*types.FinalDecision, []types.Opinion, error) {
	session, err := NewSession(proposal, reviewers, providers, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	decision, err := session.Run(ctx)
	if err != nil {
		return nil, session.Transcript(), err
	}
	return decision, session.Transcript(), nil
}
