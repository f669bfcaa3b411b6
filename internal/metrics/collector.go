package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector holds the engine's Prometheus metrics.
type Collector struct {
	// Session metrics
	debatesStarted   prometheus.Counter
	debatesCompleted *prometheus.CounterVec
	debatesFailed    *prometheus.CounterVec
	phaseDuration    *prometheus.HistogramVec
	convergenceTurn  prometheus.Histogram

	// Opinion metrics
	opinionsTotal  *prometheus.CounterVec
	abstainsTotal  *prometheus.CounterVec
	flaggedTotal   prometheus.Counter
	hardRuleFlares *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers the engine metrics on the given registerer. A
// nil registerer uses the default one; a nil logger is replaced with a
// no-op logger. Tests pass a fresh prometheus.NewRegistry so parallel
// tests never collide on metric names.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.debatesStarted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "debates_started_total",
		Help:      "Total number of debate sessions started",
	})

	c.debatesCompleted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debates_completed_total",
			Help:      "Total number of debate sessions that reached a decision",
		},
		[]string{"vote", "overridden"},
	)

	c.debatesFailed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debates_failed_total",
			Help:      "Total number of debate sessions that failed before a decision",
		},
		[]string{"code"},
	)

	c.phaseDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each debate phase in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	c.convergenceTurn = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "convergence_turn",
		Help:      "Open-floor turn at which debates converged",
		Buckets:   []float64{3, 6, 9, 12, 15, 20},
	})

	c.opinionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opinions_total",
			Help:      "Total opinions recorded, by vote",
		},
		[]string{"vote"},
	)

	c.abstainsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstains_total",
			Help:      "Total abstains recorded, by reason",
		},
		[]string{"reason"},
	)

	c.flaggedTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flagged_opinions_total",
		Help:      "Total opinions that needed structural repair",
	})

	c.hardRuleFlares = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hard_rule_firings_total",
			Help:      "Total hard override rule firings, by rule ID",
		},
		[]string{"rule"},
	)

	return c
}

// RecordDebateStarted increments the started counter.
func (c *Collector) RecordDebateStarted() {
	if c == nil {
		return
	}
	c.debatesStarted.Inc()
}

// RecordDebateCompleted records a finished debate and its outcome.
func (c *Collector) RecordDebateCompleted(vote string, overridden bool) {
	if c == nil {
		return
	}
	label := "false"
	if overridden {
		label = "true"
	}
	c.debatesCompleted.WithLabelValues(vote, label).Inc()
}

// RecordDebateFailed records a session that ended without a decision.
func (c *Collector) RecordDebateFailed(code string) {
	if c == nil {
		return
	}
	c.debatesFailed.WithLabelValues(code).Inc()
}

// RecordPhaseDuration records how long a phase ran.
func (c *Collector) RecordPhaseDuration(phase string, d time.Duration) {
	if c == nil {
		return
	}
	c.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordConvergence records the turn at which a debate converged.
func (c *Collector) RecordConvergence(turn int) {
	if c == nil {
		return
	}
	c.convergenceTurn.Observe(float64(turn))
}

// RecordOpinion counts one recorded opinion by vote.
func (c *Collector) RecordOpinion(vote string) {
	if c == nil {
		return
	}
	c.opinionsTotal.WithLabelValues(vote).Inc()
}

// RecordAbstain counts an abstain by reason ("timeout", "error").
func (c *Collector) RecordAbstain(reason string) {
	if c == nil {
		return
	}
	c.abstainsTotal.WithLabelValues(reason).Inc()
}

// RecordFlagged counts an opinion that needed structural repair.
func (c *Collector) RecordFlagged() {
	if c == nil {
		return
	}
	c.flaggedTotal.Inc()
}

// RecordHardRule counts a hard rule firing.
func (c *Collector) RecordHardRule(ruleID string) {
	if c == nil {
		return
	}
	c.hardRuleFlares.WithLabelValues(ruleID).Inc()
}
