// Package metrics provides Prometheus metrics for the rota scheduling
// engine. A package-level manager backs small facade functions so the
// pipeline stages never carry metric handles around.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns every metric the engine emits.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	runsStarted  prometheus.Counter
	runsFinished *prometheus.CounterVec

	proposalsScheduled prometheus.Counter
	proposalsFailed    prometheus.Counter
	proposalsSwapped   prometheus.Counter

	snapshotDuration prometheus.Histogram
	solveDuration    prometheus.Histogram
	solveIterations  prometheus.Counter

	modelVars        prometheus.Gauge
	modelConstraints prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rota",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}

	m.runsStarted = prometheus.NewCounter(factory("runs_started_total", "Scheduling runs started."))
	m.runsFinished = prometheus.NewCounterVec(factory("runs_finished_total", "Scheduling runs finished, by status."), []string{"status"})
	m.proposalsScheduled = prometheus.NewCounter(factory("proposals_scheduled_total", "Proposals with a concrete assignment."))
	m.proposalsFailed = prometheus.NewCounter(factory("proposals_failed_total", "Proposals recorded as failures."))
	m.proposalsSwapped = prometheus.NewCounter(factory("proposals_swapped_total", "Proposals displacing an existing commitment."))
	m.solveIterations = prometheus.NewCounter(factory("solve_iterations_total", "Completed solver construction passes."))

	m.snapshotDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "snapshot_build_seconds", Help: "Snapshot build duration.",
		Buckets: m.histogramBuckets,
	})
	m.solveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "solve_seconds", Help: "Solver wall-clock duration.",
		Buckets: m.histogramBuckets,
	})

	m.modelVars = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "model_variables", Help: "Variables in the last built model.",
	})
	m.modelConstraints = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "model_constraints", Help: "Hard constraints in the last built model.",
	})

	m.registry.MustRegister(
		m.runsStarted, m.runsFinished,
		m.proposalsScheduled, m.proposalsFailed, m.proposalsSwapped,
		m.snapshotDuration, m.solveDuration, m.solveIterations,
		m.modelVars, m.modelConstraints,
	)
	return m
}

// Registry exposes the manager's registry so an embedding process can
// mount it on its own metrics endpoint.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Registry returns the global manager's registry.
func Registry() *prometheus.Registry { return globalManager.Registry() }

// RecordRunStarted counts a run entering the pipeline.
func RecordRunStarted() { globalManager.runsStarted.Inc() }

// RecordRunFinished counts a run leaving the pipeline with a final status.
func RecordRunFinished(status string) { globalManager.runsFinished.WithLabelValues(status).Inc() }

// RecordProposalScheduled counts a successful proposal.
func RecordProposalScheduled() { globalManager.proposalsScheduled.Inc() }

// RecordProposalFailed counts a failed proposal.
func RecordProposalFailed() { globalManager.proposalsFailed.Inc() }

// RecordProposalSwapped counts a proposal that bumps an existing commitment.
func RecordProposalSwapped() { globalManager.proposalsSwapped.Inc() }

// RecordSnapshotDuration observes the snapshot build time.
func RecordSnapshotDuration(seconds float64) { globalManager.snapshotDuration.Observe(seconds) }

// RecordSolveDuration observes the solver wall-clock time.
func RecordSolveDuration(seconds float64) { globalManager.solveDuration.Observe(seconds) }

// RecordSolveIterations adds completed construction passes.
func RecordSolveIterations(n int64) { globalManager.solveIterations.Add(float64(n)) }

// UpdateModelSize publishes the size of the last built model.
func UpdateModelSize(vars, constraints int) {
	globalManager.modelVars.Set(float64(vars))
	globalManager.modelConstraints.Set(float64(constraints))
}
