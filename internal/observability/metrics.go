package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report agent activity.
// All methods are safe on a nil receiver.
type Metrics struct {
	runs          *prometheus.CounterVec
	retries       prometheus.Counter
	diagnostics   prometheus.Counter
	actions       *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
	modelFaults   *prometheus.CounterVec
	activeRuns    prometheus.Gauge
}

// MustNewMetrics constructs Metrics registered with reg (the default
// registerer when nil). Collectors already registered under the same name
// are reused; any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		runs: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "desktop_pilot",
			Subsystem: "agent",
			Name:      "runs_total",
			Help:      "Runs finished, by terminal state.",
		}, []string{"state"})),
		retries: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "desktop_pilot",
			Subsystem: "agent",
			Name:      "retries_total",
			Help:      "Replanning cycles triggered by a failed execution.",
		})),
		diagnostics: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "desktop_pilot",
			Subsystem: "actions",
			Name:      "parse_diagnostics_total",
			Help:      "Plan lines dropped by the action parser.",
		})),
		actions: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "desktop_pilot",
			Subsystem: "executor",
			Name:      "actions_total",
			Help:      "Actions performed, by kind.",
		}, []string{"kind"})),
		modelDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "desktop_pilot",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of model calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"status"})),
		modelFaults: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "desktop_pilot",
			Subsystem: "llm",
			Name:      "faults_total",
			Help:      "Model faults downgraded to empty results, by caller.",
		}, []string{"caller"})),
		activeRuns: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "desktop_pilot",
			Subsystem: "agent",
			Name:      "runs_active",
			Help:      "Runs currently executing.",
		})),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveRun counts a finished run by its terminal state.
func (m *Metrics) ObserveRun(state string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(state).Inc()
}

// IncRetry counts a replanning cycle.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// AddDiagnostics counts dropped plan lines.
func (m *Metrics) AddDiagnostics(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.diagnostics.Add(float64(n))
}

// IncAction counts a performed action.
func (m *Metrics) IncAction(kind string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(kind).Inc()
}

// ObserveModelCall records the duration of one model call.
func (m *Metrics) ObserveModelCall(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.modelDuration.WithLabelValues(status).Observe(d.Seconds())
}

// IncModelFault counts a model fault that a caller downgraded.
func (m *Metrics) IncModelFault(caller string) {
	if m == nil {
		return
	}
	m.modelFaults.WithLabelValues(caller).Inc()
}

// RunStarted increments the active run gauge.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

// RunFinished decrements the active run gauge.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
}
