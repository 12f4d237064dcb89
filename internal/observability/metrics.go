// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Market data metrics
	BarsFetched   prometheus.Counter
	FetchRequests *prometheus.CounterVec
	BarsCached    prometheus.Counter

	// Simulation metrics
	SimulationsRun     prometheus.Counter
	SimulationDuration prometheus.Histogram

	// Sweep metrics
	SweepsCompleted  *prometheus.CounterVec
	SweepDuration    prometheus.Histogram
	BestExcessReturn prometheus.Gauge

	// Storage metrics
	StorageOps *prometheus.CounterVec

	// Report metrics
	ReportsGenerated prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gridlab"
	}

	return &Metrics{
		// Market data metrics
		BarsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "bars_fetched_total",
			Help:      "Total number of price bars fetched from a source",
		}),
		FetchRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetch_requests_total",
			Help:      "Total number of bar fetch requests by outcome",
		}, []string{"outcome"}),
		BarsCached: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "bars_cached_total",
			Help:      "Total number of price bars written to the local cache",
		}),

		// Simulation metrics
		SimulationsRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of grid simulations completed",
		}),
		SimulationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Single simulation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Sweep metrics
		SweepsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total number of parameter sweeps by status",
		}, []string{"status"}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Full parameter sweep duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		BestExcessReturn: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "best_excess_return",
			Help:      "Excess return of the best pair found by the last sweep",
		}),

		// Storage metrics
		StorageOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of storage operations by store, operation and outcome",
		}, []string{"store", "operation", "outcome"}),

		// Report metrics
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of report artifact sets generated",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFetch records one bar fetch request and the bars it returned.
func RecordFetch(outcome string, bars int) {
	DefaultMetrics.FetchRequests.WithLabelValues(outcome).Inc()
	if bars > 0 {
		DefaultMetrics.BarsFetched.Add(float64(bars))
	}
}

// RecordBarsCached adds to the cached bars counter.
func RecordBarsCached(bars int) {
	DefaultMetrics.BarsCached.Add(float64(bars))
}

// RecordSimulation records one completed simulation and its duration.
func RecordSimulation(seconds float64) {
	DefaultMetrics.SimulationsRun.Inc()
	DefaultMetrics.SimulationDuration.Observe(seconds)
}

// AddSimulations adds to the simulations counter without duration detail,
// for sweeps that only track aggregate counts.
func AddSimulations(n int) {
	DefaultMetrics.SimulationsRun.Add(float64(n))
}

// RecordSweep records a completed sweep with its status and duration.
func RecordSweep(status string, durationSeconds float64) {
	DefaultMetrics.SweepsCompleted.WithLabelValues(status).Inc()
	DefaultMetrics.SweepDuration.Observe(durationSeconds)
}

// SetBestExcessReturn updates the best excess return gauge.
func SetBestExcessReturn(v float64) {
	DefaultMetrics.BestExcessReturn.Set(v)
}

// RecordStorageOp records one storage operation outcome.
func RecordStorageOp(store, operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DefaultMetrics.StorageOps.WithLabelValues(store, operation, outcome).Inc()
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}
