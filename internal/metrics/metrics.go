package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	signalsGenerated *prometheus.CounterVec
	tradesTotal      *prometheus.CounterVec
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	analysesTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	jobsActive       *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invert50_signals_generated_total",
			Help: "Total number of signals generated",
		},
		[]string{"strategy", "direction"},
	)
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invert50_trades_total",
			Help: "Total number of simulated trades by outcome",
		},
		[]string{"outcome"},
	)
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invert50_backtests_total",
			Help: "Total number of backtests",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "invert50_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
	r.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invert50_analyses_total",
			Help: "Total number of LLM analyses",
		},
		[]string{"provider", "status"},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "invert50_analysis_duration_seconds",
			Help:    "LLM analysis duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120},
		},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "invert50_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.analysesTotal)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordSignals adds count generated signals.
func (r *Registry) RecordSignals(strategy, direction string, count int) {
	if count <= 0 {
		return
	}
	r.signalsGenerated.WithLabelValues(strategy, direction).Add(float64(count))
}

// RecordTrades adds count trades with the given outcome.
func (r *Registry) RecordTrades(outcome string, count int) {
	if count <= 0 {
		return
	}
	r.tradesTotal.WithLabelValues(outcome).Add(float64(count))
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordAnalysis records an LLM analysis call.
func (r *Registry) RecordAnalysis(provider, status string, duration float64) {
	r.analysesTotal.WithLabelValues(provider, status).Inc()
	r.analysisDuration.Observe(duration)
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
