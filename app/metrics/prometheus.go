// Package metrics exposes Prometheus metrics for pipeline runs and the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	SkipAirline = "airline"
	SkipArrival = "arrival"
)

// Manager owns every metric of the service. Observe methods are no-ops on a
// nil Manager.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	lastSuccess      prometheus.Gauge
	pagesFetched     prometheus.Counter
	recordsFetched   prometheus.Counter
	recordsKept      prometheus.Counter
	recordsSkipped   *prometheus.CounterVec
	sinkRows         *prometheus.CounterVec
	sinkErrors       *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpRequestTimes *prometheus.HistogramVec
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "flight_comb",
		histogramBuckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "runs_total",
		Help:      "Pipeline runs by result",
	}, []string{"result"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of pipeline runs",
		Buckets:   m.histogramBuckets,
	})

	m.lastSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})

	m.pagesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "pages_fetched_total",
		Help:      "Non-empty pages received from upstream",
	})

	m.recordsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "records_fetched_total",
		Help:      "Raw flight records received from upstream",
	})

	m.recordsKept = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "records_normalized_total",
		Help:      "Records that passed normalization",
	})

	m.recordsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "records_skipped_total",
		Help:      "Records dropped by normalization, by missing field",
	}, []string{"reason"})

	m.sinkRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sink_rows_total",
		Help:      "Rows handled by each sink, by outcome",
	}, []string{"sink", "outcome"})

	m.sinkErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sink_errors_total",
		Help:      "Failed sink pushes",
	}, []string{"sink"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	m.httpRequestTimes = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) ObserveRun(success bool, duration time.Duration) {
	if m == nil {
		return
	}

	result := ResultFailure
	if success {
		result = ResultSuccess
		m.lastSuccess.SetToCurrentTime()
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(duration.Seconds())
}

func (m *Manager) ObservePage(records int) {
	if m == nil {
		return
	}

	m.pagesFetched.Inc()
	m.recordsFetched.Add(float64(records))
}

func (m *Manager) ObserveNormalized(kept, skippedAirline, skippedArrival int) {
	if m == nil {
		return
	}

	m.recordsKept.Add(float64(kept))
	m.recordsSkipped.WithLabelValues(SkipAirline).Add(float64(skippedAirline))
	m.recordsSkipped.WithLabelValues(SkipArrival).Add(float64(skippedArrival))
}

func (m *Manager) ObserveSink(sink string, written, skipped int, err error) {
	if m == nil {
		return
	}

	if err != nil {
		m.sinkErrors.WithLabelValues(sink).Inc()
		return
	}
	m.sinkRows.WithLabelValues(sink, "written").Add(float64(written))
	m.sinkRows.WithLabelValues(sink, "skipped").Add(float64(skipped))
}

func (m *Manager) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestTimes.WithLabelValues(method, route).Observe(duration.Seconds())
}
