package stars

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jmgilman/go/catalog"
)

// Metrics holds the Prometheus collectors of a BatchFetcher. A nil *Metrics
// records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	Skipped         prometheus.Counter
	Batches         prometheus.Counter
	Throttled       prometheus.Counter
	Remaining       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalogsync",
				Subsystem: "stars",
				Name:      "requests_total",
				Help:      "Total number of popularity API requests by outcome",
			},
			[]string{"outcome"},
		),
		RequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "catalogsync",
				Subsystem: "stars",
				Name:      "request_duration_seconds",
				Help:      "Popularity API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Skipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "catalogsync",
				Subsystem: "stars",
				Name:      "cached_total",
				Help:      "Total number of keys skipped because a value was already known",
			},
		),
		Batches: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "catalogsync",
				Subsystem: "stars",
				Name:      "batches_total",
				Help:      "Total number of dispatched batches",
			},
		),
		Throttled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "catalogsync",
				Subsystem: "stars",
				Name:      "throttled_runs_total",
				Help:      "Total number of fetch runs stopped by throttling",
			},
		),
		Remaining: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "catalogsync",
				Subsystem: "stars",
				Name:      "remaining_keys",
				Help:      "Keys left undispatched by the last fetch run",
			},
		),
	}
}

func (m *Metrics) observeRequest(outcome catalog.FetchOutcome, duration time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(string(outcome)).Inc()
	m.RequestDuration.Observe(duration.Seconds())
}

func (m *Metrics) observeBatch() {
	if m == nil {
		return
	}
	m.Batches.Inc()
}

func (m *Metrics) observeRun(result *catalog.BatchResult) {
	if m == nil {
		return
	}
	m.Skipped.Add(float64(result.Cached))
	m.Remaining.Set(float64(result.Remaining))
	if result.Throttled {
		m.Throttled.Inc()
	}
}
