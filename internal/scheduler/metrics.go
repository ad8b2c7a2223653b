package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spiffcs/ghinbox/internal/store"
)

// Pass results recorded in ghinbox_sync_passes_total.
const (
	resultOK          = "ok"
	resultNotModified = "not_modified"
	resultError       = "error"
	resultSkipped     = "skipped"
)

// Metrics are the scheduler's Prometheus collectors.
type Metrics struct {
	passes   *prometheus.CounterVec
	pages    prometheus.Counter
	threads  *prometheus.CounterVec
	duration prometheus.Histogram
	failures prometheus.Gauge
}

// NewMetrics registers the scheduler collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		passes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ghinbox_sync_passes_total", Help: "Sync passes by result",
		}, []string{"result"}),
		pages: f.NewCounter(prometheus.CounterOpts{
			Name: "ghinbox_sync_pages_total", Help: "Notification pages fetched",
		}),
		threads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ghinbox_sync_threads_total", Help: "Threads merged by outcome",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "ghinbox_sync_duration_seconds", Help: "Sync pass duration",
			Buckets: prometheus.DefBuckets,
		}),
		failures: f.NewGauge(prometheus.GaugeOpts{
			Name: "ghinbox_sync_consecutive_failures", Help: "Consecutive failed sync passes",
		}),
	}
}

func (m *Metrics) observe(res store.SyncResult, err error, failures int) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.passes.WithLabelValues(resultError).Inc()
	case res.NotModified:
		m.passes.WithLabelValues(resultNotModified).Inc()
	default:
		m.passes.WithLabelValues(resultOK).Inc()
	}
	m.pages.Add(float64(res.Pages))
	m.threads.WithLabelValues("created").Add(float64(res.Created))
	m.threads.WithLabelValues("updated").Add(float64(res.Updated))
	m.threads.WithLabelValues("stale").Add(float64(res.Stale))
	m.duration.Observe(res.Duration.Seconds())
	m.failures.Set(float64(failures))
}

func (m *Metrics) skipped() {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(resultSkipped).Inc()
}
