// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seloger"

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Discovered     prometheus.Counter
	Extractions    *prometheus.CounterVec
	Classified     *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
	CycleDuration  prometheus.Histogram
	LastCycleStart prometheus.Gauge
}

// New registers every metric on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Discovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_discovered_total",
			Help:      "Listing URLs found on search result pages.",
		}),
		Extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_extractions_total",
			Help:      "Listing detail extractions by result.",
		}, []string{"result"}), // ok, failed, skipped_known
		Classified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_classified_total",
			Help:      "Classifier verdicts by outcome.",
		}, []string{"verdict"}), // interesting, not_interesting, short_circuit, error
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications sent to the user by status.",
		}, []string{"status"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full pipeline cycle.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 2400},
		}),
		LastCycleStart: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_start_timestamp_seconds",
			Help:      "Unix time at which the last cycle started.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AddDiscovered(n int) {
	if m == nil {
		return
	}
	m.Discovered.Add(float64(n))
}

func (m *Metrics) IncExtraction(result string) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(result).Inc()
}

func (m *Metrics) IncClassified(verdict string) {
	if m == nil {
		return
	}
	m.Classified.WithLabelValues(verdict).Inc()
}

func (m *Metrics) IncNotification(status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(status).Inc()
}

func (m *Metrics) CycleStarted(at time.Time) {
	if m == nil {
		return
	}
	m.LastCycleStart.Set(float64(at.Unix()))
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(d.Seconds())
}
