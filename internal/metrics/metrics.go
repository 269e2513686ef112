// Package metrics exposes Prometheus metrics for reconciliation passes and
// the observed sink topology.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the audionode Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	passes         *prometheus.CounterVec
	retries        prometheus.Counter
	endpointCount  prometheus.Gauge
	combinedActive prometheus.Gauge
	passDuration   prometheus.Histogram
	volumeAdjusts  prometheus.Counter
}

// New creates the metrics registry and registers all collectors, including
// the standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "audionode",
			Name:      "reconcile_passes_total",
			Help:      "Reconciliation passes by outcome (combined, single, empty, stale, error).",
		}, []string{"outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audionode",
			Name:      "reconcile_enumeration_retries_total",
			Help:      "Enumeration retries performed because the sink list was empty.",
		}),
		endpointCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "audionode",
			Name:      "endpoints",
			Help:      "Real output endpoints seen by the last reconciliation pass.",
		}),
		combinedActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "audionode",
			Name:      "combined_sink_active",
			Help:      "Whether a combined sink currently exists (1) or not (0).",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "audionode",
			Name:      "reconcile_pass_duration_seconds",
			Help:      "Duration of reconciliation passes.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}),
		volumeAdjusts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audionode",
			Name:      "usb_volume_adjustments_total",
			Help:      "Mixer controls set by the USB volume adjuster.",
		}),
	}

	reg.MustRegister(
		m.passes,
		m.retries,
		m.endpointCount,
		m.combinedActive,
		m.passDuration,
		m.volumeAdjusts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePass records one completed or failed pass.
func (m *Metrics) ObservePass(outcome string, d time.Duration) {
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(d.Seconds())
}

// IncRetries counts one empty-enumeration retry.
func (m *Metrics) IncRetries() { m.retries.Inc() }

// SetEndpointCount records how many real endpoints the last pass saw.
func (m *Metrics) SetEndpointCount(n int) { m.endpointCount.Set(float64(n)) }

// SetCombinedActive records whether a combined sink exists.
func (m *Metrics) SetCombinedActive(active bool) {
	if active {
		m.combinedActive.Set(1)
	} else {
		m.combinedActive.Set(0)
	}
}

// IncVolumeAdjustments counts one mixer control set by the volume adjuster.
func (m *Metrics) IncVolumeAdjustments() { m.volumeAdjusts.Inc() }

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
