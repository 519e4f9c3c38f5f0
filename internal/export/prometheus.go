package export

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/stats"
)

// PrometheusExporter serves a live run's Snapshot as Prometheus gauges on
// /metrics. The teacher only ever consumes a Prometheus server
// (pkg/monitoring/prometheus.Client queries one); this is the producer-side
// counterpart, built on the same client_golang module.
type PrometheusExporter struct {
	registry    *prometheus.Registry
	sent        prometheus.Gauge
	failed      prometheus.Gauge
	bytesSent   prometheus.Gauge
	pps         prometheus.Gauge
	mbps        prometheus.Gauge
	perProtocol *prometheus.GaugeVec
}

// NewPrometheusExporter registers every gauge on a fresh registry, isolated
// from prometheus's global DefaultRegisterer so multiple runs in one
// process (tests included) never collide.
func NewPrometheusExporter() *PrometheusExporter {
	reg := prometheus.NewRegistry()

	e := &PrometheusExporter{
		registry: reg,
		sent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packetgen_packets_sent_total",
			Help: "Packets sent so far in the current run.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packetgen_packets_failed_total",
			Help: "Packets that failed to send in the current run.",
		}),
		bytesSent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packetgen_bytes_sent_total",
			Help: "Bytes sent so far in the current run.",
		}),
		pps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packetgen_packets_per_second",
			Help: "Derived send rate over the run's elapsed time.",
		}),
		mbps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packetgen_megabits_per_second",
			Help: "Derived throughput over the run's elapsed time.",
		}),
		perProtocol: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "packetgen_packets_sent_by_protocol",
			Help: "Packets sent so far, broken down by protocol tag.",
		}, []string{"protocol"}),
	}

	reg.MustRegister(e.sent, e.failed, e.bytesSent, e.pps, e.mbps, e.perProtocol)
	return e
}

// Update pushes a fresh Snapshot into the exporter's gauges. Safe to call
// repeatedly from a polling goroutine while a run is in progress.
func (e *PrometheusExporter) Update(snap stats.Snapshot) {
	e.sent.Set(float64(snap.Sent))
	e.failed.Set(float64(snap.Failed))
	e.bytesSent.Set(float64(snap.Bytes))
	e.pps.Set(snap.PacketsPerSecond())
	e.mbps.Set(snap.Megabits())
	for i, k := range domain.AllKinds {
		e.perProtocol.WithLabelValues(k.Tag()).Set(float64(snap.PerProtocol[i]))
	}
}

// Handler returns the /metrics HTTP handler to mount on a server, built
// with the exporter's isolated registry rather than the package default.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
