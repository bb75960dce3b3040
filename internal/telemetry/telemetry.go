package telemetry

import (
	"net/http"
	"time"

	"codeberg.org/mutker/vupdated/internal/sensor"
	"codeberg.org/mutker/vupdated/internal/vu"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus instruments on a private registry.
// It also observes every dial manager.
type Metrics struct {
	registry       *prometheus.Registry
	pushes         *prometheus.CounterVec
	value          *prometheus.GaugeVec
	lastPush       *prometheus.GaugeVec
	retries        *prometheus.CounterVec
	sensorFailures *prometheus.CounterVec
	paused         *prometheus.GaugeVec
	reloads        prometheus.Counter
	managers       prometheus.Gauge
}

var _ Collector = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dial_pushes_total",
				Help:      "Total number of values pushed to a dial",
			},
			[]string{"dial", "metric"},
		),
		value: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dial_value_percent",
				Help:      "Last value pushed to a dial",
			},
			[]string{"dial", "metric"},
		),
		lastPush: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dial_last_push_timestamp_seconds",
				Help:      "Unix time of the last successful push to a dial",
			},
			[]string{"dial"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "request_retries_total",
				Help:      "Total number of VU-Server requests retried after a failure",
			},
			[]string{"dial", "op"},
		),
		sensorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sensor_failures_total",
				Help:      "Total number of failed metric reads",
			},
			[]string{"dial", "metric"},
		),
		paused: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dial_paused",
				Help:      "Whether updates to a dial are paused (1) or running (0)",
			},
			[]string{"dial"},
		),
		reloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reloads",
			},
		),
		managers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dial_managers",
				Help:      "Number of running dial managers",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pushes,
		m.value,
		m.lastPush,
		m.retries,
		m.sensorFailures,
		m.paused,
		m.reloads,
		m.managers,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Reloaded() {
	m.reloads.Inc()
}

func (m *Metrics) SetManagers(n int) {
	m.managers.Set(float64(n))
}

func (m *Metrics) ValuePushed(name string, metric sensor.Metric, value vu.Percent, at time.Time) {
	m.pushes.WithLabelValues(name, metric.String()).Inc()
	m.value.WithLabelValues(name, metric.String()).Set(float64(value.Value()))
	m.lastPush.WithLabelValues(name).Set(float64(at.UnixMilli()) / 1000)
}

func (m *Metrics) SensorFailed(name string, metric sensor.Metric, _ error) {
	m.sensorFailures.WithLabelValues(name, metric.String()).Inc()
}

func (m *Metrics) Retried(name, op string, _ error) {
	m.retries.WithLabelValues(name, op).Inc()
}

func (m *Metrics) Paused(name string, paused bool) {
	v := 0.0
	if paused {
		v = 1
	}
	m.paused.WithLabelValues(name).Set(v)
}
