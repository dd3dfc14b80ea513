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

type Metrics struct {
	registry *prometheus.Registry

	ActiveConnections   prometheus.Gauge
	RejectedConnections prometheus.Counter
	Commands            *prometheus.CounterVec
	CommandDuration     *prometheus.HistogramVec
}

// New registers the server metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "unisocial_connections_active",
			Help: "Number of client connections being served",
		}),
		RejectedConnections: factory.NewCounter(prometheus.CounterOpts{
			Name: "unisocial_connections_rejected_total",
			Help: "Connections closed because the client limit was reached",
		}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "unisocial_commands_total",
			Help: "Commands handled by command and outcome",
		}, []string{"command", "success"}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "unisocial_command_duration_seconds",
			Help:    "Command handling latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
	}
}

func (m *Metrics) ObserveCommand(command string, success bool, duration time.Duration) {
	m.Commands.WithLabelValues(command, strconv.FormatBool(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func (m *Metrics) ConnectionOpened() {
	m.ActiveConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.ActiveConnections.Dec()
}

func (m *Metrics) ConnectionRejected() {
	m.RejectedConnections.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
