package eventlog

import (
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector records event log throughput.
type MetricsCollector interface {
	RecordLogged(kind models.LogKind)
	RecordDropped()
	RecordSinkFailure(sink string)
}

type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordLogged(models.LogKind) {}
func (NoOpMetricsCollector) RecordDropped()              {}
func (NoOpMetricsCollector) RecordSinkFailure(string)    {}

type PrometheusMetrics struct {
	logged       *prometheus.CounterVec
	dropped      prometheus.Counter
	sinkFailures *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		logged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Subsystem: "eventlog",
			Name:      "events_total",
			Help:      "Events accepted into the log queue.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Subsystem: "eventlog",
			Name:      "dropped_total",
			Help:      "Events dropped because the queue was full or closed.",
		}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Subsystem: "eventlog",
			Name:      "sink_failures_total",
			Help:      "Batches a sink failed to write after all retries.",
		}, []string{"sink"}),
	}
	if reg != nil {
		reg.MustRegister(m.logged, m.dropped, m.sinkFailures)
	}
	return m
}

func (m *PrometheusMetrics) RecordLogged(kind models.LogKind) {
	m.logged.WithLabelValues(string(kind)).Inc()
}

func (m *PrometheusMetrics) RecordDropped() {
	m.dropped.Inc()
}

func (m *PrometheusMetrics) RecordSinkFailure(sink string) {
	m.sinkFailures.WithLabelValues(sink).Inc()
}
