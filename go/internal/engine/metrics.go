package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector records render loop activity.
type MetricsCollector interface {
	RecordFrame(duration time.Duration)
	RecordPresentError()
	RecordOverrun()
	RecordWarning()
}

// NoOpMetricsCollector is used when metrics aren't needed.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordFrame(time.Duration) {}
func (NoOpMetricsCollector) RecordPresentError()       {}
func (NoOpMetricsCollector) RecordOverrun()            {}
func (NoOpMetricsCollector) RecordWarning()            {}

// PrometheusMetrics implements MetricsCollector with client_golang collectors.
type PrometheusMetrics struct {
	framesRendered prometheus.Counter
	presentErrors  prometheus.Counter
	renderDuration prometheus.Histogram
	overruns       prometheus.Counter
	warnings       prometheus.Counter
}

// NewPrometheusMetrics creates the loop collectors and registers them on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		framesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Name:      "frames_rendered_total",
			Help:      "Frames composed by the render loop.",
		}),
		presentErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Name:      "frame_present_errors_total",
			Help:      "Frames the panel driver failed to present.",
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scoreboard",
			Name:      "render_duration_seconds",
			Help:      "Time spent composing and presenting one frame.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Name:      "tick_overruns_total",
			Help:      "Frames that took longer than the frame period.",
		}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Name:      "two_minute_warnings_total",
			Help:      "Two-minute warnings raised.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.framesRendered, m.presentErrors, m.renderDuration, m.overruns, m.warnings)
	}
	return m
}

func (m *PrometheusMetrics) RecordFrame(duration time.Duration) {
	m.framesRendered.Inc()
	m.renderDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordPresentError() {
	m.presentErrors.Inc()
}

func (m *PrometheusMetrics) RecordOverrun() {
	m.overruns.Inc()
}

func (m *PrometheusMetrics) RecordWarning() {
	m.warnings.Inc()
}
