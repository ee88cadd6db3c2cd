package build

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goplus/linkplan/internal/link"
	"github.com/goplus/linkplan/internal/mode"
)

// Metrics collects pipeline measurements in a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	stageDuration  *prometheus.HistogramVec
	directiveCount *prometheus.CounterVec
	buildMode      *prometheus.GaugeVec
}

// NewMetrics returns a Metrics with its collectors registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "linkplan",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   []float64{.01, .1, 1, 10, 60, 300, 900, 1800},
			},
			[]string{"stage"},
		),
		directiveCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linkplan",
				Subsystem: "link",
				Name:      "directives_total",
				Help:      "Link directives emitted, by kind",
			},
			[]string{"kind"},
		),
		buildMode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "linkplan",
				Name:      "build_mode",
				Help:      "Selected build mode (1 for the active mode)",
			},
			[]string{"mode"},
		),
	}
	m.reg.MustRegister(m.stageDuration, m.directiveCount, m.buildMode)
	return m
}

// WriteFile writes the metrics in the text exposition format to path.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

func (m *Metrics) stage(name string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setMode(bm mode.BuildMode) {
	if m == nil {
		return
	}
	for _, v := range []mode.BuildMode{mode.Embedded, mode.External} {
		val := 0.0
		if v == bm {
			val = 1
		}
		m.buildMode.WithLabelValues(v.String()).Set(val)
	}
}

func (m *Metrics) countDirectives(ds []link.Directive) {
	if m == nil {
		return
	}
	for kind, n := range link.Count(ds) {
		m.directiveCount.WithLabelValues(string(kind)).Add(float64(n))
	}
}
