package livefs

import (
	"io"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

// Metrics counts requests and regenerations for one session. A nil
// *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	regenerations *prometheus.CounterVec
	files         prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livefs",
			Name:      "requests_total",
			Help:      "Filesystem requests answered, by operation and reply status.",
		}, []string{"op", "status"}),
		regenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livefs",
			Name:      "regenerations_total",
			Help:      "Times a file's generator was run.",
		}, []string{"file"}),
		files: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "livefs",
			Name:      "files",
			Help:      "Files registered in the root directory.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.regenerations,
		m.files,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), // Metrics about the current UNIX process.
	)
	return m
}

// Registry exposes the underlying collector registry, e.g. for callers that
// want to add their own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Requests() *prometheus.CounterVec { return m.requests }

func (m *Metrics) Regenerations() *prometheus.CounterVec { return m.regenerations }

func (m *Metrics) Files() prometheus.Gauge { return m.files }

func (m *Metrics) request(op string, errno syscall.Errno) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, statusName(errno)).Inc()
}

func (m *Metrics) regenerated(file string) {
	if m == nil {
		return
	}
	m.regenerations.WithLabelValues(file).Inc()
}

func (m *Metrics) registered() {
	if m == nil {
		return
	}
	m.files.Inc()
}

// WriteText writes every gathered metric family in the Prometheus text
// exposition format. Families are written even if some collectors failed;
// the gather error is returned afterwards.
func (m *Metrics) WriteText(w io.Writer) error {
	families, gatherErr := m.registry.Gather()
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return err
		}
	}
	return gatherErr
}
