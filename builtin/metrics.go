package builtin

import (
	"bytes"
	"fmt"

	"github.com/404wolf/livefs/livefs"
)

// Metrics renders the session's Prometheus metrics in the text format
type Metrics struct {
	metrics *livefs.Metrics
}

func NewMetrics(metrics *livefs.Metrics) *Metrics {
	return &Metrics{metrics: metrics}
}

func (m *Metrics) Generate() []byte {
	var buf bytes.Buffer
	if err := m.metrics.WriteText(&buf); err != nil {
		fmt.Fprintf(&buf, "# error gathering metrics: %v\n", err)
	}
	return buf.Bytes()
}
