package metrics

import (
	"fmt"

	"github.com/san-kum/rdasim/internal/sim"
)

// Metric accumulates a scalar over the snapshots of a run.
type Metric interface {
	Name() string
	Observe(s sim.Snapshot)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every stored run.
func Defaults(binWidth float64) []Metric {
	return []Metric{
		NewContrast(),
		NewWavelength(binWidth),
		NewBounded(0, 1, 1e-6),
	}
}

// ByName returns a fresh default metric.
func ByName(name string, binWidth float64) (Metric, error) {
	for _, m := range Defaults(binWidth) {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown metric: %s", name)
}

// Observer feeds every snapshot to a set of metrics. Its Observe method
// matches sim.SnapshotFunc so it can be chained in front of other callbacks.
type Observer struct {
	metrics []Metric
	next    sim.SnapshotFunc
}

func NewObserver(next sim.SnapshotFunc, ms ...Metric) *Observer {
	return &Observer{metrics: ms, next: next}
}

func (o *Observer) Observe(s sim.Snapshot) error {
	for _, m := range o.metrics {
		m.Observe(s)
	}
	if o.next != nil {
		return o.next(s)
	}
	return nil
}

// Values returns the current metric values keyed by name.
func (o *Observer) Values() map[string]float64 {
	out := make(map[string]float64, len(o.metrics))
	for _, m := range o.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
