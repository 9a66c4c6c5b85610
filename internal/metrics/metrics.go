// Package metrics reduces solver state to scalar diagnostics once per frame.
package metrics

import (
	"log/slog"

	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/particle"
)

// State is the part of a particle-grid solver the metrics read.
type State interface {
	ParticleSystemData() *particle.SystemData
	Velocity() *grid.FaceCenteredGrid
	SignedDistanceField() *grid.ScalarGrid
	LastPressureResidual() float64
	LastPressureIterations() int
}

type Metric interface {
	Name() string
	Observe(s State, t float64)
	Value() float64
	Reset()
}

// Defaults returns one of each metric.
func Defaults() []Metric {
	return []Metric{
		NewParticleCount(),
		NewKineticEnergy(),
		NewEnergyDrift(),
		NewMaxDivergence(),
		NewPressureResidual(),
		NewPressureIterations(),
	}
}

// Snapshot is the value of every metric at the end of one frame.
type Snapshot struct {
	Frame  int
	Time   float64
	Names  []string
	Values []float64
}

// Take observes s with every metric and records the results.
func Take(frame int, t float64, s State, ms []Metric) Snapshot {
	snap := Snapshot{
		Frame:  frame,
		Time:   t,
		Names:  make([]string, len(ms)),
		Values: make([]float64, len(ms)),
	}
	for i, m := range ms {
		m.Observe(s, t)
		snap.Names[i] = m.Name()
		snap.Values[i] = m.Value()
	}
	return snap
}

// Get returns the value recorded for name.
func (s Snapshot) Get(name string) (float64, bool) {
	for i, n := range s.Names {
		if n == name {
			return s.Values[i], true
		}
	}
	return 0, false
}

func (s Snapshot) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(s.Names)+2)
	attrs = append(attrs, slog.Int("frame", s.Frame), slog.Float64("time", s.Time))
	for i, n := range s.Names {
		attrs = append(attrs, slog.Float64(n, s.Values[i]))
	}
	return slog.GroupValue(attrs...)
}
