package metrics

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

type fakeState struct {
	particles *particle.SystemData
	vel       *grid.FaceCenteredGrid
	sdf       *grid.ScalarGrid
	residual  float64
	iters     int
}

func (f *fakeState) ParticleSystemData() *particle.SystemData { return f.particles }
func (f *fakeState) Velocity() *grid.FaceCenteredGrid         { return f.vel }
func (f *fakeState) SignedDistanceField() *grid.ScalarGrid    { return f.sdf }
func (f *fakeState) LastPressureResidual() float64            { return f.residual }
func (f *fakeState) LastPressureIterations() int              { return f.iters }

func newFakeState() *fakeState {
	res := grid.Size3{X: 2, Y: 2, Z: 2}
	h := r3.Vec{X: 1, Y: 1, Z: 1}
	p := particle.NewSystemData(0)
	p.SetMass(2)
	return &fakeState{
		particles: p,
		vel:       grid.NewFaceCenteredGrid(res, h, r3.Vec{}),
		sdf:       grid.NewCellCenteredScalarGrid(res, h, r3.Vec{}, -1),
	}
}

func TestKineticEnergy(t *testing.T) {
	s := newFakeState()
	s.particles.AddParticle(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{})
	s.particles.AddParticle(r3.Vec{}, r3.Vec{Y: 2}, r3.Vec{})

	m := NewKineticEnergy()
	m.Observe(s, 0)

	// 0.5 * 2 * (1 + 4)
	if math.Abs(m.Value()-5) > 1e-12 {
		t.Errorf("expected 5, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	s := newFakeState()
	s.particles.AddParticle(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{})

	m := NewEnergyDrift()
	m.Observe(s, 0)
	s.particles.Velocities()[0] = r3.Vec{X: 1}
	m.Observe(s, 1)
	s.particles.Velocities()[0] = r3.Vec{X: 2}
	m.Observe(s, 2)

	if math.Abs(m.Value()-0.75) > 1e-12 {
		t.Errorf("expected drift 0.75, got %f", m.Value())
	}
}

func TestMaxDivergenceSkipsAir(t *testing.T) {
	s := newFakeState()
	// Outflow of 3 through the right face of cell (1,0,0).
	s.vel.U().Set(2, 0, 0, 3)
	s.sdf.Set(1, 0, 0, 1)

	m := NewMaxDivergence()
	m.Observe(s, 0)
	if m.Value() != 0 {
		t.Errorf("air cell counted, got %f", m.Value())
	}

	s.sdf.Set(1, 0, 0, -1)
	m.Observe(s, 0)
	if m.Value() != 3 {
		t.Errorf("expected 3, got %f", m.Value())
	}
}

func TestTake(t *testing.T) {
	s := newFakeState()
	s.residual = 1e-7
	s.iters = 12
	s.particles.AddParticle(r3.Vec{}, r3.Vec{}, r3.Vec{})

	snap := Take(4, 0.5, s, Defaults())

	tests := []struct {
		name string
		want float64
	}{
		{"particles", 1},
		{"pressure_residual", 1e-7},
		{"pressure_iterations", 12},
		{"kinetic_energy", 0},
	}
	for _, tt := range tests {
		got, ok := snap.Get(tt.name)
		if !ok {
			t.Errorf("%s missing", tt.name)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %g, got %g", tt.name, tt.want, got)
		}
	}
	if _, ok := snap.Get("nope"); ok {
		t.Error("unexpected metric")
	}
}

func TestSnapshotLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	snap := Snapshot{Frame: 3, Time: 0.05, Names: []string{"particles"}, Values: []float64{42}}
	logger.Info("frame", "stats", snap)

	out := buf.String()
	for _, want := range []string{"stats.frame=3", "stats.particles=42"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
