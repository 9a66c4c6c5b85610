package metrics

import (
	"math"

	"github.com/san-kum/flipsim/internal/levelset"
)

// MaxDivergence is the largest absolute velocity divergence over cells
// inside the liquid.
type MaxDivergence struct {
	name  string
	value float64
}

func NewMaxDivergence() *MaxDivergence {
	return &MaxDivergence{name: "max_divergence"}
}

func (m *MaxDivergence) Name() string { return m.name }

func (m *MaxDivergence) Observe(s State, t float64) {
	vel := s.Velocity()
	sdf := s.SignedDistanceField()
	res := vel.Resolution()
	m.value = 0
	for k := 0; k < res.Z; k++ {
		for j := 0; j < res.Y; j++ {
			for i := 0; i < res.X; i++ {
				if sdf != nil && !levelset.IsInsideSDF(sdf.At(i, j, k)) {
					continue
				}
				m.value = math.Max(m.value, math.Abs(vel.DivergenceAtCellCenter(i, j, k)))
			}
		}
	}
}

func (m *MaxDivergence) Value() float64 { return m.value }

func (m *MaxDivergence) Reset() { m.value = 0 }

type PressureResidual struct {
	name  string
	value float64
}

func NewPressureResidual() *PressureResidual {
	return &PressureResidual{name: "pressure_residual"}
}

func (p *PressureResidual) Name() string               { return p.name }
func (p *PressureResidual) Observe(s State, t float64) { p.value = s.LastPressureResidual() }
func (p *PressureResidual) Value() float64             { return p.value }
func (p *PressureResidual) Reset()                     { p.value = 0 }

type PressureIterations struct {
	name  string
	value int
}

func NewPressureIterations() *PressureIterations {
	return &PressureIterations{name: "pressure_iterations"}
}

func (p *PressureIterations) Name() string               { return p.name }
func (p *PressureIterations) Observe(s State, t float64) { p.value = s.LastPressureIterations() }
func (p *PressureIterations) Value() float64             { return float64(p.value) }
func (p *PressureIterations) Reset()                     { p.value = 0 }

type ParticleCount struct {
	name  string
	value int
}

func NewParticleCount() *ParticleCount {
	return &ParticleCount{name: "particles"}
}

func (p *ParticleCount) Name() string { return p.name }

func (p *ParticleCount) Observe(s State, t float64) {
	p.value = s.ParticleSystemData().NumberOfParticles()
}

func (p *ParticleCount) Value() float64 { return float64(p.value) }
func (p *ParticleCount) Reset()         { p.value = 0 }
