package solver

import (
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// FLIPSolver adds the grid velocity change of a sub-step to the particle
// velocities instead of overwriting them, which keeps small-scale motion
// that PIC averages away. PICBlendingFactor mixes some PIC back in.
type FLIPSolver struct {
	*PICSolver

	picBlending float64
	// snapshot is the grid velocity right after the particle transfer.
	snapshot *grid.FaceCenteredGrid
}

// NewFLIPSolver builds a FLIP solver blending cfg.PICBlending of PIC.
func NewFLIPSolver(cfg Config) (*FLIPSolver, error) {
	pic, err := NewPICSolver(cfg)
	if err != nil {
		return nil, err
	}
	s := &FLIPSolver{PICSolver: pic}
	s.SetPICBlendingFactor(cfg.PICBlending)
	s.transfer = s
	return s, nil
}

func (s *FLIPSolver) PICBlendingFactor() float64 { return s.picBlending }

// SetPICBlendingFactor clamps f to [0, 1]. Zero is pure FLIP and one is
// pure PIC.
func (s *FLIPSolver) SetPICBlendingFactor(f float64) {
	s.picBlending = dynamo.Clamp(f, 0, 1)
}

func (s *FLIPSolver) transferFromParticlesToGrids() {
	s.PICSolver.transferFromParticlesToGrids()
	vel := s.grids.Velocity()
	if s.snapshot == nil || !s.snapshot.HasSameShape(vel) {
		s.snapshot = vel.Clone()
		return
	}
	s.snapshot.Set(vel)
}

func (s *FLIPSolver) transferFromGridsToParticles() {
	vel := s.grids.Velocity()
	if s.snapshot == nil {
		s.PICSolver.transferFromGridsToParticles()
		return
	}

	// The snapshot becomes the sub-step's velocity change.
	subtract := func(cur, prev *grid.Array3) {
		c, p := cur.Data(), prev.Data()
		s.ctx.ParallelFor(len(p), 1024, func(start, end int) {
			for i := start; i < end; i++ {
				p[i] = c[i] - p[i]
			}
		})
	}
	subtract(vel.U(), s.snapshot.U())
	subtract(vel.V(), s.snapshot.V())
	subtract(vel.W(), s.snapshot.W())
	delta := s.snapshot

	positions := s.particles.Positions()
	velocities := s.particles.Velocities()
	blend := s.picBlending
	s.ctx.ParallelForEach(len(positions), func(i int) {
		p := positions[i]
		flip := r3.Add(velocities[i], delta.Sample(p))
		if blend > 0 {
			pic := vel.Sample(p)
			flip = r3.Add(r3.Scale(1-blend, flip), r3.Scale(blend, pic))
		}
		velocities[i] = flip
	})
}
