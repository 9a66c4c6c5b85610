package solver

import (
	"math"

	"github.com/san-kum/flipsim/internal/boundary"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/emitter"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/integrators"
	"github.com/san-kum/flipsim/internal/levelset"
	"github.com/san-kum/flipsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

// gridTransfer moves velocity between the particles and the MAC grid.
type gridTransfer interface {
	transferFromParticlesToGrids()
	transferFromGridsToParticles()
}

// PICSolver carries the fluid on particles and solves forces and pressure
// on the grid. Each sub-step splats particle velocities to the grid,
// projects, and reads the grid velocity back onto the particles.
type PICSolver struct {
	*GridFluidSolver

	particles *particle.SystemData
	emitter   emitter.Emitter
	tracer    integrators.Tracer
	transfer  gridTransfer

	sdfID int
	// valid marks faces that received particle weight.
	uValid, vValid, wValid []bool
}

// NewPICSolver builds a PIC solver with no particles.
func NewPICSolver(cfg Config) (*PICSolver, error) {
	base, err := NewGridFluidSolver(cfg)
	if err != nil {
		return nil, err
	}
	tracer, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	s := &PICSolver{
		GridFluidSolver: base,
		particles:       particle.NewSystemData(0),
		tracer:          tracer,
	}
	s.sdfID = base.grids.AddScalarData(grid.CellCentered, math.MaxFloat64)
	s.hooks = s
	s.transfer = s
	return s, nil
}

func (s *PICSolver) ParticleSystemData() *particle.SystemData { return s.particles }
func (s *PICSolver) Emitter() emitter.Emitter                 { return s.emitter }

// SetEmitter attaches e and points it at the particle system.
func (s *PICSolver) SetEmitter(e emitter.Emitter) {
	s.emitter = e
	if e != nil {
		e.SetTarget(s.particles)
	}
}

// SetTracer replaces the integrator that moves particles.
func (s *PICSolver) SetTracer(t integrators.Tracer) { s.tracer = t }

// SignedDistanceField is the liquid level set rebuilt from the particles
// at the start of every sub-step.
func (s *PICSolver) SignedDistanceField() *grid.ScalarGrid {
	sdf, _ := s.grids.ScalarDataAt(s.sdfID)
	return sdf
}

func (s *PICSolver) fluidSDF() grid.ScalarField {
	return s.SignedDistanceField()
}

func (s *PICSolver) onInitialize() error {
	if err := s.GridFluidSolver.onInitialize(); err != nil {
		return err
	}
	return s.updateEmitter(0)
}

func (s *PICSolver) onBeginAdvanceTimeStep(dt float64) error {
	if err := s.updateEmitter(dt); err != nil {
		return err
	}
	s.transfer.transferFromParticlesToGrids()
	if err := s.buildSignedDistanceField(); err != nil {
		return err
	}
	if err := s.extrapolateVelocityToAir(); err != nil {
		return err
	}
	s.applyBoundaryCondition()
	return nil
}

func (s *PICSolver) computeAdvection(dt float64) error {
	if err := s.extrapolateVelocityToAir(); err != nil {
		return err
	}
	s.applyBoundaryCondition()
	s.transfer.transferFromGridsToParticles()
	s.moveParticles(dt)
	return nil
}

func (s *PICSolver) updateEmitter(dt float64) error {
	if s.emitter == nil {
		return nil
	}
	return s.emitter.Update(s.currentTime, dt)
}

// transferFromParticlesToGrids splats particle velocities onto the faces
// with trilinear weights and normalizes by the accumulated weight.
func (s *PICSolver) transferFromParticlesToGrids() {
	vel := s.grids.Velocity()
	vel.Fill(r3.Vec{})

	u, v, w := vel.U(), vel.V(), vel.W()
	uw := grid.NewArray3(u.Size())
	vw := grid.NewArray3(v.Size())
	ww := grid.NewArray3(w.Size())
	us, vs, ws := vel.Samplers()

	positions := s.particles.Positions()
	velocities := s.particles.Velocities()
	splat := func(sampler grid.LinearSampler, value, weight *grid.Array3, p r3.Vec, x float64) {
		idx, wts := sampler.CoordinatesAndWeights(p)
		for n := range idx {
			value.Add(idx[n].I, idx[n].J, idx[n].K, x*wts[n])
			weight.Add(idx[n].I, idx[n].J, idx[n].K, wts[n])
		}
	}
	for i, p := range positions {
		splat(us, u, uw, p, velocities[i].X)
		splat(vs, v, vw, p, velocities[i].Y)
		splat(ws, w, ww, p, velocities[i].Z)
	}

	s.uValid = normalizeFaces(s.ctx, u, uw, s.uValid)
	s.vValid = normalizeFaces(s.ctx, v, vw, s.vValid)
	s.wValid = normalizeFaces(s.ctx, w, ww, s.wValid)
}

func normalizeFaces(ctx *dynamo.Context, value, weight *grid.Array3, valid []bool) []bool {
	data, wts := value.Data(), weight.Data()
	if cap(valid) < len(data) {
		valid = make([]bool, len(data))
	}
	valid = valid[:len(data)]
	ctx.ParallelFor(len(data), 1024, func(start, end int) {
		for i := start; i < end; i++ {
			if wts[i] > 0 {
				data[i] /= wts[i]
				valid[i] = true
			} else {
				valid[i] = false
			}
		}
	})
	return valid
}

// transferFromGridsToParticles sets every particle velocity to the grid
// velocity at its position.
func (s *PICSolver) transferFromGridsToParticles() {
	vel := s.grids.Velocity()
	positions := s.particles.Positions()
	velocities := s.particles.Velocities()
	s.ctx.ParallelForEach(len(positions), func(i int) {
		velocities[i] = vel.Sample(positions[i])
	})
}

// buildSignedDistanceField treats every particle as a ball of radius
// 1.2*h/sqrt(2) and stores the distance to the nearest ball, clamped to a
// band of twice that radius.
func (s *PICSolver) buildSignedDistanceField() error {
	sdf := s.SignedDistanceField()
	maxH := grid.MaxComponent(sdf.GridSpacing())
	radius := 1.2 * maxH / math.Sqrt2
	band := 2 * radius

	if err := s.particles.BuildNeighborSearcher(band); err != nil {
		return err
	}
	searcher := s.particles.NeighborSearcher()

	size := sdf.DataSize()
	s.ctx.ParallelFor3(size.X, size.Y, size.Z, func(i, j, k int) {
		pt := sdf.DataPosition(i, j, k)
		minDist := band
		searcher.ForEachNearbyPoint(pt, band, func(_ int, x r3.Vec) {
			minDist = math.Min(minDist, r3.Norm(r3.Sub(pt, x)))
		})
		sdf.Set(i, j, k, minDist-radius)
	})
	return s.extrapolateIntoCollider(sdf)
}

func (s *PICSolver) extrapolateVelocityToAir() error {
	vel := s.grids.Velocity()
	depth := s.extrapolationDepth()
	if len(s.uValid) != vel.U().Size().Len() {
		// No particle transfer has happened yet.
		return nil
	}
	if err := levelset.ExtrapolateToRegion(s.ctx, vel.U(), s.uValid, depth, vel.U()); err != nil {
		return err
	}
	if err := levelset.ExtrapolateToRegion(s.ctx, vel.V(), s.vValid, depth, vel.V()); err != nil {
		return err
	}
	return levelset.ExtrapolateToRegion(s.ctx, vel.W(), s.wValid, depth, vel.W())
}

// moveParticles traces every particle through the grid velocity in
// max(MaxCFL, 1) sub-steps, then keeps it inside the closed walls and out
// of the collider.
func (s *PICSolver) moveParticles(dt float64) {
	flow := s.grids.Velocity()
	lower, upper := flow.BoundingBox()
	closed := s.closedDomain
	positions := s.particles.Positions()
	velocities := s.particles.Velocities()

	steps := int(math.Max(s.maxCFL, 1))
	sub := dt / float64(steps)

	s.ctx.ParallelForEach(len(positions), func(i int) {
		pt := positions[i]
		for n := 0; n < steps; n++ {
			pt = s.tracer.Trace(flow, pt, sub)
		}
		v := velocities[i]

		if closed.Has(boundary.DirectionLeft) && pt.X <= lower.X {
			pt.X, v.X = lower.X, 0
		}
		if closed.Has(boundary.DirectionRight) && pt.X >= upper.X {
			pt.X, v.X = upper.X, 0
		}
		if closed.Has(boundary.DirectionDown) && pt.Y <= lower.Y {
			pt.Y, v.Y = lower.Y, 0
		}
		if closed.Has(boundary.DirectionUp) && pt.Y >= upper.Y {
			pt.Y, v.Y = upper.Y, 0
		}
		if closed.Has(boundary.DirectionBack) && pt.Z <= lower.Z {
			pt.Z, v.Z = lower.Z, 0
		}
		if closed.Has(boundary.DirectionFront) && pt.Z >= upper.Z {
			pt.Z, v.Z = upper.Z, 0
		}

		positions[i], velocities[i] = pt, v
	})

	if c := s.collider; c != nil {
		s.ctx.ParallelForEach(len(positions), func(i int) {
			c.ResolveCollision(0, 0, &positions[i], &velocities[i])
		})
	}
}
