// Package solver advances a fluid simulation frame by frame: the grid
// fluid solver owns the sub-stepping, forces, projection and boundary
// handling, and the PIC and FLIP solvers add particle transfers around it.
package solver

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/flipsim/internal/advection"
	"github.com/san-kum/flipsim/internal/boundary"
	"github.com/san-kum/flipsim/internal/diffusion"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/levelset"
	"github.com/san-kum/flipsim/internal/pressure"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

// stepHooks are the points where a particle solver changes the grid step.
type stepHooks interface {
	onInitialize() error
	onBeginAdvanceTimeStep(dt float64) error
	onEndAdvanceTimeStep(dt float64) error
	computeAdvection(dt float64) error
	fluidSDF() grid.ScalarField
}

// GridFluidSolver is an Eulerian solver on a MAC grid. Each sub-step
// applies gravity, viscosity and pressure, then advects the grid.
type GridFluidSolver struct {
	ctx    *dynamo.Context
	logger *slog.Logger
	grids  *grid.SystemData

	gravity      r3.Vec
	viscosity    float64
	maxCFL       float64
	closedDomain boundary.Direction

	advection *advection.SemiLagrangian
	diffusion *diffusion.ForwardEuler
	pressure  pressure.Solver
	boundary  boundary.Solver
	collider  surface.Collider

	hooks stepHooks

	frame       dynamo.Frame
	currentTime float64
	subStep     int
	pressureOK  bool
}

// NewGridFluidSolver validates cfg and builds a solver with the fractional
// pressure projection.
func NewGridFluidSolver(cfg Config) (*GridFluidSolver, error) {
	grids, err := grid.NewSystemData(cfg.Resolution, cfg.GridSpacing, cfg.Origin)
	if err != nil {
		return nil, err
	}
	if !(cfg.MaxCFL > 0) {
		return nil, fmt.Errorf("max cfl %g: %w", cfg.MaxCFL, dynamo.ErrInvalidArgument)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := dynamo.NewContext(cfg.Threads)

	s := &GridFluidSolver{
		ctx:          ctx,
		logger:       logger,
		grids:        grids,
		gravity:      cfg.Gravity,
		viscosity:    math.Max(cfg.Viscosity, 0),
		maxCFL:       cfg.MaxCFL,
		closedDomain: cfg.ClosedDomain,
		advection:    advection.NewSemiLagrangian(ctx),
		diffusion:    diffusion.NewForwardEuler(ctx),
		frame:        dynamo.Frame{Index: -1},
	}
	s.hooks = s
	s.SetPressureSolver(pressure.NewFractionalSinglePhase(ctx))
	return s, nil
}

// Context returns the worker configuration shared by the sub-solvers.
func (s *GridFluidSolver) Context() *dynamo.Context { return s.ctx }

func (s *GridFluidSolver) GridSystemData() *grid.SystemData           { return s.grids }
func (s *GridFluidSolver) Velocity() *grid.FaceCenteredGrid           { return s.grids.Velocity() }
func (s *GridFluidSolver) Gravity() r3.Vec                            { return s.gravity }
func (s *GridFluidSolver) SetGravity(g r3.Vec)                        { s.gravity = g }
func (s *GridFluidSolver) ViscosityCoefficient() float64              { return s.viscosity }
func (s *GridFluidSolver) SetViscosityCoefficient(v float64)          { s.viscosity = math.Max(v, 0) }
func (s *GridFluidSolver) MaxCFL() float64                            { return s.maxCFL }
func (s *GridFluidSolver) Collider() surface.Collider                 { return s.collider }
func (s *GridFluidSolver) SetCollider(c surface.Collider)             { s.collider = c }
func (s *GridFluidSolver) PressureSolver() pressure.Solver            { return s.pressure }
func (s *GridFluidSolver) BoundarySolver() boundary.Solver            { return s.boundary }
func (s *GridFluidSolver) AdvectionSolver() *advection.SemiLagrangian { return s.advection }
func (s *GridFluidSolver) CurrentFrame() dynamo.Frame                 { return s.frame }
func (s *GridFluidSolver) CurrentTime() float64                       { return s.currentTime }

func (s *GridFluidSolver) SetMaxCFL(cfl float64) {
	s.maxCFL = math.Max(cfl, dynamo.Epsilon)
}

func (s *GridFluidSolver) ClosedDomainBoundaryFlag() boundary.Direction { return s.closedDomain }

func (s *GridFluidSolver) SetClosedDomainBoundaryFlag(d boundary.Direction) {
	s.closedDomain = d
	if s.boundary != nil {
		s.boundary.SetClosedDomainBoundaryFlag(d)
	}
}

// SetPressureSolver installs p and the boundary solver it suggests.
func (s *GridFluidSolver) SetPressureSolver(p pressure.Solver) {
	s.pressure = p
	if p != nil {
		s.boundary = p.SuggestedBoundaryConditionSolver()
		s.boundary.SetClosedDomainBoundaryFlag(s.closedDomain)
	}
}

// LastPressureResidual is the residual of the most recent pressure solve.
func (s *GridFluidSolver) LastPressureResidual() float64 {
	if s.pressure == nil || s.pressure.LinearSystemSolver() == nil {
		return 0
	}
	return s.pressure.LinearSystemSolver().LastResidual()
}

// LastPressureIterations is the iteration count of the most recent pressure solve.
func (s *GridFluidSolver) LastPressureIterations() int {
	if s.pressure == nil || s.pressure.LinearSystemSolver() == nil {
		return 0
	}
	return s.pressure.LinearSystemSolver().LastNumberOfIterations()
}

// LastPressureConverged reports whether the last solve met its tolerance.
func (s *GridFluidSolver) LastPressureConverged() bool { return s.pressureOK }

// ColliderSDF is the collider distance field of the boundary solver.
func (s *GridFluidSolver) ColliderSDF() grid.ScalarField {
	if s.boundary == nil {
		return grid.ConstantScalarField(math.MaxFloat64)
	}
	return s.boundary.ColliderSDF()
}

func (s *GridFluidSolver) colliderVelocityField() grid.VectorField {
	if s.boundary == nil {
		return grid.ConstantVectorField{}
	}
	return s.boundary.ColliderVelocityField()
}

// CFL is the largest velocity component after dt of gravity, in cells
// travelled per dt.
func (s *GridFluidSolver) CFL(dt float64) float64 {
	vel := s.grids.Velocity()
	res := vel.Resolution()
	g := r3.Scale(dt, s.gravity)

	maxVel := s.ctx.ParallelReduce(res.Len(), 64, 0, func(start, end int) float64 {
		m := 0.0
		for idx := start; idx < end; idx++ {
			i := idx % res.X
			j := (idx / res.X) % res.Y
			k := idx / (res.X * res.Y)
			m = math.Max(m, grid.MaxAbsComponent(r3.Add(vel.ValueAtCellCenter(i, j, k), g)))
		}
		return m
	}, math.Max)

	return maxVel * dt / grid.MinComponent(vel.GridSpacing())
}

// NumberOfSubTimeSteps splits dt so that no sub-step exceeds MaxCFL.
func (s *GridFluidSolver) NumberOfSubTimeSteps(dt float64) int {
	n := math.Ceil(s.CFL(dt) / s.maxCFL)
	if !(n >= 1) {
		return 1
	}
	return int(n)
}

// Update advances the simulation to frame. Frames at or before the
// current one are ignored.
func (s *GridFluidSolver) Update(frame dynamo.Frame) error {
	if frame.Index <= s.frame.Index {
		return nil
	}
	if s.frame.Index < 0 {
		if err := s.initialize(); err != nil {
			return s.wrap(err)
		}
	}

	for n := frame.Index - s.frame.Index; n > 0; n-- {
		s.frame.Index++
		if err := s.advanceTimeStep(frame.TimeInterval); err != nil {
			return err
		}
	}
	s.frame = frame
	return nil
}

func (s *GridFluidSolver) wrap(err error) error {
	return &dynamo.SimulationError{Frame: s.frame.Index, SubStep: s.subStep, Time: s.currentTime, Wrapped: err}
}

func (s *GridFluidSolver) initialize() error {
	s.updateCollider(0)
	return s.hooks.onInitialize()
}

func (s *GridFluidSolver) onInitialize() error { return nil }

func (s *GridFluidSolver) advanceTimeStep(dt float64) error {
	steps := s.NumberOfSubTimeSteps(dt)
	sub := dt / float64(steps)
	for s.subStep = 0; s.subStep < steps; s.subStep++ {
		if err := s.onAdvanceTimeStep(sub); err != nil {
			return s.wrap(err)
		}
		s.currentTime += sub
	}

	s.logger.Debug("frame advanced",
		slog.Int("frame", s.frame.Index),
		slog.Int("sub_steps", steps),
		slog.Float64("time", s.currentTime),
		slog.Float64("pressure_residual", s.LastPressureResidual()),
		slog.Int("pressure_iterations", s.LastPressureIterations()),
	)
	return nil
}

func (s *GridFluidSolver) onAdvanceTimeStep(dt float64) error {
	if err := s.beginAdvanceTimeStep(dt); err != nil {
		return err
	}
	s.computeExternalForces(dt)
	if err := s.computeViscosity(dt); err != nil {
		return err
	}
	if err := s.computePressure(dt); err != nil {
		return err
	}
	if err := s.hooks.computeAdvection(dt); err != nil {
		return err
	}
	return s.hooks.onEndAdvanceTimeStep(dt)
}

func (s *GridFluidSolver) updateCollider(dt float64) {
	if s.collider != nil {
		s.collider.Update(s.currentTime, dt)
	}
	if s.boundary != nil {
		s.boundary.UpdateCollider(s.collider, s.grids.Resolution(), s.grids.GridSpacing(), s.grids.Origin())
	}
}

func (s *GridFluidSolver) beginAdvanceTimeStep(dt float64) error {
	s.updateCollider(dt)
	s.applyBoundaryCondition()
	return s.hooks.onBeginAdvanceTimeStep(dt)
}

func (s *GridFluidSolver) onBeginAdvanceTimeStep(float64) error { return nil }
func (s *GridFluidSolver) onEndAdvanceTimeStep(float64) error   { return nil }

func (s *GridFluidSolver) computeExternalForces(dt float64) {
	s.computeGravity(dt)
}

func (s *GridFluidSolver) computeGravity(dt float64) {
	if r3.Norm2(s.gravity) <= dynamo.Epsilon {
		return
	}
	vel := s.grids.Velocity()
	addConst := func(arr *grid.Array3, dv float64) {
		if math.Abs(dv) <= dynamo.Epsilon*dt {
			return
		}
		data := arr.Data()
		s.ctx.ParallelFor(len(data), 1024, func(start, end int) {
			for i := start; i < end; i++ {
				data[i] += dv
			}
		})
	}
	addConst(vel.U(), dt*s.gravity.X)
	addConst(vel.V(), dt*s.gravity.Y)
	addConst(vel.W(), dt*s.gravity.Z)
	s.applyBoundaryCondition()
}

func (s *GridFluidSolver) computeViscosity(dt float64) error {
	if s.diffusion == nil || s.viscosity <= dynamo.Epsilon {
		return nil
	}
	vel := s.grids.Velocity()
	vel0 := vel.Clone()
	if err := s.diffusion.SolveFaceCentered(vel0, s.viscosity, dt, vel, s.ColliderSDF(), s.hooks.fluidSDF()); err != nil {
		return err
	}
	s.applyBoundaryCondition()
	return nil
}

func (s *GridFluidSolver) computePressure(dt float64) error {
	if s.pressure == nil {
		return nil
	}
	vel := s.grids.Velocity()
	vel0 := vel.Clone()
	ok, err := s.pressure.Solve(vel0, dt, vel, s.ColliderSDF(), s.colliderVelocityField(), s.hooks.fluidSDF())
	if err != nil {
		return err
	}
	s.pressureOK = ok
	if !ok {
		s.logger.Debug("pressure solve did not converge",
			slog.Int("frame", s.frame.Index),
			slog.Int("sub_step", s.subStep),
			slog.Float64("residual", s.LastPressureResidual()),
		)
	}
	s.applyBoundaryCondition()
	return nil
}

// computeAdvection advects every auxiliary layer and the velocity through
// the velocity field.
func (s *GridFluidSolver) computeAdvection(dt float64) error {
	if s.advection == nil {
		return nil
	}
	vel := s.grids.Velocity()
	sdf := s.ColliderSDF()

	for n := 0; n < s.grids.NumberOfScalarData(); n++ {
		g, err := s.grids.ScalarDataAt(n)
		if err != nil {
			return err
		}
		if err := s.advection.AdvectScalar(g.Clone(), vel, dt, g, sdf); err != nil {
			return err
		}
	}
	for n := 0; n < s.grids.NumberOfVectorData(); n++ {
		g, err := s.grids.VectorDataAt(n)
		if err != nil {
			return err
		}
		if err := s.advection.AdvectCollocated(g.Clone(), vel, dt, g, sdf); err != nil {
			return err
		}
	}

	vel0 := vel.Clone()
	if err := s.advection.AdvectFaceCentered(vel0, vel0, dt, vel, sdf); err != nil {
		return err
	}
	s.applyBoundaryCondition()
	return nil
}

// fluidSDF treats the whole domain as fluid.
func (s *GridFluidSolver) fluidSDF() grid.ScalarField {
	return grid.ConstantScalarField(-math.MaxFloat64)
}

func (s *GridFluidSolver) extrapolationDepth() int {
	return int(math.Ceil(s.maxCFL))
}

func (s *GridFluidSolver) applyBoundaryCondition() {
	if s.boundary != nil {
		s.boundary.ConstrainVelocity(s.grids.Velocity(), s.extrapolationDepth())
	}
}

// extrapolateIntoCollider extends g from outside the collider into it.
func (s *GridFluidSolver) extrapolateIntoCollider(g *grid.ScalarGrid) error {
	size := g.DataSize()
	valid := make([]bool, size.Len())
	sdf := s.ColliderSDF()
	s.ctx.ParallelFor3(size.X, size.Y, size.Z, func(i, j, k int) {
		valid[i+size.X*(j+size.Y*k)] = !levelset.IsInsideSDF(sdf.Sample(g.DataPosition(i, j, k)))
	})
	return levelset.ExtrapolateToRegion(s.ctx, g.Data(), valid, s.extrapolationDepth(), g.Data())
}
