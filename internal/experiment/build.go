package experiment

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/boundary"
	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/emitter"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/solver"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// Shape converts a shape description to a surface.
func Shape(c config.ShapeConfig) (surface.Surface, error) {
	switch c.Type {
	case "box":
		return surface.NewBox(vec(c.Lower), vec(c.Upper)), nil
	case "sphere":
		if !(c.Radius > 0) {
			return nil, fmt.Errorf("sphere radius %g: %w", c.Radius, dynamo.ErrInvalidArgument)
		}
		return surface.Sphere{Center: vec(c.Center), Radius: c.Radius}, nil
	case "plane":
		n := vec(c.Normal)
		if r3.Norm(n) == 0 {
			return nil, fmt.Errorf("plane normal is zero: %w", dynamo.ErrInvalidArgument)
		}
		return surface.Plane{Normal: n, Point: vec(c.Point)}, nil
	}
	return nil, fmt.Errorf("shape %q: %w", c.Type, dynamo.ErrInvalidArgument)
}

func solverConfig(cfg *config.Config) (solver.Config, error) {
	closed, ok := boundary.ParseDirections(cfg.Solver.ClosedDomain)
	if !ok {
		return solver.Config{}, fmt.Errorf("closed_domain %v: %w", cfg.Solver.ClosedDomain, dynamo.ErrInvalidArgument)
	}
	res := cfg.Grid.Resolution
	h := cfg.Spacing()
	return solver.Config{
		Resolution:   grid.Size3{X: res[0], Y: res[1], Z: res[2]},
		GridSpacing:  r3.Vec{X: h, Y: h, Z: h},
		Origin:       vec(cfg.Grid.Origin),
		Gravity:      vec(cfg.Solver.Gravity),
		Viscosity:    cfg.Solver.Viscosity,
		MaxCFL:       cfg.Solver.MaxCFL,
		ClosedDomain: closed,
		Integrator:   cfg.Solver.Integrator,
		PICBlending:  cfg.Solver.PICBlending,
		Threads:      cfg.Solver.Threads,
	}, nil
}

// Build validates cfg and returns a solver with its emitters, colliders and
// linear solver attached.
func (r *Registry) Build(cfg *config.Config) (Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scfg, err := solverConfig(cfg)
	if err != nil {
		return nil, err
	}

	var sim Simulation
	switch cfg.Solver.Kind {
	case "pic":
		sim, err = solver.NewPICSolver(scfg)
	case "flip":
		sim, err = solver.NewFLIPSolver(scfg)
	default:
		err = fmt.Errorf("solver kind %q: %w", cfg.Solver.Kind, dynamo.ErrUnknownSolver)
	}
	if err != nil {
		return nil, err
	}

	ps, err := r.GetPressureSolver(sim.Context(), cfg.Solver.Pressure)
	if err != nil {
		return nil, err
	}
	ls, err := r.GetLinearSolver(sim.Context(), cfg.Solver)
	if err != nil {
		return nil, err
	}
	ps.SetLinearSystemSolver(ls)
	sim.SetPressureSolver(ps)

	emitters, err := buildEmitters(cfg)
	if err != nil {
		return nil, err
	}
	sim.SetEmitter(emitters)

	collider, err := buildCollider(cfg.Scene.Colliders)
	if err != nil {
		return nil, err
	}
	if collider != nil {
		sim.SetCollider(collider)
	}
	return sim, nil
}

func buildEmitters(cfg *config.Config) (*emitter.Set, error) {
	h := cfg.Spacing()
	set := emitter.NewSet()
	for i, ec := range cfg.Scene.Emitters {
		shape, err := Shape(ec.Shape)
		if err != nil {
			return nil, fmt.Errorf("emitter %d: %w", i, err)
		}
		spacing := 0.5 * h
		if ec.Spacing > 0 {
			spacing = ec.Spacing * h
		}
		e, err := emitter.NewVolumeParticleEmitter(emitter.VolumeConfig{
			Surface:         shape,
			Bounds:          domainBounds(cfg),
			Spacing:         spacing,
			InitialVelocity: vec(ec.Velocity),
			MaxParticles:    ec.MaxParticles,
			Jitter:          ec.Jitter,
			OneShot:         ec.OneShot,
			Seed:            ec.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("emitter %d: %w", i, err)
		}
		set.Add(e)
	}
	return set, nil
}

func domainBounds(cfg *config.Config) surface.BoundingBox {
	lower, upper := cfg.Bounds()
	return surface.BoundingBox{Lower: lower, Upper: upper}
}

// buildCollider merges every collider shape into one rigid body. The
// first collider's friction and velocity apply to all of them.
func buildCollider(cols []config.ColliderConfig) (surface.Collider, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	shapes := make(surface.Set, 0, len(cols))
	for i, c := range cols {
		s, err := Shape(c.Shape)
		if err != nil {
			return nil, fmt.Errorf("collider %d: %w", i, err)
		}
		shapes = append(shapes, s)
	}
	var shape surface.Surface = shapes
	if len(shapes) == 1 {
		shape = shapes[0]
	}
	col := surface.NewRigidBodyCollider(shape)
	col.Friction = cols[0].Friction
	col.LinearVelocity = vec(cols[0].Velocity)
	return col, nil
}
