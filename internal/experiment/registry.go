package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/fdm"
	"github.com/san-kum/flipsim/internal/pressure"
)

// residualCheckInterval is how often the stationary solvers compute a
// full residual.
const residualCheckInterval = 10

type Registry struct {
	linearSolvers   map[string]func(ctx *dynamo.Context, cfg config.SolverConfig) fdm.Solver
	pressureSolvers map[string]func(ctx *dynamo.Context) pressure.Solver
	scenes          map[string]func() *config.Config
}

func NewRegistry() *Registry {
	r := &Registry{
		linearSolvers:   make(map[string]func(*dynamo.Context, config.SolverConfig) fdm.Solver),
		pressureSolvers: make(map[string]func(*dynamo.Context) pressure.Solver),
		scenes:          make(map[string]func() *config.Config),
	}

	r.linearSolvers["iccg"] = func(ctx *dynamo.Context, c config.SolverConfig) fdm.Solver {
		return fdm.NewICCGSolver(ctx, c.MaxIterations, c.Tolerance)
	}
	r.linearSolvers["cg"] = func(ctx *dynamo.Context, c config.SolverConfig) fdm.Solver {
		return fdm.NewCGSolver(ctx, c.MaxIterations, c.Tolerance)
	}
	r.linearSolvers["jacobi"] = func(ctx *dynamo.Context, c config.SolverConfig) fdm.Solver {
		return fdm.NewJacobiSolver(ctx, c.MaxIterations, residualCheckInterval, c.Tolerance)
	}
	r.linearSolvers["gauss_seidel"] = func(ctx *dynamo.Context, c config.SolverConfig) fdm.Solver {
		sor := c.Multigrid.SOR
		if sor <= 0 {
			sor = 1
		}
		return fdm.NewGaussSeidelSolverSOR(ctx, c.MaxIterations, residualCheckInterval, c.Tolerance, sor, c.Multigrid.RedBlack)
	}
	r.linearSolvers["multigrid"] = func(ctx *dynamo.Context, c config.SolverConfig) fdm.Solver {
		params := fdm.DefaultMGParameters()
		mg := c.Multigrid
		if mg.Levels > 0 {
			params.MaxNumberOfLevels = mg.Levels
		}
		if mg.RestrictionIters > 0 {
			params.NumberOfRestrictionIter = mg.RestrictionIters
		}
		if mg.CorrectionIters > 0 {
			params.NumberOfCorrectionIter = mg.CorrectionIters
		}
		if mg.CoarsestIters > 0 {
			params.NumberOfCoarsestIter = mg.CoarsestIters
		}
		if mg.FinalIters > 0 {
			params.NumberOfFinalIter = mg.FinalIters
		}
		params.MaxTolerance = c.Tolerance
		sor := mg.SOR
		if sor <= 0 {
			sor = 1
		}
		return fdm.NewMGSolver(ctx, params, c.MaxIterations, sor, mg.RedBlack)
	}

	r.pressureSolvers["fractional"] = func(ctx *dynamo.Context) pressure.Solver {
		return pressure.NewFractionalSinglePhase(ctx)
	}
	r.pressureSolvers["blocked"] = func(ctx *dynamo.Context) pressure.Solver {
		return pressure.NewSinglePhase(ctx)
	}

	for _, name := range config.ListPresets() {
		name := name
		r.scenes[name] = func() *config.Config { return config.GetPreset(name) }
	}
	return r
}

// RegisterScene adds or replaces a named scene.
func (r *Registry) RegisterScene(name string, fn func() *config.Config) {
	r.scenes[name] = fn
}

func (r *Registry) GetLinearSolver(ctx *dynamo.Context, cfg config.SolverConfig) (fdm.Solver, error) {
	fn, ok := r.linearSolvers[cfg.LinearSolver]
	if !ok {
		return nil, fmt.Errorf("linear solver %q: %w", cfg.LinearSolver, dynamo.ErrUnknownSolver)
	}
	return fn(ctx, cfg), nil
}

func (r *Registry) GetPressureSolver(ctx *dynamo.Context, name string) (pressure.Solver, error) {
	fn, ok := r.pressureSolvers[name]
	if !ok {
		return nil, fmt.Errorf("pressure solver %q: %w", name, dynamo.ErrUnknownSolver)
	}
	return fn(ctx), nil
}

func (r *Registry) GetScene(name string) (*config.Config, error) {
	fn, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("scene %q: %w", name, dynamo.ErrUnknownScene)
	}
	return fn(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListScenes() []string          { return sortedKeys(r.scenes) }
func (r *Registry) ListLinearSolvers() []string   { return sortedKeys(r.linearSolvers) }
func (r *Registry) ListPressureSolvers() []string { return sortedKeys(r.pressureSolvers) }
