package fdm

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
)

// MGLinearSystem holds one linear system per multigrid level. Level 0 is
// the finest. Coarser b and x entries are scratch space for the V-cycle.
type MGLinearSystem struct {
	A []*Matrix
	X []*Vector
	B []*Vector
}

// NumberOfLevels is the depth of the hierarchy.
func (s *MGLinearSystem) NumberOfLevels() int {
	return len(s.A)
}

// Level returns the single-level system at level l. The members alias the
// hierarchy's storage.
func (s *MGLinearSystem) Level(l int) *LinearSystem {
	return &LinearSystem{A: s.A[l], X: s.X[l], B: s.B[l]}
}

// ResizeWithFinest builds up to maxLevels levels, halving the resolution
// while every axis is even.
func (s *MGLinearSystem) ResizeWithFinest(finest grid.Size3, maxLevels int) {
	sizes := []grid.Size3{finest}
	current := finest
	for len(sizes) < maxLevels {
		if current.X%2 != 0 || current.Y%2 != 0 || current.Z%2 != 0 {
			break
		}
		current = grid.Size3{X: current.X / 2, Y: current.Y / 2, Z: current.Z / 2}
		sizes = append(sizes, current)
	}
	s.resize(sizes)
}

// ResizeWithCoarsest builds exactly levels levels whose coarsest level has
// the given resolution.
func (s *MGLinearSystem) ResizeWithCoarsest(coarsest grid.Size3, levels int) {
	sizes := make([]grid.Size3, levels)
	current := coarsest
	for l := levels - 1; l >= 0; l-- {
		sizes[l] = current
		current = grid.Size3{X: current.X * 2, Y: current.Y * 2, Z: current.Z * 2}
	}
	s.resize(sizes)
}

func (s *MGLinearSystem) resize(sizes []grid.Size3) {
	a := make([]*Matrix, len(sizes))
	x := make([]*Vector, len(sizes))
	b := make([]*Vector, len(sizes))
	for l, size := range sizes {
		if l < len(s.A) {
			a[l], x[l], b[l] = s.A[l], s.X[l], s.B[l]
			a[l].Resize(size)
			x[l].Resize(size)
			b[l].Resize(size)
			continue
		}
		a[l], x[l], b[l] = NewMatrix(size), NewVector(size), NewVector(size)
	}
	s.A, s.X, s.B = a, x, b
}

// Clear zeroes every level.
func (s *MGLinearSystem) Clear() {
	for l := range s.A {
		s.Level(l).Clear()
	}
}

// Validate checks level count and per-level sizes.
func (s *MGLinearSystem) Validate() error {
	if len(s.A) == 0 || len(s.X) != len(s.A) || len(s.B) != len(s.A) {
		return fmt.Errorf("multigrid system with %d/%d/%d levels: %w", len(s.A), len(s.X), len(s.B), dynamo.ErrInvalidArgument)
	}
	for l := range s.A {
		if err := s.Level(l).Validate(); err != nil {
			return fmt.Errorf("level %d: %w", l, err)
		}
	}
	return nil
}

// RelaxFunc smooths x toward the solution of a x = b for the given number
// of iterations. buffer is a scratch vector of the same size.
type RelaxFunc func(a *Matrix, b *Vector, iterations int, tolerance float64, x, buffer *Vector)

// MGParameters configures a V-cycle.
type MGParameters struct {
	MaxNumberOfLevels       int
	NumberOfRestrictionIter int
	NumberOfCorrectionIter  int
	NumberOfCoarsestIter    int
	NumberOfFinalIter       int
	MaxTolerance            float64
	Relax                   RelaxFunc
}

// DefaultMGParameters returns the iteration counts used by the pressure
// solver when none are configured.
func DefaultMGParameters() MGParameters {
	return MGParameters{
		MaxNumberOfLevels:       4,
		NumberOfRestrictionIter: 5,
		NumberOfCorrectionIter:  5,
		NumberOfCoarsestIter:    20,
		NumberOfFinalIter:       20,
		MaxTolerance:            1e-9,
	}
}

// VCycle runs one multigrid V-cycle on the hierarchy and returns the L2
// norm of the finest-level residual. buffer must mirror x's level sizes.
func VCycle(ctx *dynamo.Context, system *MGLinearSystem, params MGParameters, buffer []*Vector) float64 {
	return vCycle(ctx, system, params, 0, buffer)
}

func vCycle(ctx *dynamo.Context, system *MGLinearSystem, params MGParameters, level int, buffer []*Vector) float64 {
	a, x, b, r := system.A[level], system.X[level], system.B[level], buffer[level]

	params.Relax(a, b, params.NumberOfRestrictionIter, params.MaxTolerance, x, r)

	if level < system.NumberOfLevels()-1 {
		_ = Residual(ctx, a, x, b, r)
		_ = Restrict(ctx, r, system.B[level+1])
		system.X[level+1].Fill(0)

		params.MaxTolerance *= 0.5
		vCycle(ctx, system, params, level+1, buffer)
		params.MaxTolerance *= 2

		_ = Correct(ctx, system.X[level+1], x)

		iters := params.NumberOfCorrectionIter
		if level == 0 {
			iters = params.NumberOfFinalIter
		}
		params.Relax(a, b, iters, params.MaxTolerance, x, r)
	} else {
		params.Relax(a, b, params.NumberOfCoarsestIter, params.MaxTolerance, x, r)
	}

	_ = Residual(ctx, a, x, b, r)
	return L2Norm(r)
}

// MGSolver solves a multigrid hierarchy with red-black Gauss-Seidel
// smoothing. Each Solve runs V-cycles until the residual drops below the
// tolerance or the cycle budget is spent.
type MGSolver struct {
	stats
	ctx       *dynamo.Context
	params    MGParameters
	sorFactor float64
	redBlack  bool
	buffer    []*Vector
}

// NewMGSolver returns a multigrid solver running at most maxCycles V-cycles per solve.
func NewMGSolver(ctx *dynamo.Context, params MGParameters, maxCycles int, sorFactor float64, useRedBlackOrdering bool) *MGSolver {
	s := &MGSolver{
		ctx:       ctx,
		stats:     stats{maxIterations: maxCycles, tolerance: params.MaxTolerance},
		params:    params,
		sorFactor: sorFactor,
		redBlack:  useRedBlackOrdering,
	}
	if s.params.Relax == nil {
		s.params.Relax = s.relax
	}
	return s
}

// Params returns the V-cycle configuration.
func (s *MGSolver) Params() MGParameters {
	return s.params
}

func (s *MGSolver) relax(a *Matrix, b *Vector, iterations int, _ float64, x, _ *Vector) {
	for iter := 0; iter < iterations; iter++ {
		if s.redBlack {
			RelaxGaussSeidelRedBlack(s.ctx, a, b, s.sorFactor, x)
		} else {
			RelaxGaussSeidel(a, b, s.sorFactor, x)
		}
	}
}

// Solve treats system as a single-level hierarchy, which reduces to
// Gauss-Seidel smoothing.
func (s *MGSolver) Solve(system *LinearSystem) (bool, error) {
	if err := system.Validate(); err != nil {
		return false, err
	}
	return s.SolveMG(&MGLinearSystem{A: []*Matrix{system.A}, X: []*Vector{system.X}, B: []*Vector{system.B}})
}

// SolveMG runs V-cycles on the whole hierarchy, starting from the current
// finest x.
func (s *MGSolver) SolveMG(system *MGLinearSystem) (bool, error) {
	if err := system.Validate(); err != nil {
		return false, err
	}
	s.resizeBuffer(system)

	s.lastIters = 0
	for s.lastIters < s.maxIterations {
		s.lastResidual = VCycle(s.ctx, system, s.params, s.buffer)
		s.lastIters++
		if s.lastResidual < s.tolerance {
			break
		}
	}
	return s.lastResidual < s.tolerance, nil
}

func (s *MGSolver) resizeBuffer(system *MGLinearSystem) {
	if len(s.buffer) != system.NumberOfLevels() {
		s.buffer = make([]*Vector, system.NumberOfLevels())
	}
	for l, x := range system.X {
		if s.buffer[l] == nil {
			s.buffer[l] = &Vector{}
		}
		s.buffer[l].Resize(x.Size())
	}
}
