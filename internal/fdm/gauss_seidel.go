package fdm

import "github.com/san-kum/flipsim/internal/dynamo"

// GaussSeidelSolver iterates in-place Gauss-Seidel sweeps, optionally
// over-relaxed and optionally in red-black order.
type GaussSeidelSolver struct {
	stats
	ctx                   *dynamo.Context
	residualCheckInterval int
	sorFactor             float64
	useRedBlackOrdering   bool

	residual *Vector
}

// NewGaussSeidelSolver returns a lexicographic solver with no over-relaxation.
func NewGaussSeidelSolver(ctx *dynamo.Context, maxIterations, residualCheckInterval int, tolerance float64) *GaussSeidelSolver {
	return NewGaussSeidelSolverSOR(ctx, maxIterations, residualCheckInterval, tolerance, 1, false)
}

// NewGaussSeidelSolverSOR returns a solver with the given SOR factor and ordering.
func NewGaussSeidelSolverSOR(ctx *dynamo.Context, maxIterations, residualCheckInterval int, tolerance, sorFactor float64, useRedBlackOrdering bool) *GaussSeidelSolver {
	if residualCheckInterval < 1 {
		residualCheckInterval = 1
	}
	return &GaussSeidelSolver{
		ctx:                   ctx,
		stats:                 stats{maxIterations: maxIterations, tolerance: tolerance},
		residualCheckInterval: residualCheckInterval,
		sorFactor:             sorFactor,
		useRedBlackOrdering:   useRedBlackOrdering,
		residual:              &Vector{},
	}
}

func (s *GaussSeidelSolver) SORFactor() float64        { return s.sorFactor }
func (s *GaussSeidelSolver) UseRedBlackOrdering() bool { return s.useRedBlackOrdering }

func (s *GaussSeidelSolver) relax(system *LinearSystem) {
	if s.useRedBlackOrdering {
		RelaxGaussSeidelRedBlack(s.ctx, system.A, system.B, s.sorFactor, system.X)
	} else {
		RelaxGaussSeidel(system.A, system.B, s.sorFactor, system.X)
	}
}

func (s *GaussSeidelSolver) Solve(system *LinearSystem) (bool, error) {
	if err := system.Validate(); err != nil {
		return false, err
	}
	s.residual.Resize(system.X.Size())

	s.lastIters = s.maxIterations
	for iter := 0; iter < s.maxIterations; iter++ {
		s.relax(system)

		if iter != 0 && iter%s.residualCheckInterval == 0 {
			_ = Residual(s.ctx, system.A, system.X, system.B, s.residual)
			if L2Norm(s.residual) < s.tolerance {
				s.lastIters = iter + 1
				break
			}
		}
	}

	_ = Residual(s.ctx, system.A, system.X, system.B, s.residual)
	s.lastResidual = L2Norm(s.residual)
	return s.lastResidual < s.tolerance, nil
}
