package fdm

import "github.com/san-kum/flipsim/internal/dynamo"

// JacobiSolver iterates Jacobi sweeps and checks the residual every
// residualCheckInterval iterations.
type JacobiSolver struct {
	stats
	ctx                   *dynamo.Context
	residualCheckInterval int

	xTemp    *Vector
	residual *Vector
}

// NewJacobiSolver returns a Jacobi solver.
func NewJacobiSolver(ctx *dynamo.Context, maxIterations, residualCheckInterval int, tolerance float64) *JacobiSolver {
	if residualCheckInterval < 1 {
		residualCheckInterval = 1
	}
	return &JacobiSolver{
		ctx:                   ctx,
		stats:                 stats{maxIterations: maxIterations, tolerance: tolerance},
		residualCheckInterval: residualCheckInterval,
		xTemp:                 &Vector{},
		residual:              &Vector{},
	}
}

func (s *JacobiSolver) Solve(system *LinearSystem) (bool, error) {
	if err := system.Validate(); err != nil {
		return false, err
	}
	size := system.X.Size()
	s.xTemp.Resize(size)
	s.residual.Resize(size)

	s.lastIters = s.maxIterations
	for iter := 0; iter < s.maxIterations; iter++ {
		RelaxJacobi(s.ctx, system.A, system.B, system.X, s.xTemp)
		s.xTemp.Swap(system.X)

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
