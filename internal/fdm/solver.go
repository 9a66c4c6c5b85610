package fdm

// Solver solves a LinearSystem in place, writing the answer to system.X.
// Solve reports false when the tolerance was not reached within the
// iteration budget; the error is reserved for malformed systems.
type Solver interface {
	Solve(system *LinearSystem) (bool, error)
	LastNumberOfIterations() int
	LastResidual() float64
	Tolerance() float64
	MaxNumberOfIterations() int
}

// stats holds the bookkeeping shared by every solver.
type stats struct {
	maxIterations int
	tolerance     float64
	lastIters     int
	lastResidual  float64
}

func (s *stats) LastNumberOfIterations() int { return s.lastIters }
func (s *stats) LastResidual() float64       { return s.lastResidual }
func (s *stats) Tolerance() float64          { return s.tolerance }
func (s *stats) MaxNumberOfIterations() int  { return s.maxIterations }
