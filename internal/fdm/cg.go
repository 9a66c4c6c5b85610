package fdm

import "github.com/san-kum/flipsim/internal/dynamo"

// residualRefreshInterval is how often PCG recomputes the true residual
// instead of updating it recursively.
const residualRefreshInterval = 50

// preconditioner approximates the inverse of A.
type preconditioner interface {
	build(a *Matrix)
	solve(b, x *Vector)
}

type identityPreconditioner struct{}

func (identityPreconditioner) build(*Matrix) {}

func (identityPreconditioner) solve(b, x *Vector) {
	x.CopyFrom(b)
}

// pcgBuffers holds the work vectors of one PCG solve.
type pcgBuffers struct {
	r, d, q, s *Vector
}

func (b *pcgBuffers) resize(v *Vector) {
	if b.r == nil {
		b.r, b.d, b.q, b.s = &Vector{}, &Vector{}, &Vector{}, &Vector{}
	}
	size := v.Size()
	b.r.Resize(size)
	b.d.Resize(size)
	b.q.Resize(size)
	b.s.Resize(size)
}

// pcg runs preconditioned conjugate gradient starting from the current x
// and returns the number of iterations performed.
func pcg(ctx *dynamo.Context, a *Matrix, b *Vector, maxIter int, tol float64, m preconditioner, x *Vector, buf *pcgBuffers) int {
	r, d, q, s := buf.r, buf.d, buf.q, buf.s

	_ = Residual(ctx, a, x, b, r)
	m.solve(r, d)
	sigmaNew := Dot(r, d)

	iter := 0
	trigger := false
	for sigmaNew > tol*tol && iter < maxIter {
		_ = MVM(ctx, a, d, q)
		dq := Dot(d, q)
		if dq == 0 {
			break
		}
		alpha := sigmaNew / dq
		AXPlusY(alpha, d, x, x)

		if trigger || (iter%residualRefreshInterval == 0 && iter > 0) {
			_ = Residual(ctx, a, x, b, r)
			trigger = false
		} else {
			AXPlusY(-alpha, q, r, r)
		}

		m.solve(r, s)
		sigmaOld := sigmaNew
		sigmaNew = Dot(r, s)
		if sigmaNew > sigmaOld {
			trigger = true
		}

		AXPlusY(sigmaNew/sigmaOld, d, s, d)
		iter++
	}
	return iter
}

// CGSolver is unpreconditioned conjugate gradient. It uses the incoming x
// as the initial guess.
type CGSolver struct {
	stats
	ctx *dynamo.Context
	buf pcgBuffers
}

// NewCGSolver returns a CG solver.
func NewCGSolver(ctx *dynamo.Context, maxIterations int, tolerance float64) *CGSolver {
	return &CGSolver{ctx: ctx, stats: stats{maxIterations: maxIterations, tolerance: tolerance}}
}

func (c *CGSolver) Solve(system *LinearSystem) (bool, error) {
	return solvePCG(c.ctx, &c.stats, system, identityPreconditioner{}, &c.buf)
}

func solvePCG(ctx *dynamo.Context, st *stats, system *LinearSystem, m preconditioner, buf *pcgBuffers) (bool, error) {
	if err := system.Validate(); err != nil {
		return false, err
	}
	buf.resize(system.X)
	m.build(system.A)

	st.lastIters = pcg(ctx, system.A, system.B, st.maxIterations, st.tolerance, m, system.X, buf)

	_ = Residual(ctx, system.A, system.X, system.B, buf.r)
	st.lastResidual = L2Norm(buf.r)
	return st.lastResidual <= st.tolerance || st.lastIters < st.maxIterations, nil
}
