package fdm

import "github.com/san-kum/flipsim/internal/dynamo"

// incompleteCholesky is the IC(0) factorization of a 7-point matrix. Only
// the inverse diagonal is stored; the off-diagonals are read from A.
type incompleteCholesky struct {
	a *Matrix
	d *Vector
	y *Vector
}

func (p *incompleteCholesky) build(a *Matrix) {
	if p.d == nil {
		p.d, p.y = &Vector{}, &Vector{}
	}
	size := a.Size()
	p.a = a
	p.d.Resize(size)
	p.y.Resize(size)

	rows := a.Rows()
	d := p.d.Data()
	sx, sy := size.X, size.X*size.Y
	for k := 0; k < size.Z; k++ {
		for j := 0; j < size.Y; j++ {
			for i := 0; i < size.X; i++ {
				idx := i + sx*j + sy*k
				denom := rows[idx].Center
				if i > 0 {
					r := rows[idx-1].Right
					denom -= r * r * d[idx-1]
				}
				if j > 0 {
					u := rows[idx-sx].Up
					denom -= u * u * d[idx-sx]
				}
				if k > 0 {
					f := rows[idx-sy].Front
					denom -= f * f * d[idx-sy]
				}
				if denom != 0 {
					d[idx] = 1 / denom
				} else {
					d[idx] = 0
				}
			}
		}
	}
}

func (p *incompleteCholesky) solve(b, x *Vector) {
	size := b.Size()
	rows := p.a.Rows()
	d, y := p.d.Data(), p.y.Data()
	bd, xd := b.Data(), x.Data()
	sx, sy := size.X, size.X*size.Y

	for k := 0; k < size.Z; k++ {
		for j := 0; j < size.Y; j++ {
			for i := 0; i < size.X; i++ {
				idx := i + sx*j + sy*k
				v := bd[idx]
				if i > 0 {
					v -= rows[idx-1].Right * y[idx-1]
				}
				if j > 0 {
					v -= rows[idx-sx].Up * y[idx-sx]
				}
				if k > 0 {
					v -= rows[idx-sy].Front * y[idx-sy]
				}
				y[idx] = v * d[idx]
			}
		}
	}

	for k := size.Z - 1; k >= 0; k-- {
		for j := size.Y - 1; j >= 0; j-- {
			for i := size.X - 1; i >= 0; i-- {
				idx := i + sx*j + sy*k
				v := y[idx]
				if i+1 < size.X {
					v -= rows[idx].Right * xd[idx+1]
				}
				if j+1 < size.Y {
					v -= rows[idx].Up * xd[idx+sx]
				}
				if k+1 < size.Z {
					v -= rows[idx].Front * xd[idx+sy]
				}
				xd[idx] = v * d[idx]
			}
		}
	}
}

// ICCGSolver is conjugate gradient preconditioned with IC(0).
type ICCGSolver struct {
	stats
	ctx  *dynamo.Context
	prec incompleteCholesky
	buf  pcgBuffers
}

// NewICCGSolver returns an ICCG solver.
func NewICCGSolver(ctx *dynamo.Context, maxIterations int, tolerance float64) *ICCGSolver {
	return &ICCGSolver{ctx: ctx, stats: stats{maxIterations: maxIterations, tolerance: tolerance}}
}

func (c *ICCGSolver) Solve(system *LinearSystem) (bool, error) {
	return solvePCG(c.ctx, &c.stats, system, &c.prec, &c.buf)
}
