package fdm

import "github.com/san-kum/flipsim/internal/dynamo"

// RelaxJacobi performs one Jacobi sweep from x into xTemp. Rows with a zero
// diagonal keep their previous value.
func RelaxJacobi(ctx *dynamo.Context, a *Matrix, b, x, xTemp *Vector) {
	size := a.Size()
	xd, bd, td := x.Data(), b.Data(), xTemp.Data()
	ctx.ParallelFor3(size.X, size.Y, size.Z, func(i, j, k int) {
		idx := a.index(i, j, k)
		center := a.rows[idx].Center
		if center == 0 {
			td[idx] = xd[idx]
			return
		}
		td[idx] = (bd[idx] - a.offDiagonal(xd, idx, i, j, k)) / center
	})
}

// RelaxGaussSeidel performs one lexicographic Gauss-Seidel sweep in place
// with successive over-relaxation factor sor.
func RelaxGaussSeidel(a *Matrix, b *Vector, sor float64, x *Vector) {
	size := a.Size()
	xd, bd := x.Data(), b.Data()
	for k := 0; k < size.Z; k++ {
		for j := 0; j < size.Y; j++ {
			for i := 0; i < size.X; i++ {
				gaussSeidelUpdate(a, xd, bd, sor, i, j, k)
			}
		}
	}
}

// RelaxGaussSeidelRedBlack updates all cells with even i+j+k, then all odd
// ones. Cells of one color only read the other color, so each half-sweep
// runs in parallel.
func RelaxGaussSeidelRedBlack(ctx *dynamo.Context, a *Matrix, b *Vector, sor float64, x *Vector) {
	size := a.Size()
	xd, bd := x.Data(), b.Data()
	for color := 0; color < 2; color++ {
		ctx.ParallelFor(size.Y*size.Z, 4, func(start, end int) {
			for row := start; row < end; row++ {
				j := row % size.Y
				k := row / size.Y
				i0 := (j + k + color) % 2
				for i := i0; i < size.X; i += 2 {
					gaussSeidelUpdate(a, xd, bd, sor, i, j, k)
				}
			}
		})
	}
}

func gaussSeidelUpdate(a *Matrix, xd, bd []float64, sor float64, i, j, k int) {
	idx := a.index(i, j, k)
	center := a.rows[idx].Center
	if center == 0 {
		return
	}
	gs := (bd[idx] - a.offDiagonal(xd, idx, i, j, k)) / center
	xd[idx] = (1-sor)*xd[idx] + sor*gs
}
