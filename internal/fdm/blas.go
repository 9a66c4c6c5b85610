package fdm

import (
	"fmt"
	"math"

	"github.com/san-kum/flipsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

func checkSizes(m *Matrix, vs ...*Vector) error {
	for _, v := range vs {
		if v.Size() != m.Size() {
			return fmt.Errorf("matrix is %s, vector is %s: %w", m.Size(), v.Size(), dynamo.ErrDimensionMismatch)
		}
	}
	return nil
}

// Dot returns a . b.
func Dot(a, b *Vector) float64 {
	return floats.Dot(a.Data(), b.Data())
}

// AXPlusY stores a*x + y in result. result may alias x or y.
func AXPlusY(a float64, x, y, result *Vector) {
	floats.AddScaledTo(result.Data(), y.Data(), a, x.Data())
}

// L2Norm is the Euclidean norm.
func L2Norm(v *Vector) float64 {
	return math.Sqrt(Dot(v, v))
}

// LInfNorm is the largest absolute entry.
func LInfNorm(v *Vector) float64 {
	if len(v.Data()) == 0 {
		return 0
	}
	return floats.Norm(v.Data(), math.Inf(1))
}

// MVM stores m*v in result. result must not alias v.
func MVM(ctx *dynamo.Context, m *Matrix, v, result *Vector) error {
	if err := checkSizes(m, v, result); err != nil {
		return err
	}
	size := m.Size()
	vd, rd := v.Data(), result.Data()
	ctx.ParallelFor3(size.X, size.Y, size.Z, func(i, j, k int) {
		idx := m.index(i, j, k)
		rd[idx] = m.rows[idx].Center*vd[idx] + m.offDiagonal(vd, idx, i, j, k)
	})
	return nil
}

// Residual stores b - a*x in result. result must not alias x.
func Residual(ctx *dynamo.Context, a *Matrix, x, b, result *Vector) error {
	if err := checkSizes(a, x, b, result); err != nil {
		return err
	}
	size := a.Size()
	xd, bd, rd := x.Data(), b.Data(), result.Data()
	ctx.ParallelFor3(size.X, size.Y, size.Z, func(i, j, k int) {
		idx := a.index(i, j, k)
		rd[idx] = bd[idx] - a.rows[idx].Center*xd[idx] - a.offDiagonal(xd, idx, i, j, k)
	})
	return nil
}
