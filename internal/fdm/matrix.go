package fdm

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
)

// MatrixRow holds the coefficients of one cell's row.
type MatrixRow struct {
	Center float64
	Right  float64
	Up     float64
	Front  float64
}

// Vector is one value per cell.
type Vector = grid.Array3

// NewVector allocates a zero vector.
func NewVector(size grid.Size3) *Vector {
	return grid.NewArray3(size)
}

// Matrix is a symmetric 7-point stencil matrix with one row per cell.
type Matrix struct {
	size grid.Size3
	rows []MatrixRow
}

// NewMatrix allocates a zero matrix.
func NewMatrix(size grid.Size3) *Matrix {
	m := &Matrix{}
	m.Resize(size)
	return m
}

func (m *Matrix) Size() grid.Size3 { return m.size }

// Rows exposes the backing slice, indexed like Vector.Data.
func (m *Matrix) Rows() []MatrixRow { return m.rows }

// Resize reallocates and zeroes the rows when size changes.
func (m *Matrix) Resize(size grid.Size3) {
	if size == m.size && m.rows != nil {
		return
	}
	m.size = size
	m.rows = make([]MatrixRow, size.Len())
}

func (m *Matrix) index(i, j, k int) int {
	return i + m.size.X*(j+m.size.Y*k)
}

// Row returns a pointer to the row of cell (i, j, k).
func (m *Matrix) Row(i, j, k int) *MatrixRow {
	return &m.rows[m.index(i, j, k)]
}

// Fill sets every row to r.
func (m *Matrix) Fill(r MatrixRow) {
	for i := range m.rows {
		m.rows[i] = r
	}
}

// offDiagonal is the sum of the off-diagonal terms of row (i, j, k) applied
// to x. Negative-direction coefficients come from the neighbor rows.
func (m *Matrix) offDiagonal(x []float64, idx, i, j, k int) float64 {
	sx, sy := m.size.X, m.size.X*m.size.Y
	row := &m.rows[idx]
	sum := 0.0
	if i > 0 {
		sum += m.rows[idx-1].Right * x[idx-1]
	}
	if i+1 < m.size.X {
		sum += row.Right * x[idx+1]
	}
	if j > 0 {
		sum += m.rows[idx-sx].Up * x[idx-sx]
	}
	if j+1 < m.size.Y {
		sum += row.Up * x[idx+sx]
	}
	if k > 0 {
		sum += m.rows[idx-sy].Front * x[idx-sy]
	}
	if k+1 < m.size.Z {
		sum += row.Front * x[idx+sy]
	}
	return sum
}

// LinearSystem is the problem A x = b.
type LinearSystem struct {
	A *Matrix
	X *Vector
	B *Vector
}

// NewLinearSystem allocates a zero system for size cells.
func NewLinearSystem(size grid.Size3) *LinearSystem {
	return &LinearSystem{A: NewMatrix(size), X: NewVector(size), B: NewVector(size)}
}

// Resize reallocates every member for size cells.
func (s *LinearSystem) Resize(size grid.Size3) {
	s.A.Resize(size)
	s.X.Resize(size)
	s.B.Resize(size)
}

// Clear zeroes A, x and b.
func (s *LinearSystem) Clear() {
	s.A.Fill(MatrixRow{})
	s.X.Fill(0)
	s.B.Fill(0)
}

// Validate checks that A, x and b describe the same cells.
func (s *LinearSystem) Validate() error {
	if s.A == nil || s.X == nil || s.B == nil {
		return fmt.Errorf("linear system has nil members: %w", dynamo.ErrInvalidArgument)
	}
	size := s.A.Size()
	if s.X.Size() != size || s.B.Size() != size {
		return fmt.Errorf("A is %s, x is %s, b is %s: %w", size, s.X.Size(), s.B.Size(), dynamo.ErrDimensionMismatch)
	}
	return nil
}
