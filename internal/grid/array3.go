package grid

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
)

// Array3 is a dense 3-D array of float64 stored with i varying fastest.
type Array3 struct {
	size Size3
	data []float64
}

// NewArray3 allocates a zeroed array.
func NewArray3(size Size3) *Array3 {
	a := &Array3{}
	a.Resize(size)
	return a
}

// Size returns the extent of the array.
func (a *Array3) Size() Size3 {
	return a.size
}

// Data exposes the backing slice.
func (a *Array3) Data() []float64 {
	return a.data
}

// Index converts (i, j, k) to a linear offset.
func (a *Array3) Index(i, j, k int) int {
	return i + a.size.X*(j+a.size.Y*k)
}

func (a *Array3) At(i, j, k int) float64 {
	return a.data[i+a.size.X*(j+a.size.Y*k)]
}

func (a *Array3) Set(i, j, k int, v float64) {
	a.data[i+a.size.X*(j+a.size.Y*k)] = v
}

func (a *Array3) Add(i, j, k int, v float64) {
	a.data[i+a.size.X*(j+a.size.Y*k)] += v
}

// Resize changes the extent. Existing values are kept only when the size
// is unchanged; otherwise the array is zeroed.
func (a *Array3) Resize(size Size3) {
	if size == a.size && a.data != nil {
		return
	}
	if size.IsZero() {
		a.size = Size3{}
		a.data = nil
		return
	}
	a.size = size
	a.data = make([]float64, size.Len())
}

// Fill sets every element to v.
func (a *Array3) Fill(v float64) {
	for i := range a.data {
		a.data[i] = v
	}
}

// CopyFrom resizes a to b's extent and copies its values.
func (a *Array3) CopyFrom(b *Array3) {
	if a.size != b.size || len(a.data) != len(b.data) {
		a.size = b.size
		a.data = make([]float64, len(b.data))
	}
	copy(a.data, b.data)
}

// Clone returns a deep copy.
func (a *Array3) Clone() *Array3 {
	c := &Array3{}
	c.CopyFrom(a)
	return c
}

// Swap exchanges the contents of two arrays.
func (a *Array3) Swap(b *Array3) {
	a.size, b.size = b.size, a.size
	a.data, b.data = b.data, a.data
}

// ForEachIndex visits every index in storage order.
func (a *Array3) ForEachIndex(fn func(i, j, k int)) {
	for k := 0; k < a.size.Z; k++ {
		for j := 0; j < a.size.Y; j++ {
			for i := 0; i < a.size.X; i++ {
				fn(i, j, k)
			}
		}
	}
}

// ParallelForEachIndex visits every index using ctx's workers.
func (a *Array3) ParallelForEachIndex(ctx *dynamo.Context, fn func(i, j, k int)) {
	ctx.ParallelFor3(a.size.X, a.size.Y, a.size.Z, fn)
}

// CheckSameSize returns ErrDimensionMismatch unless all arrays share one size.
func CheckSameSize(arrays ...*Array3) error {
	for _, b := range arrays[1:] {
		if b.size != arrays[0].size {
			return fmt.Errorf("array sizes %s and %s: %w", arrays[0].size, b.size, dynamo.ErrDimensionMismatch)
		}
	}
	return nil
}
