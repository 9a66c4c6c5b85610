package levelset

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
)

// ExtrapolateToRegion fills invalid cells of output with the average of
// their valid face neighbors, growing the valid region by one cell per
// iteration for depth iterations. valid is indexed like input.Data().
// output may alias input.
func ExtrapolateToRegion(ctx *dynamo.Context, input *grid.Array3, valid []bool, depth int, output *grid.Array3) error {
	size := input.Size()
	if len(valid) != size.Len() {
		return fmt.Errorf("valid mask has %d entries for %s: %w", len(valid), size, dynamo.ErrDimensionMismatch)
	}
	if output != input {
		output.CopyFrom(input)
	}

	valid0 := make([]bool, len(valid))
	valid1 := make([]bool, len(valid))
	copy(valid0, valid)
	data := output.Data()

	for iter := 0; iter < depth; iter++ {
		ctx.ParallelFor3(size.X, size.Y, size.Z, func(i, j, k int) {
			idx := output.Index(i, j, k)
			if valid0[idx] {
				valid1[idx] = true
				return
			}
			sum := 0.0
			count := 0
			visit := func(n int) {
				if valid0[n] {
					sum += data[n]
					count++
				}
			}
			if i+1 < size.X {
				visit(idx + 1)
			}
			if i > 0 {
				visit(idx - 1)
			}
			if j+1 < size.Y {
				visit(idx + size.X)
			}
			if j > 0 {
				visit(idx - size.X)
			}
			if k+1 < size.Z {
				visit(idx + size.X*size.Y)
			}
			if k > 0 {
				visit(idx - size.X*size.Y)
			}
			if count > 0 {
				data[idx] = sum / float64(count)
				valid1[idx] = true
			} else {
				valid1[idx] = false
			}
		})
		valid0, valid1 = valid1, valid0
	}
	return nil
}
