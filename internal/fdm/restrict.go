package fdm

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
)

var restrictKernel = [4]float64{0.125, 0.375, 0.375, 0.125}

func checkLevels(finer, coarser *Vector) error {
	f, c := finer.Size(), coarser.Size()
	if f.X != 2*c.X || f.Y != 2*c.Y || f.Z != 2*c.Z {
		return fmt.Errorf("finer %s is not twice coarser %s: %w", f, c, dynamo.ErrDimensionMismatch)
	}
	return nil
}

// RestrictIndices returns the four fine indices feeding coarse index c,
// clamped at the ends of an axis of n coarse cells.
func RestrictIndices(c, n int) [4]int {
	lo, hi := 2*c-1, 2*c+2
	if c == 0 {
		lo = 2 * c
	}
	if c+1 >= n {
		hi = 2*c + 1
	}
	return [4]int{lo, 2 * c, 2*c + 1, hi}
}

// Restrict averages finer onto coarser with the separable
// (1/8, 3/8, 3/8, 1/8) kernel. finer must be exactly twice coarser on
// every axis.
func Restrict(ctx *dynamo.Context, finer, coarser *Vector) error {
	if err := checkLevels(finer, coarser); err != nil {
		return err
	}
	n := coarser.Size()
	ctx.ParallelFor3(n.X, n.Y, n.Z, func(i, j, k int) {
		iIdx := RestrictIndices(i, n.X)
		jIdx := RestrictIndices(j, n.Y)
		kIdx := RestrictIndices(k, n.Z)
		sum := 0.0
		for z := 0; z < 4; z++ {
			for y := 0; y < 4; y++ {
				wyz := restrictKernel[y] * restrictKernel[z]
				for x := 0; x < 4; x++ {
					sum += restrictKernel[x] * wyz * finer.At(iIdx[x], jIdx[y], kIdx[z])
				}
			}
		}
		coarser.Set(i, j, k, sum)
	})
	return nil
}

// correctTaps returns the two coarse cells contributing to fine index f on
// an axis of n coarse cells, weighted 3/4 and 1/4.
func correctTaps(f, n int) (near, far int) {
	c := f / 2
	near, far = c, c
	if f%2 == 0 {
		if c > 0 {
			far = c - 1
		}
	} else if c+1 < n {
		far = c + 1
	}
	return near, far
}

// Correct adds the trilinear prolongation of coarser to finer. Each fine
// cell gathers from its coarse neighbors, so workers never share writes.
func Correct(ctx *dynamo.Context, coarser, finer *Vector) error {
	if err := checkLevels(finer, coarser); err != nil {
		return err
	}
	n := coarser.Size()
	f := finer.Size()
	ctx.ParallelFor3(f.X, f.Y, f.Z, func(i, j, k int) {
		in, ifar := correctTaps(i, n.X)
		jn, jfar := correctTaps(j, n.Y)
		kn, kfar := correctTaps(k, n.Z)
		is := [2]int{in, ifar}
		js := [2]int{jn, jfar}
		ks := [2]int{kn, kfar}
		w := [2]float64{0.75, 0.25}
		sum := 0.0
		for z := 0; z < 2; z++ {
			for y := 0; y < 2; y++ {
				for x := 0; x < 2; x++ {
					sum += w[x] * w[y] * w[z] * coarser.At(is[x], js[y], ks[z])
				}
			}
		}
		finer.Add(i, j, k, sum)
	})
	return nil
}

// CoarsenSize halves a resolution.
func CoarsenSize(s grid.Size3) grid.Size3 {
	return grid.Size3{X: s.X / 2, Y: s.Y / 2, Z: s.Z / 2}
}
