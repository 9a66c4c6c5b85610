package grid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// LinearSampler interpolates an Array3 whose element (i, j, k) sits at
// origin + spacing*(i, j, k). Points outside the data are clamped.
type LinearSampler struct {
	arr        *Array3
	origin     r3.Vec
	invSpacing r3.Vec
}

// NewLinearSampler binds a sampler to arr. The sampler reads arr lazily,
// so later writes are seen by Sample.
func NewLinearSampler(arr *Array3, spacing, origin r3.Vec) LinearSampler {
	return LinearSampler{
		arr:        arr,
		origin:     origin,
		invSpacing: r3.Vec{X: 1 / spacing.X, Y: 1 / spacing.Y, Z: 1 / spacing.Z},
	}
}

// barycentric splits a normalized coordinate into a lower index, the upper
// index and the fractional weight, clamped to [0, n-1].
func barycentric(x float64, n int) (i, ip1 int, f float64) {
	s := math.Floor(x)
	i = int(s)
	f = x - s
	hi := n - 1
	switch {
	case hi <= 0:
		return 0, 0, 0
	case i < 0:
		i, f = 0, 0
	case i > hi-1:
		i, f = hi-1, 1
	}
	ip1 = i + 1
	if ip1 > hi {
		ip1 = hi
	}
	return i, ip1, f
}

// Index3 is an (i, j, k) triple.
type Index3 struct {
	I, J, K int
}

// CoordinatesAndWeights returns the eight data points surrounding pt and
// their trilinear weights.
func (s LinearSampler) CoordinatesAndWeights(pt r3.Vec) ([8]Index3, [8]float64) {
	size := s.arr.Size()
	n := mulElem(r3.Sub(pt, s.origin), s.invSpacing)
	i, ip1, fx := barycentric(n.X, size.X)
	j, jp1, fy := barycentric(n.Y, size.Y)
	k, kp1, fz := barycentric(n.Z, size.Z)

	idx := [8]Index3{
		{i, j, k}, {ip1, j, k}, {i, jp1, k}, {ip1, jp1, k},
		{i, j, kp1}, {ip1, j, kp1}, {i, jp1, kp1}, {ip1, jp1, kp1},
	}
	w := [8]float64{
		(1 - fx) * (1 - fy) * (1 - fz),
		fx * (1 - fy) * (1 - fz),
		(1 - fx) * fy * (1 - fz),
		fx * fy * (1 - fz),
		(1 - fx) * (1 - fy) * fz,
		fx * (1 - fy) * fz,
		(1 - fx) * fy * fz,
		fx * fy * fz,
	}
	return idx, w
}

// Sample returns the trilinear interpolation at pt.
func (s LinearSampler) Sample(pt r3.Vec) float64 {
	idx, w := s.CoordinatesAndWeights(pt)
	sum := 0.0
	for n := range idx {
		if w[n] != 0 {
			sum += w[n] * s.arr.At(idx[n].I, idx[n].J, idx[n].K)
		}
	}
	return sum
}
