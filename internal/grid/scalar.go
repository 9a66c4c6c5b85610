package grid

import (
	"github.com/san-kum/flipsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Layout selects where a grid stores its samples.
type Layout int

const (
	// CellCentered stores one sample at the center of every cell.
	CellCentered Layout = iota
	// VertexCentered stores samples on cell corners, (nx+1, ny+1, nz+1) of them.
	VertexCentered
)

func (l Layout) dataSize(resolution Size3) Size3 {
	if l == VertexCentered && !resolution.IsZero() {
		return resolution.Add(1, 1, 1)
	}
	return resolution
}

func (l Layout) dataOrigin(origin, spacing r3.Vec) r3.Vec {
	if l == VertexCentered {
		return origin
	}
	return r3.Add(origin, r3.Scale(0.5, spacing))
}

// ScalarGrid is a scalar field sampled on a cell- or vertex-centered lattice.
type ScalarGrid struct {
	layout     Layout
	resolution Size3
	spacing    r3.Vec
	origin     r3.Vec
	dataOrigin r3.Vec
	data       *Array3
	sampler    LinearSampler
}

// NewScalarGrid allocates a grid filled with initial.
func NewScalarGrid(layout Layout, resolution Size3, spacing, origin r3.Vec, initial float64) *ScalarGrid {
	g := &ScalarGrid{layout: layout, data: &Array3{}}
	g.Resize(resolution, spacing, origin, initial)
	return g
}

// NewCellCenteredScalarGrid is NewScalarGrid with the CellCentered layout.
func NewCellCenteredScalarGrid(resolution Size3, spacing, origin r3.Vec, initial float64) *ScalarGrid {
	return NewScalarGrid(CellCentered, resolution, spacing, origin, initial)
}

// NewVertexCenteredScalarGrid is NewScalarGrid with the VertexCentered layout.
func NewVertexCenteredScalarGrid(resolution Size3, spacing, origin r3.Vec, initial float64) *ScalarGrid {
	return NewScalarGrid(VertexCentered, resolution, spacing, origin, initial)
}

// Resize updates the geometry. Reallocated data is filled with initial.
func (g *ScalarGrid) Resize(resolution Size3, spacing, origin r3.Vec, initial float64) {
	size := g.layout.dataSize(resolution)
	if size != g.data.Size() {
		g.data.Resize(size)
		g.data.Fill(initial)
	}
	g.resolution = resolution
	g.spacing = spacing
	g.origin = origin
	g.dataOrigin = g.layout.dataOrigin(origin, spacing)
	g.sampler = NewLinearSampler(g.data, spacing, g.dataOrigin)
}

func (g *ScalarGrid) Layout() Layout         { return g.layout }
func (g *ScalarGrid) Resolution() Size3      { return g.resolution }
func (g *ScalarGrid) GridSpacing() r3.Vec    { return g.spacing }
func (g *ScalarGrid) Origin() r3.Vec         { return g.origin }
func (g *ScalarGrid) DataOrigin() r3.Vec     { return g.dataOrigin }
func (g *ScalarGrid) DataSize() Size3        { return g.data.Size() }
func (g *ScalarGrid) Data() *Array3          { return g.data }
func (g *ScalarGrid) At(i, j, k int) float64 { return g.data.At(i, j, k) }
func (g *ScalarGrid) Set(i, j, k int, v float64) {
	g.data.Set(i, j, k, v)
}

// DataPosition is the world position of sample (i, j, k).
func (g *ScalarGrid) DataPosition(i, j, k int) r3.Vec {
	return r3.Add(g.dataOrigin, mulElem(g.spacing, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}))
}

// Sample interpolates the field at x.
func (g *ScalarGrid) Sample(x r3.Vec) float64 {
	return g.sampler.Sample(x)
}

// Gradient interpolates the central-difference gradients of the eight
// samples surrounding x.
func (g *ScalarGrid) Gradient(x r3.Vec) r3.Vec {
	idx, w := g.sampler.CoordinatesAndWeights(x)
	var result r3.Vec
	for n := range idx {
		if w[n] == 0 {
			continue
		}
		result = r3.Add(result, r3.Scale(w[n], g.GradientAtDataPoint(idx[n].I, idx[n].J, idx[n].K)))
	}
	return result
}

// GradientAtDataPoint uses central differences, falling back to the
// sample itself past the edges.
func (g *ScalarGrid) GradientAtDataPoint(i, j, k int) r3.Vec {
	size := g.data.Size()
	left := g.data.At(max(i-1, 0), j, k)
	right := g.data.At(min(i+1, size.X-1), j, k)
	down := g.data.At(i, max(j-1, 0), k)
	up := g.data.At(i, min(j+1, size.Y-1), k)
	back := g.data.At(i, j, max(k-1, 0))
	front := g.data.At(i, j, min(k+1, size.Z-1))
	return r3.Vec{
		X: 0.5 * (right - left) / g.spacing.X,
		Y: 0.5 * (up - down) / g.spacing.Y,
		Z: 0.5 * (front - back) / g.spacing.Z,
	}
}

// Fill sets every sample to v.
func (g *ScalarGrid) Fill(v float64) {
	g.data.Fill(v)
}

// FillFunc evaluates fn at every data position.
func (g *ScalarGrid) FillFunc(ctx *dynamo.Context, fn func(r3.Vec) float64) {
	g.data.ParallelForEachIndex(ctx, func(i, j, k int) {
		g.data.Set(i, j, k, fn(g.DataPosition(i, j, k)))
	})
}

// Clone returns a deep copy.
func (g *ScalarGrid) Clone() *ScalarGrid {
	c := &ScalarGrid{layout: g.layout, data: g.data.Clone()}
	c.resolution = g.resolution
	c.spacing = g.spacing
	c.origin = g.origin
	c.dataOrigin = g.dataOrigin
	c.sampler = NewLinearSampler(c.data, c.spacing, c.dataOrigin)
	return c
}
