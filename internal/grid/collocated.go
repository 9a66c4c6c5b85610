package grid

import (
	"github.com/san-kum/flipsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// CollocatedVectorGrid stores all three components of a vector field at the
// same sample points, either cell centers or vertices.
type CollocatedVectorGrid struct {
	layout     Layout
	resolution Size3
	spacing    r3.Vec
	origin     r3.Vec
	dataOrigin r3.Vec

	x, y, z  *Array3
	samplers [3]LinearSampler
}

// NewCollocatedVectorGrid allocates a grid filled with initial.
func NewCollocatedVectorGrid(layout Layout, resolution Size3, spacing, origin, initial r3.Vec) *CollocatedVectorGrid {
	g := &CollocatedVectorGrid{layout: layout, x: &Array3{}, y: &Array3{}, z: &Array3{}}
	g.Resize(resolution, spacing, origin, initial)
	return g
}

// NewCellCenteredVectorGrid is NewCollocatedVectorGrid with the CellCentered layout.
func NewCellCenteredVectorGrid(resolution Size3, spacing, origin, initial r3.Vec) *CollocatedVectorGrid {
	return NewCollocatedVectorGrid(CellCentered, resolution, spacing, origin, initial)
}

// Resize updates the geometry. Reallocated data is filled with initial.
func (g *CollocatedVectorGrid) Resize(resolution Size3, spacing, origin, initial r3.Vec) {
	size := g.layout.dataSize(resolution)
	if size != g.x.Size() {
		g.x.Resize(size)
		g.y.Resize(size)
		g.z.Resize(size)
		g.Fill(initial)
	}
	g.resolution = resolution
	g.spacing = spacing
	g.origin = origin
	g.dataOrigin = g.layout.dataOrigin(origin, spacing)
	g.resetSamplers()
}

func (g *CollocatedVectorGrid) resetSamplers() {
	g.samplers = [3]LinearSampler{
		NewLinearSampler(g.x, g.spacing, g.dataOrigin),
		NewLinearSampler(g.y, g.spacing, g.dataOrigin),
		NewLinearSampler(g.z, g.spacing, g.dataOrigin),
	}
}

func (g *CollocatedVectorGrid) Resolution() Size3   { return g.resolution }
func (g *CollocatedVectorGrid) GridSpacing() r3.Vec { return g.spacing }
func (g *CollocatedVectorGrid) Origin() r3.Vec      { return g.origin }
func (g *CollocatedVectorGrid) DataSize() Size3     { return g.x.Size() }

// Components exposes the per-axis arrays.
func (g *CollocatedVectorGrid) Components() (x, y, z *Array3) {
	return g.x, g.y, g.z
}

func (g *CollocatedVectorGrid) At(i, j, k int) r3.Vec {
	return r3.Vec{X: g.x.At(i, j, k), Y: g.y.At(i, j, k), Z: g.z.At(i, j, k)}
}

func (g *CollocatedVectorGrid) Set(i, j, k int, v r3.Vec) {
	g.x.Set(i, j, k, v.X)
	g.y.Set(i, j, k, v.Y)
	g.z.Set(i, j, k, v.Z)
}

// DataPosition is the world position of sample (i, j, k).
func (g *CollocatedVectorGrid) DataPosition(i, j, k int) r3.Vec {
	return r3.Add(g.dataOrigin, mulElem(g.spacing, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}))
}

// Sample interpolates the field at p.
func (g *CollocatedVectorGrid) Sample(p r3.Vec) r3.Vec {
	return r3.Vec{X: g.samplers[0].Sample(p), Y: g.samplers[1].Sample(p), Z: g.samplers[2].Sample(p)}
}

// Fill sets every sample to v.
func (g *CollocatedVectorGrid) Fill(v r3.Vec) {
	g.x.Fill(v.X)
	g.y.Fill(v.Y)
	g.z.Fill(v.Z)
}

// FillFunc evaluates fn at every data position.
func (g *CollocatedVectorGrid) FillFunc(ctx *dynamo.Context, fn func(r3.Vec) r3.Vec) {
	g.x.ParallelForEachIndex(ctx, func(i, j, k int) {
		g.Set(i, j, k, fn(g.DataPosition(i, j, k)))
	})
}

// Clone returns a deep copy.
func (g *CollocatedVectorGrid) Clone() *CollocatedVectorGrid {
	c := &CollocatedVectorGrid{
		layout:     g.layout,
		resolution: g.resolution,
		spacing:    g.spacing,
		origin:     g.origin,
		dataOrigin: g.dataOrigin,
		x:          g.x.Clone(),
		y:          g.y.Clone(),
		z:          g.z.Clone(),
	}
	c.resetSamplers()
	return c
}
