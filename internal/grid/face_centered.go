package grid

import (
	"github.com/san-kum/flipsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// FaceCenteredGrid is a MAC velocity grid. The u component lives on the
// x-faces of the cells and has (nx+1, ny, nz) samples; v and w follow the
// same pattern along y and z.
type FaceCenteredGrid struct {
	resolution Size3
	spacing    r3.Vec
	origin     r3.Vec

	u, v, w                   *Array3
	uOrigin, vOrigin, wOrigin r3.Vec
	uSampler                  LinearSampler
	vSampler                  LinearSampler
	wSampler                  LinearSampler
}

// NewFaceCenteredGrid allocates a zero velocity grid.
func NewFaceCenteredGrid(resolution Size3, spacing, origin r3.Vec) *FaceCenteredGrid {
	g := &FaceCenteredGrid{u: &Array3{}, v: &Array3{}, w: &Array3{}}
	g.Resize(resolution, spacing, origin)
	return g
}

// Resize reallocates the component arrays when the resolution changes and
// updates the geometry. Values are zeroed on reallocation.
func (g *FaceCenteredGrid) Resize(resolution Size3, spacing, origin r3.Vec) {
	g.resolution = resolution
	g.spacing = spacing
	g.origin = origin
	if resolution.IsZero() {
		g.u.Resize(Size3{})
		g.v.Resize(Size3{})
		g.w.Resize(Size3{})
	} else {
		g.u.Resize(resolution.Add(1, 0, 0))
		g.v.Resize(resolution.Add(0, 1, 0))
		g.w.Resize(resolution.Add(0, 0, 1))
	}
	h := spacing
	g.uOrigin = r3.Add(origin, r3.Vec{Y: 0.5 * h.Y, Z: 0.5 * h.Z})
	g.vOrigin = r3.Add(origin, r3.Vec{X: 0.5 * h.X, Z: 0.5 * h.Z})
	g.wOrigin = r3.Add(origin, r3.Vec{X: 0.5 * h.X, Y: 0.5 * h.Y})
	g.resetSamplers()
}

func (g *FaceCenteredGrid) resetSamplers() {
	g.uSampler = NewLinearSampler(g.u, g.spacing, g.uOrigin)
	g.vSampler = NewLinearSampler(g.v, g.spacing, g.vOrigin)
	g.wSampler = NewLinearSampler(g.w, g.spacing, g.wOrigin)
}

func (g *FaceCenteredGrid) Resolution() Size3   { return g.resolution }
func (g *FaceCenteredGrid) GridSpacing() r3.Vec { return g.spacing }
func (g *FaceCenteredGrid) Origin() r3.Vec      { return g.origin }

// U, V and W expose the component arrays for direct indexing.
func (g *FaceCenteredGrid) U() *Array3 { return g.u }
func (g *FaceCenteredGrid) V() *Array3 { return g.v }
func (g *FaceCenteredGrid) W() *Array3 { return g.w }

// USize is the extent of the u array.
func (g *FaceCenteredGrid) USize() Size3 { return g.u.Size() }
func (g *FaceCenteredGrid) VSize() Size3 { return g.v.Size() }
func (g *FaceCenteredGrid) WSize() Size3 { return g.w.Size() }

func (g *FaceCenteredGrid) UOrigin() r3.Vec { return g.uOrigin }
func (g *FaceCenteredGrid) VOrigin() r3.Vec { return g.vOrigin }
func (g *FaceCenteredGrid) WOrigin() r3.Vec { return g.wOrigin }

// UPosition is the world position of u(i, j, k).
func (g *FaceCenteredGrid) UPosition(i, j, k int) r3.Vec {
	return r3.Add(g.uOrigin, mulElem(g.spacing, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}))
}

func (g *FaceCenteredGrid) VPosition(i, j, k int) r3.Vec {
	return r3.Add(g.vOrigin, mulElem(g.spacing, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}))
}

func (g *FaceCenteredGrid) WPosition(i, j, k int) r3.Vec {
	return r3.Add(g.wOrigin, mulElem(g.spacing, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}))
}

// CellCenterPosition is the world position of cell (i, j, k).
func (g *FaceCenteredGrid) CellCenterPosition(i, j, k int) r3.Vec {
	return CellCenter(g.origin, g.spacing, i, j, k)
}

// CellCenter is origin + spacing*(i+0.5, j+0.5, k+0.5).
func CellCenter(origin, spacing r3.Vec, i, j, k int) r3.Vec {
	return r3.Add(origin, mulElem(spacing, r3.Vec{X: float64(i) + 0.5, Y: float64(j) + 0.5, Z: float64(k) + 0.5}))
}

// BoundingBox returns the lower and upper corners of the domain.
func (g *FaceCenteredGrid) BoundingBox() (lower, upper r3.Vec) {
	ext := mulElem(g.spacing, r3.Vec{X: float64(g.resolution.X), Y: float64(g.resolution.Y), Z: float64(g.resolution.Z)})
	return g.origin, r3.Add(g.origin, ext)
}

// Sample interpolates each component from its own staggered lattice.
func (g *FaceCenteredGrid) Sample(x r3.Vec) r3.Vec {
	return r3.Vec{X: g.uSampler.Sample(x), Y: g.vSampler.Sample(x), Z: g.wSampler.Sample(x)}
}

// Samplers returns the per-component samplers, used by particle transfer.
func (g *FaceCenteredGrid) Samplers() (u, v, w LinearSampler) {
	return g.uSampler, g.vSampler, g.wSampler
}

// ValueAtCellCenter averages the two faces bounding the cell on each axis.
func (g *FaceCenteredGrid) ValueAtCellCenter(i, j, k int) r3.Vec {
	return r3.Vec{
		X: 0.5 * (g.u.At(i, j, k) + g.u.At(i+1, j, k)),
		Y: 0.5 * (g.v.At(i, j, k) + g.v.At(i, j+1, k)),
		Z: 0.5 * (g.w.At(i, j, k) + g.w.At(i, j, k+1)),
	}
}

// DivergenceAtCellCenter is the discrete divergence of cell (i, j, k).
func (g *FaceCenteredGrid) DivergenceAtCellCenter(i, j, k int) float64 {
	h := g.spacing
	return (g.u.At(i+1, j, k)-g.u.At(i, j, k))/h.X +
		(g.v.At(i, j+1, k)-g.v.At(i, j, k))/h.Y +
		(g.w.At(i, j, k+1)-g.w.At(i, j, k))/h.Z
}

// Fill sets every face to the matching component of value.
func (g *FaceCenteredGrid) Fill(value r3.Vec) {
	g.u.Fill(value.X)
	g.v.Fill(value.Y)
	g.w.Fill(value.Z)
}

// FillFunc evaluates fn at every face position.
func (g *FaceCenteredGrid) FillFunc(ctx *dynamo.Context, fn func(r3.Vec) r3.Vec) {
	g.ParallelForEachUIndex(ctx, func(i, j, k int) {
		g.u.Set(i, j, k, fn(g.UPosition(i, j, k)).X)
	})
	g.ParallelForEachVIndex(ctx, func(i, j, k int) {
		g.v.Set(i, j, k, fn(g.VPosition(i, j, k)).Y)
	})
	g.ParallelForEachWIndex(ctx, func(i, j, k int) {
		g.w.Set(i, j, k, fn(g.WPosition(i, j, k)).Z)
	})
}

func (g *FaceCenteredGrid) ForEachUIndex(fn func(i, j, k int)) { g.u.ForEachIndex(fn) }
func (g *FaceCenteredGrid) ForEachVIndex(fn func(i, j, k int)) { g.v.ForEachIndex(fn) }
func (g *FaceCenteredGrid) ForEachWIndex(fn func(i, j, k int)) { g.w.ForEachIndex(fn) }

func (g *FaceCenteredGrid) ParallelForEachUIndex(ctx *dynamo.Context, fn func(i, j, k int)) {
	g.u.ParallelForEachIndex(ctx, fn)
}

func (g *FaceCenteredGrid) ParallelForEachVIndex(ctx *dynamo.Context, fn func(i, j, k int)) {
	g.v.ParallelForEachIndex(ctx, fn)
}

func (g *FaceCenteredGrid) ParallelForEachWIndex(ctx *dynamo.Context, fn func(i, j, k int)) {
	g.w.ParallelForEachIndex(ctx, fn)
}

// Set copies geometry and values from other.
func (g *FaceCenteredGrid) Set(other *FaceCenteredGrid) {
	g.resolution = other.resolution
	g.spacing = other.spacing
	g.origin = other.origin
	g.uOrigin, g.vOrigin, g.wOrigin = other.uOrigin, other.vOrigin, other.wOrigin
	g.u.CopyFrom(other.u)
	g.v.CopyFrom(other.v)
	g.w.CopyFrom(other.w)
	g.resetSamplers()
}

// Clone returns a deep copy.
func (g *FaceCenteredGrid) Clone() *FaceCenteredGrid {
	c := &FaceCenteredGrid{u: &Array3{}, v: &Array3{}, w: &Array3{}}
	c.Set(g)
	return c
}

// HasSameShape reports whether other has the same resolution, spacing and origin.
func (g *FaceCenteredGrid) HasSameShape(other *FaceCenteredGrid) bool {
	return g.resolution == other.resolution && g.spacing == other.spacing && g.origin == other.origin
}
