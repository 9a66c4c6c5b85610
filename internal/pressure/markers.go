package pressure

import (
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/fdm"
	"github.com/san-kum/flipsim/internal/grid"
)

// Marker classifies a cell for the blocked discretization.
type Marker uint8

const (
	Fluid Marker = iota
	Air
	Boundary
)

func (m Marker) String() string {
	switch m {
	case Fluid:
		return "fluid"
	case Air:
		return "air"
	case Boundary:
		return "boundary"
	}
	return "unknown"
}

// Markers is a cell-centered marker array.
type Markers struct {
	size grid.Size3
	data []Marker
}

func newMarkers(size grid.Size3) *Markers {
	return &Markers{size: size, data: make([]Marker, size.Len())}
}

func (m *Markers) Size() grid.Size3 { return m.size }

func (m *Markers) At(i, j, k int) Marker {
	return m.data[i+m.size.X*(j+m.size.Y*k)]
}

func (m *Markers) set(i, j, k int, v Marker) {
	m.data[i+m.size.X*(j+m.size.Y*k)] = v
}

func (m *Markers) resize(size grid.Size3) {
	if m.size == size {
		return
	}
	m.size = size
	m.data = make([]Marker, size.Len())
}

// coarsenMarkers votes the 4x4x4 restriction footprint of every coarse cell.
// Ties resolve fluid over air over boundary.
func coarsenMarkers(ctx *dynamo.Context, finer, coarser *Markers) {
	n := coarser.size
	ctx.ParallelFor3(n.X, n.Y, n.Z, func(i, j, k int) {
		iIdx := fdm.RestrictIndices(i, n.X)
		jIdx := fdm.RestrictIndices(j, n.Y)
		kIdx := fdm.RestrictIndices(k, n.Z)
		var count [3]int
		for z := 0; z < 4; z++ {
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					count[finer.At(iIdx[x], jIdx[y], kIdx[z])]++
				}
			}
		}
		coarser.set(i, j, k, argmax3(count))
	})
}

func argmax3(c [3]int) Marker {
	switch {
	case c[Fluid] >= c[Air] && c[Fluid] >= c[Boundary]:
		return Fluid
	case c[Air] >= c[Boundary]:
		return Air
	}
	return Boundary
}
