// Package diffusion applies explicit viscosity to grid quantities.
package diffusion

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

type marker uint8

const (
	fluid marker = iota
	air
	solid
)

// ForwardEuler integrates du/dt = mu * laplacian(u) with one explicit step.
// Only fluid samples are updated and only fluid neighbors contribute.
type ForwardEuler struct {
	ctx     *dynamo.Context
	markers []marker
}

func NewForwardEuler(ctx *dynamo.Context) *ForwardEuler {
	return &ForwardEuler{ctx: ctx}
}

// StableTimeStep is the largest dt for which the explicit step is stable.
func StableTimeStep(coefficient float64, spacing r3.Vec) float64 {
	if coefficient <= 0 {
		return 0
	}
	h := grid.MinComponent(spacing)
	return h * h / (12 * coefficient)
}

func (d *ForwardEuler) buildMarkers(size grid.Size3, pos func(i, j, k int) r3.Vec, boundarySDF, fluidSDF grid.ScalarField) {
	if cap(d.markers) < size.Len() {
		d.markers = make([]marker, size.Len())
	}
	d.markers = d.markers[:size.Len()]
	d.ctx.ParallelFor3(size.X, size.Y, size.Z, func(i, j, k int) {
		p := pos(i, j, k)
		m := air
		switch {
		case levelset.IsInsideSDF(boundarySDF.Sample(p)):
			m = solid
		case levelset.IsInsideSDF(fluidSDF.Sample(p)):
			m = fluid
		}
		d.markers[i+size.X*(j+size.Y*k)] = m
	})
}

func (d *ForwardEuler) laplacian(data *grid.Array3, h r3.Vec, i, j, k int) float64 {
	size := data.Size()
	at := func(i, j, k int) marker { return d.markers[i+size.X*(j+size.Y*k)] }
	if at(i, j, k) != fluid {
		return 0
	}
	center := data.At(i, j, k)

	var dl, dr, dd, du, db, df float64
	if i > 0 && at(i-1, j, k) == fluid {
		dl = center - data.At(i-1, j, k)
	}
	if i+1 < size.X && at(i+1, j, k) == fluid {
		dr = data.At(i+1, j, k) - center
	}
	if j > 0 && at(i, j-1, k) == fluid {
		dd = center - data.At(i, j-1, k)
	}
	if j+1 < size.Y && at(i, j+1, k) == fluid {
		du = data.At(i, j+1, k) - center
	}
	if k > 0 && at(i, j, k-1) == fluid {
		db = center - data.At(i, j, k-1)
	}
	if k+1 < size.Z && at(i, j, k+1) == fluid {
		df = data.At(i, j, k+1) - center
	}
	return (dr-dl)/(h.X*h.X) + (du-dd)/(h.Y*h.Y) + (df-db)/(h.Z*h.Z)
}

func (d *ForwardEuler) diffuse(src, dst *grid.Array3, coefficient, dt float64, h r3.Vec, pos func(i, j, k int) r3.Vec, boundarySDF, fluidSDF grid.ScalarField) {
	d.buildMarkers(src.Size(), pos, boundarySDF, fluidSDF)
	dst.ParallelForEachIndex(d.ctx, func(i, j, k int) {
		if !levelset.IsInsideSDF(boundarySDF.Sample(pos(i, j, k))) {
			dst.Set(i, j, k, src.At(i, j, k)+coefficient*dt*d.laplacian(src, h, i, j, k))
		}
	})
}

// SolveFaceCentered diffuses source into dest. The grids must not alias.
func (d *ForwardEuler) SolveFaceCentered(source *grid.FaceCenteredGrid, coefficient, dt float64, dest *grid.FaceCenteredGrid, boundarySDF, fluidSDF grid.ScalarField) error {
	if !source.HasSameShape(dest) {
		return fmt.Errorf("diffusion %s to %s: %w", source.Resolution(), dest.Resolution(), dynamo.ErrDimensionMismatch)
	}
	if source == dest {
		return fmt.Errorf("diffusion source aliases destination: %w", dynamo.ErrInvalidArgument)
	}
	h := source.GridSpacing()
	d.diffuse(source.U(), dest.U(), coefficient, dt, h, source.UPosition, boundarySDF, fluidSDF)
	d.diffuse(source.V(), dest.V(), coefficient, dt, h, source.VPosition, boundarySDF, fluidSDF)
	d.diffuse(source.W(), dest.W(), coefficient, dt, h, source.WPosition, boundarySDF, fluidSDF)
	return nil
}

// SolveScalar diffuses a scalar grid of either layout.
func (d *ForwardEuler) SolveScalar(source *grid.ScalarGrid, coefficient, dt float64, dest *grid.ScalarGrid, boundarySDF, fluidSDF grid.ScalarField) error {
	if source.DataSize() != dest.DataSize() {
		return fmt.Errorf("diffusion %s to %s: %w", source.DataSize(), dest.DataSize(), dynamo.ErrDimensionMismatch)
	}
	if source == dest {
		return fmt.Errorf("diffusion source aliases destination: %w", dynamo.ErrInvalidArgument)
	}
	d.diffuse(source.Data(), dest.Data(), coefficient, dt, source.GridSpacing(), source.DataPosition, boundarySDF, fluidSDF)
	return nil
}
