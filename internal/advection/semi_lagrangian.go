// Package advection transports grid quantities through a flow field.
package advection

import (
	"fmt"
	"math"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/integrators"
	"gonum.org/v1/gonum/spatial/r3"
)

// SemiLagrangian samples every destination point at the foot of its
// backward characteristic. Points inside the solid keep their output
// value.
type SemiLagrangian struct {
	ctx    *dynamo.Context
	tracer integrators.Tracer
}

// NewSemiLagrangian backtraces with the midpoint rule.
func NewSemiLagrangian(ctx *dynamo.Context) *SemiLagrangian {
	return &SemiLagrangian{ctx: ctx, tracer: integrators.NewMidpoint()}
}

// SetTracer replaces the per-sub-step integrator.
func (s *SemiLagrangian) SetTracer(t integrators.Tracer) {
	s.tracer = t
}

// backTrace follows flow backwards for dt from start. The trace is split
// into sub-steps moving at most h each and stops at the first crossing of
// the solid surface, returning the interpolated crossing point.
func (s *SemiLagrangian) backTrace(flow grid.VectorField, dt, h float64, start r3.Vec, boundarySDF grid.ScalarField) r3.Vec {
	remaining := dt
	pt0, pt1 := start, start

	for remaining > dynamo.Epsilon {
		vel0 := flow.Sample(pt0)
		subSteps := math.Max(math.Ceil(r3.Norm(vel0)*remaining/h), 1)
		step := remaining / subSteps

		pt1 = s.tracer.Trace(flow, pt0, -step)

		phi0 := boundarySDF.Sample(pt0)
		phi1 := boundarySDF.Sample(pt1)
		if phi0*phi1 < 0 {
			w := math.Abs(phi1) / (math.Abs(phi0) + math.Abs(phi1))
			pt1 = r3.Add(r3.Scale(w, pt0), r3.Scale(1-w, pt1))
			break
		}

		remaining -= step
		pt0 = pt1
	}
	return pt1
}

func checkSpacing(spacing r3.Vec) (float64, error) {
	h := grid.MinComponent(spacing)
	if !(h > 0) {
		return 0, fmt.Errorf("grid spacing %v: %w", spacing, dynamo.ErrInvalidArgument)
	}
	return h, nil
}

func orOpen(sdf grid.ScalarField) grid.ScalarField {
	if sdf == nil {
		return grid.ConstantScalarField(math.MaxFloat64)
	}
	return sdf
}

// AdvectScalar advects a scalar grid of either layout. input and output
// must share layout, resolution, spacing and origin.
func (s *SemiLagrangian) AdvectScalar(input *grid.ScalarGrid, flow grid.VectorField, dt float64, output *grid.ScalarGrid, boundarySDF grid.ScalarField) error {
	if input.DataSize() != output.DataSize() {
		return fmt.Errorf("scalar advection %s to %s: %w", input.DataSize(), output.DataSize(), dynamo.ErrDimensionMismatch)
	}
	h, err := checkSpacing(output.GridSpacing())
	if err != nil {
		return err
	}
	boundarySDF = orOpen(boundarySDF)

	output.Data().ParallelForEachIndex(s.ctx, func(i, j, k int) {
		pt := output.DataPosition(i, j, k)
		if boundarySDF.Sample(pt) > 0 {
			output.Set(i, j, k, input.Sample(s.backTrace(flow, dt, h, pt, boundarySDF)))
		}
	})
	return nil
}

// AdvectCollocated advects a collocated vector grid.
func (s *SemiLagrangian) AdvectCollocated(input *grid.CollocatedVectorGrid, flow grid.VectorField, dt float64, output *grid.CollocatedVectorGrid, boundarySDF grid.ScalarField) error {
	if input.DataSize() != output.DataSize() {
		return fmt.Errorf("vector advection %s to %s: %w", input.DataSize(), output.DataSize(), dynamo.ErrDimensionMismatch)
	}
	h, err := checkSpacing(output.GridSpacing())
	if err != nil {
		return err
	}
	boundarySDF = orOpen(boundarySDF)

	x, _, _ := output.Components()
	x.ParallelForEachIndex(s.ctx, func(i, j, k int) {
		pt := output.DataPosition(i, j, k)
		if boundarySDF.Sample(pt) > 0 {
			output.Set(i, j, k, input.Sample(s.backTrace(flow, dt, h, pt, boundarySDF)))
		}
	})
	return nil
}

// AdvectFaceCentered advects each velocity component at its own faces.
func (s *SemiLagrangian) AdvectFaceCentered(input *grid.FaceCenteredGrid, flow grid.VectorField, dt float64, output *grid.FaceCenteredGrid, boundarySDF grid.ScalarField) error {
	if !input.HasSameShape(output) {
		return fmt.Errorf("face advection %s to %s: %w", input.Resolution(), output.Resolution(), dynamo.ErrDimensionMismatch)
	}
	h, err := checkSpacing(output.GridSpacing())
	if err != nil {
		return err
	}
	boundarySDF = orOpen(boundarySDF)

	u, v, w := output.U(), output.V(), output.W()
	output.ParallelForEachUIndex(s.ctx, func(i, j, k int) {
		pt := output.UPosition(i, j, k)
		if boundarySDF.Sample(pt) > 0 {
			u.Set(i, j, k, input.Sample(s.backTrace(flow, dt, h, pt, boundarySDF)).X)
		}
	})
	output.ParallelForEachVIndex(s.ctx, func(i, j, k int) {
		pt := output.VPosition(i, j, k)
		if boundarySDF.Sample(pt) > 0 {
			v.Set(i, j, k, input.Sample(s.backTrace(flow, dt, h, pt, boundarySDF)).Y)
		}
	})
	output.ParallelForEachWIndex(s.ctx, func(i, j, k int) {
		pt := output.WPosition(i, j, k)
		if boundarySDF.Sample(pt) > 0 {
			w.Set(i, j, k, input.Sample(s.backTrace(flow, dt, h, pt, boundarySDF)).Z)
		}
	})
	return nil
}
