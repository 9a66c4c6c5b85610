package advection

import (
	"errors"
	"testing"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	unit = r3.Vec{X: 1, Y: 1, Z: 1}
	res8 = grid.Size3{X: 8, Y: 8, Z: 8}
)

func rampX(ctx *dynamo.Context) *grid.ScalarGrid {
	g := grid.NewCellCenteredScalarGrid(res8, unit, r3.Vec{}, 0)
	g.FillFunc(ctx, func(p r3.Vec) float64 { return p.X })
	return g
}

func TestAdvectScalarUniformFlow(t *testing.T) {
	ctx := dynamo.NewContext(2)
	solver := NewSemiLagrangian(ctx)
	input := rampX(ctx)
	output := input.Clone()

	flow := grid.ConstantVectorField{X: 1}
	require.NoError(t, solver.AdvectScalar(input, flow, 1, output, nil))

	for i := 1; i < 8; i++ {
		assert.InDelta(t, float64(i)-0.5, output.At(i, 3, 3), 1e-12, "i=%d", i)
	}
}

func TestAdvectScalarStillFlow(t *testing.T) {
	ctx := dynamo.NewContext(1)
	solver := NewSemiLagrangian(ctx)
	input := rampX(ctx)
	output := grid.NewCellCenteredScalarGrid(res8, unit, r3.Vec{}, 0)

	require.NoError(t, solver.AdvectScalar(input, grid.ConstantVectorField{}, 0.5, output, nil))
	assert.Equal(t, input.Data().Data(), output.Data().Data())
}

func TestAdvectSkipsSolid(t *testing.T) {
	ctx := dynamo.NewContext(2)
	solver := NewSemiLagrangian(ctx)
	input := rampX(ctx)
	output := grid.NewCellCenteredScalarGrid(res8, unit, r3.Vec{}, -1)

	// Solid for x > 3.
	solid := grid.ScalarFieldFunc(func(p r3.Vec) float64 { return 3 - p.X })
	require.NoError(t, solver.AdvectScalar(input, grid.ConstantVectorField{}, 1, output, solid))

	assert.Equal(t, 2.5, output.At(2, 0, 0))
	assert.Equal(t, -1.0, output.At(3, 0, 0))
	assert.Equal(t, -1.0, output.At(7, 4, 4))
}

func TestBackTraceStopsAtSolid(t *testing.T) {
	ctx := dynamo.NewContext(2)
	solver := NewSemiLagrangian(ctx)
	input := rampX(ctx)
	output := input.Clone()

	// Solid for x < 1; the trace from x = 2.5 would end at 0.5.
	solid := grid.ScalarFieldFunc(func(p r3.Vec) float64 { return p.X - 1 })
	require.NoError(t, solver.AdvectScalar(input, grid.ConstantVectorField{X: 2}, 1, output, solid))

	assert.InDelta(t, 1.0, output.At(2, 2, 2), 1e-12)
	assert.InDelta(t, 1.5, output.At(3, 2, 2), 1e-12)
}

func TestAdvectFaceCentered(t *testing.T) {
	ctx := dynamo.NewContext(2)
	solver := NewSemiLagrangian(ctx)
	input := grid.NewFaceCenteredGrid(res8, unit, r3.Vec{})
	input.FillFunc(ctx, func(p r3.Vec) r3.Vec { return r3.Vec{X: p.X, Y: p.Y, Z: 1} })
	output := input.Clone()

	require.NoError(t, solver.AdvectFaceCentered(input, grid.ConstantVectorField{X: 1}, 1, output, nil))

	for i := 1; i <= 8; i++ {
		assert.InDelta(t, float64(i-1), output.U().At(i, 4, 4), 1e-12, "u(%d)", i)
	}
	assert.InDelta(t, 4.0, output.V().At(5, 4, 4), 1e-12)
	assert.InDelta(t, 1.0, output.W().At(5, 4, 4), 1e-12)
}

func TestAdvectCollocated(t *testing.T) {
	ctx := dynamo.NewContext(2)
	solver := NewSemiLagrangian(ctx)
	input := grid.NewCellCenteredVectorGrid(res8, unit, r3.Vec{}, r3.Vec{})
	input.FillFunc(ctx, func(p r3.Vec) r3.Vec { return r3.Vec{X: p.Z, Y: 2, Z: 0} })
	output := input.Clone()

	require.NoError(t, solver.AdvectCollocated(input, grid.ConstantVectorField{Z: 0.5}, 2, output, nil))

	got := output.At(4, 4, 4)
	assert.InDelta(t, 3.5, got.X, 1e-12)
	assert.InDelta(t, 2.0, got.Y, 1e-12)
}

func TestAdvectMismatch(t *testing.T) {
	ctx := dynamo.NewContext(1)
	solver := NewSemiLagrangian(ctx)
	a := grid.NewFaceCenteredGrid(res8, unit, r3.Vec{})
	b := grid.NewFaceCenteredGrid(grid.Size3{X: 4, Y: 8, Z: 8}, unit, r3.Vec{})

	err := solver.AdvectFaceCentered(a, grid.ConstantVectorField{}, 1, b, nil)
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))
}
