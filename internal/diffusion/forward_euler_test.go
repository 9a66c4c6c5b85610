package diffusion

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	unit    = r3.Vec{X: 1, Y: 1, Z: 1}
	open    = grid.ConstantScalarField(math.MaxFloat64)
	flooded = grid.ConstantScalarField(-1)
)

func TestDiffusionSpike(t *testing.T) {
	ctx := dynamo.NewContext(2)
	d := NewForwardEuler(ctx)
	res := grid.Size3{X: 5, Y: 5, Z: 5}
	src := grid.NewCellCenteredScalarGrid(res, unit, r3.Vec{}, 0)
	src.Set(2, 2, 2, 1)
	dst := src.Clone()

	require.NoError(t, d.SolveScalar(src, 0.1, 1, dst, open, flooded))

	assert.InDelta(t, 0.4, dst.At(2, 2, 2), 1e-12)
	assert.InDelta(t, 0.1, dst.At(1, 2, 2), 1e-12)
	assert.InDelta(t, 0.1, dst.At(2, 2, 3), 1e-12)
	assert.InDelta(t, 0.0, dst.At(1, 1, 2), 1e-12)

	sum := 0.0
	for _, v := range dst.Data().Data() {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestDiffusionIgnoresAirNeighbors(t *testing.T) {
	ctx := dynamo.NewContext(1)
	d := NewForwardEuler(ctx)
	res := grid.Size3{X: 4, Y: 4, Z: 4}
	src := grid.NewFaceCenteredGrid(res, unit, r3.Vec{})
	src.U().Fill(1)
	src.U().Set(2, 2, 2, 0)
	dst := src.Clone()

	// Air above y = 3.
	fluid := grid.ScalarFieldFunc(func(p r3.Vec) float64 { return p.Y - 3 })
	require.NoError(t, d.SolveFaceCentered(src, 0.1, 1, dst, open, fluid))

	// Five fluid neighbors at 1, the upper one is air.
	assert.InDelta(t, 0.5, dst.U().At(2, 2, 2), 1e-12)
	assert.Equal(t, 1.0, dst.U().At(2, 3, 2))
}

func TestDiffusionErrors(t *testing.T) {
	ctx := dynamo.NewContext(1)
	d := NewForwardEuler(ctx)
	a := grid.NewFaceCenteredGrid(grid.Size3{X: 2, Y: 2, Z: 2}, unit, r3.Vec{})
	b := grid.NewFaceCenteredGrid(grid.Size3{X: 3, Y: 2, Z: 2}, unit, r3.Vec{})

	assert.True(t, errors.Is(d.SolveFaceCentered(a, 1, 1, b, open, flooded), dynamo.ErrDimensionMismatch))
	assert.True(t, errors.Is(d.SolveFaceCentered(a, 1, 1, a, open, flooded), dynamo.ErrInvalidArgument))
}

func TestStableTimeStep(t *testing.T) {
	assert.Equal(t, 0.0, StableTimeStep(0, unit))
	assert.InDelta(t, 0.25/12, StableTimeStep(1, r3.Vec{X: 0.5, Y: 1, Z: 1}), 1e-15)
}
