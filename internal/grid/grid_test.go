package grid

import (
	"errors"
	"testing"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var unit = r3.Vec{X: 1, Y: 1, Z: 1}

func TestFaceCenteredGridSizes(t *testing.T) {
	g := NewFaceCenteredGrid(Size3{4, 5, 6}, unit, r3.Vec{})

	assert.Equal(t, Size3{5, 5, 6}, g.USize())
	assert.Equal(t, Size3{4, 6, 6}, g.VSize())
	assert.Equal(t, Size3{4, 5, 7}, g.WSize())

	assert.Equal(t, r3.Vec{X: 0, Y: 0.5, Z: 0.5}, g.UPosition(0, 0, 0))
	assert.Equal(t, r3.Vec{X: 1.5, Y: 1, Z: 0.5}, g.VPosition(1, 1, 0))
	assert.Equal(t, r3.Vec{X: 0.5, Y: 0.5, Z: 2}, g.WPosition(0, 0, 2))
	assert.Equal(t, r3.Vec{X: 1.5, Y: 2.5, Z: 3.5}, g.CellCenterPosition(1, 2, 3))
}

func TestFaceCenteredGridDivergence(t *testing.T) {
	ctx := dynamo.NewContext(2)
	spacing := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	g := NewFaceCenteredGrid(Size3{4, 4, 4}, spacing, r3.Vec{})
	// v = (x, 2y, -z) has divergence 2 everywhere.
	g.FillFunc(ctx, func(p r3.Vec) r3.Vec {
		return r3.Vec{X: p.X, Y: 2 * p.Y, Z: -p.Z}
	})

	for k := 0; k < 4; k++ {
		for j := 0; j < 4; j++ {
			for i := 0; i < 4; i++ {
				assert.InDelta(t, 2.0, g.DivergenceAtCellCenter(i, j, k), 1e-12)
			}
		}
	}

	c := g.ValueAtCellCenter(1, 1, 1)
	assert.InDelta(t, 0.75, c.X, 1e-12)
	assert.InDelta(t, 1.5, c.Y, 1e-12)
	assert.InDelta(t, -0.75, c.Z, 1e-12)
}

func TestFaceCenteredGridSampleLinearField(t *testing.T) {
	ctx := dynamo.NewContext(0)
	g := NewFaceCenteredGrid(Size3{8, 8, 8}, unit, r3.Vec{X: -1, Y: -1, Z: -1})
	g.FillFunc(ctx, func(p r3.Vec) r3.Vec {
		return r3.Vec{X: p.Y, Y: p.Z, Z: p.X}
	})

	got := g.Sample(r3.Vec{X: 2.3, Y: 3.1, Z: 1.7})
	assert.InDelta(t, 3.1, got.X, 1e-12)
	assert.InDelta(t, 1.7, got.Y, 1e-12)
	assert.InDelta(t, 2.3, got.Z, 1e-12)
}

func TestFaceCenteredGridCloneIsDeep(t *testing.T) {
	g := NewFaceCenteredGrid(Size3{2, 2, 2}, unit, r3.Vec{})
	g.Fill(r3.Vec{X: 1, Y: 2, Z: 3})
	c := g.Clone()
	g.U().Set(0, 0, 0, 10)

	assert.Equal(t, 1.0, c.U().At(0, 0, 0))
	assert.True(t, c.HasSameShape(g))
}

func TestLinearSamplerClamps(t *testing.T) {
	arr := NewArray3(Size3{3, 1, 1})
	arr.Set(0, 0, 0, 1)
	arr.Set(1, 0, 0, 2)
	arr.Set(2, 0, 0, 4)
	s := NewLinearSampler(arr, unit, r3.Vec{})

	tests := []struct {
		x    float64
		want float64
	}{
		{-5, 1},
		{0, 1},
		{0.5, 1.5},
		{1.5, 3},
		{2, 4},
		{10, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, s.Sample(r3.Vec{X: tt.x}), 1e-12, "x=%v", tt.x)
	}
}

func TestScalarGridLayouts(t *testing.T) {
	cell := NewCellCenteredScalarGrid(Size3{4, 4, 4}, unit, r3.Vec{}, 7)
	vertex := NewVertexCenteredScalarGrid(Size3{4, 4, 4}, unit, r3.Vec{}, 0)

	assert.Equal(t, Size3{4, 4, 4}, cell.DataSize())
	assert.Equal(t, Size3{5, 5, 5}, vertex.DataSize())
	assert.Equal(t, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, cell.DataPosition(0, 0, 0))
	assert.Equal(t, r3.Vec{}, vertex.DataPosition(0, 0, 0))
	assert.Equal(t, 7.0, cell.Sample(r3.Vec{X: 2, Y: 2, Z: 2}))
}

func TestScalarGridGradient(t *testing.T) {
	g := NewCellCenteredScalarGrid(Size3{8, 8, 8}, unit, r3.Vec{}, 0)
	g.FillFunc(nil, func(p r3.Vec) float64 { return 3*p.X - p.Z })

	grad := g.Gradient(r3.Vec{X: 4, Y: 4, Z: 4})
	assert.InDelta(t, 3, grad.X, 1e-12)
	assert.InDelta(t, 0, grad.Y, 1e-12)
	assert.InDelta(t, -1, grad.Z, 1e-12)
}

func TestSystemData(t *testing.T) {
	_, err := NewSystemData(Size3{0, 4, 4}, unit, r3.Vec{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidResolution))

	s, err := NewSystemData(Size3{2, 3, 4}, unit, r3.Vec{})
	require.NoError(t, err)

	sdf := s.AddScalarData(CellCentered, 1e9)
	vel := s.AddVectorData(CellCentered, r3.Vec{X: 1})
	assert.Equal(t, 0, sdf)
	assert.Equal(t, 0, vel)

	require.NoError(t, s.Resize(Size3{4, 4, 4}, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vec{}))
	sg, err := s.ScalarDataAt(sdf)
	require.NoError(t, err)
	assert.Equal(t, Size3{4, 4, 4}, sg.DataSize())
	assert.Equal(t, 1e9, sg.At(3, 3, 3))
	assert.Equal(t, Size3{5, 4, 4}, s.Velocity().USize())

	_, err = s.VectorDataAt(3)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidArgument))
}
