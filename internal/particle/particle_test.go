package particle

import (
	"errors"
	"testing"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSystemDataLayers(t *testing.T) {
	s := NewSystemData(3)
	assert.Equal(t, 3, s.NumberOfParticles())
	assert.Equal(t, 3, s.NumberOfVectorData())

	density := s.AddScalarData(1000)
	delta := s.AddVectorData(r3.Vec{X: 1})

	s.Resize(5)
	d, err := s.ScalarDataAt(density)
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1000, 1000, 1000, 1000}, d)

	v, err := s.VectorDataAt(delta)
	require.NoError(t, err)
	assert.Len(t, v, 5)
	assert.Equal(t, r3.Vec{X: 1}, v[4])

	_, err = s.ScalarDataAt(7)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidArgument))
	assert.Equal(t, "velocity", s.VectorDataName(1))
}

func TestAddParticles(t *testing.T) {
	s := NewSystemData(0)
	require.NoError(t, s.AddParticles(
		[]r3.Vec{{X: 1}, {X: 2}},
		[]r3.Vec{{Y: 1}, {Y: 2}},
		nil))
	s.AddParticle(r3.Vec{X: 3}, r3.Vec{Y: 3}, r3.Vec{Z: 1})

	assert.Equal(t, 3, s.NumberOfParticles())
	assert.Equal(t, r3.Vec{X: 2}, s.Positions()[1])
	assert.Equal(t, r3.Vec{Y: 3}, s.Velocities()[2])
	assert.Equal(t, r3.Vec{}, s.Forces()[0])
	assert.Equal(t, r3.Vec{Z: 1}, s.Forces()[2])

	err := s.AddParticles([]r3.Vec{{}}, []r3.Vec{{}, {}}, nil)
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))
	assert.Equal(t, 3, s.NumberOfParticles())
}

func TestNeighborLists(t *testing.T) {
	ctx := dynamo.NewContext(2)
	s := NewSystemData(0)
	require.NoError(t, s.AddParticles([]r3.Vec{
		{X: 0.1, Y: 0.1, Z: 0.1},
		{X: 0.2, Y: 0.1, Z: 0.1},
		{X: 0.1, Y: 0.25, Z: 0.1},
		{X: 0.9, Y: 0.9, Z: 0.9},
	}, nil, nil))

	assert.Error(t, s.BuildNeighborLists(ctx, 0.2))

	require.NoError(t, s.BuildNeighborSearcher(0.2))
	require.NoError(t, s.BuildNeighborLists(ctx, 0.2))
	assert.True(t, s.NeighborsFresh())

	lists := s.NeighborLists()
	assert.Equal(t, []int{1, 2}, lists[0])
	assert.Equal(t, []int{0, 2}, lists[1])
	assert.Equal(t, []int{0, 1}, lists[2])
	assert.Empty(t, lists[3])

	s.AddParticle(r3.Vec{}, r3.Vec{}, r3.Vec{})
	assert.False(t, s.NeighborsFresh())
	assert.True(t, errors.Is(s.BuildNeighborLists(ctx, 0.2), dynamo.ErrNotInitialized))
}

func TestHashGridSearcher(t *testing.T) {
	s := NewHashGridSearcher(grid.Size3{X: 4, Y: 4, Z: 4}, 1)
	s.Build([]r3.Vec{
		{X: 0.5, Y: 0.5, Z: 0.5},
		{X: 1.2, Y: 0.5, Z: 0.5},
		{X: -0.3, Y: 0.5, Z: 0.5},
		{X: 4.5, Y: 0.5, Z: 0.5},
	})

	var found []int
	s.ForEachNearbyPoint(r3.Vec{X: 0.6, Y: 0.5, Z: 0.5}, 0.7, func(i int, _ r3.Vec) {
		found = append(found, i)
	})
	assert.ElementsMatch(t, []int{0, 1}, found)

	// Wrapped buckets do not pull distant points into range.
	assert.False(t, s.HasNearbyPoint(r3.Vec{X: 4.4, Y: 2.5, Z: 2.5}, 0.5))
	assert.True(t, s.HasNearbyPoint(r3.Vec{X: 4.4, Y: 0.6, Z: 0.5}, 0.5))
	assert.True(t, s.HasNearbyPoint(r3.Vec{X: -0.2, Y: 0.5, Z: 0.5}, 0.2))

	s.Add(r3.Vec{X: 2.5, Y: 2.5, Z: 2.5})
	assert.True(t, s.HasNearbyPoint(r3.Vec{X: 2.6, Y: 2.5, Z: 2.5}, 0.2))
}

func TestHashGridSearcherNoDuplicates(t *testing.T) {
	// On a 1x1x1 hash every nearby key collapses to the same bucket.
	s := NewHashGridSearcher(grid.Size3{X: 1, Y: 1, Z: 1}, 1)
	s.Build([]r3.Vec{{X: 0.5, Y: 0.5, Z: 0.5}})

	count := 0
	s.ForEachNearbyPoint(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, 1, func(int, r3.Vec) { count++ })
	assert.Equal(t, 1, count)
}
