// Package particle holds per-particle state as parallel arrays and the
// spatial hash used for neighbor queries.
package particle

import (
	"fmt"
	"slices"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// SystemData stores position, velocity and force for every particle plus
// any number of named scalar and vector layers. A particle is identified
// only by its index. Neighbor data goes stale whenever particles are
// added or the system is resized.
type SystemData struct {
	radius float64
	mass   float64
	count  int

	positionIdx, velocityIdx, forceIdx int

	scalarData    [][]float64
	scalarInitial []float64
	scalarNames   []string
	vectorData    [][]r3.Vec
	vectorInitial []r3.Vec
	vectorNames   []string

	searcher      *HashGridSearcher
	neighborLists [][]int
	searcherFresh bool
	fresh         bool
}

// NewSystemData creates n particles at the origin.
func NewSystemData(n int) *SystemData {
	s := &SystemData{radius: 1e-3, mass: 1e-3}
	s.positionIdx = s.AddNamedVectorData("position", r3.Vec{})
	s.velocityIdx = s.AddNamedVectorData("velocity", r3.Vec{})
	s.forceIdx = s.AddNamedVectorData("force", r3.Vec{})
	s.Resize(n)
	return s
}

func (s *SystemData) NumberOfParticles() int { return s.count }

func (s *SystemData) Radius() float64 { return s.radius }

func (s *SystemData) SetRadius(r float64) { s.radius = max(r, 0) }

func (s *SystemData) Mass() float64 { return s.mass }

func (s *SystemData) SetMass(m float64) { s.mass = max(m, 0) }

// Resize sets the particle count. New particles take each layer's initial
// value.
func (s *SystemData) Resize(n int) {
	n = max(n, 0)
	for l := range s.scalarData {
		s.scalarData[l] = resizeLayer(s.scalarData[l], n, s.scalarInitial[l])
	}
	for l := range s.vectorData {
		s.vectorData[l] = resizeLayer(s.vectorData[l], n, s.vectorInitial[l])
	}
	s.count = n
	s.searcherFresh = false
	s.fresh = false
}

func resizeLayer[T any](data []T, n int, initial T) []T {
	if n <= len(data) {
		return data[:n]
	}
	for len(data) < n {
		data = append(data, initial)
	}
	return data
}

// AddScalarData appends a scalar layer and returns its index.
func (s *SystemData) AddScalarData(initial float64) int {
	return s.AddNamedScalarData("", initial)
}

// AddNamedScalarData appends a scalar layer with a label used by exports.
func (s *SystemData) AddNamedScalarData(name string, initial float64) int {
	s.scalarData = append(s.scalarData, resizeLayer(nil, s.count, initial))
	s.scalarInitial = append(s.scalarInitial, initial)
	s.scalarNames = append(s.scalarNames, name)
	return len(s.scalarData) - 1
}

// AddVectorData appends a vector layer and returns its index.
func (s *SystemData) AddVectorData(initial r3.Vec) int {
	return s.AddNamedVectorData("", initial)
}

// AddNamedVectorData appends a vector layer with a label used by exports.
func (s *SystemData) AddNamedVectorData(name string, initial r3.Vec) int {
	s.vectorData = append(s.vectorData, resizeLayer(nil, s.count, initial))
	s.vectorInitial = append(s.vectorInitial, initial)
	s.vectorNames = append(s.vectorNames, name)
	return len(s.vectorData) - 1
}

func (s *SystemData) NumberOfScalarData() int { return len(s.scalarData) }
func (s *SystemData) NumberOfVectorData() int { return len(s.vectorData) }

// ScalarDataAt returns layer idx. The slice aliases the system storage.
func (s *SystemData) ScalarDataAt(idx int) ([]float64, error) {
	if idx < 0 || idx >= len(s.scalarData) {
		return nil, fmt.Errorf("scalar layer %d of %d: %w", idx, len(s.scalarData), dynamo.ErrInvalidArgument)
	}
	return s.scalarData[idx], nil
}

// VectorDataAt returns layer idx. The slice aliases the system storage.
func (s *SystemData) VectorDataAt(idx int) ([]r3.Vec, error) {
	if idx < 0 || idx >= len(s.vectorData) {
		return nil, fmt.Errorf("vector layer %d of %d: %w", idx, len(s.vectorData), dynamo.ErrInvalidArgument)
	}
	return s.vectorData[idx], nil
}

// VectorDataName returns the label of layer idx.
func (s *SystemData) VectorDataName(idx int) string {
	if idx < 0 || idx >= len(s.vectorNames) {
		return ""
	}
	return s.vectorNames[idx]
}

// ScalarDataName returns the label of layer idx.
func (s *SystemData) ScalarDataName(idx int) string {
	if idx < 0 || idx >= len(s.scalarNames) {
		return ""
	}
	return s.scalarNames[idx]
}

func (s *SystemData) Positions() []r3.Vec  { return s.vectorData[s.positionIdx] }
func (s *SystemData) Velocities() []r3.Vec { return s.vectorData[s.velocityIdx] }
func (s *SystemData) Forces() []r3.Vec     { return s.vectorData[s.forceIdx] }

// AddParticle appends a single particle.
func (s *SystemData) AddParticle(position, velocity, force r3.Vec) {
	_ = s.AddParticles([]r3.Vec{position}, []r3.Vec{velocity}, []r3.Vec{force})
}

// AddParticles appends a batch. velocities and forces may be nil;
// otherwise they must match positions in length.
func (s *SystemData) AddParticles(positions, velocities, forces []r3.Vec) error {
	if velocities != nil && len(velocities) != len(positions) {
		return fmt.Errorf("%d positions, %d velocities: %w", len(positions), len(velocities), dynamo.ErrDimensionMismatch)
	}
	if forces != nil && len(forces) != len(positions) {
		return fmt.Errorf("%d positions, %d forces: %w", len(positions), len(forces), dynamo.ErrDimensionMismatch)
	}
	if len(positions) == 0 {
		return nil
	}

	old := s.count
	s.Resize(old + len(positions))
	copy(s.Positions()[old:], positions)
	if velocities != nil {
		copy(s.Velocities()[old:], velocities)
	}
	if forces != nil {
		copy(s.Forces()[old:], forces)
	}
	return nil
}

// BuildNeighborSearcher indexes the current positions with buckets of
// twice maxSearchRadius.
func (s *SystemData) BuildNeighborSearcher(maxSearchRadius float64) error {
	if !(maxSearchRadius > 0) {
		return fmt.Errorf("search radius %g: %w", maxSearchRadius, dynamo.ErrInvalidArgument)
	}
	res := grid.Size3{X: DefaultHashGridResolution, Y: DefaultHashGridResolution, Z: DefaultHashGridResolution}
	s.searcher = NewHashGridSearcher(res, 2*maxSearchRadius)
	s.searcher.Build(s.Positions())
	s.searcherFresh = true
	s.fresh = false
	return nil
}

// BuildNeighborLists records, for every particle, the ascending indices of
// the other particles within maxSearchRadius. BuildNeighborSearcher must
// have run since the last change to the particle set.
func (s *SystemData) BuildNeighborLists(ctx *dynamo.Context, maxSearchRadius float64) error {
	if !s.searcherFresh {
		return fmt.Errorf("neighbor searcher is stale: %w", dynamo.ErrNotInitialized)
	}
	positions := s.Positions()
	lists := make([][]int, s.count)
	ctx.ParallelForEach(s.count, func(i int) {
		var list []int
		s.searcher.ForEachNearbyPoint(positions[i], maxSearchRadius, func(j int, _ r3.Vec) {
			if i != j {
				list = append(list, j)
			}
		})
		slices.Sort(list)
		lists[i] = list
	})
	s.neighborLists = lists
	s.fresh = true
	return nil
}

// NeighborSearcher returns the searcher of the last build, or nil.
func (s *SystemData) NeighborSearcher() *HashGridSearcher { return s.searcher }

// NeighborLists returns the lists of the last BuildNeighborLists.
func (s *SystemData) NeighborLists() [][]int { return s.neighborLists }

// NeighborsFresh reports whether the neighbor lists match the current
// particle set.
func (s *SystemData) NeighborsFresh() bool { return s.fresh }
