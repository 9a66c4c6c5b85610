package grid

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// SystemData owns the velocity grid of a simulation and any number of
// additional scalar and vector layers that share its geometry.
type SystemData struct {
	resolution Size3
	spacing    r3.Vec
	origin     r3.Vec

	velocity      *FaceCenteredGrid
	scalarData    []*ScalarGrid
	scalarInitial []float64
	vectorData    []*CollocatedVectorGrid
	vectorInitial []r3.Vec
}

// NewSystemData creates the grid set with a zero velocity field.
func NewSystemData(resolution Size3, spacing, origin r3.Vec) (*SystemData, error) {
	if err := ValidateGeometry(resolution, spacing); err != nil {
		return nil, err
	}
	return &SystemData{
		resolution: resolution,
		spacing:    spacing,
		origin:     origin,
		velocity:   NewFaceCenteredGrid(resolution, spacing, origin),
	}, nil
}

// Resize applies new geometry to the velocity grid and every layer.
func (s *SystemData) Resize(resolution Size3, spacing, origin r3.Vec) error {
	if err := ValidateGeometry(resolution, spacing); err != nil {
		return err
	}
	s.resolution = resolution
	s.spacing = spacing
	s.origin = origin
	s.velocity.Resize(resolution, spacing, origin)
	for n, g := range s.scalarData {
		g.Resize(resolution, spacing, origin, s.scalarInitial[n])
	}
	for n, g := range s.vectorData {
		g.Resize(resolution, spacing, origin, s.vectorInitial[n])
	}
	return nil
}

func (s *SystemData) Resolution() Size3   { return s.resolution }
func (s *SystemData) GridSpacing() r3.Vec { return s.spacing }
func (s *SystemData) Origin() r3.Vec      { return s.origin }

// Velocity returns the MAC velocity grid.
func (s *SystemData) Velocity() *FaceCenteredGrid { return s.velocity }

// BoundingBox returns the lower and upper corners of the domain.
func (s *SystemData) BoundingBox() (lower, upper r3.Vec) {
	return s.velocity.BoundingBox()
}

// AddScalarData appends a scalar layer and returns its index.
func (s *SystemData) AddScalarData(layout Layout, initial float64) int {
	s.scalarData = append(s.scalarData, NewScalarGrid(layout, s.resolution, s.spacing, s.origin, initial))
	s.scalarInitial = append(s.scalarInitial, initial)
	return len(s.scalarData) - 1
}

// AddVectorData appends a collocated vector layer and returns its index.
func (s *SystemData) AddVectorData(layout Layout, initial r3.Vec) int {
	s.vectorData = append(s.vectorData, NewCollocatedVectorGrid(layout, s.resolution, s.spacing, s.origin, initial))
	s.vectorInitial = append(s.vectorInitial, initial)
	return len(s.vectorData) - 1
}

// ScalarDataAt returns the scalar layer at idx.
func (s *SystemData) ScalarDataAt(idx int) (*ScalarGrid, error) {
	if idx < 0 || idx >= len(s.scalarData) {
		return nil, fmt.Errorf("scalar layer %d of %d: %w", idx, len(s.scalarData), dynamo.ErrInvalidArgument)
	}
	return s.scalarData[idx], nil
}

// VectorDataAt returns the vector layer at idx.
func (s *SystemData) VectorDataAt(idx int) (*CollocatedVectorGrid, error) {
	if idx < 0 || idx >= len(s.vectorData) {
		return nil, fmt.Errorf("vector layer %d of %d: %w", idx, len(s.vectorData), dynamo.ErrInvalidArgument)
	}
	return s.vectorData[idx], nil
}

func (s *SystemData) NumberOfScalarData() int { return len(s.scalarData) }
func (s *SystemData) NumberOfVectorData() int { return len(s.vectorData) }
