package solver

import (
	"log/slog"

	"github.com/san-kum/flipsim/internal/boundary"
	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config fixes the grid geometry and physical parameters of a solver.
type Config struct {
	Resolution  grid.Size3
	GridSpacing r3.Vec
	Origin      r3.Vec

	Gravity   r3.Vec
	Viscosity float64
	// MaxCFL bounds the CFL number of a single sub-step.
	MaxCFL       float64
	ClosedDomain boundary.Direction
	// Integrator names the particle tracer, see integrators.Names.
	Integrator string
	// PICBlending is the PIC share of a FLIP particle update.
	PICBlending float64

	// Threads caps the worker count. Zero uses GOMAXPROCS.
	Threads int
	Logger  *slog.Logger
}

// DefaultConfig returns a 1x1x1 unit grid under earth gravity with a
// closed domain.
func DefaultConfig() Config {
	return Config{
		Resolution:   grid.Size3{X: 1, Y: 1, Z: 1},
		GridSpacing:  r3.Vec{X: 1, Y: 1, Z: 1},
		Gravity:      r3.Vec{Y: -9.8},
		MaxCFL:       5,
		ClosedDomain: boundary.DirectionAll,
	}
}

// WithDomain sets a resolution and derives a cubic spacing that spans
// width along x.
func (c Config) WithDomain(resolution grid.Size3, width float64) Config {
	h := width / float64(resolution.X)
	c.Resolution = resolution
	c.GridSpacing = r3.Vec{X: h, Y: h, Z: h}
	return c
}
