package pressure

import (
	"github.com/san-kum/flipsim/internal/boundary"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/fdm"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

// SinglePhase is the blocked projection: every cell is fluid, air or
// boundary and the free surface sits on cell faces. When the linear solver
// is an *fdm.MGSolver the system is built for every multigrid level.
type SinglePhase struct {
	ctx      *dynamo.Context
	system   *fdm.LinearSystem
	mgSystem *fdm.MGLinearSystem
	solver   fdm.Solver
	mg       *fdm.MGSolver
	markers  []*Markers
}

// NewSinglePhase returns a blocked projection using ICCG.
func NewSinglePhase(ctx *dynamo.Context) *SinglePhase {
	s := &SinglePhase{
		ctx:      ctx,
		system:   fdm.NewLinearSystem(grid.Size3{}),
		mgSystem: &fdm.MGLinearSystem{},
	}
	s.SetLinearSystemSolver(fdm.NewICCGSolver(ctx, DefaultMaxIterations, DefaultTolerance))
	return s
}

func (s *SinglePhase) LinearSystemSolver() fdm.Solver { return s.solver }

func (s *SinglePhase) SetLinearSystemSolver(ls fdm.Solver) {
	s.solver = ls
	s.mg, _ = ls.(*fdm.MGSolver)
}

func (s *SinglePhase) SuggestedBoundaryConditionSolver() boundary.Solver {
	return boundary.NewBlocked(s.ctx)
}

func (s *SinglePhase) Pressure() *fdm.Vector {
	if s.mg != nil && s.mgSystem.NumberOfLevels() > 0 {
		return s.mgSystem.X[0]
	}
	return s.system.X
}

// MarkersAt returns the markers of multigrid level l from the last Solve.
func (s *SinglePhase) MarkersAt(l int) *Markers {
	if l < 0 || l >= len(s.markers) {
		return nil
	}
	return s.markers[l]
}

func (s *SinglePhase) Solve(input *grid.FaceCenteredGrid, _ float64, output *grid.FaceCenteredGrid,
	boundarySDF grid.ScalarField, _ grid.VectorField, fluidSDF grid.ScalarField) (bool, error) {
	if err := prepareOutput(input, output); err != nil {
		return false, err
	}

	s.buildMarkers(input, boundarySDF, fluidSDF)
	s.buildSystem(input)

	if s.solver == nil {
		return false, nil
	}
	var (
		ok  bool
		err error
	)
	if s.mg != nil {
		ok, err = s.mg.SolveMG(s.mgSystem)
	} else {
		ok, err = s.solver.Solve(s.system)
	}
	if err != nil {
		return false, err
	}
	s.applyPressureGradient(input, output)
	return ok, nil
}

func (s *SinglePhase) maxLevels() int {
	if s.mg == nil {
		return 1
	}
	return max(s.mg.Params().MaxNumberOfLevels, 1)
}

func (s *SinglePhase) buildMarkers(input *grid.FaceCenteredGrid, boundarySDF, fluidSDF grid.ScalarField) {
	res := input.Resolution()
	sizes := []grid.Size3{res}
	for current := res; len(sizes) < s.maxLevels(); {
		if current.X%2 != 0 || current.Y%2 != 0 || current.Z%2 != 0 {
			break
		}
		current = fdm.CoarsenSize(current)
		sizes = append(sizes, current)
	}

	if len(s.markers) != len(sizes) {
		s.markers = make([]*Markers, len(sizes))
	}
	for l, size := range sizes {
		if s.markers[l] == nil {
			s.markers[l] = newMarkers(size)
		}
		s.markers[l].resize(size)
	}

	top := s.markers[0]
	origin, h := input.Origin(), input.GridSpacing()
	s.ctx.ParallelFor3(res.X, res.Y, res.Z, func(i, j, k int) {
		pt := grid.CellCenter(origin, h, i, j, k)
		switch {
		case levelset.IsInsideSDF(boundarySDF.Sample(pt)):
			top.set(i, j, k, Boundary)
		case levelset.IsInsideSDF(fluidSDF.Sample(pt)):
			top.set(i, j, k, Fluid)
		default:
			top.set(i, j, k, Air)
		}
	})
	for l := 1; l < len(s.markers); l++ {
		coarsenMarkers(s.ctx, s.markers[l-1], s.markers[l])
	}
}

func (s *SinglePhase) buildSystem(input *grid.FaceCenteredGrid) {
	h := input.GridSpacing()
	if s.mg == nil {
		s.system.Resize(input.Resolution())
		s.system.B.Fill(0)
		buildSingleSystem(s.ctx, s.system.A, s.system.B, s.markers[0], h, input)
		return
	}

	s.mgSystem.ResizeWithFinest(input.Resolution(), len(s.markers))
	for l := range s.markers {
		s.mgSystem.B[l].Fill(0)
		if l == 0 {
			buildSingleSystem(s.ctx, s.mgSystem.A[0], s.mgSystem.B[0], s.markers[0], h, input)
			continue
		}
		// Coarse right-hand sides are overwritten by the V-cycle.
		s.mgSystem.X[l].Fill(0)
		h = r3.Scale(2, h)
		buildSingleSystem(s.ctx, s.mgSystem.A[l], nil, s.markers[l], h, nil)
	}
}

// buildSingleSystem fills one level. b and input are nil on coarse levels.
func buildSingleSystem(ctx *dynamo.Context, a *fdm.Matrix, b *fdm.Vector, markers *Markers, h r3.Vec, input *grid.FaceCenteredGrid) {
	size := markers.Size()
	invHSqr := r3.Vec{X: 1 / (h.X * h.X), Y: 1 / (h.Y * h.Y), Z: 1 / (h.Z * h.Z)}

	ctx.ParallelFor3(size.X, size.Y, size.Z, func(i, j, k int) {
		row := a.Row(i, j, k)
		*row = fdm.MatrixRow{}
		if markers.At(i, j, k) != Fluid {
			row.Center = 1
			return
		}
		if b != nil {
			b.Set(i, j, k, input.DivergenceAtCellCenter(i, j, k))
		}

		if i+1 < size.X && markers.At(i+1, j, k) != Boundary {
			row.Center += invHSqr.X
			if markers.At(i+1, j, k) == Fluid {
				row.Right -= invHSqr.X
			}
		}
		if i > 0 && markers.At(i-1, j, k) != Boundary {
			row.Center += invHSqr.X
		}
		if j+1 < size.Y && markers.At(i, j+1, k) != Boundary {
			row.Center += invHSqr.Y
			if markers.At(i, j+1, k) == Fluid {
				row.Up -= invHSqr.Y
			}
		}
		if j > 0 && markers.At(i, j-1, k) != Boundary {
			row.Center += invHSqr.Y
		}
		if k+1 < size.Z && markers.At(i, j, k+1) != Boundary {
			row.Center += invHSqr.Z
			if markers.At(i, j, k+1) == Fluid {
				row.Front -= invHSqr.Z
			}
		}
		if k > 0 && markers.At(i, j, k-1) != Boundary {
			row.Center += invHSqr.Z
		}

		// Enclosed by solid on every side.
		if row.Center == 0 {
			row.Center = 1
			if b != nil {
				b.Set(i, j, k, 0)
			}
		}
	})
}

func (s *SinglePhase) applyPressureGradient(input, output *grid.FaceCenteredGrid) {
	res := input.Resolution()
	h := input.GridSpacing()
	invH := r3.Vec{X: 1 / h.X, Y: 1 / h.Y, Z: 1 / h.Z}
	x := s.Pressure()
	m := s.markers[0]
	u, v, w := input.U(), input.V(), input.W()
	u0, v0, w0 := output.U(), output.V(), output.W()

	// A face moves when neither side is solid and at least one side is fluid.
	moves := func(a, b Marker) bool {
		return a != Boundary && b != Boundary && (a == Fluid || b == Fluid)
	}

	s.ctx.ParallelFor3(res.X, res.Y, res.Z, func(i, j, k int) {
		c := m.At(i, j, k)
		p := x.At(i, j, k)
		if i+1 < res.X && moves(c, m.At(i+1, j, k)) {
			u0.Set(i+1, j, k, u.At(i+1, j, k)+invH.X*(x.At(i+1, j, k)-p))
		}
		if j+1 < res.Y && moves(c, m.At(i, j+1, k)) {
			v0.Set(i, j+1, k, v.At(i, j+1, k)+invH.Y*(x.At(i, j+1, k)-p))
		}
		if k+1 < res.Z && moves(c, m.At(i, j, k+1)) {
			w0.Set(i, j, k+1, w.At(i, j, k+1)+invH.Z*(x.At(i, j, k+1)-p))
		}
	})
}
