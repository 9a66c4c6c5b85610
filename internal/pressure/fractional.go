package pressure

import (
	"github.com/san-kum/flipsim/internal/boundary"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/fdm"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// MinWeight is the smallest face weight kept for partially open faces.
	MinWeight = 0.01
	// MinFreeSurfaceFraction bounds theta at air/fluid faces.
	MinFreeSurfaceFraction = 0.01
)

// FractionalSinglePhase weights every face by how much of it the solid
// leaves open and places the free surface at sub-cell precision through the
// fluid SDF crossing (the ghost fluid method).
type FractionalSinglePhase struct {
	ctx    *dynamo.Context
	system *fdm.LinearSystem
	solver fdm.Solver

	uWeights, vWeights, wWeights    *grid.Array3
	uBoundary, vBoundary, wBoundary *grid.Array3
	fluidSDF                        *grid.Array3
}

// NewFractionalSinglePhase returns a projection using ICCG.
func NewFractionalSinglePhase(ctx *dynamo.Context) *FractionalSinglePhase {
	return &FractionalSinglePhase{
		ctx:       ctx,
		system:    fdm.NewLinearSystem(grid.Size3{}),
		solver:    fdm.NewICCGSolver(ctx, DefaultMaxIterations, DefaultTolerance),
		uWeights:  &grid.Array3{},
		vWeights:  &grid.Array3{},
		wWeights:  &grid.Array3{},
		uBoundary: &grid.Array3{},
		vBoundary: &grid.Array3{},
		wBoundary: &grid.Array3{},
		fluidSDF:  &grid.Array3{},
	}
}

func (s *FractionalSinglePhase) Pressure() *fdm.Vector               { return s.system.X }
func (s *FractionalSinglePhase) LinearSystemSolver() fdm.Solver      { return s.solver }
func (s *FractionalSinglePhase) SetLinearSystemSolver(ls fdm.Solver) { s.solver = ls }

func (s *FractionalSinglePhase) SuggestedBoundaryConditionSolver() boundary.Solver {
	return boundary.NewFractional(s.ctx)
}

// Weights returns the open fraction of every u, v and w face from the last Solve.
func (s *FractionalSinglePhase) Weights() (u, v, w *grid.Array3) {
	return s.uWeights, s.vWeights, s.wWeights
}

func (s *FractionalSinglePhase) Solve(input *grid.FaceCenteredGrid, _ float64, output *grid.FaceCenteredGrid,
	boundarySDF grid.ScalarField, boundaryVelocity grid.VectorField, fluidSDF grid.ScalarField) (bool, error) {
	if err := prepareOutput(input, output); err != nil {
		return false, err
	}

	s.buildWeights(input, boundarySDF, boundaryVelocity, fluidSDF)
	s.buildSystem(input)

	if s.solver == nil {
		return false, nil
	}
	ok, err := s.solver.Solve(s.system)
	if err != nil {
		return false, err
	}
	s.applyPressureGradient(input, output)
	return ok, nil
}

// faceWeight is the open fraction of a face from the solid SDF at its four
// corners, kept away from zero for partially open faces.
func faceWeight(phi0, phi1, phi2, phi3 float64) float64 {
	weight := dynamo.Clamp(1-levelset.FractionInside(phi0, phi1, phi2, phi3), 0, 1)
	if weight > 0 && weight < MinWeight {
		weight = MinWeight
	}
	return weight
}

func (s *FractionalSinglePhase) buildWeights(input *grid.FaceCenteredGrid, boundarySDF grid.ScalarField, boundaryVelocity grid.VectorField, fluidSDF grid.ScalarField) {
	res := input.Resolution()
	h := input.GridSpacing()
	hx, hy, hz := 0.5*h.X, 0.5*h.Y, 0.5*h.Z
	if boundaryVelocity == nil {
		boundaryVelocity = grid.ConstantVectorField{}
	}

	s.uWeights.Resize(input.USize())
	s.vWeights.Resize(input.VSize())
	s.wWeights.Resize(input.WSize())
	s.uBoundary.Resize(input.USize())
	s.vBoundary.Resize(input.VSize())
	s.wBoundary.Resize(input.WSize())
	s.fluidSDF.Resize(res)

	origin := input.Origin()
	s.fluidSDF.ParallelForEachIndex(s.ctx, func(i, j, k int) {
		s.fluidSDF.Set(i, j, k, fluidSDF.Sample(grid.CellCenter(origin, h, i, j, k)))
	})

	corner := func(pt r3.Vec, dx, dy, dz float64) float64 {
		return boundarySDF.Sample(r3.Add(pt, r3.Vec{X: dx, Y: dy, Z: dz}))
	}

	input.ParallelForEachUIndex(s.ctx, func(i, j, k int) {
		pt := input.UPosition(i, j, k)
		s.uWeights.Set(i, j, k, faceWeight(
			corner(pt, 0, -hy, -hz), corner(pt, 0, hy, -hz),
			corner(pt, 0, -hy, hz), corner(pt, 0, hy, hz)))
		s.uBoundary.Set(i, j, k, boundaryVelocity.Sample(pt).X)
	})
	input.ParallelForEachVIndex(s.ctx, func(i, j, k int) {
		pt := input.VPosition(i, j, k)
		s.vWeights.Set(i, j, k, faceWeight(
			corner(pt, -hx, 0, -hz), corner(pt, -hx, 0, hz),
			corner(pt, hx, 0, -hz), corner(pt, hx, 0, hz)))
		s.vBoundary.Set(i, j, k, boundaryVelocity.Sample(pt).Y)
	})
	input.ParallelForEachWIndex(s.ctx, func(i, j, k int) {
		pt := input.WPosition(i, j, k)
		s.wWeights.Set(i, j, k, faceWeight(
			corner(pt, -hx, -hy, 0), corner(pt, hx, -hy, 0),
			corner(pt, -hx, hy, 0), corner(pt, hx, hy, 0)))
		s.wBoundary.Set(i, j, k, boundaryVelocity.Sample(pt).Z)
	})
}

// theta is the fluid fraction of the segment between two cell centers,
// floored to keep the free-surface term bounded.
func theta(phi0, phi1 float64) float64 {
	return max(levelset.FractionInsideSDF(phi0, phi1), MinFreeSurfaceFraction)
}

func (s *FractionalSinglePhase) buildSystem(input *grid.FaceCenteredGrid) {
	res := input.Resolution()
	s.system.Resize(res)

	h := input.GridSpacing()
	invH := r3.Vec{X: 1 / h.X, Y: 1 / h.Y, Z: 1 / h.Z}
	invHSqr := r3.Vec{X: invH.X * invH.X, Y: invH.Y * invH.Y, Z: invH.Z * invH.Z}
	u, v, w := input.U(), input.V(), input.W()
	phi := s.fluidSDF

	s.system.A.Fill(fdm.MatrixRow{})
	s.system.B.Fill(0)

	s.fluidSDF.ParallelForEachIndex(s.ctx, func(i, j, k int) {
		row := s.system.A.Row(i, j, k)
		centerPhi := phi.At(i, j, k)
		if !levelset.IsInsideSDF(centerPhi) {
			row.Center = 1
			return
		}

		b := 0.0
		// addFace handles one face: weight and velocity of the face, the
		// neighbor's fluid SDF, and whether the neighbor is on the positive side.
		addFace := func(inDomain bool, weight, vel, neighborPhi, invH, invHSqr float64, positive bool, offDiag *float64) {
			sign := -1.0
			if positive {
				sign = 1
			}
			if !inDomain {
				b += sign * vel * invH
				return
			}
			term := weight * invHSqr
			if levelset.IsInsideSDF(neighborPhi) {
				row.Center += term
				if offDiag != nil {
					*offDiag -= term
				}
			} else {
				row.Center += term / theta(centerPhi, neighborPhi)
			}
			b += sign * weight * vel * invH
		}

		neighbor := func(ok bool, ii, jj, kk int) float64 {
			if !ok {
				return 0
			}
			return phi.At(ii, jj, kk)
		}

		addFace(i+1 < res.X, s.uWeights.At(i+1, j, k), u.At(i+1, j, k), neighbor(i+1 < res.X, i+1, j, k), invH.X, invHSqr.X, true, &row.Right)
		addFace(i > 0, s.uWeights.At(i, j, k), u.At(i, j, k), neighbor(i > 0, i-1, j, k), invH.X, invHSqr.X, false, nil)
		addFace(j+1 < res.Y, s.vWeights.At(i, j+1, k), v.At(i, j+1, k), neighbor(j+1 < res.Y, i, j+1, k), invH.Y, invHSqr.Y, true, &row.Up)
		addFace(j > 0, s.vWeights.At(i, j, k), v.At(i, j, k), neighbor(j > 0, i, j-1, k), invH.Y, invHSqr.Y, false, nil)
		addFace(k+1 < res.Z, s.wWeights.At(i, j, k+1), w.At(i, j, k+1), neighbor(k+1 < res.Z, i, j, k+1), invH.Z, invHSqr.Z, true, &row.Front)
		addFace(k > 0, s.wWeights.At(i, j, k), w.At(i, j, k), neighbor(k > 0, i, j, k-1), invH.Z, invHSqr.Z, false, nil)

		// Flux injected by a moving solid through the covered part of each face.
		b += (1-s.uWeights.At(i+1, j, k))*s.uBoundary.At(i+1, j, k)*invH.X -
			(1-s.uWeights.At(i, j, k))*s.uBoundary.At(i, j, k)*invH.X +
			(1-s.vWeights.At(i, j+1, k))*s.vBoundary.At(i, j+1, k)*invH.Y -
			(1-s.vWeights.At(i, j, k))*s.vBoundary.At(i, j, k)*invH.Y +
			(1-s.wWeights.At(i, j, k+1))*s.wBoundary.At(i, j, k+1)*invH.Z -
			(1-s.wWeights.At(i, j, k))*s.wBoundary.At(i, j, k)*invH.Z

		// A fluid cell with every face closed is inside the solid.
		if row.Center < dynamo.Epsilon {
			row.Center = 1
			b = 0
		}
		s.system.B.Set(i, j, k, b)
	})
}

func (s *FractionalSinglePhase) applyPressureGradient(input, output *grid.FaceCenteredGrid) {
	res := input.Resolution()
	h := input.GridSpacing()
	invH := r3.Vec{X: 1 / h.X, Y: 1 / h.Y, Z: 1 / h.Z}
	x := s.system.X
	phi := s.fluidSDF
	u, v, w := input.U(), input.V(), input.W()
	u0, v0, w0 := output.U(), output.V(), output.W()

	phi.ParallelForEachIndex(s.ctx, func(i, j, k int) {
		centerPhi := phi.At(i, j, k)
		p := x.At(i, j, k)
		centerFluid := levelset.IsInsideSDF(centerPhi)

		if i+1 < res.X && s.uWeights.At(i+1, j, k) > 0 {
			if np := phi.At(i+1, j, k); centerFluid || levelset.IsInsideSDF(np) {
				u0.Set(i+1, j, k, u.At(i+1, j, k)+invH.X/theta(centerPhi, np)*(x.At(i+1, j, k)-p))
			}
		}
		if j+1 < res.Y && s.vWeights.At(i, j+1, k) > 0 {
			if np := phi.At(i, j+1, k); centerFluid || levelset.IsInsideSDF(np) {
				v0.Set(i, j+1, k, v.At(i, j+1, k)+invH.Y/theta(centerPhi, np)*(x.At(i, j+1, k)-p))
			}
		}
		if k+1 < res.Z && s.wWeights.At(i, j, k+1) > 0 {
			if np := phi.At(i, j, k+1); centerFluid || levelset.IsInsideSDF(np) {
				w0.Set(i, j, k+1, w.At(i, j, k+1)+invH.Z/theta(centerPhi, np)*(x.At(i, j, k+1)-p))
			}
		}
	})
}
