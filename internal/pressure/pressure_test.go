package pressure

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/fdm"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	noSolid    = grid.ConstantScalarField(math.MaxFloat64)
	noSolidVel = grid.ConstantVectorField{}
)

// upwardFlow sets v = 1 on every interior y face.
func upwardFlow(res grid.Size3) *grid.FaceCenteredGrid {
	vel := grid.NewFaceCenteredGrid(res, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
	vel.ForEachVIndex(func(i, j, k int) {
		if j > 0 && j < res.Y {
			vel.V().Set(i, j, k, 1)
		}
	})
	return vel
}

func surfaceAt(height float64) grid.ScalarField {
	return grid.ScalarFieldFunc(func(p r3.Vec) float64 { return p.Y - height })
}

func maxFluidDivergence(vel *grid.FaceCenteredGrid, fluid grid.ScalarField) float64 {
	res := vel.Resolution()
	worst := 0.0
	for k := 0; k < res.Z; k++ {
		for j := 0; j < res.Y; j++ {
			for i := 0; i < res.X; i++ {
				if fluid.Sample(vel.CellCenterPosition(i, j, k)) < 0 {
					worst = math.Max(worst, math.Abs(vel.DivergenceAtCellCenter(i, j, k)))
				}
			}
		}
	}
	return worst
}

func expectVelocityNear(vel *grid.FaceCenteredGrid, target, tol float64) {
	for _, arr := range []*grid.Array3{vel.U(), vel.V(), vel.W()} {
		for _, x := range arr.Data() {
			Expect(x).To(BeNumerically("~", target, tol))
		}
	}
}

var _ = Describe("FractionalSinglePhase", func() {
	var (
		ctx    *dynamo.Context
		solver *FractionalSinglePhase
		res    grid.Size3
	)

	BeforeEach(func() {
		ctx = dynamo.NewContext(2)
		solver = NewFractionalSinglePhase(ctx)
		res = grid.Size3{X: 3, Y: 3, Z: 3}
	})

	It("suggests the fractional boundary solver", func() {
		Expect(solver.SuggestedBoundaryConditionSolver()).NotTo(BeNil())
		Expect(solver.LinearSystemSolver()).To(BeAssignableToTypeOf(&fdm.ICCGSolver{}))
	})

	Context("with a free surface at y = 2", func() {
		var input, output *grid.FaceCenteredGrid

		BeforeEach(func() {
			input = upwardFlow(res)
			output = grid.NewFaceCenteredGrid(res, input.GridSpacing(), input.Origin())
			ok, err := solver.Solve(input, 0.01, output, noSolid, noSolidVel, surfaceAt(2))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("solves the ghost fluid pressure", func() {
			p := solver.Pressure()
			for k := 0; k < res.Z; k++ {
				for i := 0; i < res.X; i++ {
					Expect(p.At(i, 0, k)).To(BeNumerically("~", 1.5, 1e-4))
					Expect(p.At(i, 1, k)).To(BeNumerically("~", 0.5, 1e-4))
					Expect(p.At(i, 2, k)).To(BeNumerically("~", 0, 1e-4))
				}
			}
		})

		It("removes the flow", func() {
			expectVelocityNear(output, 0, 1e-4)
		})

		It("leaves the input untouched", func() {
			Expect(input.V().At(1, 1, 1)).To(Equal(1.0))
		})
	})

	It("opens every face without a collider", func() {
		input := upwardFlow(res)
		_, err := solver.Solve(input, 0.01, input.Clone(), noSolid, noSolidVel, surfaceAt(2))
		Expect(err).NotTo(HaveOccurred())
		u, v, w := solver.Weights()
		for _, arr := range []*grid.Array3{u, v, w} {
			for _, x := range arr.Data() {
				Expect(x).To(Equal(1.0))
			}
		}
	})

	It("closes faces inside a collider", func() {
		res = grid.Size3{X: 4, Y: 4, Z: 4}
		input := grid.NewFaceCenteredGrid(res, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
		wall := surface.NewBox(r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 2, Y: 10, Z: 10})
		sdf := grid.ScalarFieldFunc(wall.SignedDistance)
		_, err := solver.Solve(input, 0.01, input.Clone(), sdf, noSolidVel, surfaceAt(10))
		Expect(err).NotTo(HaveOccurred())

		u, _, _ := solver.Weights()
		Expect(u.At(1, 1, 1)).To(Equal(0.0))
		Expect(u.At(3, 1, 1)).To(Equal(1.0))
	})

	It("rejects mismatched grids", func() {
		input := upwardFlow(res)
		output := grid.NewFaceCenteredGrid(grid.Size3{X: 4, Y: 3, Z: 3}, input.GridSpacing(), input.Origin())
		_, err := solver.Solve(input, 0.01, output, noSolid, noSolidVel, surfaceAt(2))
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})
})

var _ = Describe("SinglePhase", func() {
	var ctx *dynamo.Context

	BeforeEach(func() {
		ctx = dynamo.NewContext(2)
	})

	It("solves the blocked free surface", func() {
		res := grid.Size3{X: 3, Y: 3, Z: 3}
		solver := NewSinglePhase(ctx)
		input := upwardFlow(res)
		output := input.Clone()

		ok, err := solver.Solve(input, 0.01, output, noSolid, noSolidVel, surfaceAt(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		p := solver.Pressure()
		Expect(p.At(1, 0, 1)).To(BeNumerically("~", 2, 1e-4))
		Expect(p.At(1, 1, 1)).To(BeNumerically("~", 1, 1e-4))
		Expect(p.At(1, 2, 1)).To(BeNumerically("~", 0, 1e-4))
		expectVelocityNear(output, 0, 1e-4)
		Expect(solver.MarkersAt(0).At(0, 2, 0)).To(Equal(Air))
	})

	It("marks solid cells as boundary", func() {
		res := grid.Size3{X: 4, Y: 4, Z: 4}
		solver := NewSinglePhase(ctx)
		input := grid.NewFaceCenteredGrid(res, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
		floor := grid.ScalarFieldFunc(func(p r3.Vec) float64 { return p.Y - 1 })

		_, err := solver.Solve(input, 0.01, input.Clone(), floor, noSolidVel, surfaceAt(3))
		Expect(err).NotTo(HaveOccurred())
		m := solver.MarkersAt(0)
		Expect(m.At(2, 0, 2)).To(Equal(Boundary))
		Expect(m.At(2, 1, 2)).To(Equal(Fluid))
		Expect(m.At(2, 3, 2)).To(Equal(Air))
	})

	Context("with a multigrid solver", func() {
		var (
			solver *SinglePhase
			input  *grid.FaceCenteredGrid
			output *grid.FaceCenteredGrid
			fluid  grid.ScalarField
		)

		BeforeEach(func() {
			res := grid.Size3{X: 8, Y: 8, Z: 8}
			solver = NewSinglePhase(ctx)
			solver.SetLinearSystemSolver(fdm.NewMGSolver(ctx, fdm.DefaultMGParameters(), 5, 1, true))
			input = upwardFlow(res)
			output = input.Clone()
			fluid = surfaceAt(4)
		})

		It("builds coarse markers by majority", func() {
			_, err := solver.Solve(input, 0.01, output, noSolid, noSolidVel, fluid)
			Expect(err).NotTo(HaveOccurred())
			coarse := solver.MarkersAt(1)
			Expect(coarse.Size()).To(Equal(grid.Size3{X: 4, Y: 4, Z: 4}))
			Expect(coarse.At(0, 0, 0)).To(Equal(Fluid))
			Expect(coarse.At(0, 1, 0)).To(Equal(Fluid))
			Expect(coarse.At(0, 2, 0)).To(Equal(Air))
			Expect(coarse.At(0, 3, 0)).To(Equal(Air))
			Expect(solver.MarkersAt(3).Size()).To(Equal(grid.Size3{X: 1, Y: 1, Z: 1}))
			Expect(solver.MarkersAt(4)).To(BeNil())
		})

		It("makes the fluid divergence free", func() {
			before := maxFluidDivergence(input, fluid)
			_, err := solver.Solve(input, 0.01, output, noSolid, noSolidVel, fluid)
			Expect(err).NotTo(HaveOccurred())
			Expect(before).To(Equal(1.0))
			Expect(maxFluidDivergence(output, fluid)).To(BeNumerically("<", 1e-3))
			Expect(solver.LinearSystemSolver().LastNumberOfIterations()).To(Equal(5))
		})
	})
})

var _ = Describe("coarsenMarkers", func() {
	It("prefers fluid on ties", func() {
		Expect(argmax3([3]int{10, 10, 10})).To(Equal(Fluid))
		Expect(argmax3([3]int{1, 10, 10})).To(Equal(Air))
		Expect(argmax3([3]int{1, 2, 10})).To(Equal(Boundary))
	})
})
