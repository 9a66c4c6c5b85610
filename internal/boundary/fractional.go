package boundary

import (
	"math"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/levelset"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

// Fractional measures how much of each face the collider covers. Faces that
// are fully covered take the collider velocity, fluid velocity is
// extrapolated into the collider and then projected onto the collider's
// tangent plane (free slip with friction).
type Fractional struct {
	ctx         *dynamo.Context
	collider    surface.Collider
	closedFlags Direction

	colliderSDF *grid.ScalarGrid
	colliderVel grid.VectorField
}

// NewFractional returns a solver with every domain wall closed.
func NewFractional(ctx *dynamo.Context) *Fractional {
	return &Fractional{ctx: ctx, closedFlags: DirectionAll, colliderVel: grid.ConstantVectorField{}}
}

func (f *Fractional) Collider() surface.Collider              { return f.collider }
func (f *Fractional) ClosedDomainBoundaryFlag() Direction     { return f.closedFlags }
func (f *Fractional) SetClosedDomainBoundaryFlag(d Direction) { f.closedFlags = d }

// ColliderSDF is the cell-centered signed distance to the collider,
// math.MaxFloat64 everywhere when there is none.
func (f *Fractional) ColliderSDF() grid.ScalarField {
	if f.colliderSDF == nil {
		return grid.ConstantScalarField(math.MaxFloat64)
	}
	return f.colliderSDF
}

func (f *Fractional) ColliderVelocityField() grid.VectorField {
	return f.colliderVel
}

func (f *Fractional) UpdateCollider(collider surface.Collider, resolution grid.Size3, spacing, origin r3.Vec) {
	f.collider = collider
	if f.colliderSDF == nil {
		f.colliderSDF = grid.NewCellCenteredScalarGrid(resolution, spacing, origin, math.MaxFloat64)
	} else {
		f.colliderSDF.Resize(resolution, spacing, origin, math.MaxFloat64)
	}

	if collider == nil {
		f.colliderSDF.Fill(math.MaxFloat64)
		f.colliderVel = grid.ConstantVectorField{}
		return
	}
	shape := collider.Surface()
	f.colliderSDF.FillFunc(f.ctx, shape.SignedDistance)
	f.colliderVel = grid.VectorFieldFunc(collider.VelocityAt)
}

func (f *Fractional) needsUpdate(velocity *grid.FaceCenteredGrid) bool {
	return f.colliderSDF == nil ||
		f.colliderSDF.Resolution() != velocity.Resolution() ||
		f.colliderSDF.GridSpacing() != velocity.GridSpacing() ||
		f.colliderSDF.Origin() != velocity.Origin()
}

func (f *Fractional) friction() float64 {
	if f.collider == nil {
		return 0
	}
	return f.collider.FrictionCoefficient()
}

// faceComponent describes one velocity component for the shared loops.
type faceComponent struct {
	data     *grid.Array3
	position func(i, j, k int) r3.Vec
	offset   r3.Vec
	pick     func(r3.Vec) float64
}

func (f *Fractional) components(velocity *grid.FaceCenteredGrid) [3]faceComponent {
	h := velocity.GridSpacing()
	return [3]faceComponent{
		{velocity.U(), velocity.UPosition, r3.Vec{X: 0.5 * h.X}, func(v r3.Vec) float64 { return v.X }},
		{velocity.V(), velocity.VPosition, r3.Vec{Y: 0.5 * h.Y}, func(v r3.Vec) float64 { return v.Y }},
		{velocity.W(), velocity.WPosition, r3.Vec{Z: 0.5 * h.Z}, func(v r3.Vec) float64 { return v.Z }},
	}
}

func (f *Fractional) ConstrainVelocity(velocity *grid.FaceCenteredGrid, extrapolationDepth int) {
	if f.needsUpdate(velocity) {
		f.UpdateCollider(f.collider, velocity.Resolution(), velocity.GridSpacing(), velocity.Origin())
	}
	comps := f.components(velocity)

	// Faces covered by the collider take its velocity; open faces seed the
	// extrapolation.
	for _, c := range comps {
		size := c.data.Size()
		marker := make([]bool, size.Len())
		c.data.ParallelForEachIndex(f.ctx, func(i, j, k int) {
			pt := c.position(i, j, k)
			phi0 := f.colliderSDF.Sample(r3.Sub(pt, c.offset))
			phi1 := f.colliderSDF.Sample(r3.Add(pt, c.offset))
			open := 1 - dynamo.Clamp(levelset.FractionInsideSDF(phi0, phi1), 0, 1)
			if open > 0 {
				marker[c.data.Index(i, j, k)] = true
			} else {
				c.data.Set(i, j, k, c.pick(f.colliderVel.Sample(pt)))
			}
		})
		_ = levelset.ExtrapolateToRegion(f.ctx, c.data, marker, extrapolationDepth, c.data)
	}

	// Project the extrapolated velocity inside the collider onto its surface.
	friction := f.friction()
	temps := [3]*grid.Array3{}
	for n, c := range comps {
		temp := grid.NewArray3(c.data.Size())
		c.data.ParallelForEachIndex(f.ctx, func(i, j, k int) {
			pt := c.position(i, j, k)
			if !levelset.IsInsideSDF(f.colliderSDF.Sample(pt)) {
				temp.Set(i, j, k, c.data.At(i, j, k))
				return
			}
			colliderVel := f.colliderVel.Sample(pt)
			g := f.colliderSDF.Gradient(pt)
			if r3.Norm2(g) > 0 {
				normal := r3.Unit(g)
				velr := r3.Sub(velocity.Sample(pt), colliderVel)
				velt := projectAndApplyFriction(velr, normal, friction)
				temp.Set(i, j, k, c.pick(r3.Add(velt, colliderVel)))
			} else {
				temp.Set(i, j, k, c.pick(colliderVel))
			}
		})
		temps[n] = temp
	}
	for n, c := range comps {
		c.data.CopyFrom(temps[n])
	}

	zeroClosedWalls(velocity, f.closedFlags)
}

// projectAndApplyFriction removes the normal component of vel and scales the
// tangential part down by friction times the incoming normal speed.
func projectAndApplyFriction(vel, normal r3.Vec, friction float64) r3.Vec {
	velt := r3.Sub(vel, r3.Scale(r3.Dot(vel, normal), normal))
	if tLen := r3.Norm(velt); tLen > 0 {
		veln := math.Max(-r3.Dot(vel, normal), 0)
		velt = r3.Scale(math.Max(1-friction*veln/tLen, 0), velt)
	}
	return velt
}
