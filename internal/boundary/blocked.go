package boundary

import (
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/levelset"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

// Blocked treats every cell as either fully solid or fully open. On top of
// the fractional treatment it forces the collider velocity onto every face
// between a solid cell and an open one.
type Blocked struct {
	*Fractional
	solid      []bool
	solidShape grid.Size3
}

// NewBlocked returns a blocked solver with every domain wall closed.
func NewBlocked(ctx *dynamo.Context) *Blocked {
	return &Blocked{Fractional: NewFractional(ctx)}
}

func (b *Blocked) UpdateCollider(collider surface.Collider, resolution grid.Size3, spacing, origin r3.Vec) {
	b.Fractional.UpdateCollider(collider, resolution, spacing, origin)

	b.solidShape = resolution
	b.solid = make([]bool, resolution.Len())
	sdf := b.colliderSDF
	sdf.Data().ParallelForEachIndex(b.ctx, func(i, j, k int) {
		b.solid[sdf.Data().Index(i, j, k)] = levelset.IsInsideSDF(sdf.At(i, j, k))
	})
}

// IsSolid reports whether cell (i, j, k) is inside the collider.
func (b *Blocked) IsSolid(i, j, k int) bool {
	return b.solid[i+b.solidShape.X*(j+b.solidShape.Y*k)]
}

func (b *Blocked) ConstrainVelocity(velocity *grid.FaceCenteredGrid, extrapolationDepth int) {
	if b.needsUpdate(velocity) || b.solidShape != velocity.Resolution() {
		b.UpdateCollider(b.collider, velocity.Resolution(), velocity.GridSpacing(), velocity.Origin())
	}
	b.Fractional.ConstrainVelocity(velocity, extrapolationDepth)

	size := velocity.Resolution()
	u, v, w := velocity.U(), velocity.V(), velocity.W()
	vel := b.colliderVel
	for k := 0; k < size.Z; k++ {
		for j := 0; j < size.Y; j++ {
			for i := 0; i < size.X; i++ {
				if !b.IsSolid(i, j, k) {
					continue
				}
				if i > 0 && !b.IsSolid(i-1, j, k) {
					u.Set(i, j, k, vel.Sample(velocity.UPosition(i, j, k)).X)
				}
				if i+1 < size.X && !b.IsSolid(i+1, j, k) {
					u.Set(i+1, j, k, vel.Sample(velocity.UPosition(i+1, j, k)).X)
				}
				if j > 0 && !b.IsSolid(i, j-1, k) {
					v.Set(i, j, k, vel.Sample(velocity.VPosition(i, j, k)).Y)
				}
				if j+1 < size.Y && !b.IsSolid(i, j+1, k) {
					v.Set(i, j+1, k, vel.Sample(velocity.VPosition(i, j+1, k)).Y)
				}
				if k > 0 && !b.IsSolid(i, j, k-1) {
					w.Set(i, j, k, vel.Sample(velocity.WPosition(i, j, k)).Z)
				}
				if k+1 < size.Z && !b.IsSolid(i, j, k+1) {
					w.Set(i, j, k+1, vel.Sample(velocity.WPosition(i, j, k+1)).Z)
				}
			}
		}
	}
}
