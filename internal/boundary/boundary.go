// Package boundary constrains grid velocities against solid colliders and
// the walls of the simulation domain.
package boundary

import (
	"strings"

	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

// Direction is a set of domain walls.
type Direction uint8

const (
	DirectionLeft Direction = 1 << iota
	DirectionRight
	DirectionDown
	DirectionUp
	DirectionBack
	DirectionFront

	DirectionNone Direction = 0
	DirectionAll            = DirectionLeft | DirectionRight | DirectionDown | DirectionUp | DirectionBack | DirectionFront
)

var directionNames = []struct {
	d    Direction
	name string
}{
	{DirectionLeft, "left"},
	{DirectionRight, "right"},
	{DirectionDown, "down"},
	{DirectionUp, "up"},
	{DirectionBack, "back"},
	{DirectionFront, "front"},
}

// Has reports whether every wall of o is in d.
func (d Direction) Has(o Direction) bool {
	return d&o == o
}

func (d Direction) String() string {
	if d == DirectionNone {
		return "none"
	}
	if d == DirectionAll {
		return "all"
	}
	var parts []string
	for _, dn := range directionNames {
		if d.Has(dn.d) {
			parts = append(parts, dn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseDirections converts names such as "all", "none" or "left,right,down"
// into a Direction. Unknown names are reported through ok.
func ParseDirections(names []string) (d Direction, ok bool) {
	for _, n := range names {
		switch n = strings.ToLower(strings.TrimSpace(n)); n {
		case "all":
			d |= DirectionAll
			continue
		case "none", "":
			continue
		}
		found := false
		for _, dn := range directionNames {
			if dn.name == n {
				d |= dn.d
				found = true
			}
		}
		if !found {
			return d, false
		}
	}
	return d, true
}

// Solver turns a collider into a signed distance field and velocity field
// and applies them to the MAC velocity grid.
type Solver interface {
	// UpdateCollider rebuilds the collider fields for the given grid shape.
	// A nil collider leaves the domain open.
	UpdateCollider(collider surface.Collider, resolution grid.Size3, spacing, origin r3.Vec)
	// ConstrainVelocity replaces velocities inside the collider and on
	// closed domain walls, extrapolating fluid velocity depth cells in.
	ConstrainVelocity(velocity *grid.FaceCenteredGrid, extrapolationDepth int)
	ColliderSDF() grid.ScalarField
	ColliderVelocityField() grid.VectorField
	ClosedDomainBoundaryFlag() Direction
	SetClosedDomainBoundaryFlag(flag Direction)
}

// zeroClosedWalls zeroes the normal velocity on every closed wall.
func zeroClosedWalls(velocity *grid.FaceCenteredGrid, flag Direction) {
	u, v, w := velocity.U(), velocity.V(), velocity.W()
	us, vs, ws := u.Size(), v.Size(), w.Size()

	for k := 0; k < us.Z; k++ {
		for j := 0; j < us.Y; j++ {
			if flag.Has(DirectionLeft) {
				u.Set(0, j, k, 0)
			}
			if flag.Has(DirectionRight) {
				u.Set(us.X-1, j, k, 0)
			}
		}
	}
	for k := 0; k < vs.Z; k++ {
		for i := 0; i < vs.X; i++ {
			if flag.Has(DirectionDown) {
				v.Set(i, 0, k, 0)
			}
			if flag.Has(DirectionUp) {
				v.Set(i, vs.Y-1, k, 0)
			}
		}
	}
	for j := 0; j < ws.Y; j++ {
		for i := 0; i < ws.X; i++ {
			if flag.Has(DirectionBack) {
				w.Set(i, j, 0, 0)
			}
			if flag.Has(DirectionFront) {
				w.Set(i, j, ws.Z-1, 0)
			}
		}
	}
}
