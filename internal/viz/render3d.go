package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits the domain center and projects with a simple perspective.
type Camera struct {
	Yaw, Pitch float64
	Zoom       float64
	// Distance from the eye to the center, in domain half-extents.
	Distance float64
}

func NewCamera() *Camera {
	return &Camera{Yaw: 0.6, Pitch: 0.35, Zoom: 1, Distance: 4}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+dPitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	p.Y, p.Z = p.Y*cp-p.Z*sp, p.Y*sp+p.Z*cp
	return p
}

// Project maps p, already normalized so the domain spans [-1, 1], to
// pixel coordinates on a w x h raster.
func (c *Camera) Project(p r3.Vec, w, h int) (x, y int, visible bool) {
	rot := c.rotate(p)
	depth := c.Distance - rot.Z
	if depth <= 0.1 {
		return 0, 0, false
	}
	scale := c.Zoom * c.Distance / depth * float64(min(w, h)) / 3
	x = int(rot.X*scale) + w/2
	y = int(-rot.Y*scale) + h/2
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}

var boxEdges = [12][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}

// RenderOrbit draws the particles and the domain box as seen by cam.
func RenderOrbit(c *Canvas, positions []r3.Vec, lower, upper r3.Vec, cam *Camera) {
	if c == nil || cam == nil {
		return
	}
	center := r3.Scale(0.5, r3.Add(lower, upper))
	ext := r3.Sub(upper, lower)
	half := 0.5 * math.Max(ext.X, math.Max(ext.Y, ext.Z))
	if half <= 0 {
		return
	}
	normalize := func(p r3.Vec) r3.Vec { return r3.Scale(1/half, r3.Sub(p, center)) }
	pw, ph := c.PixelWidth(), c.PixelHeight()

	for _, p := range positions {
		if x, y, ok := cam.Project(normalize(p), pw, ph); ok {
			c.Set(x, y)
		}
	}

	l, u := normalize(lower), normalize(upper)
	corners := [8]r3.Vec{
		{X: l.X, Y: l.Y, Z: l.Z}, {X: u.X, Y: l.Y, Z: l.Z}, {X: u.X, Y: u.Y, Z: l.Z}, {X: l.X, Y: u.Y, Z: l.Z},
		{X: l.X, Y: l.Y, Z: u.Z}, {X: u.X, Y: l.Y, Z: u.Z}, {X: u.X, Y: u.Y, Z: u.Z}, {X: l.X, Y: u.Y, Z: u.Z},
	}
	for _, e := range boxEdges {
		x0, y0, ok0 := cam.Project(corners[e[0]], pw, ph)
		x1, y1, ok1 := cam.Project(corners[e[1]], pw, ph)
		if ok0 && ok1 {
			c.DrawLine(x0, y0, x1, y1)
		}
	}
}
