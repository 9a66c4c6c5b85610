package viz

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Braille cells hold a 2x4 dot matrix:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille raster. Its pixel resolution is (Width*2) x
// (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// PixelWidth and PixelHeight are the sub-cell resolution.
func (c *Canvas) PixelWidth() int  { return 2 * c.Width }
func (c *Canvas) PixelHeight() int { return 4 * c.Height }

// Set lights the pixel at (x, y). Out of range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the pixel at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Plane picks the two world axes an orthographic view keeps.
type Plane int

const (
	// PlaneXY looks along -z with y up.
	PlaneXY Plane = iota
	// PlaneXZ looks down -y.
	PlaneXZ
)

func (p Plane) String() string {
	if p == PlaneXZ {
		return "top"
	}
	return "side"
}

// Project returns the in-plane coordinates of v.
func (p Plane) Project(v r3.Vec) (u, w float64) {
	if p == PlaneXZ {
		return v.X, v.Z
	}
	return v.X, v.Y
}

// DrawParticles projects positions inside [lower, upper] orthographically
// onto the canvas and outlines the domain. Up on screen is +w.
func (c *Canvas) DrawParticles(positions []r3.Vec, lower, upper r3.Vec, plane Plane) {
	u0, w0 := plane.Project(lower)
	u1, w1 := plane.Project(upper)
	pw, ph := c.PixelWidth()-1, c.PixelHeight()-1
	if u1 <= u0 || w1 <= w0 || pw < 1 || ph < 1 {
		return
	}

	// Keep the aspect ratio. A Braille pixel is roughly square.
	scale := min(float64(pw)/(u1-u0), float64(ph)/(w1-w0))
	toPixel := func(u, w float64) (int, int) {
		return int((u - u0) * scale), ph - int((w-w0)*scale)
	}

	for _, p := range positions {
		c.Set(toPixel(plane.Project(p)))
	}

	x0, y0 := toPixel(u0, w0)
	x1, y1 := toPixel(u1, w1)
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x0, y1, x1, y1)
	c.DrawLine(x0, y0, x0, y1)
	c.DrawLine(x1, y0, x1, y1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
