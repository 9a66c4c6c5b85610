// Package export renders particle dumps and metric histories as SVG.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/viz"
	"gonum.org/v1/gonum/spatial/r3"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// CanvasToSVG draws every lit Braille dot as a circle, scale pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.PixelWidth(), canvas.PixelHeight()

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, int(float64(w)*scale), int(float64(h)*scale), int(float64(w)*scale), int(float64(h)*scale))
	sb.WriteString(`<g fill="#00a8cc">` + "\n")
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, 0.4*scale)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// ParticleStyle configures ParticlesToSVG.
type ParticleStyle struct {
	// Width of the image in pixels. The height follows the domain aspect.
	Width  int
	Radius float64
	Fill   string
}

func DefaultParticleStyle() ParticleStyle {
	return ParticleStyle{Width: 600, Radius: 1.5, Fill: "#00a8cc"}
}

// ParticlesToSVG projects positions onto plane and writes one circle per
// particle inside an outline of the domain [lower, upper].
func ParticlesToSVG(w io.Writer, positions []r3.Vec, lower, upper r3.Vec, plane viz.Plane, style ParticleStyle) error {
	u0, v0 := plane.Project(lower)
	u1, v1 := plane.Project(upper)
	if !(u1 > u0) || !(v1 > v0) || style.Width <= 0 {
		return fmt.Errorf("domain %v - %v at width %d: %w", lower, upper, style.Width, dynamo.ErrInvalidArgument)
	}
	scale := float64(style.Width) / (u1 - u0)
	height := int((v1 - v0) * scale)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, svgHeader, style.Width, height, style.Width, height)
	fmt.Fprintf(bw, `<rect x="0" y="0" width="%d" height="%d" fill="none" stroke="#444466"/>`+"\n", style.Width, height)
	fmt.Fprintf(bw, `<g fill="%s">`+"\n", style.Fill)
	for _, p := range positions {
		u, v := plane.Project(p)
		fmt.Fprintf(bw, `<circle cx="%.2f" cy="%.2f" r="%.2f"/>`+"\n",
			(u-u0)*scale, float64(height)-(v-v0)*scale, style.Radius)
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

// SeriesToSVG draws a metric history as a polyline, padded by a tenth of
// its range.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
	last := float64(len(values) - 1)
	for i, v := range values {
		x := float64(i) / last * float64(width)
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}
