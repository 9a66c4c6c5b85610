// Package levelset holds signed-distance helpers: inside tests, fractional
// coverage of edges and faces, smeared step functions and extrapolation of
// grid values into invalid regions.
package levelset

import "math"

// IsInsideSDF reports whether phi marks a point inside the surface.
func IsInsideSDF(phi float64) bool {
	return phi < 0
}

// FractionInsideSDF returns the fraction of the segment between two samples
// that lies inside the surface, assuming phi varies linearly.
func FractionInsideSDF(phi0, phi1 float64) float64 {
	switch {
	case IsInsideSDF(phi0) && IsInsideSDF(phi1):
		return 1
	case IsInsideSDF(phi0) && !IsInsideSDF(phi1):
		return phi0 / (phi0 - phi1)
	case !IsInsideSDF(phi0) && IsInsideSDF(phi1):
		return phi1 / (phi1 - phi0)
	default:
		return 0
	}
}

// FractionInside estimates the area fraction of a unit square lying inside
// the surface from the signed distances at its four corners.
func FractionInside(phiBottomLeft, phiBottomRight, phiTopLeft, phiTopRight float64) float64 {
	list := [4]float64{phiBottomLeft, phiBottomRight, phiTopRight, phiTopLeft}
	insideCount := 0
	for _, p := range list {
		if p < 0 {
			insideCount++
		}
	}

	switch insideCount {
	case 4:
		return 1
	case 3:
		for list[0] < 0 {
			cycle(&list)
		}
		side0 := 1 - FractionInsideSDF(list[0], list[3])
		side1 := 1 - FractionInsideSDF(list[0], list[1])
		return 1 - 0.5*side0*side1
	case 2:
		for list[0] >= 0 || !(list[1] < 0 || list[2] < 0) {
			cycle(&list)
		}
		if list[1] < 0 {
			left := FractionInsideSDF(list[0], list[3])
			right := FractionInsideSDF(list[1], list[2])
			return 0.5 * (left + right)
		}
		// Diagonal case; the center sample decides the topology.
		middle := 0.25 * (list[0] + list[1] + list[2] + list[3])
		if middle < 0 {
			side1 := 1 - FractionInsideSDF(list[0], list[3])
			side3 := 1 - FractionInsideSDF(list[2], list[3])
			side2 := 1 - FractionInsideSDF(list[2], list[1])
			side0 := 1 - FractionInsideSDF(list[0], list[1])
			return 1 - 0.5*side1*side3 - 0.5*side0*side2
		}
		side0 := FractionInsideSDF(list[0], list[1])
		side1 := FractionInsideSDF(list[0], list[3])
		side2 := FractionInsideSDF(list[2], list[1])
		side3 := FractionInsideSDF(list[2], list[3])
		return 0.5*side0*side1 + 0.5*side2*side3
	case 1:
		for list[0] >= 0 {
			cycle(&list)
		}
		side0 := FractionInsideSDF(list[0], list[3])
		side1 := FractionInsideSDF(list[0], list[1])
		return 0.5 * side0 * side1
	default:
		return 0
	}
}

func cycle(list *[4]float64) {
	first := list[0]
	copy(list[:3], list[1:])
	list[3] = first
}

// DistanceToZeroLevelSet is the fraction of the way from phi0 to phi1 at
// which the interpolated level set crosses zero.
func DistanceToZeroLevelSet(phi0, phi1 float64) float64 {
	denom := math.Abs(phi0) + math.Abs(phi1)
	if denom < 1e-12 {
		return 0.5
	}
	return math.Abs(phi0) / denom
}

const smearWidth = 1.5

// SmearedHeavisideSDF is a smooth step from 0 (inside) to 1 (outside) over
// a band of 1.5 units around the surface.
func SmearedHeavisideSDF(phi float64) float64 {
	switch {
	case phi > smearWidth:
		return 1
	case phi < -smearWidth:
		return 0
	default:
		return 0.5 + phi/(2*smearWidth) + 0.5/math.Pi*math.Sin(math.Pi*phi/smearWidth)
	}
}

// SmearedDeltaSDF is the derivative of SmearedHeavisideSDF.
func SmearedDeltaSDF(phi float64) float64 {
	if math.Abs(phi) > smearWidth {
		return 0
	}
	return 1/(2*smearWidth) + 1/(2*smearWidth)*math.Cos(math.Pi*phi/smearWidth)
}
