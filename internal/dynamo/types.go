package dynamo

import "math"

// Frame is one animation frame. Index starts at -1 before the first update.
type Frame struct {
	Index        int
	TimeInterval float64
}

// NewFrame returns the frame preceding the first one for the given fps.
func NewFrame(fps float64) Frame {
	return Frame{Index: -1, TimeInterval: 1.0 / fps}
}

// TimeInSeconds is the start time of the frame.
func (f Frame) TimeInSeconds() float64 {
	return float64(f.Index) * f.TimeInterval
}

// Advance moves to the next frame.
func (f *Frame) Advance() {
	f.Index++
}

// AdvanceBy moves delta frames forward.
func (f *Frame) AdvanceBy(delta int) {
	f.Index += delta
}

// IsFinite reports whether every value is neither NaN nor infinite.
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Epsilon used by the solvers to compare floating point values against zero.
const Epsilon = 1e-9
