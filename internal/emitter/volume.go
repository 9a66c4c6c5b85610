package emitter

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/particle"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

// VolumeConfig describes a VolumeParticleEmitter.
type VolumeConfig struct {
	Surface surface.Surface
	// Bounds clips the emission region. Unbounded surfaces require it.
	Bounds  surface.BoundingBox
	Spacing float64

	InitialVelocity r3.Vec
	LinearVelocity  r3.Vec
	AngularVelocity r3.Vec
	RotationCenter  r3.Vec

	MaxParticles int
	// Jitter in [0, 1] scales a random offset of up to half the spacing.
	Jitter           float64
	OneShot          bool
	AllowOverlapping bool
	Seed             int64
}

func (c VolumeConfig) hasBounds() bool {
	return c.Bounds != (surface.BoundingBox{}) && !c.Bounds.IsEmpty()
}

// VolumeParticleEmitter fills the inside of a surface with particles on a
// body-centered cubic lattice.
type VolumeParticleEmitter struct {
	cfg     VolumeConfig
	rng     *rand.Rand
	target  *particle.SystemData
	emitted int
	enabled bool

	// OnBeginUpdate runs before each emission.
	OnBeginUpdate func(e *VolumeParticleEmitter, currentTime, timeInterval float64)
}

// NewVolumeParticleEmitter validates cfg.
func NewVolumeParticleEmitter(cfg VolumeConfig) (*VolumeParticleEmitter, error) {
	if cfg.Surface == nil {
		return nil, fmt.Errorf("emitter surface is nil: %w", dynamo.ErrInvalidArgument)
	}
	if !(cfg.Spacing > 0) {
		return nil, fmt.Errorf("emitter spacing %g: %w", cfg.Spacing, dynamo.ErrInvalidArgument)
	}
	if cfg.MaxParticles <= 0 {
		cfg.MaxParticles = math.MaxInt
	}
	if !cfg.Surface.IsBounded() && !cfg.hasBounds() {
		return nil, fmt.Errorf("unbounded emitter surface needs bounds: %w", dynamo.ErrInvalidArgument)
	}
	cfg.Jitter = dynamo.Clamp(cfg.Jitter, 0, 1)
	return &VolumeParticleEmitter{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		enabled: true,
	}, nil
}

func (e *VolumeParticleEmitter) SetTarget(particles *particle.SystemData) { e.target = particles }
func (e *VolumeParticleEmitter) IsEnabled() bool                          { return e.enabled }
func (e *VolumeParticleEmitter) SetEnabled(value bool)                    { e.enabled = value }

// NumberOfEmittedParticles counts particles added since construction.
func (e *VolumeParticleEmitter) NumberOfEmittedParticles() int { return e.emitted }

func (e *VolumeParticleEmitter) Update(currentTime, timeInterval float64) error {
	if e.OnBeginUpdate != nil {
		e.OnBeginUpdate(e, currentTime, timeInterval)
	}
	if !e.enabled || e.target == nil {
		return nil
	}
	if e.emitted > 0 && e.cfg.OneShot {
		return nil
	}

	positions := e.emit()
	velocities := make([]r3.Vec, len(positions))
	for i, p := range positions {
		velocities[i] = e.velocityAt(p)
	}
	return e.target.AddParticles(positions, velocities, nil)
}

func (e *VolumeParticleEmitter) region() surface.BoundingBox {
	if !e.cfg.hasBounds() {
		return e.cfg.Surface.BoundingBox()
	}
	if e.cfg.Surface.IsBounded() {
		return e.cfg.Bounds.Intersect(e.cfg.Surface.BoundingBox())
	}
	return e.cfg.Bounds
}

func (e *VolumeParticleEmitter) emit() []r3.Vec {
	region := e.region()
	maxJitter := 0.5 * e.cfg.Jitter * e.cfg.Spacing
	var out []r3.Vec

	candidate := func(p r3.Vec) r3.Vec {
		dir := uniformSampleSphere(e.rng.Float64(), e.rng.Float64())
		return r3.Add(p, r3.Scale(maxJitter, dir))
	}

	if e.cfg.AllowOverlapping || e.cfg.OneShot {
		forEachBCCPoint(region, e.cfg.Spacing, func(p r3.Vec) bool {
			c := candidate(p)
			if e.cfg.Surface.SignedDistance(c) <= 0 {
				if e.emitted >= e.cfg.MaxParticles {
					return false
				}
				out = append(out, c)
				e.emitted++
			}
			return true
		})
		return out
	}

	res := grid.Size3{X: particle.DefaultHashGridResolution, Y: particle.DefaultHashGridResolution, Z: particle.DefaultHashGridResolution}
	searcher := particle.NewHashGridSearcher(res, 2*e.cfg.Spacing)
	searcher.Build(e.target.Positions())
	forEachBCCPoint(region, e.cfg.Spacing, func(p r3.Vec) bool {
		c := candidate(p)
		if surface.IsInside(e.cfg.Surface, c) && !searcher.HasNearbyPoint(c, e.cfg.Spacing) {
			if e.emitted >= e.cfg.MaxParticles {
				return false
			}
			out = append(out, c)
			searcher.Add(c)
			e.emitted++
		}
		return true
	})
	return out
}

func (e *VolumeParticleEmitter) velocityAt(p r3.Vec) r3.Vec {
	r := r3.Sub(p, e.cfg.RotationCenter)
	return r3.Add(r3.Add(e.cfg.LinearVelocity, r3.Cross(e.cfg.AngularVelocity, r)), e.cfg.InitialVelocity)
}

func uniformSampleSphere(u1, u2 float64) r3.Vec {
	y := 1 - 2*u1
	r := math.Sqrt(math.Max(0, 1-y*y))
	phi := 2 * math.Pi * u2
	return r3.Vec{X: r * math.Cos(phi), Y: y, Z: r * math.Sin(phi)}
}

// forEachBCCPoint walks a body-centered cubic lattice over box. Every other
// z layer is offset by half the spacing in x and y. Iteration stops when
// fn returns false.
func forEachBCCPoint(box surface.BoundingBox, spacing float64, fn func(r3.Vec) bool) {
	half := spacing / 2
	width, height, depth := box.Width(), box.Height(), box.Depth()

	offset := 0.0
	for k := 0; float64(k)*half <= depth; k++ {
		z := float64(k)*half + box.Lower.Z
		for j := 0; float64(j)*spacing+offset <= height; j++ {
			y := float64(j)*spacing + offset + box.Lower.Y
			for i := 0; float64(i)*spacing+offset <= width; i++ {
				x := float64(i)*spacing + offset + box.Lower.X
				if !fn(r3.Vec{X: x, Y: y, Z: z}) {
					return
				}
			}
		}
		if offset == 0 {
			offset = half
		} else {
			offset = 0
		}
	}
}
