package solver

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flipsim/internal/boundary"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/emitter"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/particle"
	"github.com/san-kum/flipsim/internal/pressure"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

func cubeConfig(n int) Config {
	return DefaultConfig().WithDomain(grid.Size3{X: n, Y: n, Z: n}, 1)
}

func runFrames(update func(dynamo.Frame) error, n int) {
	frame := dynamo.NewFrame(60)
	for i := 0; i < n; i++ {
		frame.Advance()
		Expect(update(frame)).To(Succeed())
	}
}

func blockEmitter(lower, upper r3.Vec, spacing float64) *emitter.VolumeParticleEmitter {
	e, err := emitter.NewVolumeParticleEmitter(emitter.VolumeConfig{
		Surface: surface.NewBox(lower, upper),
		Spacing: spacing,
		OneShot: true,
	})
	Expect(err).NotTo(HaveOccurred())
	return e
}

func kineticEnergy(particles *particle.SystemData) float64 {
	ke := 0.0
	for _, v := range particles.Velocities() {
		ke += 0.5 * r3.Norm2(v)
	}
	return ke
}

func expectInsideUnitBox(particles *particle.SystemData) {
	const tol = 1e-9
	for _, p := range particles.Positions() {
		Expect(p.X).To(BeNumerically(">=", -tol))
		Expect(p.X).To(BeNumerically("<=", 1+tol))
		Expect(p.Y).To(BeNumerically(">=", -tol))
		Expect(p.Y).To(BeNumerically("<=", 1+tol))
		Expect(p.Z).To(BeNumerically(">=", -tol))
		Expect(p.Z).To(BeNumerically("<=", 1+tol))
	}
}

// failingEmitter fails on the first non-zero interval.
type failingEmitter struct{ err error }

func (f *failingEmitter) SetTarget(*particle.SystemData) {}
func (f *failingEmitter) IsEnabled() bool                { return true }
func (f *failingEmitter) SetEnabled(bool)                {}
func (f *failingEmitter) Update(_, dt float64) error {
	if dt > 0 {
		return f.err
	}
	return nil
}

var _ = Describe("GridFluidSolver", func() {
	It("rejects an empty grid and a non-positive CFL", func() {
		cfg := DefaultConfig()
		cfg.Resolution = grid.Size3{}
		_, err := NewGridFluidSolver(cfg)
		Expect(err).To(HaveOccurred())

		cfg = cubeConfig(4)
		cfg.MaxCFL = 0
		_, err = NewGridFluidSolver(cfg)
		Expect(errors.Is(err, dynamo.ErrInvalidArgument)).To(BeTrue())
	})

	It("splits a step by the CFL number", func() {
		cfg := cubeConfig(10)
		cfg.Gravity = r3.Vec{}
		s, err := NewGridFluidSolver(cfg)
		Expect(err).NotTo(HaveOccurred())
		s.Velocity().Fill(r3.Vec{X: 10})

		Expect(s.CFL(0.1)).To(BeNumerically("~", 10, 1e-9))
		Expect(s.NumberOfSubTimeSteps(0.1)).To(Equal(2))
		Expect(s.NumberOfSubTimeSteps(0.01)).To(Equal(1))
	})

	It("counts gravity in the CFL number", func() {
		cfg := cubeConfig(10)
		s, err := NewGridFluidSolver(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.CFL(0.1)).To(BeNumerically("~", 0.98, 1e-9))
	})

	It("keeps the closed flag when the pressure solver changes", func() {
		cfg := cubeConfig(4)
		cfg.ClosedDomain = boundary.DirectionDown | boundary.DirectionUp
		s, err := NewGridFluidSolver(cfg)
		Expect(err).NotTo(HaveOccurred())

		s.SetPressureSolver(pressure.NewSinglePhase(s.Context()))
		Expect(s.BoundarySolver().ClosedDomainBoundaryFlag()).To(Equal(cfg.ClosedDomain))
	})

	It("ignores frames it has already reached", func() {
		s, err := NewGridFluidSolver(cubeConfig(4))
		Expect(err).NotTo(HaveOccurred())
		runFrames(s.Update, 2)
		t := s.CurrentTime()

		Expect(s.Update(dynamo.Frame{Index: 0, TimeInterval: 1.0 / 60})).To(Succeed())
		Expect(s.CurrentTime()).To(Equal(t))
		Expect(s.CurrentFrame().Index).To(Equal(1))
	})
})

var _ = Describe("PICSolver", func() {
	It("updates with no particles", func() {
		s, err := NewPICSolver(cubeConfig(4))
		Expect(err).NotTo(HaveOccurred())
		runFrames(s.Update, 3)
		Expect(s.CurrentFrame().Index).To(Equal(2))
		Expect(s.ParticleSystemData().NumberOfParticles()).To(BeZero())
	})

	It("lets a block of fluid fall and keeps it in the domain", func() {
		s, err := NewPICSolver(cubeConfig(8))
		Expect(err).NotTo(HaveOccurred())
		s.SetEmitter(blockEmitter(r3.Vec{X: 0.25, Y: 0.4, Z: 0.25}, r3.Vec{X: 0.75, Y: 0.8, Z: 0.75}, 0.0625))
		runFrames(s.Update, 4)

		particles := s.ParticleSystemData()
		Expect(particles.NumberOfParticles()).To(BeNumerically(">", 0))
		expectInsideUnitBox(particles)

		meanVY := 0.0
		for _, v := range particles.Velocities() {
			meanVY += v.Y
		}
		meanVY /= float64(particles.NumberOfParticles())
		Expect(meanVY).To(BeNumerically("<", 0))
	})

	It("keeps particles out of a collider", func() {
		s, err := NewPICSolver(cubeConfig(8))
		Expect(err).NotTo(HaveOccurred())
		ball := surface.Sphere{Center: r3.Vec{X: 0.5, Y: 0.25, Z: 0.5}, Radius: 0.2}
		s.SetCollider(surface.NewRigidBodyCollider(ball))
		s.SetEmitter(blockEmitter(r3.Vec{X: 0.3, Y: 0.5, Z: 0.3}, r3.Vec{X: 0.7, Y: 0.7, Z: 0.7}, 0.05))
		runFrames(s.Update, 10)

		for _, p := range s.ParticleSystemData().Positions() {
			Expect(ball.SignedDistance(p)).To(BeNumerically(">", -1e-6))
		}
	})

	It("runs with the blocked pressure solver", func() {
		s, err := NewPICSolver(cubeConfig(8))
		Expect(err).NotTo(HaveOccurred())
		s.SetPressureSolver(pressure.NewSinglePhase(s.Context()))
		s.SetEmitter(blockEmitter(r3.Vec{}, r3.Vec{X: 0.5, Y: 0.5, Z: 1}, 0.0625))
		runFrames(s.Update, 3)

		expectInsideUnitBox(s.ParticleSystemData())
		Expect(s.BoundarySolver().ClosedDomainBoundaryFlag()).To(Equal(boundary.DirectionAll))
		Expect(s.LastPressureIterations()).To(BeNumerically(">", 0))
	})

	It("wraps emitter errors with the frame", func() {
		s, err := NewPICSolver(cubeConfig(4))
		Expect(err).NotTo(HaveOccurred())
		boom := errors.New("boom")
		s.SetEmitter(&failingEmitter{err: boom})

		err = s.Update(dynamo.Frame{Index: 0, TimeInterval: 1.0 / 60})
		Expect(errors.Is(err, boom)).To(BeTrue())
		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Frame).To(Equal(0))
		Expect(simErr.SubStep).To(Equal(0))
	})
})

var _ = Describe("FLIPSolver", func() {
	It("clamps the blending factor", func() {
		cfg := cubeConfig(4)
		cfg.PICBlending = 2
		s, err := NewFLIPSolver(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.PICBlendingFactor()).To(Equal(1.0))
		s.SetPICBlendingFactor(-1)
		Expect(s.PICBlendingFactor()).To(BeZero())
	})

	It("dissipates less kinetic energy than PIC", func() {
		cfg := cubeConfig(8)
		cfg.Gravity = r3.Vec{}

		rng := rand.New(rand.NewSource(7))
		var positions, velocities []r3.Vec
		for k := 0; k < 16; k++ {
			for j := 0; j < 16; j++ {
				for i := 0; i < 16; i++ {
					positions = append(positions, r3.Vec{X: (float64(i) + 0.5) / 16, Y: (float64(j) + 0.5) / 16, Z: (float64(k) + 0.5) / 16})
					velocities = append(velocities, r3.Vec{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5})
				}
			}
		}

		pic, err := NewPICSolver(cfg)
		Expect(err).NotTo(HaveOccurred())
		flip, err := NewFLIPSolver(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(pic.ParticleSystemData().AddParticles(positions, velocities, nil)).To(Succeed())
		Expect(flip.ParticleSystemData().AddParticles(positions, velocities, nil)).To(Succeed())

		ke0 := kineticEnergy(pic.ParticleSystemData())
		runFrames(pic.Update, 3)
		runFrames(flip.Update, 3)

		picKE := kineticEnergy(pic.ParticleSystemData())
		flipKE := kineticEnergy(flip.ParticleSystemData())
		Expect(picKE).To(BeNumerically("<", ke0))
		Expect(flipKE).To(BeNumerically(">", picKE))
		Expect(math.IsNaN(flipKE)).To(BeFalse())
	})
})
