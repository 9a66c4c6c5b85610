package emitter

import (
	"errors"
	"testing"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/particle"
	"github.com/san-kum/flipsim/internal/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitBox() surface.Box {
	return surface.NewBox(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
}

func TestOneShotFillsLattice(t *testing.T) {
	e, err := NewVolumeParticleEmitter(VolumeConfig{Surface: unitBox(), Spacing: 0.5, OneShot: true})
	require.NoError(t, err)
	ps := particle.NewSystemData(0)
	e.SetTarget(ps)

	require.NoError(t, e.Update(0, 0.1))
	// Three 3x3 layers and two offset 2x2 layers.
	assert.Equal(t, 35, ps.NumberOfParticles())
	assert.Equal(t, 35, e.NumberOfEmittedParticles())
	assert.Contains(t, ps.Positions(), r3.Vec{X: 0.25, Y: 0.25, Z: 0.25})

	require.NoError(t, e.Update(0.1, 0.1))
	assert.Equal(t, 35, ps.NumberOfParticles())
}

func TestMaxParticles(t *testing.T) {
	e, err := NewVolumeParticleEmitter(VolumeConfig{Surface: unitBox(), Spacing: 0.5, OneShot: true, MaxParticles: 10})
	require.NoError(t, err)
	ps := particle.NewSystemData(0)
	e.SetTarget(ps)
	require.NoError(t, e.Update(0, 0.1))
	assert.Equal(t, 10, ps.NumberOfParticles())
}

func TestContinuousDoesNotOverlap(t *testing.T) {
	e, err := NewVolumeParticleEmitter(VolumeConfig{Surface: unitBox(), Spacing: 0.2})
	require.NoError(t, err)
	ps := particle.NewSystemData(0)
	e.SetTarget(ps)

	require.NoError(t, e.Update(0, 0.1))
	first := ps.NumberOfParticles()
	assert.Positive(t, first)

	require.NoError(t, e.Update(0.1, 0.1))
	assert.Equal(t, first, ps.NumberOfParticles())

	require.NoError(t, ps.BuildNeighborSearcher(0.2))
	for i, p := range ps.Positions() {
		ps.NeighborSearcher().ForEachNearbyPoint(p, 0.199, func(j int, _ r3.Vec) {
			assert.Equal(t, i, j, "particles %d and %d overlap", i, j)
		})
	}
}

func TestEmittedVelocity(t *testing.T) {
	e, err := NewVolumeParticleEmitter(VolumeConfig{
		Surface:         unitBox(),
		Spacing:         0.5,
		OneShot:         true,
		LinearVelocity:  r3.Vec{X: 1},
		AngularVelocity: r3.Vec{Z: 1},
		RotationCenter:  r3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
	})
	require.NoError(t, err)
	ps := particle.NewSystemData(0)
	e.SetTarget(ps)
	require.NoError(t, e.Update(0, 0.1))

	for i, p := range ps.Positions() {
		want := r3.Vec{X: 1 - (p.Y - 0.5), Y: p.X - 0.5}
		assert.InDelta(t, 0, r3.Norm(r3.Sub(ps.Velocities()[i], want)), 1e-12)
	}
}

func TestJitterIsSeeded(t *testing.T) {
	emit := func(seed int64) []r3.Vec {
		e, err := NewVolumeParticleEmitter(VolumeConfig{
			Surface: surface.Sphere{Center: r3.Vec{X: 1, Y: 1, Z: 1}, Radius: 0.8},
			Spacing: 0.2, Jitter: 1, OneShot: true, Seed: seed,
		})
		require.NoError(t, err)
		ps := particle.NewSystemData(0)
		e.SetTarget(ps)
		require.NoError(t, e.Update(0, 0.1))
		return ps.Positions()
	}

	a, b, c := emit(3), emit(3), emit(4)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, p := range a {
		assert.LessOrEqual(t, r3.Norm(r3.Sub(p, r3.Vec{X: 1, Y: 1, Z: 1})), 0.8+1e-12)
	}
}

func TestUnboundedSurfaceNeedsBounds(t *testing.T) {
	floor := surface.Plane{Normal: r3.Vec{Y: 1}, Point: r3.Vec{Y: 0.5}}
	_, err := NewVolumeParticleEmitter(VolumeConfig{Surface: floor, Spacing: 0.1})
	assert.True(t, errors.Is(err, dynamo.ErrInvalidArgument))

	e, err := NewVolumeParticleEmitter(VolumeConfig{
		Surface: floor, Spacing: 0.5, OneShot: true,
		Bounds: surface.BoundingBox{Upper: r3.Vec{X: 1, Y: 1, Z: 1}},
	})
	require.NoError(t, err)
	ps := particle.NewSystemData(0)
	e.SetTarget(ps)
	require.NoError(t, e.Update(0, 0.1))
	for _, p := range ps.Positions() {
		assert.LessOrEqual(t, p.Y, 0.5)
	}
}

func TestSet(t *testing.T) {
	a, err := NewVolumeParticleEmitter(VolumeConfig{Surface: unitBox(), Spacing: 0.5, OneShot: true})
	require.NoError(t, err)
	b, err := NewVolumeParticleEmitter(VolumeConfig{Surface: unitBox(), Spacing: 0.5, OneShot: true, MaxParticles: 5})
	require.NoError(t, err)

	ps := particle.NewSystemData(0)
	set := NewSet(a, b)
	set.SetTarget(ps)

	set.SetEnabled(false)
	require.NoError(t, set.Update(0, 0.1))
	assert.Equal(t, 0, ps.NumberOfParticles())

	set.SetEnabled(true)
	require.NoError(t, set.Update(0, 0.1))
	assert.Equal(t, 40, ps.NumberOfParticles())
}
