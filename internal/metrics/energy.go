package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// KineticEnergy is the total particle kinetic energy at the last
// observation.
type KineticEnergy struct {
	name  string
	value float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(s State, t float64) {
	k.value = kineticEnergy(s)
}

func (k *KineticEnergy) Value() float64 { return k.value }

func (k *KineticEnergy) Reset() { k.value = 0 }

func kineticEnergy(s State) float64 {
	particles := s.ParticleSystemData()
	sum := 0.0
	for _, v := range particles.Velocities() {
		sum += r3.Norm2(v)
	}
	return 0.5 * particles.Mass() * sum
}

// EnergyDrift is the largest relative change of kinetic energy from the
// first non-zero observation.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s State, t float64) {
	energy := kineticEnergy(s)
	if e.initial == 0 {
		e.initial = energy
		return
	}
	drift := math.Abs(energy-e.initial) / e.initial
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
}
