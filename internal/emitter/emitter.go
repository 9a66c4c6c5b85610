// Package emitter adds particles to a particle system over time.
package emitter

import (
	"github.com/san-kum/flipsim/internal/particle"
)

// Emitter is invoked once per sub-step before forces are computed.
type Emitter interface {
	SetTarget(particles *particle.SystemData)
	Update(currentTime, timeInterval float64) error
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// Set forwards every call to its members in order.
type Set struct {
	emitters []Emitter
	enabled  bool
}

func NewSet(emitters ...Emitter) *Set {
	return &Set{emitters: emitters, enabled: true}
}

func (s *Set) Add(e Emitter)         { s.emitters = append(s.emitters, e) }
func (s *Set) Emitters() []Emitter   { return s.emitters }
func (s *Set) IsEnabled() bool       { return s.enabled }
func (s *Set) SetEnabled(value bool) { s.enabled = value }

func (s *Set) SetTarget(particles *particle.SystemData) {
	for _, e := range s.emitters {
		e.SetTarget(particles)
	}
}

func (s *Set) Update(currentTime, timeInterval float64) error {
	if !s.enabled {
		return nil
	}
	for _, e := range s.emitters {
		if err := e.Update(currentTime, timeInterval); err != nil {
			return err
		}
	}
	return nil
}
