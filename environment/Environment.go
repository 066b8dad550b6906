// Package environment outlines the interfaces and structs needed to
// implement concrete environments. Environments are black boxes to the
// learning code: an agent only sees the observations, rewards and
// episode boundaries that an Environment returns.
package environment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/hopperpg/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end. If End returns true, it must
// also have marked the argument TimeStep as the last in the episode.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState *mat.VecDense) float64
}

// Environment implements a simulated environment
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first timestep of the new episode
	Reset() (ts.TimeStep, error)

	// Step takes an action in the environment and returns the next
	// timestep along with whether or not the episode has ended
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec
}

// Closer is an Environment holding resources that must be released
// after use
type Closer interface {
	Environment
	Close() error
}
