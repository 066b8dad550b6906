// Package agent implements policy gradient agents that collect the
// transitions of an episode and learn from them with either
// REINFORCE or one-step actor-critic.
package agent

import (
	"github.com/samuelfneumann/hopperpg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent chooses actions with its policy, records the transitions
// that follow, and learns from the recorded transitions when asked to
// update. Updates consume every recorded transition.
type Agent interface {
	// SelectAction returns an action for the state. In evaluation
	// mode the action is the mean of the policy and ok is false;
	// otherwise the action is sampled and logProb is its joint log
	// density.
	SelectAction(state *mat.VecDense, eval bool) (action *mat.VecDense,
		logProb float64, ok bool, err error)

	// Record stores a transition for the next update
	Record(t timestep.Transition) error

	// Update learns from and then clears all recorded transitions
	Update() error

	// Len returns the number of recorded transitions
	Len() int
}
