package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single step of agent-environment interaction as
// stored by a learner: the state acted in, the state reached, the
// action taken with its log-probability under the behaviour policy,
// the reward received and whether the step ended the episode.
type Transition struct {
	State     *mat.VecDense
	NextState *mat.VecDense
	Action    *mat.VecDense
	LogProb   float64
	Reward    float64
	Done      bool
}

// NewTransition builds the Transition between step and next, taking
// action with log-probability logProb.
func NewTransition(step TimeStep, action *mat.VecDense, logProb float64,
	next TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		NextState: next.Observation,
		Action:    action,
		LogProb:   logProb,
		Reward:    next.Reward,
		Done:      next.Last(),
	}
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Reward: %.2f  |  LogProb: %.3f  |  "+
		"Done: %v", t.Reward, t.LogProb, t.Done)
}
