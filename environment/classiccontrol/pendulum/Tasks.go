package pendulum

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/hopperpg/environment"
)

// SwingUp implements a task where the agent must swing the pendulum up
// and hold it in a vertical position. Rewards are the cosine of the
// pendulum angle measured from the positive y-axis, so they lie in
// [-1, 1] with 1 reached only when the pendulum points straight up.
// Episodes end after a fixed number of steps.
type SwingUp struct {
	environment.Starter
	environment.Ender
}

// NewSwingUp creates and returns a new SwingUp task
func NewSwingUp(s environment.Starter, maxSteps int) *SwingUp {
	ender := environment.NewStepLimit(maxSteps)
	return &SwingUp{s, ender}
}

// GetReward gets the reward for a transition
func (s *SwingUp) GetReward(_, _, nextState *mat.VecDense) float64 {
	return math.Cos(nextState.AtVec(0))
}
