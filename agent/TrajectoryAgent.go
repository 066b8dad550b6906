package agent

import (
	"fmt"

	"github.com/samuelfneumann/hopperpg/buffer"
	"github.com/samuelfneumann/hopperpg/policy"
	ts "github.com/samuelfneumann/hopperpg/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// learner updates a policy from a batch of transitions
type learner interface {
	update(b *buffer.Batch) error
}

// TrajectoryAgent selects actions with a Gaussian policy, stores the
// transitions of an episode, and updates the policy from them with the
// algorithm the policy was built for.
type TrajectoryAgent struct {
	policy  policy.Policy
	buffer  *buffer.EpisodeBuffer
	learner learner
	src     rand.Source

	// Only set for actor-critic policies, so that I can be queried
	ac *actorCritic
}

// New returns a new TrajectoryAgent for the policy
func New(p policy.Policy, c Config) (*TrajectoryAgent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	c, err := c.withSolvers()
	if err != nil {
		return nil, fmt.Errorf("new: could not create solvers: %v", err)
	}

	a := &TrajectoryAgent{
		policy: p,
		buffer: buffer.New(p.StateDims(), p.ActionDims()),
		src:    rand.NewSource(c.Seed),
	}

	switch p.Algorithm() {
	case policy.Reinforce:
		a.learner, err = newReinforce(p.Actor(), c.ActorSolver, c.Gamma,
			c.Baseline)

	case policy.AC:
		critic, cErr := p.Critic()
		if cErr != nil {
			return nil, fmt.Errorf("new: %v", cErr)
		}
		a.ac = newActorCritic(p.Actor(), critic, c.ActorSolver,
			c.CriticSolver, c.Gamma, c.DetachTarget)
		a.learner = a.ac

	default:
		return nil, fmt.Errorf("new: %w: %v", policy.ErrInvalidAlgorithm,
			p.Algorithm())
	}
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return a, nil
}

// SelectAction returns an action for the state. In evaluation mode
// the mean action is returned and ok is false. Otherwise an action is
// sampled and returned with the sum of its per-dimension log
// densities.
func (a *TrajectoryAgent) SelectAction(state *mat.VecDense,
	eval bool) (*mat.VecDense, float64, bool, error) {
	if state == nil || state.Len() != a.policy.StateDims() {
		have := 0
		if state != nil {
			have = state.Len()
		}
		return nil, 0, false, &AgentError{Op: "selectAction",
			Err: fmt.Errorf("%w: invalid state dimension\n\twant(%v)"+
				"\n\thave(%v)", buffer.ErrShapeMismatch,
				a.policy.StateDims(), have)}
	}

	dist, err := a.policy.Evaluate(state)
	if err != nil {
		return nil, 0, false, &AgentError{Op: "selectAction", Err: err}
	}

	if eval {
		return dist.MeanRow(0), 0, false, nil
	}

	sample := dist.Sample(a.src)
	action := mat.VecDenseCopyOf(sample.RowView(0))
	logProb, err := dist.LogProb(action)
	if err != nil {
		return nil, 0, false, &AgentError{Op: "selectAction", Err: err}
	}
	return action, logProb[0], true, nil
}

// Record stores a transition for the next update
func (a *TrajectoryAgent) Record(t ts.Transition) error {
	if err := a.buffer.Store(t); err != nil {
		return &AgentError{Op: "record", Err: err}
	}
	return nil
}

// Update learns from all recorded transitions and clears them. It is
// an error to update with no recorded transitions.
func (a *TrajectoryAgent) Update() error {
	batch, err := a.buffer.Drain()
	if err != nil {
		return &AgentError{Op: "update", Err: err}
	}
	if err := a.learner.update(batch); err != nil {
		return &AgentError{Op: "update", Err: err}
	}
	return nil
}

// Len returns the number of recorded transitions
func (a *TrajectoryAgent) Len() int {
	return a.buffer.Len()
}

// I returns the actor-critic discount accumulator. It is always 1 for
// REINFORCE agents.
func (a *TrajectoryAgent) I() float64 {
	if a.ac == nil {
		return 1
	}
	return a.ac.i
}

// Algorithm returns the learning algorithm of the agent
func (a *TrajectoryAgent) Algorithm() policy.Algorithm {
	return a.policy.Algorithm()
}

// Policy returns the policy the agent learns
func (a *TrajectoryAgent) Policy() policy.Policy {
	return a.policy
}
