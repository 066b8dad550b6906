package policy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ActorCritic is a Gaussian actor paired with a state-value critic.
type ActorCritic struct {
	actor  *Actor
	critic *Critic
}

// Evaluate returns the action distribution for each state
func (a *ActorCritic) Evaluate(states mat.Matrix) (*Distribution, error) {
	return a.actor.Evaluate(states)
}

// EvaluateValue returns both the action distribution and the state
// value estimate for each state.
func (a *ActorCritic) EvaluateValue(states mat.Matrix) (*Distribution,
	[]float64, error) {
	dist, err := a.actor.Evaluate(states)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluateValue: %v", err)
	}
	values, err := a.critic.Values(states)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluateValue: %v", err)
	}
	return dist, values, nil
}

func (a *ActorCritic) Algorithm() Algorithm { return AC }
func (a *ActorCritic) StateDims() int       { return a.actor.StateDims() }
func (a *ActorCritic) ActionDims() int      { return a.actor.ActionDims() }
func (a *ActorCritic) Actor() *Actor        { return a.actor }

func (a *ActorCritic) Critic() (*Critic, error) {
	return a.critic, nil
}

func (a *ActorCritic) policy() {}
