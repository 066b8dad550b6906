// Package policy implements Gaussian policies for continuous action
// spaces as Gorgonia computational graphs.
//
// A Policy is either an *Actor, used by REINFORCE, or an *ActorCritic,
// which pairs the same actor with a state-value Critic. The parameters
// of each network live in a batch-1 evaluation graph. Learning
// algorithms clone the networks into their own training graphs with
// CloneTo and copy the trained weights back with Set.
package policy

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/hopperpg/initwfn"
	"github.com/samuelfneumann/hopperpg/network"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// ErrNoCritic is returned when the critic of a policy without one is
// requested.
var ErrNoCritic = errors.New("policy has no critic")

// Default hyperparameters
const (
	DefaultHidden    = 64
	DefaultInitSigma = 0.5
)

// Policy is a Gaussian policy over continuous actions. The set of
// implementations is closed: *Actor and *ActorCritic.
type Policy interface {
	// Evaluate returns the action distribution for each state. States
	// are either a single state as a mat.Vector or a batch with one
	// state per row.
	Evaluate(states mat.Matrix) (*Distribution, error)

	Algorithm() Algorithm
	StateDims() int
	ActionDims() int

	// Actor returns the actor of the policy
	Actor() *Actor

	// Critic returns the critic of the policy, or ErrNoCritic if the
	// policy does not have one.
	Critic() (*Critic, error)

	policy()
}

// Config describes the architecture and initialization of a policy.
// The zero value is replaced by the defaults: two hidden layers of 64
// tanh units, weights drawn from N(0, 1) with the given seed, zero
// biases, and a raw standard deviation parameter of 0.5.
type Config struct {
	Hidden     int
	Activation *network.Activation
	Init       *initwfn.InitWFn

	// InitSigma is the initial raw standard deviation parameter σ. Any
	// value, including 0, is legal since the standard deviation is
	// softplus(σ). Nil selects DefaultInitSigma.
	InitSigma *float64

	// Seed of the default weight initializer. It is ignored if Init is
	// set.
	Seed uint64
}

// withDefaults fills in unset fields of the config
func (c Config) withDefaults() (Config, error) {
	if c.Hidden == 0 {
		c.Hidden = DefaultHidden
	}
	if c.Activation == nil {
		c.Activation = network.TanH()
	}
	if c.InitSigma == nil {
		sigma := DefaultInitSigma
		c.InitSigma = &sigma
	}
	if c.Init == nil {
		init, err := initwfn.NewGaussian(0, 1, c.Seed)
		if err != nil {
			return c, err
		}
		c.Init = init
	}
	return c, nil
}

// New returns a new policy for the given algorithm. REINFORCE
// policies are returned as an *Actor and AC policies as an
// *ActorCritic.
func New(stateDims, actionDims int, alg Algorithm, c Config) (Policy,
	error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("new: %w: %v", ErrInvalidAlgorithm, alg)
	}
	if stateDims < 1 || actionDims < 1 {
		return nil, fmt.Errorf("new: state and action dimensions must be " +
			"positive")
	}
	if c.Hidden < 0 {
		return nil, fmt.Errorf("new: hidden layer width must be positive")
	}

	c, err := c.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	actor, err := newActor(stateDims, actionDims, c)
	if err != nil {
		return nil, fmt.Errorf("new: could not create actor: %v", err)
	}
	if alg == Reinforce {
		return actor, nil
	}

	critic, err := newCritic(stateDims, c)
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}
	return &ActorCritic{actor: actor, critic: critic}, nil
}

// hiddenLayers returns the hidden layer sizes and activations shared
// by the actor and critic networks
func hiddenLayers(hidden int, act *network.Activation) ([]int,
	[]*network.Activation) {
	return []int{hidden, hidden}, []*network.Activation{act, act}
}

// rows returns the states as a slice of rows. A mat.Vector is treated
// as a single state.
func rows(states mat.Matrix, features int) ([][]float64, error) {
	if v, ok := states.(mat.Vector); ok {
		if v.Len() != features {
			return nil, fmt.Errorf("invalid state dimension\n\twant(%v)"+
				"\n\thave(%v)", features, v.Len())
		}
		row := make([]float64, v.Len())
		for i := range row {
			row[i] = v.AtVec(i)
		}
		return [][]float64{row}, nil
	}

	r, c := states.Dims()
	if c != features {
		return nil, fmt.Errorf("invalid state dimension\n\twant(%v)"+
			"\n\thave(%v)", features, c)
	}
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, states)
	}
	return out, nil
}

// run runs a forward-only tape machine once and resets it
func run(vm G.VM) error {
	defer vm.Reset()
	return vm.RunAll()
}
