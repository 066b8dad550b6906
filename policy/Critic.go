package policy

import (
	"fmt"

	"github.com/samuelfneumann/hopperpg/network"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// Critic estimates the state value V(s) with a feed forward network
// that has the same hidden architecture as the actor.
type Critic struct {
	stateDims int

	net *network.MLP
	vm  G.VM
}

func newCritic(stateDims int, c Config) (*Critic, error) {
	g := G.NewGraph()

	hiddenSizes, activations := hiddenLayers(c.Hidden, c.Activation)
	net, err := network.NewMLP("critic", stateDims, 1, 1, g, hiddenSizes,
		c.Init.InitWFn(), activations)
	if err != nil {
		return nil, fmt.Errorf("newCritic: %v", err)
	}

	return &Critic{
		stateDims: stateDims,
		net:       net,
		vm:        G.NewTapeMachine(g),
	}, nil
}

// Values returns the state value estimate of each state
func (c *Critic) Values(states mat.Matrix) ([]float64, error) {
	in, err := rows(states, c.stateDims)
	if err != nil {
		return nil, fmt.Errorf("values: %v", err)
	}

	values := make([]float64, len(in))
	for i, row := range in {
		if err := c.net.SetInput(row); err != nil {
			return nil, fmt.Errorf("values: %v", err)
		}
		if err := run(c.vm); err != nil {
			return nil, fmt.Errorf("values: could not run graph: %v", err)
		}
		values[i] = c.net.Output().Data().([]float64)[0]
	}
	return values, nil
}

// CloneTo clones the critic network into graph g with the given input
// batch size.
func (c *Critic) CloneTo(g *G.ExprGraph, batch int) (*network.MLP, error) {
	net, err := c.net.CloneTo(g, batch)
	if err != nil {
		return nil, fmt.Errorf("cloneTo: %v", err)
	}
	if err := net.Set(c.net); err != nil {
		return nil, fmt.Errorf("cloneTo: %v", err)
	}
	return net, nil
}

// Set sets the critic's weights to those of a network cloned from it
func (c *Critic) Set(source *network.MLP) error {
	return c.net.Set(source)
}

// Learnables returns the learnable nodes of the evaluation graph
func (c *Critic) Learnables() G.Nodes {
	return c.net.Learnables()
}

// Params returns a copy of the critic's current weights
func (c *Critic) Params() [][]float64 {
	return network.Values(c.Learnables())
}
