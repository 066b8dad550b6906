package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a multi-layered perceptron with a single output
// layer of linear units.
type MLP struct {
	name       string
	g          *G.ExprGraph
	layers     []*fcLayer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	learnables G.Nodes

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron whose
// nodes are added to the graph g. The name is used to prefix all node
// names so that multiple networks can live in the same graph.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. For
// index i, hiddenSizes[i] is the number of units in hidden layer i and
// activations[i] is its activation function. A final linear layer
// producing outputs values is always added. Weights are initialized
// with init and biases are initialized to zero.
func NewMLP(name string, features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, init G.InitWFn, activations []*Activation) (*MLP,
	error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newMLP: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if features < 1 || outputs < 1 || batch < 1 {
		return nil, fmt.Errorf("newMLP: features, outputs, and batch size " +
			"must be positive")
	}

	layers := make([]*fcLayer, 0, len(hiddenSizes)+1)
	in := features
	for i := range hiddenSizes {
		layerName := fmt.Sprintf("%vL%d", name, i)
		layers = append(layers, newFCLayer(g, in, hiddenSizes[i],
			activations[i], init, layerName))
		in = hiddenSizes[i]
	}
	layerName := fmt.Sprintf("%vL%d", name, len(hiddenSizes))
	layers = append(layers, newFCLayer(g, in, outputs, Identity(), init,
		layerName))

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName(name+"Input"), G.WithInit(G.Zeroes()))

	net := &MLP{
		name:       name,
		g:          g,
		layers:     layers,
		input:      input,
		numOutputs: outputs,
		numInputs:  features,
		batchSize:  batch,
	}
	if err := net.fwdInput(); err != nil {
		return nil, fmt.Errorf("newMLP: could not compute forward pass: %v",
			err)
	}

	return net, nil
}

// CloneTo clones the MLP into graph g with a new input batch size.
// The weights of the clone start as copies of the weights of the
// receiver.
func (m *MLP) CloneTo(g *G.ExprGraph, batch int) (*MLP, error) {
	l := make([]*fcLayer, len(m.layers))
	for i := range m.layers {
		l[i] = m.layers[i].CloneTo(g)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, m.numInputs),
		G.WithName(m.name+"Input"), G.WithInit(G.Zeroes()))

	net := &MLP{
		name:       m.name,
		g:          g,
		layers:     l,
		input:      input,
		numOutputs: m.numOutputs,
		numInputs:  m.numInputs,
		batchSize:  batch,
	}
	if err := net.fwdInput(); err != nil {
		return nil, fmt.Errorf("cloneTo: could not compute forward pass: %v",
			err)
	}

	return net, nil
}

// fwdInput runs the forward pass on the network's own input node
func (m *MLP) fwdInput() error {
	pred, err := m.Fwd(m.input)
	if err != nil {
		return err
	}
	m.prediction = pred
	G.Read(m.prediction, &m.predVal)
	return nil
}

// Fwd adds the forward pass of the MLP on an arbitrary input node of
// the same graph and returns the output node. The network's own
// prediction node is unaffected.
func (m *MLP) Fwd(input *G.Node) (*G.Node, error) {
	if input.Graph() != m.g {
		return nil, fmt.Errorf("fwd: input node belongs to a different graph")
	}
	if !input.IsMatrix() || input.Shape()[1] != m.numInputs {
		return nil, fmt.Errorf("fwd: invalid shape for input to neural net:"+
			" \n\twant(*, %v) \n\thave(%v)", m.numInputs, input.Shape())
	}

	pred := input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}
	return pred, nil
}

// Graph returns the computational graph of the MLP
func (m *MLP) Graph() *G.ExprGraph {
	return m.g
}

// BatchSize returns the batch size of inputs to the MLP
func (m *MLP) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features in a single input
func (m *MLP) Features() int {
	return m.numInputs
}

// Outputs returns the number of outputs from the network
func (m *MLP) Outputs() int {
	return m.numOutputs
}

// Input returns the input node of the MLP
func (m *MLP) Input() *G.Node {
	return m.input
}

// SetInput sets the value of the input node before running the forward
// pass.
func (m *MLP) SetInput(input []float64) error {
	return Let(m.input, input)
}

// Set sets the weights of the MLP to be equal to the weights of
// another MLP with the same architecture.
func (m *MLP) Set(source *MLP) error {
	return CopyLearnables(m.Learnables(), source.Learnables())
}

// Learnables returns the learnable nodes of the MLP, ordered by layer
// with each layer's weights before its bias.
func (m *MLP) Learnables() G.Nodes {
	if m.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(m.layers))
		for i := range m.layers {
			learnables = append(learnables, m.layers[i].Weights(),
				m.layers[i].Bias())
		}
		m.learnables = G.Nodes(learnables)
	}
	return m.learnables
}

// Output returns the value of the MLP's prediction after the graph
// has been run.
func (m *MLP) Output() G.Value {
	return m.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the MLP
func (m *MLP) Prediction() *G.Node {
	return m.prediction
}
