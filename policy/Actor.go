package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/hopperpg/network"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Actor is a Gaussian policy whose mean is a feed forward function of
// the state and whose standard deviation is softplus(σ) for a learned
// vector σ shared across all states.
type Actor struct {
	stateDims  int
	actionDims int

	eval *ActorGraph
	vm   G.VM
}

// ActorGraph is the Gaussian actor added to a specific computational
// graph with a fixed input batch size.
type ActorGraph struct {
	net    *network.MLP
	sigma  *G.Node // raw standard deviation parameter, shape (1, A)
	stddev *G.Node

	meanVal   G.Value
	stddevVal G.Value
}

// newActor returns a new actor with a batch-1 evaluation graph
func newActor(stateDims, actionDims int, c Config) (*Actor, error) {
	g := G.NewGraph()

	hiddenSizes, activations := hiddenLayers(c.Hidden, c.Activation)
	net, err := network.NewMLP("actor", stateDims, 1, actionDims, g,
		hiddenSizes, c.Init.InitWFn(), activations)
	if err != nil {
		return nil, fmt.Errorf("newActor: %v", err)
	}

	sigma := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, actionDims),
		G.WithName("actorSigma"),
		G.WithInit(G.ValuesOf(*c.InitSigma)),
	)

	eval, err := newActorGraph(net, sigma)
	if err != nil {
		return nil, fmt.Errorf("newActor: %v", err)
	}

	return &Actor{
		stateDims:  stateDims,
		actionDims: actionDims,
		eval:       eval,
		vm:         G.NewTapeMachine(g),
	}, nil
}

// newActorGraph adds the standard deviation and read nodes to a graph
// that already contains the mean network and σ.
func newActorGraph(net *network.MLP, sigma *G.Node) (*ActorGraph, error) {
	// softplus(σ) = max(σ, 0) + log(1 + exp(-|σ|)), which cannot
	// overflow for large σ
	abs, err := G.Abs(sigma)
	if err != nil {
		return nil, err
	}
	exp, err := G.Exp(G.Must(G.Neg(abs)))
	if err != nil {
		return nil, err
	}
	log1p, err := G.Log1p(exp)
	if err != nil {
		return nil, err
	}
	relu, err := G.Rectify(sigma)
	if err != nil {
		return nil, err
	}
	stddev, err := G.Add(relu, log1p)
	if err != nil {
		return nil, err
	}

	a := &ActorGraph{net: net, sigma: sigma, stddev: stddev}
	G.Read(net.Prediction(), &a.meanVal)
	G.Read(stddev, &a.stddevVal)

	return a, nil
}

// CloneTo clones the actor into graph g with the given input batch
// size. The clone starts with a copy of the actor's weights.
func (a *Actor) CloneTo(g *G.ExprGraph, batch int) (*ActorGraph, error) {
	net, err := a.eval.net.CloneTo(g, batch)
	if err != nil {
		return nil, fmt.Errorf("cloneTo: %v", err)
	}
	sigma := a.eval.sigma.CloneTo(g)

	clone, err := newActorGraph(net, sigma)
	if err != nil {
		return nil, fmt.Errorf("cloneTo: %v", err)
	}
	if err := clone.Set(a); err != nil {
		return nil, fmt.Errorf("cloneTo: %v", err)
	}
	return clone, nil
}

// Set sets the weights of the actor to those of an ActorGraph cloned
// from it.
func (a *Actor) Set(source *ActorGraph) error {
	return network.CopyLearnables(a.Learnables(), source.Learnables())
}

// Learnables returns the learnable nodes of the evaluation graph
func (a *Actor) Learnables() G.Nodes {
	return a.eval.Learnables()
}

// Params returns a copy of the actor's current weights
func (a *Actor) Params() [][]float64 {
	return network.Values(a.Learnables())
}

// Evaluate returns the action distribution for each state
func (a *Actor) Evaluate(states mat.Matrix) (*Distribution, error) {
	in, err := rows(states, a.stateDims)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %v", err)
	}

	mean := mat.NewDense(len(in), a.actionDims, nil)
	var stddev []float64
	for i, row := range in {
		if err := a.eval.net.SetInput(row); err != nil {
			return nil, fmt.Errorf("evaluate: %v", err)
		}
		if err := run(a.vm); err != nil {
			return nil, fmt.Errorf("evaluate: could not run graph: %v", err)
		}
		mean.SetRow(i, a.eval.meanVal.Data().([]float64))
		if stddev == nil {
			stddev = append([]float64(nil),
				a.eval.stddevVal.Data().([]float64)...)
		}
	}

	return NewDistribution(mean, stddev)
}

// StdDev returns the current per-dimension standard deviation
func (a *Actor) StdDev() []float64 {
	sigma := a.eval.sigma.Value().Data().([]float64)
	stddev := make([]float64, len(sigma))
	for i := range sigma {
		stddev[i] = Softplus(sigma[i])
	}
	return stddev
}

func (a *Actor) Algorithm() Algorithm { return Reinforce }
func (a *Actor) StateDims() int       { return a.stateDims }
func (a *Actor) ActionDims() int      { return a.actionDims }
func (a *Actor) Actor() *Actor        { return a }

// Critic always returns ErrNoCritic, since REINFORCE policies do not
// estimate state values.
func (a *Actor) Critic() (*Critic, error) {
	return nil, ErrNoCritic
}

func (a *Actor) policy() {}

// Input returns the state input node, of shape (batch, state dims)
func (ag *ActorGraph) Input() *G.Node {
	return ag.net.Input()
}

// Mean returns the node holding the mean action of each state
func (ag *ActorGraph) Mean() *G.Node {
	return ag.net.Prediction()
}

// StdDev returns the node holding the standard deviation, of shape
// (1, action dims)
func (ag *ActorGraph) StdDev() *G.Node {
	return ag.stddev
}

// BatchSize returns the number of states the graph takes as input
func (ag *ActorGraph) BatchSize() int {
	return ag.net.BatchSize()
}

// Learnables returns the network weights followed by σ
func (ag *ActorGraph) Learnables() G.Nodes {
	learnables := make(G.Nodes, 0, len(ag.net.Learnables())+1)
	learnables = append(learnables, ag.net.Learnables()...)
	return append(learnables, ag.sigma)
}

// Set sets the weights of the ActorGraph to those of an actor
func (ag *ActorGraph) Set(source *Actor) error {
	return network.CopyLearnables(ag.Learnables(), source.Learnables())
}

// LogProb adds the joint log density of the given actions to the
// graph. Actions must have shape (batch, action dims); the result has
// shape (batch).
func (ag *ActorGraph) LogProb(actions *G.Node) (*G.Node, error) {
	if !actions.Shape().Eq(ag.Mean().Shape()) {
		return nil, fmt.Errorf("logProb: invalid actions shape"+
			"\n\twant(%v)\n\thave(%v)", ag.Mean().Shape(), actions.Shape())
	}
	// z = (a - μ) / σ
	diff, err := G.Sub(actions, ag.Mean())
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}
	z, err := G.BroadcastHadamardDiv(diff, ag.stddev, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}
	sq, err := G.Square(z)
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}

	// -z²/2 - log σ - log(2π)/2
	half := G.NewConstant(-0.5, G.WithName("negHalf"))
	logProb, err := G.Mul(sq, half)
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}
	logStd, err := G.Log(ag.stddev)
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}
	logProb, err = G.BroadcastSub(logProb, logStd, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}
	norm := G.NewConstant(0.5*math.Log(2*math.Pi), G.WithName("logNorm"))
	logProb, err = G.Sub(logProb, norm)
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}

	// Independent dimensions, so sum over the action dimension
	return G.Sum(logProb, 1)
}
