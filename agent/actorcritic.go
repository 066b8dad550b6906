package agent

import (
	"fmt"

	"github.com/samuelfneumann/hopperpg/buffer"
	"github.com/samuelfneumann/hopperpg/network"
	"github.com/samuelfneumann/hopperpg/policy"
	"github.com/samuelfneumann/hopperpg/solver"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// actorCritic implements one-step actor-critic over a batch of
// transitions. The actor and critic losses are summed and
// differentiated together, and each network is stepped with its own
// solver.
type actorCritic struct {
	actor  *policy.Actor
	critic *policy.Critic

	// Training graphs are built lazily for each batch size seen
	graphs map[int]*acGraph

	actorSolver  *solver.Solver
	criticSolver *solver.Solver

	gamma  float64
	detach bool
	i      float64 // Discount accumulator I
}

// acGraph holds a training graph for a fixed batch size
type acGraph struct {
	actor  *policy.ActorGraph
	critic *network.MLP

	actions    *G.Node
	discount   *G.Node // I
	rewards    *G.Node // nil if targets are detached
	targets    *G.Node // nil unless targets are detached
	advantages *G.Node // nil unless targets are detached

	actorLearnables  G.Nodes
	criticLearnables G.Nodes
	vm               G.VM
}

func newActorCritic(actor *policy.Actor, critic *policy.Critic,
	actorSolver, criticSolver *solver.Solver, gamma float64,
	detach bool) *actorCritic {
	return &actorCritic{
		actor:        actor,
		critic:       critic,
		graphs:       make(map[int]*acGraph),
		actorSolver:  actorSolver,
		criticSolver: criticSolver,
		gamma:        gamma,
		detach:       detach,
		i:            1,
	}
}

// graph returns the training graph for the batch size, creating it if
// needed.
func (a *actorCritic) graph(batch int) (*acGraph, error) {
	if graph, ok := a.graphs[batch]; ok {
		return graph, nil
	}

	g := G.NewGraph()
	actor, err := a.actor.CloneTo(g, batch)
	if err != nil {
		return nil, err
	}
	// Without detached targets, the critic sees states and next states
	// stacked into a single (2*batch, features) input so that v(s) and
	// v(s') come from one forward pass.
	criticBatch := batch
	if !a.detach {
		criticBatch = 2 * batch
	}
	critic, err := a.critic.CloneTo(g, criticBatch)
	if err != nil {
		return nil, err
	}
	graph := &acGraph{actor: actor, critic: critic}

	graph.actions = G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, a.actor.ActionDims()),
		G.WithName("actions"),
		G.WithInit(G.Zeroes()),
	)
	graph.discount = G.NewScalar(g, tensor.Float64, G.WithName("I"),
		G.WithValue(1.0))

	// One-step target r + ℽ v(s') and advantage target - v(s)
	var value, target, advantage *G.Node
	if a.detach {
		value = critic.Prediction()
		graph.targets = column(g, batch, "targets")
		graph.advantages = column(g, batch, "advantages")
		target, advantage = graph.targets, graph.advantages
	} else {
		graph.rewards = column(g, batch, "rewards")

		values := critic.Prediction()
		value = G.Must(G.Mul(selection(g, batch, 0, "selectStates"), values))
		nextValue := G.Must(G.Mul(selection(g, batch, batch,
			"selectNextStates"), values))

		gamma := G.NewConstant(a.gamma, G.WithName("gamma"))
		target = G.Must(G.Mul(nextValue, gamma))
		target = G.Must(G.Add(graph.rewards, target))
		advantage = G.Must(G.Sub(target, value))
	}

	// Critic loss: mean squared error between target and v(s)
	criticLoss := advantage
	if a.detach {
		criticLoss = G.Must(G.Sub(target, value))
	}
	criticLoss = G.Must(G.Square(criticLoss))
	criticLoss = G.Must(G.Mean(criticLoss))

	// Actor loss: -I Σ log π(a|s) advantage
	logProb, err := actor.LogProb(graph.actions)
	if err != nil {
		return nil, err
	}
	advantage = G.Must(G.Reshape(advantage, tensor.Shape{batch}))
	actorLoss := G.Must(G.HadamardProd(logProb, advantage))
	actorLoss = G.Must(G.Sum(actorLoss))
	actorLoss = G.Must(G.Mul(actorLoss, graph.discount))
	actorLoss = G.Must(G.Neg(actorLoss))

	loss := G.Must(G.Add(actorLoss, criticLoss))

	graph.actorLearnables = actor.Learnables()
	graph.criticLearnables = critic.Learnables()
	learnables := make(G.Nodes, 0,
		len(graph.actorLearnables)+len(graph.criticLearnables))
	learnables = append(learnables, graph.actorLearnables...)
	learnables = append(learnables, graph.criticLearnables...)

	if _, err := G.Grad(loss, learnables...); err != nil {
		return nil, fmt.Errorf("could not compute gradient: %v", err)
	}
	graph.vm = G.NewTapeMachine(g, G.BindDualValues(learnables...))

	a.graphs[batch] = graph
	return graph, nil
}

// selection returns a constant (batch, 2*batch) matrix which picks
// rows [offset, offset+batch) out of a (2*batch, 1) column when
// multiplied on the left.
func selection(g *G.ExprGraph, batch, offset int, name string) *G.Node {
	data := make([]float64, batch*2*batch)
	for i := 0; i < batch; i++ {
		data[i*2*batch+offset+i] = 1
	}
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, 2*batch),
		G.WithName(name),
		G.WithValue(tensor.New(
			tensor.WithShape(batch, 2*batch),
			tensor.WithBacking(data),
		)),
	)
}

// column returns a new (batch, 1) input node
func column(g *G.ExprGraph, batch int, name string) *G.Node {
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, 1),
		G.WithName(name),
		G.WithInit(G.Zeroes()),
	)
}

func (a *actorCritic) update(b *buffer.Batch) error {
	// A terminal first transition has no successor to bootstrap from
	if b.Done[0] {
		a.i = 1
		return nil
	}

	batch := b.Len()
	graph, err := a.graph(batch)
	if err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}

	if err := graph.actor.Set(a.actor); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}
	if err := network.CopyLearnables(graph.criticLearnables,
		a.critic.Learnables()); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}

	states := b.States.RawMatrix().Data
	if err := network.Let(graph.actor.Input(), states); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}
	criticInput := states
	if !a.detach {
		criticInput = make([]float64, 0, 2*len(states))
		criticInput = append(criticInput, states...)
		criticInput = append(criticInput, b.NextStates.RawMatrix().Data...)
	}
	if err := graph.critic.SetInput(criticInput); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}
	if err := network.Let(graph.actions,
		b.Actions.RawMatrix().Data); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}
	if err := G.Let(graph.discount, a.i); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}

	if a.detach {
		targets, advantages, err := a.detachedTargets(b)
		if err != nil {
			return fmt.Errorf("actorCritic: %v", err)
		}
		if err := network.Let(graph.targets, targets); err != nil {
			return fmt.Errorf("actorCritic: %v", err)
		}
		if err := network.Let(graph.advantages, advantages); err != nil {
			return fmt.Errorf("actorCritic: %v", err)
		}
	} else {
		rewards := append([]float64(nil), b.Rewards...)
		if err := network.Let(graph.rewards, rewards); err != nil {
			return fmt.Errorf("actorCritic: %v", err)
		}
	}

	if err := a.step(graph); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}

	if err := a.actor.Set(graph.actor); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}
	if err := a.critic.Set(graph.critic); err != nil {
		return fmt.Errorf("actorCritic: %v", err)
	}

	a.i *= a.gamma
	return nil
}

// detachedTargets computes the one-step targets and advantages with
// the current critic, outside of any training graph.
func (a *actorCritic) detachedTargets(b *buffer.Batch) ([]float64,
	[]float64, error) {
	values, err := a.critic.Values(b.States)
	if err != nil {
		return nil, nil, err
	}
	nextValues, err := a.critic.Values(b.NextStates)
	if err != nil {
		return nil, nil, err
	}

	targets := make([]float64, len(values))
	advantages := make([]float64, len(values))
	for i := range values {
		targets[i] = b.Rewards[i] + a.gamma*nextValues[i]
		advantages[i] = targets[i] - values[i]
	}
	return targets, advantages, nil
}

// step runs the training graph once and steps both solvers
func (a *actorCritic) step(graph *acGraph) error {
	defer graph.vm.Reset()
	if err := graph.vm.RunAll(); err != nil {
		return err
	}
	err := a.actorSolver.Step(G.NodesToValueGrads(graph.actorLearnables))
	if err != nil {
		return err
	}
	return a.criticSolver.Step(G.NodesToValueGrads(graph.criticLearnables))
}
