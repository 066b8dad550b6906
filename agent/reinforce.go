package agent

import (
	"fmt"

	"github.com/samuelfneumann/hopperpg/buffer"
	"github.com/samuelfneumann/hopperpg/network"
	"github.com/samuelfneumann/hopperpg/policy"
	"github.com/samuelfneumann/hopperpg/solver"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// reinforce implements REINFORCE with a constant baseline. The actor
// takes one gradient step per timestep of an episode, in order, with
// the log density of each action recomputed under the weights left by
// the previous step.
type reinforce struct {
	actor *policy.Actor

	train      *policy.ActorGraph
	actions    *G.Node
	weight     *G.Node // ℽ^t (G[t] - b)
	learnables G.Nodes
	vm         G.VM
	solver     *solver.Solver

	gamma    float64
	baseline float64
}

func newReinforce(actor *policy.Actor, s *solver.Solver, gamma,
	baseline float64) (*reinforce, error) {
	g := G.NewGraph()

	train, err := actor.CloneTo(g, 1)
	if err != nil {
		return nil, fmt.Errorf("newReinforce: %v", err)
	}
	actions := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, actor.ActionDims()),
		G.WithName("actions"),
		G.WithInit(G.Zeroes()),
	)
	weight := G.NewScalar(g, tensor.Float64, G.WithName("weight"),
		G.WithValue(0.0))

	// loss = -ℽ^t (G[t] - b) log π(A[t] | S[t])
	logProb, err := train.LogProb(actions)
	if err != nil {
		return nil, fmt.Errorf("newReinforce: %v", err)
	}
	loss := G.Must(G.Sum(logProb))
	loss = G.Must(G.Mul(loss, weight))
	loss = G.Must(G.Neg(loss))

	learnables := train.Learnables()
	if _, err := G.Grad(loss, learnables...); err != nil {
		return nil, fmt.Errorf("newReinforce: could not compute policy "+
			"gradient: %v", err)
	}

	return &reinforce{
		actor:      actor,
		train:      train,
		actions:    actions,
		weight:     weight,
		learnables: learnables,
		vm:         G.NewTapeMachine(g, G.BindDualValues(learnables...)),
		solver:     s,
		gamma:      gamma,
		baseline:   baseline,
	}, nil
}

func (r *reinforce) update(b *buffer.Batch) error {
	if err := r.train.Set(r.actor); err != nil {
		return fmt.Errorf("reinforce: %v", err)
	}

	advantages := baselineAdvantages(b.Rewards, b.Done, r.gamma, r.baseline)
	discount := 1.0
	for t, advantage := range advantages {
		if err := network.Let(r.train.Input(),
			mat.Row(nil, t, b.States)); err != nil {
			return fmt.Errorf("reinforce: %v", err)
		}
		if err := network.Let(r.actions,
			mat.Row(nil, t, b.Actions)); err != nil {
			return fmt.Errorf("reinforce: %v", err)
		}
		if err := G.Let(r.weight, discount*advantage); err != nil {
			return fmt.Errorf("reinforce: %v", err)
		}

		if err := r.step(); err != nil {
			return fmt.Errorf("reinforce: step %d: %v", t, err)
		}
		discount *= r.gamma
	}

	return r.actor.Set(r.train)
}

// step runs the training graph and takes one solver step
func (r *reinforce) step() error {
	defer r.vm.Reset()
	if err := r.vm.RunAll(); err != nil {
		return err
	}
	return r.solver.Step(G.NodesToValueGrads(r.learnables))
}

// baselineAdvantages returns G[t] - b for each step of an episode,
// where the return of a terminal step is taken to be 0.
func baselineAdvantages(rewards []float64, done []bool, gamma,
	baseline float64) []float64 {
	advantages := buffer.DiscountedReturns(rewards, gamma)
	for t := range advantages {
		if done[t] {
			advantages[t] = 0
		}
		advantages[t] -= baseline
	}
	return advantages
}
