package agent

import (
	"fmt"
	"testing"

	"github.com/samuelfneumann/hopperpg/policy"
	"github.com/samuelfneumann/hopperpg/solver"
	ts "github.com/samuelfneumann/hopperpg/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// finiteDifference returns the central difference gradient of loss
// with respect to every element of the nodes. Each element is restored
// after it is perturbed.
func finiteDifference(nodes G.Nodes, loss func() float64) [][]float64 {
	const h = 1e-6
	grads := make([][]float64, len(nodes))
	for i, node := range nodes {
		data := node.Value().Data().([]float64)
		grads[i] = make([]float64, len(data))
		for j := range data {
			orig := data[j]
			data[j] = orig + h
			up := loss()
			data[j] = orig - h
			down := loss()
			data[j] = orig
			grads[i][j] = (up - down) / (2 * h)
		}
	}
	return grads
}

// appliedGradient recovers the gradient used by a single vanilla SGD
// step with step size eta.
func appliedGradient(before, after [][]float64, eta float64) [][]float64 {
	grads := make([][]float64, len(before))
	for i := range before {
		grads[i] = make([]float64, len(before[i]))
		for j := range before[i] {
			grads[i][j] = (before[i][j] - after[i][j]) / eta
		}
	}
	return grads
}

func setParams(nodes G.Nodes, params [][]float64) {
	for i, node := range nodes {
		copy(node.Value().Data().([]float64), params[i])
	}
}

// mismatch returns the position of the first element where want and
// have differ by more than the tolerances, or ok = false if there is
// none.
func mismatch(want, have [][]float64, abs, rel float64) (i, j int,
	ok bool) {
	for i := range want {
		for j := range want[i] {
			if !scalar.EqualWithinAbsOrRel(want[i][j], have[i][j], abs, rel) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func checkGradients(t *testing.T, name string, want, have [][]float64,
	abs, rel float64) {
	t.Helper()
	if i, j, ok := mismatch(want, have, abs, rel); ok {
		t.Errorf("%v: param %d[%d]: want(%v) have(%v)", name, i, j,
			want[i][j], have[i][j])
	}
}

func newVanillaAgent(t *testing.T, alg policy.Algorithm, eta float64,
	c Config) *TrajectoryAgent {
	actorSGD, err := solver.NewVanilla(eta, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	criticSGD, err := solver.NewVanilla(eta, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	c.ActorSolver, c.CriticSolver = actorSGD, criticSGD

	p, err := policy.New(stateDims, actionDims, alg,
		policy.Config{Hidden: 4, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(p, c)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func logProbOf(t *testing.T, p policy.Policy, state,
	action *mat.VecDense) float64 {
	dist, err := p.Evaluate(state)
	if err != nil {
		t.Fatal(err)
	}
	lp, err := dist.LogProb(action)
	if err != nil {
		t.Fatal(err)
	}
	return lp[0]
}

// The step taken on a single non-terminal transition must follow the
// gradient of -I log π(a|s) δ + δ², where δ = r + ℽ v(s') - v(s). With
// detached targets, δ and the target are held fixed.
func TestActorCriticGradient(t *testing.T) {
	const (
		eta    = 1e-4
		reward = 0.5
	)

	for _, detach := range []bool{false, true} {
		c := DefaultConfig()
		c.DetachTarget = detach
		a := newVanillaAgent(t, policy.AC, eta, c)
		ac := a.Policy().(*policy.ActorCritic)
		critic, err := ac.Critic()
		if err != nil {
			t.Fatal(err)
		}

		rng := rand.New(rand.NewSource(3))
		state := randomVec(rng, stateDims)
		next := randomVec(rng, stateDims)
		action := randomVec(rng, actionDims)

		evaluate := func(s *mat.VecDense) (float64, float64) {
			dist, values, err := ac.EvaluateValue(s)
			if err != nil {
				t.Fatal(err)
			}
			lp, err := dist.LogProb(action)
			if err != nil {
				t.Fatal(err)
			}
			return lp[0], values[0]
		}
		logProb, value := evaluate(state)
		_, nextValue := evaluate(next)
		fixedTarget := reward + c.Gamma*nextValue
		fixedAdvantage := fixedTarget - value

		loss := func() float64 {
			logProb, value := evaluate(state)
			target, advantage := fixedTarget, fixedAdvantage
			if !detach {
				_, nextValue := evaluate(next)
				target = reward + c.Gamma*nextValue
				advantage = target - value
			}
			return -a.I()*logProb*advantage + (target-value)*(target-value)
		}

		learnables := append(G.Nodes{}, ac.Actor().Learnables()...)
		learnables = append(learnables, critic.Learnables()...)
		want := finiteDifference(learnables, loss)

		actorBefore := ac.Actor().Params()
		criticBefore := critic.Params()
		err = a.Record(ts.Transition{
			State:     state,
			NextState: next,
			Action:    action,
			LogProb:   logProb,
			Reward:    reward,
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Update(); err != nil {
			t.Fatal(err)
		}

		have := appliedGradient(actorBefore, ac.Actor().Params(), eta)
		have = append(have, appliedGradient(criticBefore, critic.Params(),
			eta)...)
		checkGradients(t, fmt.Sprintf("detach(%v)", detach), want, have,
			1e-5, 1e-4)
	}
}

// With the baseline equal to the first return, the first step of a
// two step episode has zero weight and the whole update is the second
// step, weighted by ℽ (G[1] - b).
func TestReinforceDiscountsLaterSteps(t *testing.T) {
	const eta = 1e-4
	rewards := []float64{2, 1}

	c := DefaultConfig()
	c.Baseline = rewards[0] + c.Gamma*rewards[1]
	a := newVanillaAgent(t, policy.Reinforce, eta, c)
	actor := a.Policy().Actor()

	rng := rand.New(rand.NewSource(3))
	states := []*mat.VecDense{randomVec(rng, stateDims),
		randomVec(rng, stateDims), randomVec(rng, stateDims)}
	actions := []*mat.VecDense{randomVec(rng, actionDims),
		randomVec(rng, actionDims)}

	advantage := rewards[1] - c.Baseline
	want := finiteDifference(actor.Learnables(), func() float64 {
		return -c.Gamma * advantage * logProbOf(t, actor, states[1], actions[1])
	})

	before := actor.Params()
	for i := range actions {
		err := a.Record(ts.Transition{
			State:     states[i],
			NextState: states[i+1],
			Action:    actions[i],
			LogProb:   logProbOf(t, actor, states[i], actions[i]),
			Reward:    rewards[i],
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Update(); err != nil {
		t.Fatal(err)
	}

	have := appliedGradient(before, actor.Params(), eta)
	checkGradients(t, "reinforce", want, have, 1e-5, 1e-4)
}

// Each REINFORCE step must see the weights left by the previous one.
// The expected weights are built by stepping along finite difference
// gradients one timestep at a time.
func TestReinforceSequentialSteps(t *testing.T) {
	const eta = 0.05
	rewards := []float64{2, 1}

	c := DefaultConfig()
	c.Baseline = 0
	a := newVanillaAgent(t, policy.Reinforce, eta, c)
	actor := a.Policy().Actor()
	learnables := actor.Learnables()

	rng := rand.New(rand.NewSource(5))
	states := []*mat.VecDense{randomVec(rng, stateDims),
		randomVec(rng, stateDims), randomVec(rng, stateDims)}
	actions := []*mat.VecDense{randomVec(rng, actionDims),
		randomVec(rng, actionDims)}
	returns := []float64{rewards[0] + c.Gamma*rewards[1], rewards[1]}

	before := actor.Params()
	params := actor.Params()
	simultaneous := actor.Params()
	discount := 1.0
	for i := range actions {
		weight := discount * returns[i]
		grad := finiteDifference(learnables, func() float64 {
			return -weight * logProbOf(t, actor, states[i], actions[i])
		})
		for j := range params {
			floats.AddScaled(params[j], -eta, grad[j])
			if i == 0 {
				floats.AddScaled(simultaneous[j], -eta, grad[j])
			}
		}
		setParams(learnables, params)
		discount *= c.Gamma

		if i == 0 {
			// The second step evaluated at the initial weights, for
			// comparison only
			setParams(learnables, before)
			grad := finiteDifference(learnables, func() float64 {
				w := c.Gamma * returns[1]
				return -w * logProbOf(t, actor, states[1], actions[1])
			})
			for j := range simultaneous {
				floats.AddScaled(simultaneous[j], -eta, grad[j])
			}
			setParams(learnables, params)
		}
	}
	want := params
	setParams(learnables, before)

	for i := range actions {
		err := a.Record(ts.Transition{
			State:     states[i],
			NextState: states[i+1],
			Action:    actions[i],
			LogProb:   logProbOf(t, actor, states[i], actions[i]),
			Reward:    rewards[i],
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Update(); err != nil {
		t.Fatal(err)
	}

	checkGradients(t, "reinforce", want, actor.Params(), 1e-6, 1e-5)
	if _, _, ok := mismatch(want, simultaneous, 1e-6, 1e-5); !ok {
		t.Error("steps taken at the initial weights should not match")
	}
}
