package policy

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/hopperpg/network"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const (
	stateDims  = 11
	actionDims = 3
)

func newPolicy(t *testing.T, alg Algorithm, seed uint64) Policy {
	p, err := New(stateDims, actionDims, alg, Config{Seed: seed})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func randomStates(batch int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, batch*stateDims)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(batch, stateDims, data)
}

func TestNewReinforce(t *testing.T) {
	p := newPolicy(t, Reinforce, 1)
	if _, ok := p.(*Actor); !ok {
		t.Fatalf("want(*Actor) have(%T)", p)
	}
	if p.Algorithm() != Reinforce {
		t.Errorf("want(%v) have(%v)", Reinforce, p.Algorithm())
	}
	if _, err := p.Critic(); !errors.Is(err, ErrNoCritic) {
		t.Errorf("want(ErrNoCritic) have(%v)", err)
	}
}

func TestNewActorCritic(t *testing.T) {
	p := newPolicy(t, AC, 1)
	ac, ok := p.(*ActorCritic)
	if !ok {
		t.Fatalf("want(*ActorCritic) have(%T)", p)
	}
	if critic, err := p.Critic(); err != nil || critic == nil {
		t.Fatalf("expected a critic, got error %v", err)
	}

	dist, values, err := ac.EvaluateValue(randomStates(4, 2))
	if err != nil {
		t.Fatal(err)
	}
	if dist.Batch() != 4 || len(values) != 4 {
		t.Errorf("want(4 rows) have(%v distributions, %v values)",
			dist.Batch(), len(values))
	}
}

func TestNewInvalid(t *testing.T) {
	if _, err := New(stateDims, actionDims, Algorithm(7),
		Config{}); !errors.Is(err, ErrInvalidAlgorithm) {
		t.Errorf("want(ErrInvalidAlgorithm) have(%v)", err)
	}
	if _, err := New(0, actionDims, Reinforce, Config{}); err == nil {
		t.Error("expected error for zero state dimensions")
	}
}

func TestInitialization(t *testing.T) {
	p := newPolicy(t, AC, 3)

	want := Softplus(DefaultInitSigma)
	for _, s := range p.Actor().StdDev() {
		if math.Abs(s-want) > 1e-12 {
			t.Errorf("want(%v) have(%v)", want, s)
		}
	}

	// Learnables are ordered weights, bias, ..., σ; biases start at zero
	params := p.Actor().Params()
	for i := 1; i < len(params)-1; i += 2 {
		for _, b := range params[i] {
			if b != 0 {
				t.Fatalf("bias %d not initialized to zero", i)
			}
		}
	}

	critic, _ := p.Critic()
	actorFirst := params[0]
	criticFirst := critic.Params()[0]
	if floats.Equal(actorFirst, criticFirst) {
		t.Error("actor and critic should not share initial weights")
	}
}

func TestSeedReproducible(t *testing.T) {
	a := newPolicy(t, Reinforce, 42).Actor().Params()
	b := newPolicy(t, Reinforce, 42).Actor().Params()
	for i := range a {
		if !floats.Equal(a[i], b[i]) {
			t.Fatalf("learnable %d differs between equal seeds", i)
		}
	}
}

func TestEvaluateBatchMatchesRows(t *testing.T) {
	p := newPolicy(t, Reinforce, 5)
	states := randomStates(3, 6)

	batch, err := p.Evaluate(states)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		single, err := p.Evaluate(mat.VecDenseCopyOf(states.RowView(i)))
		if err != nil {
			t.Fatal(err)
		}
		if single.Batch() != 1 {
			t.Fatalf("want(1) have(%v)", single.Batch())
		}
		want := mat.Row(nil, 0, single.Mean())
		have := mat.Row(nil, i, batch.Mean())
		if !floats.EqualApprox(want, have, 1e-12) {
			t.Errorf("row %d: want(%v) have(%v)", i, want, have)
		}
	}
}

func TestEvaluateInvalidState(t *testing.T) {
	p := newPolicy(t, Reinforce, 5)
	if _, err := p.Evaluate(mat.NewVecDense(stateDims+1, nil)); err == nil {
		t.Error("expected error for wrong state dimension")
	}
}

func TestGraphLogProbMatchesDistribution(t *testing.T) {
	p := newPolicy(t, Reinforce, 8)
	states := randomStates(2, 9)
	actions := mat.NewDense(2, actionDims, []float64{
		0.1, -0.4, 1.2,
		-2.0, 0.0, 0.3,
	})

	dist, err := p.Evaluate(states)
	if err != nil {
		t.Fatal(err)
	}
	want, err := dist.LogProb(actions)
	if err != nil {
		t.Fatal(err)
	}

	g := G.NewGraph()
	ag, err := p.Actor().CloneTo(g, 2)
	if err != nil {
		t.Fatal(err)
	}
	actionNode := G.NewMatrix(g, tensor.Float64, G.WithShape(2, actionDims),
		G.WithName("actions"), G.WithInit(G.Zeroes()))
	logProb, err := ag.LogProb(actionNode)
	if err != nil {
		t.Fatal(err)
	}
	var logProbVal G.Value
	G.Read(logProb, &logProbVal)

	if err := network.Let(ag.Input(), states.RawMatrix().Data); err != nil {
		t.Fatal(err)
	}
	if err := network.Let(actionNode, actions.RawMatrix().Data); err != nil {
		t.Fatal(err)
	}
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	have := logProbVal.Data().([]float64)
	if !floats.EqualApprox(want, have, 1e-9) {
		t.Errorf("want(%v) have(%v)", want, have)
	}
}

func TestParseAlgorithm(t *testing.T) {
	cases := map[string]Algorithm{
		"REINFORCE":   Reinforce,
		"reinforce":   Reinforce,
		"AC":          AC,
		"ActorCritic": AC,
	}
	for tag, want := range cases {
		have, err := ParseAlgorithm(tag)
		if err != nil {
			t.Errorf("%v: %v", tag, err)
			continue
		}
		if have != want {
			t.Errorf("%v: want(%v) have(%v)", tag, want, have)
		}
	}

	if _, err := ParseAlgorithm("PPO"); !errors.Is(err, ErrInvalidAlgorithm) {
		t.Errorf("want(ErrInvalidAlgorithm) have(%v)", err)
	}

	var alg Algorithm
	if err := alg.UnmarshalText([]byte("ac")); err != nil || alg != AC {
		t.Errorf("want(AC) have(%v, %v)", alg, err)
	}
}

func TestConfigurableActivation(t *testing.T) {
	states := randomStates(4, 3)
	means := make([]*mat.Dense, 0, 2)
	for _, act := range []*network.Activation{network.TanH(),
		network.ReLU()} {
		p, err := New(stateDims, actionDims, AC, Config{Seed: 9,
			Activation: act})
		if err != nil {
			t.Fatal(err)
		}
		dist, err := p.Evaluate(states)
		if err != nil {
			t.Fatal(err)
		}
		means = append(means, dist.Mean())
	}

	if mat.EqualApprox(means[0], means[1], 1e-12) {
		t.Error("tanh and relu networks with equal weights should differ")
	}
}

func TestInitSigmaZero(t *testing.T) {
	sigma := 0.0
	p, err := New(stateDims, actionDims, Reinforce, Config{Seed: 1,
		InitSigma: &sigma})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range p.Actor().StdDev() {
		if math.Abs(s-math.Ln2) > 1e-15 {
			t.Errorf("want(%v) have(%v)", math.Ln2, s)
		}
	}
}

func TestStdDevLargeSigma(t *testing.T) {
	actor := newPolicy(t, Reinforce, 4).Actor()
	sigma := actor.eval.sigma.Value().Data().([]float64)
	copy(sigma, []float64{800, -30, 0})

	dist, err := actor.Evaluate(randomStates(1, 4))
	if err != nil {
		t.Fatal(err)
	}
	want := actor.StdDev()
	have := dist.StdDev()
	for i := range want {
		if math.IsInf(have[i], 0) || math.IsNaN(have[i]) {
			t.Fatalf("dimension %d: standard deviation not finite: %v", i,
				have[i])
		}
		if !scalar.EqualWithinAbsOrRel(want[i], have[i], 1e-15, 1e-12) {
			t.Errorf("dimension %d: want(%v) have(%v)", i, want[i], have[i])
		}
	}
}
