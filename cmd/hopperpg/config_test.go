package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/hopperpg/agent"
	"github.com/samuelfneumann/hopperpg/initwfn"
	"github.com/samuelfneumann/hopperpg/policy"
	"github.com/samuelfneumann/hopperpg/solver"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig("", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.algorithm() != policy.Reinforce {
		t.Errorf("algorithm: want(%v) have(%v)", policy.Reinforce,
			c.Algorithm)
	}
	if c.Agent.Gamma != agent.DefaultGamma {
		t.Errorf("gamma: want(%v) have(%v)", agent.DefaultGamma,
			c.Agent.Gamma)
	}
	if c.Agent.Baseline != agent.DefaultBaseline {
		t.Errorf("baseline: want(%v) have(%v)", agent.DefaultBaseline,
			c.Agent.Baseline)
	}
	if c.UpdateEvery != 0 {
		t.Errorf("update interval: want(0) have(%v)", c.UpdateEvery)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
algorithm: actor-critic
episodes: 7
env:
  cutoff: 50
agent:
  detach_target: true
  critic_step_size: 0.01
`)
	c, err := loadConfig(path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.algorithm() != policy.AC {
		t.Errorf("algorithm: want(AC) have(%v)", c.Algorithm)
	}
	if c.Episodes != 7 || c.Env.Cutoff != 50 {
		t.Errorf("episodes, cutoff: want(7, 50) have(%v, %v)", c.Episodes,
			c.Env.Cutoff)
	}
	if !c.Agent.DetachTarget || c.Agent.CriticStepSize != 0.01 {
		t.Errorf("agent config not read: %+v", c.Agent)
	}

	// AC defaults to updating after every step
	if c.UpdateEvery != 1 {
		t.Errorf("update interval: want(1) have(%v)", c.UpdateEvery)
	}
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "episodes: 7\nseed: 3\n")
	cmd := trainCommand()
	if err := cmd.Flags().Parse([]string{"--episodes", "2",
		"--algorithm", "AC"}); err != nil {
		t.Fatal(err)
	}

	c, err := loadConfig(path, cmd.Flags(), trainFlags)
	if err != nil {
		t.Fatal(err)
	}
	if c.Episodes != 2 {
		t.Errorf("episodes: want(2) have(%v)", c.Episodes)
	}
	if c.Seed != 3 {
		t.Errorf("seed: want(3) have(%v)", c.Seed)
	}
	if c.algorithm() != policy.AC {
		t.Errorf("algorithm: want(AC) have(%v)", c.Algorithm)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, "algorithm: sarsa\n")
	if _, err := loadConfig(path, nil, nil); err == nil {
		t.Error("expected error for unknown algorithm")
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"),
		nil, nil); err == nil {
		t.Error("expected error for missing config file")
	}

	c, err := loadConfig("", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Policy.Init = "uniform"
	if _, err := c.learners(); err == nil {
		t.Error("expected error for unknown initialisation")
	}
	c.Policy.Init = "glorotn"
	c.Agent.Solver = "rmsprop"
	if _, err := c.learners(); err == nil {
		t.Error("expected error for unknown solver")
	}
	c.Policy.Activation = "sigmoid"
	if _, err := c.policyConfig(nil); err == nil {
		t.Error("expected error for unknown activation")
	}
	c.Learners = filepath.Join(t.TempDir(), "missing.json")
	if _, err := c.learners(); err == nil {
		t.Error("expected error for missing learners file")
	}
}

func TestLearners(t *testing.T) {
	path := writeConfig(t, `
agent:
  solver: vanilla
  actor_step_size: 0.01
policy:
  init: zeroes
`)
	c, err := loadConfig(path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	l, err := c.learners()
	if err != nil {
		t.Fatal(err)
	}
	if l.Init.Type != initwfn.Zeroes {
		t.Errorf("init: want(%v) have(%v)", initwfn.Zeroes, l.Init.Type)
	}
	if l.ActorSolver.Type != solver.Vanilla ||
		l.CriticSolver.Type != solver.Vanilla {
		t.Errorf("solvers: want(%v) have(%v, %v)", solver.Vanilla,
			l.ActorSolver.Type, l.CriticSolver.Type)
	}
	vanilla, ok := l.ActorSolver.Config.(solver.VanillaConfig)
	if !ok || vanilla.StepSize != 0.01 {
		t.Errorf("actor solver: want(step size 0.01) have(%v)", l.ActorSolver)
	}

	// Zero weights and biases give a zero mean action everywhere
	pc, err := c.policyConfig(l.Init)
	if err != nil {
		t.Fatal(err)
	}
	p, err := policy.New(3, 2, policy.Reinforce, pc)
	if err != nil {
		t.Fatal(err)
	}
	dist, err := p.Evaluate(mat.NewVecDense(3, []float64{1, -2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if mean := dist.Mean().RawMatrix().Data; !floats.Equal(mean,
		[]float64{0, 0}) {
		t.Errorf("mean: want([0 0]) have(%v)", mean)
	}

	// Written learners are read back unchanged
	file := filepath.Join(t.TempDir(), learnersFile)
	if err := l.save(file); err != nil {
		t.Fatal(err)
	}
	c.Learners = file
	c.Agent.Solver = "adam"
	c.Policy.Init = "gaussian"
	loaded, err := c.learners()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Init.Type != initwfn.Zeroes ||
		loaded.ActorSolver.Config != l.ActorSolver.Config ||
		loaded.CriticSolver.Config != l.CriticSolver.Config {
		t.Errorf("want(%v, %v, %v) have(%v, %v, %v)", l.Init, l.ActorSolver,
			l.CriticSolver, loaded.Init, loaded.ActorSolver,
			loaded.CriticSolver)
	}
}

func TestSeeds(t *testing.T) {
	c, err := loadConfig("", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	env, weights, actions := c.seeds()
	if env == weights || weights == actions || env == actions {
		t.Errorf("seeds should differ: %v, %v, %v", env, weights, actions)
	}
	if e, w, a := c.seeds(); e != env || w != weights || a != actions {
		t.Error("seeds should be reproducible")
	}

	pc, err := c.policyConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if pc.Seed != weights || c.agentConfig(Learners{}).Seed != actions {
		t.Error("policy and agent should use the derived seeds")
	}

	c.Seed++
	if e, w, a := c.seeds(); e == env || w == weights || a == actions {
		t.Error("seeds should change with the run seed")
	}
}

func TestTrainPendulum(t *testing.T) {
	for _, alg := range []string{"REINFORCE", "AC"} {
		c, err := loadConfig("", nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		c.Algorithm = alg
		c.Episodes = 2
		c.EvalEpisodes = 1
		c.Env.Cutoff = 10
		c.Policy.Hidden = 8
		c.Out = t.TempDir()

		if err := train(context.Background(), c); err != nil {
			t.Fatalf("%v: %v", alg, err)
		}
		for _, f := range []string{returnsFile, lengthsFile, configFile,
			plotFile, learnersFile} {
			if _, err := os.Stat(filepath.Join(c.Out, f)); err != nil {
				t.Errorf("%v: %v", alg, err)
			}
		}

		saved, err := loadConfig(filepath.Join(c.Out, configFile), nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if saved.Episodes != 2 || saved.Algorithm != alg {
			t.Errorf("%v: saved config does not match run: %+v", alg, saved)
		}
	}
}
