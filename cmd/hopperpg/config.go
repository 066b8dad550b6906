package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/hopperpg/agent"
	"github.com/samuelfneumann/hopperpg/environment/envconfig"
	"github.com/samuelfneumann/hopperpg/experiment"
	"github.com/samuelfneumann/hopperpg/initwfn"
	"github.com/samuelfneumann/hopperpg/network"
	"github.com/samuelfneumann/hopperpg/policy"
	"github.com/samuelfneumann/hopperpg/solver"
)

// RunConfig is the configuration of a training run. It is read from
// a YAML file, overridden by command line flags, and written back next
// to the results.
type RunConfig struct {
	Algorithm    string `mapstructure:"algorithm" yaml:"algorithm"`
	Seed         uint64 `mapstructure:"seed" yaml:"seed"`
	Episodes     int    `mapstructure:"episodes" yaml:"episodes"`
	MaxSteps     int    `mapstructure:"max_steps" yaml:"max_steps"`
	UpdateEvery  int    `mapstructure:"update_every" yaml:"update_every"`
	EvalEpisodes int    `mapstructure:"eval_episodes" yaml:"eval_episodes"`
	Out          string `mapstructure:"out" yaml:"out"`

	// Learners is an optional learners.json file from an earlier run.
	// When set, its initializer and solvers replace those described by
	// policy.init and agent.solver.
	Learners string `mapstructure:"learners" yaml:"learners"`

	Env    EnvConfig    `mapstructure:"env" yaml:"env"`
	Policy PolicyConfig `mapstructure:"policy" yaml:"policy"`
	Agent  AgentConfig  `mapstructure:"agent" yaml:"agent"`
}

// EnvConfig selects the environment
type EnvConfig struct {
	Name     string  `mapstructure:"name" yaml:"name"`
	Task     string  `mapstructure:"task" yaml:"task"`
	Cutoff   int     `mapstructure:"cutoff" yaml:"cutoff"`
	Discount float64 `mapstructure:"discount" yaml:"discount"`
}

// PolicyConfig describes the policy networks
type PolicyConfig struct {
	Hidden     int     `mapstructure:"hidden" yaml:"hidden"`
	Activation string  `mapstructure:"activation" yaml:"activation"`
	InitSigma  float64 `mapstructure:"init_sigma" yaml:"init_sigma"`

	// Weight initialisation: gaussian, glorotu, glorotn or zeroes
	Init     string  `mapstructure:"init" yaml:"init"`
	InitGain float64 `mapstructure:"init_gain" yaml:"init_gain"`
}

// AgentConfig holds the learning hyperparameters
type AgentConfig struct {
	Solver         string  `mapstructure:"solver" yaml:"solver"` // adam or vanilla
	Gamma          float64 `mapstructure:"gamma" yaml:"gamma"`
	Baseline       float64 `mapstructure:"baseline" yaml:"baseline"`
	ActorStepSize  float64 `mapstructure:"actor_step_size" yaml:"actor_step_size"`
	CriticStepSize float64 `mapstructure:"critic_step_size" yaml:"critic_step_size"`
	DetachTarget   bool    `mapstructure:"detach_target" yaml:"detach_target"`
}

// setDefaults registers the default value of every key
func setDefaults(v *viper.Viper) {
	v.SetDefault("algorithm", policy.Reinforce.String())
	v.SetDefault("seed", 1)
	v.SetDefault("episodes", 1000)
	v.SetDefault("max_steps", 0)
	v.SetDefault("eval_episodes", 10)
	v.SetDefault("out", "results")
	v.SetDefault("learners", "")

	v.SetDefault("env.name", string(envconfig.Pendulum))
	v.SetDefault("env.task", string(envconfig.Default))
	v.SetDefault("env.cutoff", 200)
	v.SetDefault("env.discount", agent.DefaultGamma)

	v.SetDefault("policy.hidden", policy.DefaultHidden)
	v.SetDefault("policy.activation", "tanh")
	v.SetDefault("policy.init_sigma", policy.DefaultInitSigma)
	v.SetDefault("policy.init", "gaussian")
	v.SetDefault("policy.init_gain", 1.0)

	v.SetDefault("agent.solver", "adam")
	v.SetDefault("agent.gamma", agent.DefaultGamma)
	v.SetDefault("agent.baseline", agent.DefaultBaseline)
	v.SetDefault("agent.actor_step_size", solver.DefaultStepSize)
	v.SetDefault("agent.critic_step_size", solver.DefaultStepSize)
	v.SetDefault("agent.detach_target", false)
}

// loadConfig reads the run configuration from an optional YAML file
// and the flags bound to keys in flagKeys
func loadConfig(path string, flags *pflag.FlagSet,
	flagKeys map[string]string) (RunConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("hopperpg")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return RunConfig{}, fmt.Errorf("loadConfig: could not read "+
				"config: %v", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
				return RunConfig{}, fmt.Errorf("loadConfig: %v", err)
			}
		}
	}

	var c RunConfig
	if err := v.Unmarshal(&c); err != nil {
		return RunConfig{}, fmt.Errorf("loadConfig: could not decode "+
			"config: %v", err)
	}

	alg, err := policy.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return RunConfig{}, fmt.Errorf("loadConfig: %v", err)
	}
	c.Algorithm = alg.String()
	if !v.IsSet("update_every") {
		c.UpdateEvery = experiment.DefaultConfig(alg, c.Episodes).UpdateEvery
	}
	return c, nil
}

// algorithm returns the parsed algorithm of the run
func (c RunConfig) algorithm() policy.Algorithm {
	alg, err := policy.ParseAlgorithm(c.Algorithm)
	if err != nil {
		panic(fmt.Sprintf("algorithm: %v", err))
	}
	return alg
}

// experimentConfig returns the configuration of the training loop
func (c RunConfig) experimentConfig() experiment.Config {
	return experiment.Config{
		Episodes:    c.Episodes,
		MaxSteps:    c.MaxSteps,
		UpdateEvery: c.UpdateEvery,
	}
}

// envConfig returns the configuration of the environment
func (c RunConfig) envConfig() envconfig.Config {
	return envconfig.NewConfig(envconfig.EnvName(c.Env.Name),
		envconfig.TaskName(c.Env.Task), c.Env.Cutoff, c.Env.Discount)
}

// seeds derives separate seeds for the environment, the weight
// initializer and action sampling from the run seed.
func (c RunConfig) seeds() (env, weights, actions uint64) {
	rng := rand.New(rand.NewSource(c.Seed))
	return rng.Uint64(), rng.Uint64(), rng.Uint64()
}

// Learners are the weight initializer and solvers of a run. They are
// written as JSON next to the results so that a later run can reuse
// them through the learners key.
type Learners struct {
	Init         *initwfn.InitWFn
	ActorSolver  *solver.Solver
	CriticSolver *solver.Solver
}

// learners returns the initializer and solvers of the run, read from
// the learners file if one is set.
func (c RunConfig) learners() (Learners, error) {
	if c.Learners != "" {
		return loadLearners(c.Learners)
	}

	_, seed, _ := c.seeds()
	var l Learners
	var err error
	switch strings.ToLower(c.Policy.Init) {
	case "gaussian", "":
		l.Init, err = initwfn.NewGaussian(0, 1, seed)
	case "glorotu":
		l.Init, err = initwfn.NewGlorotU(c.Policy.InitGain, seed)
	case "glorotn":
		l.Init, err = initwfn.NewGlorotN(c.Policy.InitGain, seed)
	case "zeroes":
		l.Init, err = initwfn.NewZeroes()
	default:
		err = fmt.Errorf("no such initialisation %q", c.Policy.Init)
	}
	if err != nil {
		return Learners{}, fmt.Errorf("learners: %v", err)
	}

	l.ActorSolver, err = newSolver(c.Agent.Solver, c.Agent.ActorStepSize)
	if err != nil {
		return Learners{}, fmt.Errorf("learners: actor solver: %v", err)
	}
	l.CriticSolver, err = newSolver(c.Agent.Solver, c.Agent.CriticStepSize)
	if err != nil {
		return Learners{}, fmt.Errorf("learners: critic solver: %v", err)
	}
	return l, nil
}

// newSolver returns the named solver. Neither solver scales gradients
// by batch size or clips them.
func newSolver(name string, stepSize float64) (*solver.Solver, error) {
	switch strings.ToLower(name) {
	case "adam", "":
		return solver.NewDefaultAdam(stepSize)
	case "vanilla", "sgd":
		return solver.NewVanilla(stepSize, 1, -1)
	}
	return nil, fmt.Errorf("no such solver %q", name)
}

// loadLearners reads learners written by an earlier run
func loadLearners(filename string) (Learners, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Learners{}, fmt.Errorf("loadLearners: %v", err)
	}
	var l Learners
	if err := json.Unmarshal(data, &l); err != nil {
		return Learners{}, fmt.Errorf("loadLearners: could not decode %v: %v",
			filename, err)
	}
	if l.Init == nil || l.ActorSolver == nil || l.CriticSolver == nil {
		return Learners{}, fmt.Errorf("loadLearners: %v must hold an "+
			"initializer and both solvers", filename)
	}
	return l, nil
}

// save writes the learners as JSON
func (l Learners) save(filename string) error {
	data, err := json.MarshalIndent(l, "", "\t")
	if err != nil {
		return fmt.Errorf("save: could not encode learners: %v", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// policyConfig returns the configuration of the policy networks
func (c RunConfig) policyConfig(init *initwfn.InitWFn) (policy.Config,
	error) {
	act, err := network.ParseActivation(c.Policy.Activation)
	if err != nil {
		return policy.Config{}, fmt.Errorf("policyConfig: %v", err)
	}

	_, seed, _ := c.seeds()
	sigma := c.Policy.InitSigma
	return policy.Config{
		Hidden:     c.Policy.Hidden,
		Activation: act,
		Init:       init,
		InitSigma:  &sigma,
		Seed:       seed,
	}, nil
}

// agentConfig returns the agent hyperparameters
func (c RunConfig) agentConfig(l Learners) agent.Config {
	_, _, seed := c.seeds()
	return agent.Config{
		Gamma:        c.Agent.Gamma,
		Baseline:     c.Agent.Baseline,
		ActorSolver:  l.ActorSolver,
		CriticSolver: l.CriticSolver,
		DetachTarget: c.Agent.DetachTarget,
		Seed:         seed,
	}
}

// save writes the configuration as YAML
func (c RunConfig) save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: could not encode config: %v", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
