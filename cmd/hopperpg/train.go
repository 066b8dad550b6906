package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/hopperpg/agent"
	env "github.com/samuelfneumann/hopperpg/environment"
	"github.com/samuelfneumann/hopperpg/experiment"
	"github.com/samuelfneumann/hopperpg/experiment/tracker"
	"github.com/samuelfneumann/hopperpg/policy"
	"github.com/samuelfneumann/hopperpg/utils/progressbar"
)

// Output files written to the results directory
const (
	returnsFile  = "returns.bin"
	lengthsFile  = "lengths.bin"
	configFile   = "config.yaml"
	plotFile     = "returns.png"
	learnersFile = "learners.json"
)

// trainFlags maps configuration keys to the train command's flags
var trainFlags = map[string]string{
	"algorithm":    "algorithm",
	"episodes":     "episodes",
	"max_steps":    "max-steps",
	"seed":         "seed",
	"out":          "out",
	"env.name":     "env",
	"env.cutoff":   "cutoff",
	"agent.gamma":  "gamma",
	"agent.solver": "solver",
}

func trainCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent and save its learning curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(configPath, cmd.Flags(), trainFlags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return train(ctx, c)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML run configuration")
	flags.String("algorithm", policy.Reinforce.String(),
		"Learning algorithm: REINFORCE or AC")
	flags.Int("episodes", 1000, "Number of training episodes")
	flags.Int("max-steps", 0, "Total environment step budget, 0 for none")
	flags.Uint64("seed", 1, "Seed for environment, weights and actions")
	flags.String("solver", "adam", "Solver for both networks: adam or "+
		"vanilla")
	flags.String("out", "results", "Directory to save results in")
	flags.String("env", "Pendulum", "Environment to train on")
	flags.Int("cutoff", 200, "Episode cutoff in environment steps")
	flags.Float64("gamma", agent.DefaultGamma, "Discount factor")

	return cmd
}

// train runs a full training run described by c
func train(ctx context.Context, c RunConfig) error {
	envSeed, _, _ := c.seeds()
	e, _, err := c.envConfig().Create(envSeed)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	if closer, ok := e.(env.Closer); ok {
		defer closer.Close()
	}
	if e.ActionSpec().Cardinality != env.Continuous {
		return fmt.Errorf("train: environment %v does not have continuous "+
			"actions", c.Env.Name)
	}

	l, err := c.learners()
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	pc, err := c.policyConfig(l.Init)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	p, err := policy.New(e.ObservationSpec().Dims(), e.ActionSpec().Dims(),
		c.algorithm(), pc)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	a, err := agent.New(p, c.agentConfig(l))
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	if err := os.MkdirAll(c.Out, 0o755); err != nil {
		return fmt.Errorf("train: could not create output directory: %v",
			err)
	}
	returns := tracker.NewReturn(filepath.Join(c.Out, returnsFile))
	lengths := tracker.NewEpisodeLength(filepath.Join(c.Out, lengthsFile))

	o, err := experiment.NewOnline(e, a, c.experimentConfig(), returns,
		lengths)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	log.Printf("training %v on %v for %d episodes", c.Algorithm,
		c.Env.Name, c.Episodes)
	bar := progressbar.New(os.Stdout, 40, c.Episodes)
	o.OnEpisode = func(ep experiment.Episode) {
		bar.Increment()
		bar.SetStatus("episode %d: return %.2f over %d steps", ep.Index,
			ep.Return, ep.Steps)
		bar.Display()
	}
	runErr := o.Run(ctx)
	bar.Close()

	// Whatever was learned before an interrupt is still saved
	if runErr != nil {
		log.Printf("training stopped after %d steps: %v", o.Steps(), runErr)
	} else if c.EvalEpisodes > 0 {
		mean, err := o.Evaluate(ctx, c.EvalEpisodes)
		if err != nil {
			return fmt.Errorf("train: %v", err)
		}
		log.Printf("greedy return over %d episodes: %.3f", c.EvalEpisodes,
			mean)
	}

	if err := o.Save(); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	if err := c.save(filepath.Join(c.Out, configFile)); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	if err := l.save(filepath.Join(c.Out, learnersFile)); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	if len(returns.Data()) > 0 {
		err := tracker.SavePlot(returns.Data(), c.Algorithm+" on "+c.Env.Name,
			"Return", filepath.Join(c.Out, plotFile), 10)
		if err != nil {
			return fmt.Errorf("train: %v", err)
		}
	}
	log.Printf("results saved to %v", c.Out)

	return runErr
}
