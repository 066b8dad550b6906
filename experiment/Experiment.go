// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/hopperpg/experiment/tracker"
	"github.com/samuelfneumann/hopperpg/policy"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments send each environment TimeStep to their Trackers, which
// cache the data they track in RAM until Save is called. Run runs
// episodes until the episode or step budget is exhausted or the
// context is cancelled, and RunEpisode runs a single episode.
type Experiment interface {
	Run(ctx context.Context) error
	RunEpisode(ctx context.Context) (Episode, error)

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// Save all tracked data to disk
	Save() error
}

// Episode summarizes a finished episode
type Episode struct {
	Index  int     // Zero-based episode index
	Return float64 // Undiscounted sum of rewards
	Steps  int     // Number of environment steps taken
}

// Config represents a configuration of an experiment.
type Config struct {
	// Number of episodes to run
	Episodes int

	// Maximum total number of environment steps over all episodes.
	// Zero means no limit.
	MaxSteps int

	// Number of environment steps between agent updates. Zero means
	// the agent is only updated at the end of each episode. Agents
	// are always updated at the end of an episode if they hold any
	// transitions.
	UpdateEvery int
}

// DefaultConfig returns the configuration under which each algorithm
// was designed to run: REINFORCE learns from complete episodes and
// actor-critic learns after every step.
func DefaultConfig(alg policy.Algorithm, episodes int) Config {
	c := Config{Episodes: episodes}
	if alg == policy.AC {
		c.UpdateEvery = 1
	}
	return c
}

// Validate checks that the configuration is legal
func (c Config) Validate() error {
	if c.Episodes < 1 {
		return fmt.Errorf("validate: must run at least one episode")
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("validate: step limit must be non-negative")
	}
	if c.UpdateEvery < 0 {
		return fmt.Errorf("validate: update interval must be non-negative")
	}
	return nil
}
