package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/hopperpg/agent"
	env "github.com/samuelfneumann/hopperpg/environment"
	"github.com/samuelfneumann/hopperpg/experiment/tracker"
	ts "github.com/samuelfneumann/hopperpg/timestep"
)

// Online is an Experiment that trains an agent online, one
// environment step at a time.
type Online struct {
	env.Environment
	agent.Agent

	config       Config
	episodes     int
	currentSteps int
	trackers     []tracker.Tracker

	// Called after every finished training episode, if set
	OnEpisode func(Episode)
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The t parameter is a slice of
// tracker.Tracker which determine what data is saved.
func NewOnline(e env.Environment, a agent.Agent, c Config,
	t ...tracker.Tracker) (*Online, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newOnline: %v", err)
	}
	return &Online{
		Environment: e,
		Agent:       a,
		config:      c,
		trackers:    t,
	}, nil
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Steps returns the total number of environment steps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// RunEpisode runs a single training episode of the experiment. The
// episode ends when the environment signals the last timestep, when
// the step budget is exhausted, or when ctx is cancelled.
func (o *Online) RunEpisode(ctx context.Context) (Episode, error) {
	episode := Episode{Index: o.episodes}

	step, err := o.Environment.Reset()
	if err != nil {
		return episode, fmt.Errorf("runEpisode: could not reset: %v", err)
	}
	o.track(step)

	sinceUpdate := 0
	for !step.Last() && !o.budgetExhausted() {
		if err := ctx.Err(); err != nil {
			return episode, err
		}

		// Select action, step in environment
		action, logProb, _, err := o.Agent.SelectAction(step.Observation,
			false)
		if err != nil {
			return episode, fmt.Errorf("runEpisode: %v", err)
		}
		next, _, err := o.Environment.Step(action)
		if err != nil {
			return episode, fmt.Errorf("runEpisode: %v", err)
		}
		o.currentSteps++
		episode.Steps++
		episode.Return += next.Reward

		// Cache the environment step in each Tracker
		o.track(next)

		err = o.Agent.Record(ts.NewTransition(step, action, logProb, next))
		if err != nil {
			return episode, fmt.Errorf("runEpisode: %v", err)
		}
		step = next

		sinceUpdate++
		if o.config.UpdateEvery > 0 && sinceUpdate >= o.config.UpdateEvery {
			if err := o.Agent.Update(); err != nil {
				return episode, fmt.Errorf("runEpisode: %v", err)
			}
			sinceUpdate = 0
		}
	}

	if o.Agent.Len() > 0 {
		if err := o.Agent.Update(); err != nil {
			return episode, fmt.Errorf("runEpisode: %v", err)
		}
	}

	o.episodes++
	if o.OnEpisode != nil {
		o.OnEpisode(episode)
	}
	return episode, nil
}

// Run runs the entire experiment for all episodes
func (o *Online) Run(ctx context.Context) error {
	for o.episodes < o.config.Episodes && !o.budgetExhausted() {
		if _, err := o.RunEpisode(ctx); err != nil {
			return fmt.Errorf("run: episode %d: %w", o.episodes, err)
		}
	}
	return nil
}

// Evaluate runs greedy episodes, always taking the mean action of the
// policy, and returns the average return. Nothing is recorded or
// tracked, and the agent is not updated.
func (o *Online) Evaluate(ctx context.Context, episodes int) (float64,
	error) {
	if episodes < 1 {
		return 0, fmt.Errorf("evaluate: must run at least one episode")
	}

	total := 0.0
	for i := 0; i < episodes; i++ {
		step, err := o.Environment.Reset()
		if err != nil {
			return 0, fmt.Errorf("evaluate: could not reset: %v", err)
		}
		for !step.Last() {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			action, _, _, err := o.Agent.SelectAction(step.Observation, true)
			if err != nil {
				return 0, fmt.Errorf("evaluate: %v", err)
			}
			if step, _, err = o.Environment.Step(action); err != nil {
				return 0, fmt.Errorf("evaluate: %v", err)
			}
			total += step.Reward
		}
	}
	return total / float64(episodes), nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// budgetExhausted returns whether the total step limit was reached
func (o *Online) budgetExhausted() bool {
	return o.config.MaxSteps > 0 && o.currentSteps >= o.config.MaxSteps
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
