// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks, and a
// registry of the environments that can be configured by name.
package envconfig

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/hopperpg/environment"
	"github.com/samuelfneumann/hopperpg/environment/classiccontrol/pendulum"
	ts "github.com/samuelfneumann/hopperpg/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Pendulum is always available. Gym environments such as Hopper are
// registered when building with the gym tag.
const (
	Pendulum EnvName = "Pendulum"
	Hopper   EnvName = "Hopper"
)

// TaskName stores the tasks that can be configured with this package.
// Gym environments ignore the task and use their own reward.
type TaskName string

// Tasks available for configuration
const (
	SwingUp TaskName = "SwingUp"
	Default TaskName = ""
)

// Creator creates an environment from a Config and returns its first
// timestep
type Creator func(c Config, seed uint64) (env.Environment, ts.TimeStep,
	error)

var creators = map[EnvName]Creator{
	Pendulum: CreatePendulum,
}

// Register makes an environment available by name. Register panics if
// the name is already taken.
func Register(name EnvName, create Creator) {
	if _, ok := creators[name]; ok {
		panic(fmt.Sprintf("register: environment %v already registered",
			name))
	}
	creators[name] = create
}

// Names returns the names of all registered environments
func Names() []string {
	names := make([]string, 0, len(creators))
	for name := range creators {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Config implements a specific configuration of a specific environment
// and specific task
type Config struct {
	Environment   EnvName
	Task          TaskName
	EpisodeCutoff int
	Discount      float64
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff int,
	discount float64) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment. Names are matched
// case-insensitively.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if c.EpisodeCutoff < 0 {
		return nil, ts.TimeStep{}, fmt.Errorf("create: episode cutoff " +
			"must be non-negative")
	}
	for name, create := range creators {
		if strings.EqualFold(string(name), string(c.Environment)) {
			c.Environment = name
			return create(c, seed)
		}
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
		"environment %v, no such environment (have %v)", c.Environment,
		strings.Join(Names(), ", "))
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and default task parameters.
func CreatePendulum(c Config, seed uint64) (env.Environment, ts.TimeStep,
	error) {
	if c.EpisodeCutoff == 0 {
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: Pendulum " +
			"environment needs an episode cutoff")
	}

	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}
	s := env.NewUniformStarter([]r1.Interval{angle, speed}, seed)

	var task env.Task
	switch c.Task {
	case SwingUp, Default:
		task = pendulum.NewSwingUp(s, c.EpisodeCutoff)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: Pendulum "+
			"environment has no task %v", c.Task)
	}

	return pendulum.New(task, c.Discount)
}
