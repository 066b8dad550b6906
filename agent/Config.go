package agent

import (
	"fmt"

	"github.com/samuelfneumann/hopperpg/solver"
)

// Default hyperparameters
const (
	DefaultGamma    = 0.99
	DefaultBaseline = 20.0
)

// Config describes the hyperparameters of a TrajectoryAgent. Use
// DefaultConfig as a starting point; a zero Gamma means no
// discounting of future rewards at all.
type Config struct {
	// Discount factor ℽ
	Gamma float64

	// Baseline subtracted from REINFORCE returns
	Baseline float64

	// Solvers for the actor (including σ) and the critic. If nil, Adam
	// with a step size of solver.DefaultStepSize is used.
	ActorSolver  *solver.Solver
	CriticSolver *solver.Solver

	// DetachTarget stops gradients from flowing through the one-step
	// target and advantage of the actor-critic update.
	DetachTarget bool

	// Seed for sampling actions. Use a seed other than the one given to
	// the policy's weight initializer, or the first action noise will
	// repeat the first weights drawn.
	Seed uint64
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Gamma:    DefaultGamma,
		Baseline: DefaultBaseline,
	}
}

// Validate checks that the configuration is legal
func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1] but got %v",
			c.Gamma)
	}
	return nil
}

// withSolvers fills in missing solvers. The actor and critic never
// share a solver, since solvers keep state for each parameter.
func (c Config) withSolvers() (Config, error) {
	var err error
	if c.ActorSolver == nil {
		c.ActorSolver, err = solver.NewDefaultAdam(solver.DefaultStepSize)
		if err != nil {
			return c, err
		}
	}
	if c.CriticSolver == nil {
		c.CriticSolver, err = solver.NewDefaultAdam(solver.DefaultStepSize)
		if err != nil {
			return c, err
		}
	} else if c.CriticSolver == c.ActorSolver {
		c.CriticSolver = c.ActorSolver.Clone()
	}
	return c, nil
}
