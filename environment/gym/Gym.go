//go:build gym

// Package gym provides access to OpenAI Gym environments, most notably
// the MuJoCo Hopper, through the Go bindings for OpenAI Gym found at
// https://github.com/samuelfneumann/GoGym.
//
// Only environments with Box observation and action spaces are
// supported. Building this package requires cgo and a Python
// installation with gym, so it is excluded unless the gym build tag
// is set.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/hopperpg/environment"
	ts "github.com/samuelfneumann/hopperpg/timestep"
)

// Hopper is the name of the Gym Hopper environment
const Hopper = "Hopper-v3"

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	name        string
	currentStep ts.TimeStep
	discount    float64
	ender       env.Ender
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite, and its first timestep. If cutoff is
// positive, episodes are also ended after cutoff steps, otherwise only
// Gym's own time limit applies.
func New(name string, discount float64, seed uint64,
	cutoff int) (*GymEnv, ts.TimeStep, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment: %v", err)
	}
	goGymEnv.Seed(int(seed))

	g := &GymEnv{
		Environment: goGymEnv,
		name:        name,
		discount:    discount,
	}
	if cutoff > 0 {
		g.ender = env.NewStepLimit(cutoff)
	}

	if err := g.checkSpaces(); err != nil {
		goGymEnv.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	t, err := g.Reset()
	if err != nil {
		goGymEnv.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return g, t, nil
}

// Step takes a single environmental step
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, obs, g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
	} else if g.ender != nil {
		done = g.ender.End(&t)
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return boxSpec(g.ObservationSpace(), env.Observation)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return boxSpec(g.ActionSpace(), env.Action)
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, low, low, env.Continuous)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}

func (g *GymEnv) String() string {
	return fmt.Sprintf("Gym %v", g.name)
}

// checkSpaces ensures both spaces are continuous boxes
func (g *GymEnv) checkSpaces() error {
	if _, ok := g.ObservationSpace().(*gogym.BoxSpace); !ok {
		return fmt.Errorf("checkSpaces: observation space of %v is not "+
			"a box", g.name)
	}
	if _, ok := g.ActionSpace().(*gogym.BoxSpace); !ok {
		return fmt.Errorf("checkSpaces: action space of %v is not a box "+
			"and cannot be used with a Gaussian policy", g.name)
	}
	return nil
}

// bounded is the part of a GoGym space needed to build a Spec
type bounded interface {
	Low() []*mat.VecDense
	High() []*mat.VecDense
}

// boxSpec converts a GoGym BoxSpace into a continuous Spec. boxSpec
// panics for any other kind of space.
func boxSpec(space bounded, t env.SpecType) env.Spec {
	if _, ok := space.(*gogym.BoxSpace); !ok {
		panic(fmt.Sprintf("boxSpec: invalid space type %T, package gym "+
			"supports only GoGym's BoxSpace", space))
	}
	low := space.Low()[0]
	high := space.High()[0]
	shape := mat.NewVecDense(low.Len(), nil)

	return env.NewSpec(shape, t, low, high, env.Continuous)
}
