//go:build gym

package envconfig

import (
	env "github.com/samuelfneumann/hopperpg/environment"
	"github.com/samuelfneumann/hopperpg/environment/gym"
	ts "github.com/samuelfneumann/hopperpg/timestep"
)

func init() {
	Register(Hopper, CreateHopper)
}

// CreateHopper is a factory for creating the Gym Hopper environment.
// An EpisodeCutoff of 0 keeps Gym's own time limit.
func CreateHopper(c Config, seed uint64) (env.Environment, ts.TimeStep,
	error) {
	return gym.New(gym.Hopper, c.Discount, seed, c.EpisodeCutoff)
}
