package initwfn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// GaussianConfig implements a configuration of a weight initializer
// that draws weights from a gaussian distribution. Unlike Gorgonia's
// own Gaussian initializer, weights are drawn from a seeded source so
// that networks built from the same configuration are identical.
type GaussianConfig struct {
	Mean, StdDev float64
	Seed         uint64
}

// NewGaussian returns a new gaussian weight initializer
func NewGaussian(mean, stddev float64, seed uint64) (*InitWFn, error) {
	if stddev <= 0 {
		return nil, fmt.Errorf("newGaussian: stddev must be positive")
	}
	config := GaussianConfig{
		Mean:   mean,
		StdDev: stddev,
		Seed:   seed,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u GaussianConfig) Type() Type {
	return Gaussian
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn. Every call to the returned InitWFn continues drawing from
// the same source.
func (u GaussianConfig) Create() G.InitWFn {
	dist := distuv.Normal{
		Mu:    u.Mean,
		Sigma: u.StdDev,
		Src:   rand.NewSource(u.Seed),
	}

	return func(dt tensor.Dtype, s ...int) interface{} {
		return draw(dt, tensor.Shape(s).TotalSize(), dist.Rand)
	}
}
