package initwfn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// GlorotUConfig configures Glorot uniform initialization drawing
// from U(-a, a) with a = Gain * sqrt(6 / (fanIn + fanOut)).
type GlorotUConfig struct {
	Gain float64
	Seed uint64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64, seed uint64) (*InitWFn, error) {
	if gain <= 0 {
		return nil, fmt.Errorf("newGlorotU: gain must be positive")
	}
	return newInitWFn(GlorotUConfig{Gain: gain, Seed: seed})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotUConfig) Create() G.InitWFn {
	src := rand.NewSource(g.Seed)
	return func(dt tensor.Dtype, s ...int) interface{} {
		limit := g.Gain * math.Sqrt(6/fans(s))
		dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
		return draw(dt, tensor.Shape(s).TotalSize(), dist.Rand)
	}
}

// GlorotNConfig configures Glorot normal initialization drawing from
// N(0, σ²) with σ = Gain * sqrt(2 / (fanIn + fanOut)).
type GlorotNConfig struct {
	Gain float64
	Seed uint64
}

// NewGlorotN returns a new Glorot Normal weight initializer.
func NewGlorotN(gain float64, seed uint64) (*InitWFn, error) {
	if gain <= 0 {
		return nil, fmt.Errorf("newGlorotN: gain must be positive")
	}
	return newInitWFn(GlorotNConfig{Gain: gain, Seed: seed})
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotNConfig) Create() G.InitWFn {
	src := rand.NewSource(g.Seed)
	return func(dt tensor.Dtype, s ...int) interface{} {
		stddev := g.Gain * math.Sqrt(2/fans(s))
		dist := distuv.Normal{Mu: 0, Sigma: stddev, Src: src}
		return draw(dt, tensor.Shape(s).TotalSize(), dist.Rand)
	}
}

// fans returns fanIn + fanOut of a weight shape. Vectors count their
// length twice.
func fans(s []int) float64 {
	switch len(s) {
	case 0:
		return 2
	case 1:
		return float64(2 * s[0])
	default:
		return float64(s[0] + s[1])
	}
}

// draw returns size samples from rand as a slice of dtype dt
func draw(dt tensor.Dtype, size int, rand func() float64) interface{} {
	switch dt {
	case tensor.Float64:
		weights := make([]float64, size)
		for i := range weights {
			weights[i] = rand()
		}
		return weights

	case tensor.Float32:
		weights := make([]float32, size)
		for i := range weights {
			weights[i] = float32(rand())
		}
		return weights

	default:
		panic(fmt.Sprintf("draw: unsupported dtype %v", dt))
	}
}
