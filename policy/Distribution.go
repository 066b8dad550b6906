package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is a batch of independent per-dimension Gaussian
// distributions over actions. Each row of the mean is the mean action
// for one state; the standard deviation is shared by all rows.
type Distribution struct {
	mean   *mat.Dense
	stddev []float64
}

// NewDistribution returns a new Distribution. The mean must have one
// column per element of stddev, and every standard deviation must be
// positive.
func NewDistribution(mean *mat.Dense, stddev []float64) (*Distribution,
	error) {
	_, c := mean.Dims()
	if c != len(stddev) {
		return nil, fmt.Errorf("newDistribution: mean has %d dimensions but "+
			"stddev has %d", c, len(stddev))
	}
	for i, s := range stddev {
		if !(s > 0) {
			return nil, fmt.Errorf("newDistribution: stddev[%d] = %v is not "+
				"positive", i, s)
		}
	}
	return &Distribution{mean: mean, stddev: stddev}, nil
}

// Mean returns the mean of the distribution, one row per state
func (d *Distribution) Mean() *mat.Dense {
	return d.mean
}

// MeanRow returns the mean action for state i
func (d *Distribution) MeanRow(i int) *mat.VecDense {
	return mat.VecDenseCopyOf(d.mean.RowView(i))
}

// StdDev returns the per-dimension standard deviation
func (d *Distribution) StdDev() []float64 {
	return d.stddev
}

// Batch returns the number of states the distribution was computed
// for.
func (d *Distribution) Batch() int {
	r, _ := d.mean.Dims()
	return r
}

// Dims returns the action dimension
func (d *Distribution) Dims() int {
	return len(d.stddev)
}

// Sample draws one action per state
func (d *Distribution) Sample(src rand.Source) *mat.Dense {
	r, c := d.mean.Dims()
	samples := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		normal := distuv.Normal{Sigma: d.stddev[j], Src: src}
		for i := 0; i < r; i++ {
			normal.Mu = d.mean.At(i, j)
			samples.Set(i, j, normal.Rand())
		}
	}
	return samples
}

// LogProbDims returns the log density of each dimension of each
// action under the distribution of the corresponding row.
func (d *Distribution) LogProbDims(actions mat.Matrix) (*mat.Dense, error) {
	r, c := d.mean.Dims()
	ar, ac := actions.Dims()
	if v, ok := actions.(mat.Vector); ok && r == 1 {
		// A single action given as a column vector
		actions = v.T()
		ar, ac = actions.Dims()
	}
	if ar != r || ac != c {
		return nil, fmt.Errorf("logProbDims: invalid actions shape"+
			"\n\twant(%v, %v)\n\thave(%v, %v)", r, c, ar, ac)
	}

	logProbs := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		normal := distuv.Normal{Sigma: d.stddev[j]}
		for i := 0; i < r; i++ {
			normal.Mu = d.mean.At(i, j)
			logProbs.Set(i, j, normal.LogProb(actions.At(i, j)))
		}
	}
	return logProbs, nil
}

// LogProb returns the joint log density of each action, the sum of
// the per-dimension log densities.
func (d *Distribution) LogProb(actions mat.Matrix) ([]float64, error) {
	dims, err := d.LogProbDims(actions)
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}

	r, _ := dims.Dims()
	logProbs := make([]float64, r)
	for i := range logProbs {
		logProbs[i] = mat.Sum(dims.RowView(i))
	}
	return logProbs, nil
}

// Softplus returns log(1 + e^x), computed so that large |x| neither
// overflows nor loses precision.
func Softplus(x float64) float64 {
	return math.Max(x, 0) + math.Log1p(math.Exp(-math.Abs(x)))
}
