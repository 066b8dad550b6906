package policy

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestSoftplus(t *testing.T) {
	if have := Softplus(0); math.Abs(have-math.Ln2) > 1e-15 {
		t.Errorf("want(%v) have(%v)", math.Ln2, have)
	}
	if have := Softplus(1000); have != 1000 {
		t.Errorf("want(1000) have(%v)", have)
	}
	if have := Softplus(-50); have <= 0 ||
		math.Abs(have-math.Exp(-50)) > 1e-30 {
		t.Errorf("want(%v) have(%v)", math.Exp(-50), have)
	}
	want := math.Log(1 + math.Exp(0.5))
	if have := Softplus(0.5); math.Abs(have-want) > 1e-15 {
		t.Errorf("want(%v) have(%v)", want, have)
	}
}

func TestLogProb(t *testing.T) {
	mean := mat.NewDense(1, 2, []float64{0, 1})
	dist, err := NewDistribution(mean, []float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}

	action := mat.NewVecDense(2, []float64{0.5, -1})
	have, err := dist.LogProb(action)
	if err != nil {
		t.Fatal(err)
	}

	norm := 0.5 * math.Log(2*math.Pi)
	want := (-0.125 - norm) + (-0.5 - math.Log(2) - norm)
	if math.Abs(have[0]-want) > 1e-12 {
		t.Errorf("want(%v) have(%v)", want, have[0])
	}

	if _, err := dist.LogProb(mat.NewVecDense(3, nil)); err == nil {
		t.Error("expected error for wrong action dimension")
	}
}

func TestNewDistributionInvalid(t *testing.T) {
	mean := mat.NewDense(1, 2, nil)
	if _, err := NewDistribution(mean, []float64{1}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
	if _, err := NewDistribution(mean, []float64{1, 0}); err == nil {
		t.Error("expected error for zero stddev")
	}
}

func TestSample(t *testing.T) {
	const n = 20000
	mean := mat.NewDense(n, 1, floats.Span(make([]float64, n), 3, 3))
	dist, err := NewDistribution(mean, []float64{0.5})
	if err != nil {
		t.Fatal(err)
	}

	samples := mat.Col(nil, 0, dist.Sample(rand.NewSource(1)))
	m, s := stat.MeanStdDev(samples, nil)
	if math.Abs(m-3) > 0.02 || math.Abs(s-0.5) > 0.02 {
		t.Errorf("sample moments: want(3, 0.5) have(%v, %v)", m, s)
	}
}
