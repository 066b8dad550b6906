package pendulum

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/hopperpg/environment"
)

func newTestPendulum(t *testing.T, cutoff int) *Pendulum {
	bounds := r1.Interval{Min: -0.1, Max: 0.1}
	s := environment.NewUniformStarter([]r1.Interval{bounds, bounds}, 7)
	p, step, err := New(NewSwingUp(s, cutoff), 0.99)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !step.First() {
		t.Fatalf("first step should have type First, have(%v)",
			step.StepType)
	}
	return p
}

func TestPendulumEpisodeCutoff(t *testing.T) {
	cutoff := 25
	p := newTestPendulum(t, cutoff)
	action := mat.NewVecDense(ActionDims, []float64{1.0})

	steps := 0
	for {
		step, last, err := p.Step(action)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		steps++
		if step.Number != steps {
			t.Errorf("step number \n\twant(%v) \n\thave(%v)", steps,
				step.Number)
		}
		if math.Abs(step.Observation.AtVec(0)) > AngleBound {
			t.Errorf("angle %v outside bounds", step.Observation.AtVec(0))
		}
		if math.Abs(step.Observation.AtVec(1)) > SpeedBound {
			t.Errorf("speed %v outside bounds", step.Observation.AtVec(1))
		}
		if last {
			break
		}
	}

	if steps != cutoff {
		t.Errorf("episode length \n\twant(%v) \n\thave(%v)", cutoff, steps)
	}
}

func TestPendulumRejectsBadAction(t *testing.T) {
	p := newTestPendulum(t, 10)
	if _, _, err := p.Step(mat.NewVecDense(2, nil)); err == nil {
		t.Error("step: expected error for 2-dimensional action")
	}
}

func TestNormalizeAngle(t *testing.T) {
	for _, th := range []float64{0, 1, -1, 3 * math.Pi, -3.5 * math.Pi} {
		n := normalizeAngle(th)
		if n < -math.Pi || n >= math.Pi {
			t.Errorf("normalizeAngle(%v) = %v outside [-π, π)", th, n)
		}
		if math.Abs(math.Cos(n)-math.Cos(th)) > 1e-9 {
			t.Errorf("normalizeAngle(%v) changed the angle: %v", th, n)
		}
	}
}
