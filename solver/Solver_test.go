package solver

import (
	"encoding/json"
	"testing"
)

func TestNewAdamValidates(t *testing.T) {
	if _, err := NewDefaultAdam(0); err == nil {
		t.Error("expected error for zero step size")
	}
	if _, err := NewAdam(1e-3, 1e-8, 1.0, 0.999, 1, -1); err == nil {
		t.Error("expected error for beta1 = 1")
	}

	s, err := NewDefaultAdam(DefaultStepSize)
	if err != nil {
		t.Fatal(err)
	}
	if s.Solver == nil {
		t.Fatal("solver not created")
	}
	if s.Type != Adam {
		t.Errorf("want(%v) have(%v)", Adam, s.Type)
	}
}

func TestSolverJSON(t *testing.T) {
	s, err := NewVanilla(0.1, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Solver
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != Vanilla {
		t.Errorf("want(%v) have(%v)", Vanilla, decoded.Type)
	}
	conf, ok := decoded.Config.(VanillaConfig)
	if !ok {
		t.Fatalf("want(VanillaConfig) have(%T)", decoded.Config)
	}
	if conf != (VanillaConfig{StepSize: 0.1, Batch: 2, Clip: 5}) {
		t.Errorf("decoded config mismatch: %+v", conf)
	}
	if decoded.Solver == nil {
		t.Error("decoded solver not created")
	}
}

func TestSolverJSONUnknown(t *testing.T) {
	var decoded Solver
	if err := json.Unmarshal([]byte(`{"Type":"SGDR","Config":{}}`),
		&decoded); err == nil {
		t.Error("expected error for unknown solver type")
	}
}

func TestClone(t *testing.T) {
	s, err := NewDefaultAdam(1e-3)
	if err != nil {
		t.Fatal(err)
	}
	c := s.Clone()
	if c.Solver == s.Solver {
		t.Error("clone should not share the underlying solver")
	}
	if c.Config != s.Config {
		t.Error("clone should share the configuration")
	}
}
