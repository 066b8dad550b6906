// Package buffer implements storage for the transitions of an episode
// and the discounted return computation used by Monte Carlo policy
// gradient methods.
package buffer

import (
	"fmt"

	ts "github.com/samuelfneumann/hopperpg/timestep"
	"gonum.org/v1/gonum/mat"
)

// EpisodeBuffer stores transitions in the order they were recorded
// until they are drained by an update. Data is stored row-major in
// flat slices, one row per transition.
type EpisodeBuffer struct {
	obsSize    int // Size of state observations
	actionSize int // Number of action dimensions

	states     []float64
	nextStates []float64
	actions    []float64
	logProbs   []float64
	rewards    []float64
	done       []bool
}

// New creates and returns a new, empty EpisodeBuffer
func New(obsDim, actDim int) *EpisodeBuffer {
	return &EpisodeBuffer{
		obsSize:    obsDim,
		actionSize: actDim,
	}
}

// Batch is the contents of an EpisodeBuffer in recording order
type Batch struct {
	States     *mat.Dense
	NextStates *mat.Dense
	Actions    *mat.Dense
	LogProbs   []float64
	Rewards    []float64
	Done       []bool
}

// Len returns the number of transitions in the batch
func (b *Batch) Len() int {
	return len(b.Rewards)
}

// Store appends a single transition to the buffer
func (e *EpisodeBuffer) Store(t ts.Transition) error {
	if t.State == nil || t.NextState == nil || t.Action == nil {
		return &BufferError{Op: "store", Err: fmt.Errorf("%w: nil vector "+
			"in transition", ErrShapeMismatch)}
	}
	if t.State.Len() != e.obsSize || t.NextState.Len() != e.obsSize {
		return &BufferError{Op: "store", Err: fmt.Errorf("%w: illegal obs "+
			"length \n\twant(%v)\n\thave(%v, %v)", ErrShapeMismatch,
			e.obsSize, t.State.Len(), t.NextState.Len())}
	}
	if t.Action.Len() != e.actionSize {
		return &BufferError{Op: "store", Err: fmt.Errorf("%w: illegal act "+
			"length \n\twant(%v)\n\thave(%v)", ErrShapeMismatch,
			e.actionSize, t.Action.Len())}
	}

	e.states = appendVec(e.states, t.State)
	e.nextStates = appendVec(e.nextStates, t.NextState)
	e.actions = appendVec(e.actions, t.Action)
	e.logProbs = append(e.logProbs, t.LogProb)
	e.rewards = append(e.rewards, t.Reward)
	e.done = append(e.done, t.Done)

	return nil
}

// Len returns the number of transitions in the buffer
func (e *EpisodeBuffer) Len() int {
	return len(e.rewards)
}

// Get returns a copy of the buffer contents without clearing it
func (e *EpisodeBuffer) Get() (*Batch, error) {
	if e.Len() == 0 {
		return nil, &BufferError{Op: "get", Err: ErrEmpty}
	}

	n := e.Len()
	return &Batch{
		States:     mat.NewDense(n, e.obsSize, copyOf(e.states)),
		NextStates: mat.NewDense(n, e.obsSize, copyOf(e.nextStates)),
		Actions:    mat.NewDense(n, e.actionSize, copyOf(e.actions)),
		LogProbs:   copyOf(e.logProbs),
		Rewards:    copyOf(e.rewards),
		Done:       append([]bool(nil), e.done...),
	}, nil
}

// Clear removes all transitions from the buffer
func (e *EpisodeBuffer) Clear() {
	e.states = e.states[:0]
	e.nextStates = e.nextStates[:0]
	e.actions = e.actions[:0]
	e.logProbs = e.logProbs[:0]
	e.rewards = e.rewards[:0]
	e.done = e.done[:0]
}

// Drain returns the buffer contents and clears the buffer
func (e *EpisodeBuffer) Drain() (*Batch, error) {
	batch, err := e.Get()
	if err != nil {
		return nil, err
	}
	e.Clear()
	return batch, nil
}

func appendVec(dst []float64, v mat.Vector) []float64 {
	for i := 0; i < v.Len(); i++ {
		dst = append(dst, v.AtVec(i))
	}
	return dst
}

func copyOf(x []float64) []float64 {
	return append([]float64(nil), x...)
}
