package agent

import (
	"errors"

	"github.com/samuelfneumann/hopperpg/buffer"
)

// AgentError implements errors reported by a TrajectoryAgent
type AgentError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *AgentError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AgentError) Unwrap() error {
	return e.Err
}

// IsEmptyBuffer returns whether or not an error reports that an update
// was requested with no recorded transitions.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, buffer.ErrEmpty)
}

// IsShapeMismatch returns whether or not an error reports a state or
// action with dimensions different from those of the policy.
func IsShapeMismatch(err error) bool {
	return errors.Is(err, buffer.ErrShapeMismatch)
}
