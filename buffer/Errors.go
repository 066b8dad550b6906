package buffer

import "errors"

// BufferError implements errors unique to an episode buffer.
type BufferError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *BufferError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *BufferError) Unwrap() error {
	return e.Err
}

// ErrEmpty is reported when data is requested from an empty buffer
var ErrEmpty = errors.New("buffer empty")

// ErrShapeMismatch is reported when a transition does not have the
// state or action dimensions the buffer was created with.
var ErrShapeMismatch = errors.New("shape mismatch")

// IsEmptyBuffer returns whether or not an error reports that a
// buffer is empty.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, ErrEmpty)
}

// IsShapeMismatch returns whether or not an error reports a
// transition with the wrong dimensions.
func IsShapeMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}
