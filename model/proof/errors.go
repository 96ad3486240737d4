package proof

import (
	"errors"
	"fmt"
)

// ErrDecode is the sentinel wrapped by every DecodeError.
var ErrDecode = errors.New("could not decode proof message")

// DecodeError indicates that a byte buffer is not a valid encoding of a
// proof message. A message that decodes only partially is invalid as a whole.
type DecodeError struct {
	err error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrDecode, e.err)
}

func (e DecodeError) Unwrap() error {
	return e.err
}

func (e DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NewDecodeErrorf returns a new DecodeError.
func NewDecodeErrorf(msg string, args ...interface{}) error {
	return DecodeError{err: fmt.Errorf(msg, args...)}
}

// IsDecodeError returns whether an error is DecodeError.
func IsDecodeError(err error) bool {
	var e DecodeError
	return errors.As(err, &e)
}
