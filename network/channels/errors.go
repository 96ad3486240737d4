package channels

import (
	"errors"
	"fmt"
)

// ErrInvalidTopic error wrapper that indicates a transport topic string that
// does not belong to any binding.
type ErrInvalidTopic struct {
	topic string
	err   error
}

func (e ErrInvalidTopic) Error() string {
	return fmt.Errorf("invalid topic %s: %w", e.topic, e.err).Error()
}

func (e ErrInvalidTopic) Unwrap() error {
	return e.err
}

// NewInvalidTopicErr returns a new ErrInvalidTopic
func NewInvalidTopicErr(topic string, err error) ErrInvalidTopic {
	return ErrInvalidTopic{topic: topic, err: err}
}

// IsErrInvalidTopic returns true if an error is ErrInvalidTopic
func IsErrInvalidTopic(err error) bool {
	var e ErrInvalidTopic
	return errors.As(err, &e)
}
