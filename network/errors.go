package network

import (
	"errors"
	"fmt"

	"github.com/onflow/proof-relay/network/channels"
)

// ErrNetworkStopped is returned when registering on a network that has shut down.
var ErrNetworkStopped = errors.New("gossip network stopped")

// ErrDuplicateRegistration indicates that a gossip engine is already bound to
// the same engine identifier and protocol.
type ErrDuplicateRegistration struct {
	binding channels.Binding
}

func (e ErrDuplicateRegistration) Error() string {
	return fmt.Sprintf("gossip engine already registered for %s", e.binding)
}

// NewDuplicateRegistrationErr returns a new ErrDuplicateRegistration.
func NewDuplicateRegistrationErr(binding channels.Binding) ErrDuplicateRegistration {
	return ErrDuplicateRegistration{binding: binding}
}

// IsErrDuplicateRegistration returns whether an error is ErrDuplicateRegistration
func IsErrDuplicateRegistration(err error) bool {
	var e ErrDuplicateRegistration
	return errors.As(err, &e)
}
