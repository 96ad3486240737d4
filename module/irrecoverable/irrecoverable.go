// Package irrecoverable lets worker routines report errors the node cannot
// continue from, in place of panicking.
package irrecoverable

import (
	"context"
	"fmt"
	"os"
	"runtime"
)

// Signaler forwards the first error thrown to a single consumer.
type Signaler struct {
	errChan chan error
}

func NewSignaler() (*Signaler, <-chan error) {
	errChan := make(chan error, 1)
	return &Signaler{errChan: errChan}, errChan
}

// Throw sends err to the consumer and ends the calling goroutine. Errors
// thrown after the first are written to stderr.
func (s *Signaler) Throw(err error) {
	defer runtime.Goexit()
	select {
	case s.errChan <- err:
	default:
		fmt.Fprintf(os.Stderr, "unhandled irrecoverable error: %v\n", err)
	}
}

// SignalerContext is a context.Context that irrecoverable errors can be thrown
// to. It can only be obtained from WithSignaler.
type SignalerContext interface {
	context.Context
	Throw(err error)
	sealed()
}

type signalerCtx struct {
	context.Context
	*Signaler
}

func (sc signalerCtx) sealed() {}

// WithSignaler derives a SignalerContext from parent. Thrown errors are
// received on the returned channel.
func WithSignaler(parent context.Context) (SignalerContext, <-chan error) {
	sig, errChan := NewSignaler()
	return &signalerCtx{parent, sig}, errChan
}
