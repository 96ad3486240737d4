package util

import (
	"context"

	"github.com/onflow/proof-relay/module"
)

// AllReady returns a channel closed once every component is ready.
func AllReady(components ...module.ReadyDoneAware) <-chan struct{} {
	chans := make([]<-chan struct{}, 0, len(components))
	for _, c := range components {
		chans = append(chans, c.Ready())
	}
	return allClosed(chans)
}

// AllDone returns a channel closed once every component is done.
func AllDone(components ...module.ReadyDoneAware) <-chan struct{} {
	chans := make([]<-chan struct{}, 0, len(components))
	for _, c := range components {
		chans = append(chans, c.Done())
	}
	return allClosed(chans)
}

func allClosed(chans []<-chan struct{}) <-chan struct{} {
	closed := make(chan struct{})
	go func() {
		for _, ch := range chans {
			<-ch
		}
		close(closed)
	}()
	return closed
}

// WaitReady waits until ready is closed or ctx is done. A ready channel closed
// at the same time as ctx counts as ready.
func WaitReady(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		if CheckClosed(ready) {
			return nil
		}
		return ctx.Err()
	}
}

// CheckClosed reports without blocking whether done is closed or signalled.
func CheckClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// WaitError returns the first error sent on errChan, or nil once done is
// closed. An error sent before done closed is never missed.
func WaitError(errChan <-chan error, done <-chan struct{}) error {
	select {
	case err := <-errChan:
		return err
	case <-done:
	}
	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}
