package irrecoverable_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/proof-relay/module/irrecoverable"
)

// TestThrow checks that the first thrown error is delivered and that throwing
// ends the calling goroutine.
func TestThrow(t *testing.T) {
	ctx, errChan := irrecoverable.WithSignaler(context.Background())
	first := errors.New("first")

	returned := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ctx.Throw(first)
		close(returned)
	}()

	select {
	case err := <-errChan:
		assert.ErrorIs(t, err, first)
	case <-time.After(time.Second):
		t.Fatal("error was not delivered")
	}
	<-finished
	select {
	case <-returned:
		t.Fatal("Throw returned to its caller")
	default:
	}

	// later errors do not block the thrower
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx.Throw(errors.New("second"))
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "second Throw blocked")
	}
}
