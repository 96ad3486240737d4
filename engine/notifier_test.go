package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

// TestNotifier_PassByValue verifies that passing Notifier by value is safe
func TestNotifier_PassByValue(t *testing.T) {
	t.Parallel()
	notifier := NewNotifier()

	var sent sync.WaitGroup
	sent.Add(1)
	go func(n Notifier) {
		n.Notify()
		sent.Done()
	}(notifier)
	sent.Wait()

	select {
	case <-notifier.Channel(): // expected
	default:
		t.Fail()
	}
}

// TestNotifier_NoNotificationsInitialization verifies that Notifier is initialized
// without notifications
func TestNotifier_NoNotificationsInitialization(t *testing.T) {
	t.Parallel()
	notifier := NewNotifier()
	select {
	case <-notifier.Channel():
		t.Fail()
	default: // expected
	}
}

// TestNotifier_ManyNotifications sends many notifications to the Notifier
// and verifies that:
//   - the notifier accepts them all without a notification being consumed
//   - only one notification is internally stored and subsequent attempts to
//     read a notification would block
func TestNotifier_ManyNotifications(t *testing.T) {
	t.Parallel()
	notifier := NewNotifier()

	var counter sync.WaitGroup
	for i := 0; i < 10; i++ {
		counter.Add(1)
		go func() {
			notifier.Notify()
			counter.Done()
		}()
	}
	counter.Wait()

	// attempt to consume first notification:
	// expect that one notification should be available
	c := notifier.Channel()
	select {
	case <-c: // expected
	default:
		t.Error("expected one notification to be available")
	}

	// attempt to consume second notification
	// expect that no notification is available
	select {
	case <-c:
		t.Error("expected only one notification to be available")
	default: // expected
	}
}

// TestNotifier_AllWorkProcessed spans many routines pushing work and fewer
// routines consuming work. We require that all work is eventually processed.
func TestNotifier_AllWorkProcessed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := NewNotifier()

	producerCount := int32(10) // number of producers
	producerJobs := int32(10)  // number of tasks that each producer will queue up
	pendingWorkQueue := make(chan struct{}, producerCount*producerJobs)
	consumedWork := atomic.NewInt32(0)

	processAllPending := func() {
		for {
			select {
			case <-pendingWorkQueue:
				consumedWork.Inc()
			default:
				return
			}
		}
	}

	// 5 routines consuming work
	for i := 0; i < 5; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-notifier.Channel():
					processAllPending()
				}
			}
		}()
	}

	for i := int32(0); i < producerCount; i++ {
		go func() {
			for j := int32(0); j < producerJobs; j++ {
				pendingWorkQueue <- struct{}{}
				notifier.Notify()
			}
		}()
	}

	assert.Eventually(t, func() bool {
		return consumedWork.Load() == producerCount*producerJobs
	}, 3*time.Second, 10*time.Millisecond)
}
