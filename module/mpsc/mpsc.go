// Package mpsc implements multi-producer single-consumer queues with
// non-blocking send and receive. A queue is unbounded unless a capacity is
// given. Closure is signalled in both directions: closing the receiver makes
// every later send fail, and once the last sender is closed the receiver
// reports closure after draining what is buffered.
package mpsc

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/atomic"

	"github.com/onflow/proof-relay/engine"
	"github.com/onflow/proof-relay/engine/common/fifoqueue"
)

var (
	// ErrClosed is returned when sending to a queue whose receiver is closed, and
	// when receiving from a drained queue whose senders are all closed.
	ErrClosed = errors.New("channel closed")
	// ErrFull is returned when sending to a bounded queue at capacity.
	ErrFull = errors.New("channel full")
	// ErrEmpty is returned by TryRecv when nothing is buffered.
	ErrEmpty = errors.New("channel empty")
)

// Unbounded is the capacity of a queue without bound.
const Unbounded = 0

type config struct {
	capacity       int
	lengthObserver fifoqueue.QueueLengthObserver
}

// Option configures a queue.
type Option func(*config)

// WithCapacity bounds the queue. Zero means unbounded.
func WithCapacity(capacity int) Option {
	return func(c *config) {
		c.capacity = capacity
	}
}

// WithLengthObserver registers a non-blocking callback invoked with the new
// length each time the queue's length changes.
func WithLengthObserver(observer fifoqueue.QueueLengthObserver) Option {
	return func(c *config) {
		c.lengthObserver = observer
	}
}

type channel[T any] struct {
	queue          *fifoqueue.FifoQueue[T]
	notifier       engine.Notifier
	receiverClosed *atomic.Bool
	senders        *atomic.Int64
}

// New creates a queue and returns its sending and receiving ends.
func New[T any](opts ...Option) (*Sender[T], *Receiver[T], error) {
	cfg := &config{capacity: Unbounded}
	for _, apply := range opts {
		apply(cfg)
	}
	if cfg.capacity < 0 {
		return nil, nil, fmt.Errorf("invalid channel capacity %d", cfg.capacity)
	}

	var queueOpts []fifoqueue.ConstructorOption
	if cfg.capacity != Unbounded {
		queueOpts = append(queueOpts, fifoqueue.WithCapacity(cfg.capacity))
	}
	if cfg.lengthObserver != nil {
		queueOpts = append(queueOpts, fifoqueue.WithLengthObserver(cfg.lengthObserver))
	}
	queue, err := fifoqueue.NewFifoQueue[T](queueOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create channel queue: %w", err)
	}

	ch := &channel[T]{
		queue:          queue,
		notifier:       engine.NewNotifier(),
		receiverClosed: atomic.NewBool(false),
		senders:        atomic.NewInt64(1),
	}
	return newSender(ch), &Receiver[T]{ch: ch}, nil
}

// Sender is a sending end of a queue. Use Clone to obtain more senders; each
// must be closed separately.
type Sender[T any] struct {
	ch     *channel[T]
	closed *atomic.Bool
}

func newSender[T any](ch *channel[T]) *Sender[T] {
	return &Sender[T]{ch: ch, closed: atomic.NewBool(false)}
}

// TrySend appends element to the queue without blocking.
//
// Expected error returns during normal operations:
//   - ErrClosed if this sender or the receiver is closed.
//   - ErrFull if the queue is bounded and at capacity.
func (s *Sender[T]) TrySend(element T) error {
	if s.closed.Load() || s.ch.receiverClosed.Load() {
		return ErrClosed
	}
	if !s.ch.queue.Push(element) {
		return ErrFull
	}
	s.ch.notifier.Notify()
	return nil
}

// Clone returns a new sender for the same queue. Cloning a closed sender
// returns a closed sender.
func (s *Sender[T]) Clone() *Sender[T] {
	clone := newSender(s.ch)
	if s.closed.Load() {
		clone.closed.Store(true)
		return clone
	}
	s.ch.senders.Inc()
	return clone
}

// Close closes this sender. The receiver reports closure once every sender is
// closed and the buffer is drained. Close is idempotent.
func (s *Sender[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.ch.senders.Dec()
	s.ch.notifier.Notify()
}

// IsClosed returns true if sending is no longer possible.
func (s *Sender[T]) IsClosed() bool {
	return s.closed.Load() || s.ch.receiverClosed.Load()
}

// Receiver is the receiving end of a queue. It must only be used by a single
// goroutine at a time.
type Receiver[T any] struct {
	ch *channel[T]
}

// TryRecv removes and returns the head of the queue without blocking.
//
// Expected error returns during normal operations:
//   - ErrEmpty if nothing is buffered and a sender is still open.
//   - ErrClosed if nothing is buffered and every sender is closed, or the
//     receiver itself is closed.
func (r *Receiver[T]) TryRecv() (T, error) {
	var zero T
	if r.ch.receiverClosed.Load() {
		return zero, ErrClosed
	}
	// senders push before closing, so reading the sender count first makes an
	// empty queue conclusive
	sendersClosed := r.ch.senders.Load() == 0
	element, ok := r.ch.queue.Pop()
	if ok {
		return element, nil
	}
	if sendersClosed {
		return zero, ErrClosed
	}
	return zero, ErrEmpty
}

// TryNext is TryRecv reporting only whether an element was returned.
func (r *Receiver[T]) TryNext() (T, bool) {
	element, err := r.TryRecv()
	return element, err == nil
}

// Recv blocks until an element is available, the queue is closed or the
// context is done.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		element, err := r.TryRecv()
		if !errors.Is(err, ErrEmpty) {
			return element, err
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-r.ch.notifier.Channel():
		}
	}
}

// Wake returns a channel which receives when an element was sent or a sender closed.
func (r *Receiver[T]) Wake() <-chan struct{} {
	return r.ch.notifier.Channel()
}

// Close closes the receiver and drops buffered elements. Subsequent sends
// fail with ErrClosed. Close is idempotent.
func (r *Receiver[T]) Close() {
	if !r.ch.receiverClosed.CompareAndSwap(false, true) {
		return
	}
	for {
		if _, ok := r.ch.queue.Pop(); !ok {
			return
		}
	}
}

// IsClosed returns true if the receiver is closed, or every sender is closed
// and the buffer is drained.
func (r *Receiver[T]) IsClosed() bool {
	return r.ch.receiverClosed.Load() || (r.ch.senders.Load() == 0 && r.ch.queue.Len() == 0)
}

// Len returns the number of buffered elements.
func (r *Receiver[T]) Len() int {
	return r.ch.queue.Len()
}
