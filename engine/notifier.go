package engine

// Notifier wakes up a worker routine when work may be available. A
// notification sent while nobody is waiting is kept until the next receive,
// and notifications sent in between collapse into one. Copies of a Notifier
// share its state.
type Notifier struct {
	ch chan struct{} // capacity 1
}

func NewNotifier() Notifier {
	return Notifier{ch: make(chan struct{}, 1)}
}

// Notify records a notification without blocking.
func (n Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Channel receives once per collapsed notification.
func (n Notifier) Channel() <-chan struct{} {
	return n.ch
}
