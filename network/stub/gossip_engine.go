package stub

import (
	"errors"
	"sync"

	"go.uber.org/atomic"

	"github.com/onflow/proof-relay/engine"
	"github.com/onflow/proof-relay/module/mpsc"
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
)

var _ network.GossipEngine = (*GossipEngine)(nil)
var _ network.ValidatorContext = (*GossipEngine)(nil)

// PublishCall records a single GossipMessage call.
type PublishCall struct {
	Topic channels.Topic
	Data  []byte
	Force bool
}

type subscriptionSink = mpsc.Sender[*network.TopicNotification]

// GossipEngine is the in-memory gossip binding of a Network.
type GossipEngine struct {
	net       *Network
	binding   channels.Binding
	validator network.Validator

	mu        sync.Mutex
	sinks     map[channels.Topic][]*subscriptionSink
	published []PublishCall

	terminated *atomic.Bool
	wake       engine.Notifier
}

// MessagesFor returns a new unbounded stream of the messages delivered on topic.
func (e *GossipEngine) MessagesFor(topic channels.Topic) network.Subscription {
	// unbounded channels cannot fail to be created
	tx, rx, _ := mpsc.New[*network.TopicNotification]()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.terminated.Load() {
		tx.Close()
		return rx
	}
	e.sinks[topic] = append(e.sinks[topic], tx)
	return rx
}

// GossipMessage records the call and sends data to the engines of the same
// binding on all other networks of the hub. As the hub is fully connected, the
// force flag does not change delivery.
func (e *GossipEngine) GossipMessage(topic channels.Topic, data []byte, force bool) {
	if e.terminated.Load() {
		return
	}

	e.mu.Lock()
	e.published = append(e.published, PublishCall{
		Topic: topic,
		Data:  append([]byte(nil), data...),
		Force: force,
	})
	e.mu.Unlock()

	for _, peerEngine := range e.net.hub.peerEngines(e.net.id, e.binding) {
		peerEngine.receive(e.net.id, data)
	}
}

// BroadcastMessage publishes on behalf of the engine's validator.
func (e *GossipEngine) BroadcastMessage(topic channels.Topic, data []byte, force bool) {
	e.GossipMessage(topic, data, force)
}

// receive runs the validator on a message from sender and delivers it on the
// topic the validator names, unless the message is discarded.
func (e *GossipEngine) receive(sender network.PeerID, data []byte) {
	if e.terminated.Load() {
		return
	}
	result := e.validator.Validate(e, sender, data)
	if !result.Delivers() {
		return
	}
	e.Deliver(result.Topic, sender, data)
}

// Deliver pushes a notification to every subscriber of topic without running
// the validator. Subscriptions whose receiver was closed are removed.
func (e *GossipEngine) Deliver(topic channels.Topic, sender network.PeerID, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sinks := e.sinks[topic]
	live := sinks[:0]
	for _, sink := range sinks {
		err := sink.TrySend(&network.TopicNotification{
			Sender:  sender,
			Message: append([]byte(nil), data...),
		})
		if errors.Is(err, mpsc.ErrClosed) {
			continue
		}
		live = append(live, sink)
	}
	e.sinks[topic] = live
}

// PublishCalls returns the GossipMessage calls made so far, in call order.
func (e *GossipEngine) PublishCalls() []PublishCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	calls := make([]PublishCall, len(e.published))
	copy(calls, e.published)
	return calls
}

// Poll returns PollReady once the engine was terminated.
func (e *GossipEngine) Poll() network.PollResult {
	if e.terminated.Load() {
		return network.PollReady
	}
	return network.PollPending
}

// Wake receives when the engine is terminated.
func (e *GossipEngine) Wake() <-chan struct{} {
	return e.wake.Channel()
}

// Terminate stops the engine: subscriptions are closed, peers' validators are
// told about the disconnection and Poll reports PollReady.
func (e *GossipEngine) Terminate() {
	if !e.terminated.CompareAndSwap(false, true) {
		return
	}

	e.mu.Lock()
	for topic, sinks := range e.sinks {
		for _, sink := range sinks {
			sink.Close()
		}
		delete(e.sinks, topic)
	}
	e.mu.Unlock()

	for _, other := range e.net.hub.peerEngines(e.net.id, e.binding) {
		other.validator.PeerDisconnected(other, e.net.id)
	}
	e.wake.Notify()
}
