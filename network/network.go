package network

import (
	"github.com/onflow/proof-relay/network/channels"
)

// GossipNetwork represents the gossip layer of the node. It allows processes
// that work across the peer-to-peer network to bind themselves to an engine
// identifier and a protocol. The returned GossipEngine allows the process to
// exchange topic messages with engines bound the same way on other nodes, in a
// transport-agnostic way.
type GossipNetwork interface {
	// RegisterGossip binds a new gossip engine to the given engine identifier and
	// protocol. The validator decides which incoming messages are kept and on
	// which topic they are delivered. Only one engine can be bound to a given
	// (engine, protocol) pair at any time.
	RegisterGossip(engineID channels.EngineID, protocol channels.ProtocolName, validator Validator) (GossipEngine, error)
}

// GossipEngine is the handle of a single gossip binding. All methods are safe
// for concurrent use.
type GossipEngine interface {
	// MessagesFor returns a new stream of the messages delivered on the given
	// topic. Messages published by the local engine are not delivered to it.
	MessagesFor(topic channels.Topic) Subscription

	// GossipMessage publishes data on the topic. Unless force is set, data the
	// engine already knows about (because it published or received it before) is
	// not sent again.
	GossipMessage(topic channels.Topic, data []byte, force bool)

	// Poll drives the engine's internal progress by one non-blocking step. It
	// returns PollReady once the engine has terminated.
	Poll() PollResult

	// Wake returns a channel which receives whenever Poll should be called again.
	Wake() <-chan struct{}
}

// Subscription is a stream of topic notifications.
type Subscription interface {
	// TryNext returns the next buffered notification without blocking. It
	// returns false when no notification is available, including after the
	// stream was closed by the transport.
	TryNext() (*TopicNotification, bool)

	// Wake returns a channel which receives whenever a notification may be
	// available.
	Wake() <-chan struct{}
}

// TopicNotification is a message received on a topic.
type TopicNotification struct {
	// Sender is the peer which relayed the message to us, if known.
	Sender PeerID
	// Message is the raw message body.
	Message []byte
}

// PollResult is the outcome of a single scheduling step.
type PollResult int

const (
	// PollPending means the engine has more work to do eventually.
	PollPending PollResult = iota
	// PollReady means the engine has completed and will not make any more progress.
	PollReady
)

func (p PollResult) String() string {
	switch p {
	case PollPending:
		return "pending"
	case PollReady:
		return "ready"
	default:
		return "unknown"
	}
}
