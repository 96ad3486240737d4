package module

import (
	"context"

	httpmetrics "github.com/slok/go-http-metrics/metrics"
)

// ProofRelayMetrics tracks the traffic of the ticket proof relay.
type ProofRelayMetrics interface {
	// InboundProofReceived is called for every notification taken from the gossip topic.
	InboundProofReceived(sizeBytes int)

	// InboundProofDelivered is called when a decoded proof is handed to the local consumer.
	InboundProofDelivered()

	// InboundProofDropped is called when an inbound notification is discarded.
	InboundProofDropped(reason string)

	// OutboundProofPublished is called when a local proof is published on the gossip topic.
	OutboundProofPublished(sizeBytes int)

	// OutboundProofDropped is called when a local proof could not be published.
	OutboundProofDropped(reason string)

	// QueueLength reports the current length of one of the relay's local queues.
	QueueLength(queue string, length int)
}

// GossipNetworkMetrics tracks the gossip transport.
type GossipNetworkMetrics interface {
	// PeerConnected is called when a peer connects.
	PeerConnected()

	// PeerDisconnected is called when a peer disconnects.
	PeerDisconnected()

	// GossipMessagePublished is called for each message handed to the router.
	GossipMessagePublished(topic string, sizeBytes int, force bool)

	// GossipMessageSkipped is called when a message is not republished because it is already known.
	GossipMessageSkipped(topic string)

	// GossipMessageValidated is called with the validator's decision on each received message.
	GossipMessageValidated(topic string, action string)

	// PublishQueueLength reports the number of messages waiting to be handed to the router.
	PublishQueueLength(length int)
}

// RestMetrics tracks the requests served by the proof API.
type RestMetrics interface {
	// Example recorder taken from:
	// https://github.com/slok/go-http-metrics/blob/master/metrics/prometheus/prometheus.go
	httpmetrics.Recorder
	AddTotalRequests(ctx context.Context, method string, routeName string)
}
