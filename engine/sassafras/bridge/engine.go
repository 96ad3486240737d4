package bridge

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onflow/proof-relay/model/hash"
	"github.com/onflow/proof-relay/model/proof"
	"github.com/onflow/proof-relay/module"
	"github.com/onflow/proof-relay/module/component"
	"github.com/onflow/proof-relay/module/irrecoverable"
	"github.com/onflow/proof-relay/module/metrics"
	"github.com/onflow/proof-relay/module/mpsc"
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
	"github.com/onflow/proof-relay/network/validator"
)

// Engine relays ticket proofs between the local proof channels and the single
// global proof topic of the gossip network.
//
// Locally produced proofs are read from the outbound receiver, encoded and
// gossiped on the topic. Notifications received on the topic are decoded and
// pushed to the inbound sender. Messages that do not decode, and proofs the
// local consumer cannot accept, are dropped; nothing is retried.
//
//	+----------+      +--------+      +--------------+
//	| producer |----->|        |----->|              |
//	+----------+      | Engine |      | proof topic  |
//	+----------+      |        |      |              |
//	| consumer |<-----|        |<-----|              |
//	+----------+      +--------+      +--------------+
//
// The engine owns both endpoints and closes them when it stops. All the relay
// work happens on a single worker, which is woken by the subscription, the
// outbound channel or the gossip engine and then runs one Poll.
type Engine struct {
	*component.ComponentManager
	log     zerolog.Logger
	metrics module.ProofRelayMetrics

	gossip   network.GossipEngine
	topic    channels.Topic
	messages network.Subscription

	localOutProofs *mpsc.Receiver[*proof.Message] // proofs produced locally, to be gossiped
	remoteInProofs *mpsc.Sender[*proof.Message]   // proofs received from the network, for the local consumer
}

type options struct {
	topicName string
}

// Option configures the engine.
type Option func(*options)

// WithTopicName derives the proof topic from name instead of the well-known
// global topic name. Intended for test networks.
func WithTopicName(name string) Option {
	return func(o *options) {
		o.topicName = name
	}
}

// New creates the proof relay and registers it with the gossip network under the
// Sassafras engine identifier and protocol.
// No errors are expected during normal operations.
func New(
	log zerolog.Logger,
	collector module.ProofRelayMetrics,
	net network.GossipNetwork,
	hasher hash.Hasher,
	localOutProofs *mpsc.Receiver[*proof.Message],
	remoteInProofs *mpsc.Sender[*proof.Message],
	opts ...Option,
) (*Engine, error) {
	if localOutProofs == nil || remoteInProofs == nil {
		return nil, fmt.Errorf("proof relay requires both local proof channels")
	}

	o := &options{topicName: channels.GlobalProofTopicName}
	for _, apply := range opts {
		apply(o)
	}
	if o.topicName == "" {
		return nil, fmt.Errorf("empty proof topic name")
	}

	topic := channels.TopicFromName(hasher, o.topicName)
	gossip, err := net.RegisterGossip(
		channels.SassafrasEngineID,
		channels.SassafrasProtocolName,
		validator.NewGlobalTopicValidator(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("could not register proof relay with gossip network: %w", err)
	}

	e := &Engine{
		log: log.With().
			Str("engine", "sassafras_bridge").
			Str("topic", topic.String()).
			Logger(),
		metrics:        collector,
		gossip:         gossip,
		topic:          topic,
		messages:       gossip.MessagesFor(topic),
		localOutProofs: localOutProofs,
		remoteInProofs: remoteInProofs,
	}

	e.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(e.relayLoop).
		Build()

	return e, nil
}

// Topic returns the topic proofs are relayed on.
func (e *Engine) Topic() channels.Topic {
	return e.topic
}

// relayLoop polls the relay whenever one of its sources may have work, until
// the gossip engine terminates or the component is shut down.
func (e *Engine) relayLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	defer e.closeEndpoints()
	ready()

	for {
		if e.Poll() == network.PollReady {
			e.log.Info().Msg("gossip engine terminated, stopping proof relay")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-e.messages.Wake():
		case <-e.localOutProofs.Wake():
		case <-e.gossip.Wake():
		}
	}
}

// Poll runs one non-blocking relay step: it processes every inbound notification
// available on the topic, then every locally produced proof available, and then
// drives the gossip engine once, returning its result.
func (e *Engine) Poll() network.PollResult {
	e.processInbound()
	e.processOutbound()
	return e.gossip.Poll()
}

// processInbound decodes the available notifications and forwards the proofs
// to the local consumer. A subscription closed by the transport counts as drained.
func (e *Engine) processInbound() {
	for {
		notification, ok := e.messages.TryNext()
		if !ok {
			return
		}
		e.metrics.InboundProofReceived(len(notification.Message))

		msg, err := proof.Decode(notification.Message)
		if err != nil {
			e.log.Debug().
				Err(err).
				Str("sender", notification.Sender.String()).
				Int("size", len(notification.Message)).
				Msg("dropping undecodable proof message")
			e.metrics.InboundProofDropped(metrics.DropReasonDecodeError)
			continue
		}

		err = e.remoteInProofs.TrySend(msg)
		switch {
		case err == nil:
			e.metrics.InboundProofDelivered()
		case errors.Is(err, mpsc.ErrFull):
			e.log.Debug().
				Hex("authority_id", msg.AuthorityID[:]).
				Msg("dropping proof, inbound channel is full")
			e.metrics.InboundProofDropped(metrics.DropReasonChannelFull)
		default:
			e.log.Debug().
				Err(err).
				Hex("authority_id", msg.AuthorityID[:]).
				Msg("dropping proof, inbound channel is closed")
			e.metrics.InboundProofDropped(metrics.DropReasonChannelClosed)
		}
	}
}

// processOutbound encodes the available local proofs and gossips them on the
// topic without forcing a rebroadcast.
func (e *Engine) processOutbound() {
	for {
		msg, err := e.localOutProofs.TryRecv()
		if err != nil {
			// empty, or every producer is gone
			return
		}

		data, err := proof.Encode(msg)
		if err != nil {
			e.log.Debug().Err(err).Msg("dropping unencodable local proof")
			e.metrics.OutboundProofDropped(metrics.DropReasonEncodeError)
			continue
		}

		e.gossip.GossipMessage(e.topic, data, false)
		e.metrics.OutboundProofPublished(len(data))
	}
}

func (e *Engine) closeEndpoints() {
	e.remoteInProofs.Close()
	e.localOutProofs.Close()
}
