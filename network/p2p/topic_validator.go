package p2p

import (
	"context"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/onflow/proof-relay/module"
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
)

// topicValidator runs a gossip engine's validator inside the pubsub
// validation pipeline and maps its decision onto the router:
//   - ProcessAndKeep accepts the message. It is delivered by the subscription
//     pump on the topic the validator named and forwarded to other peers.
//   - ProcessAndDiscard delivers the message right away and ignores it, so the
//     router neither forwards it nor penalizes the sender.
//   - Discard ignores the message.
type topicValidator struct {
	log       zerolog.Logger
	self      peer.ID
	binding   channels.Binding
	validator network.Validator
	ctx       network.ValidatorContext
	metrics   module.GossipNetworkMetrics
	deliver   func(topic channels.Topic, sender network.PeerID, data []byte)
}

func (v *topicValidator) Validate(_ context.Context, from peer.ID, msg *pubsub.Message) pubsub.ValidationResult {
	// messages published by this node were checked by the local engine
	if from == v.self {
		return pubsub.ValidationAccept
	}

	name := msg.GetTopic()
	binding, _, err := channels.ParsePubSubTopic(name)
	if err != nil || binding != v.binding {
		v.log.Warn().
			Err(err).
			Str("topic", name).
			Str("remote_peer_id", from.String()).
			Msg("rejecting message on foreign topic")
		return pubsub.ValidationReject
	}

	result := v.validator.Validate(v.ctx, from, msg.Data)
	v.metrics.GossipMessageValidated(name, result.Action.String())

	switch result.Action {
	case network.ActionProcessAndKeep:
		msg.ValidatorData = result.Topic
		return pubsub.ValidationAccept
	case network.ActionProcessAndDiscard:
		v.deliver(result.Topic, from, msg.Data)
		return pubsub.ValidationIgnore
	default:
		return pubsub.ValidationIgnore
	}
}
