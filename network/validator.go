package network

import (
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/onflow/proof-relay/network/channels"
)

// PeerID identifies a peer of the gossip network.
type PeerID = peer.ID

// Validator is installed into a gossip binding and decides for every incoming
// message whether it is processed and whether it is propagated further.
// Implementations must be safe for concurrent use.
type Validator interface {
	// NewPeer is called when a peer running the binding's protocol connects.
	NewPeer(ctx ValidatorContext, who PeerID)

	// PeerDisconnected is called when a peer running the binding's protocol disconnects.
	PeerDisconnected(ctx ValidatorContext, who PeerID)

	// Validate decides what happens to a message received from sender.
	Validate(ctx ValidatorContext, sender PeerID, data []byte) ValidationResult
}

// ValidatorContext lets a validator act on the binding it is installed in.
type ValidatorContext interface {
	// BroadcastMessage publishes data on the topic to all peers of the binding.
	BroadcastMessage(topic channels.Topic, data []byte, force bool)
}

// ValidationAction is the decision of a validator on an incoming message.
type ValidationAction int

const (
	// ActionDiscard drops the message. It is neither delivered nor propagated.
	ActionDiscard ValidationAction = iota
	// ActionProcessAndKeep delivers the message to local subscribers of the
	// result topic and keeps it for propagation to other peers.
	ActionProcessAndKeep
	// ActionProcessAndDiscard delivers the message to local subscribers of the
	// result topic without propagating it.
	ActionProcessAndDiscard
)

func (a ValidationAction) String() string {
	switch a {
	case ActionDiscard:
		return "discard"
	case ActionProcessAndKeep:
		return "process_and_keep"
	case ActionProcessAndDiscard:
		return "process_and_discard"
	default:
		return "unknown"
	}
}

// ValidationResult is returned by Validator.Validate. Topic is only meaningful
// for the process actions.
type ValidationResult struct {
	Action ValidationAction
	Topic  channels.Topic
}

// ProcessAndKeep returns a result that delivers the message on topic and keeps it.
func ProcessAndKeep(topic channels.Topic) ValidationResult {
	return ValidationResult{Action: ActionProcessAndKeep, Topic: topic}
}

// ProcessAndDiscard returns a result that delivers the message on topic and
// does not propagate it.
func ProcessAndDiscard(topic channels.Topic) ValidationResult {
	return ValidationResult{Action: ActionProcessAndDiscard, Topic: topic}
}

// Discard returns a result that drops the message.
func Discard() ValidationResult {
	return ValidationResult{Action: ActionDiscard}
}

// Delivers returns true if the message is delivered to local subscribers.
func (r ValidationResult) Delivers() bool {
	return r.Action == ActionProcessAndKeep || r.Action == ActionProcessAndDiscard
}
