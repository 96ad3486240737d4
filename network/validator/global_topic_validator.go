package validator

import (
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
)

var _ network.Validator = (*GlobalTopicValidator)(nil)

// GlobalTopicValidator keeps every message on a single fixed topic. It inspects
// neither the sender nor the content; malformed messages are filtered out by
// the consumer when decoding.
type GlobalTopicValidator struct {
	topic channels.Topic
}

// NewGlobalTopicValidator returns a validator assigning all messages to topic.
func NewGlobalTopicValidator(topic channels.Topic) *GlobalTopicValidator {
	return &GlobalTopicValidator{topic: topic}
}

// Topic returns the topic all messages are kept on.
func (v *GlobalTopicValidator) Topic() channels.Topic {
	return v.topic
}

func (v *GlobalTopicValidator) NewPeer(network.ValidatorContext, network.PeerID) {}

func (v *GlobalTopicValidator) PeerDisconnected(network.ValidatorContext, network.PeerID) {}

// Validate always returns ProcessAndKeep on the validator's topic.
func (v *GlobalTopicValidator) Validate(_ network.ValidatorContext, _ network.PeerID, _ []byte) network.ValidationResult {
	return network.ProcessAndKeep(v.topic)
}
