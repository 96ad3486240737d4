package channels

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/onflow/proof-relay/model/hash"
)

// GlobalProofTopicName is hashed to obtain the single topic all ticket
// proofs are gossiped on.
const GlobalProofTopicName = "SASSAFRAS-PROOF-GLOBAL"

// Topic is a gossip topic. Topics are hashes of well-known names, computed with
// the hashing function of the host chain's block header.
type Topic hash.Hash

func (t Topic) String() string {
	return hex.EncodeToString(t[:])
}

// TopicFromName derives the topic for the given name.
func TopicFromName(hasher hash.Hasher, name string) Topic {
	return Topic(hasher.Hash([]byte(name)))
}

// GlobalProofTopic returns the topic shared by all participants for ticket proofs.
// It does not depend on the epoch, the round or the sender.
func GlobalProofTopic(hasher hash.Hasher) Topic {
	return TopicFromName(hasher, GlobalProofTopicName)
}

// PubSubTopic returns the transport topic string for a topic of the given
// binding: <protocol>/<engine-id-hex>/<topic-hex>.
func PubSubTopic(binding Binding, topic Topic) string {
	return fmt.Sprintf("%s/%s/%s", binding.Protocol, binding.EngineID.Hex(), topic)
}

// ParsePubSubTopic splits a transport topic string into its binding and topic.
//
// Expected error returns during normal operations:
//   - ErrInvalidTopic if the string is not of the form returned by PubSubTopic.
func ParsePubSubTopic(s string) (Binding, Topic, error) {
	var (
		binding Binding
		topic   Topic
	)

	i := strings.LastIndex(s, "/")
	if i < 0 {
		return binding, topic, NewInvalidTopicErr(s, fmt.Errorf("missing topic separator"))
	}
	j := strings.LastIndex(s[:i], "/")
	if j <= 0 {
		return binding, topic, NewInvalidTopicErr(s, fmt.Errorf("missing engine id separator"))
	}

	engineID, err := hex.DecodeString(s[j+1 : i])
	if err != nil || len(engineID) != EngineIDLen {
		return binding, topic, NewInvalidTopicErr(s, fmt.Errorf("malformed engine id %q", s[j+1:i]))
	}
	h, err := hash.HexStringToHash(s[i+1:])
	if err != nil {
		return binding, topic, NewInvalidTopicErr(s, err)
	}

	binding.Protocol = ProtocolName(s[:j])
	copy(binding.EngineID[:], engineID)
	return binding, Topic(h), nil
}
