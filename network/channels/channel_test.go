package channels_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/proof-relay/model/hash"
	"github.com/onflow/proof-relay/network/channels"
)

func TestSassafrasBinding(t *testing.T) {
	assert.Equal(t, "SASS", channels.SassafrasEngineID.String())
	assert.Equal(t, "53415353", channels.SassafrasEngineID.Hex())
	assert.Equal(t, "/paritytech/sassafras/1", channels.SassafrasProtocolName.String())
}

// TestGlobalProofTopic checks that the topic is the block hash of the well-known name
// and does not depend on anything else.
func TestGlobalProofTopic(t *testing.T) {
	hasher := hash.Blake2b256{}

	topic := channels.GlobalProofTopic(hasher)
	assert.Equal(t, channels.Topic(hasher.Hash([]byte("SASSAFRAS-PROOF-GLOBAL"))), topic)
	assert.Equal(t, topic, channels.GlobalProofTopic(hasher))

	assert.NotEqual(t, topic, channels.GlobalProofTopic(hash.Keccak256{}))
	assert.NotEqual(t, topic, channels.TopicFromName(hasher, "SASSAFRAS-PROOF-TEST"))
}

func TestPubSubTopic(t *testing.T) {
	binding := channels.Binding{EngineID: channels.SassafrasEngineID, Protocol: channels.SassafrasProtocolName}
	topic := channels.GlobalProofTopic(hash.Blake2b256{})

	s := channels.PubSubTopic(binding, topic)
	assert.Equal(t, "/paritytech/sassafras/1/53415353/"+topic.String(), s)

	parsedBinding, parsedTopic, err := channels.ParsePubSubTopic(s)
	require.NoError(t, err)
	assert.Equal(t, binding, parsedBinding)
	assert.Equal(t, topic, parsedTopic)
}

func TestParsePubSubTopic_Invalid(t *testing.T) {
	topic := channels.GlobalProofTopic(hash.Blake2b256{}).String()

	for _, s := range []string{
		"",
		"no-separators",
		"/53415353",
		"/paritytech/sassafras/1/zz/" + topic,
		"/paritytech/sassafras/1/5341/" + topic,
		"/paritytech/sassafras/1/53415353/abcd",
	} {
		_, _, err := channels.ParsePubSubTopic(s)
		assert.True(t, channels.IsErrInvalidTopic(err), s)
	}
}
