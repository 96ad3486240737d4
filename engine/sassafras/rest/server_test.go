package rest_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/proof-relay/engine/sassafras/bridge"
	"github.com/onflow/proof-relay/engine/sassafras/rest"
	"github.com/onflow/proof-relay/model/hash"
	"github.com/onflow/proof-relay/module/irrecoverable"
	"github.com/onflow/proof-relay/module/metrics"
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
	"github.com/onflow/proof-relay/network/stub"
	"github.com/onflow/proof-relay/utils/unittest"
)

type relayNode struct {
	gossip *stub.GossipEngine
	relay  *bridge.Engine
	server *rest.Server
}

func newRelayNode(t *testing.T, hub *stub.Hub, id peer.ID) *relayNode {
	net := hub.NewNetwork(id)
	local, err := bridge.NewLocalChannels(bridge.DefaultConfig(), metrics.NewNoopCollector())
	require.NoError(t, err)
	relay, err := bridge.New(unittest.Logger(), metrics.NewNoopCollector(), net, hash.DefaultHasher, local.OutboundReceiver, local.InboundSender)
	require.NoError(t, err)
	gossip, ok := net.Engine(channels.SassafrasEngineID, channels.SassafrasProtocolName)
	require.True(t, ok)

	handler := rest.NewAPIHandler(unittest.Logger(), metrics.NewNoopCollector(), local.OutboundSender, local.InboundReceiver)
	server := rest.NewServer(unittest.Logger(), "127.0.0.1:0", handler)
	return &relayNode{gossip: gossip, relay: relay, server: server}
}

func baseURL(t *testing.T, s *rest.Server) string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	addr, err := s.Addr(ctx)
	require.NoError(t, err)
	return fmt.Sprintf("http://%s/v1/proofs", addr)
}

// TestServer_Relay submits a proof over HTTP on one node and retrieves it over
// HTTP on another node of the same hub.
func TestServer_Relay(t *testing.T) {
	hub := stub.NewHub()
	sender := newRelayNode(t, hub, "sender")
	recipient := newRelayNode(t, hub, "recipient")

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	defer cancel()
	for _, n := range []*relayNode{sender, recipient} {
		n.relay.Start(ctx)
		n.server.Start(ctx)
	}
	unittest.RequireComponentsReadyBefore(t, time.Second, sender.relay, sender.server, recipient.relay, recipient.server)

	me := unittest.AuthorityIDFixtureFromByte(7)
	expected := unittest.ProofFixture(unittest.WithAuthorityID(me))
	body, err := json.Marshal(rest.Proof{
		AuthorityID:      expected.AuthorityID.String(),
		EphemeralKey:     hex.EncodeToString(expected.EphemeralKey[:]),
		EncryptedPayload: hex.EncodeToString(expected.EncryptedPayload),
	})
	require.NoError(t, err)

	resp, err := http.Post(baseURL(t, sender.server), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// one publish on the global topic
	require.Eventually(t, func() bool {
		return len(sender.gossip.PublishCalls()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, channels.GlobalProofTopic(hash.DefaultHasher), sender.gossip.PublishCalls()[0].Topic)

	var received []rest.Proof
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL(t, recipient.server) + "?authority_id=" + me.String())
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		defer resp.Body.Close()
		var proofs []rest.Proof
		if err := json.NewDecoder(resp.Body).Decode(&proofs); err != nil {
			return false
		}
		received = append(received, proofs...)
		return len(received) > 0
	}, time.Second, 10*time.Millisecond)

	require.Len(t, received, 1)
	assert.Equal(t, string(body), mustMarshal(t, received[0]))

	cancel()
	unittest.RequireComponentsDoneBefore(t, time.Second, sender.relay, sender.server, recipient.relay, recipient.server)
}

// TestServer_RelayStopped checks that submissions are refused once the relay
// has shut down.
func TestServer_RelayStopped(t *testing.T) {
	hub := stub.NewHub()
	n := newRelayNode(t, hub, "node")

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	defer cancel()
	n.relay.Start(ctx)
	n.server.Start(ctx)
	unittest.RequireComponentsReadyBefore(t, time.Second, n.relay, n.server)

	n.gossip.Terminate()
	unittest.RequireCloseBefore(t, n.relay.Done(), time.Second, "relay did not stop")
	assert.Equal(t, network.PollReady, n.gossip.Poll())

	body := mustMarshal(t, rest.Proof{
		AuthorityID:  unittest.AuthorityIDFixture().String(),
		EphemeralKey: hex.EncodeToString(make([]byte, 32)),
	})
	resp, err := http.Post(baseURL(t, n.server), "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(baseURL(t, n.server))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func mustMarshal(t *testing.T, v interface{}) string {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
