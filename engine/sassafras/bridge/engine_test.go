package bridge

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"pgregory.net/rapid"

	"github.com/onflow/proof-relay/model/hash"
	"github.com/onflow/proof-relay/model/proof"
	"github.com/onflow/proof-relay/module/irrecoverable"
	"github.com/onflow/proof-relay/module/metrics"
	"github.com/onflow/proof-relay/module/mpsc"
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
	"github.com/onflow/proof-relay/network/mocknetwork"
	"github.com/onflow/proof-relay/network/validator"
	"github.com/onflow/proof-relay/utils/unittest"
)

func TestProofRelay(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

// relayFixture runs the relay against a mocked gossip engine. Notifications are
// fed through a real subscription channel.
type relayFixture struct {
	suite.Suite

	net    *mocknetwork.GossipNetwork
	gossip *mocknetwork.GossipEngine
	topic  channels.Topic
	wake   chan struct{}

	notifications *mpsc.Sender[*network.TopicNotification]
	local         *LocalChannels

	engine *Engine
}

type RelaySuite struct {
	relayFixture
}

func (s *RelaySuite) SetupTest() {
	s.setup(DefaultConfig())
}

func (s *relayFixture) setup(cfg Config) {
	s.topic = channels.GlobalProofTopic(hash.DefaultHasher)
	s.net = mocknetwork.NewGossipNetwork(s.T())
	s.gossip = mocknetwork.NewGossipEngine(s.T())
	s.wake = make(chan struct{}, 1)

	var subscription *mpsc.Receiver[*network.TopicNotification]
	var err error
	s.notifications, subscription, err = mpsc.New[*network.TopicNotification]()
	require.NoError(s.T(), err)

	s.local, err = NewLocalChannels(cfg, metrics.NewNoopCollector())
	require.NoError(s.T(), err)

	s.net.On("RegisterGossip",
		channels.SassafrasEngineID,
		channels.SassafrasProtocolName,
		validator.NewGlobalTopicValidator(s.topic),
	).Return(s.gossip, nil).Once()
	s.gossip.On("MessagesFor", s.topic).Return(subscription).Once()
	s.gossip.On("Wake").Return((<-chan struct{})(s.wake)).Maybe()

	s.engine, err = New(
		unittest.Logger(),
		metrics.NewNoopCollector(),
		s.net,
		hash.DefaultHasher,
		s.local.OutboundReceiver,
		s.local.InboundSender,
	)
	require.NoError(s.T(), err)
	require.Equal(s.T(), s.topic, s.engine.Topic())
}

func (s *relayFixture) deliver(data []byte) {
	err := s.notifications.TrySend(&network.TopicNotification{Sender: "remote", Message: data})
	require.NoError(s.T(), err)
}

func (s *relayFixture) received() []*proof.Message {
	var received []*proof.Message
	for {
		msg, ok := s.local.InboundReceiver.TryNext()
		if !ok {
			return received
		}
		received = append(received, msg)
	}
}

// TestPoll_Idle checks that polling a relay without work publishes nothing.
func (s *RelaySuite) TestPoll_Idle() {
	s.gossip.On("Poll").Return(network.PollPending).Once()

	s.Require().Equal(network.PollPending, s.engine.Poll())
	s.gossip.AssertNotCalled(s.T(), "GossipMessage", mock.Anything, mock.Anything, mock.Anything)
	s.Require().Empty(s.received())
}

// TestOutbound_Publish checks that a local proof is gossiped on the global topic with
// its canonical encoding and without forced rebroadcast.
func (s *RelaySuite) TestOutbound_Publish() {
	msg := &proof.Message{
		AuthorityID:      unittest.AuthorityIDFixtureFromByte(7),
		EncryptedPayload: []byte{1, 2, 3},
	}
	expected := append(bytes.Repeat([]byte{7}, 32), make([]byte, 32)...)
	expected = append(expected, 0x0c, 1, 2, 3)

	s.gossip.On("GossipMessage", channels.Topic(hash.DefaultHasher.Hash([]byte("SASSAFRAS-PROOF-GLOBAL"))), expected, false).Once()
	s.gossip.On("Poll").Return(network.PollPending).Once()

	s.Require().NoError(s.local.OutboundSender.TrySend(msg))
	s.Require().Equal(network.PollPending, s.engine.Poll())
}

// TestOutbound_DrainAll checks that N available local proofs result in exactly N
// publish calls in one step, in order, all on the same topic without force.
func (s *RelaySuite) TestOutbound_DrainAll() {
	proofs := unittest.ProofListFixture(25)
	var published [][]byte
	s.gossip.On("GossipMessage", s.topic, mock.Anything, false).
		Run(func(args mock.Arguments) {
			published = append(published, args.Get(1).([]byte))
		}).
		Times(len(proofs))
	s.gossip.On("Poll").Return(network.PollPending).Once()

	for _, p := range proofs {
		s.Require().NoError(s.local.OutboundSender.TrySend(p))
	}
	s.Require().Equal(network.PollPending, s.engine.Poll())

	s.Require().Len(published, len(proofs))
	for i, data := range published {
		decoded, err := proof.Decode(data)
		s.Require().NoError(err)
		s.Require().True(proofs[i].Equal(decoded))
	}
	s.Require().Equal(0, s.local.OutboundReceiver.Len())
}

// TestInbound_Deliver checks that a well formed notification is decoded and handed to
// the local consumer unchanged.
func (s *RelaySuite) TestInbound_Deliver() {
	msg := &proof.Message{AuthorityID: unittest.AuthorityIDFixtureFromByte(9)}
	copy(msg.EphemeralKey[:], bytes.Repeat([]byte{0xff}, 32))
	s.gossip.On("Poll").Return(network.PollPending).Once()

	s.deliver(unittest.EncodedProofFixture(s.T(), msg))
	s.Require().Equal(network.PollPending, s.engine.Poll())

	received := s.received()
	s.Require().Len(received, 1)
	s.Require().True(msg.Equal(received[0]))
	s.Require().Equal([]byte{}, received[0].EncryptedPayload)
}

// TestInbound_Garbage checks that undecodable notifications are dropped without
// ending the relay.
func (s *RelaySuite) TestInbound_Garbage() {
	s.gossip.On("Poll").Return(network.PollPending).Twice()

	s.deliver([]byte{0xde, 0xad, 0xbf})
	s.Require().Equal(network.PollPending, s.engine.Poll())
	s.Require().Empty(s.received())

	// the relay keeps working after the garbage
	valid := unittest.ProofFixture()
	s.deliver(unittest.EncodedProofFixture(s.T(), valid))
	s.Require().Equal(network.PollPending, s.engine.Poll())
	received := s.received()
	s.Require().Len(received, 1)
	s.Require().True(valid.Equal(received[0]))
}

// TestInbound_InvalidNeverDelivered checks for arbitrary buffers that do not decode
// that nothing reaches the local consumer.
func (s *RelaySuite) TestInbound_InvalidNeverDelivered() {
	s.gossip.On("Poll").Return(network.PollPending)

	rapid.Check(s.T(), func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 200).Draw(t, "data")
		if _, err := proof.Decode(data); err == nil {
			t.Skip("valid encoding")
		}
		s.deliver(data)
		s.engine.Poll()
		if n := len(s.received()); n != 0 {
			t.Fatalf("invalid buffer delivered %d proofs", n)
		}
	})
}

// TestRoundTrip checks for arbitrary proofs that the published bytes decode to the
// submitted proof.
func (s *RelaySuite) TestRoundTrip() {
	var published []byte
	s.gossip.On("GossipMessage", s.topic, mock.Anything, false).
		Run(func(args mock.Arguments) {
			published = args.Get(1).([]byte)
		})
	s.gossip.On("Poll").Return(network.PollPending)

	rapid.Check(s.T(), func(t *rapid.T) {
		msg := &proof.Message{
			EncryptedPayload: rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(t, "payload"),
		}
		copy(msg.AuthorityID[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "authority"))
		copy(msg.EphemeralKey[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "key"))

		published = nil
		if err := s.local.OutboundSender.TrySend(msg); err != nil {
			t.Fatalf("could not submit proof: %v", err)
		}
		s.engine.Poll()

		decoded, err := proof.Decode(published)
		if err != nil {
			t.Fatalf("published bytes do not decode: %v", err)
		}
		if !msg.Equal(decoded) {
			t.Fatalf("round trip mismatch: %v != %v", msg, decoded)
		}
	})
}

// TestInbound_ConsumerClosed checks that a proof for a consumer that went away is
// dropped without blocking or ending the relay.
func (s *RelaySuite) TestInbound_ConsumerClosed() {
	s.gossip.On("Poll").Return(network.PollPending).Once()
	s.local.InboundReceiver.Close()

	s.deliver(unittest.EncodedProofFixture(s.T(), unittest.ProofFixture()))
	unittest.RequireReturnsBefore(s.T(), func() {
		s.Require().Equal(network.PollPending, s.engine.Poll())
	}, time.Second, "poll blocked on closed consumer")
}

// TestInbound_BeforeOutbound checks that within one step the available inbound
// notifications are handled before the available local proofs.
func (s *RelaySuite) TestInbound_BeforeOutbound() {
	inbound := unittest.ProofListFixture(3)
	for _, p := range inbound {
		s.deliver(unittest.EncodedProofFixture(s.T(), p))
	}
	s.Require().NoError(s.local.OutboundSender.TrySend(unittest.ProofFixture()))

	s.gossip.On("GossipMessage", s.topic, mock.Anything, false).
		Run(func(mock.Arguments) {
			s.Require().Equal(len(inbound), s.local.InboundReceiver.Len())
		}).
		Once()
	s.gossip.On("Poll").Return(network.PollPending).Once()

	s.engine.Poll()
	received := s.received()
	s.Require().Len(received, len(inbound))
	for i := range inbound {
		s.Require().True(inbound[i].Equal(received[i]))
	}
}

// TestSubscriptionClosed checks that a subscription closed by the transport is
// treated as drained.
func (s *RelaySuite) TestSubscriptionClosed() {
	s.gossip.On("Poll").Return(network.PollPending).Once()
	s.notifications.Close()
	s.Require().Equal(network.PollPending, s.engine.Poll())
}

// TestTransportTerminated checks that the relay completes when the gossip engine
// does, and closes both local channels.
func (s *RelaySuite) TestTransportTerminated() {
	s.gossip.On("Poll").Return(network.PollReady).Once()

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(s.T(), context.Background())
	defer cancel()
	s.engine.Start(ctx)

	unittest.RequireCloseBefore(s.T(), s.engine.Done(), time.Second, "relay did not stop with the transport")
	_, err := s.local.InboundReceiver.TryRecv()
	s.Require().ErrorIs(err, mpsc.ErrClosed)
	s.Require().ErrorIs(s.local.OutboundSender.TrySend(unittest.ProofFixture()), mpsc.ErrClosed)
}

// TestWorker_RelaysAndStops checks that the worker relays proofs as they arrive and
// closes both local channels when the component is shut down.
func (s *RelaySuite) TestWorker_RelaysAndStops() {
	published := make(chan []byte, 1)
	s.gossip.On("GossipMessage", s.topic, mock.Anything, false).
		Run(func(args mock.Arguments) {
			published <- args.Get(1).([]byte)
		}).
		Once()
	s.gossip.On("Poll").Return(network.PollPending)

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(s.T(), context.Background())
	s.engine.Start(ctx)
	unittest.RequireCloseBefore(s.T(), s.engine.Ready(), time.Second, "relay not ready")

	// outbound
	msg := unittest.ProofFixture()
	s.Require().NoError(s.local.OutboundSender.TrySend(msg))
	select {
	case data := <-published:
		decoded, err := proof.Decode(data)
		s.Require().NoError(err)
		s.Require().True(msg.Equal(decoded))
	case <-time.After(time.Second):
		s.T().Fatal("local proof was not published")
	}

	// inbound
	remote := unittest.ProofFixture()
	s.deliver(unittest.EncodedProofFixture(s.T(), remote))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	received, err := s.local.InboundReceiver.Recv(waitCtx)
	s.Require().NoError(err)
	s.Require().True(remote.Equal(received))

	cancel()
	unittest.RequireCloseBefore(s.T(), s.engine.Done(), time.Second, "relay did not shut down")
	s.Require().True(s.local.OutboundSender.IsClosed())
	_, err = s.local.InboundReceiver.TryRecv()
	s.Require().ErrorIs(err, mpsc.ErrClosed)
}

func TestBoundedInbound(t *testing.T) {
	suite.Run(t, new(BoundedInboundSuite))
}

// BoundedInboundSuite runs the relay with a bounded inbound channel.
type BoundedInboundSuite struct {
	relayFixture
}

func (s *BoundedInboundSuite) SetupTest() {
	cfg := DefaultConfig()
	cfg.InboundCapacity = 2
	s.setup(cfg)
}

// TestInbound_Full checks that proofs arriving at a full inbound channel are
// dropped without blocking.
func (s *BoundedInboundSuite) TestInbound_Full() {
	s.gossip.On("Poll").Return(network.PollPending).Once()
	proofs := unittest.ProofListFixture(5)
	for _, p := range proofs {
		s.deliver(unittest.EncodedProofFixture(s.T(), p))
	}

	unittest.RequireReturnsBefore(s.T(), func() {
		s.engine.Poll()
	}, time.Second, "poll blocked on full consumer")

	received := s.received()
	s.Require().Len(received, 2)
	s.Require().True(proofs[0].Equal(received[0]))
	s.Require().True(proofs[1].Equal(received[1]))
}

// TestNew_RegistrationFailure checks that a registration error is returned from
// the constructor.
func TestNew_RegistrationFailure(t *testing.T) {
	net := mocknetwork.NewGossipNetwork(t)
	net.On("RegisterGossip", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("taken")).Once()
	local, err := NewLocalChannels(DefaultConfig(), metrics.NewNoopCollector())
	require.NoError(t, err)

	_, err = New(unittest.Logger(), metrics.NewNoopCollector(), net, hash.DefaultHasher, local.OutboundReceiver, local.InboundSender)
	require.Error(t, err)
}

func TestNew_MissingChannels(t *testing.T) {
	net := mocknetwork.NewGossipNetwork(t)
	_, err := New(unittest.Logger(), metrics.NewNoopCollector(), net, hash.DefaultHasher, nil, nil)
	require.Error(t, err)
}

// TestNew_TopicName checks that the topic is derived from a configured name.
func TestNew_TopicName(t *testing.T) {
	topic := channels.TopicFromName(hash.Keccak256{}, "SASSAFRAS-PROOF-TEST")
	net := mocknetwork.NewGossipNetwork(t)
	gossip := mocknetwork.NewGossipEngine(t)
	net.On("RegisterGossip", channels.SassafrasEngineID, channels.SassafrasProtocolName, validator.NewGlobalTopicValidator(topic)).
		Return(gossip, nil).Once()
	_, rx, err := mpsc.New[*network.TopicNotification]()
	require.NoError(t, err)
	gossip.On("MessagesFor", topic).Return(rx).Once()

	local, err := NewLocalChannels(DefaultConfig(), metrics.NewNoopCollector())
	require.NoError(t, err)
	e, err := New(unittest.Logger(), metrics.NewNoopCollector(), net, hash.Keccak256{}, local.OutboundReceiver, local.InboundSender,
		WithTopicName("SASSAFRAS-PROOF-TEST"))
	require.NoError(t, err)
	require.Equal(t, topic, e.Topic())

	_, err = New(unittest.Logger(), metrics.NewNoopCollector(), net, hash.Keccak256{}, local.OutboundReceiver, local.InboundSender,
		WithTopicName(""))
	require.Error(t, err)
}
