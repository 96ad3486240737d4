package stub

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/atomic"

	"github.com/onflow/proof-relay/engine"
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
)

var _ network.GossipNetwork = (*Network)(nil)

// Network is an in-memory gossip network made for testing engines that gossip.
// Messages published by an engine are delivered synchronously to the engines
// registered under the same binding on every other network of the hub, after
// passing their validators.
type Network struct {
	hub *Hub
	id  peer.ID

	mu      sync.RWMutex
	engines map[channels.Binding]*GossipEngine
}

// ID returns the peer ID of the network.
func (n *Network) ID() peer.ID {
	return n.id
}

// RegisterGossip binds a new gossip engine to the engine identifier and
// protocol. The validators of the new engine and of the engines already bound
// on other networks learn about each other through NewPeer.
func (n *Network) RegisterGossip(engineID channels.EngineID, protocol channels.ProtocolName, validator network.Validator) (network.GossipEngine, error) {
	binding := channels.Binding{EngineID: engineID, Protocol: protocol}

	n.mu.Lock()
	if _, ok := n.engines[binding]; ok {
		n.mu.Unlock()
		return nil, network.NewDuplicateRegistrationErr(binding)
	}
	e := &GossipEngine{
		net:        n,
		binding:    binding,
		validator:  validator,
		sinks:      make(map[channels.Topic][]*subscriptionSink),
		terminated: atomic.NewBool(false),
		wake:       engine.NewNotifier(),
	}
	n.engines[binding] = e
	n.mu.Unlock()

	for _, other := range n.hub.peerEngines(n.id, binding) {
		other.validator.NewPeer(other, n.id)
		validator.NewPeer(e, other.net.id)
	}
	return e, nil
}

// Engine returns the gossip engine bound to the engine identifier and protocol.
func (n *Network) Engine(engineID channels.EngineID, protocol channels.ProtocolName) (*GossipEngine, bool) {
	return n.engine(channels.Binding{EngineID: engineID, Protocol: protocol})
}

func (n *Network) engine(binding channels.Binding) (*GossipEngine, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	e, ok := n.engines[binding]
	return e, ok
}
