package stub

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/onflow/proof-relay/network/channels"
)

// Hub connects in-memory networks with each other. Every network plugged into
// the hub is directly connected to every other one.
type Hub struct {
	mu       sync.RWMutex
	networks map[peer.ID]*Network
}

// NewHub returns a hub without networks.
func NewHub() *Hub {
	return &Hub{
		networks: make(map[peer.ID]*Network),
	}
}

// NewNetwork creates the in-memory network of the given peer and plugs it into
// the hub. A network previously plugged under the same ID is replaced.
func (h *Hub) NewNetwork(id peer.ID) *Network {
	net := &Network{
		hub:     h,
		id:      id,
		engines: make(map[channels.Binding]*GossipEngine),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.networks[id] = net
	return net
}

// GetNetwork returns the network of the given peer.
func (h *Hub) GetNetwork(id peer.ID) (*Network, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	net, ok := h.networks[id]
	return net, ok
}

// peerEngines returns the live engines bound to binding on every network but
// the one of the given peer.
func (h *Hub) peerEngines(self peer.ID, binding channels.Binding) []*GossipEngine {
	h.mu.RLock()
	networks := make([]*Network, 0, len(h.networks))
	for id, net := range h.networks {
		if id != self {
			networks = append(networks, net)
		}
	}
	h.mu.RUnlock()

	engines := make([]*GossipEngine, 0, len(networks))
	for _, net := range networks {
		e, ok := net.engine(binding)
		if ok && !e.terminated.Load() {
			engines = append(engines, e)
		}
	}
	return engines
}
