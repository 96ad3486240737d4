// Package p2p implements the gossip network on top of a libp2p host running
// the gossipsub router.
package p2p

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	libp2pnet "github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/onflow/proof-relay/module"
	"github.com/onflow/proof-relay/module/component"
	"github.com/onflow/proof-relay/module/irrecoverable"
	"github.com/onflow/proof-relay/module/mpsc"
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
)

// maximum backoff between two dial attempts to a bootstrap peer
const maxDialBackoff = 10 * time.Second

var _ network.GossipNetwork = (*Node)(nil)
var _ component.Component = (*Node)(nil)

// Node is a libp2p host running a gossipsub router. Gossip engines registered
// on the node exchange topic messages with the engines registered under the
// same engine identifier and protocol on other nodes.
//
// Node is a component: starting it dials the bootstrap peers and begins
// publishing, stopping it (by cancelling the start context or calling Stop)
// closes every subscription and the host.
type Node struct {
	*component.ComponentManager
	sync.Mutex

	log       zerolog.Logger
	cfg       Config
	ctx       context.Context // bounds the gossipsub router and the subscription pumps
	cancel    context.CancelFunc
	metrics   module.GossipNetworkMetrics
	host      host.Host
	pubSub    *pubsub.PubSub
	bootstrap []peer.AddrInfo

	engines   map[channels.Binding]*GossipEngine
	publishTx *mpsc.Sender[*publishRequest]
	publishRx *mpsc.Receiver[*publishRequest]
	pumps     sync.WaitGroup
	stopped   *atomic.Bool
}

type publishRequest struct {
	topic *pubsub.Topic
	name  string
	data  []byte
}

// NewNode creates the libp2p host and the gossipsub router. The router lives
// until ctx is cancelled or the node is stopped. The returned node must be
// started to connect to its bootstrap peers and to publish messages.
func NewNode(ctx context.Context, log zerolog.Logger, cfg Config, metrics module.GossipNetworkMetrics) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid p2p config: %w", err)
	}
	listenAddrs, err := cfg.listenAddrs()
	if err != nil {
		return nil, err
	}
	bootstrap, err := cfg.bootstrapPeers()
	if err != nil {
		return nil, err
	}

	var listen libp2p.Option = libp2p.NoListenAddrs
	if len(listenAddrs) > 0 {
		listen = libp2p.ListenAddrs(listenAddrs...)
	}
	h, err := libp2p.New(listen)
	if err != nil {
		return nil, fmt.Errorf("could not create libp2p host: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	ps, err := pubsub.NewGossipSub(ctx, h,
		// skip message signing
		pubsub.WithMessageSigning(false),
		// skip message signature
		pubsub.WithStrictSignatureVerification(false),
		// set max message size limit for 1-k PubSub messaging
		pubsub.WithMaxMessageSize(cfg.MaxMessageSize),
	)
	if err != nil {
		cancel()
		_ = h.Close()
		return nil, fmt.Errorf("could not create gossipsub router: %w", err)
	}

	publishTx, publishRx, err := mpsc.New[*publishRequest](mpsc.WithLengthObserver(metrics.PublishQueueLength))
	if err != nil {
		cancel()
		_ = h.Close()
		return nil, fmt.Errorf("could not create publish queue: %w", err)
	}

	n := &Node{
		log:       log.With().Str("component", "libp2p_node").Str("peer_id", h.ID().String()).Logger(),
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		metrics:   metrics,
		host:      h,
		pubSub:    ps,
		bootstrap: bootstrap,
		engines:   make(map[channels.Binding]*GossipEngine),
		publishTx: publishTx,
		publishRx: publishRx,
		stopped:   atomic.NewBool(false),
	}

	h.Network().Notify(&libp2pnet.NotifyBundle{
		ConnectedF:    n.onConnected,
		DisconnectedF: n.onDisconnected,
	})

	n.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(n.bootstrapWorker).
		AddWorker(n.publishWorker).
		Build()

	n.log.Debug().
		Strs("addresses", multiaddrStrings(h.Addrs())).
		Msg("libp2p node created")

	return n, nil
}

// ID returns the peer ID of the node.
func (n *Node) ID() peer.ID {
	return n.host.ID()
}

// Addrs returns the full multiaddrs other nodes can use to dial this node.
func (n *Node) Addrs() ([]multiaddr.Multiaddr, error) {
	return peer.AddrInfoToP2pAddrs(&peer.AddrInfo{
		ID:    n.host.ID(),
		Addrs: n.host.Addrs(),
	})
}

// RegisterGossip binds a new gossip engine to the engine identifier and
// protocol. The validator learns about peers that are already connected
// through NewPeer.
//
// Expected error returns during normal operations:
//   - ErrDuplicateRegistration if an engine is already bound the same way.
//   - ErrNetworkStopped if the node was stopped.
func (n *Node) RegisterGossip(engineID channels.EngineID, protocol channels.ProtocolName, validator network.Validator) (network.GossipEngine, error) {
	binding := channels.Binding{EngineID: engineID, Protocol: protocol}

	n.Lock()
	if n.stopped.Load() {
		n.Unlock()
		return nil, network.ErrNetworkStopped
	}
	if _, ok := n.engines[binding]; ok {
		n.Unlock()
		return nil, network.NewDuplicateRegistrationErr(binding)
	}
	e, err := newGossipEngine(n, binding, validator)
	if err != nil {
		n.Unlock()
		return nil, fmt.Errorf("could not create gossip engine for %s: %w", binding, err)
	}
	n.engines[binding] = e
	n.Unlock()

	for _, p := range n.host.Network().Peers() {
		validator.NewPeer(e, p)
	}

	n.log.Debug().Str("binding", binding.String()).Msg("gossip engine registered")
	return e, nil
}

// Stop unsubscribes from all topics, shuts the router down, closes the host
// and terminates every gossip engine. Stop is idempotent.
func (n *Node) Stop() error {
	if !n.stopped.CompareAndSwap(false, true) {
		return nil
	}

	var result error
	n.log.Debug().Msg("closing gossip engines")
	for _, e := range n.registeredEngines() {
		if err := e.close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	n.publishRx.Close()
	// the subscriptions of a router whose context is already done are never
	// closed, so the pumps are released through the node context
	n.cancel()

	n.log.Debug().Msg("stopping libp2p node")
	if err := n.host.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	n.pumps.Wait()
	return result
}

func (n *Node) registeredEngines() []*GossipEngine {
	n.Lock()
	defer n.Unlock()
	engines := make([]*GossipEngine, 0, len(n.engines))
	for _, e := range n.engines {
		engines = append(engines, e)
	}
	return engines
}

// bootstrapWorker connects to the bootstrap peers before reporting ready.
// Failing to reach a bootstrap peer is not fatal: the peer may still dial us.
func (n *Node) bootstrapWorker(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	if err := n.connectBootstrapPeers(ctx); err != nil {
		n.log.Warn().Err(err).Msg("could not connect to all bootstrap peers")
	}
	ready()
}

func (n *Node) connectBootstrapPeers(ctx context.Context) error {
	g := new(errgroup.Group)
	for _, info := range n.bootstrap {
		info := info
		g.Go(func() error {
			backoff := retry.NewExponential(n.cfg.DialRetryBase)
			backoff = retry.WithMaxRetries(n.cfg.DialMaxRetries, backoff)
			backoff = retry.WithCappedDuration(maxDialBackoff, backoff)
			backoff = retry.WithJitterPercent(10, backoff)

			err := retry.Do(ctx, backoff, func(ctx context.Context) error {
				if err := n.host.Connect(ctx, info); err != nil {
					n.log.Debug().Err(err).Str("remote_peer_id", info.ID.String()).Msg("failed to dial bootstrap peer")
					return retry.RetryableError(err)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("could not connect to bootstrap peer %s: %w", info.ID, err)
			}
			n.log.Info().Str("remote_peer_id", info.ID.String()).Msg("connected to bootstrap peer")
			return nil
		})
	}
	return g.Wait()
}

// publishWorker hands queued messages to the router. It stops the node when
// the component shuts down.
func (n *Node) publishWorker(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	defer func() {
		if err := n.Stop(); err != nil {
			n.log.Error().Err(err).Msg("error while stopping libp2p node")
		}
	}()

	for {
		req, err := n.publishRx.Recv(ctx)
		if err != nil {
			return
		}
		if err := req.topic.Publish(ctx, req.data); err != nil {
			if ctx.Err() != nil {
				return
			}
			n.log.Warn().Err(err).Str("topic", req.name).Msg("failed to publish gossip message")
		}
	}
}

func (n *Node) onConnected(net libp2pnet.Network, conn libp2pnet.Conn) {
	who := conn.RemotePeer()
	if len(net.ConnsToPeer(who)) > 1 {
		return
	}
	n.metrics.PeerConnected()
	n.log.Debug().Str("remote_peer_id", who.String()).Msg("peer connected")
	for _, e := range n.registeredEngines() {
		e.validator.NewPeer(e, who)
	}
}

func (n *Node) onDisconnected(net libp2pnet.Network, conn libp2pnet.Conn) {
	who := conn.RemotePeer()
	if net.Connectedness(who) == libp2pnet.Connected {
		return
	}
	n.metrics.PeerDisconnected()
	n.log.Debug().Str("remote_peer_id", who.String()).Msg("peer disconnected")
	for _, e := range n.registeredEngines() {
		e.validator.PeerDisconnected(e, who)
	}
}

func multiaddrStrings(addrs []multiaddr.Multiaddr) []string {
	s := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		s = append(s, addr.String())
	}
	return s
}
