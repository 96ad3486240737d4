package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/onflow/proof-relay/engine/sassafras/bridge"
	"github.com/onflow/proof-relay/engine/sassafras/rest"
	"github.com/onflow/proof-relay/model/hash"
	"github.com/onflow/proof-relay/module/component"
	"github.com/onflow/proof-relay/module/irrecoverable"
	"github.com/onflow/proof-relay/module/metrics"
	"github.com/onflow/proof-relay/module/util"
	"github.com/onflow/proof-relay/network/p2p"
)

var _ component.Component = (*RelayNode)(nil)

// newNetwork creates the libp2p node of a relay node.
var newNetwork = p2p.NewNode

// RelayNode wires the libp2p node, the proof relay and its HTTP surfaces into
// a single component. Its children are started in dependency order and stop
// when the node's context is cancelled.
type RelayNode struct {
	*component.ComponentManager
	log zerolog.Logger

	Network *p2p.Node
	Relay   *bridge.Engine
	API     *rest.Server
	Metrics *metrics.Server // nil when the metrics server is disabled
}

// NewRelayNode builds all components of a node. ctx bounds the lifetime of
// the gossipsub router.
func NewRelayNode(ctx context.Context, log zerolog.Logger, cfg Config) (*RelayNode, error) {
	hasher, err := hash.FromName(cfg.Hashing)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	relayMetrics := metrics.NewProofRelayCollector(registry)
	gossipMetrics := metrics.NewGossipCollector(registry)
	restMetrics := metrics.NewRestCollector(registry)

	local, err := bridge.NewLocalChannels(cfg.BridgeConfig(), relayMetrics)
	if err != nil {
		return nil, err
	}

	net, err := newNetwork(ctx, log, cfg.P2PConfig(), gossipMetrics)
	if err != nil {
		return nil, fmt.Errorf("could not create libp2p node: %w", err)
	}

	relay, err := bridge.New(log, relayMetrics, net, hasher,
		local.OutboundReceiver, local.InboundSender,
		bridge.WithTopicName(cfg.TopicName))
	if err != nil {
		// the node was never started, so it is not stopped by its workers
		if stopErr := net.Stop(); stopErr != nil {
			log.Warn().Err(stopErr).Msg("could not stop libp2p node")
		}
		return nil, fmt.Errorf("could not create proof relay: %w", err)
	}

	handler := rest.NewAPIHandler(log, relayMetrics, local.OutboundSender, local.InboundReceiver)

	node := &RelayNode{
		log:     log,
		Network: net,
		Relay:   relay,
		API:     rest.NewServer(log, cfg.RestAddr, handler,
			rest.WithRateLimit(cfg.RestRateLimit, cfg.RestBurst),
			rest.WithRestMetrics(restMetrics)),
	}
	if cfg.MetricsPort != 0 {
		node.Metrics = metrics.NewServer(log, cfg.MetricsPort, registry, cfg.ProfilerEnabled)
	}

	builder := component.NewComponentManagerBuilder().
		AddWorker(node.runChildren)
	node.ComponentManager = builder.Build()
	return node, nil
}

// runChildren starts the network before the relay, and the relay before the
// surfaces that feed it.
func (n *RelayNode) runChildren(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	children := []component.Component{n.Network, n.Relay, n.API}
	if n.Metrics != nil {
		children = append(children, n.Metrics)
	}

	started := 0
	for _, child := range children {
		child.Start(ctx)
		started++
		if err := util.WaitReady(ctx, child.Ready()); err != nil {
			break
		}
	}
	if started == len(children) && !util.CheckClosed(ctx.Done()) {
		ready()
		n.log.Info().Str("peer_id", n.Network.ID().String()).Msg("proof relay node startup complete")
	}

	for _, child := range children[:started] {
		<-child.Done()
	}
}
