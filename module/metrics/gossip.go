package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onflow/proof-relay/module"
)

type GossipCollector struct {
	connectedPeers prometheus.Gauge
	published      *prometheus.CounterVec
	publishedBytes *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	validated      *prometheus.CounterVec
	queueLength    *prometheus.GaugeVec
}

var _ module.GossipNetworkMetrics = (*GossipCollector)(nil)

func NewGossipCollector(registerer prometheus.Registerer) *GossipCollector {
	factory := promauto.With(registerer)

	return &GossipCollector{
		connectedPeers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Name:      "connected_peers",
			Help:      "the number of connected peers",
		}),

		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Name:      "messages_published_total",
			Help:      "the number of messages handed to the gossip router",
		}, []string{LabelTopic, LabelForce}),

		publishedBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Name:      "messages_published_bytes_total",
			Help:      "the size of messages handed to the gossip router",
		}, []string{LabelTopic}),

		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Name:      "known_messages_skipped_total",
			Help:      "the number of messages not republished because they were already known",
		}, []string{LabelTopic}),

		validated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Name:      "messages_validated_total",
			Help:      "the number of received messages by validation decision",
		}, []string{LabelTopic, LabelAction}),

		queueLength: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Name:      "queue_length",
			Help:      "the number of messages waiting to be handed to the gossip router",
		}, []string{LabelQueue}),
	}
}

func (c *GossipCollector) PeerConnected() {
	c.connectedPeers.Inc()
}

func (c *GossipCollector) PeerDisconnected() {
	c.connectedPeers.Dec()
}

func (c *GossipCollector) GossipMessagePublished(topic string, sizeBytes int, force bool) {
	c.published.WithLabelValues(topic, strconv.FormatBool(force)).Inc()
	c.publishedBytes.WithLabelValues(topic).Add(float64(sizeBytes))
}

func (c *GossipCollector) GossipMessageSkipped(topic string) {
	c.skipped.WithLabelValues(topic).Inc()
}

func (c *GossipCollector) GossipMessageValidated(topic string, action string) {
	c.validated.WithLabelValues(topic, action).Inc()
}

func (c *GossipCollector) PublishQueueLength(length int) {
	c.queueLength.WithLabelValues(QueueGossipPublish).Set(float64(length))
}
