package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onflow/proof-relay/module"
)

type ProofRelayCollector struct {
	inboundReceived      prometheus.Counter
	inboundReceivedBytes prometheus.Counter
	inboundDelivered     prometheus.Counter
	inboundDropped       *prometheus.CounterVec
	outboundPublished    prometheus.Counter
	outboundBytes        prometheus.Counter
	outboundDropped      *prometheus.CounterVec
	queueLength          *prometheus.GaugeVec
}

var _ module.ProofRelayMetrics = (*ProofRelayCollector)(nil)

// NewProofRelayCollector creates the relay collector and registers its metrics
// with registerer.
func NewProofRelayCollector(registerer prometheus.Registerer) *ProofRelayCollector {
	factory := promauto.With(registerer)

	return &ProofRelayCollector{
		inboundReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemProofRelay,
			Name:      "inbound_proofs_received_total",
			Help:      "the number of notifications taken from the proof topic",
		}),

		inboundReceivedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemProofRelay,
			Name:      "inbound_proofs_received_bytes_total",
			Help:      "the size of notifications taken from the proof topic",
		}),

		inboundDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemProofRelay,
			Name:      "inbound_proofs_delivered_total",
			Help:      "the number of decoded proofs handed to the local consumer",
		}),

		inboundDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemProofRelay,
			Name:      "inbound_proofs_dropped_total",
			Help:      "the number of inbound notifications discarded by the relay",
		}, []string{LabelReason}),

		outboundPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemProofRelay,
			Name:      "outbound_proofs_published_total",
			Help:      "the number of local proofs published on the proof topic",
		}),

		outboundBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemProofRelay,
			Name:      "outbound_proofs_published_bytes_total",
			Help:      "the size of local proofs published on the proof topic",
		}),

		outboundDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemProofRelay,
			Name:      "outbound_proofs_dropped_total",
			Help:      "the number of local proofs the relay could not publish",
		}, []string{LabelReason}),

		queueLength: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespaceNetwork,
			Subsystem: subsystemProofRelay,
			Name:      "queue_length",
			Help:      "the number of proofs buffered in the relay's local queues",
		}, []string{LabelQueue}),
	}
}

func (c *ProofRelayCollector) InboundProofReceived(sizeBytes int) {
	c.inboundReceived.Inc()
	c.inboundReceivedBytes.Add(float64(sizeBytes))
}

func (c *ProofRelayCollector) InboundProofDelivered() {
	c.inboundDelivered.Inc()
}

func (c *ProofRelayCollector) InboundProofDropped(reason string) {
	c.inboundDropped.WithLabelValues(reason).Inc()
}

func (c *ProofRelayCollector) OutboundProofPublished(sizeBytes int) {
	c.outboundPublished.Inc()
	c.outboundBytes.Add(float64(sizeBytes))
}

func (c *ProofRelayCollector) OutboundProofDropped(reason string) {
	c.outboundDropped.WithLabelValues(reason).Inc()
}

func (c *ProofRelayCollector) QueueLength(queue string, length int) {
	c.queueLength.WithLabelValues(queue).Set(float64(length))
}
