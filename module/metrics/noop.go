package metrics

import (
	"context"
	"time"

	httpmetrics "github.com/slok/go-http-metrics/metrics"

	"github.com/onflow/proof-relay/module"
)

type NoopCollector struct{}

var _ module.ProofRelayMetrics = (*NoopCollector)(nil)
var _ module.GossipNetworkMetrics = (*NoopCollector)(nil)
var _ module.RestMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) InboundProofReceived(sizeBytes int) {}
func (nc *NoopCollector) InboundProofDelivered() {}
func (nc *NoopCollector) InboundProofDropped(reason string) {}
func (nc *NoopCollector) OutboundProofPublished(sizeBytes int) {}
func (nc *NoopCollector) OutboundProofDropped(reason string) {}
func (nc *NoopCollector) QueueLength(queue string, length int) {}
func (nc *NoopCollector) PeerConnected() {}
func (nc *NoopCollector) PeerDisconnected() {}
func (nc *NoopCollector) GossipMessagePublished(topic string, sizeBytes int, force bool) {}
func (nc *NoopCollector) GossipMessageSkipped(topic string) {}
func (nc *NoopCollector) GossipMessageValidated(topic string, action string) {}
func (nc *NoopCollector) PublishQueueLength(length int) {}
func (nc *NoopCollector) ObserveHTTPRequestDuration(context.Context, httpmetrics.HTTPReqProperties, time.Duration) {
}
func (nc *NoopCollector) ObserveHTTPResponseSize(context.Context, httpmetrics.HTTPReqProperties, int64) {
}
func (nc *NoopCollector) AddInflightRequests(context.Context, httpmetrics.HTTPProperties, int) {}
func (nc *NoopCollector) AddTotalRequests(context.Context, string, string)                   {}
