package bridge

import (
	"fmt"

	"github.com/onflow/proof-relay/model/proof"
	"github.com/onflow/proof-relay/module"
	"github.com/onflow/proof-relay/module/metrics"
	"github.com/onflow/proof-relay/module/mpsc"
	"github.com/onflow/proof-relay/network/channels"
)

// Config is the configuration of the proof relay and its local channels.
type Config struct {
	// OutboundCapacity bounds the queue of locally produced proofs. Zero means unbounded.
	OutboundCapacity int
	// InboundCapacity bounds the queue of received proofs. Zero means unbounded.
	InboundCapacity int
	// TopicName is hashed to derive the proof topic.
	TopicName string
}

// DefaultConfig returns the configuration of a relay on the global proof topic
// with unbounded local channels.
func DefaultConfig() Config {
	return Config{
		OutboundCapacity: mpsc.Unbounded,
		InboundCapacity:  mpsc.Unbounded,
		TopicName:        channels.GlobalProofTopicName,
	}
}

// LocalChannels holds both ends of the relay's two local channels.
type LocalChannels struct {
	// OutboundSender is used by local producers to submit proofs for gossiping.
	OutboundSender *mpsc.Sender[*proof.Message]
	// OutboundReceiver is owned by the relay.
	OutboundReceiver *mpsc.Receiver[*proof.Message]
	// InboundSender is owned by the relay.
	InboundSender *mpsc.Sender[*proof.Message]
	// InboundReceiver is used by the local consumer to take received proofs.
	InboundReceiver *mpsc.Receiver[*proof.Message]
}

// NewLocalChannels creates the relay's local channels with the configured
// capacities, reporting their lengths to collector.
func NewLocalChannels(cfg Config, collector module.ProofRelayMetrics) (*LocalChannels, error) {
	outTx, outRx, err := mpsc.New[*proof.Message](
		mpsc.WithCapacity(cfg.OutboundCapacity),
		mpsc.WithLengthObserver(func(length int) {
			collector.QueueLength(metrics.QueueOutboundProofs, length)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create outbound proof channel: %w", err)
	}

	inTx, inRx, err := mpsc.New[*proof.Message](
		mpsc.WithCapacity(cfg.InboundCapacity),
		mpsc.WithLengthObserver(func(length int) {
			collector.QueueLength(metrics.QueueInboundProofs, length)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create inbound proof channel: %w", err)
	}

	return &LocalChannels{
		OutboundSender:   outTx,
		OutboundReceiver: outRx,
		InboundSender:    inTx,
		InboundReceiver:  inRx,
	}, nil
}
