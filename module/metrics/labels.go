package metrics

const (
	LabelTopic  = "topic"
	LabelReason = "reason"
	LabelQueue  = "queue"
	LabelAction = "action"
	LabelForce  = "force"
	LabelMethod = "method"
	LabelRoute  = "route"
)

const (
	// reasons for dropping a proof
	DropReasonDecodeError   = "decode_error"
	DropReasonEncodeError   = "encode_error"
	DropReasonChannelClosed = "channel_closed"
	DropReasonChannelFull   = "channel_full"
	DropReasonNotAddressed  = "not_addressed"
)

const (
	QueueOutboundProofs = "outbound_proofs"
	QueueInboundProofs  = "inbound_proofs"
	QueueGossipPublish  = "gossip_publish"
)
