package metrics

// Prometheus metric namespaces
const (
	namespaceNetwork = "network"
	namespaceRestAPI = "proof_rest_api"
)

// Network subsystems represent the various layers of networking.
const (
	subsystemGossip     = "gossip"
	subsystemProofRelay = "sassafras_proof_relay"
)
