package channels

import (
	"encoding/hex"
	"fmt"
)

// EngineIDLen is the length of a consensus engine identifier.
const EngineIDLen = 4

// EngineID identifies the consensus engine a gossip binding belongs to. The
// transport routes topic traffic of a binding only to engines with the same
// identifier.
type EngineID [EngineIDLen]byte

func (e EngineID) String() string {
	return string(e[:])
}

// Hex returns the hex encoding of the identifier.
func (e EngineID) Hex() string {
	return hex.EncodeToString(e[:])
}

// ProtocolName is the versioned name of the notification protocol a gossip
// binding runs on.
type ProtocolName string

func (p ProtocolName) String() string {
	return string(p)
}

const (
	// SassafrasProtocolName is the notification protocol carrying ticket proofs.
	SassafrasProtocolName = ProtocolName("/paritytech/sassafras/1")
)

// SassafrasEngineID is the engine identifier of the Sassafras consensus engine.
var SassafrasEngineID = EngineID{'S', 'A', 'S', 'S'}

// Binding is the (engine, protocol) pair a gossip engine is registered under.
type Binding struct {
	EngineID EngineID
	Protocol ProtocolName
}

func (b Binding) String() string {
	return fmt.Sprintf("%s@%s", b.EngineID, b.Protocol)
}
