package proof

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// AuthorityIDLen is the length of an sr25519 public key.
const AuthorityIDLen = 32

// EphemeralKeyLen is the length of the per-message ephemeral key.
const EphemeralKeyLen = 32

// AuthorityID identifies a participant of the consensus protocol. It is the
// participant's sr25519 public key.
type AuthorityID [AuthorityIDLen]byte

func (a AuthorityID) String() string {
	return hex.EncodeToString(a[:])
}

// HexStringToAuthorityID parses a hex encoded authority ID.
func HexStringToAuthorityID(hexString string) (AuthorityID, error) {
	var id AuthorityID
	b, err := hex.DecodeString(hexString)
	if err != nil {
		return id, fmt.Errorf("malformed authority id: %w", err)
	}
	if len(b) != AuthorityIDLen {
		return id, fmt.Errorf("malformed authority id length: %d (expected %d)", len(b), AuthorityIDLen)
	}
	copy(id[:], b)
	return id, nil
}

// Message is a ticket proof addressed to a single authority. The payload is
// encrypted for the authority using the ephemeral key; the relay treats it as
// an opaque blob.
type Message struct {
	// The authority the proof is addressed to.
	AuthorityID AuthorityID
	// Ephemeral public key used for the key agreement.
	EphemeralKey [EphemeralKeyLen]byte
	// The encrypted ticket proof.
	EncryptedPayload []byte
}

// Equal reports whether two messages carry the same triple. A nil payload
// equals an empty one.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.AuthorityID == other.AuthorityID &&
		m.EphemeralKey == other.EphemeralKey &&
		bytes.Equal(m.EncryptedPayload, other.EncryptedPayload)
}

func (m *Message) String() string {
	return fmt.Sprintf("proof(authority=%s, key=%x, payload=%d bytes)", m.AuthorityID, m.EphemeralKey[:], len(m.EncryptedPayload))
}
