package hash

import (
	"encoding/hex"
	"fmt"
)

// HashLen is the length in bytes of every digest produced by a Hasher.
const HashLen = 32

// Hash is the digest of a block hashing function. Topics on the gossip
// network are hashes of well-known byte strings.
type Hash [HashLen]byte

// ZeroHash is the all-zero digest.
var ZeroHash = Hash{}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HexStringToHash converts a hex string to a Hash. The string must encode
// exactly HashLen bytes.
func HexStringToHash(hexString string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(hexString)
	if err != nil {
		return h, fmt.Errorf("malformed hex string: %w", err)
	}
	if len(b) != HashLen {
		return h, fmt.Errorf("malformed hash length: %d (expected %d)", len(b), HashLen)
	}
	copy(h[:], b)
	return h, nil
}

// Hasher is the hashing function of the host chain's block header type.
// Implementations are stateless and safe for concurrent use.
type Hasher interface {
	// Name returns the canonical name of the hashing function.
	Name() string
	// Hash computes the digest of data.
	Hash(data []byte) Hash
}

const (
	NameBlake2b256 = "blake2b256"
	NameKeccak256  = "keccak256"
)

// DefaultHasher is the header hashing of Substrate-based chains.
var DefaultHasher Hasher = Blake2b256{}

// FromName returns the Hasher with the given canonical name.
func FromName(name string) (Hasher, error) {
	switch name {
	case NameBlake2b256:
		return Blake2b256{}, nil
	case NameKeccak256:
		return Keccak256{}, nil
	default:
		return nil, fmt.Errorf("unknown hashing function: %s", name)
	}
}
