package hash

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Blake2b256 is BLAKE2b with a 256-bit digest (Substrate's BlakeTwo256).
type Blake2b256 struct{}

var _ Hasher = Blake2b256{}

func (Blake2b256) Name() string {
	return NameBlake2b256
}

func (Blake2b256) Hash(data []byte) Hash {
	return blake2b.Sum256(data)
}

// Keccak256 is the legacy (pre-NIST) Keccak with a 256-bit digest.
type Keccak256 struct{}

var _ Hasher = Keccak256{}

func (Keccak256) Name() string {
	return NameKeccak256
}

func (Keccak256) Hash(data []byte) Hash {
	var h Hash
	hasher := sha3.NewLegacyKeccak256()
	// writes to a keccak state never fail
	_, _ = hasher.Write(data)
	hasher.Sum(h[:0])
	return h
}
