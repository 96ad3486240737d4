package unittest

import (
	"crypto/rand"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/require"

	"github.com/onflow/proof-relay/model/proof"
)

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// AuthorityIDFixture returns a random authority ID.
func AuthorityIDFixture() proof.AuthorityID {
	var id proof.AuthorityID
	copy(id[:], randomBytes(proof.AuthorityIDLen))
	return id
}

// AuthorityIDFixtureFromByte returns the authority ID with every byte set to b.
func AuthorityIDFixtureFromByte(b byte) proof.AuthorityID {
	var id proof.AuthorityID
	for i := range id {
		id[i] = b
	}
	return id
}

// WithAuthorityID sets the authority ID of a proof fixture.
func WithAuthorityID(id proof.AuthorityID) func(*proof.Message) {
	return func(m *proof.Message) {
		m.AuthorityID = id
	}
}

// WithPayloadSize sets the length of the random payload of a proof fixture.
func WithPayloadSize(size int) func(*proof.Message) {
	return func(m *proof.Message) {
		m.EncryptedPayload = randomBytes(size)
	}
}

// ProofFixture returns a proof message with random fields.
func ProofFixture(opts ...func(*proof.Message)) *proof.Message {
	m := &proof.Message{
		AuthorityID:      AuthorityIDFixture(),
		EncryptedPayload: randomBytes(64),
	}
	copy(m.EphemeralKey[:], randomBytes(proof.EphemeralKeyLen))
	for _, apply := range opts {
		apply(m)
	}
	return m
}

// ProofListFixture returns n proof messages with random fields.
func ProofListFixture(n int, opts ...func(*proof.Message)) []*proof.Message {
	list := make([]*proof.Message, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, ProofFixture(opts...))
	}
	return list
}

// EncodedProofFixture returns the encoding of m.
func EncodedProofFixture(t testing.TB, m *proof.Message) []byte {
	b, err := proof.Encode(m)
	require.NoError(t, err)
	return b
}

// PeerIDFixture returns a peer ID derived from a fresh ed25519 key.
func PeerIDFixture(t testing.TB) peer.ID {
	key, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	id, err := peer.IDFromPrivateKey(key)
	require.NoError(t, err)
	return id
}
