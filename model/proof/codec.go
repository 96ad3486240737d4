package proof

import (
	"fmt"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

// fixedLen is the length of the fixed-width prefix of an encoded message:
// authority ID followed by the ephemeral key.
const fixedLen = AuthorityIDLen + EphemeralKeyLen

// Encode returns the SCALE encoding of the message: the authority ID and the
// ephemeral key as raw bytes, then the payload with a compact length prefix.
func Encode(m *Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("cannot encode nil proof message")
	}
	out := *m
	if out.EncryptedPayload == nil {
		out.EncryptedPayload = []byte{}
	}
	b, err := scale.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("could not encode proof message: %w", err)
	}
	return b, nil
}

// Decode decodes a SCALE encoded message. Bytes following a complete message
// are ignored. Any error returned is a DecodeError.
func Decode(data []byte) (m *Message, err error) {
	if len(data) <= fixedLen {
		return nil, NewDecodeErrorf("buffer too short: %d bytes", len(data))
	}

	// the payload length is checked against the buffer before decoding so a
	// corrupt prefix cannot make the decoder allocate an arbitrary slice
	payloadLen, prefixLen, err := compactPrefix(data[fixedLen:])
	if err != nil {
		return nil, err
	}
	if remaining := uint64(len(data) - fixedLen - prefixLen); payloadLen > remaining {
		return nil, NewDecodeErrorf("payload length %d exceeds remaining %d bytes", payloadLen, remaining)
	}

	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = NewDecodeErrorf("decoder panic: %v", r)
		}
	}()

	var msg Message
	if err := scale.Unmarshal(data, &msg); err != nil {
		return nil, NewDecodeErrorf("%w", err)
	}
	if msg.EncryptedPayload == nil {
		msg.EncryptedPayload = []byte{}
	}
	return &msg, nil
}

// compactPrefix decodes the compact length prefix at the start of data and
// returns the length value and the width of the prefix in bytes.
func compactPrefix(data []byte) (uint64, int, error) {
	var width int
	switch mode := data[0] & 0b11; mode {
	case 0b00:
		width = 1
	case 0b01:
		width = 2
	case 0b10:
		width = 4
	default:
		width = 1 + int(data[0]>>2) + 4
	}
	if width > len(data) {
		return 0, 0, NewDecodeErrorf("truncated length prefix: need %d bytes, have %d", width, len(data))
	}
	if width > 9 {
		return 0, 0, NewDecodeErrorf("length prefix exceeds 64 bits")
	}

	var length uint
	if err := scale.Unmarshal(data[:width], &length); err != nil {
		return 0, 0, NewDecodeErrorf("invalid length prefix: %w", err)
	}
	return uint64(length), width, nil
}
