package rest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/onflow/proof-relay/model/proof"
)

// Proof is the JSON representation of a ticket proof. All fields are hex encoded.
type Proof struct {
	AuthorityID      string `json:"authority_id" validate:"required,len=64,hexadecimal"`
	EphemeralKey     string `json:"ephemeral_key" validate:"required,len=64,hexadecimal"`
	EncryptedPayload string `json:"encrypted_payload" validate:"omitempty,hexadecimal"`
}

// proofValidator reports field errors under their JSON names.
var proofValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}()

// ModelError is the body of every error response.
type ModelError struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

func toProof(m *proof.Message) Proof {
	return Proof{
		AuthorityID:      m.AuthorityID.String(),
		EphemeralKey:     hex.EncodeToString(m.EphemeralKey[:]),
		EncryptedPayload: hex.EncodeToString(m.EncryptedPayload),
	}
}

// toMessage parses the request body of a submitted proof.
func toMessage(p Proof) (*proof.Message, error) {
	if err := proofValidator.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, fmt.Errorf("invalid %s: failed %q check", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return nil, err
	}

	authorityID, err := proof.HexStringToAuthorityID(p.AuthorityID)
	if err != nil {
		return nil, fmt.Errorf("invalid authority_id: %w", err)
	}

	key, err := hex.DecodeString(p.EphemeralKey)
	if err != nil {
		return nil, fmt.Errorf("invalid ephemeral_key: %w", err)
	}
	if len(key) != proof.EphemeralKeyLen {
		return nil, fmt.Errorf("invalid ephemeral_key: expected %d bytes, got %d", proof.EphemeralKeyLen, len(key))
	}

	payload, err := hex.DecodeString(p.EncryptedPayload)
	if err != nil {
		return nil, fmt.Errorf("invalid encrypted_payload: %w", err)
	}

	m := &proof.Message{
		AuthorityID:      authorityID,
		EncryptedPayload: payload,
	}
	copy(m.EphemeralKey[:], key)
	return m, nil
}
