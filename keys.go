package olm

import "olm/internal/domain"

// Curve25519PublicKey is a Curve25519 public key. Its text form is unpadded
// base64.
type Curve25519PublicKey = domain.X25519Public

// Ed25519PublicKey is an Ed25519 public key. Its text form is unpadded base64.
type Ed25519PublicKey = domain.Ed25519Public

// IdentityKeys holds an account's public identity keys.
type IdentityKeys = domain.IdentityKeys

// OneTimeKeys lists one-time public keys by encoded key ID.
type OneTimeKeys = domain.OneTimeKeys

// PkMessage is the three-part output of public-key encryption.
type PkMessage = domain.PkMessage

// MessageType discriminates pairwise messages.
type MessageType = domain.MessageType

const (
	MessageTypePreKey  = domain.MessageTypePreKey
	MessageTypeMessage = domain.MessageTypeMessage
)

// ParseCurve25519Key decodes an unpadded base64 Curve25519 public key.
func ParseCurve25519Key(s string) (Curve25519PublicKey, error) {
	var k Curve25519PublicKey
	err := k.UnmarshalText([]byte(s))
	return k, err
}

// ParseEd25519Key decodes an unpadded base64 Ed25519 public key.
func ParseEd25519Key(s string) (Ed25519PublicKey, error) {
	var k Ed25519PublicKey
	err := k.UnmarshalText([]byte(s))
	return k, err
}
