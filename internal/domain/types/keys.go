package types

import (
	"encoding/base64"
	"fmt"
)

// KeyEncoding is the textual form used for every public key and digest:
// standard base64 alphabet without padding.
var KeyEncoding = base64.RawStdEncoding

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// String returns the unpadded base64 form of the key.
func (p X25519Public) String() string { return KeyEncoding.EncodeToString(p[:]) }

// IsZero reports whether the key is unset.
func (p X25519Public) IsZero() bool { return p == X25519Public{} }

// MarshalText implements encoding.TextMarshaler.
func (p X25519Public) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *X25519Public) UnmarshalText(b []byte) error {
	return decodeFixed(p[:], b)
}

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// String returns the unpadded base64 form of the key.
func (p Ed25519Public) String() string { return KeyEncoding.EncodeToString(p[:]) }

// MarshalText implements encoding.TextMarshaler.
func (p Ed25519Public) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Ed25519Public) UnmarshalText(b []byte) error {
	return decodeFixed(p[:], b)
}

// Ed25519Private is an Ed25519 signing private key (seed followed by public key).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// decodeFixed decodes unpadded base64 into dst, which must be filled exactly.
func decodeFixed(dst, src []byte) error {
	if KeyEncoding.DecodedLen(len(src)) != len(dst) {
		return fmt.Errorf("%w: want %d bytes", ErrInvalidKey, len(dst))
	}
	if _, err := KeyEncoding.Decode(dst, src); err != nil {
		return ErrInvalidBase64
	}
	return nil
}

// IdentityKeys is the public half of an account identity.
type IdentityKeys struct {
	Curve25519 X25519Public  `json:"curve25519" yaml:"curve25519"`
	Ed25519    Ed25519Public `json:"ed25519" yaml:"ed25519"`
}

// OneTimeKeys lists public one-time keys by their encoded key ID.
type OneTimeKeys struct {
	Curve25519 map[string]X25519Public `json:"curve25519" yaml:"curve25519"`
}

// PkMessage is the output of public-key encryption. The three fields travel
// independently; all are required to decrypt.
type PkMessage struct {
	Ciphertext   []byte       `json:"ciphertext" yaml:"ciphertext"`
	MAC          []byte       `json:"mac" yaml:"mac"`
	EphemeralKey X25519Public `json:"ephemeral" yaml:"ephemeral"`
}
