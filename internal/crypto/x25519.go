package crypto

import (
	"golang.org/x/crypto/curve25519"

	"olm/internal/domain"
	"olm/internal/util/memzero"
)

// Curve25519KeyLength is the size of Curve25519 private keys, public keys and
// shared secrets.
const Curve25519KeyLength = 32

// Curve25519KeyPair is a Curve25519 private key and its public point.
type Curve25519KeyPair struct {
	Private domain.X25519Private
	Public  domain.X25519Public
}

// Curve25519FromRandom builds a key pair from the first 32 bytes of random.
// The private key is clamped per RFC 7748.
func Curve25519FromRandom(random []byte) (Curve25519KeyPair, error) {
	var kp Curve25519KeyPair
	if len(random) < Curve25519KeyLength {
		return kp, domain.ErrNotEnoughRandom
	}
	copy(kp.Private[:], random[:Curve25519KeyLength])
	clamp(&kp.Private)
	pb, err := curve25519.X25519(kp.Private.Slice(), curve25519.Basepoint)
	if err != nil {
		kp.Wipe()
		return Curve25519KeyPair{}, domain.ErrInvalidKey
	}
	copy(kp.Public[:], pb)
	return kp, nil
}

// Wipe zeroes the private half.
func (kp *Curve25519KeyPair) Wipe() { memzero.Zero(kp.Private[:]) }

// DH computes X25519 Diffie-Hellman. Low-order public keys yield ErrInvalidKey.
func DH(priv domain.X25519Private, pub domain.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, domain.ErrInvalidKey
	}
	copy(out[:], secret)
	memzero.Zero(secret)
	return out, nil
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
