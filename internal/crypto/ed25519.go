package crypto

import (
	"crypto/ed25519"

	"olm/internal/domain"
	"olm/internal/util/memzero"
)

const (
	// Ed25519SeedLength is the amount of randomness consumed per signing key.
	Ed25519SeedLength = ed25519.SeedSize
	// Ed25519SignatureLength is the size of every signature.
	Ed25519SignatureLength = ed25519.SignatureSize
)

// Ed25519KeyPair is an Ed25519 signing key pair.
type Ed25519KeyPair struct {
	Private domain.Ed25519Private
	Public  domain.Ed25519Public
}

// Ed25519FromSeed derives a signing key pair from the first 32 bytes of seed.
func Ed25519FromSeed(seed []byte) (Ed25519KeyPair, error) {
	var kp Ed25519KeyPair
	if len(seed) < Ed25519SeedLength {
		return kp, domain.ErrNotEnoughRandom
	}
	sk := ed25519.NewKeyFromSeed(seed[:Ed25519SeedLength])
	copy(kp.Private[:], sk)
	copy(kp.Public[:], sk.Public().(ed25519.PublicKey))
	memzero.Zero(sk)
	return kp, nil
}

// Wipe zeroes the private half.
func (kp *Ed25519KeyPair) Wipe() { memzero.Zero(kp.Private[:]) }

// Sign signs msg with the pair's private key.
func (kp *Ed25519KeyPair) Sign(msg []byte) []byte {
	return SignEd25519(kp.Private, msg)
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg with pub. Signatures of the wrong
// length never verify.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	if len(sig) != Ed25519SignatureLength {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}
