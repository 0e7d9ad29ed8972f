package olm

import "olm/internal/crypto"

// Utility holds stateless helpers. It only remembers its last error.
type Utility struct {
	lastError
}

// NewUtility returns a Utility.
func NewUtility() *Utility { return &Utility{} }

// SHA256 returns the unpadded base64 SHA-256 digest of input.
func (u *Utility) SHA256(input []byte) string {
	sum := crypto.SHA256(input)
	return crypto.EncodeBase64(sum[:])
}

// VerifyEd25519 checks signature over message with key. A signature of the
// wrong length fails like a forged one.
func (u *Utility) VerifyEd25519(key Ed25519PublicKey, message, signature []byte) error {
	if !crypto.VerifyEd25519(key, message, signature) {
		return u.fail(ErrBadSignature)
	}
	return nil
}
