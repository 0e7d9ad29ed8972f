// Package pickle serialises engine state at rest.
//
// A raw pickle is a big-endian uint32 format version followed by the
// component's fields in a fixed order (Encoder, Decoder). The raw bytes are
// then sealed (Seal, Open):
//
//	HKDF-SHA-256(key, info "Pickle") -> AES-256 key | HMAC key | IV
//	base64( AES-256-CBC(raw) | HMAC-SHA-256(ciphertext)[:8] )
//
// # Errors
//
//   - ErrInvalidBase64 when the envelope is not base64
//   - ErrBadAccountKey when the MAC does not verify under the key
//   - ErrUnknownPickleVersion for a version the component does not know
//   - ErrCorruptedPickle for truncated, oversized or trailing data
package pickle
