// Package crypto exposes the minimal primitives used by the olm engine.
//
// Contents
//
//   - Curve25519 key pairs built from caller randomness, clamping and
//     Diffie-Hellman (Curve25519FromRandom, DH)
//   - Ed25519 key pairs built from a seed, signing and verification
//     (Ed25519FromSeed, SignEd25519, VerifyEd25519)
//   - HKDF-SHA-256, HMAC-SHA-256 and SHA-256 helpers
//   - The AES-256-CBC + truncated HMAC-SHA-256 cipher shared by the ratchets,
//     the pickle envelope and public-key encryption (AESSHA256)
//   - Unpadded base64 and short public-key fingerprints
//
// # Notes
//
// Nothing in this package reads an RNG. Key material always comes from a
// buffer supplied by the caller, so every operation is deterministic given
// its inputs. Returned secrets should be wiped with the Wipe methods or
// memzero.Zero as soon as they are no longer needed.
package crypto
