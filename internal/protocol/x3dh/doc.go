// Package x3dh computes the triple Diffie-Hellman shared secret that seeds
// a pairwise ratchet session.
//
// The initiator combines its identity key and a fresh base key with the
// responder's identity key and one-time key. The responder mirrors the three
// exchanges with its own private keys, so both sides obtain the same 96-byte
// secret. The ratchet package expands it into the first root and chain keys.
//
// # Errors
//
// A low-order public key makes X25519 produce the all-zero point; that is
// reported as domain.ErrInvalidKey and no partial secret is returned.
package x3dh
