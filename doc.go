// Package olm implements end-to-end encrypted sessions: a pairwise double
// ratchet (Account, Session), a one-to-many hash ratchet
// (OutboundGroupSession, InboundGroupSession), anonymous public-key
// encryption (PkEncryption, PkDecryption) and Ed25519 helpers.
//
// The package never reads a random source. Every operation that needs
// entropy has a matching ...RandomLength query and takes the random bytes as
// an argument; callers fill the buffer from crypto/rand.
//
// All state can be persisted with Pickle, which encrypts it under a caller
// key, and restored with the matching Unpickle function.
//
// Instances are not safe for concurrent use. A failed operation leaves its
// instance unchanged and records an error code, available from LastError.
package olm
