// Package session establishes pairwise olm sessions with named peers and
// encrypts and decrypts messages through them.
//
// Every session is pickled under the passphrase and stored after each use,
// so a ratchet step is never lost once its ciphertext has been returned.
package session
