// Package store provides file-based persistence for pickled olm state.
//
// FileStore implements the domain storage interfaces. Each record kind lives
// in its own file, JSON encoded and sealed with ChaCha20-Poly1305 under a key
// derived from the passphrase with Argon2id (default) or scrypt; the KDF and
// its parameters are recorded in the file so either kind can be read back.
// Files are replaced atomically and all methods are safe for concurrent use.
//
// The files are:
//   - account.enc: the pickled account
//   - sessions.enc: pairwise sessions per peer, most recent first
//   - groups.enc: outbound and inbound group sessions by name
//   - pk_keys.enc: public-key decryption keys by name
package store
