// Package ratchet implements the pairwise double ratchet.
//
// The state keeps a root key, at most one sender chain and up to
// MaxReceiverChains receiver chains keyed by the peer's ratchet public keys.
// Each message key is derived from its chain key with HMAC-SHA-256 and
// expanded into AES-256-CBC and HMAC keys (info "OLM_KEYS"). A message under
// a ratchet key we have not seen performs a DH step (info "OLM_RATCHET")
// that creates a new receiver chain and retires our sender chain; our next
// encrypt then starts a new sender chain from fresh caller randomness.
//
// Message keys skipped over while advancing a chain are cached (bounded by
// MaxSkippedMessageKeys, oldest evicted first) so reordered messages still
// decrypt. A message whose key was used or evicted fails with
// domain.ErrIndexTooOld.
//
// Every operation derives into temporaries and commits only on success, so
// a failed Encrypt or Decrypt leaves the State unchanged.
//
// Concurrency: State is NOT safe for concurrent use. Callers must serialise
// access per session.
package ratchet
