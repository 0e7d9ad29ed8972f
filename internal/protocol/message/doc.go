// Package message encodes and decodes the engine's wire formats.
//
// Pairwise and group messages use protobuf-compatible tags and varints after
// a leading version byte (always 3). Fields a decoder does not know are
// skipped so that later versions can add fields.
//
//	olm message      0x03 | 1:ratchet key | 2:counter | 4:ciphertext | mac(8)
//	pre-key message  0x03 | 1:one-time key | 2:base key | 3:identity key | 4:olm message
//	group message    0x03 | 1:message index | 2:ciphertext | mac(8) | signature(64)
//
// Group checkpoints are fixed layouts:
//
//	session key      0x02 | index(BE32) | ratchet(128) | signing key(32) | signature(64)
//	exported session 0x01 | index(BE32) | ratchet(128) | signing key(32)
package message
