// Package megolm implements the four-part hash ratchet behind group sessions.
//
// The 128-byte state is four 32-byte parts. Advancing by one step rehashes
// the lowest-order part; every 2^8 steps the next part up is rehashed and the
// lower parts are re-derived from it, and so on up to R0 every 2^24 steps.
// AdvanceTo jumps to a later counter in at most 4*256 HMAC operations. No
// operation can recover an earlier state, which is what makes exported
// checkpoints unable to decrypt messages before them.
package megolm
