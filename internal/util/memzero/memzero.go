// Package memzero wipes secret material held in byte slices.
package memzero

import "runtime"

// Zero overwrites b with zeros. It is best-effort: the Go runtime may have
// copied the data elsewhere before the call.
//
//go:noinline
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}

// Zero32 wipes a fixed 32-byte key in place.
func Zero32(k *[32]byte) { Zero(k[:]) }
