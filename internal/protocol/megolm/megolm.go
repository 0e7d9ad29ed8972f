package megolm

import (
	"olm/internal/crypto"
	"olm/internal/pickle"
	"olm/internal/util/memzero"
)

const (
	// Parts is the number of ratchet parts R0..R3.
	Parts = 4
	// PartLength is the size of each part.
	PartLength = 32
	// RatchetLength is the size of all parts together.
	RatchetLength = Parts * PartLength
)

// seeds are the HMAC inputs that rehash each part.
var seeds = [Parts][]byte{{0x00}, {0x01}, {0x02}, {0x03}}

// Ratchet is the four-part hash ratchet. Part i changes every 2^(8*(3-i))
// steps; re-deriving part j >= i from part i lets a holder of the state at
// one counter reach any later counter without being able to go back.
type Ratchet struct {
	Data    [RatchetLength]byte
	Counter uint32
}

// New builds a ratchet from 128 bytes of data at counter.
func New(data []byte, counter uint32) Ratchet {
	var r Ratchet
	copy(r.Data[:], data)
	r.Counter = counter
	return r
}

func (r *Ratchet) part(i int) []byte { return r.Data[i*PartLength : (i+1)*PartLength] }

// rehash sets part to = HMAC-SHA-256(part from, seed[to]).
func (r *Ratchet) rehash(from, to int) {
	sum := crypto.HMACSHA256(r.part(from), seeds[to])
	copy(r.part(to), sum)
	memzero.Zero(sum)
}

// Advance moves the ratchet forward by one step.
func (r *Ratchet) Advance() {
	var mask uint32 = 0x00FFFFFF
	h := 0
	r.Counter++

	// Find the highest part that needs rekeying.
	for h < Parts {
		if r.Counter&mask == 0 {
			break
		}
		h++
		mask >>= 8
	}

	// Update R(h)..R(3) from R(h).
	for i := Parts - 1; i >= h; i-- {
		r.rehash(h, i)
	}
}

// AdvanceTo moves the ratchet to target, which should not be behind the
// current counter: a target behind wraps around the 32-bit counter.
func (r *Ratchet) AdvanceTo(target uint32) {
	for j := 0; j < Parts; j++ {
		shift := uint((Parts - j - 1) * 8)
		mask := ^uint32(0) << shift

		// How many times part j must be rehashed; & 0xff handles wraparound.
		steps := ((target >> shift) - (r.Counter >> shift)) & 0xff
		if steps == 0 {
			// The counter is slightly past target within this part's span.
			if target < r.Counter {
				steps = 0x100
			} else {
				continue
			}
		}

		// All but the last step only bump R(j).
		for ; steps > 1; steps-- {
			r.rehash(j, j)
		}
		// The last step also rederives R(j+1)..R(3).
		for k := Parts - 1; k >= j; k-- {
			r.rehash(j, k)
		}
		r.Counter = target & mask
	}
}

// Wipe zeroes the ratchet.
func (r *Ratchet) Wipe() {
	memzero.Zero(r.Data[:])
	r.Counter = 0
}

// Pickle appends the ratchet to e.
func (r *Ratchet) Pickle(e *pickle.Encoder) {
	e.Bytes(r.Data[:])
	e.Uint32(r.Counter)
}

// Unpickle reads a ratchet written by Pickle.
func (r *Ratchet) Unpickle(d *pickle.Decoder) {
	d.Read(r.Data[:])
	r.Counter = d.Uint32()
}
