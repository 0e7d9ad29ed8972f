package pickle

import (
	"encoding/binary"

	"olm/internal/domain"
)

// Encoder appends fixed-layout fields to a raw pickle.
type Encoder struct {
	buf []byte
}

// NewEncoder starts a raw pickle with the given format version.
func NewEncoder(version uint32) *Encoder {
	e := &Encoder{}
	e.Uint32(version)
	return e
}

// Uint32 appends a big-endian 32-bit value.
func (e *Encoder) Uint32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }

// Uint8 appends a single byte.
func (e *Encoder) Uint8(v uint8) { e.buf = append(e.buf, v) }

// Bool appends a boolean as one byte.
func (e *Encoder) Bool(v bool) {
	if v {
		e.Uint8(1)
	} else {
		e.Uint8(0)
	}
}

// Bytes appends b verbatim; the decoder must know its length.
func (e *Encoder) Bytes(b []byte) { e.buf = append(e.buf, b...) }

// Raw returns the encoded bytes. The caller owns and must wipe them.
func (e *Encoder) Raw() []byte { return e.buf }

// Decoder reads fixed-layout fields from a raw pickle. The first read past
// the end latches ErrCorruptedPickle; later reads return zero values.
type Decoder struct {
	data []byte
	err  error
}

// NewDecoder wraps raw.
func NewDecoder(raw []byte) *Decoder { return &Decoder{data: raw} }

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data) < n {
		d.err = domain.ErrCorruptedPickle
		return nil
	}
	b := d.data[:n]
	d.data = d.data[n:]
	return b
}

// Uint32 reads a big-endian 32-bit value.
func (d *Decoder) Uint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Uint8 reads one byte.
func (d *Decoder) Uint8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Bool reads a one-byte boolean. Values other than 0 and 1 are corrupt.
func (d *Decoder) Bool() bool {
	v := d.Uint8()
	if v > 1 {
		d.err = domain.ErrCorruptedPickle
	}
	return v == 1
}

// Read fills dst.
func (d *Decoder) Read(dst []byte) {
	if b := d.take(len(dst)); b != nil {
		copy(dst, b)
	}
}

// Count reads a length prefix and rejects values above limit.
func (d *Decoder) Count(limit int) int {
	n := d.Uint32()
	if d.err == nil && int64(n) > int64(limit) {
		d.err = domain.ErrCorruptedPickle
		return 0
	}
	return int(n)
}

// Err returns the first error seen.
func (d *Decoder) Err() error { return d.err }

// Finish reports an error if any read failed or bytes remain.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if len(d.data) != 0 {
		return domain.ErrCorruptedPickle
	}
	return nil
}
