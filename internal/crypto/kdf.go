package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF expands ikm into n bytes with HKDF-SHA-256. A nil salt is the
// all-zero salt of RFC 5869.
func HKDF(ikm, salt, info []byte, n int) []byte {
	out := make([]byte, n)
	r := hkdf.New(sha256.New, ikm, salt, info)
	if _, err := io.ReadFull(r, out); err != nil {
		// hkdf only fails past 255*32 bytes of output
		panic(err)
	}
	return out
}

// HMACSHA256 returns HMAC-SHA-256(key, data).
func HMACSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// SHA256 returns the SHA-256 digest of the concatenated parts.
func SHA256(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
