package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"

	"olm/internal/domain"
	"olm/internal/util/memzero"
)

const (
	// MACLength is the size of the truncated HMAC appended to ciphertexts.
	MACLength = 8

	aesKeyLength = 32
	macKeyLength = 32
	ivLength     = aes.BlockSize
)

// AESSHA256 is AES-256-CBC with PKCS#7 padding authenticated by a truncated
// HMAC-SHA-256. Both keys and the IV are expanded from an input key with
// HKDF-SHA-256 under the cipher's info string.
type AESSHA256 struct {
	info []byte
}

// NewAESSHA256 returns the cipher bound to info.
func NewAESSHA256(info string) AESSHA256 { return AESSHA256{info: []byte(info)} }

// CiphertextLength is the padded length of an n-byte plaintext.
func (AESSHA256) CiphertextLength(n int) int {
	return n + aes.BlockSize - n%aes.BlockSize
}

// CipherKeys are the expanded per-message keys. Call Wipe when done.
type CipherKeys struct {
	aesKey [aesKeyLength]byte
	macKey [macKeyLength]byte
	iv     [ivLength]byte
}

// DeriveKeys expands key into cipher keys.
func (c AESSHA256) DeriveKeys(key []byte) *CipherKeys {
	okm := HKDF(key, nil, c.info, aesKeyLength+macKeyLength+ivLength)
	k := &CipherKeys{}
	copy(k.aesKey[:], okm)
	copy(k.macKey[:], okm[aesKeyLength:])
	copy(k.iv[:], okm[aesKeyLength+macKeyLength:])
	memzero.Zero(okm)
	return k
}

// Wipe zeroes the expanded keys.
func (k *CipherKeys) Wipe() {
	memzero.Zero(k.aesKey[:])
	memzero.Zero(k.macKey[:])
	memzero.Zero(k.iv[:])
}

// Encrypt pads and encrypts plaintext.
func (k *CipherKeys) Encrypt(plaintext []byte) []byte {
	block, err := aes.NewCipher(k.aesKey[:])
	if err != nil {
		panic(err) // key length is fixed
	}
	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	out := make([]byte, len(plaintext)+padLen)
	copy(out, plaintext)
	for i := len(plaintext); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	cipher.NewCBCEncrypter(block, k.iv[:]).CryptBlocks(out, out)
	return out
}

// Decrypt decrypts and unpads ciphertext. A malformed ciphertext or padding
// yields ErrBadMessageMAC; callers verify the MAC first.
func (k *CipherKeys) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, domain.ErrBadMessageMAC
	}
	block, err := aes.NewCipher(k.aesKey[:])
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, k.iv[:]).CryptBlocks(out, ciphertext)
	padLen := int(out[len(out)-1])
	if padLen == 0 || padLen > aes.BlockSize {
		memzero.Zero(out)
		return nil, domain.ErrBadMessageMAC
	}
	for _, b := range out[len(out)-padLen:] {
		if int(b) != padLen {
			memzero.Zero(out)
			return nil, domain.ErrBadMessageMAC
		}
	}
	return out[:len(out)-padLen], nil
}

// MAC returns the truncated HMAC of data.
func (k *CipherKeys) MAC(data []byte) []byte {
	h := hmac.New(sha256.New, k.macKey[:])
	h.Write(data)
	return h.Sum(nil)[:MACLength]
}

// VerifyMAC compares the truncated HMAC of data with mac in constant time.
func (k *CipherKeys) VerifyMAC(data, mac []byte) bool {
	if len(mac) != MACLength {
		return false
	}
	return hmac.Equal(k.MAC(data), mac)
}
