package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	// The current supported version of the encrypted file format stored on disk.
	keystoreFormatVersion = 2

	saltLength = 16
)

// KDF names the passphrase key derivation function of a sealed file.
type KDF string

const (
	KDFArgon2id KDF = "argon2id"
	KDFScrypt   KDF = "scrypt"
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// file has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted store file")

	// ErrUnknownKDF is returned for a KDF name other than argon2id or scrypt.
	ErrUnknownKDF = errors.New("unknown key derivation function")
)

// KDFParams are the tunables of a key derivation function. Only the fields
// of the named KDF are used.
type KDFParams struct {
	Name KDF `json:"name"`

	// argon2id
	Time    uint32 `json:"time,omitempty"`
	Memory  uint32 `json:"memory_kib,omitempty"`
	Threads uint8  `json:"threads,omitempty"`

	// scrypt
	N int `json:"scrypt_N,omitempty"`
	R int `json:"scrypt_r,omitempty"`
	P int `json:"scrypt_p,omitempty"`
}

// DefaultKDFParams returns the parameters new files are sealed with.
func DefaultKDFParams(name KDF) (KDFParams, error) {
	switch name {
	case KDFArgon2id, "":
		return KDFParams{Name: KDFArgon2id, Time: 1, Memory: 64 * 1024, Threads: 4}, nil
	case KDFScrypt:
		return KDFParams{Name: KDFScrypt, N: 1 << 15, R: 8, P: 1}, nil
	}
	return KDFParams{}, fmt.Errorf("%w %q", ErrUnknownKDF, name)
}

func (p KDFParams) deriveKey(passphrase string, salt []byte) ([]byte, error) {
	switch p.Name {
	case KDFArgon2id:
		if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
			return nil, ErrWrongPassphrase
		}
		return argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize), nil
	case KDFScrypt:
		return scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, chacha20poly1305.KeySize)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKDF, p.Name)
}

// blob is the on-disk JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V      int       `json:"v"`
	KDF    KDFParams `json:"kdf"`
	Salt   []byte    `json:"salt"`
	Cipher []byte    `json:"cipher"`
}

// encrypt derives a key from passphrase and seals raw into a JSON blob.
func encrypt(passphrase string, raw []byte, params KDFParams) ([]byte, error) {
	var salt [saltLength]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := params.deriveKey(passphrase, salt[:])
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // zero nonce; salt-bound key guarantees uniqueness
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(blob{
		V:      keystoreFormatVersion,
		KDF:    params,
		Salt:   salt[:],
		Cipher: ct,
	})
}

// decrypt opens the JSON blob using a key derived from passphrase.
func decrypt(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
	}
	if bl.V != keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", bl.V)
	}

	key, err := bl.KDF.deriveKey(passphrase, bl.Salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
