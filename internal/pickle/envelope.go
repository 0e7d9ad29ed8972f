package pickle

import (
	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/util/memzero"
)

var pickleCipher = crypto.NewAESSHA256("Pickle")

// EncryptedLength is the length of the base64 envelope of an n-byte raw pickle.
func EncryptedLength(n int) int {
	return domain.KeyEncoding.EncodedLen(pickleCipher.CiphertextLength(n) + crypto.MACLength)
}

// Seal encrypts raw under key and returns unpadded base64. An empty key is
// accepted: the output is still authenticated, but anyone can open it.
func Seal(key, raw []byte) []byte {
	keys := pickleCipher.DeriveKeys(key)
	defer keys.Wipe()

	ct := keys.Encrypt(raw)
	ct = append(ct, keys.MAC(ct)...)
	out := make([]byte, domain.KeyEncoding.EncodedLen(len(ct)))
	domain.KeyEncoding.Encode(out, ct)
	return out
}

// Open reverses Seal. The MAC is checked before decryption; a mismatch means
// the key is wrong and yields ErrBadAccountKey.
func Open(key, blob []byte) ([]byte, error) {
	ct, err := crypto.DecodeBase64(blob)
	if err != nil {
		return nil, err
	}
	if len(ct) < crypto.MACLength {
		return nil, domain.ErrCorruptedPickle
	}
	body, mac := ct[:len(ct)-crypto.MACLength], ct[len(ct)-crypto.MACLength:]

	keys := pickleCipher.DeriveKeys(key)
	defer keys.Wipe()
	if !keys.VerifyMAC(body, mac) {
		return nil, domain.ErrBadAccountKey
	}
	raw, err := keys.Decrypt(body)
	if err != nil {
		return nil, domain.ErrCorruptedPickle
	}
	return raw, nil
}

// Unseal opens blob and hands a decoder over the raw bytes to decode, after
// checking the version against the supported ones. The raw bytes are wiped
// once decode returns.
func Unseal(key, blob []byte, decode func(version uint32, d *Decoder) error, versions ...uint32) error {
	raw, err := Open(key, blob)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	d := NewDecoder(raw)
	version := d.Uint32()
	if err := d.Err(); err != nil {
		return err
	}
	supported := false
	for _, v := range versions {
		if v == version {
			supported = true
		}
	}
	if !supported {
		log.Debugf("Rejecting pickle version %d", version)
		return domain.ErrUnknownPickleVersion
	}
	if err := decode(version, d); err != nil {
		return err
	}
	return d.Finish()
}

// SealEncoder seals the encoder's raw bytes and wipes them.
func SealEncoder(key []byte, e *Encoder) []byte {
	raw := e.Raw()
	defer memzero.Zero(raw)
	return Seal(key, raw)
}
