package olm

import (
	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/pickle"
	"olm/internal/util/memzero"
)

const pkDecryptionPickleVersion uint32 = 1

var pkCipher = crypto.NewAESSHA256("")

// PkEncryption encrypts to a Curve25519 public key with a fresh ephemeral
// key per message. It holds no secrets.
type PkEncryption struct {
	lastError

	recipient domain.X25519Public
}

// NewPkEncryption returns an encryptor for recipient.
func NewPkEncryption(recipient Curve25519PublicKey) *PkEncryption {
	return &PkEncryption{recipient: recipient}
}

// EncryptRandomLength is the randomness Encrypt consumes.
func (p *PkEncryption) EncryptRandomLength() int { return crypto.Curve25519KeyLength }

// CiphertextLength is the length of the ciphertext field for an n-byte
// plaintext.
func (p *PkEncryption) CiphertextLength(n int) int { return pkCipher.CiphertextLength(n) }

// MACLength is the length of the MAC field.
func (p *PkEncryption) MACLength() int { return crypto.MACLength }

// Encrypt encrypts plaintext to the recipient. The three fields of the
// result travel separately and are all needed to decrypt.
func (p *PkEncryption) Encrypt(plaintext, random []byte) (PkMessage, error) {
	ephemeral, err := crypto.Curve25519FromRandom(random)
	if err != nil {
		return PkMessage{}, p.fail(err)
	}
	defer ephemeral.Wipe()

	secret, err := crypto.DH(ephemeral.Private, p.recipient)
	if err != nil {
		return PkMessage{}, p.fail(err)
	}
	defer memzero.Zero32(&secret)
	keys := pkCipher.DeriveKeys(secret[:])
	defer keys.Wipe()

	ct := keys.Encrypt(plaintext)
	return PkMessage{
		Ciphertext:   ct,
		MAC:          keys.MAC(ct),
		EphemeralKey: ephemeral.Public,
	}, nil
}

// PkDecryption holds the private key PkEncryption encrypts to.
type PkDecryption struct {
	lastError

	key crypto.Curve25519KeyPair
}

// NewPkDecryptionRandomLength is the randomness NewPkDecryption consumes.
func NewPkDecryptionRandomLength() int { return crypto.Curve25519KeyLength }

// NewPkDecryption creates a decryption key from random bytes. The same bytes
// always give the same key.
func NewPkDecryption(random []byte) (*PkDecryption, error) {
	kp, err := crypto.Curve25519FromRandom(random)
	if err != nil {
		return nil, err
	}
	return &PkDecryption{key: kp}, nil
}

// PublicKey is the key to encrypt to.
func (p *PkDecryption) PublicKey() Curve25519PublicKey { return p.key.Public }

// Decrypt checks the MAC of m before decrypting it.
func (p *PkDecryption) Decrypt(m PkMessage) ([]byte, error) {
	secret, err := crypto.DH(p.key.Private, m.EphemeralKey)
	if err != nil {
		return nil, p.fail(err)
	}
	defer memzero.Zero32(&secret)
	keys := pkCipher.DeriveKeys(secret[:])
	defer keys.Wipe()

	if !keys.VerifyMAC(m.Ciphertext, m.MAC) {
		return nil, p.fail(ErrBadMessageMAC)
	}
	plaintext, err := keys.Decrypt(m.Ciphertext)
	if err != nil {
		return nil, p.fail(err)
	}
	return plaintext, nil
}

// Clear erases the private key.
func (p *PkDecryption) Clear() { p.key.Wipe() }

func (p *PkDecryption) rawPickle() *pickle.Encoder {
	e := pickle.NewEncoder(pkDecryptionPickleVersion)
	e.Bytes(p.key.Public[:])
	e.Bytes(p.key.Private[:])
	return e
}

// PickleLength is the exact length of Pickle's output.
func (p *PkDecryption) PickleLength() int {
	raw := p.rawPickle().Raw()
	defer memzero.Zero(raw)
	return pickle.EncryptedLength(len(raw))
}

// Pickle returns the key encrypted under key, as unpadded base64.
func (p *PkDecryption) Pickle(key []byte) []byte {
	return pickle.SealEncoder(key, p.rawPickle())
}

// Unpickle replaces the key with the one in blob. On error p is unchanged.
func (p *PkDecryption) Unpickle(key, blob []byte) error {
	fresh := &PkDecryption{}
	err := pickle.Unseal(key, blob, func(_ uint32, d *pickle.Decoder) error {
		d.Read(fresh.key.Public[:])
		d.Read(fresh.key.Private[:])
		return nil
	}, pkDecryptionPickleVersion)
	if err != nil {
		fresh.Clear()
		return p.fail(err)
	}
	p.Clear()
	fresh.lastError = p.lastError
	*p = *fresh
	return nil
}

// UnpicklePkDecryption restores a decryption key from blob.
func UnpicklePkDecryption(key, blob []byte) (*PkDecryption, error) {
	p := &PkDecryption{}
	if err := p.Unpickle(key, blob); err != nil {
		return nil, err
	}
	return p, nil
}

// PkSigning signs with an Ed25519 key derived from a seed.
type PkSigning struct {
	lastError

	key crypto.Ed25519KeyPair
}

// PkSigningSeedLength is the seed size NewPkSigning consumes.
func PkSigningSeedLength() int { return crypto.Ed25519SeedLength }

// NewPkSigning derives a signing key from seed.
func NewPkSigning(seed []byte) (*PkSigning, error) {
	kp, err := crypto.Ed25519FromSeed(seed)
	if err != nil {
		return nil, err
	}
	return &PkSigning{key: kp}, nil
}

// PublicKey is the key signatures verify against.
func (s *PkSigning) PublicKey() Ed25519PublicKey { return s.key.Public }

// Sign signs message.
func (s *PkSigning) Sign(message []byte) []byte { return s.key.Sign(message) }

// Clear erases the private key.
func (s *PkSigning) Clear() { s.key.Wipe() }
