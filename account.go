package olm

import (
	"encoding/binary"

	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/pickle"
	"olm/internal/util/memzero"
)

const (
	// maxOneTimeKeys caps the one-time key pool; the oldest keys are
	// discarded when generation goes past it.
	maxOneTimeKeys = 100

	accountPickleVersion uint32 = 1
)

type oneTimeKey struct {
	id        uint32
	published bool
	key       crypto.Curve25519KeyPair
}

func (k *oneTimeKey) keyID() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], k.id)
	return crypto.EncodeBase64(b[:])
}

// Account holds an identity (Curve25519 and Ed25519 key pairs) and the pool
// of one-time keys used to establish inbound sessions.
type Account struct {
	lastError

	signing  crypto.Ed25519KeyPair
	identity crypto.Curve25519KeyPair

	// oneTimeKeys is in generation order, oldest first.
	oneTimeKeys      []oneTimeKey
	nextOneTimeKeyID uint32

	fallbackKey     *oneTimeKey
	prevFallbackKey *oneTimeKey
}

// NewAccountRandomLength is the randomness NewAccount consumes.
func NewAccountRandomLength() int {
	return crypto.Ed25519SeedLength + crypto.Curve25519KeyLength
}

// NewAccount creates an account from NewAccountRandomLength random bytes.
func NewAccount(random []byte) (*Account, error) {
	if len(random) < NewAccountRandomLength() {
		return nil, ErrNotEnoughRandom
	}
	signing, err := crypto.Ed25519FromSeed(random[:crypto.Ed25519SeedLength])
	if err != nil {
		return nil, err
	}
	identity, err := crypto.Curve25519FromRandom(random[crypto.Ed25519SeedLength:])
	if err != nil {
		signing.Wipe()
		return nil, err
	}
	return &Account{signing: signing, identity: identity}, nil
}

// IdentityKeys returns the account's public identity keys.
func (a *Account) IdentityKeys() IdentityKeys {
	return IdentityKeys{Curve25519: a.identity.Public, Ed25519: a.signing.Public}
}

// Fingerprint returns a short display fingerprint of the Curve25519 identity key.
func (a *Account) Fingerprint() string {
	return crypto.Fingerprint(a.identity.Public[:])
}

// SignatureLength is the length of Sign's output.
func (a *Account) SignatureLength() int { return crypto.Ed25519SignatureLength }

// Sign signs message with the account's Ed25519 key.
func (a *Account) Sign(message []byte) []byte {
	return a.signing.Sign(message)
}

// MaxNumberOfOneTimeKeys is the size of the one-time key pool. Generating
// keys beyond it discards the oldest keys.
func (a *Account) MaxNumberOfOneTimeKeys() int { return maxOneTimeKeys }

// GenerateOneTimeKeysRandomLength is the randomness GenerateOneTimeKeys
// consumes for count keys.
func (a *Account) GenerateOneTimeKeysRandomLength(count int) int {
	return count * crypto.Curve25519KeyLength
}

// GenerateOneTimeKeys adds count unpublished one-time keys with sequential IDs.
func (a *Account) GenerateOneTimeKeys(count int, random []byte) error {
	if count < 0 || len(random) < a.GenerateOneTimeKeysRandomLength(count) {
		return a.fail(ErrNotEnoughRandom)
	}
	fresh := make([]oneTimeKey, 0, count)
	for i := 0; i < count; i++ {
		kp, err := crypto.Curve25519FromRandom(random[i*crypto.Curve25519KeyLength:])
		if err != nil {
			for j := range fresh {
				fresh[j].key.Wipe()
			}
			return a.fail(err)
		}
		fresh = append(fresh, oneTimeKey{id: a.nextOneTimeKeyID + uint32(i) + 1, key: kp})
	}
	a.nextOneTimeKeyID += uint32(count)
	a.oneTimeKeys = append(a.oneTimeKeys, fresh...)

	if over := len(a.oneTimeKeys) - maxOneTimeKeys; over > 0 {
		for i := 0; i < over; i++ {
			a.oneTimeKeys[i].key.Wipe()
		}
		a.oneTimeKeys = append([]oneTimeKey(nil), a.oneTimeKeys[over:]...)
		log.Debugf("Discarded %d oldest one-time keys", over)
	}
	return nil
}

// OneTimeKeys lists the unpublished one-time keys.
func (a *Account) OneTimeKeys() OneTimeKeys {
	out := OneTimeKeys{Curve25519: make(map[string]Curve25519PublicKey)}
	for i := range a.oneTimeKeys {
		if k := &a.oneTimeKeys[i]; !k.published {
			out.Curve25519[k.keyID()] = k.key.Public
		}
	}
	return out
}

// MarkKeysAsPublished marks every one-time key and the current fallback key
// as published and returns how many were newly marked.
func (a *Account) MarkKeysAsPublished() int {
	n := 0
	for i := range a.oneTimeKeys {
		if !a.oneTimeKeys[i].published {
			a.oneTimeKeys[i].published = true
			n++
		}
	}
	if a.fallbackKey != nil && !a.fallbackKey.published {
		a.fallbackKey.published = true
		n++
	}
	return n
}

// GenerateFallbackKeyRandomLength is the randomness GenerateFallbackKey consumes.
func (a *Account) GenerateFallbackKeyRandomLength() int { return crypto.Curve25519KeyLength }

// GenerateFallbackKey replaces the current fallback key. The previous one
// stays usable until ForgetOldFallbackKey.
func (a *Account) GenerateFallbackKey(random []byte) error {
	kp, err := crypto.Curve25519FromRandom(random)
	if err != nil {
		return a.fail(err)
	}
	a.nextOneTimeKeyID++
	if a.prevFallbackKey != nil {
		a.prevFallbackKey.key.Wipe()
	}
	a.prevFallbackKey = a.fallbackKey
	a.fallbackKey = &oneTimeKey{id: a.nextOneTimeKeyID, key: kp}
	return nil
}

// UnpublishedFallbackKey lists the current fallback key if it is unpublished.
func (a *Account) UnpublishedFallbackKey() OneTimeKeys {
	out := OneTimeKeys{Curve25519: make(map[string]Curve25519PublicKey)}
	if k := a.fallbackKey; k != nil && !k.published {
		out.Curve25519[k.keyID()] = k.key.Public
	}
	return out
}

// ForgetOldFallbackKey erases the previous fallback key.
func (a *Account) ForgetOldFallbackKey() {
	if a.prevFallbackKey != nil {
		a.prevFallbackKey.key.Wipe()
		a.prevFallbackKey = nil
	}
}

// lookupKey finds the private key for a public one-time or fallback key.
func (a *Account) lookupKey(pub domain.X25519Public) (k *oneTimeKey, fallback bool) {
	for i := range a.oneTimeKeys {
		if a.oneTimeKeys[i].key.Public == pub {
			return &a.oneTimeKeys[i], false
		}
	}
	for _, fk := range []*oneTimeKey{a.fallbackKey, a.prevFallbackKey} {
		if fk != nil && fk.key.Public == pub {
			return fk, true
		}
	}
	return nil, false
}

// removeOneTimeKey erases the one-time key with public key pub. Fallback
// keys are never removed this way.
func (a *Account) removeOneTimeKey(pub domain.X25519Public) bool {
	for i := range a.oneTimeKeys {
		if a.oneTimeKeys[i].key.Public == pub {
			a.oneTimeKeys[i].key.Wipe()
			a.oneTimeKeys = append(a.oneTimeKeys[:i], a.oneTimeKeys[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveOneTimeKeys erases the one-time key an inbound session was created
// from. Inbound establishment already does this; the call reports whether
// a key was still present.
func (a *Account) RemoveOneTimeKeys(s *Session) bool {
	return a.removeOneTimeKey(s.bobOneTimeKey)
}

// Clear erases all key material. The account is unusable afterwards.
func (a *Account) Clear() {
	a.signing.Wipe()
	a.identity.Wipe()
	for i := range a.oneTimeKeys {
		a.oneTimeKeys[i].key.Wipe()
	}
	a.oneTimeKeys = nil
	if a.fallbackKey != nil {
		a.fallbackKey.key.Wipe()
	}
	a.fallbackKey = nil
	a.ForgetOldFallbackKey()
}

// PickleLength is the exact length of Pickle's output.
func (a *Account) PickleLength() int {
	raw := a.rawPickle().Raw()
	defer memzero.Zero(raw)
	return pickle.EncryptedLength(len(raw))
}

func pickleOneTimeKey(e *pickle.Encoder, k *oneTimeKey) {
	e.Uint32(k.id)
	e.Bool(k.published)
	e.Bytes(k.key.Public[:])
	e.Bytes(k.key.Private[:])
}

func unpickleOneTimeKey(d *pickle.Decoder) oneTimeKey {
	var k oneTimeKey
	k.id = d.Uint32()
	k.published = d.Bool()
	d.Read(k.key.Public[:])
	d.Read(k.key.Private[:])
	return k
}

func (a *Account) rawPickle() *pickle.Encoder {
	e := pickle.NewEncoder(accountPickleVersion)
	e.Bytes(a.signing.Public[:])
	e.Bytes(a.signing.Private[:])
	e.Bytes(a.identity.Public[:])
	e.Bytes(a.identity.Private[:])
	e.Uint32(uint32(len(a.oneTimeKeys)))
	for i := range a.oneTimeKeys {
		pickleOneTimeKey(e, &a.oneTimeKeys[i])
	}
	var fallbacks []*oneTimeKey
	for _, k := range []*oneTimeKey{a.fallbackKey, a.prevFallbackKey} {
		if k != nil {
			fallbacks = append(fallbacks, k)
		}
	}
	e.Uint8(uint8(len(fallbacks)))
	for _, k := range fallbacks {
		pickleOneTimeKey(e, k)
	}
	e.Uint32(a.nextOneTimeKeyID)
	return e
}

// Pickle returns the account encrypted under key, as unpadded base64.
func (a *Account) Pickle(key []byte) []byte {
	return pickle.SealEncoder(key, a.rawPickle())
}

// Unpickle replaces the account with the one in blob. On error the account
// is unchanged.
func (a *Account) Unpickle(key, blob []byte) error {
	fresh := &Account{}
	err := pickle.Unseal(key, blob, func(_ uint32, d *pickle.Decoder) error {
		d.Read(fresh.signing.Public[:])
		d.Read(fresh.signing.Private[:])
		d.Read(fresh.identity.Public[:])
		d.Read(fresh.identity.Private[:])
		n := d.Count(maxOneTimeKeys)
		for i := 0; i < n && d.Err() == nil; i++ {
			fresh.oneTimeKeys = append(fresh.oneTimeKeys, unpickleOneTimeKey(d))
		}
		switch d.Uint8() {
		case 0:
		case 1:
			k := unpickleOneTimeKey(d)
			fresh.fallbackKey = &k
		case 2:
			k, prev := unpickleOneTimeKey(d), unpickleOneTimeKey(d)
			fresh.fallbackKey, fresh.prevFallbackKey = &k, &prev
		default:
			return ErrCorruptedPickle
		}
		fresh.nextOneTimeKeyID = d.Uint32()
		return nil
	}, accountPickleVersion)
	if err != nil {
		fresh.Clear()
		return a.fail(err)
	}
	a.Clear()
	fresh.lastError = a.lastError
	*a = *fresh
	return nil
}

// UnpickleAccount restores an account from blob.
func UnpickleAccount(key, blob []byte) (*Account, error) {
	a := &Account{}
	if err := a.Unpickle(key, blob); err != nil {
		return nil, err
	}
	return a, nil
}
