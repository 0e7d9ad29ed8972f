package olm

import (
	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/pickle"
	"olm/internal/protocol/megolm"
	"olm/internal/protocol/message"
	"olm/internal/util/memzero"
)

const outboundGroupPickleVersion uint32 = 1

var groupCipher = crypto.NewAESSHA256("MEGOLM_KEYS")

// OutboundGroupSession encrypts to every holder of its session key.
type OutboundGroupSession struct {
	lastError

	ratchet megolm.Ratchet
	signing crypto.Ed25519KeyPair
}

// NewOutboundGroupSessionRandomLength is the randomness
// NewOutboundGroupSession consumes: the initial ratchet and a signing seed.
func NewOutboundGroupSessionRandomLength() int {
	return megolm.RatchetLength + crypto.Ed25519SeedLength
}

// NewOutboundGroupSession starts a group session at message index 0.
func NewOutboundGroupSession(random []byte) (*OutboundGroupSession, error) {
	if len(random) < NewOutboundGroupSessionRandomLength() {
		return nil, ErrNotEnoughRandom
	}
	signing, err := crypto.Ed25519FromSeed(random[megolm.RatchetLength:])
	if err != nil {
		return nil, err
	}
	g := &OutboundGroupSession{
		ratchet: megolm.New(random[:megolm.RatchetLength], 0),
		signing: signing,
	}
	log.Debugf("Created outbound group session %s", g.ID())
	return g, nil
}

// ID is the base64 Ed25519 public key that signs the session's messages.
func (g *OutboundGroupSession) ID() string { return g.signing.Public.String() }

// MessageIndex is the index of the next message Encrypt produces.
func (g *OutboundGroupSession) MessageIndex() uint32 { return g.ratchet.Counter }

// EncryptMessageLength is the exact length of the next Encrypt output for
// an n-byte plaintext.
func (g *OutboundGroupSession) EncryptMessageLength(n int) int {
	return message.GroupMessageLength(
		g.ratchet.Counter, groupCipher.CiphertextLength(n),
		crypto.MACLength, crypto.Ed25519SignatureLength,
	)
}

// Encrypt encrypts and signs plaintext at the current index, then advances
// the ratchet. The key for that index cannot be derived again.
func (g *OutboundGroupSession) Encrypt(plaintext []byte) []byte {
	keys := groupCipher.DeriveKeys(g.ratchet.Data[:])
	defer keys.Wipe()

	m := message.GroupMessage{
		MessageIndex: g.ratchet.Counter,
		Ciphertext:   keys.Encrypt(plaintext),
	}
	out := m.Encode(crypto.MACLength, crypto.Ed25519SignatureLength)
	out = append(out, keys.MAC(out)...)
	out = append(out, g.signing.Sign(out)...)

	g.ratchet.Advance()
	return out
}

// SessionKeyLength is the length of SessionKey's output.
func (g *OutboundGroupSession) SessionKeyLength() int {
	return domain.KeyEncoding.EncodedLen(message.SessionKeyLength)
}

// SessionKey exports the current ratchet state and signing key, signed, so
// that a recipient can decrypt every message from MessageIndex onwards.
func (g *OutboundGroupSession) SessionKey() string {
	k := message.SessionKey{
		Index:      g.ratchet.Counter,
		Ratchet:    g.ratchet.Data,
		SigningKey: g.signing.Public,
	}
	defer memzero.Zero(k.Ratchet[:])
	raw := k.EncodeUnsigned(message.SessionKeyVersion)
	raw = append(raw, g.signing.Sign(raw)...)
	defer memzero.Zero(raw)
	return crypto.EncodeBase64(raw)
}

// Clear erases all key material.
func (g *OutboundGroupSession) Clear() {
	g.ratchet.Wipe()
	g.signing.Wipe()
}

func (g *OutboundGroupSession) rawPickle() *pickle.Encoder {
	e := pickle.NewEncoder(outboundGroupPickleVersion)
	g.ratchet.Pickle(e)
	e.Bytes(g.signing.Public[:])
	e.Bytes(g.signing.Private[:])
	return e
}

// PickleLength is the exact length of Pickle's output.
func (g *OutboundGroupSession) PickleLength() int {
	raw := g.rawPickle().Raw()
	defer memzero.Zero(raw)
	return pickle.EncryptedLength(len(raw))
}

// Pickle returns the session encrypted under key, as unpadded base64.
func (g *OutboundGroupSession) Pickle(key []byte) []byte {
	return pickle.SealEncoder(key, g.rawPickle())
}

// Unpickle replaces the session with the one in blob. On error the session
// is unchanged.
func (g *OutboundGroupSession) Unpickle(key, blob []byte) error {
	fresh := &OutboundGroupSession{}
	err := pickle.Unseal(key, blob, func(_ uint32, d *pickle.Decoder) error {
		fresh.ratchet.Unpickle(d)
		d.Read(fresh.signing.Public[:])
		d.Read(fresh.signing.Private[:])
		return nil
	}, outboundGroupPickleVersion)
	if err != nil {
		fresh.Clear()
		return g.fail(err)
	}
	g.Clear()
	fresh.lastError = g.lastError
	*g = *fresh
	return nil
}

// UnpickleOutboundGroupSession restores an outbound group session from blob.
func UnpickleOutboundGroupSession(key, blob []byte) (*OutboundGroupSession, error) {
	g := &OutboundGroupSession{}
	if err := g.Unpickle(key, blob); err != nil {
		return nil, err
	}
	return g, nil
}
