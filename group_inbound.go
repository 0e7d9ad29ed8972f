package olm

import (
	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/pickle"
	"olm/internal/protocol/megolm"
	"olm/internal/protocol/message"
	"olm/internal/util/memzero"
)

const inboundGroupPickleVersion uint32 = 1

// InboundGroupSession decrypts the messages of one OutboundGroupSession.
//
// By default the session only moves forward: once index N has been
// decrypted, nothing at or below N can be decrypted again and the key
// material for those indices is gone. WithRetainedHistory keeps the imported
// checkpoint instead, so any index from FirstKnownIndex onwards stays
// decryptable in any order.
type InboundGroupSession struct {
	lastError

	// initial is the earliest derivable state; latest is the furthest the
	// session has decrypted. They are equal unless history is retained.
	initial megolm.Ratchet
	latest  megolm.Ratchet

	signingKey    domain.Ed25519Public
	verified      bool
	retainHistory bool
}

// InboundGroupOption configures a new InboundGroupSession.
type InboundGroupOption func(*InboundGroupSession)

// WithRetainedHistory keeps the imported checkpoint so that messages can be
// decrypted in any order and more than once.
func WithRetainedHistory() InboundGroupOption {
	return func(g *InboundGroupSession) { g.retainHistory = true }
}

func newInboundGroupSession(k *message.SessionKey, verified bool, opts []InboundGroupOption) *InboundGroupSession {
	r := megolm.New(k.Ratchet[:], k.Index)
	g := &InboundGroupSession{
		initial:    r,
		latest:     r,
		signingKey: k.SigningKey,
		verified:   verified,
	}
	memzero.Zero(r.Data[:])
	for _, opt := range opts {
		opt(g)
	}
	log.Debugf("Created inbound group session %s at index %d", g.ID(), k.Index)
	return g
}

func decodeCheckpoint(s string) ([]byte, error) {
	return crypto.DecodeBase64([]byte(s))
}

// NewInboundGroupSession creates a session from an OutboundGroupSession's
// SessionKey. The key's signature must verify.
func NewInboundGroupSession(sessionKey string, opts ...InboundGroupOption) (*InboundGroupSession, error) {
	raw, err := decodeCheckpoint(sessionKey)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)
	k, signed, err := message.DecodeSessionKey(raw)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(k.Ratchet[:])
	if !crypto.VerifyEd25519(k.SigningKey, signed, k.Signature) {
		return nil, ErrBadSignature
	}
	return newInboundGroupSession(&k, true, opts), nil
}

// ImportInboundGroupSession creates a session from the output of Export.
// Exports carry no signature, so the session is unverified until it has
// decrypted a message signed by its key.
func ImportInboundGroupSession(exported string, opts ...InboundGroupOption) (*InboundGroupSession, error) {
	raw, err := decodeCheckpoint(exported)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)
	k, err := message.DecodeExportedSession(raw)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(k.Ratchet[:])
	return newInboundGroupSession(&k, false, opts), nil
}

// ID is the base64 Ed25519 public key the session's messages are signed with.
func (g *InboundGroupSession) ID() string { return g.signingKey.String() }

// FirstKnownIndex is the lowest message index the session can decrypt.
func (g *InboundGroupSession) FirstKnownIndex() uint32 { return g.initial.Counter }

// IsVerified reports whether the signing key is known to be authentic:
// it came with a signed session key, or a message signed by it decrypted.
func (g *InboundGroupSession) IsVerified() bool { return g.verified }

// RetainsHistory reports whether the session was created WithRetainedHistory.
func (g *InboundGroupSession) RetainsHistory() bool { return g.retainHistory }

// ratchetAt returns a copy of the state advanced to index, which must not
// be below FirstKnownIndex. The caller wipes it.
func (g *InboundGroupSession) ratchetAt(index uint32) megolm.Ratchet {
	r := g.initial
	if index >= g.latest.Counter {
		r = g.latest
	}
	r.AdvanceTo(index)
	return r
}

func parseGroupMessage(input []byte) (m message.GroupMessage, body, mac, sig []byte, err error) {
	m, body, mac, sig, err = message.DecodeGroupMessage(input, crypto.MACLength, crypto.Ed25519SignatureLength)
	if err != nil {
		return m, nil, nil, nil, err
	}
	if !m.HasMessageIndex || m.Ciphertext == nil {
		return m, nil, nil, nil, ErrBadMessageFormat
	}
	return m, body, mac, sig, nil
}

// DecryptMaxPlaintextLength bounds the plaintext Decrypt returns for input.
func (g *InboundGroupSession) DecryptMaxPlaintextLength(input []byte) (int, error) {
	m, _, _, _, err := parseGroupMessage(input)
	if err != nil {
		return 0, g.fail(err)
	}
	return len(m.Ciphertext), nil
}

// Decrypt verifies the signature of input before deriving any key, then
// decrypts it and returns the plaintext with its message index. On error the
// session is unchanged.
func (g *InboundGroupSession) Decrypt(input []byte) ([]byte, uint32, error) {
	m, body, mac, sig, err := parseGroupMessage(input)
	if err != nil {
		return nil, 0, g.fail(err)
	}
	if !crypto.VerifyEd25519(g.signingKey, input[:len(input)-len(sig)], sig) {
		return nil, 0, g.fail(ErrBadSignature)
	}
	if m.MessageIndex < g.initial.Counter {
		return nil, 0, g.fail(ErrIndexTooOld)
	}

	r := g.ratchetAt(m.MessageIndex)
	keys := groupCipher.DeriveKeys(r.Data[:])
	defer keys.Wipe()
	if !keys.VerifyMAC(body, mac) {
		r.Wipe()
		return nil, 0, g.fail(ErrBadMessageMAC)
	}
	plaintext, err := keys.Decrypt(m.Ciphertext)
	if err != nil {
		r.Wipe()
		return nil, 0, g.fail(err)
	}

	g.verified = true
	switch {
	case !g.retainHistory:
		r.Advance()
		g.initial.Wipe()
		g.latest.Wipe()
		g.initial, g.latest = r, r
	case m.MessageIndex >= g.latest.Counter:
		g.latest.Wipe()
		g.latest = r
	default:
		r.Wipe()
	}
	return plaintext, m.MessageIndex, nil
}

// ExportLength is the length of Export's output.
func (g *InboundGroupSession) ExportLength() int {
	return domain.KeyEncoding.EncodedLen(message.ExportedSessionLength)
}

// Export serialises the ratchet at index, which must not be below
// FirstKnownIndex. The result decrypts messages from index onwards only.
func (g *InboundGroupSession) Export(index uint32) (string, error) {
	if index < g.initial.Counter {
		return "", g.fail(ErrIndexTooOld)
	}
	r := g.ratchetAt(index)
	defer r.Wipe()
	k := message.SessionKey{Index: index, Ratchet: r.Data, SigningKey: g.signingKey}
	defer memzero.Zero(k.Ratchet[:])
	raw := k.EncodeUnsigned(message.ExportedSessionVersion)
	defer memzero.Zero(raw)
	return crypto.EncodeBase64(raw), nil
}

// Clear erases all key material.
func (g *InboundGroupSession) Clear() {
	g.initial.Wipe()
	g.latest.Wipe()
}

func (g *InboundGroupSession) rawPickle() *pickle.Encoder {
	e := pickle.NewEncoder(inboundGroupPickleVersion)
	g.initial.Pickle(e)
	g.latest.Pickle(e)
	e.Bytes(g.signingKey[:])
	e.Bool(g.verified)
	e.Bool(g.retainHistory)
	return e
}

// PickleLength is the exact length of Pickle's output.
func (g *InboundGroupSession) PickleLength() int {
	raw := g.rawPickle().Raw()
	defer memzero.Zero(raw)
	return pickle.EncryptedLength(len(raw))
}

// Pickle returns the session encrypted under key, as unpadded base64.
func (g *InboundGroupSession) Pickle(key []byte) []byte {
	return pickle.SealEncoder(key, g.rawPickle())
}

// Unpickle replaces the session with the one in blob. On error the session
// is unchanged.
func (g *InboundGroupSession) Unpickle(key, blob []byte) error {
	fresh := &InboundGroupSession{}
	err := pickle.Unseal(key, blob, func(_ uint32, d *pickle.Decoder) error {
		fresh.initial.Unpickle(d)
		fresh.latest.Unpickle(d)
		d.Read(fresh.signingKey[:])
		fresh.verified = d.Bool()
		fresh.retainHistory = d.Bool()
		if d.Err() == nil && fresh.latest.Counter < fresh.initial.Counter {
			return ErrCorruptedPickle
		}
		return nil
	}, inboundGroupPickleVersion)
	if err != nil {
		fresh.Clear()
		return g.fail(err)
	}
	g.Clear()
	fresh.lastError = g.lastError
	*g = *fresh
	return nil
}

// UnpickleInboundGroupSession restores an inbound group session from blob.
func UnpickleInboundGroupSession(key, blob []byte) (*InboundGroupSession, error) {
	g := &InboundGroupSession{}
	if err := g.Unpickle(key, blob); err != nil {
		return nil, err
	}
	return g, nil
}
