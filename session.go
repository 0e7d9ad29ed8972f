package olm

import (
	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/pickle"
	"olm/internal/protocol/message"
	"olm/internal/protocol/ratchet"
	"olm/internal/protocol/x3dh"
	"olm/internal/util/memzero"
)

const sessionPickleVersion uint32 = 1

// Session is a pairwise double-ratchet session. Alice is the party that
// created it outbound; Bob is the owner of the one-time key.
type Session struct {
	lastError

	receivedMessage bool

	aliceIdentityKey domain.X25519Public
	aliceBaseKey     domain.X25519Public
	bobOneTimeKey    domain.X25519Public

	ratchet ratchet.State
}

// NewOutboundSessionRandomLength is the randomness NewOutboundSession
// consumes: a base key and the first sending ratchet key.
func NewOutboundSessionRandomLength() int { return 2 * crypto.Curve25519KeyLength }

// NewOutboundSession starts a session with the owner of theirIdentityKey,
// spending their published theirOneTimeKey.
func NewOutboundSession(a *Account, theirIdentityKey, theirOneTimeKey Curve25519PublicKey, random []byte) (*Session, error) {
	if len(random) < NewOutboundSessionRandomLength() {
		return nil, ErrNotEnoughRandom
	}
	base, err := crypto.Curve25519FromRandom(random)
	if err != nil {
		return nil, err
	}
	defer base.Wipe()
	ratchetKey, err := crypto.Curve25519FromRandom(random[crypto.Curve25519KeyLength:])
	if err != nil {
		return nil, err
	}

	secret, err := x3dh.OutboundSharedSecret(a.identity.Private, base.Private, theirIdentityKey, theirOneTimeKey)
	if err != nil {
		ratchetKey.Wipe()
		return nil, err
	}
	defer memzero.Zero(secret)

	s := &Session{
		aliceIdentityKey: a.identity.Public,
		aliceBaseKey:     base.Public,
		bobOneTimeKey:    theirOneTimeKey,
	}
	s.ratchet.InitialiseAsAlice(secret, ratchetKey)
	log.Debugf("Created outbound session %s", s.SessionID())
	return s, nil
}

// preKey is a decoded and length-checked pre-key message.
type preKey struct {
	identityKey domain.X25519Public
	baseKey     domain.X25519Public
	oneTimeKey  domain.X25519Public
	message     []byte
}

func decodePreKey(input []byte) (preKey, error) {
	var k preKey
	m, err := message.DecodePreKeyMessage(input)
	if err != nil {
		return k, err
	}
	if len(m.IdentityKey) != crypto.Curve25519KeyLength ||
		len(m.BaseKey) != crypto.Curve25519KeyLength ||
		len(m.OneTimeKey) != crypto.Curve25519KeyLength ||
		m.Message == nil {
		return k, ErrBadMessageFormat
	}
	copy(k.identityKey[:], m.IdentityKey)
	copy(k.baseKey[:], m.BaseKey)
	copy(k.oneTimeKey[:], m.OneTimeKey)
	k.message = m.Message
	return k, nil
}

// NewInboundSession establishes a session from a received pre-key message.
// The embedded message must authenticate before the one-time key is
// consumed. Fallback keys are never consumed. On error the account is
// unchanged.
func NewInboundSession(a *Account, preKeyMessage []byte) (*Session, error) {
	return newInboundSession(a, nil, preKeyMessage)
}

// NewInboundSessionFrom is NewInboundSession that also requires the message
// to come from theirIdentityKey.
func NewInboundSessionFrom(a *Account, theirIdentityKey Curve25519PublicKey, preKeyMessage []byte) (*Session, error) {
	return newInboundSession(a, &theirIdentityKey, preKeyMessage)
}

func newInboundSession(a *Account, theirIdentityKey *domain.X25519Public, input []byte) (*Session, error) {
	k, err := decodePreKey(input)
	if err != nil {
		return nil, a.fail(err)
	}
	if theirIdentityKey != nil && *theirIdentityKey != k.identityKey {
		return nil, a.fail(ErrUnknownOneTimeKey)
	}
	otk, fallback := a.lookupKey(k.oneTimeKey)
	if otk == nil {
		return nil, a.fail(ErrUnknownOneTimeKey)
	}

	inner, _, _, err := message.DecodeOlmMessage(k.message, crypto.MACLength)
	if err != nil {
		return nil, a.fail(err)
	}
	if len(inner.RatchetKey) != crypto.Curve25519KeyLength {
		return nil, a.fail(ErrBadMessageFormat)
	}
	var theirRatchetKey domain.X25519Public
	copy(theirRatchetKey[:], inner.RatchetKey)

	secret, err := x3dh.InboundSharedSecret(a.identity.Private, otk.key.Private, k.identityKey, k.baseKey)
	if err != nil {
		return nil, a.fail(err)
	}
	defer memzero.Zero(secret)

	s := &Session{
		receivedMessage:  true,
		aliceIdentityKey: k.identityKey,
		aliceBaseKey:     k.baseKey,
		bobOneTimeKey:    k.oneTimeKey,
	}
	s.ratchet.InitialiseAsBob(secret, theirRatchetKey)
	if err := s.ratchet.Verify(k.message); err != nil {
		s.ratchet.Wipe()
		return nil, a.fail(err)
	}

	if !fallback {
		a.removeOneTimeKey(k.oneTimeKey)
	}
	log.Debugf("Created inbound session %s (fallback key: %v)", s.SessionID(), fallback)
	return s, nil
}

func (s *Session) matches(k preKey) bool {
	return k.identityKey == s.aliceIdentityKey &&
		k.baseKey == s.aliceBaseKey &&
		k.oneTimeKey == s.bobOneTimeKey
}

// MatchesInboundSession reports whether a pre-key message belongs to this
// session. It never changes the session.
func (s *Session) MatchesInboundSession(preKeyMessage []byte) (bool, error) {
	k, err := decodePreKey(preKeyMessage)
	if err != nil {
		return false, s.fail(err)
	}
	return s.matches(k), nil
}

// MatchesInboundSessionFrom is MatchesInboundSession that also requires the
// sender to be theirIdentityKey.
func (s *Session) MatchesInboundSessionFrom(theirIdentityKey Curve25519PublicKey, preKeyMessage []byte) (bool, error) {
	k, err := decodePreKey(preKeyMessage)
	if err != nil {
		return false, s.fail(err)
	}
	return k.identityKey == theirIdentityKey && s.matches(k), nil
}

// SessionID identifies the session identically on both sides.
func (s *Session) SessionID() string {
	sum := crypto.SHA256(s.aliceIdentityKey[:], s.aliceBaseKey[:], s.bobOneTimeKey[:])
	return crypto.EncodeBase64(sum[:])
}

// HasReceivedMessage reports whether the session has decrypted a message
// (or was created from one).
func (s *Session) HasReceivedMessage() bool { return s.receivedMessage }

// EncryptMessageType is the type the next Encrypt produces.
func (s *Session) EncryptMessageType() MessageType {
	if s.receivedMessage {
		return MessageTypeMessage
	}
	return MessageTypePreKey
}

// EncryptRandomLength is the randomness the next Encrypt consumes.
func (s *Session) EncryptRandomLength() int { return s.ratchet.EncryptRandomLength() }

// EncryptMessageLength is the exact length of the next Encrypt output for
// an n-byte plaintext.
func (s *Session) EncryptMessageLength(n int) int {
	l := s.ratchet.EncryptOutputLength(n)
	if s.receivedMessage {
		return l
	}
	kl := crypto.Curve25519KeyLength
	return message.PreKeyMessageLength(kl, kl, kl, l)
}

// Encrypt encrypts plaintext. Until a message has been received the output
// is a pre-key message carrying what the peer needs to establish the
// session.
func (s *Session) Encrypt(plaintext, random []byte) (MessageType, []byte, error) {
	inner, err := s.ratchet.Encrypt(plaintext, random)
	if err != nil {
		return 0, nil, s.fail(err)
	}
	if s.receivedMessage {
		return MessageTypeMessage, inner, nil
	}
	m := message.PreKeyMessage{
		OneTimeKey:  s.bobOneTimeKey.Slice(),
		BaseKey:     s.aliceBaseKey.Slice(),
		IdentityKey: s.aliceIdentityKey.Slice(),
		Message:     inner,
	}
	return MessageTypePreKey, m.Encode(), nil
}

// innerMessage returns the ratchet message of input, checking that pre-key
// messages belong to this session.
func (s *Session) innerMessage(t MessageType, input []byte) ([]byte, error) {
	switch t {
	case MessageTypeMessage:
		return input, nil
	case MessageTypePreKey:
		k, err := decodePreKey(input)
		if err != nil {
			return nil, err
		}
		if !s.matches(k) {
			return nil, ErrUnknownOneTimeKey
		}
		return k.message, nil
	}
	return nil, ErrBadMessageFormat
}

// DecryptMaxPlaintextLength bounds the plaintext Decrypt returns for input.
func (s *Session) DecryptMaxPlaintextLength(t MessageType, input []byte) (int, error) {
	inner, err := s.innerMessage(t, input)
	if err != nil {
		return 0, s.fail(err)
	}
	n, err := ratchet.MaxPlaintextLength(inner)
	return n, s.fail(err)
}

// Decrypt authenticates and decrypts input. On error the session is
// unchanged.
func (s *Session) Decrypt(t MessageType, input []byte) ([]byte, error) {
	inner, err := s.innerMessage(t, input)
	if err != nil {
		return nil, s.fail(err)
	}
	plaintext, err := s.ratchet.Decrypt(inner)
	if err != nil {
		return nil, s.fail(err)
	}
	s.receivedMessage = true
	return plaintext, nil
}

// Describe summarises the ratchet for debugging. It reveals no key material.
func (s *Session) Describe() string { return s.ratchet.Describe() }

// Clear erases all key material. The session is unusable afterwards.
func (s *Session) Clear() { s.ratchet.Wipe() }

func (s *Session) rawPickle() *pickle.Encoder {
	e := pickle.NewEncoder(sessionPickleVersion)
	e.Bool(s.receivedMessage)
	e.Bytes(s.aliceIdentityKey[:])
	e.Bytes(s.aliceBaseKey[:])
	e.Bytes(s.bobOneTimeKey[:])
	s.ratchet.Pickle(e)
	return e
}

// PickleLength is the exact length of Pickle's output.
func (s *Session) PickleLength() int {
	raw := s.rawPickle().Raw()
	defer memzero.Zero(raw)
	return pickle.EncryptedLength(len(raw))
}

// Pickle returns the session encrypted under key, as unpadded base64.
func (s *Session) Pickle(key []byte) []byte {
	return pickle.SealEncoder(key, s.rawPickle())
}

// Unpickle replaces the session with the one in blob. On error the session
// is unchanged.
func (s *Session) Unpickle(key, blob []byte) error {
	fresh := &Session{}
	err := pickle.Unseal(key, blob, func(_ uint32, d *pickle.Decoder) error {
		fresh.receivedMessage = d.Bool()
		d.Read(fresh.aliceIdentityKey[:])
		d.Read(fresh.aliceBaseKey[:])
		d.Read(fresh.bobOneTimeKey[:])
		return fresh.ratchet.Unpickle(d)
	}, sessionPickleVersion)
	if err != nil {
		fresh.Clear()
		return s.fail(err)
	}
	s.Clear()
	fresh.lastError = s.lastError
	*s = *fresh
	return nil
}

// UnpickleSession restores a session from blob.
func UnpickleSession(key, blob []byte) (*Session, error) {
	s := &Session{}
	if err := s.Unpickle(key, blob); err != nil {
		return nil, err
	}
	return s, nil
}
