package ratchet

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/pickle"
	"olm/internal/protocol/message"
	"olm/internal/util/memzero"
)

const (
	// MaxReceiverChains bounds the receiver chains kept, newest first.
	MaxReceiverChains = 5
	// MaxSkippedMessageKeys bounds the skipped-key cache; the oldest key is
	// evicted first.
	MaxSkippedMessageKeys = 40
	// MaxMessageGap is the furthest a message may jump ahead of its chain.
	MaxMessageGap = 2000
)

var (
	rootInfo      = []byte("OLM_ROOT")
	ratchetInfo   = []byte("OLM_RATCHET")
	messageCipher = crypto.NewAESSHA256("OLM_KEYS")

	messageKeySeed = []byte{0x01}
	chainKeySeed   = []byte{0x02}

	errNoReceiverChain = errors.New("ratchet has neither a sender nor a receiver chain")
)

// ChainKey is a symmetric chain key and the index of the next message key it
// yields.
type ChainKey struct {
	Key   [32]byte
	Index uint32
}

func (c *ChainKey) messageKey() MessageKey {
	mk := MessageKey{Index: c.Index}
	sum := crypto.HMACSHA256(c.Key[:], messageKeySeed)
	copy(mk.Key[:], sum)
	memzero.Zero(sum)
	return mk
}

func (c *ChainKey) next() ChainKey {
	n := ChainKey{Index: c.Index + 1}
	sum := crypto.HMACSHA256(c.Key[:], chainKeySeed)
	copy(n.Key[:], sum)
	memzero.Zero(sum)
	return n
}

func (c *ChainKey) wipe() { memzero.Zero32(&c.Key) }

// MessageKey encrypts exactly one message.
type MessageKey struct {
	Key   [32]byte
	Index uint32
}

func (m *MessageKey) wipe() { memzero.Zero32(&m.Key) }

// SenderChain is our current ratchet key and the chain derived from it.
type SenderChain struct {
	RatchetKey crypto.Curve25519KeyPair
	ChainKey   ChainKey
}

// ReceiverChain is a chain keyed by one of the peer's ratchet keys.
type ReceiverChain struct {
	RatchetKey domain.X25519Public
	ChainKey   ChainKey
}

// SkippedMessageKey is a message key derived ahead of delivery.
type SkippedMessageKey struct {
	RatchetKey domain.X25519Public
	MessageKey MessageKey
}

// State is the pairwise double ratchet. The zero value is uninitialised.
type State struct {
	RootKey            [32]byte
	SenderChain        *SenderChain
	ReceiverChains     []ReceiverChain
	SkippedMessageKeys []SkippedMessageKey
}

// InitialiseAsAlice seeds the ratchet of the session initiator, who sends
// first on ourRatchetKey.
func (s *State) InitialiseAsAlice(sharedSecret []byte, ourRatchetKey crypto.Curve25519KeyPair) {
	okm := crypto.HKDF(sharedSecret, nil, rootInfo, 64)
	defer memzero.Zero(okm)
	copy(s.RootKey[:], okm[:32])
	s.SenderChain = &SenderChain{RatchetKey: ourRatchetKey}
	copy(s.SenderChain.ChainKey.Key[:], okm[32:])
}

// InitialiseAsBob seeds the ratchet of the responder, whose first receiver
// chain belongs to theirRatchetKey.
func (s *State) InitialiseAsBob(sharedSecret []byte, theirRatchetKey domain.X25519Public) {
	okm := crypto.HKDF(sharedSecret, nil, rootInfo, 64)
	defer memzero.Zero(okm)
	copy(s.RootKey[:], okm[:32])
	chain := ReceiverChain{RatchetKey: theirRatchetKey}
	copy(chain.ChainKey.Key[:], okm[32:])
	s.ReceiverChains = []ReceiverChain{chain}
}

// createChainKey performs a DH ratchet step from rootKey.
func createChainKey(rootKey [32]byte, ours domain.X25519Private, theirs domain.X25519Public) (newRoot [32]byte, chain ChainKey, err error) {
	secret, err := crypto.DH(ours, theirs)
	if err != nil {
		return newRoot, chain, err
	}
	defer memzero.Zero32(&secret)
	okm := crypto.HKDF(secret[:], rootKey[:], ratchetInfo, 64)
	defer memzero.Zero(okm)
	copy(newRoot[:], okm[:32])
	copy(chain.Key[:], okm[32:])
	return newRoot, chain, nil
}

// EncryptRandomLength is 32 when the next encrypt starts a new sender chain.
func (s *State) EncryptRandomLength() int {
	if s.SenderChain == nil {
		return crypto.Curve25519KeyLength
	}
	return 0
}

// EncryptOutputLength is the exact length of the message Encrypt produces for
// an n-byte plaintext in the current state.
func (s *State) EncryptOutputLength(n int) int {
	var counter uint32
	if s.SenderChain != nil {
		counter = s.SenderChain.ChainKey.Index
	}
	return message.OlmMessageLength(
		crypto.Curve25519KeyLength, counter, messageCipher.CiphertextLength(n), crypto.MACLength,
	)
}

// Encrypt produces the next message. random must hold EncryptRandomLength
// bytes. On error the state is untouched.
func (s *State) Encrypt(plaintext, random []byte) ([]byte, error) {
	if len(random) < s.EncryptRandomLength() {
		return nil, domain.ErrNotEnoughRandom
	}

	chain := s.SenderChain
	var newRoot [32]byte
	if chain == nil {
		if len(s.ReceiverChains) == 0 {
			return nil, errNoReceiverChain
		}
		kp, err := crypto.Curve25519FromRandom(random)
		if err != nil {
			return nil, err
		}
		root, ck, err := createChainKey(s.RootKey, kp.Private, s.ReceiverChains[0].RatchetKey)
		if err != nil {
			kp.Wipe()
			return nil, err
		}
		newRoot = root
		chain = &SenderChain{RatchetKey: kp, ChainKey: ck}
	}

	mk := chain.ChainKey.messageKey()
	defer mk.wipe()
	keys := messageCipher.DeriveKeys(mk.Key[:])
	defer keys.Wipe()

	m := message.OlmMessage{
		RatchetKey: chain.RatchetKey.Public.Slice(),
		Counter:    chain.ChainKey.Index,
		Ciphertext: keys.Encrypt(plaintext),
	}
	out := m.Encode(crypto.MACLength)
	out = append(out, keys.MAC(out)...)

	if chain != s.SenderChain {
		memzero.Zero32(&s.RootKey)
		s.RootKey = newRoot
		memzero.Zero32(&newRoot)
		s.SenderChain = chain
		log.Tracef("Started sender chain %s", chain.RatchetKey.Public)
	}
	next := chain.ChainKey.next()
	chain.ChainKey.wipe()
	chain.ChainKey = next
	return out, nil
}

// pending is a fully derived but uncommitted decryption step.
type pending struct {
	theirKey domain.X25519Public
	mk       MessageKey

	// chainIdx is the receiver chain advanced, -1 for a new chain.
	chainIdx int
	next     ChainKey
	newRoot  [32]byte
	skipped  []MessageKey

	// skippedIdx is the cached key used, -1 if none.
	skippedIdx int
}

func (p *pending) wipe() {
	p.mk.wipe()
	p.next.wipe()
	memzero.Zero32(&p.newRoot)
	for i := range p.skipped {
		p.skipped[i].wipe()
	}
}

// parse decodes input and validates the fields a ratchet message needs.
func parse(input []byte) (m message.OlmMessage, theirKey domain.X25519Public, body, mac []byte, err error) {
	m, body, mac, err = message.DecodeOlmMessage(input, crypto.MACLength)
	if err != nil {
		return m, theirKey, nil, nil, err
	}
	if len(m.RatchetKey) != crypto.Curve25519KeyLength || !m.HasCounter || m.Ciphertext == nil {
		return m, theirKey, nil, nil, domain.ErrBadMessageFormat
	}
	copy(theirKey[:], m.RatchetKey)
	return m, theirKey, body, mac, nil
}

func (s *State) findReceiverChain(key domain.X25519Public) int {
	for i := range s.ReceiverChains {
		if subtle.ConstantTimeCompare(s.ReceiverChains[i].RatchetKey[:], key[:]) == 1 {
			return i
		}
	}
	return -1
}

// prepare derives everything needed to decrypt m without touching s.
func (s *State) prepare(m message.OlmMessage, theirKey domain.X25519Public) (*pending, error) {
	p := &pending{theirKey: theirKey, chainIdx: -1, skippedIdx: -1}

	idx := s.findReceiverChain(theirKey)
	var from ChainKey
	switch {
	case idx < 0:
		// A new ratchet key is only legitimate once we have sent on a chain
		// of our own for the peer to answer.
		if s.SenderChain == nil {
			return nil, domain.ErrBadMessageMAC
		}
		if m.Counter > MaxMessageGap {
			return nil, domain.ErrBadMessageFormat
		}
		root, ck, err := createChainKey(s.RootKey, s.SenderChain.RatchetKey.Private, theirKey)
		if err != nil {
			return nil, err
		}
		p.newRoot, from = root, ck
		defer from.wipe()

	case m.Counter < s.ReceiverChains[idx].ChainKey.Index:
		for i := range s.SkippedMessageKeys {
			sk := &s.SkippedMessageKeys[i]
			if sk.MessageKey.Index == m.Counter && sk.RatchetKey == theirKey {
				p.skippedIdx = i
				p.mk = sk.MessageKey
				return p, nil
			}
		}
		return nil, domain.ErrIndexTooOld

	default:
		p.chainIdx = idx
		from = s.ReceiverChains[idx].ChainKey
		defer from.wipe()
		if m.Counter-from.Index > MaxMessageGap {
			return nil, domain.ErrBadMessageFormat
		}
	}

	cur := from
	for cur.Index < m.Counter {
		p.skipped = append(p.skipped, cur.messageKey())
		nxt := cur.next()
		cur.wipe()
		cur = nxt
	}
	p.mk = cur.messageKey()
	p.next = cur.next()
	cur.wipe()
	return p, nil
}

// commit applies a verified decryption step.
func (s *State) commit(p *pending) {
	switch {
	case p.skippedIdx >= 0:
		s.SkippedMessageKeys[p.skippedIdx].MessageKey.wipe()
		s.SkippedMessageKeys = append(s.SkippedMessageKeys[:p.skippedIdx], s.SkippedMessageKeys[p.skippedIdx+1:]...)
		return

	case p.chainIdx < 0:
		memzero.Zero32(&s.RootKey)
		s.RootKey = p.newRoot
		chains := append([]ReceiverChain{{RatchetKey: p.theirKey, ChainKey: p.next}}, s.ReceiverChains...)
		for i := MaxReceiverChains; i < len(chains); i++ {
			chains[i].ChainKey.wipe()
		}
		if len(chains) > MaxReceiverChains {
			chains = chains[:MaxReceiverChains]
		}
		s.ReceiverChains = chains
		// The peer has seen our ratchet key; the next send starts a new chain.
		s.SenderChain.RatchetKey.Wipe()
		s.SenderChain.ChainKey.wipe()
		s.SenderChain = nil
		log.Tracef("New receiver chain %s, %d chains kept", p.theirKey, len(s.ReceiverChains))

	default:
		chain := &s.ReceiverChains[p.chainIdx]
		chain.ChainKey.wipe()
		chain.ChainKey = p.next
	}

	if len(p.skipped) > 0 {
		merged := make([]SkippedMessageKey, 0, len(p.skipped)+len(s.SkippedMessageKeys))
		for i := len(p.skipped) - 1; i >= 0; i-- {
			merged = append(merged, SkippedMessageKey{RatchetKey: p.theirKey, MessageKey: p.skipped[i]})
		}
		s.SkippedMessageKeys = append(merged, s.SkippedMessageKeys...)
	}
	if n := len(s.SkippedMessageKeys); n > MaxSkippedMessageKeys {
		for i := MaxSkippedMessageKeys; i < n; i++ {
			s.SkippedMessageKeys[i].MessageKey.wipe()
		}
		s.SkippedMessageKeys = s.SkippedMessageKeys[:MaxSkippedMessageKeys]
		log.Debugf("Evicted %d skipped message keys", n-MaxSkippedMessageKeys)
	}
}

// Decrypt authenticates and decrypts input, advancing the ratchet only when
// the whole operation succeeds.
func (s *State) Decrypt(input []byte) ([]byte, error) {
	m, theirKey, body, mac, err := parse(input)
	if err != nil {
		return nil, err
	}
	p, err := s.prepare(m, theirKey)
	if err != nil {
		return nil, err
	}
	defer p.wipe()

	keys := messageCipher.DeriveKeys(p.mk.Key[:])
	defer keys.Wipe()
	if !keys.VerifyMAC(body, mac) {
		return nil, domain.ErrBadMessageMAC
	}
	plaintext, err := keys.Decrypt(m.Ciphertext)
	if err != nil {
		return nil, err
	}
	s.commit(p)
	return plaintext, nil
}

// Verify checks that input authenticates under the current state without
// changing it.
func (s *State) Verify(input []byte) error {
	m, theirKey, body, mac, err := parse(input)
	if err != nil {
		return err
	}
	p, err := s.prepare(m, theirKey)
	if err != nil {
		return err
	}
	defer p.wipe()

	keys := messageCipher.DeriveKeys(p.mk.Key[:])
	defer keys.Wipe()
	if !keys.VerifyMAC(body, mac) {
		return domain.ErrBadMessageMAC
	}
	return nil
}

// MaxPlaintextLength bounds the plaintext of input, which must be framed
// correctly.
func MaxPlaintextLength(input []byte) (int, error) {
	m, _, _, _, err := parse(input)
	if err != nil {
		return 0, err
	}
	return len(m.Ciphertext), nil
}

// Wipe zeroes all key material and resets s.
func (s *State) Wipe() {
	memzero.Zero32(&s.RootKey)
	if s.SenderChain != nil {
		s.SenderChain.RatchetKey.Wipe()
		s.SenderChain.ChainKey.wipe()
		s.SenderChain = nil
	}
	for i := range s.ReceiverChains {
		s.ReceiverChains[i].ChainKey.wipe()
	}
	for i := range s.SkippedMessageKeys {
		s.SkippedMessageKeys[i].MessageKey.wipe()
	}
	s.ReceiverChains, s.SkippedMessageKeys = nil, nil
}

// Describe summarises chain indices for debugging. It contains no secrets.
func (s *State) Describe() string {
	var b strings.Builder
	b.WriteString("sender chain index: ")
	if s.SenderChain != nil {
		fmt.Fprintf(&b, "%d", s.SenderChain.ChainKey.Index)
	}
	b.WriteString(" receiver chain indices:")
	for _, c := range s.ReceiverChains {
		fmt.Fprintf(&b, " %d", c.ChainKey.Index)
	}
	b.WriteString(" skipped message keys:")
	for _, k := range s.SkippedMessageKeys {
		fmt.Fprintf(&b, " %d", k.MessageKey.Index)
	}
	return b.String()
}

// Pickle appends the ratchet to e.
func (s *State) Pickle(e *pickle.Encoder) {
	e.Bytes(s.RootKey[:])
	if s.SenderChain != nil {
		e.Uint32(1)
		e.Bytes(s.SenderChain.RatchetKey.Public[:])
		e.Bytes(s.SenderChain.RatchetKey.Private[:])
		e.Bytes(s.SenderChain.ChainKey.Key[:])
		e.Uint32(s.SenderChain.ChainKey.Index)
	} else {
		e.Uint32(0)
	}
	e.Uint32(uint32(len(s.ReceiverChains)))
	for _, c := range s.ReceiverChains {
		e.Bytes(c.RatchetKey[:])
		e.Bytes(c.ChainKey.Key[:])
		e.Uint32(c.ChainKey.Index)
	}
	e.Uint32(uint32(len(s.SkippedMessageKeys)))
	for _, k := range s.SkippedMessageKeys {
		e.Bytes(k.RatchetKey[:])
		e.Bytes(k.MessageKey.Key[:])
		e.Uint32(k.MessageKey.Index)
	}
}

// Unpickle reads a ratchet written by Pickle into s, which should be fresh.
func (s *State) Unpickle(d *pickle.Decoder) error {
	d.Read(s.RootKey[:])
	switch d.Count(1) {
	case 1:
		c := &SenderChain{}
		d.Read(c.RatchetKey.Public[:])
		d.Read(c.RatchetKey.Private[:])
		d.Read(c.ChainKey.Key[:])
		c.ChainKey.Index = d.Uint32()
		s.SenderChain = c
	}
	n := d.Count(MaxReceiverChains)
	for i := 0; i < n && d.Err() == nil; i++ {
		var c ReceiverChain
		d.Read(c.RatchetKey[:])
		d.Read(c.ChainKey.Key[:])
		c.ChainKey.Index = d.Uint32()
		s.ReceiverChains = append(s.ReceiverChains, c)
	}
	n = d.Count(MaxSkippedMessageKeys)
	for i := 0; i < n && d.Err() == nil; i++ {
		var k SkippedMessageKey
		d.Read(k.RatchetKey[:])
		d.Read(k.MessageKey.Key[:])
		k.MessageKey.Index = d.Uint32()
		s.SkippedMessageKeys = append(s.SkippedMessageKeys, k)
	}
	if err := d.Err(); err != nil {
		s.Wipe()
		return err
	}
	if s.SenderChain == nil && len(s.ReceiverChains) == 0 {
		return fmt.Errorf("%w: ratchet has no chains", domain.ErrCorruptedPickle)
	}
	return nil
}

// SenderRatchetKey returns our current ratchet public key, if any.
func (s *State) SenderRatchetKey() (domain.X25519Public, bool) {
	if s.SenderChain == nil {
		return domain.X25519Public{}, false
	}
	return s.SenderChain.RatchetKey.Public, true
}

// Equal reports whether two states hold identical key material.
func (s *State) Equal(o *State) bool {
	ea, eb := pickle.NewEncoder(0), pickle.NewEncoder(0)
	s.Pickle(ea)
	o.Pickle(eb)
	defer memzero.Zero(ea.Raw())
	defer memzero.Zero(eb.Raw())
	return bytes.Equal(ea.Raw(), eb.Raw())
}
