package message

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"olm/internal/domain"
)

// Version is the only protocol version produced and accepted.
const Version = 3

const (
	ratchetKeyField protowire.Number = 1
	counterField    protowire.Number = 2
	ciphertextField protowire.Number = 4

	oneTimeKeyField  protowire.Number = 1
	baseKeyField     protowire.Number = 2
	identityKeyField protowire.Number = 3
	messageField     protowire.Number = 4
)

// OlmMessage is a pairwise ratchet message. The MAC follows the encoded
// body and is handled by the ratchet.
type OlmMessage struct {
	RatchetKey []byte
	Counter    uint32
	HasCounter bool
	Ciphertext []byte
}

// OlmMessageLength is the exact encoded length including the trailing MAC.
func OlmMessageLength(ratchetKeyLen int, counter uint32, ciphertextLen, macLen int) int {
	return 1 +
		protowire.SizeTag(ratchetKeyField) + protowire.SizeBytes(ratchetKeyLen) +
		protowire.SizeTag(counterField) + protowire.SizeVarint(uint64(counter)) +
		protowire.SizeTag(ciphertextField) + protowire.SizeBytes(ciphertextLen) +
		macLen
}

// Encode returns the body: version byte and fields, without the MAC.
// Capacity is reserved for a MAC of macLen bytes.
func (m *OlmMessage) Encode(macLen int) []byte {
	b := make([]byte, 0, OlmMessageLength(len(m.RatchetKey), m.Counter, len(m.Ciphertext), macLen))
	b = append(b, Version)
	b = protowire.AppendTag(b, ratchetKeyField, protowire.BytesType)
	b = protowire.AppendBytes(b, m.RatchetKey)
	b = protowire.AppendTag(b, counterField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Counter))
	b = protowire.AppendTag(b, ciphertextField, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Ciphertext)
	return b
}

// DecodeOlmMessage splits input into the parsed fields, the MAC'd body and
// the MAC. Unknown fields are skipped. Slices alias input.
func DecodeOlmMessage(input []byte, macLen int) (m OlmMessage, body, mac []byte, err error) {
	if len(input) == 0 {
		return m, nil, nil, domain.ErrBadMessageFormat
	}
	if input[0] != Version {
		return m, nil, nil, domain.ErrBadMessageVersion
	}
	if len(input) < 1+macLen {
		return m, nil, nil, domain.ErrBadMessageFormat
	}
	body, mac = input[:len(input)-macLen], input[len(input)-macLen:]

	err = walkFields(body[1:], func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == ratchetKeyField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.RatchetKey = v
			return n, nil
		case num == counterField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n >= 0 && v > math.MaxUint32 {
				return 0, domain.ErrBadMessageFormat
			}
			m.Counter, m.HasCounter = uint32(v), true
			return n, nil
		case num == ciphertextField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Ciphertext = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return m, body, mac, err
}

// PreKeyMessage carries the keys needed to establish an inbound session
// together with the first ratchet message.
type PreKeyMessage struct {
	OneTimeKey  []byte
	BaseKey     []byte
	IdentityKey []byte
	Message     []byte
}

// PreKeyMessageLength is the exact encoded length.
func PreKeyMessageLength(oneTimeKeyLen, baseKeyLen, identityKeyLen, messageLen int) int {
	return 1 +
		protowire.SizeTag(oneTimeKeyField) + protowire.SizeBytes(oneTimeKeyLen) +
		protowire.SizeTag(baseKeyField) + protowire.SizeBytes(baseKeyLen) +
		protowire.SizeTag(identityKeyField) + protowire.SizeBytes(identityKeyLen) +
		protowire.SizeTag(messageField) + protowire.SizeBytes(messageLen)
}

// Encode returns the encoded pre-key message.
func (m *PreKeyMessage) Encode() []byte {
	b := make([]byte, 0, PreKeyMessageLength(len(m.OneTimeKey), len(m.BaseKey), len(m.IdentityKey), len(m.Message)))
	b = append(b, Version)
	b = protowire.AppendTag(b, oneTimeKeyField, protowire.BytesType)
	b = protowire.AppendBytes(b, m.OneTimeKey)
	b = protowire.AppendTag(b, baseKeyField, protowire.BytesType)
	b = protowire.AppendBytes(b, m.BaseKey)
	b = protowire.AppendTag(b, identityKeyField, protowire.BytesType)
	b = protowire.AppendBytes(b, m.IdentityKey)
	b = protowire.AppendTag(b, messageField, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Message)
	return b
}

// DecodePreKeyMessage parses input. Slices alias input.
func DecodePreKeyMessage(input []byte) (m PreKeyMessage, err error) {
	if len(input) == 0 {
		return m, domain.ErrBadMessageFormat
	}
	if input[0] != Version {
		return m, domain.ErrBadMessageVersion
	}
	err = walkFields(input[1:], func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		switch num {
		case oneTimeKeyField:
			m.OneTimeKey = v
		case baseKeyField:
			m.BaseKey = v
		case identityKeyField:
			m.IdentityKey = v
		case messageField:
			m.Message = v
		}
		return n, nil
	})
	return m, err
}

// walkFields calls fn for every field in b. fn consumes the field value and
// returns its length, negative on a malformed value.
func walkFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return domain.ErrBadMessageFormat
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return domain.ErrBadMessageFormat
		}
		b = b[n:]
	}
	return nil
}
