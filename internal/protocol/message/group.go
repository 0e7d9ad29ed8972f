package message

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"olm/internal/domain"
)

const (
	messageIndexField    protowire.Number = 1
	groupCiphertextField protowire.Number = 2
)

// GroupMessage is a group ratchet message. The encoded body is followed by
// a MAC and an Ed25519 signature over body and MAC.
type GroupMessage struct {
	MessageIndex    uint32
	HasMessageIndex bool
	Ciphertext      []byte
}

// GroupMessageLength is the exact encoded length including MAC and signature.
func GroupMessageLength(index uint32, ciphertextLen, macLen, sigLen int) int {
	return 1 +
		protowire.SizeTag(messageIndexField) + protowire.SizeVarint(uint64(index)) +
		protowire.SizeTag(groupCiphertextField) + protowire.SizeBytes(ciphertextLen) +
		macLen + sigLen
}

// Encode returns the body with capacity for the MAC and signature.
func (m *GroupMessage) Encode(macLen, sigLen int) []byte {
	b := make([]byte, 0, GroupMessageLength(m.MessageIndex, len(m.Ciphertext), macLen, sigLen))
	b = append(b, Version)
	b = protowire.AppendTag(b, messageIndexField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.MessageIndex))
	b = protowire.AppendTag(b, groupCiphertextField, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Ciphertext)
	return b
}

// DecodeGroupMessage splits input into fields, body, MAC and signature.
// The signature covers body followed by MAC.
func DecodeGroupMessage(input []byte, macLen, sigLen int) (m GroupMessage, body, mac, sig []byte, err error) {
	if len(input) == 0 {
		return m, nil, nil, nil, domain.ErrBadMessageFormat
	}
	if input[0] != Version {
		return m, nil, nil, nil, domain.ErrBadMessageVersion
	}
	if len(input) < 1+macLen+sigLen {
		return m, nil, nil, nil, domain.ErrBadMessageFormat
	}
	sigStart := len(input) - sigLen
	macStart := sigStart - macLen
	body, mac, sig = input[:macStart], input[macStart:sigStart], input[sigStart:]

	err = walkFields(body[1:], func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == messageIndexField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n >= 0 && v > math.MaxUint32 {
				return 0, domain.ErrBadMessageFormat
			}
			m.MessageIndex, m.HasMessageIndex = uint32(v), true
			return n, nil
		case num == groupCiphertextField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Ciphertext = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return m, body, mac, sig, err
}

const (
	// SessionKeyVersion tags a signed session key.
	SessionKeyVersion = 2
	// ExportedSessionVersion tags an unsigned exported session.
	ExportedSessionVersion = 1

	// RatchetLength is the size of the four ratchet parts.
	RatchetLength = 128
	publicKeyLen  = 32
	signatureLen  = 64

	// SessionKeyLength is the raw size of a signed session key.
	SessionKeyLength = 1 + 4 + RatchetLength + publicKeyLen + signatureLen
	// ExportedSessionLength is the raw size of an exported session.
	ExportedSessionLength = 1 + 4 + RatchetLength + publicKeyLen
)

// SessionKey is a group ratchet checkpoint.
type SessionKey struct {
	Index      uint32
	Ratchet    [RatchetLength]byte
	SigningKey domain.Ed25519Public
	// Signature is empty for exported sessions.
	Signature []byte
}

// EncodeUnsigned returns the checkpoint with the given version byte and no
// signature. For session keys the caller signs the result and appends.
func (k *SessionKey) EncodeUnsigned(version byte) []byte {
	b := make([]byte, 0, SessionKeyLength)
	b = append(b, version)
	b = binary.BigEndian.AppendUint32(b, k.Index)
	b = append(b, k.Ratchet[:]...)
	b = append(b, k.SigningKey[:]...)
	return b
}

// DecodeSessionKey parses a signed session key. signed is the prefix the
// signature covers.
func DecodeSessionKey(raw []byte) (k SessionKey, signed []byte, err error) {
	if len(raw) != SessionKeyLength || raw[0] != SessionKeyVersion {
		return k, nil, domain.ErrBadSessionKey
	}
	decodeCheckpoint(&k, raw)
	k.Signature = raw[ExportedSessionLength:]
	return k, raw[:ExportedSessionLength], nil
}

// DecodeExportedSession parses an unsigned exported session.
func DecodeExportedSession(raw []byte) (k SessionKey, err error) {
	if len(raw) != ExportedSessionLength || raw[0] != ExportedSessionVersion {
		return k, domain.ErrBadSessionKey
	}
	decodeCheckpoint(&k, raw)
	return k, nil
}

func decodeCheckpoint(k *SessionKey, raw []byte) {
	k.Index = binary.BigEndian.Uint32(raw[1:5])
	copy(k.Ratchet[:], raw[5:5+RatchetLength])
	copy(k.SigningKey[:], raw[5+RatchetLength:ExportedSessionLength])
}
