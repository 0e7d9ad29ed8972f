package message_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olm/internal/domain"
	"olm/internal/protocol/message"
)

func TestOlmMessage(t *testing.T) {
	for _, counter := range []uint32{0, 127, 128, 1 << 20} {
		m := message.OlmMessage{
			RatchetKey: bytes.Repeat([]byte{1}, 32),
			Counter:    counter,
			Ciphertext: bytes.Repeat([]byte{2}, 48),
		}
		body := m.Encode(8)
		input := append(body, bytes.Repeat([]byte{9}, 8)...)
		require.Len(t, input, message.OlmMessageLength(32, counter, 48, 8))

		got, gotBody, mac, err := message.DecodeOlmMessage(input, 8)
		require.NoError(t, err)
		assert.Equal(t, m.RatchetKey, got.RatchetKey)
		assert.Equal(t, counter, got.Counter)
		assert.True(t, got.HasCounter)
		assert.Equal(t, m.Ciphertext, got.Ciphertext)
		assert.Equal(t, body, gotBody)
		assert.Equal(t, bytes.Repeat([]byte{9}, 8), mac)
	}
}

func TestOlmMessage_Malformed(t *testing.T) {
	_, _, _, err := message.DecodeOlmMessage(nil, 8)
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)

	_, _, _, err = message.DecodeOlmMessage([]byte{2, 0, 0, 0, 0, 0, 0, 0, 0}, 8)
	require.ErrorIs(t, err, domain.ErrBadMessageVersion)

	_, _, _, err = message.DecodeOlmMessage([]byte{3, 1, 2}, 8)
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)

	// A bytes field running past the end of the body.
	bad := append([]byte{3, 0x0a, 0x20, 1}, make([]byte, 8)...)
	_, _, _, err = message.DecodeOlmMessage(bad, 8)
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)

	// Unknown fields are skipped and a missing counter is reported.
	unknown := append([]byte{3, 0x28, 0x05, 0x22, 0x01, 0xaa}, make([]byte, 8)...)
	m, _, _, err := message.DecodeOlmMessage(unknown, 8)
	require.NoError(t, err)
	assert.False(t, m.HasCounter)
	assert.Equal(t, []byte{0xaa}, m.Ciphertext)
}

func TestPreKeyMessage(t *testing.T) {
	m := message.PreKeyMessage{
		OneTimeKey:  bytes.Repeat([]byte{1}, 32),
		BaseKey:     bytes.Repeat([]byte{2}, 32),
		IdentityKey: bytes.Repeat([]byte{3}, 32),
		Message:     bytes.Repeat([]byte{4}, 100),
	}
	b := m.Encode()
	require.Len(t, b, message.PreKeyMessageLength(32, 32, 32, 100))

	got, err := message.DecodePreKeyMessage(b)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = message.DecodePreKeyMessage(b[:len(b)-1])
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)
	b[0] = 4
	_, err = message.DecodePreKeyMessage(b)
	require.ErrorIs(t, err, domain.ErrBadMessageVersion)
}

func TestGroupMessage(t *testing.T) {
	m := message.GroupMessage{MessageIndex: 300, Ciphertext: bytes.Repeat([]byte{5}, 32)}
	body := m.Encode(8, 64)
	input := append(body, bytes.Repeat([]byte{6}, 8)...)
	input = append(input, bytes.Repeat([]byte{7}, 64)...)
	require.Len(t, input, message.GroupMessageLength(300, 32, 8, 64))

	got, gotBody, mac, sig, err := message.DecodeGroupMessage(input, 8, 64)
	require.NoError(t, err)
	assert.Equal(t, uint32(300), got.MessageIndex)
	assert.True(t, got.HasMessageIndex)
	assert.Equal(t, m.Ciphertext, got.Ciphertext)
	assert.Equal(t, body, gotBody)
	assert.Len(t, mac, 8)
	assert.Len(t, sig, 64)

	_, _, _, _, err = message.DecodeGroupMessage(input[:70], 8, 64)
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)
}

func TestSessionKey(t *testing.T) {
	k := message.SessionKey{Index: 42, SigningKey: domain.Ed25519Public{8}}
	k.Ratchet[0] = 1
	k.Ratchet[127] = 2

	exported := k.EncodeUnsigned(message.ExportedSessionVersion)
	require.Len(t, exported, message.ExportedSessionLength)
	got, err := message.DecodeExportedSession(exported)
	require.NoError(t, err)
	assert.Equal(t, k, got)

	signed := append(k.EncodeUnsigned(message.SessionKeyVersion), bytes.Repeat([]byte{3}, 64)...)
	got, prefix, err := message.DecodeSessionKey(signed)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got.Index)
	assert.Equal(t, signed[:message.ExportedSessionLength], prefix)
	assert.Equal(t, bytes.Repeat([]byte{3}, 64), got.Signature)

	_, _, err = message.DecodeSessionKey(exported)
	require.ErrorIs(t, err, domain.ErrBadSessionKey)
	_, err = message.DecodeExportedSession(signed)
	require.ErrorIs(t, err, domain.ErrBadSessionKey)
}
