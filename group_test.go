package olm_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olm"
)

func newOutboundGroup(t *testing.T) *olm.OutboundGroupSession {
	t.Helper()
	g, err := olm.NewOutboundGroupSession(random("group", olm.NewOutboundGroupSessionRandomLength()))
	require.NoError(t, err)
	return g
}

func groupEncrypt(t *testing.T, g *olm.OutboundGroupSession, plaintext string) []byte {
	t.Helper()
	want := g.EncryptMessageLength(len(plaintext))
	out := g.Encrypt([]byte(plaintext))
	require.Len(t, out, want)
	return out
}

func TestOutboundGroupSession_Basics(t *testing.T) {
	_, err := olm.NewOutboundGroupSession(make([]byte, 159))
	require.ErrorIs(t, err, olm.ErrNotEnoughRandom)

	g := newOutboundGroup(t)
	require.Zero(t, g.MessageIndex())
	require.Len(t, g.SessionKey(), g.SessionKeyLength())

	groupEncrypt(t, g, "one")
	groupEncrypt(t, g, "two")
	require.Equal(t, uint32(2), g.MessageIndex())
}

func TestGroupSession_DecryptsEverythingAfterSessionKey(t *testing.T) {
	out := newOutboundGroup(t)
	groupEncrypt(t, out, "before the key")

	in, err := olm.NewInboundGroupSession(out.SessionKey(), olm.WithRetainedHistory())
	require.NoError(t, err)
	require.Equal(t, out.ID(), in.ID())
	require.Equal(t, uint32(1), in.FirstKnownIndex())
	require.True(t, in.IsVerified())

	msgs := make([][]byte, 5)
	for i := range msgs {
		msgs[i] = groupEncrypt(t, out, fmt.Sprintf("m%d", i))
	}
	for _, i := range []int{4, 0, 2, 1, 3, 4} {
		pt, index, err := in.Decrypt(msgs[i])
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("m%d", i), string(pt))
		require.Equal(t, uint32(i+1), index)
	}
	require.Equal(t, uint32(1), in.FirstKnownIndex())
}

func TestGroupSession_ForwardOnlyByDefault(t *testing.T) {
	out := newOutboundGroup(t)
	in, err := olm.NewInboundGroupSession(out.SessionKey())
	require.NoError(t, err)
	require.False(t, in.RetainsHistory())

	m0 := groupEncrypt(t, out, "m0")
	m1 := groupEncrypt(t, out, "m1")
	m2 := groupEncrypt(t, out, "m2")

	_, index, err := in.Decrypt(m1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), index)
	require.Equal(t, uint32(2), in.FirstKnownIndex())

	for _, m := range [][]byte{m0, m1} {
		_, _, err = in.Decrypt(m)
		require.ErrorIs(t, err, olm.ErrIndexTooOld)
	}
	assert.Equal(t, "OLM_INDEX_TOO_OLD", in.LastError())

	pt, _, err := in.Decrypt(m2)
	require.NoError(t, err)
	require.Equal(t, "m2", string(pt))
}

func TestGroupSession_TamperIsRejected(t *testing.T) {
	out := newOutboundGroup(t)
	in, err := olm.NewInboundGroupSession(out.SessionKey())
	require.NoError(t, err)
	msg := groupEncrypt(t, out, "signed")
	before := in.Pickle(nil)

	for i := range msg {
		bad := append([]byte(nil), msg...)
		bad[i] ^= 0x10
		_, _, err := in.Decrypt(bad)
		require.Error(t, err, "byte %d", i)
		require.Equal(t, before, in.Pickle(nil), "byte %d", i)
	}

	// Anything covered by the signature fails the signature check first.
	bad := append([]byte(nil), msg...)
	bad[len(bad)-70] ^= 0x01
	_, _, err = in.Decrypt(bad)
	require.ErrorIs(t, err, olm.ErrBadSignature)
	assert.Equal(t, "BAD_SIGNATURE", in.LastError())

	pt, _, err := in.Decrypt(msg)
	require.NoError(t, err)
	require.Equal(t, "signed", string(pt))
}

func TestNewInboundGroupSession_BadKeys(t *testing.T) {
	out := newOutboundGroup(t)
	key := out.SessionKey()

	_, err := olm.NewInboundGroupSession("!" + key[1:])
	require.ErrorIs(t, err, olm.ErrInvalidBase64)

	_, err = olm.NewInboundGroupSession(key[:len(key)-4])
	require.ErrorIs(t, err, olm.ErrBadSessionKey)

	// Flip a bit in the ratchet; the signature no longer matches.
	raw := []byte(key)
	if raw[20] == 'A' {
		raw[20] = 'B'
	} else {
		raw[20] = 'A'
	}
	_, err = olm.NewInboundGroupSession(string(raw))
	require.ErrorIs(t, err, olm.ErrBadSignature)

	// An export is not a session key.
	in, err := olm.NewInboundGroupSession(key)
	require.NoError(t, err)
	exported, err := in.Export(0)
	require.NoError(t, err)
	_, err = olm.NewInboundGroupSession(exported)
	require.ErrorIs(t, err, olm.ErrBadSessionKey)
}

func TestInboundGroupSession_ExportImport(t *testing.T) {
	out := newOutboundGroup(t)
	in, err := olm.NewInboundGroupSession(out.SessionKey(), olm.WithRetainedHistory())
	require.NoError(t, err)

	msgs := make([][]byte, 4)
	for i := range msgs {
		msgs[i] = groupEncrypt(t, out, fmt.Sprintf("m%d", i))
	}

	exported, err := in.Export(2)
	require.NoError(t, err)
	require.Len(t, exported, in.ExportLength())

	imported, err := olm.ImportInboundGroupSession(exported, olm.WithRetainedHistory())
	require.NoError(t, err)
	require.False(t, imported.IsVerified())
	require.Equal(t, uint32(2), imported.FirstKnownIndex())
	require.Equal(t, in.ID(), imported.ID())

	_, _, err = imported.Decrypt(msgs[1])
	require.ErrorIs(t, err, olm.ErrIndexTooOld)
	require.False(t, imported.IsVerified())

	pt, _, err := imported.Decrypt(msgs[3])
	require.NoError(t, err)
	require.Equal(t, "m3", string(pt))
	require.True(t, imported.IsVerified())

	pt, _, err = imported.Decrypt(msgs[2])
	require.NoError(t, err)
	require.Equal(t, "m2", string(pt))

	_, err = imported.Export(1)
	require.ErrorIs(t, err, olm.ErrIndexTooOld)

	_, err = olm.ImportInboundGroupSession(out.SessionKey())
	require.ErrorIs(t, err, olm.ErrBadSessionKey)
}

func TestInboundGroupSession_DecryptMaxPlaintextLength(t *testing.T) {
	out := newOutboundGroup(t)
	in, err := olm.NewInboundGroupSession(out.SessionKey())
	require.NoError(t, err)

	msg := groupEncrypt(t, out, "how long")
	n, err := in.DecryptMaxPlaintextLength(msg)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, len("how long"))

	_, err = in.DecryptMaxPlaintextLength([]byte{0x03})
	require.ErrorIs(t, err, olm.ErrBadMessageFormat)
}

func TestGroupSessions_PickleRoundTrip(t *testing.T) {
	key := []byte("group pickle")
	out := newOutboundGroup(t)
	in, err := olm.NewInboundGroupSession(out.SessionKey(), olm.WithRetainedHistory())
	require.NoError(t, err)
	groupEncrypt(t, out, "advance")

	outBlob := out.Pickle(key)
	require.Len(t, outBlob, out.PickleLength())
	out2, err := olm.UnpickleOutboundGroupSession(key, outBlob)
	require.NoError(t, err)
	require.Equal(t, out.SessionKey(), out2.SessionKey())
	require.Equal(t, out.Encrypt([]byte("same")), out2.Encrypt([]byte("same")))

	inBlob := in.Pickle(key)
	require.Len(t, inBlob, in.PickleLength())
	in2, err := olm.UnpickleInboundGroupSession(key, inBlob)
	require.NoError(t, err)
	require.True(t, in2.RetainsHistory())
	require.Equal(t, in.FirstKnownIndex(), in2.FirstKnownIndex())

	msg := groupEncrypt(t, out, "after restore")
	pt, _, err := in2.Decrypt(msg)
	require.NoError(t, err)
	require.Equal(t, "after restore", string(pt))

	require.ErrorIs(t, in2.Unpickle(key, outBlob), olm.ErrCorruptedPickle)
	require.Equal(t, in.ID(), in2.ID())
}

func TestGroupSessions_Clear(t *testing.T) {
	out := newOutboundGroup(t)
	in, err := olm.NewInboundGroupSession(out.SessionKey())
	require.NoError(t, err)
	msg := groupEncrypt(t, out, "x")

	in.Clear()
	_, _, err = in.Decrypt(msg)
	require.ErrorIs(t, err, olm.ErrBadMessageMAC)
	out.Clear()
}
