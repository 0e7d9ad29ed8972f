package ratchet_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/pickle"
	"olm/internal/protocol/ratchet"
)

// newPair returns an initiator and responder sharing a fixed secret.
func newPair(t *testing.T) (alice, bob *ratchet.State) {
	t.Helper()
	secret := bytes.Repeat([]byte{0x42}, 96)
	ratchetKey, err := crypto.Curve25519FromRandom(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	alice, bob = &ratchet.State{}, &ratchet.State{}
	alice.InitialiseAsAlice(secret, ratchetKey)
	bob.InitialiseAsBob(secret, ratchetKey.Public)
	return alice, bob
}

// snapshot serialises s so tests can compare states byte for byte.
func snapshot(t *testing.T, s *ratchet.State) []byte {
	t.Helper()
	e := pickle.NewEncoder(0)
	s.Pickle(e)
	return append([]byte(nil), e.Raw()...)
}

func encrypt(t *testing.T, s *ratchet.State, plaintext string, seed byte) []byte {
	t.Helper()
	random := bytes.Repeat([]byte{seed}, s.EncryptRandomLength())
	want := s.EncryptOutputLength(len(plaintext))
	out, err := s.Encrypt([]byte(plaintext), random)
	require.NoError(t, err)
	require.Len(t, out, want)
	return out
}

func TestDoubleRatchet_RoundTrips(t *testing.T) {
	alice, bob := newPair(t)

	require.Zero(t, alice.EncryptRandomLength())
	require.Equal(t, 32, bob.EncryptRandomLength())

	pt, err := bob.Decrypt(encrypt(t, alice, "hi", 0))
	require.NoError(t, err)
	require.Equal(t, "hi", string(pt))

	// Bob's first reply starts his sender chain.
	pt, err = alice.Decrypt(encrypt(t, bob, "hello back", 9))
	require.NoError(t, err)
	require.Equal(t, "hello back", string(pt))

	// Alice saw a new ratchet key, so her next send needs fresh randomness.
	require.Equal(t, 32, alice.EncryptRandomLength())
	for i := 0; i < 3; i++ {
		msg := fmt.Sprintf("round %d", i)
		pt, err = bob.Decrypt(encrypt(t, alice, msg, byte(20+i)))
		require.NoError(t, err)
		require.Equal(t, msg, string(pt))
	}
}

func TestDoubleRatchet_OutOfOrder(t *testing.T) {
	alice, bob := newPair(t)

	m1 := encrypt(t, alice, "P1", 0)
	m2 := encrypt(t, alice, "P2", 0)
	m3 := encrypt(t, alice, "P3", 0)

	for _, tc := range []struct {
		msg  []byte
		want string
	}{{m3, "P3"}, {m1, "P1"}, {m2, "P2"}} {
		pt, err := bob.Decrypt(tc.msg)
		require.NoError(t, err)
		require.Equal(t, tc.want, string(pt))
	}
	require.Empty(t, bob.SkippedMessageKeys)
}

func TestDoubleRatchet_ReplayIsTooOld(t *testing.T) {
	alice, bob := newPair(t)

	m := encrypt(t, alice, "once", 0)
	_, err := bob.Decrypt(m)
	require.NoError(t, err)

	before := snapshot(t, bob)
	_, err = bob.Decrypt(m)
	require.ErrorIs(t, err, domain.ErrIndexTooOld)
	require.Equal(t, before, snapshot(t, bob))
}

func TestDoubleRatchet_TamperLeavesStateUnchanged(t *testing.T) {
	alice, bob := newPair(t)
	m := encrypt(t, alice, "tamper with me", 0)
	before := snapshot(t, bob)

	// Flip one bit in each byte of the ciphertext and MAC region.
	for i := len(m) - crypto.MACLength - 16; i < len(m); i++ {
		bad := append([]byte(nil), m...)
		bad[i] ^= 0x01
		_, err := bob.Decrypt(bad)
		require.ErrorIs(t, err, domain.ErrBadMessageMAC, "byte %d", i)
		require.Equal(t, before, snapshot(t, bob))
	}

	pt, err := bob.Decrypt(m)
	require.NoError(t, err)
	require.Equal(t, "tamper with me", string(pt))
}

func TestDoubleRatchet_SkippedKeyEviction(t *testing.T) {
	alice, bob := newPair(t)

	n := ratchet.MaxSkippedMessageKeys + 5
	msgs := make([][]byte, n)
	for i := range msgs {
		msgs[i] = encrypt(t, alice, fmt.Sprintf("m%d", i), 0)
	}

	_, err := bob.Decrypt(msgs[n-1])
	require.NoError(t, err)
	require.Len(t, bob.SkippedMessageKeys, ratchet.MaxSkippedMessageKeys)

	// The oldest keys were evicted first.
	_, err = bob.Decrypt(msgs[0])
	require.ErrorIs(t, err, domain.ErrIndexTooOld)

	pt, err := bob.Decrypt(msgs[n-1-ratchet.MaxSkippedMessageKeys])
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("m%d", n-1-ratchet.MaxSkippedMessageKeys), string(pt))
}

func TestDoubleRatchet_VerifyDoesNotMutate(t *testing.T) {
	alice, bob := newPair(t)
	m := encrypt(t, alice, "check", 0)

	before := snapshot(t, bob)
	require.NoError(t, bob.Verify(m))
	require.Equal(t, before, snapshot(t, bob))

	bad := append([]byte(nil), m...)
	bad[len(bad)-1] ^= 0x80
	require.ErrorIs(t, bob.Verify(bad), domain.ErrBadMessageMAC)
}

func TestDoubleRatchet_NotEnoughRandom(t *testing.T) {
	alice, bob := newPair(t)
	_, err := bob.Decrypt(encrypt(t, alice, "x", 0))
	require.NoError(t, err)

	before := snapshot(t, bob)
	_, err = bob.Encrypt([]byte("reply"), make([]byte, 31))
	require.ErrorIs(t, err, domain.ErrNotEnoughRandom)
	require.Equal(t, before, snapshot(t, bob))
}

func TestDoubleRatchet_MalformedFraming(t *testing.T) {
	_, bob := newPair(t)

	_, err := bob.Decrypt(nil)
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)
	_, err = bob.Decrypt([]byte{0x02, 0, 0, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, domain.ErrBadMessageVersion)
	_, err = bob.Decrypt([]byte{0x03, 0x0A, 0x20, 1, 2, 3, 4, 5, 6, 7, 8})
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)
}

func TestDoubleRatchet_PickleRoundTrip(t *testing.T) {
	alice, bob := newPair(t)
	_, err := bob.Decrypt(encrypt(t, alice, "a", 0))
	require.NoError(t, err)
	_, err = alice.Decrypt(encrypt(t, bob, "b", 3))
	require.NoError(t, err)
	skipped := encrypt(t, alice, "skipped", 4)
	_, err = bob.Decrypt(encrypt(t, alice, "c", 4))
	require.NoError(t, err)

	restored := &ratchet.State{}
	d := pickle.NewDecoder(snapshot(t, bob))
	require.Zero(t, d.Uint32())
	require.NoError(t, restored.Unpickle(d))
	require.NoError(t, d.Finish())
	require.True(t, restored.Equal(bob))

	pt, err := restored.Decrypt(skipped)
	require.NoError(t, err)
	require.Equal(t, "skipped", string(pt))
	require.Contains(t, restored.Describe(), "skipped message keys:")
}
