package olm_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"olm"
)

// random returns n deterministic bytes that differ per label.
func random(label string, n int) []byte {
	out := make([]byte, 0, n+sha256.Size)
	block := sha256.Sum256([]byte(label))
	for len(out) < n {
		out = append(out, block[:]...)
		block = sha256.Sum256(block[:])
	}
	return out[:n]
}

func newAccount(t *testing.T, label string) *olm.Account {
	t.Helper()
	a, err := olm.NewAccount(random(label, olm.NewAccountRandomLength()))
	require.NoError(t, err)
	return a
}

// firstOneTimeKey generates one key on a and returns it.
func firstOneTimeKey(t *testing.T, a *olm.Account, label string) olm.Curve25519PublicKey {
	t.Helper()
	require.NoError(t, a.GenerateOneTimeKeys(1, random(label, a.GenerateOneTimeKeysRandomLength(1))))
	for _, k := range a.OneTimeKeys().Curve25519 {
		return k
	}
	t.Fatal("no one-time key generated")
	return olm.Curve25519PublicKey{}
}

// establish returns an outbound session from alice to bob and bob's inbound
// session created from alice's first message, which is decrypted.
func establish(t *testing.T, alice, bob *olm.Account) (out, in *olm.Session) {
	t.Helper()
	otk := firstOneTimeKey(t, bob, "bob otk")
	out, err := olm.NewOutboundSession(alice, bob.IdentityKeys().Curve25519, otk,
		random("outbound", olm.NewOutboundSessionRandomLength()))
	require.NoError(t, err)

	typ, msg := encrypt(t, out, "hello")
	require.Equal(t, olm.MessageTypePreKey, typ)

	in, err = olm.NewInboundSession(bob, msg)
	require.NoError(t, err)
	pt, err := in.Decrypt(typ, msg)
	require.NoError(t, err)
	require.Equal(t, "hello", string(pt))
	return out, in
}

func encrypt(t *testing.T, s *olm.Session, plaintext string) (olm.MessageType, []byte) {
	t.Helper()
	want := s.EncryptMessageLength(len(plaintext))
	wantType := s.EncryptMessageType()
	typ, msg, err := s.Encrypt([]byte(plaintext), random(plaintext, s.EncryptRandomLength()))
	require.NoError(t, err)
	require.Len(t, msg, want)
	require.Equal(t, wantType, typ)
	return typ, msg
}
