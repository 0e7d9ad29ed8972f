package olm_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olm"
	"olm/internal/pickle"
)

func TestNewAccount_NotEnoughRandom(t *testing.T) {
	_, err := olm.NewAccount(make([]byte, olm.NewAccountRandomLength()-1))
	require.ErrorIs(t, err, olm.ErrNotEnoughRandom)
	assert.Equal(t, olm.ErrorCode("NOT_ENOUGH_RANDOM"), olm.CodeOf(err))
}

func TestAccount_IdentityKeysAreStable(t *testing.T) {
	a := newAccount(t, "a")
	b := newAccount(t, "a")
	require.Equal(t, a.IdentityKeys(), b.IdentityKeys())

	raw, err := json.Marshal(a.IdentityKeys())
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, a.IdentityKeys().Curve25519.String(), decoded["curve25519"])
	assert.Equal(t, a.IdentityKeys().Ed25519.String(), decoded["ed25519"])
	assert.Len(t, decoded["curve25519"], 43)
}

func TestAccount_SignIsDeterministic(t *testing.T) {
	a := newAccount(t, "signer")
	sig := a.Sign([]byte("message"))
	require.Len(t, sig, a.SignatureLength())
	require.Equal(t, sig, a.Sign([]byte("message")))

	u := olm.NewUtility()
	require.NoError(t, u.VerifyEd25519(a.IdentityKeys().Ed25519, []byte("message"), sig))
	require.ErrorIs(t, u.VerifyEd25519(a.IdentityKeys().Ed25519, []byte("other"), sig), olm.ErrBadSignature)
	assert.Equal(t, "BAD_SIGNATURE", u.LastError())
}

func TestAccount_OneTimeKeysPublishing(t *testing.T) {
	a := newAccount(t, "a")
	require.Empty(t, a.OneTimeKeys().Curve25519)

	require.NoError(t, a.GenerateOneTimeKeys(3, random("otk", a.GenerateOneTimeKeysRandomLength(3))))
	keys := a.OneTimeKeys().Curve25519
	require.Len(t, keys, 3)
	// IDs are sequential from 1, encoded as base64 big-endian uint32.
	assert.Contains(t, keys, "AAAAAQ")
	assert.Contains(t, keys, "AAAAAw")

	require.Equal(t, 3, a.MarkKeysAsPublished())
	require.Zero(t, a.MarkKeysAsPublished())
	require.Empty(t, a.OneTimeKeys().Curve25519)

	require.NoError(t, a.GenerateOneTimeKeys(1, random("more", 32)))
	assert.Equal(t, []string{"AAAABA"}, keysOf(a.OneTimeKeys()))
}

func keysOf(k olm.OneTimeKeys) []string {
	var ids []string
	for id := range k.Curve25519 {
		ids = append(ids, id)
	}
	return ids
}

func TestAccount_GenerateOneTimeKeysIsAtomic(t *testing.T) {
	a := newAccount(t, "a")
	before := a.Pickle(nil)

	err := a.GenerateOneTimeKeys(2, make([]byte, 63))
	require.ErrorIs(t, err, olm.ErrNotEnoughRandom)
	assert.Equal(t, "NOT_ENOUGH_RANDOM", a.LastError())
	require.Equal(t, before, a.Pickle(nil))
}

func TestAccount_PoolDiscardsOldestKeys(t *testing.T) {
	a := newAccount(t, "a")
	limit := a.MaxNumberOfOneTimeKeys()
	require.NoError(t, a.GenerateOneTimeKeys(limit, random("first", a.GenerateOneTimeKeysRandomLength(limit))))
	require.NoError(t, a.GenerateOneTimeKeys(2, random("second", a.GenerateOneTimeKeysRandomLength(2))))

	keys := a.OneTimeKeys().Curve25519
	require.Len(t, keys, limit)
	assert.NotContains(t, keys, "AAAAAQ")
	assert.NotContains(t, keys, "AAAAAg")
	assert.Contains(t, keys, "AAAAAw")
}

func TestAccount_FallbackKey(t *testing.T) {
	a := newAccount(t, "a")
	require.Empty(t, a.UnpublishedFallbackKey().Curve25519)

	require.NoError(t, a.GenerateFallbackKey(random("fb", a.GenerateFallbackKeyRandomLength())))
	require.Len(t, a.UnpublishedFallbackKey().Curve25519, 1)
	require.Equal(t, 1, a.MarkKeysAsPublished())
	require.Empty(t, a.UnpublishedFallbackKey().Curve25519)

	require.ErrorIs(t, a.GenerateFallbackKey(nil), olm.ErrNotEnoughRandom)
}

func TestAccount_PickleRoundTrip(t *testing.T) {
	a := newAccount(t, "a")
	require.NoError(t, a.GenerateOneTimeKeys(4, random("otk", 128)))
	a.MarkKeysAsPublished()
	require.NoError(t, a.GenerateOneTimeKeys(1, random("otk2", 32)))
	require.NoError(t, a.GenerateFallbackKey(random("fb", 32)))

	key := []byte("pickle key")
	blob := a.Pickle(key)
	require.Len(t, blob, a.PickleLength())

	b, err := olm.UnpickleAccount(key, blob)
	require.NoError(t, err)
	assert.Equal(t, a.IdentityKeys(), b.IdentityKeys())
	assert.Equal(t, a.OneTimeKeys(), b.OneTimeKeys())
	assert.Equal(t, a.UnpublishedFallbackKey(), b.UnpublishedFallbackKey())
	assert.Equal(t, a.Sign([]byte("x")), b.Sign([]byte("x")))
	assert.Equal(t, blob, b.Pickle(key))
}

func TestAccount_UnpickleFailureKeepsState(t *testing.T) {
	a := newAccount(t, "a")
	blob := a.Pickle([]byte("right"))

	b := newAccount(t, "b")
	want := b.IdentityKeys()

	require.ErrorIs(t, b.Unpickle([]byte("wrong"), blob), olm.ErrBadAccountKey)
	assert.Equal(t, "BAD_ACCOUNT_KEY", b.LastError())
	assert.Equal(t, want, b.IdentityKeys())

	require.ErrorIs(t, b.Unpickle([]byte("right"), []byte("!!")), olm.ErrInvalidBase64)
	assert.Equal(t, want, b.IdentityKeys())

	truncated := pickle.NewEncoder(1)
	truncated.Bytes(make([]byte, 40))
	require.ErrorIs(t, b.Unpickle([]byte("right"), pickle.SealEncoder([]byte("right"), truncated)), olm.ErrCorruptedPickle)
	assert.Equal(t, "CORRUPTED_PICKLE", b.LastError())
	assert.Equal(t, want, b.IdentityKeys())

	future := pickle.NewEncoder(99)
	require.ErrorIs(t, b.Unpickle([]byte("right"), pickle.SealEncoder([]byte("right"), future)), olm.ErrUnknownPickleVersion)
	assert.Equal(t, want, b.IdentityKeys())

	require.NoError(t, b.Unpickle([]byte("right"), blob))
	assert.Equal(t, a.IdentityKeys(), b.IdentityKeys())
}

func TestAccount_Clear(t *testing.T) {
	a := newAccount(t, "a")
	require.NoError(t, a.GenerateOneTimeKeys(2, random("otk", 64)))
	a.Clear()
	require.Empty(t, a.OneTimeKeys().Curve25519)
}

func TestAccount_LastErrorStartsAsSuccess(t *testing.T) {
	assert.Equal(t, "SUCCESS", newAccount(t, "a").LastError())
}
