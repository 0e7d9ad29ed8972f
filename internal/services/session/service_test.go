package session_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olm"
	"olm/internal/domain"
	"olm/internal/services/account"
	"olm/internal/services/session"
	"olm/internal/store"
)

const pass = "Correct-Horse-9"

type party struct {
	accounts *account.Service
	sessions *session.Service
	keys     domain.IdentityKeys
}

func newParty(t *testing.T) party {
	t.Helper()
	st := store.NewFileStore(t.TempDir(), store.KDFParams{Name: store.KDFArgon2id, Time: 1, Memory: 64, Threads: 1})
	p := party{accounts: account.New(st, rand.Reader), sessions: session.New(st, st, rand.Reader)}
	keys, _, err := p.accounts.CreateAccount(pass)
	require.NoError(t, err)
	p.keys = keys
	return p
}

// oneTimeKey generates and publishes a single one-time key.
func (p party) oneTimeKey(t *testing.T) domain.X25519Public {
	t.Helper()
	keys, err := p.accounts.GenerateOneTimeKeys(pass, 1)
	require.NoError(t, err)
	_, err = p.accounts.MarkKeysAsPublished(pass)
	require.NoError(t, err)
	for _, k := range keys.Curve25519 {
		return k
	}
	t.Fatal("no one-time key")
	return domain.X25519Public{}
}

func TestConversation(t *testing.T) {
	alice, bob := newParty(t), newParty(t)

	id, err := alice.sessions.CreateOutbound(pass, "bob", bob.keys.Curve25519, bob.oneTimeKey(t))
	require.NoError(t, err)
	got, err := alice.sessions.SessionID(pass, "bob")
	require.NoError(t, err)
	require.Equal(t, id, got)

	typ, msg, err := alice.sessions.Encrypt(pass, "bob", []byte("hi bob"))
	require.NoError(t, err)
	require.Equal(t, domain.MessageTypePreKey, typ)

	pt, err := bob.sessions.Decrypt(pass, "alice", typ, msg)
	require.NoError(t, err)
	assert.Equal(t, "hi bob", string(pt))

	bobID, err := bob.sessions.SessionID(pass, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, bobID)

	// A second pre-key message goes to the stored session.
	typ, msg, err = alice.sessions.Encrypt(pass, "bob", []byte("again"))
	require.NoError(t, err)
	require.Equal(t, domain.MessageTypePreKey, typ)
	pt, err = bob.sessions.Decrypt(pass, "alice", typ, msg)
	require.NoError(t, err)
	assert.Equal(t, "again", string(pt))

	typ, msg, err = bob.sessions.Encrypt(pass, "alice", []byte("hi alice"))
	require.NoError(t, err)
	require.Equal(t, domain.MessageTypeMessage, typ)
	pt, err = alice.sessions.Decrypt(pass, "bob", typ, msg)
	require.NoError(t, err)
	assert.Equal(t, "hi alice", string(pt))

	typ, _, err = alice.sessions.Encrypt(pass, "bob", []byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeMessage, typ)
}

func TestReplayedPreKeyMessage(t *testing.T) {
	alice, bob := newParty(t), newParty(t)
	_, err := alice.sessions.CreateOutbound(pass, "bob", bob.keys.Curve25519, bob.oneTimeKey(t))
	require.NoError(t, err)
	typ, msg, err := alice.sessions.Encrypt(pass, "bob", []byte("once"))
	require.NoError(t, err)

	_, err = bob.sessions.Decrypt(pass, "alice", typ, msg)
	require.NoError(t, err)

	// The stored session claims the message, so no second inbound session is
	// attempted.
	_, err = bob.sessions.Decrypt(pass, "alice", typ, msg)
	require.ErrorIs(t, err, olm.ErrIndexTooOld)
}

func TestNoSession(t *testing.T) {
	alice := newParty(t)

	_, _, err := alice.sessions.Encrypt(pass, "bob", []byte("x"))
	require.ErrorIs(t, err, session.ErrNoSession)
	_, err = alice.sessions.SessionID(pass, "bob")
	require.ErrorIs(t, err, session.ErrNoSession)
	_, err = alice.sessions.Decrypt(pass, "bob", domain.MessageTypeMessage, []byte{3})
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestUnknownOneTimeKey(t *testing.T) {
	alice, bob, carol := newParty(t), newParty(t), newParty(t)

	// Alice addresses bob with a key that belongs to carol.
	_, err := alice.sessions.CreateOutbound(pass, "bob", bob.keys.Curve25519, carol.oneTimeKey(t))
	require.NoError(t, err)
	typ, msg, err := alice.sessions.Encrypt(pass, "bob", []byte("lost"))
	require.NoError(t, err)

	_, err = bob.sessions.Decrypt(pass, "alice", typ, msg)
	require.ErrorIs(t, err, olm.ErrUnknownOneTimeKey)

	_, err = bob.sessions.SessionID(pass, "alice")
	require.ErrorIs(t, err, session.ErrNoSession)
}
