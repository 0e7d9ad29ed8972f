package interfaces

import domaintypes "olm/internal/domain/types"

// AccountService creates the local account and manages its keys.
type AccountService interface {
	CreateAccount(passphrase string) (domaintypes.IdentityKeys, domaintypes.Fingerprint, error)
	IdentityKeys(passphrase string) (domaintypes.IdentityKeys, error)
	Fingerprint(passphrase string) (domaintypes.Fingerprint, error)
	OneTimeKeys(passphrase string) (domaintypes.OneTimeKeys, error)
	GenerateOneTimeKeys(passphrase string, count int) (domaintypes.OneTimeKeys, error)
	GenerateFallbackKey(passphrase string) (domaintypes.OneTimeKeys, error)
	MarkKeysAsPublished(passphrase string) (int, error)
	Sign(passphrase string, message []byte) ([]byte, error)
}

// SessionService establishes pairwise sessions and moves messages through them.
type SessionService interface {
	CreateOutbound(
		passphrase string,
		peer domaintypes.PeerName,
		identityKey domaintypes.X25519Public,
		oneTimeKey domaintypes.X25519Public,
	) (string, error)
	Encrypt(passphrase string, peer domaintypes.PeerName, plaintext []byte) (domaintypes.MessageType, []byte, error)
	Decrypt(passphrase string, peer domaintypes.PeerName, msgType domaintypes.MessageType, message []byte) ([]byte, error)
	SessionID(passphrase string, peer domaintypes.PeerName) (string, error)
}

// GroupService manages outbound and inbound group sessions.
type GroupService interface {
	CreateOutbound(passphrase string, name domaintypes.GroupName) (string, error)
	Credentials(passphrase string, name domaintypes.GroupName) (domaintypes.GroupCredentials, error)
	ImportInbound(passphrase string, name domaintypes.GroupName, creds domaintypes.GroupCredentials) (string, error)
	Encrypt(passphrase string, name domaintypes.GroupName, plaintext []byte) ([]byte, error)
	Decrypt(passphrase string, name domaintypes.GroupName, message []byte) ([]byte, uint32, error)
	Export(passphrase string, name domaintypes.GroupName, index uint32) (string, error)
}

// PkService generates decryption keys and runs public-key encryption.
type PkService interface {
	Generate(passphrase string, name string) (domaintypes.X25519Public, error)
	Encrypt(recipient domaintypes.X25519Public, plaintext []byte) (domaintypes.PkMessage, error)
	Decrypt(passphrase string, name string, msg domaintypes.PkMessage) ([]byte, error)
}
