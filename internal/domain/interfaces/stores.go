package interfaces

import domaintypes "olm/internal/domain/types"

// AccountStore persists the pickled local account.
type AccountStore interface {
	SaveAccount(passphrase string, rec domaintypes.AccountRecord) error
	LoadAccount(passphrase string) (domaintypes.AccountRecord, bool, error)
}

// SessionStore keeps pairwise sessions per peer, most recently used first.
type SessionStore interface {
	SaveSession(passphrase string, peer domaintypes.PeerName, rec domaintypes.SessionRecord) error
	LoadSessions(passphrase string, peer domaintypes.PeerName) ([]domaintypes.SessionRecord, error)
}

// GroupSessionStore keeps group sessions by name.
type GroupSessionStore interface {
	SaveGroupSession(passphrase string, name domaintypes.GroupName, rec domaintypes.GroupRecord) error
	LoadGroupSession(passphrase string, name domaintypes.GroupName) (domaintypes.GroupRecord, bool, error)
}

// PkKeyStore keeps public-key decryption keys by name.
type PkKeyStore interface {
	SavePkKey(passphrase string, name string, rec domaintypes.PkRecord) error
	LoadPkKey(passphrase string, name string) (domaintypes.PkRecord, bool, error)
}
