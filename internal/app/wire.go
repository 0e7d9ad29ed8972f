package app

import (
	"io"

	"olm"
	"olm/internal/domain"
	accountsvc "olm/internal/services/account"
	groupsvc "olm/internal/services/group"
	pksvc "olm/internal/services/pk"
	sessionsvc "olm/internal/services/session"
	"olm/internal/store"
)

// Wire bundles the store and services for the CLI.
type Wire struct {
	Store    *store.FileStore
	Accounts domain.AccountService
	Sessions domain.SessionService
	Groups   domain.GroupService
	Pk       domain.PkService
}

// NewWire constructs the dependency graph from cfg. Every service draws its
// key material from rand.
func NewWire(cfg Config, rand io.Reader) (*Wire, error) {
	kdf, err := store.DefaultKDFParams(store.KDF(cfg.KDF))
	if err != nil {
		return nil, err
	}
	fs := store.NewFileStore(cfg.Home, kdf)

	var groupOpts []olm.InboundGroupOption
	if cfg.RetainGroupHistory {
		groupOpts = append(groupOpts, olm.WithRetainedHistory())
	}

	return &Wire{
		Store:    fs,
		Accounts: accountsvc.New(fs, rand),
		Sessions: sessionsvc.New(fs, fs, rand),
		Groups:   groupsvc.New(fs, rand, groupOpts...),
		Pk:       pksvc.New(fs, rand),
	}, nil
}
