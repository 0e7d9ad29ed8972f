package store

import (
	"olm/internal/domain"
)

// SaveAccount replaces the stored account.
func (s *FileStore) SaveAccount(passphrase string, rec domain.AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeSealed(s.path(accountFile), passphrase, rec, s.kdf); err != nil {
		return err
	}
	log.Debugf("Saved account to %s", s.path(accountFile))
	return nil
}

// LoadAccount reads the stored account; ok is false if none exists yet.
func (s *FileStore) LoadAccount(passphrase string) (domain.AccountRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec domain.AccountRecord
	ok, err := readSealed(s.path(accountFile), passphrase, &rec)
	return rec, ok, err
}

// Compile-time assertion that FileStore implements domain.AccountStore.
var _ domain.AccountStore = (*FileStore)(nil)
