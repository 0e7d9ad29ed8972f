package store

import (
	"olm/internal/domain"
)

// SavePkKey stores a decryption key under name.
func (s *FileStore) SavePkKey(passphrase string, name string, rec domain.PkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(pkKeysFile)
	keys := map[string]domain.PkRecord{}
	if _, err := readSealed(path, passphrase, &keys); err != nil {
		return err
	}
	keys[name] = rec
	return writeSealed(path, passphrase, keys, s.kdf)
}

// LoadPkKey retrieves the decryption key stored under name.
func (s *FileStore) LoadPkKey(passphrase string, name string) (domain.PkRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := map[string]domain.PkRecord{}
	if _, err := readSealed(s.path(pkKeysFile), passphrase, &keys); err != nil {
		return domain.PkRecord{}, false, err
	}
	rec, ok := keys[name]
	return rec, ok, nil
}

// Compile-time assertion that FileStore implements domain.PkKeyStore.
var _ domain.PkKeyStore = (*FileStore)(nil)
