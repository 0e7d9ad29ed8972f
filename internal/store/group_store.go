package store

import (
	"olm/internal/domain"
)

// SaveGroupSession stores rec under name.
func (s *FileStore) SaveGroupSession(passphrase string, name domain.GroupName, rec domain.GroupRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(groupsFile)
	groups := map[domain.GroupName]domain.GroupRecord{}
	if _, err := readSealed(path, passphrase, &groups); err != nil {
		return err
	}
	groups[name] = rec
	return writeSealed(path, passphrase, groups, s.kdf)
}

// LoadGroupSession retrieves the group session stored under name.
func (s *FileStore) LoadGroupSession(passphrase string, name domain.GroupName) (domain.GroupRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := map[domain.GroupName]domain.GroupRecord{}
	if _, err := readSealed(s.path(groupsFile), passphrase, &groups); err != nil {
		return domain.GroupRecord{}, false, err
	}
	rec, ok := groups[name]
	return rec, ok, nil
}

// Compile-time assertion that FileStore implements domain.GroupSessionStore.
var _ domain.GroupSessionStore = (*FileStore)(nil)
