package store

import (
	"olm/internal/domain"
)

// maxSessionsPerPeer bounds how many sessions are kept per peer; the least
// recently saved are dropped.
const maxSessionsPerPeer = 8

// SaveSession stores rec as the most recent session with peer, replacing an
// older record with the same session ID.
func (s *FileStore) SaveSession(passphrase string, peer domain.PeerName, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(sessionsFile)
	sessions := map[domain.PeerName][]domain.SessionRecord{}
	if _, err := readSealed(path, passphrase, &sessions); err != nil {
		return err
	}

	list := []domain.SessionRecord{rec}
	for _, old := range sessions[peer] {
		if old.SessionID != rec.SessionID {
			list = append(list, old)
		}
	}
	if len(list) > maxSessionsPerPeer {
		log.Debugf("Dropping %d old sessions with %s", len(list)-maxSessionsPerPeer, peer)
		list = list[:maxSessionsPerPeer]
	}
	sessions[peer] = list
	return writeSealed(path, passphrase, sessions, s.kdf)
}

// LoadSessions returns the sessions with peer, most recently saved first.
func (s *FileStore) LoadSessions(passphrase string, peer domain.PeerName) ([]domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := map[domain.PeerName][]domain.SessionRecord{}
	if _, err := readSealed(s.path(sessionsFile), passphrase, &sessions); err != nil {
		return nil, err
	}
	return sessions[peer], nil
}

// Compile-time assertion that FileStore implements domain.SessionStore.
var _ domain.SessionStore = (*FileStore)(nil)
