package store

import (
	"path/filepath"
	"sync"
)

const (
	accountFile  = "account.enc"
	sessionsFile = "sessions.enc" // map[peer][]SessionRecord
	groupsFile   = "groups.enc"   // map[name]GroupRecord
	pkKeysFile   = "pk_keys.enc"  // map[name]PkRecord
)

// FileStore keeps every record kind in its own sealed file under dir. Each
// write re-seals the whole file with a fresh salt.
type FileStore struct {
	dir string
	kdf KDFParams
	mu  sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir that seals new files with
// kdf.
func NewFileStore(dir string, kdf KDFParams) *FileStore {
	return &FileStore{dir: dir, kdf: kdf}
}

// Dir is the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string { return filepath.Join(s.dir, name) }
