package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// readFile reads the file at path into b; a missing file is not an error.
func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// Best-effort cleanup if anything fails before rename.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// readSealed decrypts the file at path and decodes its JSON into out. It
// reports false, without error, when the file does not exist.
func readSealed(path, passphrase string, out any) (bool, error) {
	b, err := readFile(path)
	if err != nil || b == nil {
		return false, err
	}
	raw, err := decrypt(passphrase, b)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// writeSealed encodes v as JSON, seals it under passphrase and replaces the
// file at path.
func writeSealed(path, passphrase string, v any, params KDFParams) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b, err := encrypt(passphrase, raw, params)
	if err != nil {
		return err
	}
	return writeFile(path, b, 0o600)
}
