package pk

import (
	"errors"
	"fmt"
	"io"

	"olm"
	"olm/internal/domain"
	"olm/internal/services/account"
	"olm/internal/util/entropy"
	"olm/internal/util/memzero"
)

var (
	// ErrNoKey indicates there is no stored decryption key with the name.
	ErrNoKey = errors.New("no decryption key with that name")
)

// Service generates named decryption keys and encrypts to public keys.
type Service struct {
	store domain.PkKeyStore
	rand  io.Reader
}

// New constructs a Pk Service with the given store and random source.
func New(store domain.PkKeyStore, rand io.Reader) *Service {
	return &Service{store: store, rand: rand}
}

// Generate creates a decryption key, stores it under name and returns the
// public key to encrypt to.
func (s *Service) Generate(passphrase string, name string) (domain.X25519Public, error) {
	random, err := entropy.Read(s.rand, olm.NewPkDecryptionRandomLength())
	if err != nil {
		return domain.X25519Public{}, err
	}
	defer memzero.Zero(random)

	d, err := olm.NewPkDecryption(random)
	if err != nil {
		return domain.X25519Public{}, err
	}
	defer d.Clear()

	rec := domain.PkRecord{
		PublicKey: d.PublicKey(),
		Pickle:    string(d.Pickle(account.PickleKey(passphrase))),
	}
	if err := s.store.SavePkKey(passphrase, name, rec); err != nil {
		return domain.X25519Public{}, err
	}
	log.Infof("Generated decryption key %q (%s)", name, rec.PublicKey)
	return rec.PublicKey, nil
}

// Encrypt encrypts plaintext to recipient.
func (s *Service) Encrypt(recipient domain.X25519Public, plaintext []byte) (domain.PkMessage, error) {
	e := olm.NewPkEncryption(recipient)
	random, err := entropy.Read(s.rand, e.EncryptRandomLength())
	if err != nil {
		return domain.PkMessage{}, err
	}
	defer memzero.Zero(random)
	return e.Encrypt(plaintext, random)
}

// Decrypt decrypts msg with the key stored under name.
func (s *Service) Decrypt(passphrase string, name string, msg domain.PkMessage) ([]byte, error) {
	rec, ok, err := s.store.LoadPkKey(passphrase, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoKey, name)
	}
	d, err := olm.UnpicklePkDecryption(account.PickleKey(passphrase), []byte(rec.Pickle))
	if err != nil {
		return nil, err
	}
	defer d.Clear()
	return d.Decrypt(msg)
}

// Compile-time assertion that Service implements domain.PkService.
var _ domain.PkService = (*Service)(nil)
