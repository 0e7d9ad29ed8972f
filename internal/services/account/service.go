package account

import (
	"errors"
	"fmt"
	"io"
	"time"
	"unicode"

	"olm"
	"olm/internal/domain"
	"olm/internal/util/entropy"
	"olm/internal/util/memzero"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrAccountExists is returned by CreateAccount when an account is already stored.
	ErrAccountExists = errors.New("account already exists")

	// ErrNoAccount is returned when no account has been created yet.
	ErrNoAccount = errors.New("no account; run init first")
)

// Service manages the local olm account using a backing store.
//
// The account contains:
//   - Curve25519 identity key pair used in session establishment.
//   - Ed25519 key pair for signing.
//   - The pool of one-time keys and the fallback key that peers spend to
//     open sessions with us.
type Service struct {
	store domain.AccountStore
	rand  io.Reader
}

// New returns an account service backed by the given store, drawing key
// material from rand.
func New(s domain.AccountStore, rand io.Reader) *Service { return &Service{store: s, rand: rand} }

// PickleKey is the key account and session pickles are encrypted under.
func PickleKey(passphrase string) []byte { return []byte(passphrase) }

// Load decrypts the stored account. The caller clears it when done.
func Load(store domain.AccountStore, passphrase string) (*olm.Account, domain.AccountRecord, error) {
	rec, ok, err := store.LoadAccount(passphrase)
	if err != nil {
		return nil, rec, err
	}
	if !ok {
		return nil, rec, ErrNoAccount
	}
	a, err := olm.UnpickleAccount(PickleKey(passphrase), []byte(rec.Pickle))
	if err != nil {
		return nil, rec, fmt.Errorf("unpickle account: %w", err)
	}
	return a, rec, nil
}

// Save pickles a into rec and stores it.
func Save(store domain.AccountStore, passphrase string, a *olm.Account, rec domain.AccountRecord) error {
	rec.Pickle = string(a.Pickle(PickleKey(passphrase)))
	return store.SaveAccount(passphrase, rec)
}

// CreateAccount generates a new account, saves it encrypted with the
// passphrase, and returns its identity keys plus a short fingerprint.
func (s *Service) CreateAccount(passphrase string) (domain.IdentityKeys, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.IdentityKeys{}, "", ErrWeakPassphrase
	}
	_, exists, err := s.store.LoadAccount(passphrase)
	if err != nil {
		return domain.IdentityKeys{}, "", err
	}
	if exists {
		return domain.IdentityKeys{}, "", ErrAccountExists
	}

	random, err := entropy.Read(s.rand, olm.NewAccountRandomLength())
	if err != nil {
		return domain.IdentityKeys{}, "", err
	}
	defer memzero.Zero(random)
	a, err := olm.NewAccount(random)
	if err != nil {
		return domain.IdentityKeys{}, "", err
	}
	defer a.Clear()

	rec := domain.AccountRecord{CreatedUTC: time.Now().UTC().Unix()}
	if err := Save(s.store, passphrase, a, rec); err != nil {
		return domain.IdentityKeys{}, "", err
	}
	log.Infof("Created account %s", a.Fingerprint())
	return a.IdentityKeys(), domain.Fingerprint(a.Fingerprint()), nil
}

// view runs fn on the stored account without saving it.
func (s *Service) view(passphrase string, fn func(*olm.Account) error) error {
	a, _, err := Load(s.store, passphrase)
	if err != nil {
		return err
	}
	defer a.Clear()
	return fn(a)
}

// update runs fn on the stored account and saves the result if fn succeeds.
func (s *Service) update(passphrase string, fn func(*olm.Account) error) error {
	a, rec, err := Load(s.store, passphrase)
	if err != nil {
		return err
	}
	defer a.Clear()
	if err := fn(a); err != nil {
		return err
	}
	return Save(s.store, passphrase, a, rec)
}

// IdentityKeys returns the public identity keys.
func (s *Service) IdentityKeys(passphrase string) (keys domain.IdentityKeys, err error) {
	err = s.view(passphrase, func(a *olm.Account) error {
		keys = a.IdentityKeys()
		return nil
	})
	return keys, err
}

// Fingerprint returns a short fingerprint of the Curve25519 identity key.
func (s *Service) Fingerprint(passphrase string) (fp domain.Fingerprint, err error) {
	err = s.view(passphrase, func(a *olm.Account) error {
		fp = domain.Fingerprint(a.Fingerprint())
		return nil
	})
	return fp, err
}

// OneTimeKeys lists the unpublished one-time keys.
func (s *Service) OneTimeKeys(passphrase string) (keys domain.OneTimeKeys, err error) {
	err = s.view(passphrase, func(a *olm.Account) error {
		keys = a.OneTimeKeys()
		return nil
	})
	return keys, err
}

// GenerateOneTimeKeys adds count one-time keys and returns every unpublished
// key.
func (s *Service) GenerateOneTimeKeys(passphrase string, count int) (keys domain.OneTimeKeys, err error) {
	if count <= 0 {
		return keys, fmt.Errorf("key count must be positive, got %d", count)
	}
	err = s.update(passphrase, func(a *olm.Account) error {
		if count > a.MaxNumberOfOneTimeKeys() {
			return fmt.Errorf("at most %d one-time keys are kept", a.MaxNumberOfOneTimeKeys())
		}
		random, err := entropy.Read(s.rand, a.GenerateOneTimeKeysRandomLength(count))
		if err != nil {
			return err
		}
		defer memzero.Zero(random)
		if err := a.GenerateOneTimeKeys(count, random); err != nil {
			return err
		}
		keys = a.OneTimeKeys()
		log.Debugf("Generated %d one-time keys, %d unpublished", count, len(keys.Curve25519))
		return nil
	})
	return keys, err
}

// GenerateFallbackKey replaces the fallback key and returns it.
func (s *Service) GenerateFallbackKey(passphrase string) (keys domain.OneTimeKeys, err error) {
	err = s.update(passphrase, func(a *olm.Account) error {
		random, err := entropy.Read(s.rand, a.GenerateFallbackKeyRandomLength())
		if err != nil {
			return err
		}
		defer memzero.Zero(random)
		if err := a.GenerateFallbackKey(random); err != nil {
			return err
		}
		keys = a.UnpublishedFallbackKey()
		return nil
	})
	return keys, err
}

// MarkKeysAsPublished marks all keys published and returns how many changed.
func (s *Service) MarkKeysAsPublished(passphrase string) (n int, err error) {
	err = s.update(passphrase, func(a *olm.Account) error {
		n = a.MarkKeysAsPublished()
		return nil
	})
	return n, err
}

// Sign signs message with the account's Ed25519 key.
func (s *Service) Sign(passphrase string, message []byte) (sig []byte, err error) {
	err = s.view(passphrase, func(a *olm.Account) error {
		sig = a.Sign(message)
		return nil
	})
	return sig, err
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.AccountService.
var _ domain.AccountService = (*Service)(nil)
