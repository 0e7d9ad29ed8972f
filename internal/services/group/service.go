package group

import (
	"errors"
	"fmt"
	"io"
	"time"

	"olm"
	"olm/internal/domain"
	"olm/internal/services/account"
	"olm/internal/util/entropy"
	"olm/internal/util/memzero"
)

var (
	// ErrNoGroup indicates there is no stored group session with the name.
	ErrNoGroup = errors.New("no group session with that name")

	// ErrWrongDirection is returned when an operation needs the other kind of
	// group session, e.g. encrypting with an inbound session.
	ErrWrongDirection = errors.New("group session has the wrong direction")

	// ErrIndexMismatch is returned when credentials state a message index the
	// session key does not start at.
	ErrIndexMismatch = errors.New("credentials message index does not match session key")
)

// Service manages named group sessions.
//
// A name holds either an outbound session, which encrypts and hands out
// credentials, or an inbound session imported from such credentials, which
// decrypts and can re-export itself from a later index.
type Service struct {
	store domain.GroupSessionStore
	rand  io.Reader
	opts  []olm.InboundGroupOption
}

// New constructs a Group Service. opts are applied to every imported inbound
// session.
func New(store domain.GroupSessionStore, rand io.Reader, opts ...olm.InboundGroupOption) *Service {
	return &Service{store: store, rand: rand, opts: opts}
}

func (s *Service) load(passphrase string, name domain.GroupName, want domain.GroupDirection) (domain.GroupRecord, error) {
	rec, ok, err := s.store.LoadGroupSession(passphrase, name)
	if err != nil {
		return rec, err
	}
	if !ok {
		return rec, fmt.Errorf("%w: %q", ErrNoGroup, name)
	}
	if rec.Direction != want {
		return rec, fmt.Errorf("%w: %q is %s", ErrWrongDirection, name, rec.Direction)
	}
	return rec, nil
}

func (s *Service) loadOutbound(passphrase string, name domain.GroupName) (*olm.OutboundGroupSession, error) {
	rec, err := s.load(passphrase, name, domain.GroupOutbound)
	if err != nil {
		return nil, err
	}
	return olm.UnpickleOutboundGroupSession(account.PickleKey(passphrase), []byte(rec.Pickle))
}

func (s *Service) loadInbound(passphrase string, name domain.GroupName) (*olm.InboundGroupSession, error) {
	rec, err := s.load(passphrase, name, domain.GroupInbound)
	if err != nil {
		return nil, err
	}
	return olm.UnpickleInboundGroupSession(account.PickleKey(passphrase), []byte(rec.Pickle))
}

type pickler interface {
	ID() string
	Pickle(key []byte) []byte
}

func (s *Service) save(passphrase string, name domain.GroupName, dir domain.GroupDirection, g pickler) error {
	rec := domain.GroupRecord{
		Direction:  dir,
		SessionID:  g.ID(),
		Pickle:     string(g.Pickle(account.PickleKey(passphrase))),
		UpdatedUTC: time.Now().UTC().Unix(),
	}
	return s.store.SaveGroupSession(passphrase, name, rec)
}

// CreateOutbound creates a new outbound group session under name, replacing
// any session stored there, and returns its ID.
func (s *Service) CreateOutbound(passphrase string, name domain.GroupName) (string, error) {
	random, err := entropy.Read(s.rand, olm.NewOutboundGroupSessionRandomLength())
	if err != nil {
		return "", err
	}
	defer memzero.Zero(random)

	g, err := olm.NewOutboundGroupSession(random)
	if err != nil {
		return "", err
	}
	defer g.Clear()

	if err := s.save(passphrase, name, domain.GroupOutbound, g); err != nil {
		return "", err
	}
	log.Infof("Created outbound group session %s as %q", g.ID(), name)
	return g.ID(), nil
}

// Credentials returns what a recipient needs to decrypt the outbound
// session's messages from its current index onwards.
func (s *Service) Credentials(passphrase string, name domain.GroupName) (domain.GroupCredentials, error) {
	g, err := s.loadOutbound(passphrase, name)
	if err != nil {
		return domain.GroupCredentials{}, err
	}
	defer g.Clear()
	return domain.NewGroupCredentials(g.MessageIndex(), g.SessionKey()), nil
}

// ImportInbound creates an inbound session under name from credentials. The
// session key may be a signed session key or an unsigned export.
func (s *Service) ImportInbound(passphrase string, name domain.GroupName, creds domain.GroupCredentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	g, err := olm.NewInboundGroupSession(creds.SessionKey, s.opts...)
	if errors.Is(err, domain.ErrBadSessionKey) {
		g, err = olm.ImportInboundGroupSession(creds.SessionKey, s.opts...)
	}
	if err != nil {
		return "", err
	}
	defer g.Clear()

	if g.FirstKnownIndex() != *creds.MessageIndex {
		return "", fmt.Errorf("%w: message_index %d, session key starts at %d",
			ErrIndexMismatch, *creds.MessageIndex, g.FirstKnownIndex())
	}
	if err := s.save(passphrase, name, domain.GroupInbound, g); err != nil {
		return "", err
	}
	log.Infof("Imported inbound group session %s as %q from index %d (verified: %v)",
		g.ID(), name, g.FirstKnownIndex(), g.IsVerified())
	return g.ID(), nil
}

// Encrypt encrypts plaintext with the outbound session under name.
func (s *Service) Encrypt(passphrase string, name domain.GroupName, plaintext []byte) ([]byte, error) {
	g, err := s.loadOutbound(passphrase, name)
	if err != nil {
		return nil, err
	}
	defer g.Clear()

	ct := g.Encrypt(plaintext)
	if err := s.save(passphrase, name, domain.GroupOutbound, g); err != nil {
		return nil, err
	}
	return ct, nil
}

// Decrypt decrypts message with the inbound session under name and returns
// the plaintext and its message index.
func (s *Service) Decrypt(passphrase string, name domain.GroupName, message []byte) ([]byte, uint32, error) {
	g, err := s.loadInbound(passphrase, name)
	if err != nil {
		return nil, 0, err
	}
	defer g.Clear()

	pt, index, err := g.Decrypt(message)
	if err != nil {
		return nil, 0, err
	}
	if err := s.save(passphrase, name, domain.GroupInbound, g); err != nil {
		memzero.Zero(pt)
		return nil, 0, err
	}
	return pt, index, nil
}

// Export exports the inbound session under name from index onwards.
func (s *Service) Export(passphrase string, name domain.GroupName, index uint32) (string, error) {
	g, err := s.loadInbound(passphrase, name)
	if err != nil {
		return "", err
	}
	defer g.Clear()
	return g.Export(index)
}

// Compile-time assertion that Service implements domain.GroupService.
var _ domain.GroupService = (*Service)(nil)
