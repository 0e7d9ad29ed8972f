package session

import (
	"errors"
	"io"
	"time"

	"olm"
	"olm/internal/domain"
	"olm/internal/services/account"
	"olm/internal/util/entropy"
	"olm/internal/util/memzero"
)

var (
	// ErrNoSession indicates there is no stored session with the peer.
	ErrNoSession = errors.New("no session with peer; run outbound first")
)

// Service establishes pairwise sessions and moves messages through them.
//
// Sessions with a peer are kept most recently used first:
//   - Encrypt always uses the most recent session.
//   - Decrypt of a pre-key message first looks for a stored session it
//     belongs to, and only then spends one of our one-time keys on a new one.
//   - Decrypt of a normal message tries each stored session in turn.
type Service struct {
	accounts domain.AccountStore
	sessions domain.SessionStore
	rand     io.Reader
}

// New constructs a Session Service with the given stores and random source.
func New(accounts domain.AccountStore, sessions domain.SessionStore, rand io.Reader) *Service {
	return &Service{accounts: accounts, sessions: sessions, rand: rand}
}

func (s *Service) save(passphrase string, peer domain.PeerName, sess *olm.Session) error {
	rec := domain.SessionRecord{
		SessionID:  sess.SessionID(),
		Pickle:     string(sess.Pickle(account.PickleKey(passphrase))),
		UpdatedUTC: time.Now().UTC().Unix(),
	}
	return s.sessions.SaveSession(passphrase, peer, rec)
}

// CreateOutbound spends the peer's one-time key on a new outbound session and
// stores it as the most recent session with peer.
func (s *Service) CreateOutbound(
	passphrase string,
	peer domain.PeerName,
	identityKey domain.X25519Public,
	oneTimeKey domain.X25519Public,
) (string, error) {
	a, _, err := account.Load(s.accounts, passphrase)
	if err != nil {
		return "", err
	}
	defer a.Clear()

	random, err := entropy.Read(s.rand, olm.NewOutboundSessionRandomLength())
	if err != nil {
		return "", err
	}
	defer memzero.Zero(random)

	sess, err := olm.NewOutboundSession(a, identityKey, oneTimeKey, random)
	if err != nil {
		return "", err
	}
	defer sess.Clear()

	if err := s.save(passphrase, peer, sess); err != nil {
		return "", err
	}
	log.Infof("Created outbound session %s with %s", sess.SessionID(), peer)
	return sess.SessionID(), nil
}

// Encrypt encrypts plaintext with the most recent session with peer.
func (s *Service) Encrypt(passphrase string, peer domain.PeerName, plaintext []byte) (domain.MessageType, []byte, error) {
	recs, err := s.sessions.LoadSessions(passphrase, peer)
	if err != nil {
		return 0, nil, err
	}
	if len(recs) == 0 {
		return 0, nil, ErrNoSession
	}
	sess, err := olm.UnpickleSession(account.PickleKey(passphrase), []byte(recs[0].Pickle))
	if err != nil {
		return 0, nil, err
	}
	defer sess.Clear()

	random, err := entropy.Read(s.rand, sess.EncryptRandomLength())
	if err != nil {
		return 0, nil, err
	}
	defer memzero.Zero(random)

	msgType, ct, err := sess.Encrypt(plaintext, random)
	if err != nil {
		return 0, nil, err
	}
	// Persist the advanced chain before the ciphertext leaves this process.
	if err := s.save(passphrase, peer, sess); err != nil {
		return 0, nil, err
	}
	return msgType, ct, nil
}

// Decrypt decrypts a message from peer, establishing an inbound session when
// the message is a pre-key message no stored session accepts.
func (s *Service) Decrypt(
	passphrase string,
	peer domain.PeerName,
	msgType domain.MessageType,
	message []byte,
) ([]byte, error) {
	recs, err := s.sessions.LoadSessions(passphrase, peer)
	if err != nil {
		return nil, err
	}

	var lastErr error = ErrNoSession
	matched := false
	for _, rec := range recs {
		sess, err := olm.UnpickleSession(account.PickleKey(passphrase), []byte(rec.Pickle))
		if err != nil {
			return nil, err
		}
		if msgType == domain.MessageTypePreKey {
			ok, err := sess.MatchesInboundSession(message)
			if err != nil {
				sess.Clear()
				return nil, err
			}
			if !ok {
				sess.Clear()
				continue
			}
			matched = true
		}
		pt, err := s.decryptWith(passphrase, peer, sess, msgType, message)
		if err == nil {
			return pt, nil
		}
		log.Debugf("Session %s rejected message from %s: %v", rec.SessionID, peer, err)
		lastErr = err
	}
	if msgType != domain.MessageTypePreKey || matched {
		return nil, lastErr
	}
	return s.decryptInbound(passphrase, peer, message)
}

// decryptWith decrypts message with sess, saves sess on success and clears it.
func (s *Service) decryptWith(
	passphrase string,
	peer domain.PeerName,
	sess *olm.Session,
	msgType domain.MessageType,
	message []byte,
) ([]byte, error) {
	defer sess.Clear()
	pt, err := sess.Decrypt(msgType, message)
	if err != nil {
		return nil, err
	}
	if err := s.save(passphrase, peer, sess); err != nil {
		memzero.Zero(pt)
		return nil, err
	}
	return pt, nil
}

// decryptInbound creates an inbound session from a pre-key message. The
// account is saved only once the first message has decrypted, so the spent
// one-time key is removed together with the new session being stored.
func (s *Service) decryptInbound(passphrase string, peer domain.PeerName, message []byte) ([]byte, error) {
	a, rec, err := account.Load(s.accounts, passphrase)
	if err != nil {
		return nil, err
	}
	defer a.Clear()

	sess, err := olm.NewInboundSession(a, message)
	if err != nil {
		return nil, err
	}
	pt, err := s.decryptWith(passphrase, peer, sess, domain.MessageTypePreKey, message)
	if err != nil {
		return nil, err
	}
	if err := account.Save(s.accounts, passphrase, a, rec); err != nil {
		memzero.Zero(pt)
		return nil, err
	}
	log.Infof("Established inbound session with %s", peer)
	return pt, nil
}

// SessionID returns the ID of the most recent session with peer.
func (s *Service) SessionID(passphrase string, peer domain.PeerName) (string, error) {
	recs, err := s.sessions.LoadSessions(passphrase, peer)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", ErrNoSession
	}
	return recs[0].SessionID, nil
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
