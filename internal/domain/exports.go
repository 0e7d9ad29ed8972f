package domain

import (
	interfaces "olm/internal/domain/interfaces"
	types "olm/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PeerName         = types.PeerName
	GroupName        = types.GroupName
	Fingerprint      = types.Fingerprint
	MessageType      = types.MessageType
	ErrorCode        = types.ErrorCode
	Error            = types.Error
	IdentityKeys     = types.IdentityKeys
	OneTimeKeys      = types.OneTimeKeys
	PkMessage        = types.PkMessage
	GroupCredentials = types.GroupCredentials
	AccountRecord    = types.AccountRecord
	SessionRecord    = types.SessionRecord
	GroupDirection   = types.GroupDirection
	GroupRecord      = types.GroupRecord
	PkRecord         = types.PkRecord
	X25519Public     = types.X25519Public
	X25519Private    = types.X25519Private
	Ed25519Public    = types.Ed25519Public
	Ed25519Private   = types.Ed25519Private
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	AccountService    = interfaces.AccountService
	SessionService    = interfaces.SessionService
	GroupService      = interfaces.GroupService
	PkService         = interfaces.PkService
	AccountStore      = interfaces.AccountStore
	SessionStore      = interfaces.SessionStore
	GroupSessionStore = interfaces.GroupSessionStore
	PkKeyStore        = interfaces.PkKeyStore
)

const (
	MessageTypePreKey  = types.MessageTypePreKey
	MessageTypeMessage = types.MessageTypeMessage
	GroupOutbound      = types.GroupOutbound
	GroupInbound       = types.GroupInbound
)

// Error sentinels, re-exported so callers only import domain.
var (
	ErrNotEnoughRandom       = types.ErrNotEnoughRandom
	ErrInvalidKey            = types.ErrInvalidKey
	ErrBadMessageVersion     = types.ErrBadMessageVersion
	ErrBadMessageFormat      = types.ErrBadMessageFormat
	ErrBadMessageMAC         = types.ErrBadMessageMAC
	ErrUnknownOneTimeKey     = types.ErrUnknownOneTimeKey
	ErrInvalidBase64         = types.ErrInvalidBase64
	ErrBadAccountKey         = types.ErrBadAccountKey
	ErrUnknownPickleVersion  = types.ErrUnknownPickleVersion
	ErrCorruptedPickle       = types.ErrCorruptedPickle
	ErrBadSessionKey         = types.ErrBadSessionKey
	ErrIndexTooOld           = types.ErrIndexTooOld
	ErrBadSignature          = types.ErrBadSignature
	ErrIncompleteCredentials = types.ErrIncompleteCredentials
)

// KeyEncoding is the unpadded base64 encoding used for keys and digests.
var KeyEncoding = types.KeyEncoding

// CodeOf returns the stable code carried by err.
func CodeOf(err error) ErrorCode { return types.CodeOf(err) }

// NewGroupCredentials builds a complete group credentials record.
func NewGroupCredentials(index uint32, sessionKey string) GroupCredentials {
	return types.NewGroupCredentials(index, sessionKey)
}
