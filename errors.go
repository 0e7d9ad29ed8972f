package olm

import "olm/internal/domain"

// ErrorCode is the stable short string reported for a failure kind.
type ErrorCode = domain.ErrorCode

// Error is the type of every engine failure.
type Error = domain.Error

// Failure kinds. Match them with errors.Is.
var (
	ErrNotEnoughRandom      = domain.ErrNotEnoughRandom
	ErrInvalidKey           = domain.ErrInvalidKey
	ErrBadMessageVersion    = domain.ErrBadMessageVersion
	ErrBadMessageFormat     = domain.ErrBadMessageFormat
	ErrBadMessageMAC        = domain.ErrBadMessageMAC
	ErrUnknownOneTimeKey    = domain.ErrUnknownOneTimeKey
	ErrInvalidBase64        = domain.ErrInvalidBase64
	ErrBadAccountKey        = domain.ErrBadAccountKey
	ErrUnknownPickleVersion = domain.ErrUnknownPickleVersion
	ErrCorruptedPickle      = domain.ErrCorruptedPickle
	ErrBadSessionKey        = domain.ErrBadSessionKey
	ErrIndexTooOld          = domain.ErrIndexTooOld
	ErrBadSignature         = domain.ErrBadSignature
)

// CodeOf returns the stable code carried by err: SUCCESS for nil and the
// empty code for errors that did not come from the engine.
func CodeOf(err error) ErrorCode { return domain.CodeOf(err) }

// lastError remembers the most recent failure of a component.
type lastError struct {
	code ErrorCode
}

// fail records err and returns it.
func (l *lastError) fail(err error) error {
	if err != nil {
		l.code = domain.CodeOf(err)
	}
	return err
}

// LastError returns the code of the most recent failed operation on this
// instance, or SUCCESS if none has failed.
func (l *lastError) LastError() string {
	if l.code == "" {
		return string(domain.CodeOf(nil))
	}
	return string(l.code)
}
