package types

import "errors"

// ErrorCode is the stable short string reported for a failure kind.
type ErrorCode string

const (
	CodeSuccess              ErrorCode = "SUCCESS"
	CodeNotEnoughRandom      ErrorCode = "NOT_ENOUGH_RANDOM"
	CodeInvalidKey           ErrorCode = "INVALID_KEY"
	CodeBadMessageVersion    ErrorCode = "BAD_MESSAGE_VERSION"
	CodeBadMessageFormat     ErrorCode = "BAD_MESSAGE_FORMAT"
	CodeBadMessageMAC        ErrorCode = "BAD_MESSAGE_MAC"
	CodeBadMessageKeyID      ErrorCode = "BAD_MESSAGE_KEY_ID"
	CodeInvalidBase64        ErrorCode = "INVALID_BASE64"
	CodeBadAccountKey        ErrorCode = "BAD_ACCOUNT_KEY"
	CodeUnknownPickleVersion ErrorCode = "UNKNOWN_PICKLE_VERSION"
	CodeCorruptedPickle      ErrorCode = "CORRUPTED_PICKLE"
	CodeBadSessionKey        ErrorCode = "BAD_SESSION_KEY"
	CodeIndexTooOld          ErrorCode = "OLM_INDEX_TOO_OLD"
	CodeBadSignature         ErrorCode = "BAD_SIGNATURE"
)

// Error is an engine failure identified by its code.
type Error struct {
	Code ErrorCode
}

func (e *Error) Error() string { return string(e.Code) }

var (
	ErrNotEnoughRandom      = &Error{CodeNotEnoughRandom}
	ErrInvalidKey           = &Error{CodeInvalidKey}
	ErrBadMessageVersion    = &Error{CodeBadMessageVersion}
	ErrBadMessageFormat     = &Error{CodeBadMessageFormat}
	ErrBadMessageMAC        = &Error{CodeBadMessageMAC}
	ErrUnknownOneTimeKey    = &Error{CodeBadMessageKeyID}
	ErrInvalidBase64        = &Error{CodeInvalidBase64}
	ErrBadAccountKey        = &Error{CodeBadAccountKey}
	ErrUnknownPickleVersion = &Error{CodeUnknownPickleVersion}
	ErrCorruptedPickle      = &Error{CodeCorruptedPickle}
	ErrBadSessionKey        = &Error{CodeBadSessionKey}
	ErrIndexTooOld          = &Error{CodeIndexTooOld}
	ErrBadSignature         = &Error{CodeBadSignature}
)

// CodeOf returns the code carried by err, SUCCESS for nil, or the empty code
// when err did not originate in the engine.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
