package types

import (
	"errors"
	"fmt"
)

// ErrIncompleteCredentials is returned when a group credentials record lacks a field.
var ErrIncompleteCredentials = errors.New("incomplete group credentials")

// GroupCredentials hands an outbound group session checkpoint to a new
// inbound session. Both fields are required.
type GroupCredentials struct {
	MessageIndex *uint32 `json:"message_index" yaml:"message_index"`
	SessionKey   string  `json:"session_key" yaml:"session_key"`
}

// NewGroupCredentials builds a complete record.
func NewGroupCredentials(index uint32, sessionKey string) GroupCredentials {
	return GroupCredentials{MessageIndex: &index, SessionKey: sessionKey}
}

// Validate reports which required field is missing, if any.
func (c GroupCredentials) Validate() error {
	if c.MessageIndex == nil {
		return fmt.Errorf("%w: message_index is required", ErrIncompleteCredentials)
	}
	if c.SessionKey == "" {
		return fmt.Errorf("%w: session_key is required", ErrIncompleteCredentials)
	}
	return nil
}
