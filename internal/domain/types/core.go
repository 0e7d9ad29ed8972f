package types

// PeerName is the local label under which sessions with a remote party are kept.
type PeerName string

// String returns the string form of the peer name.
func (p PeerName) String() string { return string(p) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// GroupName is the local label of a group session.
type GroupName string

// String returns the string form of the group name.
func (g GroupName) String() string { return string(g) }

// MessageType discriminates pairwise ciphertexts.
type MessageType int

const (
	// MessageTypePreKey marks messages that carry session establishment data.
	MessageTypePreKey MessageType = 0
	// MessageTypeMessage marks ordinary ratchet messages.
	MessageTypeMessage MessageType = 1
)

// Tag returns the 8-byte literal textual transports place before the ciphertext.
func (t MessageType) Tag() string {
	if t == MessageTypePreKey {
		return "PRE_KEY "
	}
	return "MESSAGE "
}

// String returns the tag without its trailing space.
func (t MessageType) String() string { return t.Tag()[:7] }
