package types

// AccountRecord is the persisted form of the local account.
type AccountRecord struct {
	Pickle     string `json:"pickle"`
	CreatedUTC int64  `json:"created_utc"`
}

// SessionRecord is one persisted pairwise session with a peer.
type SessionRecord struct {
	SessionID  string `json:"session_id"`
	Pickle     string `json:"pickle"`
	UpdatedUTC int64  `json:"updated_utc"`
}

// GroupDirection says whether a group session encrypts or decrypts.
type GroupDirection string

const (
	GroupOutbound GroupDirection = "outbound"
	GroupInbound  GroupDirection = "inbound"
)

// GroupRecord is one persisted group session.
type GroupRecord struct {
	Direction  GroupDirection `json:"direction"`
	SessionID  string         `json:"session_id"`
	Pickle     string         `json:"pickle"`
	UpdatedUTC int64          `json:"updated_utc"`
}

// PkRecord is one persisted public-key decryption key.
type PkRecord struct {
	PublicKey X25519Public `json:"public_key"`
	Pickle    string       `json:"pickle"`
}
