package crypto

import (
	"encoding/hex"
	"strings"
)

const (
	fingerprintBytes = 10
	fingerprintGroup = 4
)

// Fingerprint returns a short display form of a public key: the first 10
// bytes of its SHA-256 digest as hex, in space separated groups of four.
func Fingerprint(pub []byte) string {
	sum := SHA256(pub)
	digits := hex.EncodeToString(sum[:fingerprintBytes])
	var b strings.Builder
	for i := 0; i < len(digits); i += fingerprintGroup {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+fingerprintGroup])
	}
	return b.String()
}
