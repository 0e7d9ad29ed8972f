package crypto

import "olm/internal/domain"

// EncodeBase64 returns the unpadded standard base64 form of b.
func EncodeBase64(b []byte) string { return domain.KeyEncoding.EncodeToString(b) }

// DecodeBase64 decodes unpadded standard base64, reporting ErrInvalidBase64.
func DecodeBase64(s []byte) ([]byte, error) {
	out := make([]byte, domain.KeyEncoding.DecodedLen(len(s)))
	n, err := domain.KeyEncoding.Decode(out, s)
	if err != nil {
		return nil, domain.ErrInvalidBase64
	}
	return out[:n], nil
}
