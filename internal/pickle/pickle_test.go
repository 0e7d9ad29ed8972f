package pickle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"olm/internal/domain"
	"olm/internal/pickle"
)

func encodeSample() *pickle.Encoder {
	e := pickle.NewEncoder(7)
	e.Bool(true)
	e.Uint8(9)
	e.Uint32(0xDEADBEEF)
	e.Bytes([]byte("fixed"))
	return e
}

func decodeSample(t *testing.T, d *pickle.Decoder) {
	t.Helper()
	require.True(t, d.Bool())
	require.Equal(t, uint8(9), d.Uint8())
	require.Equal(t, uint32(0xDEADBEEF), d.Uint32())
	buf := make([]byte, 5)
	d.Read(buf)
	require.Equal(t, "fixed", string(buf))
}

func TestSealOpen_RoundTrip(t *testing.T) {
	for _, key := range [][]byte{[]byte("secret key"), nil} {
		raw := encodeSample().Raw()
		blob := pickle.Seal(key, raw)
		require.Len(t, blob, pickle.EncryptedLength(len(raw)))

		got, err := pickle.Open(key, blob)
		require.NoError(t, err)
		require.Equal(t, raw, got)
	}
}

func TestOpen_Errors(t *testing.T) {
	blob := pickle.Seal([]byte("right"), encodeSample().Raw())

	_, err := pickle.Open([]byte("wrong"), blob)
	require.ErrorIs(t, err, domain.ErrBadAccountKey)

	_, err = pickle.Open([]byte("right"), []byte("not*base64"))
	require.ErrorIs(t, err, domain.ErrInvalidBase64)

	_, err = pickle.Open([]byte("right"), []byte("AAAA"))
	require.ErrorIs(t, err, domain.ErrCorruptedPickle)

	tampered := append([]byte(nil), blob...)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}
	_, err = pickle.Open([]byte("right"), tampered)
	require.ErrorIs(t, err, domain.ErrBadAccountKey)
}

func TestUnseal_Versions(t *testing.T) {
	key := []byte("k")
	blob := pickle.SealEncoder(key, encodeSample())

	err := pickle.Unseal(key, blob, func(version uint32, d *pickle.Decoder) error {
		require.Equal(t, uint32(7), version)
		decodeSample(t, d)
		return nil
	}, 6, 7)
	require.NoError(t, err)

	err = pickle.Unseal(key, blob, func(uint32, *pickle.Decoder) error {
		t.Fatal("decode must not run for an unknown version")
		return nil
	}, 1)
	require.ErrorIs(t, err, domain.ErrUnknownPickleVersion)
}

func TestUnseal_TrailingAndTruncatedData(t *testing.T) {
	key := []byte("k")
	blob := pickle.SealEncoder(key, encodeSample())

	err := pickle.Unseal(key, blob, func(_ uint32, d *pickle.Decoder) error {
		d.Uint32()
		return nil
	}, 7)
	require.ErrorIs(t, err, domain.ErrCorruptedPickle)

	err = pickle.Unseal(key, blob, func(_ uint32, d *pickle.Decoder) error {
		decodeSample(t, d)
		d.Uint32()
		return d.Err()
	}, 7)
	require.ErrorIs(t, err, domain.ErrCorruptedPickle)
}

func TestDecoder_CountLimit(t *testing.T) {
	e := pickle.NewEncoder(1)
	e.Uint32(500)
	d := pickle.NewDecoder(e.Raw())
	d.Uint32()
	require.Zero(t, d.Count(100))
	require.ErrorIs(t, d.Err(), domain.ErrCorruptedPickle)
}
