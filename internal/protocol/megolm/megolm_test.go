package megolm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"olm/internal/pickle"
	"olm/internal/protocol/megolm"
)

func seedRatchet(counter uint32) megolm.Ratchet {
	data := make([]byte, megolm.RatchetLength)
	for i := range data {
		data[i] = byte(i)
	}
	return megolm.New(data, counter)
}

func TestAdvance_LowPartOnly(t *testing.T) {
	r := seedRatchet(0)
	before := r
	r.Advance()

	require.Equal(t, uint32(1), r.Counter)
	require.Equal(t, before.Data[:96], r.Data[:96])
	require.NotEqual(t, before.Data[96:], r.Data[96:])
}

func TestAdvance_RollsOverParts(t *testing.T) {
	r := seedRatchet(0xFF)
	before := r
	r.Advance()

	require.Equal(t, uint32(0x100), r.Counter)
	require.Equal(t, before.Data[:64], r.Data[:64])
	require.NotEqual(t, before.Data[64:96], r.Data[64:96])
}

func TestAdvanceTo_MatchesStepping(t *testing.T) {
	for _, tc := range []struct{ from, to uint32 }{
		{0, 1},
		{0, 255},
		{0, 256},
		{3, 1000},
		{0xFE, 0x10003},
		{0x1234, 0x1234},
	} {
		stepped := seedRatchet(tc.from)
		for stepped.Counter < tc.to {
			stepped.Advance()
		}
		jumped := seedRatchet(tc.from)
		jumped.AdvanceTo(tc.to)

		require.Equal(t, tc.to, jumped.Counter, "%#x -> %#x", tc.from, tc.to)
		require.True(t, bytes.Equal(stepped.Data[:], jumped.Data[:]), "%#x -> %#x", tc.from, tc.to)
	}
}

func TestAdvanceTo_IsOrderIndependent(t *testing.T) {
	direct := seedRatchet(0)
	direct.AdvanceTo(5000)

	staged := seedRatchet(0)
	staged.AdvanceTo(300)
	staged.AdvanceTo(4096)
	staged.AdvanceTo(5000)

	require.Equal(t, direct, staged)
}

func TestRatchet_PickleRoundTrip(t *testing.T) {
	r := seedRatchet(77)
	r.AdvanceTo(1234)

	e := pickle.NewEncoder(1)
	r.Pickle(e)

	d := pickle.NewDecoder(e.Raw())
	require.Equal(t, uint32(1), d.Uint32())
	var got megolm.Ratchet
	got.Unpickle(d)
	require.NoError(t, d.Finish())
	require.Equal(t, r, got)

	got.Wipe()
	require.Equal(t, megolm.Ratchet{}, got)
}
