package x3dh

import (
	"olm/internal/crypto"
	"olm/internal/domain"
	"olm/internal/util/memzero"
)

// SharedSecretLength is the size of the concatenated DH outputs.
const SharedSecretLength = 3 * crypto.Curve25519KeyLength

// OutboundSharedSecret derives the initiator's shared secret:
//
//	DH(I_a, E_b) | DH(B_a, I_b) | DH(B_a, E_b)
//
// where I is an identity key, B the initiator's base key and E the
// responder's one-time key. The caller wipes the result.
func OutboundSharedSecret(
	ourIdentity domain.X25519Private,
	ourBase domain.X25519Private,
	theirIdentity domain.X25519Public,
	theirOneTime domain.X25519Public,
) ([]byte, error) {
	return concatDH(
		pair{ourIdentity, theirOneTime},
		pair{ourBase, theirIdentity},
		pair{ourBase, theirOneTime},
	)
}

// InboundSharedSecret derives the responder's mirror of OutboundSharedSecret.
func InboundSharedSecret(
	ourIdentity domain.X25519Private,
	ourOneTime domain.X25519Private,
	theirIdentity domain.X25519Public,
	theirBase domain.X25519Public,
) ([]byte, error) {
	return concatDH(
		pair{ourOneTime, theirIdentity},
		pair{ourIdentity, theirBase},
		pair{ourOneTime, theirBase},
	)
}

type pair struct {
	priv domain.X25519Private
	pub  domain.X25519Public
}

func concatDH(pairs ...pair) ([]byte, error) {
	out := make([]byte, 0, SharedSecretLength)
	for _, p := range pairs {
		s, err := crypto.DH(p.priv, p.pub)
		if err != nil {
			memzero.Zero(out)
			return nil, err
		}
		out = append(out, s[:]...)
		memzero.Zero(s[:])
	}
	return out, nil
}
