package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
)

type Blockhash [sha256.Size]byte

// LifetimeConstraint bounds how long a compiled message remains eligible to
// execute. The two supported kinds are a recent blockhash and a durable
// nonce; both contribute the same opaque 32-byte token to the wire format,
// which is why decoding cannot recover which kind produced it.
type LifetimeConstraint interface {
	lifetimeToken() Blockhash
}

// BlockhashLifetime keeps a message valid until its blockhash expires at
// LastValidBlockHeight. The height is advisory for RPC polling; only the
// hash is placed on the wire.
type BlockhashLifetime struct {
	Blockhash            Blockhash
	LastValidBlockHeight uint64
}

func (l BlockhashLifetime) lifetimeToken() Blockhash {
	return l.Blockhash
}

// NonceLifetime keeps a message valid until the durable nonce stored in
// Account is advanced. Callers are expected to make the system program's
// AdvanceNonce instruction the first instruction of the message; the nonce
// account and authority addresses are carried here so that instruction can
// be built.
type NonceLifetime struct {
	Nonce     Blockhash
	Account   ed25519.PublicKey
	Authority ed25519.PublicKey
}

func (l NonceLifetime) lifetimeToken() Blockhash {
	return l.Nonce
}
