package types

import (
	"context"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmttypes "github.com/cometbft/cometbft/types"
)

// KeyRegistry resolves the public key registered for a model version.
// Implementations return an error wrapping ErrNotFound when no key is registered.
type KeyRegistry interface {
	PubKey(ctx context.Context, version uint32) (cmtcrypto.PubKey, error)
}

// IndexCertifier returns the block proof for a committed height together with the
// proof of the named table's root against that block's AppHash.
type IndexCertifier interface {
	IndexProof(ctx context.Context, height int64, table string) (IndexProof, error)
}

// TxIndex resolves transaction hashes to their raw bytes.
type TxIndex interface {
	// Get returns found=false without error when hash is not indexed.
	Get(ctx context.Context, hash []byte) (tx cmttypes.Tx, found bool, err error)
	// Index records tx as included at height. Used by genesis import.
	Index(ctx context.Context, height int64, position uint32, tx cmttypes.Tx) error
}
