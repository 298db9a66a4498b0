// Package txindex provides transaction indexes resolving history hashes to raw
// transactions.
package txindex

import (
	"context"

	abci "github.com/cometbft/cometbft/abci/types"
	dbm "github.com/cometbft/cometbft-db"
	"github.com/cometbft/cometbft/state/txindex/kv"
	cmttypes "github.com/cometbft/cometbft/types"

	"github.com/paw-chain/modelreg/x/registry/types"
)

var _ types.TxIndex = (*KV)(nil)

// KV stores transactions with CometBFT's key-value transaction indexer.
type KV struct {
	indexer *kv.TxIndex
}

// NewKV returns an index backed by db.
func NewKV(db dbm.DB) *KV {
	return &KV{indexer: kv.NewTxIndex(db)}
}

// Get implements types.TxIndex.
func (x *KV) Get(_ context.Context, hash []byte) (cmttypes.Tx, bool, error) {
	res, err := x.indexer.Get(hash)
	if err != nil {
		return nil, false, err
	}
	if res == nil {
		return nil, false, nil
	}
	return cmttypes.Tx(res.Tx), true, nil
}

// Index implements types.TxIndex.
func (x *KV) Index(_ context.Context, height int64, position uint32, tx cmttypes.Tx) error {
	return x.indexer.Index(&abci.TxResult{
		Height: height,
		Index:  position,
		Tx:     tx,
	})
}

// Result returns the full indexed record for hash, including its height.
func (x *KV) Result(hash []byte) (*abci.TxResult, error) {
	return x.indexer.Get(hash)
}
