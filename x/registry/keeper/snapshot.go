package keeper

import (
	errorsmod "cosmossdk.io/errors"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/modelreg/x/registry/types"
)

// Snapshot is one committed version of the models table. All reads made while
// serving a query go through the same Snapshot.
type Snapshot struct {
	Height int64

	store   storetypes.KVStore
	querier storetypes.Queryable
}

// Snapshot opens the committed version at height, or the latest one when height is 0.
func (k Keeper) Snapshot(height int64) (*Snapshot, error) {
	latest := k.LatestHeight()
	if latest == 0 {
		return nil, types.ErrNoCommittedState
	}
	if height < 0 || height > latest {
		return nil, errorsmod.Wrapf(types.ErrMalformed, "height %d outside committed range [1, %d]", height, latest)
	}
	if height == 0 {
		height = latest
	}

	cms, err := k.cms.CacheMultiStoreWithVersion(height)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInternal, "open version %d: %s", height, err)
	}

	return &Snapshot{
		Height:  height,
		store:   cms.GetKVStore(k.storeKey),
		querier: k.cms,
	}, nil
}

// Schema returns the typed projection over this snapshot.
func (s *Snapshot) Schema() RegistrySchema {
	return RegistrySchema{store: s.store}
}

// proveKey runs a proving query for key in the models table at the snapshot height.
func (s *Snapshot) proveKey(key []byte) (*storetypes.ResponseQuery, error) {
	return s.querier.Query(&storetypes.RequestQuery{
		Path:   "/" + types.StoreKey + "/key",
		Data:   key,
		Height: s.Height,
		Prove:  true,
	})
}
