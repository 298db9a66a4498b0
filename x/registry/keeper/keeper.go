package keeper

import (
	"cosmossdk.io/log"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/modelreg/x/registry/types"
)

// Keeper reads the models table of a committed multistore and composes proofs over it.
// It never writes outside of InitGenesis.
type Keeper struct {
	storeKey storetypes.StoreKey
	cms      *rootmulti.Store

	keys      types.KeyRegistry
	certifier types.IndexCertifier
	txIndex   types.TxIndex

	logger  log.Logger
	metrics *RegistryMetrics
}

// NewKeeper creates a new registry Keeper instance. key must be mounted on cms as an
// IAVL store.
func NewKeeper(
	cms *rootmulti.Store,
	key storetypes.StoreKey,
	keys types.KeyRegistry,
	certifier types.IndexCertifier,
	txIndex types.TxIndex,
	logger log.Logger,
) Keeper {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return Keeper{
		storeKey:  key,
		cms:       cms,
		keys:      keys,
		certifier: certifier,
		txIndex:   txIndex,
		logger:    logger.With(log.ModuleKey, "x/"+types.ModuleName),
		metrics:   NewRegistryMetrics(),
	}
}

// Logger returns a module-specific logger.
func (k Keeper) Logger() log.Logger {
	return k.logger
}

// LatestHeight returns the last committed version, or zero before the first commit.
func (k Keeper) LatestHeight() int64 {
	return k.cms.LastCommitID().Version
}
