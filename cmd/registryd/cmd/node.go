package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cosmossdk.io/log"
	"cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	cmtdb "github.com/cometbft/cometbft-db"
	dbm "github.com/cosmos/cosmos-db"

	"github.com/paw-chain/modelreg/x/registry/keeper"
	"github.com/paw-chain/modelreg/x/registry/keyregistry"
	"github.com/paw-chain/modelreg/x/registry/txindex"
	"github.com/paw-chain/modelreg/x/registry/types"
)

// node is the registry store with its collaborators, opened from a home directory.
type node struct {
	cms       *rootmulti.Store
	keeper    keeper.Keeper
	seeded    *keyregistry.Seeded
	certifier *keeper.StoreCertifier
	txIndex   types.TxIndex
	closers   []func() error
}

func mnemonicPath(home string) string {
	return filepath.Join(home, configDir, mnemonicFile)
}

func readMnemonic(home string) (string, error) {
	bz, err := os.ReadFile(mnemonicPath(home))
	if err != nil {
		return "", fmt.Errorf("failed to read mnemonic (run init first): %w", err)
	}
	return strings.TrimSpace(string(bz)), nil
}

func openNode(ctx context.Context, cfg *Config, home string, logger log.Logger) (n *node, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n = &node{}
	defer func() {
		if err != nil {
			_ = n.Close()
		}
	}()

	mnemonic, err := readMnemonic(home)
	if err != nil {
		return nil, err
	}
	n.seeded, err = keyregistry.NewSeeded(mnemonic, cfg.Keys.Limit)
	if err != nil {
		return nil, err
	}
	var keys types.KeyRegistry = n.seeded
	if len(cfg.Keys.Static) > 0 {
		if keys, err = keyregistry.ParseStatic(cfg.Keys.Static); err != nil {
			return nil, err
		}
	}
	valKey, err := n.seeded.ValidatorKey()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(home, dataDir)
	db, err := dbm.NewDB("registry", dbm.BackendType(cfg.DB.Backend), dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	n.closers = append(n.closers, db.Close)

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	n.cms = rootmulti.NewStore(db, logger, metrics.NewNoOpMetrics())
	n.cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	if err := n.cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load registry store: %w", err)
	}

	switch cfg.TxIndex.Kind {
	case TxIndexPostgres:
		pg, err := txindex.NewPostgres(ctx, cfg.TxIndex.PostgresDSN, cfg.TxIndex.Table)
		if err != nil {
			return nil, err
		}
		n.closers = append(n.closers, pg.Close)
		n.txIndex = pg
	default:
		idb, err := cmtdb.NewDB("tx_index", cmtdb.BackendType(cfg.DB.Backend), dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open tx index database: %w", err)
		}
		n.closers = append(n.closers, idb.Close)
		n.txIndex = txindex.NewKV(idb)
	}

	n.certifier = keeper.NewStoreCertifier(n.cms, cfg.ChainID, valKey)
	n.keeper = keeper.NewKeeper(n.cms, storeKey, keys, n.certifier, n.txIndex, logger)

	return n, nil
}

// Close releases the databases in reverse open order.
func (n *node) Close() error {
	var errs []error
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs = append(errs, n.closers[i]())
	}
	n.closers = nil
	return errors.Join(errs...)
}
