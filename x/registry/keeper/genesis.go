package keeper

import (
	"context"
	"encoding/binary"
	"sort"
	"time"

	errorsmod "cosmossdk.io/errors"
	storeprefix "cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	cmttypes "github.com/cometbft/cometbft/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	apptelemetry "github.com/paw-chain/modelreg/app/telemetry"
	"github.com/paw-chain/modelreg/x/registry/types"
)

// InitGenesis replaces the content of the models table with gs, commits a new
// version stamped with blockTime and indexes every transaction at that height.
// It returns the committed height.
func (k Keeper) InitGenesis(ctx context.Context, gs types.GenesisState, blockTime time.Time) (height int64, err error) {
	ctx, span := apptelemetry.StartModuleSpan(ctx, types.ModuleName, "init_genesis")
	defer func() {
		apptelemetry.RecordError(span, err)
		span.End()
	}()

	if err := gs.Validate(); err != nil {
		return 0, err
	}

	// derive every address before touching the working tree
	deriver := k.Deriver()
	addrs := make([]sdk.AccAddress, len(gs.Models))
	owners := make(map[string]uint32, len(gs.Models))
	for i, gm := range gs.Models {
		addr, err := deriver.Derive(ctx, gm.Version)
		if err != nil {
			return 0, errorsmod.Wrapf(types.ErrInvalidGenesis, "model version %d: %s", gm.Version, err)
		}
		if prev, ok := owners[addr.String()]; ok {
			return 0, errorsmod.Wrapf(types.ErrInvalidGenesis, "versions %d and %d derive the same address %s", prev, gm.Version, addr)
		}
		owners[addr.String()] = gm.Version
		addrs[i] = addr
	}

	store := k.cms.GetKVStore(k.storeKey)
	for _, p := range [][]byte{types.ModelKeyPrefix, types.HistoryKeyPrefix, types.TrainerScoreKeyPrefix} {
		clearPrefix(store, p)
	}

	schema := make([]byte, 4)
	binary.BigEndian.PutUint32(schema, types.SchemaVersion)
	store.Set(types.SchemaKey, schema)

	for i, gm := range gs.Models {
		addr := addrs[i]
		hashes := make([][]byte, len(gm.Transactions))
		for j, tx := range gm.Transactions {
			hashes[j] = tx.Hash()
			store.Set(types.HistoryKey(addr, uint64(j)), hashes[j])
		}

		model := types.Model{
			Version:     gm.Version,
			Payload:     gm.Payload,
			HistoryLen:  uint64(len(hashes)),
			HistoryHash: types.HistoryRoot(hashes),
		}
		bz, err := types.ModuleCdc.Marshal(&model)
		if err != nil {
			return 0, errorsmod.Wrapf(types.ErrInternal, "encode model %d: %s", gm.Version, err)
		}
		store.Set(types.ModelKey(addr), bz)
	}

	for i := range gs.TrainerScores {
		bz, err := types.ModuleCdc.Marshal(&gs.TrainerScores[i])
		if err != nil {
			return 0, errorsmod.Wrapf(types.ErrInternal, "encode trainer score %d: %s", i, err)
		}
		store.Set(types.TrainerScoreKey(uint64(i)), bz)
	}

	height = k.LatestHeight() + 1
	k.cms.SetCommitHeader(cmtproto.Header{Height: height, Time: blockTime.UTC()})
	commitID := k.cms.Commit()

	if err := k.indexTransactions(ctx, commitID.Version, gs.Models); err != nil {
		return 0, err
	}

	k.metrics.ModelsImported.Add(float64(len(gs.Models)))
	k.metrics.SnapshotHeight.Set(float64(commitID.Version))
	k.Logger().Info("imported registry state", "height", commitID.Version, "app_hash", commitID.Hash, "genesis", gs.String())

	return commitID.Version, nil
}

// indexTransactions records each distinct transaction once, in genesis order.
func (k Keeper) indexTransactions(ctx context.Context, height int64, models []types.GenesisModel) error {
	if k.txIndex == nil {
		return errorsmod.Wrap(types.ErrInternal, "no transaction index configured")
	}

	seen := make(map[string]struct{})
	var position uint32
	for _, gm := range models {
		for _, tx := range gm.Transactions {
			key := string(tx.Hash())
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if err := k.txIndex.Index(ctx, height, position, tx); err != nil {
				return errorsmod.Wrapf(types.ErrInternal, "index transaction %X: %s", tx.Hash(), err)
			}
			position++
		}
	}
	return nil
}

// ExportGenesis reads the models table at snap back into a GenesisState, resolving
// history entries through the transaction index.
func (k Keeper) ExportGenesis(ctx context.Context, snap *Snapshot) (*types.GenesisState, error) {
	if k.txIndex == nil {
		return nil, errorsmod.Wrap(types.ErrInternal, "no transaction index configured")
	}
	schema := snap.Schema()
	gs := types.DefaultGenesis()

	store := storeprefix.NewStore(snap.store, types.ModelKeyPrefix)
	iter := store.Iterator(nil, nil)
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		var model types.Model
		if err := types.ModuleCdc.Unmarshal(iter.Value(), &model); err != nil {
			return nil, errorsmod.Wrapf(types.ErrInternal, "decode model %X: %s", iter.Key(), err)
		}
		// key is len(addr) | addr
		addr := sdk.AccAddress(iter.Key()[1:])

		hl, err := schema.HistoryOf(addr)
		if err != nil {
			return nil, err
		}
		txs := make([]cmttypes.Tx, 0, hl.Len())
		for _, hash := range hl.Hashes() {
			tx, found, err := k.txIndex.Get(ctx, hash)
			if err != nil {
				return nil, errorsmod.Wrapf(types.ErrInternal, "resolve %X: %s", hash, err)
			}
			if !found {
				return nil, errorsmod.Wrapf(types.ErrInternal, "transaction %X not indexed", hash)
			}
			txs = append(txs, tx)
		}

		gs.Models = append(gs.Models, types.GenesisModel{
			Version:      model.Version,
			Payload:      model.Payload,
			Transactions: txs,
		})
	}

	sort.Slice(gs.Models, func(i, j int) bool { return gs.Models[i].Version < gs.Models[j].Version })

	scores, err := schema.ScoreLedger()
	if err != nil {
		return nil, err
	}
	gs.TrainerScores = scores

	return gs, nil
}

func clearPrefix(store storetypes.KVStore, prefix []byte) {
	iter := storetypes.KVStorePrefixIterator(store, prefix)
	var keys [][]byte
	for ; iter.Valid(); iter.Next() {
		keys = append(keys, append([]byte(nil), iter.Key()...))
	}
	iter.Close()

	for _, key := range keys {
		store.Delete(key)
	}
}
