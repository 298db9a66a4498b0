package keeper_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/modelreg/testutil/keeper"
	"github.com/paw-chain/modelreg/x/registry/types"
)

func TestComposeModelInfoInclusion(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	gs := keepertest.ScenarioGenesis()
	height := f.Import(t, gs)

	snap, err := f.Keeper.Snapshot(0)
	require.NoError(t, err)

	addr := f.Address(t, 0)
	info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr)
	require.NoError(t, err)
	require.NotNil(t, info.ModelHistory)

	require.Equal(t, height, info.BlockProof.Header.Height)
	require.Equal(t, f.Store.LastCommitID().Hash, []byte(info.BlockProof.Header.AppHash))

	model, err := types.VerifyModelInfo(info, f.TrustedHeaderHash(t, height), f.Certifier.Validators(), addr)
	require.NoError(t, err)
	require.NotNil(t, model)
	require.Equal(t, uint32(0), model.Version)
	require.Equal(t, "ipfs://model-0", model.Payload)

	// history holds exactly the transactions of version 0, in append order
	require.Equal(t, gs.Models[0].Transactions, info.ModelHistory.Transactions)
	require.Equal(t, uint64(len(gs.Models[0].Transactions)), info.ModelHistory.Proof.Total)
	for i, tx := range info.ModelHistory.Transactions {
		require.Equal(t, []byte(tx.Hash()), []byte(info.ModelHistory.Proof.Hashes[i]))
	}
}

func TestComposeModelInfoExclusion(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	height := f.Import(t, keepertest.ScenarioGenesis())

	snap, err := f.Keeper.Snapshot(0)
	require.NoError(t, err)

	// version 2 has a registered key but no model
	addr := f.Address(t, 2)
	info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr)
	require.NoError(t, err)
	require.Nil(t, info.ModelHistory)

	model, err := types.VerifyModelInfo(info, f.TrustedHeaderHash(t, height), f.Certifier.Validators(), addr)
	require.NoError(t, err)
	require.Nil(t, model, "envelope must prove absence")
}

func TestComposeModelInfoEmptyRegistry(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	height := f.Import(t, *types.DefaultGenesis())

	snap, err := f.Keeper.Snapshot(0)
	require.NoError(t, err)

	addr := f.Address(t, 0)
	info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr)
	require.NoError(t, err)

	model, err := types.VerifyModelInfo(info, f.TrustedHeaderHash(t, height), f.Certifier.Validators(), addr)
	require.NoError(t, err)
	require.Nil(t, model)
}

func TestComposeModelInfoEmptyHistory(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	height := f.Import(t, types.GenesisState{Models: []types.GenesisModel{{Version: 0, Payload: "no-history"}}})

	snap, err := f.Keeper.Snapshot(0)
	require.NoError(t, err)

	addr := f.Address(t, 0)
	info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr)
	require.NoError(t, err)
	require.NotNil(t, info.ModelHistory)
	require.Zero(t, info.ModelHistory.Proof.Total)
	require.Empty(t, info.ModelHistory.Proof.Hashes)
	require.Empty(t, info.ModelHistory.Transactions)
	require.Equal(t, types.HistoryRoot(nil), []byte(info.ModelHistory.Proof.Root))

	model, err := types.VerifyModelInfo(info, f.TrustedHeaderHash(t, height), f.Certifier.Validators(), addr)
	require.NoError(t, err)
	require.NotNil(t, model)
}

func TestComposeModelInfoUnindexedTransaction(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	f.Import(t, keepertest.ScenarioGenesis())

	// append a history entry the transaction index has never seen
	addr := f.Address(t, 1)
	orphan := cmttypes.Tx("orphan")
	store := f.Store.GetKVStore(f.StoreKey)
	store.Set(types.HistoryKey(addr, 1), orphan.Hash())

	hashes := [][]byte{cmttypes.Tx("create-model-1").Hash(), orphan.Hash()}
	model := types.Model{Version: 1, Payload: "ipfs://model-1", HistoryLen: 2, HistoryHash: types.HistoryRoot(hashes)}
	bz, err := types.ModuleCdc.Marshal(&model)
	require.NoError(t, err)
	store.Set(types.ModelKey(addr), bz)
	f.Store.Commit()

	snap, err := f.Keeper.Snapshot(0)
	require.NoError(t, err)

	_, err = f.Keeper.ComposeModelInfo(context.Background(), snap, addr)
	require.ErrorIs(t, err, types.ErrInternal)
}

func TestComposeModelInfoRejectsTamperedEnvelope(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	height := f.Import(t, keepertest.ScenarioGenesis())
	trusted := f.TrustedHeaderHash(t, height)
	validators := f.Certifier.Validators()

	snap, err := f.Keeper.Snapshot(0)
	require.NoError(t, err)
	addr0, addr1 := f.Address(t, 0), f.Address(t, 1)

	t.Run("proof for another address", func(t *testing.T) {
		info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr1)
		require.NoError(t, err)
		_, err = types.VerifyModelInfo(info, trusted, validators, addr0)
		require.ErrorIs(t, err, types.ErrInvalidProof)
	})

	t.Run("reordered transactions", func(t *testing.T) {
		info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr0)
		require.NoError(t, err)
		txs := info.ModelHistory.Transactions
		txs[0], txs[1] = txs[1], txs[0]
		_, err = types.VerifyModelInfo(info, trusted, validators, addr0)
		require.ErrorIs(t, err, types.ErrInvalidProof)
	})

	t.Run("untrusted header", func(t *testing.T) {
		info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr0)
		require.NoError(t, err)
		_, err = types.VerifyModelInfo(info, bytes.Repeat([]byte{1}, 32), validators, addr0)
		require.ErrorIs(t, err, types.ErrInvalidProof)
	})

	t.Run("forged signature", func(t *testing.T) {
		info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr0)
		require.NoError(t, err)
		info.BlockProof.Signatures[0].Signature = bytes.Repeat([]byte{0}, 64)
		_, err = types.VerifyModelInfo(info, trusted, validators, addr0)
		require.ErrorIs(t, err, types.ErrInvalidProof)
	})

	t.Run("history stripped", func(t *testing.T) {
		info, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr0)
		require.NoError(t, err)
		info.ModelHistory = nil
		_, err = types.VerifyModelInfo(info, trusted, validators, addr0)
		require.ErrorIs(t, err, types.ErrInvalidProof)
	})
}

func TestComposeModelInfoDeterministic(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	f.Import(t, keepertest.ScenarioGenesis())

	snap, err := f.Keeper.Snapshot(0)
	require.NoError(t, err)

	for _, version := range []uint32{0, 1, 2} {
		addr := f.Address(t, version)
		first, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr)
		require.NoError(t, err)
		second, err := f.Keeper.ComposeModelInfo(context.Background(), snap, addr)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		require.Equal(t, a, b, "version %d", version)
	}
}
