package keeper

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	cmtdb "github.com/cometbft/cometbft-db"
	cmttypes "github.com/cometbft/cometbft/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/modelreg/x/registry/keeper"
	"github.com/paw-chain/modelreg/x/registry/keyregistry"
	"github.com/paw-chain/modelreg/x/registry/txindex"
	"github.com/paw-chain/modelreg/x/registry/types"
)

const (
	// TestMnemonic seeds the version keys and the validator key of test fixtures.
	TestMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	TestChainID  = "modelreg-test-1"

	// TestKeyLimit is the number of versions with a registered key.
	TestKeyLimit = 16
)

// GenesisTime stamps every commit made through a fixture.
var GenesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// RegistryFixture bundles a keeper over an in-memory multistore with its collaborators.
type RegistryFixture struct {
	Keeper    keeper.Keeper
	Store     *rootmulti.Store
	StoreKey  storetypes.StoreKey
	Keys      *keyregistry.Seeded
	Certifier *keeper.StoreCertifier
	TxIndex   *txindex.KV
}

// RegistryKeeper creates a test keeper for the registry module backed by memory databases.
// Nothing is committed yet.
func RegistryKeeper(t testing.TB) *RegistryFixture {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)

	db := dbm.NewMemDB()
	stateStore := rootmulti.NewStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	require.NoError(t, stateStore.LoadLatestVersion())

	keys, err := keyregistry.NewSeeded(TestMnemonic, TestKeyLimit)
	require.NoError(t, err)
	valKey, err := keys.ValidatorKey()
	require.NoError(t, err)

	certifier := keeper.NewStoreCertifier(stateStore, TestChainID, valKey)
	txIndex := txindex.NewKV(cmtdb.NewMemDB())

	k := keeper.NewKeeper(stateStore, storeKey, keys, certifier, txIndex, log.NewNopLogger())

	return &RegistryFixture{
		Keeper:    k,
		Store:     stateStore,
		StoreKey:  storeKey,
		Keys:      keys,
		Certifier: certifier,
		TxIndex:   txIndex,
	}
}

// Import commits gs and returns the new height.
func (f *RegistryFixture) Import(t testing.TB, gs types.GenesisState) int64 {
	t.Helper()
	height, err := f.Keeper.InitGenesis(context.Background(), gs, GenesisTime)
	require.NoError(t, err)
	return height
}

// Address returns the address derived for version.
func (f *RegistryFixture) Address(t testing.TB, version uint32) sdk.AccAddress {
	t.Helper()
	addr, err := f.Keeper.Deriver().Derive(context.Background(), version)
	require.NoError(t, err)
	return addr
}

// TrustedHeaderHash returns the hash of the certified header at height.
func (f *RegistryFixture) TrustedHeaderHash(t testing.TB, height int64) []byte {
	t.Helper()
	header, err := f.Certifier.Header(height)
	require.NoError(t, err)
	return header.Hash()
}

// ScenarioGenesis returns a registry with models at versions 0 and 1. Version 0 was
// created and then updated twice; version 1 was only created.
func ScenarioGenesis() types.GenesisState {
	return types.GenesisState{
		Models: []types.GenesisModel{
			{
				Version: 0,
				Payload: "ipfs://model-0",
				Transactions: []cmttypes.Tx{
					cmttypes.Tx("create-model-0"),
					cmttypes.Tx("train-model-0-round-1"),
					cmttypes.Tx("train-model-0-round-2"),
				},
			},
			{
				Version:      1,
				Payload:      "ipfs://model-1",
				Transactions: []cmttypes.Tx{cmttypes.Tx("create-model-1")},
			},
		},
		TrainerScores: []types.TrainerScore{
			{IdentityHash: cmttypes.Tx("trainer-a").Hash(), Score: "0.91"},
			{IdentityHash: cmttypes.Tx("trainer-b").Hash(), Score: "0.42"},
		},
	}
}
