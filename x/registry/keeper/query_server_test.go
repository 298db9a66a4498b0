package keeper_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	keepertest "github.com/paw-chain/modelreg/testutil/keeper"
	"github.com/paw-chain/modelreg/x/registry/keeper"
	"github.com/paw-chain/modelreg/x/registry/types"
)

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected a gRPC status error, got %v", err)
	require.Equal(t, code, st.Code(), st.Message())
}

func TestQueryServer_NilRequests(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	qs := keeper.NewQueryServerImpl(f.Keeper)
	ctx := context.Background()

	_, err := qs.ModelInfo(ctx, nil)
	requireCode(t, err, codes.InvalidArgument)
	_, err = qs.Model(ctx, nil)
	requireCode(t, err, codes.InvalidArgument)
	_, err = qs.LatestModel(ctx, nil)
	requireCode(t, err, codes.InvalidArgument)
	_, err = qs.TrainerScores(ctx, nil)
	requireCode(t, err, codes.InvalidArgument)
}

func TestQueryServer_Unavailable(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	qs := keeper.NewQueryServerImpl(f.Keeper)

	_, err := qs.LatestModel(context.Background(), &types.QueryLatestModelRequest{})
	requireCode(t, err, codes.Unavailable)
}

func TestQueryServer_Scenario(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	gs := keepertest.ScenarioGenesis()
	height := f.Import(t, gs)
	qs := keeper.NewQueryServerImpl(f.Keeper)
	ctx := context.Background()

	t.Run("latest model", func(t *testing.T) {
		resp, err := qs.LatestModel(ctx, &types.QueryLatestModelRequest{})
		require.NoError(t, err)
		require.Equal(t, int32(1), resp.Version)
		require.Equal(t, height, resp.Height)
	})

	t.Run("get model", func(t *testing.T) {
		for _, gm := range gs.Models {
			resp, err := qs.Model(ctx, &types.QueryModelRequest{Version: gm.Version})
			require.NoError(t, err)
			require.Equal(t, gm.Version, resp.Model.Version)
			require.Equal(t, gm.Payload, resp.Model.Payload)
		}
	})

	t.Run("get model absent", func(t *testing.T) {
		_, err := qs.Model(ctx, &types.QueryModelRequest{Version: 2})
		requireCode(t, err, codes.NotFound)
	})

	t.Run("get model unregistered", func(t *testing.T) {
		_, err := qs.Model(ctx, &types.QueryModelRequest{Version: keepertest.TestKeyLimit})
		requireCode(t, err, codes.NotFound)
	})

	t.Run("model info inclusion", func(t *testing.T) {
		resp, err := qs.ModelInfo(ctx, &types.QueryModelInfoRequest{Version: 0})
		require.NoError(t, err)
		require.NotNil(t, resp.Info.ModelHistory)
		require.Equal(t, gs.Models[0].Transactions, resp.Info.ModelHistory.Transactions)

		model, err := types.VerifyModelInfo(&resp.Info, f.TrustedHeaderHash(t, height), f.Certifier.Validators(), f.Address(t, 0))
		require.NoError(t, err)
		require.NotNil(t, model)
	})

	t.Run("model info exclusion", func(t *testing.T) {
		resp, err := qs.ModelInfo(ctx, &types.QueryModelInfoRequest{Version: 2})
		require.NoError(t, err)
		require.Nil(t, resp.Info.ModelHistory)

		model, err := types.VerifyModelInfo(&resp.Info, f.TrustedHeaderHash(t, height), f.Certifier.Validators(), f.Address(t, 2))
		require.NoError(t, err)
		require.Nil(t, model)
	})

	t.Run("model info unregistered", func(t *testing.T) {
		_, err := qs.ModelInfo(ctx, &types.QueryModelInfoRequest{Version: keepertest.TestKeyLimit})
		requireCode(t, err, codes.NotFound)
	})

	t.Run("trainer scores", func(t *testing.T) {
		resp, err := qs.TrainerScores(ctx, &types.QueryTrainerScoresRequest{})
		require.NoError(t, err)
		require.True(t, json.Valid([]byte(resp.Scores)))

		expected := `{"` + hex.EncodeToString(gs.TrainerScores[0].IdentityHash) + `":"0.91","` +
			hex.EncodeToString(gs.TrainerScores[1].IdentityHash) + `":"0.42"}`
		require.Equal(t, expected, resp.Scores)
	})

	t.Run("height above latest", func(t *testing.T) {
		_, err := qs.LatestModel(ctx, &types.QueryLatestModelRequest{Height: height + 1})
		requireCode(t, err, codes.InvalidArgument)
	})
}

func TestQueryServer_LatestModelProgression(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	qs := keeper.NewQueryServerImpl(f.Keeper)
	ctx := context.Background()

	latest := func() int32 {
		resp, err := qs.LatestModel(ctx, &types.QueryLatestModelRequest{})
		require.NoError(t, err)
		return resp.Version
	}

	f.Import(t, *types.DefaultGenesis())
	require.Equal(t, int32(-1), latest())

	gs := types.GenesisState{Models: []types.GenesisModel{
		{Version: 0, Payload: "first", Transactions: []cmttypes.Tx{cmttypes.Tx("c0")}},
	}}
	f.Import(t, gs)
	require.Equal(t, int32(0), latest())

	gs.Models = append(gs.Models, types.GenesisModel{Version: 1, Payload: "second", Transactions: []cmttypes.Tx{cmttypes.Tx("c1")}})
	f.Import(t, gs)
	require.Equal(t, int32(1), latest())
}

func TestQueryServer_HeightPinning(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	qs := keeper.NewQueryServerImpl(f.Keeper)
	ctx := context.Background()

	first := f.Import(t, types.GenesisState{Models: []types.GenesisModel{{Version: 0, Payload: "old"}}})
	f.Import(t, types.GenesisState{Models: []types.GenesisModel{{Version: 0, Payload: "new"}}})

	resp, err := qs.Model(ctx, &types.QueryModelRequest{Version: 0, Height: first})
	require.NoError(t, err)
	require.Equal(t, "old", resp.Model.Payload)
	require.Equal(t, first, resp.Height)

	resp, err = qs.Model(ctx, &types.QueryModelRequest{Version: 0})
	require.NoError(t, err)
	require.Equal(t, "new", resp.Model.Payload)

	info, err := qs.ModelInfo(ctx, &types.QueryModelInfoRequest{Version: 0, Height: first})
	require.NoError(t, err)
	model, err := types.VerifyModelInfo(&info.Info, f.TrustedHeaderHash(t, first), f.Certifier.Validators(), f.Address(t, 0))
	require.NoError(t, err)
	require.Equal(t, "old", model.Payload)
}

func TestQueryServer_TrainerScoresEmpty(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	f.Import(t, *types.DefaultGenesis())
	qs := keeper.NewQueryServerImpl(f.Keeper)

	resp, err := qs.TrainerScores(context.Background(), &types.QueryTrainerScoresRequest{})
	require.NoError(t, err)
	require.Equal(t, "{}", resp.Scores)
}

func TestQueryServer_InternalErrorsWithholdDetail(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	f.Import(t, keepertest.ScenarioGenesis())

	addr := f.Address(t, 0)
	f.Store.GetKVStore(f.StoreKey).Set(types.ModelKey(addr), []byte{0xff})
	f.Store.Commit()

	qs := keeper.NewQueryServerImpl(f.Keeper)
	_, err := qs.Model(context.Background(), &types.QueryModelRequest{Version: 0})
	requireCode(t, err, codes.Internal)

	st, _ := status.FromError(err)
	require.Equal(t, types.ErrInternal.Error(), st.Message())
}

func TestQueryServer_Idempotent(t *testing.T) {
	f := keepertest.RegistryKeeper(t)
	f.Import(t, keepertest.ScenarioGenesis())
	qs := keeper.NewQueryServerImpl(f.Keeper)
	ctx := context.Background()

	marshal := func(v interface{}, err error) []byte {
		require.NoError(t, err)
		bz, err := json.Marshal(v)
		require.NoError(t, err)
		return bz
	}

	require.Equal(t,
		marshal(qs.ModelInfo(ctx, &types.QueryModelInfoRequest{Version: 0})),
		marshal(qs.ModelInfo(ctx, &types.QueryModelInfoRequest{Version: 0})),
	)
	require.Equal(t,
		marshal(qs.TrainerScores(ctx, &types.QueryTrainerScoresRequest{})),
		marshal(qs.TrainerScores(ctx, &types.QueryTrainerScoresRequest{})),
	)
	require.Equal(t,
		marshal(qs.Model(ctx, &types.QueryModelRequest{Version: 1})),
		marshal(qs.Model(ctx, &types.QueryModelRequest{Version: 1})),
	)
}
