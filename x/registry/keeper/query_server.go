package keeper

import (
	"context"
	"errors"
	"time"

	errorsmod "cosmossdk.io/errors"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apptelemetry "github.com/paw-chain/modelreg/app/telemetry"
	"github.com/paw-chain/modelreg/x/registry/types"
)

var _ types.QueryServer = queryServer{}

const (
	opModelInfo     = "model_info"
	opModel         = "get_model"
	opLatestModel   = "latest_model"
	opTrainerScores = "trainer_scores"
)

type queryServer struct {
	Keeper
}

// NewQueryServerImpl returns an implementation of the QueryServer interface
func NewQueryServerImpl(keeper Keeper) types.QueryServer {
	return &queryServer{Keeper: keeper}
}

// ModelInfo returns the verifiable envelope for the model registered under a version.
// A version whose key is registered but has no model yields an exclusion proof.
func (qs queryServer) ModelInfo(goCtx context.Context, req *types.QueryModelInfoRequest) (resp *types.QueryModelInfoResponse, err error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	ctx, done := qs.begin(goCtx, opModelInfo, req.Height)
	defer func() { err = done(err) }()

	snap, err := qs.Snapshot(req.Height)
	if err != nil {
		return nil, err
	}
	addr, err := qs.Deriver().Derive(ctx, req.Version)
	if err != nil {
		return nil, err
	}
	info, err := qs.ComposeModelInfo(ctx, snap, addr)
	if err != nil {
		return nil, err
	}

	return &types.QueryModelInfoResponse{Height: snap.Height, Info: *info}, nil
}

// Model returns the raw model registered under a version, without proof.
func (qs queryServer) Model(goCtx context.Context, req *types.QueryModelRequest) (resp *types.QueryModelResponse, err error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	ctx, done := qs.begin(goCtx, opModel, req.Height)
	defer func() { err = done(err) }()

	snap, err := qs.Snapshot(req.Height)
	if err != nil {
		return nil, err
	}
	addr, err := qs.Deriver().Derive(ctx, req.Version)
	if err != nil {
		return nil, err
	}
	model, found, err := snap.Schema().ModelAt(addr)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "no model for version %d", req.Version)
	}

	return &types.QueryModelResponse{Height: snap.Height, Model: model}, nil
}

// LatestModel returns model_count-1, or -1 for an empty registry.
func (qs queryServer) LatestModel(goCtx context.Context, req *types.QueryLatestModelRequest) (resp *types.QueryLatestModelResponse, err error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	_, done := qs.begin(goCtx, opLatestModel, req.Height)
	defer func() { err = done(err) }()

	snap, err := qs.Snapshot(req.Height)
	if err != nil {
		return nil, err
	}
	count, err := snap.Schema().ModelCount()
	if err != nil {
		return nil, err
	}

	return &types.QueryLatestModelResponse{Height: snap.Height, Version: int32(int64(count) - 1)}, nil
}

// TrainerScores returns the score ledger rendered as an ordered JSON object.
func (qs queryServer) TrainerScores(goCtx context.Context, req *types.QueryTrainerScoresRequest) (resp *types.QueryTrainerScoresResponse, err error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	_, done := qs.begin(goCtx, opTrainerScores, req.Height)
	defer func() { err = done(err) }()

	snap, err := qs.Snapshot(req.Height)
	if err != nil {
		return nil, err
	}
	scores, err := snap.Schema().ScoreLedger()
	if err != nil {
		return nil, err
	}
	encoded, err := types.EncodeTrainerScores(scores)
	if err != nil {
		return nil, err
	}

	return &types.QueryTrainerScoresResponse{Height: snap.Height, Scores: encoded}, nil
}

// begin opens the query span and returns the hook that records the outcome and maps
// module errors to gRPC status codes.
func (qs queryServer) begin(goCtx context.Context, op string, height int64) (context.Context, func(error) error) {
	start := time.Now()
	ctx, span := apptelemetry.StartQuerySpan(goCtx, op, height)
	qs.metrics.Queries.WithLabelValues(op).Inc()

	return ctx, func(err error) error {
		defer span.End()
		qs.metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

		if err == nil {
			apptelemetry.SetSpanStatus(span, true, "")
			return nil
		}

		err = qs.toStatus(op, err)
		code := status.Code(err)
		qs.metrics.QueryErrors.WithLabelValues(op, code.String()).Inc()
		apptelemetry.AddSpanAttributes(span, attribute.String("rpc.grpc.status_code", code.String()))
		apptelemetry.RecordError(span, err)
		return err
	}
}

// toStatus converts module errors into gRPC status errors. Internal failures are
// logged with detail and returned without it.
func (qs queryServer) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrMalformed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrNoCommittedState):
		return status.Error(codes.Unavailable, err.Error())
	default:
		qs.Logger().Error("registry query failed", "operation", op, "error", err)
		return status.Error(codes.Internal, types.ErrInternal.Error())
	}
}
