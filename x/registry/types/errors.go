package types

import (
	sdkerrors "cosmossdk.io/errors"
	"google.golang.org/grpc/codes"
)

// Registry module sentinel errors
var (
	// ErrNotFound is returned when a version has no registered key or, for direct model
	// lookups, when no model is stored at the derived address.
	ErrNotFound = sdkerrors.RegisterWithGRPCCode(ModuleName, 2, codes.NotFound, "not found")

	// ErrMalformed is returned for invalid request parameters.
	ErrMalformed = sdkerrors.RegisterWithGRPCCode(ModuleName, 3, codes.InvalidArgument, "malformed request")

	// ErrInternal covers failures reading or decoding committed state.
	ErrInternal = sdkerrors.RegisterWithGRPCCode(ModuleName, 4, codes.Internal, "internal error")

	// ErrNoCommittedState is returned before the first commit.
	ErrNoCommittedState = sdkerrors.RegisterWithGRPCCode(ModuleName, 5, codes.Unavailable, "no committed state")

	ErrInvalidGenesis = sdkerrors.Register(ModuleName, 10, "invalid genesis state")
	ErrInvalidProof   = sdkerrors.Register(ModuleName, 11, "invalid proof")
)
