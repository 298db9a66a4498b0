package keeper

import (
	"context"
	"errors"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/modelreg/x/registry/types"
)

// AddressDeriver maps a model version to the address of the key registered for it.
type AddressDeriver struct {
	keys types.KeyRegistry
}

func NewAddressDeriver(keys types.KeyRegistry) AddressDeriver {
	return AddressDeriver{keys: keys}
}

// Derive returns sdk.AccAddress(pubkey.Address()) for the key registered under version.
// It fails with ErrNotFound when the registry has no key for version.
func (d AddressDeriver) Derive(ctx context.Context, version uint32) (sdk.AccAddress, error) {
	if d.keys == nil {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "no key registry configured for version %d", version)
	}

	pk, err := d.keys.PubKey(ctx, version)
	switch {
	case errors.Is(err, types.ErrNotFound):
		return nil, err
	case err != nil:
		return nil, errorsmod.Wrapf(types.ErrInternal, "key registry: %s", err)
	case pk == nil:
		return nil, errorsmod.Wrapf(types.ErrNotFound, "no key registered for version %d", version)
	}

	return sdk.AccAddress(pk.Address()), nil
}

// Deriver returns the AddressDeriver backed by the keeper's key registry.
func (k Keeper) Deriver() AddressDeriver {
	return NewAddressDeriver(k.keys)
}
