package types

import (
	"github.com/cosmos/cosmos-sdk/codec"
)

// ModuleCdc encodes the values stored in the models table. The registry keeps
// plain Go structs in state, so the legacy amino binary codec is used rather than
// generated protobuf types.
var ModuleCdc = codec.NewLegacyAmino()

// RegisterLegacyAminoCodec registers the registry's stored types on the provided codec.
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&Model{}, "registry/Model", nil)
	cdc.RegisterConcrete(&TrainerScore{}, "registry/TrainerScore", nil)
}

func init() {
	RegisterLegacyAminoCodec(ModuleCdc)
	ModuleCdc.Seal()
}
