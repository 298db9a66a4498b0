package types

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

const (
	// ModuleName defines the module name
	ModuleName = "registry"

	// StoreKey is the name of the committed table holding models, histories and scores.
	// It is also the first key of every proof path handed to clients.
	StoreKey = "models"

	// QuerierRoute defines the module's query routing key
	QuerierRoute = ModuleName

	// SchemaVersion is written under SchemaKey by InitGenesis.
	SchemaVersion uint32 = 1
)

var (
	// SchemaKey holds the schema version. It sorts before every model key, so the
	// models tree is never empty and exclusion proofs always have a left neighbour.
	SchemaKey = []byte{0x00}

	// ModelKeyPrefix is the prefix for the model map: prefix | len(addr) | addr
	ModelKeyPrefix = []byte{0x01}

	// HistoryKeyPrefix is the prefix for per-model history logs:
	// prefix | len(addr) | addr | uint64 index
	HistoryKeyPrefix = []byte{0x02}

	// TrainerScoreKeyPrefix is the prefix for the score ledger: prefix | uint64 index
	TrainerScoreKeyPrefix = []byte{0x03}
)

// ModelKey returns the store key for the model owned by addr.
func ModelKey(addr sdk.AccAddress) []byte {
	return append(append([]byte{}, ModelKeyPrefix...), address.MustLengthPrefix(addr)...)
}

// HistoryPrefix returns the prefix under which addr's history log is stored.
func HistoryPrefix(addr sdk.AccAddress) []byte {
	return append(append([]byte{}, HistoryKeyPrefix...), address.MustLengthPrefix(addr)...)
}

// HistoryKey returns the store key of the index-th entry in addr's history log.
func HistoryKey(addr sdk.AccAddress, index uint64) []byte {
	return append(HistoryPrefix(addr), Uint64Bytes(index)...)
}

// TrainerScoreKey returns the store key of the index-th score ledger entry.
func TrainerScoreKey(index uint64) []byte {
	return append(append([]byte{}, TrainerScoreKeyPrefix...), Uint64Bytes(index)...)
}

// Uint64Bytes encodes v big-endian so that keys iterate in numeric order.
func Uint64Bytes(v uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, v)
	return bz
}
