package keeper

import (
	"encoding/binary"

	errorsmod "cosmossdk.io/errors"
	storeprefix "cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/modelreg/x/registry/types"
)

// RegistrySchema is a read-only typed view over one snapshot of the models table:
// the model map, one history log per model address and the trainer score ledger.
type RegistrySchema struct {
	store storetypes.KVStore
}

// HistoryLog is the ordered list of transaction hashes recorded for one model.
type HistoryLog struct {
	hashes [][]byte
}

// Len returns the number of entries.
func (l HistoryLog) Len() uint64 { return uint64(len(l.hashes)) }

// Hashes returns the entries in append order.
func (l HistoryLog) Hashes() [][]byte { return l.hashes }

// Root returns the Merkle root committed by the owning model.
func (l HistoryLog) Root() []byte { return types.HistoryRoot(l.hashes) }

// ModelAt returns the model stored at addr. found is false, with a nil error, when
// there is none.
func (s RegistrySchema) ModelAt(addr sdk.AccAddress) (model types.Model, found bool, err error) {
	bz := s.store.Get(types.ModelKey(addr))
	if bz == nil {
		return types.Model{}, false, nil
	}
	if err := types.ModuleCdc.Unmarshal(bz, &model); err != nil {
		return types.Model{}, false, errorsmod.Wrapf(types.ErrInternal, "decode model %s: %s", addr, err)
	}
	return model, true, nil
}

// HistoryOf returns addr's history log. An address without history has an empty log.
func (s RegistrySchema) HistoryOf(addr sdk.AccAddress) (HistoryLog, error) {
	store := storeprefix.NewStore(s.store, types.HistoryPrefix(addr))
	iter := store.Iterator(nil, nil)
	defer iter.Close()

	var hl HistoryLog
	for expected := uint64(0); iter.Valid(); iter.Next() {
		if len(iter.Key()) != 8 || binary.BigEndian.Uint64(iter.Key()) != expected {
			return HistoryLog{}, errorsmod.Wrapf(types.ErrInternal, "history of %s: unexpected entry %X at position %d", addr, iter.Key(), expected)
		}
		hl.hashes = append(hl.hashes, append([]byte(nil), iter.Value()...))
		expected++
	}
	return hl, nil
}

// ScoreLedger returns the trainer score ledger in ledger order.
func (s RegistrySchema) ScoreLedger() ([]types.TrainerScore, error) {
	store := storeprefix.NewStore(s.store, types.TrainerScoreKeyPrefix)
	iter := store.Iterator(nil, nil)
	defer iter.Close()

	scores := []types.TrainerScore{}
	for ; iter.Valid(); iter.Next() {
		var score types.TrainerScore
		if err := types.ModuleCdc.Unmarshal(iter.Value(), &score); err != nil {
			return nil, errorsmod.Wrapf(types.ErrInternal, "decode trainer score %X: %s", iter.Key(), err)
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// ModelCount returns the number of models in the map.
func (s RegistrySchema) ModelCount() (uint32, error) {
	store := storeprefix.NewStore(s.store, types.ModelKeyPrefix)
	iter := store.Iterator(nil, nil)
	defer iter.Close()

	var count uint64
	for ; iter.Valid(); iter.Next() {
		count++
	}
	if count > uint64(^uint32(0)) {
		return 0, errorsmod.Wrapf(types.ErrInternal, "model count %d overflows uint32", count)
	}
	return uint32(count), nil
}

// SchemaVersion returns the schema marker written at genesis, or 0 if absent.
func (s RegistrySchema) SchemaVersion() uint32 {
	bz := s.store.Get(types.SchemaKey)
	if len(bz) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(bz)
}
