package types

import (
	"fmt"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	cmttypes "github.com/cometbft/cometbft/types"
)

// GenesisModel is a model together with the transactions that created or touched it,
// in append order.
type GenesisModel struct {
	Version      uint32        `json:"version"`
	Payload      string        `json:"payload"`
	Transactions []cmttypes.Tx `json:"transactions"`
}

// GenesisState is the importable content of the models table.
type GenesisState struct {
	Models        []GenesisModel `json:"models"`
	TrainerScores []TrainerScore `json:"trainer_scores"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Models:        []GenesisModel{},
		TrainerScores: []TrainerScore{},
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	seen := make(map[uint32]bool, len(gs.Models))
	versions := make([]uint32, 0, len(gs.Models))

	for i, m := range gs.Models {
		if seen[m.Version] {
			return errorsmod.Wrapf(ErrInvalidGenesis, "model %d: duplicate version %d", i, m.Version)
		}
		seen[m.Version] = true
		versions = append(versions, m.Version)

		for j, tx := range m.Transactions {
			if len(tx) == 0 {
				return errorsmod.Wrapf(ErrInvalidGenesis, "model %d (version=%d): transaction %d is empty", i, m.Version, j)
			}
		}
	}

	// latest_model reports count-1, so versions must be dense from zero
	sort.Slice(versions, func(a, b int) bool { return versions[a] < versions[b] })
	for i, v := range versions {
		if v != uint32(i) {
			return errorsmod.Wrapf(ErrInvalidGenesis, "model versions must be contiguous from 0: missing version %d", i)
		}
	}

	for i, s := range gs.TrainerScores {
		if len(s.IdentityHash) == 0 {
			return errorsmod.Wrapf(ErrInvalidGenesis, "trainer score %d: identity hash cannot be empty", i)
		}
		if _, err := math.LegacyNewDecFromStr(s.Score); err != nil {
			return errorsmod.Wrapf(ErrInvalidGenesis, "trainer score %d: invalid score %q: %s", i, s.Score, err)
		}
	}

	return nil
}

// String implements fmt.Stringer for log output.
func (gs GenesisState) String() string {
	txs := 0
	for _, m := range gs.Models {
		txs += len(m.Transactions)
	}
	return fmt.Sprintf("models=%d transactions=%d trainer_scores=%d", len(gs.Models), txs, len(gs.TrainerScores))
}
