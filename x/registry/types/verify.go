package types

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/merkle"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ModelKeyPath returns the merkle key path of addr's model entry, as consumed by
// merkle.ProofRuntime.
func ModelKeyPath(addr sdk.AccAddress) string {
	return merkle.KeyPath{}.
		AppendKey([]byte(StoreKey), merkle.KeyEncodingURL).
		AppendKey(ModelKey(addr), merkle.KeyEncodingHex).
		String()
}

// VerifyBlockProof checks that bp's header hashes to trustedHeaderHash and carries at
// least one valid signature from a key in validators.
func VerifyBlockProof(bp BlockProof, trustedHeaderHash []byte, validators []cmtcrypto.PubKey) error {
	hash := bp.Header.Hash()
	if hash == nil {
		return errorsmod.Wrap(ErrInvalidProof, "header has no validators hash")
	}
	if !bytes.Equal(hash, trustedHeaderHash) {
		return errorsmod.Wrapf(ErrInvalidProof, "header hash %X is not trusted", hash)
	}

	for _, sig := range bp.Signatures {
		for _, pk := range validators {
			if !bytes.Equal(pk.Bytes(), sig.PubKey) || !bytes.Equal(pk.Address(), sig.ValidatorAddress) {
				continue
			}
			if pk.VerifySignature(hash, sig.Signature) {
				return nil
			}
		}
	}
	return errorsmod.Wrap(ErrInvalidProof, "no valid signature from a trusted validator")
}

// VerifyModelInfo walks block -> table -> entry -> history for the model at addr and
// returns the proven model, or nil when the envelope proves its absence.
func VerifyModelInfo(info *ModelInfo, trustedHeaderHash []byte, validators []cmtcrypto.PubKey, addr sdk.AccAddress) (*Model, error) {
	if info == nil {
		return nil, errorsmod.Wrap(ErrInvalidProof, "nil envelope")
	}
	if err := VerifyBlockProof(info.BlockProof, trustedHeaderHash, validators); err != nil {
		return nil, err
	}

	appHash := info.BlockProof.Header.AppHash
	keyPath := ModelKeyPath(addr)
	prt := rootmulti.DefaultProofRuntime()

	value, err := existenceValue(info.ModelProof)
	if err != nil {
		return nil, err
	}

	if value == nil {
		if err := prt.VerifyAbsence(info.ModelProof.ProofOps(), appHash, keyPath); err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidProof, "exclusion proof: %s", err)
		}
		if info.ModelHistory != nil {
			return nil, errorsmod.Wrap(ErrInvalidProof, "history attached to an absent model")
		}
		return nil, nil
	}

	if err := prt.VerifyValue(info.ModelProof.ProofOps(), appHash, keyPath, value); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidProof, "inclusion proof: %s", err)
	}

	var model Model
	if err := ModuleCdc.Unmarshal(value, &model); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidProof, "decode model: %s", err)
	}

	if info.ModelHistory == nil {
		return nil, errorsmod.Wrap(ErrInvalidProof, "existing model without history")
	}
	if err := VerifyHistory(*info.ModelHistory, model); err != nil {
		return nil, err
	}

	return &model, nil
}

// VerifyHistory checks the range proof against the model's committed history root and
// that each returned transaction hashes to the proven entry at the same position.
func VerifyHistory(h ModelHistory, model Model) error {
	if h.Proof.Total != model.HistoryLen {
		return errorsmod.Wrapf(ErrInvalidProof, "history length %d, committed %d", h.Proof.Total, model.HistoryLen)
	}
	if err := h.Proof.Verify(model.HistoryHash); err != nil {
		return err
	}
	if len(h.Transactions) != len(h.Proof.Hashes) {
		return errorsmod.Wrapf(ErrInvalidProof, "%d transactions for %d history entries", len(h.Transactions), len(h.Proof.Hashes))
	}
	for i, tx := range h.Transactions {
		if !bytes.Equal(tx.Hash(), h.Proof.Hashes[i]) {
			return errorsmod.Wrapf(ErrInvalidProof, "transaction %d does not match history entry", i)
		}
	}
	return nil
}

// existenceValue returns the value carried by an existence proof in to_model, or nil
// for a non-existence proof.
func existenceValue(p ModelProof) ([]byte, error) {
	op, err := storetypes.CommitmentOpDecoder(p.ToModel)
	if err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidProof, "decode entry proof: %s", err)
	}
	cop, ok := op.(storetypes.CommitmentOp)
	if !ok || cop.Proof == nil {
		return nil, errorsmod.Wrap(ErrInvalidProof, "entry proof is not a commitment proof")
	}
	if exist := cop.Proof.GetExist(); exist != nil {
		return exist.Value, nil
	}
	return nil, nil
}
