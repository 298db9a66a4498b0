package types

import (
	"bytes"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/cometbft/cometbft/crypto/merkle"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	cmtprotocrypto "github.com/cometbft/cometbft/proto/tendermint/crypto"
	cmttypes "github.com/cometbft/cometbft/types"
)

// CommitSig is a validator signature over a block header hash.
type CommitSig struct {
	ValidatorAddress cmtbytes.HexBytes `json:"validator_address"`
	PubKey           cmtbytes.HexBytes `json:"pub_key"`
	Signature        []byte            `json:"signature"`
}

// BlockProof binds a finalized header, whose AppHash is the root of every committed
// table, to the validator signatures certifying it.
type BlockProof struct {
	Header     cmttypes.Header `json:"header"`
	Signatures []CommitSig     `json:"signatures"`
}

// IndexProof is what the certification collaborator returns for one table: the block
// proof and the proof of the table root against the header's AppHash.
type IndexProof struct {
	BlockProof BlockProof
	TableProof cmtprotocrypto.ProofOp
}

// ModelProof proves a model entry (or its absence) up to the block AppHash.
type ModelProof struct {
	// ToTable proves the models table root against the header AppHash.
	ToTable cmtprotocrypto.ProofOp `json:"to_table"`
	// ToModel proves the model key against the models table root. It carries an
	// existence proof when the model is present and a non-existence proof otherwise.
	ToModel cmtprotocrypto.ProofOp `json:"to_model"`
}

// ProofOps returns the two hops in the order expected by merkle.ProofRuntime.
func (p ModelProof) ProofOps() *cmtprotocrypto.ProofOps {
	return &cmtprotocrypto.ProofOps{Ops: []cmtprotocrypto.ProofOp{p.ToModel, p.ToTable}}
}

// HistoryProof is a full-range proof over a model's history log.
type HistoryProof struct {
	Total  uint64              `json:"total"`
	Root   cmtbytes.HexBytes   `json:"root"`
	Hashes []cmtbytes.HexBytes `json:"hashes"`
	Proofs []*merkle.Proof     `json:"proofs"`
}

// HistoryRoot returns the Merkle root committed as Model.HistoryHash for hashes.
func HistoryRoot(hashes [][]byte) []byte {
	return merkle.HashFromByteSlices(hashes)
}

// NewHistoryProof builds a proof covering every entry of hashes, in order.
// An empty log yields an empty but valid proof whose root is the empty-tree hash.
func NewHistoryProof(hashes [][]byte) HistoryProof {
	root, proofs := merkle.ProofsFromByteSlices(hashes)
	hp := HistoryProof{
		Total:  uint64(len(hashes)),
		Root:   root,
		Hashes: make([]cmtbytes.HexBytes, len(hashes)),
		Proofs: proofs,
	}
	for i, h := range hashes {
		hp.Hashes[i] = h
	}
	if hp.Proofs == nil {
		hp.Proofs = []*merkle.Proof{}
	}
	return hp
}

// Verify checks every entry against root and that the proof covers the whole log.
func (p HistoryProof) Verify(root []byte) error {
	if !bytes.Equal(p.Root, root) {
		return errorsmod.Wrapf(ErrInvalidProof, "history root %X does not match committed %X", []byte(p.Root), root)
	}
	if uint64(len(p.Hashes)) != p.Total || len(p.Proofs) != len(p.Hashes) {
		return errorsmod.Wrapf(ErrInvalidProof, "history proof covers %d/%d of %d entries", len(p.Hashes), len(p.Proofs), p.Total)
	}
	if p.Total == 0 {
		if !bytes.Equal(root, merkle.HashFromByteSlices(nil)) {
			return errorsmod.Wrap(ErrInvalidProof, "empty history with non-empty root")
		}
		return nil
	}
	for i, proof := range p.Proofs {
		if proof == nil {
			return errorsmod.Wrapf(ErrInvalidProof, "missing proof for entry %d", i)
		}
		if proof.Index != int64(i) || proof.Total != int64(p.Total) {
			return errorsmod.Wrapf(ErrInvalidProof, "entry %d: proof for index %d of %d", i, proof.Index, proof.Total)
		}
		if err := proof.Verify(root, p.Hashes[i]); err != nil {
			return errorsmod.Wrap(ErrInvalidProof, fmt.Sprintf("entry %d: %s", i, err))
		}
	}
	return nil
}

// ModelHistory is the proven history of an existing model.
type ModelHistory struct {
	Proof        HistoryProof  `json:"proof"`
	Transactions []cmttypes.Tx `json:"transactions"`
}

// ModelInfo is the verifiable envelope returned for a model query.
type ModelInfo struct {
	BlockProof   BlockProof    `json:"block_proof"`
	ModelProof   ModelProof    `json:"model_proof"`
	ModelHistory *ModelHistory `json:"model_history,omitempty"`
}
