package keeper

import (
	"bytes"
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/hashicorp/go-metrics"

	"github.com/paw-chain/modelreg/x/registry/types"
)

const (
	proofKindInclusion = "inclusion"
	proofKindExclusion = "exclusion"
)

// ComposeModelInfo builds the envelope proving the model at addr, or its absence,
// against snap. History is attached iff the model exists.
func (k Keeper) ComposeModelInfo(ctx context.Context, snap *Snapshot, addr sdk.AccAddress) (*types.ModelInfo, error) {
	start := time.Now()
	defer func() {
		k.metrics.ProofComposeTime.Observe(time.Since(start).Seconds())
		telemetry.MeasureSince(start, types.ModuleName, "compose_model_info")
	}()

	if k.certifier == nil {
		return nil, errorsmod.Wrap(types.ErrInternal, "no index certifier configured")
	}
	index, err := k.certifier.IndexProof(ctx, snap.Height, types.StoreKey)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInternal, "certify %s at %d: %s", types.StoreKey, snap.Height, err)
	}

	res, err := snap.proveKey(types.ModelKey(addr))
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInternal, "prove model %s: %s", addr, err)
	}
	if res.ProofOps == nil || len(res.ProofOps.Ops) == 0 {
		return nil, errorsmod.Wrapf(types.ErrInternal, "empty proof for model %s at %d", addr, snap.Height)
	}

	info := &types.ModelInfo{
		BlockProof: index.BlockProof,
		ModelProof: types.ModelProof{
			ToTable: index.TableProof,
			ToModel: res.ProofOps.Ops[0],
		},
	}

	model, found, err := snap.Schema().ModelAt(addr)
	if err != nil {
		return nil, err
	}
	if found != (res.Value != nil) {
		return nil, errorsmod.Wrapf(types.ErrInternal, "model %s: snapshot and proof disagree on presence", addr)
	}

	if !found {
		k.countProof(proofKindExclusion)
		return info, nil
	}

	history, err := k.composeHistory(ctx, snap, addr, model)
	if err != nil {
		return nil, err
	}
	info.ModelHistory = history

	k.countProof(proofKindInclusion)
	return info, nil
}

// composeHistory proves the full range of addr's history log against the root the
// model commits to and resolves every entry through the transaction index.
func (k Keeper) composeHistory(ctx context.Context, snap *Snapshot, addr sdk.AccAddress, model types.Model) (*types.ModelHistory, error) {
	hl, err := snap.Schema().HistoryOf(addr)
	if err != nil {
		return nil, err
	}
	if hl.Len() != model.HistoryLen || !bytes.Equal(hl.Root(), model.HistoryHash) {
		return nil, errorsmod.Wrapf(types.ErrInternal, "history of %s does not match committed root", addr)
	}

	txs := make([]cmttypes.Tx, 0, hl.Len())
	for i, hash := range hl.Hashes() {
		if k.txIndex == nil {
			return nil, errorsmod.Wrap(types.ErrInternal, "no transaction index configured")
		}
		tx, found, err := k.txIndex.Get(ctx, hash)
		if err != nil {
			return nil, errorsmod.Wrapf(types.ErrInternal, "resolve history entry %d of %s: %s", i, addr, err)
		}
		if !found {
			k.metrics.TxIndexMisses.Inc()
			return nil, errorsmod.Wrapf(types.ErrInternal, "history entry %d of %s: transaction %X not indexed", i, addr, hash)
		}
		txs = append(txs, tx)
	}

	k.metrics.HistoryEntriesProven.Observe(float64(hl.Len()))
	return &types.ModelHistory{
		Proof:        types.NewHistoryProof(hl.Hashes()),
		Transactions: txs,
	}, nil
}

func (k Keeper) countProof(kind string) {
	k.metrics.ProofsComposed.WithLabelValues(kind).Inc()
	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "proofs_composed"},
		1,
		[]metrics.Label{telemetry.NewLabel("kind", kind)},
	)
}
