package keeper

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/store/rootmulti"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmtversion "github.com/cometbft/cometbft/proto/tendermint/version"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/cometbft/cometbft/version"

	"github.com/paw-chain/modelreg/x/registry/types"
)

var _ types.IndexCertifier = (*StoreCertifier)(nil)

// StoreCertifier certifies committed versions of a multistore. For every height it
// builds a header carrying the version's commit-info hash as AppHash, signs the header
// hash with the validator key and proves table roots from the stored commit info.
type StoreCertifier struct {
	cms     *rootmulti.Store
	chainID string
	signer  cmtcrypto.PrivKey
	valSet  *cmttypes.ValidatorSet
}

// NewStoreCertifier returns a certifier signing as the single validator signer.
func NewStoreCertifier(cms *rootmulti.Store, chainID string, signer cmtcrypto.PrivKey) *StoreCertifier {
	val := cmttypes.NewValidator(signer.PubKey(), 1)
	return &StoreCertifier{
		cms:     cms,
		chainID: chainID,
		signer:  signer,
		valSet:  cmttypes.NewValidatorSet([]*cmttypes.Validator{val}),
	}
}

// Validators returns the public keys whose signatures the certifier produces.
func (c *StoreCertifier) Validators() []cmtcrypto.PubKey {
	out := make([]cmtcrypto.PubKey, 0, len(c.valSet.Validators))
	for _, v := range c.valSet.Validators {
		out = append(out, v.PubKey)
	}
	return out
}

// Header returns the header certifying the committed version at height.
func (c *StoreCertifier) Header(height int64) (cmttypes.Header, error) {
	ci, err := c.cms.GetCommitInfo(height)
	if err != nil {
		return cmttypes.Header{}, errorsmod.Wrapf(types.ErrNotFound, "commit info at %d: %s", height, err)
	}
	return c.header(height, ci.Timestamp, ci.Hash()), nil
}

// IndexProof returns the signed block proof for height and the proof of table's root
// against its AppHash.
func (c *StoreCertifier) IndexProof(_ context.Context, height int64, table string) (types.IndexProof, error) {
	ci, err := c.cms.GetCommitInfo(height)
	if err != nil {
		return types.IndexProof{}, errorsmod.Wrapf(types.ErrNotFound, "commit info at %d: %s", height, err)
	}

	mounted := false
	for _, si := range ci.StoreInfos {
		if si.Name == table {
			mounted = true
			break
		}
	}
	if !mounted {
		return types.IndexProof{}, errorsmod.Wrapf(types.ErrNotFound, "table %q not committed at %d", table, height)
	}

	header := c.header(height, ci.Timestamp, ci.Hash())
	hash := header.Hash()
	sig, err := c.signer.Sign(hash)
	if err != nil {
		return types.IndexProof{}, errorsmod.Wrapf(types.ErrInternal, "sign header %d: %s", height, err)
	}

	pub := c.signer.PubKey()
	return types.IndexProof{
		BlockProof: types.BlockProof{
			Header: header,
			Signatures: []types.CommitSig{{
				ValidatorAddress: pub.Address(),
				PubKey:           pub.Bytes(),
				Signature:        sig,
			}},
		},
		TableProof: ci.ProofOp(table),
	}, nil
}

func (c *StoreCertifier) header(height int64, t time.Time, appHash []byte) cmttypes.Header {
	valHash := c.valSet.Hash()
	return cmttypes.Header{
		Version:            cmtversion.Consensus{Block: version.BlockProtocol},
		ChainID:            c.chainID,
		Height:             height,
		Time:               t,
		AppHash:            appHash,
		ValidatorsHash:     valHash,
		NextValidatorsHash: valHash,
		ProposerAddress:    c.signer.PubKey().Address(),
	}
}
