package keyregistry

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	errorsmod "cosmossdk.io/errors"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cosmos/go-bip39"
	"golang.org/x/crypto/hkdf"

	"github.com/paw-chain/modelreg/x/registry/types"
)

var _ types.KeyRegistry = (*Seeded)(nil)

const (
	versionKeySalt   = "modelreg/version-key"
	validatorKeySalt = "modelreg/validator-key"
)

// Seeded derives one ed25519 key per version from a BIP-39 mnemonic. Versions at or
// above limit are reported as unregistered.
type Seeded struct {
	seed  []byte
	limit uint32
}

// NewSeeded validates mnemonic and returns a registry serving versions [0, limit).
func NewSeeded(mnemonic string, limit uint32) (*Seeded, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	return &Seeded{seed: seed, limit: limit}, nil
}

// NewMnemonic returns a fresh 24-word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// Limit returns the number of registered versions.
func (s *Seeded) Limit() uint32 {
	return s.limit
}

// PrivKey returns the key registered for version.
func (s *Seeded) PrivKey(version uint32) (ed25519.PrivKey, error) {
	if version >= s.limit {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "no key registered for version %d", version)
	}
	info := make([]byte, 4)
	binary.BigEndian.PutUint32(info, version)
	return s.derive(versionKeySalt, info)
}

// PubKey implements types.KeyRegistry.
func (s *Seeded) PubKey(_ context.Context, version uint32) (cmtcrypto.PubKey, error) {
	priv, err := s.PrivKey(version)
	if err != nil {
		return nil, err
	}
	return priv.PubKey(), nil
}

// ValidatorKey returns the key the node signs block proofs with.
func (s *Seeded) ValidatorKey() (ed25519.PrivKey, error) {
	return s.derive(validatorKeySalt, nil)
}

func (s *Seeded) derive(salt string, info []byte) (ed25519.PrivKey, error) {
	kdf := hkdf.New(sha256.New, s.seed, []byte(salt), info)
	secret := make([]byte, 32)
	if _, err := io.ReadFull(kdf, secret); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return ed25519.GenPrivKeyFromSecret(secret), nil
}
