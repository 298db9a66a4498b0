// Package keyregistry provides version -> public key registries used to derive model
// addresses.
package keyregistry

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"

	errorsmod "cosmossdk.io/errors"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/spf13/cast"

	"github.com/paw-chain/modelreg/x/registry/types"
)

var _ types.KeyRegistry = (*Static)(nil)

// Static serves a fixed set of keys, typically loaded from the [keys] table of app.toml.
type Static struct {
	keys map[uint32]cmtcrypto.PubKey
}

// NewStatic copies keys into a new registry.
func NewStatic(keys map[uint32]cmtcrypto.PubKey) *Static {
	s := &Static{keys: make(map[uint32]cmtcrypto.PubKey, len(keys))}
	for v, pk := range keys {
		s.keys[v] = pk
	}
	return s
}

// ParseStatic builds a registry from version -> hex-encoded ed25519 public key entries.
// Keys of entries may be any value cast can turn into a uint32.
func ParseStatic(entries map[string]interface{}) (*Static, error) {
	keys := make(map[uint32]cmtcrypto.PubKey, len(entries))
	for rawVersion, rawKey := range entries {
		version, err := cast.ToUint32E(rawVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", rawVersion, err)
		}
		keyHex, err := cast.ToStringE(rawKey)
		if err != nil {
			return nil, fmt.Errorf("version %d: %w", version, err)
		}
		bz, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("version %d: invalid hex key: %w", version, err)
		}
		if len(bz) != ed25519.PubKeySize {
			return nil, fmt.Errorf("version %d: key is %d bytes, want %d", version, len(bz), ed25519.PubKeySize)
		}
		keys[version] = ed25519.PubKey(bz)
	}
	return &Static{keys: keys}, nil
}

// PubKey implements types.KeyRegistry.
func (s *Static) PubKey(_ context.Context, version uint32) (cmtcrypto.PubKey, error) {
	pk, ok := s.keys[version]
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "no key registered for version %d", version)
	}
	return pk, nil
}

// Versions returns the registered versions in ascending order.
func (s *Static) Versions() []uint32 {
	out := make([]uint32, 0, len(s.keys))
	for v := range s.keys {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
