package keyregistry_test

import (
	"context"
	"encoding/hex"
	"testing"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/modelreg/x/registry/keyregistry"
	"github.com/paw-chain/modelreg/x/registry/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestSeededDeterministic(t *testing.T) {
	a, err := keyregistry.NewSeeded(testMnemonic, 4)
	require.NoError(t, err)
	b, err := keyregistry.NewSeeded(testMnemonic, 4)
	require.NoError(t, err)

	ctx := context.Background()
	seen := make(map[string]uint32)
	for v := uint32(0); v < 4; v++ {
		pa, err := a.PubKey(ctx, v)
		require.NoError(t, err)
		pb, err := b.PubKey(ctx, v)
		require.NoError(t, err)
		require.True(t, pa.Equals(pb), "version %d must derive the same key", v)

		addr := pa.Address().String()
		prev, dup := seen[addr]
		require.False(t, dup, "versions %d and %d collide", prev, v)
		seen[addr] = v
	}
}

func TestSeededLimit(t *testing.T) {
	reg, err := keyregistry.NewSeeded(testMnemonic, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), reg.Limit())

	_, err = reg.PubKey(context.Background(), 2)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestSeededValidatorKeyIsDistinct(t *testing.T) {
	reg, err := keyregistry.NewSeeded(testMnemonic, 1)
	require.NoError(t, err)

	val, err := reg.ValidatorKey()
	require.NoError(t, err)
	v0, err := reg.PrivKey(0)
	require.NoError(t, err)

	assert.False(t, val.PubKey().Equals(v0.PubKey()))
}

func TestSeededRejectsInvalidMnemonic(t *testing.T) {
	_, err := keyregistry.NewSeeded("not a mnemonic", 1)
	require.Error(t, err)
}

func TestNewMnemonic(t *testing.T) {
	m, err := keyregistry.NewMnemonic()
	require.NoError(t, err)

	_, err = keyregistry.NewSeeded(m, 1)
	require.NoError(t, err)
}

func TestStatic(t *testing.T) {
	k0 := ed25519.GenPrivKeyFromSecret([]byte("v0")).PubKey()
	k7 := ed25519.GenPrivKeyFromSecret([]byte("v7")).PubKey()

	reg := keyregistry.NewStatic(map[uint32]cmtcrypto.PubKey{0: k0, 7: k7})
	assert.Equal(t, []uint32{0, 7}, reg.Versions())

	got, err := reg.PubKey(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, got.Equals(k7))

	_, err = reg.PubKey(context.Background(), 1)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestParseStatic(t *testing.T) {
	k := ed25519.GenPrivKeyFromSecret([]byte("v3")).PubKey()

	reg, err := keyregistry.ParseStatic(map[string]interface{}{
		"3": hex.EncodeToString(k.Bytes()),
	})
	require.NoError(t, err)

	got, err := reg.PubKey(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, got.Equals(k))

	tests := []struct {
		name    string
		entries map[string]interface{}
	}{
		{"non-numeric version", map[string]interface{}{"three": hex.EncodeToString(k.Bytes())}},
		{"bad hex", map[string]interface{}{"1": "zz"}},
		{"wrong length", map[string]interface{}{"1": "abcd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := keyregistry.ParseStatic(tt.entries)
			require.Error(t, err)
		})
	}
}
