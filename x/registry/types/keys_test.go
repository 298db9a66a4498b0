package types

import (
	"bytes"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

func TestKeyPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		key      []byte
		expected []byte
	}{
		{"SchemaKey", SchemaKey, []byte{0x00}},
		{"ModelKeyPrefix", ModelKeyPrefix, []byte{0x01}},
		{"HistoryKeyPrefix", HistoryKeyPrefix, []byte{0x02}},
		{"TrainerScoreKeyPrefix", TrainerScoreKeyPrefix, []byte{0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.key, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.key, tt.expected)
			}
		})
	}
}

func TestModelKey(t *testing.T) {
	addr := sdk.AccAddress(bytes.Repeat([]byte{0xab}, 20))
	key := ModelKey(addr)

	if key[0] != 0x01 {
		t.Fatalf("ModelKey prefix = %x, want 01", key[0])
	}
	if key[1] != 20 {
		t.Errorf("ModelKey length prefix = %d, want 20", key[1])
	}
	if !bytes.Equal(key[2:], addr) {
		t.Errorf("ModelKey address = %x, want %x", key[2:], addr)
	}
	if !bytes.Equal(ModelKeyPrefix, []byte{0x01}) {
		t.Error("ModelKey must not alias the prefix slice")
	}
}

func TestHistoryKeyOrdering(t *testing.T) {
	addr := sdk.AccAddress(bytes.Repeat([]byte{0x01}, 20))

	prev := HistoryKey(addr, 0)
	for _, i := range []uint64{1, 2, 255, 256, 1 << 32} {
		next := HistoryKey(addr, i)
		if bytes.Compare(prev, next) >= 0 {
			t.Fatalf("HistoryKey(%d) does not sort after its predecessor", i)
		}
		if !bytes.HasPrefix(next, HistoryPrefix(addr)) {
			t.Fatalf("HistoryKey(%d) is outside the address prefix", i)
		}
		prev = next
	}
}

func TestHistoryPrefixIsolation(t *testing.T) {
	a := sdk.AccAddress(bytes.Repeat([]byte{0x01}, 20))
	b := sdk.AccAddress(bytes.Repeat([]byte{0x01}, 21))

	if bytes.HasPrefix(HistoryKey(b, 0), HistoryPrefix(a)) {
		t.Error("length-prefixed history keys of distinct addresses must not overlap")
	}
}

func TestSchemaKeySortsFirst(t *testing.T) {
	addr := sdk.AccAddress(make([]byte, 20))
	if bytes.Compare(SchemaKey, ModelKey(addr)) >= 0 {
		t.Error("SchemaKey must sort before every model key")
	}
}

func TestTrainerScoreKey(t *testing.T) {
	key := TrainerScoreKey(258)
	expected := []byte{0x03, 0, 0, 0, 0, 0, 0, 0x01, 0x02}
	if !bytes.Equal(key, expected) {
		t.Errorf("TrainerScoreKey(258) = %x, want %x", key, expected)
	}
}
