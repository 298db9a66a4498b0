package types

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
)

// Model is a versioned machine-learning model as committed in the models table.
type Model struct {
	// Version is the monotonic version number the model was registered under.
	Version uint32 `json:"version"`
	// Payload is an opaque reference to the trained artifact (URI, CID, metadata).
	Payload string `json:"payload"`
	// HistoryLen is the number of transaction hashes in the model's history log.
	HistoryLen uint64 `json:"history_len"`
	// HistoryHash is the Merkle root over the model's history log.
	HistoryHash cmtbytes.HexBytes `json:"history_hash"`
}

// TrainerScore is one entry of the trainer score ledger.
type TrainerScore struct {
	IdentityHash cmtbytes.HexBytes `json:"identity_hash"`
	Score        string            `json:"score"`
}

// EncodeTrainerScores renders the ledger as a JSON object mapping the lowercase hex
// identity hash to its score, in ledger order. An empty ledger renders as "{}".
func EncodeTrainerScores(scores []TrainerScore) (string, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, s := range scores {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(hex.EncodeToString(s.IdentityHash))
		if err != nil {
			return "", err
		}
		val, err := json.Marshal(s.Score)
		if err != nil {
			return "", err
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(val)
	}
	sb.WriteByte('}')
	return sb.String(), nil
}
