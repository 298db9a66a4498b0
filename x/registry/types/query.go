package types

import "context"

// QueryServer is the read surface of the registry. Every request carries an optional
// Height; zero selects the latest committed version.
type QueryServer interface {
	ModelInfo(context.Context, *QueryModelInfoRequest) (*QueryModelInfoResponse, error)
	Model(context.Context, *QueryModelRequest) (*QueryModelResponse, error)
	LatestModel(context.Context, *QueryLatestModelRequest) (*QueryLatestModelResponse, error)
	TrainerScores(context.Context, *QueryTrainerScoresRequest) (*QueryTrainerScoresResponse, error)
}

type QueryModelInfoRequest struct {
	Version uint32 `json:"version"`
	Height  int64  `json:"height,omitempty"`
}

type QueryModelInfoResponse struct {
	Height int64     `json:"height"`
	Info   ModelInfo `json:"info"`
}

type QueryModelRequest struct {
	Version uint32 `json:"version"`
	Height  int64  `json:"height,omitempty"`
}

type QueryModelResponse struct {
	Height int64 `json:"height"`
	Model  Model `json:"model"`
}

type QueryLatestModelRequest struct {
	Height int64 `json:"height,omitempty"`
}

// QueryLatestModelResponse carries model_count-1, or -1 for an empty registry.
type QueryLatestModelResponse struct {
	Height  int64 `json:"height"`
	Version int32 `json:"version"`
}

type QueryTrainerScoresRequest struct {
	Height int64 `json:"height,omitempty"`
}

// QueryTrainerScoresResponse carries the ledger rendered by EncodeTrainerScores.
type QueryTrainerScoresResponse struct {
	Height int64  `json:"height"`
	Scores string `json:"scores"`
}
