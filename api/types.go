package api

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ModelQueryParams are the query parameters of the per-version model endpoints
type ModelQueryParams struct {
	Version *uint32 `form:"version" binding:"required"`
	Height  int64   `form:"height" binding:"gte=0"`
}

// HeightQueryParams are the query parameters of the registry-wide endpoints
type HeightQueryParams struct {
	Height int64 `form:"height" binding:"gte=0"`
}

// Error codes returned in ErrorResponse.Code
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
	CodeRateLimit       = "RATE_LIMIT"
	CodeTimeout         = "TIMEOUT"
)

// HeightHeader carries the committed height a response was read at
const HeightHeader = "X-Registry-Height"
