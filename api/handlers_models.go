package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/modelreg/x/registry/types"
)

// handleModelInfo returns the verifiable envelope for a model version
func (s *Server) handleModelInfo(c *gin.Context) {
	var params ModelQueryParams
	if !bindQuery(c, &params) {
		return
	}

	resp, err := s.queries.ModelInfo(c.Request.Context(), &types.QueryModelInfoRequest{
		Version: *params.Version,
		Height:  params.Height,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header(HeightHeader, strconv.FormatInt(resp.Height, 10))
	c.JSON(http.StatusOK, resp.Info)
}

// handleGetModel returns the raw model for a version, 404 when none is registered
func (s *Server) handleGetModel(c *gin.Context) {
	var params ModelQueryParams
	if !bindQuery(c, &params) {
		return
	}

	resp, err := s.queries.Model(c.Request.Context(), &types.QueryModelRequest{
		Version: *params.Version,
		Height:  params.Height,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header(HeightHeader, strconv.FormatInt(resp.Height, 10))
	c.JSON(http.StatusOK, resp.Model)
}

// handleLatestModel returns the latest version as a bare JSON integer
func (s *Server) handleLatestModel(c *gin.Context) {
	var params HeightQueryParams
	if !bindQuery(c, &params) {
		return
	}

	resp, err := s.queries.LatestModel(c.Request.Context(), &types.QueryLatestModelRequest{Height: params.Height})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header(HeightHeader, strconv.FormatInt(resp.Height, 10))
	c.JSON(http.StatusOK, resp.Version)
}

// handleTrainerScores returns the score ledger as a JSON string holding the object
func (s *Server) handleTrainerScores(c *gin.Context) {
	var params HeightQueryParams
	if !bindQuery(c, &params) {
		return
	}

	resp, err := s.queries.TrainerScores(c.Request.Context(), &types.QueryTrainerScoresRequest{Height: params.Height})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header(HeightHeader, strconv.FormatInt(resp.Height, 10))
	c.JSON(http.StatusOK, resp.Scores)
}

func bindQuery(c *gin.Context, params interface{}) bool {
	if err := c.ShouldBindQuery(params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameters",
			Code:    CodeInvalidArgument,
			Details: err.Error(),
		})
		return false
	}
	return true
}

// writeError maps query status codes to HTTP responses. Unclassified failures never
// expose their message.
func (s *Server) writeError(c *gin.Context, err error) {
	if errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) {
		c.JSON(http.StatusRequestTimeout, ErrorResponse{Error: "Request timeout", Code: CodeTimeout})
		return
	}

	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.NotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: st.Message(), Code: CodeNotFound})
	case codes.InvalidArgument:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: st.Message(), Code: CodeInvalidArgument})
	case codes.Unavailable:
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: st.Message(), Code: CodeUnavailable})
	case codes.Internal:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: st.Message(), Code: CodeInternal})
	default:
		s.logger.Error("unclassified query error", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: CodeInternal})
	}
}
