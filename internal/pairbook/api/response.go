package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soyj/pairbook/internal/pairbook/state"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// APIError carries a machine-usable status and a human-readable message.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse{Data: data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, APIResponse{Error: &APIError{Status: status, Message: msg}})
}

// handleError maps domain errors onto HTTP statuses. Unknown errors are
// logged and flattened into a 500 without leaking internals.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, state.ErrInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, state.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, state.ErrNoFortuneChar):
		respondError(c, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "path", c.FullPath(), "err", err)
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
