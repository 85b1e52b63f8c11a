package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/dough/pkg/domain/entities"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var errInvalidRequest = errors.New("invalid request")

// ErrorHandlingMiddleware renders the last handler error as a JSON error response
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func abortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	payload := errorPayload{Message: err.Error()}

	switch {
	case errors.Is(err, errInvalidRequest):
		payload.Type = "invalid_request"
		return http.StatusBadRequest, payload
	case errors.Is(err, entities.ErrInvalidQuantity):
		payload.Type = "invalid_quantity"
		return http.StatusBadRequest, payload
	case errors.Is(err, entities.ErrBatchNotFound):
		payload.Type = "batch_not_found"
		return http.StatusNotFound, payload
	case errors.Is(err, entities.ErrInvalidTransition):
		payload.Type = "invalid_transition"
		return http.StatusConflict, payload
	case errors.Is(err, entities.ErrInsufficientStock):
		payload.Type = "insufficient_stock"
		return http.StatusConflict, payload
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		payload.Type = "unavailable"
		return http.StatusServiceUnavailable, payload
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
