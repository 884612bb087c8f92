package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/xhsnote/models"
)

// genericFailure is what clients see for faults that were not classified.
const genericFailure = "extraction failed"

// respondError maps an error to the correct HTTP status and writes a
// structured JSON error response. Wrapped causes never reach the client.
func respondError(c *gin.Context, err error, timing *models.TimingInfo) {
	var xerr *models.ExtractError
	if !errors.As(err, &xerr) {
		xerr = models.NewExtractError(models.ErrCodeInternal, genericFailure, err)
	}

	msg := xerr.Message
	if xerr.Code == models.ErrCodeInternal || msg == "" {
		msg = genericFailure
	}

	c.JSON(mapErrorToStatus(xerr), models.ExtractResponse{
		Success: false,
		Error:   msg,
		Code:    xerr.Code,
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ExtractError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeEmptyResult:
		return http.StatusNotFound
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
