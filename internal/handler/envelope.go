package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"botstudio/internal/models"
)

// Envelope is the uniform response body of the bot API. ErrorCode is 0
// on success and mirrors the HTTP status on domain failures.
type Envelope struct {
	Data      interface{} `json:"data"`
	Message   string      `json:"message"`
	ErrorCode int         `json:"error_code"`
	Success   bool        `json:"success"`
}

// respondOK writes a success envelope.
func respondOK(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Envelope{
		Data:      data,
		Message:   message,
		ErrorCode: 0,
		Success:   true,
	})
}

// respondError maps domain errors to a 422 envelope and everything else
// to an opaque 500.
func respondError(c *gin.Context, err error) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		c.JSON(http.StatusUnprocessableEntity, Envelope{
			Message:   appErr.Message,
			ErrorCode: appErr.Code,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Envelope{
		Message:   "Internal server error",
		ErrorCode: http.StatusInternalServerError,
	})
}

// respondInvalid reports a malformed request body or parameter. Input
// validation failures share the 422 envelope with domain errors.
func respondInvalid(c *gin.Context, message string) {
	respondError(c, models.NewAppError(message))
}
