package handlers

import (
	"errors"
	"net/http"

	"startup-fund/internal/services"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps the service error taxonomy to HTTP responses.
// Business-rule rejections carry their message verbatim; anything
// unrecognized is a 500 with a generic body.
func writeServiceError(c *gin.Context, err error) {
	var insufficient *services.InsufficientFundsError
	var validation *services.ValidationError

	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     insufficient.Error(),
			"remaining": insufficient.Remaining,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.Is(err, services.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadySubmitted),
		errors.Is(err, services.ErrInactiveStartup),
		errors.Is(err, services.ErrIncompleteAllocation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrGameLocked):
		c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRetryExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.ErrRetryExhausted.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
