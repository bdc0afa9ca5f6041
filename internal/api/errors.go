package api

import (
	"errors"
	"net/http"

	"voice-gateway/internal/resolver"
	"voice-gateway/internal/store"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrTemplateNotFound),
		errors.Is(err, store.ErrRecipientNotFound),
		errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateTemplate):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidTemplate),
		errors.Is(err, store.ErrInvalidBatch),
		errors.Is(err, store.ErrInvalidSession),
		errors.Is(err, resolver.ErrMissingRequiredParameter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes an {"error": ...} body. Missing parameters also
// list the fields.
func abortWithError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var missing *resolver.MissingParametersError
	if errors.As(err, &missing) {
		body["missing_fields"] = missing.Fields
	}
	c.JSON(statusFor(err), body)
}
