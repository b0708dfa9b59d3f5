package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/pressroom/api"
	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps the domain error taxonomy onto HTTP statuses.
// Store failures and unknown errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: vErr.Error(), Field: vErr.Field})
	case errors.Is(err, domain.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, api.ErrorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrReferentialConflict):
		c.AbortWithStatusJSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid credentials"})
	default:
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

// badRequest reports a body that could not be decoded or bound
func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body: " + err.Error()})
}
