package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rso-api/internal/middleware"
	"github.com/noah-isme/rso-api/internal/models"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
	"github.com/noah-isme/rso-api/pkg/response"
)

// actorFromContext returns the authenticated caller. When the JWT middleware did not run it
// writes a 401 and returns false.
func actorFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// bindOptionalJSON decodes the body when one was sent. Empty bodies leave dest untouched.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, message))
		return false
	}
	return true
}
