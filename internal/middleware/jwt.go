package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/uniplan-api/internal/models"
	"github.com/acadsys/uniplan-api/internal/service"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
	"github.com/acadsys/uniplan-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// JWT protects routes by requiring a valid access token.
func JWT(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentClaims extracts the authenticated caller's claims, if present.
func CurrentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

// RequireStudentAccess blocks callers from touching another student's
// records unless they hold the staff role.
func RequireStudentAccess(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		studentID := c.Param(paramName)
		if studentID != "" && !claims.CanActFor(studentID) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cannot access another student's records"))
			c.Abort()
			return
		}
		c.Next()
	}
}
