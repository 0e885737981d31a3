package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vestire/server/internal/shared/auth"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// SubjectKey is the context key for the token subject.
	SubjectKey = "auth_subject"
	// RoleKey is the context key for the token role.
	RoleKey = "auth_role"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RequireRole returns a middleware that requires a valid bearer token
// carrying role.
func RequireRole(validator TokenValidator, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization header required",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "access denied",
				"code":    "FORBIDDEN",
			})
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
}
