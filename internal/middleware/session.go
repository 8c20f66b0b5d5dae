package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/models"
	"github.com/noah-isme/sfp-api/internal/service"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/response"
)

// ContextAdminKey is the gin context key storing the verified session claims.
const ContextAdminKey = "currentAdmin"

// Session protects mutating routes by requiring a valid admin session
// token. The Authorization header takes precedence over the cookie.
func Session(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := authService.Verify(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// Admin returns the claims attached by Session, if any.
func Admin(c *gin.Context) *models.SessionClaims {
	if v, ok := c.Get(ContextAdminKey); ok {
		if claims, ok := v.(*models.SessionClaims); ok {
			return claims
		}
	}
	return nil
}

func extractToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	// No Bearer token extracted: a non-Bearer Authorization header does
	// not block the cookie path.
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
