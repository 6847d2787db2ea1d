package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	"github.com/jadhavharshh/ConnectX-sub001/internal/service"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/response"
)

// ContextViewerKey is the gin context key storing the viewer context.
const ContextViewerKey = "viewer"

// Auth protects routes by requiring a valid identity token. The resolved
// viewer context is stored on the request for handlers to pick up.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextViewerKey, authService.ViewerFromClaims(claims))
		c.Next()
	}
}

// OptionalAuth resolves the viewer context when a token is present but never
// blocks. Requests without a usable token proceed as an anonymous student
// viewer; mutating routes still enforce their own checks downstream.
func OptionalAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := authService.ValidateToken(token); err == nil {
				c.Set(ContextViewerKey, authService.ViewerFromClaims(claims))
				c.Next()
				return
			}
		}
		c.Set(ContextViewerKey, models.StudentContext("", "", ""))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
