package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/service"
)

const authContextKey = "authContext"

// AuthMiddleware creates middleware that validates bearer tokens and puts
// the resulting identity on the request context.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "message": "Missing bearer token"})
			return
		}

		auth, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_expired", "message": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "message": "Invalid token"})
			}
			return
		}

		c.Set(authContextKey, auth)
		c.Next()
	}
}

// authFrom returns the identity the middleware attached to the request.
func authFrom(c *gin.Context) core.AuthContext {
	v, _ := c.Get(authContextKey)
	auth, _ := v.(core.AuthContext)
	return auth
}
