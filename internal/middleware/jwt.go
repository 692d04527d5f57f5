package middleware

import (
	"errors"
	"strings"
	"user_api/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer access token and stores the user id in
// the context. Requests without a valid token are rejected with rejectStatus.
func AuthMiddleware(tokens *auth.TokenManager, rejectStatus int) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(rejectStatus, gin.H{"error": "User not logged in"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(rejectStatus, gin.H{"error": "Invalid authorization format. Use: Bearer <token>"})
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				c.AbortWithStatusJSON(rejectStatus, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(rejectStatus, gin.H{"error": "Invalid token"})
			}
			return
		}

		if claims.Type != auth.AccessToken {
			c.AbortWithStatusJSON(rejectStatus, gin.H{"error": "Invalid token type"})
			return
		}

		c.Set(auth.UserIDKey, claims.UserID)
		c.Next()
	}
}
