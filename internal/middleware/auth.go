package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scenario-server/internal/auth"
	"scenario-server/internal/model"
)

// UserIDKey - ключ контекста Gin, под которым лежит uuid пользователя.
const UserIDKey = "userID"

// JWTAuthMiddleware создает middleware для проверки JWT access токена.
// Проверяет подпись и срок действия, кладет user_id в контекст Gin.
func JWTAuthMiddleware(verifier *auth.JWTVerifier, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			log.Warn("Token verification failed", zap.Error(err))
			switch {
			case errors.Is(err, model.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			case errors.Is(err, model.ErrTokenMalformed):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is malformed"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid"})
			}
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}
