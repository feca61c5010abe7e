package middleware

import (
	"errors"
	"net/http"
	"strings"

	"botstudio/internal/models"
	"botstudio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer <token>"})
			c.Abort()
			return
		}

		claims := &models.Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return service.GetJWTSecret(), nil
		})

		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
				c.Abort()
				return
			}
			logger.Error("Invalid JWT token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		if !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set("account", claims.Account)

		c.Next()
	}
}

// BotGuard resolves the :bot path parameter and rejects requests for
// bots outside the caller's account.
func BotGuard(auth service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		botID := c.Param("bot")
		if botID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Bot id required"})
			c.Abort()
			return
		}

		account := c.GetString("account")
		bot, err := auth.GetBot(c.Request.Context(), botID, account)
		if err != nil {
			if errors.Is(err, service.ErrBotNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Bot not found"})
				c.Abort()
				return
			}
			logger.Error("Failed to resolve bot", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve bot"})
			c.Abort()
			return
		}

		c.Set("bot", bot.ID)
		c.Next()
	}
}
