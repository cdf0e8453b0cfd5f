package middleware

import (
	"fmt"
	"strings"

	"studio_server/pkg/apperr"
	"studio_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig holds auth middleware configuration.
type AuthConfig struct {
	JWTSecret string
	// DevBypass accepts an X-User-ID header instead of a token. Only
	// enabled in development.
	DevBypass bool
}

// Auth validates the bearer token and stores the user ID in the request
// context under "user_id".
func Auth(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.DevBypass {
			if userID := c.Get("X-User-ID"); userID != "" {
				c.Locals("user_id", userID)
				return c.Next()
			}
		}

		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return apperr.Unauthorized("missing bearer token")
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			logger.WithError(err).Debug("token validation failed")
			return apperr.InvalidToken()
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			return apperr.InvalidToken()
		}

		c.Locals("user_id", sub)
		return c.Next()
	}
}
