package http

import (
	"studio_server/pkg/apperr"
	"studio_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// GetUserID extracts the authenticated user ID from the fiber context.
func GetUserID(c *fiber.Ctx) (string, error) {
	userIDVal := c.Locals("user_id")
	if userIDVal == nil {
		return "", response.Unauthorized(c, "authentication required")
	}
	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		return "", response.Unauthorized(c, "authentication required")
	}
	return userID, nil
}

// respondError maps a service error onto the response envelope.
func respondError(c *fiber.Ctx, err error) error {
	return response.AppError(c, apperr.AsAppError(err))
}
