package http

import (
	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BrandHandler handles brand guidelines HTTP requests.
type BrandHandler struct {
	brand in.BrandService
}

// NewBrandHandler creates a new brand handler.
func NewBrandHandler(brand in.BrandService) *BrandHandler {
	return &BrandHandler{brand: brand}
}

// Register registers brand guidelines routes.
func (h *BrandHandler) Register(router fiber.Router) {
	brand := router.Group("/brand-guidelines")

	brand.Get("/", h.ListGuidelines)
	brand.Get("/default", h.GetDefaultGuidelines)
	brand.Get("/:id", h.GetGuidelines)
	brand.Post("/", h.CreateGuidelines)
	brand.Patch("/:id", h.UpdateGuidelines)
	brand.Delete("/:id", h.DeleteGuidelines)
	brand.Put("/:id/default", h.SetDefaultGuidelines)
}

// ListGuidelines returns all guideline sets for the user, default first.
// GET /api/v1/brand-guidelines
func (h *BrandHandler) ListGuidelines(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	guidelines, err := h.brand.ListGuidelines(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, guidelines)
}

// GetDefaultGuidelines returns the user's default guideline set, an empty
// set when none exists.
// GET /api/v1/brand-guidelines/default
func (h *BrandHandler) GetDefaultGuidelines(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	guidelines, err := h.brand.GetDefaultGuidelines(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, guidelines)
}

// GetGuidelines returns a single guideline set.
// GET /api/v1/brand-guidelines/:id
func (h *BrandHandler) GetGuidelines(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	guidelines, err := h.brand.GetGuidelines(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, guidelines)
}

// CreateGuidelines creates a guideline set. The user's first set becomes
// the default automatically.
// POST /api/v1/brand-guidelines
func (h *BrandHandler) CreateGuidelines(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req domain.CreateBrandGuidelinesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	guidelines, err := h.brand.CreateGuidelines(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, guidelines)
}

// UpdateGuidelines applies a partial guidelines edit.
// PATCH /api/v1/brand-guidelines/:id
func (h *BrandHandler) UpdateGuidelines(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req domain.UpdateBrandGuidelinesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	guidelines, err := h.brand.UpdateGuidelines(c.Context(), userID, c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, guidelines)
}

// DeleteGuidelines removes a guideline set. The default set cannot be
// deleted while other sets exist.
// DELETE /api/v1/brand-guidelines/:id
func (h *BrandHandler) DeleteGuidelines(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.brand.DeleteGuidelines(c.Context(), userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

// SetDefaultGuidelines marks a guideline set as the user's default.
// PUT /api/v1/brand-guidelines/:id/default
func (h *BrandHandler) SetDefaultGuidelines(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.brand.SetDefaultGuidelines(c.Context(), userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.OK(c, fiber.Map{"id": c.Params("id"), "is_default": true})
}
