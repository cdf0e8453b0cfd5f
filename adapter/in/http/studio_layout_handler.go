package http

import (
	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LayoutHandler handles layout generation and editing HTTP requests.
type LayoutHandler struct {
	layouts in.LayoutService
}

// NewLayoutHandler creates a new layout handler.
func NewLayoutHandler(layouts in.LayoutService) *LayoutHandler {
	return &LayoutHandler{layouts: layouts}
}

// Register registers layout routes.
func (h *LayoutHandler) Register(router fiber.Router) {
	layouts := router.Group("/layouts")

	layouts.Post("/generate", h.Generate)
	layouts.Get("/", h.ListLayouts)
	layouts.Get("/:id", h.GetLayout)
	layouts.Patch("/:id", h.UpdateLayout)
	layouts.Delete("/:id", h.DeleteLayout)

	layouts.Put("/:id/color-scheme", h.ApplyColorScheme)
	layouts.Put("/:id/assets", h.ReassignAssets)
	layouts.Post("/:id/recompute", h.Recompute)
}

// Recompute refreshes prediction and compliance scores for a layout whose
// edits left it dirty.
// POST /api/v1/layouts/:id/recompute
func (h *LayoutHandler) Recompute(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	layout, err := h.layouts.Recompute(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, layout)
}

// Generate produces layout candidates for a territory across the
// requested channel formats.
// POST /api/v1/layouts/generate
func (h *LayoutHandler) Generate(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req domain.LayoutGenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.layouts.GenerateLayouts(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, result)
}

// ListLayouts pages the user's saved layouts.
// GET /api/v1/layouts
func (h *LayoutHandler) ListLayouts(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	result, err := h.layouts.ListLayouts(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return response.OKWithMeta(c, result.Layouts, &response.Meta{
		Total:   result.Total,
		HasMore: offset+len(result.Layouts) < result.Total,
	})
}

// GetLayout returns a single layout.
// GET /api/v1/layouts/:id
func (h *LayoutHandler) GetLayout(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	layout, err := h.layouts.GetLayout(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, layout)
}

// UpdateLayout applies element edits and rescores the layout.
// PATCH /api/v1/layouts/:id
func (h *LayoutHandler) UpdateLayout(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req domain.UpdateLayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	layout, err := h.layouts.UpdateLayout(c.Context(), userID, c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, layout)
}

// DeleteLayout removes a layout.
// DELETE /api/v1/layouts/:id
func (h *LayoutHandler) DeleteLayout(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.layouts.DeleteLayout(c.Context(), userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

type applyColorSchemeRequest struct {
	Scheme string `json:"scheme"`
}

// ApplyColorScheme recolors a layout with a named scheme transform.
// PUT /api/v1/layouts/:id/color-scheme
func (h *LayoutHandler) ApplyColorScheme(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req applyColorSchemeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	layout, err := h.layouts.ApplyColorScheme(c.Context(), userID, c.Params("id"), domain.ColorSchemeKind(req.Scheme))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, layout)
}

type reassignAssetsRequest struct {
	AssetIDs []string `json:"asset_ids"`
}

// ReassignAssets swaps the assets filling a layout's image slots.
// PUT /api/v1/layouts/:id/assets
func (h *LayoutHandler) ReassignAssets(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req reassignAssetsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	layout, err := h.layouts.ReassignAssets(c.Context(), userID, c.Params("id"), req.AssetIDs)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, layout)
}
