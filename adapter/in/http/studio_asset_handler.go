package http

import (
	"strings"

	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AssetHandler handles asset library HTTP requests.
type AssetHandler struct {
	assets in.AssetService
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(assets in.AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// Register registers asset routes.
func (h *AssetHandler) Register(router fiber.Router) {
	assets := router.Group("/assets")

	assets.Get("/", h.ListAssets)
	assets.Get("/stats", h.GetStats)
	assets.Get("/:id", h.GetAsset)
	assets.Post("/", h.CreateAsset)
	assets.Patch("/:id", h.UpdateAsset)
	assets.Delete("/:id", h.DeleteAsset)

	assets.Put("/:id/favorite", h.SetFavorite)
	assets.Put("/:id/tags", h.UpdateTags)

	collections := router.Group("/collections")
	collections.Get("/", h.ListCollections)
	collections.Get("/:id", h.GetCollection)
	collections.Post("/", h.CreateCollection)
	collections.Delete("/:id", h.DeleteCollection)
	collections.Post("/:id/assets/:assetId", h.AddToCollection)
	collections.Delete("/:id/assets/:assetId", h.RemoveFromCollection)
}

// =============================================================================
// Asset CRUD
// =============================================================================

// ListAssets returns the user's assets, filtered and paged.
// GET /api/v1/assets
func (h *AssetHandler) ListAssets(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	filter := &domain.AssetFilter{
		Kind:       domain.AssetKind(c.Query("kind")),
		Status:     domain.AssetStatus(c.Query("status")),
		Source:     domain.AssetSource(c.Query("source")),
		Collection: c.Query("collection"),
		Search:     c.Query("search"),
		Limit:      c.QueryInt("limit", 50),
		Offset:     c.QueryInt("offset", 0),
	}

	if tags := c.Query("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}
	if fav := c.Query("favorite"); fav != "" {
		favorite := fav == "true"
		filter.Favorite = &favorite
	}

	result, err := h.assets.ListAssets(c.Context(), userID, filter)
	if err != nil {
		return respondError(c, err)
	}

	return response.OKWithMeta(c, result.Assets, &response.Meta{
		Total:   result.Total,
		HasMore: filter.Offset+len(result.Assets) < result.Total,
	})
}

// GetStats returns library-wide counts.
// GET /api/v1/assets/stats
func (h *AssetHandler) GetStats(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	stats, err := h.assets.GetStats(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, stats)
}

// GetAsset returns a single asset.
// GET /api/v1/assets/:id
func (h *AssetHandler) GetAsset(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	asset, err := h.assets.GetAsset(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, asset)
}

// CreateAsset registers an uploaded asset.
// POST /api/v1/assets
func (h *AssetHandler) CreateAsset(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req in.CreateAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	asset, err := h.assets.CreateAsset(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, asset)
}

// UpdateAsset applies a partial asset edit.
// PATCH /api/v1/assets/:id
func (h *AssetHandler) UpdateAsset(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req domain.UpdateAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	asset, err := h.assets.UpdateAsset(c.Context(), userID, c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, asset)
}

// DeleteAsset removes an asset from the library.
// DELETE /api/v1/assets/:id
func (h *AssetHandler) DeleteAsset(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.assets.DeleteAsset(c.Context(), userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

// =============================================================================
// Organization
// =============================================================================

type setFavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// SetFavorite toggles the favorite flag.
// PUT /api/v1/assets/:id/favorite
func (h *AssetHandler) SetFavorite(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req setFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	asset, err := h.assets.SetFavorite(c.Context(), userID, c.Params("id"), req.Favorite)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, asset)
}

type updateTagsRequest struct {
	Tags []string `json:"tags"`
}

// UpdateTags replaces the asset's tag set.
// PUT /api/v1/assets/:id/tags
func (h *AssetHandler) UpdateTags(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req updateTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	asset, err := h.assets.UpdateTags(c.Context(), userID, c.Params("id"), req.Tags)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, asset)
}

// =============================================================================
// Collections
// =============================================================================

// ListCollections returns the user's collections.
// GET /api/v1/collections
func (h *AssetHandler) ListCollections(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	collections, err := h.assets.ListCollections(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, collections)
}

// GetCollection returns a single collection.
// GET /api/v1/collections/:id
func (h *AssetHandler) GetCollection(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	collection, err := h.assets.GetCollection(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, collection)
}

// CreateCollection creates a new collection.
// POST /api/v1/collections
func (h *AssetHandler) CreateCollection(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req in.CreateCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	collection, err := h.assets.CreateCollection(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, collection)
}

// DeleteCollection deletes a collection. Member assets stay in the library.
// DELETE /api/v1/collections/:id
func (h *AssetHandler) DeleteCollection(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.assets.DeleteCollection(c.Context(), userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

// AddToCollection adds an asset to a collection.
// POST /api/v1/collections/:id/assets/:assetId
func (h *AssetHandler) AddToCollection(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.assets.AddToCollection(c.Context(), userID, c.Params("assetId"), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.OK(c, fiber.Map{
		"collection_id": c.Params("id"),
		"asset_id":      c.Params("assetId"),
	})
}

// RemoveFromCollection removes an asset from a collection.
// DELETE /api/v1/collections/:id/assets/:assetId
func (h *AssetHandler) RemoveFromCollection(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.assets.RemoveFromCollection(c.Context(), userID, c.Params("assetId"), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}
