package http

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/core/port/out"
	"studio_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// analysisCacheTTL bounds staleness of cached analysis results. The cache
// key covers asset update times, so edits miss the cache anyway.
const analysisCacheTTL = 10 * time.Minute

// AnalysisHandler exposes visual intelligence analysis over HTTP.
type AnalysisHandler struct {
	vision in.VisionService
	assets in.AssetService
	cache  out.Cache
}

// NewAnalysisHandler creates a new analysis handler. cache may be nil.
func NewAnalysisHandler(vision in.VisionService, assets in.AssetService, cache out.Cache) *AnalysisHandler {
	return &AnalysisHandler{vision: vision, assets: assets, cache: cache}
}

// Register registers analysis routes.
func (h *AnalysisHandler) Register(router fiber.Router) {
	router.Post("/analysis", h.Analyze)
}

type analyzeRequest struct {
	AssetIDs    []string            `json:"asset_ids"`
	Territory   *domain.Territory   `json:"territory"`
	BrandColors *domain.BrandColors `json:"brand_colors,omitempty"`
}

// Analyze scores the given assets against a creative territory. Results
// are cached in Redis keyed by the full request fingerprint.
// POST /api/v1/analysis
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if len(req.AssetIDs) == 0 {
		return response.BadRequest(c, "asset_ids is required")
	}

	assets := make([]*domain.Asset, 0, len(req.AssetIDs))
	for _, id := range req.AssetIDs {
		asset, err := h.assets.GetAsset(c.Context(), userID, id)
		if err != nil {
			return respondError(c, err)
		}
		assets = append(assets, asset)
	}

	var palette []string
	if req.BrandColors != nil {
		palette = req.BrandColors.Palette()
	}

	key := analysisCacheKey(userID, assets, req.Territory, palette)
	if h.cache != nil {
		var cached domain.VisualIntelligence
		if hit, err := h.cache.GetJSON(c.Context(), key, &cached); err == nil && hit {
			return response.OK(c, &cached)
		}
	}

	result, err := h.vision.Analyze(c.Context(), assets, req.Territory, palette)
	if err != nil {
		return respondError(c, err)
	}

	if h.cache != nil {
		_ = h.cache.SetJSON(c.Context(), key, result, analysisCacheTTL)
	}
	return response.OK(c, result)
}

// analysisCacheKey fingerprints everything the analysis depends on: the
// assets (with their update times), the territory and the brand palette.
func analysisCacheKey(userID string, assets []*domain.Asset, territory *domain.Territory, palette []string) string {
	h := sha256.New()
	io.WriteString(h, userID)
	for _, a := range assets {
		fmt.Fprintf(h, "|a:%s:%d", a.ID, a.UpdatedAt.UnixNano())
	}
	if territory != nil {
		fmt.Fprintf(h, "|t:%s:%s:%s:%s", territory.ID, territory.Title, territory.Positioning, territory.Tone)
		for _, k := range territory.Keywords {
			io.WriteString(h, "|k:"+k)
		}
	}
	for _, p := range palette {
		io.WriteString(h, "|c:"+p)
	}
	return "analysis:" + hex.EncodeToString(h.Sum(nil))
}
