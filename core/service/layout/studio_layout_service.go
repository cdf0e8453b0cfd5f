package layout

import (
	"context"
	"sort"
	"time"

	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/core/port/out"
	"studio_server/pkg/apperr"
	"studio_server/pkg/logger"
	"studio_server/pkg/snowflake"
)

// Service implements the layout generation and editing use cases on top of
// the pure engine: it resolves assets, runs visual analysis, scores brand
// compliance and persists the resulting candidates.
type Service struct {
	engine     *Engine
	layouts    out.LayoutStore
	assets     out.AssetRepository
	brands     out.BrandGuidelinesRepository
	vision     in.VisionService
	compliance in.ComplianceService
	log        *logger.Logger
}

// NewService creates the layout service.
func NewService(
	layouts out.LayoutStore,
	assets out.AssetRepository,
	brands out.BrandGuidelinesRepository,
	vision in.VisionService,
	compliance in.ComplianceService,
) *Service {
	return &Service{
		engine:     NewEngine(),
		layouts:    layouts,
		assets:     assets,
		brands:     brands,
		vision:     vision,
		compliance: compliance,
		log:        logger.Default().WithField("component", "layout_service"),
	}
}

// =============================================================================
// Generation
// =============================================================================

// GenerateLayouts produces formats x preferences candidates for a
// territory, scores each one and persists the whole batch.
func (s *Service) GenerateLayouts(ctx context.Context, userID string, req *domain.LayoutGenerationRequest) (*in.LayoutGenerationResponse, error) {
	if req == nil {
		return nil, apperr.BadRequest("request body is required")
	}
	if len(req.Formats) == 0 {
		return nil, apperr.MissingField("formats")
	}
	for _, f := range req.Formats {
		if !f.Supported() {
			return nil, apperr.ValidationFailed("unsupported channel format: " + string(f)).
				WithDetail("format", string(f))
		}
	}

	assets, err := s.resolveAssets(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	intel, err := s.vision.Analyze(ctx, assets, &req.Territory, req.BrandGuidelines.Colors.Palette())
	if err != nil {
		return nil, err
	}

	variations := s.engine.Generate(req, assets, intel)

	now := time.Now().UTC()
	for _, v := range variations {
		v.ID = snowflake.LayoutID()
		v.UserID = userID
		v.TerritoryID = req.Territory.ID
		v.CreatedAt = now
		v.UpdatedAt = now

		score, scoreErr := s.compliance.Score(ctx, v, &req.BrandGuidelines)
		if scoreErr != nil {
			s.log.WithError(scoreErr).WithField("layout_id", v.ID).Warn("compliance scoring failed")
		} else {
			v.Compliance = score
		}
	}

	rankCandidates(variations)

	if err := s.layouts.SaveBatch(ctx, variations); err != nil {
		return nil, apperr.DatabaseError("save layouts", err)
	}

	s.log.WithFields(map[string]any{
		"user_id":    userID,
		"territory":  req.Territory.ID,
		"candidates": len(variations),
		"assets":     len(assets),
	}).Info("layout candidates generated")

	return &in.LayoutGenerationResponse{Layouts: variations, Analysis: intel}, nil
}

// resolveAssets loads the request's assets and drops ids the user does not
// own. Unknown priority ids are a validation error since the caller asked
// for them explicitly.
func (s *Service) resolveAssets(ctx context.Context, userID string, req *domain.LayoutGenerationRequest) ([]*domain.Asset, error) {
	ids := make([]string, 0, len(req.AssetIDs)+len(req.PriorityAssetIDs))
	seen := make(map[string]bool, cap(ids))
	for _, id := range append(append([]string{}, req.PriorityAssetIDs...), req.AssetIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	byID, err := s.assets.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.DatabaseError("load assets", err)
	}

	assets := make([]*domain.Asset, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok || a.UserID != userID {
			continue
		}
		assets = append(assets, a)
	}

	for _, id := range req.PriorityAssetIDs {
		if _, ok := byID[id]; !ok {
			return nil, apperr.ValidationFailed("priority asset not found").WithDetail("asset_id", id)
		}
	}
	return assets, nil
}

// =============================================================================
// Editing
// =============================================================================

// UpdateLayout applies element-level edits and marks the layout dirty.
// Scores are not refreshed here: interactive dragging produces a burst of
// edits, and recomputing prediction plus compliance on each one would make
// every drag a scoring pass. Recompute settles the scores on demand.
func (s *Service) UpdateLayout(ctx context.Context, userID, layoutID string, req *domain.UpdateLayoutRequest) (*domain.LayoutVariation, error) {
	if req == nil || len(req.Elements) == 0 {
		return nil, apperr.MissingField("elements")
	}

	v, err := s.getOwned(ctx, userID, layoutID)
	if err != nil {
		return nil, err
	}

	for i := range req.Elements {
		if err := applyElementUpdate(v, &req.Elements[i]); err != nil {
			return nil, err
		}
	}

	return s.saveDirty(ctx, v)
}

// ApplyColorScheme swaps the layout's palette for a transform of the
// user's default brand colors and recolors the copy to match.
func (s *Service) ApplyColorScheme(ctx context.Context, userID, layoutID string, scheme domain.ColorSchemeKind) (*domain.LayoutVariation, error) {
	switch scheme {
	case domain.SchemeBrand, domain.SchemeComplementary, domain.SchemeMonochromatic, domain.SchemeVibrant, domain.SchemeMuted:
	default:
		return nil, apperr.ValidationFailed("unknown color scheme: " + string(scheme))
	}

	v, err := s.getOwned(ctx, userID, layoutID)
	if err != nil {
		return nil, err
	}

	guidelines := s.defaultGuidelines(ctx, userID)
	v.Scheme = BuildColorScheme(scheme, guidelines.Colors)
	recolorTexts(v)

	return s.saveDirty(ctx, v)
}

// ReassignAssets replaces the layout's image slots with the given assets
// in order. Slots beyond the list fall back to placeholders; logo slots
// are untouched.
func (s *Service) ReassignAssets(ctx context.Context, userID, layoutID string, assetIDs []string) (*domain.LayoutVariation, error) {
	v, err := s.getOwned(ctx, userID, layoutID)
	if err != nil {
		return nil, err
	}

	if len(assetIDs) > 0 {
		byID, err := s.assets.GetByIDs(ctx, assetIDs)
		if err != nil {
			return nil, apperr.DatabaseError("load assets", err)
		}
		for _, id := range assetIDs {
			a, ok := byID[id]
			if !ok || a.UserID != userID {
				return nil, apperr.NotFound("asset").WithDetail("asset_id", id)
			}
		}
	}

	next := 0
	for i := range v.Images {
		if v.Images[i].Role == "logo" {
			continue
		}
		if next < len(assetIDs) {
			v.Images[i].AssetID = assetIDs[next]
			next++
		} else {
			v.Images[i].AssetID = domain.PlaceholderAssetID
		}
	}

	return s.saveDirty(ctx, v)
}

// Recompute refreshes prediction and compliance for a layout whose edits
// left it dirty. A clean layout returns unchanged.
func (s *Service) Recompute(ctx context.Context, userID, layoutID string) (*domain.LayoutVariation, error) {
	v, err := s.getOwned(ctx, userID, layoutID)
	if err != nil {
		return nil, err
	}
	if !v.Dirty {
		return v, nil
	}
	return s.rescoreAndSave(ctx, v)
}

// =============================================================================
// Queries
// =============================================================================

// GetLayout returns one layout owned by the user.
func (s *Service) GetLayout(ctx context.Context, userID, layoutID string) (*domain.LayoutVariation, error) {
	return s.getOwned(ctx, userID, layoutID)
}

// ListLayouts pages through the user's layouts, newest first.
func (s *Service) ListLayouts(ctx context.Context, userID string, limit, offset int) (*in.LayoutListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	layouts, total, err := s.layouts.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperr.DatabaseError("list layouts", err)
	}
	return &in.LayoutListResponse{Layouts: layouts, Total: total}, nil
}

// DeleteLayout removes one layout owned by the user.
func (s *Service) DeleteLayout(ctx context.Context, userID, layoutID string) error {
	if _, err := s.getOwned(ctx, userID, layoutID); err != nil {
		return err
	}
	if err := s.layouts.Delete(ctx, layoutID); err != nil {
		return apperr.DatabaseError("delete layout", err)
	}
	return nil
}

// =============================================================================
// Internals
// =============================================================================

func (s *Service) getOwned(ctx context.Context, userID, layoutID string) (*domain.LayoutVariation, error) {
	if layoutID == "" {
		return nil, apperr.MissingField("layout_id")
	}
	v, err := s.layouts.GetByID(ctx, layoutID)
	if err != nil {
		return nil, apperr.DatabaseError("get layout", err)
	}
	if v == nil || v.UserID != userID {
		return nil, apperr.NotFound("layout")
	}
	return v, nil
}

// saveDirty marks the layout dirty and persists it without rescoring.
// Stale scores stay visible until Recompute runs.
func (s *Service) saveDirty(ctx context.Context, v *domain.LayoutVariation) (*domain.LayoutVariation, error) {
	v.Dirty = true
	v.UpdatedAt = time.Now().UTC()

	if err := s.layouts.Update(ctx, v); err != nil {
		return nil, apperr.DatabaseError("update layout", err)
	}
	return v, nil
}

// rescoreAndSave refreshes prediction and compliance for a dirty layout,
// clears the flag and persists the result.
func (s *Service) rescoreAndSave(ctx context.Context, v *domain.LayoutVariation) (*domain.LayoutVariation, error) {
	v.PerformancePrediction = s.engine.Predict(v, nil)

	guidelines := s.defaultGuidelines(ctx, v.UserID)
	if score, err := s.compliance.Score(ctx, v, guidelines); err != nil {
		s.log.WithError(err).WithField("layout_id", v.ID).Warn("compliance rescoring failed")
	} else {
		v.Compliance = score
	}

	v.Dirty = false
	v.UpdatedAt = time.Now().UTC()

	if err := s.layouts.Update(ctx, v); err != nil {
		return nil, apperr.DatabaseError("update layout", err)
	}
	return v, nil
}

// rankCandidates orders scored candidates best-first. The engine orders by
// prediction alone; with compliance embedded, prediction ties break on the
// higher compliance overall, and full ties keep the engine's order.
func rankCandidates(variations []*domain.LayoutVariation) {
	sort.SliceStable(variations, func(i, j int) bool {
		if variations[i].PerformancePrediction != variations[j].PerformancePrediction {
			return variations[i].PerformancePrediction > variations[j].PerformancePrediction
		}
		return complianceOverall(variations[i]) > complianceOverall(variations[j])
	})
}

func complianceOverall(v *domain.LayoutVariation) float64 {
	if v.Compliance == nil {
		return 0
	}
	return v.Compliance.Overall
}

// defaultGuidelines loads the user's default brand guidelines; edits still
// proceed with empty guidelines when none are configured.
func (s *Service) defaultGuidelines(ctx context.Context, userID string) *domain.BrandGuidelines {
	g, err := s.brands.GetDefault(ctx, userID)
	if err != nil || g == nil {
		return &domain.BrandGuidelines{}
	}
	return g
}

// applyElementUpdate mutates one placement in place. Exactly one of
// image_index / text_index addresses the target.
func applyElementUpdate(v *domain.LayoutVariation, u *domain.ElementUpdate) error {
	switch {
	case u.ImageIndex != nil && u.TextIndex != nil:
		return apperr.ValidationFailed("element update addresses both an image and a text slot")

	case u.ImageIndex != nil:
		i := *u.ImageIndex
		if i < 0 || i >= len(v.Images) {
			return apperr.ValidationFailed("image index out of range").WithDetail("index", i)
		}
		p := &v.Images[i]
		if u.Frame != nil {
			p.Frame = *u.Frame
		}
		if u.Rotation != nil {
			p.Rotation = *u.Rotation
		}
		if u.Opacity != nil {
			if *u.Opacity < 0 || *u.Opacity > 1 {
				return apperr.ValidationFailed("opacity must be between 0 and 1")
			}
			p.Opacity = *u.Opacity
		}
		if u.ZOrder != nil {
			p.ZOrder = *u.ZOrder
		}
		if u.AssetID != nil {
			p.AssetID = *u.AssetID
		}
		return nil

	case u.TextIndex != nil:
		i := *u.TextIndex
		if i < 0 || i >= len(v.Texts) {
			return apperr.ValidationFailed("text index out of range").WithDetail("index", i)
		}
		t := &v.Texts[i]
		if u.Frame != nil {
			t.Frame = *u.Frame
		}
		if u.Content != nil {
			t.Content = *u.Content
		}
		if u.FontSize != nil {
			if *u.FontSize <= 0 {
				return apperr.ValidationFailed("font size must be positive")
			}
			t.FontSize = *u.FontSize
		}
		if u.Color != nil {
			t.Color = *u.Color
		}
		if u.ZOrder != nil {
			t.ZOrder = *u.ZOrder
		}
		return nil

	default:
		return apperr.ValidationFailed("element update addresses no slot")
	}
}

// recolorTexts re-derives copy colors from the current scheme, keeping the
// white-on-darkened-backdrop rule.
func recolorTexts(v *domain.LayoutVariation) {
	color := v.Scheme.Text
	if len(v.Images) > 0 && v.Images[0].Filter == "darken" {
		color = "#ffffff"
	}
	for i := range v.Texts {
		if v.Texts[i].Role == domain.TextRoleCTA {
			v.Texts[i].Color = v.Scheme.Accent
			continue
		}
		v.Texts[i].Color = color
	}
}
