package brand

import (
	"context"
	"strings"
	"time"

	"studio_server/core/domain"
	"studio_server/core/port/out"
	"studio_server/pkg/apperr"
	"studio_server/pkg/logger"
	"studio_server/pkg/snowflake"
)

// Service implements brand guidelines management. Guidelines are snapshotted
// into generation requests, so edits here never touch in-flight work.
type Service struct {
	repo out.BrandGuidelinesRepository
	log  *logger.Logger
}

// NewService creates the brand service.
func NewService(repo out.BrandGuidelinesRepository) *Service {
	return &Service{
		repo: repo,
		log:  logger.Default().WithField("component", "brand_service"),
	}
}

// GetGuidelines returns one guidelines document owned by the user.
func (s *Service) GetGuidelines(ctx context.Context, userID, id string) (*domain.BrandGuidelines, error) {
	return s.getOwned(ctx, userID, id)
}

// GetDefaultGuidelines returns the user's default document, or an empty
// one when none is configured.
func (s *Service) GetDefaultGuidelines(ctx context.Context, userID string) (*domain.BrandGuidelines, error) {
	g, err := s.repo.GetDefault(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("get default guidelines", err)
	}
	if g == nil {
		return &domain.BrandGuidelines{UserID: userID}, nil
	}
	return g, nil
}

// ListGuidelines returns all guidelines documents of the user.
func (s *Service) ListGuidelines(ctx context.Context, userID string) ([]*domain.BrandGuidelines, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("list guidelines", err)
	}
	return list, nil
}

// CreateGuidelines creates a named guidelines document. The first document
// a user creates becomes their default automatically.
func (s *Service) CreateGuidelines(ctx context.Context, userID string, req *domain.CreateBrandGuidelinesRequest) (*domain.BrandGuidelines, error) {
	if req == nil || req.Name == "" {
		return nil, apperr.MissingField("name")
	}
	if err := validateColors(&req.Colors); err != nil {
		return nil, err
	}

	existing, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("list guidelines", err)
	}

	now := time.Now().UTC()
	g := &domain.BrandGuidelines{
		ID:        snowflake.BrandID(),
		UserID:    userID,
		Name:      req.Name,
		IsDefault: req.IsDefault || len(existing) == 0,
		Colors:    req.Colors,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Fonts != nil {
		g.Fonts = *req.Fonts
	}
	if req.Logo != nil {
		g.Logo = *req.Logo
	}
	if req.Spacing != nil {
		g.Spacing = *req.Spacing
	}
	if req.Legal != nil {
		g.Legal = *req.Legal
	}
	if req.Style != nil {
		g.Style = *req.Style
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, apperr.DatabaseError("create guidelines", err)
	}
	if g.IsDefault {
		if err := s.repo.SetDefault(ctx, userID, g.ID); err != nil {
			s.log.WithError(err).WithField("guidelines_id", g.ID).Warn("set default failed after create")
		}
	}

	s.log.WithFields(map[string]any{"user_id": userID, "guidelines_id": g.ID}).Info("brand guidelines created")
	return g, nil
}

// UpdateGuidelines applies a partial edit to an owned document.
func (s *Service) UpdateGuidelines(ctx context.Context, userID, id string, req *domain.UpdateBrandGuidelinesRequest) (*domain.BrandGuidelines, error) {
	if req == nil {
		return nil, apperr.BadRequest("request body is required")
	}

	g, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperr.ValidationFailed("name cannot be empty")
		}
		g.Name = *req.Name
	}
	if req.Colors != nil {
		if err := validateColors(req.Colors); err != nil {
			return nil, err
		}
		g.Colors = *req.Colors
	}
	if req.Fonts != nil {
		g.Fonts = *req.Fonts
	}
	if req.Logo != nil {
		g.Logo = *req.Logo
	}
	if req.Spacing != nil {
		g.Spacing = *req.Spacing
	}
	if req.Legal != nil {
		g.Legal = *req.Legal
	}
	if req.Style != nil {
		g.Style = *req.Style
	}
	g.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, apperr.DatabaseError("update guidelines", err)
	}

	if req.IsDefault != nil && *req.IsDefault && !g.IsDefault {
		if err := s.repo.SetDefault(ctx, userID, g.ID); err != nil {
			return nil, apperr.DatabaseError("set default guidelines", err)
		}
		g.IsDefault = true
	}
	return g, nil
}

// DeleteGuidelines removes an owned document. The default document cannot
// be deleted while other documents exist.
func (s *Service) DeleteGuidelines(ctx context.Context, userID, id string) error {
	g, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if g.IsDefault {
		list, err := s.repo.List(ctx, userID)
		if err != nil {
			return apperr.DatabaseError("list guidelines", err)
		}
		if len(list) > 1 {
			return apperr.Conflict("reassign the default before deleting it")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.DatabaseError("delete guidelines", err)
	}
	return nil
}

// SetDefaultGuidelines marks an owned document as the user's default.
func (s *Service) SetDefaultGuidelines(ctx context.Context, userID, id string) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.SetDefault(ctx, userID, id); err != nil {
		return apperr.DatabaseError("set default guidelines", err)
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, userID, id string) (*domain.BrandGuidelines, error) {
	if id == "" {
		return nil, apperr.MissingField("guidelines_id")
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.DatabaseError("get guidelines", err)
	}
	if g == nil || g.UserID != userID {
		return nil, apperr.NotFound("brand guidelines")
	}
	return g, nil
}

// validateColors rejects malformed hex strings early so scoring never sees
// them.
func validateColors(c *domain.BrandColors) error {
	check := func(field, hex string) error {
		if hex == "" {
			return nil
		}
		if !validHex(hex) {
			return apperr.ValidationFailed("invalid hex color").WithDetail(field, hex)
		}
		return nil
	}

	if err := check("primary", c.Primary); err != nil {
		return err
	}
	if err := check("secondary", c.Secondary); err != nil {
		return err
	}
	if err := check("accent", c.Accent); err != nil {
		return err
	}
	for _, n := range c.Neutral {
		if err := check("neutral", n); err != nil {
			return err
		}
	}
	return nil
}

func validHex(hex string) bool {
	if !strings.HasPrefix(hex, "#") {
		return false
	}
	digits := hex[1:]
	if len(digits) != 3 && len(digits) != 6 {
		return false
	}
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		ok := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !ok {
			return false
		}
	}
	return true
}
