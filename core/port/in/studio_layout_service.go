package in

import (
	"context"

	"studio_server/core/domain"
)

// LayoutService defines the interface for layout generation and editing
type LayoutService interface {
	// === Generation ===
	GenerateLayouts(ctx context.Context, userID string, req *domain.LayoutGenerationRequest) (*LayoutGenerationResponse, error)

	// === Editing ===
	// Edits mark the layout dirty without rescoring; Recompute refreshes
	// prediction and compliance on demand.
	UpdateLayout(ctx context.Context, userID, layoutID string, req *domain.UpdateLayoutRequest) (*domain.LayoutVariation, error)
	ApplyColorScheme(ctx context.Context, userID, layoutID string, scheme domain.ColorSchemeKind) (*domain.LayoutVariation, error)
	ReassignAssets(ctx context.Context, userID, layoutID string, assetIDs []string) (*domain.LayoutVariation, error)
	Recompute(ctx context.Context, userID, layoutID string) (*domain.LayoutVariation, error)

	// === Queries ===
	GetLayout(ctx context.Context, userID, layoutID string) (*domain.LayoutVariation, error)
	ListLayouts(ctx context.Context, userID string, limit, offset int) (*LayoutListResponse, error)
	DeleteLayout(ctx context.Context, userID, layoutID string) error
}

// VisionService analyzes assets against a creative territory. palette is
// the brand color palette; hue proximity to it feeds the match score and
// may be empty when no guidelines are in scope.
type VisionService interface {
	Analyze(ctx context.Context, assets []*domain.Asset, territory *domain.Territory, palette []string) (*domain.VisualIntelligence, error)
}

// ComplianceService scores a layout against brand guidelines
type ComplianceService interface {
	Score(ctx context.Context, layout *domain.LayoutVariation, guidelines *domain.BrandGuidelines) (*domain.ComplianceScore, error)
}

// =============================================================================
// Request/Response Types
// =============================================================================

type LayoutGenerationResponse struct {
	Layouts  []*domain.LayoutVariation  `json:"layouts"`
	Analysis *domain.VisualIntelligence `json:"analysis,omitempty"`
}

type LayoutListResponse struct {
	Layouts []*domain.LayoutVariation `json:"layouts"`
	Total   int                       `json:"total"`
}
