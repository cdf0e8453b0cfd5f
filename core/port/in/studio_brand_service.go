package in

import (
	"context"

	"studio_server/core/domain"
)

// BrandService defines the interface for brand guidelines management
type BrandService interface {
	GetGuidelines(ctx context.Context, userID, id string) (*domain.BrandGuidelines, error)
	GetDefaultGuidelines(ctx context.Context, userID string) (*domain.BrandGuidelines, error)
	ListGuidelines(ctx context.Context, userID string) ([]*domain.BrandGuidelines, error)
	CreateGuidelines(ctx context.Context, userID string, req *domain.CreateBrandGuidelinesRequest) (*domain.BrandGuidelines, error)
	UpdateGuidelines(ctx context.Context, userID, id string, req *domain.UpdateBrandGuidelinesRequest) (*domain.BrandGuidelines, error)
	DeleteGuidelines(ctx context.Context, userID, id string) error
	SetDefaultGuidelines(ctx context.Context, userID, id string) error
}
