// Package out defines outbound ports (driven ports) for the application.
// These interfaces represent dependencies that the application needs.
package out

import (
	"context"

	"studio_server/core/domain"
)

// =============================================================================
// Asset Repository (PostgreSQL)
// =============================================================================

// AssetRepository defines the outbound port for asset persistence.
type AssetRepository interface {
	// CRUD operations
	Create(ctx context.Context, asset *domain.Asset) error
	Update(ctx context.Context, asset *domain.Asset) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Asset, error)

	// Query operations
	List(ctx context.Context, userID string, filter *domain.AssetFilter) ([]*domain.Asset, int, error)
	ListByCollection(ctx context.Context, userID, collectionID string, limit, offset int) ([]*domain.Asset, int, error)
	ListByGenerationBatch(ctx context.Context, batchID string) ([]*domain.Asset, error)

	// Partial updates
	UpdateStatus(ctx context.Context, id string, status domain.AssetStatus) error
	UpdateTags(ctx context.Context, id string, tags []string) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	AddToCollection(ctx context.Context, assetID, collectionID string) error
	RemoveFromCollection(ctx context.Context, assetID, collectionID string) error

	// Statistics
	CountByKind(ctx context.Context, userID string) (map[domain.AssetKind]int, error)
}

// CollectionRepository defines the port for asset collection persistence.
type CollectionRepository interface {
	Create(ctx context.Context, collection *domain.Collection) error
	Update(ctx context.Context, collection *domain.Collection) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Collection, error)
	List(ctx context.Context, userID string) ([]*domain.Collection, error)
}

// BrandGuidelinesRepository defines the port for brand guidelines persistence.
type BrandGuidelinesRepository interface {
	Create(ctx context.Context, guidelines *domain.BrandGuidelines) error
	Update(ctx context.Context, guidelines *domain.BrandGuidelines) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.BrandGuidelines, error)
	GetDefault(ctx context.Context, userID string) (*domain.BrandGuidelines, error)
	List(ctx context.Context, userID string) ([]*domain.BrandGuidelines, error)
	SetDefault(ctx context.Context, userID, id string) error
}
