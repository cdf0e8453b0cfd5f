// Package in defines inbound ports (driving ports) for the application.
package in

import (
	"context"

	"studio_server/core/domain"
)

// AssetService defines the interface for asset library operations
type AssetService interface {
	// === Asset CRUD ===
	GetAsset(ctx context.Context, userID, assetID string) (*domain.Asset, error)
	ListAssets(ctx context.Context, userID string, filter *domain.AssetFilter) (*AssetListResponse, error)
	CreateAsset(ctx context.Context, userID string, req *CreateAssetRequest) (*domain.Asset, error)
	UpdateAsset(ctx context.Context, userID, assetID string, req *domain.UpdateAssetRequest) (*domain.Asset, error)
	DeleteAsset(ctx context.Context, userID, assetID string) error

	// === Organization ===
	SetFavorite(ctx context.Context, userID, assetID string, favorite bool) (*domain.Asset, error)
	UpdateTags(ctx context.Context, userID, assetID string, tags []string) (*domain.Asset, error)
	AddToCollection(ctx context.Context, userID, assetID, collectionID string) error
	RemoveFromCollection(ctx context.Context, userID, assetID, collectionID string) error

	// === Collections ===
	GetCollection(ctx context.Context, userID, collectionID string) (*domain.Collection, error)
	ListCollections(ctx context.Context, userID string) ([]*domain.Collection, error)
	CreateCollection(ctx context.Context, userID string, req *CreateCollectionRequest) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, userID, collectionID string) error

	// === Stats ===
	GetStats(ctx context.Context, userID string) (*AssetStats, error)
}

// =============================================================================
// Request/Response Types
// =============================================================================

type AssetListResponse struct {
	Assets []*domain.Asset `json:"assets"`
	Total  int             `json:"total"`
}

type CreateAssetRequest struct {
	Kind           domain.AssetKind   `json:"kind" validate:"required"`
	Name           string             `json:"name" validate:"required,max=255"`
	URL            string             `json:"url" validate:"required"`
	ThumbnailURL   string             `json:"thumbnail_url,omitempty"`
	Width          int                `json:"width,omitempty"`
	Height         int                `json:"height,omitempty"`
	Duration       float64            `json:"duration,omitempty"`
	FileSize       int64              `json:"file_size,omitempty"`
	MimeType       string             `json:"mime_type,omitempty"`
	Tags           []string           `json:"tags,omitempty"`
	DominantColors []string           `json:"dominant_colors,omitempty"`
	StyleTag       string             `json:"style_tag,omitempty"`
	Source         domain.AssetSource `json:"source,omitempty"`
}

type CreateCollectionRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
}

type AssetStats struct {
	Total      int                      `json:"total"`
	ByKind     map[domain.AssetKind]int `json:"by_kind"`
	Favorites  int                      `json:"favorites"`
	Generated  int                      `json:"generated"`
	Collection int                      `json:"collections"`
}
