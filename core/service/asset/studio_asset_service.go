package asset

import (
	"context"
	"strings"
	"time"

	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/core/port/out"
	"studio_server/pkg/apperr"
	"studio_server/pkg/logger"
	"studio_server/pkg/snowflake"
)

const (
	maxTagsPerAsset = 30
	maxTagLength    = 64
	statsCacheTTL   = 2 * time.Minute
)

// Service implements the asset library use cases over the relational
// repository, with redis caching for the stats endpoint.
type Service struct {
	assets      out.AssetRepository
	collections out.CollectionRepository
	cache       out.Cache
	log         *logger.Logger
}

// NewService creates the asset service. cache may be nil in tests.
func NewService(assets out.AssetRepository, collections out.CollectionRepository, cache out.Cache) *Service {
	return &Service{
		assets:      assets,
		collections: collections,
		cache:       cache,
		log:         logger.Default().WithField("component", "asset_service"),
	}
}

// =============================================================================
// Asset CRUD
// =============================================================================

// GetAsset returns one asset owned by the user.
func (s *Service) GetAsset(ctx context.Context, userID, assetID string) (*domain.Asset, error) {
	return s.getOwned(ctx, userID, assetID)
}

// ListAssets pages through the user's library under a filter.
func (s *Service) ListAssets(ctx context.Context, userID string, filter *domain.AssetFilter) (*in.AssetListResponse, error) {
	if filter == nil {
		filter = &domain.AssetFilter{}
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	assets, total, err := s.assets.List(ctx, userID, filter)
	if err != nil {
		return nil, apperr.DatabaseError("list assets", err)
	}
	return &in.AssetListResponse{Assets: assets, Total: total}, nil
}

// CreateAsset registers an externally hosted media item in the library.
func (s *Service) CreateAsset(ctx context.Context, userID string, req *in.CreateAssetRequest) (*domain.Asset, error) {
	if req == nil {
		return nil, apperr.BadRequest("request body is required")
	}
	if req.Name == "" {
		return nil, apperr.MissingField("name")
	}
	if req.URL == "" {
		return nil, apperr.MissingField("url")
	}
	switch req.Kind {
	case domain.AssetKindImage, domain.AssetKindVideo, domain.AssetKindAudio, domain.AssetKindDocument:
	default:
		return nil, apperr.ValidationFailed("unknown asset kind: " + string(req.Kind))
	}

	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = domain.AssetSourceUploaded
	}

	now := time.Now().UTC()
	asset := &domain.Asset{
		ID:             snowflake.AssetID(),
		UserID:         userID,
		Kind:           req.Kind,
		Name:           req.Name,
		Status:         domain.AssetStatusReady,
		URL:            req.URL,
		ThumbnailURL:   req.ThumbnailURL,
		Width:          req.Width,
		Height:         req.Height,
		Duration:       req.Duration,
		FileSize:       req.FileSize,
		MimeType:       req.MimeType,
		Tags:           tags,
		DominantColors: req.DominantColors,
		StyleTag:       req.StyleTag,
		Source:         source,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, apperr.DatabaseError("create asset", err)
	}
	s.invalidateStats(ctx, userID)

	s.log.WithFields(map[string]any{
		"user_id":  userID,
		"asset_id": asset.ID,
		"kind":     asset.Kind,
	}).Info("asset created")
	return asset, nil
}

// UpdateAsset applies a partial edit to an owned asset.
func (s *Service) UpdateAsset(ctx context.Context, userID, assetID string, req *domain.UpdateAssetRequest) (*domain.Asset, error) {
	if req == nil {
		return nil, apperr.BadRequest("request body is required")
	}

	asset, err := s.getOwned(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperr.ValidationFailed("name cannot be empty")
		}
		asset.Name = *req.Name
	}
	if req.Tags != nil {
		tags, err := normalizeTags(*req.Tags)
		if err != nil {
			return nil, err
		}
		asset.Tags = tags
	}
	if req.Collections != nil {
		asset.Collections = *req.Collections
	}
	if req.IsFavorite != nil {
		asset.IsFavorite = *req.IsFavorite
	}
	if req.StyleTag != nil {
		asset.StyleTag = *req.StyleTag
	}
	asset.UpdatedAt = time.Now().UTC()

	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, apperr.DatabaseError("update asset", err)
	}
	s.invalidateStats(ctx, userID)
	return asset, nil
}

// DeleteAsset removes an owned asset from the library. The stored media
// object itself is not touched.
func (s *Service) DeleteAsset(ctx context.Context, userID, assetID string) error {
	if _, err := s.getOwned(ctx, userID, assetID); err != nil {
		return err
	}
	if err := s.assets.Delete(ctx, assetID); err != nil {
		return apperr.DatabaseError("delete asset", err)
	}
	s.invalidateStats(ctx, userID)

	s.log.WithFields(map[string]any{"user_id": userID, "asset_id": assetID}).Info("asset deleted")
	return nil
}

// =============================================================================
// Organization
// =============================================================================

// SetFavorite flips the favorite flag on an owned asset.
func (s *Service) SetFavorite(ctx context.Context, userID, assetID string, favorite bool) (*domain.Asset, error) {
	asset, err := s.getOwned(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}
	if asset.IsFavorite == favorite {
		return asset, nil
	}

	if err := s.assets.SetFavorite(ctx, assetID, favorite); err != nil {
		return nil, apperr.DatabaseError("set favorite", err)
	}
	asset.IsFavorite = favorite
	s.invalidateStats(ctx, userID)
	return asset, nil
}

// UpdateTags replaces the tag set on an owned asset.
func (s *Service) UpdateTags(ctx context.Context, userID, assetID string, tags []string) (*domain.Asset, error) {
	asset, err := s.getOwned(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}

	normalized, err := normalizeTags(tags)
	if err != nil {
		return nil, err
	}

	if err := s.assets.UpdateTags(ctx, assetID, normalized); err != nil {
		return nil, apperr.DatabaseError("update tags", err)
	}
	asset.Tags = normalized
	return asset, nil
}

// AddToCollection links an owned asset to an owned collection.
func (s *Service) AddToCollection(ctx context.Context, userID, assetID, collectionID string) error {
	if _, err := s.getOwned(ctx, userID, assetID); err != nil {
		return err
	}
	if _, err := s.getOwnedCollection(ctx, userID, collectionID); err != nil {
		return err
	}
	if err := s.assets.AddToCollection(ctx, assetID, collectionID); err != nil {
		return apperr.DatabaseError("add to collection", err)
	}
	return nil
}

// RemoveFromCollection unlinks an owned asset from a collection.
func (s *Service) RemoveFromCollection(ctx context.Context, userID, assetID, collectionID string) error {
	if _, err := s.getOwned(ctx, userID, assetID); err != nil {
		return err
	}
	if err := s.assets.RemoveFromCollection(ctx, assetID, collectionID); err != nil {
		return apperr.DatabaseError("remove from collection", err)
	}
	return nil
}

// =============================================================================
// Collections
// =============================================================================

// GetCollection returns one collection owned by the user.
func (s *Service) GetCollection(ctx context.Context, userID, collectionID string) (*domain.Collection, error) {
	return s.getOwnedCollection(ctx, userID, collectionID)
}

// ListCollections returns all of the user's collections.
func (s *Service) ListCollections(ctx context.Context, userID string) ([]*domain.Collection, error) {
	collections, err := s.collections.List(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("list collections", err)
	}
	return collections, nil
}

// CreateCollection creates an empty named collection.
func (s *Service) CreateCollection(ctx context.Context, userID string, req *in.CreateCollectionRequest) (*domain.Collection, error) {
	if req == nil || req.Name == "" {
		return nil, apperr.MissingField("name")
	}

	collection := &domain.Collection{
		ID:          snowflake.CollectionID(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.collections.Create(ctx, collection); err != nil {
		return nil, apperr.DatabaseError("create collection", err)
	}
	s.invalidateStats(ctx, userID)
	return collection, nil
}

// DeleteCollection removes an owned collection. Member assets stay in the
// library.
func (s *Service) DeleteCollection(ctx context.Context, userID, collectionID string) error {
	if _, err := s.getOwnedCollection(ctx, userID, collectionID); err != nil {
		return err
	}
	if err := s.collections.Delete(ctx, collectionID); err != nil {
		return apperr.DatabaseError("delete collection", err)
	}
	s.invalidateStats(ctx, userID)
	return nil
}

// =============================================================================
// Stats
// =============================================================================

// GetStats summarizes the user's library. Served from cache when fresh.
func (s *Service) GetStats(ctx context.Context, userID string) (*in.AssetStats, error) {
	key := statsCacheKey(userID)
	if s.cache != nil {
		var cached in.AssetStats
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	byKind, err := s.assets.CountByKind(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("count assets", err)
	}

	total := 0
	for _, n := range byKind {
		total += n
	}

	favorites, err := s.countMatching(ctx, userID, &domain.AssetFilter{Favorite: boolPtr(true)})
	if err != nil {
		return nil, err
	}
	generated, err := s.countMatching(ctx, userID, &domain.AssetFilter{Source: domain.AssetSourceAIGenerated})
	if err != nil {
		return nil, err
	}

	collections, err := s.collections.List(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("list collections", err)
	}

	stats := &in.AssetStats{
		Total:      total,
		ByKind:     byKind,
		Favorites:  favorites,
		Generated:  generated,
		Collection: len(collections),
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, stats, statsCacheTTL); err != nil {
			s.log.WithError(err).Debug("stats cache write failed")
		}
	}
	return stats, nil
}

// =============================================================================
// Internals
// =============================================================================

func (s *Service) getOwned(ctx context.Context, userID, assetID string) (*domain.Asset, error) {
	if assetID == "" {
		return nil, apperr.MissingField("asset_id")
	}
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, apperr.DatabaseError("get asset", err)
	}
	if asset == nil || asset.UserID != userID {
		return nil, apperr.NotFound("asset")
	}
	return asset, nil
}

func (s *Service) getOwnedCollection(ctx context.Context, userID, collectionID string) (*domain.Collection, error) {
	if collectionID == "" {
		return nil, apperr.MissingField("collection_id")
	}
	collection, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, apperr.DatabaseError("get collection", err)
	}
	if collection == nil || collection.UserID != userID {
		return nil, apperr.NotFound("collection")
	}
	return collection, nil
}

// countMatching abuses the list total for cheap filtered counts.
func (s *Service) countMatching(ctx context.Context, userID string, filter *domain.AssetFilter) (int, error) {
	filter.Limit = 1
	_, total, err := s.assets.List(ctx, userID, filter)
	if err != nil {
		return 0, apperr.DatabaseError("count assets", err)
	}
	return total, nil
}

func (s *Service) invalidateStats(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey(userID)); err != nil {
		s.log.WithError(err).Debug("stats cache invalidation failed")
	}
}

func statsCacheKey(userID string) string {
	return "studio:stats:" + userID
}

// normalizeTags lowercases, trims and dedups tags, enforcing count and
// length limits.
func normalizeTags(tags []string) ([]string, error) {
	if len(tags) > maxTagsPerAsset {
		return nil, apperr.ValidationFailed("too many tags").WithDetail("max", maxTagsPerAsset)
	}

	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		if len(t) > maxTagLength {
			return nil, apperr.ValidationFailed("tag too long").WithDetail("tag", tag)
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

func boolPtr(b bool) *bool { return &b }
