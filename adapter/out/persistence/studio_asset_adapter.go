// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"studio_server/core/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// AssetAdapter implements out.AssetRepository using PostgreSQL.
type AssetAdapter struct {
	db *sqlx.DB
}

// NewAssetAdapter creates a new AssetAdapter.
func NewAssetAdapter(db *sqlx.DB) *AssetAdapter {
	return &AssetAdapter{db: db}
}

// assetRow represents the database row for assets.
type assetRow struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	Kind              string         `db:"kind"`
	Name              string         `db:"name"`
	Status            string         `db:"status"`
	URL               sql.NullString `db:"url"`
	ThumbnailURL      sql.NullString `db:"thumbnail_url"`
	Width             int            `db:"width"`
	Height            int            `db:"height"`
	Duration          float64        `db:"duration"`
	FileSize          int64          `db:"file_size"`
	MimeType          sql.NullString `db:"mime_type"`
	Tags              pq.StringArray `db:"tags"`
	Collections       pq.StringArray `db:"collections"`
	IsFavorite        bool           `db:"is_favorite"`
	DominantColors    pq.StringArray `db:"dominant_colors"`
	StyleTag          sql.NullString `db:"style_tag"`
	Source            string         `db:"source"`
	GenerationID      sql.NullString `db:"generation_id"`
	GenerationBatchID sql.NullString `db:"generation_batch_id"`
	OriginalPrompt    sql.NullString `db:"original_prompt"`
	OptimizedPrompt   sql.NullString `db:"optimized_prompt"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r *assetRow) toEntity() *domain.Asset {
	return &domain.Asset{
		ID:                r.ID,
		UserID:            r.UserID,
		Kind:              domain.AssetKind(r.Kind),
		Name:              r.Name,
		Status:            domain.AssetStatus(r.Status),
		URL:               r.URL.String,
		ThumbnailURL:      r.ThumbnailURL.String,
		Width:             r.Width,
		Height:            r.Height,
		Duration:          r.Duration,
		FileSize:          r.FileSize,
		MimeType:          r.MimeType.String,
		Tags:              r.Tags,
		Collections:       r.Collections,
		IsFavorite:        r.IsFavorite,
		DominantColors:    r.DominantColors,
		StyleTag:          r.StyleTag.String,
		Source:            domain.AssetSource(r.Source),
		GenerationID:      r.GenerationID.String,
		GenerationBatchID: r.GenerationBatchID.String,
		OriginalPrompt:    r.OriginalPrompt.String,
		OptimizedPrompt:   r.OptimizedPrompt.String,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func fromEntity(a *domain.Asset) map[string]any {
	return map[string]any{
		"id":                  a.ID,
		"user_id":             a.UserID,
		"kind":                string(a.Kind),
		"name":                a.Name,
		"status":              string(a.Status),
		"url":                 nullString(a.URL),
		"thumbnail_url":       nullString(a.ThumbnailURL),
		"width":               a.Width,
		"height":              a.Height,
		"duration":            a.Duration,
		"file_size":           a.FileSize,
		"mime_type":           nullString(a.MimeType),
		"tags":                pq.StringArray(a.Tags),
		"collections":         pq.StringArray(a.Collections),
		"is_favorite":         a.IsFavorite,
		"dominant_colors":     pq.StringArray(a.DominantColors),
		"style_tag":           nullString(a.StyleTag),
		"source":              string(a.Source),
		"generation_id":       nullString(a.GenerationID),
		"generation_batch_id": nullString(a.GenerationBatchID),
		"original_prompt":     nullString(a.OriginalPrompt),
		"optimized_prompt":    nullString(a.OptimizedPrompt),
		"created_at":          a.CreatedAt,
		"updated_at":          a.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new asset.
func (a *AssetAdapter) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (
			id, user_id, kind, name, status, url, thumbnail_url,
			width, height, duration, file_size, mime_type,
			tags, collections, is_favorite, dominant_colors, style_tag,
			source, generation_id, generation_batch_id,
			original_prompt, optimized_prompt, created_at, updated_at
		) VALUES (
			:id, :user_id, :kind, :name, :status, :url, :thumbnail_url,
			:width, :height, :duration, :file_size, :mime_type,
			:tags, :collections, :is_favorite, :dominant_colors, :style_tag,
			:source, :generation_id, :generation_batch_id,
			:original_prompt, :optimized_prompt, :created_at, :updated_at
		)`

	if _, err := a.db.NamedExecContext(ctx, query, fromEntity(asset)); err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// Update replaces all mutable columns of an asset.
func (a *AssetAdapter) Update(ctx context.Context, asset *domain.Asset) error {
	query := `
		UPDATE assets SET
			name = :name, status = :status, url = :url,
			thumbnail_url = :thumbnail_url, mime_type = :mime_type,
			tags = :tags, collections = :collections,
			is_favorite = :is_favorite, dominant_colors = :dominant_colors,
			style_tag = :style_tag, updated_at = :updated_at
		WHERE id = :id`

	result, err := a.db.NamedExecContext(ctx, query, fromEntity(asset))
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an asset.
func (a *AssetAdapter) Delete(ctx context.Context, id string) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// GetByID retrieves an asset, nil when absent.
func (a *AssetAdapter) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	var row assetRow
	if err := a.db.GetContext(ctx, &row, `SELECT * FROM assets WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDs retrieves several assets keyed by id. Missing ids are simply
// absent from the result.
func (a *AssetAdapter) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Asset, error) {
	out := make(map[string]*domain.Asset, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM assets WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build asset query: %w", err)
	}
	query = a.db.Rebind(query)

	var rows []assetRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}

	for i := range rows {
		asset := rows[i].toEntity()
		out[asset.ID] = asset
	}
	return out, nil
}

// List retrieves a filtered page of a user's assets plus the unpaged total.
func (a *AssetAdapter) List(ctx context.Context, userID string, filter *domain.AssetFilter) ([]*domain.Asset, int, error) {
	if filter == nil {
		filter = &domain.AssetFilter{}
	}

	where := []string{"user_id = $1"}
	args := []any{userID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Kind != "" {
		where = append(where, "kind = "+arg(string(filter.Kind)))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.Source != "" {
		where = append(where, "source = "+arg(string(filter.Source)))
	}
	if len(filter.Tags) > 0 {
		where = append(where, "tags @> "+arg(pq.StringArray(filter.Tags)))
	}
	if filter.Collection != "" {
		where = append(where, arg(filter.Collection)+" = ANY(collections)")
	}
	if filter.Favorite != nil {
		where = append(where, "is_favorite = "+arg(*filter.Favorite))
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		p := arg(pattern)
		where = append(where, fmt.Sprintf(
			"(LOWER(name) LIKE %s OR LOWER(COALESCE(original_prompt, '')) LIKE %s OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE LOWER(t) LIKE %s))",
			p, p, p))
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM assets WHERE " + clause
	if err := a.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count assets: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(
		"SELECT * FROM assets WHERE %s ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s",
		clause, arg(limit), arg(offset))

	var rows []assetRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list assets: %w", err)
	}

	assets := make([]*domain.Asset, len(rows))
	for i := range rows {
		assets[i] = rows[i].toEntity()
	}
	return assets, total, nil
}

// ListByCollection retrieves a page of a user's assets in one collection.
func (a *AssetAdapter) ListByCollection(ctx context.Context, userID, collectionID string, limit, offset int) ([]*domain.Asset, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM assets WHERE user_id = $1 AND $2 = ANY(collections)`
	if err := a.db.GetContext(ctx, &total, countQuery, userID, collectionID); err != nil {
		return nil, 0, fmt.Errorf("failed to count collection assets: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT * FROM assets
		WHERE user_id = $1 AND $2 = ANY(collections)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	var rows []assetRow
	if err := a.db.SelectContext(ctx, &rows, query, userID, collectionID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list collection assets: %w", err)
	}

	assets := make([]*domain.Asset, len(rows))
	for i := range rows {
		assets[i] = rows[i].toEntity()
	}
	return assets, total, nil
}

// ListByGenerationBatch retrieves every asset a batch produced.
func (a *AssetAdapter) ListByGenerationBatch(ctx context.Context, batchID string) ([]*domain.Asset, error) {
	var rows []assetRow
	query := `SELECT * FROM assets WHERE generation_batch_id = $1 ORDER BY created_at ASC`
	if err := a.db.SelectContext(ctx, &rows, query, batchID); err != nil {
		return nil, fmt.Errorf("failed to list batch assets: %w", err)
	}

	assets := make([]*domain.Asset, len(rows))
	for i := range rows {
		assets[i] = rows[i].toEntity()
	}
	return assets, nil
}

// UpdateStatus sets the lifecycle status of an asset.
func (a *AssetAdapter) UpdateStatus(ctx context.Context, id string, status domain.AssetStatus) error {
	query := `UPDATE assets SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := a.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update asset status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTags replaces the tag array of an asset.
func (a *AssetAdapter) UpdateTags(ctx context.Context, id string, tags []string) error {
	query := `UPDATE assets SET tags = $2, updated_at = NOW() WHERE id = $1`
	result, err := a.db.ExecContext(ctx, query, id, pq.StringArray(tags))
	if err != nil {
		return fmt.Errorf("failed to update asset tags: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFavorite flips the favorite flag of an asset.
func (a *AssetAdapter) SetFavorite(ctx context.Context, id string, favorite bool) error {
	query := `UPDATE assets SET is_favorite = $2, updated_at = NOW() WHERE id = $1`
	result, err := a.db.ExecContext(ctx, query, id, favorite)
	if err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToCollection appends a collection id to an asset, idempotently.
func (a *AssetAdapter) AddToCollection(ctx context.Context, assetID, collectionID string) error {
	query := `
		UPDATE assets
		SET collections = array_append(collections, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(collections))`
	if _, err := a.db.ExecContext(ctx, query, assetID, collectionID); err != nil {
		return fmt.Errorf("failed to add asset to collection: %w", err)
	}
	return nil
}

// RemoveFromCollection removes a collection id from an asset.
func (a *AssetAdapter) RemoveFromCollection(ctx context.Context, assetID, collectionID string) error {
	query := `
		UPDATE assets
		SET collections = array_remove(collections, $2), updated_at = NOW()
		WHERE id = $1`
	if _, err := a.db.ExecContext(ctx, query, assetID, collectionID); err != nil {
		return fmt.Errorf("failed to remove asset from collection: %w", err)
	}
	return nil
}

// CountByKind tallies a user's assets per media kind.
func (a *AssetAdapter) CountByKind(ctx context.Context, userID string) (map[domain.AssetKind]int, error) {
	var rows []struct {
		Kind  string `db:"kind"`
		Count int    `db:"count"`
	}
	query := `SELECT kind, COUNT(*) AS count FROM assets WHERE user_id = $1 GROUP BY kind`
	if err := a.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to count assets: %w", err)
	}

	counts := make(map[domain.AssetKind]int, len(rows))
	for _, r := range rows {
		counts[domain.AssetKind(r.Kind)] = r.Count
	}
	return counts, nil
}
