package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studio_server/core/domain"

	"github.com/jmoiron/sqlx"
)

// CollectionAdapter implements out.CollectionRepository using PostgreSQL.
type CollectionAdapter struct {
	db *sqlx.DB
}

// NewCollectionAdapter creates a new CollectionAdapter.
func NewCollectionAdapter(db *sqlx.DB) *CollectionAdapter {
	return &CollectionAdapter{db: db}
}

type collectionRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r *collectionRow) toEntity() *domain.Collection {
	return &domain.Collection{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description.String,
		CreatedAt:   r.CreatedAt,
	}
}

// Create inserts a new collection.
func (a *CollectionAdapter) Create(ctx context.Context, c *domain.Collection) error {
	query := `
		INSERT INTO asset_collections (id, user_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := a.db.ExecContext(ctx, query, c.ID, c.UserID, c.Name, nullString(c.Description), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Update renames a collection.
func (a *CollectionAdapter) Update(ctx context.Context, c *domain.Collection) error {
	query := `UPDATE asset_collections SET name = $2, description = $3 WHERE id = $1`
	result, err := a.db.ExecContext(ctx, query, c.ID, c.Name, nullString(c.Description))
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a collection and detaches its members.
func (a *CollectionAdapter) Delete(ctx context.Context, id string) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE assets SET collections = array_remove(collections, $1) WHERE $1 = ANY(collections)`, id); err != nil {
		return fmt.Errorf("failed to detach collection members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM asset_collections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection delete: %w", err)
	}
	return nil
}

// GetByID retrieves a collection, nil when absent.
func (a *CollectionAdapter) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	var row collectionRow
	if err := a.db.GetContext(ctx, &row, `SELECT * FROM asset_collections WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return row.toEntity(), nil
}

// List retrieves all collections of a user, newest first.
func (a *CollectionAdapter) List(ctx context.Context, userID string) ([]*domain.Collection, error) {
	var rows []collectionRow
	query := `SELECT * FROM asset_collections WHERE user_id = $1 ORDER BY created_at DESC`
	if err := a.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	collections := make([]*domain.Collection, len(rows))
	for i := range rows {
		collections[i] = rows[i].toEntity()
	}
	return collections, nil
}
