package out

import (
	"context"

	"studio_server/core/domain"
)

// LayoutStore defines the outbound port for layout variation persistence.
// Layout documents are deeply nested, so they live in MongoDB rather than
// the relational asset store.
type LayoutStore interface {
	Save(ctx context.Context, layout *domain.LayoutVariation) error
	SaveBatch(ctx context.Context, layouts []*domain.LayoutVariation) error
	Update(ctx context.Context, layout *domain.LayoutVariation) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.LayoutVariation, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LayoutVariation, int, error)
	ListByTerritory(ctx context.Context, userID, territoryID string) ([]*domain.LayoutVariation, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}
