package out

import (
	"context"

	"studio_server/core/domain"
)

// QueueStore defines the outbound port for generation queue persistence.
// The queue service keeps the authoritative in-memory state; the store
// lets queue history and batch progress survive restarts.
type QueueStore interface {
	// Items
	SaveItem(ctx context.Context, item *domain.QueueItem) error
	UpdateItem(ctx context.Context, item *domain.QueueItem) error
	GetItem(ctx context.Context, id string) (*domain.QueueItem, error)
	ListItems(ctx context.Context, userID string, statuses []domain.GenerationStatus, limit, offset int) ([]*domain.QueueItem, int, error)
	ListPendingItems(ctx context.Context) ([]*domain.QueueItem, error)
	DeleteTerminalBefore(ctx context.Context, userID string, keep int) (int, error)

	// Batches
	SaveBatch(ctx context.Context, batch *domain.GenerationBatch) error
	UpdateBatch(ctx context.Context, batch *domain.GenerationBatch) error
	GetBatch(ctx context.Context, id string) (*domain.GenerationBatch, error)
	ListBatches(ctx context.Context, userID string, limit, offset int) ([]*domain.GenerationBatch, int, error)
}
