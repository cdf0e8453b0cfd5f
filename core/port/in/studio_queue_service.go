package in

import (
	"context"

	"studio_server/core/domain"
)

// QueueService defines the interface for the generation queue
type QueueService interface {
	// === Submission ===
	Enqueue(ctx context.Context, userID string, req *domain.GenerationRequest, priority domain.GenerationPriority) (*domain.QueueItem, error)
	EnqueueBatch(ctx context.Context, userID string, req *BatchGenerationRequest) (*BatchGenerationResponse, error)

	// === Lifecycle ===
	Cancel(ctx context.Context, userID, itemID string) (*domain.QueueItem, error)
	Retry(ctx context.Context, userID, itemID string) (*domain.QueueItem, error)

	// === Queries ===
	GetItem(ctx context.Context, userID, itemID string) (*domain.QueueItem, error)
	ListItems(ctx context.Context, userID string, statuses []domain.GenerationStatus, limit, offset int) (*QueueListResponse, error)
	GetBatch(ctx context.Context, userID, batchID string) (*domain.GenerationBatch, error)
	Counts(ctx context.Context, userID string) (map[domain.GenerationStatus]int, error)

	// === Worker transitions ===
	// Called by the consumer side; not exposed over HTTP.
	NextPending(ctx context.Context) (*domain.QueueItem, bool)
	MarkProcessing(ctx context.Context, itemID string) error
	UpdateProgress(ctx context.Context, itemID string, progress int) error
	Complete(ctx context.Context, itemID string, asset *domain.Asset) error
	Fail(ctx context.Context, itemID string, genErr *domain.GenerationError) error
}

// =============================================================================
// Request/Response Types
// =============================================================================

// BatchGenerationRequest submits several generation requests as one batch.
type BatchGenerationRequest struct {
	Requests []*domain.GenerationRequest `json:"requests" validate:"required,min=1"`
	Priority domain.GenerationPriority   `json:"priority,omitempty"`
}

type BatchGenerationResponse struct {
	Batch *domain.GenerationBatch `json:"batch"`
	Items []*domain.QueueItem     `json:"items"`
}

type QueueListResponse struct {
	Items []*domain.QueueItem `json:"items"`
	Total int                 `json:"total"`
}
