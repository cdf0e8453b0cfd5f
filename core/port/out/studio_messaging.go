package out

import (
	"context"
	"time"

	"studio_server/core/domain"
)

// GenerationProducer defines the outbound port for the generation job queue.
// High priority jobs go to a separate stream that consumers drain first.
type GenerationProducer interface {
	PublishGeneration(ctx context.Context, job *GenerationJob) error
	PublishPriority(ctx context.Context, job *GenerationJob) error

	// Status cache shared between API and worker processes
	SetItemStatus(ctx context.Context, itemID string, status *ItemStatus) error
	GetItemStatus(ctx context.Context, itemID string) (*ItemStatus, error)
	SetBatchProgress(ctx context.Context, batchID string, progress *BatchProgress) error
	GetBatchProgress(ctx context.Context, batchID string) (*BatchProgress, error)
}

// GenerationJob is the wire payload carried on the job stream.
type GenerationJob struct {
	ItemID   string                    `json:"item_id"`
	UserID   string                    `json:"user_id"`
	BatchID  string                    `json:"batch_id,omitempty"`
	Priority domain.GenerationPriority `json:"priority"`
	Seq      uint64                    `json:"seq"`
	Attempt  int                       `json:"attempt"`
	Request  *domain.GenerationRequest `json:"request"`
}

// ItemStatus mirrors a queue item's live progress for status polling.
type ItemStatus struct {
	ItemID        string                  `json:"item_id"`
	Status        domain.GenerationStatus `json:"status"`
	Progress      int                     `json:"progress"`
	RetryCount    int                     `json:"retry_count"`
	ResultAssetID string                  `json:"result_asset_id,omitempty"`
	ErrorMessage  string                  `json:"error_message,omitempty"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// BatchProgress mirrors a batch's aggregate progress.
type BatchProgress struct {
	BatchID   string    `json:"batch_id"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	Cancelled int       `json:"cancelled"`
	AssetIDs  []string  `json:"asset_ids,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
