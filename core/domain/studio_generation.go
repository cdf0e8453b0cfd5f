package domain

import (
	"time"
)

// GenerationKind is the artifact type a queue item produces.
type GenerationKind string

const (
	GenerationKindImage GenerationKind = "image"
	GenerationKindVideo GenerationKind = "video"
)

// GenerationStatus represents the lifecycle state of a queue item.
type GenerationStatus string

const (
	GenerationStatusQueued     GenerationStatus = "queued"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusComplete   GenerationStatus = "complete"
	GenerationStatusFailed     GenerationStatus = "failed"
	GenerationStatusCancelled  GenerationStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible without an
// explicit retry. Failed items with a retryable error can still be retried.
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusComplete || s == GenerationStatusFailed || s == GenerationStatusCancelled
}

// GenerationPriority orders queue service. Within a tier items are FIFO.
type GenerationPriority int

const (
	PriorityNormal GenerationPriority = 0
	PriorityHigh   GenerationPriority = 1
)

// ParsePriority maps the wire value to a priority tier.
func ParsePriority(s string) GenerationPriority {
	if s == "high" {
		return PriorityHigh
	}
	return PriorityNormal
}

// GenerationErrorKind classifies a failure for retry policy.
type GenerationErrorKind string

const (
	// ErrorKindValidation - bad request shape, never enqueued.
	ErrorKindValidation GenerationErrorKind = "validation"
	// ErrorKindTransient - network/rate-limit/timeout, retryable up to the cap.
	ErrorKindTransient GenerationErrorKind = "transient"
	// ErrorKindRejected - the backend refused the content, not retryable.
	ErrorKindRejected GenerationErrorKind = "rejected"
)

// GenerationError is the stored failure classification on a queue item.
type GenerationError struct {
	Kind    GenerationErrorKind `json:"kind"`
	Message string              `json:"message"`
}

// Error implements the error interface so backends can return the
// classification directly.
func (e *GenerationError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Retryable reports whether retry is permitted for this error.
func (e *GenerationError) Retryable() bool {
	return e != nil && e.Kind == ErrorKindTransient
}

// ImageQuality levels accepted by generation requests.
type ImageQuality string

const (
	ImageQualityStandard ImageQuality = "standard"
	ImageQualityHD       ImageQuality = "hd"
	ImageQualityUltra    ImageQuality = "ultra"
)

// GenerationRequest is the payload of one generation job.
type GenerationRequest struct {
	Prompt          string           `json:"prompt"`
	Kind            GenerationKind   `json:"kind"`
	Territory       *Territory       `json:"territory,omitempty"`
	BrandGuidelines *BrandGuidelines `json:"brand_guidelines,omitempty"` // snapshot at submission

	// Image parameters
	ImageType string        `json:"image_type,omitempty"` // hero, background, product, lifestyle
	Quality   ImageQuality  `json:"quality,omitempty"`
	Format    ChannelFormat `json:"format,omitempty"` // target channel format for sizing

	// Video parameters
	SourceImageURL       string  `json:"source_image_url,omitempty"`
	AnimationType        string  `json:"animation_type,omitempty"` // pan, zoom, parallax
	Duration             float64 `json:"duration,omitempty"`       // seconds
	PlatformOptimization string  `json:"platform_optimization,omitempty"`
}

// Validate checks request shape. Returns a message for the first problem
// found, empty when valid.
func (r *GenerationRequest) Validate() string {
	if r.Prompt == "" {
		return "prompt is required"
	}
	switch r.Kind {
	case GenerationKindImage, GenerationKindVideo:
	default:
		return "kind must be image or video"
	}
	if r.Kind == GenerationKindVideo && r.Duration < 0 {
		return "duration must be non-negative"
	}
	if r.Format != "" && !r.Format.Supported() {
		return "unsupported channel format: " + string(r.Format)
	}
	switch r.Quality {
	case "", ImageQualityStandard, ImageQualityHD, ImageQualityUltra:
	default:
		return "unknown quality: " + string(r.Quality)
	}
	return ""
}

// QueueItem tracks one generation job from submission to terminal state.
// Exactly one terminal state is reached per item; progress is monotonically
// non-decreasing while processing.
type QueueItem struct {
	ID       string             `json:"id"`
	UserID   string             `json:"user_id"`
	BatchID  string             `json:"batch_id,omitempty"`
	Request  GenerationRequest  `json:"request"`
	Priority GenerationPriority `json:"priority"`

	Status     GenerationStatus `json:"status"`
	Progress   int              `json:"progress"` // 0-100
	RetryCount int              `json:"retry_count"`

	ResultAssetID string           `json:"result_asset_id,omitempty"`
	Error         *GenerationError `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Seq orders items within a priority tier. Assigned at enqueue and on
	// retry so a retried item rejoins the tail of its tier.
	Seq uint64 `json:"-"`
}

// GenerationBatch is a derived view over the items submitted together.
type GenerationBatch struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	Status         GenerationStatus `json:"status"` // complete once all members are terminal
	TotalCount     int              `json:"total_count"`
	CompletedCount int              `json:"completed_count"`
	FailedCount    int              `json:"failed_count"`
	CancelledCount int              `json:"cancelled_count"`
	AssetIDs       []string         `json:"asset_ids,omitempty"` // resolvable completed members
	CreatedAt      time.Time        `json:"created_at"`
}

// Done reports whether every member has reached a terminal state.
func (b *GenerationBatch) Done() bool {
	return b.CompletedCount+b.FailedCount+b.CancelledCount >= b.TotalCount
}
