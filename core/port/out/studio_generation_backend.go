package out

import (
	"context"

	"studio_server/core/domain"
)

// GenerationResult is what a backend returns for a finished render.
type GenerationResult struct {
	URL           string  `json:"url"`
	ThumbnailURL  string  `json:"thumbnail_url,omitempty"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Duration      float64 `json:"duration,omitempty"` // seconds, video only
	MimeType      string  `json:"mime_type"`
	FileSize      int64   `json:"file_size,omitempty"`
	RevisedPrompt string  `json:"revised_prompt,omitempty"`
}

// ImageBackend defines the outbound port for image generation.
// Backend failures must be classified: a *domain.GenerationError with
// ErrorTransient is retried, ErrorRejected is terminal.
type ImageBackend interface {
	GenerateImage(ctx context.Context, req *domain.GenerationRequest) (*GenerationResult, error)
}

// VideoBackend defines the outbound port for video generation.
type VideoBackend interface {
	GenerateVideo(ctx context.Context, req *domain.GenerationRequest) (*GenerationResult, error)
}

// PromptOptimizer rewrites a raw user prompt into a richer generation
// prompt, folding in brand context when provided.
type PromptOptimizer interface {
	OptimizePrompt(ctx context.Context, prompt string, brandContext string) (string, error)
}
