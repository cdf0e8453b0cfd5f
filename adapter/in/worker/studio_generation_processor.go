package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/core/port/out"
	"studio_server/pkg/metrics"
	"studio_server/pkg/ratelimit"

	"github.com/rs/zerolog"
)

const (
	maxAssetNameLength = 80
	protectorMaxWait   = 30 * time.Second
)

// GenerationProcessor renders one generation job end to end: claim the
// item, optimize the prompt, call the backend, register the result.
// Failures are classified and reported through the queue service, which
// owns the retry policy.
type GenerationProcessor struct {
	queue     in.QueueService
	images    out.ImageBackend
	videos    out.VideoBackend
	optimizer out.PromptOptimizer
	protector *ratelimit.BackendProtector
	log       zerolog.Logger
}

// NewGenerationProcessor creates a new GenerationProcessor. optimizer and
// protector may be nil.
func NewGenerationProcessor(
	queue in.QueueService,
	images out.ImageBackend,
	videos out.VideoBackend,
	optimizer out.PromptOptimizer,
	protector *ratelimit.BackendProtector,
	log zerolog.Logger,
) *GenerationProcessor {
	return &GenerationProcessor{
		queue:     queue,
		images:    images,
		videos:    videos,
		optimizer: optimizer,
		protector: protector,
		log:       log.With().Str("component", "generation_processor").Logger(),
	}
}

// ProcessGeneration runs one job. Returns nil for jobs that were dropped
// on purpose, e.g. already cancelled items.
func (p *GenerationProcessor) ProcessGeneration(ctx context.Context, msg *Message) error {
	job := msg.Job
	if job == nil || job.Request == nil {
		p.log.Warn().Str("job_id", msg.ID).Msg("malformed job, dropping")
		return nil
	}

	start := time.Now()
	log := p.log.With().
		Str("item_id", job.ItemID).
		Str("kind", string(job.Request.Kind)).
		Logger()

	// Claim the item. A claim rejection means the item was cancelled or
	// already handled elsewhere; the job is simply dropped.
	if err := p.queue.MarkProcessing(ctx, job.ItemID); err != nil {
		log.Info().Err(err).Msg("item not claimable, dropping job")
		return nil
	}

	p.queue.UpdateProgress(ctx, job.ItemID, 10)

	req := *job.Request
	originalPrompt := req.Prompt
	req.Prompt = p.optimizePrompt(ctx, &req, log)

	p.queue.UpdateProgress(ctx, job.ItemID, 25)

	if p.protector != nil {
		key := "generation:" + string(req.Kind)
		result, release := p.protector.AcquireWithWait(ctx, key, protectorMaxWait)
		if !result.Allowed {
			log.Warn().Str("reason", result.Reason).Msg("backend call not admitted")
			return p.queue.Fail(ctx, job.ItemID, &domain.GenerationError{
				Kind:    domain.ErrorKindTransient,
				Message: "backend overloaded: " + result.Reason,
			})
		}
		defer release()
	}

	var (
		result *out.GenerationResult
		genErr error
	)
	switch req.Kind {
	case domain.GenerationKindVideo:
		if p.videos == nil {
			return p.queue.Fail(ctx, job.ItemID, &domain.GenerationError{
				Kind:    domain.ErrorKindRejected,
				Message: "video backend not configured",
			})
		}
		result, genErr = p.videos.GenerateVideo(ctx, &req)
	default:
		if p.images == nil {
			return p.queue.Fail(ctx, job.ItemID, &domain.GenerationError{
				Kind:    domain.ErrorKindRejected,
				Message: "image backend not configured",
			})
		}
		result, genErr = p.images.GenerateImage(ctx, &req)
	}

	if genErr != nil {
		classified := classifyError(genErr)
		log.Error().Err(genErr).Str("error_kind", string(classified.Kind)).Msg("generation failed")
		return p.queue.Fail(ctx, job.ItemID, classified)
	}

	p.queue.UpdateProgress(ctx, job.ItemID, 90)

	asset := buildAsset(&req, originalPrompt, result)
	if err := p.queue.Complete(ctx, job.ItemID, asset); err != nil {
		log.Error().Err(err).Msg("failed to complete item")
		return err
	}

	metrics.RecordLatency("generation."+string(req.Kind), time.Since(start))
	log.Info().Dur("elapsed", time.Since(start)).Msg("generation completed")
	return nil
}

// optimizePrompt rewrites the prompt when an optimizer is wired. Any
// failure falls back to the submitted prompt.
func (p *GenerationProcessor) optimizePrompt(ctx context.Context, req *domain.GenerationRequest, log zerolog.Logger) string {
	if p.optimizer == nil {
		return req.Prompt
	}

	brandContext := ""
	if req.BrandGuidelines != nil {
		brandContext = req.BrandGuidelines.ToPromptContext()
	}

	optimized, err := p.optimizer.OptimizePrompt(ctx, req.Prompt, brandContext)
	if err != nil || strings.TrimSpace(optimized) == "" {
		log.Debug().Err(err).Msg("prompt optimization skipped")
		return req.Prompt
	}
	return optimized
}

// classifyError maps a backend error onto the retry policy. Backends
// return *domain.GenerationError directly; anything else, including
// timeouts, is treated as transient.
func classifyError(err error) *domain.GenerationError {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return &domain.GenerationError{
		Kind:    domain.ErrorKindTransient,
		Message: err.Error(),
	}
}

// buildAsset assembles the library record for a finished render. The
// queue service stamps ownership and provenance on registration.
func buildAsset(req *domain.GenerationRequest, originalPrompt string, result *out.GenerationResult) *domain.Asset {
	kind := domain.AssetKindImage
	if req.Kind == domain.GenerationKindVideo {
		kind = domain.AssetKindVideo
	}

	return &domain.Asset{
		Kind:            kind,
		Name:            assetNameFromPrompt(originalPrompt),
		URL:             result.URL,
		ThumbnailURL:    result.ThumbnailURL,
		Width:           result.Width,
		Height:          result.Height,
		Duration:        result.Duration,
		FileSize:        result.FileSize,
		MimeType:        result.MimeType,
		OriginalPrompt:  originalPrompt,
		OptimizedPrompt: req.Prompt,
	}
}

func assetNameFromPrompt(prompt string) string {
	name := strings.TrimSpace(prompt)
	if name == "" {
		return "Generated asset"
	}
	if len(name) > maxAssetNameLength {
		name = strings.TrimSpace(name[:maxAssetNameLength])
	}
	return name
}
