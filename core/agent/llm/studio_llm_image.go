package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"studio_server/core/domain"
	"studio_server/core/port/out"
)

// ImageClient generates creative assets using OpenAI DALL-E.
// Implements out.ImageBackend and out.PromptOptimizer.
type ImageClient struct {
	client  *openai.Client
	text    *Client
	model   string
	breaker *gobreaker.CircuitBreaker
}

// ImageClientConfig configuration for ImageClient
type ImageClientConfig struct {
	APIKey string
	Model  string // dall-e-3 or dall-e-2
}

// NewImageClient creates a new ImageClient
func NewImageClient(apiKey string) *ImageClient {
	return NewImageClientWithConfig(ImageClientConfig{APIKey: apiKey})
}

// NewImageClientWithConfig creates a new ImageClient with config
func NewImageClientWithConfig(cfg ImageClientConfig) *ImageClient {
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &ImageClient{
		client: openai.NewClient(cfg.APIKey),
		text:   NewClient(cfg.APIKey),
		model:  model,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "image-backend",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// GenerateImage generates a single image for the request.
func (c *ImageClient) GenerateImage(ctx context.Context, req *domain.GenerationRequest) (*out.GenerationResult, error) {
	prompt := buildImagePrompt(req)

	quality := openai.CreateImageQualityStandard
	if req.Quality == domain.ImageQualityHD || req.Quality == domain.ImageQualityUltra {
		quality = openai.CreateImageQualityHD
	}

	size := dallESizeForFormat(req.Format)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.CreateImage(ctx, openai.ImageRequest{
			Model:          c.model,
			Prompt:         prompt,
			Size:           size,
			Quality:        quality,
			Style:          openai.CreateImageStyleVivid,
			N:              1, // DALL-E 3 only supports 1
			ResponseFormat: openai.CreateImageResponseFormatURL,
		})
	})
	if err != nil {
		return nil, classifyBackendError(err)
	}

	resp := result.(openai.ImageResponse)
	if len(resp.Data) == 0 {
		return nil, &domain.GenerationError{
			Kind:    domain.ErrorKindTransient,
			Message: "backend returned no image",
		}
	}

	width, height := renderDimensions(req.Format)

	return &out.GenerationResult{
		URL:           resp.Data[0].URL,
		Width:         width,
		Height:        height,
		MimeType:      "image/png",
		RevisedPrompt: resp.Data[0].RevisedPrompt,
	}, nil
}

// OptimizePrompt enhances a user prompt for better image generation.
// Falls back to the original prompt when the rewrite fails.
func (c *ImageClient) OptimizePrompt(ctx context.Context, prompt string, brandContext string) (string, error) {
	systemPrompt := `You are an expert at crafting prompts for AI image generation.
Convert the user's description into an optimized prompt for a marketing creative.

Guidelines:
- Be specific and descriptive
- Include style, mood, and composition details
- Add technical quality keywords (high resolution, professional, etc.)
- Keep it under 1000 characters
- For hero imagery: bold focal subject, space for headline overlay
- For backgrounds: subtle, non-distracting, suitable for text overlay
- Maintain a professional, on-brand aesthetic

Return ONLY the optimized prompt, no explanations.`

	userMessage := prompt
	if brandContext != "" {
		userMessage = fmt.Sprintf("Brand context: %s\nUser request: %s", brandContext, prompt)
	}

	optimized, err := c.text.CompleteWithSystem(ctx, systemPrompt, userMessage)
	if err != nil || strings.TrimSpace(optimized) == "" {
		return prompt, nil
	}

	return strings.TrimSpace(optimized), nil
}

// buildImagePrompt folds territory and brand context into the raw prompt.
func buildImagePrompt(req *domain.GenerationRequest) string {
	var parts []string

	if req.BrandGuidelines != nil {
		if brandContext := req.BrandGuidelines.ToPromptContext(); brandContext != "" {
			parts = append(parts, brandContext)
		}
	}

	parts = append(parts, req.Prompt)

	if req.Territory != nil {
		if req.Territory.Tone != "" {
			parts = append(parts, req.Territory.Tone+" tone")
		}
		if len(req.Territory.Keywords) > 0 {
			parts = append(parts, "themes: "+strings.Join(req.Territory.Keywords, ", "))
		}
	}

	switch req.ImageType {
	case "hero":
		parts = append(parts, "bold focal subject, space for headline overlay")
	case "background":
		parts = append(parts, "subtle texture, suitable for text overlay")
	case "product":
		parts = append(parts, "product photography, studio lighting")
	case "lifestyle":
		parts = append(parts, "candid lifestyle photography, natural light")
	}

	return strings.Join(parts, ", ")
}

// dallESizeForFormat maps a channel format to the nearest DALL-E size.
// DALL-E 3 supports 1024x1024, 1792x1024 and 1024x1792 only.
func dallESizeForFormat(format domain.ChannelFormat) string {
	if format == "" {
		return openai.CreateImageSize1024x1024
	}

	width, height := domain.FormatDimensions(format)
	if height == 0 {
		return openai.CreateImageSize1024x1024
	}

	ratio := float64(width) / float64(height)
	if ratio > 1.5 {
		return openai.CreateImageSize1792x1024
	} else if ratio < 0.67 {
		return openai.CreateImageSize1024x1792
	}
	return openai.CreateImageSize1024x1024
}

func renderDimensions(format domain.ChannelFormat) (int, int) {
	switch dallESizeForFormat(format) {
	case openai.CreateImageSize1792x1024:
		return 1792, 1024
	case openai.CreateImageSize1024x1792:
		return 1024, 1792
	default:
		return 1024, 1024
	}
}

// classifyBackendError maps transport errors to the generation error taxonomy.
// Rate limits and 5xx are transient; content policy and bad requests are
// terminal rejections.
func classifyBackendError(err error) *domain.GenerationError {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.GenerationError{
			Kind:    domain.ErrorKindTransient,
			Message: "backend circuit open",
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500:
			return &domain.GenerationError{
				Kind:    domain.ErrorKindTransient,
				Message: fmt.Sprintf("backend unavailable (%d): %s", apiErr.HTTPStatusCode, apiErr.Message),
			}
		default:
			return &domain.GenerationError{
				Kind:    domain.ErrorKindRejected,
				Message: fmt.Sprintf("backend rejected request (%d): %s", apiErr.HTTPStatusCode, apiErr.Message),
			}
		}
	}

	// Network-level failures are worth retrying
	return &domain.GenerationError{
		Kind:    domain.ErrorKindTransient,
		Message: err.Error(),
	}
}
