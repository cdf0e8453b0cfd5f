package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"studio_server/core/domain"
	"studio_server/core/port/out"
	"studio_server/pkg/httputil"
)

// VideoClient renders short motion creatives through an external render
// service. Implements out.VideoBackend.
type VideoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// VideoClientConfig configuration for VideoClient
type VideoClientConfig struct {
	BaseURL string
	APIKey  string
}

// NewVideoClient creates a new VideoClient
func NewVideoClient(cfg VideoClientConfig) *VideoClient {
	return &VideoClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httputil.VideoClient(),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "video-backend",
			MaxRequests: 2,
			Interval:    60 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

type videoRenderRequest struct {
	Prompt         string  `json:"prompt"`
	SourceImageURL string  `json:"source_image_url,omitempty"`
	AnimationType  string  `json:"animation_type,omitempty"`
	Duration       float64 `json:"duration,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Platform       string  `json:"platform,omitempty"`
}

type videoRenderResponse struct {
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Duration     float64 `json:"duration"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	FileSize     int64   `json:"file_size"`
	Error        string  `json:"error,omitempty"`
}

// GenerateVideo renders a video for the request. Blocks until the render
// service returns; long renders ride on the video client's extended timeout.
func (c *VideoClient) GenerateVideo(ctx context.Context, req *domain.GenerationRequest) (*out.GenerationResult, error) {
	duration := req.Duration
	if duration <= 0 {
		duration = 5
	}

	width, height := domain.FormatDimensions(req.Format)

	payload := videoRenderRequest{
		Prompt:         buildImagePrompt(req),
		SourceImageURL: req.SourceImageURL,
		AnimationType:  req.AnimationType,
		Duration:       duration,
		Width:          width,
		Height:         height,
		Platform:       req.PlatformOptimization,
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.render(ctx, &payload)
	})
	if err != nil {
		return nil, classifyBackendError(err)
	}

	resp := result.(*videoRenderResponse)
	return &out.GenerationResult{
		URL:          resp.URL,
		ThumbnailURL: resp.ThumbnailURL,
		Width:        resp.Width,
		Height:       resp.Height,
		Duration:     resp.Duration,
		MimeType:     "video/mp4",
		FileSize:     resp.FileSize,
	}, nil
}

func (c *VideoClient) render(ctx context.Context, payload *videoRenderRequest) (*videoRenderResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.GenerationError{
			Kind:    domain.ErrorKindRejected,
			Message: "invalid render payload: " + err.Error(),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/renders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	switch {
	case httpResp.StatusCode == http.StatusOK:
	case httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500:
		return nil, &domain.GenerationError{
			Kind:    domain.ErrorKindTransient,
			Message: fmt.Sprintf("render service unavailable (%d)", httpResp.StatusCode),
		}
	default:
		return nil, &domain.GenerationError{
			Kind:    domain.ErrorKindRejected,
			Message: fmt.Sprintf("render service rejected request (%d): %s", httpResp.StatusCode, string(respBody)),
		}
	}

	var resp videoRenderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &domain.GenerationError{
			Kind:    domain.ErrorKindTransient,
			Message: "malformed render response: " + err.Error(),
		}
	}
	if resp.Error != "" {
		return nil, &domain.GenerationError{
			Kind:    domain.ErrorKindRejected,
			Message: resp.Error,
		}
	}

	return &resp, nil
}
