package worker

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"studio_server/adapter/out/messaging"
	"studio_server/core/port/out"

	"github.com/rs/zerolog"
)

// Handler routes pool messages to their processor.
type Handler struct {
	generation *GenerationProcessor
	log        zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(generation *GenerationProcessor, log zerolog.Logger) *Handler {
	return &Handler{
		generation: generation,
		log:        log.With().Str("component", "dispatcher").Logger(),
	}
}

// Process handles a single pool message.
func (h *Handler) Process(ctx context.Context, msg *Message) error {
	switch msg.Type {
	case JobImageGeneration, JobVideoGeneration:
		return h.generation.ProcessGeneration(ctx, msg)
	default:
		h.log.Warn().Str("job_type", msg.Type).Msg("unknown job type")
		return nil
	}
}

// StreamHandler bridges the Redis Streams consumer to the worker pool.
// It implements messaging.JobHandler.
type StreamHandler struct {
	pool *Pool
	log  zerolog.Logger
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(p *Pool, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		pool: p,
		log:  log.With().Str("component", "stream_handler").Logger(),
	}
}

// Handle decodes a stream message and submits it to the pool. A full pool
// returns an error so the message stays pending and is redelivered.
func (h *StreamHandler) Handle(ctx context.Context, stream string, data []byte) error {
	var job out.GenerationJob
	if err := json.Unmarshal(data, &job); err != nil {
		// Undecodable messages are acked; redelivery cannot fix them.
		h.log.Error().Err(err).Str("stream", stream).Msg("dropping undecodable job")
		return nil
	}

	if !h.pool.Submit(NewMessage(&job)) {
		return fmt.Errorf("worker pool not accepting jobs")
	}
	return nil
}

var _ messaging.JobHandler = (*StreamHandler)(nil)
