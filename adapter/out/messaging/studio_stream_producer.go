// Package messaging provides message queue adapters.
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"studio_server/core/port/out"

	"github.com/redis/go-redis/v9"
)

// Stream names
const (
	StreamGeneration = "generation:jobs"

	// Priority stream, drained before the normal stream
	StreamGenerationPriority = "generation:priority"
)

// RedisProducer implements out.GenerationProducer using Redis Streams.
// Item status and batch progress live in Redis so the API process can
// answer polls without asking the worker.
type RedisProducer struct {
	client *redis.Client
}

// NewRedisProducer creates a new RedisProducer.
func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client}
}

// PublishGeneration publishes a normal-priority generation job.
func (p *RedisProducer) PublishGeneration(ctx context.Context, job *out.GenerationJob) error {
	return p.publish(ctx, StreamGeneration, job)
}

// PublishPriority publishes a high-priority generation job.
func (p *RedisProducer) PublishPriority(ctx context.Context, job *out.GenerationJob) error {
	return p.publish(ctx, StreamGenerationPriority, job)
}

// publish publishes a job to a stream using go-redis.
func (p *RedisProducer) publish(ctx context.Context, stream string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}

	return nil
}

// =============================================================================
// Status Cache (Redis)
// =============================================================================

const (
	itemStatusKeyPrefix    = "generation:status:"
	batchProgressKeyPrefix = "generation:batch:"
	statusTTL              = 24 * time.Hour
)

// SetItemStatus stores a queue item's live status in Redis.
func (p *RedisProducer) SetItemStatus(ctx context.Context, itemID string, status *out.ItemStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal item status: %w", err)
	}

	key := itemStatusKeyPrefix + itemID
	if err := p.client.Set(ctx, key, data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to set item status: %w", err)
	}
	return nil
}

// GetItemStatus retrieves a queue item's live status, nil when absent or
// expired.
func (p *RedisProducer) GetItemStatus(ctx context.Context, itemID string) (*out.ItemStatus, error) {
	key := itemStatusKeyPrefix + itemID
	data, err := p.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item status: %w", err)
	}

	var status out.ItemStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item status: %w", err)
	}
	return &status, nil
}

// SetBatchProgress stores a batch's aggregate progress in Redis.
func (p *RedisProducer) SetBatchProgress(ctx context.Context, batchID string, progress *out.BatchProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal batch progress: %w", err)
	}

	key := batchProgressKeyPrefix + batchID
	if err := p.client.Set(ctx, key, data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to set batch progress: %w", err)
	}
	return nil
}

// GetBatchProgress retrieves a batch's aggregate progress, nil when absent
// or expired.
func (p *RedisProducer) GetBatchProgress(ctx context.Context, batchID string) (*out.BatchProgress, error) {
	key := batchProgressKeyPrefix + batchID
	data, err := p.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch progress: %w", err)
	}

	var progress out.BatchProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch progress: %w", err)
	}
	return &progress, nil
}

// Ensure RedisProducer implements out.GenerationProducer
var _ out.GenerationProducer = (*RedisProducer)(nil)
