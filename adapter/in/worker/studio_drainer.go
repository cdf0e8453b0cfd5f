package worker

import (
	"context"
	"time"

	"studio_server/core/domain"
	"studio_server/core/port/out"

	"github.com/rs/zerolog"
)

// PendingSource hands the best queued item to an in-process worker.
type PendingSource interface {
	NextPending(ctx context.Context) (*domain.QueueItem, bool)
}

// Submitter accepts messages for processing. *Pool satisfies it.
type Submitter interface {
	Submit(msg *Message) bool
}

// Drainer feeds the worker pool by polling the queue directly. It is the
// single-process path: without a Redis Stream between API and worker,
// enqueued items would otherwise sit queued forever.
type Drainer struct {
	source   PendingSource
	pool     Submitter
	interval time.Duration
	log      zerolog.Logger

	// submitted records the retry attempt last handed to the pool per
	// item, so a queued item is not resubmitted while the pool is still
	// claiming it. A retried item has a higher attempt and goes through
	// again.
	submitted map[string]submission
}

type submission struct {
	attempt int
	at      time.Time
}

// drainIdleInterval is the poll pause when the queue has nothing ready or
// the pool refuses the message.
const drainIdleInterval = 250 * time.Millisecond

// submissionTTL bounds the dedup map: terminal items never come back from
// the source, so their entries can be dropped after this long.
const submissionTTL = time.Hour

// NewDrainer creates a queue drain loop for single-process deployments.
func NewDrainer(source PendingSource, pool Submitter, log zerolog.Logger) *Drainer {
	return &Drainer{
		source:    source,
		pool:      pool,
		interval:  drainIdleInterval,
		log:       log.With().Str("component", "queue_drainer").Logger(),
		submitted: make(map[string]submission),
	}
}

// Run polls until the context is cancelled.
func (d *Drainer) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		// Drain everything ready before sleeping.
		for d.drainOne(ctx) {
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drainOne submits at most one queued item and reports whether another
// pass is worthwhile.
func (d *Drainer) drainOne(ctx context.Context) bool {
	item, ok := d.source.NextPending(ctx)
	if !ok {
		d.prune()
		return false
	}

	if prev, seen := d.submitted[item.ID]; seen && prev.attempt >= item.RetryCount {
		// Already handed to the pool and not yet claimed; let it settle.
		return false
	}

	msg := NewMessage(&out.GenerationJob{
		ItemID:   item.ID,
		UserID:   item.UserID,
		BatchID:  item.BatchID,
		Priority: item.Priority,
		Seq:      item.Seq,
		Attempt:  item.RetryCount,
		Request:  &item.Request,
	})
	if !d.pool.Submit(msg) {
		d.log.Warn().Str("item_id", item.ID).Msg("pool full, retrying next tick")
		return false
	}

	d.submitted[item.ID] = submission{attempt: item.RetryCount, at: time.Now()}
	d.log.Debug().Str("item_id", item.ID).Int("attempt", item.RetryCount).Msg("queued item handed to pool")
	return true
}

func (d *Drainer) prune() {
	cutoff := time.Now().Add(-submissionTTL)
	for id, s := range d.submitted {
		if s.at.Before(cutoff) {
			delete(d.submitted, id)
		}
	}
}
