package queue

import (
	"context"
	"sync"
	"time"

	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/core/port/out"
	"studio_server/pkg/apperr"
	"studio_server/pkg/logger"
	"studio_server/pkg/metrics"
	"studio_server/pkg/snowflake"
)

const (
	// DefaultMaxRetries caps transient-failure retries per item unless the
	// service is configured otherwise.
	DefaultMaxRetries = 3

	maxBatchSize = 20
)

// Service owns the authoritative generation queue state. Items live in
// memory for ordering and transitions; the store keeps history across
// restarts and the producer fans jobs out to worker processes.
//
// Ordering is priority-tiered FIFO: high before normal, and within a tier
// by the Seq assigned at enqueue. A retried item gets a fresh Seq, so it
// rejoins the tail of its tier rather than jumping the line.
type Service struct {
	mu      sync.Mutex
	items   map[string]*domain.QueueItem
	batches map[string]*domain.GenerationBatch
	nextSeq uint64

	store      out.QueueStore
	producer   out.GenerationProducer
	assets     out.AssetRepository
	maxRetries int
	counters   *metrics.QueueCounters
	log        *logger.Logger
}

// NewService creates the queue service with the default retry cap.
// producer may be nil for single process deployments where the worker
// pulls via NextPending.
func NewService(store out.QueueStore, producer out.GenerationProducer, assets out.AssetRepository) *Service {
	return NewServiceWithRetries(store, producer, assets, DefaultMaxRetries)
}

// NewServiceWithRetries creates the queue service with a custom cap on
// transient-failure retries per item.
func NewServiceWithRetries(store out.QueueStore, producer out.GenerationProducer, assets out.AssetRepository, maxRetries int) *Service {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Service{
		items:      make(map[string]*domain.QueueItem),
		batches:    make(map[string]*domain.GenerationBatch),
		store:      store,
		producer:   producer,
		assets:     assets,
		maxRetries: maxRetries,
		counters:   metrics.Queue(),
		log:        logger.Default().WithField("component", "queue_service"),
	}
}

// Restore reloads non-terminal items from the store after a restart so
// in-flight work is not lost. Items that were mid-processing go back to
// queued for a clean re-run.
func (s *Service) Restore(ctx context.Context) error {
	pending, err := s.store.ListPendingItems(ctx)
	if err != nil {
		return apperr.DatabaseError("restore queue", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, item := range pending {
		if item.Status == domain.GenerationStatusProcessing {
			item.Status = domain.GenerationStatusQueued
			item.Progress = 0
			item.StartedAt = nil
		}
		item.Seq = s.nextSeqLocked()
		s.items[item.ID] = item
		restored++

		if item.BatchID != "" && s.batches[item.BatchID] == nil {
			if batch, err := s.store.GetBatch(ctx, item.BatchID); err == nil && batch != nil {
				s.batches[batch.ID] = batch
			}
		}
	}

	if restored > 0 {
		s.log.WithField("restored", restored).Info("queue state restored")
	}
	return nil
}

// =============================================================================
// Submission
// =============================================================================

// Enqueue validates and admits one generation request.
func (s *Service) Enqueue(ctx context.Context, userID string, req *domain.GenerationRequest, priority domain.GenerationPriority) (*domain.QueueItem, error) {
	item, err := s.admit(ctx, userID, "", req, priority)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, item)
	return copyItem(item), nil
}

// EnqueueBatch admits several requests as one batch. Validation is
// all-or-nothing: one bad request rejects the whole submission.
func (s *Service) EnqueueBatch(ctx context.Context, userID string, req *in.BatchGenerationRequest) (*in.BatchGenerationResponse, error) {
	if req == nil || len(req.Requests) == 0 {
		return nil, apperr.MissingField("requests")
	}
	if len(req.Requests) > maxBatchSize {
		return nil, apperr.ValidationFailed("batch too large").WithDetail("max", maxBatchSize)
	}
	for i, r := range req.Requests {
		if r == nil {
			return nil, apperr.ValidationFailed("empty request in batch").WithDetail("index", i)
		}
		if msg := r.Validate(); msg != "" {
			return nil, apperr.ValidationFailed(msg).WithDetail("index", i)
		}
	}

	batch := &domain.GenerationBatch{
		ID:         snowflake.BatchID(),
		UserID:     userID,
		Status:     domain.GenerationStatusQueued,
		TotalCount: len(req.Requests),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveBatch(ctx, batch); err != nil {
		return nil, apperr.DatabaseError("save batch", err)
	}

	s.mu.Lock()
	s.batches[batch.ID] = batch
	s.mu.Unlock()

	items := make([]*domain.QueueItem, 0, len(req.Requests))
	for _, r := range req.Requests {
		item, err := s.admit(ctx, userID, batch.ID, r, req.Priority)
		if err != nil {
			s.unwindBatch(ctx, batch, items)
			return nil, err
		}
		items = append(items, item)
	}
	for _, item := range items {
		s.publish(ctx, item)
	}

	s.log.WithQueueItem("", batch.ID).WithFields(map[string]any{
		"user_id": userID,
		"members": len(items),
	}).Info("generation batch enqueued")

	out := make([]*domain.QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, copyItem(item))
	}
	return &in.BatchGenerationResponse{Batch: copyBatch(batch), Items: out}, nil
}

// unwindBatch cancels members admitted before a mid-batch failure and
// fails the batch, so no item stays queued against a member total the
// batch can never reach.
func (s *Service) unwindBatch(ctx context.Context, batch *domain.GenerationBatch, admitted []*domain.QueueItem) {
	now := time.Now().UTC()

	s.mu.Lock()
	for _, item := range admitted {
		item.Status = domain.GenerationStatusCancelled
		item.CompletedAt = &now
		delete(s.items, item.ID)
	}
	batch.Status = domain.GenerationStatusFailed
	batch.CancelledCount = len(admitted)
	delete(s.batches, batch.ID)
	s.mu.Unlock()

	for _, item := range admitted {
		if err := s.store.UpdateItem(ctx, item); err != nil {
			s.log.WithError(err).WithQueueItem(item.ID, batch.ID).Warn("batch unwind: item update failed")
		}
	}
	if err := s.store.UpdateBatch(ctx, batch); err != nil {
		s.log.WithError(err).WithQueueItem("", batch.ID).Warn("batch unwind: batch update failed")
	}

	s.log.WithQueueItem("", batch.ID).WithField("unwound", len(admitted)).Warn("batch admission failed, members cancelled")
}

// admit validates a request and installs a queued item.
func (s *Service) admit(ctx context.Context, userID, batchID string, req *domain.GenerationRequest, priority domain.GenerationPriority) (*domain.QueueItem, error) {
	if req == nil {
		return nil, apperr.BadRequest("request body is required")
	}
	if msg := req.Validate(); msg != "" {
		return nil, apperr.ValidationFailed(msg)
	}
	if priority != domain.PriorityNormal && priority != domain.PriorityHigh {
		return nil, apperr.ValidationFailed("unknown priority")
	}

	item := &domain.QueueItem{
		ID:        snowflake.QueueID(),
		UserID:    userID,
		BatchID:   batchID,
		Request:   *req,
		Priority:  priority,
		Status:    domain.GenerationStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.SaveItem(ctx, item); err != nil {
		return nil, apperr.DatabaseError("save queue item", err)
	}

	s.mu.Lock()
	item.Seq = s.nextSeqLocked()
	s.items[item.ID] = item
	s.mu.Unlock()

	s.counters.Enqueued.Add(1)
	s.log.WithQueueItem(item.ID, batchID).WithFields(map[string]any{
		"user_id":  userID,
		"kind":     req.Kind,
		"priority": priority,
	}).Info("generation request enqueued")
	return item, nil
}

// publish hands the job to the stream. Failure is not fatal: the item is
// already admitted and an in-process worker can still pick it up.
func (s *Service) publish(ctx context.Context, item *domain.QueueItem) {
	if s.producer == nil {
		return
	}

	job := &out.GenerationJob{
		ItemID:   item.ID,
		UserID:   item.UserID,
		BatchID:  item.BatchID,
		Priority: item.Priority,
		Seq:      item.Seq,
		Attempt:  item.RetryCount,
		Request:  &item.Request,
	}

	var err error
	if item.Priority == domain.PriorityHigh {
		err = s.producer.PublishPriority(ctx, job)
	} else {
		err = s.producer.PublishGeneration(ctx, job)
	}
	if err != nil {
		s.log.WithError(err).WithQueueItem(item.ID, item.BatchID).Warn("job publish failed")
	}

	s.syncItemStatus(ctx, item)
}

// =============================================================================
// Lifecycle
// =============================================================================

// Cancel stops a queued or processing item. A processing item's backend
// call may still finish; its late result is discarded, never registered.
func (s *Service) Cancel(ctx context.Context, userID, itemID string) (*domain.QueueItem, error) {
	s.mu.Lock()
	item, err := s.getOwnedLocked(userID, itemID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if item.Status.IsTerminal() {
		// Idempotent: cancelling an item that already finished (or was
		// already cancelled) just returns the current snapshot.
		snapshot := copyItem(item)
		s.mu.Unlock()
		return snapshot, nil
	}

	now := time.Now().UTC()
	item.Status = domain.GenerationStatusCancelled
	item.CompletedAt = &now
	batch := s.applyBatchDeltaLocked(item)
	snapshot := copyItem(item)
	s.mu.Unlock()

	s.counters.Cancelled.Add(1)
	s.persist(ctx, snapshot, batch)
	s.log.WithQueueItem(itemID, snapshot.BatchID).Info("generation cancelled")
	return snapshot, nil
}

// Retry re-admits a failed item with a transient error, up to the retry cap.
// The item rejoins the tail of its priority tier.
func (s *Service) Retry(ctx context.Context, userID, itemID string) (*domain.QueueItem, error) {
	s.mu.Lock()
	item, err := s.getOwnedLocked(userID, itemID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if item.Status != domain.GenerationStatusFailed {
		s.mu.Unlock()
		return nil, apperr.Conflict("only failed items can be retried")
	}
	if !item.Error.Retryable() {
		s.mu.Unlock()
		return nil, apperr.Conflict("failure is not retryable")
	}
	if item.RetryCount >= s.maxRetries {
		s.mu.Unlock()
		return nil, apperr.RetryExhausted(itemID)
	}

	s.requeueLocked(item)
	batch := s.unwindBatchFailureLocked(item)
	snapshot := copyItem(item)
	s.mu.Unlock()

	s.counters.Retries.Add(1)
	s.persist(ctx, snapshot, batch)
	s.publish(ctx, item)
	s.log.WithQueueItem(itemID, snapshot.BatchID).
		WithField("attempt", snapshot.RetryCount).Info("generation retried")
	return snapshot, nil
}

// =============================================================================
// Queries
// =============================================================================

// GetItem returns one owned item.
func (s *Service) GetItem(ctx context.Context, userID, itemID string) (*domain.QueueItem, error) {
	s.mu.Lock()
	item, err := s.getOwnedLocked(userID, itemID)
	if err == nil {
		snapshot := copyItem(item)
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()

	// Terminal items may have been evicted from memory; fall back to the store
	stored, storeErr := s.store.GetItem(ctx, itemID)
	if storeErr != nil || stored == nil || stored.UserID != userID {
		return nil, err
	}
	return stored, nil
}

// ListItems pages the user's items, newest first, optionally filtered by
// status.
func (s *Service) ListItems(ctx context.Context, userID string, statuses []domain.GenerationStatus, limit, offset int) (*in.QueueListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.store.ListItems(ctx, userID, statuses, limit, offset)
	if err != nil {
		return nil, apperr.DatabaseError("list queue items", err)
	}

	// Overlay live state for items still in memory
	s.mu.Lock()
	for i, item := range items {
		if live, ok := s.items[item.ID]; ok {
			items[i] = copyItem(live)
		}
	}
	s.mu.Unlock()

	return &in.QueueListResponse{Items: items, Total: total}, nil
}

// GetBatch returns an owned batch summary.
func (s *Service) GetBatch(ctx context.Context, userID, batchID string) (*domain.GenerationBatch, error) {
	if batchID == "" {
		return nil, apperr.MissingField("batch_id")
	}

	s.mu.Lock()
	if batch, ok := s.batches[batchID]; ok {
		if batch.UserID != userID {
			s.mu.Unlock()
			return nil, apperr.NotFound("batch")
		}
		snapshot := copyBatch(batch)
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()

	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, apperr.DatabaseError("get batch", err)
	}
	if batch == nil || batch.UserID != userID {
		return nil, apperr.NotFound("batch")
	}
	return batch, nil
}

// Counts returns the user's live per-status item counts.
func (s *Service) Counts(ctx context.Context, userID string) (map[domain.GenerationStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[domain.GenerationStatus]int)
	for _, item := range s.items {
		if item.UserID == userID {
			counts[item.Status]++
		}
	}
	return counts, nil
}

// =============================================================================
// Worker transitions
// =============================================================================

// NextPending hands the best queued item to an in-process worker: high
// priority first, FIFO within a tier.
func (s *Service) NextPending(ctx context.Context) (*domain.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *domain.QueueItem
	for _, item := range s.items {
		if item.Status != domain.GenerationStatusQueued {
			continue
		}
		if best == nil || queuedBefore(item, best) {
			best = item
		}
	}
	if best == nil {
		return nil, false
	}
	return copyItem(best), true
}

// MarkProcessing moves a queued item to processing. A cancelled item
// returns a conflict so the consumer drops the stale job.
func (s *Service) MarkProcessing(ctx context.Context, itemID string) error {
	s.mu.Lock()
	item, ok := s.items[itemID]
	if !ok {
		s.mu.Unlock()
		return apperr.NotFound("queue item")
	}
	if item.Status != domain.GenerationStatusQueued {
		status := item.Status
		s.mu.Unlock()
		return apperr.Conflict("item is " + string(status))
	}

	now := time.Now().UTC()
	item.Status = domain.GenerationStatusProcessing
	item.StartedAt = &now
	item.Progress = 0
	snapshot := copyItem(item)
	s.mu.Unlock()

	s.counters.Started.Add(1)
	s.persist(ctx, snapshot, nil)
	return nil
}

// UpdateProgress records backend progress. Progress never moves backwards.
func (s *Service) UpdateProgress(ctx context.Context, itemID string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	s.mu.Lock()
	item, ok := s.items[itemID]
	if !ok || item.Status != domain.GenerationStatusProcessing {
		s.mu.Unlock()
		return nil // stale update, drop silently
	}
	if progress <= item.Progress {
		s.mu.Unlock()
		return nil
	}
	item.Progress = progress
	snapshot := copyItem(item)
	s.mu.Unlock()

	s.syncItemStatus(ctx, snapshot)
	return nil
}

// Complete registers the produced asset and closes the item. Registration
// and the status flip are one step: the item only reports complete once
// the asset row exists. A cancelled item's late result is discarded.
func (s *Service) Complete(ctx context.Context, itemID string, asset *domain.Asset) error {
	s.mu.Lock()
	item, ok := s.items[itemID]
	if !ok {
		s.mu.Unlock()
		return apperr.NotFound("queue item")
	}
	if item.Status == domain.GenerationStatusCancelled {
		s.mu.Unlock()
		s.log.WithQueueItem(itemID, "").Info("late result discarded for cancelled item")
		return nil
	}
	if item.Status != domain.GenerationStatusProcessing {
		status := item.Status
		s.mu.Unlock()
		return apperr.Conflict("item is " + string(status))
	}
	pending := copyItem(item)
	s.mu.Unlock()

	if asset == nil {
		return apperr.BadRequest("completion requires an asset")
	}
	if asset.ID == "" {
		asset.ID = snowflake.AssetID()
	}
	asset.UserID = pending.UserID
	asset.Source = domain.AssetSourceAIGenerated
	asset.GenerationID = itemID
	asset.GenerationBatchID = pending.BatchID
	asset.Status = domain.AssetStatusReady
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	asset.UpdatedAt = asset.CreatedAt

	if err := s.assets.Create(ctx, asset); err != nil {
		// Item stays processing; the worker can fail it as transient
		return apperr.DatabaseError("register asset", err)
	}

	s.mu.Lock()
	item, ok = s.items[itemID]
	if !ok || item.Status != domain.GenerationStatusProcessing {
		// Cancelled while registering: the asset exists but the item does
		// not claim it
		s.mu.Unlock()
		return nil
	}
	now := time.Now().UTC()
	item.Status = domain.GenerationStatusComplete
	item.Progress = 100
	item.ResultAssetID = asset.ID
	item.CompletedAt = &now
	batch := s.applyBatchDeltaLocked(item)
	snapshot := copyItem(item)
	s.mu.Unlock()

	s.counters.Completed.Add(1)
	s.persist(ctx, snapshot, batch)
	s.log.WithQueueItem(itemID, snapshot.BatchID).
		WithField("asset_id", asset.ID).Info("generation complete")
	return nil
}

// Fail records a backend failure. Transient failures under the retry cap
// re-queue automatically at the tail of their tier; everything else is
// terminal.
func (s *Service) Fail(ctx context.Context, itemID string, genErr *domain.GenerationError) error {
	if genErr == nil {
		genErr = &domain.GenerationError{Kind: domain.ErrorKindRejected, Message: "unknown failure"}
	}

	s.mu.Lock()
	item, ok := s.items[itemID]
	if !ok {
		s.mu.Unlock()
		return apperr.NotFound("queue item")
	}
	if item.Status == domain.GenerationStatusCancelled {
		s.mu.Unlock()
		return nil
	}
	if item.Status != domain.GenerationStatusProcessing {
		status := item.Status
		s.mu.Unlock()
		return apperr.Conflict("item is " + string(status))
	}

	if genErr.Retryable() && item.RetryCount < s.maxRetries {
		item.Error = genErr
		s.requeueLocked(item)
		snapshot := copyItem(item)
		s.mu.Unlock()

		s.counters.Retries.Add(1)
		s.persist(ctx, snapshot, nil)
		s.publish(ctx, item)
		s.log.WithQueueItem(itemID, snapshot.BatchID).WithFields(map[string]any{
			"attempt": snapshot.RetryCount,
			"reason":  genErr.Message,
		}).Warn("transient failure, re-queued")
		return nil
	}

	now := time.Now().UTC()
	item.Status = domain.GenerationStatusFailed
	item.Error = genErr
	item.CompletedAt = &now
	batch := s.applyBatchDeltaLocked(item)
	snapshot := copyItem(item)
	s.mu.Unlock()

	s.counters.Failed.Add(1)
	s.persist(ctx, snapshot, batch)
	s.log.WithQueueItem(itemID, snapshot.BatchID).WithFields(map[string]any{
		"kind":   genErr.Kind,
		"reason": genErr.Message,
	}).Error("generation failed")
	return nil
}

// =============================================================================
// Internals
// =============================================================================

func (s *Service) nextSeqLocked() uint64 {
	s.nextSeq++
	return s.nextSeq
}

func (s *Service) getOwnedLocked(userID, itemID string) (*domain.QueueItem, error) {
	if itemID == "" {
		return nil, apperr.MissingField("item_id")
	}
	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return nil, apperr.NotFound("queue item")
	}
	return item, nil
}

// requeueLocked resets an item for another attempt with a fresh Seq.
func (s *Service) requeueLocked(item *domain.QueueItem) {
	item.Status = domain.GenerationStatusQueued
	item.Progress = 0
	item.RetryCount++
	item.StartedAt = nil
	item.CompletedAt = nil
	item.Seq = s.nextSeqLocked()
}

// applyBatchDeltaLocked folds a freshly terminal item into its batch and
// returns a snapshot for persistence, nil when the item is batchless.
func (s *Service) applyBatchDeltaLocked(item *domain.QueueItem) *domain.GenerationBatch {
	if item.BatchID == "" {
		return nil
	}
	batch, ok := s.batches[item.BatchID]
	if !ok {
		return nil
	}

	switch item.Status {
	case domain.GenerationStatusComplete:
		batch.CompletedCount++
		if item.ResultAssetID != "" {
			batch.AssetIDs = append(batch.AssetIDs, item.ResultAssetID)
		}
	case domain.GenerationStatusFailed:
		batch.FailedCount++
	case domain.GenerationStatusCancelled:
		batch.CancelledCount++
	}

	if batch.Done() {
		batch.Status = domain.GenerationStatusComplete
	} else {
		batch.Status = domain.GenerationStatusProcessing
	}
	return copyBatch(batch)
}

// unwindBatchFailureLocked backs a failed member out of the batch tallies
// when the user retries it.
func (s *Service) unwindBatchFailureLocked(item *domain.QueueItem) *domain.GenerationBatch {
	if item.BatchID == "" {
		return nil
	}
	batch, ok := s.batches[item.BatchID]
	if !ok {
		return nil
	}
	if batch.FailedCount > 0 {
		batch.FailedCount--
	}
	batch.Status = domain.GenerationStatusProcessing
	return copyBatch(batch)
}

// persist writes item and batch snapshots to the store and mirrors them
// into the status cache. Store failures are logged, not surfaced: memory
// remains authoritative.
func (s *Service) persist(ctx context.Context, item *domain.QueueItem, batch *domain.GenerationBatch) {
	if item != nil {
		if err := s.store.UpdateItem(ctx, item); err != nil {
			s.log.WithError(err).WithQueueItem(item.ID, item.BatchID).Warn("queue item persist failed")
		}
		s.syncItemStatus(ctx, item)
	}
	if batch != nil {
		if err := s.store.UpdateBatch(ctx, batch); err != nil {
			s.log.WithError(err).WithQueueItem("", batch.ID).Warn("batch persist failed")
		}
		s.syncBatchProgress(ctx, batch)
	}
}

func (s *Service) syncItemStatus(ctx context.Context, item *domain.QueueItem) {
	if s.producer == nil {
		return
	}
	status := &out.ItemStatus{
		ItemID:        item.ID,
		Status:        item.Status,
		Progress:      item.Progress,
		RetryCount:    item.RetryCount,
		ResultAssetID: item.ResultAssetID,
		UpdatedAt:     time.Now().UTC(),
	}
	if item.Error != nil {
		status.ErrorMessage = item.Error.Message
	}
	if err := s.producer.SetItemStatus(ctx, item.ID, status); err != nil {
		s.log.WithError(err).WithQueueItem(item.ID, "").Debug("status cache write failed")
	}
}

func (s *Service) syncBatchProgress(ctx context.Context, batch *domain.GenerationBatch) {
	if s.producer == nil {
		return
	}
	progress := &out.BatchProgress{
		BatchID:   batch.ID,
		Total:     batch.TotalCount,
		Completed: batch.CompletedCount,
		Failed:    batch.FailedCount,
		Cancelled: batch.CancelledCount,
		AssetIDs:  batch.AssetIDs,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.producer.SetBatchProgress(ctx, batch.ID, progress); err != nil {
		s.log.WithError(err).WithQueueItem("", batch.ID).Debug("batch cache write failed")
	}
}

// queuedBefore orders two queued items: higher tier first, then Seq.
func queuedBefore(a, b *domain.QueueItem) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Seq < b.Seq
}

func copyItem(item *domain.QueueItem) *domain.QueueItem {
	c := *item
	if item.Error != nil {
		e := *item.Error
		c.Error = &e
	}
	return &c
}

func copyBatch(batch *domain.GenerationBatch) *domain.GenerationBatch {
	c := *batch
	c.AssetIDs = append([]string(nil), batch.AssetIDs...)
	return &c
}
