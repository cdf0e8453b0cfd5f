package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/core/port/out"
	"studio_server/pkg/apperr"
	"studio_server/pkg/snowflake"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeQueueStore struct {
	items   map[string]*domain.QueueItem
	batches map[string]*domain.GenerationBatch

	// failSaveAfter > 0 fails SaveItem once that many saves succeeded.
	failSaveAfter int
	saves         int
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{
		items:   map[string]*domain.QueueItem{},
		batches: map[string]*domain.GenerationBatch{},
	}
}

func (f *fakeQueueStore) SaveItem(_ context.Context, item *domain.QueueItem) error {
	if f.failSaveAfter > 0 && f.saves >= f.failSaveAfter {
		return errors.New("store down")
	}
	f.saves++
	c := *item
	f.items[item.ID] = &c
	return nil
}
func (f *fakeQueueStore) UpdateItem(_ context.Context, item *domain.QueueItem) error {
	c := *item
	f.items[item.ID] = &c
	return nil
}
func (f *fakeQueueStore) GetItem(_ context.Context, id string) (*domain.QueueItem, error) {
	return f.items[id], nil
}
func (f *fakeQueueStore) ListItems(_ context.Context, userID string, statuses []domain.GenerationStatus, limit, offset int) ([]*domain.QueueItem, int, error) {
	var out []*domain.QueueItem
	for _, item := range f.items {
		if item.UserID != userID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, st := range statuses {
				if item.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, item)
	}
	return out, len(out), nil
}
func (f *fakeQueueStore) ListPendingItems(_ context.Context) ([]*domain.QueueItem, error) {
	var out []*domain.QueueItem
	for _, item := range f.items {
		if !item.Status.IsTerminal() {
			c := *item
			out = append(out, &c)
		}
	}
	return out, nil
}
func (f *fakeQueueStore) DeleteTerminalBefore(_ context.Context, userID string, keep int) (int, error) {
	return 0, nil
}
func (f *fakeQueueStore) SaveBatch(_ context.Context, b *domain.GenerationBatch) error {
	c := *b
	f.batches[b.ID] = &c
	return nil
}
func (f *fakeQueueStore) UpdateBatch(_ context.Context, b *domain.GenerationBatch) error {
	c := *b
	f.batches[b.ID] = &c
	return nil
}
func (f *fakeQueueStore) GetBatch(_ context.Context, id string) (*domain.GenerationBatch, error) {
	return f.batches[id], nil
}
func (f *fakeQueueStore) ListBatches(_ context.Context, userID string, limit, offset int) ([]*domain.GenerationBatch, int, error) {
	return nil, 0, nil
}

type fakeProducer struct {
	normal     []*out.GenerationJob
	priority   []*out.GenerationJob
	itemStatus map[string]*out.ItemStatus
	batchProg  map[string]*out.BatchProgress
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{
		itemStatus: map[string]*out.ItemStatus{},
		batchProg:  map[string]*out.BatchProgress{},
	}
}

func (f *fakeProducer) PublishGeneration(_ context.Context, job *out.GenerationJob) error {
	f.normal = append(f.normal, job)
	return nil
}
func (f *fakeProducer) PublishPriority(_ context.Context, job *out.GenerationJob) error {
	f.priority = append(f.priority, job)
	return nil
}
func (f *fakeProducer) SetItemStatus(_ context.Context, id string, st *out.ItemStatus) error {
	f.itemStatus[id] = st
	return nil
}
func (f *fakeProducer) GetItemStatus(_ context.Context, id string) (*out.ItemStatus, error) {
	return f.itemStatus[id], nil
}
func (f *fakeProducer) SetBatchProgress(_ context.Context, id string, p *out.BatchProgress) error {
	f.batchProg[id] = p
	return nil
}
func (f *fakeProducer) GetBatchProgress(_ context.Context, id string) (*out.BatchProgress, error) {
	return f.batchProg[id], nil
}

type fakeAssetWriter struct {
	created []*domain.Asset
	fail    bool
}

func (f *fakeAssetWriter) Create(_ context.Context, a *domain.Asset) error {
	if f.fail {
		return context.DeadlineExceeded
	}
	f.created = append(f.created, a)
	return nil
}
func (f *fakeAssetWriter) Update(context.Context, *domain.Asset) error { return nil }
func (f *fakeAssetWriter) Delete(context.Context, string) error        { return nil }
func (f *fakeAssetWriter) GetByID(context.Context, string) (*domain.Asset, error) {
	return nil, nil
}
func (f *fakeAssetWriter) GetByIDs(context.Context, []string) (map[string]*domain.Asset, error) {
	return nil, nil
}
func (f *fakeAssetWriter) List(context.Context, string, *domain.AssetFilter) ([]*domain.Asset, int, error) {
	return nil, 0, nil
}
func (f *fakeAssetWriter) ListByCollection(context.Context, string, string, int, int) ([]*domain.Asset, int, error) {
	return nil, 0, nil
}
func (f *fakeAssetWriter) ListByGenerationBatch(context.Context, string) ([]*domain.Asset, error) {
	return nil, nil
}
func (f *fakeAssetWriter) UpdateStatus(context.Context, string, domain.AssetStatus) error { return nil }
func (f *fakeAssetWriter) UpdateTags(context.Context, string, []string) error             { return nil }
func (f *fakeAssetWriter) SetFavorite(context.Context, string, bool) error                { return nil }
func (f *fakeAssetWriter) AddToCollection(context.Context, string, string) error          { return nil }
func (f *fakeAssetWriter) RemoveFromCollection(context.Context, string, string) error     { return nil }
func (f *fakeAssetWriter) CountByKind(context.Context, string) (map[domain.AssetKind]int, error) {
	return nil, nil
}

// =============================================================================
// Harness
// =============================================================================

func newTestService(t *testing.T) (*Service, *fakeQueueStore, *fakeProducer, *fakeAssetWriter) {
	t.Helper()
	_ = snowflake.Init(1)
	store := newFakeQueueStore()
	producer := newFakeProducer()
	assets := &fakeAssetWriter{}
	return NewService(store, producer, assets), store, producer, assets
}

func imageRequest(prompt string) *domain.GenerationRequest {
	return &domain.GenerationRequest{Prompt: prompt, Kind: domain.GenerationKindImage}
}

func enqueue(t *testing.T, svc *Service, prompt string, priority domain.GenerationPriority) *domain.QueueItem {
	t.Helper()
	item, err := svc.Enqueue(context.Background(), "user-1", imageRequest(prompt), priority)
	if err != nil {
		t.Fatalf("Enqueue(%q) error = %v", prompt, err)
	}
	return item
}

// =============================================================================
// Tests
// =============================================================================

func TestEnqueueValidation(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *domain.GenerationRequest
	}{
		{"nil request", nil},
		{"missing prompt", &domain.GenerationRequest{Kind: domain.GenerationKindImage}},
		{"bad kind", &domain.GenerationRequest{Prompt: "x", Kind: "hologram"}},
		{"bad quality", &domain.GenerationRequest{Prompt: "x", Kind: domain.GenerationKindImage, Quality: "4k"}},
		{"bad format", &domain.GenerationRequest{Prompt: "x", Kind: domain.GenerationKindImage, Format: "billboard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Enqueue(ctx, "user-1", tt.req, domain.PriorityNormal); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
	if len(store.items) != 0 {
		t.Errorf("invalid requests reached the store: %d items", len(store.items))
	}
}

func TestEnqueuePublishesByTier(t *testing.T) {
	svc, _, producer, _ := newTestService(t)

	enqueue(t, svc, "normal 1", domain.PriorityNormal)
	high := enqueue(t, svc, "urgent", domain.PriorityHigh)

	if len(producer.normal) != 1 || len(producer.priority) != 1 {
		t.Fatalf("streams = %d normal / %d priority, want 1/1", len(producer.normal), len(producer.priority))
	}
	if producer.priority[0].ItemID != high.ID {
		t.Error("high priority job landed on the wrong stream")
	}
	if !strings.HasPrefix(high.ID, "gen_") {
		t.Errorf("item id %q lacks prefix", high.ID)
	}
}

func TestNextPendingPriorityFIFO(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	n1 := enqueue(t, svc, "normal 1", domain.PriorityNormal)
	n2 := enqueue(t, svc, "normal 2", domain.PriorityNormal)
	h1 := enqueue(t, svc, "high 1", domain.PriorityHigh)
	h2 := enqueue(t, svc, "high 2", domain.PriorityHigh)

	want := []string{h1.ID, h2.ID, n1.ID, n2.ID}
	for i, wantID := range want {
		item, ok := svc.NextPending(context.Background())
		if !ok {
			t.Fatalf("drain %d: queue empty", i)
		}
		if item.ID != wantID {
			t.Fatalf("drain %d: got %s, want %s", i, item.ID, wantID)
		}
		if err := svc.MarkProcessing(context.Background(), item.ID); err != nil {
			t.Fatalf("MarkProcessing() error = %v", err)
		}
	}
	if _, ok := svc.NextPending(context.Background()); ok {
		t.Error("queue should be drained")
	}
}

func TestMarkProcessingConflicts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	item := enqueue(t, svc, "x", domain.PriorityNormal)
	ctx := context.Background()

	if err := svc.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("first MarkProcessing() error = %v", err)
	}
	if err := svc.MarkProcessing(ctx, item.ID); err == nil {
		t.Error("double MarkProcessing should conflict")
	}
	if err := svc.MarkProcessing(ctx, "ghost"); err == nil {
		t.Error("unknown item should not be processable")
	}
}

func TestCompleteRegistersAsset(t *testing.T) {
	svc, store, _, assets := newTestService(t)
	ctx := context.Background()
	item := enqueue(t, svc, "a sunrise", domain.PriorityNormal)

	if err := svc.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := svc.Complete(ctx, item.ID, &domain.Asset{
		Kind: domain.AssetKindImage,
		Name: "a sunrise",
		URL:  "https://cdn/gen.png",
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if len(assets.created) != 1 {
		t.Fatalf("assets created = %d, want 1", len(assets.created))
	}
	asset := assets.created[0]
	if asset.Source != domain.AssetSourceAIGenerated {
		t.Errorf("source = %s, want ai-generated", asset.Source)
	}
	if asset.GenerationID != item.ID || asset.UserID != "user-1" {
		t.Errorf("provenance = %s/%s", asset.GenerationID, asset.UserID)
	}
	if !strings.HasPrefix(asset.ID, "asset_") {
		t.Errorf("asset id %q lacks prefix", asset.ID)
	}

	got, err := svc.GetItem(ctx, "user-1", item.ID)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if got.Status != domain.GenerationStatusComplete || got.Progress != 100 {
		t.Errorf("item = %s/%d, want complete/100", got.Status, got.Progress)
	}
	if got.ResultAssetID != asset.ID {
		t.Errorf("result asset = %q, want %q", got.ResultAssetID, asset.ID)
	}
	if store.items[item.ID].Status != domain.GenerationStatusComplete {
		t.Error("terminal state not persisted")
	}
}

func TestCompleteFailsWhenRegistrationFails(t *testing.T) {
	svc, _, _, assets := newTestService(t)
	ctx := context.Background()
	item := enqueue(t, svc, "x", domain.PriorityNormal)
	_ = svc.MarkProcessing(ctx, item.ID)

	assets.fail = true
	err := svc.Complete(ctx, item.ID, &domain.Asset{Kind: domain.AssetKindImage, URL: "u"})
	if err == nil {
		t.Fatal("Complete should surface the registration failure")
	}

	got, _ := svc.GetItem(ctx, "user-1", item.ID)
	if got.Status != domain.GenerationStatusProcessing {
		t.Errorf("status = %s, item should stay processing for a clean fail/retry", got.Status)
	}
}

func TestCancelDiscardsLateResult(t *testing.T) {
	svc, _, _, assets := newTestService(t)
	ctx := context.Background()
	item := enqueue(t, svc, "x", domain.PriorityNormal)
	_ = svc.MarkProcessing(ctx, item.ID)

	cancelled, err := svc.Cancel(ctx, "user-1", item.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != domain.GenerationStatusCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}

	// Backend finishes anyway; the result must be dropped
	if err := svc.Complete(ctx, item.ID, &domain.Asset{Kind: domain.AssetKindImage, URL: "u"}); err != nil {
		t.Fatalf("late Complete() error = %v", err)
	}
	if len(assets.created) != 0 {
		t.Error("late result was registered after cancellation")
	}

	got, _ := svc.GetItem(ctx, "user-1", item.ID)
	if got.Status != domain.GenerationStatusCancelled || got.ResultAssetID != "" {
		t.Errorf("item = %s/%q, want cancelled with no result", got.Status, got.ResultAssetID)
	}
}

func TestCancelTerminalIsNoOp(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	item := enqueue(t, svc, "x", domain.PriorityNormal)

	first, err := svc.Cancel(ctx, "user-1", item.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	// Cancelling again must succeed without touching the item.
	second, err := svc.Cancel(ctx, "user-1", item.ID)
	if err != nil {
		t.Fatalf("second Cancel() error = %v", err)
	}
	if second.Status != domain.GenerationStatusCancelled {
		t.Errorf("status = %s, want cancelled", second.Status)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("CompletedAt changed on repeat cancel: %v -> %v", first.CompletedAt, second.CompletedAt)
	}

	// Completed items are terminal too: cancel is a no-op, not an error.
	done := enqueue(t, svc, "y", domain.PriorityNormal)
	if err := svc.MarkProcessing(ctx, done.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := svc.Complete(ctx, done.ID, &domain.Asset{Kind: domain.AssetKindImage, URL: "u"}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	got, err := svc.Cancel(ctx, "user-1", done.ID)
	if err != nil {
		t.Fatalf("Cancel() on completed item error = %v", err)
	}
	if got.Status != domain.GenerationStatusComplete {
		t.Errorf("status = %s, want completed (cancel must not rewrite terminal state)", got.Status)
	}
}

func TestTransientFailureAutoRequeues(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	item := enqueue(t, svc, "x", domain.PriorityNormal)
	transient := &domain.GenerationError{Kind: domain.ErrorKindTransient, Message: "rate limited"}

	for attempt := 1; attempt <= DefaultMaxRetries; attempt++ {
		if err := svc.MarkProcessing(ctx, item.ID); err != nil {
			t.Fatalf("attempt %d: MarkProcessing() error = %v", attempt, err)
		}
		if err := svc.Fail(ctx, item.ID, transient); err != nil {
			t.Fatalf("attempt %d: Fail() error = %v", attempt, err)
		}
		got, _ := svc.GetItem(ctx, "user-1", item.ID)
		if got.Status != domain.GenerationStatusQueued {
			t.Fatalf("attempt %d: status = %s, want queued", attempt, got.Status)
		}
		if got.RetryCount != attempt {
			t.Fatalf("attempt %d: retries = %d", attempt, got.RetryCount)
		}
	}

	// Cap reached: the next transient failure is terminal
	_ = svc.MarkProcessing(ctx, item.ID)
	if err := svc.Fail(ctx, item.ID, transient); err != nil {
		t.Fatalf("final Fail() error = %v", err)
	}
	got, _ := svc.GetItem(ctx, "user-1", item.ID)
	if got.Status != domain.GenerationStatusFailed {
		t.Errorf("status = %s, want failed after cap", got.Status)
	}

	_, err := svc.Retry(ctx, "user-1", item.ID)
	if ae := apperr.AsAppError(err); ae == nil || ae.Code != apperr.CodeRetryExhausted {
		t.Errorf("Retry past cap error = %v, want retry exhausted", err)
	}
}

func TestRejectedFailureIsTerminal(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	item := enqueue(t, svc, "x", domain.PriorityNormal)
	_ = svc.MarkProcessing(ctx, item.ID)

	if err := svc.Fail(ctx, item.ID, &domain.GenerationError{
		Kind: domain.ErrorKindRejected, Message: "content policy",
	}); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	got, _ := svc.GetItem(ctx, "user-1", item.ID)
	if got.Status != domain.GenerationStatusFailed || got.RetryCount != 0 {
		t.Errorf("item = %s/%d, want failed with no auto-retry", got.Status, got.RetryCount)
	}

	_, err := svc.Retry(ctx, "user-1", item.ID)
	if ae := apperr.AsAppError(err); ae == nil || ae.Code != apperr.CodeConflict {
		t.Errorf("Retry of rejected error = %v, want conflict", err)
	}
}

func TestConfiguredRetryCap(t *testing.T) {
	_ = snowflake.Init(1)
	svc := NewServiceWithRetries(newFakeQueueStore(), newFakeProducer(), &fakeAssetWriter{}, 1)
	ctx := context.Background()
	item := enqueue(t, svc, "x", domain.PriorityNormal)
	transient := &domain.GenerationError{Kind: domain.ErrorKindTransient, Message: "rate limited"}

	if err := svc.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := svc.Fail(ctx, item.ID, transient); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	got, _ := svc.GetItem(ctx, "user-1", item.ID)
	if got.Status != domain.GenerationStatusQueued {
		t.Fatalf("status = %s, want queued within the cap", got.Status)
	}

	_ = svc.MarkProcessing(ctx, item.ID)
	if err := svc.Fail(ctx, item.ID, transient); err != nil {
		t.Fatalf("second Fail() error = %v", err)
	}
	got, _ = svc.GetItem(ctx, "user-1", item.ID)
	if got.Status != domain.GenerationStatusFailed {
		t.Errorf("status = %s, want failed once the cap of 1 is spent", got.Status)
	}

	// A non-positive cap falls back to the default.
	fallback := NewServiceWithRetries(newFakeQueueStore(), newFakeProducer(), &fakeAssetWriter{}, 0)
	if fallback.maxRetries != DefaultMaxRetries {
		t.Errorf("maxRetries = %d, want default %d", fallback.maxRetries, DefaultMaxRetries)
	}
}

func TestRetryRejoinsTierTail(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	first := enqueue(t, svc, "first", domain.PriorityNormal)
	_ = svc.MarkProcessing(ctx, first.ID)
	_ = svc.Fail(ctx, first.ID, &domain.GenerationError{Kind: domain.ErrorKindTransient, Message: "timeout"})

	second := enqueue(t, svc, "second", domain.PriorityNormal)
	third := enqueue(t, svc, "third", domain.PriorityNormal)

	_ = svc.MarkProcessing(ctx, second.ID)
	_ = svc.Fail(ctx, second.ID, &domain.GenerationError{Kind: domain.ErrorKindTransient, Message: "timeout"})

	// second's requeue got a fresh Seq, so it now drains after third
	want := []string{first.ID, third.ID, second.ID}
	for i, wantID := range want {
		next, ok := svc.NextPending(ctx)
		if !ok || next.ID != wantID {
			t.Fatalf("drain %d = %v, want %s", i, next, wantID)
		}
		_ = svc.MarkProcessing(ctx, next.ID)
	}
}

func TestBatchLifecycle(t *testing.T) {
	svc, _, producer, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.EnqueueBatch(ctx, "user-1", &in.BatchGenerationRequest{
		Requests: []*domain.GenerationRequest{
			imageRequest("one"), imageRequest("two"), imageRequest("three"),
		},
	})
	if err != nil {
		t.Fatalf("EnqueueBatch() error = %v", err)
	}
	if !strings.HasPrefix(resp.Batch.ID, "batch_") {
		t.Errorf("batch id %q lacks prefix", resp.Batch.ID)
	}
	if len(resp.Items) != 3 || resp.Batch.TotalCount != 3 {
		t.Fatalf("batch shape = %d items / total %d", len(resp.Items), resp.Batch.TotalCount)
	}

	// one completes, one fails, one is cancelled
	_ = svc.MarkProcessing(ctx, resp.Items[0].ID)
	if err := svc.Complete(ctx, resp.Items[0].ID, &domain.Asset{Kind: domain.AssetKindImage, URL: "u"}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	_ = svc.MarkProcessing(ctx, resp.Items[1].ID)
	_ = svc.Fail(ctx, resp.Items[1].ID, &domain.GenerationError{Kind: domain.ErrorKindRejected, Message: "no"})
	if _, err := svc.Cancel(ctx, "user-1", resp.Items[2].ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	batch, err := svc.GetBatch(ctx, "user-1", resp.Batch.ID)
	if err != nil {
		t.Fatalf("GetBatch() error = %v", err)
	}
	if batch.CompletedCount != 1 || batch.FailedCount != 1 || batch.CancelledCount != 1 {
		t.Errorf("tallies = %d/%d/%d", batch.CompletedCount, batch.FailedCount, batch.CancelledCount)
	}
	if !batch.Done() || batch.Status != domain.GenerationStatusComplete {
		t.Errorf("batch not closed: %s", batch.Status)
	}
	if len(batch.AssetIDs) != 1 {
		t.Errorf("asset ids = %v", batch.AssetIDs)
	}

	if prog := producer.batchProg[batch.ID]; prog == nil || prog.Completed != 1 {
		t.Error("batch progress not mirrored to the status cache")
	}
}

func TestEnqueueBatchAllOrNothing(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.EnqueueBatch(context.Background(), "user-1", &in.BatchGenerationRequest{
		Requests: []*domain.GenerationRequest{
			imageRequest("good"),
			{Kind: domain.GenerationKindImage}, // missing prompt
		},
	})
	if ae := apperr.AsAppError(err); ae == nil || ae.Code != apperr.CodeValidationFailed {
		t.Fatalf("error = %v, want validation failure", err)
	}
	if len(store.items) != 0 {
		t.Error("partial batch reached the store")
	}
}

func TestEnqueueBatchUnwindsOnStoreFailure(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	store.failSaveAfter = 1 // first member admits, second member's save fails

	_, err := svc.EnqueueBatch(context.Background(), "user-1", &in.BatchGenerationRequest{
		Requests: []*domain.GenerationRequest{
			imageRequest("first"),
			imageRequest("second"),
		},
	})
	if ae := apperr.AsAppError(err); ae == nil || ae.Code != apperr.CodeDatabaseError {
		t.Fatalf("error = %v, want database error", err)
	}

	// The admitted member must not stay queued against a dead batch.
	if _, ok := svc.NextPending(context.Background()); ok {
		t.Error("unwound batch member is still pending")
	}
	counts, _ := svc.Counts(context.Background(), "user-1")
	if counts[domain.GenerationStatusQueued] != 0 {
		t.Errorf("queued = %d, want 0 after unwind", counts[domain.GenerationStatusQueued])
	}

	for _, item := range store.items {
		if item.Status != domain.GenerationStatusCancelled {
			t.Errorf("stored member %s is %s, want cancelled", item.ID, item.Status)
		}
	}
	for _, b := range store.batches {
		if b.Status != domain.GenerationStatusFailed {
			t.Errorf("stored batch is %s, want failed", b.Status)
		}
	}
}

func TestCountsAndOwnership(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	item := enqueue(t, svc, "mine", domain.PriorityNormal)
	if _, err := svc.GetItem(ctx, "intruder", item.ID); err == nil {
		t.Error("foreign read should fail")
	}
	if _, err := svc.Cancel(ctx, "intruder", item.ID); err == nil {
		t.Error("foreign cancel should fail")
	}

	counts, err := svc.Counts(ctx, "user-1")
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts[domain.GenerationStatusQueued] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRestoreRequeuesInFlight(t *testing.T) {
	_ = snowflake.Init(1)
	store := newFakeQueueStore()
	store.items["gen_a"] = &domain.QueueItem{
		ID: "gen_a", UserID: "user-1", Status: domain.GenerationStatusProcessing,
		Progress: 40, Request: *imageRequest("restore me"),
	}
	store.items["gen_b"] = &domain.QueueItem{
		ID: "gen_b", UserID: "user-1", Status: domain.GenerationStatusComplete,
		Request: *imageRequest("done"),
	}

	svc := NewService(store, newFakeProducer(), &fakeAssetWriter{})
	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	got, err := svc.GetItem(context.Background(), "user-1", "gen_a")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if got.Status != domain.GenerationStatusQueued || got.Progress != 0 {
		t.Errorf("restored item = %s/%d, want queued/0", got.Status, got.Progress)
	}

	if _, ok := svc.NextPending(context.Background()); !ok {
		t.Error("restored item should be drainable")
	}
}

func TestUpdateProgressMonotonic(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	item := enqueue(t, svc, "x", domain.PriorityNormal)
	_ = svc.MarkProcessing(ctx, item.ID)

	for _, p := range []int{30, 60, 45, 110} {
		if err := svc.UpdateProgress(ctx, item.ID, p); err != nil {
			t.Fatalf("UpdateProgress(%d) error = %v", p, err)
		}
	}

	got, _ := svc.GetItem(ctx, "user-1", item.ID)
	if got.Progress != 100 {
		t.Errorf("progress = %d, want clamped monotonic 100", got.Progress)
	}
}
