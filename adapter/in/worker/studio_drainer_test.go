package worker

import (
	"context"
	"testing"
	"time"

	"studio_server/core/domain"

	"github.com/rs/zerolog"
)

type fakePendingSource struct {
	items []*domain.QueueItem
}

func (f *fakePendingSource) NextPending(_ context.Context) (*domain.QueueItem, bool) {
	if len(f.items) == 0 {
		return nil, false
	}
	item := *f.items[0]
	return &item, true
}

// claim simulates the processor taking the head item out of queued state.
func (f *fakePendingSource) claim() {
	if len(f.items) > 0 {
		f.items = f.items[1:]
	}
}

type fakeSubmitter struct {
	accept   bool
	messages []*Message
}

func (f *fakeSubmitter) Submit(msg *Message) bool {
	if !f.accept {
		return false
	}
	f.messages = append(f.messages, msg)
	return true
}

func queuedItem(id string) *domain.QueueItem {
	return &domain.QueueItem{
		ID:     id,
		UserID: "u1",
		Status: domain.GenerationStatusQueued,
		Request: domain.GenerationRequest{
			Kind:   domain.GenerationKindImage,
			Prompt: "sunset over mountains",
		},
	}
}

func TestDrainerHandsQueuedItemsToPool(t *testing.T) {
	source := &fakePendingSource{items: []*domain.QueueItem{queuedItem("q1"), queuedItem("q2")}}
	sink := &fakeSubmitter{accept: true}
	d := NewDrainer(source, sink, zerolog.Nop())

	if !d.drainOne(context.Background()) {
		t.Fatal("first item was not handed to the pool")
	}
	// Same head item still queued: must not be submitted twice.
	if d.drainOne(context.Background()) {
		t.Fatal("unclaimed item was resubmitted")
	}

	source.claim()
	if !d.drainOne(context.Background()) {
		t.Fatal("second item was not handed to the pool")
	}

	if len(sink.messages) != 2 {
		t.Fatalf("submitted = %d, want 2", len(sink.messages))
	}
	if sink.messages[0].ID != "q1" || sink.messages[1].ID != "q2" {
		t.Errorf("order = %s, %s; want q1, q2", sink.messages[0].ID, sink.messages[1].ID)
	}
	if sink.messages[0].Type != JobImageGeneration {
		t.Errorf("job type = %s, want %s", sink.messages[0].Type, JobImageGeneration)
	}
}

func TestDrainerResubmitsRetriedItem(t *testing.T) {
	item := queuedItem("q1")
	source := &fakePendingSource{items: []*domain.QueueItem{item}}
	sink := &fakeSubmitter{accept: true}
	d := NewDrainer(source, sink, zerolog.Nop())

	if !d.drainOne(context.Background()) {
		t.Fatal("initial attempt was not submitted")
	}

	// The item failed and rejoined the queue with a bumped retry count.
	item.RetryCount = 1
	if !d.drainOne(context.Background()) {
		t.Fatal("retried item was not resubmitted")
	}
	if got := sink.messages[1].Job.Attempt; got != 1 {
		t.Errorf("resubmitted attempt = %d, want 1", got)
	}
}

func TestDrainerBacksOffWhenPoolFull(t *testing.T) {
	source := &fakePendingSource{items: []*domain.QueueItem{queuedItem("q1")}}
	sink := &fakeSubmitter{accept: false}
	d := NewDrainer(source, sink, zerolog.Nop())

	if d.drainOne(context.Background()) {
		t.Fatal("refused submission reported progress")
	}

	// Pool frees up: the item must go through on the next tick.
	sink.accept = true
	if !d.drainOne(context.Background()) {
		t.Fatal("item was not retried after the pool freed up")
	}
}

func TestDrainerRunStopsOnCancel(t *testing.T) {
	d := NewDrainer(&fakePendingSource{}, &fakeSubmitter{accept: true}, zerolog.Nop())
	d.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
