package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinereviews/internal/queue"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReviewEvent
	done   chan struct{}
}

func (r *recordingPublisher) PublishReviewEvent(_ context.Context, ev queue.ReviewEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func TestPublish_RunsInBackground(t *testing.T) {
	rp := &recordingPublisher{done: make(chan struct{})}
	Publish(rp, queue.NewReviewEvent(queue.ReviewCreated, "r-1", "m-1", nil, 4))

	select {
	case <-rp.done:
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}
	rp.mu.Lock()
	defer rp.mu.Unlock()
	assert.Equal(t, queue.ReviewCreated, rp.events[0].Type)
}

func TestPublish_NilAndNop(t *testing.T) {
	Publish(nil, queue.ReviewEvent{})
	assert.NoError(t, NopPublisher{}.PublishReviewEvent(context.Background(), queue.ReviewEvent{}))
}
