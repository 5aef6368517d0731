package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storyreel/api/internal/model"
)

// stubResolver returns views driven by the call number, so a test can script
// a status progression without a backend.
type stubResolver struct {
	calls atomic.Int64
	view  func(call int64) *model.RenderJob
}

func (s *stubResolver) Resolve(ctx context.Context, jobID string) (*model.RenderJob, error) {
	n := s.calls.Add(1)
	return s.view(n), nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *Hub) watcherCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}

func (h *Hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) subscriberCount(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[jobID])
}

func TestHubBroadcastsUntilTerminal(t *testing.T) {
	resolver := &stubResolver{view: func(call int64) *model.RenderJob {
		if call == 1 {
			return &model.RenderJob{JobID: "job-1", Status: model.JobStatusProcessing, Progress: 40}
		}
		return &model.RenderJob{JobID: "job-1", Status: model.JobStatusCompleted, Progress: 100}
	}}
	hub := NewHub(resolver, 5*time.Millisecond)
	go hub.Run()

	client := &Client{JobID: "job-1", Send: make(chan []byte, 16)}
	hub.register <- client

	var last model.RenderJob
	deadline := time.After(2 * time.Second)
	for last.Status != model.JobStatusCompleted {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				t.Fatal("send channel closed before terminal status")
			}
			if err := json.Unmarshal(msg, &last); err != nil {
				t.Fatalf("failed to parse broadcast: %v", err)
			}
			if last.JobID != "job-1" {
				t.Fatalf("unexpected job id %q", last.JobID)
			}
		case <-deadline:
			t.Fatal("no terminal status within deadline")
		}
	}
	if last.Progress != 100 {
		t.Errorf("expected progress 100 at completion, got %d", last.Progress)
	}

	// The watcher stops at the terminal status even though the client is
	// still subscribed.
	waitFor(t, "watcher to stop", func() bool { return hub.watcherCount() == 0 })

	settled := resolver.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := resolver.calls.Load(); got != settled {
		t.Errorf("resolver still polled after terminal status: %d -> %d", settled, got)
	}

	hub.unregister <- client
	waitFor(t, "client to unregister", func() bool { return hub.clientCount() == 0 })
}

// A subscriber that never drains its send channel gets dropped, and when it
// was the last subscriber the job's watcher must stop with it.
func TestHubDropsSlowConsumerAndStopsWatcher(t *testing.T) {
	resolver := &stubResolver{view: func(int64) *model.RenderJob {
		return &model.RenderJob{JobID: "job-2", Status: model.JobStatusProcessing, Progress: 10}
	}}
	hub := NewHub(resolver, 5*time.Millisecond)
	go hub.Run()

	// Unbuffered and never read: the first broadcast drops the client.
	client := &Client{JobID: "job-2", Send: make(chan []byte)}
	hub.register <- client

	waitFor(t, "slow consumer cleanup", func() bool {
		return hub.clientCount() == 0 && hub.watcherCount() == 0
	})

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Error("expected closed send channel, got a delivery")
		}
	case <-time.After(time.Second):
		t.Error("send channel was not closed")
	}
}

func TestHubSharesOneWatcherPerJob(t *testing.T) {
	resolver := &stubResolver{view: func(int64) *model.RenderJob {
		return &model.RenderJob{JobID: "job-3", Status: model.JobStatusProcessing, Progress: 20}
	}}
	hub := NewHub(resolver, 5*time.Millisecond)
	go hub.Run()

	first := &Client{JobID: "job-3", Send: make(chan []byte, 1024)}
	second := &Client{JobID: "job-3", Send: make(chan []byte, 1024)}
	hub.register <- first
	hub.register <- second

	waitFor(t, "both subscribers to receive", func() bool {
		return len(first.Send) > 0 && len(second.Send) > 0
	})
	if got := hub.watcherCount(); got != 1 {
		t.Errorf("expected one watcher for the job, got %d", got)
	}

	// The watcher survives until the last subscriber leaves.
	hub.unregister <- first
	waitFor(t, "first client to unregister", func() bool { return hub.subscriberCount("job-3") == 1 })
	if got := hub.watcherCount(); got != 1 {
		t.Errorf("watcher stopped while a subscriber remained")
	}

	hub.unregister <- second
	waitFor(t, "watcher to stop", func() bool { return hub.watcherCount() == 0 })
}
