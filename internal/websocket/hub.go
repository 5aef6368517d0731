// Package websocket pushes render-job status to subscribed clients so the
// progress UI does not have to poll over HTTP. The hub polls the resolver
// once per watched job regardless of how many clients subscribe to it.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/storyreel/api/internal/model"
)

// StatusResolver is the resolver contract the hub polls. Satisfied by
// service.RenderService.
type StatusResolver interface {
	Resolve(ctx context.Context, jobID string) (*model.RenderJob, error)
}

// Client represents a WebSocket client
type Client struct {
	JobID string
	Conn  *websocket.Conn
	Send  chan []byte
}

// Hub maintains active WebSocket connections grouped by job id and runs one
// status watcher per watched job.
type Hub struct {
	resolver StatusResolver
	interval time.Duration

	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *statusMessage

	watchers map[string]context.CancelFunc

	mu sync.RWMutex
}

type statusMessage struct {
	jobID   string
	payload []byte
}

// NewHub creates a hub that polls resolver at the given interval while a job
// has subscribers.
func NewHub(resolver StatusResolver, interval time.Duration) *Hub {
	return &Hub{
		resolver:   resolver,
		interval:   interval,
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *statusMessage, 256),
		watchers:   make(map[string]context.CancelFunc),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.JobID] == nil {
				h.clients[client.JobID] = make(map[*Client]bool)
			}
			h.clients[client.JobID][client] = true
			if _, ok := h.watchers[client.JobID]; !ok {
				ctx, cancel := context.WithCancel(context.Background())
				h.watchers[client.JobID] = cancel
				go h.watch(ctx, client.JobID)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.JobID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.JobID)
						h.stopWatcher(client.JobID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			if clients, ok := h.clients[msg.jobID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.payload:
					default:
						// Slow consumer, drop it
						close(client.Send)
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.jobID)
					h.stopWatcher(msg.jobID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// watch polls the resolver and broadcasts each view until the job reaches a
// terminal state or the last subscriber disconnects.
func (h *Hub) watch(ctx context.Context, jobID string) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		job, err := h.resolver.Resolve(ctx, jobID)
		if err != nil {
			log.Printf("Status watch for job %s failed: %v", jobID, err)
		} else {
			payload, err := json.Marshal(job)
			if err == nil {
				h.broadcast <- &statusMessage{jobID: jobID, payload: payload}
			}
			if job.Status == model.JobStatusCompleted || job.Status == model.JobStatusFailed {
				h.mu.Lock()
				h.stopWatcher(jobID)
				h.mu.Unlock()
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// stopWatcher cancels a job's watcher. Caller must hold h.mu.
func (h *Hub) stopWatcher(jobID string) {
	if cancel, ok := h.watchers[jobID]; ok {
		cancel()
		delete(h.watchers, jobID)
	}
}

// HandleConnection serves a client connection until it closes. Runs on the
// websocket handler's goroutine.
func (h *Hub) HandleConnection(conn *websocket.Conn, jobID string) {
	client := &Client{
		JobID: jobID,
		Conn:  conn,
		Send:  make(chan []byte, 16),
	}
	h.register <- client

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister <- client
				<-done
				return
			}
		case <-done:
			h.unregister <- client
			return
		}
	}
}
