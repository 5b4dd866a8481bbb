package api

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/abdulachik/postcraft/internal/pipeline"
)

const clientBuffer = 64

// subscriber is one websocket waiting for a batch's events.
type subscriber struct {
	batchID string
	send    chan []byte
}

// Hub fans batch progress events out to websocket subscribers. Publish
// never blocks; a subscriber that falls behind loses events.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

func (h *Hub) subscribe(batchID string) *subscriber {
	s := &subscriber{batchID: batchID, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[batchID] == nil {
		h.subs[batchID] = make(map[*subscriber]struct{})
	}
	h.subs[batchID][s] = struct{}{}
	return s
}

// unsubscribe removes s and closes its channel if the hub has not already.
func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(s)
}

func (h *Hub) remove(s *subscriber) {
	set, ok := h.subs[s.batchID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.send)
	if len(set) == 0 {
		delete(h.subs, s.batchID)
	}
}

// Subscribers returns the number of listeners for a batch.
func (h *Hub) Subscribers(batchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[batchID])
}

// Publish delivers e to the batch's subscribers. Terminal events close
// the subscriptions after delivery.
func (h *Hub) Publish(e pipeline.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		slog.Warn("encode progress event failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[e.BatchID] {
		select {
		case s.send <- msg:
		default:
			slog.Warn("progress subscriber is slow, dropping event", "batch_id", e.BatchID, "type", e.Type)
		}
	}

	if terminal(e.Type) {
		for s := range h.subs[e.BatchID] {
			h.remove(s)
		}
	}
}

func terminal(eventType string) bool {
	return eventType == pipeline.EventBatchCompleted || eventType == pipeline.EventBatchFailed
}
