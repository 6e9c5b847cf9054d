package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"adhypo/domain/core"
	"adhypo/domain/run"
)

// Event types streamed for a run
const (
	EventTask      = "task"
	EventCompleted = "run_completed"
	EventFailed    = "run_failed"
)

// RunEvent is one progress update for a run
type RunEvent struct {
	RunID     core.RunID     `json:"run_id"`
	EventType string         `json:"event_type"`
	Task      *run.LogEntry  `json:"task,omitempty"`
	Status    run.Status     `json:"status,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Final reports whether no more events follow for the run
func (e RunEvent) Final() bool {
	return e.EventType == EventCompleted || e.EventType == EventFailed
}

// DefaultFinishedRuns is how many finished runs keep their last event
const DefaultFinishedRuns = 256

// EventHub fans run events out to Server-Sent Events subscribers. The last
// event of recently finished runs is kept so late subscribers still see how
// they ended; older runs are answered from the run store.
type EventHub struct {
	mu       sync.RWMutex
	clients  map[core.RunID]map[chan RunEvent]struct{}
	finished *lru.Cache[core.RunID, RunEvent]
	buffer   int
	ping     time.Duration
	logger   *slog.Logger
}

func NewEventHub(logger *slog.Logger) *EventHub {
	return newEventHub(DefaultFinishedRuns, logger)
}

func newEventHub(keep int, logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	if keep < 1 {
		keep = DefaultFinishedRuns
	}
	finished, err := lru.New[core.RunID, RunEvent](keep)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &EventHub{
		clients:  make(map[core.RunID]map[chan RunEvent]struct{}),
		finished: finished,
		buffer:   16,
		ping:     30 * time.Second,
		logger:   logger,
	}
}

// Subscribe registers a listener for id. The returned cancel func must be
// called once the listener is done.
func (h *EventHub) Subscribe(id core.RunID) (<-chan RunEvent, func()) {
	ch := make(chan RunEvent, h.buffer)

	h.mu.Lock()
	if last, ok := h.finished.Get(id); ok {
		h.mu.Unlock()
		ch <- last
		close(ch)
		return ch, func() {}
	}
	if h.clients[id] == nil {
		h.clients[id] = make(map[chan RunEvent]struct{})
	}
	h.clients[id][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if clients, ok := h.clients[id]; ok {
				if _, ok := clients[ch]; ok {
					delete(clients, ch)
					close(ch)
				}
				if len(clients) == 0 {
					delete(h.clients, id)
				}
			}
		})
	}
}

// Publish delivers event to every subscriber of its run. Slow subscribers
// miss events rather than block the run; the final event closes their
// channels.
func (h *EventHub) Publish(event RunEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients[event.RunID] {
		select {
		case ch <- event:
		default:
			h.logger.Warn("event subscriber is full, dropping event", "run_id", event.RunID, "event", event.EventType)
		}
	}
	if event.Final() {
		h.finished.Add(event.RunID, event)
		for ch := range h.clients[event.RunID] {
			close(ch)
		}
		delete(h.clients, event.RunID)
	}
}

// Subscribers returns the number of listeners for id
func (h *EventHub) Subscribers(id core.RunID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[id])
}

// Stream writes the events of run id to c until the run finishes or the
// client goes away.
func (h *EventHub) Stream(c *gin.Context, id core.RunID) {
	events, cancel := h.Subscribe(id)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	ping := time.NewTicker(h.ping)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal run event", "run_id", id, "error", err)
				return true
			}
			c.SSEvent(event.EventType, string(payload))
			return !event.Final()
		case <-ping.C:
			c.SSEvent("ping", `{"status":"alive"}`)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
