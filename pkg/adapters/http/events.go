package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/passage/internal/logging"
	"github.com/aretw0/passage/pkg/ports"
)

// SSE event names.
const (
	EventOutcome = "outcome"
	EventCatalog = "catalog"
)

// subscriberBuffer is the number of events a slow client may lag behind.
const subscriberBuffer = 10

// Event is one Server-Sent Event.
type Event struct {
	Name string
	Data string
}

// StreamManager fans session events out to SSE clients.
type StreamManager struct {
	mu       sync.RWMutex
	sessions map[string]map[chan Event]struct{}
	logger   *slog.Logger
}

// StreamOption configures a StreamManager.
type StreamOption func(*StreamManager)

// WithStreamLogger sets the logger used for dropped events.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(sm *StreamManager) {
		sm.logger = logger
	}
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(opts ...StreamOption) *StreamManager {
	sm := &StreamManager{
		sessions: make(map[string]map[chan Event]struct{}),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe registers a client for the events of sessionID.
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	sm.mu.Lock()
	subs, ok := sm.sessions[sessionID]
	if !ok {
		subs = make(map[chan Event]struct{})
		sm.sessions[sessionID] = subs
	}
	subs[ch] = struct{}{}
	sm.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.sessions, sessionID)
			}
		})
	}
}

// Subscribers reports how many clients follow sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions[sessionID])
}

// Broadcast sends ev to every subscriber of the session.
// Subscribers with a full buffer miss the event.
func (sm *StreamManager) Broadcast(sessionID string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.sessions[sessionID] {
		select {
		case ch <- ev:
		default:
			sm.logger.Warn("Dropping SSE event for slow client", "session_id", sessionID, "event", ev.Name)
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
// With a session_id it streams the outcomes of that session; without one it
// streams catalog reloads when the navigator can watch its routes.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var events <-chan Event
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		ch, unsubscribe := s.Streams.Subscribe(sessionID)
		defer unsubscribe()
		events = ch
	} else {
		watcher, ok := s.Navigator.(ports.Watchable)
		if !ok {
			http.Error(w, "Watching not supported", http.StatusNotImplemented)
			return
		}
		changes, err := watcher.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		events = catalogEvents(r.Context(), changes)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent(w, Event{Name: "ping", Data: "connected"})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, ev)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev Event) {
	if ev.Name != "" {
		fmt.Fprintf(w, "event: %s\n", ev.Name)
	}
	fmt.Fprintf(w, "data: %s\n\n", ev.Data)
}

// catalogEvents turns watch notifications into catalog events.
func catalogEvents(ctx context.Context, changes <-chan struct{}) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for range changes {
			select {
			case out <- Event{Name: EventCatalog, Data: "reload"}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
