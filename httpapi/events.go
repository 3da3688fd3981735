package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/Pharbi/arachnid/types"
)

// eventKind names the SSE event types spec §6 defines.
type eventKind string

const (
	eventAgentSpawned    eventKind = "agent_spawned"
	eventSignalsUpdated  eventKind = "signals_updated"
	eventWebStateChanged eventKind = "web_state_changed"
)

// webEvent is published to every subscriber watching its WebID.
type webEvent struct {
	Type  eventKind   `json:"type"`
	WebID types.WebID `json:"web_id"`
	State string      `json:"state,omitempty"`
}

// eventHub fans webEvents out to the SSE subscribers of each web. It holds
// no history: a subscriber only sees events published while connected,
// matching the store's own "reads need not be linearizable" posture.
type eventHub struct {
	mu          sync.Mutex
	subscribers map[types.WebID]map[chan webEvent]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subscribers: make(map[types.WebID]map[chan webEvent]struct{})}
}

func (h *eventHub) subscribe(webID types.WebID) chan webEvent {
	ch := make(chan webEvent, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[webID] == nil {
		h.subscribers[webID] = make(map[chan webEvent]struct{})
	}
	h.subscribers[webID][ch] = struct{}{}
	return ch
}

func (h *eventHub) unsubscribe(webID types.WebID, ch chan webEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[webID], ch)
	if len(h.subscribers[webID]) == 0 {
		delete(h.subscribers, webID)
	}
	close(ch)
}

func (h *eventHub) publish(webID types.WebID, evt webEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[webID] {
		select {
		case ch <- evt:
		default:
			// Slow subscriber: drop rather than block the publisher.
		}
	}
}

// handleWebEvents streams agent_spawned, signals_updated, and
// web_state_changed events for one web as server-sent events until the
// client disconnects (spec §6).
func (s *Server) handleWebEvents(w http.ResponseWriter, r *http.Request) {
	webID, err := webIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.store.GetWeb(r.Context(), webID); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.events.subscribe(webID)
	defer s.events.unsubscribe(webID, ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
			flusher.Flush()
		}
	}
}
