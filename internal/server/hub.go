package server

import (
	"sync"
	"time"
)

// RunEvent is one stage transition of an in-flight analysis run.
type RunEvent struct {
	RunID string    `json:"run_id"`
	Stage string    `json:"stage"`
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}

// RunHub fans stage progress out to websocket watchers. Events are
// buffered per run so a watcher that connects mid-run still sees the
// transitions it missed.
type RunHub struct {
	mu      sync.Mutex
	subs    map[string]map[chan RunEvent]struct{}
	history map[string][]RunEvent
	done    map[string]bool
}

func NewRunHub() *RunHub {
	return &RunHub{
		subs:    make(map[string]map[chan RunEvent]struct{}),
		history: make(map[string][]RunEvent),
		done:    make(map[string]bool),
	}
}

func (h *RunHub) Publish(runID, stage, event string) {
	evt := RunEvent{RunID: runID, Stage: stage, Event: event, At: time.Now().UTC()}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done[runID] {
		return
	}
	h.history[runID] = append(h.history[runID], evt)
	for ch := range h.subs[runID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Finish publishes the terminal event and closes all subscriber channels.
// Run state is dropped; watchers of finished runs get only the close.
func (h *RunHub) Finish(runID, event string) {
	h.Publish(runID, "run", event)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done[runID] = true
	for ch := range h.subs[runID] {
		close(ch)
	}
	delete(h.subs, runID)
	delete(h.history, runID)
}

// Subscribe returns a channel replaying past events of the run, then live
// ones. The returned cancel must be called when the watcher disconnects.
func (h *RunHub) Subscribe(runID string) (<-chan RunEvent, func()) {
	h.mu.Lock()
	// Sized so the history replay below can never block while mu is held.
	ch := make(chan RunEvent, len(h.history[runID])+64)
	if h.done[runID] {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	for _, evt := range h.history[runID] {
		ch <- evt
	}
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[chan RunEvent]struct{})
	}
	h.subs[runID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[runID]; ok {
			if _, subscribed := set[ch]; subscribed {
				delete(set, ch)
				close(ch)
			}
		}
	}
	return ch, cancel
}
