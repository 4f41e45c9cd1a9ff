package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every normalized event in memory. Stores under test and
// the examples use it to observe preset and remember lifecycles. Set Err to
// simulate a failing sink.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records the event and returns Err.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Verbs returns the verbs recorded so far, in order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.Events))
	for i, event := range h.Events {
		verbs[i] = event.Verb
	}
	return verbs
}

// Find returns the most recent event with verb.
func (h *CaptureHook) Find(verb string) (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.Events) - 1; i >= 0; i-- {
		if h.Events[i].Verb == verb {
			return h.Events[i], true
		}
	}
	return Event{}, false
}

// ForObject returns the verbs recorded for one object id, in order.
func (h *CaptureHook) ForObject(objectID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var verbs []string
	for _, event := range h.Events {
		if event.ObjectID == objectID {
			verbs = append(verbs, event.Verb)
		}
	}
	return verbs
}
