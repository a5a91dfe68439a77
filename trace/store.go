// Package trace implements a ring buffer of observed message events, used
// both as an agent's own message trace and, filtered by correlation id, as
// its peer presence table.
package trace

import (
	"sync"
	"time"
)

// Event records a single message observed by an agent, either sent or
// received.
type Event struct {
	// Category groups related events; callers filter by it (e.g. a
	// behaviour name, or a presence-ping correlation id).
	Category string

	// AppID is the sending agent's identity, taken from the message's
	// app_id header; empty for events this agent itself produced.
	AppID string

	// Type is the message's declared type, e.g. "PingControl".
	Type string

	// CorrelationID links a request to its response, when set.
	CorrelationID string

	// Sent is true for outbound events, false for inbound ones.
	Sent bool

	// Timestamp records when the event was observed.
	Timestamp time.Time

	// Body carries the raw message payload, for inspection/debugging.
	Body []byte
}

// Store is a fixed-capacity ring buffer: the newest event is always at
// index 0, and insertion beyond Size evicts the oldest (tail) entry.
type Store struct {
	mu    sync.Mutex
	size  int
	items []Event
}

// NewStore returns a Store retaining at most size events.
func NewStore(size int) *Store {
	if size <= 0 {
		size = 1
	}
	return &Store{size: size}
}

// Insert adds e as the newest event, evicting the oldest if the store is at
// capacity.
func (s *Store) Insert(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]Event{e}, s.items...)
	if len(s.items) > s.size {
		s.items = s.items[:s.size]
	}
}

// Len returns the number of events currently retained.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Latest returns the most recently inserted event, if any.
func (s *Store) Latest() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return Event{}, false
	}
	return s.items[0], true
}

// All returns up to limit of the newest events, oldest-first. limit <= 0
// means "no limit".
func (s *Store) All(limit int) []Event {
	return s.window(func(Event) bool { return true }, limit)
}

// Filter returns up to limit of the newest events matching appID and/or
// category (either may be left blank to skip that constraint), oldest-first
// within that window.
func (s *Store) Filter(limit int, appID, category string) []Event {
	return s.window(func(e Event) bool {
		if appID != "" && e.AppID != appID {
			return false
		}
		if category != "" && e.Category != category {
			return false
		}
		return true
	}, limit)
}

// Received returns up to limit of the newest inbound (non-Sent) events,
// oldest-first within that window.
func (s *Store) Received(limit int) []Event {
	return s.window(func(e Event) bool { return !e.Sent }, limit)
}

// window collects matching events newest-first up to limit, then reverses
// the slice so the result reads oldest-first - matching the reference
// store's query semantics.
func (s *Store) window(match func(Event) bool, limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, e := range s.items {
		if !match(e) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
