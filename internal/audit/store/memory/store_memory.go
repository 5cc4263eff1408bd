// Package memory provides an in-memory audit store for tests and
// single-process deployments. Append-only; events and links are copied in
// and out so callers can never mutate stored records.
package memory

import (
	"context"
	"sync"

	"veritrail/internal/audit"
	id "veritrail/pkg/domain"
)

// Store implements audit.Store in memory.
type Store struct {
	mu     sync.RWMutex
	events map[id.SessionID][]audit.Event
	links  map[id.OutputID][]audit.TraceabilityLink
}

// New creates an empty in-memory audit store.
func New() *Store {
	return &Store{
		events: make(map[id.SessionID][]audit.Event),
		links:  make(map[id.OutputID][]audit.TraceabilityLink),
	}
}

// AppendEvent stores one event in session append order.
func (s *Store) AppendEvent(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.SessionID] = append(s.events[event.SessionID], cloneEvent(event))
	return nil
}

// AppendLink stores one traceability link in creation order.
func (s *Store) AppendLink(ctx context.Context, link audit.TraceabilityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link.OutputID] = append(s.links[link.OutputID], link)
	return nil
}

// EventsBySession returns the session's events in append order.
func (s *Store) EventsBySession(ctx context.Context, sessionID id.SessionID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.events[sessionID]
	out := make([]audit.Event, 0, len(stored))
	for _, ev := range stored {
		out = append(out, cloneEvent(ev))
	}
	return out, nil
}

// LinksByOutput returns all links for the output in creation order.
func (s *Store) LinksByOutput(ctx context.Context, outputID id.OutputID) ([]audit.TraceabilityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.links[outputID]
	out := make([]audit.TraceabilityLink, len(stored))
	copy(out, stored)
	return out, nil
}

func cloneEvent(ev audit.Event) audit.Event {
	out := ev
	if ev.Data != nil {
		out.Data = make(map[string]any, len(ev.Data))
		for k, v := range ev.Data {
			out.Data[k] = v
		}
	}
	if ev.ParentEventID != nil {
		parent := *ev.ParentEventID
		out.ParentEventID = &parent
	}
	if ev.RelatedEventIDs != nil {
		out.RelatedEventIDs = append([]id.EventID(nil), ev.RelatedEventIDs...)
	}
	if ev.EvidenceIDs != nil {
		out.EvidenceIDs = append([]id.EvidenceID(nil), ev.EvidenceIDs...)
	}
	return out
}
