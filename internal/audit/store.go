package audit

import (
	"context"

	id "veritrail/pkg/domain"
)

// Store persists audit events and traceability links. Implementations are
// append-only: there is deliberately no update or delete in this interface.
// Appends must be durable before returning.
type Store interface {
	AppendEvent(ctx context.Context, event Event) error
	AppendLink(ctx context.Context, link TraceabilityLink) error

	// EventsBySession returns a session's events in append order.
	EventsBySession(ctx context.Context, sessionID id.SessionID) ([]Event, error)

	// LinksByOutput returns all links for an output in creation order.
	LinksByOutput(ctx context.Context, outputID id.OutputID) ([]TraceabilityLink, error)
}
