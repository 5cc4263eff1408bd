// Package domain holds typed identifiers shared across modules. Distinct
// types prevent cross-assignment of evidence, standard, and session IDs at
// compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "veritrail/pkg/domain-errors"
)

// EvidenceID identifies one ingested evidence document. Opaque string
// assigned by the ingestion collaborator.
type EvidenceID string

// StandardID identifies a compliance standard node in the ontology.
// Opaque string (e.g., an accreditor criterion code).
type StandardID string

// SessionID groups audit events belonging to one processing session.
type SessionID string

// OutputID identifies a generated output being traced back to sources.
type OutputID string

// UserID identifies the acting user on an audit event.
type UserID string

// InstitutionID identifies the institution under review.
type InstitutionID string

// AccreditorID identifies the reviewing accreditor body.
type AccreditorID string

func (id EvidenceID) IsEmpty() bool    { return id == "" }
func (id StandardID) IsEmpty() bool    { return id == "" }
func (id SessionID) IsEmpty() bool     { return id == "" }
func (id OutputID) IsEmpty() bool      { return id == "" }
func (id InstitutionID) IsEmpty() bool { return id == "" }

// EventID identifies a single audit event. UUID-backed so events are
// globally unique across sessions and stores.
type EventID uuid.UUID

// NewEventID generates a random event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

// ParseEventID validates and parses an event ID string.
func ParseEventID(s string) (EventID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EventID(uuid.Nil), dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid event id")
	}
	if u == uuid.Nil {
		return EventID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "event id must not be nil")
	}
	return EventID(u), nil
}

func (id EventID) String() string { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the canonical UUID form in JSON and text encodings.
func (id EventID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EventID(u)
	return nil
}

// MatchID identifies one computed StandardMatch.
type MatchID uuid.UUID

// NewMatchID generates a random match ID.
func NewMatchID() MatchID { return MatchID(uuid.New()) }

func (id MatchID) String() string { return uuid.UUID(id).String() }
func (id MatchID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id MatchID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *MatchID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = MatchID(u)
	return nil
}

// LinkID identifies one traceability link.
type LinkID uuid.UUID

// NewLinkID generates a random link ID.
func NewLinkID() LinkID { return LinkID(uuid.New()) }

func (id LinkID) String() string { return uuid.UUID(id).String() }
func (id LinkID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id LinkID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *LinkID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = LinkID(u)
	return nil
}
