// Package audit is the append-only, tamper-evident record of every judgment
// the scoring modules produce. Events carry a SHA-256 hash over a canonical
// serialization; traceability links tie generated outputs back to their
// source evidence. Nothing here exposes update or delete.
package audit

import (
	"time"

	id "veritrail/pkg/domain"
)

// Category classifies audit events for reporting and retention routing.
type Category string

const (
	// CategoryScoring covers computed judgments: matches, trust scores,
	// risk forecasts. These carry the evidentiary weight of the system.
	CategoryScoring Category = "scoring"

	// CategoryTraceability covers source-to-output link creation.
	CategoryTraceability Category = "traceability"

	// CategorySession covers session lifecycle transitions.
	CategorySession Category = "session"
)

// EventType names one kind of audit event.
type EventType string

const (
	EventMatchComputed    EventType = "match_computed"
	EventTrustScored      EventType = "trust_scored"
	EventRiskPredicted    EventType = "risk_predicted"
	EventLinkCreated      EventType = "link_created"
	EventSessionStarted   EventType = "session_started"
	EventSessionFinalized EventType = "session_finalized"
	EventSessionErrored   EventType = "session_errored"
)

var eventCategories = map[EventType]Category{
	EventMatchComputed:    CategoryScoring,
	EventTrustScored:      CategoryScoring,
	EventRiskPredicted:    CategoryScoring,
	EventLinkCreated:      CategoryTraceability,
	EventSessionStarted:   CategorySession,
	EventSessionFinalized: CategorySession,
	EventSessionErrored:   CategorySession,
}

// Category returns the category for this event type. Unknown types fall
// into scoring, the strictest retention class.
func (t EventType) Category() Category {
	if cat, ok := eventCategories[t]; ok {
		return cat
	}
	return CategoryScoring
}

// Event is one immutable audit record. Hash covers the identity, timing,
// actor, and data fields; Signature is an optional per-session HMAC over
// the hash. Construct events through the Recorder so both are set.
//
// The hashed field set is a fixed contract: provenance, correlation, and
// model metadata ride outside it so the canonical serialization stays
// stable across schema growth.
type Event struct {
	ID        id.EventID   `json:"event_id"`
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	SessionID id.SessionID `json:"session_id"`
	UserID    id.UserID    `json:"user_id,omitempty"`
	AgentID   string       `json:"agent_id,omitempty"`

	// Provenance: whose review cycle this judgment belongs to.
	InstitutionID id.InstitutionID `json:"institution_id,omitempty"`
	AccreditorID  id.AccreditorID  `json:"accreditor_id,omitempty"`

	// Correlation to other events and the evidence under judgment.
	ParentEventID   *id.EventID     `json:"parent_event_id,omitempty"`
	RelatedEventIDs []id.EventID    `json:"related_event_ids,omitempty"`
	EvidenceIDs     []id.EvidenceID `json:"evidence_ids,omitempty"`

	Data map[string]any `json:"data,omitempty"`

	// Model call metadata. Prompt and response content is never stored,
	// only hashed.
	Model        string `json:"model,omitempty"`
	PromptHash   string `json:"prompt_hash,omitempty"`
	ResponseHash string `json:"response_hash,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`

	Verification VerificationStatus `json:"verification_status,omitempty"`

	Hash      string `json:"hash"`
	Signature string `json:"signature,omitempty"`
}

// hashPayload is the canonical view of the event that the hash covers.
// Map keys serialize in sorted order, and the timestamp is pinned to a
// fixed UTC format, so the serialization is deterministic.
func (e Event) hashPayload() map[string]any {
	return map[string]any{
		"event_id":   e.ID.String(),
		"type":       string(e.Type),
		"timestamp":  e.Timestamp.UTC().Format(time.RFC3339Nano),
		"session_id": string(e.SessionID),
		"user_id":    string(e.UserID),
		"agent_id":   e.AgentID,
		"data":       e.Data,
	}
}

// ComputeHash serializes the canonical payload and returns its SHA-256 hex
// digest.
func (e Event) ComputeHash() (string, error) {
	return canonicalHash(e.hashPayload())
}

// VerifyIntegrity recomputes the hash and compares it to the stored one.
// Any mutation of the covered fields after construction turns this false.
func (e Event) VerifyIntegrity() bool {
	h, err := e.ComputeHash()
	return err == nil && h == e.Hash
}

// Relationship names how an output relates to a source.
type Relationship string

const (
	RelationshipDerivedFrom Relationship = "derived_from"
	RelationshipSupportedBy Relationship = "supported_by"
	RelationshipCites       Relationship = "cites"
	RelationshipContradicts Relationship = "contradicts"
)

// TraceabilityLink ties one generated output to one source evidence item.
// Both content blobs are hashed at link-creation time so later drift in
// either is detectable.
type TraceabilityLink struct {
	ID             id.LinkID     `json:"link_id"`
	OutputID       id.OutputID   `json:"output_id"`
	OutputType     string        `json:"output_type,omitempty"`
	SourceID       id.EvidenceID `json:"source_id"`
	SourceType     string        `json:"source_type,omitempty"`
	Relationship   Relationship  `json:"relationship"`
	ProcessingStep string        `json:"processing_step,omitempty"`
	Confidence     float64       `json:"confidence"`
	Similarity     float64       `json:"similarity"`
	OutputHash     string        `json:"output_hash"`
	SourceHash     string        `json:"source_hash"`
	Verified       bool          `json:"verified"`
	AgentID        string        `json:"agent_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// VerificationStatus of an evidence chain.
type VerificationStatus string

const (
	StatusVerified     VerificationStatus = "verified"
	StatusQuestionable VerificationStatus = "questionable"
)

// EvidenceChain is the ordered set of links tracing one output back to its
// sources, with an aggregate integrity score. A chain below the integrity
// threshold is questionable and is never silently upgraded.
type EvidenceChain struct {
	OutputID       id.OutputID        `json:"output_id"`
	Links          []TraceabilityLink `json:"links"`
	IntegrityScore float64            `json:"integrity_score"`
	Status         VerificationStatus `json:"verification_status"`
}

// SessionState is the audit session lifecycle state.
type SessionState string

const (
	SessionStarted   SessionState = "started"
	SessionFinalized SessionState = "finalized"
	SessionErrored   SessionState = "errored"
)

// Report summarizes one session's audit trail.
type Report struct {
	SessionID      id.SessionID     `json:"session_id"`
	State          SessionState     `json:"state"`
	GeneratedAt    time.Time        `json:"generated_at"`
	EventCount     int              `json:"event_count"`
	CategoryCounts map[Category]int `json:"category_counts"`
	Duration       time.Duration    `json:"duration"`
	TokensUsed     int              `json:"tokens_used"`
	HashMismatches int              `json:"hash_mismatches"`

	// Attestation is a signed JWT over the report digest, set when the
	// recorder carries an attestor.
	Attestation string `json:"attestation,omitempty"`
}
