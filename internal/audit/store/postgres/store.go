// Package postgres persists the audit trail in PostgreSQL. Inserts are
// idempotent via ON CONFLICT DO NOTHING on the event/link id, so replayed
// appends never duplicate records. The schema has no UPDATE or DELETE path.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"veritrail/internal/audit"
	id "veritrail/pkg/domain"
)

// Store implements audit.Store on database/sql (pgx stdlib driver).
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// AppendEvent inserts one audit event. Idempotent on event id.
func (s *Store) AppendEvent(ctx context.Context, event audit.Event) error {
	data, err := marshalNullable(event.Data, len(event.Data) > 0)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	related, err := marshalNullable(event.RelatedEventIDs, len(event.RelatedEventIDs) > 0)
	if err != nil {
		return fmt.Errorf("marshal related event ids: %w", err)
	}
	evidence, err := marshalNullable(event.EvidenceIDs, len(event.EvidenceIDs) > 0)
	if err != nil {
		return fmt.Errorf("marshal evidence ids: %w", err)
	}

	var parent uuid.NullUUID
	if event.ParentEventID != nil {
		parent = uuid.NullUUID{UUID: uuid.UUID(*event.ParentEventID), Valid: true}
	}

	query := `
		INSERT INTO audit_events (
			id, type, category, timestamp, session_id, user_id, agent_id,
			institution_id, accreditor_id, parent_event_id, related_event_ids,
			evidence_ids, data, model, prompt_hash, response_hash,
			tokens_used, verification_status, hash, signature
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID),
		string(event.Type),
		string(event.Type.Category()),
		event.Timestamp,
		string(event.SessionID),
		string(event.UserID),
		event.AgentID,
		string(event.InstitutionID),
		string(event.AccreditorID),
		parent,
		related,
		evidence,
		data,
		event.Model,
		event.PromptHash,
		event.ResponseHash,
		event.TokensUsed,
		string(event.Verification),
		event.Hash,
		event.Signature,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// AppendLink inserts one traceability link. Idempotent on link id.
func (s *Store) AppendLink(ctx context.Context, link audit.TraceabilityLink) error {
	query := `
		INSERT INTO traceability_links (
			id, output_id, output_type, source_id, source_type, relationship,
			processing_step, confidence, similarity, output_hash, source_hash,
			verified, agent_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(link.ID),
		string(link.OutputID),
		link.OutputType,
		string(link.SourceID),
		link.SourceType,
		string(link.Relationship),
		link.ProcessingStep,
		link.Confidence,
		link.Similarity,
		link.OutputHash,
		link.SourceHash,
		link.Verified,
		link.AgentID,
		link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert traceability link: %w", err)
	}
	return nil
}

// EventsBySession returns a session's events in append order.
func (s *Store) EventsBySession(ctx context.Context, sessionID id.SessionID) ([]audit.Event, error) {
	query := `
		SELECT id, type, timestamp, session_id, user_id, agent_id,
			   institution_id, accreditor_id, parent_event_id,
			   related_event_ids, evidence_ids, data, model, prompt_hash,
			   response_hash, tokens_used, verification_status, hash, signature
		FROM audit_events
		WHERE session_id = $1
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(sessionID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event        audit.Event
			eventID      uuid.UUID
			eventType    string
			session      string
			user         string
			institution  string
			accreditor   string
			parent       uuid.NullUUID
			related      []byte
			evidence     []byte
			data         []byte
			verification string
		)
		err := rows.Scan(
			&eventID,
			&eventType,
			&event.Timestamp,
			&session,
			&user,
			&event.AgentID,
			&institution,
			&accreditor,
			&parent,
			&related,
			&evidence,
			&data,
			&event.Model,
			&event.PromptHash,
			&event.ResponseHash,
			&event.TokensUsed,
			&verification,
			&event.Hash,
			&event.Signature,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.ID = id.EventID(eventID)
		event.Type = audit.EventType(eventType)
		event.SessionID = id.SessionID(session)
		event.UserID = id.UserID(user)
		event.InstitutionID = id.InstitutionID(institution)
		event.AccreditorID = id.AccreditorID(accreditor)
		event.Verification = audit.VerificationStatus(verification)
		if parent.Valid {
			parentID := id.EventID(parent.UUID)
			event.ParentEventID = &parentID
		}
		if len(related) > 0 {
			if err := json.Unmarshal(related, &event.RelatedEventIDs); err != nil {
				return nil, fmt.Errorf("unmarshal related event ids: %w", err)
			}
		}
		if len(evidence) > 0 {
			if err := json.Unmarshal(evidence, &event.EvidenceIDs); err != nil {
				return nil, fmt.Errorf("unmarshal evidence ids: %w", err)
			}
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &event.Data); err != nil {
				return nil, fmt.Errorf("unmarshal event data: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// LinksByOutput returns all links for an output in creation order.
func (s *Store) LinksByOutput(ctx context.Context, outputID id.OutputID) ([]audit.TraceabilityLink, error) {
	query := `
		SELECT id, output_id, output_type, source_id, source_type,
			   relationship, processing_step, confidence, similarity,
			   output_hash, source_hash, verified, agent_id, created_at
		FROM traceability_links
		WHERE output_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(outputID))
	if err != nil {
		return nil, fmt.Errorf("query traceability links: %w", err)
	}
	defer rows.Close()

	var links []audit.TraceabilityLink
	for rows.Next() {
		var (
			link         audit.TraceabilityLink
			linkID       uuid.UUID
			output       string
			source       string
			relationship string
		)
		err := rows.Scan(
			&linkID,
			&output,
			&link.OutputType,
			&source,
			&link.SourceType,
			&relationship,
			&link.ProcessingStep,
			&link.Confidence,
			&link.Similarity,
			&link.OutputHash,
			&link.SourceHash,
			&link.Verified,
			&link.AgentID,
			&link.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan traceability link: %w", err)
		}

		link.ID = id.LinkID(linkID)
		link.OutputID = id.OutputID(output)
		link.SourceID = id.EvidenceID(source)
		link.Relationship = audit.Relationship(relationship)
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traceability links: %w", err)
	}
	return links, nil
}

// marshalNullable renders v as JSON, or NULL when the value is absent.
func marshalNullable(v any, present bool) ([]byte, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}
