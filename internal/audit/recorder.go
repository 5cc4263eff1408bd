package audit

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veritrail/internal/audit/metrics"
	id "veritrail/pkg/domain"
	"veritrail/pkg/requestcontext"

	dErrors "veritrail/pkg/domain-errors"
)

// Chain integrity scoring constants. A link from a verified source signed
// off by a named agent counts for more than an anonymous unverified one.
const (
	chainIntegrityThreshold = 0.8
	verifiedLinkBonus       = 1.2
	agentAttributionBonus   = 1.1
)

// Publisher fans stored events out to an external sink. Implementations
// must not block; the recorder calls Publish on the append path.
type Publisher interface {
	Publish(event Event)
}

type sessionInfo struct {
	state     SessionState
	startedAt time.Time
	endedAt   time.Time
}

// Recorder is the audit trail entry point. Scoring callers log events and
// links through it; storage failures come back as booleans so a failed
// audit write never fails a scoring call.
type Recorder struct {
	store      Store
	signer     *Signer
	publisher  Publisher
	attestor   *Attestor
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
	newEventID func() id.EventID
	newLinkID  func() id.LinkID

	mu       sync.Mutex
	sessions map[id.SessionID]*sessionInfo
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithSigner enables per-session HMAC signatures on stored events.
func WithSigner(signer *Signer) RecorderOption {
	return func(r *Recorder) { r.signer = signer }
}

// WithPublisher streams stored events to an external sink.
func WithPublisher(publisher Publisher) RecorderOption {
	return func(r *Recorder) { r.publisher = publisher }
}

// WithAttestor signs generated reports.
func WithAttestor(attestor *Attestor) RecorderOption {
	return func(r *Recorder) { r.attestor = attestor }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// WithMetrics enables audit metrics.
func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// WithEventIDGenerator injects the event ID source.
func WithEventIDGenerator(gen func() id.EventID) RecorderOption {
	return func(r *Recorder) { r.newEventID = gen }
}

// WithLinkIDGenerator injects the link ID source.
func WithLinkIDGenerator(gen func() id.LinkID) RecorderOption {
	return func(r *Recorder) { r.newLinkID = gen }
}

// NewRecorder creates an audit recorder over the given store.
func NewRecorder(store Store, opts ...RecorderOption) (*Recorder, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "audit store is required")
	}
	r := &Recorder{
		store:      store,
		tracer:     otel.Tracer("veritrail/audit"),
		now:        time.Now,
		newEventID: id.NewEventID,
		newLinkID:  id.NewLinkID,
		sessions:   make(map[id.SessionID]*sessionInfo),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// EventInput is the caller-supplied part of an audit event. Prompt and
// response content is hashed at append time and never stored.
type EventInput struct {
	Type      EventType    `json:"type"`
	SessionID id.SessionID `json:"session_id"`
	UserID    id.UserID    `json:"user_id,omitempty"`
	AgentID   string       `json:"agent_id,omitempty"`

	InstitutionID id.InstitutionID `json:"institution_id,omitempty"`
	AccreditorID  id.AccreditorID  `json:"accreditor_id,omitempty"`

	ParentEventID   *id.EventID     `json:"parent_event_id,omitempty"`
	RelatedEventIDs []id.EventID    `json:"related_event_ids,omitempty"`
	EvidenceIDs     []id.EvidenceID `json:"evidence_ids,omitempty"`

	Data map[string]any `json:"data,omitempty"`

	Model      string `json:"model,omitempty"`
	Prompt     string `json:"prompt,omitempty"`
	Response   string `json:"response,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`

	Verification VerificationStatus `json:"verification_status,omitempty"`
}

// StartSession opens an audit session and logs the lifecycle event.
// Starting an already-open session reports failure.
func (r *Recorder) StartSession(ctx context.Context, sessionID id.SessionID, userID id.UserID) bool {
	if sessionID.IsEmpty() {
		r.warn(ctx, "audit session rejected", "reason", "empty session id")
		return false
	}

	r.mu.Lock()
	if _, exists := r.sessions[sessionID]; exists {
		r.mu.Unlock()
		r.warn(ctx, "audit session already exists", "session_id", sessionID)
		return false
	}
	r.sessions[sessionID] = &sessionInfo{state: SessionStarted, startedAt: r.now()}
	r.mu.Unlock()

	_, ok := r.append(ctx, EventInput{Type: EventSessionStarted, SessionID: sessionID, UserID: userID})
	return ok
}

// FinalizeSession closes a started session. Events can no longer be logged
// to it afterwards.
func (r *Recorder) FinalizeSession(ctx context.Context, sessionID id.SessionID) bool {
	r.mu.Lock()
	info, exists := r.sessions[sessionID]
	if !exists || info.state != SessionStarted {
		r.mu.Unlock()
		r.warn(ctx, "cannot finalize audit session", "session_id", sessionID)
		return false
	}
	info.state = SessionFinalized
	info.endedAt = r.now()
	r.mu.Unlock()

	_, ok := r.append(ctx, EventInput{Type: EventSessionFinalized, SessionID: sessionID})
	return ok
}

// FailSession moves a session to the error state. Reachable from any state.
func (r *Recorder) FailSession(ctx context.Context, sessionID id.SessionID, reason string) bool {
	if sessionID.IsEmpty() {
		return false
	}

	r.mu.Lock()
	info, exists := r.sessions[sessionID]
	if !exists {
		info = &sessionInfo{startedAt: r.now()}
		r.sessions[sessionID] = info
	}
	info.state = SessionErrored
	info.endedAt = r.now()
	r.mu.Unlock()

	_, ok := r.append(ctx, EventInput{
		Type:      EventSessionErrored,
		SessionID: sessionID,
		Data:      map[string]any{"reason": reason},
	})
	return ok
}

// LogEvent stores one audit event. Returns the stored event and whether the
// append succeeded; failures are logged, never propagated as errors.
// Logging to an unknown session implicitly starts it; logging to a closed
// session fails.
func (r *Recorder) LogEvent(ctx context.Context, in EventInput) (Event, bool) {
	if in.SessionID.IsEmpty() {
		r.warn(ctx, "audit event rejected", "reason", "empty session id")
		return Event{}, false
	}
	if _, known := eventCategories[in.Type]; !known {
		r.warn(ctx, "audit event rejected", "reason", "unknown event type", "type", in.Type)
		return Event{}, false
	}

	r.mu.Lock()
	info, exists := r.sessions[in.SessionID]
	if exists && info.state != SessionStarted {
		r.mu.Unlock()
		r.warn(ctx, "audit event rejected", "reason", "session closed",
			"session_id", in.SessionID, "state", info.state)
		return Event{}, false
	}
	if !exists {
		r.sessions[in.SessionID] = &sessionInfo{state: SessionStarted, startedAt: r.now()}
	}
	r.mu.Unlock()

	return r.append(ctx, in)
}

// append builds, hashes, signs, and stores the event. Lifecycle methods use
// it directly so state transitions and their events stay consistent.
func (r *Recorder) append(ctx context.Context, in EventInput) (Event, bool) {
	ctx, span := r.tracer.Start(ctx, "audit.LogEvent", trace.WithAttributes(
		attribute.String("event_type", string(in.Type)),
		attribute.String("session_id", string(in.SessionID)),
	))
	defer span.End()

	data, err := normalizeData(in.Data)
	if err != nil {
		r.warn(ctx, "audit event rejected", "reason", "unserializable data", "error", err)
		return Event{}, false
	}

	event := Event{
		ID:   r.newEventID(),
		Type: in.Type,
		// Microseconds are the canonical timestamp precision: timestamptz
		// holds no finer, and the hash must survive a storage round trip.
		Timestamp:       r.now().UTC().Truncate(time.Microsecond),
		SessionID:       in.SessionID,
		UserID:          in.UserID,
		AgentID:         in.AgentID,
		InstitutionID:   in.InstitutionID,
		AccreditorID:    in.AccreditorID,
		ParentEventID:   in.ParentEventID,
		RelatedEventIDs: in.RelatedEventIDs,
		EvidenceIDs:     in.EvidenceIDs,
		Data:            data,
		Model:           in.Model,
		TokensUsed:      in.TokensUsed,
		Verification:    in.Verification,
	}
	if in.Prompt != "" {
		event.PromptHash = contentHash(in.Prompt)
	}
	if in.Response != "" {
		event.ResponseHash = contentHash(in.Response)
	}

	event.Hash, err = event.ComputeHash()
	if err != nil {
		r.warn(ctx, "audit event hash failed", "error", err)
		return Event{}, false
	}
	if r.signer != nil {
		event.Signature, err = r.signer.Sign(event.SessionID, event.Hash)
		if err != nil {
			r.warn(ctx, "audit event signing failed", "error", err)
			return Event{}, false
		}
	}

	if err := r.store.AppendEvent(ctx, event); err != nil {
		r.metrics.IncAppendFailure("event")
		r.warn(ctx, "audit event append failed",
			"event_id", event.ID, "session_id", event.SessionID, "error", err)
		return Event{}, false
	}

	r.metrics.IncEventLogged(string(in.Type.Category()))
	if r.publisher != nil {
		r.publisher.Publish(event)
	}
	return event, true
}

// LinkInput is the caller-supplied part of a traceability link. Content
// blobs are hashed at creation; they are not stored.
type LinkInput struct {
	OutputID       id.OutputID   `json:"output_id"`
	OutputType     string        `json:"output_type,omitempty"`
	SourceID       id.EvidenceID `json:"source_id"`
	SourceType     string        `json:"source_type,omitempty"`
	Relationship   Relationship  `json:"relationship"`
	ProcessingStep string        `json:"processing_step,omitempty"`
	Confidence     float64       `json:"confidence"`
	Similarity     float64       `json:"similarity"`
	OutputContent  string        `json:"output_content"`
	SourceContent  string        `json:"source_content"`
	Verified       bool          `json:"verified"`
	AgentID        string        `json:"agent_id,omitempty"`

	// SessionID, when set, also logs a link_created event to that session.
	SessionID id.SessionID `json:"session_id,omitempty"`
}

// CreateTraceabilityLink stores one output-to-source link. Returns the
// stored link and whether the append succeeded.
func (r *Recorder) CreateTraceabilityLink(ctx context.Context, in LinkInput) (TraceabilityLink, bool) {
	if in.OutputID.IsEmpty() || in.SourceID.IsEmpty() {
		r.warn(ctx, "traceability link rejected", "reason", "missing output or source id")
		return TraceabilityLink{}, false
	}
	if in.Confidence < 0 || in.Confidence > 1 || in.Similarity < 0 || in.Similarity > 1 {
		r.warn(ctx, "traceability link rejected", "reason", "confidence and similarity must be in [0,1]")
		return TraceabilityLink{}, false
	}

	link := TraceabilityLink{
		ID:             r.newLinkID(),
		OutputID:       in.OutputID,
		OutputType:     in.OutputType,
		SourceID:       in.SourceID,
		SourceType:     in.SourceType,
		Relationship:   in.Relationship,
		ProcessingStep: in.ProcessingStep,
		Confidence:     in.Confidence,
		Similarity:     in.Similarity,
		OutputHash:     contentHash(in.OutputContent),
		SourceHash:     contentHash(in.SourceContent),
		Verified:       in.Verified,
		AgentID:        in.AgentID,
		CreatedAt:      r.now().UTC().Truncate(time.Microsecond),
	}

	if err := r.store.AppendLink(ctx, link); err != nil {
		r.metrics.IncAppendFailure("link")
		r.warn(ctx, "traceability link append failed",
			"link_id", link.ID, "output_id", link.OutputID, "error", err)
		return TraceabilityLink{}, false
	}

	if !in.SessionID.IsEmpty() {
		r.LogEvent(ctx, EventInput{
			Type:      EventLinkCreated,
			SessionID: in.SessionID,
			AgentID:   in.AgentID,
			Data: map[string]any{
				"link_id":   link.ID.String(),
				"output_id": string(link.OutputID),
				"source_id": string(link.SourceID),
			},
		})
	}
	return link, true
}

// TraceOutputToSources builds the evidence chain for one output. An output
// with no stored links yields an empty questionable chain with integrity
// 0.0, not an error.
func (r *Recorder) TraceOutputToSources(ctx context.Context, outputID id.OutputID) (EvidenceChain, error) {
	if outputID.IsEmpty() {
		return EvidenceChain{}, dErrors.New(dErrors.CodeInvalidInput, "output id is required")
	}

	links, err := r.store.LinksByOutput(ctx, outputID)
	if err != nil {
		return EvidenceChain{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "load traceability links")
	}

	chain := EvidenceChain{OutputID: outputID, Status: StatusQuestionable}
	if len(links) == 0 {
		return chain, nil
	}

	sort.SliceStable(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		return links[i].ID.String() < links[j].ID.String()
	})
	chain.Links = links

	var sum float64
	for _, link := range links {
		sum += linkIntegrity(link)
	}
	chain.IntegrityScore = sum / float64(len(links))
	if chain.IntegrityScore >= chainIntegrityThreshold {
		chain.Status = StatusVerified
	}
	return chain, nil
}

func linkIntegrity(link TraceabilityLink) float64 {
	score := (link.Confidence + link.Similarity) / 2
	if link.Verified {
		score *= verifiedLinkBonus
	}
	if link.AgentID != "" {
		score *= agentAttributionBonus
	}
	if score > 1 {
		score = 1
	}
	return score
}

// IntegrityResult is the outcome of re-verifying a session's stored events.
type IntegrityResult struct {
	SessionID           id.SessionID `json:"session_id"`
	EventsChecked       int          `json:"events_checked"`
	HashMismatches      int          `json:"hash_mismatches"`
	SignatureMismatches int          `json:"signature_mismatches"`
	Intact              bool         `json:"intact"`
}

// VerifySessionIntegrity recomputes every stored event's hash (and
// signature when a signer is configured) for the session. Mismatched events
// are counted and reported; they are never repaired or deleted.
func (r *Recorder) VerifySessionIntegrity(ctx context.Context, sessionID id.SessionID) (IntegrityResult, error) {
	if sessionID.IsEmpty() {
		return IntegrityResult{}, dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	}

	events, err := r.store.EventsBySession(ctx, sessionID)
	if err != nil {
		return IntegrityResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "load session events")
	}

	result := IntegrityResult{SessionID: sessionID, EventsChecked: len(events)}
	for _, ev := range events {
		if !ev.VerifyIntegrity() {
			result.HashMismatches++
			r.metrics.IncIntegrityViolation()
			r.warn(ctx, "audit event hash mismatch", "event_id", ev.ID, "session_id", sessionID)
			continue
		}
		if r.signer != nil && !r.signer.Verify(ev.SessionID, ev.Hash, ev.Signature) {
			result.SignatureMismatches++
			r.metrics.IncIntegrityViolation()
			r.warn(ctx, "audit event signature mismatch", "event_id", ev.ID, "session_id", sessionID)
		}
	}
	result.Intact = result.HashMismatches == 0 && result.SignatureMismatches == 0
	return result, nil
}

// GenerateReport summarizes one session: event counts by category, wall
// duration, token usage, and hash mismatches. The report is attested when
// an attestor is configured.
func (r *Recorder) GenerateReport(ctx context.Context, sessionID id.SessionID) (Report, error) {
	if sessionID.IsEmpty() {
		return Report{}, dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	}

	events, err := r.store.EventsBySession(ctx, sessionID)
	if err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "load session events")
	}
	if len(events) == 0 {
		return Report{}, dErrors.Newf(dErrors.CodeNotFound, "no audit trail for session %s", sessionID)
	}

	report := Report{
		SessionID:      sessionID,
		State:          r.sessionState(sessionID),
		GeneratedAt:    r.now().UTC(),
		EventCount:     len(events),
		CategoryCounts: make(map[Category]int),
	}

	first, last := events[0].Timestamp, events[0].Timestamp
	for _, ev := range events {
		report.CategoryCounts[ev.Type.Category()]++
		report.TokensUsed += ev.TokensUsed
		if !ev.VerifyIntegrity() {
			report.HashMismatches++
		}
		if ev.Timestamp.Before(first) {
			first = ev.Timestamp
		}
		if ev.Timestamp.After(last) {
			last = ev.Timestamp
		}
	}
	report.Duration = last.Sub(first)

	if r.attestor != nil {
		report.Attestation, err = r.attestor.Attest(report)
		if err != nil {
			return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "attest audit report")
		}
	}
	return report, nil
}

func (r *Recorder) sessionState(sessionID id.SessionID) SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.sessions[sessionID]; ok {
		return info.state
	}
	return SessionStarted
}

func (r *Recorder) warn(ctx context.Context, msg string, args ...any) {
	if r.logger == nil {
		return
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		args = append(args, "request_id", reqID)
	}
	r.logger.WarnContext(ctx, msg, args...)
}
