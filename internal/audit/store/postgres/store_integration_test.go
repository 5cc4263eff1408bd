//go:build integration

package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritrail/internal/audit"
	"veritrail/internal/audit/store/postgres"
	id "veritrail/pkg/domain"
	"veritrail/pkg/testutil/containers"
)

func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	pg := containers.NewPostgresContainer(t)

	schema, err := os.ReadFile("../../../../migrations/0001_audit_trail.sql")
	require.NoError(t, err, "read audit schema")
	pg.Exec(t, string(schema))

	return postgres.New(pg.DB)
}

// buildEvent constructs a hashed event directly, bypassing the Recorder.
// The timestamp is truncated to microseconds because timestamptz stores no
// finer precision; a nanosecond remainder would break integrity checks
// after a round trip.
func buildEvent(t *testing.T, eventType audit.EventType, session id.SessionID, at time.Time, data map[string]any) audit.Event {
	t.Helper()

	event := audit.Event{
		ID:        id.EventID(uuid.New()),
		Type:      eventType,
		Timestamp: at.UTC().Truncate(time.Microsecond),
		SessionID: session,
		UserID:    "auditor-1",
		AgentID:   "mapper-agent",
		Data:      data,
	}
	hash, err := event.ComputeHash()
	require.NoError(t, err)
	event.Hash = hash
	return event
}

func TestStore_EventRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Now()

	first := buildEvent(t, audit.EventSessionStarted, "sess-pg", base, nil)
	second := buildEvent(t, audit.EventMatchComputed, "sess-pg", base.Add(time.Second), map[string]any{
		"standard_id": "std-assess",
		"confidence":  0.91,
	})
	parent := first.ID
	second.InstitutionID = "inst-1"
	second.AccreditorID = "accr-1"
	second.ParentEventID = &parent
	second.RelatedEventIDs = []id.EventID{first.ID}
	second.EvidenceIDs = []id.EvidenceID{"ev-1", "ev-2"}
	second.Model = "scoring-v2"
	second.PromptHash = "cafe"
	second.ResponseHash = "beef"
	second.Verification = audit.StatusVerified
	other := buildEvent(t, audit.EventSessionStarted, "sess-other", base, nil)

	require.NoError(t, store.AppendEvent(ctx, first))
	require.NoError(t, store.AppendEvent(ctx, second))
	require.NoError(t, store.AppendEvent(ctx, other))

	events, err := store.EventsBySession(ctx, "sess-pg")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, first.ID, events[0].ID)
	assert.Equal(t, second.ID, events[1].ID)
	assert.Equal(t, audit.EventMatchComputed, events[1].Type)
	assert.Equal(t, "std-assess", events[1].Data["standard_id"])

	assert.Equal(t, id.InstitutionID("inst-1"), events[1].InstitutionID)
	assert.Equal(t, id.AccreditorID("accr-1"), events[1].AccreditorID)
	require.NotNil(t, events[1].ParentEventID)
	assert.Equal(t, first.ID, *events[1].ParentEventID)
	assert.Equal(t, []id.EventID{first.ID}, events[1].RelatedEventIDs)
	assert.Equal(t, []id.EvidenceID{"ev-1", "ev-2"}, events[1].EvidenceIDs)
	assert.Equal(t, "scoring-v2", events[1].Model)
	assert.Equal(t, audit.StatusVerified, events[1].Verification)
	assert.Nil(t, events[0].ParentEventID)

	for _, event := range events {
		assert.True(t, event.VerifyIntegrity(), "integrity must survive storage for %s", event.ID)
	}
}

func TestStore_AppendEventIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	event := buildEvent(t, audit.EventTrustScored, "sess-dup", time.Now(), map[string]any{"score": 0.8})

	require.NoError(t, store.AppendEvent(ctx, event))
	require.NoError(t, store.AppendEvent(ctx, event), "replayed append must not error")

	events, err := store.EventsBySession(ctx, "sess-dup")
	require.NoError(t, err)
	assert.Len(t, events, 1, "replayed append must not duplicate")
}

func TestStore_LinkRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	first := audit.TraceabilityLink{
		ID:             id.LinkID(uuid.New()),
		OutputID:       "out-1",
		OutputType:     "narrative",
		SourceID:       "ev-1",
		SourceType:     "assessment",
		Relationship:   audit.RelationshipDerivedFrom,
		ProcessingStep: "narrative_generation",
		Confidence:     0.9,
		Similarity:     0.85,
		OutputHash:     "aaaa",
		SourceHash:     "bbbb",
		Verified:       true,
		AgentID:        "mapper-agent",
		CreatedAt:      base,
	}
	second := first
	second.ID = id.LinkID(uuid.New())
	second.SourceID = "ev-2"
	second.Relationship = audit.RelationshipSupportedBy
	second.CreatedAt = base.Add(time.Second)

	require.NoError(t, store.AppendLink(ctx, first))
	require.NoError(t, store.AppendLink(ctx, second))
	require.NoError(t, store.AppendLink(ctx, first), "replayed append must not error")

	links, err := store.LinksByOutput(ctx, "out-1")
	require.NoError(t, err)
	require.Len(t, links, 2)

	assert.Equal(t, first.ID, links[0].ID)
	assert.Equal(t, second.ID, links[1].ID)
	assert.Equal(t, id.EvidenceID("ev-1"), links[0].SourceID)
	assert.Equal(t, "narrative", links[0].OutputType)
	assert.Equal(t, "assessment", links[0].SourceType)
	assert.Equal(t, "narrative_generation", links[0].ProcessingStep)
	assert.True(t, links[0].Verified)
	assert.InDelta(t, 0.9, links[0].Confidence, 1e-9)

	none, err := store.LinksByOutput(ctx, "out-none")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestStore_RecorderOverPostgres runs the full recorder flow against the
// real store: session lifecycle, event integrity, and report generation.
func TestStore_RecorderOverPostgres(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// The clock ticks one microsecond per call and carries no finer
	// precision, so timestamps survive timestamptz storage and stay
	// strictly ordered.
	base := time.Now().UTC().Truncate(time.Microsecond)
	var ticks int64
	recorder, err := audit.NewRecorder(store, audit.WithClock(func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Microsecond)
	}))
	require.NoError(t, err)

	require.True(t, recorder.StartSession(ctx, "sess-rec", "auditor-1"))
	_, ok := recorder.LogEvent(ctx, audit.EventInput{
		Type:       audit.EventRiskPredicted,
		SessionID:  "sess-rec",
		Data:       map[string]any{"standard_id": "std-assess", "risk": 0.42},
		TokensUsed: 120,
	})
	require.True(t, ok)
	require.True(t, recorder.FinalizeSession(ctx, "sess-rec"))

	result, err := recorder.VerifySessionIntegrity(ctx, "sess-rec")
	require.NoError(t, err)
	assert.True(t, result.Intact)
	assert.Equal(t, 3, result.EventsChecked)

	report, err := recorder.GenerateReport(ctx, "sess-rec")
	require.NoError(t, err)
	assert.Equal(t, 3, report.EventCount)
	assert.Equal(t, 120, report.TokensUsed)
	assert.Equal(t, 0, report.HashMismatches)
}
