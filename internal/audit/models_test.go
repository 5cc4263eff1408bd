package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "veritrail/pkg/domain"
)

func buildEvent(t *testing.T) Event {
	t.Helper()

	data, err := normalizeData(map[string]any{
		"standard_id": "std-1",
		"confidence":  0.82,
		"gaps":        []string{"report"},
	})
	require.NoError(t, err)

	ev := Event{
		ID:        id.NewEventID(),
		Type:      EventMatchComputed,
		Timestamp: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		SessionID: "sess-1",
		UserID:    "user-1",
		AgentID:   "mapper-agent",
		Data:      data,
	}
	ev.Hash, err = ev.ComputeHash()
	require.NoError(t, err)
	return ev
}

func TestEvent_IntegrityHoldsAfterConstruction(t *testing.T) {
	ev := buildEvent(t)
	assert.True(t, ev.VerifyIntegrity())
}

func TestEvent_IntegrityHoldsAfterStorageRoundTrip(t *testing.T) {
	ev := buildEvent(t)

	// Simulate a JSON storage round trip; numeric types in Data change
	// representation but the canonical hash must not.
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var restored Event
	require.NoError(t, json.Unmarshal(b, &restored))

	assert.True(t, restored.VerifyIntegrity())
	assert.Equal(t, ev.Hash, restored.Hash)
}

func TestEvent_TamperedDataFailsIntegrity(t *testing.T) {
	t.Run("data mutation", func(t *testing.T) {
		ev := buildEvent(t)
		ev.Data["confidence"] = 0.99
		assert.False(t, ev.VerifyIntegrity())
	})

	t.Run("type mutation", func(t *testing.T) {
		ev := buildEvent(t)
		ev.Type = EventTrustScored
		assert.False(t, ev.VerifyIntegrity())
	})

	t.Run("timestamp mutation", func(t *testing.T) {
		ev := buildEvent(t)
		ev.Timestamp = ev.Timestamp.Add(time.Second)
		assert.False(t, ev.VerifyIntegrity())
	})
}

func TestEvent_HashIsDeterministic(t *testing.T) {
	ev := buildEvent(t)

	h1, err := ev.ComputeHash()
	require.NoError(t, err)
	h2, err := ev.ComputeHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestEventType_Category(t *testing.T) {
	assert.Equal(t, CategoryScoring, EventMatchComputed.Category())
	assert.Equal(t, CategoryTraceability, EventLinkCreated.Category())
	assert.Equal(t, CategorySession, EventSessionStarted.Category())
	assert.Equal(t, CategoryScoring, EventType("mystery").Category())
}
