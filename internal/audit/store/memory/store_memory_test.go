package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritrail/internal/audit"
	id "veritrail/pkg/domain"
)

func TestStore_EventsAppendOrderAndIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ev := audit.Event{
			ID:        id.NewEventID(),
			Type:      audit.EventTrustScored,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			SessionID: "sess-1",
			Data:      map[string]any{"n": float64(i)},
		}
		var err error
		ev.Hash, err = ev.ComputeHash()
		require.NoError(t, err)
		require.NoError(t, store.AppendEvent(ctx, ev))
	}

	events, err := store.EventsBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, float64(i), ev.Data["n"])
		assert.True(t, ev.VerifyIntegrity())
	}

	// Mutating a returned event must not affect the stored copy.
	events[0].Data["n"] = float64(99)
	fresh, err := store.EventsBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, float64(0), fresh[0].Data["n"])
	assert.True(t, fresh[0].VerifyIntegrity())
}

func TestStore_CorrelationSlicesAreIsolated(t *testing.T) {
	store := New()
	ctx := context.Background()

	parent := id.NewEventID()
	ev := audit.Event{
		ID:              id.NewEventID(),
		Type:            audit.EventMatchComputed,
		Timestamp:       time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		SessionID:       "sess-1",
		ParentEventID:   &parent,
		RelatedEventIDs: []id.EventID{id.NewEventID()},
		EvidenceIDs:     []id.EvidenceID{"ev-1"},
	}
	var err error
	ev.Hash, err = ev.ComputeHash()
	require.NoError(t, err)
	require.NoError(t, store.AppendEvent(ctx, ev))

	events, err := store.EventsBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 1)

	events[0].EvidenceIDs[0] = "ev-tampered"
	*events[0].ParentEventID = id.NewEventID()

	fresh, err := store.EventsBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, id.EvidenceID("ev-1"), fresh[0].EvidenceIDs[0])
	assert.Equal(t, parent, *fresh[0].ParentEventID)
}

func TestStore_EmptySession(t *testing.T) {
	store := New()
	events, err := store.EventsBySession(context.Background(), "sess-none")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_LinksByOutput(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, out := range []id.OutputID{"out-1", "out-1", "out-2"} {
		link := audit.TraceabilityLink{
			ID:        id.NewLinkID(),
			OutputID:  out,
			SourceID:  "ev-1",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, store.AppendLink(ctx, link))
	}

	links, err := store.LinksByOutput(ctx, "out-1")
	require.NoError(t, err)
	assert.Len(t, links, 2)

	links, err = store.LinksByOutput(ctx, "out-2")
	require.NoError(t, err)
	assert.Len(t, links, 1)
}
