//go:build integration

package stream_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"veritrail/internal/audit"
	"veritrail/internal/audit/stream"
	id "veritrail/pkg/domain"
	"veritrail/pkg/testutil/containers"
)

func TestPublisher_EventsReachBroker(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	const topic = "veritrail.audit.events.test"

	producer, err := kgo.NewClient(kgo.SeedBrokers(rp.Broker))
	require.NoError(t, err)
	defer producer.Close()

	require.NoError(t, stream.EnsureTopic(ctx, producer, topic, 1))
	require.NoError(t, stream.EnsureTopic(ctx, producer, topic, 1), "existing topic must be tolerated")

	publisher := stream.New(producer, stream.WithTopic(topic))

	events := make([]audit.Event, 0, 3)
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		event := audit.Event{
			ID:        id.EventID(uuid.New()),
			Type:      audit.EventMatchComputed,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			SessionID: "sess-stream",
			Data:      map[string]any{"seq": float64(i)},
		}
		hash, err := event.ComputeHash()
		require.NoError(t, err)
		event.Hash = hash
		events = append(events, event)
		publisher.Publish(event)
	}

	require.NoError(t, publisher.Close(ctx), "close must drain and flush")

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) < len(events) {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, fetches.Err())
		records = append(records, fetches.Records()...)
	}
	require.Len(t, records, len(events))

	// One session keys one partition, so broker order matches publish order.
	for i, record := range records {
		assert.Equal(t, "sess-stream", string(record.Key))

		var got audit.Event
		require.NoError(t, json.Unmarshal(record.Value, &got))
		assert.Equal(t, events[i].ID, got.ID)
		assert.True(t, got.VerifyIntegrity(), "event %d must survive the stream intact", i)
	}
}
