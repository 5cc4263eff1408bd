// Package stream fans stored audit events out to Kafka for downstream
// consumers (SIEM, long-term archival). Publishing is best-effort and
// strictly off the critical path: the buffer drops on overflow and every
// drop is counted.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"veritrail/internal/audit"
	"veritrail/internal/audit/metrics"
)

const (
	// DefaultTopic is the audit event stream topic.
	DefaultTopic = "veritrail.audit.events"

	defaultBufferSize = 1024
)

// EnsureTopic creates the audit topic if it does not exist.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && res.Err != kerr.TopicAlreadyExists {
			return fmt.Errorf("create audit topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Publisher implements audit.Publisher over Kafka. Events are keyed by
// session id so one session's events stay ordered within a partition.
type Publisher struct {
	client  *kgo.Client
	topic   string
	buffer  chan audit.Event
	logger  *slog.Logger
	metrics *metrics.Metrics

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithTopic overrides the destination topic.
func WithTopic(topic string) Option {
	return func(p *Publisher) { p.topic = topic }
}

// WithBufferSize sets the in-process buffer capacity.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithMetrics enables publisher metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// New creates a publisher and starts its background worker.
func New(client *kgo.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		topic:  DefaultTopic,
		buffer: make(chan audit.Event, defaultBufferSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(1)
	go p.run()
	return p
}

// Publish enqueues one event. Never blocks: when the buffer is full the
// event is dropped and counted.
func (p *Publisher) Publish(event audit.Event) {
	select {
	case p.buffer <- event:
	default:
		p.metrics.IncStreamDropped()
		if p.logger != nil {
			p.logger.Warn("audit stream buffer full, event dropped",
				"event_id", event.ID, "session_id", event.SessionID)
		}
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			// Drain whatever is already buffered, then stop.
			for {
				select {
				case event := <-p.buffer:
					p.produce(event)
				default:
					return
				}
			}
		case event := <-p.buffer:
			p.produce(event)
		}
	}
}

func (p *Publisher) produce(event audit.Event) {
	value, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("marshal audit event for stream", "event_id", event.ID, "error", err)
		}
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.SessionID),
		Value: value,
	}
	p.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.Error("produce audit event", "event_id", event.ID, "error", err)
		}
	})
}

// Close stops the worker, drains the buffer, and flushes in-flight records.
func (p *Publisher) Close(ctx context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		err = p.client.Flush(ctx)
	})
	return err
}
