// Package kafka delivers ledger events to a Kafka topic.
//
// Events are produced as JSON keyed by airline address, so per-airline
// ordering survives partitioning. A circuit breaker guards the broker: when
// the broker is unhealthy, produce attempts fast-fail with a short probe
// timeout until it recovers.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"aircover/pkg/platform/circuit"
	"aircover/pkg/platform/ledgerevents"
)

const (
	produceTimeout = 5 * time.Second
	probeTimeout   = 500 * time.Millisecond

	// DefaultTopic is the topic ledger events are produced to unless
	// configured otherwise.
	DefaultTopic = "aircover.ledger.events"
)

// Sink produces ledger events to a Kafka topic.
type Sink struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger used for breaker transitions and delivery errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(breaker *circuit.Breaker) Option {
	return func(s *Sink) {
		if breaker != nil {
			s.breaker = breaker
		}
	}
}

// NewSink connects to the brokers, ensures the topic exists, and returns a
// ready sink.
func NewSink(ctx context.Context, seeds []string, topic string, opts ...Option) (*Sink, error) {
	if topic == "" {
		topic = DefaultTopic
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.DefaultProduceTopic(topic),
		kgo.ClientID("aircover"),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka brokers: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	s := &Sink{
		client:  client,
		topic:   topic,
		breaker: circuit.New("kafka-event-sink", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ensureTopic creates the topic if it does not exist yet.
func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, ctr := range resp.Sorted() {
		if ctr.Err != nil && !errors.Is(ctr.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", ctr.Topic, ctr.Err)
		}
	}
	return nil
}

// Produce delivers one event. When the breaker is open, the attempt uses a
// short probe timeout so callers are not held up by a dead broker.
func (s *Sink) Produce(ctx context.Context, event ledgerevents.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}

	timeout := produceTimeout
	if s.breaker.IsOpen() {
		timeout = probeTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	record := &kgo.Record{
		Key:   []byte(event.Airline),
		Value: payload,
	}
	if err := s.client.ProduceSync(pctx, record).FirstErr(); err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.Warn("event sink circuit opened", "breaker", s.breaker.Name())
		}
		return fmt.Errorf("produce ledger event: %w", err)
	}

	_, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.logger.Info("event sink circuit closed", "breaker", s.breaker.Name())
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
