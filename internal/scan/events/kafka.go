package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sentry/pkg/platform/circuit"
)

// producer is the subset of *kgo.Client the publisher needs.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher produces events to a Kafka topic keyed by NPI, so every
// event for a provider lands on the same partition. While the breaker is open
// events go to the fallback publisher instead.
type KafkaPublisher struct {
	client   producer
	topic    string
	breaker  *circuit.Breaker
	fallback Publisher
	logger   *slog.Logger
	tracer   trace.Tracer
}

// KafkaOption configures a KafkaPublisher.
type KafkaOption func(*KafkaPublisher)

// WithLogger sets the logger used for breaker transitions.
func WithLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithBreaker replaces the default breaker.
func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(p *KafkaPublisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

// WithFallback sets where events go while the broker is unavailable.
func WithFallback(fb Publisher) KafkaOption {
	return func(p *KafkaPublisher) {
		if fb != nil {
			p.fallback = fb
		}
	}
}

// WithTracer sets the tracer for produce spans.
func WithTracer(t trace.Tracer) KafkaOption {
	return func(p *KafkaPublisher) {
		if t != nil {
			p.tracer = t
		}
	}
}

// NewKafkaPublisher connects a franz-go client to brokers.
func NewKafkaPublisher(brokers []string, topic string, opts ...KafkaOption) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ClientID("sentry"),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return newKafkaPublisher(client, topic, opts...), nil
}

func newKafkaPublisher(client producer, topic string, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		client:  client,
		topic:   topic,
		breaker: circuit.New("kafka", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(1)),
		logger:  slog.Default(),
		tracer:  otel.Tracer("sentry/events"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.fallback == nil {
		p.fallback = NewLogPublisher(p.logger)
	}
	return p
}

// Publish produces evt synchronously. Broker failures are reported to the
// breaker and the event is handed to the fallback; the returned error is
// non-nil only when the fallback fails too.
func (p *KafkaPublisher) Publish(ctx context.Context, evt ScanCompleted) error {
	if !p.breaker.Allow() {
		return p.fallback.Publish(ctx, evt)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode scan event: %w", err)
	}

	ctx, span := p.tracer.Start(ctx, "kafka.produce", trace.WithAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination.name", p.topic),
		attribute.String("event.type", TypeScanCompleted),
	))
	defer span.End()

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(evt.NPI),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(TypeScanCompleted)},
			{Key: "engine_version", Value: []byte(evt.EngineVersion)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "produce failed")
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "event publisher circuit opened",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		}
		return p.fallback.Publish(ctx, evt)
	}

	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "event publisher circuit closed", "breaker", p.breaker.Name())
	}
	return nil
}

// Close flushes and closes the underlying client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
