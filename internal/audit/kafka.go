package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher emits audit events to a Kafka topic, keyed by subject so
// one subject's history stays ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// KafkaOption configures the publisher.
type KafkaOption func(*KafkaPublisher)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(brokers []string, topic string, opts ...KafkaOption) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	p := &KafkaPublisher{client: client, topic: topic}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.ensureTopic(context.Background()); err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

func (p *KafkaPublisher) ensureTopic(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	adm := kadm.NewClient(p.client)
	topics, err := adm.ListTopics(ctx, p.topic)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(p.topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, 3, 1, nil, p.topic); err != nil {
		return fmt.Errorf("create kafka topic %s: %w", p.topic, err)
	}
	return nil
}

// Emit publishes the event synchronously. Callers treat failures as
// best-effort: the compliance operation itself is not rolled back.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	event = stamp(event)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.SubjectID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		if p.logger != nil {
			p.logger.Error("audit publish failed", "action", event.Action, "error", err)
		}
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
