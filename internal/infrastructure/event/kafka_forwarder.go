package event

import (
	"context"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const kafkaWriteTimeout = 5 * time.Second

// MessageWriter is the subset of *kafka.Writer the forwarder uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a producer for the configured brokers
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           kafkaWriteTimeout,
	}
}

// KafkaForwarder publishes status changes and settlement events to a topic,
// keyed by customer so a customer's events stay ordered within a partition.
type KafkaForwarder struct {
	writer     MessageWriter
	topic      string
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewKafkaForwarder creates a forwarder
func NewKafkaForwarder(writer MessageWriter, topic string, serializer *EventSerializer, logger *zap.Logger) *KafkaForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topic == "" {
		topic = "crm.events"
	}
	return &KafkaForwarder{
		writer:     writer,
		topic:      topic,
		serializer: serializer,
		logger:     logger,
	}
}

// EventTypes lists the forwarded events
func (f *KafkaForwarder) EventTypes() []string {
	return []string{
		customer.EventTypeCustomerStatusChanged,
		settlement.EventTypeSettlementSynced,
		settlement.EventTypeClawbackProcessed,
	}
}

// Handle writes the event. Failures are logged and swallowed; the event
// already took effect locally.
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	data, err := f.serializer.Encode(event)
	if err != nil {
		f.logger.Warn("kafka forward skipped: encode failed",
			zap.String("event_type", event.EventType()), zap.Error(err))
		return nil
	}

	// the request may finish before the write does
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), kafkaWriteTimeout)
	defer cancel()

	msg := kafka.Message{
		Topic: f.topic,
		Key:   []byte(event.AggregateID().String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
		},
	}
	if err := f.writer.WriteMessages(writeCtx, msg); err != nil {
		f.logger.Warn("kafka forward failed",
			zap.String("topic", f.topic),
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
		return nil
	}

	f.logger.Debug("event forwarded to kafka",
		zap.String("topic", f.topic),
		zap.String("event_type", event.EventType()))
	return nil
}

// Close flushes and closes the writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
