package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	listingport "bistroPulse/internal/modules/listing/application/port"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AuditPublisher writes settled mutations to a kafka topic. Writes are asynchronous so
// Record never waits on the broker.
type AuditPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewAuditPublisher(brokers []string, topic string) *AuditPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		RequiredAcks: kafka.RequireOne,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				slog.Warn("audit publish failed", slog.String("topic", topic), slog.Int("messages", len(messages)), slog.Any("error", err))
			}
		},
	}
	return newAuditPublisher(writer)
}

func newAuditPublisher(writer messageWriter) *AuditPublisher {
	return &AuditPublisher{writer: writer, timeout: 5 * time.Second}
}

func (p *AuditPublisher) Record(event listingport.AuditEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		slog.Error("audit marshal error", slog.Any("error", err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Entity + ":" + event.EntityID),
		Value: value,
		Time:  event.At,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "outcome", Value: []byte(event.Outcome)},
		},
	})
	if err != nil {
		slog.Warn("audit publish failed", slog.String("entity", event.Entity), slog.String("entityId", event.EntityID), slog.Any("error", err))
	}
}

func (p *AuditPublisher) Close() error {
	return p.writer.Close()
}

var _ listingport.AuditSink = (*AuditPublisher)(nil)
