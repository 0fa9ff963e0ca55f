package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"bistroPulse/internal/modules/console/domain"
	listingport "bistroPulse/internal/modules/listing/application/port"
)

func TestDecodeMessage(t *testing.T) {
	at := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name       string
		msg        kafka.Message
		entity     string
		action     string
		resourceID string
	}{
		{
			name:       "json event",
			msg:        kafka.Message{Topic: "bistropulse.orders.created", Time: at, Value: []byte(`{"entity":"orders","action":"Updated","resourceId":"o-1","metadata":{"userId":"u1"}}`)},
			entity:     "orders",
			action:     "updated",
			resourceID: "o-1",
		},
		{
			name:       "json without entity",
			msg:        kafka.Message{Topic: "bistropulse.restaurants.deleted", Value: []byte(`{"id":"r-9"}`)},
			entity:     "restaurants",
			action:     "deleted",
			resourceID: "r-9",
		},
		{
			name:   "plain text",
			msg:    kafka.Message{Topic: "notifications", Value: []byte("server restarting")},
			entity: "notifications",
			action: "unknown",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := decodeMessage(tc.msg)
			if msg.Topic != tc.msg.Topic {
				t.Fatalf("topic must stay the kafka topic, got %q", msg.Topic)
			}
			if msg.Entity != tc.entity || msg.Action != tc.action || msg.ResourceID != tc.resourceID {
				t.Fatalf("unexpected message %+v", msg)
			}
			if msg.Timestamp.IsZero() {
				t.Fatal("expected timestamp")
			}
		})
	}
	if got := decodeMessage(kafka.Message{Topic: "t", Time: at, Value: []byte("x")}).Timestamp; !got.Equal(at) {
		t.Fatalf("expected broker time, got %v", got)
	}
}

type scriptedReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

type eventCounter struct {
	mu       sync.Mutex
	failures int
	total    int
}

func (c *eventCounter) ObserveEvent(_ string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	if err != nil {
		c.failures++
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		{Topic: "bp.customers", Value: []byte(`{"action":"created"}`)},
		{Topic: "bp.customers", Value: []byte(`{"action":"bad"}`)},
	}}
	counter := &eventCounter{}
	consumer := &KafkaConsumer{reader: reader, observer: counter}

	ctx, cancel := context.WithCancel(context.Background())
	handled := make(chan string, 2)
	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, func(msg *domain.Message) error {
			handled <- msg.Action
			if msg.Action == "bad" {
				return errors.New("rejected")
			}
			return nil
		})
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-handled:
		case <-time.After(2 * time.Second):
			t.Fatal("message not handled")
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
	if !reader.closed {
		t.Fatal("expected reader closed")
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	if counter.total != 2 || counter.failures != 1 {
		t.Fatalf("unexpected counts %+v", counter)
	}
}

func TestStartKafkaConsumersWithoutBrokers(t *testing.T) {
	wg := StartKafkaConsumers(context.Background(), nil, nil, "group", []string{"a"}, nil)
	wg.Wait()
}

type memoryWriter struct {
	messages []kafka.Message
	err      error
}

func (w *memoryWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return w.err
}

func (w *memoryWriter) Close() error { return nil }

func TestAuditPublisherRecord(t *testing.T) {
	writer := &memoryWriter{}
	publisher := newAuditPublisher(writer)
	event := listingport.AuditEvent{
		Entity:    "customers",
		EntityID:  "c1",
		Action:    "delete",
		Outcome:   "rolled_back",
		Error:     "boom",
		SessionID: "s1",
		At:        time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC),
	}
	publisher.Record(event)

	if len(writer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "customers:c1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	var decoded listingport.AuditEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Outcome != "rolled_back" || decoded.SessionID != "s1" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
	if len(msg.Headers) != 2 || string(msg.Headers[1].Value) != "rolled_back" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}

	writer.err = errors.New("broker down")
	publisher.Record(event)
	if err := publisher.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
