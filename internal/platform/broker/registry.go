package broker

import (
	"context"
	"log/slog"
	"sync"

	"bistroPulse/internal/modules/console/domain"
)

// Dispatcher routes a consumed message to its topic handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *domain.Message) error
}

// StartKafkaConsumers runs one consumer per topic until ctx is cancelled. The returned
// WaitGroup completes once every consumer has stopped.
func StartKafkaConsumers(
	ctx context.Context,
	dispatcher Dispatcher,
	brokers []string,
	groupID string,
	topics []string,
	observer EventObserver,
) *sync.WaitGroup {
	var wg sync.WaitGroup
	if len(brokers) == 0 {
		// kafka.NewReader panics on an empty broker list.
		slog.Info("kafka disabled: no brokers configured")
		return &wg
	}
	seen := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		if _, dup := seen[topic]; dup || topic == "" {
			continue
		}
		seen[topic] = struct{}{}
		wg.Add(1)
		go func(tp string) {
			defer wg.Done()
			consumer := NewKafkaConsumer(brokers, groupID, tp, observer)
			_ = consumer.Consume(ctx, func(msg *domain.Message) error {
				return dispatcher.Dispatch(ctx, msg)
			})
			slog.Info("kafka consumer stopped", slog.String("topic", tp))
		}(topic)
	}
	return &wg
}
