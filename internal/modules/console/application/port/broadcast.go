package port

import (
	"context"

	"bistroPulse/internal/modules/console/domain"
)

// Broadcaster delivers messages to the connected websocket clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}

// TopicHandler handles the messages of one kafka topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Message) error
}
