package handler

import (
	"context"
	"strings"
	"time"

	"bistroPulse/internal/modules/console/application/port"
	"bistroPulse/internal/modules/console/domain"
	"bistroPulse/internal/shared/normalization"
)

// NotificationHandler forwards backend notification events as info toasts. An event carrying
// a userId reaches that user's sessions only.
type NotificationHandler struct {
	kafkaTopic  string
	broadcaster port.Broadcaster
	now         func() time.Time
}

func NewNotificationHandler(kafkaTopic string, broadcaster port.Broadcaster) *NotificationHandler {
	return &NotificationHandler{kafkaTopic: kafkaTopic, broadcaster: broadcaster, now: time.Now}
}

func (h *NotificationHandler) Topic() string { return h.kafkaTopic }

func (h *NotificationHandler) Handle(ctx context.Context, msg *domain.Message) error {
	text := notificationText(msg.Data)
	if text == "" {
		return nil
	}
	kind := "info"
	userID := ""
	if msg.Metadata != nil {
		userID = strings.TrimSpace(msg.Metadata[domain.MetaUserID])
		if k := strings.ToLower(strings.TrimSpace(msg.Metadata["kind"])); k == "success" || k == "error" {
			kind = k
		}
	}
	toast := domain.BuildToastMessage(kind, text, "", "", userID, h.now())
	if toast == nil {
		return nil
	}
	h.broadcaster.Broadcast(ctx, toast)
	return nil
}

func notificationText(data any) string {
	if s, ok := data.(string); ok {
		return strings.TrimSpace(s)
	}
	raw := normalization.MapFromPayload(data)
	if raw == nil {
		return ""
	}
	return strings.TrimSpace(normalization.FirstString(raw, "message", "title", "body"))
}

var _ port.TopicHandler = (*NotificationHandler)(nil)
