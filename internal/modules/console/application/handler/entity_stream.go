package handler

import (
	"context"
	"log/slog"
	"strings"

	"bistroPulse/internal/modules/console/application/port"
	"bistroPulse/internal/modules/console/domain"
)

// EntityStreamHandler reloads the mounted pages of an entity when its kafka topic reports
// a backend change. Only allowed actions trigger a reload.
type EntityStreamHandler struct {
	entity         string
	kafkaTopic     string
	allowedActions map[string]struct{}
	pages          port.PageReloader
}

func NewEntityStreamHandler(entity, kafkaTopic string, allowedActions []string, pages port.PageReloader) *EntityStreamHandler {
	actionSet := make(map[string]struct{}, len(allowedActions))
	for _, a := range allowedActions {
		if v := strings.TrimSpace(strings.ToLower(a)); v != "" {
			actionSet[v] = struct{}{}
		}
	}
	return &EntityStreamHandler{
		entity:         strings.TrimSpace(entity),
		kafkaTopic:     kafkaTopic,
		allowedActions: actionSet,
		pages:          pages,
	}
}

func (h *EntityStreamHandler) Topic() string { return h.kafkaTopic }

func (h *EntityStreamHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if len(h.allowedActions) > 0 {
		if _, ok := h.allowedActions[strings.ToLower(msg.Action)]; !ok {
			return nil
		}
	}
	entityName := h.entity
	if entityName == "" {
		entityName = strings.TrimSpace(msg.Entity)
	}
	if entityName == "" {
		return nil
	}
	reloaded := h.pages.ReloadEntity(ctx, entityName)
	slog.Info("entity-stream reload", slog.String("entity", entityName), slog.String("action", msg.Action), slog.String("resourceId", msg.ResourceID), slog.Int("pages", reloaded))
	return nil
}

var _ port.TopicHandler = (*EntityStreamHandler)(nil)
