package domain

import (
	"strconv"
	"strings"
	"time"
)

// Toast is the payload of a notification.toast message.
type Toast struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BuildViewMessage addresses a rendered page view to one session.
func BuildViewMessage(entity, sessionID string, version uint64, view any, at time.Time) *Message {
	entityName := strings.TrimSpace(entity)
	if entityName == "" {
		return nil
	}
	return &Message{
		Topic:  ViewTopic(entityName),
		Entity: entityName,
		Action: ActionView,
		Metadata: compactMetadata(map[string]string{
			MetaSessionID: strings.TrimSpace(sessionID),
			MetaVersion:   strconv.FormatUint(version, 10),
		}),
		Data:      view,
		Timestamp: at.UTC(),
	}
}

// BuildToastMessage builds a transient notification. entity is the page that raised it,
// empty for backend notifications. Blank targets broadcast to every session.
func BuildToastMessage(kind, text, entity, sessionID, userID string, at time.Time) *Message {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &Message{
		Topic:  TopicToast,
		Entity: NotificationEntity,
		Action: ActionToast,
		Metadata: compactMetadata(map[string]string{
			MetaSessionID: strings.TrimSpace(sessionID),
			MetaUserID:    strings.TrimSpace(userID),
			MetaEntity:    strings.TrimSpace(entity),
		}),
		Data:      Toast{Kind: strings.TrimSpace(kind), Message: text},
		Timestamp: at.UTC(),
	}
}

// BuildErrorMessage reports a rejected websocket command back to its sender.
func BuildErrorMessage(entity, message string, at time.Time) *Message {
	return &Message{
		Topic:     TopicSystemError,
		Entity:    SystemEntity,
		Action:    ActionError,
		Metadata:  compactMetadata(map[string]string{MetaEntity: strings.TrimSpace(entity)}),
		Data:      map[string]string{"message": message},
		Timestamp: at.UTC(),
	}
}

func compactMetadata(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
