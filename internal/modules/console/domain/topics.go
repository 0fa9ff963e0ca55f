package domain

import "strings"

const (
	SystemEntity       = "system"
	NotificationEntity = "notification"

	TopicSystemConnected = SystemEntity + ".connected"
	TopicSystemPong      = SystemEntity + ".pong"
	TopicSystemError     = SystemEntity + ".error"
	TopicToast           = NotificationEntity + ".toast"

	ActionConnected = "connected"
	ActionPong      = "pong"
	ActionError     = "error"
	ActionView      = "view"
	ActionToast     = "toast"
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
)

// ViewTopic returns the topic page views of entity are pushed on.
func ViewTopic(entity string) string {
	return buildEntityTopic(entity, ActionView)
}

// CustomTopic returns the canonical topic for the given entity and action.
func CustomTopic(entity, action string) string {
	return buildEntityTopic(entity, action)
}

func buildEntityTopic(entity, action string) string {
	cleanEntity := strings.TrimSpace(entity)
	cleanAction := strings.TrimSpace(action)
	if cleanEntity == "" || cleanAction == "" {
		return ""
	}
	return cleanEntity + "." + cleanAction
}
