package port

import "context"

// NotificationKind selects how a toast is styled.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
	NotificationInfo    NotificationKind = "info"
)

// Notifier shows transient messages to the person viewing the page. It must not block.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, kind NotificationKind, message string)

func (f NotifierFunc) Notify(ctx context.Context, kind NotificationKind, message string) {
	f(ctx, kind, message)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, NotificationKind, string) {}
