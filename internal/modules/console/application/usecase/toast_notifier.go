package usecase

import (
	"context"
	"time"

	"bistroPulse/internal/modules/console/application/port"
	console "bistroPulse/internal/modules/console/domain"
	listingport "bistroPulse/internal/modules/listing/application/port"
)

// toastNotifier turns page notifications into notification.toast messages for one session.
type toastNotifier struct {
	broadcaster port.Broadcaster
	entity      string
	sessionID   string
	now         func() time.Time
}

func newToastNotifier(b port.Broadcaster, entity, sessionID string, now func() time.Time) *toastNotifier {
	return &toastNotifier{broadcaster: b, entity: entity, sessionID: sessionID, now: now}
}

func (n *toastNotifier) Notify(ctx context.Context, kind listingport.NotificationKind, message string) {
	msg := console.BuildToastMessage(string(kind), message, n.entity, n.sessionID, "", n.now())
	if msg == nil {
		return
	}
	n.broadcaster.Broadcast(ctx, msg)
}

var _ listingport.Notifier = (*toastNotifier)(nil)
