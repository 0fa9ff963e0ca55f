package port

import (
	"context"
	"errors"
)

var (
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrPageNotMounted  = errors.New("page not mounted")
	ErrRoleNotAllowed  = errors.New("role not allowed")
	ErrRegistryStopped = errors.New("page registry stopped")
)

// PageReloader refetches the mounted pages of an entity after a backend change.
type PageReloader interface {
	ReloadEntity(ctx context.Context, entity string) int
}

// PageSockets reports and closes the websocket clients watching a page.
type PageSockets interface {
	Watching(sessionID, entity string) bool
	DisconnectPage(sessionID, entity string) int
}
