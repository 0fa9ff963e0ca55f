package usecase

import (
	"context"
	"fmt"
	"sync"

	"bistroPulse/internal/modules/listing/application/port"
	"bistroPulse/internal/modules/listing/domain"
)

type customer struct {
	id     string
	name   string
	email  string
	status string
}

func (c customer) EntityID() string       { return c.id }
func (c customer) SearchValues() []string { return []string{c.name, c.email} }

func (c customer) FieldValue(key string) (string, bool) {
	if key == "status" && c.status != "" {
		return c.status, true
	}
	return "", false
}

func (c customer) ToggleStatus() domain.Entity {
	if c.status == "Active" {
		c.status = "Pending"
	} else {
		c.status = "Active"
	}
	return c
}

func customers(n int) []domain.Entity {
	out := make([]domain.Entity, n)
	for i := range out {
		status := "Active"
		if i%5 == 4 {
			status = "Pending"
		}
		out[i] = customer{id: fmt.Sprintf("%d", i+1), name: fmt.Sprintf("Customer %d", i+1), status: status}
	}
	return out
}

func ids(entities []domain.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.EntityID()
	}
	return out
}

type fakeGateway struct {
	mu        sync.Mutex
	list      []domain.Entity
	listErr   error
	deleteErr error
	statusErr error
	updateErr error
	// release, when set, holds every mutating call until it is closed.
	release chan struct{}
	// listStarted and listRelease, when set, announce a fetch and hold it until released
	// or until the fetch context ends.
	listStarted chan struct{}
	listRelease chan struct{}
	calls       []string
	lists       int
}

func (g *fakeGateway) List(ctx context.Context) ([]domain.Entity, error) {
	g.mu.Lock()
	g.lists++
	started, release := g.listStarted, g.listRelease
	list, err := g.list, g.listErr
	g.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return list, err
}

func (g *fakeGateway) Delete(ctx context.Context, id string) error {
	return g.mutate("delete:"+id, g.deleteErr)
}

func (g *fakeGateway) SetStatus(ctx context.Context, entity domain.Entity) error {
	return g.mutate("status:"+entity.EntityID(), g.statusErr)
}

func (g *fakeGateway) Update(ctx context.Context, entity domain.Entity) error {
	return g.mutate("update:"+entity.EntityID(), g.updateErr)
}

func (g *fakeGateway) mutate(call string, err error) error {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	release := g.release
	g.mu.Unlock()
	if release != nil {
		<-release
	}
	return err
}

func (g *fakeGateway) callLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type toast struct {
	kind    port.NotificationKind
	message string
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []toast
}

func (n *recordingNotifier) Notify(_ context.Context, kind port.NotificationKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast{kind: kind, message: message})
}

func (n *recordingNotifier) all() []toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]toast(nil), n.toasts...)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []port.AuditEvent
}

func (a *recordingAudit) Record(event port.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAudit) all() []port.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]port.AuditEvent(nil), a.events...)
}
