package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	catalog "bistroPulse/internal/modules/catalog/domain"
	"bistroPulse/internal/modules/console/application/port"
	console "bistroPulse/internal/modules/console/domain"
	listingport "bistroPulse/internal/modules/listing/application/port"
	listing "bistroPulse/internal/modules/listing/application/usecase"
	listingdomain "bistroPulse/internal/modules/listing/domain"
	"bistroPulse/internal/shared/auth"
	"bistroPulse/internal/shared/session"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []*console.Message
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, msg *console.Message) {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) byTopic(topic string) []*console.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*console.Message, 0)
	for _, msg := range b.messages {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

type stubGateway struct {
	mu        sync.Mutex
	list      []listingdomain.Entity
	lists     int
	deleteErr error
}

func (g *stubGateway) List(context.Context) ([]listingdomain.Entity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lists++
	return append([]listingdomain.Entity(nil), g.list...), nil
}

func (g *stubGateway) Delete(context.Context, string) error { return g.deleteErr }

func (g *stubGateway) SetStatus(context.Context, listingdomain.Entity) error { return nil }

func (g *stubGateway) Update(context.Context, listingdomain.Entity) error { return nil }

func (g *stubGateway) listCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lists
}

type auditLog struct {
	mu     sync.Mutex
	events []listingport.AuditEvent
}

func (a *auditLog) Record(event listingport.AuditEvent) {
	a.mu.Lock()
	a.events = append(a.events, event)
	a.mu.Unlock()
}

type gauge struct {
	mu    sync.Mutex
	value int
}

func (g *gauge) PageMounted(delta int) {
	g.mu.Lock()
	g.value += delta
	g.mu.Unlock()
}

func (g *gauge) current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

type pageSockets struct {
	mu           sync.Mutex
	watching     map[string]bool
	disconnected []string
}

func (s *pageSockets) watch(sessionID, entity string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watching == nil {
		s.watching = make(map[string]bool)
	}
	s.watching[sessionID+":"+entity] = on
}

func (s *pageSockets) Watching(sessionID, entity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching[sessionID+":"+entity]
}

func (s *pageSockets) DisconnectPage(sessionID, entity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = append(s.disconnected, sessionID+":"+entity)
	if s.watching[sessionID+":"+entity] {
		delete(s.watching, sessionID+":"+entity)
		return 1
	}
	return 0
}

func (s *pageSockets) disconnects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.disconnected...)
}

type registryFixture struct {
	registry    *PageRegistry
	broadcaster *recordingBroadcaster
	gateway     *stubGateway
	audit       *auditLog
	gauge       *gauge
	sockets     *pageSockets
	now         *time.Time
}

func newRegistryFixture(t *testing.T, ttl time.Duration) *registryFixture {
	t.Helper()
	now := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
	f := &registryFixture{
		broadcaster: &recordingBroadcaster{},
		gateway: &stubGateway{list: []listingdomain.Entity{
			catalog.Customer{ID: "c1", Name: "Ada", Email: "ada@example.com", Status: catalog.CustomerActive},
			catalog.Customer{ID: "c2", Name: "Grace", Email: "grace@example.com", Status: catalog.CustomerPending},
		}},
		audit: &auditLog{},
		gauge:   &gauge{},
		sockets: &pageSockets{},
		now:     &now,
	}
	registry, err := NewPageRegistry(RegistryConfig{
		Gateways: func(*session.Session, catalog.Descriptor) (listingport.Gateway, error) {
			return f.gateway, nil
		},
		Broadcaster: f.broadcaster,
		Sockets:     f.sockets,
		Audit:       f.audit,
		Gauge:       f.gauge,
		IdleTTL:     ttl,
		Now:         func() time.Time { return *f.now },
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	f.registry = registry
	t.Cleanup(registry.Stop)
	return f
}

func adminSession(id string) *session.Session {
	return &session.Session{ID: id, Token: "tok", UserID: "user-" + id, Role: auth.RoleAdmin}
}

func TestMountLoadsOnceAndBroadcastsViews(t *testing.T) {
	f := newRegistryFixture(t, 0)
	ctx := context.Background()

	page, err := f.registry.Mount(ctx, adminSession("s1"), "Customer")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if page.Entity() != "customers" || page.SessionID() != "s1" {
		t.Fatalf("unexpected page %s/%s", page.Entity(), page.SessionID())
	}
	if total := page.Controller().View().Result.Total; total != 2 {
		t.Fatalf("expected 2 rows, got %d", total)
	}

	again, err := f.registry.Mount(ctx, adminSession("s1"), "customers")
	if err != nil {
		t.Fatalf("second mount: %v", err)
	}
	if again != page {
		t.Fatal("expected the mounted page to be reused")
	}
	if n := f.gateway.listCount(); n != 1 {
		t.Fatalf("expected one fetch, got %d", n)
	}
	if f.gauge.current() != 1 {
		t.Fatalf("expected gauge 1, got %d", f.gauge.current())
	}

	views := f.broadcaster.byTopic(console.ViewTopic("customers"))
	if len(views) < 2 {
		t.Fatalf("expected loading and ready views, got %d", len(views))
	}
	for _, msg := range views {
		if sid, _ := msg.Target(); sid != "s1" {
			t.Fatalf("view not addressed to the session: %v", msg.Metadata)
		}
	}
	last, ok := views[len(views)-1].Data.(listing.View)
	if !ok || last.Phase != listing.PhaseReady {
		t.Fatalf("expected ready view last, got %#v", views[len(views)-1].Data)
	}
}

func TestMountRejections(t *testing.T) {
	f := newRegistryFixture(t, 0)
	ctx := context.Background()

	customer := &session.Session{ID: "s1", Role: auth.RoleCustomer}
	if _, err := f.registry.Mount(ctx, customer, "customers"); !errors.Is(err, port.ErrRoleNotAllowed) {
		t.Fatalf("expected role rejection, got %v", err)
	}
	if _, err := f.registry.Mount(ctx, adminSession("s1"), "reservations"); !errors.Is(err, port.ErrUnknownEntity) {
		t.Fatalf("expected unknown entity, got %v", err)
	}
	if _, err := f.registry.Mount(ctx, &session.Session{Role: auth.RoleAdmin}, "customers"); !errors.Is(err, session.ErrMissingID) {
		t.Fatalf("expected missing id, got %v", err)
	}
	if _, err := f.registry.Get("s1", "customers"); !errors.Is(err, port.ErrPageNotMounted) {
		t.Fatalf("expected not mounted, got %v", err)
	}
}

func TestFailedDeleteToastsTheOwningSession(t *testing.T) {
	f := newRegistryFixture(t, 0)
	f.gateway.deleteErr = errors.New("upstream 500")
	ctx := context.Background()

	page, err := f.registry.Mount(ctx, adminSession("s1"), "customers")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	settlement, err := page.Controller().Delete(ctx, "c1", listing.Confirmed)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := settlement.Wait(waitCtx); err == nil {
		t.Fatal("expected failed settlement")
	}

	toasts := f.broadcaster.byTopic(console.TopicToast)
	if len(toasts) != 1 {
		t.Fatalf("expected one toast, got %d", len(toasts))
	}
	toast := toasts[0].Data.(console.Toast)
	if toast.Kind != "error" {
		t.Fatalf("expected error toast, got %+v", toast)
	}
	if sid, _ := toasts[0].Target(); sid != "s1" {
		t.Fatalf("toast not addressed to the session: %v", toasts[0].Metadata)
	}
	if total := page.Controller().View().Result.Total; total != 2 {
		t.Fatalf("expected the row restored, got %d rows", total)
	}

	f.audit.mu.Lock()
	defer f.audit.mu.Unlock()
	if len(f.audit.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(f.audit.events))
	}
	event := f.audit.events[0]
	if event.SessionID != "s1" || event.UserID != "user-s1" || event.Outcome != "rolled_back" {
		t.Fatalf("unexpected audit event: %+v", event)
	}
}

func TestReloadEntityRefetchesEveryMountedPage(t *testing.T) {
	f := newRegistryFixture(t, 0)
	ctx := context.Background()
	for _, id := range []string{"s1", "s2"} {
		if _, err := f.registry.Mount(ctx, adminSession(id), "customers"); err != nil {
			t.Fatalf("mount %s: %v", id, err)
		}
	}
	if n := f.registry.ReloadEntity(ctx, "customer"); n != 2 {
		t.Fatalf("expected 2 reloads, got %d", n)
	}
	if n := f.registry.ReloadEntity(ctx, "orders"); n != 0 {
		t.Fatalf("expected no reloads for orders, got %d", n)
	}
	if n := f.gateway.listCount(); n != 4 {
		t.Fatalf("expected 4 fetches, got %d", n)
	}
}

func TestUnmountAndEviction(t *testing.T) {
	f := newRegistryFixture(t, 10*time.Minute)
	ctx := context.Background()

	a, _ := f.registry.Mount(ctx, adminSession("s1"), "customers")
	if _, err := f.registry.Mount(ctx, adminSession("s1"), "restaurants"); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if _, err := f.registry.Mount(ctx, adminSession("s2"), "customers"); err != nil {
		t.Fatalf("mount: %v", err)
	}

	if !f.registry.Unmount("s1", "customer") {
		t.Fatal("expected unmount to find the page")
	}
	if f.registry.Unmount("s1", "customers") {
		t.Fatal("second unmount must report false")
	}
	if _, err := a.Controller().Delete(ctx, "c1", listing.Confirmed); !errors.Is(err, listingdomain.ErrPageClosed) {
		t.Fatalf("expected closed page, got %v", err)
	}

	*f.now = f.now.Add(5 * time.Minute)
	if _, err := f.registry.Get("s2", "customers"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	*f.now = f.now.Add(6 * time.Minute)
	if n := f.registry.EvictIdle(*f.now); n != 1 {
		t.Fatalf("expected one idle page evicted, got %d", n)
	}
	if f.registry.Len() != 1 {
		t.Fatalf("expected s2 page to survive, len %d", f.registry.Len())
	}

	if n := f.registry.UnmountSession("s2"); n != 1 {
		t.Fatalf("expected one page for s2, got %d", n)
	}
	if f.gauge.current() != 0 {
		t.Fatalf("expected gauge back to 0, got %d", f.gauge.current())
	}
}

func TestEvictionKeepsWatchedPagesAndClosesSockets(t *testing.T) {
	f := newRegistryFixture(t, time.Minute)
	ctx := context.Background()

	watched, err := f.registry.Mount(ctx, adminSession("s1"), "customers")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if _, err := f.registry.Mount(ctx, adminSession("s2"), "customers"); err != nil {
		t.Fatalf("mount: %v", err)
	}
	f.sockets.watch("s1", "customers", true)

	*f.now = f.now.Add(2 * time.Minute)
	if n := f.registry.EvictIdle(*f.now); n != 1 {
		t.Fatalf("expected only the unwatched page evicted, got %d", n)
	}
	if _, err := f.registry.Get("s1", "customers"); err != nil {
		t.Fatalf("watched page must stay mounted: %v", err)
	}
	if got := f.sockets.disconnects(); len(got) != 1 || got[0] != "s2:customers" {
		t.Fatalf("expected the evicted page sockets closed, got %v", got)
	}

	// Watching refreshes the page, so it survives one more idle period after the socket goes.
	f.sockets.watch("s1", "customers", false)
	*f.now = f.now.Add(30 * time.Second)
	if n := f.registry.EvictIdle(*f.now); n != 0 {
		t.Fatalf("expected no eviction inside the refreshed window, got %d", n)
	}
	*f.now = f.now.Add(2 * time.Minute)
	if n := f.registry.EvictIdle(*f.now); n != 1 {
		t.Fatalf("expected the page evicted once unwatched, got %d", n)
	}
	if _, err := watched.Controller().Delete(ctx, "c1", listing.Confirmed); !errors.Is(err, listingdomain.ErrPageClosed) {
		t.Fatalf("expected closed page, got %v", err)
	}
}

func TestStopRejectsMounts(t *testing.T) {
	f := newRegistryFixture(t, 0)
	f.registry.Stop()
	if _, err := f.registry.Mount(context.Background(), adminSession("s1"), "customers"); !errors.Is(err, port.ErrRegistryStopped) {
		t.Fatalf("expected stopped registry, got %v", err)
	}
}

func TestNewPageRegistryRequiresCollaborators(t *testing.T) {
	if _, err := NewPageRegistry(RegistryConfig{Broadcaster: &recordingBroadcaster{}}); err == nil {
		t.Fatal("expected error without gateway factory")
	}
	factory := func(*session.Session, catalog.Descriptor) (listingport.Gateway, error) { return nil, nil }
	if _, err := NewPageRegistry(RegistryConfig{Gateways: factory}); err == nil {
		t.Fatal("expected error without broadcaster")
	}
}
