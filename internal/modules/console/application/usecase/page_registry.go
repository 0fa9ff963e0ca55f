package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"bistroPulse/internal/modules/catalog/domain"
	"bistroPulse/internal/modules/console/application/port"
	console "bistroPulse/internal/modules/console/domain"
	listingport "bistroPulse/internal/modules/listing/application/port"
	listing "bistroPulse/internal/modules/listing/application/usecase"
	"bistroPulse/internal/shared/auth"
	"bistroPulse/internal/shared/session"
)

// GatewayFactory builds the remote gateway of one page for the session that mounts it.
type GatewayFactory func(sess *session.Session, descriptor domain.Descriptor) (listingport.Gateway, error)

// PageGauge tracks the number of mounted pages.
type PageGauge interface {
	PageMounted(delta int)
}

type RegistryConfig struct {
	Gateways    GatewayFactory
	Validator   listingport.Validator
	Broadcaster port.Broadcaster
	Sockets     port.PageSockets
	Observer    listingport.Observer
	Audit       listingport.AuditSink
	Gauge       PageGauge
	PageSize    int
	LoadTimeout time.Duration
	// IdleTTL evicts pages nobody touched for that long. Zero keeps pages until unmounted.
	IdleTTL time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

type pageKey struct {
	sessionID string
	entity    string
}

// Page is one mounted list page: a ListController bound to a session and an entity.
type Page struct {
	key         pageKey
	userID      string
	role        auth.Role
	descriptor  domain.Descriptor
	controller  *listing.ListController
	unsubscribe func()
	lastUsed    time.Time
}

func (p *Page) Entity() string                      { return p.key.entity }
func (p *Page) SessionID() string                   { return p.key.sessionID }
func (p *Page) UserID() string                      { return p.userID }
func (p *Page) Descriptor() domain.Descriptor       { return p.descriptor }
func (p *Page) Controller() *listing.ListController { return p.controller }

// PageRegistry keeps one ListController per (session, entity) and forwards its views and
// toasts to the session's websocket clients.
type PageRegistry struct {
	cfg    RegistryConfig
	logger *slog.Logger

	mu      sync.Mutex
	pages   map[pageKey]*Page
	stopped bool
}

func NewPageRegistry(cfg RegistryConfig) (*PageRegistry, error) {
	if cfg.Gateways == nil {
		return nil, errors.New("page registry requires a gateway factory")
	}
	if cfg.Broadcaster == nil {
		return nil, errors.New("page registry requires a broadcaster")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &PageRegistry{
		cfg:    cfg,
		logger: cfg.Logger,
		pages:  make(map[pageKey]*Page),
	}, nil
}

// Mount returns the session's page for entity, creating and loading it on first access.
// A failed load is not an error here: it is reported on the page view.
func (r *PageRegistry) Mount(ctx context.Context, sess *session.Session, entity string) (*Page, error) {
	if sess == nil || strings.TrimSpace(sess.ID) == "" {
		return nil, session.ErrMissingID
	}
	if sess.Role != auth.RoleAdmin && sess.Role != auth.RoleOwner {
		return nil, fmt.Errorf("%w: %q", port.ErrRoleNotAllowed, sess.Role)
	}
	descriptor, ok := domain.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", port.ErrUnknownEntity, entity)
	}
	key := pageKey{sessionID: sess.ID, entity: descriptor.Entity}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil, port.ErrRegistryStopped
	}
	if page, ok := r.pages[key]; ok {
		page.lastUsed = r.cfg.Now()
		r.mu.Unlock()
		return page, nil
	}
	page, err := r.newPage(sess, descriptor)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.pages[key] = page
	r.mu.Unlock()

	if r.cfg.Gauge != nil {
		r.cfg.Gauge.PageMounted(1)
	}
	r.logger.Info("page mounted", slog.String("entity", key.entity), slog.String("sessionId", key.sessionID), slog.String("role", string(sess.Role)))

	if err := page.controller.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Debug("initial load failed", slog.String("entity", key.entity), slog.String("sessionId", key.sessionID), slog.Any("error", err))
	}
	return page, nil
}

func (r *PageRegistry) newPage(sess *session.Session, descriptor domain.Descriptor) (*Page, error) {
	gateway, err := r.cfg.Gateways(sess, descriptor)
	if err != nil {
		return nil, fmt.Errorf("build %s gateway: %w", descriptor.Entity, err)
	}
	var audit listingport.AuditSink
	if r.cfg.Audit != nil {
		audit = sessionAudit{sink: r.cfg.Audit, sessionID: sess.ID, userID: sess.UserID}
	}
	controller, err := listing.NewListController(listing.ControllerConfig{
		Entity:      descriptor.Entity,
		Label:       descriptor.Label,
		Gateway:     gateway,
		Validator:   r.cfg.Validator,
		Notifier:    newToastNotifier(r.cfg.Broadcaster, descriptor.Entity, sess.ID, r.cfg.Now),
		Observer:    r.cfg.Observer,
		Audit:       audit,
		FilterKeys:  descriptor.FilterKeys,
		PageSize:    r.cfg.PageSize,
		LoadTimeout: r.cfg.LoadTimeout,
		Logger:      r.logger.With(slog.String("sessionId", sess.ID)),
	})
	if err != nil {
		return nil, err
	}
	page := &Page{
		key:        pageKey{sessionID: sess.ID, entity: descriptor.Entity},
		userID:     sess.UserID,
		role:       sess.Role,
		descriptor: descriptor,
		controller: controller,
		lastUsed:   r.cfg.Now(),
	}
	broadcaster := r.cfg.Broadcaster
	now := r.cfg.Now
	page.unsubscribe = controller.Subscribe(func(view listing.View) {
		msg := console.BuildViewMessage(descriptor.Entity, sess.ID, view.Version, view, now())
		if msg != nil {
			broadcaster.Broadcast(context.Background(), msg)
		}
	})
	return page, nil
}

// Get returns a mounted page and marks it as used.
func (r *PageRegistry) Get(sessionID, entity string) (*Page, error) {
	key := pageKey{sessionID: strings.TrimSpace(sessionID), entity: canonicalEntity(entity)}
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[key]
	if !ok {
		return nil, port.ErrPageNotMounted
	}
	page.lastUsed = r.cfg.Now()
	return page, nil
}

// Unmount closes the session's page for entity. It reports whether a page was mounted.
func (r *PageRegistry) Unmount(sessionID, entity string) bool {
	key := pageKey{sessionID: strings.TrimSpace(sessionID), entity: canonicalEntity(entity)}
	r.mu.Lock()
	page, ok := r.pages[key]
	if ok {
		delete(r.pages, key)
	}
	r.mu.Unlock()
	if ok {
		r.closePage(page, "unmounted")
	}
	return ok
}

// UnmountSession closes every page of a session and returns how many were closed.
func (r *PageRegistry) UnmountSession(sessionID string) int {
	sessionID = strings.TrimSpace(sessionID)
	return r.remove(func(p *Page) bool { return p.key.sessionID == sessionID }, "session closed")
}

// ReloadEntity refetches every mounted page of entity and returns how many were reloaded.
func (r *PageRegistry) ReloadEntity(ctx context.Context, entity string) int {
	entity = canonicalEntity(entity)
	r.mu.Lock()
	pages := make([]*Page, 0)
	for key, page := range r.pages {
		if key.entity == entity {
			pages = append(pages, page)
		}
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, page := range pages {
		wg.Add(1)
		go func(p *Page) {
			defer wg.Done()
			if err := p.controller.Load(ctx); err != nil {
				r.logger.Debug("page reload failed", slog.String("entity", entity), slog.String("sessionId", p.key.sessionID), slog.Any("error", err))
			}
		}(page)
	}
	wg.Wait()
	return len(pages)
}

// EvictIdle closes the pages unused since before now minus IdleTTL. A page with a
// websocket client attached counts as used.
func (r *PageRegistry) EvictIdle(now time.Time) int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-r.cfg.IdleTTL)

	watched := make(map[pageKey]struct{})
	if r.cfg.Sockets != nil {
		r.mu.Lock()
		idle := make([]pageKey, 0)
		for key, page := range r.pages {
			if page.lastUsed.Before(cutoff) {
				idle = append(idle, key)
			}
		}
		r.mu.Unlock()
		for _, key := range idle {
			if r.cfg.Sockets.Watching(key.sessionID, key.entity) {
				watched[key] = struct{}{}
			}
		}
	}

	return r.remove(func(p *Page) bool {
		if _, ok := watched[p.key]; ok {
			p.lastUsed = now
			return false
		}
		return p.lastUsed.Before(cutoff)
	}, "idle")
}

// Len returns the number of mounted pages.
func (r *PageRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Run evicts idle pages until ctx is done, then closes everything still mounted.
func (r *PageRegistry) Run(ctx context.Context) {
	interval := r.cfg.IdleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return
		case <-ticker.C:
			if n := r.EvictIdle(r.cfg.Now()); n > 0 {
				r.logger.Info("idle pages evicted", slog.Int("count", n))
			}
		}
	}
}

// Stop closes every page and rejects further mounts.
func (r *PageRegistry) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.remove(func(*Page) bool { return true }, "shutdown")
}

func (r *PageRegistry) remove(match func(*Page) bool, reason string) int {
	r.mu.Lock()
	removed := make([]*Page, 0)
	for key, page := range r.pages {
		if match(page) {
			removed = append(removed, page)
			delete(r.pages, key)
		}
	}
	r.mu.Unlock()
	for _, page := range removed {
		r.closePage(page, reason)
	}
	return len(removed)
}

func (r *PageRegistry) closePage(page *Page, reason string) {
	page.unsubscribe()
	page.controller.Close()
	sockets := 0
	if r.cfg.Sockets != nil {
		sockets = r.cfg.Sockets.DisconnectPage(page.key.sessionID, page.key.entity)
	}
	if r.cfg.Gauge != nil {
		r.cfg.Gauge.PageMounted(-1)
	}
	r.logger.Info("page closed", slog.String("entity", page.key.entity), slog.String("sessionId", page.key.sessionID), slog.String("reason", reason), slog.Int("sockets", sockets))
}

func canonicalEntity(entity string) string {
	if descriptor, ok := domain.Lookup(entity); ok {
		return descriptor.Entity
	}
	return strings.TrimSpace(entity)
}

// sessionAudit stamps audit events with the session that issued the mutation.
type sessionAudit struct {
	sink      listingport.AuditSink
	sessionID string
	userID    string
}

func (a sessionAudit) Record(event listingport.AuditEvent) {
	event.SessionID = a.sessionID
	event.UserID = a.userID
	a.sink.Record(event)
}
