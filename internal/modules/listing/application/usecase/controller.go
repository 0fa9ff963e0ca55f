package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bistroPulse/internal/modules/listing/application/port"
	"bistroPulse/internal/modules/listing/domain"
)

// Phase is the lifecycle of a list page: idle until mounted, loading while the list is
// fetched, ready afterwards whether or not the fetch failed.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
)

const defaultLoadTimeout = 30 * time.Second

// View is everything a page needs to render. It is derived from controller state on demand.
type View struct {
	Entity   string                          `json:"entity"`
	Version  uint64                          `json:"version"`
	Phase    Phase                           `json:"phase"`
	Loading  bool                            `json:"loading"`
	Error    *domain.Failure                 `json:"error,omitempty"`
	Search   string                          `json:"search"`
	Criteria domain.Criteria                 `json:"criteria"`
	Result   domain.Page                     `json:"result"`
	States   map[string]domain.MutationState `json:"states,omitempty"`
}

// ControllerConfig wires a ListController. Entity and Gateway are required.
type ControllerConfig struct {
	Entity string
	// Label names one row in notifications, e.g. "customer". Defaults to Entity.
	Label      string
	Gateway    port.Gateway
	Validator  port.Validator
	Notifier   port.Notifier
	Observer   port.Observer
	Audit      port.AuditSink
	FilterKeys []string
	PageSize   int
	// LoadTimeout bounds one shared fetch. Defaults to 30s.
	LoadTimeout time.Duration
	Logger      *slog.Logger
}

// ListController owns the entity list of one page and the search, filter and page state
// layered over it.
type ListController struct {
	entity    string
	label     string
	gateway   port.Gateway
	validator port.Validator
	observer  port.Observer
	logger    *slog.Logger
	pageSize  int
	timeout   time.Duration
	mutator   *OptimisticMutator
	loads     singleflight.Group

	mu          sync.Mutex
	phase       Phase
	failure     *domain.Failure
	search      string
	defaults    domain.Criteria
	criteria    domain.Criteria
	page        int
	version     uint64
	closed      bool
	subscribers map[uint64]func(View)
	nextSub     uint64
}

func NewListController(cfg ControllerConfig) (*ListController, error) {
	if cfg.Entity == "" {
		return nil, errors.New("list controller requires an entity")
	}
	if cfg.Gateway == nil {
		return nil, errors.New("list controller requires a gateway")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	label := cfg.Label
	if label == "" {
		label = cfg.Entity
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}
	defaults := domain.NewCriteria(cfg.FilterKeys...)

	c := &ListController{
		entity:      cfg.Entity,
		label:       label,
		gateway:     cfg.Gateway,
		validator:   cfg.Validator,
		observer:    cfg.Observer,
		logger:      logger.With(slog.String("entity", cfg.Entity)),
		pageSize:    pageSize,
		timeout:     timeout,
		phase:       PhaseIdle,
		defaults:    defaults,
		criteria:    defaults.Clone(),
		page:        1,
		subscribers: make(map[uint64]func(View)),
	}
	c.mutator = NewOptimisticMutator(MutatorConfig{
		Entity:   cfg.Entity,
		Notifier: cfg.Notifier,
		Observer: cfg.Observer,
		Audit:    cfg.Audit,
		Logger:   logger,
		OnChange: c.publish,
	})
	return c, nil
}

func (c *ListController) Entity() string { return c.entity }

// Find returns the row with id as currently shown, optimistic changes included.
func (c *ListController) Find(id string) (domain.Entity, bool) {
	return domain.Find(c.mutator.Visible(), id)
}

// Load fetches the list. A failed fetch is kept as an observable error on the view and
// also returned. Concurrent loads share one request, which is detached from the callers:
// a caller whose ctx ends gets ctx.Err() while the fetch goes on for the others.
func (c *ListController) Load(ctx context.Context) error {
	results := c.loads.DoChan("load", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return nil, c.load(loadCtx)
	})
	select {
	case res := <-results:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ListController) load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrPageClosed
	}
	c.phase = PhaseLoading
	c.mu.Unlock()
	c.publish()

	start := time.Now()
	entities, err := c.gateway.List(ctx)
	if c.observer != nil {
		c.observer.ObserveLoad(c.entity, err, time.Since(start))
	}

	if err == nil {
		c.mutator.Reset(entities)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrPageClosed
	}
	c.phase = PhaseReady
	if err != nil {
		c.failure = domain.FetchFailure(c.entity, err)
	} else {
		c.failure = nil
	}
	failure := c.failure
	c.mu.Unlock()
	c.publish()

	if failure != nil {
		c.logger.Warn("list load failed", slog.String("error", err.Error()))
		return failure
	}
	c.logger.Debug("list loaded", slog.Int("count", len(entities)))
	return nil
}

// View renders the current state. When a shrinking result leaves the page out of range
// the page is clamped to the last one.
func (c *ListController) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *ListController) viewLocked() View {
	filtered := domain.Filter(c.mutator.Visible(), c.search, c.criteria)
	page := domain.Paginate(filtered, c.page, c.pageSize)
	if c.page > page.TotalPages {
		c.page = page.TotalPages
		page = domain.Paginate(filtered, c.page, c.pageSize)
	}
	c.version++
	return View{
		Entity:   c.entity,
		Version:  c.version,
		Phase:    c.phase,
		Loading:  c.phase == PhaseLoading,
		Error:    c.failure,
		Search:   c.search,
		Criteria: c.criteria.Clone(),
		Result:   page,
		States:   c.mutator.States(),
	}
}

// SetSearch changes the search term and returns to page 1.
func (c *ListController) SetSearch(term string) View {
	return c.change(func() {
		c.search = term
		c.page = 1
	})
}

// SetFilter constrains key to value, or lifts the constraint when value is empty.
// The page returns to 1.
func (c *ListController) SetFilter(key, value string) View {
	return c.change(func() {
		c.criteria = c.criteria.With(key, value)
		c.page = 1
	})
}

// ClearFilters restores the default criteria and returns to page 1.
func (c *ListController) ClearFilters() View {
	return c.change(func() {
		c.criteria = c.defaults.Clone()
		c.page = 1
	})
}

// SetPage moves to page, clamped to the available pages.
func (c *ListController) SetPage(page int) View {
	return c.change(func() {
		if page < 1 {
			page = 1
		}
		c.page = page
	})
}

func (c *ListController) change(apply func()) View {
	c.mu.Lock()
	apply()
	view := c.viewLocked()
	subscribers := c.subscribersLocked()
	c.mu.Unlock()
	deliver(subscribers, view)
	return view
}

// Delete removes a row once confirm approves it.
func (c *ListController) Delete(ctx context.Context, id string, confirm Confirmation) (*Settlement, error) {
	if _, ok := domain.Find(c.mutator.Visible(), id); !ok {
		return nil, domain.ErrEntityNotFound
	}
	if confirm == nil || !confirm(ctx, "Delete this "+c.label+"? This cannot be undone.") {
		return nil, domain.ErrConfirmationDeclined
	}
	return c.mutator.Mutate(ctx, Mutation{
		EntityID: id,
		Action:   ActionDelete,
		Apply: func(list []domain.Entity) []domain.Entity {
			return domain.Without(list, id)
		},
		Call: func(ctx context.Context) error {
			return c.gateway.Delete(ctx, id)
		},
		SuccessMessage: capitalize(c.label) + " deleted",
		FailureMessage: "Could not delete " + c.label + ", it has been restored",
	})
}

// ToggleStatus flips the two-state status of a row.
func (c *ListController) ToggleStatus(ctx context.Context, id string) (*Settlement, error) {
	entity, ok := domain.Find(c.mutator.Visible(), id)
	if !ok {
		return nil, domain.ErrEntityNotFound
	}
	toggler, ok := entity.(domain.StatusToggler)
	if !ok {
		return nil, domain.ErrNotToggleable
	}
	toggled := toggler.ToggleStatus()
	return c.mutator.Mutate(ctx, Mutation{
		EntityID: id,
		Action:   ActionToggle,
		Apply: func(list []domain.Entity) []domain.Entity {
			return domain.Replace(list, toggled)
		},
		Call: func(ctx context.Context) error {
			return c.gateway.SetStatus(ctx, toggled)
		},
		SuccessMessage: capitalize(c.label) + " status updated",
		FailureMessage: "Could not change " + c.label + " status, it has been restored",
	})
}

// Update replaces a row with an edited value. Invalid input fails with a validation
// Failure and no backend call.
func (c *ListController) Update(ctx context.Context, entity domain.Entity) (*Settlement, error) {
	if entity == nil {
		return nil, domain.ErrEntityNotFound
	}
	id := entity.EntityID()
	if _, ok := domain.Find(c.mutator.Visible(), id); !ok {
		return nil, domain.ErrEntityNotFound
	}
	if c.validator != nil {
		if fields := c.validator.Validate(entity); len(fields) > 0 {
			return nil, domain.ValidationFailure(c.entity, ActionUpdate, fields)
		}
	}
	return c.mutator.Mutate(ctx, Mutation{
		EntityID: id,
		Action:   ActionUpdate,
		Apply: func(list []domain.Entity) []domain.Entity {
			return domain.Replace(list, entity)
		},
		Call: func(ctx context.Context) error {
			return c.gateway.Update(ctx, entity)
		},
		SuccessMessage: capitalize(c.label) + " saved",
		FailureMessage: "Could not save " + c.label + ", changes were reverted",
	})
}

// Subscribe registers fn for every published view and returns a function that removes it.
// fn runs on the goroutine that changed the state and must not block.
func (c *ListController) Subscribe(fn func(View)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Close unmounts the page. Subscribers are dropped and late results are ignored.
func (c *ListController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.subscribers = nil
	c.mu.Unlock()
	c.mutator.Close()
}

func (c *ListController) publish() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	view := c.viewLocked()
	subscribers := c.subscribersLocked()
	c.mu.Unlock()
	deliver(subscribers, view)
}

func (c *ListController) subscribersLocked() []func(View) {
	out := make([]func(View), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		out = append(out, fn)
	}
	return out
}

func deliver(subscribers []func(View), view View) {
	for _, fn := range subscribers {
		fn(view)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
