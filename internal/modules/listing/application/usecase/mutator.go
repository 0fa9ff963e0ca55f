package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"bistroPulse/internal/modules/listing/application/port"
	"bistroPulse/internal/modules/listing/domain"
)

const (
	ActionDelete = "delete"
	ActionToggle = "toggle"
	ActionUpdate = "update"
)

// Mutation is one optimistic change. Apply must be pure: it may run more than once when
// the confirmed list is rebased.
type Mutation struct {
	EntityID       string
	Action         string
	Apply          func([]domain.Entity) []domain.Entity
	Call           func(ctx context.Context) error
	SuccessMessage string
	FailureMessage string
}

// Settlement resolves once the server call of a mutation has settled and the list
// reflects the outcome.
type Settlement struct {
	ID   string
	done chan struct{}
	err  error
}

func newSettlement(id string) *Settlement {
	return &Settlement{ID: id, done: make(chan struct{})}
}

func (s *Settlement) finish(err error) {
	s.err = err
	close(s.done)
}

// Done is closed when the mutation has settled.
func (s *Settlement) Done() <-chan struct{} { return s.done }

// Err returns the settlement outcome, or nil while the mutation is still pending.
func (s *Settlement) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Wait blocks until the mutation settles or ctx ends.
func (s *Settlement) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type pendingMutation struct {
	id       string
	entityID string
	apply    func([]domain.Entity) []domain.Entity
}

// MutatorConfig wires an OptimisticMutator to its collaborators. Only Entity is required.
type MutatorConfig struct {
	Entity   string
	Notifier port.Notifier
	Observer port.Observer
	Audit    port.AuditSink
	Logger   *slog.Logger
	// OnChange runs after every change of the visible list, outside of any lock.
	OnChange func()
	Now      func() time.Time
}

// OptimisticMutator is the only writer of a page's entity list.
//
// It keeps the last confirmed list (base) and an ordered log of unsettled mutations.
// The visible list is base with the log applied in dispatch order, so a failed mutation
// is rolled back by dropping it from the log without undoing anything another mutation
// confirmed in the meantime.
type OptimisticMutator struct {
	entity   string
	notifier port.Notifier
	observer port.Observer
	audit    port.AuditSink
	logger   *slog.Logger
	onChange func()
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	base    []domain.Entity
	visible []domain.Entity
	pending []*pendingMutation
	states  map[string]domain.MutationState
	closed  bool
}

func NewOptimisticMutator(cfg MutatorConfig) *OptimisticMutator {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = port.NopNotifier{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onChange := cfg.OnChange
	if onChange == nil {
		onChange = func() {}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &OptimisticMutator{
		entity:   cfg.Entity,
		notifier: notifier,
		observer: cfg.Observer,
		audit:    cfg.Audit,
		logger:   logger.With(slog.String("entity", cfg.Entity)),
		onChange: onChange,
		now:      now,
		ctx:      ctx,
		cancel:   cancel,
		states:   make(map[string]domain.MutationState),
	}
}

// Visible returns the list the page renders. Callers must not modify it.
func (o *OptimisticMutator) Visible() []domain.Entity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// State returns the mutation state of one row.
func (o *OptimisticMutator) State(id string) domain.MutationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if state, ok := o.states[id]; ok {
		return state
	}
	return domain.MutationIdle
}

// States returns the rows whose state is not idle.
func (o *OptimisticMutator) States() map[string]domain.MutationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]domain.MutationState, len(o.states))
	for id, state := range o.states {
		out[id] = state
	}
	return out
}

// Pending reports the number of unsettled mutations.
func (o *OptimisticMutator) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Reset installs a fresh confirmed list from the server. Unsettled mutations are
// re-applied on top of it and failed row markers are cleared. OnChange is not invoked.
func (o *OptimisticMutator) Reset(list []domain.Entity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.base = list
	o.visible = o.rebuild()
	for id, state := range o.states {
		if state == domain.MutationFailed {
			delete(o.states, id)
		}
	}
}

// Mutate applies m to the visible list and publishes it before the server call is
// dispatched. The call runs in the background; its outcome is reported through the
// returned Settlement, the notifier and OnChange.
func (o *OptimisticMutator) Mutate(ctx context.Context, m Mutation) (*Settlement, error) {
	if m.Apply == nil || m.Call == nil {
		return nil, errors.New("mutation requires apply and call functions")
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, domain.ErrPageClosed
	}
	if o.states[m.EntityID] == domain.MutationPending {
		o.mu.Unlock()
		return nil, domain.ErrMutationInFlight
	}
	entry := &pendingMutation{id: uuid.NewString(), entityID: m.EntityID, apply: m.Apply}
	o.pending = append(o.pending, entry)
	o.visible = m.Apply(o.visible)
	o.states[m.EntityID] = domain.MutationPending
	o.mu.Unlock()

	o.onChange()

	settlement := newSettlement(entry.id)

	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(o.ctx, cancel)
	go func() {
		defer cancel()
		defer stop()
		err := m.Call(callCtx)
		o.settle(context.WithoutCancel(ctx), entry, m, err, settlement)
	}()

	return settlement, nil
}

func (o *OptimisticMutator) settle(ctx context.Context, entry *pendingMutation, m Mutation, callErr error, settlement *Settlement) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.logger.Debug("discarding settlement after close",
			slog.String("action", m.Action),
			slog.String("id", m.EntityID),
		)
		settlement.finish(domain.ErrPageClosed)
		return
	}

	o.pending = slices.DeleteFunc(o.pending, func(p *pendingMutation) bool { return p == entry })
	if callErr == nil {
		if len(o.pending) == 0 {
			o.base = o.visible
		} else {
			o.base = entry.apply(o.base)
			o.visible = o.rebuild()
		}
		delete(o.states, m.EntityID)
	} else {
		o.visible = o.rebuild()
		o.states[m.EntityID] = domain.MutationFailed
	}
	o.mu.Unlock()

	if o.observer != nil {
		o.observer.ObserveMutation(o.entity, m.Action, callErr)
	}
	o.record(m, callErr)
	o.onChange()

	if callErr != nil {
		message := m.FailureMessage
		if message == "" {
			message = "could not " + m.Action + " " + o.entity
		}
		o.logger.Warn("mutation rolled back",
			slog.String("action", m.Action),
			slog.String("id", m.EntityID),
			slog.String("error", callErr.Error()),
		)
		o.notifier.Notify(ctx, port.NotificationError, message)
		settlement.finish(domain.MutationFailure(o.entity, m.Action, message, callErr))
		return
	}

	if m.SuccessMessage != "" {
		o.notifier.Notify(ctx, port.NotificationSuccess, m.SuccessMessage)
	}
	settlement.finish(nil)
}

func (o *OptimisticMutator) record(m Mutation, callErr error) {
	if o.audit == nil {
		return
	}
	event := port.AuditEvent{
		Entity:   o.entity,
		EntityID: m.EntityID,
		Action:   m.Action,
		Outcome:  "confirmed",
		At:       o.now().UTC(),
	}
	if callErr != nil {
		event.Outcome = "rolled_back"
		event.Error = callErr.Error()
	}
	o.audit.Record(event)
}

// rebuild must be called with o.mu held. With no unsettled mutations the visible list is
// the confirmed list itself.
func (o *OptimisticMutator) rebuild() []domain.Entity {
	visible := o.base
	for _, p := range o.pending {
		visible = p.apply(visible)
	}
	return visible
}

// Close stops publishing. Calls still in flight are cancelled and their results discarded.
func (o *OptimisticMutator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
}
