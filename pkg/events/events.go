// Package events notifies interested parties after entities and their meta
// rows are saved.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind names a save event.
type Kind string

// Event kinds.
const (
	PostSaved     Kind = "post.saved"
	TermSaved     Kind = "term.saved"
	TaxonomySaved Kind = "taxonomy.saved"
	UserSaved     Kind = "user.saved"

	// Meta events carry the owner's id.
	PostMetaSaved Kind = "post.meta.saved"
	TermMetaSaved Kind = "term.meta.saved"
	UserMetaSaved Kind = "user.meta.saved"
)

// Event describes one completed save.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	EntityID int64     `json:"entity_id"`
	At       time.Time `json:"at"`
}

// HookFunc handles an event. A returned error is logged, never propagated
// to the writer.
type HookFunc func(ctx context.Context, e Event) error

// Dispatcher runs registered hooks synchronously in registration order.
// A nil *Dispatcher is valid and does nothing.
type Dispatcher struct {
	mu     sync.RWMutex
	hooks  map[Kind][]HookFunc
	logger *zap.Logger
	now    func() time.Time
}

// NewDispatcher returns a Dispatcher logging hook failures to logger.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		hooks:  make(map[Kind][]HookFunc),
		logger: logger,
		now:    time.Now,
	}
}

// On registers fn for kind.
func (d *Dispatcher) On(kind Kind, fn HookFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks[kind] = append(d.hooks[kind], fn)
}

// HasHooks reports whether any hook is registered for kind.
func (d *Dispatcher) HasHooks(kind Kind) bool {
	if d == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.hooks[kind]) > 0
}

// Emit builds an event for entityID and runs the hooks for kind. It returns
// the event and the number of hooks that failed.
func (d *Dispatcher) Emit(ctx context.Context, kind Kind, entityID int64) (Event, int) {
	if d == nil {
		return Event{}, 0
	}
	d.mu.RLock()
	hooks := append([]HookFunc(nil), d.hooks[kind]...)
	d.mu.RUnlock()

	e := Event{Kind: kind, EntityID: entityID, At: d.now().UTC()}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	e.ID = id

	failed := 0
	for i, fn := range hooks {
		if err := run(ctx, fn, e); err != nil {
			failed++
			d.logger.Error("save hook failed",
				zap.String("kind", string(kind)),
				zap.Int64("entity_id", entityID),
				zap.Int("hook", i),
				zap.Stringer("event_id", e.ID),
				zap.Error(err))
		}
	}
	return e, failed
}

func run(ctx context.Context, fn HookFunc, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return fn(ctx, e)
}
