package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kelechi-dev/workbid/internal/errs"
	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/logger"
)

var log = logger.NewSublogger("identity")

// Registry maps opaque caller identities to profiles. A flat key-value store
// with last-write-wins semantics; there is no state machine here.
type Registry struct {
	mu    sync.RWMutex
	store Store
	bus   *events.Bus
}

func NewRegistry(store Store, bus *events.Bus) *Registry {
	return &Registry{store: store, bus: bus}
}

// Register stores or overwrites the profile keyed by identity. Subsequent
// role checks see the new value immediately.
func (r *Registry) Register(ctx context.Context, name string, age int, identity string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := User{
		Identity:  identity,
		Name:      name,
		Age:       age,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := r.store.SaveUser(ctx, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	log.WithField("identity", identity).WithField("role", role.String()).Info("user registered")
	r.bus.Publish(events.Event{Type: events.TypeUserAdded, Client: identity})
	return nil
}

// RoleOf returns the stored role for identity.
func (r *Registry) RoleOf(ctx context.Context, identity string) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok, err := r.store.GetUser(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: user %s is not registered", errs.ErrNotFound, identity)
	}
	return u.Role, nil
}

// Profile returns the full stored profile for identity.
func (r *Registry) Profile(ctx context.Context, identity string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok, err := r.store.GetUser(ctx, identity)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return User{}, fmt.Errorf("%w: user %s is not registered", errs.ErrNotFound, identity)
	}
	return u, nil
}
