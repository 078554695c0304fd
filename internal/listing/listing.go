package listing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kelechi-dev/workbid/internal/errs"
	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/identity"
	"github.com/kelechi-dev/workbid/internal/logger"
)

var log = logger.NewSublogger("listing")

// Service is a provider's published offering.
type Service struct {
	ID                     int64     `json:"id"`
	Description            string    `json:"description"`
	ServiceProviderAddress string    `json:"service_provider_address"`
	CreatedAt              time.Time `json:"created_at"`
}

// Store persists service listings.
type Store interface {
	InsertService(ctx context.Context, svc Service) (int64, error)
	ListByProvider(ctx context.Context, provider string) ([]Service, error)
	ListAll(ctx context.Context) ([]Service, error)
}

// RoleResolver answers role checks for callers.
type RoleResolver interface {
	RoleOf(ctx context.Context, addr string) (identity.Role, error)
}

// Catalog owns the service listings. Only service providers may publish.
type Catalog struct {
	mu    sync.RWMutex
	store Store
	roles RoleResolver
	bus   *events.Bus
}

func NewCatalog(store Store, roles RoleResolver, bus *events.Bus) *Catalog {
	return &Catalog{store: store, roles: roles, bus: bus}
}

// AddService publishes a new listing for the calling provider.
func (c *Catalog) AddService(ctx context.Context, caller, description string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	role, err := c.roles.RoleOf(ctx, caller)
	if err != nil || role != identity.RoleServiceProvider {
		return 0, fmt.Errorf("%w: not a service provider", errs.ErrUnauthorized)
	}

	id, err := c.store.InsertService(ctx, Service{
		Description:            description,
		ServiceProviderAddress: caller,
		CreatedAt:              time.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert service: %w", err)
	}

	log.WithField("service_id", id).WithField("provider", caller).Info("service listed")
	c.bus.Publish(events.Event{Type: events.TypeServiceListed, Provider: caller})
	return id, nil
}

// ListingsFor returns the provider's listings in publication order.
func (c *Catalog) ListingsFor(ctx context.Context, provider string) ([]Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.ListByProvider(ctx, provider)
}

// AllListings returns every listing in publication order.
func (c *Catalog) AllListings(ctx context.Context) ([]Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.ListAll(ctx)
}

// MemoryStore keeps listings in a slice.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	services []Service
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) InsertService(_ context.Context, svc Service) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	svc.ID = s.nextID
	s.services = append(s.services, svc)
	return svc.ID, nil
}

func (s *MemoryStore) ListByProvider(_ context.Context, provider string) ([]Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Service
	for _, svc := range s.services {
		if svc.ServiceProviderAddress == provider {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Service, len(s.services))
	copy(out, s.services)
	return out, nil
}
