// Package tenant decides which tenant the session acts on behalf of.
//
// The last selection is remembered in the client-local store under
// [StoreKey]. On start the [Resolver] restores it when it still names one of
// the session's tenants, and otherwise drops it and asks the user to pick.
// It never falls back to the first tenant in the list.
//
// The active tenant is returned to callers as a [Selection] carrying a
// tenant-scoped API client, so nothing outside the selection holds tenant
// state.
package tenant

import (
	"context"
	"strings"

	"github.com/somesimplify/somectl/internal/api"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/logging"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/store"
)

// StoreKey is the store key holding the selected tenant ID as plain text.
const StoreKey = "tenant"

// Backend is the part of the API the resolver needs.
type Backend interface {
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	CreateTenant(ctx context.Context, name string) (string, error)
	ForTenant(tenantID string) *api.TenantClient
}

// Kind is the result of resolving a tenant.
type Kind int

const (
	// KindNoTenants means the session has no tenants; the user must create one.
	KindNoTenants Kind = iota
	// KindNeedsSelection means the user must pick from Outcome.Tenants.
	KindNeedsSelection
	// KindRestored means the stored selection was adopted.
	KindRestored
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNoTenants:
		return "no_tenants"
	case KindNeedsSelection:
		return "needs_selection"
	case KindRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Selection is the active tenant and a client scoped to it.
type Selection struct {
	Tenant model.Tenant
	Client *api.TenantClient
}

// Outcome is what Resolve found.
type Outcome struct {
	Kind    Kind
	Tenants []model.Tenant
	// Selection is set when Kind is KindRestored.
	Selection *Selection
}

// Resolver restores, selects, creates and forgets the tenant selection.
type Resolver struct {
	backend Backend
	store   store.Store
	logger  *logging.Logger
	bus     *event.Bus
}

// NewResolver creates a Resolver. bus may be nil.
func NewResolver(backend Backend, st store.Store, logger *logging.Logger, bus *event.Bus) *Resolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Resolver{
		backend: backend,
		store:   st,
		logger:  logger.WithComponent("tenant"),
		bus:     bus,
	}
}

// Resolve lists the session's tenants and restores the stored selection if
// it still matches one of them exactly. A stored reference that matches
// nothing is deleted before the picker is requested.
func (r *Resolver) Resolve(ctx context.Context, session model.Session) (Outcome, error) {
	if err := requireSession(session); err != nil {
		return Outcome{}, err
	}

	tenants, err := r.backend.ListTenants(ctx)
	if err != nil {
		return Outcome{}, errors.NewReadError("list", "tenants", err)
	}
	if len(tenants) == 0 {
		r.logger.Info("session has no tenants")
		return Outcome{Kind: KindNoTenants}, nil
	}

	stored, err := r.Current(ctx)
	if err != nil {
		// An unreadable reference is treated like a missing one.
		r.logger.Warn("failed to read stored tenant", "error", err.Error())
		stored = ""
	}

	if t, ok := model.FindTenant(tenants, stored); ok {
		sel := r.activate(t, true)
		return Outcome{Kind: KindRestored, Tenants: tenants, Selection: &sel}, nil
	}

	if stored != "" {
		r.logger.Info("dropping stale tenant reference", "tenant_id", stored)
		if err := r.clear(ctx, stored, true); err != nil {
			return Outcome{}, err
		}
	}
	return Outcome{Kind: KindNeedsSelection, Tenants: tenants}, nil
}

// Current returns the stored tenant ID, or "" when none is stored.
func (r *Resolver) Current(ctx context.Context) (string, error) {
	data, err := r.store.Load(ctx, StoreKey)
	if errors.Is(err, errors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Select persists t as the active tenant and returns the selection.
func (r *Resolver) Select(ctx context.Context, t model.Tenant) (Selection, error) {
	if t.ID == "" {
		return Selection{}, errors.NewValidationError("tenant is required").WithField("tenant")
	}
	if err := r.store.Save(ctx, StoreKey, []byte(t.ID)); err != nil {
		return Selection{}, errors.Wrap(err, "failed to store tenant selection")
	}
	return r.activate(t, false), nil
}

// SelectID looks id up among the session's tenants and selects it.
func (r *Resolver) SelectID(ctx context.Context, session model.Session, id string) (Selection, error) {
	if err := requireSession(session); err != nil {
		return Selection{}, err
	}
	tenants, err := r.backend.ListTenants(ctx)
	if err != nil {
		return Selection{}, errors.NewReadError("list", "tenants", err)
	}
	t, ok := model.FindTenant(tenants, id)
	if !ok {
		return Selection{}, errors.NewTenantError("tenant is not available to this session", errors.NewNotFoundError("tenant", id)).
			WithTenantID(id)
	}
	return r.Select(ctx, t)
}

// Create creates a tenant named name and selects it.
func (r *Resolver) Create(ctx context.Context, session model.Session, name string) (Selection, error) {
	if err := requireSession(session); err != nil {
		return Selection{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Selection{}, errors.NewValidationError("tenant name is required").WithField("name")
	}

	id, err := r.backend.CreateTenant(ctx, name)
	if err != nil {
		return Selection{}, errors.NewMutationError("create", "tenant", name, err)
	}
	r.logger.Info("tenant created", "tenant_id", id)
	return r.Select(ctx, model.Tenant{ID: id, Name: name})
}

// Forget removes the stored selection. Forgetting when nothing is stored
// is not an error.
func (r *Resolver) Forget(ctx context.Context) error {
	id, err := r.Current(ctx)
	if err != nil {
		return err
	}
	return r.clear(ctx, id, false)
}

func (r *Resolver) clear(ctx context.Context, id string, stale bool) error {
	if err := r.store.Delete(ctx, StoreKey); err != nil && !errors.Is(err, errors.ErrNotFound) {
		return errors.Wrap(err, "failed to clear tenant selection")
	}
	if r.bus != nil {
		r.bus.Publish(event.NewTenantClearedEvent(id, stale))
	}
	return nil
}

func (r *Resolver) activate(t model.Tenant, restored bool) Selection {
	r.logger.WithTenant(t.ID).Info("tenant active", "restored", restored)
	if r.bus != nil {
		r.bus.Publish(event.NewTenantSelectedEvent(t.ID, t.Name, restored))
	}
	return Selection{Tenant: t, Client: r.backend.ForTenant(t.ID)}
}

func requireSession(session model.Session) error {
	if !session.Authenticated {
		return errors.NewAuthError("a resolved session is required", errors.ErrUnauthenticated)
	}
	return nil
}
