// Package cli holds what the somectl commands share: building the
// configured services, resolving the session and active tenant, and
// rendering output in the format chosen with --output.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/api"
	"github.com/somesimplify/somectl/internal/config"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/identity"
	"github.com/somesimplify/somectl/internal/logging"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/store"
	"github.com/somesimplify/somectl/internal/tenant"
)

// Persistent flag names defined on the root command.
const (
	FlagOutput = "output"
	FlagTenant = "tenant"
)

// Env is the set of services a command runs against.
type Env struct {
	Config   *config.Config
	Logger   *logging.Logger
	Bus      *event.Bus
	Store    store.Store
	Client   *api.Client
	Identity *identity.Resolver
	Tenants  *tenant.Resolver

	// TenantOverride is the --tenant flag. When set it is used for this
	// command only and the stored selection is left alone.
	TenantOverride string
}

// Bootstrap loads the configuration and builds the services. The caller
// must Close the returned Env.
func Bootstrap(cmd *cobra.Command) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := CreateLogger(cfg)
	bus := event.NewBus(event.WithLogger(logger))

	st, err := store.Open(cfg.State)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	client, err := api.New(cfg.API.BaseURL,
		api.WithToken(cfg.Auth.Token),
		api.WithTimeout(cfg.API.Timeout()),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithLogger(logger),
	)
	if err != nil {
		_ = st.Close()
		_ = logger.Close()
		return nil, err
	}

	env := &Env{
		Config: cfg,
		Logger: logger,
		Bus:    bus,
		Store:  st,
		Client: client,
		Identity: identity.NewResolver(client,
			identity.WithToken(cfg.Auth.Token),
			identity.WithRegistrationURL(cfg.Auth.RegistrationURL),
			identity.WithLogger(logger),
			identity.WithBus(bus),
		),
		Tenants: tenant.NewResolver(client, st, logger, bus),
	}
	if f := cmd.Flags().Lookup(FlagTenant); f != nil {
		env.TenantOverride = strings.TrimSpace(f.Value.String())
	}
	logger.Debug("command started", "command", cmd.CommandPath())
	return env, nil
}

// CreateLogger builds the file logger described by cfg, or a no-op logger
// when logging is disabled or the log file cannot be opened.
func CreateLogger(cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	rotationConfig := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}

	logger, err := logging.NewLogger(cfg.State.ResolvedDir(), cfg.Logging.Level, rotationConfig)
	if err != nil {
		// Log creation failure shouldn't prevent the command from running
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

// Close releases the store and the log file.
func (e *Env) Close() {
	if err := e.Store.Close(); err != nil {
		e.Logger.Warn("failed to close state store", "error", err.Error())
	}
	_ = e.Logger.Close()
}

// Session resolves the signed-in user. A session that needs registration
// or failed to resolve is returned as an error that explains what to do.
func (e *Env) Session(ctx context.Context) (model.Session, error) {
	state := e.Identity.Resolve(ctx)
	switch state.Status {
	case identity.StatusResolved:
		return state.Session, nil
	case identity.StatusNeedsRegistration:
		return model.Session{}, fmt.Errorf("no account is provisioned for this identity; register at %s: %w",
			state.RegistrationURL, state.Err)
	default:
		return model.Session{}, state.Err
	}
}

// Tenant returns the tenant the command acts on: the --tenant override when
// given, otherwise the stored selection.
func (e *Env) Tenant(ctx context.Context) (tenant.Selection, error) {
	session, err := e.Session(ctx)
	if err != nil {
		return tenant.Selection{}, err
	}

	if e.TenantOverride != "" {
		tenants, err := e.Client.ListTenants(ctx)
		if err != nil {
			return tenant.Selection{}, errors.NewReadError("list", "tenants", err)
		}
		t, ok := model.FindTenant(tenants, e.TenantOverride)
		if !ok {
			return tenant.Selection{}, errors.NewTenantError("tenant is not available to this session",
				errors.NewNotFoundError("tenant", e.TenantOverride)).WithTenantID(e.TenantOverride)
		}
		e.Logger.WithTenant(t.ID).Debug("using tenant override")
		return tenant.Selection{Tenant: t, Client: e.Client.ForTenant(t.ID)}, nil
	}

	out, err := e.Tenants.Resolve(ctx, session)
	if err != nil {
		return tenant.Selection{}, err
	}
	switch out.Kind {
	case tenant.KindRestored:
		return *out.Selection, nil
	case tenant.KindNoTenants:
		return tenant.Selection{}, errors.NewTenantError(
			"you have no workspaces yet; create one with 'somectl tenant create <name>'", errors.ErrNoTenants)
	default:
		return tenant.Selection{}, errors.NewTenantError(
			"no workspace selected; run 'somectl tenant list' and 'somectl tenant select <id>'", errors.ErrTenantNotSelected)
	}
}
