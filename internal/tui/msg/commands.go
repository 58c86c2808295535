package msg

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/identity"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/review"
	"github.com/somesimplify/somectl/internal/tenant"
)

// ResolveSession returns a command that settles the session.
func ResolveSession(ctx context.Context, r *identity.Resolver) tea.Cmd {
	return func() tea.Msg {
		return SessionMsg{State: r.Resolve(ctx)}
	}
}

// ResolveTenant returns a command that restores or asks for a tenant.
func ResolveTenant(ctx context.Context, r *tenant.Resolver, s model.Session) tea.Cmd {
	return func() tea.Msg {
		out, err := r.Resolve(ctx, s)
		return TenantsMsg{Outcome: out, Err: err}
	}
}

// SelectTenant returns a command that persists and activates t.
func SelectTenant(ctx context.Context, r *tenant.Resolver, t model.Tenant) tea.Cmd {
	return func() tea.Msg {
		sel, err := r.Select(ctx, t)
		return TenantSelectedMsg{Selection: sel, Err: err}
	}
}

// CreateTenant returns a command that creates a tenant and selects it.
func CreateTenant(ctx context.Context, r *tenant.Resolver, s model.Session, name string) tea.Cmd {
	return func() tea.Msg {
		sel, err := r.Create(ctx, s, name)
		return TenantSelectedMsg{Selection: sel, Err: err}
	}
}

// ForgetTenant returns a command that clears the stored tenant.
func ForgetTenant(ctx context.Context, r *tenant.Resolver) tea.Cmd {
	return func() tea.Msg {
		return TenantForgottenMsg{Err: r.Forget(ctx)}
	}
}

// LoadMonth returns a command that fetches and projects m.
func LoadMonth(ctx context.Context, s *calendar.Service, m calendar.Month) tea.Cmd {
	return func() tea.Msg {
		g, err := s.Month(ctx, m)
		return MonthMsg{Month: m, Grid: g, Err: err}
	}
}

// LoadQueue returns a command that fetches the drafts into c.
func LoadQueue(ctx context.Context, c *review.Controller) tea.Cmd {
	return func() tea.Msg {
		return QueueMsg{Err: c.Load(ctx)}
	}
}

// Approve returns a command that schedules the current post.
func Approve(ctx context.Context, c *review.Controller) tea.Cmd {
	return func() tea.Msg {
		p, err := c.Approve(ctx)
		return MutationMsg{Action: "approve", Post: p, Err: err}
	}
}

// Reject returns a command that rejects the current post.
func Reject(ctx context.Context, c *review.Controller) tea.Cmd {
	return func() tea.Msg {
		p, err := c.Reject(ctx)
		return MutationMsg{Action: "reject", Post: p, Err: err}
	}
}

// ExpireNotification returns a command that removes notification id after d.
func ExpireNotification(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return NotificationExpiredMsg{ID: id}
	})
}
