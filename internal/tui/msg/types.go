package msg

import (
	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/identity"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/tenant"
)

// SessionMsg carries the settled session state.
type SessionMsg struct {
	State identity.State
}

// TenantsMsg carries the result of resolving the tenant selection.
type TenantsMsg struct {
	Outcome tenant.Outcome
	Err     error
}

// TenantSelectedMsg is sent after a tenant was picked or created.
type TenantSelectedMsg struct {
	Selection tenant.Selection
	Err       error
}

// TenantForgottenMsg is sent after the stored tenant was cleared so the
// picker can be shown again.
type TenantForgottenMsg struct {
	Err error
}

// MonthMsg carries a projected month.
type MonthMsg struct {
	Month calendar.Month
	Grid  calendar.Grid
	Err   error
}

// QueueMsg is sent when the review queue finished loading.
type QueueMsg struct {
	Err error
}

// MutationMsg is sent when an approve or reject finished.
type MutationMsg struct {
	Action string
	Post   model.Post
	Err    error
}

// NotificationMsg is a transient message to show to the user.
type NotificationMsg struct {
	Level   event.Level
	Message string
}

// NotificationExpiredMsg removes the notification with ID.
type NotificationExpiredMsg struct {
	ID int
}
