package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/config"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/identity"
	"github.com/somesimplify/somectl/internal/logging"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/review"
	"github.com/somesimplify/somectl/internal/tenant"
	"github.com/somesimplify/somectl/internal/tui/msg"
	"github.com/somesimplify/somectl/internal/tui/styles"
	"github.com/somesimplify/somectl/internal/tui/view"
)

// maxNotifications is how many notifications are on screen at once.
const maxNotifications = 3

// screen is the top-level view. Each screen is only reachable once the one
// before it has settled.
type screen int

const (
	screenGate screen = iota
	screenTenant
	screenCalendar
	screenReview
)

// Deps are the services the TUI drives.
type Deps struct {
	Identity *identity.Resolver
	Tenants  *tenant.Resolver
	Bus      *event.Bus
	Logger   *logging.Logger
	Config   *config.Config
	// Now and Location default to time.Now and time.Local.
	Now      func() time.Time
	Location *time.Location
}

// Model is the root Bubbletea model.
type Model struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
	screen screen
	spin   spinner.Model

	session identity.State

	// Tenant picker
	tenants      []model.Tenant
	tenantCursor int
	tenantBusy   bool
	creating     bool
	nameInput    textinput.Model
	tenantErr    error

	// Active tenant
	selection   *tenant.Selection
	calendar    *calendar.Service
	month       calendar.Month
	grid        calendar.Grid
	selectedDay int
	monthBusy   bool
	monthErr    error

	// Review queue
	review     *review.Controller
	editing    view.Field
	textArea   textarea.Model
	fieldInput textinput.Model
	reviewErr  error

	notifications    []view.Notification
	nextNotification int

	quitting bool
}

// NewModel creates the root model.
func NewModel(deps Deps) Model {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NopLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	deps.Logger = deps.Logger.WithComponent("tui")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Primary

	name := textinput.New()
	name.Placeholder = "Workspace name"
	name.CharLimit = 80
	name.Width = 40

	field := textinput.New()
	field.CharLimit = 10
	field.Width = 12

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 2200
	ta.SetHeight(8)

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		deps:       deps,
		ctx:        ctx,
		cancel:     cancel,
		width:      100,
		spin:       sp,
		nameInput:  name,
		fieldInput: field,
		textArea:   ta,
	}
}

// Init starts the session resolution.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, msg.ResolveSession(m.ctx, m.deps.Identity))
}

// View renders the current screen followed by any notifications.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.screen {
	case screenGate:
		body = view.Gate(m.session, m.spin.View())
	case screenTenant:
		if m.tenantBusy && !m.creating && len(m.tenants) == 0 {
			body = view.Loading(m.spin.View(), "Loading workspaces…")
		} else {
			body = view.Picker(view.PickerState{
				Tenants:  m.tenants,
				Cursor:   m.tenantCursor,
				Creating: m.creating,
				Input:    m.nameInput.View(),
				Busy:     m.tenantBusy,
				Spinner:  m.spin.View(),
				Err:      m.tenantErr,
			})
		}
	case screenCalendar:
		body = view.Calendar(view.CalendarState{
			Tenant:      m.tenantName(),
			Grid:        m.grid,
			Selected:    m.selectedDay,
			Width:       m.width,
			WeekNumbers: m.deps.Config.TUI.WeekNumbers,
			Loading:     m.monthBusy,
			Spinner:     m.spin.View(),
			Err:         m.monthErr,
		})
	case screenReview:
		body = view.Review(m.reviewState())
	}

	if n := view.Notifications(m.notifications); n != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, n)
	}
	return body
}

func (m Model) reviewState() view.ReviewState {
	s := view.ReviewState{
		Editing: m.editing,
		Width:   m.width,
		Spinner: m.spin.View(),
		Err:     m.reviewErr,
	}
	if m.review != nil {
		s.Snapshot = m.review.Snapshot()
	}
	switch m.editing {
	case view.FieldText:
		s.Editor = m.textArea.View()
	case view.FieldDate, view.FieldTime:
		s.Editor = m.fieldInput.View()
	}
	return s
}

func (m Model) tenantName() string {
	if m.selection == nil {
		return ""
	}
	return m.selection.Tenant.Name
}

// shutdown cancels outstanding requests and releases the active tenant's
// services.
func (m Model) shutdown() {
	m.cancel()
	if m.review != nil {
		m.review.Close()
	}
	if m.calendar != nil {
		m.calendar.Close()
	}
}
