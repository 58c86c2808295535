package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/review"
	"github.com/somesimplify/somectl/internal/tenant"
	"github.com/somesimplify/somectl/internal/tui/msg"
	"github.com/somesimplify/somectl/internal/tui/view"
	"github.com/somesimplify/somectl/internal/util"
)

// Update handles messages and key presses.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch mm := message.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = mm.Width, mm.Height
		m.textArea.SetWidth(max(mm.Width-10, 20))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(mm)
		return m, cmd

	case msg.NotificationMsg:
		return m.notify(mm.Level, mm.Message)

	case msg.NotificationExpiredMsg:
		for i, n := range m.notifications {
			if n.ID == mm.ID {
				m.notifications = append(m.notifications[:i:i], m.notifications[i+1:]...)
				break
			}
		}
		return m, nil

	case msg.SessionMsg:
		return m.handleSession(mm)
	case msg.TenantsMsg:
		return m.handleTenants(mm)
	case msg.TenantSelectedMsg:
		return m.handleTenantSelected(mm)
	case msg.TenantForgottenMsg:
		return m.handleTenantForgotten(mm)
	case msg.MonthMsg:
		return m.handleMonth(mm)
	case msg.QueueMsg:
		return m.handleQueue(mm)
	case msg.MutationMsg:
		return m.handleMutation(mm)

	case tea.KeyMsg:
		if mm.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.screen {
		case screenGate:
			return m.handleGateKey(mm)
		case screenTenant:
			return m.handleTenantKey(mm)
		case screenCalendar:
			return m.handleCalendarKey(mm)
		case screenReview:
			return m.handleReviewKey(mm)
		}
	}

	// Cursor blink and other input-internal messages.
	return m.updateInputs(message)
}

func (m Model) updateInputs(message tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.screen == screenTenant && m.creating:
		m.nameInput, cmd = m.nameInput.Update(message)
	case m.screen == screenReview && m.editing == view.FieldText:
		m.textArea, cmd = m.textArea.Update(message)
	case m.screen == screenReview && m.editing != view.FieldNone:
		m.fieldInput, cmd = m.fieldInput.Update(message)
	}
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.shutdown()
	m.quitting = true
	return m, tea.Quit
}

func (m Model) notify(level event.Level, text string) (tea.Model, tea.Cmd) {
	m.nextNotification++
	n := view.Notification{ID: m.nextNotification, Level: level, Message: text}
	m.notifications = append(m.notifications, n)
	if len(m.notifications) > maxNotifications {
		m.notifications = m.notifications[len(m.notifications)-maxNotifications:]
	}
	return m, msg.ExpireNotification(n.ID, m.deps.Config.TUI.NotificationDuration())
}

// -----------------------------------------------------------------------------
// Session gate
// -----------------------------------------------------------------------------

func (m Model) handleSession(mm msg.SessionMsg) (tea.Model, tea.Cmd) {
	m.session = mm.State
	if !mm.State.Gate() {
		return m, nil
	}
	m.deps.Logger.Info("session resolved", "user_id", mm.State.Session.UserID)
	m.screen = screenTenant
	m.tenantBusy = true
	return m, msg.ResolveTenant(m.ctx, m.deps.Tenants, m.session.Session)
}

func (m Model) handleGateKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q", "esc":
		return m.quit()
	}
	return m, nil
}

// -----------------------------------------------------------------------------
// Tenant picker
// -----------------------------------------------------------------------------

func (m Model) handleTenants(mm msg.TenantsMsg) (tea.Model, tea.Cmd) {
	m.tenantBusy = false
	if mm.Err != nil {
		m.tenantErr = mm.Err
		return m, nil
	}
	m.tenantErr = nil
	m.tenants = mm.Outcome.Tenants
	m.tenantCursor = 0

	switch mm.Outcome.Kind {
	case tenant.KindRestored:
		return m.activate(*mm.Outcome.Selection)
	case tenant.KindNoTenants:
		return m.startCreate()
	}
	m.creating = false
	return m, nil
}

func (m Model) handleTenantSelected(mm msg.TenantSelectedMsg) (tea.Model, tea.Cmd) {
	m.tenantBusy = false
	if mm.Err != nil {
		m.tenantErr = mm.Err
		return m, nil
	}
	m.tenantErr = nil
	m.creating = false
	m.nameInput.Blur()
	return m.activate(mm.Selection)
}

func (m Model) handleTenantForgotten(mm msg.TenantForgottenMsg) (tea.Model, tea.Cmd) {
	if mm.Err != nil {
		return m.notify(event.LevelError, "Could not switch workspace: "+errors.UserMessage(mm.Err))
	}
	m.closeReview()
	if m.calendar != nil {
		m.calendar.Close()
		m.calendar = nil
	}
	m.selection = nil
	m.tenants = nil
	m.screen = screenTenant
	m.tenantBusy = true
	return m, msg.ResolveTenant(m.ctx, m.deps.Tenants, m.session.Session)
}

func (m Model) startCreate() (tea.Model, tea.Cmd) {
	m.creating = true
	m.tenantErr = nil
	m.nameInput.Reset()
	return m, m.nameInput.Focus()
}

func (m Model) handleTenantKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tenantBusy {
		return m, nil
	}
	if m.creating {
		switch k.String() {
		case "esc":
			if len(m.tenants) > 0 {
				m.creating = false
				m.tenantErr = nil
				m.nameInput.Blur()
			}
			return m, nil
		case "enter":
			m.tenantBusy = true
			return m, msg.CreateTenant(m.ctx, m.deps.Tenants, m.session.Session, m.nameInput.Value())
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(k)
		return m, cmd
	}

	switch k.String() {
	case "q":
		return m.quit()
	case "j", "down":
		m.tenantCursor = min(m.tenantCursor+1, max(len(m.tenants)-1, 0))
	case "k", "up":
		m.tenantCursor = max(m.tenantCursor-1, 0)
	case "n":
		return m.startCreate()
	case "r":
		if m.tenantErr != nil {
			m.tenantBusy = true
			return m, msg.ResolveTenant(m.ctx, m.deps.Tenants, m.session.Session)
		}
	case "enter":
		if len(m.tenants) == 0 {
			return m, nil
		}
		m.tenantBusy = true
		return m, msg.SelectTenant(m.ctx, m.deps.Tenants, m.tenants[m.tenantCursor])
	}
	return m, nil
}

// activate switches to the calendar of sel's tenant.
func (m Model) activate(sel tenant.Selection) (tea.Model, tea.Cmd) {
	cfg := m.deps.Config
	if m.calendar != nil {
		m.calendar.Close()
	}
	m.selection = &sel
	m.calendar = calendar.NewService(sel.Client,
		calendar.WithCache(cfg.Calendar.CacheSize, cfg.Calendar.CacheTTL()),
		calendar.WithClock(m.deps.Now),
		calendar.WithLogger(m.deps.Logger),
		calendar.WithBus(m.deps.Bus),
	)
	m.deps.Logger.Info("tenant active", "tenant_id", sel.Tenant.ID)

	now := m.deps.Now().In(m.deps.Location)
	m.screen = screenCalendar
	m.month = calendar.MonthOf(now)
	m.selectedDay = now.Day()
	m.grid = calendar.Project(m.month, nil, now)
	return m.loadMonth()
}

// -----------------------------------------------------------------------------
// Calendar
// -----------------------------------------------------------------------------

func (m Model) loadMonth() (tea.Model, tea.Cmd) {
	m.monthBusy = true
	return m, msg.LoadMonth(m.ctx, m.calendar, m.month)
}

func (m Model) handleMonth(mm msg.MonthMsg) (tea.Model, tea.Cmd) {
	if mm.Month != m.month {
		return m, nil
	}
	m.monthBusy = false
	if mm.Err != nil {
		m.monthErr = mm.Err
		return m, nil
	}
	m.monthErr = nil
	m.grid = mm.Grid
	return m, nil
}

func (m Model) handleCalendarKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q":
		return m.quit()
	case "left":
		return m.moveDay(-1)
	case "right":
		return m.moveDay(1)
	case "up":
		return m.moveDay(-calendar.DaysPerWeek)
	case "down":
		return m.moveDay(calendar.DaysPerWeek)
	case "h", "pgup":
		return m.showMonth(m.month.Prev())
	case "l", "pgdown":
		return m.showMonth(m.month.Next())
	case "R":
		m.calendar.Invalidate()
		return m.loadMonth()
	case "r":
		return m.openReview(time.Time{})
	case "T":
		return m, msg.ForgetTenant(m.ctx, m.deps.Tenants)
	case "enter":
		action := m.grid.Click(m.selectedDay)
		if action.Kind == calendar.ActionOpenReview {
			return m.openReview(action.Date)
		}
		if c, ok := m.grid.Day(m.selectedDay); ok && len(c.Posts) > 0 {
			return m.notify(event.LevelInfo, util.Plural(len(c.Posts), "post", "posts")+" already planned for this day")
		}
	}
	return m, nil
}

// moveDay moves the selection by delta days, crossing into the adjacent
// month when needed.
func (m Model) moveDay(delta int) (tea.Model, tea.Cmd) {
	target := m.month.Date(m.selectedDay).AddDate(0, 0, delta)
	m.selectedDay = target.Day()
	if next := calendar.MonthOf(target); next != m.month {
		m.month = next
		m.grid = calendar.Project(next, nil, m.deps.Now().In(m.deps.Location))
		return m.loadMonth()
	}
	return m, nil
}

func (m Model) showMonth(next calendar.Month) (tea.Model, tea.Cmd) {
	m.month = next
	m.selectedDay = min(m.selectedDay, next.Days())
	m.grid = calendar.Project(next, nil, m.deps.Now().In(m.deps.Location))
	m.monthErr = nil
	return m.loadMonth()
}

// -----------------------------------------------------------------------------
// Review queue
// -----------------------------------------------------------------------------

// openReview opens the queue. A non-zero date seeds the schedule date.
func (m Model) openReview(date time.Time) (tea.Model, tea.Cmd) {
	cfg := m.deps.Config
	opts := []review.Option{
		review.WithClock(m.deps.Now),
		review.WithLocation(m.deps.Location),
		review.WithDefaultTime(cfg.Review.DefaultTime),
		review.WithLogger(m.deps.Logger),
		review.WithBus(m.deps.Bus),
	}
	if !date.IsZero() {
		opts = append(opts, review.WithDefaultDate(date))
	}
	m.closeReview()
	m.review = review.NewController(m.selection.Client, opts...)
	m.screen = screenReview
	m.editing = view.FieldNone
	m.reviewErr = nil
	return m, msg.LoadQueue(m.ctx, m.review)
}

func (m *Model) closeReview() {
	if m.review != nil {
		m.review.Close()
		m.review = nil
	}
	m.editing = view.FieldNone
	m.reviewErr = nil
}

func (m Model) handleQueue(mm msg.QueueMsg) (tea.Model, tea.Cmd) {
	if m.screen != screenReview || errors.Is(mm.Err, errors.ErrClosed) {
		return m, nil
	}
	m.reviewErr = mm.Err
	return m, nil
}

func (m Model) handleMutation(mm msg.MutationMsg) (tea.Model, tea.Cmd) {
	if m.screen != screenReview {
		return m, nil
	}
	switch {
	case mm.Err == nil:
		m.reviewErr = nil
	case errors.Is(mm.Err, errors.ErrClosed), errors.Is(mm.Err, errors.ErrMutationPending):
	case errors.Classify(mm.Err) == errors.CategoryValidation:
		m.reviewErr = mm.Err
	default:
		// The controller already published a notification.
		m.reviewErr = nil
	}
	return m, nil
}

func (m Model) handleReviewKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing != view.FieldNone {
		return m.handleEditKey(k)
	}
	snap := m.review.Snapshot()

	switch k.String() {
	case "esc", "q":
		m.closeReview()
		m.screen = screenCalendar
		return m.loadMonth()
	case "r":
		if snap.State == review.StateLoading && m.reviewErr != nil {
			m.reviewErr = nil
			return m, msg.LoadQueue(m.ctx, m.review)
		}
	}
	if snap.State != review.StateIdle {
		return m, nil
	}

	switch k.String() {
	case "left", "h":
		m.review.Navigate(-1)
		m.reviewErr = nil
	case "right", "l":
		m.review.Navigate(1)
		m.reviewErr = nil
	case "e":
		m.editing = view.FieldText
		m.textArea.SetValue(snap.Form.Text)
		return m, m.textArea.Focus()
	case "d":
		return m.editField(view.FieldDate, snap.Form.DateString(), "YYYY-MM-DD")
	case "t":
		return m.editField(view.FieldTime, snap.Form.Time, "HH:MM")
	case "a":
		m.reviewErr = nil
		return m, msg.Approve(m.ctx, m.review)
	case "x":
		m.reviewErr = nil
		return m, msg.Reject(m.ctx, m.review)
	}
	return m, nil
}

func (m Model) editField(f view.Field, value, placeholder string) (tea.Model, tea.Cmd) {
	m.editing = f
	m.reviewErr = nil
	m.fieldInput.Placeholder = placeholder
	m.fieldInput.SetValue(value)
	m.fieldInput.CursorEnd()
	return m, m.fieldInput.Focus()
}

func (m Model) handleEditKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "esc" {
		m.stopEditing()
		return m, nil
	}

	var err error
	switch m.editing {
	case view.FieldText:
		if k.String() != "ctrl+s" {
			var cmd tea.Cmd
			m.textArea, cmd = m.textArea.Update(k)
			return m, cmd
		}
		err = m.review.EditText(m.textArea.Value())

	case view.FieldDate, view.FieldTime:
		if k.String() != "enter" {
			var cmd tea.Cmd
			m.fieldInput, cmd = m.fieldInput.Update(k)
			return m, cmd
		}
		err = m.commitField()
	}

	if err != nil {
		m.reviewErr = err
		return m, nil
	}
	m.stopEditing()
	return m, nil
}

func (m Model) commitField() error {
	value := m.fieldInput.Value()
	if m.editing == view.FieldTime {
		return m.review.SetTime(value)
	}
	if value == "" {
		m.review.SetDate(time.Time{})
		return nil
	}
	d, err := review.ParseDate(value)
	if err != nil {
		return err
	}
	m.review.SetDate(d)
	return nil
}

func (m *Model) stopEditing() {
	m.editing = view.FieldNone
	m.reviewErr = nil
	m.textArea.Blur()
	m.fieldInput.Blur()
}

// String implements fmt.Stringer for log output.
func (s screen) String() string {
	switch s {
	case screenGate:
		return "gate"
	case screenTenant:
		return "tenant"
	case screenCalendar:
		return "calendar"
	case screenReview:
		return "review"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}
