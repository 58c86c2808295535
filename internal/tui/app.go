package tui

import (
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/tui/msg"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	bus     *event.Bus
}

// New creates a new TUI application
func New(deps Deps) *App {
	if deps.Bus == nil {
		deps.Bus = event.NewBus()
	}
	return &App{
		model: NewModel(deps),
		bus:   deps.Bus,
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Notifications are published from command goroutines and from bus
	// handlers that may run inside Update, so they are forwarded
	// asynchronously.
	subID := a.bus.Subscribe(event.TypeNotification, func(e event.Event) {
		n, ok := e.(event.NotificationEvent)
		if !ok {
			return
		}
		go a.program.Send(msg.NotificationMsg{Level: n.Level, Message: n.Message})
	})
	defer a.bus.Unsubscribe(subID)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		if _, ok := <-sigChan; ok && a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	final, err := a.program.Run()

	signal.Stop(sigChan)
	close(sigChan)

	if m, ok := final.(Model); ok {
		m.shutdown()
	} else {
		a.model.shutdown()
	}
	return err
}
