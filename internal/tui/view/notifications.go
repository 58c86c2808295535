package view

import (
	"strings"

	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/tui/styles"
)

// Notification is a transient message on screen.
type Notification struct {
	ID      int
	Level   event.Level
	Message string
}

// Notifications renders the visible notifications, newest last.
func Notifications(ns []Notification) string {
	if len(ns) == 0 {
		return ""
	}
	lines := make([]string, len(ns))
	for i, n := range ns {
		lines[i] = styles.Notification(n.Level).Render(levelIcon(n.Level) + " " + n.Message)
	}
	return strings.Join(lines, "\n")
}

func levelIcon(l event.Level) string {
	switch l {
	case event.LevelSuccess:
		return "✓"
	case event.LevelWarning:
		return "!"
	case event.LevelError:
		return "✗"
	default:
		return "i"
	}
}
