package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/model"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA") // Blue

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Post status colors
	StatusDraft     = lipgloss.Color("#F59E0B") // Amber
	StatusScheduled = lipgloss.Color("#60A5FA") // Blue
	StatusPublished = lipgloss.Color("#10B981") // Green
	StatusRejected  = lipgloss.Color("#F87171") // Red

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// Content area
	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1)

	// Footer / status bar
	StatusBar = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Padding(0, 1)

	// List items (tenant picker, image list)
	ListItem = lipgloss.NewStyle().
			Padding(0, 1)

	ListItemActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 1)

	// Calendar cells
	DayHeader = lipgloss.NewStyle().
			Foreground(MutedColor).
			Bold(true).
			Align(lipgloss.Center)

	DayCell = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)

	DayCellToday = DayCell.
			BorderForeground(SecondaryColor)

	DayCellSelected = DayCell.
			BorderForeground(PrimaryColor).
			Bold(true)

	DayCellBlank = lipgloss.NewStyle().
			Border(lipgloss.HiddenBorder()).
			Padding(0, 1)

	// Review form labels
	FieldLabel = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(8)

	FieldLabelActive = FieldLabel.
				Foreground(PrimaryColor).
				Bold(true)

	// Error message
	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// Success message
	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	// Warning message
	WarningMsg = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// Info message
	InfoMsg = lipgloss.NewStyle().
		Foreground(BlueColor)
)

// StatusColor returns the color for a post status
func StatusColor(status model.Status) lipgloss.Color {
	switch status {
	case model.StatusDraft:
		return StatusDraft
	case model.StatusScheduled:
		return StatusScheduled
	case model.StatusPublished:
		return StatusPublished
	case model.StatusRejected:
		return StatusRejected
	default:
		return MutedColor
	}
}

// StatusIcon returns an icon for a post status
func StatusIcon(status model.Status) string {
	switch status {
	case model.StatusDraft:
		return "○"
	case model.StatusScheduled:
		return "◷"
	case model.StatusPublished:
		return "✓"
	case model.StatusRejected:
		return "✗"
	default:
		return "●"
	}
}

// Notification returns the style for a notification level
func Notification(level event.Level) lipgloss.Style {
	switch level {
	case event.LevelSuccess:
		return SuccessMsg
	case event.LevelWarning:
		return WarningMsg
	case event.LevelError:
		return ErrorMsg
	default:
		return InfoMsg
	}
}
