package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/logstream/internal/model"
)

var (
	ColorNavy  = lipgloss.Color("17")
	ColorWhite = lipgloss.Color("255")
	ColorDim   = lipgloss.Color("240")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite).Background(ColorNavy).Padding(0, 1)
	barStyle       = lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorNavy)
	filterBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	helpStyle      = lipgloss.NewStyle().Foreground(ColorDim)
	emptyStyle     = lipgloss.NewStyle().Foreground(ColorDim).Italic(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	timeStyle      = lipgloss.NewStyle().Foreground(ColorDim)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("220"))
	pausedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("214")).Padding(0, 1)
	sectionStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorDim)
)

// levelColors follows the severity palette used across the dashboard.
var levelColors = map[string]lipgloss.Color{
	model.LevelError:   lipgloss.Color("196"),
	model.LevelWarn:    lipgloss.Color("208"),
	model.LevelInfo:    lipgloss.Color("39"),
	model.LevelDebug:   lipgloss.Color("244"),
	model.LevelTrace:   lipgloss.Color("240"),
	model.LevelUnknown: lipgloss.Color("250"),
}

func levelColor(level string) lipgloss.Color {
	return levelColors[model.LevelKey(level)]
}

func levelStyle(level string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(levelColor(level))
}

// connectionDot renders the connection indicator.
func connectionDot(state model.ConnectionState) string {
	var color lipgloss.Color
	switch state {
	case model.Connected:
		color = lipgloss.Color("#44FF44")
	case model.Connecting:
		color = lipgloss.Color("#FFAA00")
	default:
		color = lipgloss.Color("#FF4444")
	}
	return lipgloss.NewStyle().Background(ColorNavy).Foreground(color).Render("●")
}
