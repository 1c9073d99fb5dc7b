package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/logstream/internal/model"
)

const (
	statsChartHeight = 6
	statsLegendWidth = 18
)

var statsLevels = []string{
	model.LevelError, model.LevelWarn, model.LevelInfo,
	model.LevelDebug, model.LevelTrace, model.LevelUnknown,
}

// renderStatsPanel draws per-level counts as a bar chart with a legend.
// authoritative marks counts that came from the server.
func renderStatsPanel(s model.Stats, width int, authoritative bool) string {
	title := "Log Stats"
	if authoritative {
		title += helpStyle.Render("  (server)")
	} else {
		title += helpStyle.Render("  (local)")
	}

	legend := renderStatsLegend(s)
	chartWidth := width - statsLegendWidth - 6
	if chartWidth < 12 {
		return sectionStyle.Width(max(width-2, 0)).Render(lipgloss.JoinVertical(lipgloss.Left, title, legend))
	}

	bc := barchart.New(chartWidth, statsChartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(max(1, min(4, chartWidth/len(statsLevels)-1))),
	)
	for _, level := range statsLevels {
		color := levelColor(level)
		bc.Push(barchart.BarData{
			Label: shortLevel(level),
			Values: []barchart.BarValue{{
				Name:  level,
				Value: float64(s.ByLevel[level]),
				Style: lipgloss.NewStyle().Foreground(color).Background(color),
			}},
		})
	}
	bc.Draw()

	body := lipgloss.JoinHorizontal(lipgloss.Top, legend, "  ", bc.View())
	return sectionStyle.Width(max(width-2, 0)).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func renderStatsLegend(s model.Stats) string {
	lines := make([]string, 0, len(statsLevels)+2)
	for _, level := range statsLevels {
		label := fmt.Sprintf("%-7s:%8d", strings.ToUpper(level), s.ByLevel[level])
		lines = append(lines, lipgloss.NewStyle().Foreground(levelColor(level)).Render(label))
	}
	lines = append(lines, helpStyle.Render(strings.Repeat("─", statsLegendWidth-2)))
	lines = append(lines, fmt.Sprintf("%-7s:%8d", "TOTAL", s.Total))
	return strings.Join(lines, "\n")
}

// statsSummary is the one-line form used when the terminal is short.
func statsSummary(s model.Stats) string {
	parts := make([]string, 0, len(statsLevels)+1)
	parts = append(parts, fmt.Sprintf("total %d", s.Total))
	for _, level := range statsLevels {
		if n := s.ByLevel[level]; n > 0 {
			parts = append(parts, lipgloss.NewStyle().Foreground(levelColor(level)).Render(fmt.Sprintf("%s %d", level, n)))
		}
	}
	return strings.Join(parts, "  ")
}

func shortLevel(level string) string {
	switch level {
	case model.LevelError:
		return "ERR"
	case model.LevelWarn:
		return "WRN"
	case model.LevelInfo:
		return "INF"
	case model.LevelDebug:
		return "DBG"
	case model.LevelTrace:
		return "TRC"
	default:
		return "UNK"
	}
}
