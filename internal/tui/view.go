package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/logstream/internal/model"
)

// compactHeight is the terminal height below which the stats chart
// collapses to a single summary line.
const compactHeight = 24

const (
	waitingText    = "Waiting for log entries..."
	noMatchText    = "No log entries match the current filters"
	dashboardTitle = "Log Stream"
)

// View renders the dashboard.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderFilterBar(),
		m.renderLogs(),
		m.renderStats(),
		m.renderHelp(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) chromeHeight() int {
	return 3 + lipgloss.Height(m.renderStats())
}

func (m *Model) renderHeader() string {
	conn := m.widget.Connection()
	left := titleStyle.Render(dashboardTitle) +
		barStyle.Render(" ") + connectionDot(conn) + barStyle.Render(" "+conn.String())

	if m.widget.Paused() {
		left += barStyle.Render("  ") + pausedStyle.Render("PAUSED")
		if n := m.widget.Dropped(); n > 0 {
			left += barStyle.Render(fmt.Sprintf(" %d dropped", n))
		}
	}

	right := fmt.Sprintf("%d/%d entries ", m.widget.Len(), m.widget.Cap())
	if !m.autoScroll {
		right = "auto-scroll off  " + right
	}
	right = barStyle.Render(right)

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + barStyle.Render(strings.Repeat(" ", gap)) + right
}

func (m *Model) renderFilterBar() string {
	if m.searching {
		return m.search.View()
	}
	f := m.widget.Filter()
	parts := []string{
		"level: " + filterLabel(f.Level),
		"source: " + filterLabel(f.Source),
	}
	if f.SearchQuery != "" {
		parts = append(parts, fmt.Sprintf("search: %q", f.SearchQuery))
	}
	parts = append(parts, fmt.Sprintf("showing %d", m.list.Len()))
	return filterBarStyle.Render(strings.Join(parts, "  │  "))
}

func filterLabel(v string) string {
	if v == "" || v == model.LevelAll {
		return "all"
	}
	return v
}

func (m *Model) renderLogs() string {
	if m.list.Len() > 0 {
		return m.viewport.View()
	}
	text := noMatchText
	if m.widget.Len() == 0 {
		text = waitingText
	}
	return lipgloss.Place(m.listWidth(), m.listHeight(), lipgloss.Center, lipgloss.Center, emptyStyle.Render(text))
}

func (m *Model) renderStats() string {
	s := m.widget.Stats()
	if m.height < compactHeight {
		label := "local"
		if m.widget.StatsAuthoritative() {
			label = "server"
		}
		return statsSummary(s) + helpStyle.Render("  ("+label+")")
	}
	return renderStatsPanel(s, m.width, m.widget.StatsAuthoritative())
}

func (m *Model) renderHelp() string {
	if m.searching {
		return helpStyle.Render("enter: keep search • esc: clear search")
	}
	bindings := m.keys.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return helpStyle.Render(truncate(strings.Join(parts, " • "), max(m.width, 10)))
}
